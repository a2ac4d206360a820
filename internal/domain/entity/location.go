package entity

// Coordinates географические координаты точки съёмки
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// FallbackCoordinates подставляются, если получить реальные координаты не удалось.
var FallbackCoordinates = Coordinates{Latitude: 12.9716, Longitude: 77.5946}

// LocationFix результат определения местоположения.
type LocationFix struct {
	Coordinates Coordinates
	Fallback    bool // true, если вместо реальных координат подставлен запасной вариант
}

// NewFix создаёт фиксацию по реальным координатам устройства
func NewFix(c Coordinates) LocationFix {
	return LocationFix{Coordinates: c}
}

// NewFallbackFix создаёт фиксацию с запасными координатами
func NewFallbackFix(c Coordinates) LocationFix {
	return LocationFix{Coordinates: c, Fallback: true}
}
