package entity

import "strings"

// Severity тяжесть травмы
type Severity string

const (
	SeverityLow     Severity = "low"
	SeverityMedium  Severity = "medium"
	SeverityHigh    Severity = "high"
	SeverityUnknown Severity = "unknown"
)

// ParseSeverity нормализует значение без учёта регистра. Незнакомые значения дают unknown.
func ParseSeverity(s string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityLow:
		return SeverityLow
	case SeverityMedium:
		return SeverityMedium
	case SeverityHigh:
		return SeverityHigh
	default:
		return SeverityUnknown
	}
}

// Значения, которые подставляются вместо отсутствующих обязательных полей.
const (
	UnknownAnimal = "Unknown"
	NoInjury      = "None detected"
)

// AnalysisResult итог успешного анализа фотографии.
// Создаётся только из полностью разобранного отчёта.
type AnalysisResult struct {
	AnimalType         string
	BreedGuess         *string
	Injury             string
	Severity           Severity
	PersonnelRequired  *string
	EnvironmentFactors *string
	Equipment          []string // необходимое снаряжение, в исходном порядке
	Procedure          []string // шаги первой помощи
	Suggestions        *string
	ReportID           string
	Coordinates        Coordinates
}

// RawReport проверенный ответ сервиса анализа.
type RawReport struct {
	ReportData string // текст отчёта ИИ, возможно в блоке ```json
	ReportID   string
	Latitude   float64
	Longitude  float64
	Message    string
}

// Coordinates возвращает координаты, которые сервер сохранил вместе с отчётом
func (r RawReport) Coordinates() Coordinates {
	return Coordinates{Latitude: r.Latitude, Longitude: r.Longitude}
}
