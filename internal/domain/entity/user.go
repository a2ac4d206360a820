package entity

// UserState состояние пользователя в диалоге
type UserState string

const (
	StateMainMenu         UserState = "main_menu"         // В главном меню
	StateAwaitingPhoto    UserState = "awaiting_photo"    // Ожидание фото животного
	StateAwaitingLocation UserState = "awaiting_location" // Ожидание геопозиции
	StateAnalyzing        UserState = "analyzing"         // Идёт анализ
)

// Permission разрешение, которое запрашивается у пользователя
type Permission string

const (
	PermissionCamera   Permission = "camera"
	PermissionGallery  Permission = "gallery"
	PermissionLocation Permission = "location"
)

// PermissionFor возвращает разрешение, нужное для источника изображения
func PermissionFor(source ImageSource) Permission {
	if source == SourceCamera {
		return PermissionCamera
	}
	return PermissionGallery
}

// User представляет пользователя бота
type User struct {
	ID     int64               // Telegram User ID
	ChatID int64               // Telegram Chat ID
	State  UserState           // Текущее состояние пользователя
	Grants map[Permission]bool // Выданные разрешения
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
		Grants: make(map[Permission]bool),
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// Grant запоминает выданное разрешение
func (u *User) Grant(p Permission) {
	if u.Grants == nil {
		u.Grants = make(map[Permission]bool)
	}
	u.Grants[p] = true
}

// Granted сообщает, выдано ли разрешение
func (u *User) Granted(p Permission) bool {
	return u.Grants[p]
}

// RevokeAll забывает все выданные разрешения
func (u *User) RevokeAll() {
	u.Grants = make(map[Permission]bool)
}

// Clone возвращает независимую копию пользователя
func (u *User) Clone() *User {
	c := *u
	c.Grants = make(map[Permission]bool, len(u.Grants))
	for p, ok := range u.Grants {
		c.Grants[p] = ok
	}
	return &c
}
