package port

import (
	"context"

	"rescue-bot/internal/domain/entity"
)

// PermissionGate запрашивает разрешения у пользователя
type PermissionGate interface {
	// Request возвращает true, если разрешение выдано (сейчас или ранее)
	Request(ctx context.Context, p entity.Permission) (bool, error)
}

// Locator источник координат устройства
type Locator interface {
	// CurrentPosition возвращает текущие координаты
	CurrentPosition(ctx context.Context) (entity.Coordinates, error)
}

// ImagePicker открывает камеру или галерею
type ImagePicker interface {
	// Pick возвращает выбранное изображение; ok == false, если пользователь отменил выбор
	Pick(ctx context.Context, source entity.ImageSource) (img entity.ImageDescriptor, ok bool, err error)

	// Release освобождает временный файл изображения
	Release(ctx context.Context, img entity.ImageDescriptor) error
}

// Acknowledger показывает пользователю, что изображение принято
type Acknowledger interface {
	ImageAccepted(ctx context.Context, img entity.ImageDescriptor) error
}

// StateListener получает каждое изменение состояния попытки
type StateListener interface {
	StateChanged(ctx context.Context, state entity.AttemptState)
}
