package app

import (
	"context"
	"fmt"
	"log/slog"

	"rescue-bot/internal/domain/entity"
	"rescue-bot/internal/domain/port"
)

// ImageAcquirer получает изображение с камеры или из галереи.
type ImageAcquirer struct {
	gate   port.PermissionGate
	picker port.ImagePicker
	ack    port.Acknowledger
}

// NewImageAcquirer создаёт сервис выбора изображения. ack может быть nil.
func NewImageAcquirer(gate port.PermissionGate, picker port.ImagePicker, ack port.Acknowledger) *ImageAcquirer {
	return &ImageAcquirer{
		gate:   gate,
		picker: picker,
		ack:    ack,
	}
}

// Acquire запрашивает разрешение для источника и открывает пикер.
// ok == false без ошибки означает, что пользователь отменил выбор.
func (a *ImageAcquirer) Acquire(ctx context.Context, source entity.ImageSource) (entity.ImageDescriptor, bool, error) {
	if !source.Valid() {
		return entity.ImageDescriptor{}, false, fmt.Errorf("unknown image source %q", source)
	}

	granted, err := a.gate.Request(ctx, entity.PermissionFor(source))
	if err != nil {
		return entity.ImageDescriptor{}, false, fmt.Errorf("request %s permission: %w", source, err)
	}
	if !granted {
		return entity.ImageDescriptor{}, false, entity.ErrPermissionDenied
	}

	img, ok, err := a.picker.Pick(ctx, source)
	if err != nil {
		return entity.ImageDescriptor{}, false, fmt.Errorf("pick image: %w", err)
	}
	if !ok {
		return entity.ImageDescriptor{}, false, nil
	}

	img, err = img.Normalize()
	if err != nil {
		return entity.ImageDescriptor{}, false, err
	}

	// Подтверждение чисто декоративное, его ошибка не влияет на результат.
	if a.ack != nil {
		if err := a.ack.ImageAccepted(ctx, img); err != nil {
			slog.WarnContext(ctx, "image acknowledgment failed", "error", err)
		}
	}

	return img, true, nil
}

// Release освобождает временный файл изображения.
func (a *ImageAcquirer) Release(ctx context.Context, img entity.ImageDescriptor) {
	if err := a.picker.Release(ctx, img); err != nil {
		slog.WarnContext(ctx, "release image failed", "uri", img.URI, "error", err)
	}
}
