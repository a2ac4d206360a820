package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rescue-bot/internal/domain/entity"
	"rescue-bot/internal/domain/port"
)

// DefaultLocationTimeout время ожидания координат от устройства
const DefaultLocationTimeout = 15 * time.Second

// LocationResolver получает координаты устройства с проверкой разрешения.
type LocationResolver struct {
	gate     port.PermissionGate
	locator  port.Locator
	timeout  time.Duration
	fallback entity.Coordinates
}

// NewLocationResolver создаёт резолвер. Нулевой timeout заменяется на DefaultLocationTimeout.
func NewLocationResolver(gate port.PermissionGate, locator port.Locator, timeout time.Duration, fallback entity.Coordinates) *LocationResolver {
	if timeout <= 0 {
		timeout = DefaultLocationTimeout
	}
	return &LocationResolver{
		gate:     gate,
		locator:  locator,
		timeout:  timeout,
		fallback: fallback,
	}
}

// Resolve возвращает координаты устройства.
// Отказ в разрешении возвращает entity.ErrPermissionDenied, любая другая ошибка
// заменяется запасными координатами с флагом Fallback.
func (r *LocationResolver) Resolve(ctx context.Context) (entity.LocationFix, error) {
	granted, err := r.gate.Request(ctx, entity.PermissionLocation)
	if err != nil {
		return r.useFallback(ctx, fmt.Errorf("request permission: %w", err)), nil
	}
	if !granted {
		return entity.LocationFix{}, entity.ErrPermissionDenied
	}

	coords, err := r.currentPosition(ctx)
	if err != nil {
		return r.useFallback(ctx, err), nil
	}

	return entity.NewFix(coords), nil
}

// currentPosition ограничивает ожидание локатора по времени, даже если он не следит за контекстом.
func (r *LocationResolver) currentPosition(ctx context.Context) (entity.Coordinates, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type result struct {
		coords entity.Coordinates
		err    error
	}
	done := make(chan result, 1)
	go func() {
		coords, err := r.locator.CurrentPosition(ctx)
		done <- result{coords: coords, err: err}
	}()

	select {
	case res := <-done:
		return res.coords, res.err
	case <-ctx.Done():
		return entity.Coordinates{}, fmt.Errorf("wait for position: %w", ctx.Err())
	}
}

func (r *LocationResolver) useFallback(ctx context.Context, cause error) entity.LocationFix {
	err := errors.Join(entity.ErrLocationUnavailable, cause)
	slog.WarnContext(ctx, "using fallback coordinates",
		"error", err,
		"latitude", r.fallback.Latitude,
		"longitude", r.fallback.Longitude,
	)
	return entity.NewFallbackFix(r.fallback)
}
