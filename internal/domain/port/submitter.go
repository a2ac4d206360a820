package port

import (
	"context"

	"rescue-bot/internal/domain/entity"
)

// AnalysisSubmitter интерфейс клиента сервиса анализа
type AnalysisSubmitter interface {
	// Submit отправляет изображение и координаты одним запросом и возвращает сырой отчёт
	Submit(ctx context.Context, image entity.ImageDescriptor, coords entity.Coordinates) (*entity.RawReport, error)
}
