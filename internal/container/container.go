package container

import (
	"time"

	app "rescue-bot/internal/application"
	"rescue-bot/internal/domain/entity"
	"rescue-bot/internal/domain/port"
)

// Device всё, что конвейер получает от устройства пользователя
type Device interface {
	port.PermissionGate
	port.Locator
	port.ImagePicker
	port.Acknowledger
	port.StateListener
}

type Container struct {
	UserService *app.UserService
	Parser      *app.ReportParser

	submitter       port.AnalysisSubmitter
	locationTimeout time.Duration
	fallback        entity.Coordinates
}

func New(userRepo port.UserRepository, submitter port.AnalysisSubmitter, locationTimeout time.Duration, fallback entity.Coordinates) *Container {
	return &Container{
		UserService:     app.NewUserService(userRepo),
		Parser:          app.NewReportParser(),
		submitter:       submitter,
		locationTimeout: locationTimeout,
		fallback:        fallback,
	}
}

// NewPipeline собирает отдельный конвейер для одного устройства
func (c *Container) NewPipeline(device Device) *app.Pipeline {
	return app.NewPipeline(
		app.NewImageAcquirer(device, device, device),
		app.NewLocationResolver(device, device, c.locationTimeout, c.fallback),
		c.submitter,
		c.Parser,
		device,
	)
}
