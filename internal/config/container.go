package config

import (
	"pdf-suite-server/internal/domain"
	"pdf-suite-server/internal/infra/archive"
	"pdf-suite-server/internal/infra/onlyoffice"
	"pdf-suite-server/internal/infra/overlay"
	"pdf-suite-server/internal/infra/pdfdoc"
	"pdf-suite-server/internal/infra/raster"
	"pdf-suite-server/internal/repository"
	"pdf-suite-server/internal/service"
	"pdf-suite-server/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config domain.Config
	Logger domain.Logger

	Engine    domain.DocumentEngine
	Composer  domain.Composer
	Renderer  domain.Renderer
	Archiver  domain.Archiver
	Converter domain.Converter

	SessionRepository domain.SessionRepository

	ToolService       domain.ToolService
	AnnotationService domain.AnnotationService
	SessionService    *service.SessionService
	ConvertService    domain.ConvertService
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	cfg := NewConfig()
	appLogger := logger.NewLogger(cfg.GetLogLevel())

	// Infrastructure
	engine := pdfdoc.NewEngine(appLogger)
	composer := overlay.NewComposer(appLogger)
	renderer := raster.NewRenderer(appLogger)
	archiver := archive.NewZipper()
	converter := onlyoffice.NewClient(
		cfg.GetConverterURL(),
		cfg.GetConvertTimeout(),
		cfg.GetConvertConcurrency(),
		appLogger,
	)

	// Repositories
	sessionRepo := repository.NewSessionRepository(appLogger)

	// Services
	toolService := service.NewToolService(engine, composer, renderer, archiver, appLogger)
	annotationService := service.NewAnnotationService(engine, composer, appLogger)
	sessionService := service.NewSessionService(sessionRepo, engine, renderer, toolService, cfg, appLogger)
	convertService := service.NewConvertService(converter, appLogger)

	return &Container{
		Config:            cfg,
		Logger:            appLogger,
		Engine:            engine,
		Composer:          composer,
		Renderer:          renderer,
		Archiver:          archiver,
		Converter:         converter,
		SessionRepository: sessionRepo,
		ToolService:       toolService,
		AnnotationService: annotationService,
		SessionService:    sessionService,
		ConvertService:    convertService,
	}
}
