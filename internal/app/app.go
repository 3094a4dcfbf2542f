package app

import (
	"net/http"

	"gorm.io/gorm"

	"trpg-scheduler/internal/config"
	"trpg-scheduler/internal/db"
	availabilitydomain "trpg-scheduler/internal/domain/availability"
	calendardomain "trpg-scheduler/internal/domain/calendar"
	groupdomain "trpg-scheduler/internal/domain/group"
	pendingdomain "trpg-scheduler/internal/domain/pending"
	"trpg-scheduler/internal/google"
	availabilityrepo "trpg-scheduler/internal/repository/postgres/availability"
	calendarrepo "trpg-scheduler/internal/repository/postgres/calendar"
	grouprepo "trpg-scheduler/internal/repository/postgres/group"
	pendingrepo "trpg-scheduler/internal/repository/postgres/pending"
	"trpg-scheduler/internal/transport/httpserver"
	"trpg-scheduler/internal/transport/httpserver/handler"
	"trpg-scheduler/pkg/logger"
)

type App struct {
	cfg        config.Config
	httpServer *http.Server
	db         *gorm.DB
}

func New(log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	log.Info("app: initializing database")
	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return nil, err
	}

	log.Info("app: running migrations")
	if err := db.Migrate(dbConn); err != nil {
		return nil, err
	}

	groupRepo := grouprepo.NewPostgres(dbConn)
	pendingRepo := pendingrepo.NewPostgres(dbConn)
	calendarRepo := calendarrepo.NewPostgres(dbConn)
	availabilityRepo := availabilityrepo.NewPostgres(dbConn)

	providers := google.NewFactory(google.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
	}, calendarRepo, log)

	groupSvc := groupdomain.NewService(groupRepo)
	calendarSvc := calendardomain.NewService(calendarRepo, providers, cfg.Calendar.ResurrectOnResync, log)
	pendingSvc := pendingdomain.NewService(pendingRepo, groupSvc, calendarSvc, log)
	groupSvc.SetNegotiation(pendingSvc)
	availabilitySvc := availabilitydomain.NewService(availabilityRepo, calendarSvc, groupSvc)

	handlers := handler.New(groupSvc, pendingSvc, calendarSvc, availabilitySvc, log)

	log.Info("app: initializing http server")
	router := httpserver.NewRouter(cfg, handlers, log)
	srv := httpserver.New(cfg, router)

	return &App{
		cfg:        cfg,
		httpServer: srv,
		db:         dbConn,
	}, nil
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
