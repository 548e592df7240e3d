// Package daemon assembles database, save hooks, NATS subscription and web service.
package daemon

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/zach-adams/wp-browsersync-reload/internal/config"
	"github.com/zach-adams/wp-browsersync-reload/internal/db"
	"github.com/zach-adams/wp-browsersync-reload/internal/db/controller/browsersync"
	"github.com/zach-adams/wp-browsersync-reload/internal/db/dsn"
	"github.com/zach-adams/wp-browsersync-reload/internal/hook"
	"github.com/zach-adams/wp-browsersync-reload/internal/hook/natsbus"
	"github.com/zach-adams/wp-browsersync-reload/internal/reload"
	"github.com/zach-adams/wp-browsersync-reload/internal/web"
	"github.com/zach-adams/wp-browsersync-reload/internal/web/session"
)

const sessionTable = "sessions"

// ErrNilConfig is returned by New without configuration.
var ErrNilConfig = errors.New("config is nil")

var seedAdmin = seed //nolint:gochecknoglobals

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	dispatcher *hook.Dispatcher
	notifier   *reload.Notifier
	storage    fiber.Storage
	subscriber *natsbus.Subscriber
	webService *web.Service
}

// New opens the database, seeds the admin account and registers the reload hook
// with the stored settings.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	gdb, err := db.Open(cfg)
	if err != nil {
		return nil, err
	}

	if err = seedAdmin(cfg, gdb); err != nil {
		closeDB(gdb)
		return nil, err
	}

	d := &Daemon{
		cfg:        cfg,
		db:         gdb,
		dispatcher: hook.NewDispatcher(),
		notifier:   reload.New(nil),
		storage:    sessionStorage(cfg),
	}

	session.Init(d.storage)

	d.notifier.Attach(d.dispatcher, browsersync.LoadConfig(gdb))

	if cfg.NATS.Enabled {
		d.subscriber, err = natsbus.Subscribe(cfg.NATS.URL, cfg.NATS.Subject, d.dispatcher)
		if err != nil {
			d.close()
			return nil, err
		}
	}

	d.webService, err = web.New(cfg, gdb, d.dispatcher, d.notifier)
	if err != nil {
		d.close()
		return nil, err
	}

	return d, nil
}

// Start serves http until SIGINT or SIGTERM, then shuts everything down.
func (d *Daemon) Start() error {
	serveErr := make(chan error, 1)

	go func() {
		serveErr <- d.webService.Start()
	}()

	done := make(chan struct{})

	go func() {
		d.webService.WaitShutdown()
		close(done)
	}()

	select {
	case err := <-serveErr:
		d.close()

		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	case <-done:
		d.close()

		return nil
	}
}

func (d *Daemon) close() {
	if d.subscriber != nil {
		if err := d.subscriber.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close nats subscription")
		}
	}

	if d.storage != nil {
		if err := d.storage.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close session storage")
		}
	}

	closeDB(d.db)
}

func closeDB(gdb *gorm.DB) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return
	}

	if err = sqlDB.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close database")
	}
}

// sessionStorage keeps sessions next to the settings for mysql and postgres.
// SQLite deployments are single instance, sessions stay in memory there.
func sessionStorage(cfg *config.Config) fiber.Storage {
	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		return sessionmysql.New(sessionmysql.Config{
			ConnectionURI: dsn.MySQL(cfg),
			Table:         sessionTable,
		})
	case config.EnginePostgres:
		return sessionpostgres.New(sessionpostgres.Config{
			Host:     cfg.DB.Host,
			Port:     cfg.DB.Port,
			Username: cfg.DB.User,
			Password: cfg.DB.Password,
			Database: cfg.DB.Name,
			Table:    sessionTable,
		})
	default:
		return nil
	}
}
