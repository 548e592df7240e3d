// Package web wires the fiber app: admin pages, the save webhook, metrics and liveness.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/zach-adams/wp-browsersync-reload/internal/config"
	"github.com/zach-adams/wp-browsersync-reload/internal/hook"
	accesslog "github.com/zach-adams/wp-browsersync-reload/internal/logger/adapter/fiber"
	"github.com/zach-adams/wp-browsersync-reload/internal/reload"
	"github.com/zach-adams/wp-browsersync-reload/internal/web/handler"
	"github.com/zach-adams/wp-browsersync-reload/internal/web/handler/admin/settings/browsersync"
	"github.com/zach-adams/wp-browsersync-reload/internal/web/handler/hooks/savepost"
	"github.com/zach-adams/wp-browsersync-reload/internal/web/handler/login"
	"github.com/zach-adams/wp-browsersync-reload/internal/web/handler/logout"
)

const (
	// MetricsPath serves the prometheus exposition.
	MetricsPath = "/metrics"

	defaultCheckAliveURI = "/checkalive"
)

// ErrNilDependency is returned by New when a required dependency is missing.
var ErrNilDependency = errors.New("config, db, dispatcher and notifier are required")

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
}

// Start listens on the configured port and blocks until the app is shut down.
func (s *Service) Start() error {
	s.alive.Store(true)

	addr := ":" + strconv.Itoa(s.cfg.Webserver.Port)
	log.Info().Str("addr", addr).Str("url", s.cfg.Webserver.URL).Msg("starting http server")

	if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// WaitShutdown blocks until SIGINT or SIGTERM and shuts the app down gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	s.Shutdown()
}

// Shutdown fails the liveness check for ShutDownTime seconds, then stops the http server.
func (s *Service) Shutdown() {
	s.alive.Store(false)

	// Graceful shutdown for reverse proxies: checkalive returns 503 until the LB drops us.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.Shutdown(); err != nil {
		log.Error().Err(err).Msg("")
	}

	log.Info().Msg("http server was stopped ... good bye...")
}

// checkAlive answers 200 while serving and 503 during shutdown.
func (s *Service) checkAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.Status(fiber.StatusServiceUnavailable).SendString("shutting down")
	}

	return c.SendString("alive")
}

func newTemplateEngine(cfg *config.Config) *html.Engine {
	engine := html.NewFileSystem(http.FS(templateEmbedFS{embeddedTemplates}), ".gohtml")

	// in dev mode, use local filesystem for templates
	if cfg.DevMode {
		engine = html.New("./internal/web/templates", ".gohtml")
		engine.ShouldReload = true

		log.Warn().Msg("dev mode enabled: using local filesystem for templates")
	}

	return engine
}

// New creates the web service and registers every route.
func New(cfg *config.Config, db *gorm.DB, d *hook.Dispatcher, n *reload.Notifier) (*Service, error) {
	if cfg == nil || db == nil || d == nil || n == nil {
		return nil, ErrNilDependency
	}

	checkAliveURI := cfg.Webserver.CheckAliveURI
	if checkAliveURI == "" {
		checkAliveURI = defaultCheckAliveURI
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize:        8192,
			AppName:               cfg.Title,
			CaseSensitive:         true,
			Immutable:             true,
			DisableStartupMessage: !cfg.DevMode,
			Views:                 newTemplateEngine(cfg),
		},
	)

	app.Use(accesslog.New(accesslog.Config{
		Config:        cfg.Log,
		CheckAliveURI: checkAliveURI,
	}))

	// serve embedded static files
	app.Use("/static",
		filesystem.New(
			filesystem.Config{
				Root:       http.FS(embeddedStaticFiles),
				PathPrefix: "static",
				Browse:     cfg.Webserver.BrowseStatic,
			},
		),
	)

	service := &Service{
		cfg: cfg,
		App: app,
	}

	// fast shutdown in dev mode
	service.fastShutDown = cfg.DevMode

	app.Get(checkAliveURI, service.checkAlive)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	err := errors.Join(
		login.Handler.Init(app, cfg, db),
		logout.Handler.Init(app, cfg),
		browsersync.Handler.Init(app, cfg, db, d, n),
		savepost.Handler.Init(app, cfg, d),
	)
	if err != nil {
		return nil, err
	}

	app.Get(handler.RootPath, func(c *fiber.Ctx) error {
		return c.Redirect(browsersync.Path)
	})

	service.alive.Store(true)

	return service, nil
}
