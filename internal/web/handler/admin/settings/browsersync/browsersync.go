// Package browsersync serves the reload server settings page and the manual reload button.
package browsersync

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/zach-adams/wp-browsersync-reload/internal/config"
	controller "github.com/zach-adams/wp-browsersync-reload/internal/db/controller/browsersync"
	"github.com/zach-adams/wp-browsersync-reload/internal/hook"
	"github.com/zach-adams/wp-browsersync-reload/internal/reload"
	"github.com/zach-adams/wp-browsersync-reload/internal/web/handler"
	"github.com/zach-adams/wp-browsersync-reload/internal/web/middleware/auth"
	"github.com/zach-adams/wp-browsersync-reload/internal/web/navigation"
)

const (
	// Path is the path to the browsersync settings page.
	Path = handler.AdminPath + "/settings/browsersync"

	// ReloadPath triggers one reload with the stored settings.
	ReloadPath = handler.AdminPath + "/reload"

	// TemplateName is the name of the browsersync settings template.
	TemplateName = "admin/settings/browsersync"

	pageTitle = "Browsersync Reload"
)

// ErrNilHook is returned by Init without dispatcher or notifier.
var ErrNilHook = errors.New("dispatcher or notifier is nil")

// Service is the browsersync settings handler service.
type Service struct {
	cfg        *config.Config
	db         *gorm.DB
	dispatcher *hook.Dispatcher
	notifier   *reload.Notifier
}

// Handler is the browsersync settings handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the browsersync settings handler.
func (s *Service) Init(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	d *hook.Dispatcher,
	n *reload.Notifier,
) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	if d == nil || n == nil {
		return ErrNilHook
	}

	s.cfg = cfg
	s.db = db
	s.dispatcher = d
	s.notifier = n

	app.Get(Path, auth.Middleware, s.Get)
	app.Post(Path, auth.Middleware, s.Post)
	app.Post(ReloadPath, auth.Middleware, s.Reload)

	return nil
}

func (s *Service) nav() *navigation.Context {
	return navigation.NewContext(pageTitle, navigation.SectionSettings, "browsersync", handler.Menu...).
		AddBreadcrumb("Home", handler.RootPath, false).
		AddBreadcrumb("Settings", "", false).
		AddBreadcrumb("Browsersync", Path, true)
}

func (s *Service) render(c *fiber.Ctx, status int, form controller.Form, bind fiber.Map) error {
	data := fiber.Map{
		"Title":      s.cfg.Title,
		"Settings":   form,
		"Enabled":    s.dispatcher.Has(reload.HookName),
		"Navigation": s.nav(),
		"ReloadPath": ReloadPath,
	}

	for k, v := range bind {
		data[k] = v
	}

	return c.Status(status).Render(TemplateName, data, handler.BaseLayout)
}

// Get renders the stored settings, defaults if nothing was saved yet.
func (s *Service) Get(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, controller.FormFromConfig(controller.LoadConfig(s.db)), nil)
}

// Post validates and stores the submitted settings and applies them to the running dispatcher.
func (s *Service) Post(c *fiber.Ctx) error {
	form := controller.Form{}
	if err := c.BodyParser(&form); err != nil {
		log.Error().Err(err).Msg("failed to parse browsersync settings form")

		return s.render(c, fiber.StatusBadRequest, form, fiber.Map{"Error": []string{"Invalid form data"}})
	}

	cfg, err := controller.Sanitize(form)
	if err != nil {
		log.Warn().Err(err).Msg("invalid browsersync settings")

		return s.render(c, fiber.StatusBadRequest, form, fiber.Map{"Error": strings.Split(err.Error(), "\n")})
	}

	if err = controller.Save(s.db, cfg); err != nil {
		log.Error().Err(err).Msg("failed to save browsersync settings")

		return s.render(c, fiber.StatusInternalServerError, form, fiber.Map{"Error": []string{"Failed to save settings"}})
	}

	s.notifier.Attach(s.dispatcher, cfg)

	log.Info().
		Bool("enabled", cfg.Enabled).
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Msg("browsersync settings saved")

	return s.render(c, fiber.StatusOK, controller.FormFromConfig(cfg), fiber.Map{"Success": "Settings saved"})
}

// Reload sends one reload request with the stored settings, whether enabled or not.
func (s *Service) Reload(c *fiber.Ctx) error {
	cfg := controller.LoadConfig(s.db)
	form := controller.FormFromConfig(cfg)

	if err := s.notifier.Reload(c.UserContext(), cfg); err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, reload.ErrDispatch) {
			status = fiber.StatusBadGateway
		}

		return s.render(c, status, form, fiber.Map{"Error": []string{err.Error()}})
	}

	return s.render(c, fiber.StatusOK, form, fiber.Map{"Success": "Reload sent to " + cfg.URL()})
}
