// Package login serves the admin login form.
package login

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/zach-adams/wp-browsersync-reload/internal/config"
	"github.com/zach-adams/wp-browsersync-reload/internal/db/models"
	"github.com/zach-adams/wp-browsersync-reload/internal/web/handler"
	"github.com/zach-adams/wp-browsersync-reload/internal/web/session"
)

const (
	// Path is the path to the login page.
	Path = "/login"

	// TemplateName is the name of the login template.
	TemplateName = "login"
)

// Service is the login handler service.
type Service struct {
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the login handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.db = db
	s.cfg = cfg

	app.Get(Path, s.Get)
	app.Post(Path, s.Post)

	return nil
}

func (s *Service) render(c *fiber.Ctx, status int, err error) error {
	bind := fiber.Map{"Title": s.cfg.Title}
	if err != nil {
		bind["error"] = err.Error()
	}

	return c.Status(status).Render(TemplateName, bind)
}

// Get handles the login page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, nil)
}

// Post handles the login form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	form := new(models.User)
	if err := c.BodyParser(form); err != nil || form.Username == "" {
		return s.render(c, fiber.StatusBadRequest, ErrInvalidFormData)
	}

	var dbUser models.User
	if result := s.db.Where("username = ?", form.Username).First(&dbUser); result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			log.Error().Err(result.Error).Msg("failed to look up user")
			return s.render(c, fiber.StatusInternalServerError, ErrInternalServerError)
		}

		return s.render(c, fiber.StatusUnauthorized, ErrInvalidCredentials)
	}

	if !dbUser.Active || !dbUser.VerifyPassword(form.Password) {
		log.Warn().Str("username", form.Username).Str("ip", c.IP()).Msg("failed login")
		return s.render(c, fiber.StatusUnauthorized, ErrInvalidCredentials)
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session ID")
		return s.render(c, fiber.StatusInternalServerError, ErrInternalServerError)
	}

	userSession := &session.Data{User: dbUser}
	if err = userSession.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("failed to write session")
		return s.render(c, fiber.StatusInternalServerError, ErrInternalServerError)
	}

	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    sessionID,
		MaxAge:   int(s.cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   !s.cfg.DevMode,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	log.Info().Str("username", dbUser.Username).Msg("admin logged in")

	return c.Redirect(handler.RootPath)
}
