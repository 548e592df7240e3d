// Package savepost receives the "post saved" webhook of the CMS and fires the save hooks.
package savepost

import (
	"crypto/subtle"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/zach-adams/wp-browsersync-reload/internal/config"
	"github.com/zach-adams/wp-browsersync-reload/internal/hook"
	"github.com/zach-adams/wp-browsersync-reload/internal/reload"
	"github.com/zach-adams/wp-browsersync-reload/internal/web/handler"
)

const (
	// Path is the webhook endpoint.
	Path = handler.RootPath + "hooks/save-post"

	// TokenHeader carries the shared secret configured as Webserver.HookToken.
	TokenHeader = "X-Hook-Token"
)

var (
	// ErrNilDispatcher is returned by Init without dispatcher.
	ErrNilDispatcher = errors.New("dispatcher is nil")
	// ErrInvalidToken is answered for a missing or wrong hook token.
	ErrInvalidToken = errors.New("invalid hook token")
)

// Service is the save webhook handler service.
type Service struct {
	cfg        *config.Config
	dispatcher *hook.Dispatcher
}

// Handler is the save webhook handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the save webhook handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, d *hook.Dispatcher) error {
	if app == nil || cfg == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	if d == nil {
		return ErrNilDispatcher
	}

	s.cfg = cfg
	s.dispatcher = d

	app.Post(Path, s.Post)

	return nil
}

func (s *Service) authorized(c *fiber.Ctx) bool {
	want := s.cfg.Webserver.HookToken
	if want == "" {
		return true
	}

	return subtle.ConstantTimeCompare([]byte(c.Get(TokenHeader)), []byte(want)) == 1
}

// Post decodes the save event (JSON or form body) and fires the registered save hooks.
// Answers 204 when every hook ran, 502 when the reload request could not be sent.
func (s *Service) Post(c *fiber.Ctx) error {
	if !s.authorized(c) {
		log.Warn().Str("ip", c.IP()).Msg("save hook with invalid token")
		return c.Status(fiber.StatusUnauthorized).SendString(ErrInvalidToken.Error())
	}

	var ev hook.SaveEvent
	if err := c.BodyParser(&ev); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}

	if err := ev.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}

	err := s.dispatcher.Fire(c.UserContext(), ev)
	if err == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}

	log.Error().Err(err).Uint64("post_id", ev.PostID).Msg("save hook failed")

	var dispatchErr *reload.DispatchError
	if errors.As(err, &dispatchErr) {
		return c.Status(fiber.StatusBadGateway).SendString(dispatchErr.Error())
	}

	return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
}
