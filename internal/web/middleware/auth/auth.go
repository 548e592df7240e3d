package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/zach-adams/wp-browsersync-reload/internal/web/handler/login"
	"github.com/zach-adams/wp-browsersync-reload/internal/web/session"
)

// CurrentUserKey is the fiber.Locals key of the logged in models.User.
const CurrentUserKey = "CurrentUser"

// Middleware lets requests with a valid session pass and redirects everything else to the login page.
func Middleware(c *fiber.Ctx) error {
	sessData := new(session.Data)
	if err := sessData.Read(c.Cookies(session.CookieName)); err != nil {
		log.Debug().Err(err).Str("path", c.Path()).Msg("no valid session, redirect to login")
		return c.Redirect(login.Path)
	}

	if sessData.User.ID == 0 || !sessData.User.Active {
		return c.Redirect(login.Path)
	}

	c.Locals(CurrentUserKey, sessData.User)

	return c.Next()
}
