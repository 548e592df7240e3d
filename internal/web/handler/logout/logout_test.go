package logout

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zach-adams/wp-browsersync-reload/internal/config"
	"github.com/zach-adams/wp-browsersync-reload/internal/db/models"
	"github.com/zach-adams/wp-browsersync-reload/internal/web/handler/login"
	"github.com/zach-adams/wp-browsersync-reload/internal/web/session"
)

func TestLogout(t *testing.T) {
	session.Init(nil)

	data := &session.Data{User: models.User{ID: 1, Username: "admin", Active: true}}
	require.NoError(t, data.Write("sid", time.Minute))

	app := fiber.New()

	var s Service
	require.NoError(t, s.Init(app, &config.Config{}))

	req := httptest.NewRequest(http.MethodPost, Path, nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "sid"})

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, login.Path, resp.Header.Get(fiber.HeaderLocation))
	require.ErrorIs(t, new(session.Data).Read("sid"), session.ErrSessionNotFound)
}
