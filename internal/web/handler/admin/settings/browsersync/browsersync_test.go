package browsersync

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/zach-adams/wp-browsersync-reload/internal/config"
	controller "github.com/zach-adams/wp-browsersync-reload/internal/db/controller/browsersync"
	"github.com/zach-adams/wp-browsersync-reload/internal/db/models"
	"github.com/zach-adams/wp-browsersync-reload/internal/hook"
	"github.com/zach-adams/wp-browsersync-reload/internal/reload"
	"github.com/zach-adams/wp-browsersync-reload/internal/web/handler/login"
	"github.com/zach-adams/wp-browsersync-reload/internal/web/session"
)

const testSessionID = "admin-session"

// noOpViews prints the errors, the success message or the rendered settings.
type noOpViews struct{}

func (noOpViews) Load() error { return nil }

func (noOpViews) Render(w io.Writer, _ string, data interface{}, _ ...string) error {
	m, ok := data.(fiber.Map)
	if !ok {
		return nil
	}

	if errs, exists := m["Error"].([]string); exists {
		_, err := io.WriteString(w, strings.Join(errs, "\n"))
		return err
	}

	if msg, exists := m["Success"].(string); exists {
		_, err := io.WriteString(w, msg)
		return err
	}

	f := m["Settings"].(controller.Form)
	_, err := fmt.Fprintf(w, "%s|%s|%s", f.Enable, f.Host, f.Port)

	return err
}

type testEnv struct {
	app        *fiber.App
	db         *gorm.DB
	dispatcher *hook.Dispatcher
	hits       *atomic.Int32
	host       string
	port       int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{hits: new(atomic.Int32)}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/__browser_sync__" && r.URL.Query().Get("method") == "reload" {
			env.hits.Add(1)
		}

		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	env.host = u.Hostname()
	env.port, err = strconv.Atoi(u.Port())
	require.NoError(t, err)

	env.db, err = gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "admin.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, env.db.AutoMigrate(&models.Setting{}))

	session.Init(nil)

	data := &session.Data{User: models.User{ID: 1, Username: "admin", Active: true}}
	require.NoError(t, data.Write(testSessionID, time.Minute))

	env.app = fiber.New(fiber.Config{Views: noOpViews{}})
	env.dispatcher = hook.NewDispatcher()

	var s Service
	require.NoError(t, s.Init(env.app, &config.Config{Title: "test"}, env.db, env.dispatcher, reload.New(srv.Client())))

	return env
}

func (env *testEnv) do(t *testing.T, method, path string, form url.Values, loggedIn bool) (*http.Response, string) {
	t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	}

	if loggedIn {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: testSessionID})
	}

	resp, err := env.app.Test(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(out)
}

func (env *testEnv) waitHits(t *testing.T, n int32) {
	t.Helper()

	require.Eventually(t, func() bool {
		return env.hits.Load() == n
	}, 2*time.Second, 5*time.Millisecond)
}

func settingsForm(enable, host, port string) url.Values {
	form := url.Values{
		"browsersync_host": {host},
		"browsersync_port": {port},
	}

	if enable != "" {
		form.Set("enable_browsersync_reload", enable)
	}

	return form
}

func TestInitNil(t *testing.T) {
	var s Service

	require.Error(t, s.Init(nil, nil, nil, nil, nil))
	require.ErrorIs(t, s.Init(fiber.New(), &config.Config{}, &gorm.DB{}, nil, nil), ErrNilHook)
}

func TestRequiresLogin(t *testing.T) {
	env := newTestEnv(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, Path},
		{http.MethodPost, Path},
		{http.MethodPost, ReloadPath},
	} {
		resp, _ := env.do(t, tc.method, tc.path, nil, false)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode, tc.path)
		assert.Equal(t, login.Path, resp.Header.Get(fiber.HeaderLocation))
	}
}

func TestGetDefaults(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, Path, nil, true)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "0|localhost|3000", body)
}

func TestPostValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		form url.Values
		want []error
	}{
		{"bad host", settingsForm("1", "not-an-ip", "3000"), []error{controller.ErrInvalidHost}},
		{"port zero", settingsForm("1", "localhost", "0"), []error{controller.ErrInvalidPort}},
		{"port too big", settingsForm("1", "localhost", "65536"), []error{controller.ErrInvalidPort}},
		{"port not a number", settingsForm("1", "localhost", "abc"), []error{controller.ErrInvalidPort}},
		{"both", settingsForm("1", "nope", "nope"), []error{controller.ErrInvalidHost, controller.ErrInvalidPort}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.do(t, http.MethodPost, Path, tt.form, true)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

			for _, want := range tt.want {
				assert.Contains(t, body, want.Error())
			}
		})
	}

	// nothing stored, nothing attached
	assert.Equal(t, reload.DefaultConfig(), controller.LoadConfig(env.db))
	assert.False(t, env.dispatcher.Has(reload.HookName))
}

func TestPostSavesAndAttaches(t *testing.T) {
	env := newTestEnv(t)
	port := strconv.Itoa(env.port)

	resp, _ := env.do(t, http.MethodPost, Path, settingsForm("1", env.host, port), true)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, reload.Config{Enabled: true, Host: env.host, Port: env.port}, controller.LoadConfig(env.db))
	assert.True(t, env.dispatcher.Has(reload.HookName))

	require.NoError(t, env.dispatcher.Fire(t.Context(), hook.SaveEvent{PostID: 7}))
	env.waitHits(t, 1)

	// unchecked box disables and detaches
	resp, _ = env.do(t, http.MethodPost, Path, settingsForm("", env.host, port), true)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.False(t, controller.LoadConfig(env.db).Enabled)
	assert.False(t, env.dispatcher.Has(reload.HookName))

	require.NoError(t, env.dispatcher.Fire(t.Context(), hook.SaveEvent{PostID: 7}))
	assert.Equal(t, int32(1), env.hits.Load())
}

func TestReload(t *testing.T) {
	env := newTestEnv(t)

	// manual reload ignores the enabled flag
	require.NoError(t, controller.Save(env.db, reload.Config{Host: env.host, Port: env.port}))

	resp, body := env.do(t, http.MethodPost, ReloadPath, nil, true)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Reload sent to ")
	env.waitHits(t, 1)
}

func TestReloadDispatchError(t *testing.T) {
	env := newTestEnv(t)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	closed := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	require.NoError(t, controller.Save(env.db, reload.Config{Enabled: true, Host: "127.0.0.1", Port: closed}))

	resp, body := env.do(t, http.MethodPost, ReloadPath, nil, true)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	assert.True(t, strings.HasPrefix(body, "browsersync reload failed: "), body)
}
