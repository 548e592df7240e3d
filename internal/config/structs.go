package config

import (
	"time"

	"github.com/zach-adams/wp-browsersync-reload/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	NATS      NATS
	Admin     Admin
}

// Webserver implement webserver settings.
type Webserver struct {
	BrowseStatic  bool    // enable static file browsing (for development purposes only)
	Port          int     // listening port for the webserver
	ShutDownTime  int     // wait time for shutdown
	URL           string  // base url for the webserver
	HookToken     string  // shared secret expected in X-Hook-Token, empty disables the check
	CheckAliveURI string  // liveness endpoint, excluded from the access log if configured
	Session       Session // session settings
}

// NATS configures the optional save-event subscription on a NATS subject.
type NATS struct {
	Enabled bool
	URL     string
	Subject string
}

// Admin holds the credentials of the local admin account created on first start.
// An empty password makes the daemon generate one and log it once.
type Admin struct {
	Username string
	Password string
}
