package reload

import (
	"net"
	"net/url"
	"strconv"
)

const (
	// DefaultHost is the reload server host used when nothing is configured.
	DefaultHost = "localhost"
	// DefaultPort is the default Browsersync port.
	DefaultPort = 3000

	reloadPath  = "/__browser_sync__"
	reloadQuery = "method=reload"
)

// Config is the reload server configuration. It is passed by value and never mutated
// after it was loaded or sanitized.
type Config struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

// DefaultConfig returns the configuration used when no settings are stored.
func DefaultConfig() Config {
	return Config{
		Enabled: false,
		Host:    DefaultHost,
		Port:    DefaultPort,
	}
}

// URL returns the reload endpoint, http://{host}:{port}/__browser_sync__?method=reload.
func (c Config) URL() string {
	u := url.URL{
		Scheme:   "http",
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     reloadPath,
		RawQuery: reloadQuery,
	}

	return u.String()
}
