package browsersync

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/zach-adams/wp-browsersync-reload/internal/reload"
)

const (
	hostRule = "ip|eq=localhost"
	portRule = "gt=0,lte=65535"
)

var (
	// ErrInvalidHost is returned for hosts that are neither localhost nor an IP address.
	ErrInvalidHost = errors.New("please enter a valid IP address or localhost as Browsersync host")
	// ErrInvalidPort is returned for ports that are not an integer between 1 and 65535.
	ErrInvalidPort = errors.New("please enter a valid port number between 1 and 65535 as Browsersync port")
)

var validate = validator.New() //nolint:gochecknoglobals

// Sanitize validates the submitted form and returns the normalized configuration.
// Host and port errors are joined so the form can show both at once.
func Sanitize(f Form) (reload.Config, error) {
	host, hostErr := parseHost(f.Host)
	port, portErr := parsePort(f.Port)

	if err := errors.Join(hostErr, portErr); err != nil {
		return reload.Config{}, err
	}

	return reload.Config{
		Enabled: parseEnabled(f.Enable),
		Host:    host,
		Port:    port,
	}, nil
}

// parseEnabled accepts only the checkbox value 1, anything else disables.
func parseEnabled(v string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(v))

	return err == nil && n == 1
}

func parseHost(v string) (string, error) {
	host := strings.TrimSpace(v)
	if err := validate.Var(host, hostRule); err != nil {
		return "", ErrInvalidHost
	}

	return host, nil
}

func parsePort(v string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, ErrInvalidPort
	}

	if err = validate.Var(port, portRule); err != nil {
		return 0, ErrInvalidPort
	}

	return port, nil
}
