// Package browsersync loads, sanitizes and stores the reload server settings.
package browsersync

import (
	"errors"
	"strconv"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/zach-adams/wp-browsersync-reload/internal/db/controller/setting"
	"github.com/zach-adams/wp-browsersync-reload/internal/reload"
)

const (
	// SettingKey is the key the settings record is stored under.
	SettingKey = "wp_browsersync_reload_settings"

	enabledValue  = "1"
	disabledValue = "0"
)

// Form is the raw settings record as submitted by the admin form and as persisted.
// All values are strings, Sanitize turns them into a reload.Config.
type Form struct {
	Enable string `form:"enable_browsersync_reload" json:"enable_browsersync_reload"`
	Host   string `form:"browsersync_host"          json:"browsersync_host"`
	Port   string `form:"browsersync_port"          json:"browsersync_port"`
}

// FormFromConfig renders cfg in its persisted string form.
func FormFromConfig(cfg reload.Config) Form {
	f := Form{
		Enable: disabledValue,
		Host:   cfg.Host,
		Port:   strconv.Itoa(cfg.Port),
	}

	if cfg.Enabled {
		f.Enable = enabledValue
	}

	return f
}

// LoadConfig reads the stored settings. Missing records and malformed values fall back
// to the defaults field by field, it never fails.
func LoadConfig(db *gorm.DB) reload.Config {
	cfg := reload.DefaultConfig()

	var f Form
	if err := setting.LoadJSON(db, SettingKey, &f); err != nil {
		if !errors.Is(err, setting.ErrSettingNotFound) {
			log.Warn().Err(err).Str("setting", SettingKey).Msg("can't load browsersync settings, using defaults")
		}

		return cfg
	}

	cfg.Enabled = parseEnabled(f.Enable)

	if host, err := parseHost(f.Host); err == nil {
		cfg.Host = host
	}

	if port, err := parsePort(f.Port); err == nil {
		cfg.Port = port
	}

	return cfg
}

// Save stores cfg under SettingKey.
func Save(db *gorm.DB, cfg reload.Config) error {
	return setting.SaveJSON(db, SettingKey, FormFromConfig(cfg))
}
