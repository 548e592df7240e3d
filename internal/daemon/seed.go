package daemon

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/zach-adams/wp-browsersync-reload/internal/config"
	"github.com/zach-adams/wp-browsersync-reload/internal/db/models"
	"github.com/zach-adams/wp-browsersync-reload/internal/web/session"
)

const generatedPasswordBytes = 12

// seed creates the admin account when the user table is empty.
// Without a configured password a random one is generated and logged once.
func seed(cfg *config.Config, db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("counting users: %w", err)
	}

	if count > 0 {
		return nil
	}

	password := cfg.Admin.Password
	generated := password == ""

	if generated {
		var err error
		if password, err = session.GeneratePassword(generatedPasswordBytes); err != nil {
			return fmt.Errorf("generating admin password: %w", err)
		}
	}

	hash, err := models.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}

	if err = db.Create(&models.User{Username: cfg.Admin.Username, Password: hash, Active: true}).Error; err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	if generated {
		log.Warn().Str("username", cfg.Admin.Username).Str("password", password).
			Msg("created admin user with generated password, change it or set Admin.Password")
	} else {
		log.Info().Str("username", cfg.Admin.Username).Msg("created admin user")
	}

	return nil
}
