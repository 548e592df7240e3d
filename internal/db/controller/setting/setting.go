// Package setting provides CRUD operations for named settings records.
package setting

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/zach-adams/wp-browsersync-reload/internal/db/models"
)

const (
	nameQueryPattern = "name = ?"
)

var (
	// ErrSettingNotFound is returned when a setting is not found.
	ErrSettingNotFound = errors.New("setting not found")
	// ErrSettingNameEmpty is returned when attempting to create/update a setting with an empty name.
	ErrSettingNameEmpty = errors.New("setting name cannot be empty")
	// ErrSettingAlreadyExists is returned when attempting to create a setting that already exists.
	ErrSettingAlreadyExists = errors.New("setting already exists")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

func check(db *gorm.DB, name string) error {
	if db == nil {
		return ErrDBNil
	}

	if name == "" {
		return ErrSettingNameEmpty
	}

	return nil
}

func first(db *gorm.DB, name string) (*models.Setting, error) {
	var setting models.Setting

	result := db.Where(nameQueryPattern, name).First(&setting)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}

		return nil, result.Error
	}

	return &setting, nil
}

// Get retrieves a setting by its name.
func Get(db *gorm.DB, name string) (*models.Setting, error) {
	if err := check(db, name); err != nil {
		return nil, err
	}

	return first(db, name)
}

// GetAll retrieves all settings ordered by name.
func GetAll(db *gorm.DB) ([]models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var settings []models.Setting
	if result := db.Order("name").Find(&settings); result.Error != nil {
		return nil, result.Error
	}

	return settings, nil
}

// Create creates a new setting in the database.
func Create(db *gorm.DB, name string, value []byte) (*models.Setting, error) {
	if err := check(db, name); err != nil {
		return nil, err
	}

	_, err := first(db, name)
	if err == nil {
		return nil, ErrSettingAlreadyExists
	}

	if !errors.Is(err, ErrSettingNotFound) {
		return nil, err
	}

	setting := &models.Setting{
		Name:  name,
		Value: value,
	}

	if result := db.Create(setting); result.Error != nil {
		return nil, result.Error
	}

	return setting, nil
}

// Set creates or updates a setting by name (upsert operation).
func Set(db *gorm.DB, name string, value []byte) (*models.Setting, error) {
	if err := check(db, name); err != nil {
		return nil, err
	}

	setting, err := first(db, name)
	if errors.Is(err, ErrSettingNotFound) {
		return Create(db, name, value)
	}

	if err != nil {
		return nil, err
	}

	setting.Value = value
	if result := db.Save(setting); result.Error != nil {
		return nil, result.Error
	}

	return setting, nil
}

// UpdateByName updates an existing setting by name.
func UpdateByName(db *gorm.DB, name string, value []byte) (*models.Setting, error) {
	if err := check(db, name); err != nil {
		return nil, err
	}

	setting, err := first(db, name)
	if err != nil {
		return nil, err
	}

	setting.Value = value
	if result := db.Save(setting); result.Error != nil {
		return nil, result.Error
	}

	return setting, nil
}

// DeleteByName deletes a setting by name.
func DeleteByName(db *gorm.DB, name string) error {
	if err := check(db, name); err != nil {
		return err
	}

	result := db.Where(nameQueryPattern, name).Delete(&models.Setting{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrSettingNotFound
	}

	return nil
}

// LoadJSON decodes the JSON value stored under name into v.
func LoadJSON(db *gorm.DB, name string, v any) error {
	s, err := Get(db, name)
	if err != nil {
		return err
	}

	if err = json.Unmarshal(s.Value, v); err != nil {
		return fmt.Errorf("decode setting %s: %w", name, err)
	}

	return nil
}

// SaveJSON encodes v as JSON and upserts it under name.
func SaveJSON(db *gorm.DB, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", name, err)
	}

	_, err = Set(db, name, data)

	return err
}
