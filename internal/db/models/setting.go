// Package models contains database model definitions.
package models

// Setting is a named settings record. Value holds the encoded payload of the owner,
// the browsersync form stores JSON.
type Setting struct {
	ID    uint64 `gorm:"primaryKey"`
	Name  string `gorm:"unique;size:191;not null"`
	Value []byte
}
