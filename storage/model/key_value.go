package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	KeyValueScopeGlobal = ""
	// KeyValueScopePage holds per-page meta overrides keyed by page slug
	KeyValueScopePage = "page"
)

// KeyValue stores arbitrary key-value data.
//
// Values use datatypes.JSON, which maps to the native JSON type on
// PostgreSQL and MySQL and to TEXT on SQLite. The `Scope` field namespaces
// keys of different features.
type KeyValue struct {
	CreatedAt int            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int            `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Scope string         `gorm:"primaryKey" json:"scope"`
	Key   string         `gorm:"primaryKey" json:"key"`
	Value datatypes.JSON `json:"value"`
}

// KeyValueStore defines the operations for scoped key-value storage.
type KeyValueStore interface {
	// Get retrieves the value for a (scope, key). Returns (nil, nil) if not found.
	Get(scope, key string) (datatypes.JSON, error)
	// Set stores/replaces the value for a (scope, key).
	Set(scope, key string, value datatypes.JSON) error
	// Delete removes the entry for a (scope, key). No error if missing.
	Delete(scope, key string) error
	// GetAs unmarshals the value for (scope, key) into out; false if missing.
	GetAs(scope, key string, out any) (bool, error)
	// SetAny marshals v to JSON and stores it at (scope, key).
	SetAny(scope, key string, v any) error
}
