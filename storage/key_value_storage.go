package storage

import (
	"database/sql"
	"encoding/json"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brito101/medicaodigitalx/storage/model"
)

// KeyValueStorage implements model.KeyValueStore using GORM. Site page meta
// overrides live here under model.KeyValueScopePage.
type KeyValueStorage struct {
	db *gorm.DB
}

// KeyValue provides an accessor for scoped key-value storage.
func (s *Storage) KeyValue() *KeyValueStorage {
	return &KeyValueStorage{db: s.db}
}

func kvWhere(scope, key string) *model.KeyValue {
	return &model.KeyValue{
		Scope: scope,
		Key:   key,
	}
}

// Get returns the JSON value for a (scope, key). If not found, returns nil, nil.
func (s *KeyValueStorage) Get(scope, key string) (datatypes.JSON, error) {
	// raw bytes so that scalar JSON values scan on every driver
	var raw []byte
	row := s.db.Model(&model.KeyValue{}).
		Select("value").
		Where(kvWhere(scope, key)).
		Row()
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrapf(err, "failed to read %s/%s", scope, key)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

// Keys returns the keys stored in scope
func (s *KeyValueStorage) Keys(scope string) ([]string, error) {
	var keys []string
	err := s.db.Model(&model.KeyValue{}).
		Where("scope = ?", scope).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).
		Pluck("key", &keys).Error
	return keys, pkgerrors.Wrapf(err, "failed to list keys of scope '%s'", scope)
}

// Set upserts the JSON value for a (scope, key). A previously deleted entry
// is restored.
func (s *KeyValueStorage) Set(scope, key string, value datatypes.JSON) error {
	kv := kvWhere(scope, key)
	kv.Value = value
	err := s.db.Clauses(
		clause.OnConflict{
			Columns: []clause.Column{
				{Name: "scope"},
				{Name: "key"},
			},
			DoUpdates: clause.AssignmentColumns(
				[]string{
					"value",
					"updated_at",
					"deleted_at",
				},
			),
		},
	).Create(kv).Error
	return pkgerrors.Wrapf(err, "failed to write %s/%s", scope, key)
}

// Delete removes a (scope, key) pair. No error if it's missing.
func (s *KeyValueStorage) Delete(scope, key string) error {
	err := s.db.Where(kvWhere(scope, key)).Delete(&model.KeyValue{}).Error
	return pkgerrors.Wrapf(err, "failed to delete %s/%s", scope, key)
}

// GetAs retrieves and unmarshals the value for (scope, key) into out.
// out must be a pointer to the target type. Returns (false, nil) if not found.
func (s *KeyValueStorage) GetAs(scope, key string, out any) (bool, error) {
	raw, err := s.Get(scope, key)
	if err != nil || raw == nil {
		return false, err
	}
	if err = json.Unmarshal(raw, out); err != nil {
		return false, pkgerrors.Wrapf(err, "invalid value at %s/%s", scope, key)
	}
	return true, nil
}

// SetAny marshals v to JSON and stores it at (scope, key).
func (s *KeyValueStorage) SetAny(scope, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return pkgerrors.WithStack(err)
	}
	return s.Set(scope, key, datatypes.JSON(b))
}
