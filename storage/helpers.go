package storage

import (
	"github.com/pkg/errors"

	"github.com/brito101/medicaodigitalx/storage/model"
)

// GetPageMeta returns the stored meta overrides for the page with the passed
// slug; nil if none are stored
func GetPageMeta(kvStorage model.KeyValueStore, slug string) (*model.PageMeta, error) {
	if kvStorage == nil {
		return nil, nil
	}
	var m model.PageMeta
	found, err := kvStorage.GetAs(model.KeyValueScopePage, slug, &m)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load meta of page '%s'", slug)
	}
	if !found {
		return nil, nil
	}
	return &m, nil
}

// SetPageMeta stores the meta overrides for the page with the passed slug
func SetPageMeta(kvStorage model.KeyValueStore, slug string, meta model.PageMeta) error {
	if slug == "" {
		return errors.New("page slug must not be empty")
	}
	return kvStorage.SetAny(model.KeyValueScopePage, slug, meta)
}
