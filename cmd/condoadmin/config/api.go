package config

import (
	"github.com/pkg/errors"

	"github.com/brito101/medicaodigitalx/storage/model"
)

// apiConf holds API-related configuration
type apiConf struct {
	Admin adminAPIConf `yaml:"admin"`
}

type adminAPIConf struct {
	Port int `yaml:"port"`
	// HideNotFound answers requests for missing records with 403 like
	// requests the actor is not allowed to make
	HideNotFound bool                `yaml:"hide_not_found"`
	Cascade      model.CascadePolicy `yaml:"cascade"`
	Batch        model.BatchPolicy   `yaml:"batch"`
}

func (c *apiConf) validate() error {
	var err error
	if c.Admin.Cascade, err = model.ParseCascadePolicy(string(c.Admin.Cascade)); err != nil {
		return errors.Wrap(err, "admin")
	}
	if c.Admin.Batch, err = model.ParseBatchPolicy(string(c.Admin.Batch)); err != nil {
		return errors.Wrap(err, "admin")
	}
	if c.Admin.Port < 0 {
		return errors.New("admin: port must not be negative")
	}
	return nil
}

var defaultAPIConf = apiConf{
	Admin: adminAPIConf{
		Port:    0, // 0 means use main server
		Cascade: model.CascadePerRecord,
		Batch:   model.BatchAtomic,
	},
}
