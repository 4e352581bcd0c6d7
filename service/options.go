package service

import (
	"github.com/brito101/medicaodigitalx/storage/model"
)

// DefaultWaterService is the dealership service offered on reading forms
const DefaultWaterService = "Água e Esgoto"

// Options configures the services.
type Options struct {
	// Cascade decides how dependents are deleted
	Cascade model.CascadePolicy
	// Batch decides how batch deletes handle failures
	Batch model.BatchPolicy
	// WaterService is the dealership service listed on reading forms
	WaterService string
	// Authorizer checks capabilities; CapabilityAuthorizer if nil
	Authorizer Authorizer
}

func (o Options) withDefaults() Options {
	if o.Cascade == "" {
		o.Cascade = model.CascadePerRecord
	}
	if o.Batch == "" {
		o.Batch = model.BatchAtomic
	}
	if o.WaterService == "" {
		o.WaterService = DefaultWaterService
	}
	if o.Authorizer == nil {
		o.Authorizer = CapabilityAuthorizer{}
	}
	return o
}
