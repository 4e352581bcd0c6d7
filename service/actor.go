package service

import (
	"context"

	arrays "github.com/adam-hanna/arrayOperations"

	"github.com/brito101/medicaodigitalx/storage/model"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID          uint
	Username    string
	Permissions model.CapabilitySet
}

// NewActor builds an Actor from a user and its granted capabilities.
func NewActor(u model.User, caps model.CapabilitySet) Actor {
	if caps == nil {
		caps = model.CapabilitySet{}
		for _, p := range u.Permissions {
			caps[p.Capability] = struct{}{}
		}
	}
	return Actor{
		ID:          u.ID,
		Username:    u.Username,
		Permissions: caps,
	}
}

// Can reports whether the actor holds the capability.
func (a Actor) Can(c model.Capability) bool {
	return a.Permissions.Has(c)
}

// Abilities returns the subset of caps the actor holds.
func (a Actor) Abilities(caps ...model.Capability) []model.Capability {
	held := make([]model.Capability, 0, len(a.Permissions))
	for c := range a.Permissions {
		held = append(held, c)
	}
	return arrays.Intersect(caps, held)
}

// Authorizer decides whether an actor may use a capability.
type Authorizer interface {
	Allowed(ctx context.Context, actor Actor, capability model.Capability) bool
}

// CapabilityAuthorizer allows exactly the capabilities in the actor's set.
type CapabilityAuthorizer struct{}

// Allowed implements the Authorizer interface
func (CapabilityAuthorizer) Allowed(_ context.Context, actor Actor, capability model.Capability) bool {
	return actor.Can(capability)
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(ctx context.Context, actor Actor, capability model.Capability) bool

// Allowed implements the Authorizer interface
func (f AuthorizerFunc) Allowed(ctx context.Context, actor Actor, capability model.Capability) bool {
	return f(ctx, actor, capability)
}
