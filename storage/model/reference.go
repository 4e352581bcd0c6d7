package model

import (
	"context"
	"time"
)

// Complex is a residential complex (condominium site) that readings belong to.
type Complex struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	AliasName string    `gorm:"index" json:"alias_name"`
	Name      string    `json:"name"`
}

// AddComplex is the input for creating a Complex
type AddComplex struct {
	AliasName string `json:"alias_name"`
	Name      string `json:"name"`
}

// Dealership is a utility provider whose meters are read.
type Dealership struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `json:"name"`
	// Service is the kind of utility, e.g. "Água e Esgoto"
	Service string `gorm:"index" json:"service"`
}

// AddDealership is the input for creating a Dealership
type AddDealership struct {
	Name    string `json:"name"`
	Service string `json:"service"`
}

// ComplexesStore gives access to complexes.
type ComplexesStore interface {
	List(ctx context.Context) ([]Complex, error)
	Get(ctx context.Context, id uint) (*Complex, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Create(ctx context.Context, add AddComplex) (*Complex, error)
}

// DealershipsStore gives access to dealerships.
type DealershipsStore interface {
	List(ctx context.Context) ([]Dealership, error)
	// ListByService returns the dealerships providing the passed service
	ListByService(ctx context.Context, service string) ([]Dealership, error)
	Get(ctx context.Context, id uint) (*Dealership, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Create(ctx context.Context, add AddDealership) (*Dealership, error)
}
