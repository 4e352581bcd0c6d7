package storage

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/brito101/medicaodigitalx/storage/model"
)

// ComplexesStorage implements model.ComplexesStore using GORM
type ComplexesStorage struct {
	db *gorm.DB
}

// List returns all complexes ordered by alias name
func (s *ComplexesStorage) List(ctx context.Context) ([]model.Complex, error) {
	var complexes []model.Complex
	if err := s.db.WithContext(ctx).Order("alias_name").Find(&complexes).Error; err != nil {
		return nil, err
	}
	return complexes, nil
}

// Get returns a complex by id
func (s *ComplexesStorage) Get(ctx context.Context, id uint) (*model.Complex, error) {
	var c model.Complex
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("complex %d not found", id)
		}
		return nil, err
	}
	return &c, nil
}

// Exists reports whether a complex with the passed id exists
func (s *ComplexesStorage) Exists(ctx context.Context, id uint) (bool, error) {
	return exists(ctx, s.db, &model.Complex{}, id)
}

// Create adds a complex; the alias name must be unique
func (s *ComplexesStorage) Create(ctx context.Context, add model.AddComplex) (*model.Complex, error) {
	add.AliasName = strings.TrimSpace(add.AliasName)
	if add.AliasName == "" {
		return nil, errors.New("alias_name must be given")
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Complex{}).
		Where("alias_name = ?", add.AliasName).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, model.AlreadyExistsErrorFmt("complex already exists: %s", add.AliasName)
	}
	c := model.Complex{
		AliasName: add.AliasName,
		Name:      add.Name,
	}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// DealershipsStorage implements model.DealershipsStore using GORM
type DealershipsStorage struct {
	db *gorm.DB
}

// List returns all dealerships ordered by name
func (s *DealershipsStorage) List(ctx context.Context) ([]model.Dealership, error) {
	var dealerships []model.Dealership
	if err := s.db.WithContext(ctx).Order("name").Find(&dealerships).Error; err != nil {
		return nil, err
	}
	return dealerships, nil
}

// ListByService returns the dealerships providing the passed service
func (s *DealershipsStorage) ListByService(ctx context.Context, service string) ([]model.Dealership, error) {
	var dealerships []model.Dealership
	if err := s.db.WithContext(ctx).
		Where("service = ?", service).
		Order("name").
		Find(&dealerships).Error; err != nil {
		return nil, err
	}
	return dealerships, nil
}

// Get returns a dealership by id
func (s *DealershipsStorage) Get(ctx context.Context, id uint) (*model.Dealership, error) {
	var d model.Dealership
	if err := s.db.WithContext(ctx).First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("dealership %d not found", id)
		}
		return nil, err
	}
	return &d, nil
}

// Exists reports whether a dealership with the passed id exists
func (s *DealershipsStorage) Exists(ctx context.Context, id uint) (bool, error) {
	return exists(ctx, s.db, &model.Dealership{}, id)
}

// Create adds a dealership
func (s *DealershipsStorage) Create(ctx context.Context, add model.AddDealership) (*model.Dealership, error) {
	add.Name = strings.TrimSpace(add.Name)
	if add.Name == "" {
		return nil, errors.New("name must be given")
	}
	d := model.Dealership{
		Name:    add.Name,
		Service: strings.TrimSpace(add.Service),
	}
	if err := s.db.WithContext(ctx).Create(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func exists(ctx context.Context, db *gorm.DB, m any, id uint) (bool, error) {
	if id == 0 {
		return false, nil
	}
	var count int64
	if err := db.WithContext(ctx).Model(m).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
