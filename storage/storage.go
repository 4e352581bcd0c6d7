package storage

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/brito101/medicaodigitalx/storage/model"
)

// Storage is a GORM-based storage implementation
type Storage struct {
	db         *gorm.DB
	userParams Argon2idParams
}

var models = []any{
	&model.Complex{},
	&model.Dealership{},
	&model.DealershipReading{},
	&model.ApartmentReport{},
	&model.Notification{},
	&model.ReadingSchedule{},
	&model.ScheduleGuest{},
	&model.KeyValue{},
	&model.User{},
	&model.UserPermission{},
}

// NewStorage creates a new GORM-based storage
func NewStorage(config Config) (*Storage, error) {
	db, err := Connect(config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return newStorage(db, config.UsersHash)
}

func newStorage(db *gorm.DB, params Argon2idParams) (*Storage, error) {
	if err := db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// Fill user hash params with defaults if zero values
	if params.Time == 0 {
		params = defaultArgon2idParams()
	}

	return &Storage{
		db:         db,
		userParams: params,
	}, nil
}

// DB returns the underlying gorm.DB
func (s *Storage) DB() *gorm.DB {
	return s.db
}

// ReadingsStorage returns a DealershipReadingsStorage
func (s *Storage) ReadingsStorage() *DealershipReadingsStorage {
	return &DealershipReadingsStorage{db: s.db}
}

// SchedulesStorage returns a ReadingSchedulesStorage
func (s *Storage) SchedulesStorage() *ReadingSchedulesStorage {
	return &ReadingSchedulesStorage{db: s.db}
}

// ComplexesStorage returns a ComplexesStorage
func (s *Storage) ComplexesStorage() *ComplexesStorage {
	return &ComplexesStorage{db: s.db}
}

// DealershipsStorage returns a DealershipsStorage
func (s *Storage) DealershipsStorage() *DealershipsStorage {
	return &DealershipsStorage{db: s.db}
}

// Backends returns all storage backends grouped
func (s *Storage) Backends() model.Backends {
	return model.Backends{
		Readings:    s.ReadingsStorage(),
		Schedules:   s.SchedulesStorage(),
		Complexes:   s.ComplexesStorage(),
		Dealerships: s.DealershipsStorage(),
		Users:       s.UsersStorage(),
		KV:          s.KeyValue(),
	}
}
