package model

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// DealershipReading is a utility meter reading of one dealership for one
// complex and period. It owns zero or more ApartmentReports.
type DealershipReading struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ComplexID    uint        `gorm:"index;not null" json:"complex_id"`
	Complex      *Complex    `gorm:"foreignKey:ComplexID" json:"complex,omitempty"`
	DealershipID uint        `gorm:"index;not null" json:"dealership_id"`
	Dealership   *Dealership `gorm:"foreignKey:DealershipID" json:"dealership,omitempty"`

	// Period is the billing month in the form YYYY-MM
	Period      string    `gorm:"size:7;index" json:"period"`
	ReadingDate time.Time `json:"reading_date"`
	MeterValue  float64   `json:"meter_value"`
	Amount      float64   `json:"amount"`
	Notes       string    `gorm:"type:text" json:"notes,omitempty"`

	// Editor is the id of the user that wrote the record last
	Editor uint `gorm:"index" json:"editor"`
	// Version is incremented on every update and used for optimistic locking
	Version uint `gorm:"not null;default:1" json:"version"`
}

// ApartmentReport is the share of a DealershipReading attributed to one
// apartment. Reports are removed together with their reading.
type ApartmentReport struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
	DealershipReadingID uint      `gorm:"index;not null" json:"dealership_reading_id"`
	ApartmentID         uint      `gorm:"index" json:"apartment_id"`
	Consumption         float64   `json:"consumption"`
	Amount              float64   `json:"amount"`
}

// AfterDelete removes the notifications that point to the deleted report.
// It only fires for deletes by primary key.
func (r *ApartmentReport) AfterDelete(tx *gorm.DB) error {
	if r.ID == 0 {
		return nil
	}
	return tx.Where("apartment_report_id = ?", r.ID).Delete(&Notification{}).Error
}

// Notification is a message for a user that may refer to a reading or to one
// of its apartment reports.
type Notification struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
	UserID              uint      `gorm:"index" json:"user_id"`
	DealershipReadingID *uint     `gorm:"index" json:"dealership_reading_id,omitempty"`
	ApartmentReportID   *uint     `gorm:"index" json:"apartment_report_id,omitempty"`
	Title               string    `json:"title"`
	Body                string    `gorm:"type:text" json:"body"`
	Read                bool      `json:"read"`
}

// DealershipReadingsStore is the abstraction over reading persistence used by
// the service layer.
type DealershipReadingsStore interface {
	// List returns a page of readings with Complex and Dealership loaded
	List(ctx context.Context, q ListQuery) (ListResult[DealershipReading], error)
	// Get returns the reading or a NotFoundError
	Get(ctx context.Context, id uint) (*DealershipReading, error)
	// Create stores a new reading
	Create(ctx context.Context, reading *DealershipReading) error
	// Update writes the reading if its stored version equals expectedVersion;
	// otherwise it returns a ConflictError (or NotFoundError if it is gone)
	Update(ctx context.Context, reading *DealershipReading, expectedVersion uint) error
	// Reports returns a page of the reading's apartment reports
	Reports(ctx context.Context, readingID uint, q ListQuery) (ListResult[ApartmentReport], error)
	// Delete removes the reading, its reports and its notifications
	Delete(ctx context.Context, id uint, cascade CascadePolicy) (DeleteResult, error)
	// DeleteBatch removes several readings following the passed BatchPolicy
	DeleteBatch(ctx context.Context, ids []uint, cascade CascadePolicy, policy BatchPolicy) (BatchResult, error)
}
