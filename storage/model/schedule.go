package model

import (
	"context"
	"time"
)

// ReadingSchedule is a planned meter reading. The creating user owns it; only
// the owner may change or delete it.
type ReadingSchedule struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Title     string    `gorm:"not null" json:"title"`
	Start     time.Time `gorm:"column:starts_at" json:"start"`
	End       time.Time `gorm:"column:ends_at" json:"end"`
	Color     string    `json:"color"`

	UserID uint            `gorm:"index;not null" json:"user_id"`
	User   *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Guests []ScheduleGuest `gorm:"foreignKey:ReadingScheduleID" json:"guests"`
}

// ScheduleGuest is a user invited to a ReadingSchedule.
type ScheduleGuest struct {
	ID                uint  `gorm:"primaryKey" json:"id"`
	ReadingScheduleID uint  `gorm:"uniqueIndex:idx_schedule_guest;not null" json:"reading_schedule_id"`
	UserID            uint  `gorm:"uniqueIndex:idx_schedule_guest;not null" json:"user_id"`
	User              *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	// Visualized is set once the guest has seen the schedule
	Visualized bool `json:"visualized"`
	// Executed is set once the guest has carried out the reading
	Executed bool `json:"executed"`
}

// GuestFlags selects which guest flags to set; nil leaves a flag untouched.
type GuestFlags struct {
	Visualized *bool
	Executed   *bool
}

// ReadingSchedulesStore is the abstraction over schedule persistence.
type ReadingSchedulesStore interface {
	// List returns a page of schedules; if q.ParticipantID is set only
	// schedules owned by or inviting that user are returned
	List(ctx context.Context, q ListQuery) (ListResult[ReadingSchedule], error)
	// Get returns the schedule with owner and ordered guests, or a NotFoundError
	Get(ctx context.Context, id uint) (*ReadingSchedule, error)
	// Create stores the schedule together with guests for guestIDs
	Create(ctx context.Context, schedule *ReadingSchedule, guestIDs []uint) error
	// Update writes the schedule and replaces its guest set with guestIDs,
	// keeping the flags of guests that stay
	Update(ctx context.Context, schedule *ReadingSchedule, guestIDs []uint) error
	// Delete removes the schedule and its guests
	Delete(ctx context.Context, id uint, cascade CascadePolicy) (DeleteResult, error)
	// SetGuestFlags updates the flags of one guest; NotFoundError if userID is
	// not a guest of the schedule
	SetGuestFlags(ctx context.Context, scheduleID, userID uint, flags GuestFlags) (*ScheduleGuest, error)
}
