package storage

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brito101/medicaodigitalx/storage/model"
)

// ReadingSchedulesStorage implements model.ReadingSchedulesStore using GORM
type ReadingSchedulesStorage struct {
	db *gorm.DB
}

var scheduleOrderColumns = orderColumns{
	"id":    "id",
	"title": "title",
	"start": "starts_at",
	"end":   "ends_at",
	"color": "color",
}

func orderedGuests(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

// List returns a page of schedules with owner and guests loaded
func (s *ReadingSchedulesStorage) List(ctx context.Context, q model.ListQuery) (
	res model.ListResult[model.ReadingSchedule], err error,
) {
	db := s.db.WithContext(ctx)
	scoped := db.Model(&model.ReadingSchedule{})
	if q.ParticipantID != 0 {
		scoped = scoped.Where(
			"user_id = ? OR id IN (?)", q.ParticipantID,
			db.Model(&model.ScheduleGuest{}).Select("reading_schedule_id").Where("user_id = ?", q.ParticipantID),
		)
	}
	scoped = scoped.Session(&gorm.Session{})
	if err = scoped.Count(&res.Total).Error; err != nil {
		return
	}
	filtered := scoped
	res.Filtered = res.Total
	if q.Search != "" {
		filtered = scoped.Where("title LIKE ?"+likeEscape, likePattern(q.Search)).Session(&gorm.Session{})
		if err = filtered.Count(&res.Filtered).Error; err != nil {
			return
		}
	}
	err = scheduleOrderColumns.page(filtered, q, "starts_at").
		Preload("User", withoutSecrets).
		Preload("Guests", orderedGuests).
		Find(&res.Items).Error
	return
}

// Get returns the schedule with owner and ordered guests loaded
func (s *ReadingSchedulesStorage) Get(ctx context.Context, id uint) (*model.ReadingSchedule, error) {
	return getSchedule(s.db.WithContext(ctx), id)
}

func getSchedule(tx *gorm.DB, id uint) (*model.ReadingSchedule, error) {
	var schedule model.ReadingSchedule
	err := tx.
		Preload("User", withoutSecrets).
		Preload("Guests", orderedGuests).
		Preload("Guests.User", withoutSecrets).
		First(&schedule, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("reading schedule %d not found", id)
		}
		return nil, err
	}
	return &schedule, nil
}

// Create stores the schedule and one guest row per user id
func (s *ReadingSchedulesStorage) Create(ctx context.Context, schedule *model.ReadingSchedule, guestIDs []uint) error {
	return s.db.WithContext(ctx).Transaction(
		func(tx *gorm.DB) error {
			if err := tx.Omit(clause.Associations).Create(schedule).Error; err != nil {
				return err
			}
			guests := make([]model.ScheduleGuest, 0, len(guestIDs))
			for _, userID := range guestIDs {
				guests = append(
					guests, model.ScheduleGuest{
						ReadingScheduleID: schedule.ID,
						UserID:            userID,
					},
				)
			}
			if len(guests) > 0 {
				if err := tx.Omit(clause.Associations).Create(&guests).Error; err != nil {
					return pkgerrors.Wrap(err, "failed to add guests")
				}
			}
			schedule.Guests = guests
			return nil
		},
	)
}

// Update writes the schedule's fields and makes guestIDs the new guest set.
// Guests that stay keep their flags.
func (s *ReadingSchedulesStorage) Update(ctx context.Context, schedule *model.ReadingSchedule, guestIDs []uint) error {
	return s.db.WithContext(ctx).Transaction(
		func(tx *gorm.DB) error {
			if ok, err := exists(ctx, tx, &model.ReadingSchedule{}, schedule.ID); err != nil {
				return err
			} else if !ok {
				return model.NotFoundErrorFmt("reading schedule %d not found", schedule.ID)
			}
			if err := tx.Model(&model.ReadingSchedule{}).
				Where("id = ?", schedule.ID).
				Updates(
					map[string]any{
						"title":     schedule.Title,
						"starts_at": schedule.Start,
						"ends_at":   schedule.End,
						"color":     schedule.Color,
					},
				).Error; err != nil {
				return err
			}

			var current []model.ScheduleGuest
			if err := tx.Where("reading_schedule_id = ?", schedule.ID).Find(&current).Error; err != nil {
				return err
			}
			wanted := make(map[uint]bool, len(guestIDs))
			for _, id := range guestIDs {
				wanted[id] = true
			}
			var drop []uint
			for _, g := range current {
				if wanted[g.UserID] {
					delete(wanted, g.UserID)
					continue
				}
				drop = append(drop, g.ID)
			}
			if len(drop) > 0 {
				if err := tx.Where("id IN ?", drop).Delete(&model.ScheduleGuest{}).Error; err != nil {
					return pkgerrors.Wrap(err, "failed to remove guests")
				}
			}
			var add []model.ScheduleGuest
			for _, userID := range guestIDs {
				if wanted[userID] {
					add = append(
						add, model.ScheduleGuest{
							ReadingScheduleID: schedule.ID,
							UserID:            userID,
						},
					)
				}
			}
			if len(add) > 0 {
				if err := tx.Omit(clause.Associations).Create(&add).Error; err != nil {
					return pkgerrors.Wrap(err, "failed to add guests")
				}
			}

			stored, err := getSchedule(tx, schedule.ID)
			if err != nil {
				return err
			}
			*schedule = *stored
			return nil
		},
	)
}

// Delete removes the schedule and its guests
func (s *ReadingSchedulesStorage) Delete(ctx context.Context, id uint, cascade model.CascadePolicy) (
	removed model.DeleteResult, err error,
) {
	err = s.db.WithContext(ctx).Transaction(
		func(tx *gorm.DB) error {
			var guests []model.ScheduleGuest
			if err := tx.Where("reading_schedule_id = ?", id).Order("id").Find(&guests).Error; err != nil {
				return err
			}
			res := tx.Delete(&model.ReadingSchedule{}, id)
			if res.Error != nil {
				return pkgerrors.Wrapf(res.Error, "failed to delete reading schedule %d", id)
			}
			if res.RowsAffected != 1 {
				return model.NotFoundErrorFmt("reading schedule %d not found", id)
			}
			removed.Records = 1
			if cascade == model.CascadeBulk {
				res = tx.Where("reading_schedule_id = ?", id).Delete(&model.ScheduleGuest{})
				if res.Error != nil {
					return pkgerrors.Wrap(res.Error, "failed to delete guests")
				}
				removed.Dependents = res.RowsAffected
				return nil
			}
			for i := range guests {
				res = tx.Delete(&guests[i])
				if res.Error != nil {
					return pkgerrors.Wrapf(res.Error, "failed to delete guest %d", guests[i].ID)
				}
				removed.Dependents += res.RowsAffected
			}
			return nil
		},
	)
	if err != nil {
		return model.DeleteResult{}, err
	}
	return
}

// SetGuestFlags updates the flags of the guest userID of a schedule
func (s *ReadingSchedulesStorage) SetGuestFlags(
	ctx context.Context, scheduleID, userID uint, flags model.GuestFlags,
) (*model.ScheduleGuest, error) {
	var guest model.ScheduleGuest
	err := s.db.WithContext(ctx).Transaction(
		func(tx *gorm.DB) error {
			err := tx.Where("reading_schedule_id = ? AND user_id = ?", scheduleID, userID).First(&guest).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return model.NotFoundErrorFmt("user %d is not a guest of reading schedule %d", userID, scheduleID)
				}
				return err
			}
			changes := map[string]any{}
			if flags.Visualized != nil {
				changes["visualized"] = *flags.Visualized
				guest.Visualized = *flags.Visualized
			}
			if flags.Executed != nil {
				changes["executed"] = *flags.Executed
				guest.Executed = *flags.Executed
			}
			if len(changes) == 0 {
				return nil
			}
			return tx.Model(&model.ScheduleGuest{}).Where("id = ?", guest.ID).Updates(changes).Error
		},
	)
	if err != nil {
		return nil, err
	}
	return &guest, nil
}
