package storage

import (
	"context"
	"errors"
	"strconv"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brito101/medicaodigitalx/storage/model"
)

// DealershipReadingsStorage implements model.DealershipReadingsStore using GORM
type DealershipReadingsStorage struct {
	db *gorm.DB
}

var readingOrderColumns = orderColumns{
	"id":            "id",
	"period":        "period",
	"reading_date":  "reading_date",
	"meter_value":   "meter_value",
	"amount":        "amount",
	"complex":       "complex_id",
	"complex_id":    "complex_id",
	"dealership":    "dealership_id",
	"dealership_id": "dealership_id",
	"updated_at":    "updated_at",
}

var reportOrderColumns = orderColumns{
	"id":           "id",
	"apartment_id": "apartment_id",
	"consumption":  "consumption",
	"amount":       "amount",
}

// List returns a page of readings with Complex and Dealership loaded
func (s *DealershipReadingsStorage) List(ctx context.Context, q model.ListQuery) (
	res model.ListResult[model.DealershipReading], err error,
) {
	db := s.db.WithContext(ctx)
	scoped := db.Model(&model.DealershipReading{})
	if q.ComplexID != 0 {
		scoped = scoped.Where("complex_id = ?", q.ComplexID)
	}
	scoped = scoped.Session(&gorm.Session{})
	if err = scoped.Count(&res.Total).Error; err != nil {
		return
	}
	filtered := scoped
	if q.Search != "" {
		like := likePattern(q.Search)
		filtered = scoped.Where(
			"period LIKE ?"+likeEscape+" OR notes LIKE ?"+likeEscape+" OR complex_id IN (?) OR dealership_id IN (?)",
			like, like,
			db.Model(&model.Complex{}).Select("id").
				Where("alias_name LIKE ?"+likeEscape+" OR name LIKE ?"+likeEscape, like, like),
			db.Model(&model.Dealership{}).Select("id").Where("name LIKE ?"+likeEscape, like),
		).Session(&gorm.Session{})
		if err = filtered.Count(&res.Filtered).Error; err != nil {
			return
		}
	} else {
		res.Filtered = res.Total
	}
	err = readingOrderColumns.page(filtered, q, "id").
		Preload("Complex").
		Preload("Dealership").
		Find(&res.Items).Error
	return
}

// Get returns the reading with Complex and Dealership loaded
func (s *DealershipReadingsStorage) Get(ctx context.Context, id uint) (*model.DealershipReading, error) {
	var r model.DealershipReading
	err := s.db.WithContext(ctx).
		Preload("Complex").
		Preload("Dealership").
		First(&r, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("dealership reading %d not found", id)
		}
		return nil, err
	}
	return &r, nil
}

// Create stores a new reading; referenced complex and dealership are not
// written
func (s *DealershipReadingsStorage) Create(ctx context.Context, reading *model.DealershipReading) error {
	if reading.Version == 0 {
		reading.Version = 1
	}
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(reading).Error
}

// Update writes the reading's fields if the stored version equals
// expectedVersion and bumps the version
func (s *DealershipReadingsStorage) Update(
	ctx context.Context, reading *model.DealershipReading, expectedVersion uint,
) error {
	return s.db.WithContext(ctx).Transaction(
		func(tx *gorm.DB) error {
			res := tx.Model(&model.DealershipReading{}).
				Where("id = ? AND version = ?", reading.ID, expectedVersion).
				Updates(
					map[string]any{
						"complex_id":    reading.ComplexID,
						"dealership_id": reading.DealershipID,
						"period":        reading.Period,
						"reading_date":  reading.ReadingDate,
						"meter_value":   reading.MeterValue,
						"amount":        reading.Amount,
						"notes":         reading.Notes,
						"editor":        reading.Editor,
						"version":       expectedVersion + 1,
					},
				)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				var count int64
				if err := tx.Model(&model.DealershipReading{}).Where("id = ?", reading.ID).Count(&count).Error; err != nil {
					return err
				}
				if count == 0 {
					return model.NotFoundErrorFmt("dealership reading %d not found", reading.ID)
				}
				return model.ConflictErrorFmt(
					"dealership reading %d was changed by someone else (expected version %d)", reading.ID,
					expectedVersion,
				)
			}
			reading.Version = expectedVersion + 1
			return nil
		},
	)
}

// Reports returns a page of the apartment reports of a reading. A numeric
// search matches the apartment id.
func (s *DealershipReadingsStorage) Reports(ctx context.Context, readingID uint, q model.ListQuery) (
	res model.ListResult[model.ApartmentReport], err error,
) {
	scoped := s.db.WithContext(ctx).Model(&model.ApartmentReport{}).
		Where("dealership_reading_id = ?", readingID).
		Session(&gorm.Session{})
	if err = scoped.Count(&res.Total).Error; err != nil {
		return
	}
	filtered := scoped
	res.Filtered = res.Total
	if q.Search != "" {
		apartment, perr := strconv.ParseUint(q.Search, 10, 64)
		if perr != nil {
			res.Items = []model.ApartmentReport{}
			res.Filtered = 0
			return
		}
		filtered = scoped.Where("apartment_id = ?", apartment).Session(&gorm.Session{})
		if err = filtered.Count(&res.Filtered).Error; err != nil {
			return
		}
	}
	err = reportOrderColumns.page(filtered, q, "id").Find(&res.Items).Error
	return
}

// Delete removes a reading, its apartment reports and all notifications
// referring to either in one transaction
func (s *DealershipReadingsStorage) Delete(ctx context.Context, id uint, cascade model.CascadePolicy) (
	removed model.DeleteResult, err error,
) {
	err = s.db.WithContext(ctx).Transaction(
		func(tx *gorm.DB) error {
			var terr error
			removed, terr = deleteReading(tx, id, cascade)
			return terr
		},
	)
	if err != nil {
		return model.DeleteResult{}, err
	}
	return
}

// DeleteBatch removes the readings with the passed ids. With BatchAtomic all
// deletes share one transaction and the first failure is returned as a
// model.BatchItemError. With BatchBestEffort every id gets its own
// transaction and failures are collected in the result.
func (s *DealershipReadingsStorage) DeleteBatch(
	ctx context.Context, ids []uint, cascade model.CascadePolicy, policy model.BatchPolicy,
) (model.BatchResult, error) {
	result := model.BatchResult{
		Policy:  policy,
		Deleted: []uint{},
	}
	if policy == model.BatchBestEffort {
		for _, id := range ids {
			removed, err := s.Delete(ctx, id, cascade)
			if err != nil {
				result.Failed = append(
					result.Failed, model.BatchItemError{
						ID:  id,
						Err: err,
					},
				)
				continue
			}
			result.Deleted = append(result.Deleted, id)
			result.Removed = result.Removed.Add(removed)
		}
		return result, nil
	}
	err := s.db.WithContext(ctx).Transaction(
		func(tx *gorm.DB) error {
			for _, id := range ids {
				removed, err := deleteReading(tx, id, cascade)
				if err != nil {
					return model.BatchItemError{
						ID:  id,
						Err: err,
					}
				}
				result.Deleted = append(result.Deleted, id)
				result.Removed = result.Removed.Add(removed)
			}
			return nil
		},
	)
	if err != nil {
		return model.BatchResult{
			Policy:  policy,
			Deleted: []uint{},
		}, err
	}
	return result, nil
}

// deleteReading deletes one reading inside tx. The reading row goes first;
// dependents are only touched once that delete removed exactly one row.
func deleteReading(tx *gorm.DB, id uint, cascade model.CascadePolicy) (model.DeleteResult, error) {
	var removed model.DeleteResult
	var reports []model.ApartmentReport
	if err := tx.Where("dealership_reading_id = ?", id).Order("id").Find(&reports).Error; err != nil {
		return removed, pkgerrors.Wrap(err, "failed to load apartment reports")
	}

	res := tx.Delete(&model.DealershipReading{}, id)
	if res.Error != nil {
		return removed, pkgerrors.Wrapf(res.Error, "failed to delete dealership reading %d", id)
	}
	if res.RowsAffected != 1 {
		return removed, model.NotFoundErrorFmt("dealership reading %d not found", id)
	}
	removed.Records = 1

	if len(reports) > 0 {
		reportIDs := make([]uint, len(reports))
		for i, r := range reports {
			reportIDs[i] = r.ID
		}
		switch cascade {
		case model.CascadeBulk:
			res = tx.Where("apartment_report_id IN ?", reportIDs).Delete(&model.Notification{})
			if res.Error != nil {
				return removed, pkgerrors.Wrap(res.Error, "failed to delete report notifications")
			}
			removed.Notifications += res.RowsAffected
			res = tx.Where("dealership_reading_id = ?", id).Delete(&model.ApartmentReport{})
			if res.Error != nil {
				return removed, pkgerrors.Wrap(res.Error, "failed to delete apartment reports")
			}
			removed.Dependents += res.RowsAffected
		default:
			// report notifications are removed by the report's AfterDelete hook
			var notifications int64
			if err := tx.Model(&model.Notification{}).
				Where("apartment_report_id IN ?", reportIDs).
				Count(&notifications).Error; err != nil {
				return removed, pkgerrors.Wrap(err, "failed to count report notifications")
			}
			for i := range reports {
				res = tx.Delete(&reports[i])
				if res.Error != nil {
					return removed, pkgerrors.Wrapf(res.Error, "failed to delete apartment report %d", reports[i].ID)
				}
				removed.Dependents += res.RowsAffected
			}
			removed.Notifications += notifications
		}
	}

	res = tx.Where("dealership_reading_id = ?", id).Delete(&model.Notification{})
	if res.Error != nil {
		return removed, pkgerrors.Wrap(res.Error, "failed to delete reading notifications")
	}
	removed.Notifications += res.RowsAffected
	return removed, nil
}
