package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/brito101/medicaodigitalx/storage/model"
)

func TestReadingsList(t *testing.T) {
	s := newTestStorage(t)
	f := newReadingFixture(t, s)
	for _, p := range []string{"2024-01", "2024-02", "2024-03"} {
		seedReading(t, s, f, p, 0)
	}
	ctx := context.Background()

	res, err := s.ReadingsStorage().List(ctx, model.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)
	assert.Equal(t, int64(3), res.Filtered)
	require.Len(t, res.Items, 3)
	assert.Equal(t, "2024-03", res.Items[0].Period)
	require.NotNil(t, res.Items[0].Complex)
	assert.Equal(t, "Residencial Aurora", res.Items[0].Complex.AliasName)
	require.NotNil(t, res.Items[0].Dealership)

	res, err = s.ReadingsStorage().List(ctx, model.ListQuery{Search: "2024-02"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)
	assert.Equal(t, int64(1), res.Filtered)
	require.Len(t, res.Items, 1)

	res, err = s.ReadingsStorage().List(ctx, model.ListQuery{Search: "Aurora", Limit: 2, OrderBy: "period"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Filtered)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "2024-01", res.Items[0].Period)

	res, err = s.ReadingsStorage().List(ctx, model.ListQuery{ComplexID: f.complex.ID + 1})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Total)
	assert.Empty(t, res.Items)
}

func TestReadingsSearchIsLiteral(t *testing.T) {
	s := newTestStorage(t)
	f := newReadingFixture(t, s)
	for _, p := range []string{"2024-01", "2024-02", "2024-03"} {
		seedReading(t, s, f, p, 0)
	}
	ctx := context.Background()

	for _, search := range []string{"_", "%", "2024_0"} {
		res, err := s.ReadingsStorage().List(ctx, model.ListQuery{Search: search})
		require.NoError(t, err, search)
		assert.Equal(t, int64(3), res.Total, search)
		assert.Equal(t, int64(0), res.Filtered, search)
		assert.Empty(t, res.Items, search)
	}
}

func TestListsHonourCancelledContext(t *testing.T) {
	s := newTestStorage(t)
	f := newReadingFixture(t, s)
	seedReading(t, s, f, "2024-01", 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ReadingsStorage().List(ctx, model.ListQuery{Search: "Aurora"})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.SchedulesStorage().List(ctx, model.ListQuery{ParticipantID: 1, Search: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadingsGetNotFound(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.ReadingsStorage().Get(context.Background(), 42)
	var nf model.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestReadingsUpdateVersion(t *testing.T) {
	s := newTestStorage(t)
	f := newReadingFixture(t, s)
	r := seedReading(t, s, f, "2024-01", 0)
	ctx := context.Background()
	require.Equal(t, uint(1), r.Version)

	r.Notes = "first"
	r.Editor = 7
	require.NoError(t, s.ReadingsStorage().Update(ctx, r, 1))
	assert.Equal(t, uint(2), r.Version)

	stored, err := s.ReadingsStorage().Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", stored.Notes)
	assert.Equal(t, uint(7), stored.Editor)
	assert.Equal(t, uint(2), stored.Version)

	r.Notes = "stale"
	err = s.ReadingsStorage().Update(ctx, r, 1)
	var conflict model.ConflictError
	require.True(t, errors.As(err, &conflict))

	r.ID = 999
	err = s.ReadingsStorage().Update(ctx, r, 2)
	var nf model.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestReadingsReports(t *testing.T) {
	s := newTestStorage(t)
	f := newReadingFixture(t, s)
	r := seedReading(t, s, f, "2024-01", 3)
	ctx := context.Background()

	res, err := s.ReadingsStorage().Reports(ctx, r.ID, model.ListQuery{OrderBy: "apartment_id"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)
	require.Len(t, res.Items, 3)
	assert.Equal(t, uint(101), res.Items[0].ApartmentID)

	res, err = s.ReadingsStorage().Reports(ctx, r.ID, model.ListQuery{Search: "102"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Filtered)

	res, err = s.ReadingsStorage().Reports(ctx, r.ID, model.ListQuery{Search: "abc"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Filtered)
	assert.Empty(t, res.Items)
}

func TestReadingsDeleteCascade(t *testing.T) {
	for _, cascade := range []model.CascadePolicy{model.CascadePerRecord, model.CascadeBulk} {
		t.Run(
			string(cascade), func(t *testing.T) {
				s := newTestStorage(t)
				f := newReadingFixture(t, s)
				r := seedReading(t, s, f, "2024-01", 3)
				other := seedReading(t, s, f, "2024-02", 1)

				removed, err := s.ReadingsStorage().Delete(context.Background(), r.ID, cascade)
				require.NoError(t, err)
				assert.Equal(
					t, model.DeleteResult{
						Records:       1,
						Dependents:    3,
						Notifications: 4,
					}, removed,
				)
				assert.Equal(t, int64(1), countRows(t, s, &model.DealershipReading{}))
				assert.Equal(t, int64(1), countRows(t, s, &model.ApartmentReport{}))
				assert.Equal(t, int64(2), countRows(t, s, &model.Notification{}))

				_, err = s.ReadingsStorage().Get(context.Background(), other.ID)
				assert.NoError(t, err)
			},
		)
	}
}

func TestReadingsDeleteNotFoundTouchesNothing(t *testing.T) {
	s := newTestStorage(t)
	f := newReadingFixture(t, s)
	seedReading(t, s, f, "2024-01", 2)

	_, err := s.ReadingsStorage().Delete(context.Background(), 999, model.CascadePerRecord)
	var nf model.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, int64(2), countRows(t, s, &model.ApartmentReport{}))
	assert.Equal(t, int64(3), countRows(t, s, &model.Notification{}))
}

func TestReadingsDeleteRollsBackOnDependentFailure(t *testing.T) {
	s := newTestStorage(t)
	f := newReadingFixture(t, s)
	r := seedReading(t, s, f, "2024-01", 2)

	require.NoError(
		t, s.db.Callback().Delete().Before("gorm:delete").Register(
			"test:fail_reports", func(tx *gorm.DB) {
				if tx.Statement.Table == "apartment_reports" {
					_ = tx.AddError(errors.New("disk full"))
				}
			},
		),
	)

	_, err := s.ReadingsStorage().Delete(context.Background(), r.ID, model.CascadePerRecord)
	require.Error(t, err)
	assert.Equal(t, int64(1), countRows(t, s, &model.DealershipReading{}))
	assert.Equal(t, int64(2), countRows(t, s, &model.ApartmentReport{}))
}

func TestReadingsDeleteBatch(t *testing.T) {
	t.Run(
		"atomic rolls back", func(t *testing.T) {
			s := newTestStorage(t)
			f := newReadingFixture(t, s)
			a := seedReading(t, s, f, "2024-01", 1)
			b := seedReading(t, s, f, "2024-02", 1)

			_, err := s.ReadingsStorage().DeleteBatch(
				context.Background(), []uint{a.ID, 999, b.ID}, model.CascadePerRecord, model.BatchAtomic,
			)
			var item model.BatchItemError
			require.True(t, errors.As(err, &item))
			assert.Equal(t, uint(999), item.ID)
			var nf model.NotFoundError
			assert.True(t, errors.As(err, &nf))
			assert.Equal(t, int64(2), countRows(t, s, &model.DealershipReading{}))
			assert.Equal(t, int64(2), countRows(t, s, &model.ApartmentReport{}))
			assert.Equal(t, int64(4), countRows(t, s, &model.Notification{}))
		},
	)
	t.Run(
		"atomic deletes all", func(t *testing.T) {
			s := newTestStorage(t)
			f := newReadingFixture(t, s)
			a := seedReading(t, s, f, "2024-01", 1)
			b := seedReading(t, s, f, "2024-02", 2)

			res, err := s.ReadingsStorage().DeleteBatch(
				context.Background(), []uint{a.ID, b.ID}, model.CascadeBulk, model.BatchAtomic,
			)
			require.NoError(t, err)
			assert.Equal(t, []uint{a.ID, b.ID}, res.Deleted)
			assert.Equal(t, int64(2), res.Removed.Records)
			assert.Equal(t, int64(3), res.Removed.Dependents)
			assert.Equal(t, int64(0), countRows(t, s, &model.Notification{}))
		},
	)
	t.Run(
		"best effort continues", func(t *testing.T) {
			s := newTestStorage(t)
			f := newReadingFixture(t, s)
			a := seedReading(t, s, f, "2024-01", 1)
			b := seedReading(t, s, f, "2024-02", 1)

			res, err := s.ReadingsStorage().DeleteBatch(
				context.Background(), []uint{a.ID, 999, b.ID}, model.CascadePerRecord, model.BatchBestEffort,
			)
			require.NoError(t, err)
			assert.Equal(t, []uint{a.ID, b.ID}, res.Deleted)
			require.Len(t, res.Failed, 1)
			assert.Equal(t, uint(999), res.Failed[0].ID)
			assert.Equal(t, int64(0), countRows(t, s, &model.DealershipReading{}))
		},
	)
}
