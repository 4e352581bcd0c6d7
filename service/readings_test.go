package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brito101/medicaodigitalx/storage/model"
)

var allReadingCaps = []model.Capability{
	model.CapReadingsList,
	model.CapReadingsCreate,
	model.CapReadingsEdit,
	model.CapReadingsDelete,
}

func TestReadingsUnauthorizedDoesNotWrite(t *testing.T) {
	env := newTestEnv(t)
	svc := NewReadingService(env.backends, Options{})
	ctx := context.Background()
	admin := env.user(t, "admin", allReadingCaps...)
	r, err := svc.Create(ctx, admin, env.input())
	require.NoError(t, err)
	env.seedReports(t, r.ID, 2)

	nobody := env.user(t, "nobody", model.CapReadingsList)

	_, err = svc.Create(ctx, nobody, env.input())
	assert.Equal(t, KindUnauthorized, Kind(err))
	in := env.input()
	in.Notes = "changed"
	_, err = svc.Update(ctx, nobody, r.ID, in)
	assert.Equal(t, KindUnauthorized, Kind(err))
	_, err = svc.Destroy(ctx, nobody, r.ID)
	assert.Equal(t, KindUnauthorized, Kind(err))
	_, err = svc.BatchDelete(ctx, nobody, []uint{r.ID})
	assert.Equal(t, KindUnauthorized, Kind(err))
	_, err = svc.CreateForm(ctx, nobody)
	assert.Equal(t, KindUnauthorized, Kind(err))

	assert.Equal(t, int64(1), env.count(t, &model.DealershipReading{}))
	assert.Equal(t, int64(2), env.count(t, &model.ApartmentReport{}))
	stored, err := env.backends.Readings.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Notes)
	assert.Equal(t, admin.ID, stored.Editor)
}

func TestReadingsEditWithoutEditCapability(t *testing.T) {
	env := newTestEnv(t)
	svc := NewReadingService(env.backends, Options{})
	ctx := context.Background()
	admin := env.user(t, "admin", allReadingCaps...)
	r, err := svc.Create(ctx, admin, env.input())
	require.NoError(t, err)

	lister := env.user(t, "lister", model.CapReadingsList)
	view, err := svc.Edit(ctx, lister, r.ID)
	var unauthorized UnauthorizedError
	require.True(t, errors.As(err, &unauthorized))
	assert.Equal(t, model.CapReadingsEdit, unauthorized.Capability)
	assert.Nil(t, view)

	list, err := svc.List(ctx, lister, model.ListQuery{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
}

func TestReadingsInvalidReference(t *testing.T) {
	env := newTestEnv(t)
	svc := NewReadingService(env.backends, Options{})
	ctx := context.Background()
	admin := env.user(t, "admin", allReadingCaps...)

	in := env.input()
	in.ComplexID = 999
	_, err := svc.Create(ctx, admin, in)
	var ref InvalidReferenceError
	require.True(t, errors.As(err, &ref))
	assert.Equal(t, "complex_id", ref.Field)
	assert.Equal(t, int64(0), env.count(t, &model.DealershipReading{}))

	r, err := svc.Create(ctx, admin, env.input())
	require.NoError(t, err)
	in = env.input()
	in.DealershipID = 999
	in.Notes = "changed"
	_, err = svc.Update(ctx, admin, r.ID, in)
	require.True(t, errors.As(err, &ref))
	assert.Equal(t, "dealership_id", ref.Field)
	stored, err := env.backends.Readings.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, env.water.ID, stored.DealershipID)
	assert.Empty(t, stored.Notes)
}

func TestReadingsInvalidInput(t *testing.T) {
	env := newTestEnv(t)
	svc := NewReadingService(env.backends, Options{})
	admin := env.user(t, "admin", allReadingCaps...)

	in := env.input()
	in.Period = "03/2024"
	in.Amount = -1
	_, err := svc.Create(context.Background(), admin, in)
	var invalid InvalidInputError
	require.True(t, errors.As(err, &invalid))
	assert.Contains(t, invalid.Fields, "period")
	assert.Contains(t, invalid.Fields, "amount")
	assert.NotContains(t, invalid.Fields, "reading_date")
	assert.Equal(t, int64(0), env.count(t, &model.DealershipReading{}))
}

func TestReadingsCreatePersistenceError(t *testing.T) {
	env := newTestEnv(t)
	svc := NewReadingService(env.backends, Options{})
	admin := env.user(t, "admin", allReadingCaps...)
	failOn(t, env.db, "create", "dealership_readings")

	_, err := svc.Create(context.Background(), admin, env.input())
	var persistence PersistenceError
	require.True(t, errors.As(err, &persistence))
	assert.Equal(t, KindPersistence, Kind(err))
}

func TestReadingsUpdateRestampsEditor(t *testing.T) {
	env := newTestEnv(t)
	svc := NewReadingService(env.backends, Options{})
	ctx := context.Background()
	a := env.user(t, "ana", allReadingCaps...)
	b := env.user(t, "bruno", allReadingCaps...)

	r, err := svc.Create(ctx, a, env.input())
	require.NoError(t, err)
	assert.Equal(t, a.ID, r.Editor)

	in := env.input()
	in.MeterValue = 1600
	updated, err := svc.Update(ctx, b, r.ID, in)
	require.NoError(t, err)
	assert.Equal(t, b.ID, updated.Editor)
	assert.Equal(t, 1600.0, updated.MeterValue)
	assert.Equal(t, uint(2), updated.Version)
}

func TestReadingsUpdateConflict(t *testing.T) {
	env := newTestEnv(t)
	svc := NewReadingService(env.backends, Options{})
	ctx := context.Background()
	admin := env.user(t, "admin", allReadingCaps...)
	r, err := svc.Create(ctx, admin, env.input())
	require.NoError(t, err)

	in := env.input()
	in.Version = r.Version
	_, err = svc.Update(ctx, admin, r.ID, in)
	require.NoError(t, err)

	in.Notes = "stale edit"
	_, err = svc.Update(ctx, admin, r.ID, in)
	var conflict ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, r.ID, conflict.ID)

	_, err = svc.Update(ctx, admin, 999, in)
	assert.Equal(t, KindNotFound, Kind(err))
}

func TestReadingsEditView(t *testing.T) {
	env := newTestEnv(t)
	svc := NewReadingService(env.backends, Options{})
	ctx := context.Background()
	admin := env.user(t, "admin", allReadingCaps...)
	r, err := svc.Create(ctx, admin, env.input())
	require.NoError(t, err)
	env.seedReports(t, r.ID, 3)

	view, err := svc.Edit(ctx, admin, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, view.Reading.ID)
	assert.Len(t, view.Reports, 3)
	require.Len(t, view.Complexes, 1)
	require.Len(t, view.Dealerships, 1)
	assert.Equal(t, "Cedae", view.Dealerships[0].Name)

	_, err = svc.Edit(ctx, admin, 999)
	var nf NotFoundError
	require.True(t, errors.As(err, &nf))

	reports, err := svc.Reports(ctx, admin, r.ID, model.ListQuery{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), reports.Total)
	assert.Len(t, reports.Items, 2)
}

func TestReadingsDestroy(t *testing.T) {
	for _, cascade := range []model.CascadePolicy{model.CascadePerRecord, model.CascadeBulk} {
		t.Run(
			string(cascade), func(t *testing.T) {
				env := newTestEnv(t)
				svc := NewReadingService(env.backends, Options{Cascade: cascade})
				ctx := context.Background()
				admin := env.user(t, "admin", allReadingCaps...)
				r, err := svc.Create(ctx, admin, env.input())
				require.NoError(t, err)
				env.seedReports(t, r.ID, 3)

				removed, err := svc.Destroy(ctx, admin, r.ID)
				require.NoError(t, err)
				assert.Equal(t, int64(3+1), removed.Records+removed.Dependents)
				assert.Equal(t, int64(4), removed.Notifications)
				assert.Equal(t, int64(0), env.count(t, &model.DealershipReading{}))
				assert.Equal(t, int64(0), env.count(t, &model.ApartmentReport{}))
				assert.Equal(t, int64(0), env.count(t, &model.Notification{}))

				_, err = svc.Destroy(ctx, admin, r.ID)
				assert.Equal(t, KindNotFound, Kind(err))
			},
		)
	}
}

func TestReadingsDestroyPrimaryFailureTouchesNothing(t *testing.T) {
	env := newTestEnv(t)
	svc := NewReadingService(env.backends, Options{})
	ctx := context.Background()
	admin := env.user(t, "admin", allReadingCaps...)
	r, err := svc.Create(ctx, admin, env.input())
	require.NoError(t, err)
	env.seedReports(t, r.ID, 2)
	failOn(t, env.db, "delete", "dealership_readings")

	_, err = svc.Destroy(ctx, admin, r.ID)
	assert.Equal(t, KindPersistence, Kind(err))
	assert.Equal(t, int64(1), env.count(t, &model.DealershipReading{}))
	assert.Equal(t, int64(2), env.count(t, &model.ApartmentReport{}))
	assert.Equal(t, int64(3), env.count(t, &model.Notification{}))
}

func TestReadingsBatchDelete(t *testing.T) {
	t.Run(
		"empty selection", func(t *testing.T) {
			env := newTestEnv(t)
			svc := NewReadingService(env.backends, Options{})
			admin := env.user(t, "admin", allReadingCaps...)
			_, err := svc.Create(context.Background(), admin, env.input())
			require.NoError(t, err)

			_, err = svc.BatchDelete(context.Background(), admin, nil)
			var noSelection NoSelectionError
			require.True(t, errors.As(err, &noSelection))
			assert.Equal(t, int64(1), env.count(t, &model.DealershipReading{}))
		},
	)
	t.Run(
		"atomic rolls back on missing id", func(t *testing.T) {
			env := newTestEnv(t)
			svc := NewReadingService(env.backends, Options{Batch: model.BatchAtomic})
			ctx := context.Background()
			admin := env.user(t, "admin", allReadingCaps...)
			r, err := svc.Create(ctx, admin, env.input())
			require.NoError(t, err)
			env.seedReports(t, r.ID, 1)

			_, err = svc.BatchDelete(ctx, admin, []uint{r.ID, 999})
			var nf NotFoundError
			require.True(t, errors.As(err, &nf))
			assert.Equal(t, uint(999), nf.ID)
			assert.Equal(t, int64(1), env.count(t, &model.DealershipReading{}))
			assert.Equal(t, int64(1), env.count(t, &model.ApartmentReport{}))
			assert.Equal(t, int64(2), env.count(t, &model.Notification{}))
		},
	)
	t.Run(
		"best effort keeps partial result", func(t *testing.T) {
			env := newTestEnv(t)
			svc := NewReadingService(env.backends, Options{Batch: model.BatchBestEffort})
			ctx := context.Background()
			admin := env.user(t, "admin", allReadingCaps...)
			r, err := svc.Create(ctx, admin, env.input())
			require.NoError(t, err)
			env.seedReports(t, r.ID, 1)

			res, err := svc.BatchDelete(ctx, admin, []uint{r.ID, 999, r.ID})
			require.NoError(t, err)
			assert.Equal(t, []uint{r.ID}, res.Deleted)
			require.Len(t, res.Failed, 1)
			assert.Equal(t, uint(999), res.Failed[0].ID)
			assert.Equal(t, KindNotFound, Kind(res.Failed[0].Err))
			assert.Equal(t, int64(0), env.count(t, &model.DealershipReading{}))
			assert.Equal(t, int64(0), env.count(t, &model.Notification{}))
		},
	)
}

func TestReadingsCreateForm(t *testing.T) {
	env := newTestEnv(t)
	svc := NewReadingService(env.backends, Options{})
	admin := env.user(t, "admin", model.CapReadingsCreate)

	opts, err := svc.CreateForm(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, opts.Complexes, 1)
	require.Len(t, opts.Dealerships, 1)
	assert.Equal(t, env.water.ID, opts.Dealerships[0].ID)
}

func TestAuthorizerOverride(t *testing.T) {
	env := newTestEnv(t)
	denyAll := AuthorizerFunc(
		func(context.Context, Actor, model.Capability) bool {
			return false
		},
	)
	svc := NewReadingService(env.backends, Options{Authorizer: denyAll})
	admin := env.user(t, "admin", allReadingCaps...)
	_, err := svc.List(context.Background(), admin, model.ListQuery{})
	assert.Equal(t, KindUnauthorized, Kind(err))
}
