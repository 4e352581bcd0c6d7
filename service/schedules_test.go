package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brito101/medicaodigitalx/storage/model"
)

func scheduleInput(guests ...uint) ScheduleInput {
	return ScheduleInput{
		Title:  "Leitura bloco B",
		Start:  "2024-05-02T09:00",
		End:    "2024-05-02T11:00",
		Color:  "#00a65a",
		Guests: guests,
	}
}

func TestSchedulesCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := NewScheduleService(env.backends, Options{})
	ctx := context.Background()
	owner := env.user(t, "ana", model.CapSchedulesCreate)

	in := scheduleInput()
	in.End = "2024-05-02T08:00"
	_, err := svc.Create(ctx, owner, in)
	var invalid InvalidInputError
	require.True(t, errors.As(err, &invalid))
	assert.Contains(t, invalid.Fields, "end")

	_, err = svc.Create(ctx, owner, scheduleInput(999))
	var ref InvalidReferenceError
	require.True(t, errors.As(err, &ref))
	assert.Equal(t, []uint{999}, ref.IDs)
	assert.Equal(t, int64(0), env.count(t, &model.ReadingSchedule{}))

	_, err = svc.Create(ctx, env.user(t, "bruno"), scheduleInput())
	assert.Equal(t, KindUnauthorized, Kind(err))
}

func TestSchedulesGuestsMustBeCandidates(t *testing.T) {
	env := newTestEnv(t)
	svc := NewScheduleService(env.backends, Options{})
	ctx := context.Background()
	owner := env.user(t, "ana", model.CapSchedulesCreate)
	guest := env.user(t, "bruno")
	disabled := env.user(t, "carla")
	require.NoError(t, env.db.Model(&model.User{}).Where("id = ?", disabled.ID).Update("disabled", true).Error)

	var ref InvalidReferenceError
	_, err := svc.Create(ctx, owner, scheduleInput(owner.ID))
	require.True(t, errors.As(err, &ref))
	assert.Equal(t, []uint{owner.ID}, ref.IDs)

	_, err = svc.Create(ctx, owner, scheduleInput(guest.ID, disabled.ID))
	require.True(t, errors.As(err, &ref))
	assert.Equal(t, []uint{disabled.ID}, ref.IDs)
	assert.Equal(t, int64(0), env.count(t, &model.ReadingSchedule{}))

	sched, err := svc.Create(ctx, owner, scheduleInput(guest.ID))
	require.NoError(t, err)
	_, err = svc.Update(ctx, owner, sched.ID, scheduleInput(guest.ID, owner.ID))
	assert.Equal(t, KindInvalidReference, Kind(err))
}

func TestSchedulesOwnership(t *testing.T) {
	env := newTestEnv(t)
	svc := NewScheduleService(env.backends, Options{})
	ctx := context.Background()
	owner := env.user(t, "ana", model.CapSchedulesCreate, model.CapSchedulesList)
	guest := env.user(t, "bruno", model.CapSchedulesList)
	other := env.user(t, "carla", model.CapSchedulesCreate, model.CapSchedulesList, model.CapSchedulesListAll)

	sched, err := svc.Create(ctx, owner, scheduleInput(guest.ID, guest.ID))
	require.NoError(t, err)
	require.Len(t, sched.Guests, 1)

	for _, actor := range []Actor{guest, other} {
		_, err = svc.Edit(ctx, actor, sched.ID)
		assert.Equal(t, KindUnauthorized, Kind(err))
		_, err = svc.Update(ctx, actor, sched.ID, scheduleInput())
		assert.Equal(t, KindUnauthorized, Kind(err))
		_, err = svc.Destroy(ctx, actor, sched.ID)
		assert.Equal(t, KindUnauthorized, Kind(err))
	}
	assert.Equal(t, int64(1), env.count(t, &model.ReadingSchedule{}))

	_, err = svc.Edit(ctx, owner, 999)
	assert.Equal(t, KindNotFound, Kind(err))

	view, err := svc.Edit(ctx, owner, sched.ID)
	require.NoError(t, err)
	assert.Equal(t, sched.ID, view.Schedule.ID)
	assert.Len(t, view.Candidates, 2)

	in := scheduleInput(other.ID)
	in.Title = "Remarcada"
	updated, err := svc.Update(ctx, owner, sched.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Remarcada", updated.Title)
	require.Len(t, updated.Guests, 1)
	assert.Equal(t, other.ID, updated.Guests[0].UserID)

	removed, err := svc.Destroy(ctx, owner, sched.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed.Dependents)
	assert.Equal(t, int64(0), env.count(t, &model.ScheduleGuest{}))
}

func TestSchedulesShowAndFlags(t *testing.T) {
	env := newTestEnv(t)
	svc := NewScheduleService(env.backends, Options{})
	ctx := context.Background()
	owner := env.user(t, "ana", model.CapSchedulesCreate, model.CapSchedulesList)
	guest := env.user(t, "bruno", model.CapSchedulesList)
	outsider := env.user(t, "carla", model.CapSchedulesList)

	sched, err := svc.Create(ctx, owner, scheduleInput(guest.ID))
	require.NoError(t, err)

	view, err := svc.Show(ctx, guest, sched.ID)
	require.NoError(t, err)
	assert.False(t, view.CanManage)
	assert.Equal(t, "Ana", view.Creator)
	require.Len(t, view.Guests, 1)
	assert.Equal(t, "bruno@example.org", view.Guests[0].Email)
	assert.False(t, view.Guests[0].Visualized)

	view, err = svc.Show(ctx, owner, sched.ID)
	require.NoError(t, err)
	assert.True(t, view.CanManage)

	_, err = svc.Show(ctx, outsider, sched.ID)
	assert.Equal(t, KindUnauthorized, Kind(err))
	auditor := env.user(t, "davi", model.CapSchedulesList, model.CapSchedulesListAll)
	view, err = svc.Show(ctx, auditor, sched.ID)
	require.NoError(t, err)
	assert.False(t, view.CanManage)

	g, err := svc.Acknowledge(ctx, guest, sched.ID)
	require.NoError(t, err)
	assert.True(t, g.Visualized)
	assert.False(t, g.Executed)

	_, err = svc.Execute(ctx, outsider, sched.ID)
	assert.Equal(t, KindUnauthorized, Kind(err))
	_, err = svc.Execute(ctx, guest, 999)
	assert.Equal(t, KindNotFound, Kind(err))

	g, err = svc.Execute(ctx, guest, sched.ID)
	require.NoError(t, err)
	assert.True(t, g.Visualized)
	assert.True(t, g.Executed)

	view, err = svc.Show(ctx, owner, sched.ID)
	require.NoError(t, err)
	assert.True(t, view.Guests[0].Executed)
}

func TestSchedulesListVisibility(t *testing.T) {
	env := newTestEnv(t)
	svc := NewScheduleService(env.backends, Options{})
	ctx := context.Background()
	ana := env.user(t, "ana", model.CapSchedulesCreate, model.CapSchedulesList)
	bruno := env.user(t, "bruno", model.CapSchedulesCreate, model.CapSchedulesList)
	boss := env.user(t, "boss", model.CapSchedulesList, model.CapSchedulesListAll)

	_, err := svc.Create(ctx, ana, scheduleInput())
	require.NoError(t, err)
	_, err = svc.Create(ctx, bruno, scheduleInput(ana.ID))
	require.NoError(t, err)
	_, err = svc.Create(ctx, bruno, scheduleInput())
	require.NoError(t, err)

	res, err := svc.List(ctx, ana, model.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)

	res, err = svc.List(ctx, boss, model.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)

	_, err = svc.List(ctx, env.user(t, "nobody"), model.ListQuery{})
	assert.Equal(t, KindUnauthorized, Kind(err))
}
