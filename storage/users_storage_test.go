package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brito101/medicaodigitalx/storage/model"
)

func TestUsersCreateAuthenticate(t *testing.T) {
	s := newTestStorage(t)
	us := s.UsersStorage()

	u, err := us.Create("ana", "s3cret", "Ana", "ana@example.org")
	require.NoError(t, err)
	assert.Empty(t, u.PasswordHash)

	_, err = us.Create("ana", "other", "", "")
	var exists model.AlreadyExistsError
	assert.True(t, errors.As(err, &exists))

	got, err := us.Authenticate("ana", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = us.Authenticate("ana", "wrong")
	assert.Error(t, err)

	disabled := true
	_, err = us.Update("ana", model.UserUpdate{Disabled: &disabled})
	require.NoError(t, err)
	_, err = us.Authenticate("ana", "s3cret")
	assert.Error(t, err)
}

func TestUsersPermissions(t *testing.T) {
	s := newTestStorage(t)
	us := s.UsersStorage()
	u, err := us.Create("ana", "s3cret", "Ana", "")
	require.NoError(t, err)

	_, err = us.Grant("ana", model.CapReadingsList, model.CapReadingsEdit)
	require.NoError(t, err)
	_, err = us.Grant("ana", model.CapReadingsList)
	require.NoError(t, err)

	caps, err := us.Permissions(u.ID)
	require.NoError(t, err)
	assert.True(t, caps.Has(model.CapReadingsList))
	assert.True(t, caps.Has(model.CapReadingsEdit))
	assert.False(t, caps.Has(model.CapReadingsDelete))

	got, err := us.Revoke("ana", model.CapReadingsEdit)
	require.NoError(t, err)
	require.Len(t, got.Permissions, 1)
	assert.Equal(t, model.CapReadingsList, got.Permissions[0].Capability)

	got, err = us.SetPermissions("ana", []model.Capability{model.CapUsersManage})
	require.NoError(t, err)
	require.Len(t, got.Permissions, 1)
	assert.Equal(t, model.CapUsersManage, got.Permissions[0].Capability)

	_, err = us.Grant("ana", model.Capability("readings.fly"))
	assert.Error(t, err)

	_, err = us.Grant("nobody", model.CapReadingsList)
	var nf model.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestUsersMissingAndDelete(t *testing.T) {
	s := newTestStorage(t)
	us := s.UsersStorage()
	a, err := us.Create("ana", "pw", "", "")
	require.NoError(t, err)
	b, err := us.Create("bruno", "pw", "", "")
	require.NoError(t, err)

	missing, err := us.Missing([]uint{a.ID, 77, b.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{77}, missing)

	_, err = us.Grant("bruno", model.CapReadingsList)
	require.NoError(t, err)
	require.NoError(t, us.Delete("bruno"))
	assert.Equal(t, int64(0), countRows(t, s, &model.UserPermission{}))

	err = us.Delete("bruno")
	var nf model.NotFoundError
	assert.True(t, errors.As(err, &nf))
}
