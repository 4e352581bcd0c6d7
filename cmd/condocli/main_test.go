package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brito101/medicaodigitalx/internal/actorcache"
	"github.com/brito101/medicaodigitalx/storage"
	"github.com/brito101/medicaodigitalx/storage/model"
)

func newTestCLI(t *testing.T) (*cli, *miniredis.Miniredis) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := storage.NewStorage(
		storage.Config{
			Driver: storage.DriverSQLite,
			DSN:    fmt.Sprintf("file:cli_%s?mode=memory&cache=shared", name),
			UsersHash: storage.Argon2idParams{
				Time:        1,
				MemoryKiB:   1024,
				Parallelism: 1,
				KeyLen:      16,
				SaltLen:     8,
			},
		},
	)
	require.NoError(t, err)
	sqlDB, err := s.DB().DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	mr := miniredis.RunT(t)
	return &cli{
		backends: s.Backends(),
		actors:   actorcache.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute),
	}, mr
}

func run(t *testing.T, c *cli, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(c)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestUsers(t *testing.T) {
	c, _ := newTestCLI(t)

	out, err := run(t, c, "users", "create", "ana", "readings.list", "--password", "pw", "--display-name", "Ana")
	require.NoError(t, err)
	assert.Contains(t, out, "created user ana")

	_, err = run(t, c, "users", "create", "bia")
	assert.Error(t, err)
	_, err = run(t, c, "users", "create", "bia", "bogus", "--password", "pw")
	assert.Error(t, err)
	_, err = c.backends.Users.Get("bia")
	assert.Error(t, err)

	out, err = run(t, c, "users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ana")
	assert.Contains(t, out, "readings.list")

	out, err = run(t, c, "users", "delete", "ana")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted user ana")
	n, err := c.backends.Users.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGrantRevokeInvalidatesCache(t *testing.T) {
	c, mr := newTestCLI(t)
	_, err := c.backends.Users.Create("ana", "pw", "", "")
	require.NoError(t, err)
	require.NoError(t, c.actors.Set(context.Background(), actorcache.Entry{ID: 1, Username: "ana"}))

	out, err := run(t, c, "grant", "ana", "readings.list", "readings.edit")
	require.NoError(t, err)
	assert.Contains(t, out, "readings.edit")
	assert.False(t, mr.Exists("medicaodigitalx:actor:ana"))

	caps, err := c.backends.Users.Permissions(1)
	require.NoError(t, err)
	assert.True(t, caps.Has(model.CapReadingsEdit))

	_, err = run(t, c, "revoke", "ana", "readings.edit")
	require.NoError(t, err)
	caps, err = c.backends.Users.Permissions(1)
	require.NoError(t, err)
	assert.False(t, caps.Has(model.CapReadingsEdit))
	assert.True(t, caps.Has(model.CapReadingsList))

	_, err = run(t, c, "grant", "ana", "nope")
	assert.Error(t, err)
	_, err = run(t, c, "grant", "nobody", "readings.list")
	assert.Error(t, err)
}

func TestCapabilities(t *testing.T) {
	out, err := run(t, &cli{}, "capabilities")
	require.NoError(t, err)
	for _, cp := range model.AllCapabilities() {
		assert.Contains(t, out, string(cp))
	}
	assert.Contains(t, out, model.CapReadingsList.Label())
}

func TestReferences(t *testing.T) {
	c, _ := newTestCLI(t)
	ctx := context.Background()

	out, err := run(t, c, "complexes", "add", "Aurora", "--name", "Residencial Aurora")
	require.NoError(t, err)
	assert.Contains(t, out, "added complex Aurora")
	complexes, err := c.backends.Complexes.List(ctx)
	require.NoError(t, err)
	require.Len(t, complexes, 1)
	assert.Equal(t, "Residencial Aurora", complexes[0].Name)

	_, err = run(t, c, "dealerships", "add", "Cedae")
	require.NoError(t, err)
	_, err = run(t, c, "dealerships", "add", "Light", "--service", "Energia")
	require.NoError(t, err)
	water, err := c.backends.Dealerships.ListByService(ctx, "Água e Esgoto")
	require.NoError(t, err)
	require.Len(t, water, 1)
	assert.Equal(t, "Cedae", water[0].Name)
}
