package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/brito101/medicaodigitalx/storage"
	"github.com/brito101/medicaodigitalx/storage/model"
)

type testEnv struct {
	db       *gorm.DB
	backends model.Backends
	complex  *model.Complex
	water    *model.Dealership
	power    *model.Dealership
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := storage.NewStorage(
		storage.Config{
			Driver: storage.DriverSQLite,
			DSN:    fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name),
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

	ctx := context.Background()
	env := &testEnv{
		db:       s.DB(),
		backends: s.Backends(),
	}
	env.complex, err = env.backends.Complexes.Create(ctx, model.AddComplex{AliasName: "Aurora", Name: "Residencial Aurora"})
	require.NoError(t, err)
	env.water, err = env.backends.Dealerships.Create(ctx, model.AddDealership{Name: "Cedae", Service: DefaultWaterService})
	require.NoError(t, err)
	env.power, err = env.backends.Dealerships.Create(ctx, model.AddDealership{Name: "Light", Service: "Energia"})
	require.NoError(t, err)
	return env
}

// user creates a user with the passed capabilities and returns it as Actor
func (e *testEnv) user(t *testing.T, username string, caps ...model.Capability) Actor {
	t.Helper()
	u, err := e.backends.Users.Create(username, "pw", strings.ToUpper(username[:1])+username[1:], username+"@example.org")
	require.NoError(t, err)
	return Actor{
		ID:          u.ID,
		Username:    u.Username,
		Permissions: model.NewCapabilitySet(caps...),
	}
}

func (e *testEnv) count(t *testing.T, m any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(m).Count(&n).Error)
	return n
}

func (e *testEnv) input() ReadingInput {
	return ReadingInput{
		ComplexID:    e.complex.ID,
		DealershipID: e.water.ID,
		Period:       "2024-03",
		ReadingDate:  "2024-03-10",
		MeterValue:   1520.5,
		Amount:       389.9,
	}
}

// seedReports adds n apartment reports with one notification each plus one
// notification keyed by the reading
func (e *testEnv) seedReports(t *testing.T, readingID uint, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		r := model.ApartmentReport{
			DealershipReadingID: readingID,
			ApartmentID:         uint(i + 1),
			Consumption:         12,
			Amount:              30,
		}
		require.NoError(t, e.db.Create(&r).Error)
		require.NoError(t, e.db.Create(&model.Notification{ApartmentReportID: &r.ID, Title: "report"}).Error)
	}
	require.NoError(t, e.db.Create(&model.Notification{DealershipReadingID: &readingID, Title: "reading"}).Error)
}

func failOn(t *testing.T, db *gorm.DB, op, table string) {
	t.Helper()
	fail := func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(fmt.Errorf("injected %s failure on %s", op, table))
		}
	}
	name := "test:fail_" + op + "_" + table
	var err error
	switch op {
	case "create":
		err = db.Callback().Create().Before("gorm:create").Register(name, fail)
	case "delete":
		err = db.Callback().Delete().Before("gorm:delete").Register(name, fail)
	default:
		t.Fatalf("unknown op %s", op)
	}
	require.NoError(t, err)
}
