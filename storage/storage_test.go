package storage

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brito101/medicaodigitalx/storage/model"
)

// newTestStorage returns a Storage over a fresh in-memory sqlite database
func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := Connect(
		Config{
			Driver: DriverSQLite,
			DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		},
	)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	s, err := newStorage(
		db, Argon2idParams{
			Time:        1,
			MemoryKiB:   1024,
			Parallelism: 1,
			KeyLen:      16,
			SaltLen:     8,
		},
	)
	require.NoError(t, err)
	return s
}

type readingFixture struct {
	complex    *model.Complex
	dealership *model.Dealership
}

func newReadingFixture(t *testing.T, s *Storage) readingFixture {
	t.Helper()
	ctx := context.Background()
	c, err := s.ComplexesStorage().Create(ctx, model.AddComplex{AliasName: "Residencial Aurora", Name: "Condomínio Aurora"})
	require.NoError(t, err)
	d, err := s.DealershipsStorage().Create(ctx, model.AddDealership{Name: "Cedae", Service: "Água e Esgoto"})
	require.NoError(t, err)
	return readingFixture{complex: c, dealership: d}
}

func (f readingFixture) reading(period string) *model.DealershipReading {
	return &model.DealershipReading{
		ComplexID:    f.complex.ID,
		DealershipID: f.dealership.ID,
		Period:       period,
		ReadingDate:  time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		MeterValue:   1200,
		Amount:       310.5,
		Editor:       1,
	}
}

// seedReading stores a reading with the passed number of reports, each
// with one notification, and one notification keyed by the reading itself
func seedReading(t *testing.T, s *Storage, f readingFixture, period string, reports int) *model.DealershipReading {
	t.Helper()
	r := f.reading(period)
	require.NoError(t, s.ReadingsStorage().Create(context.Background(), r))
	for i := 0; i < reports; i++ {
		report := model.ApartmentReport{
			DealershipReadingID: r.ID,
			ApartmentID:         uint(101 + i),
			Consumption:         float64(10 + i),
			Amount:              25,
		}
		require.NoError(t, s.db.Create(&report).Error)
		require.NoError(
			t, s.db.Create(
				&model.Notification{
					UserID:            1,
					ApartmentReportID: &report.ID,
					Title:             "report",
				},
			).Error,
		)
	}
	require.NoError(
		t, s.db.Create(
			&model.Notification{
				UserID:              1,
				DealershipReadingID: &r.ID,
				Title:               "reading",
			},
		).Error,
	)
	return r
}

func countRows(t *testing.T, s *Storage, m any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.db.Model(m).Count(&n).Error)
	return n
}
