package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"tideland.dev/go/slices"

	"github.com/brito101/medicaodigitalx/storage/model"
)

const resourceReading = "dealership reading"

// ReadingDateLayout is the layout of ReadingInput.ReadingDate
const ReadingDateLayout = "2006-01-02"

var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ReadingInput is the submitted form of a dealership reading.
type ReadingInput struct {
	ComplexID    uint    `json:"complex_id" form:"complex_id"`
	DealershipID uint    `json:"dealership_id" form:"dealership_id"`
	Period       string  `json:"period" form:"period"`
	ReadingDate  string  `json:"reading_date" form:"reading_date"`
	MeterValue   float64 `json:"meter_value" form:"meter_value"`
	Amount       float64 `json:"amount" form:"amount"`
	Notes        string  `json:"notes" form:"notes"`
	// Version is the version the client edited; zero skips the check
	Version uint `json:"version,omitempty" form:"version"`
}

func (in ReadingInput) validate() (time.Time, error) {
	fields := map[string]string{}
	if !periodPattern.MatchString(strings.TrimSpace(in.Period)) {
		fields["period"] = "must have the form YYYY-MM"
	}
	date, err := time.Parse(ReadingDateLayout, strings.TrimSpace(in.ReadingDate))
	if err != nil {
		fields["reading_date"] = "must have the form YYYY-MM-DD"
	}
	if in.MeterValue < 0 {
		fields["meter_value"] = "must not be negative"
	}
	if in.Amount < 0 {
		fields["amount"] = "must not be negative"
	}
	if len(fields) > 0 {
		return time.Time{}, InvalidInputError{Fields: fields}
	}
	return date, nil
}

// FormOptions are the choices offered by the reading create and edit forms.
type FormOptions struct {
	Complexes   []model.Complex    `json:"complexes"`
	Dealerships []model.Dealership `json:"dealerships"`
}

// EditView is everything the reading edit page shows.
type EditView struct {
	Reading *model.DealershipReading `json:"reading"`
	Reports []model.ApartmentReport  `json:"reports"`
	FormOptions
}

// ReadingService mediates all access to dealership readings.
type ReadingService struct {
	readings    model.DealershipReadingsStore
	complexes   model.ComplexesStore
	dealerships model.DealershipsStore
	opts        Options
}

// NewReadingService creates a ReadingService over the passed backends
func NewReadingService(backends model.Backends, opts Options) *ReadingService {
	return &ReadingService{
		readings:    backends.Readings,
		complexes:   backends.Complexes,
		dealerships: backends.Dealerships,
		opts:        opts.withDefaults(),
	}
}

func (s *ReadingService) authorize(ctx context.Context, actor Actor, c model.Capability) error {
	if !s.opts.Authorizer.Allowed(ctx, actor, c) {
		return UnauthorizedError{Capability: c}
	}
	return nil
}

// List returns a page of readings
func (s *ReadingService) List(ctx context.Context, actor Actor, q model.ListQuery) (
	*model.ListResult[model.DealershipReading], error,
) {
	if err := s.authorize(ctx, actor, model.CapReadingsList); err != nil {
		return nil, err
	}
	res, err := s.readings.List(ctx, q)
	if err != nil {
		return nil, PersistenceError{
			Op:  "list dealership readings",
			Err: err,
		}
	}
	return &res, nil
}

// CreateForm returns the choices of the create form
func (s *ReadingService) CreateForm(ctx context.Context, actor Actor) (*FormOptions, error) {
	if err := s.authorize(ctx, actor, model.CapReadingsCreate); err != nil {
		return nil, err
	}
	return s.formOptions(ctx)
}

func (s *ReadingService) formOptions(ctx context.Context) (*FormOptions, error) {
	complexes, err := s.complexes.List(ctx)
	if err != nil {
		return nil, PersistenceError{
			Op:  "list complexes",
			Err: err,
		}
	}
	dealerships, err := s.dealerships.ListByService(ctx, s.opts.WaterService)
	if err != nil {
		return nil, PersistenceError{
			Op:  "list dealerships",
			Err: err,
		}
	}
	return &FormOptions{
		Complexes:   complexes,
		Dealerships: dealerships,
	}, nil
}

// checkReferences fails with an InvalidReferenceError if the complex or the
// dealership of the input does not exist
func (s *ReadingService) checkReferences(ctx context.Context, in ReadingInput) error {
	ok, err := s.complexes.Exists(ctx, in.ComplexID)
	if err != nil {
		return PersistenceError{
			Op:  "look up complex",
			Err: err,
		}
	}
	if !ok {
		return InvalidReferenceError{
			Field: "complex_id",
			IDs:   []uint{in.ComplexID},
		}
	}
	ok, err = s.dealerships.Exists(ctx, in.DealershipID)
	if err != nil {
		return PersistenceError{
			Op:  "look up dealership",
			Err: err,
		}
	}
	if !ok {
		return InvalidReferenceError{
			Field: "dealership_id",
			IDs:   []uint{in.DealershipID},
		}
	}
	return nil
}

// Create stores a new reading stamped with the actor as editor
func (s *ReadingService) Create(ctx context.Context, actor Actor, in ReadingInput) (*model.DealershipReading, error) {
	if err := s.authorize(ctx, actor, model.CapReadingsCreate); err != nil {
		return nil, err
	}
	date, err := in.validate()
	if err != nil {
		return nil, err
	}
	if err = s.checkReferences(ctx, in); err != nil {
		return nil, err
	}
	reading := &model.DealershipReading{
		ComplexID:    in.ComplexID,
		DealershipID: in.DealershipID,
		Period:       strings.TrimSpace(in.Period),
		ReadingDate:  date,
		MeterValue:   in.MeterValue,
		Amount:       in.Amount,
		Notes:        in.Notes,
		Editor:       actor.ID,
	}
	if err = s.readings.Create(ctx, reading); err != nil {
		log.WithError(err).WithField("actor", actor.Username).Error("failed to create dealership reading")
		return nil, PersistenceError{
			Op:  "create dealership reading",
			Err: err,
		}
	}
	log.WithFields(
		log.Fields{
			"actor": actor.Username,
			"id":    reading.ID,
		},
	).Info("created dealership reading")
	return reading, nil
}

// Edit returns the reading with its reports and the form choices
func (s *ReadingService) Edit(ctx context.Context, actor Actor, id uint) (*EditView, error) {
	if err := s.authorize(ctx, actor, model.CapReadingsEdit); err != nil {
		return nil, err
	}
	reading, err := s.readings.Get(ctx, id)
	if err != nil {
		return nil, translate(err, "load dealership reading", resourceReading, id)
	}
	reports, err := s.readings.Reports(ctx, id, model.ListQuery{OrderBy: "apartment_id"})
	if err != nil {
		return nil, translate(err, "load apartment reports", resourceReading, id)
	}
	opts, err := s.formOptions(ctx)
	if err != nil {
		return nil, err
	}
	return &EditView{
		Reading:     reading,
		Reports:     reports.Items,
		FormOptions: *opts,
	}, nil
}

// Reports returns a page of the reading's apartment reports
func (s *ReadingService) Reports(ctx context.Context, actor Actor, id uint, q model.ListQuery) (
	*model.ListResult[model.ApartmentReport], error,
) {
	if err := s.authorize(ctx, actor, model.CapReadingsEdit); err != nil {
		return nil, err
	}
	if _, err := s.readings.Get(ctx, id); err != nil {
		return nil, translate(err, "load dealership reading", resourceReading, id)
	}
	res, err := s.readings.Reports(ctx, id, q)
	if err != nil {
		return nil, translate(err, "list apartment reports", resourceReading, id)
	}
	return &res, nil
}

// Update overwrites the reading with the input and re-stamps the editor
func (s *ReadingService) Update(ctx context.Context, actor Actor, id uint, in ReadingInput) (
	*model.DealershipReading, error,
) {
	if err := s.authorize(ctx, actor, model.CapReadingsEdit); err != nil {
		return nil, err
	}
	reading, err := s.readings.Get(ctx, id)
	if err != nil {
		return nil, translate(err, "load dealership reading", resourceReading, id)
	}
	date, err := in.validate()
	if err != nil {
		return nil, err
	}
	if err = s.checkReferences(ctx, in); err != nil {
		return nil, err
	}
	expected := reading.Version
	if in.Version != 0 {
		expected = in.Version
	}
	reading.ComplexID = in.ComplexID
	reading.DealershipID = in.DealershipID
	reading.Period = strings.TrimSpace(in.Period)
	reading.ReadingDate = date
	reading.MeterValue = in.MeterValue
	reading.Amount = in.Amount
	reading.Notes = in.Notes
	reading.Editor = actor.ID
	if err = s.readings.Update(ctx, reading, expected); err != nil {
		log.WithError(err).WithFields(
			log.Fields{
				"actor": actor.Username,
				"id":    id,
			},
		).Warn("failed to update dealership reading")
		return nil, translate(err, "update dealership reading", resourceReading, id)
	}
	log.WithFields(
		log.Fields{
			"actor":   actor.Username,
			"id":      id,
			"version": reading.Version,
		},
	).Info("updated dealership reading")
	updated, err := s.readings.Get(ctx, id)
	if err != nil {
		return nil, translate(err, "load dealership reading", resourceReading, id)
	}
	return updated, nil
}

// Destroy deletes the reading with its reports and notifications
func (s *ReadingService) Destroy(ctx context.Context, actor Actor, id uint) (*model.DeleteResult, error) {
	if err := s.authorize(ctx, actor, model.CapReadingsDelete); err != nil {
		return nil, err
	}
	if _, err := s.readings.Get(ctx, id); err != nil {
		return nil, translate(err, "load dealership reading", resourceReading, id)
	}
	removed, err := s.readings.Delete(ctx, id, s.opts.Cascade)
	if err != nil {
		log.WithError(err).WithFields(
			log.Fields{
				"actor": actor.Username,
				"id":    id,
			},
		).Error("failed to delete dealership reading")
		return nil, translate(err, "delete dealership reading", resourceReading, id)
	}
	log.WithFields(
		log.Fields{
			"actor":      actor.Username,
			"id":         id,
			"dependents": removed.Dependents,
		},
	).Info("deleted dealership reading")
	return &removed, nil
}

// BatchDelete deletes several readings following the configured batch
// policy. In atomic mode the first failure is returned and nothing is
// deleted; in best effort mode failures are reported per id in the result.
func (s *ReadingService) BatchDelete(ctx context.Context, actor Actor, ids []uint) (*model.BatchResult, error) {
	if err := s.authorize(ctx, actor, model.CapReadingsDelete); err != nil {
		return nil, err
	}
	ids = slices.Unique(ids)
	if len(ids) == 0 {
		return nil, NoSelectionError{}
	}
	res, err := s.readings.DeleteBatch(ctx, ids, s.opts.Cascade, s.opts.Batch)
	if err != nil {
		var item model.BatchItemError
		if errors.As(err, &item) {
			err = translate(item.Err, "delete dealership reading", resourceReading, item.ID)
		} else {
			err = PersistenceError{
				Op:  "delete dealership readings",
				Err: err,
			}
		}
		log.WithError(err).WithField("actor", actor.Username).Warn("batch delete of dealership readings failed")
		return nil, err
	}
	for i, f := range res.Failed {
		res.Failed[i].Err = translate(f.Err, "delete dealership reading", resourceReading, f.ID)
	}
	log.WithFields(
		log.Fields{
			"actor":   actor.Username,
			"deleted": len(res.Deleted),
			"failed":  len(res.Failed),
			"policy":  res.Policy,
		},
	).Info("batch deleted dealership readings")
	return &res, nil
}
