package adminapi

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/brito101/medicaodigitalx/service"
	"github.com/brito101/medicaodigitalx/storage/model"
)

const readingsPath = "/admin/dealerships-readings"

// readingRow is one row of the readings grid.
type readingRow struct {
	ID          uint    `json:"id"`
	Complex     string  `json:"complex"`
	Dealership  string  `json:"dealership"`
	Period      string  `json:"period"`
	ReadingDate string  `json:"reading_date"`
	MeterValue  float64 `json:"meter_value"`
	Amount      float64 `json:"amount"`
	Version     uint    `json:"version"`
}

func newReadingRow(r model.DealershipReading) readingRow {
	row := readingRow{
		ID:          r.ID,
		Period:      r.Period,
		ReadingDate: r.ReadingDate.Format(service.ReadingDateLayout),
		MeterValue:  r.MeterValue,
		Amount:      r.Amount,
		Version:     r.Version,
	}
	if r.Complex != nil {
		row.Complex = r.Complex.AliasName
	}
	if r.Dealership != nil {
		row.Dealership = r.Dealership.Name
	}
	return row
}

// reportRow is one row of the apartment reports grid.
type reportRow struct {
	ID          uint    `json:"id"`
	ApartmentID uint    `json:"apartment_id"`
	Consumption float64 `json:"consumption"`
	Amount      float64 `json:"amount"`
}

type batchFailure struct {
	ID    uint   `json:"id"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

type batchOutcome struct {
	*model.BatchResult
	Failures []batchFailure `json:"failures,omitempty"`
}

func registerReadings(r fiber.Router, a *api) {
	g := r.Group("/dealerships-readings")

	g.Get(
		"/", func(c *fiber.Ctx) error {
			req := parseGrid(c)
			if !isGridRequest(c) {
				req.Query.Limit = 0
			}
			res, err := a.readings.List(c.UserContext(), actorFrom(c), req.Query)
			if err != nil {
				return a.failure(c, err, msgLoadFailed, "", nil)
			}
			rows := make([]readingRow, len(res.Items))
			for i, item := range res.Items {
				rows[i] = newReadingRow(item)
			}
			if isGridRequest(c) {
				return grid(c, req, res.Total, res.Filtered, rows)
			}
			return page(
				c, "admin.dealerships-readings.index", fiber.Map{
					"readings": rows,
				},
			)
		},
	)

	g.Get(
		"/create", func(c *fiber.Ctx) error {
			opts, err := a.readings.CreateForm(c.UserContext(), actorFrom(c))
			if err != nil {
				return a.failure(c, err, msgLoadFailed, "", nil)
			}
			return page(c, "admin.dealerships-readings.create", opts)
		},
	)

	g.Get("/export", a.exportReadings)

	g.Post(
		"/", func(c *fiber.Ctx) error {
			var in service.ReadingInput
			if err := c.BodyParser(&in); err != nil {
				return badBody(c)
			}
			reading, err := a.readings.Create(c.UserContext(), actorFrom(c), in)
			if err != nil {
				return a.failure(c, err, msgCreateFailed, readingsPath+"/create", in)
			}
			return success(c, fiber.StatusCreated, msgCreated, readingsPath, reading)
		},
	)

	g.Post(
		"/batch-delete", func(c *fiber.Ctx) error {
			ids, err := parseIDs(c)
			if err != nil {
				return a.failure(c, err, msgDeleteFailed, readingsPath, nil)
			}
			res, err := a.readings.BatchDelete(c.UserContext(), actorFrom(c), ids)
			if err != nil {
				return a.failure(c, err, msgDeleteFailed, readingsPath, nil)
			}
			out := batchOutcome{BatchResult: res}
			for _, f := range res.Failed {
				out.Failures = append(
					out.Failures, batchFailure{
						ID:    f.ID,
						Kind:  service.Kind(f.Err),
						Error: f.Err.Error(),
					},
				)
			}
			return success(c, fiber.StatusOK, msgBatchDeleted, readingsPath, out)
		},
	)

	g.Get(
		"/:id/edit", func(c *fiber.Ctx) error {
			id, err := idParam(c)
			if err != nil {
				return a.failure(c, err, msgLoadFailed, readingsPath, nil)
			}
			if isGridRequest(c) {
				req := parseGrid(c)
				res, err := a.readings.Reports(c.UserContext(), actorFrom(c), id, req.Query)
				if err != nil {
					return a.failure(c, err, msgLoadFailed, readingsPath, nil)
				}
				rows := make([]reportRow, len(res.Items))
				for i, item := range res.Items {
					rows[i] = reportRow{
						ID:          item.ID,
						ApartmentID: item.ApartmentID,
						Consumption: item.Consumption,
						Amount:      item.Amount,
					}
				}
				return grid(c, req, res.Total, res.Filtered, rows)
			}
			view, err := a.readings.Edit(c.UserContext(), actorFrom(c), id)
			if err != nil {
				return a.failure(c, err, msgLoadFailed, readingsPath, nil)
			}
			return page(c, "admin.dealerships-readings.edit", view)
		},
	)

	g.Put(
		"/:id", func(c *fiber.Ctx) error {
			id, err := idParam(c)
			if err != nil {
				return a.failure(c, err, msgLoadFailed, readingsPath, nil)
			}
			var in service.ReadingInput
			if err = c.BodyParser(&in); err != nil {
				return badBody(c)
			}
			reading, err := a.readings.Update(c.UserContext(), actorFrom(c), id, in)
			if err != nil {
				return a.failure(c, err, msgUpdateFailed, fmt.Sprintf("%s/%d/edit", readingsPath, id), in)
			}
			return success(c, fiber.StatusOK, msgUpdated, readingsPath, reading)
		},
	)

	g.Delete(
		"/:id", func(c *fiber.Ctx) error {
			id, err := idParam(c)
			if err != nil {
				return a.failure(c, err, msgDeleteFailed, readingsPath, nil)
			}
			removed, err := a.readings.Destroy(c.UserContext(), actorFrom(c), id)
			if err != nil {
				return a.failure(c, err, msgDeleteFailed, readingsPath, nil)
			}
			return success(c, fiber.StatusOK, msgDeleted, readingsPath, removed)
		},
	)
}

// idParam parses the :id route parameter; ids that are not positive numbers
// address no record.
func idParam(c *fiber.Ctx) (uint, error) {
	raw := c.Params("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, service.NotFoundError{Resource: "record"}
	}
	return uint(id), nil
}

// parseIDs reads the ids of a batch request. They are accepted as a JSON
// array or as a comma separated string, in a JSON or a form body.
func parseIDs(c *fiber.Ctx) ([]uint, error) {
	var raw string
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		var body struct {
			IDs json.RawMessage `json:"ids"`
		}
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return nil, service.InvalidInputError{Fields: map[string]string{"ids": "invalid body"}}
		}
		var list []uint
		if err := json.Unmarshal(body.IDs, &list); err == nil {
			return list, nil
		}
		if err := json.Unmarshal(body.IDs, &raw); err != nil && len(body.IDs) > 0 {
			return nil, service.InvalidInputError{Fields: map[string]string{"ids": "must be a list of ids"}}
		}
	} else {
		raw = c.FormValue("ids")
	}
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, service.InvalidInputError{Fields: map[string]string{"ids": "must be a list of ids"}}
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(
		Outcome{
			Status:  statusError,
			Message: msgBadRequest,
		},
	)
}
