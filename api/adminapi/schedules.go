package adminapi

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/brito101/medicaodigitalx/service"
	"github.com/brito101/medicaodigitalx/storage/model"
)

const schedulesPath = "/admin/reading-schedule"

type scheduleRow struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Color     string `json:"color"`
	Creator   string `json:"creator"`
	Guests    int    `json:"guests"`
	CanManage bool   `json:"can_manage"`
}

func newScheduleRow(s model.ReadingSchedule, actor service.Actor) scheduleRow {
	row := scheduleRow{
		ID:        s.ID,
		Title:     s.Title,
		Start:     s.Start.Format(time.RFC3339),
		End:       s.End.Format(time.RFC3339),
		Color:     s.Color,
		Guests:    len(s.Guests),
		CanManage: s.UserID == actor.ID,
	}
	if s.User != nil {
		row.Creator = s.User.Name()
	}
	return row
}

func registerSchedules(r fiber.Router, a *api) {
	g := r.Group("/reading-schedule")

	g.Get(
		"/", func(c *fiber.Ctx) error {
			actor := actorFrom(c)
			req := parseGrid(c)
			if !isGridRequest(c) {
				req.Query.Limit = 0
			}
			res, err := a.schedules.List(c.UserContext(), actor, req.Query)
			if err != nil {
				return a.failure(c, err, msgLoadFailed, "", nil)
			}
			rows := make([]scheduleRow, len(res.Items))
			for i, item := range res.Items {
				rows[i] = newScheduleRow(item, actor)
			}
			if isGridRequest(c) {
				return grid(c, req, res.Total, res.Filtered, rows)
			}
			return page(
				c, "admin.reading-schedule.index", fiber.Map{
					"schedules": rows,
				},
			)
		},
	)

	g.Get(
		"/create", func(c *fiber.Ctx) error {
			candidates, err := a.schedules.CreateForm(c.UserContext(), actorFrom(c))
			if err != nil {
				return a.failure(c, err, msgLoadFailed, "", nil)
			}
			return page(
				c, "admin.reading-schedule.create", fiber.Map{
					"candidates": candidates,
				},
			)
		},
	)

	g.Post(
		"/", func(c *fiber.Ctx) error {
			var in service.ScheduleInput
			if err := c.BodyParser(&in); err != nil {
				return badBody(c)
			}
			schedule, err := a.schedules.Create(c.UserContext(), actorFrom(c), in)
			if err != nil {
				return a.failure(c, err, msgCreateFailed, schedulesPath+"/create", in)
			}
			return success(c, fiber.StatusCreated, msgCreated, schedulesPath, schedule)
		},
	)

	g.Get(
		"/:id", func(c *fiber.Ctx) error {
			id, err := idParam(c)
			if err != nil {
				return a.failure(c, err, msgLoadFailed, schedulesPath, nil)
			}
			view, err := a.schedules.Show(c.UserContext(), actorFrom(c), id)
			if err != nil {
				return a.failure(c, err, msgLoadFailed, schedulesPath, nil)
			}
			return page(c, "admin.reading-schedule.show", view)
		},
	)

	g.Get(
		"/:id/edit", func(c *fiber.Ctx) error {
			id, err := idParam(c)
			if err != nil {
				return a.failure(c, err, msgLoadFailed, schedulesPath, nil)
			}
			view, err := a.schedules.Edit(c.UserContext(), actorFrom(c), id)
			if err != nil {
				return a.failure(c, err, msgLoadFailed, schedulesPath, nil)
			}
			return page(c, "admin.reading-schedule.edit", view)
		},
	)

	g.Put(
		"/:id", func(c *fiber.Ctx) error {
			id, err := idParam(c)
			if err != nil {
				return a.failure(c, err, msgUpdateFailed, schedulesPath, nil)
			}
			var in service.ScheduleInput
			if err = c.BodyParser(&in); err != nil {
				return badBody(c)
			}
			schedule, err := a.schedules.Update(c.UserContext(), actorFrom(c), id, in)
			if err != nil {
				return a.failure(c, err, msgUpdateFailed, fmt.Sprintf("%s/%d/edit", schedulesPath, id), in)
			}
			return success(c, fiber.StatusOK, msgUpdated, schedulesPath, schedule)
		},
	)

	g.Delete(
		"/:id", func(c *fiber.Ctx) error {
			id, err := idParam(c)
			if err != nil {
				return a.failure(c, err, msgDeleteFailed, schedulesPath, nil)
			}
			removed, err := a.schedules.Destroy(c.UserContext(), actorFrom(c), id)
			if err != nil {
				return a.failure(c, err, msgDeleteFailed, schedulesPath, nil)
			}
			return success(c, fiber.StatusOK, msgDeleted, schedulesPath, removed)
		},
	)

	g.Post(
		"/:id/acknowledge", func(c *fiber.Ctx) error {
			id, err := idParam(c)
			if err != nil {
				return a.failure(c, err, msgUpdateFailed, schedulesPath, nil)
			}
			guest, err := a.schedules.Acknowledge(c.UserContext(), actorFrom(c), id)
			if err != nil {
				return a.failure(c, err, msgUpdateFailed, schedulesPath, nil)
			}
			return success(c, fiber.StatusOK, msgUpdated, fmt.Sprintf("%s/%d", schedulesPath, id), guest)
		},
	)

	g.Post(
		"/:id/execute", func(c *fiber.Ctx) error {
			id, err := idParam(c)
			if err != nil {
				return a.failure(c, err, msgUpdateFailed, schedulesPath, nil)
			}
			guest, err := a.schedules.Execute(c.UserContext(), actorFrom(c), id)
			if err != nil {
				return a.failure(c, err, msgUpdateFailed, schedulesPath, nil)
			}
			return success(c, fiber.StatusOK, msgUpdated, fmt.Sprintf("%s/%d", schedulesPath, id), guest)
		},
	)
}
