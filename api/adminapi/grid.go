package adminapi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/structs"
	"github.com/gofiber/fiber/v2"

	"github.com/brito101/medicaodigitalx/storage/model"
)

const defaultGridLength = 10

// gridRequest is the server-side processing request of a DataTables grid.
type gridRequest struct {
	Draw  int
	Query model.ListQuery
}

// gridResponse is the server-side processing response of a DataTables grid.
type gridResponse struct {
	Draw            int              `json:"draw"`
	RecordsTotal    int64            `json:"recordsTotal"`
	RecordsFiltered int64            `json:"recordsFiltered"`
	Data            []map[string]any `json:"data"`
}

// isGridRequest reports whether the request is an ajax grid request rather
// than a page load.
func isGridRequest(c *fiber.Ctx) bool {
	return c.Get(fiber.HeaderXRequestedWith) == "XMLHttpRequest" || c.Query("draw") != ""
}

// parseGrid reads draw, start, length, search[value] and the first ordering
// of the DataTables protocol. The ordered column is named by
// columns[i][data].
func parseGrid(c *fiber.Ctx) gridRequest {
	req := gridRequest{
		Draw: c.QueryInt("draw"),
		Query: model.ListQuery{
			Search: strings.TrimSpace(c.Query("search[value]")),
			Offset: c.QueryInt("start"),
			Limit:  c.QueryInt("length", defaultGridLength),
		},
	}
	if req.Query.Offset < 0 {
		req.Query.Offset = 0
	}
	if col := c.Query("order[0][column]"); col != "" {
		if i, err := strconv.Atoi(col); err == nil {
			req.Query.OrderBy = c.Query(fmt.Sprintf("columns[%d][data]", i))
		}
		req.Query.OrderDesc = strings.EqualFold(c.Query("order[0][dir]"), "desc")
	}
	return req
}

// gridRows flattens rows into maps keyed by their json tags and numbers them
// with DT_RowIndex, counting from offset+1.
func gridRows[T any](rows []T, offset int) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i := range rows {
		s := structs.New(rows[i])
		s.TagName = "json"
		m := s.Map()
		m["DT_RowIndex"] = offset + i + 1
		out[i] = m
	}
	return out
}

func grid[T any](c *fiber.Ctx, req gridRequest, total, filtered int64, rows []T) error {
	return c.JSON(
		gridResponse{
			Draw:            req.Draw,
			RecordsTotal:    total,
			RecordsFiltered: filtered,
			Data:            gridRows(rows, req.Query.Offset),
		},
	)
}
