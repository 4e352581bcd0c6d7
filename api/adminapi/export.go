package adminapi

import (
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const (
	exportSheet    = "Leituras"
	mimeXLSX       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportFilename = "leituras.xlsx"
)

var exportHeader = []any{
	"ID",
	"Condomínio",
	"Concessionária",
	"Período",
	"Data da Leitura",
	"Leitura",
	"Valor",
}

// exportReadings writes the filtered readings list as a spreadsheet.
func (a *api) exportReadings(c *fiber.Ctx) error {
	req := parseGrid(c)
	req.Query.Offset = 0
	req.Query.Limit = 0
	res, err := a.readings.List(c.UserContext(), actorFrom(c), req.Query)
	if err != nil {
		return a.failure(c, err, msgLoadFailed, readingsPath, nil)
	}
	rows := make([]readingRow, len(res.Items))
	for i, item := range res.Items {
		rows[i] = newReadingRow(item)
	}
	data, err := readingsWorkbook(rows)
	if err != nil {
		log.WithError(err).Error("could not build readings export")
		return a.failure(c, err, msgLoadFailed, readingsPath, nil)
	}
	c.Attachment(exportFilename)
	c.Set(fiber.HeaderContentType, mimeXLSX)
	return c.Send(data)
}

func readingsWorkbook(rows []readingRow) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.WithError(err).Warn("could not close workbook")
		}
	}()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []any{
			r.ID,
			r.Complex,
			r.Dealership,
			r.Period,
			r.ReadingDate,
			r.MeterValue,
			r.Amount,
		}
		if err = f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return nil, err
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
