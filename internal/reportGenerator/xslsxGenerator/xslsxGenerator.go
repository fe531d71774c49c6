package xslsxGenerator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KotFed0t/nse_market_client/internal/model/nseModel"
	"github.com/KotFed0t/nse_market_client/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var columns = []string{
	"SYMBOL",
	"DATE",
	"SERIES",
	"OPEN",
	"HIGH",
	"LOW",
	"PREV_CLOSE",
	"LTP",
	"CLOSE",
	"VWAP",
	"52W_H",
	"52W_L",
	"VOLUME",
	"VALUE",
	"NO_OF_TRADES",
}

type XSLSXGenerator struct{}

func New() *XSLSXGenerator {
	return &XSLSXGenerator{}
}

// Generate renders a historical series into a single-sheet xlsx file named
// after the series' symbol.
func (g *XSLSXGenerator) Generate(ctx context.Context, rows []nseModel.HistoricalRow) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XSLSXGenerator.Generate"

	if len(rows) == 0 {
		return nil, "", errors.New("empty rows")
	}

	slog.Debug("Generate start", slog.String("rqID", rqID), slog.String("op", op))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	sheetName := rows[0].Symbol
	if _, err := f.NewSheet(sheetName); err != nil {
		slog.Error("got error while creating NewSheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	if err := g.fillSheet(f, sheetName, rows); err != nil {
		slog.Error("got error while filling sheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		slog.Error("got error while deleting Sheet1", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	slog.Debug("Generate completed", slog.String("rqID", rqID), slog.String("op", op))

	return buf.Bytes(), ".xlsx", nil
}

func (g *XSLSXGenerator) fillSheet(f *excelize.File, sheetName string, rows []nseModel.HistoricalRow) error {
	styleID, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{"#cfe2f3"},
		},
	})
	if err != nil {
		return err
	}

	for i, column := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		_ = f.SetCellStr(sheetName, cell, column)
		if err := f.SetCellStyle(sheetName, cell, cell, styleID); err != nil {
			return err
		}
	}

	for i, row := range rows {
		rowNum := i + 2
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", rowNum), row.Symbol)
		_ = f.SetCellStr(sheetName, fmt.Sprintf("B%d", rowNum), row.Date.Format(time.DateOnly))
		_ = f.SetCellStr(sheetName, fmt.Sprintf("C%d", rowNum), row.Series)

		cells := []struct {
			column string
			value  decimal.NullDecimal
		}{
			{"D", row.Open},
			{"E", row.High},
			{"F", row.Low},
			{"G", row.PrevClose},
			{"H", row.LTP},
			{"I", row.Close},
			{"J", row.VWAP},
			{"K", row.YearHigh},
			{"L", row.YearLow},
			{"M", row.Volume},
			{"N", row.Value},
			{"O", row.Trades},
		}

		for _, c := range cells {
			if !c.value.Valid {
				continue
			}
			_ = f.SetCellValue(sheetName, fmt.Sprintf("%s%d", c.column, rowNum), c.value.Decimal.InexactFloat64())
		}
	}

	return nil
}
