package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	resultsSheet = "Resultados"
	summarySheet = "Resumen"
)

// Excel writes a workbook with a per-criterion sheet and a summary sheet.
func Excel(rep Report) ([]byte, error) {
	b, err := excel(rep)
	if err != nil {
		return nil, &ExportError{Format: FormatExcel, Err: err}
	}
	return b, nil
}

func excel(rep Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	header := []any{"Criterio", "Clave", "Puntaje (0-4)", "Peso (%)", "Aporte (%)", "Comentario"}
	if err := f.SetSheetRow(resultsSheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, c := range rep.Result.Contributions {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{
			c.Label,
			c.CriterionID,
			c.Score,
			rep.weightPercent(c.Weight).InexactFloat64(),
			c.Points.Truncate(2).InexactFloat64(),
			rep.Sheet.Comments[c.CriterionID],
		}
		if err := f.SetSheetRow(resultsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("row %s: %w", c.CriterionID, err)
		}
	}
	if err := f.SetRowStyle(resultsSheet, 1, 1, bold); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(resultsSheet, "A", "A", 42); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(resultsSheet, "F", "F", 60); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	summaryHeader := []any{"Documento", "Fecha", "Total bruto", "Total (%)", "Dictamen", "Comentario general"}
	summary := []any{
		rep.Document.Filename,
		rep.date(),
		fmt.Sprintf("%d/%d", rep.Result.RawTotal, rep.Result.MaxRawTotal),
		rep.Result.Percentage.Truncate(2).InexactFloat64(),
		rep.Result.Verdict.Upper(),
		rep.Sheet.GeneralComment,
	}
	if err := f.SetSheetRow(summarySheet, "A1", &summaryHeader); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(summarySheet, "A2", &summary); err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(summarySheet, 1, 1, bold); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
