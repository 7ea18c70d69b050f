// Package report renders a field's operation ledger as XLSX or PDF.
package report

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"field-service/internal/analytics"
	"field-service/internal/model"
)

const (
	operationsSheet = "Операции"
	structureSheet  = "Структура затрат"
)

var operationColumns = []string{"Дата", "Тип работ", "Категория", "Затраты, ₽", "Примечание"}

// WriteLedgerXLSX writes a workbook with the operations of one field and the
// cost structure derived from them.
func WriteLedgerXLSX(w io.Writer, field *model.Field, ops []model.FieldOperation, costs analytics.CostSummary) error {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", operationsSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	setRow(file, operationsSheet, 1, operationColumns)
	file.SetCellStyle(operationsSheet, "A1", cellName(len(operationColumns), 1), headerStyle)

	for i, op := range ops {
		row := i + 2
		values := []interface{}{
			op.Day().Format(model.DateLayout),
			op.Type,
			analytics.Classify(op.Type).Label(),
			nil,
			op.Notes,
		}
		if op.Cost != nil {
			values[3] = *op.Cost
		}
		setRow(file, operationsSheet, row, values)
	}
	file.SetColWidth(operationsSheet, "A", "A", 12)
	file.SetColWidth(operationsSheet, "B", "C", 24)
	file.SetColWidth(operationsSheet, "E", "E", 40)

	if _, err := file.NewSheet(structureSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	summaryRows := [][]interface{}{
		{"Поле", field.Name},
		{"Культура", field.CurrentCrop},
		{"Площадь, га", field.Area},
		{"Общие затраты, ₽", costs.TotalCost},
		{"Затраты на гектар, ₽/га", round1(costs.CostPerHectare)},
		{},
		{"Категория", "Затраты, ₽", "Доля, %", "Операций"},
	}
	for i, values := range summaryRows {
		setRow(file, structureSheet, i+1, values)
	}
	headerRow := len(summaryRows)
	file.SetCellStyle(structureSheet, cellName(1, headerRow), cellName(4, headerRow), headerStyle)

	for i, bucket := range costs.Buckets {
		setRow(file, structureSheet, headerRow+1+i, []interface{}{
			bucket.Label,
			bucket.Cost,
			round1(bucket.Percentage),
			bucket.Operations,
		})
	}
	file.SetColWidth(structureSheet, "A", "A", 28)

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow[T any](file *excelize.File, sheet string, row int, values []T) {
	for col, v := range values {
		file.SetCellValue(sheet, cellName(col+1, row), v)
	}
}

func cellName(col, row int) string {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	return cell
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
