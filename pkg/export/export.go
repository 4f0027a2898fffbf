package export

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"glowlink/pkg/order"
)

// SheetName is the worksheet holding one row per order.
const SheetName = "Orders"

var headers = []string{
	"ID", "Reference", "Created", "Kind", "Item", "Unit price", "Quantity", "Delivery",
	"Delivery fee", "Total", "Date", "Slot", "Name", "Phone", "Email", "Address", "Notes",
}

// Orders writes an xlsx workbook with a header row and one row per order.
func Orders(w io.Writer, orders []order.Order) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("error renaming sheet: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return err
		}
	}
	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(SheetName, "A1", last, style)
	}

	for r, o := range orders {
		row := []any{
			o.ID, o.Reference, o.CreatedAt.UTC().Format(time.RFC3339), o.Kind, o.ItemName,
			money(o.UnitPriceCents), o.Quantity, o.DeliveryMethod, money(o.DeliveryFeeCents), money(o.TotalCents),
			o.AppointmentDate, o.AppointmentSlot, o.Name, o.Phone, o.Email, o.Address, o.Notes,
		}
		start, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(SheetName, start, &row); err != nil {
			return fmt.Errorf("error writing order %d: %w", o.ID, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

// money converts cents to a float cell value.
func money(cents int64) float64 {
	return decimal.New(cents, -2).InexactFloat64()
}
