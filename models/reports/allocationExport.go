package reports

import (
	"fmt"
	"io"

	"github.com/mmdatafocus/books_valuation/engine"
	"github.com/mmdatafocus/books_valuation/models"
	"github.com/xuri/excelize/v2"
)

const allocationSheet = "Allocation"

type ExcelExporter interface {
	GetCellValues() []interface{}
}

type AllocationRow struct {
	Invoice   models.OutstandingInvoice
	Applied   models.InvoiceAllocation
	IsApplied bool
}

func (r AllocationRow) GetCellValues() []interface{} {
	mode := ""
	if r.IsApplied {
		mode = string(r.Applied.Mode)
	}
	return []interface{}{
		r.Invoice.InvoiceNumber,
		r.Invoice.IssueDate.Format("2006-01-02"),
		r.Invoice.BalanceDue.InexactFloat64(),
		r.Applied.AmountApplied.InexactFloat64(),
		mode,
		r.Invoice.BalanceDue.Sub(r.Applied.AmountApplied).InexactFloat64(),
	}
}

var allocationHeadings = []string{"Invoice", "Issue Date", "Balance Due", "Amount Applied", "Mode", "Balance After"}

// AllocationRows lists every eligible invoice in allocation order, applied or not.
func AllocationRows(invoices []models.OutstandingInvoice, allocation models.PaymentAllocation) []AllocationRow {
	applied := make(map[int]models.InvoiceAllocation, len(allocation.Allocations))
	for _, row := range allocation.Allocations {
		applied[row.InvoiceId] = row
	}
	ordered := engine.OrderForAllocation(invoices)
	rows := make([]AllocationRow, 0, len(ordered))
	for _, inv := range ordered {
		row, ok := applied[inv.InvoiceId]
		rows = append(rows, AllocationRow{Invoice: inv, Applied: row, IsApplied: ok})
	}
	return rows
}

// BuildAllocationExcel writes one row per invoice followed by the received and excess totals.
func BuildAllocationExcel(invoices []models.OutstandingInvoice, allocation models.PaymentAllocation) (*excelize.File, error) {
	rows := AllocationRows(invoices, allocation)
	data := make([]ExcelExporter, 0, len(rows))
	for _, r := range rows {
		data = append(data, r)
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", allocationSheet); err != nil {
		return nil, err
	}
	rowNo, err := writeSheet(f, allocationSheet, data, allocationHeadings...)
	if err != nil {
		return nil, err
	}

	summary := [][]interface{}{
		{"Total Received", allocation.TotalReceived.InexactFloat64()},
		{"Total Applied", allocation.TotalApplied().InexactFloat64()},
		{"Excess", allocation.ExcessAmount.InexactFloat64()},
	}
	for _, line := range summary {
		rowNo++
		if err := f.SetCellValue(allocationSheet, fmt.Sprintf("A%d", rowNo), line[0]); err != nil {
			return nil, err
		}
		if err := f.SetCellValue(allocationSheet, fmt.Sprintf("D%d", rowNo), line[1]); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func WriteAllocationExcel(w io.Writer, invoices []models.OutstandingInvoice, allocation models.PaymentAllocation) error {
	f, err := BuildAllocationExcel(invoices, allocation)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// writeSheet puts headings on row 1 and data from row 2. It returns the last row written.
func writeSheet(f *excelize.File, sheetName string, data []ExcelExporter, headings ...string) (int, error) {
	for i, h := range headings {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return 0, err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return 0, err
		}
	}
	rowNo := 1
	for _, d := range data {
		rowNo++
		for i, value := range d.GetCellValues() {
			cell, err := excelize.CoordinatesToCellName(i+1, rowNo)
			if err != nil {
				return 0, err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return 0, err
			}
		}
	}
	return rowNo, nil
}
