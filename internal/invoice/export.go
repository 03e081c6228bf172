package invoice

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// exportColumns is the fixed column order of the exported spreadsheet
var exportColumns = []interface{}{
	"Line #",
	"Quantity Ordered",
	"Part ID",
	"Description",
	"Net Unit Price",
	"Net Extended Price",
}

// exportSheet is the worksheet the items are written to
const exportSheet = "Sheet1"

// ExportXLSX serializes the invoice's items into an XLSX workbook
func ExportXLSX(inv *Invoice) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow(exportSheet, "A1", &exportColumns); err != nil {
		return nil, fmt.Errorf("writing header row: %w", err)
	}

	for i, item := range inv.Items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("computing cell for row %d: %w", i+2, err)
		}
		row := []interface{}{
			item.LineNumber,
			item.QuantityOrdered,
			item.PartID,
			item.Description,
			item.NetUnitPrice,
			item.NetExtendedPrice,
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serializing workbook: %w", err)
	}
	return buf.Bytes(), nil
}
