package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/payplan/internal/model"
)

// Load reads an allocation set from a .xlsx or .csv file.
func Load(path string, cols ColumnMap) (model.AllocationSet, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(path, cols.Sheet)
	case ".csv":
		rows, err = readCSV(path)
	default:
		return model.AllocationSet{}, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
	if err != nil {
		return model.AllocationSet{}, err
	}

	set, err := ParseRows(rows, cols)
	if err != nil {
		return model.AllocationSet{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return set, nil
}

func readXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%s: workbook has no sheets", filepath.Base(path))
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return parseCSV(f)
}

func parseCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

// Export writes set to path as .xlsx or .csv. For workbooks the sheet is
// named after label.
func Export(path, label string, set model.AllocationSet, cols ColumnMap) error {
	header, rows := table(set, cols)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return writeXLSX(path, sheetName(label), header, rows)
	case ".csv":
		return writeCSV(path, header, rows)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
}

func names(cols ColumnMap) (id, liability, amount string) {
	id, liability, amount = cols.ID, cols.Liability, cols.Amount
	if id == "" {
		id = "ID"
	}
	if liability == "" {
		liability = "Remaining Liability"
	}
	if amount == "" {
		amount = "Amount This Period"
	}
	return id, liability, amount
}

// table flattens set into a header and typed rows: id, attributes in column
// order, liability, amount.
func table(set model.AllocationSet, cols ColumnMap) ([]string, [][]any) {
	idName, liabName, amtName := names(cols)

	header := make([]string, 0, len(set.Columns)+3)
	header = append(header, idName)
	header = append(header, set.Columns...)
	header = append(header, liabName, amtName)

	rows := make([][]any, 0, len(set.Obligations))
	for _, o := range set.Obligations {
		row := make([]any, 0, len(header))
		row = append(row, o.ID)
		for _, c := range set.Columns {
			row = append(row, o.Attr(c))
		}
		row = append(row, o.RemainingLiability, o.AllocatedAmount)
		rows = append(rows, row)
	}
	return header, rows
}

func writeXLSX(path, sheet string, header []string, rows [][]any) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &hdr); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		r := make([]any, len(row))
		for j, v := range row {
			if d, ok := v.(decimal.Decimal); ok {
				v = d.InexactFloat64()
			}
			r[j] = v
		}
		if err := f.SetSheetRow(sheet, cellRef, &r); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func writeCSV(path string, header []string, rows [][]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	_ = w.Write(header)
	for _, row := range rows {
		rec := make([]string, len(row))
		for i, v := range row {
			switch x := v.(type) {
			case string:
				rec[i] = x
			case int64:
				rec[i] = strconv.FormatInt(x, 10)
			case decimal.Decimal:
				rec[i] = x.String()
			default:
				rec[i] = fmt.Sprint(x)
			}
		}
		_ = w.Write(rec)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing csv: %w", err)
	}
	return f.Close()
}

// sheetName makes label usable as a worksheet name: at most 31 characters
// and none of []:*?/\.
func sheetName(label string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '_'
		}
		return r
	}, strings.TrimSpace(label))
	if name == "" {
		name = "Allocation"
	}
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	return name
}
