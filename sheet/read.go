package sheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/carbocation/gelqc"
	"github.com/carbocation/gelqc/qc"
	"github.com/carbocation/pfx"
	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Format is the container of a table file.
type Format int

const (
	FormatDelimited Format = iota
	FormatXLS
	FormatXLSX
)

var compressionSuffixes = []string{".gz", ".xz", ".bz2", ".zip", ".zlib"}

// baseExt returns the extension of name once any compression suffix is
// removed, lowercased: "plate.tsv.gz" gives ".tsv".
func baseExt(name string) string {
	lower := strings.ToLower(name)
	for _, suffix := range compressionSuffixes {
		if strings.HasSuffix(lower, suffix) {
			lower = strings.TrimSuffix(lower, suffix)
			break
		}
	}

	return filepath.Ext(lower)
}

// FormatOf picks the reader for a file name.
func FormatOf(name string) Format {
	switch baseExt(name) {
	case ".xls":
		return FormatXLS
	case ".xlsx", ".xlsm":
		return FormatXLSX
	}

	return FormatDelimited
}

// Row is one data row of a table. Exactly one of Record and Err is
// meaningful.
type Row struct {
	// Index is the zero-based position among data rows.
	Index  int
	Line   int
	Record qc.Record
	Err    error
}

// Read parses every data row of the table in r. name is used to pick the
// format. Only an unreadable table is an error; bad rows are reported in
// Row.Err and reading carries on.
func Read(r io.Reader, name string, l Layout) ([]Row, error) {
	cells, err := ReadCells(r, name, l.HeaderRows)
	if err != nil {
		return nil, err
	}

	return l.Rows(cells), nil
}

// Rows applies the layout to a full table, header rows included. Blank rows
// are skipped and do not consume an index.
func (l Layout) Rows(cells [][]string) []Row {
	var out []Row
	for i := l.HeaderRows; i < len(cells); i++ {
		if blank(cells[i]) {
			continue
		}

		rec, err := l.ParseRow(cells[i], i+1)
		out = append(out, Row{
			Index:  len(out),
			Line:   i + 1,
			Record: rec,
			Err:    err,
		})
	}

	return out
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}

	return true
}

// ReadCells returns the raw cells of the first worksheet, or of the whole
// delimited file. headerRows lines are excluded from delimiter detection.
func ReadCells(r io.Reader, name string, headerRows int) ([][]string, error) {
	switch FormatOf(name) {
	case FormatXLS:
		return readXLS(r)
	case FormatXLSX:
		return readXLSX(r)
	}

	return readDelimited(r, name, headerRows)
}

func readDelimited(r io.Reader, name string, headerRows int) ([][]string, error) {
	rc, _, err := gelqc.MaybeDecompress(r)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, pfx.Err(err)
	}
	b = bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))

	var delim rune
	switch baseExt(name) {
	case ".csv":
		delim = ','
	case ".tsv", ".tab":
		delim = '\t'
	default:
		delim = gelqc.DetermineDelimiter(skipLines(b, headerRows))
	}

	cr := csv.NewReader(bytes.NewReader(b))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	// encoding/csv drops blank lines; pad them back so that row numbers match
	// the file.
	var cells [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", name, err))
		}

		line, _ := cr.FieldPos(0)
		for len(cells) < line-1 {
			cells = append(cells, nil)
		}
		cells = append(cells, rec)
	}

	return cells, nil
}

func skipLines(b []byte, n int) []byte {
	for ; n > 0 && len(b) > 0; n-- {
		i := bytes.IndexByte(b, '\n')
		if i < 0 {
			return nil
		}
		b = b[i+1:]
	}

	return b
}

func readXLS(r io.Reader) (out [][]string, err error) {
	// The BIFF decoder panics on some malformed workbooks.
	defer func() {
		if p := recover(); p != nil {
			out, err = nil, pfx.Err(fmt.Errorf("malformed xls workbook: %v", p))
		}
	}()

	b, err := io.ReadAll(r)
	if err != nil {
		return nil, pfx.Err(err)
	}

	spreadsheet, err := xls.OpenReader(bytes.NewReader(b), "utf-8")
	if err != nil {
		return nil, pfx.Err(err)
	}
	if spreadsheet.NumSheets() == 0 {
		return nil, pfx.Err(fmt.Errorf("workbook has no sheets"))
	}

	sheet := spreadsheet.GetSheet(0)
	if sheet == nil {
		return nil, pfx.Err(fmt.Errorf("sheet 0 was nil"))
	}

	for rowID := 0; rowID <= int(sheet.MaxRow); rowID++ {
		row := sheet.Row(rowID)
		if row == nil {
			out = append(out, nil)
			continue
		}

		cells := make([]string, 0, row.LastCol()+1)
		for colID := 0; colID <= row.LastCol(); colID++ {
			cells = append(cells, row.Col(colID))
		}
		out = append(out, cells)
	}

	return out, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, pfx.Err(fmt.Errorf("workbook has no sheets"))
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, pfx.Err(err)
	}

	return rows, nil
}
