package exportsvc

import (
	"bytes"
	"encoding/csv"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/censo/core/census"
)

// Formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const (
	filenamePrefix = "censo-escolar-"
	sheetName      = "Censo Escolar"
)

var ErrUnknownFormat = errors.New("formato de exportação desconhecido")

// Encoder renders a header and rows into a complete file held in memory.
type Encoder interface {
	Encode(header []string, rows [][]string) (*bytes.Buffer, error)
	ContentType() string
	Ext() string
}

func ForFormat(format string) (Encoder, error) {
	switch format {
	case "", FormatCSV:
		return csvEncoder{}, nil
	case FormatXLSX:
		return xlsxEncoder{}, nil
	}
	return nil, ErrUnknownFormat
}

// Filename returns censo-escolar-<YYYY-MM-DD>.<ext>.
func Filename(enc Encoder, at time.Time) string {
	return filenamePrefix + at.Format("2006-01-02") + "." + enc.Ext()
}

// Export encodes subs with the shared export schema. Nothing is returned on failure.
func Export(enc Encoder, subs []census.Submission, loc *time.Location) (*bytes.Buffer, error) {
	buf, err := enc.Encode(census.Header(), census.ToRows(subs, loc))
	if err != nil {
		return nil, errors.Wrap(err, "exporting "+enc.Ext())
	}
	return buf, nil
}

type csvEncoder struct{}

// utf8BOM lets spreadsheet apps detect the encoding of accented headers.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func (csvEncoder) Encode(header []string, rows [][]string) (*bytes.Buffer, error) {
	buf := bytes.NewBuffer(append([]byte(nil), utf8BOM...))
	w := csv.NewWriter(buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf, nil
}

func (csvEncoder) ContentType() string { return "text/csv; charset=utf-8" }
func (csvEncoder) Ext() string         { return FormatCSV }

type xlsxEncoder struct{}

func (xlsxEncoder) Encode(header []string, rows [][]string) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}
	if err := setRow(f, 1, header); err != nil {
		return nil, err
	}
	for i, row := range rows {
		if err := setRow(f, i+2, row); err != nil {
			return nil, err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetName, "A1", last, bold); err != nil {
		return nil, err
	}
	return f.WriteToBuffer()
}

func setRow(f *excelize.File, n int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return f.SetSheetRow(sheetName, cell, &row)
}

func (xlsxEncoder) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
func (xlsxEncoder) Ext() string { return FormatXLSX }
