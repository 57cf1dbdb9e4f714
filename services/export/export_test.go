package exportsvc

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/censo/core/census"
)

func TestForFormat(t *testing.T) {
	tests := []struct {
		format  string
		ext     string
		wantErr error
	}{
		{format: "", ext: "csv"},
		{format: "csv", ext: "csv"},
		{format: "xlsx", ext: "xlsx"},
		{format: "pdf", wantErr: ErrUnknownFormat},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			enc, err := ForFormat(tt.format)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ext, enc.Ext())
		})
	}
}

func TestFilename(t *testing.T) {
	enc, _ := ForFormat(FormatXLSX)
	at := time.Date(2024, time.February, 3, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "censo-escolar-2024-02-03.xlsx", Filename(enc, at))
}

func TestExport_sharedSchema(t *testing.T) {
	subs := census.SampleSubmissions()
	want := append([][]string{census.Header()}, census.ToRows(subs, time.UTC)...)

	t.Run("csv", func(t *testing.T) {
		enc, _ := ForFormat(FormatCSV)
		buf, err := Export(enc, subs, time.UTC)
		require.NoError(t, err)
		require.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))

		records, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(utf8BOM):])).ReadAll()
		require.NoError(t, err)
		assert.Equal(t, want, records)
		assert.Equal(t, "Anos iniciais, Anos Finais", records[1][3])
	})

	t.Run("xlsx", func(t *testing.T) {
		enc, _ := ForFormat(FormatXLSX)
		buf, err := Export(enc, subs, time.UTC)
		require.NoError(t, err)

		f, err := excelize.OpenReader(buf)
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows(sheetName)
		require.NoError(t, err)
		assert.Equal(t, want, rows)
	})

	t.Run("empty", func(t *testing.T) {
		enc, _ := ForFormat(FormatCSV)
		buf, err := Export(enc, nil, time.UTC)
		require.NoError(t, err)
		records, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(utf8BOM):])).ReadAll()
		require.NoError(t, err)
		assert.Equal(t, [][]string{census.Header()}, records)
	})
}
