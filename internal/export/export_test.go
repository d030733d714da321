package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleTable() Table {
	return Table{
		Sheet:  "Bilties",
		Header: []string{"Number", "Consignee", "Freight"},
		Rows: [][]any{
			{int64(1), "Sharma Traders", decimal.RequireFromString("1500.50")},
			{int64(2), "Gupta, Sons", decimal.RequireFromString("320")},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteCSV(buf, sampleTable()))

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Number", "Consignee", "Freight"}, records[0])
	assert.Equal(t, []string{"2", "Gupta, Sons", "320"}, records[2])
	assert.Equal(t, "1500.5", records[1][2])
}

func TestWriteXLSX(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteXLSX(buf, sampleTable()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Bilties"}, f.GetSheetList())
	v, err := f.GetCellValue("Bilties", "B3")
	require.NoError(t, err)
	assert.Equal(t, "Gupta, Sons", v)
	v, err = f.GetCellValue("Bilties", "C2")
	require.NoError(t, err)
	assert.Equal(t, "1500.5", v)
}
