package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestWriteCSVHeaderAndNulls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed", "table.csv")
	table := &Table{
		Variables: []string{"temperature_2m", "precipitation"},
		Rows: []Row{
			{City: "Karachi", Time: "2024-01-01T00:00", Values: []*float64{f(13.2), nil}},
		},
	}

	require.NoError(t, WriteCSV(path, table))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "city,time,temperature_2m,precipitation", lines[0])
	assert.Equal(t, "Karachi,2024-01-01T00:00,13.2,", lines[1], "null reading becomes an empty cell")

	got, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, table.Variables, got.Variables)
	require.Len(t, got.Rows, 1)
	assert.Nil(t, got.Rows[0].Values[1])
	assert.Equal(t, 13.2, *got.Rows[0].Values[0])
}

func TestWriteCSVReplacesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.csv")

	big := &Table{Variables: []string{"temperature_2m"}}
	for i := 0; i < 100; i++ {
		big.Rows = append(big.Rows, Row{City: "Karachi", Time: "2024-01-01T00:00", Values: []*float64{f(1)}})
	}
	require.NoError(t, WriteCSV(path, big))

	small := &Table{
		Variables: []string{"temperature_2m"},
		Rows:      []Row{{City: "Lahore", Time: "2024-01-02T00:00", Values: []*float64{f(2)}}},
	}
	require.NoError(t, WriteCSV(path, small))

	got, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, got.Rows, 1, "a later write fully replaces the file")
	assert.Equal(t, "Lahore", got.Rows[0].City)
}

func TestCityRowsAndVariableIndex(t *testing.T) {
	table := &Table{
		Variables: []string{"temperature_2m", "precipitation"},
		Rows: []Row{
			{City: "Karachi", Time: "2024-01-01T00:00", Values: []*float64{f(13.2), f(0)}},
			{City: "Lahore", Time: "2024-01-01T00:00", Values: []*float64{f(8.1), f(0.4)}},
			{City: "Karachi", Time: "2024-01-01T01:00", Values: []*float64{f(12.8), f(0)}},
		},
	}

	rows := table.CityRows("Karachi")
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-01-01T00:00", rows[0].Time)

	assert.Equal(t, 1, table.VariableIndex("precipitation"))
	assert.Equal(t, -1, table.VariableIndex("windspeed_10m"))
}
