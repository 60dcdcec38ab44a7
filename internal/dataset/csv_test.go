package dataset

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRecords_UnquotedJSON(t *testing.T) {
	input := "path,annotations\n" +
		`Photos/a.png,[{"label":"cat","coordinates":{"x":10,"y":12,"width":4,"height":6}},{"label":"dog","coordinates":{"x":1,"y":2,"width":3,"height":4}}]` + "\n" +
		"\n" +
		"Photos/b.png,[]\r\n"

	records, err := ReadRecords(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Photos/a.png", records[0].Path)
	require.Len(t, records[0].Annotations, 2)
	assert.Equal(t, Annotation{Label: "cat", Coordinates: Coordinates{X: 10, Y: 12, Width: 4, Height: 6}}, records[0].Annotations[0])
	assert.Equal(t, "dog", records[0].Annotations[1].Label)

	assert.Equal(t, "Photos/b.png", records[1].Path)
	assert.Empty(t, records[1].Annotations)
}

func TestReadRecords_QuotedCells(t *testing.T) {
	input := "\ufeffpath,annotations\n" +
		`"Photos/with,comma.png","[{""label"":""cat"",""coordinates"":{""x"":1,""y"":1,""width"":2,""height"":2}}]"` + "\n"

	records, err := ReadRecords(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Photos/with,comma.png", records[0].Path)
	require.Len(t, records[0].Annotations, 1)
	assert.Equal(t, "cat", records[0].Annotations[0].Label)
}

func TestReadRecords_ColumnOrder(t *testing.T) {
	input := "annotations,path\n" +
		`"[{""label"":""cat"",""coordinates"":{""x"":1,""y"":1,""width"":2,""height"":2}}]",Photos/a.png` + "\n"

	records, err := ReadRecords(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Photos/a.png", records[0].Path)
	assert.Len(t, records[0].Annotations, 1)
}

func TestReadRecords_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "annotations table is empty"},
		{"missing column", "path,labels\n", "must contain"},
		{"bad json", "path,annotations\nPhotos/a.png,[{\n", "line 2"},
		{"empty path", "path,annotations\n,[]\n", "empty path"},
		{"too few fields", "path,annotations\nPhotos/a.png\n", "expected 2 fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRecords(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	records := []Record{
		{Path: "Photos/a.png", Annotations: []Annotation{
			{Label: "cat", Coordinates: Coordinates{X: 10, Y: 12, Width: 4, Height: 6}},
		}},
		{Path: "Photos/b.png"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))
	assert.True(t, strings.HasPrefix(buf.String(), "path,annotations\n"))

	got, err := ReadRecords(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, records[0].Annotations, got[0].Annotations)
	assert.Equal(t, "Photos/b.png", got[1].Path)
	assert.Empty(t, got[1].Annotations)
}

func TestWriteCSV_KeepsRawCell(t *testing.T) {
	raw := `[{"label":"cat","coordinates":{"x":1,"y":1,"width":2,"height":2}}]`

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []Record{{Path: "a.png", RawAnnotations: raw}}))

	got, err := ReadRecords(&buf)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, raw, got[0].RawAnnotations)
}
