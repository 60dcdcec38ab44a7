package dataset

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeExport creates an export directory with n photos and an
// annotations.csv in the unquoted layout Annotate ML writes.
func writeExport(t *testing.T, n int) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Photos"), 0o755))

	var b strings.Builder
	b.WriteString("path,annotations\n")
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("Photos/img_%02d.png", i)
		writePNG(t, filepath.Join(root, filepath.FromSlash(name)), 64, 48)
		label := "cat"
		if i%2 == 1 {
			label = "dog"
		}
		fmt.Fprintf(&b, `%s,[{"label":"%s","coordinates":{"x":32,"y":24,"width":20,"height":16}}]`+"\n", name, label)
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, AnnotationsFile), []byte(b.String()), 0o644))
	return root
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 4), uint8(y * 4), 128, 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestLoad(t *testing.T) {
	root := writeExport(t, 5)

	ds, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, 5, ds.Len())

	for i, row := range ds.Rows {
		assert.Equal(t, fmt.Sprintf("Photos/img_%02d.png", i), row.Path)
		require.NotNil(t, row.Image)
		assert.Equal(t, 64, row.Image.Bounds().Dx())
		assert.Equal(t, 48, row.Image.Bounds().Dy())
		assert.Equal(t, "png", row.Info.Format)
		require.Len(t, row.Annotations, 1)
		assert.Nil(t, row.ImageWithGroundTruth)
	}
	assert.Equal(t, []string{"cat", "dog"}, ds.Labels())
	assert.Equal(t, 5, ds.AnnotationCount())
}

func TestLoad_Idempotent(t *testing.T) {
	root := writeExport(t, 3)

	first, err := Load(root)
	require.NoError(t, err)
	second, err := Load(root)
	require.NoError(t, err)

	require.Equal(t, first.Len(), second.Len())
	for i := range first.Rows {
		assert.Equal(t, first.Rows[i].Record, second.Rows[i].Record)
		assert.Equal(t, first.Rows[i].Image.Bounds(), second.Rows[i].Image.Bounds())
	}
}

func TestLoad_MissingTable(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}

func TestLoad_MissingImage(t *testing.T) {
	root := writeExport(t, 2)
	require.NoError(t, os.Remove(filepath.Join(root, "Photos", "img_01.png")))

	_, err := Load(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestLoad_EmptyTable(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, AnnotationsFile), []byte("path,annotations\n"), 0o644))

	ds, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Len())
	assert.Empty(t, ds.Labels())
}

func TestRandomSplit(t *testing.T) {
	ds := &Dataset{Rows: make([]Row, 10)}
	for i := range ds.Rows {
		ds.Rows[i].Path = fmt.Sprintf("p%d", i)
	}

	train, test := ds.RandomSplit(0.8, rand.New(rand.NewSource(1)))
	assert.Equal(t, 8, train.Len())
	assert.Equal(t, 2, test.Len())

	seen := make(map[string]bool)
	for _, r := range append(append([]Row(nil), train.Rows...), test.Rows...) {
		assert.False(t, seen[r.Path], "row %s in both partitions", r.Path)
		seen[r.Path] = true
	}
	assert.Len(t, seen, 10)
}

func TestRandomSplit_Deterministic(t *testing.T) {
	ds := &Dataset{Rows: make([]Row, 20)}
	for i := range ds.Rows {
		ds.Rows[i].Path = fmt.Sprintf("p%02d", i)
	}

	a, _ := ds.RandomSplit(0.5, rand.New(rand.NewSource(42)))
	b, _ := ds.RandomSplit(0.5, rand.New(rand.NewSource(42)))
	assert.Equal(t, a.Rows, b.Rows)

	for i := 1; i < a.Len(); i++ {
		assert.Less(t, a.Rows[i-1].Path, a.Rows[i].Path, "partition must keep table order")
	}
}

func TestRandomSplit_BothPartitionsNonEmpty(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		fraction float64
		train    int
	}{
		{"tiny fraction", 5, 0.01, 1},
		{"huge fraction", 5, 0.99, 4},
		{"two rows", 2, 0.8, 1},
		{"single row", 1, 0.8, 1},
		{"empty", 0, 0.8, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := &Dataset{Rows: make([]Row, tt.n)}
			train, test := ds.RandomSplit(tt.fraction, rand.New(rand.NewSource(7)))
			assert.Equal(t, tt.train, train.Len())
			assert.Equal(t, tt.n-tt.train, test.Len())
		})
	}
}

func TestSetGroundTruth(t *testing.T) {
	ds := &Dataset{Rows: make([]Row, 2)}

	err := ds.SetGroundTruth([]image.Image{image.NewRGBA(image.Rect(0, 0, 1, 1))})
	assert.Error(t, err)

	overlays := []image.Image{
		image.NewRGBA(image.Rect(0, 0, 1, 1)),
		image.NewRGBA(image.Rect(0, 0, 2, 2)),
	}
	require.NoError(t, ds.SetGroundTruth(overlays))
	assert.Equal(t, overlays[1], ds.Rows[1].ImageWithGroundTruth)
}

func TestRowBoxes(t *testing.T) {
	row := Row{Record: Record{Annotations: []Annotation{
		{Label: "cat", Coordinates: Coordinates{X: 10, Y: 20, Width: 4, Height: 6}},
	}}}

	boxes := row.Boxes()
	require.Len(t, boxes, 1)
	assert.Equal(t, "cat", boxes[0].Label)
	assert.Equal(t, image.Rect(8, 17, 12, 23), boxes[0].Rect)
}
