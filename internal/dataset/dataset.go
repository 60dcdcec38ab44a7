package dataset

import (
	"image"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/MissEmlizB/annotate-ml/internal/imaging"
)

// AnnotationsFile is the name of the annotations table inside an export
// directory.
const AnnotationsFile = "annotations.csv"

// Row is an annotation record together with its decoded image.
type Row struct {
	Record

	// Image is the decoded photo.
	Image image.Image

	// Info describes the photo file.
	Info imaging.Info

	// ImageWithGroundTruth is the photo with its annotations drawn on top.
	// It is only set once a visualisation has rendered it.
	ImageWithGroundTruth image.Image
}

// Boxes returns the row's annotations as drawable boxes.
func (r Row) Boxes() []imaging.Box {
	boxes := make([]imaging.Box, 0, len(r.Annotations))
	for _, a := range r.Annotations {
		boxes = append(boxes, imaging.Box{Rect: a.Rect(), Label: a.Label})
	}
	return boxes
}

// Dataset is the annotations table of an export directory with every image
// loaded. Rows keep the order of the table.
type Dataset struct {
	Root string
	Rows []Row
}

// Load reads <root>/annotations.csv and decodes every image it references.
// Image paths are resolved relative to root.
//
// Loading is all or nothing: a missing or malformed table, or any image that
// cannot be read, fails the load and the underlying error is available
// through errors.Cause.
func Load(root string) (*Dataset, error) {
	tablePath := filepath.Join(root, AnnotationsFile)
	f, err := os.Open(tablePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open annotations table")
	}
	defer f.Close()

	records, err := ReadRecords(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", tablePath)
	}

	ds := &Dataset{Root: root, Rows: make([]Row, 0, len(records))}
	for i, rec := range records {
		img, info, err := imaging.Load(filepath.Join(root, filepath.FromSlash(rec.Path)))
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i+1)
		}
		ds.Rows = append(ds.Rows, Row{Record: rec, Image: img, Info: info})
	}

	log.Debug().Str("root", root).Int("rows", len(ds.Rows)).Msg("dataset loaded")
	return ds, nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// Labels returns every distinct annotation label, sorted.
func (d *Dataset) Labels() []string {
	seen := make(map[string]struct{})
	for _, r := range d.Rows {
		for _, a := range r.Annotations {
			seen[a.Label] = struct{}{}
		}
	}
	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// AnnotationCount returns the number of annotations across all rows.
func (d *Dataset) AnnotationCount() int {
	n := 0
	for _, r := range d.Rows {
		n += len(r.Annotations)
	}
	return n
}

// RandomSplit partitions the rows into a training and a test dataset.
//
// round(fraction*n) randomly chosen rows go to the training partition, the
// rest to the test partition. With two or more rows both partitions get at
// least one. Rows keep their relative order inside each partition and are
// shared, not copied.
func (d *Dataset) RandomSplit(fraction float64, rng *rand.Rand) (train, test *Dataset) {
	n := len(d.Rows)
	k := int(math.Round(fraction * float64(n)))
	if n >= 2 {
		if k < 1 {
			k = 1
		}
		if k > n-1 {
			k = n - 1
		}
	}
	if k > n {
		k = n
	}
	if k < 0 {
		k = 0
	}

	perm := rng.Perm(n)
	trainIdx := append([]int(nil), perm[:k]...)
	testIdx := append([]int(nil), perm[k:]...)
	sort.Ints(trainIdx)
	sort.Ints(testIdx)

	return d.subset(trainIdx), d.subset(testIdx)
}

func (d *Dataset) subset(idx []int) *Dataset {
	out := &Dataset{Root: d.Root, Rows: make([]Row, 0, len(idx))}
	for _, i := range idx {
		out.Rows = append(out.Rows, d.Rows[i])
	}
	return out
}

// SetGroundTruth attaches one rendered overlay per row.
func (d *Dataset) SetGroundTruth(images []image.Image) error {
	if len(images) != len(d.Rows) {
		return errors.Errorf("got %d overlays for %d rows", len(images), len(d.Rows))
	}
	for i := range d.Rows {
		d.Rows[i].ImageWithGroundTruth = images[i]
	}
	return nil
}
