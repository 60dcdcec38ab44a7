// Package toolkittest provides in-memory toolkit implementations for tests.
package toolkittest

import (
	"context"
	"image"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/MissEmlizB/annotate-ml/internal/dataset"
	"github.com/MissEmlizB/annotate-ml/internal/toolkit"
)

// Model is the model returned by Detector.
type Model struct {
	TrainRows int
	Options   toolkit.TrainOptions
}

// Name implements toolkit.Model.
func (m *Model) Name() string { return "fake" }

// Detector records every call it receives. Set an Err field to make the
// matching step fail. Export writes a small placeholder file.
type Detector struct {
	CreateErr   error
	EvaluateErr error
	ExportErr   error

	// Metrics is returned by Evaluate. A nil value yields a metrics value
	// counting the test annotations.
	Metrics *toolkit.Metrics

	mu        sync.Mutex
	Calls     []string
	TrainRows int
	TestRows  int
	Options   toolkit.TrainOptions
	Exported  string
}

var _ toolkit.Detector = (*Detector)(nil)

func (d *Detector) record(call string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls = append(d.Calls, call)
}

// Create implements toolkit.Trainer.
func (d *Detector) Create(_ context.Context, train *dataset.Dataset, opts toolkit.TrainOptions) (toolkit.Model, error) {
	d.record("create")
	if d.CreateErr != nil {
		return nil, d.CreateErr
	}
	d.TrainRows = train.Len()
	d.Options = opts
	return &Model{TrainRows: train.Len(), Options: opts}, nil
}

// Evaluate implements toolkit.Evaluator.
func (d *Detector) Evaluate(_ context.Context, m toolkit.Model, test *dataset.Dataset) (*toolkit.Metrics, error) {
	d.record("evaluate")
	if _, ok := m.(*Model); !ok {
		return nil, toolkit.ErrForeignModel
	}
	if d.EvaluateErr != nil {
		return nil, d.EvaluateErr
	}
	d.TestRows = test.Len()
	if d.Metrics != nil {
		return d.Metrics, nil
	}
	return &toolkit.Metrics{Samples: test.AnnotationCount(), Classified: true, Accuracy: 1}, nil
}

// Export implements toolkit.Exporter.
func (d *Detector) Export(_ context.Context, m toolkit.Model, path string) error {
	d.record("export")
	if _, ok := m.(*Model); !ok {
		return toolkit.ErrForeignModel
	}
	if d.ExportErr != nil {
		return d.ExportErr
	}
	if err := os.WriteFile(path, []byte("fake model\n"), 0o644); err != nil {
		return errors.Wrap(err, "failed to write fake model")
	}
	d.Exported = path
	return nil
}

// Visualiser hands back each row image unchanged, or Err.
type Visualiser struct {
	Err error
}

// DrawBoundingBoxes implements toolkit.Visualiser.
func (v *Visualiser) DrawBoundingBoxes(ds *dataset.Dataset) ([]image.Image, error) {
	if v.Err != nil {
		return nil, v.Err
	}
	out := make([]image.Image, len(ds.Rows))
	for i, row := range ds.Rows {
		out[i] = row.Image
	}
	return out, nil
}

// Explorer remembers the dataset it was asked to show and returns Err.
type Explorer struct {
	Err     error
	Dataset *dataset.Dataset
}

// Explore implements toolkit.Explorer.
func (e *Explorer) Explore(_ context.Context, ds *dataset.Dataset) error {
	e.Dataset = ds
	return e.Err
}
