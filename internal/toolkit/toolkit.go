package toolkit

import (
	"context"
	"image"

	"github.com/pkg/errors"

	"github.com/MissEmlizB/annotate-ml/internal/dataset"
)

// ErrForeignModel is returned when a model created by one backend is handed
// to another.
var ErrForeignModel = errors.New("model was not created by this toolkit")

// Model is a trained detector. Its contents are owned by the backend that
// created it.
type Model interface {
	// Name identifies the backend and the model instance, for logs.
	Name() string
}

// TrainOptions are the knobs passed to Trainer.Create. Zero counts let the
// backend choose.
type TrainOptions struct {
	MaxIterations int
	BatchSize     int
	Verbose       bool

	// Seed fixes how a backend samples its training batches. It does not
	// make the fitted model reproducible.
	Seed int64
}

// Trainer creates a model from a training partition.
type Trainer interface {
	Create(ctx context.Context, train *dataset.Dataset, opts TrainOptions) (Model, error)
}

// Evaluator scores a model against a held-out partition.
type Evaluator interface {
	Evaluate(ctx context.Context, m Model, test *dataset.Dataset) (*Metrics, error)
}

// Exporter writes a model to a file in the backend's deployable format.
type Exporter interface {
	Export(ctx context.Context, m Model, path string) error
}

// Detector is a complete object detection backend.
type Detector interface {
	Trainer
	Evaluator
	Exporter
}

// Visualiser renders a dataset's ground-truth boxes, one image per row in
// row order.
type Visualiser interface {
	DrawBoundingBoxes(ds *dataset.Dataset) ([]image.Image, error)
}

// Explorer presents a dataset interactively and blocks until the user is
// done or ctx is cancelled.
type Explorer interface {
	Explore(ctx context.Context, ds *dataset.Dataset) error
}
