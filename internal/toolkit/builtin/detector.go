package builtin

import (
	"context"
	"image"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	randomforest "github.com/malaschitz/randomForest"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sjwhitworth/golearn/evaluation"
	"gonum.org/v1/gonum/stat"

	"github.com/MissEmlizB/annotate-ml/internal/dataset"
	"github.com/MissEmlizB/annotate-ml/internal/imaging"
	"github.com/MissEmlizB/annotate-ml/internal/toolkit"
)

const (
	// TreesPerIteration is the size of the forest fitted in each iteration.
	TreesPerIteration = 10

	// DefaultBatchSize is used when the batch size is left to the backend.
	DefaultBatchSize = 32

	// MaxAutoIterations caps the iteration count chosen automatically.
	MaxAutoIterations = 20
)

// Prior is the mean size of a label's boxes relative to the image size.
type Prior struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Model is a trained builtin detector.
type Model struct {
	ID      uuid.UUID
	Created time.Time
	Labels  []string
	Priors  map[string]Prior

	forests []*randomforest.Forest
}

// Name implements toolkit.Model.
func (m *Model) Name() string {
	return "builtin/" + m.ID.String()
}

// Iterations returns the number of forests in the ensemble.
func (m *Model) Iterations() int {
	return len(m.forests)
}

// Predict classifies the region r of img. It returns the label and the mean
// vote share it received.
func (m *Model) Predict(img image.Image, r image.Rectangle) (string, float64, error) {
	x, err := imaging.Features(img, r)
	if err != nil {
		return "", 0, err
	}
	return m.classify(x)
}

func (m *Model) classify(x []float64) (string, float64, error) {
	if len(m.forests) == 0 || len(m.Labels) == 0 {
		return "", 0, errors.New("model has no trained forests")
	}

	votes := make([]float64, len(m.Labels))
	for _, f := range m.forests {
		// A forest only knows the classes up to the highest one in its batch.
		for i, v := range f.Vote(x) {
			if i < len(votes) {
				votes[i] += v
			}
		}
	}

	best := 0
	for i := range votes {
		if votes[i] > votes[best] {
			best = i
		}
	}
	return m.Labels[best], votes[best] / float64(len(m.forests)), nil
}

// BoxFor predicts the box of label around the centre of r in an image of the
// given size.
func (m *Model) BoxFor(label string, r image.Rectangle, size image.Point) image.Rectangle {
	p, ok := m.Priors[label]
	if !ok {
		return r
	}
	w := p.Width * float64(size.X)
	h := p.Height * float64(size.Y)
	cx := float64(r.Min.X+r.Max.X) / 2
	cy := float64(r.Min.Y+r.Max.Y) / 2
	return image.Rect(
		int(math.Round(cx-w/2)),
		int(math.Round(cy-h/2)),
		int(math.Round(cx+w/2)),
		int(math.Round(cy+h/2)),
	)
}

// Detector is the builtin toolkit.Detector.
type Detector struct{}

// New returns a builtin Detector.
func New() *Detector {
	return &Detector{}
}

var _ toolkit.Detector = (*Detector)(nil)

type sample struct {
	x     []float64
	label string
}

// regions extracts a feature vector for every annotation in ds. Annotations
// whose box lies outside the image are skipped with a warning.
func regions(ds *dataset.Dataset) []sample {
	var out []sample
	for _, row := range ds.Rows {
		for _, a := range row.Annotations {
			x, err := imaging.Features(row.Image, a.Rect())
			if err != nil {
				log.Warn().Err(err).Str("path", row.Path).Str("label", a.Label).Msg("skipping annotation")
				continue
			}
			out = append(out, sample{x: x, label: a.Label})
		}
	}
	return out
}

// Create implements toolkit.Trainer.
func (d *Detector) Create(ctx context.Context, train *dataset.Dataset, opts toolkit.TrainOptions) (toolkit.Model, error) {
	samples := regions(train)
	if len(samples) == 0 {
		return nil, errors.New("training partition has no usable annotations")
	}

	labels := train.Labels()
	classes := make(map[string]int, len(labels))
	for i, l := range labels {
		classes[l] = i
	}

	batch := opts.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	if batch > len(samples) {
		batch = len(samples)
	}
	iterations := opts.MaxIterations
	if iterations <= 0 {
		iterations = (len(samples) + batch - 1) / batch
		if iterations > MaxAutoIterations {
			iterations = MaxAutoIterations
		}
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	batches := sampleBatches(len(samples), batch, iterations, rand.New(rand.NewSource(seed)))

	progress := zerolog.DebugLevel
	if opts.Verbose {
		progress = zerolog.InfoLevel
	}

	m := &Model{
		ID:      uuid.New(),
		Created: time.Now().UTC(),
		Labels:  labels,
		Priors:  priors(train),
	}

	for it, idx := range batches {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "training stopped at iteration %d", it+1)
		}

		data := randomforest.ForestData{
			X:     make([][]float64, 0, batch),
			Class: make([]int, 0, batch),
		}
		for _, i := range idx {
			data.X = append(data.X, samples[i].x)
			data.Class = append(data.Class, classes[samples[i].label])
		}

		forest := &randomforest.Forest{Data: data}
		forest.Train(TreesPerIteration)
		m.forests = append(m.forests, forest)

		log.WithLevel(progress).
			Int("iteration", it+1).
			Int("of", iterations).
			Int("batch", batch).
			Msg("trained forest")
	}

	log.Debug().Str("model", m.Name()).Int("samples", len(samples)).Strs("labels", labels).Msg("training finished")
	return m, nil
}

// sampleBatches picks the sample indices of every iteration. It is the only
// place the seed reaches: the forest library draws its bootstraps and
// feature subsets from its own source, so trees differ between runs.
func sampleBatches(n, batch, iterations int, rng *rand.Rand) [][]int {
	out := make([][]int, iterations)
	for it := range out {
		out[it] = rng.Perm(n)[:batch]
	}
	return out
}

// priors computes the mean relative box size of every label.
func priors(ds *dataset.Dataset) map[string]Prior {
	widths := make(map[string][]float64)
	heights := make(map[string][]float64)
	for _, row := range ds.Rows {
		b := row.Image.Bounds()
		if b.Empty() {
			continue
		}
		for _, a := range row.Annotations {
			widths[a.Label] = append(widths[a.Label], a.Coordinates.Width/float64(b.Dx()))
			heights[a.Label] = append(heights[a.Label], a.Coordinates.Height/float64(b.Dy()))
		}
	}

	out := make(map[string]Prior, len(widths))
	for l := range widths {
		out[l] = Prior{
			Width:  stat.Mean(widths[l], nil),
			Height: stat.Mean(heights[l], nil),
		}
	}
	return out
}

// Evaluate implements toolkit.Evaluator. Every test annotation is classified
// and its predicted box compared with the ground truth.
func (d *Detector) Evaluate(ctx context.Context, tm toolkit.Model, test *dataset.Dataset) (*toolkit.Metrics, error) {
	m, ok := tm.(*Model)
	if !ok {
		return nil, toolkit.ErrForeignModel
	}

	cm := make(evaluation.ConfusionMatrix)
	var ious []float64
	for _, row := range test.Rows {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "evaluation stopped")
		}
		size := row.Image.Bounds().Size()
		for _, a := range row.Annotations {
			truth := a.Rect()
			label, _, err := m.Predict(row.Image, truth)
			if err != nil {
				log.Warn().Err(err).Str("path", row.Path).Str("label", a.Label).Msg("skipping annotation")
				continue
			}
			if cm[a.Label] == nil {
				cm[a.Label] = make(map[string]int)
			}
			cm[a.Label][label]++
			ious = append(ious, IoU(m.BoxFor(label, truth, size), truth))
		}
	}
	if len(ious) == 0 {
		return nil, errors.New("test partition has no usable annotations")
	}

	metrics := toolkit.MetricsFromConfusion(cm)
	metrics.MeanIoU = stat.Mean(ious, nil)
	return metrics, nil
}

// IoU returns the intersection over union of two rectangles.
func IoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	ia := float64(inter.Dx() * inter.Dy())
	union := float64(a.Dx()*a.Dy()+b.Dx()*b.Dy()) - ia
	if union <= 0 {
		return 0
	}
	return ia / union
}
