package builtin

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	randomforest "github.com/malaschitz/randomForest"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/ulikunitz/xz"

	"github.com/MissEmlizB/annotate-ml/internal/imaging"
	"github.com/MissEmlizB/annotate-ml/internal/toolkit"
)

// Format identifies builtin model files.
const Format = "annotate-ml/builtin/v1"

type modelFile struct {
	Format      string                `json:"format"`
	ID          string                `json:"id"`
	Created     time.Time             `json:"created"`
	Labels      []string              `json:"labels"`
	FeatureSize int                   `json:"featureSize"`
	Priors      map[string]Prior      `json:"priors"`
	Forests     []randomforest.Forest `json:"forests"`
}

// Export implements toolkit.Exporter. The file is written next to path and
// renamed into place, so a failed export never leaves a partial model behind.
func (d *Detector) Export(ctx context.Context, tm toolkit.Model, path string) error {
	m, ok := tm.(*Model)
	if !ok {
		return toolkit.ErrForeignModel
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := modelFile{
		Format:      Format,
		ID:          m.ID.String(),
		Created:     m.Created,
		Labels:      m.Labels,
		FeatureSize: imaging.FeatureSize,
		Priors:      m.Priors,
		Forests:     make([]randomforest.Forest, 0, len(m.forests)),
	}
	for _, f := range m.forests {
		doc.Forests = append(doc.Forests, exportable(f))
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".model-*")
	if err != nil {
		return errors.Wrap(err, "failed to create model file")
	}
	defer os.Remove(tmp.Name())

	zw, err := xz.NewWriter(tmp)
	if err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to start compression")
	}
	if err := json.NewEncoder(zw).Encode(doc); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to encode model")
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to compress model")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to write model file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "failed to move model to %s", path)
	}

	log.Debug().Str("model", m.Name()).Str("path", path).Msg("model exported")
	return nil
}

// exportable copies f without its training batch and with the out-of-bag
// statistics made finite. A bootstrap that leaves no rows out yields NaN
// there, which JSON cannot hold. Neither is needed to vote.
func exportable(f *randomforest.Forest) randomforest.Forest {
	c := *f
	c.Data = randomforest.ForestData{}
	c.Trees = make([]randomforest.Tree, len(f.Trees))
	copy(c.Trees, f.Trees)
	for i := range c.Trees {
		c.Trees[i].Validation = finite(c.Trees[i].Validation)
	}
	if f.FeatureImportance != nil {
		c.FeatureImportance = make([]float64, len(f.FeatureImportance))
		for i, v := range f.FeatureImportance {
			c.FeatureImportance[i] = finite(v)
		}
	}
	return c
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Load reads a model written by Export.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open model")
	}
	defer f.Close()

	zr, err := xz.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "%s is not a builtin model", path)
	}

	var doc modelFile
	if err := json.NewDecoder(zr).Decode(&doc); err != nil {
		return nil, errors.Wrapf(err, "%s is not a builtin model", path)
	}
	if doc.Format != Format {
		return nil, errors.Errorf("unsupported model format %q", doc.Format)
	}
	if doc.FeatureSize != imaging.FeatureSize {
		return nil, errors.Errorf("model expects %d features, this build extracts %d", doc.FeatureSize, imaging.FeatureSize)
	}

	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid model id")
	}

	m := &Model{
		ID:      id,
		Created: doc.Created,
		Labels:  doc.Labels,
		Priors:  doc.Priors,
		forests: make([]*randomforest.Forest, 0, len(doc.Forests)),
	}
	for i := range doc.Forests {
		m.forests = append(m.forests, &doc.Forests[i])
	}
	return m, nil
}
