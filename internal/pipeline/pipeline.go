package pipeline

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/MissEmlizB/annotate-ml/internal/config"
	"github.com/MissEmlizB/annotate-ml/internal/dataset"
	"github.com/MissEmlizB/annotate-ml/internal/toolkit"
)

// RunTrain loads the dataset at cfg.ExportPath and trains on it. Nothing is
// handed to the toolkit unless the whole dataset loads.
func RunTrain(ctx context.Context, cfg config.Config, tk toolkit.Detector, out io.Writer) (*toolkit.Metrics, error) {
	ds, err := dataset.Load(cfg.ExportPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load dataset")
	}
	return Train(ctx, cfg, ds, tk, out)
}

// Train splits ds, creates a model from the training partition, evaluates it
// on the test partition, prints the metrics to out and exports the model to
// cfg.OutputPath.
//
// The steps run in that order and the first failure stops the run. The model
// file is only written once evaluation has succeeded.
func Train(ctx context.Context, cfg config.Config, ds *dataset.Dataset, tk toolkit.Detector, out io.Writer) (*toolkit.Metrics, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	train, test := ds.RandomSplit(cfg.SplitFraction, rand.New(rand.NewSource(seed)))
	log.Info().
		Int("rows", ds.Len()).
		Int("train", train.Len()).
		Int("test", test.Len()).
		Int64("seed", seed).
		Msg("dataset split")

	model, err := tk.Create(ctx, train, toolkit.TrainOptions{
		MaxIterations: cfg.MaxIterations,
		BatchSize:     cfg.BatchSize,
		Verbose:       cfg.Verbose,
		Seed:          seed,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create model")
	}
	if c, ok := model.(io.Closer); ok {
		defer c.Close()
	}
	log.Info().Str("model", model.Name()).Msg("model created")

	metrics, err := tk.Evaluate(ctx, model, test)
	if err != nil {
		return nil, errors.Wrap(err, "failed to evaluate model")
	}
	if _, err := fmt.Fprint(out, metrics.String()); err != nil {
		return nil, errors.Wrap(err, "failed to print metrics")
	}

	if err := tk.Export(ctx, model, cfg.OutputPath); err != nil {
		return nil, errors.Wrap(err, "failed to export model")
	}
	log.Info().Str("path", cfg.OutputPath).Msg("model exported")

	return metrics, nil
}

// RunVisualise loads the dataset at root and visualises it.
func RunVisualise(ctx context.Context, root string, v toolkit.Visualiser, e toolkit.Explorer) error {
	ds, err := dataset.Load(root)
	if err != nil {
		return errors.Wrap(err, "failed to load dataset")
	}
	return Visualise(ctx, ds, v, e)
}

// Visualise draws the ground truth of every row, attaches it to the rows and
// hands the dataset to the explorer, which blocks until the user is done.
func Visualise(ctx context.Context, ds *dataset.Dataset, v toolkit.Visualiser, e toolkit.Explorer) error {
	images, err := v.DrawBoundingBoxes(ds)
	if err != nil {
		return errors.Wrap(err, "failed to draw bounding boxes")
	}
	if err := ds.SetGroundTruth(images); err != nil {
		return err
	}
	log.Debug().Int("rows", ds.Len()).Msg("ground truth drawn")

	if err := e.Explore(ctx, ds); err != nil {
		return errors.Wrap(err, "explorer failed")
	}
	return nil
}
