package turi

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/MissEmlizB/annotate-ml/internal/dataset"
	"github.com/MissEmlizB/annotate-ml/internal/toolkit"
)

//go:embed driver.py
var driverScript []byte

// DefaultPython is the interpreter used when none is configured.
const DefaultPython = "python3"

// Backend drives Turi Create through a Python interpreter that has the
// turicreate package installed.
type Backend struct {
	// Python is the interpreter to run.
	Python string

	// Progress receives the driver's output while creating a model.
	// Defaults to os.Stderr.
	Progress io.Writer
}

// New returns a Backend using python, or DefaultPython when python is empty.
func New(python string) *Backend {
	if python == "" {
		python = DefaultPython
	}
	return &Backend{Python: python, Progress: os.Stderr}
}

var _ toolkit.Detector = (*Backend)(nil)

// Model is a saved Turi Create model directory inside a private work
// directory. Close removes it.
type Model struct {
	workDir string
	dir     string
}

// Name implements toolkit.Model.
func (m *Model) Name() string {
	return "turi/" + filepath.Base(m.workDir)
}

// Dir returns the saved model directory.
func (m *Model) Dir() string {
	return m.dir
}

// Close deletes the model's work directory.
func (m *Model) Close() error {
	return os.RemoveAll(m.workDir)
}

// Create implements toolkit.Trainer.
func (b *Backend) Create(ctx context.Context, train *dataset.Dataset, opts toolkit.TrainOptions) (toolkit.Model, error) {
	workDir, err := os.MkdirTemp("", "annotate-ml-turi-")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create work directory")
	}
	m := &Model{workDir: workDir, dir: filepath.Join(workDir, "model")}

	data, err := writePartition(workDir, "train.csv", train)
	if err != nil {
		m.Close()
		return nil, err
	}

	progress := io.Discard
	if opts.Verbose {
		progress = b.progress()
	}
	_, err = b.run(ctx, workDir, progress,
		"create",
		"--data", data,
		"--model", m.dir,
		"--max-iterations", strconv.Itoa(opts.MaxIterations),
		"--batch-size", strconv.Itoa(opts.BatchSize),
		"--verbose", strconv.FormatBool(opts.Verbose),
	)
	if err != nil {
		m.Close()
		return nil, errors.Wrap(err, "turi create failed")
	}
	return m, nil
}

// evaluation is the JSON document the driver prints after evaluating.
type evaluation struct {
	Samples              int                `json:"samples"`
	MeanAveragePrecision float64            `json:"mean_average_precision_50"`
	AveragePrecision     map[string]float64 `json:"average_precision_50"`
}

// Evaluate implements toolkit.Evaluator.
func (b *Backend) Evaluate(ctx context.Context, tm toolkit.Model, test *dataset.Dataset) (*toolkit.Metrics, error) {
	m, ok := tm.(*Model)
	if !ok {
		return nil, toolkit.ErrForeignModel
	}

	data, err := writePartition(m.workDir, "test.csv", test)
	if err != nil {
		return nil, err
	}

	out, err := b.run(ctx, m.workDir, io.Discard, "evaluate", "--data", data, "--model", m.dir)
	if err != nil {
		return nil, errors.Wrap(err, "turi evaluate failed")
	}

	line := lastLine(out)
	var ev evaluation
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return nil, errors.Wrapf(err, "unexpected evaluation output %q", line)
	}

	return &toolkit.Metrics{
		Samples:              ev.Samples,
		MeanAveragePrecision: ev.MeanAveragePrecision,
		PerLabel:             ev.AveragePrecision,
	}, nil
}

// Export implements toolkit.Exporter. The model is written as Core ML.
func (b *Backend) Export(ctx context.Context, tm toolkit.Model, path string) error {
	m, ok := tm.(*Model)
	if !ok {
		return toolkit.ErrForeignModel
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(err, "invalid output path")
	}
	if _, err := b.run(ctx, m.workDir, io.Discard, "export", "--model", m.dir, "--output", abs); err != nil {
		return errors.Wrap(err, "turi export failed")
	}
	return nil
}

func (b *Backend) progress() io.Writer {
	if b.Progress == nil {
		return os.Stderr
	}
	return b.Progress
}

// run executes the driver with args and returns its stdout. Output is
// copied to progress as it arrives.
func (b *Backend) run(ctx context.Context, workDir string, progress io.Writer, args ...string) ([]byte, error) {
	script := filepath.Join(workDir, "driver.py")
	if err := os.WriteFile(script, driverScript, 0o644); err != nil {
		return nil, errors.Wrap(err, "failed to write driver script")
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, b.Python, append([]string{script}, args...)...)
	cmd.Dir = workDir
	cmd.Stdout = io.MultiWriter(&stdout, progress)
	cmd.Stderr = io.MultiWriter(&stderr, progress)

	log.Debug().Str("python", b.Python).Strs("args", args).Msg("running turi driver")
	if err := cmd.Run(); err != nil {
		if msg := lastLine(stderr.Bytes()); msg != "" {
			return nil, errors.Wrap(err, msg)
		}
		return nil, errors.Wrapf(err, "%s %s", b.Python, args[0])
	}
	return stdout.Bytes(), nil
}

// writePartition writes ds as a CSV the driver can read. Image paths are
// made absolute because the driver runs in the work directory.
func writePartition(dir, name string, ds *dataset.Dataset) (string, error) {
	root, err := filepath.Abs(ds.Root)
	if err != nil {
		return "", errors.Wrap(err, "invalid dataset root")
	}

	records := make([]dataset.Record, 0, len(ds.Rows))
	for _, row := range ds.Rows {
		rec := row.Record
		rec.Path = filepath.Join(root, filepath.FromSlash(rec.Path))
		records = append(records, rec)
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to create %s", name)
	}
	if err := dataset.WriteCSV(f, records); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrapf(err, "failed to write %s", name)
	}
	return path, nil
}

func lastLine(b []byte) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
