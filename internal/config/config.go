package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Defaults applied when an option is absent from the command line.
const (
	DefaultFraction      = "0.8"
	DefaultOutput        = "model.mlmodel"
	DefaultMaxIterations = "0"
	DefaultBatchSize     = "0"
	DefaultVerbose       = "true"
	DefaultExportPath    = "."
	DefaultToolkit       = ToolkitBuiltin
	DefaultSeed          = "0"
)

// Toolkit backends that can train a detector.
const (
	ToolkitBuiltin = "builtin"
	ToolkitTuri    = "turi"
)

// Toolkits lists every accepted value for the toolkit option.
var Toolkits = []string{ToolkitBuiltin, ToolkitTuri}

// Options holds the raw option values exactly as they were given on the
// command line. Nothing in Options has been validated yet.
type Options struct {
	Fraction      string
	Output        string
	MaxIterations string
	BatchSize     string
	Verbose       string
	ExportPath    string
	Toolkit       string
	Seed          string
}

// DefaultOptions returns the options used when nothing is passed.
func DefaultOptions() Options {
	return Options{
		Fraction:      DefaultFraction,
		Output:        DefaultOutput,
		MaxIterations: DefaultMaxIterations,
		BatchSize:     DefaultBatchSize,
		Verbose:       DefaultVerbose,
		ExportPath:    DefaultExportPath,
		Toolkit:       DefaultToolkit,
		Seed:          DefaultSeed,
	}
}

// Config is the validated training configuration. It is created once by
// Parse and passed around by value.
type Config struct {
	// SplitFraction is the share of rows assigned to the training partition,
	// strictly between 0 and 1.
	SplitFraction float64

	// OutputPath is where the exported model is written.
	OutputPath string

	// MaxIterations caps training iterations. 0 lets the toolkit decide.
	MaxIterations int

	// BatchSize is the number of samples per training iteration. 0 lets the
	// toolkit decide.
	BatchSize int

	// Verbose turns on progress output from the toolkit.
	Verbose bool

	// ExportPath is the directory holding annotations.csv and the images it
	// references.
	ExportPath string

	// Toolkit names the detector backend.
	Toolkit string

	// Seed drives the train/test shuffle. 0 means seed from the clock.
	Seed int64
}

// ValidationError reports an option that could not be turned into a valid
// configuration value.
type ValidationError struct {
	Option  string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Warning: --%s %s", e.Option, e.Message)
}

// Parse validates raw options and builds a Config. The first invalid option
// is reported as a *ValidationError; no partial Config is returned.
func Parse(opts Options) (Config, error) {
	var (
		cfg Config
		err error
	)

	if cfg.SplitFraction, err = parseFraction(opts.Fraction); err != nil {
		return Config{}, err
	}
	if cfg.MaxIterations, err = parseCount("maxIterations", opts.MaxIterations); err != nil {
		return Config{}, err
	}
	if cfg.BatchSize, err = parseCount("batchSize", opts.BatchSize); err != nil {
		return Config{}, err
	}
	if cfg.Verbose, err = parseVerbose(opts.Verbose); err != nil {
		return Config{}, err
	}
	if cfg.OutputPath, err = parseOutput(opts.Output); err != nil {
		return Config{}, err
	}
	if cfg.ExportPath, err = parseExportPath(opts.ExportPath); err != nil {
		return Config{}, err
	}
	if cfg.Toolkit, err = parseToolkit(opts.Toolkit); err != nil {
		return Config{}, err
	}
	if cfg.Seed, err = parseSeed(opts.Seed); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// parseFraction accepts a float strictly between 0 and 1. Surrounding
// whitespace is ignored, as Python's float() does.
func parseFraction(raw string) (float64, error) {
	invalid := &ValidationError{Option: "fraction", Message: "must be a value between 0.0 and 1.0!"}

	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) {
		return 0, invalid
	}
	if f <= 0 || f >= 1 {
		return 0, invalid
	}
	return f, nil
}

// parseCount parses a non-negative integer where 0 stands for "auto".
// Surrounding whitespace is ignored, as Python's int() does; verbose tokens
// are matched exactly.
func parseCount(option, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &ValidationError{Option: option, Message: "must be a valid integer value!"}
	}
	if n < 0 {
		return 0, &ValidationError{Option: option, Message: "must not be negative (use 0 for auto)!"}
	}
	return n, nil
}

// parseVerbose accepts true/yes and false/no. Matching is case sensitive.
func parseVerbose(raw string) (bool, error) {
	switch raw {
	case "true", "yes":
		return true, nil
	case "false", "no":
		return false, nil
	default:
		return false, &ValidationError{Option: "verbose", Message: "must either be true/yes or false/no."}
	}
}

func parseOutput(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", &ValidationError{Option: "output", Message: "must name a file to save the model to!"}
	}
	return raw, nil
}

func parseExportPath(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", &ValidationError{Option: "dataset", Message: "must name the exported dataset directory!"}
	}
	return raw, nil
}

func parseToolkit(raw string) (string, error) {
	for _, name := range Toolkits {
		if raw == name {
			return name, nil
		}
	}
	return "", &ValidationError{
		Option:  "toolkit",
		Message: fmt.Sprintf("must be one of %s.", strings.Join(Toolkits, ", ")),
	}
}

func parseSeed(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	seed, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, &ValidationError{Option: "seed", Message: "must be a valid integer value!"}
	}
	return seed, nil
}
