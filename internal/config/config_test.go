package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 0.8, cfg.SplitFraction)
	assert.Equal(t, "model.mlmodel", cfg.OutputPath)
	assert.Equal(t, 0, cfg.MaxIterations)
	assert.Equal(t, 0, cfg.BatchSize)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, ".", cfg.ExportPath)
	assert.Equal(t, ToolkitBuiltin, cfg.Toolkit)
	assert.Equal(t, int64(0), cfg.Seed)
}

func TestParse_Fraction(t *testing.T) {
	tests := []struct {
		raw   string
		want  float64
		valid bool
	}{
		{"0.8", 0.8, true},
		{"0.5", 0.5, true},
		{"0.001", 0.001, true},
		{" 0.25 ", 0.25, true},
		{"0", 0, false},
		{"1", 0, false},
		{"1.0", 0, false},
		{"-0.2", 0, false},
		{"1.5", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"NaN", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Fraction = tt.raw

			cfg, err := Parse(opts)
			if !tt.valid {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, "fraction", verr.Option)
				assert.Equal(t, Config{}, cfg)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, cfg.SplitFraction, 1e-9)
		})
	}
}

func TestParse_Verbose(t *testing.T) {
	tests := []struct {
		raw   string
		want  bool
		valid bool
	}{
		{"true", true, true},
		{"yes", true, true},
		{"false", false, true},
		{"no", false, true},
		{"True", false, false},
		{"YES", false, false},
		{"1", false, false},
		{"", false, false},
		{"maybe", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Verbose = tt.raw

			cfg, err := Parse(opts)
			if !tt.valid {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, "verbose", verr.Option)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Verbose)
		})
	}
}

func TestParse_Counts(t *testing.T) {
	tests := []struct {
		name      string
		iter      string
		batch     string
		badOption string
	}{
		{"auto", "0", "0", ""},
		{"explicit", "120", "32", ""},
		{"float iterations", "1.5", "0", "maxIterations"},
		{"text iterations", "many", "0", "maxIterations"},
		{"negative iterations", "-1", "0", "maxIterations"},
		{"text batch", "0", "big", "batchSize"},
		{"negative batch", "10", "-4", "batchSize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.MaxIterations = tt.iter
			opts.BatchSize = tt.batch

			_, err := Parse(opts)
			if tt.badOption == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.badOption, verr.Option)
		})
	}
}

func TestParse_BatchSizeIsNotReadFromIterations(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxIterations = "7"
	opts.BatchSize = "3"

	cfg, err := Parse(opts)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxIterations)
	assert.Equal(t, 3, cfg.BatchSize)
}

func TestParse_OtherOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.Toolkit = "tensorflow"
	_, err := Parse(opts)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "toolkit", verr.Option)

	opts = DefaultOptions()
	opts.Output = " "
	_, err = Parse(opts)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "output", verr.Option)

	opts = DefaultOptions()
	opts.Seed = "x"
	_, err = Parse(opts)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "seed", verr.Option)

	opts = DefaultOptions()
	opts.Seed = "42"
	opts.Toolkit = ToolkitTuri
	cfg, err := Parse(opts)
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, ToolkitTuri, cfg.Toolkit)
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Option: "verbose", Message: "must either be true/yes or false/no."}
	assert.Equal(t, "Warning: --verbose must either be true/yes or false/no.", err.Error())
}

func TestParse_Whitespace(t *testing.T) {
	opts := DefaultOptions()
	opts.Fraction = " 0.5\t"
	opts.MaxIterations = " 7 "
	opts.BatchSize = "\n4"
	cfg, err := Parse(opts)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.SplitFraction)
	assert.Equal(t, 7, cfg.MaxIterations)
	assert.Equal(t, 4, cfg.BatchSize)

	opts = DefaultOptions()
	opts.Verbose = " true"
	_, err = Parse(opts)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "verbose", verr.Option)
}
