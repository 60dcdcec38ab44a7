// Package config turns raw command-line option values into a validated
// training configuration.
//
// Every option is parsed by its own step. A step either yields a value or a
// *ValidationError naming the offending option; the command layer prints the
// error and exits with status 1. Defaults are exposed as constants so the CLI
// flags and the tests agree on them.
//
// Accepted values:
//   - fraction: float strictly between 0 and 1 (default 0.8)
//   - output: model file path (default "model.mlmodel")
//   - maxIterations, batchSize: non-negative integers, 0 = auto (default 0)
//   - verbose: "true"/"yes" or "false"/"no", case sensitive (default "true")
//   - dataset: export directory holding annotations.csv (default ".")
//   - toolkit: "builtin" or "turi" (default "builtin")
//   - seed: integer shuffle seed, 0 = clock (default 0)
package config
