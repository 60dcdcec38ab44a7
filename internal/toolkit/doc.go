// Package toolkit defines the capabilities the pipeline needs from a machine
// learning backend: creating a detector from a training partition, evaluating
// it, exporting it, drawing ground truth and exploring a dataset.
//
// Backends live in sub-packages. builtin trains in-process; turi drives an
// external Turi Create installation.
package toolkit
