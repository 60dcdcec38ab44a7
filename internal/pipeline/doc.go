// Package pipeline runs the two annotate-ml workflows: training a detector
// on an export directory, and visualising the export's ground truth.
package pipeline
