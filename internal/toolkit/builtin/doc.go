// Package builtin is an in-process detection backend that needs nothing but
// the Go binary.
//
// It is a baseline, not a localiser. Each annotated region is reduced to a
// feature vector (see imaging.Features) and a label classifier is trained as
// an ensemble of random forests, one per iteration, each fitted on a random
// batch of regions. Box sizes are predicted from the mean relative size of
// each label in the training partition, centred on the ground-truth box.
//
// Exported models are xz compressed JSON documents.
package builtin
