// Package turi trains object detectors with Apple's Turi Create.
//
// Turi Create is a Python library, so each step runs an embedded driver
// script under the configured interpreter:
//
//	python3 driver.py create   --data train.csv --model DIR ...
//	python3 driver.py evaluate --data test.csv  --model DIR
//	python3 driver.py export   --model DIR --output model.mlmodel
//
// Partitions are handed over as CSV files in the annotations.csv layout with
// absolute image paths. Evaluation prints one JSON object on its last line.
package turi
