package toolkit

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sjwhitworth/golearn/evaluation"
)

// Metrics summarise how a model did on a test partition. Backends fill in
// what they can measure and leave the rest zero.
type Metrics struct {
	// Samples is the number of annotations scored.
	Samples int `json:"samples"`

	// Classified is set when the backend classified every sample, so the
	// accuracy, precision, recall and IoU figures below were measured.
	Classified bool `json:"classified"`

	Accuracy       float64 `json:"accuracy"`
	MacroPrecision float64 `json:"macro_precision"`
	MacroRecall    float64 `json:"macro_recall"`

	// MeanIoU is the mean intersection over union of predicted and
	// ground-truth boxes.
	MeanIoU float64 `json:"mean_iou"`

	// MeanAveragePrecision is the mAP at IoU 0.5 reported by detectors that
	// compute it.
	MeanAveragePrecision float64 `json:"mean_average_precision"`

	// PerLabel holds one score per label: recall for classifiers, average
	// precision for detectors that report mAP.
	PerLabel map[string]float64 `json:"per_label,omitempty"`

	// Summary is a backend specific free text report.
	Summary string `json:"summary,omitempty"`
}

// MetricsFromConfusion derives classification metrics from a confusion
// matrix keyed by actual then predicted label. Undefined ratios, such as the
// precision of a label that was never predicted, are reported as zero.
func MetricsFromConfusion(cm evaluation.ConfusionMatrix) *Metrics {
	m := &Metrics{Classified: true, PerLabel: make(map[string]float64, len(cm))}
	var precision, recall float64
	for actual, row := range cm {
		for _, n := range row {
			m.Samples += n
		}
		r := finite(evaluation.GetRecall(actual, cm))
		m.PerLabel[actual] = r
		recall += r
		precision += finite(evaluation.GetPrecision(actual, cm))
	}
	if m.Samples == 0 {
		return m
	}

	m.Accuracy = finite(evaluation.GetAccuracy(cm))
	m.MacroPrecision = precision / float64(len(cm))
	m.MacroRecall = recall / float64(len(cm))
	m.Summary = evaluation.GetSummary(cm)
	return m
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// String renders the metrics as a short human readable report.
func (m *Metrics) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "samples:          %d\n", m.Samples)
	if m.Classified {
		fmt.Fprintf(&b, "accuracy:         %.4f\n", m.Accuracy)
		fmt.Fprintf(&b, "macro precision:  %.4f\n", m.MacroPrecision)
		fmt.Fprintf(&b, "macro recall:     %.4f\n", m.MacroRecall)
		fmt.Fprintf(&b, "mean IoU:         %.4f\n", m.MeanIoU)
	}
	if m.MeanAveragePrecision > 0 {
		fmt.Fprintf(&b, "mAP@0.5:          %.4f\n", m.MeanAveragePrecision)
	}

	if len(m.PerLabel) > 0 {
		labels := make([]string, 0, len(m.PerLabel))
		for l := range m.PerLabel {
			labels = append(labels, l)
		}
		sort.Strings(labels)

		b.WriteString("per label:\n")
		for _, l := range labels {
			fmt.Fprintf(&b, "  %-16s%.4f\n", l, m.PerLabel[l])
		}
	}

	if m.Summary != "" {
		b.WriteString("\n")
		b.WriteString(strings.TrimRight(m.Summary, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}
