package dataset

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// createMLEntry is one element of a Create ML object detection
// annotations.json file.
type createMLEntry struct {
	Image       string       `json:"image"`
	Annotations []Annotation `json:"annotations"`
}

// ConvertCreateML reads a Create ML annotations.json document and returns
// the equivalent annotation records.
//
// Create ML already uses centre based coordinates. Files written by older
// Annotate ML builds stored the top-left corner instead; pass topLeft to
// shift those boxes to their centre.
func ConvertCreateML(r io.Reader, topLeft bool) ([]Record, error) {
	var entries []createMLEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, errors.Wrap(err, "invalid Create ML annotations")
	}

	records := make([]Record, 0, len(entries))
	for i, e := range entries {
		if e.Image == "" {
			return nil, errors.Errorf("entry %d has no image", i+1)
		}
		anns := make([]Annotation, 0, len(e.Annotations))
		for _, a := range e.Annotations {
			if topLeft {
				a.Coordinates = ToCentre(a.Coordinates, Size{}, Size{})
			}
			anns = append(anns, a)
		}
		records = append(records, Record{Path: e.Image, Annotations: anns})
	}
	return records, nil
}
