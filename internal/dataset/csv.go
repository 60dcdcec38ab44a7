package dataset

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Column names of the annotations table.
const (
	ColumnPath        = "path"
	ColumnAnnotations = "annotations"
)

// maxLineSize bounds a single CSV line. A photo with a few hundred boxes
// easily exceeds bufio's 64KB default.
const maxLineSize = 16 * 1024 * 1024

// Record is one row of annotations.csv.
type Record struct {
	// Path is the image path relative to the export directory.
	Path string `json:"path"`

	// RawAnnotations is the annotations cell as written in the file.
	RawAnnotations string `json:"-"`

	// Annotations is the decoded annotations cell.
	Annotations []Annotation `json:"annotations"`
}

// ReadRecords parses an annotations table.
//
// The header must name a path and an annotations column. Annotate ML writes
// the annotations JSON without quoting it, so when annotations is the last
// column everything after the preceding separator belongs to it. A quoted
// cell is unquoted as usual. When annotations is not the last column each line
// must be a well formed CSV record. Blank lines are skipped.
func ReadRecords(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		header  []string
		pathIdx = -1
		annIdx  = -1
		records []Record
		lineNo  int
	)

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if header == nil {
			line = strings.TrimPrefix(line, "\ufeff")
			fields, err := csv.NewReader(strings.NewReader(line)).Read()
			if err != nil {
				return nil, errors.Wrap(err, "invalid header")
			}
			for i, name := range fields {
				switch strings.TrimSpace(name) {
				case ColumnPath:
					pathIdx = i
				case ColumnAnnotations:
					annIdx = i
				}
			}
			if pathIdx < 0 || annIdx < 0 {
				return nil, errors.Errorf("header %q must contain %q and %q columns", line, ColumnPath, ColumnAnnotations)
			}
			header = fields
			continue
		}

		var (
			fields []string
			err    error
		)
		if annIdx == len(header)-1 {
			fields, err = splitGreedy(line, len(header))
		} else {
			fields, err = splitStrict(line, len(header))
		}
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}

		rec := Record{
			Path:           strings.TrimSpace(fields[pathIdx]),
			RawAnnotations: fields[annIdx],
		}
		if rec.Path == "" {
			return nil, errors.Errorf("line %d: empty %s", lineNo, ColumnPath)
		}
		if rec.Annotations, err = ParseAnnotations(rec.RawAnnotations); err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read annotations table")
	}
	if header == nil {
		return nil, errors.New("annotations table is empty")
	}
	return records, nil
}

// splitGreedy reads n-1 CSV fields from the start of line and returns the
// remainder as the n-th field.
func splitGreedy(line string, n int) ([]string, error) {
	fields := make([]string, 0, n)
	rest := line
	for len(fields) < n-1 {
		field, tail, ok, err := nextField(rest)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.Errorf("expected %d fields, got %d", n, len(fields)+1)
		}
		fields = append(fields, field)
		rest = tail
	}

	last := rest
	if trimmed := strings.TrimSpace(last); len(trimmed) >= 2 && trimmed[0] == '"' && trimmed[len(trimmed)-1] == '"' {
		last = strings.ReplaceAll(trimmed[1:len(trimmed)-1], `""`, `"`)
	}
	return append(fields, last), nil
}

// nextField consumes one field and its trailing separator. ok is false when
// the line ends before a separator is found.
func nextField(s string) (field, rest string, ok bool, err error) {
	if strings.HasPrefix(s, `"`) {
		var b strings.Builder
		for i := 1; i < len(s); i++ {
			if s[i] != '"' {
				b.WriteByte(s[i])
				continue
			}
			if i+1 < len(s) && s[i+1] == '"' {
				b.WriteByte('"')
				i++
				continue
			}
			if i+1 == len(s) {
				return b.String(), "", false, nil
			}
			if s[i+1] != ',' {
				return "", "", false, errors.Errorf("unexpected %q after quoted field", s[i+1])
			}
			return b.String(), s[i+2:], true, nil
		}
		return "", "", false, errors.New("unterminated quoted field")
	}

	i := strings.IndexByte(s, ',')
	if i < 0 {
		return s, "", false, nil
	}
	return s[:i], s[i+1:], true, nil
}

func splitStrict(line string, n int) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(line))
	reader.FieldsPerRecord = n
	fields, err := reader.Read()
	if err != nil {
		return nil, err
	}
	return fields, nil
}

// WriteCSV writes records in the path,annotations layout. Cells are quoted
// where needed, so the output reads back with ReadRecords and with any CSV
// reader.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{ColumnPath, ColumnAnnotations}); err != nil {
		return errors.Wrap(err, "failed to write header")
	}

	for _, rec := range records {
		raw := rec.RawAnnotations
		if raw == "" {
			anns := rec.Annotations
			if anns == nil {
				anns = []Annotation{}
			}
			b, err := json.Marshal(anns)
			if err != nil {
				return errors.Wrapf(err, "failed to encode annotations of %s", rec.Path)
			}
			raw = string(b)
		}
		if err := cw.Write([]string{rec.Path, raw}); err != nil {
			return errors.Wrapf(err, "failed to write %s", rec.Path)
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "failed to flush annotations table")
}
