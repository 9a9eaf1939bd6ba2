package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"

	"github.com/ppiankov/llmmapper/internal/model"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	fieldReleaseDate = "Release Date"
	fieldSeason      = "Season"

	confidenceBase   = 0.90
	confidenceSpread = 0.05
)

// confidenceCeiling is the largest float64 below confidenceBase+confidenceSpread
var confidenceCeiling = math.Nextafter(confidenceBase+confidenceSpread, 0)

const recordsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {"type": "object"}
}`

var compiledRecordsSchema = jsonschema.MustCompileString("buysheet-records.json", recordsSchema)

// ParseError means extracted text was not a JSON array of objects
type ParseError struct {
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse records: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Normalizer turns extracted JSON text into output records
type Normalizer struct {
	schema *jsonschema.Schema
	rand   func() float64
}

// NewNormalizer creates a normalizer using the process-wide random source
func NewNormalizer() *Normalizer {
	return NewNormalizerWithRand(rand.Float64)
}

// NewNormalizerWithRand creates a normalizer drawing confidence noise from randFn,
// which must return values in [0, 1)
func NewNormalizerWithRand(randFn func() float64) *Normalizer {
	return &Normalizer{
		schema: compiledRecordsSchema,
		rand:   randFn,
	}
}

// Normalize parses text as an array of objects and projects each object onto a Record.
// Missing fields become nil. Any other keys are dropped.
func (n *Normalizer) Normalize(text string) ([]model.Record, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &ParseError{Text: text, Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &ParseError{Text: text, Err: fmt.Errorf("unexpected data after JSON array")}
	}

	if err := n.schema.Validate(doc); err != nil {
		return nil, &ParseError{Text: text, Err: err}
	}

	items := doc.([]any)
	records := make([]model.Record, 0, len(items))
	for _, item := range items {
		raw := item.(map[string]any)
		records = append(records, model.Record{
			ReleaseDate: raw[fieldReleaseDate],
			Season:      raw[fieldSeason],
			Confidence:  n.confidence(),
		})
	}

	return records, nil
}

func (n *Normalizer) confidence() float64 {
	c := confidenceBase + confidenceSpread*n.rand()
	return math.Min(c, confidenceCeiling)
}
