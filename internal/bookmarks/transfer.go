package bookmarks

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var importSchema string

// ErrInvalidImport is returned for bookmark files that do not carry all four
// id arrays.
var ErrInvalidImport = errors.New("invalid bookmark file format")

var schemaLoader = gojsonschema.NewStringLoader(importSchema)

// DecodeImport validates payload against the export schema and decodes it.
func DecodeImport(payload []byte) (State, error) {
	if !json.Valid(payload) {
		return State{}, fmt.Errorf("%w: file is not valid JSON", ErrInvalidImport)
	}

	res, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return State{}, fmt.Errorf("%w: %s", ErrInvalidImport, strings.Join(msgs, "; "))
	}

	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	return state, nil
}

// EncodeExport renders state the way export files are written.
func EncodeExport(state State) ([]byte, error) {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("bookmarks: encode export: %w", err)
	}
	return data, nil
}

// ExportFileName names an export written at now.
func ExportFileName(now time.Time) string {
	return "conference-bookmarks-" + now.Format("2006-01-02") + ".json"
}
