// Package canon normalizes known spelling variants in client records so
// they match the categories the model was trained on.
package canon

import (
	"maps"

	"github.com/mchmarny/scorecard/pkg/record"
)

// MakeField is the only attribute canonicalized today.
const MakeField = "Make"

var makeSubstitutions = map[string]string{
	"Accura":  "Acura",
	"VW":      "Volkswagen",
	"Nisson":  "Nissan",
	"Porche":  "Porsche",
	"Mecedes": "Mercedes",
}

// MakeSubstitutions returns a copy of the misspelling to canonical name table.
func MakeSubstitutions() map[string]string {
	return maps.Clone(makeSubstitutions)
}

// Canonicalize returns a copy of rec with known Make misspellings replaced.
// Non-string values and unknown spellings pass through unchanged.
func Canonicalize(rec record.Record) record.Record {
	out := rec.Clone()

	s, ok := out.Get(MakeField).Str()
	if !ok {
		return out
	}

	if canonical, found := makeSubstitutions[s]; found {
		out[MakeField] = record.String(canonical)
	}
	return out
}
