// Package artifact loads the scorecard model documents produced by the
// offline training process and exposes them as an immutable handle.
package artifact

import (
	"fmt"
	"maps"
	"slices"
)

// Document file names.
const (
	SelectedVarsFile = "selected_vars.json"
	WoeMappingsFile  = "woe_mappings.json"
	CoefficientsFile = "coefficients.json"
	InterceptFile    = "intercept.json"
	ScoreParamsFile  = "score_params.json"
	VersionFile      = "version.json"

	DefaultModelVersion = "v1.0"
)

// ScoreParams defines the transform from WoE contributions to points.
type ScoreParams struct {
	PDO             float64 `json:"PDO" yaml:"PDO"`
	BaseScore       float64 `json:"BASE_SCORE" yaml:"BASE_SCORE"`
	BaseOdds        float64 `json:"BASE_ODDS" yaml:"BASE_ODDS"`
	Factor          float64 `json:"factor" yaml:"factor"`
	Offset          float64 `json:"offset" yaml:"offset"`
	InterceptPoints float64 `json:"intercept_points" yaml:"intercept_points"`
}

type VersionInfo struct {
	ModelVersion string `json:"model_version" yaml:"model_version"`
}

// Documents holds the parsed content of the model documents.
type Documents struct {
	SelectedVariables []string
	WoeMappings       map[string]map[string]float64
	Coefficients      map[string]float64
	Intercept         float64
	ScoreParams       ScoreParams
	// Version is nil when the version document or its model_version
	// field is absent. A present but empty model_version is kept.
	Version *VersionInfo
}

// Artifacts is the loaded model. It is safe for concurrent use; nothing
// mutates it after construction.
type Artifacts struct {
	location     string
	selected     []string
	woe          map[string]map[string]float64
	coefficients map[string]float64
	intercept    float64
	params       ScoreParams
	version      VersionInfo
}

// New validates docs and returns an Artifacts handle owning copies of them.
// location is reported by Location and used in error messages.
func New(location string, docs Documents) (*Artifacts, error) {
	for _, v := range docs.SelectedVariables {
		if _, ok := docs.Coefficients[v]; !ok {
			return nil, malformed(joinLocation(location, CoefficientsFile),
				fmt.Errorf("no coefficient for selected variable %q", v))
		}
	}

	woe := make(map[string]map[string]float64, len(docs.WoeMappings))
	for v, m := range docs.WoeMappings {
		woe[v] = maps.Clone(m)
	}

	version := VersionInfo{ModelVersion: DefaultModelVersion}
	if docs.Version != nil {
		version = *docs.Version
	}

	return &Artifacts{
		location:     location,
		selected:     slices.Clone(docs.SelectedVariables),
		woe:          woe,
		coefficients: maps.Clone(docs.Coefficients),
		intercept:    docs.Intercept,
		params:       docs.ScoreParams,
		version:      version,
	}, nil
}

// Location returns where the artifacts were loaded from.
func (a *Artifacts) Location() string {
	return a.location
}

// SelectedVariables returns a copy of the model variables in stored order.
func (a *Artifacts) SelectedVariables() []string {
	return slices.Clone(a.selected)
}

// Variables iterates the model variables in stored order without copying.
func (a *Artifacts) Variables(yield func(int, string) bool) {
	for i, v := range a.selected {
		if !yield(i, v) {
			return
		}
	}
}

func (a *Artifacts) NumVariables() int {
	return len(a.selected)
}

// WoE returns the weight of evidence for category of variable. Unknown
// variables and categories are neutral: 0 and false.
func (a *Artifacts) WoE(variable, category string) (float64, bool) {
	w, ok := a.woe[variable][category]
	return w, ok
}

// Coefficient returns the fitted coefficient of variable.
func (a *Artifacts) Coefficient(variable string) float64 {
	return a.coefficients[variable]
}

func (a *Artifacts) Intercept() float64 {
	return a.intercept
}

func (a *Artifacts) ScoreParams() ScoreParams {
	return a.params
}

func (a *Artifacts) Version() VersionInfo {
	return a.version
}

// Summary describes loaded artifacts.
type Summary struct {
	Location        string         `json:"artifacts_dir" yaml:"artifacts_dir"`
	ModelVersion    string         `json:"model_version" yaml:"model_version"`
	Variables       []string       `json:"selected_vars" yaml:"selected_vars"`
	Categories      map[string]int `json:"categories" yaml:"categories"`
	Intercept       float64        `json:"intercept" yaml:"intercept"`
	ScoreParams     ScoreParams    `json:"score_params" yaml:"score_params"`
	UnmappedSelects []string       `json:"unmapped_vars,omitempty" yaml:"unmapped_vars,omitempty"`
}

// Summary returns a report of the loaded model. Selected variables with no
// WoE table always contribute zero and are listed as unmapped.
func (a *Artifacts) Summary() *Summary {
	s := &Summary{
		Location:     a.location,
		ModelVersion: a.version.ModelVersion,
		Variables:    a.SelectedVariables(),
		Categories:   make(map[string]int, len(a.selected)),
		Intercept:    a.intercept,
		ScoreParams:  a.params,
	}
	for _, v := range a.selected {
		m, ok := a.woe[v]
		if !ok {
			s.UnmappedSelects = append(s.UnmappedSelects, v)
		}
		s.Categories[v] = len(m)
	}
	return s
}
