package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CopiesDocuments(t *testing.T) {
	docs := Documents{
		SelectedVariables: []string{"Make"},
		WoeMappings:       map[string]map[string]float64{"Make": {"Toyota": 0.5}},
		Coefficients:      map[string]float64{"Make": -1},
	}
	a, err := New("mem", docs)
	require.NoError(t, err)

	docs.SelectedVariables[0] = "Changed"
	docs.WoeMappings["Make"]["Toyota"] = 9
	docs.Coefficients["Make"] = 9

	assert.Equal(t, []string{"Make"}, a.SelectedVariables())
	w, _ := a.WoE("Make", "Toyota")
	assert.Equal(t, 0.5, w)
	assert.Equal(t, -1.0, a.Coefficient("Make"))

	vars := a.SelectedVariables()
	vars[0] = "Mutated"
	assert.Equal(t, []string{"Make"}, a.SelectedVariables())
}

func TestNew_MissingCoefficient(t *testing.T) {
	_, err := New("/models", Documents{SelectedVariables: []string{"Make"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedArtifact)
	assert.Contains(t, err.Error(), "/models/coefficients.json")
}

func TestArtifacts_Variables(t *testing.T) {
	a, err := New("mem", Documents{
		SelectedVariables: []string{"b", "a", "c"},
		Coefficients:      map[string]float64{"a": 1, "b": 2, "c": 3},
	})
	require.NoError(t, err)

	var got []string
	for _, v := range a.Variables {
		got = append(got, v)
	}
	assert.Equal(t, []string{"b", "a", "c"}, got)
}

func TestArtifacts_Summary(t *testing.T) {
	a, err := New("/models", Documents{
		SelectedVariables: []string{"Make", "Sex"},
		WoeMappings:       map[string]map[string]float64{"Make": {"Toyota": 0.5, "Honda": 0.1}},
		Coefficients:      map[string]float64{"Make": -1, "Sex": 2},
		Intercept:         0.25,
		Version:           &VersionInfo{ModelVersion: "v9"},
	})
	require.NoError(t, err)

	s := a.Summary()
	assert.Equal(t, "/models", s.Location)
	assert.Equal(t, "v9", s.ModelVersion)
	assert.Equal(t, []string{"Make", "Sex"}, s.Variables)
	assert.Equal(t, 2, s.Categories["Make"])
	assert.Equal(t, 0, s.Categories["Sex"])
	assert.Equal(t, []string{"Sex"}, s.UnmappedSelects)
	assert.Equal(t, 0.25, s.Intercept)
}

func TestNew_Version(t *testing.T) {
	docs := Documents{SelectedVariables: []string{"Make"}, Coefficients: map[string]float64{"Make": 1}}

	a, err := New("mem", docs)
	require.NoError(t, err)
	assert.Equal(t, DefaultModelVersion, a.Version().ModelVersion)

	docs.Version = &VersionInfo{}
	a, err = New("mem", docs)
	require.NoError(t, err)
	assert.Equal(t, "", a.Version().ModelVersion)
}

func TestError_Message(t *testing.T) {
	e := missing("/a/b.json", nil)
	assert.Equal(t, "missing artifact: /a/b.json", e.Error())
	assert.ErrorIs(t, e, ErrMissingArtifact)
}
