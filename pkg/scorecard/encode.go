package scorecard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// inputKeys lists InputsUsed keys in UsedVariables order; keys not in
// UsedVariables follow in sorted order.
func (r *Result) inputKeys() []string {
	keys := make([]string, 0, len(r.InputsUsed))
	for _, v := range r.UsedVariables {
		if _, ok := r.InputsUsed[v]; ok && !slices.Contains(keys, v) {
			keys = append(keys, v)
		}
	}
	var rest []string
	for k := range r.InputsUsed {
		if !slices.Contains(keys, k) {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	return append(keys, rest...)
}

// InputsJSON encodes InputsUsed as a JSON object keyed in variable order.
func (r *Result) InputsJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range r.inputKeys() {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("encoding input name %q: %w", k, err)
		}
		vb, err := json.Marshal(r.InputsUsed[k])
		if err != nil {
			return nil, fmt.Errorf("encoding input %q: %w", k, err)
		}
		b.Write(kb)
		b.WriteByte(':')
		b.Write(vb)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func (r Result) MarshalJSON() ([]byte, error) {
	inputs, err := r.InputsJSON()
	if err != nil {
		return nil, err
	}

	type plain Result
	return json.Marshal(struct {
		plain
		InputsUsed json.RawMessage `json:"inputs_used"`
	}{
		plain:      plain(r),
		InputsUsed: inputs,
	})
}

func (r Result) MarshalYAML() (any, error) {
	inputs := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range r.inputKeys() {
		var v yaml.Node
		if err := v.Encode(r.InputsUsed[k]); err != nil {
			return nil, fmt.Errorf("encoding input %q: %w", k, err)
		}
		inputs.Content = append(inputs.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, &v)
	}

	return struct {
		Score            float64    `yaml:"score"`
		ProbabilityFraud float64    `yaml:"probability_fraud"`
		LogOdds          float64    `yaml:"log_odds"`
		UsedVariables    []string   `yaml:"used_variables"`
		InputsUsed       *yaml.Node `yaml:"inputs_used"`
	}{
		Score:            r.Score,
		ProbabilityFraud: r.ProbabilityFraud,
		LogOdds:          r.LogOdds,
		UsedVariables:    r.UsedVariables,
		InputsUsed:       inputs,
	}, nil
}
