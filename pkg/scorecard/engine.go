// Package scorecard computes log-odds, fraud probability and points score
// for a client record against a loaded WoE logistic scorecard.
//
// log_odds = intercept + sum(coef_v * woe_v)
// score    = round(offset + intercept_points + sum(-coef_v * woe_v * factor))
//
// Missing values, unknown variables and unseen categories have woe_v = 0.
package scorecard

import (
	"math"
	"strconv"

	"github.com/mchmarny/scorecard/pkg/artifact"
	"github.com/mchmarny/scorecard/pkg/record"
)

// decimals is the precision of the reported probability and log-odds.
const decimals = 6

// Result is the scoring outcome for one client record.
type Result struct {
	Score            float64                 `json:"score" yaml:"score"`
	ProbabilityFraud float64                 `json:"probability_fraud" yaml:"probability_fraud"`
	LogOdds          float64                 `json:"log_odds" yaml:"log_odds"`
	UsedVariables    []string                `json:"used_variables" yaml:"used_variables"`
	InputsUsed       map[string]record.Value `json:"inputs_used" yaml:"inputs_used"`
}

// Evaluate scores rec, which must already be canonicalized.
func Evaluate(rec record.Record, a *artifact.Artifacts) *Result {
	z := LogOdds(rec, a)
	p := Sigmoid(z)

	inputs := make(map[string]record.Value, a.NumVariables())
	for _, v := range a.Variables {
		inputs[v] = rec.Get(v)
	}

	return &Result{
		Score:            Score(rec, a),
		ProbabilityFraud: Round(p, decimals),
		LogOdds:          Round(z, decimals),
		UsedVariables:    a.SelectedVariables(),
		InputsUsed:       inputs,
	}
}

// WoE returns the weight of evidence of variable for rec.
func WoE(rec record.Record, a *artifact.Artifacts, variable string) float64 {
	category, ok := rec.Get(variable).Category()
	if !ok {
		return 0
	}
	w, _ := a.WoE(variable, category)
	return w
}

// LogOdds returns the linear predictor for rec.
func LogOdds(rec record.Record, a *artifact.Artifacts) float64 {
	z := a.Intercept()
	for _, v := range a.Variables {
		// explicit conversion keeps the product from being fused into an FMA
		z += float64(a.Coefficient(v) * WoE(rec, a, v))
	}
	return z
}

// Sigmoid is the logistic function, evaluated so exp never overflows.
func Sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// Score returns the points score for rec, rounded half to even.
func Score(rec record.Record, a *artifact.Artifacts) float64 {
	p := a.ScoreParams()
	total := p.Offset + p.InterceptPoints
	for _, v := range a.Variables {
		total += float64(-a.Coefficient(v) * WoE(rec, a, v) * p.Factor)
	}
	return math.RoundToEven(total)
}

// Round returns x rounded to n decimal places using correctly rounded
// decimal conversion.
func Round(x float64, n int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', n, 64), 64)
	if err != nil {
		return x
	}
	return r
}
