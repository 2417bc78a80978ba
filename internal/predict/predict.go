// Package predict fits a small linear regression over per-match feature
// vectors and uses it to predict a player's rating. Map names are one-hot
// encoded; numeric features are standardized before fitting.
package predict

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/pable/cs-coach/internal/model"
	"github.com/pable/cs-coach/internal/rating"
)

var (
	// ErrNoModel is returned when predicting without a trained model.
	ErrNoModel = errors.New("no trained model")
	// ErrNoData is returned when Train is given no samples.
	ErrNoData = errors.New("no training data")
)

// Features is the input vector of one rated player-match.
type Features struct {
	KillsPerRound      float64
	DeathsPerRound     float64
	HeadshotPercentage float64 // 0..100
	AccuracyScore      float64 // 0..100
	UtilityScore       float64
	MapName            string
}

// FromMetrics builds a feature vector from a rating metric map.
func FromMetrics(metrics map[string]float64, mapName string) Features {
	return Features{
		KillsPerRound:      metrics[rating.KillsPerRound],
		DeathsPerRound:     metrics[rating.DeathsPerRound],
		HeadshotPercentage: metrics[rating.HeadshotFraction] * 100,
		AccuracyScore:      metrics[rating.AverageAccuracy] * 100,
		UtilityScore:       metrics[rating.UtilityScore],
		MapName:            mapName,
	}
}

// FromRecord builds a feature vector from a stored training record.
func FromRecord(r model.TrainingRecord) Features {
	return FromMetrics(r.Metrics, r.MapName)
}

func (f Features) numeric() []float64 {
	return []float64{f.KillsPerRound, f.DeathsPerRound, f.HeadshotPercentage, f.AccuracyScore, f.UtilityScore}
}

// Sample pairs a feature vector with its label.
type Sample struct {
	Features Features
	Label    float64
}

// TrainOptions controls the least-squares fit.
type TrainOptions struct {
	// Ridge is the L2 penalty on the feature and map weights. It keeps the
	// system solvable when a feature is constant or every sample shares one
	// map. The intercept is never penalized.
	Ridge float64
}

func (o TrainOptions) withDefaults() TrainOptions {
	if o.Ridge <= 0 {
		o.Ridge = 1e-6
	}
	return o
}

// Model is a fitted linear regression. It is safe for concurrent Predict calls.
type Model struct {
	Maps    []string  `json:"maps"`
	Means   []float64 `json:"means"`
	Scales  []float64 `json:"scales"`
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
	Samples int       `json:"samples"`
}

// Train fits a ridge-regularized least-squares model in closed form. The
// result depends only on the samples and options.
func Train(samples []Sample, opts TrainOptions) (*Model, error) {
	if len(samples) == 0 {
		return nil, ErrNoData
	}
	opts = opts.withDefaults()

	m := &Model{Samples: len(samples)}
	for _, s := range samples {
		if s.Features.MapName != "" && !slices.Contains(m.Maps, s.Features.MapName) {
			m.Maps = append(m.Maps, s.Features.MapName)
		}
	}
	slices.Sort(m.Maps)

	nNum := len(Features{}.numeric())
	m.Means = make([]float64, nNum)
	m.Scales = make([]float64, nNum)
	for _, s := range samples {
		for i, v := range s.Features.numeric() {
			m.Means[i] += v
		}
	}
	for i := range m.Means {
		m.Means[i] /= float64(len(samples))
	}
	for _, s := range samples {
		for i, v := range s.Features.numeric() {
			d := v - m.Means[i]
			m.Scales[i] += d * d
		}
	}
	for i := range m.Scales {
		m.Scales[i] = math.Sqrt(m.Scales[i] / float64(len(samples)))
		if m.Scales[i] == 0 {
			m.Scales[i] = 1
		}
	}

	// Columns are the weights followed by the intercept. The penalty is
	// applied by appending one sqrt(ridge) row per weight, which turns the
	// ridge problem into an ordinary least-squares one solved by QR.
	nw := nNum + len(m.Maps)
	cols := nw + 1
	rows := len(samples) + nw
	a := mat.NewDense(rows, cols, nil)
	b := mat.NewVecDense(rows, nil)
	for i, s := range samples {
		for j, v := range m.vector(s.Features) {
			a.Set(i, j, v)
		}
		a.Set(i, nw, 1)
		b.SetVec(i, s.Label)
	}
	penalty := math.Sqrt(opts.Ridge)
	for j := range nw {
		a.Set(len(samples)+j, j, penalty)
	}

	var w mat.VecDense
	if err := w.SolveVec(a, b); err != nil {
		return nil, fmt.Errorf("solve least squares: %w", err)
	}
	m.Weights = make([]float64, nw)
	for j := range m.Weights {
		m.Weights[j] = w.AtVec(j)
	}
	m.Bias = w.AtVec(nw)
	return m, nil
}

// vector standardizes the numeric features and appends the map one-hot block.
// Unseen maps encode as all zeros.
func (m *Model) vector(f Features) []float64 {
	num := f.numeric()
	x := make([]float64, len(num)+len(m.Maps))
	for i, v := range num {
		x[i] = (v - m.Means[i]) / m.Scales[i]
	}
	if i, ok := slices.BinarySearch(m.Maps, f.MapName); ok {
		x[len(num)+i] = 1
	}
	return x
}

func (m *Model) linear(x []float64) float64 {
	y := m.Bias
	for j, v := range x {
		y += m.Weights[j] * v
	}
	return y
}

// Predict returns the predicted rating clamped to [0, 100].
func (m *Model) Predict(f Features) (float64, error) {
	if m == nil {
		return 0, ErrNoModel
	}
	return math.Min(100, math.Max(0, m.linear(m.vector(f)))), nil
}

// Marshal serializes the model for storage.
func (m *Model) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Unmarshal restores a model written by Marshal.
func Unmarshal(blob []byte) (*Model, error) {
	if len(blob) == 0 {
		return nil, ErrNoModel
	}
	var m Model
	if err := json.Unmarshal(blob, &m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	n := len(Features{}.numeric())
	if len(m.Means) != n || len(m.Scales) != n || len(m.Weights) != n+len(m.Maps) {
		return nil, fmt.Errorf("decode model: inconsistent dimensions")
	}
	return &m, nil
}

// Samples turns stored training records into labelled samples.
func Samples(recs []model.TrainingRecord) []Sample {
	out := make([]Sample, 0, len(recs))
	for _, r := range recs {
		out = append(out, Sample{Features: FromRecord(r), Label: r.Rating})
	}
	return out
}

// Estimate returns the model's prediction, or base when no model is available.
// The bool reports whether the model was used.
func Estimate(m *Model, f Features, base float64) (float64, bool) {
	v, err := m.Predict(f)
	if err != nil {
		return base, false
	}
	return v, true
}
