package monitoring

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"
)

// TrainConfig controls the offline fit of the logistic classifier.
type TrainConfig struct {
	Samples      int
	Epochs       int
	LearningRate float64
	Seed         int64
}

// DefaultTrainConfig mirrors the original offline trainer: a thousand
// synthetic readings labelled by the canonical rule set.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Samples:      1000,
		Epochs:       500,
		LearningRate: 0.1,
		Seed:         42,
	}
}

// TrainModel fits a logistic regression on synthetic vitals labelled by the
// rule-based classifier, so the trained model and the fallback agree on
// intent. Returns the classifier and its accuracy on a held-out fifth of the
// data.
func TrainModel(cfg TrainConfig) (*LogisticClassifier, float64) {
	rng := rand.New(rand.NewSource(cfg.Seed))
	rules := RuleClassifier{}

	features := make([][3]float64, cfg.Samples)
	labels := make([]float64, cfg.Samples)
	// Sample the plausible ward range rather than the full clamp range so the
	// two classes are not hopelessly imbalanced.
	for i := range features {
		v := Vitals{
			HeartRate:   50 + rng.Float64()*90,
			Temperature: 35 + rng.Float64()*5,
			SpO2:        85 + rng.Float64()*15,
		}
		features[i] = [3]float64{v.HeartRate, v.Temperature, v.SpO2}
		labels[i] = float64(rules.Classify(v))
	}

	split := cfg.Samples * 4 / 5
	m := &LogisticClassifier{}

	// Standardize on the training split.
	for j := 0; j < 3; j++ {
		var sum float64
		for i := 0; i < split; i++ {
			sum += features[i][j]
		}
		m.Mean[j] = sum / float64(split)
		var sq float64
		for i := 0; i < split; i++ {
			d := features[i][j] - m.Mean[j]
			sq += d * d
		}
		m.Std[j] = math.Sqrt(sq / float64(split))
		if m.Std[j] == 0 {
			m.Std[j] = 1
		}
	}

	norm := func(f [3]float64) [3]float64 {
		var out [3]float64
		for j := range f {
			out[j] = (f[j] - m.Mean[j]) / m.Std[j]
		}
		return out
	}

	// Full-batch gradient descent on log loss.
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		var gBias float64
		var gW [3]float64
		for i := 0; i < split; i++ {
			x := norm(features[i])
			z := m.Bias
			for j := range x {
				z += m.Weights[j] * x[j]
			}
			err := sigmoid(z) - labels[i]
			gBias += err
			for j := range x {
				gW[j] += err * x[j]
			}
		}
		n := float64(split)
		m.Bias -= cfg.LearningRate * gBias / n
		for j := range gW {
			m.Weights[j] -= cfg.LearningRate * gW[j] / n
		}
	}

	var correct int
	for i := split; i < cfg.Samples; i++ {
		v := Vitals{HeartRate: features[i][0], Temperature: features[i][1], SpO2: features[i][2]}
		if float64(m.Classify(v)) == labels[i] {
			correct++
		}
	}
	accuracy := float64(correct) / float64(cfg.Samples-split)
	return m, accuracy
}

// SaveModel writes a trained classifier artifact to disk.
func SaveModel(m *LogisticClassifier, accuracy float64, path string) error {
	art := modelArtifact{
		Kind:       "logistic",
		TrainedAt:  time.Now().UTC().Format(time.RFC3339),
		Accuracy:   accuracy,
		Regression: *m,
	}
	data, err := json.MarshalIndent(art, "", "  ")
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write model %s: %w", path, err)
	}
	return nil
}
