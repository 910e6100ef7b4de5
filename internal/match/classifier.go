package match

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

var (
	// ErrDegenerateModel is returned when training yields unusable weights
	ErrDegenerateModel = errors.New("degenerate model")
	// ErrNoTrainingData is returned when there are no positive or no
	// negative examples to fit
	ErrNoTrainingData = errors.New("no training data")
)

// Classifier learns match probabilities from labelled comparison vectors
type Classifier interface {
	Train(vectors []Vector, labels []bool) error
	Score(vectors []Vector) ([]float64, error)
}

// LogisticRegression is a class-balanced, L2-regularized logistic
// regression fitted by full-batch gradient descent. Its only randomness is
// the weight initialization, drawn from the given seed.
type LogisticRegression struct {
	Seed         int64
	Epochs       int
	LearningRate float64
	L2           float64

	weights []float64 // Last element is the bias
}

// NewLogisticRegression creates an untrained model
func NewLogisticRegression(seed int64, epochs int, learningRate, l2 float64) *LogisticRegression {
	return &LogisticRegression{Seed: seed, Epochs: epochs, LearningRate: learningRate, L2: l2}
}

// Weights returns a copy of the fitted weights, bias last
func (m *LogisticRegression) Weights() []float64 {
	out := make([]float64, len(m.weights))
	copy(out, m.weights)
	return out
}

func (m *LogisticRegression) Train(vectors []Vector, labels []bool) error {
	if len(vectors) != len(labels) {
		return fmt.Errorf("%d vectors but %d labels", len(vectors), len(labels))
	}

	positives := 0
	for _, l := range labels {
		if l {
			positives++
		}
	}
	negatives := len(labels) - positives
	if positives == 0 || negatives == 0 {
		return fmt.Errorf("%w: %d positive and %d negative examples", ErrNoTrainingData, positives, negatives)
	}

	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("vector %d has %d values, want %d", i, len(v), dim)
		}
	}

	// Each class carries half of the total weight
	posWeight := float64(len(labels)) / (2 * float64(positives))
	negWeight := float64(len(labels)) / (2 * float64(negatives))

	rng := rand.New(rand.NewSource(m.Seed))
	w := make([]float64, dim+1)
	for i := range w {
		w[i] = rng.NormFloat64() * 0.01
	}

	epochs := m.Epochs
	if epochs <= 0 {
		epochs = 200
	}
	grad := make([]float64, dim+1)
	n := float64(len(vectors))

	for epoch := 0; epoch < epochs; epoch++ {
		for i := range grad {
			grad[i] = 0
		}
		for i, v := range vectors {
			y, cw := 0.0, negWeight
			if labels[i] {
				y, cw = 1, posWeight
			}
			diff := cw * (sigmoid(dot(w, v)) - y)
			for j, x := range v {
				grad[j] += diff * x
			}
			grad[dim] += diff
		}
		for j := range w {
			g := grad[j] / n
			if j < dim {
				g += m.L2 * w[j]
			}
			w[j] -= m.LearningRate * g
		}
	}

	if degenerate(w) {
		return fmt.Errorf("%w: weights %v", ErrDegenerateModel, w)
	}
	m.weights = w
	return nil
}

func (m *LogisticRegression) Score(vectors []Vector) ([]float64, error) {
	if m.weights == nil {
		return nil, errors.New("model is not trained")
	}
	out := make([]float64, len(vectors))
	for i, v := range vectors {
		if len(v)+1 != len(m.weights) {
			return nil, fmt.Errorf("vector %d has %d values, want %d", i, len(v), len(m.weights)-1)
		}
		out[i] = sigmoid(dot(m.weights, v))
	}
	return out, nil
}

// dot includes the bias stored after the feature weights
func dot(w []float64, v Vector) float64 {
	sum := w[len(v)]
	for i, x := range v {
		sum += w[i] * x
	}
	return sum
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func degenerate(w []float64) bool {
	allZero := true
	for i, x := range w {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return true
		}
		if i < len(w)-1 && math.Abs(x) > 1e-9 {
			allZero = false
		}
	}
	return allZero
}
