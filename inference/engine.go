package inference

import (
	"context"
	"fmt"
	"sort"

	"github.com/sathvikreddy369/sign-language/labels"
)

// Engine maps a decoded image to a probability vector over the label
// catalog. Implementations must be safe for concurrent use; each call owns
// its own input and output.
type Engine interface {
	Predict(ctx context.Context, image []byte) ([]float64, error)
}

type ClassScore struct {
	Label       string
	Probability float64
}

// Prediction is the interpreted output of one inference call.
type Prediction struct {
	Label      string
	Confidence float64
	Top        []ClassScore
}

// Interpret selects the arg-max class and the k highest-probability classes
// from a raw probability vector. Confidence is the raw arg-max probability,
// not renormalized. Ties go to the lowest class index.
func Interpret(probs []float64, k int) (*Prediction, error) {
	if len(probs) != labels.Count {
		return nil, fmt.Errorf("expected %d class probabilities, got %d", labels.Count, len(probs))
	}

	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}

	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return probs[idx[a]] > probs[idx[b]]
	})

	if k > len(idx) {
		k = len(idx)
	}
	top := make([]ClassScore, 0, k)
	for _, i := range idx[:k] {
		top = append(top, ClassScore{Label: labels.Catalog[i], Probability: probs[i]})
	}

	return &Prediction{
		Label:      labels.Catalog[best],
		Confidence: probs[best],
		Top:        top,
	}, nil
}

// TopMap returns the top classes as a label->probability mapping.
func (p *Prediction) TopMap() map[string]float64 {
	m := make(map[string]float64, len(p.Top))
	for _, s := range p.Top {
		m[s.Label] = s.Probability
	}
	return m
}
