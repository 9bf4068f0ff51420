package stress

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"

	"github.com/abhisek/stresslens/internal/features"
	"github.com/abhisek/stresslens/internal/forest"
)

// defaultArtifact is a hand-written placeholder, not a trained model. It
// keeps the service usable until a real export is installed with
// `model pull` or --model.
//
//go:embed default_forest.json
var defaultArtifact []byte

// Result is the classifier's decision for one feature vector.
type Result struct {
	Class Class `json:"stress_level"`
	// Confidence is the share of trees voting for Class.
	Confidence float64 `json:"score"`
	// Probabilities holds the vote share per class, indexed by Class.
	Probabilities [NumClasses]float64 `json:"probabilities"`
}

// InferenceError is returned when the model fails while evaluating a vector.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed: %v", e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// Model is what the classifier needs from a loaded ensemble: the share of
// votes per class, indexed by Class.
type Model interface {
	PredictProba(x []float64) []float64
}

// Classifier maps feature vectors to stress classes. It holds no mutable
// state and is safe for concurrent use.
type Classifier struct {
	model Model
}

// Schema is the artifact contract every stress model must satisfy.
func Schema() forest.Schema {
	return forest.Schema{
		Features: features.Names(),
		Classes:  Labels(),
	}
}

// NewClassifier wraps an already-loaded model.
func NewClassifier(m Model) *Classifier {
	return &Classifier{model: m}
}

// LoadForest reads and validates an artifact against the stress schema.
func LoadForest(r io.Reader) (*forest.Forest, error) {
	return forest.Load(r, Schema())
}

// LoadForestFile reads the artifact at path, or the embedded default
// artifact when path is empty.
func LoadForestFile(path string) (*forest.Forest, error) {
	if path == "" {
		return DefaultForest()
	}
	return forest.LoadFile(path, Schema())
}

// DefaultForest loads the artifact embedded in the binary.
func DefaultForest() (*forest.Forest, error) {
	f, err := LoadForest(bytes.NewReader(defaultArtifact))
	if err != nil {
		return nil, fmt.Errorf("embedded model: %w", err)
	}
	return f, nil
}

// Predict classifies v. The vector is assumed valid; features.Parse is the
// only way to build one.
func (c *Classifier) Predict(v features.Vector) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{}
			err = &InferenceError{Err: fmt.Errorf("model panic: %v", r)}
		}
	}()

	proba := c.model.PredictProba(v.Values())
	if len(proba) != NumClasses {
		return Result{}, &InferenceError{Err: fmt.Errorf("model returned %d probabilities, want %d", len(proba), NumClasses)}
	}

	idx := argmax(proba)
	res = Result{Class: Class(idx), Confidence: proba[idx]}
	copy(res.Probabilities[:], proba)
	return res, nil
}

// argmax returns the index of the largest share. Ties go to the lower index,
// the less stressed class.
func argmax(p []float64) int {
	best := 0
	for i := 1; i < len(p); i++ {
		if p[i] > p[best] {
			best = i
		}
	}
	return best
}
