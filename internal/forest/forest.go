package forest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"golang.org/x/mod/semver"
)

// SupportedMajor is the artifact format major version this package reads.
const SupportedMajor = "v1"

// Node is one node of a decision tree. Leaf is non-nil for terminal nodes.
type Node struct {
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Leaf      *int    `json:"leaf,omitempty"`
}

// Tree is a flat list of nodes rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Artifact is the serialized model.
type Artifact struct {
	FormatVersion string   `json:"format_version"`
	Features      []string `json:"features"`
	Classes       []string `json:"classes"`
	Trees         []Tree   `json:"trees"`
}

// Forest is a validated, read-only ensemble. It is safe for concurrent use.
type Forest struct {
	version  string
	features []string
	classes  []string
	trees    []Tree
}

// Schema is what the caller requires of an artifact.
type Schema struct {
	Features []string
	Classes  []string
}

// Load decodes and validates an artifact from r.
func Load(r io.Reader, want Schema) (*Forest, error) {
	var a Artifact
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return New(a, want)
}

// LoadFile reads the artifact at path.
func LoadFile(path string, want Schema) (*Forest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	fr, err := Load(f, want)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fr, nil
}

// New validates an in-memory artifact. The artifact's slices are copied.
func New(a Artifact, want Schema) (*Forest, error) {
	if !semver.IsValid(a.FormatVersion) {
		return nil, fmt.Errorf("invalid format_version %q", a.FormatVersion)
	}
	if major := semver.Major(a.FormatVersion); major != SupportedMajor {
		return nil, fmt.Errorf("unsupported format_version %s (want %s.x)", a.FormatVersion, SupportedMajor)
	}
	if !slices.Equal(a.Features, want.Features) {
		return nil, fmt.Errorf("feature order mismatch: artifact %v, expected %v", a.Features, want.Features)
	}
	if !slices.Equal(a.Classes, want.Classes) {
		return nil, fmt.Errorf("class labels mismatch: artifact %v, expected %v", a.Classes, want.Classes)
	}
	if len(a.Trees) == 0 {
		return nil, fmt.Errorf("artifact has no trees")
	}

	trees := make([]Tree, len(a.Trees))
	for i, t := range a.Trees {
		if err := validateTree(t, len(a.Features), len(a.Classes)); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		trees[i] = Tree{Nodes: slices.Clone(t.Nodes)}
	}

	return &Forest{
		version:  a.FormatVersion,
		features: slices.Clone(a.Features),
		classes:  slices.Clone(a.Classes),
		trees:    trees,
	}, nil
}

func validateTree(t Tree, nFeatures, nClasses int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("no nodes")
	}
	for i, n := range t.Nodes {
		if n.Leaf != nil {
			if *n.Leaf < 0 || *n.Leaf >= nClasses {
				return fmt.Errorf("node %d: leaf class %d out of range", i, *n.Leaf)
			}
			continue
		}
		if n.Feature < 0 || n.Feature >= nFeatures {
			return fmt.Errorf("node %d: feature %d out of range", i, n.Feature)
		}
		for _, child := range []int{n.Left, n.Right} {
			if child <= i || child >= len(t.Nodes) {
				return fmt.Errorf("node %d: child %d out of range", i, child)
			}
		}
	}
	return nil
}

// Version returns the artifact format version.
func (f *Forest) Version() string { return f.version }

// Features returns the feature order the forest was trained on.
func (f *Forest) Features() []string { return slices.Clone(f.features) }

// Classes returns the class labels indexed by class id.
func (f *Forest) Classes() []string { return slices.Clone(f.classes) }

// Size returns the number of trees.
func (f *Forest) Size() int { return len(f.trees) }

// Votes returns the number of trees voting for each class.
func (f *Forest) Votes(x []float64) []int {
	votes := make([]int, len(f.classes))
	for i := range f.trees {
		votes[f.trees[i].eval(x)]++
	}
	return votes
}

// Predict returns the majority class index. Ties go to the lowest index.
func (f *Forest) Predict(x []float64) int {
	return argmax(f.Votes(x))
}

// PredictProba returns the fraction of trees voting for each class.
func (f *Forest) PredictProba(x []float64) []float64 {
	votes := f.Votes(x)
	out := make([]float64, len(votes))
	n := float64(len(f.trees))
	for i, v := range votes {
		out[i] = float64(v) / n
	}
	return out
}

func (t *Tree) eval(x []float64) int {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Leaf != nil {
			return *n.Leaf
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

func argmax(v []int) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
