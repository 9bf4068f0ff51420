package forest

// Stats summarizes the shape of a forest.
type Stats struct {
	Trees     int
	Nodes     int
	Leaves    int
	MaxDepth  int
	MeanDepth float64
	// FeatureSplits counts split nodes per feature index.
	FeatureSplits []int
}

// Stats walks every tree once.
func (f *Forest) Stats() Stats {
	s := Stats{
		Trees:         len(f.trees),
		FeatureSplits: make([]int, len(f.features)),
	}
	var depthSum int
	for i := range f.trees {
		d := f.trees[i].depth(0)
		depthSum += d
		if d > s.MaxDepth {
			s.MaxDepth = d
		}
		for _, n := range f.trees[i].Nodes {
			s.Nodes++
			if n.Leaf != nil {
				s.Leaves++
				continue
			}
			s.FeatureSplits[n.Feature]++
		}
	}
	if s.Trees > 0 {
		s.MeanDepth = float64(depthSum) / float64(s.Trees)
	}
	return s
}

// depth counts split levels below node i; a lone leaf has depth 0.
func (t *Tree) depth(i int) int {
	n := &t.Nodes[i]
	if n.Leaf != nil {
		return 0
	}
	return 1 + max(t.depth(n.Left), t.depth(n.Right))
}
