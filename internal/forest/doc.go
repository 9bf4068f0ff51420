// Package forest loads and evaluates an ensemble-of-decision-trees model
// exported from the offline training step.
//
// The artifact is a JSON document:
//
//	{
//	  "format_version": "v1.0.0",
//	  "features": ["heart_rate", "steps", "calories", "azm",
//	               "resting_hr", "hrv", "sleep_minutes", "sleep_efficiency"],
//	  "classes":  ["Low", "Moderate", "High"],
//	  "trees": [
//	    {"nodes": [
//	      {"feature": 5, "threshold": 40, "left": 1, "right": 2},
//	      {"leaf": 2},
//	      {"leaf": 0}
//	    ]}
//	  ]
//	}
//
// Node 0 is the root of each tree. A split node sends a sample left when
// x[feature] <= threshold and right otherwise. A node with "leaf" set is
// terminal and votes for that class index. Child indices must be strictly
// greater than their parent's index, which rules out cycles.
//
// The feature list is part of the contract: Load rejects an artifact whose
// features differ from the order the caller expects, because evaluating a
// vector in the wrong order yields silently wrong votes.
//
// The binary embeds a small hand-written 7-tree forest so the service starts
// without any download. It was not fit to data. Run `stresslens model pull` or
// pass --model with a trained export before trusting its predictions.
package forest
