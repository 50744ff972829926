package core

import (
	"fmt"
	"sort"
	"strings"
)

// ImportPolicy decides how an imported collection meets the existing one.
type ImportPolicy string

const (
	PolicyMerge   ImportPolicy = "merge"
	PolicyReplace ImportPolicy = "replace"
)

// ParsePolicy accepts "merge" (the default when empty) or "replace".
func ParsePolicy(s string) (ImportPolicy, error) {
	switch ImportPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyMerge:
		return PolicyMerge, nil
	case PolicyReplace:
		return PolicyReplace, nil
	default:
		return "", fmt.Errorf("unknown import policy %q", s)
	}
}

// PastTense is used in user messages: "merged" or "replaced".
func (p ImportPolicy) PastTense() string {
	if p == PolicyReplace {
		return "replaced"
	}
	return "merged"
}

// Reconcile applies the policy.
func Reconcile(existing, incoming Collection, p ImportPolicy) Collection {
	if p == PolicyReplace {
		return Replace(existing, incoming)
	}
	return Merge(existing, incoming)
}

// Merge unions existing and incoming by id, incoming winning on collision.
// The result is sorted by date descending; equal dates order by id descending.
func Merge(existing, incoming Collection) Collection {
	byID := make(map[string]Transaction, len(existing)+len(incoming))
	for _, t := range existing {
		byID[t.ID] = t
	}
	for _, t := range incoming {
		byID[t.ID] = t
	}
	out := make(Collection, 0, len(byID))
	for _, t := range byID {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// Replace discards existing in favor of incoming.
func Replace(_, incoming Collection) Collection {
	return incoming.Clone()
}
