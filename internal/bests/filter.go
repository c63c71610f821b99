package bests

import "strings"

// Filter keeps the bests of the given kind whose name contains search,
// ignoring case. An empty kind or KindAll matches every type.
func Filter(pbs []PersonalBest, kind Kind, search string) []PersonalBest {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]PersonalBest, 0, len(pbs))
	for _, pb := range pbs {
		if kind != "" && kind != KindAll && pb.Type != kind {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(pb.Name), search) {
			continue
		}
		out = append(out, pb)
	}
	return out
}
