package demonlistdomain

import (
	"cmp"
	"slices"
)

// Standing is one player's points across the list.
type Standing struct {
	Player  string  `json:"player"`
	Active  float64 `json:"active"`
	Reserve float64 `json:"reserve"`
	Banked  float64 `json:"banked"`
	// Current is what counts for the main list: Active plus Banked.
	Current float64 `json:"current"`
	Total   float64 `json:"total"`
}

// ComputeStandings totals every roster player, highest Total first, then by name.
func ComputeStandings(levels []Level, roster Roster, banked map[string]float64) []Standing {
	out := make([]Standing, 0, roster.Len())
	for _, p := range roster.Players() {
		s := Standing{
			Player:  p,
			Active:  TotalPoints(levels, p, ScopeActive),
			Reserve: TotalPoints(levels, p, ScopeReserve),
			Banked:  banked[p],
		}
		s.Current = s.Active + s.Banked
		s.Total = s.Active + s.Reserve + s.Banked
		out = append(out, s)
	}
	slices.SortStableFunc(out, func(a, b Standing) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Player, b.Player)
	})
	return out
}
