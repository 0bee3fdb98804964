package demonlistdomain

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// OpKind is a single-record write against a tier store.
type OpKind string

const (
	OpInsert OpKind = "insert"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
)

// Reasons attached to planned operations.
const (
	ReasonNew    = "new"
	ReasonMove   = "move"
	ReasonRerank = "rerank"
	ReasonRemove = "remove"
	ReasonDedupe = "dedupe"
)

// StoreOp is one planned write. Insert carries the full level including progress,
// Update carries the recomputed scalar fields, Delete only needs Level.ID. Purge marks a
// delete that destroys the level rather than moving it.
type StoreOp struct {
	Kind   OpKind
	Tier   Tier
	Level  Level
	Reason string
	Purge  bool
}

func (op StoreOp) String() string {
	verb := map[OpKind]string{OpInsert: "insert into", OpUpdate: "update in", OpDelete: "delete from"}[op.Kind]
	return fmt.Sprintf("%s level %s (%q) %s %s", op.Reason, op.Level.ID, op.Level.Name, verb, op.Tier)
}

// Snapshot is the authoritative state loaded from both tier stores.
type Snapshot struct {
	Levels     []Level
	Placements map[uuid.UUID][]Tier
	Roster     Roster
}

// NewSnapshot merges both tier listings. A level present in both tiers (an interrupted
// move) is kept once, preferring the most recently updated copy; its placements keep
// both tiers so the next plan deletes the stale one. Every level gains zero progress for
// roster players it lacks.
func NewSnapshot(active, reserve []Level, roster Roster) Snapshot {
	snap := Snapshot{
		Placements: make(map[uuid.UUID][]Tier, len(active)+len(reserve)),
		Roster:     roster,
	}
	index := make(map[uuid.UUID]int, len(active)+len(reserve))

	add := func(tier Tier, levels []Level) {
		for _, l := range levels {
			l = l.Clone()
			l.Tier = tier
			roster.FillProgress(&l)
			if !slices.Contains(snap.Placements[l.ID], tier) {
				snap.Placements[l.ID] = append(snap.Placements[l.ID], tier)
			}
			if i, seen := index[l.ID]; seen {
				if l.UpdatedAt.After(snap.Levels[i].UpdatedAt) {
					snap.Levels[i] = l
				}
				continue
			}
			index[l.ID] = len(snap.Levels)
			snap.Levels = append(snap.Levels, l)
		}
	}
	add(TierActive, active)
	add(TierReserve, reserve)

	snap.Levels = CanonicalOrder(snap.Levels)
	return snap
}

// Find returns the level with id.
func (s Snapshot) Find(id uuid.UUID) (Level, bool) {
	for _, l := range s.Levels {
		if l.ID == id {
			return l, true
		}
	}
	return Level{}, false
}

// WithLevel returns the candidate set with level appended. The level gets zero progress for
// every roster player.
func (s Snapshot) WithLevel(level Level) []Level {
	level = level.Clone()
	level.Rank = 0
	level.Progress = nil
	s.Roster.FillProgress(&level)
	return append(s.candidates(), level)
}

// WithoutLevel returns the candidate set minus id along with the removed level.
func (s Snapshot) WithoutLevel(id uuid.UUID) ([]Level, Level, error) {
	removed, ok := s.Find(id)
	if !ok {
		return nil, Level{}, ErrNotFound
	}
	out := make([]Level, 0, len(s.Levels))
	for _, l := range s.Levels {
		if l.ID != id {
			out = append(out, l.Clone())
		}
	}
	return out, removed, nil
}

// WithScore returns the candidate set with id's difficulty score replaced.
func (s Snapshot) WithScore(id uuid.UUID, score float64) ([]Level, error) {
	if _, ok := s.Find(id); !ok {
		return nil, ErrNotFound
	}
	out := s.candidates()
	for i := range out {
		if out[i].ID == id {
			out[i].DifficultyScore = score
		}
	}
	return out, nil
}

func (s Snapshot) candidates() []Level {
	out := make([]Level, len(s.Levels))
	for i, l := range s.Levels {
		out[i] = l.Clone()
	}
	return out
}

// MigrationPlan is the recomputed list plus the ordered writes that persist it.
type MigrationPlan struct {
	Levels []Level
	Ops    []StoreOp
}

// Moves counts levels changing tier.
func (p MigrationPlan) Moves() int {
	n := 0
	for _, op := range p.Ops {
		if op.Kind == OpInsert && op.Reason == ReasonMove {
			n++
		}
	}
	return n
}

// MigrationCoordinator turns a candidate set into the writes that reconcile both tier stores.
type MigrationCoordinator struct {
	engine RankEngine
}

// NewMigrationCoordinator creates a coordinator ranking with engine.
func NewMigrationCoordinator(engine RankEngine) MigrationCoordinator {
	return MigrationCoordinator{engine: engine}
}

// Engine returns the coordinator's rank engine.
func (c MigrationCoordinator) Engine() RankEngine {
	return c.engine
}

// Plan recomputes candidate and diffs it against before.
//
// Levels that disappeared are deleted first. The remaining writes follow the new rank
// order: a level unknown to before is inserted into its tier; a level whose tier changed is
// inserted into the new tier (progress and locks copied verbatim) and then deleted from the
// old one; a level that kept its tier is updated only when its rank, points or score moved.
func (c MigrationCoordinator) Plan(before Snapshot, candidate []Level) MigrationPlan {
	after := c.engine.Recompute(candidate)

	kept := make(map[uuid.UUID]struct{}, len(after))
	for _, l := range after {
		kept[l.ID] = struct{}{}
	}

	var ops []StoreOp
	for _, prev := range before.Levels {
		if _, ok := kept[prev.ID]; ok {
			continue
		}
		for _, tier := range before.Placements[prev.ID] {
			ops = append(ops, StoreOp{Kind: OpDelete, Tier: tier, Level: prev, Reason: ReasonRemove, Purge: true})
		}
	}

	for _, next := range after {
		placed := before.Placements[next.ID]
		if len(placed) == 0 {
			ops = append(ops, StoreOp{Kind: OpInsert, Tier: next.Tier, Level: next, Reason: ReasonNew})
			continue
		}

		prev, _ := before.Find(next.ID)
		switch {
		case !slices.Contains(placed, next.Tier):
			ops = append(ops, StoreOp{Kind: OpInsert, Tier: next.Tier, Level: next, Reason: ReasonMove})
		case len(placed) > 1 || changed(prev, next):
			ops = append(ops, StoreOp{Kind: OpUpdate, Tier: next.Tier, Level: next, Reason: ReasonRerank})
		}

		for _, tier := range placed {
			if tier == next.Tier {
				continue
			}
			reason := ReasonMove
			if slices.Contains(placed, next.Tier) {
				reason = ReasonDedupe
			}
			ops = append(ops, StoreOp{Kind: OpDelete, Tier: tier, Level: next, Reason: reason})
		}
	}

	return MigrationPlan{Levels: after, Ops: ops}
}

func changed(prev, next Level) bool {
	return prev.Rank != next.Rank ||
		prev.PointValue != next.PointValue ||
		prev.DifficultyScore != next.DifficultyScore
}
