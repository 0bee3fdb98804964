//go:build integration

package testutils

import (
	"slices"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// TestDataGenerator provides methods to create test data for integration tests
type TestDataGenerator struct {
	faker *gofakeit.Faker
	seed  int64
}

// NewTestDataGenerator creates a new test data generator with optional seed
func NewTestDataGenerator(seed ...int64) *TestDataGenerator {
	var s int64
	if len(seed) > 0 {
		s = seed[0]
	} else {
		s = time.Now().UnixNano()
	}

	return &TestDataGenerator{
		faker: gofakeit.New(uint64(s)),
		seed:  s,
	}
}

// Seed reports the seed so a failing run can be replayed.
func (g *TestDataGenerator) Seed() int64 { return g.seed }

// LevelInput is what AddLevel takes.
type LevelInput struct {
	Name    string
	Creator string
	Score   float64
}

// GenerateLevels returns count levels with distinct names and distinct scores.
func (g *TestDataGenerator) GenerateLevels(count int) []LevelInput {
	levels := make([]LevelInput, 0, count)
	names := make(map[string]struct{}, count)
	scores := make(map[float64]struct{}, count)

	for len(levels) < count {
		name := g.faker.HipsterWord() + " " + g.faker.Noun()
		score := g.faker.Float64Range(0.5, 500)
		if _, dup := names[name]; dup {
			continue
		}
		if _, dup := scores[score]; dup {
			continue
		}
		names[name] = struct{}{}
		scores[score] = struct{}{}
		levels = append(levels, LevelInput{
			Name:    name,
			Creator: g.faker.Username(),
			Score:   score,
		})
	}
	return levels
}

// GeneratePlayers returns count distinct lowercase player names.
func (g *TestDataGenerator) GeneratePlayers(count int) []string {
	players := make([]string, 0, count)
	for len(players) < count {
		name := g.faker.Letter() + g.faker.Numerify("####")
		if slices.Contains(players, name) {
			continue
		}
		players = append(players, name)
	}
	return players
}

// Percent returns a completion percentage, a full clear about a third of the time.
func (g *TestDataGenerator) Percent() float64 {
	if g.faker.Number(0, 2) == 0 {
		return 100
	}
	return float64(g.faker.Number(0, 99))
}
