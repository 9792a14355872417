package loadgen

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/okian/bookability/internal/apiclient"
	"github.com/okian/bookability/internal/domain/bookability"
)

// Profile is an audience shape synthetic DJs are drawn from.
type Profile struct {
	Name         string
	MinFollowers uint64
	MaxFollowers uint64
	MinListeners uint64
	MaxListeners uint64
	Weight       int
}

// Profiles span every scoring band, weighted towards smaller audiences.
var Profiles = []Profile{
	{Name: "bedroom", MinFollowers: 0, MaxFollowers: 2_000, MinListeners: 0, MaxListeners: 5_000, Weight: 30},
	{Name: "local", MinFollowers: 1_000, MaxFollowers: 20_000, MinListeners: 1_000, MaxListeners: 60_000, Weight: 30},
	{Name: "rising", MinFollowers: 10_000, MaxFollowers: 80_000, MinListeners: 40_000, MaxListeners: 300_000, Weight: 20},
	{Name: "touring", MinFollowers: 50_000, MaxFollowers: 200_000, MinListeners: 200_000, MaxListeners: 1_200_000, Weight: 15},
	{Name: "headliner", MinFollowers: 100_000, MaxFollowers: 5_000_000, MinListeners: 1_000_000, MaxListeners: 20_000_000, Weight: 5},
}

// Plan is the snapshots generated for one DJ, oldest first.
type Plan struct {
	DJID      string
	Profile   string
	Snapshots []apiclient.SnapshotRequest
}

// Latest returns the newest snapshot and its locally computed result.
func (p Plan) Latest() (apiclient.SnapshotRequest, bookability.Result) {
	s := p.Snapshots[len(p.Snapshots)-1]
	return s, expected(s)
}

func expected(s apiclient.SnapshotRequest) bookability.Result {
	return bookability.Evaluate(bookability.Input{
		InstagramFollowers: uint64(s.InstagramFollowers), //nolint:gosec // generated non-negative
		SpotifyListeners:   uint64(s.SpotifyListeners),   //nolint:gosec // generated non-negative
	})
}

// Generator draws audiences from a seeded source; equal seeds give equal
// profiles and counts. Ids are always fresh.
type Generator struct {
	rng         *rand.Rand
	base        time.Time
	totalWeight int
}

// NewGenerator returns a generator whose snapshots are dated from base.
func NewGenerator(seed uint64, base time.Time) *Generator {
	total := 0
	for _, p := range Profiles {
		total += p.Weight
	}
	return &Generator{
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), //nolint:gosec // load shape, not secrets
		base:        base.UTC().Truncate(time.Second),
		totalWeight: total,
	}
}

// Plan draws a profile and n snapshots with ids from google/uuid. Each
// snapshot is an hour newer than the previous one.
func (g *Generator) Plan(n int) Plan {
	prof := g.profile()
	plan := Plan{
		DJID:      uuid.NewString(),
		Profile:   prof.Name,
		Snapshots: make([]apiclient.SnapshotRequest, n),
	}
	for i := range n {
		plan.Snapshots[i] = apiclient.SnapshotRequest{
			SnapshotID:         uuid.NewString(),
			DJID:               plan.DJID,
			InstagramFollowers: g.between(prof.MinFollowers, prof.MaxFollowers),
			SpotifyListeners:   g.between(prof.MinListeners, prof.MaxListeners),
			TakenAt:            g.base.Add(time.Duration(i) * time.Hour).Format(time.RFC3339),
		}
	}
	return plan
}

func (g *Generator) profile() Profile {
	r := g.rng.IntN(g.totalWeight)
	for _, p := range Profiles {
		if r < p.Weight {
			return p
		}
		r -= p.Weight
	}
	return Profiles[len(Profiles)-1]
}

func (g *Generator) between(lo, hi uint64) int64 {
	return int64(lo + g.rng.Uint64N(hi-lo+1)) //nolint:gosec // profile bounds fit in int64
}

// Shuffle permutes n items through swap, so newer snapshots may arrive first.
func (g *Generator) Shuffle(n int, swap func(i, j int)) {
	g.rng.Shuffle(n, swap)
}
