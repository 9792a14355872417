package bookability

// Band is one step of a score table. A count strictly below Below earns Points.
type Band struct {
	Below  uint64 `json:"below"`
	Points int    `json:"points"`
}

// Table is an ordered step function over a count. Bands are walked in
// ascending order and the first band whose Below exceeds the count wins;
// counts at or above the last boundary earn Ceiling.
type Table struct {
	Bands   []Band `json:"bands"`
	Ceiling int    `json:"ceiling"`
}

// Score walks the table and returns the points for n.
func (t Table) Score(n uint64) int {
	for _, b := range t.Bands {
		if n < b.Below {
			return b.Points
		}
	}
	return t.Ceiling
}

// clone returns a deep copy so callers cannot mutate the package tables.
func (t Table) clone() Table {
	bands := make([]Band, len(t.Bands))
	copy(bands, t.Bands)
	return Table{Bands: bands, Ceiling: t.Ceiling}
}

// Instagram followers: six bands from 5 up to 50 points.
var instagramTable = Table{
	Bands: []Band{
		{Below: 1_000, Points: 5},
		{Below: 5_000, Points: 10},
		{Below: 10_000, Points: 20},
		{Below: 50_000, Points: 30},
		{Below: 100_000, Points: 40},
	},
	Ceiling: 50,
}

// Spotify monthly listeners: eight bands from 0 up to 100 points.
// The bottom band is deliberately worth nothing.
var spotifyTable = Table{
	Bands: []Band{
		{Below: 1_000, Points: 0},
		{Below: 10_000, Points: 5},
		{Below: 50_000, Points: 10},
		{Below: 100_000, Points: 20},
		{Below: 250_000, Points: 30},
		{Below: 500_000, Points: 50},
		{Below: 1_000_000, Points: 75},
	},
	Ceiling: 100,
}

// InstagramTable returns a copy of the Instagram follower table.
func InstagramTable() Table { return instagramTable.clone() }

// SpotifyTable returns a copy of the Spotify listener table.
func SpotifyTable() Table { return spotifyTable.clone() }

// InstagramScore maps a follower count to its sub-score.
func InstagramScore(followers uint64) int {
	return instagramTable.Score(followers)
}

// SpotifyScore maps a monthly listener count to its sub-score.
func SpotifyScore(listeners uint64) int {
	return spotifyTable.Score(listeners)
}
