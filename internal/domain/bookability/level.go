package bookability

// Level thresholds. Legend is checked before the ascending cascade.
const (
	legendScore = MaxScore
	emergeScore = 20
	provenScore = 50
	proScore    = 80
)

// Level is a discrete career tier derived from the total score.
type Level struct {
	Number int    `json:"level"`
	Name   string `json:"level_name"`
}

var (
	levelBeginner = Level{Number: 1, Name: "Débutant"}
	levelEmerging = Level{Number: 2, Name: "Émergent"}
	levelProven   = Level{Number: 3, Name: "Confirmé"}
	levelPro      = Level{Number: 4, Name: "Pro"}
	levelLegend   = Level{Number: 5, Name: "Légende"}
)

// levelStep is one rung of the ascending cascade.
type levelStep struct {
	below int
	level Level
}

// cascade covers levels 1-3; level 4 is whatever remains under legendScore.
var cascade = []levelStep{
	{below: emergeScore, level: levelBeginner},
	{below: provenScore, level: levelEmerging},
	{below: proScore, level: levelProven},
}

// LevelFromScore classifies an already clamped total score.
func LevelFromScore(total int) Level {
	if total >= legendScore {
		return levelLegend
	}
	for _, step := range cascade {
		if total < step.below {
			return step.level
		}
	}
	return levelPro
}

// LevelBand describes the inclusive score range of a level.
type LevelBand struct {
	Level
	MinScore int `json:"min_score"`
	MaxScore int `json:"max_score"`
}

// Levels lists every level band from lowest to highest.
func Levels() []LevelBand {
	return []LevelBand{
		{Level: levelBeginner, MinScore: 0, MaxScore: emergeScore - 1},
		{Level: levelEmerging, MinScore: emergeScore, MaxScore: provenScore - 1},
		{Level: levelProven, MinScore: provenScore, MaxScore: proScore - 1},
		{Level: levelPro, MinScore: proScore, MaxScore: legendScore - 1},
		{Level: levelLegend, MinScore: legendScore, MaxScore: MaxScore},
	}
}

// Progress reports how far a score is from the next level.
type Progress struct {
	Current      Level `json:"current"`
	Next         Level `json:"next"`
	PointsToNext int   `json:"points_to_next"`
	Max          bool  `json:"max"`
}

// NextLevel returns the progress towards the level above total.
// At the top level Next equals Current and Max is set.
func NextLevel(total int) Progress {
	current := LevelFromScore(total)
	bands := Levels()
	for i, b := range bands {
		if b.Number != current.Number || i+1 >= len(bands) {
			continue
		}
		next := bands[i+1]
		return Progress{
			Current:      current,
			Next:         next.Level,
			PointsToNext: next.MinScore - total,
		}
	}
	return Progress{Current: current, Next: current, Max: true}
}
