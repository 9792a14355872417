package bookability_test

import (
	"testing"

	"github.com/okian/bookability/internal/domain/bookability"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
)

func TestLevelFromScore(t *testing.T) {
	Convey("Given total scores on level boundaries", t, func() {
		cases := []struct {
			score int
			level int
		}{
			{0, 1}, {19, 1}, {20, 2}, {49, 2}, {50, 3}, {79, 3}, {80, 4}, {99, 4}, {100, 5},
		}

		Convey("Then each maps to the expected level", func() {
			for _, c := range cases {
				So(bookability.LevelFromScore(c.score).Number, ShouldEqual, c.level)
			}
		})

		Convey("Then the extreme levels carry their names", func() {
			So(bookability.LevelFromScore(0).Name, ShouldEqual, "Débutant")
			So(bookability.LevelFromScore(100).Name, ShouldEqual, "Légende")
		})
	})
}

func TestLevelIsMonotonic(t *testing.T) {
	prev := 0
	for s := 0; s <= bookability.MaxScore; s++ {
		lvl := bookability.LevelFromScore(s).Number
		assert.GreaterOrEqual(t, lvl, prev, "level decreased at score %d", s)
		prev = lvl
	}
}

func TestLevelsCoverTheScale(t *testing.T) {
	bands := bookability.Levels()
	assert.Len(t, bands, 5)
	assert.Equal(t, 0, bands[0].MinScore)
	assert.Equal(t, bookability.MaxScore, bands[len(bands)-1].MaxScore)
	for i, b := range bands {
		assert.Equal(t, i+1, b.Number)
		assert.Equal(t, b.Number, bookability.LevelFromScore(b.MinScore).Number)
		assert.Equal(t, b.Number, bookability.LevelFromScore(b.MaxScore).Number)
		if i > 0 {
			assert.Equal(t, bands[i-1].MaxScore+1, b.MinScore)
		}
	}
}

func TestNextLevel(t *testing.T) {
	Convey("Given a score in the middle of level 2", t, func() {
		p := bookability.NextLevel(35)

		Convey("Then progress points at level 3", func() {
			So(p.Current.Number, ShouldEqual, 2)
			So(p.Next.Number, ShouldEqual, 3)
			So(p.PointsToNext, ShouldEqual, 15)
			So(p.Max, ShouldBeFalse)
		})
	})

	Convey("Given a score just under legend", t, func() {
		p := bookability.NextLevel(99)

		Convey("Then one point is missing", func() {
			So(p.Next.Name, ShouldEqual, "Légende")
			So(p.PointsToNext, ShouldEqual, 1)
		})
	})

	Convey("Given a legend score", t, func() {
		p := bookability.NextLevel(100)

		Convey("Then the progress is maxed", func() {
			So(p.Max, ShouldBeTrue)
			So(p.PointsToNext, ShouldEqual, 0)
			So(p.Next, ShouldResemble, p.Current)
		})
	})
}
