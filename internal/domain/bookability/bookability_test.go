package bookability_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/bookability/internal/domain/bookability"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
)

func TestInstagramScore(t *testing.T) {
	Convey("Given the Instagram follower table", t, func() {
		Convey("Then zero followers lands in the lowest band", func() {
			So(bookability.InstagramScore(0), ShouldEqual, 5)
		})

		Convey("Then boundaries belong to the upper band", func() {
			So(bookability.InstagramScore(999), ShouldEqual, 5)
			So(bookability.InstagramScore(1000), ShouldEqual, 10)
			So(bookability.InstagramScore(4999), ShouldEqual, 10)
			So(bookability.InstagramScore(5000), ShouldEqual, 20)
			So(bookability.InstagramScore(9999), ShouldEqual, 20)
			So(bookability.InstagramScore(10000), ShouldEqual, 30)
			So(bookability.InstagramScore(49999), ShouldEqual, 30)
			So(bookability.InstagramScore(50000), ShouldEqual, 40)
			So(bookability.InstagramScore(99999), ShouldEqual, 40)
			So(bookability.InstagramScore(100000), ShouldEqual, 50)
		})

		Convey("Then everything above the top threshold collapses to 50", func() {
			So(bookability.InstagramScore(2_500_000), ShouldEqual, 50)
			So(bookability.InstagramScore(math.MaxUint64), ShouldEqual, 50)
		})
	})
}

func TestSpotifyScore(t *testing.T) {
	Convey("Given the Spotify listener table", t, func() {
		Convey("Then the bottom band scores zero", func() {
			So(bookability.SpotifyScore(0), ShouldEqual, 0)
			So(bookability.SpotifyScore(999), ShouldEqual, 0)
		})

		Convey("Then boundaries belong to the upper band", func() {
			So(bookability.SpotifyScore(1000), ShouldEqual, 5)
			So(bookability.SpotifyScore(10000), ShouldEqual, 10)
			So(bookability.SpotifyScore(47000), ShouldEqual, 10)
			So(bookability.SpotifyScore(50000), ShouldEqual, 20)
			So(bookability.SpotifyScore(100000), ShouldEqual, 30)
			So(bookability.SpotifyScore(250000), ShouldEqual, 50)
			So(bookability.SpotifyScore(500000), ShouldEqual, 75)
			So(bookability.SpotifyScore(999999), ShouldEqual, 75)
		})

		Convey("Then a million listeners or more scores 100", func() {
			So(bookability.SpotifyScore(1_000_000), ShouldEqual, 100)
			So(bookability.SpotifyScore(math.MaxUint64), ShouldEqual, 100)
		})
	})
}

func TestSubScoresAreMonotonic(t *testing.T) {
	var prevIG, prevSP int
	for n := uint64(0); n <= 1_200_000; n += 250 {
		ig := bookability.InstagramScore(n)
		sp := bookability.SpotifyScore(n)
		assert.GreaterOrEqual(t, ig, prevIG, "instagram score decreased at %d", n)
		assert.GreaterOrEqual(t, sp, prevSP, "spotify score decreased at %d", n)
		prevIG, prevSP = ig, sp
	}
	assert.Equal(t, 50, prevIG)
	assert.Equal(t, 100, prevSP)
}

func TestTotalScore(t *testing.T) {
	Convey("Given two sub-scores", t, func() {
		Convey("Then the total is their sum below the cap", func() {
			So(bookability.TotalScore(5, 0), ShouldEqual, 5)
			So(bookability.TotalScore(50, 10), ShouldEqual, 60)
		})

		Convey("Then the total saturates at 100", func() {
			So(bookability.TotalScore(50, 100), ShouldEqual, 100)
			So(bookability.TotalScore(50, 50), ShouldEqual, 100)
		})
	})

	for ig := 0; ig <= 50; ig += 5 {
		for sp := 0; sp <= 100; sp += 5 {
			assert.Equal(t, min(ig+sp, 100), bookability.TotalScore(ig, sp))
		}
	}
}

func TestEvaluate(t *testing.T) {
	Convey("Given the dashboard example profile", t, func() {
		in := bookability.Input{InstagramFollowers: 2_500_000, SpotifyListeners: 47_000}

		Convey("When it is evaluated", func() {
			res := bookability.Evaluate(in)

			Convey("Then the sub-scores and total match the tables", func() {
				So(res.InstagramScore, ShouldEqual, 50)
				So(res.SpotifyScore, ShouldEqual, 10)
				So(res.TotalScore, ShouldEqual, 60)
				So(res.Level, ShouldEqual, 3)
				So(res.LevelName, ShouldEqual, "Confirmé")
			})

			Convey("And evaluating again yields an identical result", func() {
				So(bookability.Evaluate(in), ShouldResemble, res)
			})
		})
	})

	Convey("Given a brand new profile", t, func() {
		res := bookability.Evaluate(bookability.Input{})

		Convey("Then it scores the Instagram floor and level 1", func() {
			So(res.TotalScore, ShouldEqual, 5)
			So(res.Level, ShouldEqual, 1)
			So(res.LevelName, ShouldEqual, "Débutant")
		})
	})

	Convey("Given maxed out metrics", t, func() {
		res := bookability.Evaluate(bookability.Input{InstagramFollowers: math.MaxUint64, SpotifyListeners: math.MaxUint64})

		Convey("Then the total stays on the visible scale", func() {
			So(res.TotalScore, ShouldEqual, 100)
			So(res.Level, ShouldEqual, 5)
		})
	})
}

func TestNewInput(t *testing.T) {
	Convey("Given raw counts from the data layer", t, func() {
		Convey("When both are non-negative", func() {
			in, err := bookability.NewInput(1200, 0)

			Convey("Then the input is built", func() {
				So(err, ShouldBeNil)
				So(in.InstagramFollowers, ShouldEqual, 1200)
				So(in.SpotifyListeners, ShouldEqual, 0)
			})
		})

		Convey("When followers are negative", func() {
			_, err := bookability.NewInput(-1, 10)

			Convey("Then a negative count error is returned", func() {
				So(errors.Is(err, bookability.ErrNegativeCount), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "instagram")
			})
		})

		Convey("When listeners are negative", func() {
			_, err := bookability.NewInput(10, -5)

			Convey("Then a negative count error is returned", func() {
				So(errors.Is(err, bookability.ErrNegativeCount), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "spotify")
			})
		})
	})
}

func TestTablesAreCopies(t *testing.T) {
	tbl := bookability.InstagramTable()
	assert.Len(t, tbl.Bands, 5)
	tbl.Bands[0].Points = 999
	assert.Equal(t, 5, bookability.InstagramScore(0))

	sp := bookability.SpotifyTable()
	assert.Len(t, sp.Bands, 7)
	assert.Equal(t, 100, sp.Ceiling)
}
