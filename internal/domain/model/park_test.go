package model

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func intPtr(v int) *int { return &v }

func TestParkChanges(t *testing.T) {
	Convey("Given a park without history", t, func() {
		p := Park{ID: 1, Elo: 1500, Rank: 3}

		Convey("Then both changes are zero", func() {
			So(p.RankChange(), ShouldEqual, 0)
			So(p.EloChange(), ShouldEqual, 0)
		})

		Convey("When it moves from rank 5 to 3 and gains 16 points", func() {
			p.PreviousRank = intPtr(5)
			p.PreviousElo = intPtr(1484)

			Convey("Then it reports an upward move", func() {
				So(p.RankChange(), ShouldEqual, 2)
				So(p.EloChange(), ShouldEqual, 16)
			})
		})

		Convey("When it drops from rank 1", func() {
			p.PreviousRank = intPtr(1)

			Convey("Then the change is negative", func() {
				So(p.RankChange(), ShouldEqual, -2)
			})
		})
	})
}

func TestBallotValidate(t *testing.T) {
	Convey("Ballot validation", t, func() {
		So(Ballot{WinnerID: 1, LoserID: 2}.Validate(), ShouldBeNil)

		for _, b := range []Ballot{
			{WinnerID: 0, LoserID: 2},
			{WinnerID: 1, LoserID: -4},
			{WinnerID: 7, LoserID: 7},
		} {
			So(errors.Is(b.Validate(), ErrInvalidInput), ShouldBeTrue)
		}
	})
}

func TestErrorHelpers(t *testing.T) {
	Convey("ParkNotFound keeps the sentinel and the id", t, func() {
		err := ParkNotFound(42)
		So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "42")
	})
}
