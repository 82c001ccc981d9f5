package ranking

import (
	"errors"
	"testing"

	"github.com/okian/parkrank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func park(id int64, elo, rank int) model.Park {
	return model.Park{ID: id, Elo: elo, Rank: rank}
}

func ids(parks []model.Park) []int64 {
	out := make([]int64, len(parks))
	for i, p := range parks {
		out[i] = p.ID
	}
	return out
}

func TestSort(t *testing.T) {
	Convey("Given parks with tied and distinct scores", t, func() {
		parks := []model.Park{park(4, 1500, 0), park(2, 1516, 0), park(1, 1500, 0), park(3, 1484, 0)}
		Sort(parks)

		Convey("Then order is elo desc with ties by id asc", func() {
			So(ids(parks), ShouldResemble, []int64{2, 1, 4, 3})
		})
	})
}

func TestReassign(t *testing.T) {
	Convey("Given parks after a vote moved park 3 to the top", t, func() {
		ordered := []model.Park{park(3, 1516, 3), park(1, 1500, 1), park(2, 1484, 2)}

		Convey("Then every displaced park gets a placement", func() {
			got := Reassign(ordered)
			So(got, ShouldResemble, []Placement{
				{ParkID: 3, Elo: 1516, Rank: 1},
				{ParkID: 1, Elo: 1500, Rank: 2},
				{ParkID: 2, Elo: 1484, Rank: 3},
			})
		})
	})

	Convey("Given parks already in place", t, func() {
		ordered := []model.Park{park(1, 1516, 1), park(2, 1500, 2)}

		Convey("Then nothing is reassigned", func() {
			So(Reassign(ordered), ShouldBeEmpty)
		})
	})

	Convey("Placements covers every park", t, func() {
		ordered := []model.Park{park(9, 1500, 1), park(5, 1500, 2)}
		So(Placements(ordered), ShouldResemble, []Placement{{ParkID: 9, Elo: 1500, Rank: 1}, {ParkID: 5, Elo: 1500, Rank: 2}})
	})
}

func TestVerify(t *testing.T) {
	Convey("Given a consistent ranking in arbitrary order", t, func() {
		parks := []model.Park{park(2, 1484, 3), park(1, 1516, 1), park(3, 1500, 2)}
		So(Verify(parks), ShouldBeNil)
	})

	Convey("Given a duplicated rank", t, func() {
		parks := []model.Park{park(1, 1516, 1), park(2, 1500, 1)}
		So(errors.Is(Verify(parks), ErrInconsistent), ShouldBeTrue)
	})

	Convey("Given a rank that contradicts the scores", t, func() {
		parks := []model.Park{park(1, 1484, 1), park(2, 1516, 2)}
		So(errors.Is(Verify(parks), ErrInconsistent), ShouldBeTrue)
	})

	Convey("Given a gap in the ranks", t, func() {
		parks := []model.Park{park(1, 1516, 1), park(2, 1500, 3)}
		So(errors.Is(Verify(parks), ErrInconsistent), ShouldBeTrue)
	})

	Convey("An empty ranking is consistent", t, func() {
		So(Verify(nil), ShouldBeNil)
	})
}
