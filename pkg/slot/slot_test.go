package slot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairway/pkg/model"
)

func testPolicy() Policy {
	return Policy{
		9:  {Play: 135 * time.Minute, Charge: 30 * time.Minute},
		18: {Play: 270 * time.Minute, Charge: 60 * time.Minute},
	}
}

func at(hour, min int) time.Time {
	return time.Date(2025, 6, 14, hour, min, 0, 0, time.UTC)
}

func TestBlock(t *testing.T) {
	p := testPolicy()

	b := p.Block(at(10, 0), 18)
	assert.Equal(t, at(10, 0), b.Start)
	assert.Equal(t, at(15, 30), b.End, "18 holes occupies 270+60 minutes")

	b = p.Block(at(10, 0), 9)
	assert.Equal(t, at(12, 45), b.End, "9 holes occupies 135+30 minutes")
}

func TestBlockUnknownHoles(t *testing.T) {
	p := testPolicy()
	b := p.Block(at(10, 0), 27)
	assert.Equal(t, b.Start, b.End, "unknown hole count yields an empty interval")
	assert.False(t, b.Overlaps(p.Block(at(10, 0), 18)))
}

func TestConflictsAgainstExistingLongRental(t *testing.T) {
	p := testPolicy()
	existing := []*model.Rental{
		{CartID: 1, Holes: 18, StartTime: at(10, 0), Status: model.RentalStatusConfirmed},
	}

	// Existing block is 10:00-15:30. A 9-hole candidate at 15:00 runs
	// 15:00-17:45 and overlaps; one at exactly 15:30 does not.
	assert.True(t, Conflicts(p, at(15, 0), 9, existing))
	assert.False(t, Conflicts(p, at(15, 30), 9, existing), "half-open boundary: back-to-back rentals do not conflict")

	// Candidate ending exactly at the existing start is also fine.
	assert.False(t, Conflicts(p, at(7, 15), 9, existing), "9-hole block 07:15-10:00 touches but does not overlap")
	assert.True(t, Conflicts(p, at(7, 16), 9, existing))
}

func TestConflictsSymmetry(t *testing.T) {
	p := testPolicy()

	cases := []struct {
		aStart time.Time
		aHoles int
		bStart time.Time
		bHoles int
	}{
		{at(10, 0), 18, at(12, 0), 9},
		{at(10, 0), 9, at(12, 45), 9},
		{at(8, 0), 9, at(20, 0), 18},
		{at(9, 30), 18, at(9, 30), 18},
	}

	for _, tc := range cases {
		ab := Conflicts(p, tc.aStart, tc.aHoles, []*model.Rental{{StartTime: tc.bStart, Holes: tc.bHoles}})
		ba := Conflicts(p, tc.bStart, tc.bHoles, []*model.Rental{{StartTime: tc.aStart, Holes: tc.aHoles}})
		assert.Equal(t, ab, ba, "conflict check must be symmetric for %v/%d vs %v/%d", tc.aStart, tc.aHoles, tc.bStart, tc.bHoles)
	}
}

func TestConflictsEmptySet(t *testing.T) {
	assert.False(t, Conflicts(testPolicy(), at(10, 0), 18, nil))
}

func TestAvailableCartIDs(t *testing.T) {
	p := testPolicy()
	carts := []*model.Cart{
		{ID: 1, Name: "Blå 4", Status: model.CartStatusAvailable},
		{ID: 2, Name: "Blå 5", Status: model.CartStatusAvailable},
		{ID: 3, Name: "Grønn", Status: model.CartStatusOutOfOrder},
		{ID: 4, Name: "Hvit", Status: model.CartStatusRented},
	}
	rentalsByCart := map[int][]*model.Rental{
		1: {{CartID: 1, Holes: 18, StartTime: at(10, 0)}},
	}

	// 12:00 candidate collides with cart 1's block; cart 3 is out of order.
	// Cart 4's stored "rented" hint is ignored: it has no rentals on file.
	got := AvailableCartIDs(p, at(12, 0), 9, carts, rentalsByCart)
	assert.Equal(t, []int{2, 4}, got)

	// At 15:30 cart 1 is free again.
	got = AvailableCartIDs(p, at(15, 30), 9, carts, rentalsByCart)
	assert.Equal(t, []int{1, 2, 4}, got)
}

func TestProjectStates(t *testing.T) {
	p := testPolicy()
	cart := &model.Cart{ID: 1, Name: "Svart", Status: model.CartStatusAvailable}
	confirmed := []*model.Rental{
		{CartID: 1, Holes: 9, StartTime: at(10, 0), Status: model.RentalStatusConfirmed},
	}

	// 9 holes at 10:00: play ends 12:15, charge ends 12:45.
	assert.Equal(t, model.CartStateRented, Project(p, at(11, 0), cart, confirmed))
	assert.Equal(t, model.CartStateRented, Project(p, at(10, 0), cart, confirmed), "start instant is inside the block")
	assert.Equal(t, model.CartStateCharging, Project(p, at(12, 30), cart, confirmed))
	assert.Equal(t, model.CartStateAvailable, Project(p, at(12, 45), cart, confirmed), "block end is exclusive")
	assert.Equal(t, model.CartStateAvailable, Project(p, at(13, 0), cart, confirmed))
	assert.Equal(t, model.CartStateAvailable, Project(p, at(9, 59), cart, confirmed))
}

func TestProjectOutOfOrderOverrides(t *testing.T) {
	p := testPolicy()
	cart := &model.Cart{ID: 2, Name: "Grønn", Status: model.CartStatusOutOfOrder}
	confirmed := []*model.Rental{
		{CartID: 2, Holes: 18, StartTime: at(10, 0), Status: model.RentalStatusConfirmed},
	}

	assert.Equal(t, model.CartStateOutOfOrder, Project(p, at(11, 0), cart, confirmed))
}

func TestGroupByCart(t *testing.T) {
	rentals := []*model.Rental{
		{ID: "a", CartID: 1},
		{ID: "b", CartID: 2},
		{ID: "c", CartID: 1},
	}

	grouped := GroupByCart(rentals)
	require.Len(t, grouped, 2)
	assert.Len(t, grouped[1], 2)
	assert.Len(t, grouped[2], 1)
}
