package slot

import (
	"sort"
	"time"

	"fairway/pkg/model"
)

// Durations holds how long a cart is occupied for one hole count: the play
// time on the course plus the mandatory charge time afterwards.
type Durations struct {
	Play   time.Duration
	Charge time.Duration
}

func (d Durations) Total() time.Duration {
	return d.Play + d.Charge
}

// Policy maps a hole count (9 or 18 today) to its durations. It is injected
// from configuration and is the single source of truth for occupancy length;
// nothing else may hardcode play or charge times.
type Policy map[int]Durations

func (p Policy) Durations(holes int) (Durations, bool) {
	d, ok := p[holes]
	return d, ok
}

func (p Policy) Knows(holes int) bool {
	_, ok := p[holes]
	return ok
}

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps uses strict inequality on both ends, so an interval ending exactly
// when another starts does not overlap it.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && i.End.After(other.Start)
}

func (i Interval) Contains(at time.Time) bool {
	return !at.Before(i.Start) && at.Before(i.End)
}

// Block returns the full occupancy interval [start, start+play+charge) for a
// rental starting at start. An unknown hole count yields an empty interval;
// request validation rejects unknown counts before they reach interval math.
func (p Policy) Block(start time.Time, holes int) Interval {
	d, ok := p[holes]
	if !ok {
		return Interval{Start: start, End: start}
	}
	return Interval{Start: start, End: start.Add(d.Total())}
}

// PlayInterval returns [start, start+play), the on-course part of the block.
func (p Policy) PlayInterval(start time.Time, holes int) Interval {
	d, ok := p[holes]
	if !ok {
		return Interval{Start: start, End: start}
	}
	return Interval{Start: start, End: start.Add(d.Play)}
}

// Conflicts reports whether a candidate rental would overlap any of the given
// rentals on the same cart. Callers are responsible for passing confirmed
// rentals only; cancelled ones must already be filtered out.
func Conflicts(p Policy, start time.Time, holes int, existing []*model.Rental) bool {
	candidate := p.Block(start, holes)
	for _, r := range existing {
		if candidate.Overlaps(p.Block(r.StartTime, r.Holes)) {
			return true
		}
	}
	return false
}

// AvailableCartIDs returns the IDs of carts free for the candidate interval,
// sorted ascending. Out-of-order carts are excluded regardless of their
// rental state. The result is an advisory snapshot: a cart reported free can
// be claimed by a concurrent commit, so commit always re-validates.
func AvailableCartIDs(p Policy, start time.Time, holes int, carts []*model.Cart, rentalsByCart map[int][]*model.Rental) []int {
	ids := make([]int, 0, len(carts))
	for _, c := range carts {
		if c.Status == model.CartStatusOutOfOrder {
			continue
		}
		if Conflicts(p, start, holes, rentalsByCart[c.ID]) {
			continue
		}
		ids = append(ids, c.ID)
	}
	sort.Ints(ids)
	return ids
}

// Project derives the cart's state at the given instant from its confirmed
// rentals. The stored out_of_order status overrides the projection; the
// stored "rented" hint is never trusted. At most one rental can contain the
// instant because confirmed blocks are pairwise disjoint per cart.
func Project(p Policy, at time.Time, cart *model.Cart, confirmed []*model.Rental) string {
	if cart.Status == model.CartStatusOutOfOrder {
		return model.CartStateOutOfOrder
	}
	for _, r := range confirmed {
		if !p.Block(r.StartTime, r.Holes).Contains(at) {
			continue
		}
		if p.PlayInterval(r.StartTime, r.Holes).Contains(at) {
			return model.CartStateRented
		}
		return model.CartStateCharging
	}
	return model.CartStateAvailable
}

// GroupByCart buckets rentals by cart ID.
func GroupByCart(rentals []*model.Rental) map[int][]*model.Rental {
	grouped := make(map[int][]*model.Rental)
	for _, r := range rentals {
		grouped[r.CartID] = append(grouped[r.CartID], r)
	}
	return grouped
}
