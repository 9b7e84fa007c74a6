package engine

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// containEps is how far a rectangle may touch the polygon boundary and
// still count as inside.
const containEps = 1e-9

// RectInRing reports whether rect lies inside the closed polygon ring.
// Touching the boundary is allowed; no polygon edge may pass through the
// rectangle's interior.
func RectInRing(ring orb.Ring, rect orb.Bound) bool {
	if len(ring) < 3 {
		return false
	}
	inner := orb.Bound{
		Min: orb.Point{rect.Min[0] + containEps, rect.Min[1] + containEps},
		Max: orb.Point{rect.Max[0] - containEps, rect.Max[1] - containEps},
	}
	if inner.Min[0] >= inner.Max[0] || inner.Min[1] >= inner.Max[1] {
		return false
	}

	rb := ring.Bound()
	if inner.Min[0] < rb.Min[0] || inner.Min[1] < rb.Min[1] ||
		inner.Max[0] > rb.Max[0] || inner.Max[1] > rb.Max[1] {
		return false
	}

	n := len(ring)
	for i := 0; i < n; i++ {
		if segmentCrossesOpenRect(ring[i], ring[(i+1)%n], inner) {
			return false
		}
	}

	return planar.RingContains(ring, rect.Center())
}

// segmentCrossesOpenRect clips a->b against the open rectangle with the
// Liang-Barsky parametrisation.
func segmentCrossesOpenRect(a, b orb.Point, r orb.Bound) bool {
	lo, hi := math.Inf(-1), math.Inf(1)
	for axis := 0; axis < 2; axis++ {
		d := b[axis] - a[axis]
		if d == 0 {
			if a[axis] <= r.Min[axis] || a[axis] >= r.Max[axis] {
				return false
			}
			continue
		}
		t1 := (r.Min[axis] - a[axis]) / d
		t2 := (r.Max[axis] - a[axis]) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		lo = math.Max(lo, t1)
		hi = math.Min(hi, t2)
	}
	return lo < hi && lo < 1 && hi > 0
}
