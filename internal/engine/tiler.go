package engine

import "github.com/paulmach/orb"

// Tile places w x h rectangles on a first-fit grid anchored at the
// south-west corner of the bounding box of all regions. Rows advance
// northward and columns eastward by the rectangle size plus spacing. A
// rectangle is kept when it fits inside one of the regions. Rectangles are
// returned in row-major order.
func Tile(regions []orb.Ring, w, h, spacing float64) []orb.Bound {
	if len(regions) == 0 || w <= 0 || h <= 0 || spacing < 0 {
		return nil
	}

	var bound orb.Bound
	for i, r := range regions {
		if len(r) < 3 {
			return nil
		}
		if i == 0 {
			bound = r.Bound()
		} else {
			bound = bound.Union(r.Bound())
		}
	}

	var rects []orb.Bound
	for y := bound.Min[1]; y+h <= bound.Max[1]; y += h + spacing {
		for x := bound.Min[0]; x+w <= bound.Max[0]; x += w + spacing {
			rect := orb.Bound{
				Min: orb.Point{x, y},
				Max: orb.Point{x + w, y + h},
			}
			for _, r := range regions {
				if RectInRing(r, rect) {
					rects = append(rects, rect)
					break
				}
			}
		}
	}
	return rects
}
