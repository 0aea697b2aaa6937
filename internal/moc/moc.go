// Package moc builds IVOA multi-order coverage maps (MOC) for convex sky
// polygons.
package moc

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"go-fits-inspector/internal/healpix"
	"go-fits-inspector/internal/skycoord"
)

// DefaultMaxOrder matches the customary resolution for image footprints
// (about 3.4 arcmin cells).
const DefaultMaxOrder = 10

var (
	// ErrDegeneratePolygon indicates a polygon with no area or invalid vertices
	ErrDegeneratePolygon = errors.New("degenerate polygon")

	// ErrNotConvex indicates the polygon edges do not turn consistently
	ErrNotConvex = errors.New("polygon is not convex")
)

// Cell is one HEALPix cell of the coverage.
type Cell struct {
	Order int
	Index int64
}

// MOC is a normalized set of HEALPix cells.
type MOC struct {
	maxOrder int
	// ranges are half-open [start, end) intervals of nested indices at maxOrder,
	// sorted and non-overlapping.
	ranges [][2]int64
}

// MaxOrder returns the deepest order of the coverage.
func (m *MOC) MaxOrder() int {
	return m.maxOrder
}

// Empty reports whether the coverage contains no cells.
func (m *MOC) Empty() bool {
	return len(m.ranges) == 0
}

// Contains reports whether c falls inside a covered cell.
func (m *MOC) Contains(c skycoord.Coord) bool {
	p := healpix.Ang2Pix(m.maxOrder, c)
	i := sort.Search(len(m.ranges), func(i int) bool { return m.ranges[i][1] > p })
	return i < len(m.ranges) && m.ranges[i][0] <= p
}

// Cells returns the coverage as the minimal set of cells, ordered by order
// then index.
func (m *MOC) Cells() []Cell {
	var cells []Cell
	for _, r := range m.ranges {
		start, end := r[0], r[1]
		for start < end {
			k := 0
			for k < m.maxOrder {
				size := int64(1) << (2 * uint(k+1))
				if start%size != 0 || start+size > end {
					break
				}
				k++
			}
			cells = append(cells, Cell{Order: m.maxOrder - k, Index: start >> (2 * uint(k))})
			start += int64(1) << (2 * uint(k))
		}
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Order != cells[j].Order {
			return cells[i].Order < cells[j].Order
		}
		return cells[i].Index < cells[j].Index
	})
	return cells
}

// String serializes the coverage in the MOC ASCII notation, e.g.
// "9/12-14 10/60 63". The max order is always written, with an empty list
// when no cell reaches it ("9/12 10/").
func (m *MOC) String() string {
	cells := m.Cells()
	var b strings.Builder
	last := -1
	for i := 0; i < len(cells); {
		order := cells[i].Order
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(order))
		b.WriteByte('/')
		last = order

		first := true
		for i < len(cells) && cells[i].Order == order {
			j := i
			for j+1 < len(cells) && cells[j+1].Order == order && cells[j+1].Index == cells[j].Index+1 {
				j++
			}
			if !first {
				b.WriteByte(' ')
			}
			first = false
			b.WriteString(strconv.FormatInt(cells[i].Index, 10))
			if j > i {
				b.WriteByte('-')
				b.WriteString(strconv.FormatInt(cells[j].Index, 10))
			}
			i = j + 1
		}
	}
	if last != m.maxOrder {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(m.maxOrder))
		b.WriteByte('/')
	}
	return b.String()
}

// FromCells builds a normalized coverage from arbitrary cells at or above maxOrder.
func FromCells(maxOrder int, cells []Cell) (*MOC, error) {
	if maxOrder < 0 || maxOrder > healpix.MaxOrder {
		return nil, fmt.Errorf("max order %d out of range [0, %d]", maxOrder, healpix.MaxOrder)
	}
	ranges := make([][2]int64, 0, len(cells))
	for _, c := range cells {
		if c.Order > maxOrder {
			return nil, fmt.Errorf("cell order %d deeper than max order %d", c.Order, maxOrder)
		}
		shift := 2 * uint(maxOrder-c.Order)
		ranges = append(ranges, [2]int64{c.Index << shift, (c.Index + 1) << shift})
	}
	return &MOC{maxOrder: maxOrder, ranges: mergeRanges(ranges)}, nil
}

func mergeRanges(ranges [][2]int64) [][2]int64 {
	if len(ranges) == 0 {
		return nil
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i][0] < ranges[j][0] })
	out := [][2]int64{ranges[0]}
	for _, r := range ranges[1:] {
		last := &out[len(out)-1]
		if r[0] <= last[1] {
			if r[1] > last[1] {
				last[1] = r[1]
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// Polygon is a convex spherical polygon with great-circle edges.
type Polygon struct {
	vertices []skycoord.Vector
	normals  []skycoord.Vector
	centroid skycoord.Vector
}

// NewPolygon validates the vertices (any winding) and prepares edge normals.
func NewPolygon(coords []skycoord.Coord) (*Polygon, error) {
	if len(coords) < 3 {
		return nil, fmt.Errorf("%w: need at least 3 vertices, got %d", ErrDegeneratePolygon, len(coords))
	}

	p := &Polygon{vertices: make([]skycoord.Vector, len(coords))}
	var sum skycoord.Vector
	for i, c := range coords {
		if !c.Valid() {
			return nil, fmt.Errorf("%w: invalid vertex %v", ErrDegeneratePolygon, c)
		}
		v := c.ToVector()
		p.vertices[i] = v
		sum = skycoord.Vector{sum[0] + v[0], sum[1] + v[1], sum[2] + v[2]}
	}
	if math.Sqrt(sum.Dot(sum)) < 1e-12 {
		return nil, fmt.Errorf("%w: vertices have no common hemisphere", ErrDegeneratePolygon)
	}
	p.centroid = sum.Normalize()

	n := len(p.vertices)
	p.normals = make([]skycoord.Vector, n)
	orientation := 0.0
	for i := 0; i < n; i++ {
		nrm := p.vertices[i].Cross(p.vertices[(i+1)%n])
		if math.Sqrt(nrm.Dot(nrm)) < 1e-15 {
			return nil, fmt.Errorf("%w: repeated vertex at %d", ErrDegeneratePolygon, i)
		}
		s := nrm.Dot(p.centroid)
		switch {
		case math.Abs(s) < 1e-15:
			return nil, fmt.Errorf("%w: edge %d passes through the centroid", ErrDegeneratePolygon, i)
		case orientation == 0:
			orientation = math.Copysign(1, s)
		case math.Copysign(1, s) != orientation:
			return nil, ErrNotConvex
		}
		p.normals[i] = nrm
	}
	// Orient every normal towards the interior.
	if orientation < 0 {
		for i := range p.normals {
			p.normals[i] = skycoord.Vector{-p.normals[i][0], -p.normals[i][1], -p.normals[i][2]}
		}
	}
	return p, nil
}

// ContainsVector reports whether v lies inside or on the polygon.
func (p *Polygon) ContainsVector(v skycoord.Vector) bool {
	if v.Dot(p.centroid) <= 0 {
		return false
	}
	for _, nrm := range p.normals {
		if v.Dot(nrm) < -1e-15 {
			return false
		}
	}
	return true
}

// FromPolygon returns the cells at or above maxOrder overlapping the convex
// polygon traced by coords.
func FromPolygon(coords []skycoord.Coord, maxOrder int) (*MOC, error) {
	if maxOrder < 0 || maxOrder > healpix.MaxOrder {
		return nil, fmt.Errorf("max order %d out of range [0, %d]", maxOrder, healpix.MaxOrder)
	}
	poly, err := NewPolygon(coords)
	if err != nil {
		return nil, err
	}

	b := &builder{poly: poly, maxOrder: maxOrder, boundary: boundaryPixels(poly, maxOrder)}
	for base := int64(0); base < 12; base++ {
		b.visit(0, base)
	}
	return FromCells(maxOrder, b.cells)
}

type builder struct {
	poly     *Polygon
	maxOrder int
	// boundary holds sorted, de-duplicated maxOrder pixels crossed by the edges.
	boundary []int64
	cells    []Cell
}

func (b *builder) visit(order int, ipix int64) {
	inside := 0
	corners := healpix.Vertices(order, ipix)
	for _, v := range corners {
		if b.poly.ContainsVector(v) {
			inside++
		}
	}
	if b.poly.ContainsVector(healpix.Center(order, ipix)) {
		inside++
	}

	crossed := b.touchesBoundary(order, ipix)
	if inside == 5 && !crossed {
		b.cells = append(b.cells, Cell{Order: order, Index: ipix})
		return
	}
	if inside == 0 && !crossed {
		return
	}
	if order == b.maxOrder {
		b.cells = append(b.cells, Cell{Order: order, Index: ipix})
		return
	}
	for child := int64(0); child < 4; child++ {
		b.visit(order+1, ipix<<2|child)
	}
}

func (b *builder) touchesBoundary(order int, ipix int64) bool {
	shift := 2 * uint(b.maxOrder-order)
	lo, hi := ipix<<shift, (ipix+1)<<shift
	i := sort.Search(len(b.boundary), func(i int) bool { return b.boundary[i] >= lo })
	return i < len(b.boundary) && b.boundary[i] < hi
}

// boundaryPixels samples every edge densely enough that no maxOrder cell it
// crosses is skipped.
func boundaryPixels(p *Polygon, maxOrder int) []int64 {
	// Smallest HEALPix cell edge is about 0.5 of the mean cell size.
	cellSize := math.Sqrt(4*math.Pi/float64(healpix.NPix(maxOrder))) * 0.25

	seen := make(map[int64]struct{})
	n := len(p.vertices)
	for i := 0; i < n; i++ {
		a, c := p.vertices[i], p.vertices[(i+1)%n]
		if less(c, a) {
			a, c = c, a
		}
		angle := math.Acos(math.Max(-1, math.Min(1, a.Dot(c))))
		steps := int(math.Ceil(angle/cellSize)) + 1
		for s := 0; s <= steps; s++ {
			seen[healpix.Vec2Pix(maxOrder, slerp(a, c, angle, float64(s)/float64(steps)))] = struct{}{}
		}
	}

	out := make([]int64, 0, len(seen))
	for pix := range seen {
		out = append(out, pix)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// less orders vectors so an edge is sampled the same way for either winding.
func less(a, b skycoord.Vector) bool {
	for i := 0; i < 3; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func slerp(a, b skycoord.Vector, angle, t float64) skycoord.Vector {
	if angle < 1e-12 {
		return a
	}
	sa := math.Sin(angle)
	wa := math.Sin((1-t)*angle) / sa
	wb := math.Sin(t*angle) / sa
	return skycoord.Vector{wa*a[0] + wb*b[0], wa*a[1] + wb*b[1], wa*a[2] + wb*b[2]}.Normalize()
}
