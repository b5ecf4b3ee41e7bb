package spatial

// Grid2D is a uniform grid over a fixed axis-aligned region, divided
// into Resolution[0] * Resolution[1] cells, each owning a resizable list
// of elements. Pos extracts an element's position for bucketing and
// query filtering.
type Grid2D[T any] struct {
	Bounds     Box2
	Resolution [2]int
	Pos        func(T) Vec2

	cellRatio Vec2
	cells     [][]T
	count     uint64
}

// NewGrid2D constructs a Grid2D. resolution must be at least 1 on both
// axes.
func NewGrid2D[T any](bounds Box2, resolution [2]int, pos func(T) Vec2) (*Grid2D[T], error) {
	if resolution[0] < 1 || resolution[1] < 1 {
		return nil, ErrInvalidResolution
	}

	diag := bounds.Diagonal()
	g := &Grid2D[T]{
		Bounds:     bounds,
		Resolution: resolution,
		Pos:        pos,
		cellRatio:  Vec2{float64(resolution[0]) / diag.X, float64(resolution[1]) / diag.Y},
		cells:      make([][]T, resolution[0]*resolution[1]),
	}
	return g, nil
}

func (g *Grid2D[T]) cellIndex(p Vec2) (int, bool) {
	if !insideBox2(p, g.Bounds) {
		return 0, false
	}
	rel := p.Sub(g.Bounds.Min)
	cx := clampInt(floorToInt(rel.X*g.cellRatio.X), 0, g.Resolution[0]-1)
	cy := clampInt(floorToInt(rel.Y*g.cellRatio.Y), 0, g.Resolution[1]-1)
	return cy*g.Resolution[0] + cx, true
}

func (g *Grid2D[T]) Size() uint64 { return g.count }

// Insert returns false iff the element's position lies outside Bounds.
func (g *Grid2D[T]) Insert(element T) bool {
	idx, ok := g.cellIndex(g.Pos(element))
	if !ok {
		return false
	}
	g.cells[idx] = append(g.cells[idx], element)
	g.count++
	return true
}

func (g *Grid2D[T]) Clear() {
	for i := range g.cells {
		g.cells[i] = nil
	}
	g.count = 0
}

func (g *Grid2D[T]) Rebuild() {
	snapshot := g.QueryAllValues(nil)
	g.Clear()
	for _, e := range snapshot {
		g.Insert(e)
	}
}

func (g *Grid2D[T]) cellRange(box Box2) (minX, minY, maxX, maxY int) {
	relMin := box.Min.Sub(g.Bounds.Min)
	relMax := box.Max.Sub(g.Bounds.Min)
	minX = clampInt(floorToInt(relMin.X*g.cellRatio.X), 0, g.Resolution[0]-1)
	minY = clampInt(floorToInt(relMin.Y*g.cellRatio.Y), 0, g.Resolution[1]-1)
	maxX = clampInt(floorToInt(relMax.X*g.cellRatio.X), 0, g.Resolution[0]-1)
	maxY = clampInt(floorToInt(relMax.Y*g.cellRatio.Y), 0, g.Resolution[1]-1)
	return
}

func (g *Grid2D[T]) QueryBox(box Box2, out []*T) []*T {
	minX, minY, maxX, maxY := g.cellRange(box)
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			cell := g.cells[y*g.Resolution[0]+x]
			for i := range cell {
				if insideBox2(g.Pos(cell[i]), box) {
					out = append(out, &cell[i])
				}
			}
		}
	}
	return out
}

func (g *Grid2D[T]) QueryBall(ball Ball2, out []*T) []*T {
	box := boundingBox2(ball)
	minX, minY, maxX, maxY := g.cellRange(box)
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			cell := g.cells[y*g.Resolution[0]+x]
			for i := range cell {
				if insideBall2(g.Pos(cell[i]), ball) {
					out = append(out, &cell[i])
				}
			}
		}
	}
	return out
}

func (g *Grid2D[T]) QueryAll(out []*T) []*T {
	for c := range g.cells {
		cell := g.cells[c]
		for i := range cell {
			out = append(out, &cell[i])
		}
	}
	return out
}

func (g *Grid2D[T]) QueryAllValues(out []T) []T {
	for _, cell := range g.cells {
		out = append(out, cell...)
	}
	return out
}
