package spatial

// Grid3D is the 3D analogue of Grid2D.
type Grid3D[T any] struct {
	Bounds     Box3
	Resolution [3]int
	Pos        func(T) Vec3

	cellRatio Vec3
	cells     [][]T
	count     uint64
}

// NewGrid3D constructs a Grid3D. resolution must be at least 1 on every
// axis.
func NewGrid3D[T any](bounds Box3, resolution [3]int, pos func(T) Vec3) (*Grid3D[T], error) {
	if resolution[0] < 1 || resolution[1] < 1 || resolution[2] < 1 {
		return nil, ErrInvalidResolution
	}

	diag := bounds.Diagonal()
	g := &Grid3D[T]{
		Bounds:     bounds,
		Resolution: resolution,
		Pos:        pos,
		cellRatio: Vec3{
			float64(resolution[0]) / diag.X,
			float64(resolution[1]) / diag.Y,
			float64(resolution[2]) / diag.Z,
		},
		cells: make([][]T, resolution[0]*resolution[1]*resolution[2]),
	}
	return g, nil
}

func (g *Grid3D[T]) index(cx, cy, cz int) int {
	return (cz*g.Resolution[1]+cy)*g.Resolution[0] + cx
}

func (g *Grid3D[T]) cellIndex(p Vec3) (int, bool) {
	if !insideBox3(p, g.Bounds) {
		return 0, false
	}
	rel := p.Sub(g.Bounds.Min)
	cx := clampInt(floorToInt(rel.X*g.cellRatio.X), 0, g.Resolution[0]-1)
	cy := clampInt(floorToInt(rel.Y*g.cellRatio.Y), 0, g.Resolution[1]-1)
	cz := clampInt(floorToInt(rel.Z*g.cellRatio.Z), 0, g.Resolution[2]-1)
	return g.index(cx, cy, cz), true
}

func (g *Grid3D[T]) Size() uint64 { return g.count }

func (g *Grid3D[T]) Insert(element T) bool {
	idx, ok := g.cellIndex(g.Pos(element))
	if !ok {
		return false
	}
	g.cells[idx] = append(g.cells[idx], element)
	g.count++
	return true
}

func (g *Grid3D[T]) Clear() {
	for i := range g.cells {
		g.cells[i] = nil
	}
	g.count = 0
}

func (g *Grid3D[T]) Rebuild() {
	snapshot := g.QueryAllValues(nil)
	g.Clear()
	for _, e := range snapshot {
		g.Insert(e)
	}
}

func (g *Grid3D[T]) cellRange(box Box3) (min, max [3]int) {
	relMin := box.Min.Sub(g.Bounds.Min)
	relMax := box.Max.Sub(g.Bounds.Min)
	min = [3]int{
		clampInt(floorToInt(relMin.X*g.cellRatio.X), 0, g.Resolution[0]-1),
		clampInt(floorToInt(relMin.Y*g.cellRatio.Y), 0, g.Resolution[1]-1),
		clampInt(floorToInt(relMin.Z*g.cellRatio.Z), 0, g.Resolution[2]-1),
	}
	max = [3]int{
		clampInt(floorToInt(relMax.X*g.cellRatio.X), 0, g.Resolution[0]-1),
		clampInt(floorToInt(relMax.Y*g.cellRatio.Y), 0, g.Resolution[1]-1),
		clampInt(floorToInt(relMax.Z*g.cellRatio.Z), 0, g.Resolution[2]-1),
	}
	return
}

func (g *Grid3D[T]) QueryBox(box Box3, out []*T) []*T {
	min, max := g.cellRange(box)
	for z := min[2]; z <= max[2]; z++ {
		for y := min[1]; y <= max[1]; y++ {
			for x := min[0]; x <= max[0]; x++ {
				cell := g.cells[g.index(x, y, z)]
				for i := range cell {
					if insideBox3(g.Pos(cell[i]), box) {
						out = append(out, &cell[i])
					}
				}
			}
		}
	}
	return out
}

func (g *Grid3D[T]) QueryBall(ball Ball3, out []*T) []*T {
	box := boundingBox3(ball)
	min, max := g.cellRange(box)
	for z := min[2]; z <= max[2]; z++ {
		for y := min[1]; y <= max[1]; y++ {
			for x := min[0]; x <= max[0]; x++ {
				cell := g.cells[g.index(x, y, z)]
				for i := range cell {
					if insideBall3(g.Pos(cell[i]), ball) {
						out = append(out, &cell[i])
					}
				}
			}
		}
	}
	return out
}

func (g *Grid3D[T]) QueryAll(out []*T) []*T {
	for c := range g.cells {
		cell := g.cells[c]
		for i := range cell {
			out = append(out, &cell[i])
		}
	}
	return out
}

func (g *Grid3D[T]) QueryAllValues(out []T) []T {
	for _, cell := range g.cells {
		out = append(out, cell...)
	}
	return out
}
