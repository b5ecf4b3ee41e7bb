package spatial

// HashGrid2D is an infinite tiled 2D space of fixed-size cells, mapped
// to a fixed number of buckets by an integer hash of cell coordinates.
// Unlike Grid2D it has no declared bounds and Insert never fails.
type HashGrid2D[T any] struct {
	CellSize Vec2
	Pos      func(T) Vec2

	buckets [][]T
	count   uint64
}

// NewHashGrid2D constructs a HashGrid2D. cellSize must be positive on
// both axes; nBuckets must be at least 1.
func NewHashGrid2D[T any](cellSize Vec2, nBuckets int, pos func(T) Vec2) (*HashGrid2D[T], error) {
	if minComponent2(cellSize) <= 0 {
		return nil, ErrInvalidCellSize
	}
	if nBuckets < 1 {
		return nil, ErrInvalidBucketCount
	}
	return &HashGrid2D[T]{
		CellSize: cellSize,
		Pos:      pos,
		buckets:  make([][]T, nBuckets),
	}, nil
}

// hashCell2 mirrors the source's integer hash of tiled cell coordinates:
// |x*92837111 ^ y*689287499|.
func hashCell2(x, y int) int {
	h := (x * 92837111) ^ (y * 689287499)
	if h < 0 {
		h = -h
	}
	return h
}

func (g *HashGrid2D[T]) cell(p Vec2) (int, int) {
	return floorToInt(p.X / g.CellSize.X), floorToInt(p.Y / g.CellSize.Y)
}

func (g *HashGrid2D[T]) bucketIndex(cx, cy int) int {
	return hashCell2(cx, cy) % len(g.buckets)
}

func (g *HashGrid2D[T]) Size() uint64 { return g.count }

// Insert always succeeds.
func (g *HashGrid2D[T]) Insert(element T) bool {
	cx, cy := g.cell(g.Pos(element))
	idx := g.bucketIndex(cx, cy)
	g.buckets[idx] = append(g.buckets[idx], element)
	g.count++
	return true
}

func (g *HashGrid2D[T]) Clear() {
	for i := range g.buckets {
		g.buckets[i] = nil
	}
	g.count = 0
}

func (g *HashGrid2D[T]) Rebuild() {
	snapshot := g.QueryAllValues(nil)
	g.Clear()
	for _, e := range snapshot {
		g.Insert(e)
	}
}

func (g *HashGrid2D[T]) candidateBuckets(box Box2) []int {
	startX, startY := g.cell(box.Min)
	endX, endY := g.cell(box.Max)

	seen := make(map[int]struct{})
	var indices []int
	for y := startY; y <= endY; y++ {
		for x := startX; x <= endX; x++ {
			idx := g.bucketIndex(x, y)
			if _, ok := seen[idx]; !ok {
				seen[idx] = struct{}{}
				indices = append(indices, idx)
			}
		}
	}
	return indices
}

func (g *HashGrid2D[T]) QueryBox(box Box2, out []*T) []*T {
	for _, idx := range g.candidateBuckets(box) {
		bucket := g.buckets[idx]
		for i := range bucket {
			if insideBox2(g.Pos(bucket[i]), box) {
				out = append(out, &bucket[i])
			}
		}
	}
	return out
}

func (g *HashGrid2D[T]) QueryBall(ball Ball2, out []*T) []*T {
	for _, idx := range g.candidateBuckets(boundingBox2(ball)) {
		bucket := g.buckets[idx]
		for i := range bucket {
			if insideBall2(g.Pos(bucket[i]), ball) {
				out = append(out, &bucket[i])
			}
		}
	}
	return out
}

func (g *HashGrid2D[T]) QueryAll(out []*T) []*T {
	for b := range g.buckets {
		bucket := g.buckets[b]
		for i := range bucket {
			out = append(out, &bucket[i])
		}
	}
	return out
}

func (g *HashGrid2D[T]) QueryAllValues(out []T) []T {
	for _, bucket := range g.buckets {
		out = append(out, bucket...)
	}
	return out
}
