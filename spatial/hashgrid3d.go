package spatial

// HashGrid3D is the 3D analogue of HashGrid2D.
type HashGrid3D[T any] struct {
	CellSize Vec3
	Pos      func(T) Vec3

	buckets [][]T
	count   uint64
}

// NewHashGrid3D constructs a HashGrid3D. cellSize must be positive on
// every axis; nBuckets must be at least 1.
func NewHashGrid3D[T any](cellSize Vec3, nBuckets int, pos func(T) Vec3) (*HashGrid3D[T], error) {
	if minComponent3(cellSize) <= 0 {
		return nil, ErrInvalidCellSize
	}
	if nBuckets < 1 {
		return nil, ErrInvalidBucketCount
	}
	return &HashGrid3D[T]{
		CellSize: cellSize,
		Pos:      pos,
		buckets:  make([][]T, nBuckets),
	}, nil
}

// hashCell3 mirrors the source's integer hash of tiled cell coordinates:
// |x*92837111 ^ y*689287499 ^ z*1900534178|.
func hashCell3(x, y, z int) int {
	h := (x * 92837111) ^ (y * 689287499) ^ (z * 1900534178)
	if h < 0 {
		h = -h
	}
	return h
}

func (g *HashGrid3D[T]) cell(p Vec3) (int, int, int) {
	return floorToInt(p.X / g.CellSize.X), floorToInt(p.Y / g.CellSize.Y), floorToInt(p.Z / g.CellSize.Z)
}

func (g *HashGrid3D[T]) bucketIndex(cx, cy, cz int) int {
	return hashCell3(cx, cy, cz) % len(g.buckets)
}

func (g *HashGrid3D[T]) Size() uint64 { return g.count }

// Insert always succeeds.
func (g *HashGrid3D[T]) Insert(element T) bool {
	cx, cy, cz := g.cell(g.Pos(element))
	idx := g.bucketIndex(cx, cy, cz)
	g.buckets[idx] = append(g.buckets[idx], element)
	g.count++
	return true
}

func (g *HashGrid3D[T]) Clear() {
	for i := range g.buckets {
		g.buckets[i] = nil
	}
	g.count = 0
}

func (g *HashGrid3D[T]) Rebuild() {
	snapshot := g.QueryAllValues(nil)
	g.Clear()
	for _, e := range snapshot {
		g.Insert(e)
	}
}

func (g *HashGrid3D[T]) candidateBuckets(box Box3) []int {
	startX, startY, startZ := g.cell(box.Min)
	endX, endY, endZ := g.cell(box.Max)

	seen := make(map[int]struct{})
	var indices []int
	for z := startZ; z <= endZ; z++ {
		for y := startY; y <= endY; y++ {
			for x := startX; x <= endX; x++ {
				idx := g.bucketIndex(x, y, z)
				if _, ok := seen[idx]; !ok {
					seen[idx] = struct{}{}
					indices = append(indices, idx)
				}
			}
		}
	}
	return indices
}

func (g *HashGrid3D[T]) QueryBox(box Box3, out []*T) []*T {
	for _, idx := range g.candidateBuckets(box) {
		bucket := g.buckets[idx]
		for i := range bucket {
			if insideBox3(g.Pos(bucket[i]), box) {
				out = append(out, &bucket[i])
			}
		}
	}
	return out
}

func (g *HashGrid3D[T]) QueryBall(ball Ball3, out []*T) []*T {
	for _, idx := range g.candidateBuckets(boundingBox3(ball)) {
		bucket := g.buckets[idx]
		for i := range bucket {
			if insideBall3(g.Pos(bucket[i]), ball) {
				out = append(out, &bucket[i])
			}
		}
	}
	return out
}

func (g *HashGrid3D[T]) QueryAll(out []*T) []*T {
	for b := range g.buckets {
		bucket := g.buckets[b]
		for i := range bucket {
			out = append(out, &bucket[i])
		}
	}
	return out
}

func (g *HashGrid3D[T]) QueryAllValues(out []T) []T {
	for _, bucket := range g.buckets {
		out = append(out, bucket...)
	}
	return out
}
