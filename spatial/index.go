package spatial

import "errors"

// ErrInvalidResolution is returned when a Grid is constructed with a
// resolution below 1 on any axis.
var ErrInvalidResolution = errors.New("spatial: grid resolution must be at least 1 per axis")

// ErrInvalidCellSize is returned when a HashGrid is constructed with a
// non-positive cell size on any axis.
var ErrInvalidCellSize = errors.New("spatial: hash grid cell size must be positive")

// ErrInvalidBucketCount is returned when a HashGrid is constructed with
// fewer than one bucket.
var ErrInvalidBucketCount = errors.New("spatial: hash grid bucket count must be at least 1")

// ErrInvalidCapacity is returned when a Quadtree or Octree is
// constructed with a zero per-node capacity, which would force every
// node to subdivide without ever holding an element.
var ErrInvalidCapacity = errors.New("spatial: tree node capacity must be at least 1")

// Index2 is the uniform contract shared by every 2D spatial container:
// uniform grid, hash grid, quadtree, and linear. Query methods append to
// (never clear) out, mirroring the borrowed-reference append semantics
// of the source; the returned pointers are valid until the next
// Insert/Clear/Rebuild.
type Index2[T any] interface {
	Size() uint64
	Insert(element T) bool
	Clear()
	Rebuild()
	QueryBox(box Box2, out []*T) []*T
	QueryBall(ball Ball2, out []*T) []*T
	QueryAll(out []*T) []*T
	QueryAllValues(out []T) []T
}

// Index3 is the 3D analogue of Index2.
type Index3[T any] interface {
	Size() uint64
	Insert(element T) bool
	Clear()
	Rebuild()
	QueryBox(box Box3, out []*T) []*T
	QueryBall(ball Ball3, out []*T) []*T
	QueryAll(out []*T) []*T
	QueryAllValues(out []T) []T
}
