package spatial

var (
	_ Index2[Vec2] = (*Grid2D[Vec2])(nil)
	_ Index2[Vec2] = (*HashGrid2D[Vec2])(nil)
	_ Index2[Vec2] = (*Quadtree[Vec2])(nil)
	_ Index2[Vec2] = (*Linear2D[Vec2])(nil)

	_ Index3[Vec3] = (*Grid3D[Vec3])(nil)
	_ Index3[Vec3] = (*HashGrid3D[Vec3])(nil)
	_ Index3[Vec3] = (*Octree[Vec3])(nil)
	_ Index3[Vec3] = (*Linear3D[Vec3])(nil)
)
