package voxel

// IndexByLabel groups voxel linear indices by label for labels 0..n-1.
// Each list is in ascending index order. Labels outside [0, n) are skipped.
func (g *Grid) IndexByLabel(n int) [][]int {
	if n <= 0 {
		return nil
	}
	counts := make([]int, n)
	for _, l := range g.Labels {
		if l >= 0 && int(l) < n {
			counts[l]++
		}
	}
	out := make([][]int, n)
	for label, c := range counts {
		if c > 0 {
			out[label] = make([]int, 0, c)
		}
	}
	for idx, l := range g.Labels {
		if l >= 0 && int(l) < n {
			out[l] = append(out[l], idx)
		}
	}
	return out
}

// Count returns the number of voxels carrying label.
func (g *Grid) Count(label int32) int {
	n := 0
	for _, l := range g.Labels {
		if l == label {
			n++
		}
	}
	return n
}

// Bounds returns the inclusive bounding box of label. ok is false when the label is absent.
func (g *Grid) Bounds(label int32) (lo, hi [3]int, ok bool) {
	lo = g.Dims
	hi = [3]int{-1, -1, -1}
	for idx, l := range g.Labels {
		if l != label {
			continue
		}
		x, y, z := g.Coords(idx)
		c := [3]int{x, y, z}
		for i := 0; i < 3; i++ {
			if c[i] < lo[i] {
				lo[i] = c[i]
			}
			if c[i] > hi[i] {
				hi[i] = c[i]
			}
		}
		ok = true
	}
	if !ok {
		return [3]int{}, [3]int{}, false
	}
	return lo, hi, true
}

// Slice returns the labels of the z-plane as a row-major ny x nx matrix.
func (g *Grid) Slice(z int) [][]int32 {
	nx, ny := g.Dims[0], g.Dims[1]
	out := make([][]int32, ny)
	base := z * nx * ny
	for y := 0; y < ny; y++ {
		row := make([]int32, nx)
		copy(row, g.Labels[base+y*nx:base+(y+1)*nx])
		out[y] = row
	}
	return out
}
