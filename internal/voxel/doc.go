// Package voxel provides the dense label grid that microstructures are stored in.
//
// A Grid is nx*ny*nz int32 labels in x-fastest order plus a physical voxel spacing.
// Label 0 is background; every other value is a region id indexing a region table.
// All index arithmetic lives here so callers never compute z*nx*ny + y*nx + x by hand.
package voxel
