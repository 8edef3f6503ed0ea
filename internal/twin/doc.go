// Package twin inserts Σ3 twin lamellae into a segmented voxel microstructure.
//
// For every region the engine draws a {111}-family crystal direction, rotates it into
// the sample frame with the region orientation, and relabels the region's voxels lying
// within a half-thickness band of two parallel planes through the region. All twin
// voxels of one run share a single new label, and one record carrying the twin
// orientation of the last region is appended to the region table.
//
// Random draws come from a caller-supplied Source so runs are reproducible per seed.
package twin
