// Package sqlite persists microstructures and twin insertion runs in SQLite.
//
// The schema is owned by the embedded migrations under migrations/ and applied with
// golang-migrate on Open. Label grids are stored as gzip-compressed little-endian
// int32 blobs; region tables are stored one row per region.
package sqlite
