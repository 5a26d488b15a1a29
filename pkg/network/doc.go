// Package network builds and transforms directed stream-network graphs.
//
// A graph is extracted from a raster stream skeleton and D8 flow directions
// ([Extract]), restructured so every confluence merges exactly two inflows
// ([ResolveConfluences]), partitioned into networks with stable reach ids
// ([AssignIdentifiers]), and annotated with flow distance to each network's
// outlet ([AccumulateUpstreamDistance]). [Filter] prunes the graph to a set
// of networks.
//
// # Invariants
//
// After the full sequence each network is a tree: exactly one edge has no
// downstream neighbor (the outlet), every other edge has exactly one, and
// no node carries more than two inflows. Auxiliary zero-length edges
// introduced during confluence resolution preserve total network length.
//
// # Determinism
//
// All traversals order edges by ascending raw id, so identical rasters
// always produce identical identifiers, distances, and persisted documents.
package network
