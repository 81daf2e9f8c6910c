// Package reembed regenerates the vectors of every stored chunk with the
// currently configured embedder.
//
// Use it after switching embedding models. Chunks are visited in ID order,
// embedded in batches with retry and written back in place. When the new
// model produces vectors of a different size the collection dimension is
// reset before the first batch is written, so searches must not run while a
// reembed is in progress.
package reembed
