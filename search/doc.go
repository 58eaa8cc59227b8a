// Package search implements hybrid retrieval over the passage index.
//
// A retrieval fans out to two arms of the same IndexStore, a term-frequency
// query over passage text and a nearest-neighbor query over embeddings, and
// fuses the two rankings with reciprocal rank fusion. Both arms see the same
// filters, so the fused ranking compares like with like.
package search
