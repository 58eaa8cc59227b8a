// Package ingestion turns raw document files into indexed passages.
//
// The pipeline parses a file to plain text, asks the extraction model for
// candidate passages, normalizes the untrusted output, resolves each
// passage's span against the source text, embeds the passages in concurrent
// batches, and writes everything to the index store. Extraction output is
// treated as advisory throughout: bad candidates are dropped, claimed
// offsets are re-derived from the source, and per-passage indexing failures
// never abort the document.
package ingestion
