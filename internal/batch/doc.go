// Package batch splits a slice into fixed-size batches and hands each batch
// to a callback, sequentially or with bounded concurrency, reporting
// progress after every batch.
//
// Datasets use it to write large record sets as NDJSON and to generate
// synthetic records in parallel while keeping memory bounded by the batch
// size.
package batch
