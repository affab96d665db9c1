package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/reshuffle/internal/services"
	"github.com/desertthunder/reshuffle/internal/tracks"
)

// BatchWriter appends tracks to a collection in sequential batches.
type BatchWriter struct {
	catalog   services.Catalog
	batchSize int
	progress  chan<- ProgressUpdate
}

// NewBatchWriter creates a BatchWriter. Sizes outside 1..100 fall back to 100.
func NewBatchWriter(catalog services.Catalog, batchSize int, progress chan<- ProgressUpdate) *BatchWriter {
	if batchSize <= 0 || batchSize > services.MaxBatchSize {
		batchSize = services.MaxBatchSize
	}
	return &BatchWriter{catalog: catalog, batchSize: batchSize, progress: progress}
}

// Write appends uris to the collection in order and returns how many were written.
//
// Each batch is parsed with [tracks.ParseTrackURI] before it is sent; a parse failure or a failed
// call stops the write. Batches already sent stay applied.
func (w *BatchWriter) Write(ctx context.Context, collectionID string, uris []string) (int, error) {
	batches := tracks.Chunk(uris, w.batchSize)
	written := 0

	for i, batch := range batches {
		ids, err := tracks.ParseTrackURIs(batch)
		if err != nil {
			return written, fmt.Errorf("batch %d/%d: %w", i+1, len(batches), err)
		}

		reportProgress(ctx, w.progress, addTracksUpdate(i+1, len(batches), len(ids)))
		if err := w.catalog.AppendItems(ctx, collectionID, ids); err != nil {
			return written, fmt.Errorf("failed to add batch %d/%d to playlist %s: %w", i+1, len(batches), collectionID, err)
		}
		written += len(ids)
	}

	return written, nil
}
