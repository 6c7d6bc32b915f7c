package apperrors

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrEmptyQuery          = errors.New("empty query")
	ErrNoTarget            = errors.New("no target record type detected")
	ErrNoAggregationField  = errors.New("no aggregation field resolved")
	ErrEmbedderUnavailable = errors.New("embedding model unavailable")
	ErrIndexRebuildRunning = errors.New("index rebuild already in progress")
)
