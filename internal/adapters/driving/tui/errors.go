package tui

import "errors"

// ErrNoIngestFunc is returned when no ingestion function is provided.
var ErrNoIngestFunc = errors.New("tui: ingest function is required")

// ErrInterrupted is returned when the user quits the progress view early.
var ErrInterrupted = errors.New("tui: interrupted")
