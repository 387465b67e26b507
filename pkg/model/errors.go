package model

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrInvalidInput indicates caller-supplied parameters failed
	// validation. Detected before any embedding or storage work.
	ErrInvalidInput = goerr.New("invalid input")

	// ErrModelUnavailable indicates the embedding model could not be
	// loaded. Fatal at startup warm-up; persistent until the process is
	// restarted or the cause is fixed externally.
	ErrModelUnavailable = goerr.New("embedding model unavailable")

	// ErrStorageFailure indicates the persistent index could not be read
	// or written. Surfaced to the caller; never crashes the process.
	ErrStorageFailure = goerr.New("storage failure")
)
