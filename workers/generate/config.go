package generate

import "time"

// Config holds generation worker configuration
type Config struct {
	Workers        int           // Number of parallel processing goroutines
	QueueSize      int           // Size of the processing queue
	RequestTimeout time.Duration // Per-job generation deadline
}
