package queue

// Redis key layout, stable across versions.
const (
	keySeen       = "queue:seen"       // SET  -> deduplication ledger
	keyPending    = "queue:pending"    // LIST -> waiting jobs, FIFO
	keyProcessing = "queue:processing" // HASH -> id -> in-flight Job
	keyDone       = "queue:done"       // SET  -> completed job ids
	keyFailed     = "queue:failed"     // HASH -> id -> terminally failed Job
)

const (
	// MaxAttempts bounds how many times a job may be dequeued before it is
	// moved to FAILED instead of PENDING by requeue_stale.
	MaxAttempts = 3
	// PollInterval is the single-shot retry cadence of a polling dequeue.
	PollInterval = 100 // milliseconds
	// RequeueScanPageSize is the HSCAN cursor page size requeue_stale uses.
	RequeueScanPageSize = 100
)
