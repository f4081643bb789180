package entity

import "errors"

// Failure classes the orchestrator uses to decide between requeueing a job
// and sending it to the dead letter queue. Anything not wrapping one of
// these sentinels is considered transient and retried by the queue.
var (
	// ErrSourceUnreadable marks a source file that is missing or that the
	// encoder cannot probe. Retrying cannot fix it.
	ErrSourceUnreadable = errors.New("source unreadable")

	// ErrAllRenditionsFailed marks a run in which not a single rendition
	// encode succeeded, leaving nothing servable.
	ErrAllRenditionsFailed = errors.New("all renditions failed")
)

// IsPermanent reports whether err represents a failure that re-running the
// job cannot repair.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrSourceUnreadable) || errors.Is(err, ErrAllRenditionsFailed)
}
