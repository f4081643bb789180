package port

import "context"

// SourceStorage fetches uploaded objects into the local scratch directory
// for deployments that ingest uploads through an object store rather than
// the shared volume.
type SourceStorage interface {
	DownloadObject(ctx context.Context, objectKey string, destPath string) error
}
