package usecase

import (
	"errors"
	"fmt"
	"strings"
)

// Stage identifies where a create or delete workflow stands when an error is
// reported. Intermediate stages are first-class so recovery logic and tests
// can target them.
type Stage string

const (
	StageReceived          Stage = "received"
	StageValidated         Stage = "validated"
	StageClassified        Stage = "classified"
	StageArtifactPersisted Stage = "artifact_persisted"
	StageRecordPersisted   Stage = "record_persisted"
	StageDone              Stage = "done"
	StageAborted           Stage = "aborted"
	StageCompensating      Stage = "compensating"
	StageBlobDeleted       Stage = "blob_deleted"
)

var (
	// ErrNotTomato reports a scan rejected because the model did not
	// recognize a tomato with enough confidence. No writes happen.
	ErrNotTomato = errors.New("the image is not a tomato")

	// ErrScanNotFound reports a lookup for a scan that does not exist.
	ErrScanNotFound = errors.New("scan not found")
)

// PartialFailureError reports a workflow that left the artifact store and the
// record store out of sync: the orphaned side is named so it can be
// reconciled out-of-band.
type PartialFailureError struct {
	Stage     Stage
	OrphanURL string
	Err       error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("partial failure at stage %s (orphan %s): %v", e.Stage, e.OrphanURL, e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}

// BulkDeleteError aggregates the scans that failed during a fan-out delete.
type BulkDeleteError struct {
	Failed []string
	Err    error
}

func (e *BulkDeleteError) Error() string {
	return fmt.Sprintf("bulk delete failed for scans [%s]: %v", strings.Join(e.Failed, ", "), e.Err)
}

func (e *BulkDeleteError) Unwrap() error {
	return e.Err
}
