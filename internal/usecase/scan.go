package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/argotrack/scan-api/internal/classifier"
	"github.com/argotrack/scan-api/internal/imaging"
	"github.com/argotrack/scan-api/internal/logging"
	"github.com/argotrack/scan-api/internal/repository"
)

// createdAtLayout is the timestamp format written into scan records. The
// pipeline owns the format; the record store only sees the string.
const createdAtLayout = "02-01-2006 15:04:05"

const cacheTTL = 5 * time.Minute

// ScanRepository defines the record store operations needed by the pipeline.
type ScanRepository interface {
	Create(ctx context.Context, record *repository.ScanRecord) (*repository.ScanRecord, error)
	Get(ctx context.Context, userID, scanID string) (*repository.ScanRecord, error)
	List(ctx context.Context, userID string) ([]*repository.ScanRecord, error)
	Delete(ctx context.Context, userID, scanID string) error
	CountByStatus(ctx context.Context) ([]repository.StatusCount, error)
}

// ArtifactStore defines the blob storage operations needed by the pipeline.
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}

// ImageClassifier runs the model over a preprocessed input.
type ImageClassifier interface {
	Classify(ctx context.Context, input []float32) (classifier.Label, error)
}

// Upload carries one user-submitted image through the pipeline.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ScanUseCase composes preprocessing, classification, and the two-store
// persistence sequence. Consistency between the artifact store and the record
// store relies on strict step ordering plus compensating cleanup, not on
// distributed transactions.
type ScanUseCase struct {
	repo       ScanRepository
	artifacts  ArtifactStore
	classify   ImageClassifier
	cache      Cache
	logger     *zap.Logger
	now        func() time.Time
	nameSuffix func() string
}

// NewScanUseCase constructs the scan pipeline.
func NewScanUseCase(repo ScanRepository, artifacts ArtifactStore, classify ImageClassifier, cache Cache, logger *zap.Logger) *ScanUseCase {
	return &ScanUseCase{
		repo:      repo,
		artifacts: artifacts,
		classify:  classify,
		cache:     cache,
		logger:    logger.Named("scan_usecase"),
		now:       time.Now,
		nameSuffix: func() string {
			return uuid.NewString()[:8]
		},
	}
}

// CreateScan validates, classifies, and persists one uploaded image. An
// out-of-domain classification aborts before any write. When the record write
// fails after the blob write, the blob is deleted best-effort; if that
// cleanup also fails, the orphan is surfaced as a PartialFailureError.
func (uc *ScanUseCase) CreateScan(ctx context.Context, userID string, upload Upload) (*repository.ScanRecord, error) {
	opLogger := logging.WithOperation(uc.logger, "usecase.create_scan", "")

	input, err := imaging.Preprocess(upload.Data, upload.ContentType)
	if err != nil {
		return nil, err
	}

	label, err := uc.classify.Classify(ctx, input)
	if err != nil {
		opLogger.Error("classification failed", zap.Error(err))
		return nil, err
	}
	if label.OutOfDomain() {
		opLogger.Info("scan rejected", zap.String("user_id", userID))
		return nil, ErrNotTomato
	}

	// Time-based names alone risk collisions; a random suffix closes that.
	key := fmt.Sprintf("%d_%s_%s", uc.now().UnixMilli(), uc.nameSuffix(), upload.Filename)
	url, err := uc.artifacts.Put(ctx, key, upload.Data, upload.ContentType)
	if err != nil {
		wrapped := logging.NewOperationError("usecase.store_artifact", "", err)
		opLogger.Error("failed to store artifact", zap.Error(wrapped))
		return nil, wrapped
	}

	record := &repository.ScanRecord{
		UserID:    userID,
		ImageURL:  url,
		Status:    label.String(),
		Note:      classifier.Note(label),
		CreatedAt: uc.now().UTC().Format(createdAtLayout),
	}
	stored, err := uc.repo.Create(ctx, record)
	if err != nil {
		wrapped := logging.NewOperationError("usecase.save_record", "", err)
		opLogger.Error("failed to persist scan record, compensating", zap.Error(wrapped))
		if delErr := uc.artifacts.Delete(ctx, url); delErr != nil {
			opLogger.Error("compensating artifact delete failed",
				zap.Error(delErr), zap.String("orphan_url", url))
			return nil, &PartialFailureError{Stage: StageCompensating, OrphanURL: url, Err: err}
		}
		return nil, wrapped
	}

	uc.cacheRecord(ctx, stored)
	opLogger.Info("scan created",
		zap.String("scan_id", stored.ID),
		zap.String("status", stored.Status))
	return stored, nil
}

// GetScan returns one scan, preferring the cache and falling back to the
// record store.
func (uc *ScanUseCase) GetScan(ctx context.Context, userID, scanID string) (*repository.ScanRecord, error) {
	opLogger := logging.WithOperation(uc.logger, "usecase.get_scan", scanID)

	if cached, err := uc.cache.Get(ctx, cacheKey(userID, scanID)); err == nil {
		var record repository.ScanRecord
		if err := json.Unmarshal([]byte(cached), &record); err != nil {
			opLogger.Warn("failed to decode cached scan", zap.Error(err))
		} else {
			return &record, nil
		}
	}

	record, err := uc.repo.Get(ctx, userID, scanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrScanNotFound, scanID)
		}
		return nil, logging.NewOperationError("usecase.get_scan", scanID, err)
	}
	return record, nil
}

// ListScans returns every scan owned by the user. A user with no scans gets
// an empty slice, not an error.
func (uc *ScanUseCase) ListScans(ctx context.Context, userID string) ([]*repository.ScanRecord, error) {
	records, err := uc.repo.List(ctx, userID)
	if err != nil {
		return nil, logging.NewOperationError("usecase.list_scans", "", err)
	}
	if records == nil {
		records = []*repository.ScanRecord{}
	}
	return records, nil
}

// DeleteScan removes one scan. The record delete is authoritative: a failed
// blob delete only orphans a blob and is logged, while a failed record delete
// after a successful blob delete is surfaced as a PartialFailureError because
// the surviving record points at a missing blob.
func (uc *ScanUseCase) DeleteScan(ctx context.Context, userID, scanID string) error {
	record, err := uc.repo.Get(ctx, userID, scanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrScanNotFound, scanID)
		}
		return logging.NewOperationError("usecase.delete_scan", scanID, err)
	}

	blobErr, recordErr := uc.removeScan(ctx, record)
	if recordErr != nil {
		if blobErr == nil {
			return &PartialFailureError{Stage: StageBlobDeleted, OrphanURL: record.ImageURL, Err: recordErr}
		}
		return logging.NewOperationError("usecase.delete_scan", scanID, recordErr)
	}
	return nil
}

// DeleteAllScans removes every scan owned by the user, fanning the per-scan
// deletions out concurrently and joining on all of them. Any failed scan is
// named in the aggregate error; one failure does not cancel siblings.
func (uc *ScanUseCase) DeleteAllScans(ctx context.Context, userID string) error {
	records, err := uc.repo.List(ctx, userID)
	if err != nil {
		return logging.NewOperationError("usecase.delete_all_scans", "", err)
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []string
		errs   error
	)
	for _, record := range records {
		wg.Add(1)
		go func(record *repository.ScanRecord) {
			defer wg.Done()
			blobErr, recordErr := uc.removeScan(ctx, record)
			if blobErr == nil && recordErr == nil {
				return
			}
			mu.Lock()
			failed = append(failed, record.ID)
			errs = multierr.Append(errs, logging.NewOperationError("usecase.delete_all_scans", record.ID, multierr.Combine(blobErr, recordErr)))
			mu.Unlock()
		}(record)
	}
	wg.Wait()

	if len(failed) > 0 {
		return &BulkDeleteError{Failed: failed, Err: errs}
	}
	return nil
}

// removeScan attempts both halves of a deletion. The record delete runs even
// when the blob delete fails.
func (uc *ScanUseCase) removeScan(ctx context.Context, record *repository.ScanRecord) (blobErr, recordErr error) {
	opLogger := logging.WithOperation(uc.logger, "usecase.remove_scan", record.ID)

	if blobErr = uc.artifacts.Delete(ctx, record.ImageURL); blobErr != nil {
		opLogger.Warn("artifact delete failed, blob may be orphaned",
			zap.Error(blobErr), zap.String("image_url", record.ImageURL))
	}

	if recordErr = uc.repo.Delete(ctx, record.UserID, record.ID); recordErr != nil {
		opLogger.Error("record delete failed", zap.Error(recordErr))
		return blobErr, recordErr
	}

	if err := uc.cache.Del(ctx, cacheKey(record.UserID, record.ID)); err != nil {
		opLogger.Warn("failed to invalidate cached scan", zap.Error(err))
	}
	return blobErr, nil
}

func (uc *ScanUseCase) cacheRecord(ctx context.Context, record *repository.ScanRecord) {
	serialized, err := json.Marshal(record)
	if err != nil {
		uc.logger.Warn("failed to serialize scan for cache", zap.Error(err))
		return
	}
	if err := uc.cache.Set(ctx, cacheKey(record.UserID, record.ID), string(serialized), cacheTTL); err != nil {
		uc.logger.Warn("failed to cache scan", zap.Error(err), zap.String("scan_id", record.ID))
	}
}

func cacheKey(userID, scanID string) string {
	return fmt.Sprintf("scan:%s:%s", userID, scanID)
}
