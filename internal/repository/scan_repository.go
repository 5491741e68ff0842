package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ScanRecord is the persisted metadata for one accepted scan. CreatedAt is a
// pre-formatted timestamp owned by the scan pipeline, not the store.
type ScanRecord struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	UserID    string `gorm:"column:user_id;index;size:64" json:"userId"`
	ImageURL  string `gorm:"column:image_url;type:text" json:"imageUrl"`
	Status    string `gorm:"column:status;size:32" json:"status"`
	Note      string `gorm:"column:note;type:text" json:"note"`
	CreatedAt string `gorm:"column:created_at;size:32" json:"createdAt"`
}

// TableName overrides the default table name.
func (ScanRecord) TableName() string {
	return "scans"
}

// StatusCount is one row of the per-status aggregation.
type StatusCount struct {
	Status string
	Count  int64
}

// ScanRepository provides the per-user scan record collection.
type ScanRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewScanRepository creates a new repository instance.
func NewScanRepository(db *gorm.DB, logger *zap.Logger) *ScanRepository {
	return &ScanRepository{db: db, logger: logger.Named("scan_repository")}
}

// AutoMigrate ensures the schema is available.
func (r *ScanRepository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&ScanRecord{})
}

// Create persists a new record, assigning its id, and returns the stored row.
func (r *ScanRepository) Create(ctx context.Context, record *ScanRecord) (*ScanRecord, error) {
	record.ID = uuid.NewString()
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// Get retrieves one record scoped to its owner. Returns
// gorm.ErrRecordNotFound when absent.
func (r *ScanRepository) Get(ctx context.Context, userID, scanID string) (*ScanRecord, error) {
	var record ScanRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ? AND user_id = ?", scanID, userID).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns every record owned by the user. An empty result is valid.
func (r *ScanRepository) List(ctx context.Context, userID string) ([]*ScanRecord, error) {
	var records []*ScanRecord
	if err := r.db.WithContext(ctx).Find(&records, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Delete removes one record scoped to its owner, erroring when absent.
func (r *ScanRepository) Delete(ctx context.Context, userID, scanID string) error {
	result := r.db.WithContext(ctx).Delete(&ScanRecord{}, "id = ? AND user_id = ?", scanID, userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("scan %s: %w", scanID, gorm.ErrRecordNotFound)
	}
	return nil
}

// CountByStatus aggregates stored scans per status label.
func (r *ScanRepository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	var counts []StatusCount
	err := r.db.WithContext(ctx).
		Model(&ScanRecord{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}
