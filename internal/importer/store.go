package importer

import (
	"context"
	"errors"
	"fmt"

	"procurement-service/internal/model"

	"gorm.io/gorm"
)

// validStatusFilters are the row statuses a preview may filter on
var validStatusFilters = map[string]bool{
	model.RowStatusNew:             true,
	model.RowStatusChanged:         true,
	model.RowStatusUnchanged:       true,
	model.RowStatusError:           true,
	model.RowStatusDuplicateInFile: true,
}

// Store persists import jobs and their classified rows
type Store struct {
	db *gorm.DB
}

// NewStore creates an import job store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// PreviewResult is one page of classified rows plus the job-level summary
type PreviewResult struct {
	Items   []model.ImportJobRow `json:"items"`
	Summary map[string]int       `json:"summary_counts"`
	Total   int64                `json:"total"`
	Pages   int                  `json:"pages"`
	Page    int                  `json:"page"`
}

// CreateJob persists the pending job shell, before any row is classified
func (s *Store) CreateJob(ctx context.Context, job *model.ImportJob) error {
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to create import job: %w", err)
	}
	return nil
}

// FinalizeDryRun stores the classified rows and flips the job from pending
// to dry_run in one transaction. A job that fails mid-classification stays
// pending and never becomes committable.
func (s *Store) FinalizeDryRun(ctx context.Context, job *model.ImportJob, rows []model.ImportJobRow) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			rows[i].JobID = job.ID
		}
		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, 200).Error; err != nil {
				return fmt.Errorf("failed to create import rows: %w", err)
			}
		}
		job.Status = model.JobStatusDryRun
		if err := tx.Model(job).Updates(map[string]interface{}{
			"status":          job.Status,
			"new_count":       job.NewCount,
			"changed_count":   job.ChangedCount,
			"unchanged_count": job.UnchangedCount,
			"error_count":     job.ErrorCount,
			"duplicate_count": job.DuplicateCount,
		}).Error; err != nil {
			return fmt.Errorf("failed to finalize import job: %w", err)
		}
		return nil
	})
}

// GetJob resolves a job by its public uuid
func (s *Store) GetJob(ctx context.Context, jobUUID string) (*model.ImportJob, error) {
	var job model.ImportJob
	err := s.db.WithContext(ctx).Where("uuid = ?", jobUUID).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import job: %w", err)
	}
	return &job, nil
}

// Preview returns a stable row_index-ordered, filtered, paginated slice of
// a job's rows together with the aggregate classification counts.
func (s *Store) Preview(ctx context.Context, jobUUID, statusFilter string, page, pageSize int) (*PreviewResult, error) {
	if statusFilter != "" && !validStatusFilters[statusFilter] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatusFilter, statusFilter)
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	job, err := s.GetJob(ctx, jobUUID)
	if err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Model(&model.ImportJobRow{}).Where("job_id = ?", job.ID)
	if statusFilter != "" {
		query = query.Where("status = ?", statusFilter)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count import rows: %w", err)
	}

	var items []model.ImportJobRow
	err = query.Order("row_index").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load import rows: %w", err)
	}

	pages := int((total + int64(pageSize) - 1) / int64(pageSize))

	return &PreviewResult{
		Items: items,
		Summary: map[string]int{
			model.RowStatusNew:             job.NewCount,
			model.RowStatusChanged:         job.ChangedCount,
			model.RowStatusUnchanged:       job.UnchangedCount,
			model.RowStatusError:           job.ErrorCount,
			model.RowStatusDuplicateInFile: job.DuplicateCount,
		},
		Total: total,
		Pages: pages,
		Page:  page,
	}, nil
}

// AcceptLink records an operator-accepted canonical product on a dry-run
// row. The link itself is applied at commit; only the choice is stored
// here. Rows of committed jobs are immutable.
func (s *Store) AcceptLink(ctx context.Context, jobUUID string, rowIndex int, productID uint) error {
	job, err := s.GetJob(ctx, jobUUID)
	if err != nil {
		return err
	}
	if job.Status == model.JobStatusCommitted {
		return ErrAlreadyCommitted
	}

	result := s.db.WithContext(ctx).Model(&model.ImportJobRow{}).
		Where("job_id = ? AND row_index = ?", job.ID, rowIndex).
		Updates(map[string]interface{}{"product_id": productID, "auto_link": false})
	if result.Error != nil {
		return fmt.Errorf("failed to accept link: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("row %d not found in job %s", rowIndex, jobUUID)
	}
	return nil
}

// markCommitted flips a job to committed inside the caller's transaction.
// Only the dry_run state may transition; anything else means the job was
// already committed.
func markCommitted(tx *gorm.DB, jobID uint) error {
	result := tx.Model(&model.ImportJob{}).
		Where("id = ? AND status = ?", jobID, model.JobStatusDryRun).
		Update("status", model.JobStatusCommitted)
	if result.Error != nil {
		return fmt.Errorf("failed to mark job committed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyCommitted
	}
	return nil
}
