package infrastructure

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yourusername/nyaa-go/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// submissionFilterColumns are the columns FindAll accepts as filters
var submissionFilterColumns = map[string]bool{
	"client":      true,
	"client_kind": true,
	"status":      true,
	"cause":       true,
	"info_hash":   true,
}

// SQLiteSubmissionRepository implements SubmissionRepository using SQLite
type SQLiteSubmissionRepository struct {
	db *gorm.DB
}

// NewSQLiteSubmissionRepository opens (creating if needed) the history database
func NewSQLiteSubmissionRepository(dbPath string) (*SQLiteSubmissionRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.SubmissionRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteSubmissionRepository{db: db}, nil
}

// Create creates a new record
func (r *SQLiteSubmissionRepository) Create(record *domain.SubmissionRecord) error {
	return r.db.Create(record).Error
}

// Update updates an existing record
func (r *SQLiteSubmissionRepository) Update(record *domain.SubmissionRecord) error {
	return r.db.Save(record).Error
}

// FindByID finds a record by ID
func (r *SQLiteSubmissionRepository) FindByID(id string) (*domain.SubmissionRecord, error) {
	var record domain.SubmissionRecord
	if err := r.db.First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByInfoHash returns the newest record for hash in one of statuses
func (r *SQLiteSubmissionRepository) FindByInfoHash(hash string, statuses []domain.SubmissionStatus) (*domain.SubmissionRecord, error) {
	hash = strings.ToLower(strings.TrimSpace(hash))
	if hash == "" {
		return nil, nil
	}

	var record domain.SubmissionRecord
	query := r.db.Where("info_hash = ?", hash)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	err := query.Order("created_at DESC").First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// FindAll finds records with optional filters, newest first
func (r *SQLiteSubmissionRepository) FindAll(filters map[string]interface{}, limit int) ([]*domain.SubmissionRecord, error) {
	var records []*domain.SubmissionRecord
	query := r.db

	for key, value := range filters {
		if !submissionFilterColumns[key] {
			return nil, fmt.Errorf("unsupported filter: %s", key)
		}
		query = query.Where(fmt.Sprintf("%s = ?", key), value)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Order("created_at DESC").Find(&records).Error
	return records, err
}

// GetStats returns submission statistics
func (r *SQLiteSubmissionRepository) GetStats() (*domain.SubmissionStats, error) {
	stats := &domain.SubmissionStats{}

	if err := r.db.Model(&domain.SubmissionRecord{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	statusCounts := []struct {
		Status domain.SubmissionStatus
		Count  int64
	}{}

	if err := r.db.Model(&domain.SubmissionRecord{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, err
	}

	for _, sc := range statusCounts {
		switch sc.Status {
		case domain.SubmissionPending:
			stats.Pending = sc.Count
		case domain.SubmissionSucceeded:
			stats.Succeeded = sc.Count
		case domain.SubmissionFailed:
			stats.Failed = sc.Count
		}
	}

	return stats, nil
}

// Close closes the database connection
func (r *SQLiteSubmissionRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
