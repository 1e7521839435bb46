package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogCategory represents different log categories
type LogCategory string

const (
	CategorySearch   LogCategory = "search"   // Query lifecycle events (JSON)
	CategoryDownload LogCategory = "download" // Submission lifecycle events (JSON)
	CategoryError    LogCategory = "error"    // Application errors (JSON)
)

// Categories lists every category written by MultiLogger
var Categories = []LogCategory{CategorySearch, CategoryDownload, CategoryError}

// ValidCategory reports whether c is a known category
func ValidCategory(c LogCategory) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

const dateLayout = "20060102"

// categoryLog is one open category file
type categoryLog struct {
	logger *zap.Logger
	file   *os.File
}

// MultiLogger provides categorized logging with one JSON file per category
// and day. Files are reopened when the date changes.
type MultiLogger struct {
	loggers     map[LogCategory]*categoryLog
	config      MultiLoggerConfig
	level       zapcore.Level
	mu          sync.RWMutex
	currentDate string
	now         func() time.Time
}

// MultiLoggerConfig contains configuration for multi-output logging
type MultiLoggerConfig struct {
	Level   string // debug, info, warn, error
	LogsDir string // Directory for log files
}

// NewMultiLogger creates a new multi-output logger
func NewMultiLogger(config MultiLoggerConfig) (*MultiLogger, error) {
	if config.LogsDir == "" {
		return nil, fmt.Errorf("logs_dir must be specified")
	}

	if err := os.MkdirAll(config.LogsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	ml := &MultiLogger{
		loggers: make(map[LogCategory]*categoryLog),
		config:  config,
		level:   level,
		now:     time.Now,
	}
	if err := ml.open(ml.now().Format(dateLayout)); err != nil {
		ml.closeFiles()
		return nil, err
	}
	return ml, nil
}

// open creates the category loggers for date. Callers hold mu.
func (ml *MultiLogger) open(date string) error {
	for _, category := range Categories {
		level := ml.level
		if category == CategoryError {
			level = zapcore.ErrorLevel
		}
		cl, err := ml.createStructuredLogger(category, date, level)
		if err != nil {
			return fmt.Errorf("failed to create %s logger: %w", category, err)
		}
		ml.loggers[category] = cl
	}
	ml.currentDate = date
	return nil
}

// createStructuredLogger creates a JSON-formatted logger for a category
func (ml *MultiLogger) createStructuredLogger(category LogCategory, date string, level zapcore.Level) (*categoryLog, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "message"
	encoderConfig.LevelKey = "level"
	encoderConfig.CallerKey = ""

	encoder := zapcore.NewJSONEncoder(encoderConfig)

	logPath := filepath.Join(ml.config.LogsDir, fmt.Sprintf("%s-%s.log", category, date))
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(file), level)
	return &categoryLog{logger: zap.New(core), file: file}, nil
}

// rotate reopens every category file when the date has changed
func (ml *MultiLogger) rotate() {
	date := ml.now().Format(dateLayout)

	ml.mu.RLock()
	current := ml.currentDate
	ml.mu.RUnlock()
	if date == current {
		return
	}

	ml.mu.Lock()
	defer ml.mu.Unlock()
	if date == ml.currentDate {
		return
	}
	old := ml.loggers
	ml.loggers = make(map[LogCategory]*categoryLog)
	if err := ml.open(date); err != nil {
		// Keep writing to yesterday's files rather than dropping events
		ml.loggers = old
		return
	}
	for _, cl := range old {
		cl.logger.Sync()
		cl.file.Close()
	}
}

// GetLogsDir returns the logs directory path
func (ml *MultiLogger) GetLogsDir() string {
	return ml.config.LogsDir
}

// GetLogger returns the structured logger for a specific category
func (ml *MultiLogger) GetLogger(category LogCategory) *zap.Logger {
	ml.rotate()

	ml.mu.RLock()
	defer ml.mu.RUnlock()

	if cl, ok := ml.loggers[category]; ok {
		return cl.logger
	}
	if cl, ok := ml.loggers[CategoryError]; ok {
		return cl.logger
	}
	return zap.NewNop()
}

// Search returns the search logger
func (ml *MultiLogger) Search() *zap.Logger {
	return ml.GetLogger(CategorySearch)
}

// Download returns the download logger
func (ml *MultiLogger) Download() *zap.Logger {
	return ml.GetLogger(CategoryDownload)
}

// Error returns the error logger
func (ml *MultiLogger) Error() *zap.Logger {
	return ml.GetLogger(CategoryError)
}

// LogAppError logs an application-level error
func (ml *MultiLogger) LogAppError(msg string, fields ...zap.Field) {
	if ml == nil {
		return
	}
	ml.Error().Error(msg, fields...)
}

// LogSearchEvent logs a query lifecycle event
func (ml *MultiLogger) LogSearchEvent(event string, fields ...zap.Field) {
	if ml == nil {
		return
	}
	ml.Search().Info(event, fields...)
}

// LogDownloadEvent logs a submission lifecycle event
func (ml *MultiLogger) LogDownloadEvent(event string, fields ...zap.Field) {
	if ml == nil {
		return
	}
	ml.Download().Info(event, fields...)
}

// Sync flushes all loggers
func (ml *MultiLogger) Sync() error {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	var lastErr error
	for _, cl := range ml.loggers {
		if err := cl.logger.Sync(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Close flushes and closes all category files
func (ml *MultiLogger) Close() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	return ml.closeFiles()
}

func (ml *MultiLogger) closeFiles() error {
	var lastErr error
	for category, cl := range ml.loggers {
		cl.logger.Sync()
		if err := cl.file.Close(); err != nil {
			lastErr = err
		}
		delete(ml.loggers, category)
	}
	return lastErr
}
