package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ClientKind identifies a download client backend
type ClientKind string

const (
	ClientDirect      ClientKind = "direct"      // OS handler or command template
	ClientQBittorrent ClientKind = "qbittorrent" // qBittorrent WebUI API v2
)

// ValidateClientKind checks if a client kind is supported
func ValidateClientKind(kind ClientKind) bool {
	return kind == ClientDirect || kind == ClientQBittorrent
}

// ClientConfig contains the settings of one configured download client
type ClientConfig struct {
	Name     string        `mapstructure:"name" yaml:"name,omitempty"`
	Kind     ClientKind    `mapstructure:"kind" yaml:"kind,omitempty"`
	Endpoint string        `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	Username string        `mapstructure:"username" yaml:"username,omitempty"`
	Password string        `mapstructure:"password" yaml:"password,omitempty"`
	Command  string        `mapstructure:"command" yaml:"command,omitempty"` // direct only, e.g. "transmission-remote -a {magnet}"
	Options  SubmitOptions `mapstructure:"options" yaml:"options,omitempty"`
}

// SubmitOptions are the optional add-torrent settings. A nil field is
// left out of the request entirely.
type SubmitOptions struct {
	SavePath           *string  `mapstructure:"save_path" json:"save_path,omitempty" yaml:"save_path,omitempty"`
	Category           *string  `mapstructure:"category" json:"category,omitempty" yaml:"category,omitempty"`
	Tags               []string `mapstructure:"tags" json:"tags,omitempty" yaml:"tags,omitempty"`
	Rename             *string  `mapstructure:"rename" json:"rename,omitempty" yaml:"rename,omitempty"`
	Paused             *bool    `mapstructure:"paused" json:"paused,omitempty" yaml:"paused,omitempty"`
	SkipChecking       *bool    `mapstructure:"skip_checking" json:"skip_checking,omitempty" yaml:"skip_checking,omitempty"`
	SequentialDownload *bool    `mapstructure:"sequential_download" json:"sequential_download,omitempty" yaml:"sequential_download,omitempty"`
	FirstLastPiecePrio *bool    `mapstructure:"first_last_piece_prio" json:"first_last_piece_prio,omitempty" yaml:"first_last_piece_prio,omitempty"`
	AutoTMM            *bool    `mapstructure:"auto_tmm" json:"auto_tmm,omitempty" yaml:"auto_tmm,omitempty"`
	ContentLayout      *string  `mapstructure:"content_layout" json:"content_layout,omitempty" yaml:"content_layout,omitempty"`
	UploadLimit        *int64   `mapstructure:"upload_limit" json:"upload_limit,omitempty" yaml:"upload_limit,omitempty"`       // bytes per second
	DownloadLimit      *int64   `mapstructure:"download_limit" json:"download_limit,omitempty" yaml:"download_limit,omitempty"` // bytes per second
	RatioLimit         *float64 `mapstructure:"ratio_limit" json:"ratio_limit,omitempty" yaml:"ratio_limit,omitempty"`
	SeedingTimeLimit   *int64   `mapstructure:"seeding_time_limit" json:"seeding_time_limit,omitempty" yaml:"seeding_time_limit,omitempty"` // minutes
}

// Merge returns o with every field set in override replacing its value
func (o SubmitOptions) Merge(override SubmitOptions) SubmitOptions {
	if override.SavePath != nil {
		o.SavePath = override.SavePath
	}
	if override.Category != nil {
		o.Category = override.Category
	}
	if len(override.Tags) > 0 {
		o.Tags = override.Tags
	}
	if override.Rename != nil {
		o.Rename = override.Rename
	}
	if override.Paused != nil {
		o.Paused = override.Paused
	}
	if override.SkipChecking != nil {
		o.SkipChecking = override.SkipChecking
	}
	if override.SequentialDownload != nil {
		o.SequentialDownload = override.SequentialDownload
	}
	if override.FirstLastPiecePrio != nil {
		o.FirstLastPiecePrio = override.FirstLastPiecePrio
	}
	if override.AutoTMM != nil {
		o.AutoTMM = override.AutoTMM
	}
	if override.ContentLayout != nil {
		o.ContentLayout = override.ContentLayout
	}
	if override.UploadLimit != nil {
		o.UploadLimit = override.UploadLimit
	}
	if override.DownloadLimit != nil {
		o.DownloadLimit = override.DownloadLimit
	}
	if override.RatioLimit != nil {
		o.RatioLimit = override.RatioLimit
	}
	if override.SeedingTimeLimit != nil {
		o.SeedingTimeLimit = override.SeedingTimeLimit
	}
	return o
}

// DownloadRequest asks a client to take over one result
type DownloadRequest struct {
	ID        string        `json:"id"`
	Client    string        `json:"client"`
	Item      ResultItem    `json:"item"`
	Options   SubmitOptions `json:"options"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewDownloadRequest creates a request for item on the named client
func NewDownloadRequest(item ResultItem, client string, options SubmitOptions) *DownloadRequest {
	return &DownloadRequest{
		ID:        uuid.New().String(),
		Client:    client,
		Item:      item,
		Options:   options,
		CreatedAt: time.Now(),
	}
}

// DownloadOutcome is the terminal result of a submission
type DownloadOutcome struct {
	RequestID string `json:"request_id"`
	Client    string `json:"client"`
	Title     string `json:"title"`
	Succeeded bool   `json:"succeeded"`
	Cause     Cause  `json:"cause,omitempty"`
	Err       error  `json:"-"`
}

// NewOutcome builds the outcome of req from the error returned by a client
func NewOutcome(req *DownloadRequest, err error) DownloadOutcome {
	out := DownloadOutcome{
		RequestID: req.ID,
		Client:    req.Client,
		Title:     req.Item.Title,
		Succeeded: err == nil,
	}
	if err != nil {
		out.Cause = CauseOf(err)
		out.Err = err
	}
	return out
}

// SubmissionStatus represents the state of a recorded submission
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionSucceeded SubmissionStatus = "succeeded"
	SubmissionFailed    SubmissionStatus = "failed"
)

// SubmissionRecord is the history entry of a submission
type SubmissionRecord struct {
	ID           string           `json:"id" gorm:"primaryKey"`
	Client       string           `json:"client" gorm:"not null;index"`
	ClientKind   ClientKind       `json:"client_kind"`
	Title        string           `json:"title"`
	Reference    string           `json:"reference" gorm:"type:text"`
	InfoHash     string           `json:"info_hash,omitempty" gorm:"index"`
	Status       SubmissionStatus `json:"status" gorm:"not null;index"`
	Cause        Cause            `json:"cause,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
	CreatedAt    time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
}

// NewSubmissionRecord creates a pending history entry for req
func NewSubmissionRecord(req *DownloadRequest, kind ClientKind) *SubmissionRecord {
	now := time.Now()
	return &SubmissionRecord{
		ID:         req.ID,
		Client:     req.Client,
		ClientKind: kind,
		Title:      req.Item.Title,
		Reference:  req.Item.Reference(),
		InfoHash:   strings.ToLower(req.Item.InfoHash),
		Status:     SubmissionPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// MarkSucceeded marks the submission as accepted by the client
func (r *SubmissionRecord) MarkSucceeded() {
	r.Status = SubmissionSucceeded
	now := time.Now()
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// MarkFailed marks the submission as failed
func (r *SubmissionRecord) MarkFailed(err error) {
	r.Status = SubmissionFailed
	r.Cause = CauseOf(err)
	r.ErrorMessage = err.Error()
	now := time.Now()
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// IsTerminal checks if the submission reached a final state
func (r *SubmissionRecord) IsTerminal() bool {
	return r.Status == SubmissionSucceeded || r.Status == SubmissionFailed
}
