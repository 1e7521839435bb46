package app

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/nyaa-go/internal/domain"
)

// mockSubmissionRepo implements domain.SubmissionRepository for testing
type mockSubmissionRepo struct {
	mu      sync.Mutex
	records map[string]*domain.SubmissionRecord
	updates int
}

func newMockSubmissionRepo() *mockSubmissionRepo {
	return &mockSubmissionRepo{records: make(map[string]*domain.SubmissionRecord)}
}

func (m *mockSubmissionRepo) Create(record *domain.SubmissionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *record
	m.records[record.ID] = &copied
	return nil
}

func (m *mockSubmissionRepo) Update(record *domain.SubmissionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *record
	m.records[record.ID] = &copied
	m.updates++
	return nil
}

func (m *mockSubmissionRepo) FindByID(id string) (*domain.SubmissionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[id]; ok {
		return r, nil
	}
	return nil, nil
}

func (m *mockSubmissionRepo) FindByInfoHash(hash string, statuses []domain.SubmissionStatus) (*domain.SubmissionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.InfoHash != hash {
			continue
		}
		for _, s := range statuses {
			if r.Status == s {
				return r, nil
			}
		}
	}
	return nil, nil
}

func (m *mockSubmissionRepo) FindAll(filters map[string]interface{}, limit int) ([]*domain.SubmissionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.SubmissionRecord
	for _, r := range m.records {
		if client, ok := filters["client"]; ok && r.Client != client {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockSubmissionRepo) GetStats() (*domain.SubmissionStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &domain.SubmissionStats{Total: int64(len(m.records))}
	for _, r := range m.records {
		switch r.Status {
		case domain.SubmissionPending:
			stats.Pending++
		case domain.SubmissionSucceeded:
			stats.Succeeded++
		case domain.SubmissionFailed:
			stats.Failed++
		}
	}
	return stats, nil
}

type mockClient struct {
	name   string
	kind   domain.ClientKind
	submit func(ctx context.Context, req *domain.DownloadRequest) error

	mu       sync.Mutex
	requests []*domain.DownloadRequest
}

func (c *mockClient) Name() string           { return c.name }
func (c *mockClient) Kind() domain.ClientKind { return c.kind }

func (c *mockClient) Submit(ctx context.Context, req *domain.DownloadRequest) error {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()
	if c.submit == nil {
		return nil
	}
	return c.submit(ctx, req)
}

type mockNotifier struct {
	submitted []string
	failed    []domain.Cause
}

func (n *mockNotifier) NotifySubmitted(title, client string) {
	n.submitted = append(n.submitted, title+"@"+client)
}

func (n *mockNotifier) NotifySubmissionFailed(title, client string, cause domain.Cause) {
	n.failed = append(n.failed, cause)
}

func testItem() domain.ResultItem {
	return domain.ResultItem{
		Title:    "[SubsPlease] Frieren - 01 (1080p)",
		Magnet:   "magnet:?xt=urn:btih:0123456789abcdef0123456789abcdef01234567",
		InfoHash: "0123456789abcdef0123456789abcdef01234567",
	}
}

func TestNewDownloadManager_Validation(t *testing.T) {
	direct := &mockClient{name: "open", kind: domain.ClientDirect}

	_, err := NewDownloadManager(nil, nil, "open", nil, nil, nil)
	assert.Equal(t, domain.CauseConfig, domain.CauseOf(err))

	_, err = NewDownloadManager(nil, []domain.DownloadClient{direct, direct}, "open", nil, nil, nil)
	assert.Equal(t, domain.CauseConfig, domain.CauseOf(err))

	_, err = NewDownloadManager(nil, []domain.DownloadClient{direct}, "qbit", nil, nil, nil)
	assert.Equal(t, domain.CauseConfig, domain.CauseOf(err))

	dm, err := NewDownloadManager(nil, []domain.DownloadClient{direct}, "open", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "open", dm.DefaultClient())
}

func TestDownloadManager_Clients(t *testing.T) {
	dm, err := NewDownloadManager(nil, []domain.DownloadClient{
		&mockClient{name: "qbit", kind: domain.ClientQBittorrent},
		&mockClient{name: "open", kind: domain.ClientDirect},
	}, "qbit", nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []ClientInfo{
		{Name: "open", Kind: domain.ClientDirect},
		{Name: "qbit", Kind: domain.ClientQBittorrent, Default: true},
	}, dm.Clients())

	require.NoError(t, dm.SetDefaultClient("open"))
	assert.Equal(t, "open", dm.DefaultClient())
	assert.Error(t, dm.SetDefaultClient("missing"))
	assert.Equal(t, "open", dm.DefaultClient())
}

func TestSubmit_Success(t *testing.T) {
	repo := newMockSubmissionRepo()
	notifier := &mockNotifier{}
	qbit := &mockClient{name: "qbit", kind: domain.ClientQBittorrent}
	dm, err := NewDownloadManager(repo, []domain.DownloadClient{qbit}, "qbit", notifier, nil, nil)
	require.NoError(t, err)

	req := domain.NewDownloadRequest(testItem(), "", domain.SubmitOptions{})
	outcome := dm.Submit(context.Background(), req)

	assert.True(t, outcome.Succeeded)
	assert.Empty(t, outcome.Cause)
	assert.Equal(t, "qbit", outcome.Client)
	assert.Equal(t, req.ID, outcome.RequestID)
	require.Len(t, qbit.requests, 1)
	assert.Equal(t, "qbit", qbit.requests[0].Client)
	assert.Equal(t, req.ID, qbit.requests[0].ID)
	assert.Empty(t, req.Client, "caller's request must not be modified")

	record, err := repo.FindByID(req.ID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, domain.SubmissionSucceeded, record.Status)
	assert.Equal(t, domain.ClientQBittorrent, record.ClientKind)
	assert.NotNil(t, record.CompletedAt)
	assert.Equal(t, []string{"[SubsPlease] Frieren - 01 (1080p)@qbit"}, notifier.submitted)
}

func TestSubmit_ClientFailure(t *testing.T) {
	repo := newMockSubmissionRepo()
	notifier := &mockNotifier{}
	qbit := &mockClient{name: "qbit", kind: domain.ClientQBittorrent, submit: func(ctx context.Context, req *domain.DownloadRequest) error {
		return &domain.AuthError{Client: "qbit", Reason: "bad credentials"}
	}}
	dm, err := NewDownloadManager(repo, []domain.DownloadClient{qbit}, "qbit", notifier, nil, nil)
	require.NoError(t, err)

	req := domain.NewDownloadRequest(testItem(), "qbit", domain.SubmitOptions{})
	outcome := dm.Submit(context.Background(), req)

	assert.False(t, outcome.Succeeded)
	assert.Equal(t, domain.CauseAuth, outcome.Cause)

	record, _ := repo.FindByID(req.ID)
	require.NotNil(t, record)
	assert.Equal(t, domain.SubmissionFailed, record.Status)
	assert.Equal(t, domain.CauseAuth, record.Cause)
	assert.Contains(t, record.ErrorMessage, "bad credentials")
	assert.Equal(t, []domain.Cause{domain.CauseAuth}, notifier.failed)
}

func TestSubmit_UnknownClient(t *testing.T) {
	repo := newMockSubmissionRepo()
	dm, err := NewDownloadManager(repo, []domain.DownloadClient{&mockClient{name: "open", kind: domain.ClientDirect}}, "open", nil, nil, nil)
	require.NoError(t, err)

	outcome := dm.Submit(context.Background(), domain.NewDownloadRequest(testItem(), "missing", domain.SubmitOptions{}))

	assert.False(t, outcome.Succeeded)
	assert.Equal(t, domain.CauseConfig, outcome.Cause)
	assert.Empty(t, repo.records)
}

func TestSubmit_DeadlineBecomesTimeout(t *testing.T) {
	repo := newMockSubmissionRepo()
	slow := &mockClient{name: "qbit", kind: domain.ClientQBittorrent, submit: func(ctx context.Context, req *domain.DownloadRequest) error {
		<-ctx.Done()
		return &domain.NetworkError{Op: "POST", URL: "http://localhost:8080", Err: ctx.Err()}
	}}
	dm, err := NewDownloadManager(repo, []domain.DownloadClient{slow}, "qbit", nil, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	req := domain.NewDownloadRequest(testItem(), "qbit", domain.SubmitOptions{})
	outcome := dm.Submit(ctx, req)

	assert.Equal(t, domain.CauseTimeout, outcome.Cause)
	record, _ := repo.FindByID(req.ID)
	require.NotNil(t, record)
	assert.Equal(t, domain.CauseTimeout, record.Cause)
}

func TestSubmit_WithoutHistory(t *testing.T) {
	dm, err := NewDownloadManager(nil, []domain.DownloadClient{&mockClient{name: "open", kind: domain.ClientDirect}}, "open", nil, nil, nil)
	require.NoError(t, err)

	outcome := dm.Submit(context.Background(), domain.NewDownloadRequest(testItem(), "", domain.SubmitOptions{}))
	assert.True(t, outcome.Succeeded)

	_, err = dm.History(nil, 10)
	assert.ErrorIs(t, err, ErrHistoryDisabled)
	_, err = dm.GetSubmission("x")
	assert.ErrorIs(t, err, ErrHistoryDisabled)
	_, err = dm.Stats()
	assert.ErrorIs(t, err, ErrHistoryDisabled)
}

func TestDownloadManager_HistoryAndStats(t *testing.T) {
	repo := newMockSubmissionRepo()
	fail := true
	qbit := &mockClient{name: "qbit", kind: domain.ClientQBittorrent, submit: func(ctx context.Context, req *domain.DownloadRequest) error {
		if fail {
			return &domain.SubmissionError{Client: "qbit", StatusCode: 415, Reason: "torrent file is not valid"}
		}
		return nil
	}}
	open := &mockClient{name: "open", kind: domain.ClientDirect}
	dm, err := NewDownloadManager(repo, []domain.DownloadClient{qbit, open}, "qbit", nil, nil, nil)
	require.NoError(t, err)

	dm.Submit(context.Background(), domain.NewDownloadRequest(testItem(), "qbit", domain.SubmitOptions{}))
	fail = false
	dm.Submit(context.Background(), domain.NewDownloadRequest(testItem(), "qbit", domain.SubmitOptions{}))
	dm.Submit(context.Background(), domain.NewDownloadRequest(testItem(), "open", domain.SubmitOptions{}))

	all, err := dm.History(nil, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	onlyQbit, err := dm.History(map[string]interface{}{"client": "qbit"}, 0)
	require.NoError(t, err)
	assert.Len(t, onlyQbit, 2)

	stats, err := dm.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Succeeded)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, 3, repo.updates)
}
