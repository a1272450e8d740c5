package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/repository"

	"github.com/google/uuid"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*models.User)}
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) Update(_ context.Context, id uuid.UUID, upd models.UserUpdate) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.Password != nil {
		u.Password = *upd.Password
	}
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

type fakeScanStore struct {
	mu    sync.Mutex
	scans map[uuid.UUID]*models.ReceiptScan
	err   error
}

func newFakeScanStore() *fakeScanStore {
	return &fakeScanStore{scans: make(map[uuid.UUID]*models.ReceiptScan)}
}

func (f *fakeScanStore) Create(_ context.Context, scan *models.ReceiptScan) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *scan
	f.scans[scan.ID] = &cp
	return nil
}

func (f *fakeScanStore) GetByID(_ context.Context, id uuid.UUID) (*models.ReceiptScan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.scans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeScanStore) ListByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*models.ReceiptScan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ReceiptScan
	for _, s := range f.scans {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

// fakeTxStore enforces one transaction per scan like the unique index does.
// With staleReads set, GetByScanID never sees committed rows, which is what a
// concurrent confirm observes before the other insert lands.
type fakeTxStore struct {
	mu         sync.Mutex
	txs        []*models.Transaction
	staleReads bool
}

func (f *fakeTxStore) Create(_ context.Context, tx *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.txs {
		if tx.ScanID != nil && existing.ScanID != nil && *existing.ScanID == *tx.ScanID {
			return repository.ErrDuplicate
		}
	}
	cp := *tx
	f.txs = append(f.txs, &cp)
	return nil
}

func (f *fakeTxStore) GetByScanID(_ context.Context, scanID uuid.UUID) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.staleReads {
		return nil, repository.ErrNotFound
	}
	for _, tx := range f.txs {
		if tx.ScanID != nil && *tx.ScanID == scanID {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeTxStore) ListByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Transaction
	for _, tx := range f.txs {
		if tx.UserID == userID {
			cp := *tx
			out = append(out, &cp)
		}
	}
	return page(out, limit, offset), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

type fakeOCR struct {
	text  string
	err   error
	paths []string
}

func (f *fakeOCR) Provider() string { return "fake" }

func (f *fakeOCR) ExtractText(_ context.Context, path string) (string, error) {
	f.paths = append(f.paths, path)
	return f.text, f.err
}

type fakeRecognizer struct {
	text string
	err  error
}

func (f *fakeRecognizer) Name() string { return "fake" }

func (f *fakeRecognizer) Recognize(context.Context, string) (string, error) {
	return f.text, f.err
}

type recordingObserver struct {
	scans       []error
	extractions map[string]int
	failures    []string
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{extractions: make(map[string]int)}
}

func (r *recordingObserver) RecordOCRFailure(_ string, reason string) {
	r.failures = append(r.failures, reason)
}

func (r *recordingObserver) RecordScan(_ string, err error, _ time.Duration) {
	r.scans = append(r.scans, err)
}

func (r *recordingObserver) RecordExtraction(category string, _ bool) {
	r.extractions[category]++
}
