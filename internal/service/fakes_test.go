package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/pqrsd-service/internal/domain"
	"github.com/spec-kit/pqrsd-service/internal/events"
	"github.com/spec-kit/pqrsd-service/internal/repository"
)

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []domain.StatusHistoryEntry
}

func (f *fakeHistoryRepo) Append(_ context.Context, entry *domain.StatusHistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeHistoryRepo) ListByCase(_ context.Context, caseID string) ([]domain.StatusHistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.StatusHistoryEntry, 0)
	for _, entry := range f.entries {
		if entry.CaseID == caseID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (f *fakeHistoryRepo) DeleteByCase(_ context.Context, caseID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.entries[:0]
	for _, entry := range f.entries {
		if entry.CaseID != caseID {
			kept = append(kept, entry)
		}
	}
	f.entries = kept
	return nil
}

type fakeCaseRepo struct {
	mu      sync.Mutex
	cases   map[string]*domain.Case
	history *fakeHistoryRepo

	createErr error

	// beforeStatusUpdate runs before the optimistic status check, letting a
	// test mutate stored state between the caller's read and write.
	beforeStatusUpdate func()
}

func newFakeCaseRepo(history *fakeHistoryRepo) *fakeCaseRepo {
	return &fakeCaseRepo{cases: make(map[string]*domain.Case), history: history}
}

func (f *fakeCaseRepo) Create(_ context.Context, c *domain.Case) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	stored := *c
	f.cases[c.ID] = &stored
	return nil
}

func (f *fakeCaseRepo) Update(_ context.Context, c *domain.Case) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cases[c.ID]; !ok {
		return pgx.ErrNoRows
	}
	c.UpdatedAt = time.Now()
	stored := *c
	f.cases[c.ID] = &stored
	return nil
}

func (f *fakeCaseRepo) UpdateStatusWithHistory(ctx context.Context, c *domain.Case, expected domain.CaseStatus, entry *domain.StatusHistoryEntry) error {
	if f.beforeStatusUpdate != nil {
		f.beforeStatusUpdate()
	}
	f.mu.Lock()
	stored, ok := f.cases[c.ID]
	if !ok {
		f.mu.Unlock()
		return pgx.ErrNoRows
	}
	if stored.Status != expected {
		f.mu.Unlock()
		return repository.ErrStatusConflict
	}
	c.UpdatedAt = time.Now()
	copied := *c
	f.cases[c.ID] = &copied
	f.mu.Unlock()
	return f.history.Append(ctx, entry)
}

func (f *fakeCaseRepo) GetByID(_ context.Context, id string) (*domain.Case, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.cases[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (f *fakeCaseRepo) GetByFilingNumber(_ context.Context, number string) (*domain.Case, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, stored := range f.cases {
		if stored.FilingNumber == number {
			copied := *stored
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeCaseRepo) GetByFilingNumberAndAccessCode(_ context.Context, number, code string) (*domain.Case, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, stored := range f.cases {
		if stored.FilingNumber == number && stored.AccessCode == code {
			copied := *stored
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeCaseRepo) matches(c *domain.Case, filter repository.CaseFilter) bool {
	if filter.Type != nil && c.Type != *filter.Type {
		return false
	}
	if filter.Status != nil && c.Status != *filter.Status {
		return false
	}
	if filter.ExcludeStatus != nil && c.Status == *filter.ExcludeStatus {
		return false
	}
	if filter.Priority != nil && c.Priority != *filter.Priority {
		return false
	}
	if filter.AssignedDepartmentID != nil && (c.AssignedDepartmentID == nil || *c.AssignedDepartmentID != *filter.AssignedDepartmentID) {
		return false
	}
	if filter.AssignedUserID != nil && (c.AssignedUserID == nil || *c.AssignedUserID != *filter.AssignedUserID) {
		return false
	}
	if filter.CreatedFrom != nil && c.CreatedAt.Before(*filter.CreatedFrom) {
		return false
	}
	if filter.CreatedTo != nil && c.CreatedAt.After(*filter.CreatedTo) {
		return false
	}
	if filter.DueBefore != nil && !c.DueDate.Before(*filter.DueBefore) {
		return false
	}
	if filter.DueAfter != nil && !c.DueDate.After(*filter.DueAfter) {
		return false
	}
	return true
}

func (f *fakeCaseRepo) List(_ context.Context, filter repository.CaseFilter) ([]domain.Case, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Case, 0)
	for _, stored := range f.cases {
		if f.matches(stored, filter) {
			out = append(out, *stored)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeCaseRepo) Count(_ context.Context, filter repository.CaseFilter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, stored := range f.cases {
		if f.matches(stored, filter) {
			count++
		}
	}
	return count, nil
}

func (f *fakeCaseRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cases[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.cases, id)
	return nil
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments []domain.Comment
}

func (f *fakeCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	comment.ID = uuid.NewString()
	comment.CreatedAt = time.Now()
	f.comments = append(f.comments, *comment)
	return nil
}

func (f *fakeCommentRepo) ListByCase(_ context.Context, caseID string, includeInternal bool) ([]domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Comment, 0)
	for _, comment := range f.comments {
		if comment.CaseID != caseID {
			continue
		}
		if comment.Internal && !includeInternal {
			continue
		}
		out = append(out, comment)
	}
	return out, nil
}

func (f *fakeCommentRepo) DeleteByCase(_ context.Context, caseID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.comments[:0]
	for _, comment := range f.comments {
		if comment.CaseID != caseID {
			kept = append(kept, comment)
		}
	}
	f.comments = kept
	return nil
}

type fakeAttachmentRepo struct {
	mu          sync.Mutex
	attachments []domain.AttachmentMeta
}

func (f *fakeAttachmentRepo) Create(_ context.Context, att *domain.AttachmentMeta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	att.ID = uuid.NewString()
	att.CreatedAt = time.Now()
	f.attachments = append(f.attachments, *att)
	return nil
}

func (f *fakeAttachmentRepo) ListByCase(_ context.Context, caseID string) ([]domain.AttachmentMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.AttachmentMeta, 0)
	for _, att := range f.attachments {
		if att.CaseID == caseID {
			out = append(out, att)
		}
	}
	return out, nil
}

func (f *fakeAttachmentRepo) DeleteByCase(_ context.Context, caseID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.attachments[:0]
	for _, att := range f.attachments {
		if att.CaseID != caseID {
			kept = append(kept, att)
		}
	}
	f.attachments = kept
	return nil
}

type fakeDepartmentRepo struct {
	mu          sync.Mutex
	departments map[string]*domain.Department
}

func newFakeDepartmentRepo() *fakeDepartmentRepo {
	return &fakeDepartmentRepo{departments: make(map[string]*domain.Department)}
}

func (f *fakeDepartmentRepo) Create(_ context.Context, dept *domain.Department) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	dept.ID = uuid.NewString()
	dept.CreatedAt = time.Now()
	dept.UpdatedAt = dept.CreatedAt
	stored := *dept
	f.departments[dept.ID] = &stored
	return nil
}

func (f *fakeDepartmentRepo) Update(_ context.Context, dept *domain.Department) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.departments[dept.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *dept
	f.departments[dept.ID] = &stored
	return nil
}

func (f *fakeDepartmentRepo) GetByID(_ context.Context, id string) (*domain.Department, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.departments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (f *fakeDepartmentRepo) ListActive(_ context.Context) ([]domain.Department, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Department, 0)
	for _, stored := range f.departments {
		if stored.Active {
			out = append(out, *stored)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, stored := range f.users {
		if stored.Email == user.Email {
			return errors.New("duplicate email")
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, stored := range f.users {
		if stored.Email == email {
			copied := *stored
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) ListActive(_ context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.User, 0)
	for _, stored := range f.users {
		if stored.Active {
			out = append(out, *stored)
		}
	}
	return out, nil
}

type fakeSequencer struct {
	mu     sync.Mutex
	values map[int]int64
	err    error
}

func (f *fakeSequencer) Next(_ context.Context, year int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	if f.values == nil {
		f.values = make(map[int]int64)
	}
	f.values[year]++
	return f.values[year], nil
}

// capturingDispatcher records published events and can simulate a failing
// downstream handler.
type capturingDispatcher struct {
	mu         sync.Mutex
	published  []events.Event
	handlerErr error
}

func (d *capturingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.published = append(d.published, event)
	return d.handlerErr
}

func (d *capturingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *capturingDispatcher) eventsOfType(t events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.Event, 0)
	for _, event := range d.published {
		if event.Type == t {
			out = append(out, event)
		}
	}
	return out
}

type failingObjectStore struct {
	calls int
}

func (f *failingObjectStore) DeleteAllForCase(context.Context, string) error {
	f.calls++
	return errors.New("object store unavailable")
}
