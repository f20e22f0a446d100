package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/dmitrijs2005/postboard/internal/dbx"
	"github.com/dmitrijs2005/postboard/internal/server/models"
	accountsrepo "github.com/dmitrijs2005/postboard/internal/server/repositories/accounts"
	postsrepo "github.com/dmitrijs2005/postboard/internal/server/repositories/posts"
	"github.com/stretchr/testify/require"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// --- accounts ---

type fakeAccountsRepo struct {
	mu       sync.Mutex
	byEmail  map[string]*models.Account
	nextID   int
	getErr   error
	createEr error
}

func newFakeAccountsRepo() *fakeAccountsRepo {
	return &fakeAccountsRepo{byEmail: map[string]*models.Account{}}
}

func (f *fakeAccountsRepo) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createEr != nil {
		return nil, f.createEr
	}
	if _, ok := f.byEmail[a.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	f.nextID++
	a.ID = fmt.Sprintf("acc-%d", f.nextID)
	f.byEmail[a.Email] = a
	return a, nil
}

func (f *fakeAccountsRepo) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	a, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return a, nil
}

// --- posts ---

// memPosts keeps posts in memory and applies the same ownership predicate
// as the SQL statements.
type memPosts struct {
	mu     sync.Mutex
	order  []string
	byID   map[string]*models.Post
	nextID int

	lastLimit, lastOffset int

	createErr error
	listErr   error
	countErr  error
	deleteErr error
}

func newMemPosts() *memPosts {
	return &memPosts{byID: map[string]*models.Post{}}
}

func (m *memPosts) seed(n int, creator string) {
	for i := 0; i < n; i++ {
		_, _ = m.Create(context.Background(), &models.Post{
			Title: fmt.Sprintf("t%d", i), Content: "c", ImagePath: fmt.Sprintf("http://s3/b/%d.png", i), CreatorID: creator,
		})
	}
}

func (m *memPosts) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.nextID++
	p.ID = fmt.Sprintf("p-%d", m.nextID)
	cp := *p
	m.byID[p.ID] = &cp
	m.order = append(m.order, p.ID)
	return p, nil
}

func (m *memPosts) GetByID(ctx context.Context, id string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPosts) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.lastLimit, m.lastOffset = limit, offset

	ids := m.order
	if limit > 0 {
		if offset >= len(ids) {
			ids = nil
		} else {
			ids = ids[offset:min(offset+limit, len(ids))]
		}
	}
	out := make([]*models.Post, 0, len(ids))
	for _, id := range ids {
		cp := *m.byID[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memPosts) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countErr != nil {
		return 0, m.countErr
	}
	return len(m.order), nil
}

func (m *memPosts) GetForUpdate(ctx context.Context, id, creatorID string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[id]
	if !ok || cur.CreatorID != creatorID {
		return nil, common.ErrorNotAuthorizedOrNotFound
	}
	cp := *cur
	return &cp, nil
}

func (m *memPosts) Update(ctx context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[p.ID]
	if !ok || cur.CreatorID != p.CreatorID {
		return common.ErrorNotAuthorizedOrNotFound
	}
	cur.Title, cur.Content, cur.ImagePath = p.Title, p.Content, p.ImagePath
	return nil
}

func (m *memPosts) Delete(ctx context.Context, id, creatorID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return "", m.deleteErr
	}
	cur, ok := m.byID[id]
	if !ok || cur.CreatorID != creatorID {
		return "", common.ErrorNotAuthorizedOrNotFound
	}
	delete(m.byID, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return cur.ImagePath, nil
}

// --- manager ---

type fakeRepoManager struct {
	accounts *fakeAccountsRepo
	posts    *memPosts
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Accounts(db dbx.DBTX) accountsrepo.Repository { return m.accounts }
func (m *fakeRepoManager) Posts(db dbx.DBTX) postsrepo.Repository       { return m.posts }

// --- storage ---

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	removed []string
	putErr  error
	remErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return "", f.putErr
	}
	url := "http://s3/b/" + key
	f.objects[url] = data
	return url, nil
}

func (f *fakeStore) Remove(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.remErr != nil {
		return f.remErr
	}
	delete(f.objects, url)
	f.removed = append(f.removed, url)
	return nil
}

func (f *fakeStore) has(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[url]
	return ok
}

var errBoom = errors.New("boom")
