package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dmitrijs2005/incidentportal/internal/common"
	"github.com/dmitrijs2005/incidentportal/internal/dbx"
	"github.com/dmitrijs2005/incidentportal/internal/server/models"
	incidentsrepo "github.com/dmitrijs2005/incidentportal/internal/server/repositories/incidents"
	"github.com/dmitrijs2005/incidentportal/internal/server/repositories/repomanager"
	usersrepo "github.com/dmitrijs2005/incidentportal/internal/server/repositories/users"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// memUsers is an in-memory users.Repository with a unique email index.
type memUsers struct {
	mu      sync.Mutex
	byID    map[string]*models.User
	seq     int
	getErr  error
	created int
	// raceOnCreate makes Create behave as if a concurrent insert won.
	raceOnCreate bool
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*models.User{}}
}

func (r *memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.raceOnCreate {
		return nil, common.ErrorAlreadyExists
	}
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	r.seq++
	r.created++
	cp := *u
	cp.ID = fmt.Sprintf("u-%d", r.seq)
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, u := range r.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

// memIncidents is an in-memory incidents.Repository.
type memIncidents struct {
	mu        sync.Mutex
	byID      map[string]*models.Incident
	seq       int
	clock     time.Time
	createErr error
}

func newMemIncidents() *memIncidents {
	return &memIncidents{
		byID:  map[string]*models.Incident{},
		clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *memIncidents) Create(ctx context.Context, in *models.Incident) (*models.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.seq++
	r.clock = r.clock.Add(time.Second)
	cp := *in
	cp.ID = fmt.Sprintf("i-%d", r.seq)
	cp.CreatedAt, cp.UpdatedAt = r.clock, r.clock
	r.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memIncidents) List(ctx context.Context) ([]models.IncidentSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.IncidentSummary, 0, len(r.byID))
	for _, i := range r.byID {
		out = append(out, models.IncidentSummary{ID: i.ID, Title: i.Title, IncidentType: i.IncidentType, CreatedAt: i.CreatedAt, Image: i.Image})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func (r *memIncidents) GetByID(ctx context.Context, id string) (*models.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.byID[id]; ok {
		cp := *i
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (r *memIncidents) Update(ctx context.Context, id string, p models.IncidentPatch) (*models.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	i.Title, i.IncidentType = p.Title, p.IncidentType
	if p.Description != nil {
		i.Description = *p.Description
	}
	if p.Location != nil {
		i.Location = *p.Location
	}
	r.clock = r.clock.Add(time.Second)
	i.UpdatedAt = r.clock
	cp := *i
	return &cp, nil
}

func (r *memIncidents) Delete(ctx context.Context, id string) (*models.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(r.byID, id)
	return i, nil
}

type fakeRepoManager struct {
	repomanager.RepositoryManager
	users     *memUsers
	incidents *memIncidents
}

func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository         { return m.users }
func (m *fakeRepoManager) Incidents(db dbx.DBTX) incidentsrepo.Repository { return m.incidents }

// memImages is an in-memory storage.ImageStore.
type memImages struct {
	mu      sync.Mutex
	files   map[string]string
	saveErr error
	deleted []string
}

func newMemImages() *memImages {
	return &memImages{files: map[string]string{}}
}

func (s *memImages) Save(ctx context.Context, name, contentType string, r io.Reader, size int64) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = string(b)
	return nil
}

func (s *memImages) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, name)
	s.deleted = append(s.deleted, name)
	return nil
}

func (s *memImages) Serve(w http.ResponseWriter, r *http.Request, name string) error {
	s.mu.Lock()
	body, ok := s.files[name]
	s.mu.Unlock()
	if !ok {
		return common.ErrorNotFound
	}
	_, err := io.Copy(w, strings.NewReader(body))
	return err
}

func ptr(s string) *string { return &s }
