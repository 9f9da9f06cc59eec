package mock

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/garnizeh/jobtrack/pkg/models"
	"github.com/garnizeh/jobtrack/pkg/repository"
)

// Test helpers and mocks
type Mocks struct {
	UserRepo *UserRepo
	AppRepo  *ApplicationRepo
}

func NewMocks() *Mocks {
	return &Mocks{
		UserRepo: NewUserRepo(),
		AppRepo:  NewApplicationRepo(),
	}
}

// UserRepo is an in-memory repository.UserRepo. Setting an *Err field makes
// the matching method fail with it.
type UserRepo struct {
	mu        sync.Mutex
	users     map[string]*models.User
	order     []string
	CreateErr error
	GetErr    error
	UpdateErr error
	// Updates counts successful UpdateCredentials calls that wrote something.
	Updates int
}

var _ repository.UserRepo = (*UserRepo)(nil)

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[string]*models.User)}
}

func (m *UserRepo) CreateUser(ctx context.Context, u *models.User) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Username == u.Username {
			return fmt.Errorf("username %q: %w", u.Username, repository.ErrDuplicate)
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	cp := *u
	m.users[u.ID] = &cp
	m.order = append(m.order, u.ID)
	return nil
}

func (m *UserRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *UserRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *UserRepo) UpdateCredentials(ctx context.Context, id string, username, passwordHash *string) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	if username == nil && passwordHash == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, sql.ErrNoRows)
	}
	if username != nil {
		for otherID, other := range m.users {
			if otherID != id && other.Username == *username {
				return fmt.Errorf("username %q: %w", *username, repository.ErrDuplicate)
			}
		}
		u.Username = *username
	}
	if passwordHash != nil {
		u.PasswordHash = *passwordHash
	}
	m.Updates++
	return nil
}

func (m *UserRepo) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.UserSummary, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		u := m.users[m.order[i]]
		out = append(out, models.UserSummary{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt})
	}
	return out, nil
}

// ApplicationRepo is an in-memory repository.ApplicationRepo. A single mutex
// makes every operation atomic.
type ApplicationRepo struct {
	mu      sync.Mutex
	apps    map[string]*models.Application
	seq     map[string]int
	next    int
	GetErr  error
	SaveErr error
}

var _ repository.ApplicationRepo = (*ApplicationRepo)(nil)

func NewApplicationRepo() *ApplicationRepo {
	return &ApplicationRepo{apps: make(map[string]*models.Application), seq: make(map[string]int)}
}

func (m *ApplicationRepo) CreateApplication(ctx context.Context, a *models.Application) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	a.ID = uuid.NewString()
	a.CreatedAt = time.Now().UTC()
	a.Reminders = withIDs(a.ID, a.Reminders)
	m.apps[a.ID] = clone(a)
	m.next++
	m.seq[a.ID] = m.next
	return nil
}

func (m *ApplicationRepo) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if a, ok := m.apps[id]; ok {
		return clone(a), nil
	}
	return nil, nil
}

func (m *ApplicationRepo) ListApplicationsByOwner(ctx context.Context, ownerID string) ([]models.Application, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.Application{}
	for _, a := range m.apps {
		if a.OwnerID == ownerID {
			out = append(out, *clone(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.seq[out[i].ID] > m.seq[out[j].ID] })
	return out, nil
}

func (m *ApplicationRepo) UpdateApplication(ctx context.Context, id string, check repository.CheckFunc, f models.ApplicationFields, reminders []models.Reminder) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var current *models.Application
	if a, ok := m.apps[id]; ok {
		current = clone(a)
	}
	if err := check(current); err != nil {
		return nil, err
	}
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}

	current.ApplicationFields = f
	current.Reminders = withIDs(id, reminders)
	m.apps[id] = clone(current)
	return current, nil
}

func (m *ApplicationRepo) DeleteApplication(ctx context.Context, id string, check repository.CheckFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var current *models.Application
	if a, ok := m.apps[id]; ok {
		current = clone(a)
	}
	if err := check(current); err != nil {
		return err
	}
	if m.SaveErr != nil {
		return m.SaveErr
	}

	delete(m.apps, id)
	delete(m.seq, id)
	return nil
}

// Len returns the number of stored applications.
func (m *ApplicationRepo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.apps)
}

func withIDs(applicationID string, reminders []models.Reminder) []models.Reminder {
	out := make([]models.Reminder, len(reminders))
	for i, r := range reminders {
		r.ID = uuid.NewString()
		r.ApplicationID = applicationID
		out[i] = r
	}
	return out
}

func clone(a *models.Application) *models.Application {
	cp := *a
	cp.Reminders = append([]models.Reminder{}, a.Reminders...)
	return &cp
}
