// Package memory is an in-process implementation of service.Store for local
// runs and tests. It enforces the same unique constraints as the SQL schema.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/Sharatdevadiga/careerflow-api-server/internal/models"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/service"
)

type state struct {
	users      map[string]models.User
	jobs       map[string]models.Job
	registries map[models.RegistryKind]map[string]models.Registry
	seq        map[string]int
	next       int
}

// Store guards its state with one lock. A store bound to a transaction runs
// while its parent holds that lock, so its methods skip locking.
type Store struct {
	mu   *sync.RWMutex
	st   *state
	inTx bool
}

func New() *Store {
	return &Store{mu: &sync.RWMutex{}, st: &state{
		users: make(map[string]models.User),
		jobs:  make(map[string]models.Job),
		registries: map[models.RegistryKind]map[string]models.Registry{
			models.SavedRegistry:   make(map[string]models.Registry),
			models.AppliedRegistry: make(map[string]models.Registry),
		},
		seq: make(map[string]int),
	}}
}

var _ service.Store = (*Store)(nil)

// WithTx holds the write lock for the whole of fn, so other writers wait, and
// restores the snapshot if fn fails.
func (s *Store) WithTx(ctx context.Context, fn func(service.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.lock()
	defer s.unlock()

	snapshot := s.st.clone()
	if err := fn(&Store{mu: s.mu, st: s.st, inTx: true}); err != nil {
		*s.st = *snapshot
		return err
	}
	return nil
}

func (s *Store) lock() {
	if !s.inTx {
		s.mu.Lock()
	}
}

func (s *Store) unlock() {
	if !s.inTx {
		s.mu.Unlock()
	}
}

func (s *Store) rlock() {
	if !s.inTx {
		s.mu.RLock()
	}
}

func (s *Store) runlock() {
	if !s.inTx {
		s.mu.RUnlock()
	}
}

func (st *state) clone() *state {
	c := &state{
		users:      make(map[string]models.User, len(st.users)),
		jobs:       make(map[string]models.Job, len(st.jobs)),
		registries: make(map[models.RegistryKind]map[string]models.Registry, len(st.registries)),
		seq:        make(map[string]int, len(st.seq)),
		next:       st.next,
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.jobs {
		v.Locations = append(pq.StringArray(nil), v.Locations...)
		c.jobs[k] = v
	}
	for kind, regs := range st.registries {
		c.registries[kind] = make(map[string]models.Registry, len(regs))
		for k, v := range regs {
			v.Jobs = append(pq.StringArray(nil), v.Jobs...)
			c.registries[kind][k] = v
		}
	}
	for k, v := range st.seq {
		c.seq[k] = v
	}
	return c
}

func (st *state) stamp(id string) {
	st.next++
	st.seq[id] = st.next
}

// Users

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.lock()
	defer s.unlock()

	for _, u := range s.st.users {
		if u.Email == user.Email {
			return service.ErrDuplicate
		}
	}
	if _, exists := s.st.users[user.ID]; exists {
		return service.ErrDuplicate
	}

	s.st.users[user.ID] = *user
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.rlock()
	defer s.runlock()

	u, ok := s.st.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.rlock()
	defer s.runlock()

	for _, u := range s.st.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *Store) SetRegistryID(ctx context.Context, userID string, kind models.RegistryKind, registryID string) error {
	s.lock()
	defer s.unlock()

	u, ok := s.st.users[userID]
	if !ok {
		return nil
	}
	u.SetRegistryID(kind, registryID)
	u.UpdatedAt = time.Now()
	s.st.users[userID] = u
	return nil
}

func (s *Store) UpdatePassword(ctx context.Context, userID, hash string, changedAt time.Time) error {
	s.lock()
	defer s.unlock()

	u, ok := s.st.users[userID]
	if !ok {
		return nil
	}
	u.PasswordHash = hash
	u.PasswordChangedAt = &changedAt
	u.UpdatedAt = changedAt
	s.st.users[userID] = u
	return nil
}

// DeleteUser removes a user and everything they own, like the SQL cascades.
func (s *Store) DeleteUser(ctx context.Context, userID string) {
	s.lock()
	defer s.unlock()

	delete(s.st.users, userID)
	for id, job := range s.st.jobs {
		if job.EmployerID == userID {
			delete(s.st.jobs, id)
		}
	}
	for _, regs := range s.st.registries {
		for id, reg := range regs {
			if reg.UserID == userID {
				delete(regs, id)
			}
		}
	}
}

// Jobs

func (s *Store) CreateJob(ctx context.Context, job *models.Job) error {
	s.lock()
	defer s.unlock()

	if s.st.jobConflict(job) {
		return service.ErrDuplicate
	}

	s.st.jobs[job.ID] = copyJob(*job)
	s.st.stamp(job.ID)
	return nil
}

func (st *state) jobConflict(job *models.Job) bool {
	for _, j := range st.jobs {
		if j.ID != job.ID && j.EmployerID == job.EmployerID && j.Role == job.Role && j.Date.Equal(job.Date) {
			return true
		}
	}
	return false
}

func (s *Store) GetJob(ctx context.Context, id string) (*models.Job, error) {
	s.rlock()
	defer s.runlock()

	j, ok := s.st.jobs[id]
	if !ok {
		return nil, nil
	}
	j = copyJob(j)
	return &j, nil
}

func (s *Store) GetJobsByIDs(ctx context.Context, ids []string) ([]models.Job, error) {
	s.rlock()
	defer s.runlock()

	jobs := make([]models.Job, 0, len(ids))
	for _, id := range ids {
		if j, ok := s.st.jobs[id]; ok {
			jobs = append(jobs, copyJob(j))
		}
	}
	return jobs, nil
}

func (s *Store) ListJobs(ctx context.Context, offset, limit int) ([]models.Job, int, error) {
	return s.filterJobs(func(models.Job) bool { return true }, offset, limit)
}

func (s *Store) SearchJobs(ctx context.Context, text string, offset, limit int) ([]models.Job, int, error) {
	needle := strings.ToLower(text)
	return s.filterJobs(func(j models.Job) bool {
		return strings.Contains(strings.ToLower(j.Role), needle) ||
			strings.Contains(strings.ToLower(j.Description), needle)
	}, offset, limit)
}

func (s *Store) ListJobsByEmployer(ctx context.Context, employerID string, offset, limit int) ([]models.Job, int, error) {
	return s.filterJobs(func(j models.Job) bool { return j.EmployerID == employerID }, offset, limit)
}

// filterJobs pages through matching jobs, newest first.
func (s *Store) filterJobs(match func(models.Job) bool, offset, limit int) ([]models.Job, int, error) {
	s.rlock()
	defer s.runlock()

	var matched []models.Job
	for _, j := range s.st.jobs {
		if match(j) {
			matched = append(matched, copyJob(j))
		}
	}

	sort.Slice(matched, func(a, b int) bool {
		return s.st.seq[matched[a].ID] > s.st.seq[matched[b].ID]
	})

	total := len(matched)
	start := min(offset, total)
	end := min(start+limit, total)
	return matched[start:end], total, nil
}

func (s *Store) UpdateJob(ctx context.Context, job *models.Job) error {
	s.lock()
	defer s.unlock()

	if _, ok := s.st.jobs[job.ID]; !ok {
		return nil
	}
	if s.st.jobConflict(job) {
		return service.ErrDuplicate
	}

	s.st.jobs[job.ID] = copyJob(*job)
	return nil
}

func (s *Store) DeleteJob(ctx context.Context, id string) error {
	s.lock()
	defer s.unlock()

	delete(s.st.jobs, id)
	delete(s.st.seq, id)
	return nil
}

func copyJob(j models.Job) models.Job {
	j.Locations = append(pq.StringArray(nil), j.Locations...)
	return j
}

// Registries

func (s *Store) CreateRegistry(ctx context.Context, kind models.RegistryKind, reg *models.Registry) error {
	s.lock()
	defer s.unlock()

	regs := s.st.registries[kind]
	for _, r := range regs {
		if r.UserID == reg.UserID {
			return service.ErrDuplicate
		}
	}

	r := *reg
	r.Jobs = append(pq.StringArray{}, reg.Jobs...)
	regs[reg.ID] = r
	return nil
}

func (s *Store) GetRegistry(ctx context.Context, kind models.RegistryKind, id string) (*models.Registry, error) {
	s.rlock()
	defer s.runlock()

	r, ok := s.st.registries[kind][id]
	if !ok {
		return nil, nil
	}
	r.Jobs = append(pq.StringArray{}, r.Jobs...)
	return &r, nil
}

func (s *Store) GetRegistryByUser(ctx context.Context, kind models.RegistryKind, userID string) (*models.Registry, error) {
	s.rlock()
	defer s.runlock()

	for _, r := range s.st.registries[kind] {
		if r.UserID == userID {
			r.Jobs = append(pq.StringArray{}, r.Jobs...)
			return &r, nil
		}
	}
	return nil, nil
}

func (s *Store) AddRegistryJob(ctx context.Context, kind models.RegistryKind, id, jobID string) (bool, error) {
	s.lock()
	defer s.unlock()

	r, ok := s.st.registries[kind][id]
	if !ok || r.Contains(jobID) {
		return false, nil
	}
	r.Jobs = append(append(pq.StringArray{}, r.Jobs...), jobID)
	r.UpdatedAt = time.Now()
	s.st.registries[kind][id] = r
	return true, nil
}

func (s *Store) RemoveRegistryJob(ctx context.Context, kind models.RegistryKind, id, jobID string) (bool, error) {
	s.lock()
	defer s.unlock()

	r, ok := s.st.registries[kind][id]
	if !ok || !r.Contains(jobID) {
		return false, nil
	}
	r.Jobs = r.Without(jobID)
	r.UpdatedAt = time.Now()
	s.st.registries[kind][id] = r
	return true, nil
}

func (s *Store) RemoveJobFromRegistries(ctx context.Context, kind models.RegistryKind, jobID string) (int64, error) {
	s.lock()
	defer s.unlock()

	var n int64
	for id, r := range s.st.registries[kind] {
		if !r.Contains(jobID) {
			continue
		}
		r.Jobs = r.Without(jobID)
		r.UpdatedAt = time.Now()
		s.st.registries[kind][id] = r
		n++
	}
	return n, nil
}

func (s *Store) ListApplicants(ctx context.Context, jobID string) ([]models.ApplicantRow, error) {
	s.rlock()
	defer s.runlock()

	var rows []models.ApplicantRow
	for _, r := range s.st.registries[models.AppliedRegistry] {
		if !r.Contains(jobID) {
			continue
		}
		u, ok := s.st.users[r.UserID]
		if !ok {
			continue
		}
		rows = append(rows, models.ApplicantRow{
			RegistryID: r.ID,
			UserID:     u.ID,
			FirstName:  u.FirstName,
			LastName:   u.LastName,
			Email:      u.Email,
			UpdatedAt:  r.UpdatedAt,
		})
	}

	sort.Slice(rows, func(a, b int) bool { return rows[a].UpdatedAt.After(rows[b].UpdatedAt) })
	return rows, nil
}

func (s *Store) CountApplicantsForEmployer(ctx context.Context, employerID string) (int, error) {
	s.rlock()
	defer s.runlock()

	count := 0
	for _, r := range s.st.registries[models.AppliedRegistry] {
		for _, id := range r.Jobs {
			if j, ok := s.st.jobs[id]; ok && j.EmployerID == employerID {
				count++
			}
		}
	}
	return count, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return nil
}
