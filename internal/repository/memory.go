package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"skillswap-backend/internal/models"

	"github.com/google/uuid"
)

// InMemoryStore implements Store on maps guarded by one RWMutex. Every
// uniqueness rule the Postgres schema enforces is checked here under the
// write lock. Returned records are copies.
type InMemoryStore struct {
	mu sync.RWMutex

	usersByID    map[int64]*models.User
	skillsByID   map[int64]*models.Skill
	userSkills   map[int64]*models.UserSkill
	swapRequests map[int64]*models.SwapRequest
	sessions     map[uuid.UUID]*models.Session

	nextUserID      int64
	nextSkillID     int64
	nextUserSkillID int64
	nextSwapID      int64

	now func() time.Time
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		usersByID:    make(map[int64]*models.User),
		skillsByID:   make(map[int64]*models.Skill),
		userSkills:   make(map[int64]*models.UserSkill),
		swapRequests: make(map[int64]*models.SwapRequest),
		sessions:     make(map[uuid.UUID]*models.Session),
		now:          time.Now,
	}
}

func (s *InMemoryStore) Ping(ctx context.Context) error { return nil }

func (s *InMemoryStore) Close() error { return nil }

// --- UserStore ---

func (s *InMemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.usersByID {
		if u.Username == user.Username || strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicate
		}
	}

	s.nextUserID++
	user.ID = s.nextUserID
	user.DateJoined = s.now()
	cp := *user
	s.usersByID[user.ID] = &cp
	return nil
}

func (s *InMemoryStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.usersByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *InMemoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.usersByID {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.usersByID {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) UpdateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.usersByID[user.ID]
	if !ok {
		return ErrNotFound
	}
	for _, u := range s.usersByID {
		if u.ID != user.ID && strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicate
		}
	}

	cp := *user
	cp.Username = existing.Username
	cp.PasswordHash = existing.PasswordHash
	cp.Rating = existing.Rating
	cp.DateJoined = existing.DateJoined
	s.usersByID[user.ID] = &cp
	*user = cp
	return nil
}

func (s *InMemoryStore) ListUsers(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := []*models.User{}
	for _, u := range s.usersByID {
		if !u.IsPublic || u.ID == filter.ExcludeID {
			continue
		}
		if filter.Location != "" && !containsFold(u.Location, filter.Location) {
			continue
		}
		if filter.Skill != "" && !s.offersSkillLocked(u.ID, filter.Skill) {
			continue
		}
		if filter.Query != "" && !matchesQuery(u, filter.Query) {
			continue
		}
		cp := *u
		users = append(users, &cp)
	}

	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *InMemoryStore) offersSkillLocked(userID int64, term string) bool {
	for _, us := range s.userSkills {
		if us.UserID != userID || !us.IsOffered {
			continue
		}
		if sk, ok := s.skillsByID[us.SkillID]; ok && containsFold(sk.Name, term) {
			return true
		}
	}
	return false
}

func matchesQuery(u *models.User, q string) bool {
	for _, field := range []string{u.Username, u.FirstName, u.LastName, u.Location, u.Bio} {
		if containsFold(field, q) {
			return true
		}
	}
	return false
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// --- SkillStore ---

func (s *InMemoryStore) ListSkills(ctx context.Context) ([]*models.Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	skills := make([]*models.Skill, 0, len(s.skillsByID))
	for _, sk := range s.skillsByID {
		cp := *sk
		skills = append(skills, &cp)
	}
	sort.Slice(skills, func(i, j int) bool { return skills[i].Name < skills[j].Name })
	return skills, nil
}

func (s *InMemoryStore) GetSkill(ctx context.Context, id int64) (*models.Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sk, ok := s.skillsByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sk
	return &cp, nil
}

func (s *InMemoryStore) CreateSkill(ctx context.Context, skill *models.Skill) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.skillByNameLocked(skill.Name) != nil {
		return ErrDuplicate
	}
	s.insertSkillLocked(skill)
	return nil
}

func (s *InMemoryStore) EnsureSkills(ctx context.Context, names []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := 0
	for _, name := range names {
		if s.skillByNameLocked(name) != nil {
			continue
		}
		s.insertSkillLocked(&models.Skill{Name: name})
		created++
	}
	return created, nil
}

func (s *InMemoryStore) skillByNameLocked(name string) *models.Skill {
	for _, sk := range s.skillsByID {
		if strings.EqualFold(sk.Name, name) {
			return sk
		}
	}
	return nil
}

func (s *InMemoryStore) insertSkillLocked(skill *models.Skill) {
	s.nextSkillID++
	skill.ID = s.nextSkillID
	cp := *skill
	s.skillsByID[skill.ID] = &cp
}

// --- UserSkillStore ---

func (s *InMemoryStore) ListUserSkills(ctx context.Context, userID int64) ([]*models.UserSkillView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := []*models.UserSkillView{}
	for _, us := range s.userSkills {
		if us.UserID != userID {
			continue
		}
		sk, ok := s.skillsByID[us.SkillID]
		if !ok {
			continue
		}
		views = append(views, &models.UserSkillView{
			ID:        us.ID,
			Skill:     *sk,
			SkillName: sk.Name,
			IsOffered: us.IsOffered,
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ID < views[j].ID })
	return views, nil
}

func (s *InMemoryStore) GetUserSkill(ctx context.Context, id int64) (*models.UserSkill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	us, ok := s.userSkills[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *us
	return &cp, nil
}

func (s *InMemoryStore) CreateUserSkill(ctx context.Context, us *models.UserSkill) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usersByID[us.UserID]; !ok {
		return ErrNotFound
	}
	if _, ok := s.skillsByID[us.SkillID]; !ok {
		return ErrNotFound
	}
	if s.hasUserSkillLocked(0, us.UserID, us.SkillID, us.IsOffered) {
		return ErrDuplicate
	}

	s.nextUserSkillID++
	us.ID = s.nextUserSkillID
	cp := *us
	s.userSkills[us.ID] = &cp
	return nil
}

func (s *InMemoryStore) SetUserSkillOffered(ctx context.Context, id int64, isOffered bool) (*models.UserSkill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	us, ok := s.userSkills[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.hasUserSkillLocked(id, us.UserID, us.SkillID, isOffered) {
		return nil, ErrDuplicate
	}
	us.IsOffered = isOffered
	cp := *us
	return &cp, nil
}

func (s *InMemoryStore) hasUserSkillLocked(exceptID, userID, skillID int64, isOffered bool) bool {
	for _, us := range s.userSkills {
		if us.ID != exceptID && us.UserID == userID && us.SkillID == skillID && us.IsOffered == isOffered {
			return true
		}
	}
	return false
}

func (s *InMemoryStore) DeleteUserSkill(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.userSkills[id]; !ok {
		return ErrNotFound
	}
	delete(s.userSkills, id)
	return nil
}

// --- SwapStore ---

func (s *InMemoryStore) CreateSwapRequest(ctx context.Context, req *models.SwapRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.swapRequests {
		if r.SenderID == req.SenderID && r.ReceiverID == req.ReceiverID && r.Status == models.SwapPending {
			return ErrDuplicate
		}
	}

	s.nextSwapID++
	req.ID = s.nextSwapID
	req.Status = models.SwapPending
	req.CreatedAt = s.now()
	cp := *req
	s.swapRequests[req.ID] = &cp
	return nil
}

func (s *InMemoryStore) GetSwapRequest(ctx context.Context, id int64) (*models.SwapRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.swapRequests[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *InMemoryStore) ListSwapRequests(ctx context.Context, userID int64, dir SwapDirection) ([]*models.SwapRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*models.SwapRequest{}
	for _, r := range s.swapRequests {
		sent := r.SenderID == userID
		received := r.ReceiverID == userID
		switch {
		case dir == SwapsSent && !sent,
			dir == SwapsReceived && !received,
			dir == SwapsAll && !sent && !received:
			continue
		}
		cp := *r
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *InMemoryStore) UpdateSwapStatus(ctx context.Context, id int64, status models.SwapStatus) (*models.SwapRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.swapRequests[id]
	if !ok {
		return nil, ErrNotFound
	}
	if r.Status != models.SwapPending {
		return nil, ErrStaleState
	}
	r.Status = status
	cp := *r
	return &cp, nil
}

// --- SessionStore ---

func (s *InMemoryStore) CreateSession(ctx context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sess.ID]; exists {
		return ErrDuplicate
	}
	cp := *sess
	s.sessions[sess.ID] = &cp
	return nil
}

func (s *InMemoryStore) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *InMemoryStore) TouchSession(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	sess.ExpiresAt = expiresAt
	return nil
}

func (s *InMemoryStore) DeleteSession(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

func (s *InMemoryStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}
