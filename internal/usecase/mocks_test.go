package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jahid-csedu/iam-system-sub000/internal/core/domain"
	"github.com/jahid-csedu/iam-system-sub000/internal/core/port"
	"github.com/jahid-csedu/iam-system-sub000/internal/repository"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User

	incrementCalls      int
	setLockCalls        int
	resetLockCalls      int
	updatePasswordCalls int
	assignedRoles       map[string][]string
	revokedRoles        map[string][]string
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{
		users:         make(map[string]*domain.User),
		assignedRoles: make(map[string][]string),
		revokedRoles:  make(map[string][]string),
	}
	for i := range users {
		u := users[i]
		repo.users[u.Username] = &u
	}
	return repo
}

var _ port.UserRepository = (*fakeUserRepo)(nil)

func (r *fakeUserRepo) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.Username] = &user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[username]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id string, passwordHash string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updatePasswordCalls++
	for _, u := range r.users {
		if u.ID == id {
			u.PasswordHash = passwordHash
			u.PasswordExpired = false
			u.PasswordExpiryDate = nil
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeUserRepo) IncrementFailedAttempts(_ context.Context, username string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.incrementCalls++
	u, ok := r.users[username]
	if !ok {
		return 0, repository.ErrNotFound
	}
	u.FailedLoginAttempts++
	return u.FailedLoginAttempts, nil
}

func (r *fakeUserRepo) SetLockStatus(_ context.Context, username string, locked bool, lockedUntil *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setLockCalls++
	u, ok := r.users[username]
	if !ok {
		return repository.ErrNotFound
	}
	u.UserLocked = locked
	u.AccountLockedUntil = lockedUntil
	return nil
}

func (r *fakeUserRepo) ResetLockState(_ context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLockCalls++
	u, ok := r.users[username]
	if !ok {
		return repository.ErrNotFound
	}
	u.FailedLoginAttempts = 0
	u.UserLocked = false
	u.AccountLockedUntil = nil
	return nil
}

func (r *fakeUserRepo) AssignRoles(_ context.Context, userID string, roleIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assignedRoles[userID] = append(r.assignedRoles[userID], roleIDs...)
	return nil
}

func (r *fakeUserRepo) RevokeRoles(_ context.Context, userID string, roleIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revokedRoles[userID] = append(r.revokedRoles[userID], roleIDs...)
	return nil
}

func (r *fakeUserRepo) snapshot(username string) domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[username]; ok {
		return *u
	}
	return domain.User{}
}

type fakeOTPRepo struct {
	mu   sync.Mutex
	otps map[string]domain.PasswordResetOTP
	ops  []string
}

func newFakeOTPRepo() *fakeOTPRepo {
	return &fakeOTPRepo{otps: make(map[string]domain.PasswordResetOTP)}
}

var _ port.OTPRepository = (*fakeOTPRepo)(nil)

func (r *fakeOTPRepo) Save(_ context.Context, otp domain.PasswordResetOTP) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, "save")
	r.otps[otp.ID] = otp
	return nil
}

func (r *fakeOTPRepo) GetByCode(_ context.Context, code string) (*domain.PasswordResetOTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, otp := range r.otps {
		if otp.OTP == code {
			copied := otp
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeOTPRepo) GetByUser(_ context.Context, userID string) (*domain.PasswordResetOTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, otp := range r.otps {
		if otp.UserID == userID {
			copied := otp
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeOTPRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, "delete")
	if _, ok := r.otps[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.otps, id)
	return nil
}

func (r *fakeOTPRepo) DeleteByUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, "deleteByUser")
	for id, otp := range r.otps {
		if otp.UserID == userID {
			delete(r.otps, id)
		}
	}
	return nil
}

func (r *fakeOTPRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.otps)
}

type sentMessage struct {
	to      string
	subject string
	body    string
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []sentMessage
	failWith error
}

var _ port.Notifier = (*fakeNotifier)(nil)

func (n *fakeNotifier) Send(_ context.Context, toAddress, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failWith != nil {
		return n.failWith
	}
	n.messages = append(n.messages, sentMessage{to: toAddress, subject: subject, body: body})
	return nil
}

type fakeEventPublisher struct {
	mu              sync.Mutex
	registered      []domain.UserRegisteredEvent
	locked          []domain.AccountLockedEvent
	passwordChanged []domain.PasswordChangedEvent
	resetRequested  []domain.PasswordResetRequestedEvent
}

var _ port.EventPublisher = (*fakeEventPublisher)(nil)

func (p *fakeEventPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registered = append(p.registered, event)
	return nil
}

func (p *fakeEventPublisher) PublishAccountLocked(_ context.Context, event domain.AccountLockedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.locked = append(p.locked, event)
	return nil
}

func (p *fakeEventPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.passwordChanged = append(p.passwordChanged, event)
	return nil
}

func (p *fakeEventPublisher) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetRequested = append(p.resetRequested, event)
	return nil
}

type fakePermissionRepo struct {
	mu          sync.Mutex
	permissions map[string]domain.Permission
	byUser      map[string][]domain.Permission
	byRole      map[string][]domain.Permission
}

func newFakePermissionRepo() *fakePermissionRepo {
	return &fakePermissionRepo{
		permissions: make(map[string]domain.Permission),
		byUser:      make(map[string][]domain.Permission),
		byRole:      make(map[string][]domain.Permission),
	}
}

var _ port.PermissionRepository = (*fakePermissionRepo)(nil)

func (r *fakePermissionRepo) Create(_ context.Context, permission domain.Permission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.permissions[permission.ID] = permission
	return nil
}

func (r *fakePermissionRepo) GetByID(_ context.Context, id string) (*domain.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.permissions[id]; ok {
		copied := p
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakePermissionRepo) GetByCapability(_ context.Context, serviceName string, action domain.Action) (*domain.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.permissions {
		if p.ServiceName == serviceName && p.Action == action {
			copied := p
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakePermissionRepo) UpdateDescription(_ context.Context, id string, description *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.permissions[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Description = description
	r.permissions[id] = p
	return nil
}

func (r *fakePermissionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.permissions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.permissions, id)
	return nil
}

func (r *fakePermissionRepo) List(_ context.Context) ([]domain.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Permission, 0, len(r.permissions))
	for _, p := range r.permissions {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakePermissionRepo) ListByRole(_ context.Context, roleID string) ([]domain.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byRole[roleID], nil
}

func (r *fakePermissionRepo) ListByUser(_ context.Context, userID string) ([]domain.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byUser[userID], nil
}

type fakeRoleRepo struct {
	mu       sync.Mutex
	roles    map[string]domain.Role
	byUser   map[string][]domain.Role
	attached map[string][]string
	detached map[string][]string
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{
		roles:    make(map[string]domain.Role),
		byUser:   make(map[string][]domain.Role),
		attached: make(map[string][]string),
		detached: make(map[string][]string),
	}
}

var _ port.RoleRepository = (*fakeRoleRepo)(nil)

func (r *fakeRoleRepo) Create(_ context.Context, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles[role.ID] = role
	return nil
}

func (r *fakeRoleRepo) GetByID(_ context.Context, id string) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if role, ok := r.roles[id]; ok {
		copied := role
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeRoleRepo) GetByName(_ context.Context, name string) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, role := range r.roles {
		if role.Name == name {
			copied := role
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeRoleRepo) List(_ context.Context) ([]domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, role)
	}
	return out, nil
}

func (r *fakeRoleRepo) AttachPermissions(_ context.Context, roleID string, permissionIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attached[roleID] = append(r.attached[roleID], permissionIDs...)
	return nil
}

func (r *fakeRoleRepo) DetachPermissions(_ context.Context, roleID string, permissionIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detached[roleID] = append(r.detached[roleID], permissionIDs...)
	return nil
}

func (r *fakeRoleRepo) ListByUser(_ context.Context, userID string) ([]domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byUser[userID], nil
}

type fakeRateLimitStore struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	failWith error
}

func newFakeRateLimitStore() *fakeRateLimitStore {
	return &fakeRateLimitStore{attempts: make(map[string][]time.Time)}
}

var _ port.RateLimitStore = (*fakeRateLimitStore)(nil)

func (s *fakeRateLimitStore) RecordAttempt(_ context.Context, identifier string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.attempts[identifier] = append(s.attempts[identifier], at)
	return nil
}

func (s *fakeRateLimitStore) CountAttempts(_ context.Context, identifier string, window time.Duration, reference time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return 0, s.failWith
	}
	count := 0
	cutoff := reference.Add(-window)
	for _, at := range s.attempts[identifier] {
		if at.After(cutoff) {
			count++
		}
	}
	return count, nil
}

func (s *fakeRateLimitStore) TrimWindow(_ context.Context, identifier string, window time.Duration, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	cutoff := reference.Add(-window)
	kept := s.attempts[identifier][:0]
	for _, at := range s.attempts[identifier] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	s.attempts[identifier] = kept
	return nil
}

func (s *fakeRateLimitStore) OldestAttempt(_ context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return time.Time{}, false, s.failWith
	}
	cutoff := reference.Add(-window)
	var oldest time.Time
	found := false
	for _, at := range s.attempts[identifier] {
		if !at.After(cutoff) {
			continue
		}
		if !found || at.Before(oldest) {
			oldest = at
			found = true
		}
	}
	return oldest, found, nil
}
