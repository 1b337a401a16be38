// Package memory implementa un adapter en memoria para desarrollo y tests.
// Los datos se pierden al cerrar el proceso.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/userauth/internal/domain/repository"
	"github.com/dropDatabas3/userauth/internal/domain/types"
	"github.com/dropDatabas3/userauth/internal/store"
)

func init() {
	store.RegisterAdapter(&memoryAdapter{})
}

type memoryAdapter struct{}

func (a *memoryAdapter) Name() string { return "memory" }

func (a *memoryAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.AdapterConnection, error) {
	return New(), nil
}

// Connection guarda usuarios y OTPs bajo un único mutex, así los checks de
// unicidad y las escrituras son atómicos entre sí.
type Connection struct {
	mu    sync.Mutex
	users map[string]*repository.User // id -> user
	otps  map[string]*repository.OTP  // email -> otp
	now   func() time.Time
}

// New crea una conexión vacía.
func New() *Connection {
	return &Connection{
		users: make(map[string]*repository.User),
		otps:  make(map[string]*repository.OTP),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (c *Connection) Name() string                   { return "memory" }
func (c *Connection) Ping(ctx context.Context) error { return nil }
func (c *Connection) Close() error                   { return nil }

func (c *Connection) Users() repository.UserRepository { return (*userRepo)(c) }
func (c *Connection) OTPs() repository.OTPRepository   { return (*otpRepo)(c) }

// ─── UserRepository ───

type userRepo Connection

func cloneUser(u *repository.User) *repository.User {
	cp := *u
	cp.PasswordHash = cloneStr(u.PasswordHash)
	cp.Phone = cloneStr(u.Phone)
	cp.RefreshTokenHash = cloneStr(u.RefreshTokenHash)
	cp.Provider = cloneStr(u.Provider)
	cp.ProviderID = cloneStr(u.ProviderID)
	cp.ProfilePic = cloneStr(u.ProfilePic)
	return &cp
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// conflict chequea email/phone contra todos los usuarios salvo skipID.
// Debe llamarse con mu tomado.
func (r *userRepo) conflict(email string, phone *string, skipID string) error {
	for id, u := range r.users {
		if id == skipID {
			continue
		}
		if email != "" && u.Email == email {
			return repository.Conflict("email")
		}
		if phone != nil && u.Phone != nil && *u.Phone == *phone {
			return repository.Conflict("phone")
		}
	}
	return nil
}

func (r *userRepo) findBy(match func(*repository.User) bool) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*repository.User, error) {
	return r.findBy(func(u *repository.User) bool { return u.Email == email })
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepo) FindByPhone(ctx context.Context, phone string) (*repository.User, error) {
	return r.findBy(func(u *repository.User) bool { return u.Phone != nil && *u.Phone == phone })
}

func (r *userRepo) Create(ctx context.Context, in repository.CreateUserInput) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.conflict(in.Email, in.Phone, ""); err != nil {
		return nil, err
	}
	accountType := in.AccountType
	if accountType == "" {
		accountType = types.AccountUser
	}
	now := r.now()
	u := &repository.User{
		ID:              uuid.NewString(),
		Email:           in.Email,
		PasswordHash:    cloneStr(in.PasswordHash),
		FullName:        in.FullName,
		Phone:           cloneStr(in.Phone),
		AccountType:     accountType,
		IsEmailVerified: in.IsEmailVerified,
		IsActive:        true,
		Provider:        cloneStr(in.Provider),
		ProviderID:      cloneStr(in.ProviderID),
		ProfilePic:      cloneStr(in.ProfilePic),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	r.users[u.ID] = u
	return cloneUser(u), nil
}

func (r *userRepo) Update(ctx context.Context, id string, in repository.UpdateUserInput) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	email := ""
	if in.Email != nil {
		email = *in.Email
	}
	if err := r.conflict(email, in.Phone, id); err != nil {
		return nil, err
	}

	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.PasswordHash != nil {
		u.PasswordHash = cloneStr(in.PasswordHash)
	}
	if in.FullName != nil {
		u.FullName = *in.FullName
	}
	if in.Phone != nil {
		u.Phone = cloneStr(in.Phone)
	}
	if in.AccountType != nil {
		u.AccountType = *in.AccountType
	}
	if in.IsEmailVerified != nil {
		u.IsEmailVerified = *in.IsEmailVerified
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if in.ProfilePic != nil {
		u.ProfilePic = cloneStr(in.ProfilePic)
	}
	u.UpdatedAt = r.now()
	return cloneUser(u), nil
}

func (r *userRepo) SetRefreshTokenHash(ctx context.Context, id string, hash *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.RefreshTokenHash = cloneStr(hash)
	u.UpdatedAt = r.now()
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *userRepo) List(ctx context.Context, f repository.ListUsersFilter) ([]repository.User, int, error) {
	r.mu.Lock()
	matched := make([]*repository.User, 0, len(r.users))
	q := strings.ToLower(strings.TrimSpace(f.Search))
	for _, u := range r.users {
		if f.AccountType != "" && u.AccountType != f.AccountType {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(u.FullName), q) {
			continue
		}
		matched = append(matched, cloneUser(u))
	}
	r.mu.Unlock()

	if q != "" {
		sort.Slice(matched, func(i, j int) bool { return matched[i].FullName < matched[j].FullName })
	} else {
		sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	}

	total := len(matched)
	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	start := f.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	out := make([]repository.User, 0, end-start)
	for _, u := range matched[start:end] {
		out = append(out, *u)
	}
	return out, total, nil
}

// ─── OTPRepository ───

type otpRepo Connection

func (r *otpRepo) FindLatest(ctx context.Context, email string) (*repository.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.otps[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *otpRepo) Upsert(ctx context.Context, email, code string, expiresAt time.Time) (*repository.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := &repository.OTP{
		ID:        uuid.NewString(),
		Email:     email,
		Code:      code,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: r.now(),
	}
	r.otps[email] = o
	cp := *o
	return &cp, nil
}

func (r *otpRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for email, o := range r.otps {
		if o.ID == id {
			delete(r.otps, email)
			return nil
		}
	}
	return repository.ErrNotFound
}
