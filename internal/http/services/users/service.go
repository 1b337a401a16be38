package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/userauth/internal/domain/repository"
	"github.com/dropDatabas3/userauth/internal/domain/types"
	dto "github.com/dropDatabas3/userauth/internal/http/dto/users"
	"github.com/dropDatabas3/userauth/internal/http/helpers"
	"github.com/dropDatabas3/userauth/internal/observability/logger"
	"github.com/dropDatabas3/userauth/internal/security/password"
)

type service struct {
	deps Deps
}

// NewService crea el service de usuarios.
func NewService(deps Deps) Service {
	if deps.Hash == (password.Params{}) {
		deps.Hash = password.Default
	}
	return &service{deps: deps}
}

func (s *service) Create(ctx context.Context, in dto.CreateUserRequest) (*dto.UserView, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("users"),
		logger.Op("Create"),
	)
	in.Normalize()

	at := types.AccountUser
	if in.AccountType != "" {
		if parsed, ok := types.ParseAccountType(in.AccountType); ok {
			at = parsed
		}
	}

	if err := s.ensureFree(ctx, &in.Email, &in.Phone, ""); err != nil {
		return nil, err
	}
	h, err := s.hashChecked(in.Password)
	if err != nil {
		return nil, err
	}

	var phone *string
	if in.Phone != "" {
		phone = &in.Phone
	}
	u, err := s.deps.Users.Create(ctx, repository.CreateUserInput{
		Email:        in.Email,
		PasswordHash: &h,
		FullName:     in.FullName,
		Phone:        phone,
		AccountType:  at,
	})
	if err != nil {
		return nil, conflictErr(err)
	}
	log.Info("user created", logger.UserID(u.ID), logger.AccountType(string(at)))
	v := dto.NewUserView(u)
	return &v, nil
}

// List devuelve solo cuentas USER.
func (s *service) List(ctx context.Context, p helpers.Page) (helpers.Paginated[dto.UserView], error) {
	rows, total, err := s.deps.Users.List(ctx, repository.ListUsersFilter{
		AccountType: types.AccountUser,
		Limit:       p.PerPage,
		Offset:      p.Offset(),
	})
	if err != nil {
		return helpers.Paginated[dto.UserView]{}, fmt.Errorf("list users: %w", err)
	}
	items := make([]dto.UserView, 0, len(rows))
	for i := range rows {
		items = append(items, dto.NewUserView(&rows[i]))
	}
	return helpers.NewPaginated(items, total, p), nil
}

// Search busca por nombre (case-insensitive) entre cuentas USER.
func (s *service) Search(ctx context.Context, q string, p helpers.Page) (*SearchResult, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, ErrSearchQueryRequired
	}
	rows, total, err := s.deps.Users.List(ctx, repository.ListUsersFilter{
		AccountType: types.AccountUser,
		Search:      q,
		Limit:       p.PerPage,
		Offset:      p.Offset(),
	})
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	if total == 0 {
		return &SearchResult{Message: "User Not Found.", Page: helpers.NoData[dto.SearchItem]()}, nil
	}
	items := make([]dto.SearchItem, 0, len(rows))
	for i := range rows {
		items = append(items, dto.NewSearchItem(&rows[i]))
	}
	return &SearchResult{Page: helpers.NewPaginated(items, total, p)}, nil
}

func (s *service) ToggleStatus(ctx context.Context, id string) (*dto.StatusView, error) {
	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	active := !u.IsActive
	u, err = s.deps.Users.Update(ctx, id, repository.UpdateUserInput{IsActive: &active})
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	logger.From(ctx).Info("user status changed",
		logger.Component("users"), logger.UserID(id), logger.Bool("active", u.IsActive))
	return &dto.StatusView{ID: u.ID, IsActive: u.IsActive}, nil
}

func (s *service) Get(ctx context.Context, id string) (*dto.UserView, error) {
	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	v := dto.NewUserView(u)
	return &v, nil
}

// Update aplica los campos presentes. Email y teléfono se chequean contra
// los demás usuarios; un password presente se re-hashea.
func (s *service) Update(ctx context.Context, id string, in dto.UpdateUserRequest) (*dto.UserView, error) {
	in.Normalize()
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	if err := s.ensureFree(ctx, in.Email, in.Phone, id); err != nil {
		return nil, err
	}
	upd := repository.UpdateUserInput{FullName: in.FullName, Email: in.Email, Phone: in.Phone}
	if in.Password != nil {
		h, err := s.hashChecked(*in.Password)
		if err != nil {
			return nil, err
		}
		upd.PasswordHash = &h
	}
	u, err := s.deps.Users.Update(ctx, id, upd)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, conflictErr(err)
	}
	v := dto.NewUserView(u)
	return &v, nil
}

// Delete borra el usuario y su foto de perfil si es un upload local.
func (s *service) Delete(ctx context.Context, id string) (*dto.DeletedView, error) {
	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Users.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("delete user: %w", err)
	}
	if u.ProfilePic != nil {
		if err := helpers.RemoveUpload(s.deps.UploadDir, *u.ProfilePic); err != nil {
			logger.From(ctx).Warn("profile pic not removed", logger.UserID(id), logger.Err(err))
		}
	}
	logger.From(ctx).Info("user deleted", logger.Component("users"), logger.UserID(id))
	return &dto.DeletedView{ID: id}, nil
}

func (s *service) find(ctx context.Context, id string) (*repository.User, error) {
	u, err := s.deps.Users.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// ensureFree chequea que email y teléfono no pertenezcan a otro usuario.
// skipID excluye al propio usuario en updates.
func (s *service) ensureFree(ctx context.Context, email, phone *string, skipID string) error {
	if email != nil && *email != "" {
		u, err := s.deps.Users.FindByEmail(ctx, *email)
		switch {
		case err == nil && u.ID != skipID:
			return ErrEmailExists
		case err != nil && !repository.IsNotFound(err):
			return fmt.Errorf("check email: %w", err)
		}
	}
	if phone != nil && *phone != "" {
		u, err := s.deps.Users.FindByPhone(ctx, *phone)
		switch {
		case err == nil && u.ID != skipID:
			return ErrPhoneExists
		case err != nil && !repository.IsNotFound(err):
			return fmt.Errorf("check phone: %w", err)
		}
	}
	return nil
}

func (s *service) hashChecked(pwd string) (string, error) {
	if ok, reasons := s.deps.Policy.Validate(pwd); !ok {
		return "", &PolicyError{Message: s.deps.Policy.Describe(reasons)}
	}
	h, err := password.Hash(s.deps.Hash, pwd)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return h, nil
}

func conflictErr(err error) error {
	switch repository.ConflictField(err) {
	case "email":
		return ErrEmailExists
	case "phone":
		return ErrPhoneExists
	}
	if errors.Is(err, repository.ErrConflict) {
		return ErrEmailExists
	}
	return err
}
