package auth

import (
	"context"

	"github.com/dropDatabas3/userauth/internal/domain/repository"
	dto "github.com/dropDatabas3/userauth/internal/http/dto/auth"
	"github.com/dropDatabas3/userauth/internal/http/dto/users"
	"github.com/dropDatabas3/userauth/internal/http/helpers"
	"github.com/dropDatabas3/userauth/internal/observability/logger"
)

func (s *service) Profile(ctx context.Context, userID string) (*users.UserView, error) {
	u, err := s.deps.Users.FindByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	v := users.NewUserView(u)
	return &v, nil
}

// UpdateProfile aplica nombre y/o foto. La foto anterior se borra del disco
// solo después de persistir la nueva.
func (s *service) UpdateProfile(ctx context.Context, userID string, in dto.ProfileUpdate) (*users.UserView, error) {
	u, err := s.deps.Users.FindByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	upd := repository.UpdateUserInput{FullName: in.FullName, ProfilePic: in.ProfilePic}
	updated, err := s.deps.Users.Update(ctx, u.ID, upd)
	if err != nil {
		return nil, err
	}
	if in.ProfilePic != nil && u.ProfilePic != nil && *u.ProfilePic != *in.ProfilePic {
		if err := helpers.RemoveUpload(s.deps.UploadDir, *u.ProfilePic); err != nil {
			logger.From(ctx).Warn("old profile pic not removed", logger.UserID(u.ID), logger.Err(err))
		}
	}
	v := users.NewUserView(updated)
	return &v, nil
}
