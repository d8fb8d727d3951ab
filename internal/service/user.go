package service

import (
	"context"
	"strings"

	"github.com/Skotchmaster/sale/internal/apperr"
	"github.com/Skotchmaster/sale/internal/identity"
	"github.com/Skotchmaster/sale/internal/models"
	"github.com/Skotchmaster/sale/internal/repo"
	"github.com/Skotchmaster/sale/internal/transport"
	"github.com/Skotchmaster/sale/internal/util"
)

type UserService struct {
	Repo *repo.GormRepo
}

func (s *UserService) Get(ctx context.Context, id identity.Identity, userID uint) (*transport.UserDto, error) {
	if !id.CanAccess(userID) {
		return nil, apperr.Forbidden(APIUsers, msgForbidden)
	}

	u, err := s.Repo.GetUser(ctx, userID)
	if err != nil {
		return nil, notFound(err, APIUsers, "User with id=%d not found", userID)
	}
	roles, err := s.Repo.UserRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := transport.UserFromModel(*u, roles)
	return &dto, nil
}

func (s *UserService) Search(ctx context.Context, id identity.Identity, c transport.UserCriteria, page, size int) (util.Page[transport.UserDto], error) {
	if !id.IsAdmin() {
		return util.Page[transport.UserDto]{}, apperr.Forbidden(APIUsers, msgForbidden)
	}

	role := models.Role(strings.ToUpper(strings.TrimSpace(c.Role)))
	if role != "" && !role.Valid() {
		return util.Page[transport.UserDto]{}, apperr.Validation(APIUsers, "Unknown role: %s", c.Role)
	}

	offset, limit := util.Calculate(page, size)
	total, users, err := s.Repo.SearchUsers(ctx, repo.UserFilter{
		Username: c.Username,
		Email:    c.Email,
		Phone:    c.Phone,
		Role:     role,
	}, offset, limit)
	if err != nil {
		return util.Page[transport.UserDto]{}, err
	}

	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	roles, err := s.Repo.RolesForUsers(ctx, ids)
	if err != nil {
		return util.Page[transport.UserDto]{}, err
	}

	out := make([]transport.UserDto, 0, len(users))
	for _, u := range users {
		out = append(out, transport.UserFromModel(u, roles[u.ID]))
	}
	return util.NewPage(out, total, offset, limit), nil
}

// Update writes the contact fields that are present and changed.
func (s *UserService) Update(ctx context.Context, id identity.Identity, userID uint, req transport.UpdateUserRequest) (*transport.UserDto, error) {
	l := logger(ctx, "user.update").With("user_id", userID)

	if !id.CanAccess(userID) {
		err := apperr.Forbidden(APIUsers, msgForbidden)
		logFailure(l, "update_user_error", err)
		return nil, err
	}
	if req.Email != nil {
		if err := validateEmail(APIUsers, *req.Email); err != nil {
			return nil, err
		}
	}
	if req.Phone != nil {
		if err := validatePhone(APIUsers, *req.Phone); err != nil {
			return nil, err
		}
	}
	if req.Bio != nil && length(*req.Bio) > 500 {
		return nil, apperr.Validation(APIUsers, "Bio must be at most 500 characters")
	}

	var (
		u     *models.User
		roles []models.Role
	)
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		u, err = tx.GetUser(ctx, userID)
		if err != nil {
			return notFound(err, APIUsers, "User with id=%d not found", userID)
		}

		changed := false
		if req.Email != nil && *req.Email != u.Email {
			if err := ensureFree(ctx, tx, "email", *req.Email, userID); err != nil {
				return err
			}
			u.Email = *req.Email
			changed = true
		}
		if req.Phone != nil && *req.Phone != u.Phone {
			if err := ensureFree(ctx, tx, "phone", *req.Phone, userID); err != nil {
				return err
			}
			u.Phone = *req.Phone
			changed = true
		}
		if req.Bio != nil && *req.Bio != u.Bio {
			u.Bio = *req.Bio
			changed = true
		}
		if changed {
			if err := tx.SaveUser(ctx, u); err != nil {
				return conflictOnDuplicate(err, APIUsers, "Email or phone is already in use")
			}
		}

		roles, err = tx.UserRoles(ctx, userID)
		return err
	})
	if err != nil {
		logFailure(l, "update_user_error", err)
		return nil, err
	}

	l.Info("update_user_success")
	dto := transport.UserFromModel(*u, roles)
	return &dto, nil
}

func (s *UserService) Delete(ctx context.Context, id identity.Identity, userID uint) error {
	l := logger(ctx, "user.delete").With("user_id", userID)

	if !id.IsAdmin() {
		err := apperr.Forbidden(APIUsers, msgForbidden)
		logFailure(l, "delete_user_error", err)
		return err
	}
	if err := s.Repo.DeleteUser(ctx, userID); err != nil {
		err = notFound(err, APIUsers, "User with id=%d not found", userID)
		logFailure(l, "delete_user_error", err)
		return err
	}

	l.Info("delete_user_success")
	return nil
}

// ensureFree fails with a conflict when another user already holds value.
func ensureFree(ctx context.Context, r *repo.GormRepo, field, value string, excludeID uint) error {
	taken, err := r.UserFieldTaken(ctx, field, value, excludeID)
	if err != nil {
		return err
	}
	if taken {
		api := APIUsers
		if excludeID == 0 {
			api = APIAuth
		}
		return apperr.Conflict(api, "User with %s=%s already exists", field, value)
	}
	return nil
}
