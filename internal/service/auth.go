package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/sale/internal/apperr"
	"github.com/Skotchmaster/sale/internal/identity"
	"github.com/Skotchmaster/sale/internal/models"
	"github.com/Skotchmaster/sale/internal/repo"
	"github.com/Skotchmaster/sale/internal/transport"
	"github.com/Skotchmaster/sale/pkg/config"
	"github.com/Skotchmaster/sale/pkg/hash"
	"github.com/Skotchmaster/sale/pkg/tokens"
)

const (
	msgBadCredentials = "Invalid username or password"
	msgBadRefresh     = "Invalid refresh token"
	msgSpentRefresh   = "Refresh token is revoked or expired"
)

type AuthService struct {
	Repo          *repo.GormRepo
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*transport.UserDto, error) {
	l := logger(ctx, "auth.register").With("username", req.Username)

	if err := validateRegister(req); err != nil {
		logFailure(l, "register_error", err)
		return nil, err
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	u := models.User{
		Username:     req.Username,
		PasswordHash: pwHash,
		Email:        req.Email,
		Phone:        req.Phone,
	}
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		for _, f := range [][2]string{{"username", req.Username}, {"email", req.Email}, {"phone", req.Phone}} {
			if err := ensureFree(ctx, tx, f[0], f[1], 0); err != nil {
				return err
			}
		}
		return conflictOnDuplicate(tx.CreateUser(ctx, &u, models.RoleUser), APIAuth, "User already exists")
	})
	if err != nil {
		logFailure(l, "register_error", err)
		return nil, err
	}

	l.Info("register_success", "user_id", u.ID)
	dto := transport.UserFromModel(u, []models.Role{models.RoleUser})
	return &dto, nil
}

// Login replaces every refresh token of the user with a fresh pair.
func (s *AuthService) Login(ctx context.Context, req transport.LoginRequest) (*transport.AuthDto, error) {
	l := logger(ctx, "auth.login").With("username", req.Username)

	u, err := s.Repo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = apperr.Unauthorized(APIAuth, msgBadCredentials)
		}
		logFailure(l, "login_error", err)
		return nil, err
	}
	if !hash.CheckPassword(u.PasswordHash, req.Password) {
		err := apperr.Unauthorized(APIAuth, msgBadCredentials)
		logFailure(l, "login_error", err)
		return nil, err
	}

	var pair tokens.Pair
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := tx.DeleteUserRefreshTokens(ctx, u.ID); err != nil {
			return err
		}
		var (
			stored *models.RefreshToken
			err    error
		)
		pair, stored, err = s.issue(ctx, tx, u)
		if err != nil {
			return err
		}
		return tx.SaveRefreshToken(ctx, stored)
	})
	if err != nil {
		logFailure(l, "login_error", err)
		return nil, err
	}

	l.Info("login_success", "user_id", u.ID)
	return authDto(pair), nil
}

// Refresh spends a refresh token and returns the next pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*transport.AuthDto, error) {
	pair, err := s.Rotate(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return authDto(pair), nil
}

// Rotate is Refresh in the form the cookie middleware consumes.
func (s *AuthService) Rotate(ctx context.Context, refreshToken string) (tokens.Pair, error) {
	l := logger(ctx, "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		l.Warn("refresh_error", "status", 401, "reason", "bad refresh token", "error", err)
		return tokens.Pair{}, apperr.Unauthorized(APIAuth, msgBadRefresh)
	}
	subject, err := claims.UserID()
	if err != nil {
		return tokens.Pair{}, apperr.Unauthorized(APIAuth, msgBadRefresh)
	}

	stored, err := s.Repo.RefreshByHash(ctx, tokens.Sha256Hex(refreshToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = apperr.Unauthorized(APIAuth, msgBadRefresh)
		}
		logFailure(l, "refresh_error", err)
		return tokens.Pair{}, err
	}
	if stored.UserID != subject {
		err := apperr.Unauthorized(APIAuth, msgBadRefresh)
		logFailure(l, "refresh_error", err)
		return tokens.Pair{}, err
	}
	if !stored.Usable(time.Now()) {
		err := apperr.Unauthorized(APIAuth, msgSpentRefresh)
		logFailure(l, "refresh_error", err)
		return tokens.Pair{}, err
	}

	u, err := s.Repo.GetUser(ctx, stored.UserID)
	if err != nil {
		err = notFound(err, APIAuth, "User with id=%d not found", stored.UserID)
		logFailure(l, "refresh_error", err)
		return tokens.Pair{}, err
	}

	pair, next, err := s.issue(ctx, s.Repo, u)
	if err != nil {
		logFailure(l, "refresh_error", err)
		return tokens.Pair{}, err
	}
	if err := s.Repo.RotateRefreshToken(ctx, stored.ID, next); err != nil {
		if errors.Is(err, repo.ErrTokenUnusable) {
			err = apperr.Unauthorized(APIAuth, msgSpentRefresh)
		}
		logFailure(l, "refresh_error", err)
		return tokens.Pair{}, err
	}

	l.Info("refresh_success", "user_id", u.ID)
	return pair, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, id identity.Identity, req transport.ChangePasswordRequest) error {
	l := logger(ctx, "auth.change_password").With("user_id", id.UserID)

	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		u, err := tx.GetUser(ctx, id.UserID)
		if err != nil {
			return notFound(err, APIAuth, "User with id=%d not found", id.UserID)
		}
		if !hash.CheckPassword(u.PasswordHash, req.CurrentPassword) {
			return apperr.Unauthorized(APIAuth, "Current password is incorrect")
		}
		if err := validateNewPassword(req.NewPassword); err != nil {
			return err
		}

		pwHash, err := hash.HashPassword(req.NewPassword)
		if err != nil {
			return err
		}
		u.PasswordHash = pwHash
		if err := tx.SaveUser(ctx, u); err != nil {
			return err
		}
		return tx.DeleteUserRefreshTokens(ctx, u.ID)
	})
	if err != nil {
		logFailure(l, "change_password_error", err)
		return err
	}

	l.Info("change_password_success")
	return nil
}

func (s *AuthService) Logout(ctx context.Context, id identity.Identity) error {
	l := logger(ctx, "auth.logout").With("user_id", id.UserID)

	if err := s.Repo.DeleteUserRefreshTokens(ctx, id.UserID); err != nil {
		l.Error("logout_error", "status", 500, "error", err)
		return err
	}
	l.Info("logout_success")
	return nil
}

// EnsureAdmin creates the configured bootstrap admin when it does not exist yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, seed config.AdminSeed) error {
	l := logger(ctx, "auth.ensure_admin")
	if !seed.Enabled() {
		return nil
	}

	_, err := s.Repo.GetUserByUsername(ctx, seed.Username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	pwHash, err := hash.HashPassword(seed.Password)
	if err != nil {
		return err
	}
	u := models.User{
		Username:     seed.Username,
		PasswordHash: pwHash,
		Email:        seed.Email,
		Phone:        seed.Phone,
	}
	if u.Email == "" {
		u.Email = seed.Username + "@admin.local"
	}
	if u.Phone == "" {
		u.Phone = "0000000000"
	}
	if err := s.Repo.CreateUser(ctx, &u, models.RoleUser, models.RoleAdmin); err != nil {
		return err
	}

	l.Info("admin_created", "user_id", u.ID, "username", u.Username)
	return nil
}

// issue signs a pair for u and returns the row to store for its refresh half.
func (s *AuthService) issue(ctx context.Context, r *repo.GormRepo, u *models.User) (tokens.Pair, *models.RefreshToken, error) {
	roles, err := r.UserRoles(ctx, u.ID)
	if err != nil {
		return tokens.Pair{}, nil, err
	}
	role := models.RoleUser
	for _, rl := range roles {
		if rl == models.RoleAdmin {
			role = models.RoleAdmin
		}
	}

	now := time.Now()
	pair := tokens.Pair{
		AccessExp:  now.Add(s.AccessTTL),
		RefreshExp: now.Add(s.RefreshTTL),
	}
	pair.Access, err = tokens.SignAccess(s.AccessSecret, u.ID, u.Username, string(role), pair.AccessExp)
	if err != nil {
		return tokens.Pair{}, nil, err
	}
	var jti string
	pair.Refresh, jti, err = tokens.SignRefresh(s.RefreshSecret, u.ID, pair.RefreshExp)
	if err != nil {
		return tokens.Pair{}, nil, err
	}

	return pair, &models.RefreshToken{
		UserID:    u.ID,
		TokenHash: tokens.Sha256Hex(pair.Refresh),
		JTI:       jti,
		ExpiresAt: pair.RefreshExp,
	}, nil
}

func authDto(p tokens.Pair) *transport.AuthDto {
	return &transport.AuthDto{
		AccessToken:      p.Access,
		RefreshToken:     p.Refresh,
		AccessExpiresAt:  p.AccessExp,
		RefreshExpiresAt: p.RefreshExp,
	}
}
