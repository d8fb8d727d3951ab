package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/sale/internal/models"
)

var ErrTokenUnusable = errors.New("token expired or revoked")

func (r *GormRepo) SaveRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return r.db(ctx).Create(t).Error
}

func (r *GormRepo) RefreshByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	if err := r.db(ctx).Where("token_hash = ?", tokenHash).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *GormRepo) DeleteUserRefreshTokens(ctx context.Context, userID uint) error {
	return r.db(ctx).Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error
}

// RotateRefreshToken revokes oldID and stores next in one transaction.
// It fails with ErrTokenUnusable when the old token was already spent or expired.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldID uint, next *models.RefreshToken) error {
	return r.db(ctx).Transaction(func(tx *gorm.DB) error {
		var old models.RefreshToken
		if err := r.forUpdate(tx).First(&old, oldID).Error; err != nil {
			return err
		}
		if !old.Usable(time.Now()) {
			return ErrTokenUnusable
		}

		res := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND revoked = ?", oldID, false).
			Update("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTokenUnusable
		}

		return tx.Create(next).Error
	})
}
