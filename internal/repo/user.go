package repo

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/sale/internal/models"
)

// UserFilter holds the optional criteria of a user search.
type UserFilter struct {
	Username string
	Email    string
	Phone    string
	Role     models.Role
}

var uniqueUserFields = map[string]struct{}{
	"username": {},
	"email":    {},
	"phone":    {},
}

// CreateUser inserts the user and its role rows atomically.
func (r *GormRepo) CreateUser(ctx context.Context, u *models.User, roles ...models.Role) error {
	return r.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		for _, role := range roles {
			if err := tx.Create(&models.UserRole{UserID: u.ID, Role: role}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GormRepo) SaveUser(ctx context.Context, u *models.User) error {
	return r.db(ctx).Save(u).Error
}

func (r *GormRepo) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.db(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := r.db(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UserFieldTaken checks a unique column, ignoring the user with excludeID.
func (r *GormRepo) UserFieldTaken(ctx context.Context, field, value string, excludeID uint) (bool, error) {
	if _, ok := uniqueUserFields[field]; !ok {
		return false, fmt.Errorf("unknown unique field %q", field)
	}

	q := r.db(ctx).Model(&models.User{}).Where(field+" = ?", value)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) UserRoles(ctx context.Context, userID uint) ([]models.Role, error) {
	var roles []models.Role
	err := r.db(ctx).Model(&models.UserRole{}).
		Where("user_id = ?", userID).
		Order("role ASC").
		Pluck("role", &roles).Error
	return roles, err
}

func (r *GormRepo) RolesForUsers(ctx context.Context, userIDs []uint) (map[uint][]models.Role, error) {
	out := make(map[uint][]models.Role, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	var rows []models.UserRole
	if err := r.db(ctx).Where("user_id IN ?", userIDs).Order("role ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.UserID] = append(out[row.UserID], row.Role)
	}
	return out, nil
}

func (r *GormRepo) SearchUsers(ctx context.Context, f UserFilter, offset, limit int) (int64, []models.User, error) {
	q := r.db(ctx).Model(&models.User{})
	if f.Username != "" {
		q = q.Where("LOWER(username) LIKE ?", likePattern(f.Username))
	}
	if f.Email != "" {
		q = q.Where("LOWER(email) LIKE ?", likePattern(f.Email))
	}
	if f.Phone != "" {
		q = q.Where("phone LIKE ?", "%"+strings.TrimSpace(f.Phone)+"%")
	}
	if f.Role != "" {
		q = q.Where("id IN (?)",
			r.DB.Session(&gorm.Session{NewDB: true}).Model(&models.UserRole{}).
				Select("user_id").Where("role = ?", f.Role))
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	users := make([]models.User, 0, limit)
	if err := q.Order("id ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return 0, nil, err
	}
	return total, users, nil
}

// DeleteUser removes the user with its role rows and refresh tokens.
// Orders keep their user_id.
func (r *GormRepo) DeleteUser(ctx context.Context, id uint) error {
	return r.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.UserRole{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		return deleted(tx.Delete(&models.User{}, id))
	})
}
