// Package testutil wires in-memory sqlite databases and fixtures for tests.
package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/sale/internal/models"
	pkgdb "github.com/Skotchmaster/sale/pkg/db"
)

// NewDB opens a private in-memory database with the full schema.
// A single connection keeps every query on the same memory store.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := pkgdb.Config()
	cfg.PrepareStmt = false
	cfg.Logger = logger.Default.LogMode(logger.Silent)

	db, err := gorm.Open(sqlite.Open(":memory:"), cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.AutoMigrate(db))

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func Category(t *testing.T, db *gorm.DB, name string) models.Category {
	t.Helper()

	c := models.Category{Name: name, Description: name + " description"}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func Product(t *testing.T, db *gorm.DB, categoryID uint, name, price string, qty int) models.Product {
	t.Helper()

	p := models.Product{
		CategoryID:  categoryID,
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Quantity:    qty,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func User(t *testing.T, db *gorm.DB, username string, roles ...models.Role) models.User {
	t.Helper()

	u := models.User{
		Username:     username,
		PasswordHash: "x",
		Email:        username + "@example.com",
		Phone:        phoneFor(username),
	}
	require.NoError(t, db.Create(&u).Error)
	if len(roles) == 0 {
		roles = []models.Role{models.RoleUser}
	}
	for _, r := range roles {
		require.NoError(t, db.Create(&models.UserRole{UserID: u.ID, Role: r}).Error)
	}
	return u
}

func Stock(t *testing.T, db *gorm.DB, productID uint) int {
	t.Helper()

	var p models.Product
	require.NoError(t, db.First(&p, productID).Error)
	return p.Quantity
}

// phoneFor derives a stable 10-digit phone from the username.
func phoneFor(username string) string {
	var h uint64 = 1469598103934665603
	for i := 0; i < len(username); i++ {
		h ^= uint64(username[i])
		h *= 1099511628211
	}
	digits := make([]byte, 10)
	for i := range digits {
		digits[i] = byte('0' + h%10)
		h /= 10
	}
	return string(digits)
}
