package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/sale/internal/models"
	"github.com/Skotchmaster/sale/internal/testutil"
)

func newRepo(t *testing.T) (*GormRepo, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	return New(db), db
}

func TestDecrementStock_RefusesToGoNegative(t *testing.T) {
	t.Parallel()

	r, db := newRepo(t)
	ctx := context.Background()
	cat := testutil.Category(t, db, "Books")
	p := testutil.Product(t, db, cat.ID, "Go", "10.00", 3)

	ok, err := r.DecrementStock(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.DecrementStock(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, testutil.Stock(t, db, p.ID))

	require.NoError(t, r.IncrementStock(ctx, p.ID, 4))
	assert.Equal(t, 5, testutil.Stock(t, db, p.ID))
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	t.Parallel()

	r, db := newRepo(t)
	ctx := context.Background()
	cat := testutil.Category(t, db, "Books")
	p := testutil.Product(t, db, cat.ID, "Go", "10.00", 3)

	boom := errors.New("boom")
	err := r.Transaction(ctx, func(tx *GormRepo) error {
		if _, err := tx.DecrementStock(ctx, p.ID, 3); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 3, testutil.Stock(t, db, p.ID))
}

func TestFilterProducts(t *testing.T) {
	t.Parallel()

	r, db := newRepo(t)
	ctx := context.Background()
	books := testutil.Category(t, db, "Books")
	games := testutil.Category(t, db, "Games")
	testutil.Product(t, db, books.ID, "Go Programming", "30.00", 5)
	testutil.Product(t, db, books.ID, "Rust Book", "45.50", 1)
	testutil.Product(t, db, games.ID, "Go Board", "20.00", 10)

	from := decimal.RequireFromString("25")
	qty := 2

	tests := []struct {
		name  string
		f     ProductFilter
		names []string
	}{
		{name: "no filter", f: ProductFilter{}, names: []string{"Go Programming", "Rust Book", "Go Board"}},
		{name: "name ignores case", f: ProductFilter{Name: "go"}, names: []string{"Go Programming", "Go Board"}},
		{name: "category", f: ProductFilter{CategoryName: "games"}, names: []string{"Go Board"}},
		{name: "price from", f: ProductFilter{PriceFrom: &from}, names: []string{"Go Programming", "Rust Book"}},
		{name: "quantity from", f: ProductFilter{QuantityFrom: &qty}, names: []string{"Go Programming", "Go Board"}},
		{name: "combined", f: ProductFilter{Name: "go", CategoryName: "Books"}, names: []string{"Go Programming"}},
	}

	for _, tt := range tests {
		total, items, err := r.FilterProducts(ctx, tt.f, 0, 10)
		require.NoError(t, err, tt.name)
		assert.EqualValues(t, len(tt.names), total, tt.name)

		got := make([]string, 0, len(items))
		for _, it := range items {
			got = append(got, it.Name)
		}
		assert.Equal(t, tt.names, got, tt.name)
	}
}

func TestCategoryNameTaken_ExcludesSelf(t *testing.T) {
	t.Parallel()

	r, db := newRepo(t)
	ctx := context.Background()
	c := testutil.Category(t, db, "Books")

	taken, err := r.CategoryNameTaken(ctx, "Books", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = r.CategoryNameTaken(ctx, "Books", c.ID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestListOrders_ScopedByUser(t *testing.T) {
	t.Parallel()

	r, _ := newRepo(t)
	ctx := context.Background()
	for _, uid := range []uint{1, 1, 2} {
		require.NoError(t, r.CreateOrder(ctx, &models.Order{UserID: uid, Status: models.OrderStatusNew, TotalAmount: decimal.Zero}))
	}

	total, all, err := r.ListOrders(ctx, nil, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)

	uid := uint(1)
	total, mine, err := r.ListOrders(ctx, &uid, 0, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, mine, 1)
}

func TestDeleteOrder_RemovesItems(t *testing.T) {
	t.Parallel()

	r, db := newRepo(t)
	ctx := context.Background()
	o := models.Order{UserID: 1, Status: models.OrderStatusNew, TotalAmount: decimal.NewFromInt(2)}
	require.NoError(t, r.CreateOrder(ctx, &o))
	require.NoError(t, r.CreateOrderItems(ctx, []models.OrderItem{
		{OrderID: o.ID, ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(1), TotalPrice: decimal.NewFromInt(1)},
		{OrderID: o.ID, ProductID: 2, Quantity: 1, UnitPrice: decimal.NewFromInt(1), TotalPrice: decimal.NewFromInt(1)},
	}))

	require.NoError(t, r.DeleteOrder(ctx, o.ID))

	var count int64
	require.NoError(t, db.Model(&models.OrderItem{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.ErrorIs(t, r.DeleteOrder(ctx, o.ID), gorm.ErrRecordNotFound)
}

func TestSearchUsers_ByRole(t *testing.T) {
	t.Parallel()

	r, db := newRepo(t)
	ctx := context.Background()
	testutil.User(t, db, "alice", models.RoleUser, models.RoleAdmin)
	testutil.User(t, db, "bob")

	total, users, err := r.SearchUsers(ctx, UserFilter{Role: models.RoleAdmin}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)

	roles, err := r.RolesForUsers(ctx, []uint{users[0].ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.Role{models.RoleAdmin, models.RoleUser}, roles[users[0].ID])
}

func TestDeleteUser_RemovesRolesAndTokens(t *testing.T) {
	t.Parallel()

	r, db := newRepo(t)
	ctx := context.Background()
	u := testutil.User(t, db, "carol")
	require.NoError(t, r.SaveRefreshToken(ctx, &models.RefreshToken{
		UserID: u.ID, TokenHash: "h1", JTI: "j1", ExpiresAt: time.Now().Add(time.Hour),
	}))

	require.NoError(t, r.DeleteUser(ctx, u.ID))

	roles, err := r.UserRoles(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, roles)
	_, err = r.RefreshByHash(ctx, "h1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRotateRefreshToken(t *testing.T) {
	t.Parallel()

	r, _ := newRepo(t)
	ctx := context.Background()
	old := models.RefreshToken{UserID: 1, TokenHash: "old", JTI: "j-old", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, r.SaveRefreshToken(ctx, &old))

	next := models.RefreshToken{UserID: 1, TokenHash: "new", JTI: "j-new", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, r.RotateRefreshToken(ctx, old.ID, &next))

	stored, err := r.RefreshByHash(ctx, "old")
	require.NoError(t, err)
	assert.True(t, stored.Revoked)

	again := models.RefreshToken{UserID: 1, TokenHash: "newer", JTI: "j-newer", ExpiresAt: time.Now().Add(time.Hour)}
	assert.ErrorIs(t, r.RotateRefreshToken(ctx, old.ID, &again), ErrTokenUnusable)

	_, err = r.RefreshByHash(ctx, "newer")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
