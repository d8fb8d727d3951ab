package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"

	"github.com/Skotchmaster/sale/internal/apperr"
	"github.com/Skotchmaster/sale/internal/events"
	"github.com/Skotchmaster/sale/internal/search"
	"github.com/Skotchmaster/sale/internal/testutil"
	"github.com/Skotchmaster/sale/internal/transport"
)

func TestCategoryService_CreateAndDuplicate(t *testing.T) {
	e := newEnv(t)
	svc := &CategoryService{Repo: e.repo, Notify: e.notify}
	ctx := context.Background()

	c, err := svc.Create(ctx, transport.CategoryRequest{Name: " Books ", Description: "paper"})
	require.NoError(t, err)
	assert.Equal(t, "Books", c.Name)

	_, err = svc.Create(ctx, transport.CategoryRequest{Name: "Books"})
	ae := requireKind(t, err, apperr.ErrConflict)
	assert.Equal(t, "Category with name=Books already exists", ae.Message)
	assert.Equal(t, APICategory, ae.API)

	_, err = svc.Create(ctx, transport.CategoryRequest{Name: "X"})
	requireKind(t, err, apperr.ErrValidation)

	assert.Equal(t, []string{events.CategoryCreated}, e.events.types())
}

func TestCategoryService_Update(t *testing.T) {
	e := newEnv(t)
	svc := &CategoryService{Repo: e.repo, Notify: e.notify}
	ctx := context.Background()
	books := testutil.Category(t, e.db, "Books")
	testutil.Category(t, e.db, "Games")

	_, err := svc.Update(ctx, books.ID, transport.CategoryRequest{Name: "Games", Description: books.Description})
	requireKind(t, err, apperr.ErrConflict)

	got, err := svc.Update(ctx, books.ID, transport.CategoryRequest{Name: "Books", Description: "new"})
	require.NoError(t, err)
	assert.Equal(t, "Books", got.Name)
	assert.Equal(t, "new", got.Description)

	_, err = svc.Update(ctx, 999, transport.CategoryRequest{Name: "Other"})
	requireKind(t, err, apperr.ErrNotFound)
}

func TestCategoryService_Delete(t *testing.T) {
	e := newEnv(t)
	svc := &CategoryService{Repo: e.repo, Notify: e.notify}
	ctx := context.Background()
	books := testutil.Category(t, e.db, "Books")
	empty := testutil.Category(t, e.db, "Empty")
	testutil.Product(t, e.db, books.ID, "Novel", "5.00", 1)

	err := svc.Delete(ctx, books.ID)
	ae := requireKind(t, err, apperr.ErrConflict)
	assert.Contains(t, ae.Message, "has products")

	_, err = svc.Get(ctx, books.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, empty.ID))
	_, err = svc.Get(ctx, empty.ID)
	requireKind(t, err, apperr.ErrNotFound)
	requireKind(t, svc.Delete(ctx, empty.ID), apperr.ErrNotFound)
}

func TestCategoryService_ListAndByName(t *testing.T) {
	e := newEnv(t)
	svc := &CategoryService{Repo: e.repo}
	ctx := context.Background()
	for _, n := range []string{"Toys", "Books", "Games"} {
		testutil.Category(t, e.db, n)
	}

	page, err := svc.List(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "Books", page.Data[0].Name)
	assert.Equal(t, "Games", page.Data[1].Name)
	assert.True(t, page.Meta.HasNext)
	assert.EqualValues(t, 2, page.Meta.TotalPages)

	got, err := svc.GetByName(ctx, "Toys")
	require.NoError(t, err)
	assert.Equal(t, "Toys", got.Name)

	_, err = svc.GetByName(ctx, "Nope")
	requireKind(t, err, apperr.ErrNotFound)
}

type fakeIndex struct {
	docs    map[uint]search.ProductDoc
	ranked  []uint
	failing bool
}

func (f *fakeIndex) Search(_ context.Context, _ string, _, _ int) (int64, []uint, error) {
	if f.failing {
		return 0, nil, errors.New("index down")
	}
	return int64(len(f.ranked)), f.ranked, nil
}

func (f *fakeIndex) Upsert(_ context.Context, doc search.ProductDoc) error {
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeIndex) Delete(_ context.Context, id uint) error {
	delete(f.docs, id)
	return nil
}

func TestProductService_CreateUpdateDelete(t *testing.T) {
	e := newEnv(t)
	idx := &fakeIndex{docs: map[uint]search.ProductDoc{}}
	svc := &ProductService{Repo: e.repo, Index: idx, Notify: e.notify}
	ctx := context.Background()
	books := testutil.Category(t, e.db, "Books")
	games := testutil.Category(t, e.db, "Games")

	p, err := svc.Create(ctx, transport.CreateProductRequest{
		Name:       "Chess",
		CategoryID: books.ID,
		Price:      decimal.RequireFromString("12.50"),
		Quantity:   3,
	})
	require.NoError(t, err)
	assert.Equal(t, "Books", p.CategoryName)
	assert.Equal(t, "12.50", idx.docs[p.ID].Price)

	name := "Chess Deluxe"
	updated, err := svc.Update(ctx, p.ID, transport.PatchProductRequest{Name: &name, CategoryID: &games.ID})
	require.NoError(t, err)
	assert.Equal(t, "Chess Deluxe", updated.Name)
	assert.Equal(t, "Games", updated.CategoryName)
	assert.Equal(t, 3, updated.Quantity)
	assert.True(t, decimal.RequireFromString("12.5").Equal(updated.Price))
	assert.Equal(t, "Games", idx.docs[p.ID].CategoryName)

	require.NoError(t, svc.Delete(ctx, p.ID))
	assert.NotContains(t, idx.docs, p.ID)
	_, err = svc.Get(ctx, p.ID)
	requireKind(t, err, apperr.ErrNotFound)

	assert.Equal(t, []string{events.ProductCreated, events.ProductUpdated, events.ProductDeleted}, e.events.types())
}

func TestProductService_Create_Rejections(t *testing.T) {
	e := newEnv(t)
	svc := &ProductService{Repo: e.repo}
	ctx := context.Background()
	books := testutil.Category(t, e.db, "Books")

	tests := []struct {
		name string
		req  transport.CreateProductRequest
		kind error
	}{
		{name: "negative price", req: transport.CreateProductRequest{Name: "A", CategoryID: books.ID, Price: decimal.NewFromInt(-1), Quantity: 1}, kind: apperr.ErrValidation},
		{name: "zero quantity", req: transport.CreateProductRequest{Name: "A", CategoryID: books.ID, Price: decimal.NewFromInt(1)}, kind: apperr.ErrValidation},
		{name: "blank name", req: transport.CreateProductRequest{Name: "  ", CategoryID: books.ID, Price: decimal.NewFromInt(1), Quantity: 1}, kind: apperr.ErrValidation},
		{name: "unknown category", req: transport.CreateProductRequest{Name: "A", CategoryID: 99, Price: decimal.NewFromInt(1), Quantity: 1}, kind: apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.req)
			requireKind(t, err, tt.kind)
		})
	}
}

func TestProductService_Delete_ReferencedByOrder(t *testing.T) {
	f := newOrderFixture(t)
	svc := &ProductService{Repo: f.repo}
	f.place(t, []uint{f.first.ID}, []int{1})

	err := svc.Delete(context.Background(), f.first.ID)
	requireKind(t, err, apperr.ErrConflict)
}

func TestProductService_List_Criteria(t *testing.T) {
	e := newEnv(t)
	svc := &ProductService{Repo: e.repo}
	ctx := context.Background()
	books := testutil.Category(t, e.db, "Books")
	games := testutil.Category(t, e.db, "Games")
	testutil.Product(t, e.db, books.ID, "Go Programming", "40.00", 10)
	testutil.Product(t, e.db, books.ID, "Rust Book", "35.00", 2)
	testutil.Product(t, e.db, games.ID, "Go Board", "25.00", 4)

	from := decimal.RequireFromString("30")
	page, err := svc.List(ctx, transport.ProductCriteria{Category: "books", PriceFrom: &from}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Meta.Total)

	page, err = svc.List(ctx, transport.ProductCriteria{Name: "GO"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "Books", page.Data[0].CategoryName)
	assert.Equal(t, "Games", page.Data[1].CategoryName)

	lo, hi := 5, 1
	_, err = svc.List(ctx, transport.ProductCriteria{QuantityFrom: &lo, QuantityTo: &hi}, 1, 10)
	requireKind(t, err, apperr.ErrValidation)
}

func TestProductService_Search(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	books := testutil.Category(t, e.db, "Books")
	a := testutil.Product(t, e.db, books.ID, "Alpha", "1.00", 1)
	b := testutil.Product(t, e.db, books.ID, "Beta", "1.00", 1)

	t.Run("index order is kept", func(t *testing.T) {
		idx := &fakeIndex{docs: map[uint]search.ProductDoc{}, ranked: []uint{b.ID, 999, a.ID}}
		svc := &ProductService{Repo: e.repo, Index: idx}

		page, err := svc.Search(ctx, "anything", 1, 10)
		require.NoError(t, err)
		require.Len(t, page.Data, 2)
		assert.Equal(t, b.ID, page.Data[0].ID)
		assert.Equal(t, a.ID, page.Data[1].ID)
	})

	t.Run("database fallback", func(t *testing.T) {
		for _, svc := range []*ProductService{
			{Repo: e.repo},
			{Repo: e.repo, Index: &fakeIndex{failing: true}},
		} {
			page, err := svc.Search(ctx, "alp", 1, 10)
			require.NoError(t, err)
			require.Len(t, page.Data, 1)
			assert.Equal(t, a.ID, page.Data[0].ID)
		}
	})

	t.Run("blank query", func(t *testing.T) {
		_, err := (&ProductService{Repo: e.repo}).Search(ctx, " ", 1, 10)
		requireKind(t, err, apperr.ErrValidation)
	})
}

func TestProductService_Export(t *testing.T) {
	e := newEnv(t)
	svc := &ProductService{Repo: e.repo}
	books := testutil.Category(t, e.db, "Books")
	testutil.Product(t, e.db, books.ID, "Alpha", "3.50", 7)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), &buf))

	file, err := xlsx.OpenReaderAt(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)
	sheet := file.Sheets[0]
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "Name", sheet.Rows[0].Cells[1].Value)
	assert.Equal(t, "Alpha", sheet.Rows[1].Cells[1].Value)
	assert.Equal(t, "Books", sheet.Rows[1].Cells[2].Value)
	assert.Equal(t, "3.50", sheet.Rows[1].Cells[4].Value)
}
