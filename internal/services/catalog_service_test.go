package services

import (
	"context"
	"strings"
	"testing"

	"cafe_backoffice/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalogFixture struct {
	svc        CatalogService
	categories *fakeCategoryRepo
	products   *fakeProductRepo
	cache      *fakeCategoryCache
	images     *fakeImageStore
}

func newCatalogFixture(t *testing.T) (catalogFixture, func(begin, commit bool)) {
	t.Helper()
	db, mock := newMockDB(t)
	f := catalogFixture{
		categories: newFakeCategoryRepo(models.Category{ID: 1, Name: "Coffee"}, models.Category{ID: 2, Name: "Pastry"}),
		products:   menuProducts(),
		cache:      &fakeCategoryCache{},
		images:     &fakeImageStore{},
	}
	f.svc = NewCatalogService(f.categories, f.products, f.cache, f.images, db)
	t.Cleanup(func() { assert.NoError(t, mock.ExpectationsWereMet()) })
	expectTx := func(begin, commit bool) {
		if !begin {
			return
		}
		mock.ExpectBegin()
		if commit {
			mock.ExpectCommit()
		} else {
			mock.ExpectRollback()
		}
	}
	return f, expectTx
}

func TestListCategories_ReadThroughCache(t *testing.T) {
	f, _ := newCatalogFixture(t)
	ctx := context.Background()

	first, err := f.svc.ListCategories(ctx)
	require.NoError(t, err)
	second, err := f.svc.ListCategories(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.categories.listCalls)

	_, err = f.svc.CreateCategory(ctx, CreateCategoryRequest{Name: "Tea"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.invalidated)

	third, err := f.svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, third, 3)
	assert.Equal(t, 2, f.categories.listCalls)
}

func TestCreateCategory_DuplicateName(t *testing.T) {
	f, _ := newCatalogFixture(t)
	_, err := f.svc.CreateCategory(context.Background(), CreateCategoryRequest{Name: " Coffee "})
	assert.ErrorIs(t, err, ErrCategoryNameExists)
}

func TestDeleteCategory_InUse(t *testing.T) {
	f, expectTx := newCatalogFixture(t)
	f.categories.productCounts[1] = 3
	expectTx(true, false)

	err := f.svc.DeleteCategory(context.Background(), 1)
	assert.ErrorIs(t, err, ErrCategoryInUse)
	assert.Contains(t, f.categories.categories, int64(1))
	assert.Zero(t, f.cache.invalidated)
}

func TestDeleteCategory_Unreferenced(t *testing.T) {
	f, expectTx := newCatalogFixture(t)
	expectTx(true, true)

	require.NoError(t, f.svc.DeleteCategory(context.Background(), 2))
	assert.NotContains(t, f.categories.categories, int64(2))
	assert.Equal(t, 1, f.cache.invalidated)
}

func TestCreateProduct_DefaultsAndValidation(t *testing.T) {
	f, _ := newCatalogFixture(t)
	ctx := context.Background()

	product, err := f.svc.CreateProduct(ctx, CreateProductRequest{CategoryID: 1, Name: " Mocha ", Price: dec("3.456"), PointsAwarded: 12})
	require.NoError(t, err)
	assert.Equal(t, "Mocha", product.Name)
	assert.Equal(t, models.ProductStatusAvailable, product.Status)
	assert.True(t, product.IsActive)
	assert.True(t, dec("3.46").Equal(product.Price))

	_, err = f.svc.CreateProduct(ctx, CreateProductRequest{CategoryID: 1, Name: "Free", Price: dec("-1")})
	assert.ErrorIs(t, err, ErrCatalogValidation)
}

func TestDeleteProduct_InActiveOrderStaysUnchanged(t *testing.T) {
	f, expectTx := newCatalogFixture(t)
	f.products.products[1].ImageURL = strPtr("https://cdn.test/products/1/latte.png")
	f.products.openRefs[1] = 1
	expectTx(true, false)

	err := f.svc.DeleteProduct(context.Background(), 1)
	assert.ErrorIs(t, err, ErrProductInActiveOrder)
	assert.Equal(t, models.ProductStatusAvailable, f.products.products[1].Status)
	assert.True(t, f.products.products[1].IsActive)
	assert.Empty(t, f.images.removed)
}

func TestDeleteProduct_DeactivatesAndRemovesImage(t *testing.T) {
	f, expectTx := newCatalogFixture(t)
	f.products.products[1].ImageURL = strPtr("https://cdn.test/products/1/latte.png")
	expectTx(true, true)

	require.NoError(t, f.svc.DeleteProduct(context.Background(), 1))
	assert.Equal(t, models.ProductStatusAvailable, f.products.products[1].Status)
	assert.False(t, f.products.products[1].IsActive)
	assert.Equal(t, []string{"https://cdn.test/products/1/latte.png"}, f.images.removed)
}

func TestUpdateProduct_SwapsImage(t *testing.T) {
	f, _ := newCatalogFixture(t)
	f.products.products[2].ImageURL = strPtr("https://cdn.test/old.png")

	product, err := f.svc.UpdateProduct(context.Background(), 2, UpdateProductRequest{ImageURL: strPtr("https://cdn.test/new.png")})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/new.png", *product.ImageURL)
	assert.Equal(t, []string{"https://cdn.test/old.png"}, f.images.removed)
}

func TestUploadProductImage(t *testing.T) {
	f, _ := newCatalogFixture(t)
	f.products.products[2].ImageURL = strPtr("https://cdn.test/old.png")

	product, err := f.svc.UploadProductImage(context.Background(), 2, ImageUpload{
		Filename: "croissant.png", ContentType: "image/png", Size: 4, Body: strings.NewReader("\x89PNG"),
	})
	require.NoError(t, err)
	require.NotNil(t, product.ImageURL)
	assert.True(t, strings.HasPrefix(*product.ImageURL, "https://cdn.test/"))
	assert.Len(t, f.images.uploaded, 1)
	assert.Equal(t, []string{"https://cdn.test/old.png"}, f.images.removed)

	_, err = f.svc.UploadProductImage(context.Background(), 2, ImageUpload{
		Filename: "notes.txt", ContentType: "text/plain", Size: 4, Body: strings.NewReader("text"),
	})
	assert.ErrorIs(t, err, ErrInvalidImage)
}
