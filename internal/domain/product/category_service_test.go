// internal/domain/product/category_service_test.go
package product_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// seedCategoryTree builds:
//
//	Thời Trang Nam
//	├── Áo Nam
//	│   └── Áo Thun Nam
//	└── Quần Nam
//	Phụ Kiện
func seedCategoryTree(t *testing.T, db *gorm.DB) (*product.CategoryService, map[string]uint) {
	t.Helper()

	service := product.NewCategoryService(db, &config.Config{})
	ids := map[string]uint{}

	create := func(name, slug string, parent *uint, sortOrder int) uint {
		cat, err := service.CreateCategory(&product.CategoryCreateRequest{
			Name:      name,
			Slug:      slug,
			ParentID:  parent,
			SortOrder: sortOrder,
			IsActive:  true,
		})
		require.NoError(t, err)
		ids[slug] = cat.ID
		return cat.ID
	}

	nam := create("Thời Trang Nam", "thoi-trang-nam", nil, 0)
	aoNam := create("Áo Nam", "ao-nam", &nam, 0)
	create("Áo Thun Nam", "ao-thun-nam", &aoNam, 0)
	create("Quần Nam", "quan-nam", &nam, 1)
	create("Phụ Kiện", "phu-kien", nil, 1)

	return service, ids
}

func TestGetCategoryTree(t *testing.T) {
	db := newProductTestDB(t)
	service, ids := seedCategoryTree(t, db)

	roots, err := service.GetCategoryTree()
	require.NoError(t, err)
	require.Len(t, roots, 2)

	assert.Equal(t, "Thời Trang Nam", roots[0].Name)
	assert.Equal(t, "Phụ Kiện", roots[1].Name)

	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, "Áo Nam", roots[0].Children[0].Name)
	assert.Equal(t, "Quần Nam", roots[0].Children[1].Name)

	require.Len(t, roots[0].Children[0].Children, 1)
	assert.Equal(t, "Áo Thun Nam", roots[0].Children[0].Children[0].Name)
	assert.Empty(t, roots[1].Children)

	// Deactivated nodes drop out of the tree
	_, err = service.UpdateCategory(ids["phu-kien"], &product.CategoryUpdateRequest{
		IsActive: boolPtr(false),
	})
	require.NoError(t, err)

	roots, err = service.GetCategoryTree()
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "Thời Trang Nam", roots[0].Name)
}

func TestCreateCategoryRejectsDuplicateSlug(t *testing.T) {
	db := newProductTestDB(t)
	service, _ := seedCategoryTree(t, db)

	_, err := service.CreateCategory(&product.CategoryCreateRequest{
		Name:     "Khác",
		Slug:     "ao-nam",
		IsActive: true,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
}

func TestCreateCategoryUnknownParent(t *testing.T) {
	db := newProductTestDB(t)
	service := product.NewCategoryService(db, &config.Config{})

	missing := uint(999)
	_, err := service.CreateCategory(&product.CategoryCreateRequest{
		Name:     "Mồ Côi",
		Slug:     "mo-coi",
		ParentID: &missing,
		IsActive: true,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestGetDescendantIDs(t *testing.T) {
	db := newProductTestDB(t)
	service, ids := seedCategoryTree(t, db)

	got, err := service.GetDescendantIDs(ids["thoi-trang-nam"])
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{
		ids["thoi-trang-nam"], ids["ao-nam"], ids["ao-thun-nam"], ids["quan-nam"],
	}, got)

	leaf, err := service.GetDescendantIDs(ids["ao-thun-nam"])
	require.NoError(t, err)
	assert.Equal(t, []uint{ids["ao-thun-nam"]}, leaf)
}

func TestGetAncestors(t *testing.T) {
	db := newProductTestDB(t)
	service, ids := seedCategoryTree(t, db)

	ancestors, err := service.GetAncestors(ids["ao-thun-nam"])
	require.NoError(t, err)
	require.Len(t, ancestors, 2)
	assert.Equal(t, "Áo Nam", ancestors[0].Name)
	assert.Equal(t, "Thời Trang Nam", ancestors[1].Name)

	roots, err := service.GetAncestors(ids["thoi-trang-nam"])
	require.NoError(t, err)
	assert.Empty(t, roots)
}

func TestUpdateCategoryRejectsCycle(t *testing.T) {
	db := newProductTestDB(t)
	service, ids := seedCategoryTree(t, db)

	// Re-parenting a node under its own descendant
	_, err := service.UpdateCategory(ids["thoi-trang-nam"], &product.CategoryUpdateRequest{
		ParentID: uintPtr(ids["ao-thun-nam"]),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	// Re-parenting under itself
	_, err = service.UpdateCategory(ids["ao-nam"], &product.CategoryUpdateRequest{
		ParentID: uintPtr(ids["ao-nam"]),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	// A legal move still works
	updated, err := service.UpdateCategory(ids["ao-thun-nam"], &product.CategoryUpdateRequest{
		ParentID: uintPtr(ids["quan-nam"]),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.ParentID)
	assert.Equal(t, ids["quan-nam"], *updated.ParentID)
}

func TestDeleteCategory(t *testing.T) {
	db := newProductTestDB(t)
	service, ids := seedCategoryTree(t, db)

	err := service.DeleteCategory(ids["thoi-trang-nam"])
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	require.NoError(t, service.DeleteCategory(ids["ao-thun-nam"]))

	_, err = service.GetCategory(ids["ao-thun-nam"])
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func boolPtr(b bool) *bool { return &b }
func uintPtr(u uint) *uint { return &u }
