// internal/domain/product/category_service.go
package product

import (
	"errors"
	"fmt"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// CategoryService handles category tree business logic
type CategoryService struct {
	db     *gorm.DB
	config *config.Config
}

// NewCategoryService creates a new category service
func NewCategoryService(db *gorm.DB, cfg *config.Config) *CategoryService {
	return &CategoryService{db: db, config: cfg}
}

// CategoryCreateRequest represents category creation data
type CategoryCreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug" binding:"required"`
	Description string `json:"description"`
	ParentID    *uint  `json:"parent_id"`
	SortOrder   int    `json:"sort_order"`
	IsActive    bool   `json:"is_active"`
}

// CategoryUpdateRequest represents category update data
type CategoryUpdateRequest struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	ParentID    *uint   `json:"parent_id"`
	SortOrder   *int    `json:"sort_order"`
	IsActive    *bool   `json:"is_active"`
}

// GetCategory retrieves a single category
func (s *CategoryService) GetCategory(id uint) (*Category, error) {
	var category Category
	if err := s.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("category %d not found", id)
		}
		return nil, fmt.Errorf("failed to retrieve category: %w", err)
	}
	return &category, nil
}

// GetCategoryTree returns all active categories assembled into a tree
// from a single flat query. Children must be copied deepest-first or the
// parent copies miss their grandchildren.
func (s *CategoryService) GetCategoryTree() ([]Category, error) {
	var all []Category
	if err := s.db.Where("is_active = ?", true).Order("sort_order ASC, id ASC").Find(&all).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}

	children := make(map[uint][]*Category)
	var rootPtrs []*Category
	for i := range all {
		node := &all[i]
		if node.ParentID == nil {
			rootPtrs = append(rootPtrs, node)
			continue
		}
		children[*node.ParentID] = append(children[*node.ParentID], node)
	}

	var build func(node *Category) Category
	build = func(node *Category) Category {
		out := *node
		out.Children = nil
		for _, child := range children[node.ID] {
			out.Children = append(out.Children, build(child))
		}
		return out
	}

	roots := make([]Category, 0, len(rootPtrs))
	for _, root := range rootPtrs {
		roots = append(roots, build(root))
	}
	return roots, nil
}

// GetDescendantIDs returns the ids of a category and all its descendants,
// walking the tree level by level
func (s *CategoryService) GetDescendantIDs(categoryID uint) ([]uint, error) {
	if _, err := s.GetCategory(categoryID); err != nil {
		return nil, err
	}

	ids := []uint{categoryID}
	frontier := []uint{categoryID}
	for len(frontier) > 0 {
		var children []Category
		if err := s.db.Select("id").Where("parent_id IN ?", frontier).Find(&children).Error; err != nil {
			return nil, fmt.Errorf("failed to retrieve child categories: %w", err)
		}
		frontier = frontier[:0]
		for _, c := range children {
			ids = append(ids, c.ID)
			frontier = append(frontier, c.ID)
		}
	}
	return ids, nil
}

// GetAncestors returns the chain from a category up to its root, nearest
// parent first
func (s *CategoryService) GetAncestors(categoryID uint) ([]Category, error) {
	category, err := s.GetCategory(categoryID)
	if err != nil {
		return nil, err
	}

	var ancestors []Category
	current := category
	for current.ParentID != nil {
		parent, err := s.GetCategory(*current.ParentID)
		if err != nil {
			return nil, err
		}
		ancestors = append(ancestors, *parent)
		current = parent
	}
	return ancestors, nil
}

// CreateCategory creates a new category node
func (s *CategoryService) CreateCategory(req *CategoryCreateRequest) (*Category, error) {
	var existing Category
	if err := s.db.Where("slug = ?", req.Slug).First(&existing).Error; err == nil {
		return nil, apperror.Conflict("category slug %q already exists", req.Slug)
	}

	if req.ParentID != nil {
		if _, err := s.GetCategory(*req.ParentID); err != nil {
			return nil, err
		}
	}

	category := Category{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		ParentID:    req.ParentID,
		SortOrder:   req.SortOrder,
		IsActive:    req.IsActive,
	}
	if err := s.db.Create(&category).Error; err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &category, nil
}

// UpdateCategory updates a category node. Re-parenting onto the node itself
// or one of its descendants is rejected to keep the tree acyclic.
func (s *CategoryService) UpdateCategory(id uint, req *CategoryUpdateRequest) (*Category, error) {
	category, err := s.GetCategory(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Slug != nil && *req.Slug != category.Slug {
		var existing Category
		if err := s.db.Where("slug = ? AND id <> ?", *req.Slug, id).First(&existing).Error; err == nil {
			return nil, apperror.Conflict("category slug %q already exists", *req.Slug)
		}
		updates["slug"] = *req.Slug
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.ParentID != nil {
		descendants, err := s.GetDescendantIDs(id)
		if err != nil {
			return nil, err
		}
		for _, d := range descendants {
			if d == *req.ParentID {
				return nil, apperror.Validation("cannot re-parent category %d under its own subtree", id)
			}
		}
		if _, err := s.GetCategory(*req.ParentID); err != nil {
			return nil, err
		}
		updates["parent_id"] = *req.ParentID
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update category: %w", err)
		}
	}
	return s.GetCategory(id)
}

// DeleteCategory soft-deletes a category. Products keep their rows with
// category_id set NULL by the FK constraint on hard deletes; for soft
// deletes the products simply stop listing under the category.
func (s *CategoryService) DeleteCategory(id uint) error {
	if _, err := s.GetCategory(id); err != nil {
		return err
	}

	var childCount int64
	if err := s.db.Model(&Category{}).Where("parent_id = ?", id).Count(&childCount).Error; err != nil {
		return fmt.Errorf("failed to count child categories: %w", err)
	}
	if childCount > 0 {
		return apperror.Validation("category %d still has %d child categories", id, childCount)
	}

	if err := s.db.Delete(&Category{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}
