package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Houman6460/fooodis-blog-sub005/internal/models"
	"github.com/Houman6460/fooodis-blog-sub005/internal/repository"
	"github.com/Houman6460/fooodis-blog-sub005/pkg/utils"
	"github.com/google/uuid"
)

type CategoryService interface {
	List(ctx context.Context) ([]*models.Category, error)
	Create(ctx context.Context, name string) (*models.Category, error)
}

type categoryService struct {
	cr repository.CategoryRepository
}

func NewCategoryService(cr repository.CategoryRepository) CategoryService {
	return &categoryService{cr: cr}
}

func (s *categoryService) List(ctx context.Context) ([]*models.Category, error) {
	categories, err := s.cr.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *categoryService) Create(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("Category name is required")
	}
	if name == models.UncategorizedCategory {
		return nil, invalid("%s is reserved", models.UncategorizedCategory)
	}

	category := &models.Category{
		ID:   uuid.NewString(),
		Name: name,
		Slug: utils.Slugify(name),
	}
	if err := s.cr.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("error creating category: %w", err)
	}
	return category, nil
}
