package services

import (
	"context"

	"marketBack/internal/models"
)

type CategoryService struct {
	Repo  CategoryStore
	Cache LookupCache
}

func NewCategoryService(repo CategoryStore, cache LookupCache) *CategoryService {
	return &CategoryService{Repo: repo, Cache: cache}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if s.Cache != nil {
		if found, err := s.Cache.Get(ctx, "categories:all", &categories); err == nil && found {
			return categories, nil
		}
	}
	categories, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		_ = s.Cache.Set(ctx, "categories:all", categories, lookupTTL)
	}
	return categories, nil
}

func (s *CategoryService) Get(ctx context.Context, id int64) (models.Category, error) {
	categories, err := s.List(ctx)
	if err != nil {
		return models.Category{}, err
	}
	for _, c := range categories {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Category{}, models.ErrCategoryNotFound
}

// FindByName matches the whole name, ignoring case and accents.
func (s *CategoryService) FindByName(ctx context.Context, name string) (models.Category, bool, error) {
	categories, err := s.List(ctx)
	if err != nil {
		return models.Category{}, false, err
	}
	want := models.Fold(name)
	for _, c := range categories {
		if models.Fold(c.Name) == want {
			return c, true, nil
		}
	}
	return models.Category{}, false, nil
}
