package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/primavera-events/primavera/internal/platform/httpx"
)

// RepositoryPort abstracts catalog persistence for the service.
type RepositoryPort interface {
	ListTree(ctx context.Context) ([]Category, error)
	GetItem(ctx context.Context, id uuid.UUID) (Item, error)
	CreateItem(ctx context.Context, in CreateItemInput) (Item, error)
	UpdateItem(ctx context.Context, id uuid.UUID, in UpdateItemInput) (Item, error)
}

// Service coordinates catalog operations.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Tree returns the full category tree.
func (s *Service) Tree(ctx context.Context) ([]Category, error) {
	tree, err := s.repo.ListTree(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: list tree: %w", err)
	}
	if tree == nil {
		tree = []Category{}
	}
	return tree, nil
}

// Item loads one catalog item.
func (s *Service) Item(ctx context.Context, id uuid.UUID) (Item, error) {
	return s.repo.GetItem(ctx, id)
}

// CreateItem validates and stores a new item.
func (s *Service) CreateItem(ctx context.Context, in CreateItemInput) (Item, error) {
	if err := httpx.Validate(in); err != nil {
		return Item{}, err
	}
	if in.Unit == "" {
		in.Unit = "pieza"
	}
	return s.repo.CreateItem(ctx, in)
}

// UpdateItem patches stock and/or price of an item.
func (s *Service) UpdateItem(ctx context.Context, id uuid.UUID, in UpdateItemInput) (Item, error) {
	if in.Stock == nil && in.Price == nil {
		return Item{}, ErrEmptyUpdate
	}
	if (in.Stock != nil && *in.Stock < 0) || (in.Price != nil && *in.Price < 0) {
		return Item{}, ErrNegativeValue
	}
	return s.repo.UpdateItem(ctx, id, in)
}
