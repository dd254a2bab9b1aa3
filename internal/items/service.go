package items

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ecomlabs/order-service/internal/logger"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, it *Item) (*Item, error) {
	log := logger.FromCtx(ctx).With(zap.String("name", it.Name))
	log.Info("creating item")

	taken, err := s.repo.ExistsByName(ctx, it.Name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: %s", ErrNameTaken, it.Name)
	}
	if err := s.repo.Create(ctx, it); err != nil {
		return nil, err
	}
	log.Info("item created", zap.Int64("item_id", it.ID))
	return it, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Item, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, page, size int) ([]*Item, error) {
	return s.repo.List(ctx, page, size)
}

func (s *Service) SearchByName(ctx context.Context, name string) ([]*Item, error) {
	return s.repo.SearchByName(ctx, name)
}

func (s *Service) Update(ctx context.Context, id int64, upd *Item) (*Item, error) {
	log := logger.FromCtx(ctx).With(zap.Int64("item_id", id))
	log.Info("updating item")

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Name != upd.Name {
		taken, err := s.repo.ExistsByName(ctx, upd.Name)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fmt.Errorf("%w: %s", ErrNameTaken, upd.Name)
		}
	}

	current.Name = upd.Name
	current.Description = upd.Description
	current.Price = upd.Price
	if err := s.repo.Update(ctx, current); err != nil {
		return nil, err
	}
	log.Info("item updated")
	return current, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	logger.FromCtx(ctx).Info("deleting item", zap.Int64("item_id", id))
	return s.repo.Delete(ctx, id)
}
