package orders

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ecomlabs/order-service/internal/items"
	"github.com/ecomlabs/order-service/internal/logger"
	"github.com/ecomlabs/order-service/internal/userdir"
)

// ItemSource resolves catalog items when order lines are assembled.
type ItemSource interface {
	GetByID(ctx context.Context, id int64) (*items.Item, error)
}

// Service orchestrates the order lifecycle: creation, reads with owner
// enrichment, line/status updates and soft deletion. Aggregate writes happen
// inside one repository transaction; the user directory call sits outside it.
type Service struct {
	repo      Repository
	items     ItemSource
	users     userdir.Client
	publisher EventPublisher
	cache     StatusCache
}

func NewService(repo Repository, items ItemSource, users userdir.Client, publisher EventPublisher, cache StatusCache) *Service {
	return &Service{repo: repo, items: items, users: users, publisher: publisher, cache: cache}
}

// Create persists a new PENDING order for userID. The owner must exist and be
// active in the user directory; every requested item must resolve, or no
// order is created at all. The order-created event goes out only after the
// order is durably committed.
func (s *Service) Create(ctx context.Context, userID int64, lines []LineInput) (*View, error) {
	log := logger.FromCtx(ctx).With(zap.Int64("user_id", userID))
	log.Info("creating order")

	user, err := s.users.Fetch(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, fmt.Errorf("%w: cannot create order for inactive user %d", ErrInvalidState, userID)
	}

	resolved, err := s.resolveLines(ctx, lines)
	if err != nil {
		return nil, err
	}

	o := &Order{
		UserID:     userID,
		Status:     StatusPending,
		Lines:      resolved,
		TotalPrice: ComputeTotal(resolved),
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	s.cache.SetStatus(ctx, o.ID, o.Status)
	log.Info("order created", zap.Int64("order_id", o.ID), zap.String("total", o.TotalPrice.String()))

	// The order is committed at this point. In sync publish mode a transport
	// failure surfaces to the caller, but the order stays persisted.
	if err := s.publisher.OrderCreated(ctx, o); err != nil {
		return nil, fmt.Errorf("order %d created but event publish failed: %w", o.ID, err)
	}

	return &View{Order: *o, User: user}, nil
}

// GetByID loads a non-deleted order and enriches it with a fresh owner
// snapshot on every call.
func (s *Service) GetByID(ctx context.Context, id int64) (*View, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &View{Order: *o, User: s.ownerSnapshot(ctx, o.UserID)}, nil
}

// List returns non-deleted orders matching the filter, each row enriched with
// its own owner fetch.
func (s *Service) List(ctx context.Context, f ListFilter) ([]*View, error) {
	os, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	views := make([]*View, 0, len(os))
	for _, o := range os {
		views = append(views, &View{Order: *o, User: s.ownerSnapshot(ctx, o.UserID)})
	}
	return views, nil
}

// ListByOwner returns one owner's orders. The owner is uniform across the
// page, so a single directory fetch is reused for every row.
func (s *Service) ListByOwner(ctx context.Context, userID int64, page, size int) ([]*View, error) {
	user := s.ownerSnapshot(ctx, userID)
	os, err := s.repo.ListByUser(ctx, userID, page, size)
	if err != nil {
		return nil, err
	}
	views := make([]*View, 0, len(os))
	for _, o := range os {
		views = append(views, &View{Order: *o, User: user})
	}
	return views, nil
}

// Update applies an optional status transition and an optional full line-set
// replacement in one locked transaction. Terminal orders reject any update.
// A non-nil empty line set is valid and drives the total to zero.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*View, error) {
	log := logger.FromCtx(ctx).With(zap.Int64("order_id", id))
	log.Info("updating order")

	var resolved []OrderLine
	if req.Items != nil {
		var err error
		if resolved, err = s.resolveLines(ctx, *req.Items); err != nil {
			return nil, err
		}
	}

	o, err := s.repo.Mutate(ctx, id, func(o *Order) (bool, error) {
		if o.Status == StatusDelivered || o.Status == StatusCancelled {
			return false, fmt.Errorf("%w: cannot update order in status %s", ErrInvalidState, o.Status)
		}
		if req.Status != nil {
			if !CanTransition(o.Status, *req.Status) {
				return false, fmt.Errorf("%w: invalid status transition from %s to %s",
					ErrInvalidState, o.Status, *req.Status)
			}
			o.Status = *req.Status
		}
		if req.Items == nil {
			return false, nil
		}
		o.Lines = resolved
		o.TotalPrice = ComputeTotal(o.Lines)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.SetStatus(ctx, o.ID, o.Status)
	log.Info("order updated", zap.String("status", string(o.Status)), zap.String("total", o.TotalPrice.String()))

	return &View{Order: *o, User: s.ownerSnapshot(ctx, o.UserID)}, nil
}

// UpdateStatus is the single-purpose transition entry point used by the
// payment event path.
func (s *Service) UpdateStatus(ctx context.Context, id int64, newStatus Status) (*View, error) {
	log := logger.FromCtx(ctx).With(zap.Int64("order_id", id), zap.String("new_status", string(newStatus)))
	log.Info("updating order status")

	o, err := s.repo.Mutate(ctx, id, func(o *Order) (bool, error) {
		if !CanTransition(o.Status, newStatus) {
			return false, fmt.Errorf("%w: invalid status transition from %s to %s",
				ErrInvalidState, o.Status, newStatus)
		}
		o.Status = newStatus
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.SetStatus(ctx, o.ID, o.Status)
	log.Info("order status updated")

	return &View{Order: *o, User: s.ownerSnapshot(ctx, o.UserID)}, nil
}

// Delete soft-deletes an order. Only PENDING and CANCELLED orders qualify;
// the row is kept, flagged and excluded from all further reads and writes.
func (s *Service) Delete(ctx context.Context, id int64) error {
	log := logger.FromCtx(ctx).With(zap.Int64("order_id", id))
	log.Info("soft deleting order")

	_, err := s.repo.Mutate(ctx, id, func(o *Order) (bool, error) {
		if !Deletable(o.Status) {
			return false, fmt.Errorf("%w: cannot delete order in status %s", ErrInvalidState, o.Status)
		}
		o.Deleted = true
		return false, nil
	})
	if err != nil {
		return err
	}
	s.cache.DropStatus(ctx, id)
	log.Info("order soft deleted")
	return nil
}

func (s *Service) resolveLines(ctx context.Context, lines []LineInput) ([]OrderLine, error) {
	resolved := make([]OrderLine, 0, len(lines))
	for _, in := range lines {
		if in.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be at least 1 for item %d", ErrInvalidState, in.ItemID)
		}
		it, err := s.items.GetByID(ctx, in.ItemID)
		if err != nil {
			return nil, fmt.Errorf("resolve item %d: %w", in.ItemID, err)
		}
		resolved = append(resolved, OrderLine{
			ItemID:    it.ID,
			Quantity:  in.Quantity,
			UnitPrice: it.Price,
		})
	}
	return resolved, nil
}

// ownerSnapshot fetches the owner for read enrichment. Reads never fail on
// directory trouble: any error degrades to the placeholder.
func (s *Service) ownerSnapshot(ctx context.Context, userID int64) userdir.UserInfo {
	u, err := s.users.Fetch(ctx, userID)
	if err != nil {
		logger.FromCtx(ctx).Warn("owner enrichment degraded",
			zap.Int64("user_id", userID), zap.Error(err))
		return userdir.Placeholder(userID)
	}
	return u
}
