package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tkabwela/shopline-backend/internal/modules/catalog"
)

// Service defines the cart business logic.
type Service interface {
	// GetCart returns the user's cart, creating an empty one on first access.
	GetCart(ctx context.Context, userID string) (*Cart, error)

	// AddItem upserts a product line. The line's unit price is re-snapshotted
	// from the catalog on every add.
	AddItem(ctx context.Context, userID string, req AddItemRequest) (*Cart, error)

	// UpdateItem changes a line's quantity, re-validated against stock.
	UpdateItem(ctx context.Context, userID, itemID string, req UpdateItemRequest) (*Cart, error)

	// RemoveItem deletes a line unconditionally.
	RemoveItem(ctx context.Context, userID, itemID string) (*Cart, error)

	// Clear empties the cart.
	Clear(ctx context.Context, userID string) error
}

type service struct {
	repo     Repository
	products catalog.Repository
}

// NewService creates a new cart service.
func NewService(repo Repository, products catalog.Repository) Service {
	return &service{repo: repo, products: products}
}

func (s *service) GetCart(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.repo.GetByUser(ctx, userID)
	if errors.Is(err, ErrCartNotFound) {
		uid, perr := uuid.Parse(userID)
		if perr != nil {
			return nil, fmt.Errorf("invalid user id: %w", perr)
		}
		c = &Cart{ID: uuid.New(), UserID: uid}
		if err := s.repo.Create(ctx, c); err != nil {
			return nil, err
		}
		return c, nil
	}
	return c, err
}

func (s *service) AddItem(ctx context.Context, userID string, req AddItemRequest) (*Cart, error) {
	if req.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if p.Status != catalog.StatusActive {
		return nil, &catalog.ProductUnavailableError{ProductID: p.ID}
	}

	c, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	wanted := req.Quantity
	line := c.FindProduct(p.ID)
	if line != nil {
		wanted += line.Quantity
	}
	if wanted > p.Stock {
		return nil, &catalog.InsufficientStockError{
			ProductID: p.ID,
			Requested: wanted,
			Available: p.Stock,
		}
	}

	if line != nil {
		line.Quantity = wanted
		line.UnitPrice = p.Price
	} else {
		c.Items = append(c.Items, &CartItem{
			ID:        uuid.New(),
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  req.Quantity,
			UnitPrice: p.Price,
		})
	}

	c.Recalculate()
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) UpdateItem(ctx context.Context, userID, itemID string, req UpdateItemRequest) (*Cart, error) {
	if req.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	lineID, err := uuid.Parse(itemID)
	if err != nil {
		return nil, ErrItemNotFound
	}

	c, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	line := c.FindItem(lineID)
	if line == nil {
		return nil, ErrItemNotFound
	}

	p, err := s.products.GetByID(ctx, line.ProductID.String())
	if err != nil {
		return nil, err
	}
	if req.Quantity > p.Stock {
		return nil, &catalog.InsufficientStockError{
			ProductID: p.ID,
			Requested: req.Quantity,
			Available: p.Stock,
		}
	}

	line.Quantity = req.Quantity
	c.Recalculate()
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID string) (*Cart, error) {
	lineID, err := uuid.Parse(itemID)
	if err != nil {
		return nil, ErrItemNotFound
	}

	c, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	kept := c.Items[:0]
	found := false
	for _, item := range c.Items {
		if item.ID == lineID {
			found = true
			continue
		}
		kept = append(kept, item)
	}
	if !found {
		return nil, ErrItemNotFound
	}
	c.Items = kept

	c.Recalculate()
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Clear(ctx context.Context, userID string) error {
	err := s.repo.Clear(ctx, userID)
	if errors.Is(err, ErrCartNotFound) {
		return nil
	}
	return err
}
