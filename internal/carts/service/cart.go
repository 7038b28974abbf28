package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	cartserrors "fairway/internal/carts/errors"
	"fairway/internal/carts/repository"
	"fairway/pkg/config"
	apperrors "fairway/pkg/errors"
	"fairway/pkg/model"
	"fairway/pkg/slot"

	"github.com/go-playground/validator/v10"
)

// RentalSource is the slice of the rental store the projection needs: which
// confirmed rentals occupy carts at a given instant.
type RentalSource interface {
	FindActiveAt(ctx context.Context, at time.Time) ([]*model.Rental, error)
	FindActiveForCart(ctx context.Context, cartID int, at time.Time) ([]*model.Rental, error)
}

type CartService interface {
	List(ctx context.Context, at time.Time) ([]*model.CartView, error)
	GetByID(ctx context.Context, id int, at time.Time) (*model.CartView, error)
	SetStatus(ctx context.Context, id int, update *model.CartStatusUpdate) (*model.Cart, error)
}

type cartService struct {
	repo     repository.CartRepository
	rentals  RentalSource
	policy   slot.Policy
	validate *validator.Validate
	cfg      *config.Config
}

func NewCartService(repo repository.CartRepository, rentals RentalSource, cfg *config.Config) CartService {
	return &cartService{
		repo:     repo,
		rentals:  rentals,
		policy:   cfg.SlotPolicy(),
		validate: validator.New(),
		cfg:      cfg,
	}
}

func (s *cartService) List(ctx context.Context, at time.Time) ([]*model.CartView, error) {
	carts, err := s.repo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list carts", "error", err)
		return nil, apperrors.Internal("Failed to retrieve carts", err)
	}

	active, err := s.rentals.FindActiveAt(ctx, at)
	if err != nil {
		s.cfg.Log.Error("Failed to load active rentals for projection", "at", at, "error", err)
		return nil, apperrors.Internal("Failed to retrieve carts", err)
	}
	byCart := slot.GroupByCart(active)

	views := make([]*model.CartView, 0, len(carts))
	for _, cart := range carts {
		views = append(views, &model.CartView{
			Cart:  *cart,
			State: slot.Project(s.policy, at, cart, byCart[cart.ID]),
		})
	}

	return views, nil
}

func (s *cartService) GetByID(ctx context.Context, id int, at time.Time) (*model.CartView, error) {
	cart, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, cartserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Cart", strconv.Itoa(id))
		}
		s.cfg.Log.Error("Failed to get cart", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve cart", err)
	}

	active, err := s.rentals.FindActiveForCart(ctx, id, at)
	if err != nil {
		s.cfg.Log.Error("Failed to load active rentals for projection", "cart_id", id, "at", at, "error", err)
		return nil, apperrors.Internal("Failed to retrieve cart", err)
	}

	return &model.CartView{
		Cart:  *cart,
		State: slot.Project(s.policy, at, cart, active),
	}, nil
}

func (s *cartService) SetStatus(ctx context.Context, id int, update *model.CartStatusUpdate) (*model.Cart, error) {
	if err := s.validate.Struct(update); err != nil {
		return nil, apperrors.Validation("Invalid cart status", map[string]any{"error": err.Error()})
	}

	// The override endpoint only toggles operator-controlled statuses;
	// clearing to available also drops any stale rental reference.
	if err := s.repo.UpdateStatus(ctx, id, update.Status, ""); err != nil {
		if errors.Is(err, cartserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Cart", strconv.Itoa(id))
		}
		s.cfg.Log.Error("Failed to update cart status", "id", id, "status", update.Status, "error", err)
		return nil, apperrors.Internal("Failed to update cart status", err)
	}

	cart, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.cfg.Log.Error("Failed to reload cart after status update", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve cart", err)
	}

	s.cfg.Log.Info("Cart status updated", "id", id, "status", update.Status)
	return cart, nil
}
