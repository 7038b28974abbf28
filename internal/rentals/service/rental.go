package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	cartserrors "fairway/internal/carts/errors"
	cartsrepository "fairway/internal/carts/repository"
	rentalserrors "fairway/internal/rentals/errors"
	"fairway/internal/rentals/repository"
	"fairway/internal/rentals/validator"
	"fairway/pkg/config"
	apperrors "fairway/pkg/errors"
	"fairway/pkg/model"
	"fairway/pkg/sanitizer"
	"fairway/pkg/slot"
)

// RentalNotifier publishes rental lifecycle events. Delivery is best effort;
// a failed publish never rolls back a committed rental.
type RentalNotifier interface {
	RentalConfirmed(ctx context.Context, rental *model.Rental) error
	RentalCancelled(ctx context.Context, rental *model.Rental) error
}

type RentalService interface {
	Create(ctx context.Context, req *model.RentalRequest, now time.Time) (*model.Rental, error)
	Availability(ctx context.Context, start time.Time, holes int, now time.Time) ([]int, error)
	Cancel(ctx context.Context, id string, now time.Time) (*model.Rental, error)
	GetByID(ctx context.Context, id string) (*model.Rental, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Rental, int64, error)
	SearchByCart(ctx context.Context, cartID int, startTime, endTime *time.Time, limit int, offset int64) ([]*model.Rental, int64, error)
}

type rentalService struct {
	repo      repository.RentalRepository
	lockRepo  repository.RentalLockRepository
	cartRepo  cartsrepository.CartRepository
	validator *validator.RentalValidator
	notifier  RentalNotifier
	policy    slot.Policy
	cfg       *config.Config
}

func NewRentalService(
	repo repository.RentalRepository,
	lockRepo repository.RentalLockRepository,
	cartRepo cartsrepository.CartRepository,
	validator *validator.RentalValidator,
	notifier RentalNotifier,
	cfg *config.Config,
) RentalService {
	return &rentalService{
		repo:      repo,
		lockRepo:  lockRepo,
		cartRepo:  cartRepo,
		validator: validator,
		notifier:  notifier,
		policy:    cfg.SlotPolicy(),
		cfg:       cfg,
	}
}

// Create books a cart. Conflict detection runs twice: once optimistically
// before the lock is taken, and again inside the transaction against the
// committed state, so two racing requests for overlapping intervals can never
// both land.
func (s *rentalService) Create(ctx context.Context, req *model.RentalRequest, now time.Time) (*model.Rental, error) {
	s.sanitize(req)
	if err := s.validate(req, now); err != nil {
		return nil, err
	}

	cart, err := s.cartRepo.FindByID(ctx, req.CartID)
	if err != nil {
		if errors.Is(err, cartserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Cart", strconv.Itoa(req.CartID))
		}
		return nil, s.classifyStoreError("Failed to check cart existence", err)
	}
	if cart.Status == model.CartStatusOutOfOrder {
		return nil, apperrors.Conflict(fmt.Sprintf("Cart %q is out of order", cart.Name))
	}

	rental := s.buildRental(req)

	lock, err := s.acquireCartLock(ctx, req.CartID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.lockRepo.Delete(ctx, lock.ID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release rental lock", "lock_id", lock.ID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.verifyNoConflict(sessCtx, rental); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, rental); err != nil {
			return apperrors.Internal("Failed to create rental", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create rental",
			"cart_id", rental.CartID,
			"start_time", rental.StartTime,
			"error", err,
		)
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, s.classifyStoreError("Failed to create rental", err)
	}

	// The stored cart status is a hint for operators; the projection does
	// not depend on it, so this update is best effort.
	block := slot.Interval{Start: rental.StartTime, End: rental.BlockEnd}
	if block.Contains(now) {
		if err := s.cartRepo.UpdateStatus(ctx, rental.CartID, model.CartStatusRented, rental.ID); err != nil {
			s.cfg.Log.Warn("Failed to update cart status after commit",
				"cart_id", rental.CartID,
				"rental_id", rental.ID,
				"error", err,
			)
		}
	}

	if err := s.notifier.RentalConfirmed(ctx, rental); err != nil {
		s.cfg.Log.Warn("Failed to publish rental confirmed event",
			"rental_id", rental.ID,
			"error", err,
		)
	}

	s.cfg.Log.Info("Rental created successfully",
		"id", rental.ID,
		"cart_id", rental.CartID,
		"holes", rental.Holes,
		"start_time", rental.StartTime,
		"block_end", rental.BlockEnd,
		"price", rental.Price,
	)
	return rental, nil
}

// Availability lists cart IDs free for the full occupancy block starting at
// start. A store failure is reported as retryable rather than an empty list,
// so callers can tell "nothing free" apart from "could not check".
func (s *rentalService) Availability(ctx context.Context, start time.Time, holes int, now time.Time) ([]int, error) {
	if !s.policy.Knows(holes) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("No duration policy configured for %d holes", holes))
	}
	if start.Before(now) {
		return nil, apperrors.InvalidInput("start_time cannot be in the past")
	}

	window := s.policy.Block(start, holes)

	carts, err := s.cartRepo.FindAll(ctx)
	if err != nil {
		return nil, s.classifyStoreError("Failed to check availability", err)
	}

	rentals, err := s.repo.FindConfirmedInWindow(ctx, window)
	if err != nil {
		return nil, s.classifyStoreError("Failed to check availability", err)
	}

	available := slot.AvailableCartIDs(s.policy, start, holes, carts, slot.GroupByCart(rentals))

	s.cfg.Log.Debug("Availability computed",
		"start_time", start,
		"holes", holes,
		"available", len(available),
		"total_carts", len(carts),
	)
	return available, nil
}

func (s *rentalService) Cancel(ctx context.Context, id string, now time.Time) (*model.Rental, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Rental ID cannot be empty")
	}

	rental, err := s.repo.Cancel(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, rentalserrors.ErrNotFound):
			return nil, apperrors.NotFoundWithID("Rental", id)
		case errors.Is(err, rentalserrors.ErrInvalidID):
			return nil, apperrors.InvalidInput("Invalid rental ID format")
		case errors.Is(err, rentalserrors.ErrAlreadyCancelled):
			return nil, apperrors.Conflict("Rental is already cancelled")
		}
		return nil, s.classifyStoreError("Failed to cancel rental", err)
	}

	// If the cart was marked rented for this rental, free it up.
	block := slot.Interval{Start: rental.StartTime, End: rental.BlockEnd}
	if block.Contains(now) {
		if cart, cartErr := s.cartRepo.FindByID(ctx, rental.CartID); cartErr == nil &&
			cart.CurrentRentalID == rental.ID && cart.Status == model.CartStatusRented {
			if err := s.cartRepo.UpdateStatus(ctx, rental.CartID, model.CartStatusAvailable, ""); err != nil {
				s.cfg.Log.Warn("Failed to reset cart status after cancellation",
					"cart_id", rental.CartID,
					"rental_id", rental.ID,
					"error", err,
				)
			}
		}
	}

	if err := s.notifier.RentalCancelled(ctx, rental); err != nil {
		s.cfg.Log.Warn("Failed to publish rental cancelled event",
			"rental_id", rental.ID,
			"error", err,
		)
	}

	s.cfg.Log.Info("Rental cancelled successfully", "id", id, "cart_id", rental.CartID)
	return rental, nil
}

func (s *rentalService) GetByID(ctx context.Context, id string) (*model.Rental, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Rental ID cannot be empty")
	}

	rental, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, rentalserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Rental", id)
		}
		if errors.Is(err, rentalserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid rental ID format")
		}
		return nil, s.classifyStoreError("Failed to retrieve rental", err)
	}

	return rental, nil
}

func (s *rentalService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Rental, int64, error) {
	var count int64
	var rentals []*model.Rental
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count rentals", "error", errCount)
			errCount = apperrors.Internal("Failed to count rentals", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		rentals, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list rentals", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve rentals", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return rentals, count, nil
}

func (s *rentalService) SearchByCart(ctx context.Context, cartID int, startTime, endTime *time.Time, limit int, offset int64) ([]*model.Rental, int64, error) {
	if cartID < 1 {
		return nil, 0, apperrors.InvalidInput("cart_id is required")
	}

	var count int64
	var rentals []*model.Rental
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountByCart(ctx, cartID, startTime, endTime)
		if err != nil {
			s.cfg.Log.Error("Failed to count rentals by cart", "cart_id", cartID, "error", err)
			errCount = apperrors.Internal("Failed to count rentals", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		rentals, err = s.repo.FindByCart(ctx, cartID, startTime, endTime, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to search rentals",
				"cart_id", cartID,
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to search rentals", err)
		}
	}()

	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	s.cfg.Log.Debug("Rental search completed",
		"cart_id", cartID,
		"count", len(rentals),
		"total_count", count,
	)
	return rentals, count, nil
}

// --- Helpers ---

func (s *rentalService) sanitize(req *model.RentalRequest) {
	req.RenterName = sanitizer.NormalizeName(req.RenterName)
	req.Phone = sanitizer.NormalizePhone(req.Phone)
	req.Email = sanitizer.NormalizeEmail(req.Email)
	req.MembershipNumber = sanitizer.TrimAndNormalize(req.MembershipNumber)
	req.ContactInfo = sanitizer.TrimAndNormalize(req.ContactInfo)
	req.Notes = sanitizer.NormalizeNotes(req.Notes)
}

func (s *rentalService) validate(req *model.RentalRequest, now time.Time) error {
	if err := s.validator.Validate(req, now); err != nil {
		s.cfg.Log.Warn("Rental validation failed", "error", err)
		return apperrors.Validation("Rental validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *rentalService) buildRental(req *model.RentalRequest) *model.Rental {
	block := s.policy.Block(req.StartTime, req.Holes)
	play := s.policy.PlayInterval(req.StartTime, req.Holes)

	return &model.Rental{
		CartID:             req.CartID,
		RenterName:         req.RenterName,
		Phone:              req.Phone,
		Email:              req.Email,
		IsMember:           req.IsMember,
		MembershipNumber:   req.MembershipNumber,
		HasDoctorsNote:     req.HasDoctorsNote,
		Holes:              req.Holes,
		StartTime:          req.StartTime,
		PlayEnd:            play.End,
		BlockEnd:           block.End,
		Price:              s.cfg.Price(req.Holes, req.IsMember, req.HasDoctorsNote),
		Status:             model.RentalStatusConfirmed,
		NotificationMethod: req.NotificationMethod,
		ContactInfo:        req.ContactInfo,
		Notes:              req.Notes,
		Metadata:           req.Metadata,
	}
}

// verifyNoConflict re-reads the committed confirmed rentals for the cart and
// runs the overlap check against them. Runs inside the transaction so the
// read and the insert see the same snapshot.
func (s *rentalService) verifyNoConflict(ctx context.Context, rental *model.Rental) error {
	candidate := slot.Interval{Start: rental.StartTime, End: rental.BlockEnd}
	existing, err := s.repo.FindConfirmedOverlapping(ctx, rental.CartID, candidate)
	if err != nil {
		return apperrors.Internal("Failed to check existing rentals", err)
	}

	if slot.Conflicts(s.policy, rental.StartTime, rental.Holes, existing) {
		return apperrors.Conflict(fmt.Sprintf(
			"Cart %d is already booked for an overlapping interval (requested %s - %s)",
			rental.CartID,
			rental.StartTime.Format(time.RFC3339),
			rental.BlockEnd.Format(time.RFC3339),
		))
	}
	return nil
}

// acquireCartLock serializes commit attempts per cart. Contention is
// retryable, not a booking conflict: the caller may succeed on retry once the
// holder finishes.
func (s *rentalService) acquireCartLock(ctx context.Context, cartID int) (*model.RentalLock, error) {
	lock, err := s.lockRepo.Create(ctx, cartID)
	if err != nil {
		if errors.Is(err, rentalserrors.ErrLockHeld) {
			return nil, apperrors.Transient("Another booking for this cart is in progress. Please try again.", err)
		}
		return nil, apperrors.Internal("Failed to acquire rental lock", err)
	}
	return lock, nil
}

// classifyStoreError keeps conflicts and transient store outages on separate
// status codes. Timeouts and network errors are retryable; anything else is
// internal.
func (s *rentalService) classifyStoreError(message string, err error) *apperrors.AppError {
	if apperrors.IsConflict(err) || apperrors.IsTransient(err) {
		return apperrors.AsAppError(err)
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) ||
		errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Transient(message, err)
	}
	return apperrors.Internal(message, err)
}
