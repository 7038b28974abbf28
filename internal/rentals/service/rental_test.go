package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	cartserrors "fairway/internal/carts/errors"
	rentalserrors "fairway/internal/rentals/errors"
	"fairway/internal/rentals/repository"
	"fairway/internal/rentals/validator"
	"fairway/pkg/config"
	mongotx "fairway/pkg/db/mongo"
	apperrors "fairway/pkg/errors"
	"fairway/pkg/logger"
	"fairway/pkg/model"
	"fairway/pkg/slot"
)

// --- Mocks ---

type mockRentalRepository struct {
	mu       sync.Mutex
	rentals  []*model.Rental
	nextID   int
	findErr  error
	cancelFn func(ctx context.Context, id string) (*model.Rental, error)
}

func (m *mockRentalRepository) Create(ctx context.Context, rental *model.Rental) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	rental.ID = primitiveHex(m.nextID)
	stored := *rental
	m.rentals = append(m.rentals, &stored)
	return nil
}

// primitiveHex fakes a 24-char ObjectID hex for assertions.
func primitiveHex(n int) string {
	const digits = "0123456789abcdef"
	id := make([]byte, 24)
	for i := range id {
		id[i] = digits[(n+i)%16]
	}
	return string(id)
}

func (m *mockRentalRepository) FindByID(ctx context.Context, id string) (*model.Rental, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rentals {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, rentalserrors.ErrNotFound
}

func (m *mockRentalRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Rental, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.Rental(nil), m.rentals...), nil
}

func (m *mockRentalRepository) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rentals)), nil
}

func (m *mockRentalRepository) FindConfirmedOverlapping(ctx context.Context, cartID int, candidate slot.Interval) ([]*model.Rental, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Rental
	for _, r := range m.rentals {
		if r.CartID == cartID && r.Status == model.RentalStatusConfirmed &&
			r.StartTime.Before(candidate.End) && r.BlockEnd.After(candidate.Start) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRentalRepository) FindConfirmedInWindow(ctx context.Context, window slot.Interval) ([]*model.Rental, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Rental
	for _, r := range m.rentals {
		if r.Status == model.RentalStatusConfirmed &&
			r.StartTime.Before(window.End) && r.BlockEnd.After(window.Start) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRentalRepository) FindActiveAt(ctx context.Context, at time.Time) ([]*model.Rental, error) {
	return nil, nil
}

func (m *mockRentalRepository) FindActiveForCart(ctx context.Context, cartID int, at time.Time) ([]*model.Rental, error) {
	return nil, nil
}

func (m *mockRentalRepository) FindByCart(ctx context.Context, cartID int, startTime, endTime *time.Time, limit int, offset int64) ([]*model.Rental, error) {
	return nil, nil
}

func (m *mockRentalRepository) CountByCart(ctx context.Context, cartID int, startTime, endTime *time.Time) (int64, error) {
	return 0, nil
}

func (m *mockRentalRepository) Cancel(ctx context.Context, id string) (*model.Rental, error) {
	if m.cancelFn != nil {
		return m.cancelFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rentals {
		if r.ID != id {
			continue
		}
		if r.Status == model.RentalStatusCancelled {
			return nil, rentalserrors.ErrAlreadyCancelled
		}
		r.Status = model.RentalStatusCancelled
		return r, nil
	}
	return nil, rentalserrors.ErrNotFound
}

func (m *mockRentalRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	sessCtx := mongo.NewSessionContext(ctx, nil)
	return fn(sessCtx)
}

// mockLockRepository mimics the unique-insert semantics of the real lock
// collection: only one holder per cart at a time.
type mockLockRepository struct {
	mu    sync.Mutex
	held  map[string]bool
	delay time.Duration
}

func newMockLockRepository() *mockLockRepository {
	return &mockLockRepository{held: map[string]bool{}}
}

func (m *mockLockRepository) Create(ctx context.Context, cartID int) (*model.RentalLock, error) {
	id := repository.LockID(cartID)
	m.mu.Lock()
	if m.held[id] {
		m.mu.Unlock()
		return nil, rentalserrors.ErrLockHeld
	}
	m.held[id] = true
	m.mu.Unlock()
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	return &model.RentalLock{ID: id, ExpiresAt: time.Now().Add(10 * time.Second)}, nil
}

func (m *mockLockRepository) Delete(ctx context.Context, lockID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, lockID)
	return nil
}

type mockCartRepository struct {
	mu            sync.Mutex
	carts         map[int]*model.Cart
	statusUpdates []string
}

func (m *mockCartRepository) FindAll(ctx context.Context) ([]*model.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Cart
	for _, c := range m.carts {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCartRepository) FindByID(ctx context.Context, id int) (*model.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.carts[id]; ok {
		return c, nil
	}
	return nil, cartserrors.ErrNotFound
}

func (m *mockCartRepository) UpdateStatus(ctx context.Context, id int, status string, currentRentalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.carts[id]; ok {
		c.Status = status
		c.CurrentRentalID = currentRentalID
		m.statusUpdates = append(m.statusUpdates, status)
		return nil
	}
	return cartserrors.ErrNotFound
}

type mockNotifier struct {
	mu        sync.Mutex
	confirmed []*model.Rental
	cancelled []*model.Rental
	err       error
}

func (m *mockNotifier) RentalConfirmed(ctx context.Context, rental *model.Rental) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmed = append(m.confirmed, rental)
	return m.err
}

func (m *mockNotifier) RentalCancelled(ctx context.Context, rental *model.Rental) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled = append(m.cancelled, rental)
	return m.err
}

// --- Fixtures ---

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		PlayMinutes9:        135,
		ChargeMinutes9:      30,
		PlayMinutes18:       270,
		ChargeMinutes18:     60,
		MemberPrice9:        200,
		MemberPrice18:       350,
		NonMemberPrice9:     250,
		NonMemberPrice18:    425,
		DoctorsNoteDiscount: 50,
		MaxAdvanceDays:      7,
		LockTTL:             10 * time.Second,
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
	}
}

type fixture struct {
	svc      RentalService
	repo     *mockRentalRepository
	lockRepo *mockLockRepository
	cartRepo *mockCartRepository
	notifier *mockNotifier
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testConfig(t)
	repo := &mockRentalRepository{}
	lockRepo := newMockLockRepository()
	cartRepo := &mockCartRepository{carts: map[int]*model.Cart{
		1: {ID: 1, Name: "Blå 4", Status: model.CartStatusAvailable},
		2: {ID: 2, Name: "Blå 5", Status: model.CartStatusAvailable},
		3: {ID: 3, Name: "Grønn", Status: model.CartStatusOutOfOrder},
	}}
	notifier := &mockNotifier{}
	v := validator.NewRentalValidator(cfg.SlotPolicy(), cfg.MaxAdvanceDays, cfg.Log)

	return &fixture{
		svc:      NewRentalService(repo, lockRepo, cartRepo, v, notifier, cfg),
		repo:     repo,
		lockRepo: lockRepo,
		cartRepo: cartRepo,
		notifier: notifier,
		now:      time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) request(cartID, holes int, start time.Time) *model.RentalRequest {
	return &model.RentalRequest{
		CartID:             cartID,
		RenterName:         "Kari Nordmann",
		Phone:              "+4791234567",
		Email:              "kari@example.com",
		Holes:              holes,
		StartTime:          start,
		NotificationMethod: model.NotifyByEmail,
	}
}

// --- Tests ---

func TestCreate(t *testing.T) {
	t.Run("books a free cart and derives the block", func(t *testing.T) {
		f := newFixture(t)
		start := f.now.Add(24 * time.Hour)

		rental, err := f.svc.Create(context.Background(), f.request(1, 18, start), f.now)
		require.NoError(t, err)
		assert.NotEmpty(t, rental.ID)
		assert.Equal(t, model.RentalStatusConfirmed, rental.Status)
		assert.Equal(t, start.Add(270*time.Minute), rental.PlayEnd)
		assert.Equal(t, start.Add(330*time.Minute), rental.BlockEnd)
		assert.Equal(t, 425, rental.Price)
		assert.Len(t, f.notifier.confirmed, 1)
	})

	t.Run("member with doctors note gets the discounted price", func(t *testing.T) {
		f := newFixture(t)
		req := f.request(1, 9, f.now.Add(24*time.Hour))
		req.IsMember = true
		req.HasDoctorsNote = true

		rental, err := f.svc.Create(context.Background(), req, f.now)
		require.NoError(t, err)
		assert.Equal(t, 150, rental.Price)
	})

	t.Run("overlapping booking on the same cart conflicts", func(t *testing.T) {
		f := newFixture(t)
		start := f.now.Add(24 * time.Hour)

		_, err := f.svc.Create(context.Background(), f.request(1, 18, start), f.now)
		require.NoError(t, err)

		// 18-hole block runs 330 minutes; a 9-hole attempt 5 hours in
		// still lands inside it.
		_, err = f.svc.Create(context.Background(), f.request(1, 9, start.Add(5*time.Hour)), f.now)
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("booking right at block end succeeds", func(t *testing.T) {
		f := newFixture(t)
		start := f.now.Add(24 * time.Hour)

		_, err := f.svc.Create(context.Background(), f.request(1, 18, start), f.now)
		require.NoError(t, err)

		_, err = f.svc.Create(context.Background(), f.request(1, 9, start.Add(330*time.Minute)), f.now)
		require.NoError(t, err)
	})

	t.Run("same interval on another cart succeeds", func(t *testing.T) {
		f := newFixture(t)
		start := f.now.Add(24 * time.Hour)

		_, err := f.svc.Create(context.Background(), f.request(1, 18, start), f.now)
		require.NoError(t, err)
		_, err = f.svc.Create(context.Background(), f.request(2, 18, start), f.now)
		require.NoError(t, err)
	})

	t.Run("cancelled rental does not block the slot", func(t *testing.T) {
		f := newFixture(t)
		start := f.now.Add(24 * time.Hour)

		first, err := f.svc.Create(context.Background(), f.request(1, 18, start), f.now)
		require.NoError(t, err)
		_, err = f.svc.Cancel(context.Background(), first.ID, f.now)
		require.NoError(t, err)

		_, err = f.svc.Create(context.Background(), f.request(1, 18, start), f.now)
		require.NoError(t, err)
	})

	t.Run("out of order cart rejects bookings", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(context.Background(), f.request(3, 9, f.now.Add(24*time.Hour)), f.now)
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("unknown cart returns not found", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(context.Background(), f.request(99, 9, f.now.Add(24*time.Hour)), f.now)
		require.Error(t, err)
		appErr := apperrors.AsAppError(err)
		assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
	})

	t.Run("lock contention is transient not conflict", func(t *testing.T) {
		f := newFixture(t)
		// Pre-seed the lock as held by another request.
		_, err := f.lockRepo.Create(context.Background(), 1)
		require.NoError(t, err)

		_, err = f.svc.Create(context.Background(), f.request(1, 9, f.now.Add(24*time.Hour)), f.now)
		require.Error(t, err)
		assert.True(t, apperrors.IsTransient(err))
		assert.False(t, apperrors.IsConflict(err))
	})

	t.Run("lock is released after commit", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(context.Background(), f.request(1, 9, f.now.Add(24*time.Hour)), f.now)
		require.NoError(t, err)
		assert.Empty(t, f.lockRepo.held)
	})

	t.Run("notifier failure does not fail the booking", func(t *testing.T) {
		f := newFixture(t)
		f.notifier.err = assert.AnError

		_, err := f.svc.Create(context.Background(), f.request(1, 9, f.now.Add(24*time.Hour)), f.now)
		require.NoError(t, err)
	})

	t.Run("validation failure surfaces field errors", func(t *testing.T) {
		f := newFixture(t)
		req := f.request(1, 9, f.now.Add(24*time.Hour))
		req.RenterName = ""

		_, err := f.svc.Create(context.Background(), req, f.now)
		require.Error(t, err)
		appErr := apperrors.AsAppError(err)
		assert.Equal(t, apperrors.CodeValidation, appErr.Code)
	})
}

// TestCreate_Concurrent hammers the same slot from many goroutines; exactly
// one booking may land, the rest split between conflict and retryable.
func TestCreate_Concurrent(t *testing.T) {
	f := newFixture(t)
	f.lockRepo.delay = 5 * time.Millisecond
	start := f.now.Add(24 * time.Hour)

	const attempts = 16
	var wg sync.WaitGroup
	results := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.svc.Create(context.Background(), f.request(1, 18, start), f.now)
		}(i)
	}
	wg.Wait()

	var succeeded, conflicted, transient int
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case apperrors.IsConflict(err):
			conflicted++
		case apperrors.IsTransient(err):
			transient++
		default:
			t.Fatalf("unexpected error class: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded, "exactly one booking must land")
	assert.Equal(t, attempts, succeeded+conflicted+transient)

	count, err := f.repo.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestAvailability(t *testing.T) {
	t.Run("excludes booked and out of order carts", func(t *testing.T) {
		f := newFixture(t)
		start := f.now.Add(24 * time.Hour)

		_, err := f.svc.Create(context.Background(), f.request(1, 18, start), f.now)
		require.NoError(t, err)

		available, err := f.svc.Availability(context.Background(), start, 9, f.now)
		require.NoError(t, err)
		// Cart 1 is booked, cart 3 is out of order.
		assert.Equal(t, []int{2}, available)
	})

	t.Run("store failure is retryable", func(t *testing.T) {
		f := newFixture(t)
		f.repo.findErr = context.DeadlineExceeded

		_, err := f.svc.Availability(context.Background(), f.now.Add(24*time.Hour), 9, f.now)
		require.Error(t, err)
		assert.True(t, apperrors.IsTransient(err))
	})

	t.Run("unknown holes rejected", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Availability(context.Background(), f.now.Add(24*time.Hour), 12, f.now)
		require.Error(t, err)
		appErr := apperrors.AsAppError(err)
		assert.Equal(t, apperrors.CodeInvalidInput, appErr.Code)
	})
}

func TestCancel(t *testing.T) {
	t.Run("cancel of a confirmed rental succeeds and notifies", func(t *testing.T) {
		f := newFixture(t)
		rental, err := f.svc.Create(context.Background(), f.request(1, 9, f.now.Add(24*time.Hour)), f.now)
		require.NoError(t, err)

		cancelled, err := f.svc.Cancel(context.Background(), rental.ID, f.now)
		require.NoError(t, err)
		assert.Equal(t, model.RentalStatusCancelled, cancelled.Status)
		assert.Len(t, f.notifier.cancelled, 1)
	})

	t.Run("cancel of a cancelled rental conflicts", func(t *testing.T) {
		f := newFixture(t)
		rental, err := f.svc.Create(context.Background(), f.request(1, 9, f.now.Add(24*time.Hour)), f.now)
		require.NoError(t, err)

		_, err = f.svc.Cancel(context.Background(), rental.ID, f.now)
		require.NoError(t, err)
		_, err = f.svc.Cancel(context.Background(), rental.ID, f.now)
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("cancel of unknown rental returns not found", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Cancel(context.Background(), "aaaaaaaaaaaaaaaaaaaaaaaa", f.now)
		require.Error(t, err)
		appErr := apperrors.AsAppError(err)
		assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
	})

	t.Run("cancelling an active rental frees the cart", func(t *testing.T) {
		f := newFixture(t)
		// Booking starts right now, so the commit marks the cart rented.
		rental, err := f.svc.Create(context.Background(), f.request(1, 9, f.now), f.now)
		require.NoError(t, err)

		cart, err := f.cartRepo.FindByID(context.Background(), 1)
		require.NoError(t, err)
		require.Equal(t, model.CartStatusRented, cart.Status)
		require.Equal(t, rental.ID, cart.CurrentRentalID)

		inBlock := f.now.Add(time.Hour)
		_, err = f.svc.Cancel(context.Background(), rental.ID, inBlock)
		require.NoError(t, err)

		cart, err = f.cartRepo.FindByID(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, model.CartStatusAvailable, cart.Status)
		assert.Empty(t, cart.CurrentRentalID)
	})
}
