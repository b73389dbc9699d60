package service

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"bookd/internal/bookings/repository"
	bookingerrors "bookd/internal/bookings/errors"
	"bookd/internal/bookings/validator"
	discounterrors "bookd/internal/discounts/errors"
	pricingservice "bookd/internal/pricing/service"
	"bookd/pkg/accesstoken"
	"bookd/pkg/config"
	mongotx "bookd/pkg/db/mongo"
	apperrors "bookd/pkg/errors"
	"bookd/pkg/logger"
	"bookd/pkg/model"
)

const (
	ownerID         = "65a000000000000000000010"
	staffID         = "65a000000000000000000020"
	assignedOnlyID  = "65a000000000000000000040"
	foreignOwnerID  = "65a000000000000000000099"
	customerSecret  = "token-secret"
	customerEmail   = "jane@example.com"
)

type memoryBookingRepository struct {
	mu     sync.Mutex
	nextID int
	byID   map[string]*model.Booking
}

func newMemoryBookingRepository() *memoryBookingRepository {
	return &memoryBookingRepository{byID: make(map[string]*model.Booking)}
}

func (m *memoryBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	booking.ID = "65d0000000000000000000" + pad(m.nextID)
	copied := *booking
	m.byID[booking.ID] = &copied
	return nil
}

func pad(n int) string {
	s := strconv.Itoa(n)
	if len(s) < 2 {
		return "0" + s
	}
	return s
}

func (m *memoryBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.byID[id]
	if !ok {
		return nil, bookingerrors.ErrNotFound
	}
	copied := *booking
	return &copied, nil
}

func (m *memoryBookingRepository) FindByReference(ctx context.Context, reference string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, booking := range m.byID {
		if booking.BookingReference == reference {
			copied := *booking
			return &copied, nil
		}
	}
	return nil, bookingerrors.ErrNotFound
}

func (m *memoryBookingRepository) FindByTenant(ctx context.Context, tenantID string, limit int, offset int64) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Booking
	for _, booking := range m.byID {
		if booking.OwnerID == tenantID {
			copied := *booking
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memoryBookingRepository) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	bookings, _ := m.FindByTenant(ctx, tenantID, 0, 0)
	return int64(len(bookings)), nil
}

func (m *memoryBookingRepository) FindByAssignedStaff(ctx context.Context, tenantID, staffID string, limit int, offset int64) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Booking
	for _, booking := range m.byID {
		if booking.OwnerID == tenantID && booking.AssignedStaffID == staffID {
			copied := *booking
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memoryBookingRepository) CountByAssignedStaff(ctx context.Context, tenantID, staffID string) (int64, error) {
	bookings, _ := m.FindByAssignedStaff(ctx, tenantID, staffID, 0, 0)
	return int64(len(bookings)), nil
}

func (m *memoryBookingRepository) UpdateStatus(ctx context.Context, id, status, cancelReason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.byID[id]
	if !ok {
		return bookingerrors.ErrNotFound
	}
	booking.Status = status
	if cancelReason != "" {
		booking.CancelReason = cancelReason
	}
	return nil
}

func (m *memoryBookingRepository) AssignStaff(ctx context.Context, id, staffID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.byID[id]
	if !ok {
		return bookingerrors.ErrNotFound
	}
	booking.AssignedStaffID = staffID
	return nil
}

func (m *memoryBookingRepository) Reschedule(ctx context.Context, id string, startTime time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.byID[id]
	if !ok {
		return bookingerrors.ErrNotFound
	}
	booking.StartTime = startTime.UTC()
	return nil
}

func (m *memoryBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.SessionContext(nil))
}

var _ repository.BookingRepository = (*memoryBookingRepository)(nil)

type stubPricing struct {
	quote *pricingservice.Quote
	err   error
}

func (s *stubPricing) Quote(ctx context.Context, tenantID string, selections []pricingservice.Selection, discountCode string) (*pricingservice.Quote, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.quote, nil
}

type stubDiscounts struct {
	recordUsageErr error
	recorded       []string
}

func (s *stubDiscounts) Create(ctx context.Context, principalID string, discount *model.Discount) error {
	return nil
}

func (s *stubDiscounts) List(ctx context.Context, principalID, tenantID string, limit int, offset int64) ([]*model.Discount, int64, error) {
	return nil, 0, nil
}

func (s *stubDiscounts) SetStatus(ctx context.Context, principalID, id, status string) error {
	return nil
}

func (s *stubDiscounts) Validate(ctx context.Context, tenantID, code string) (*model.Discount, error) {
	return nil, discounterrors.ErrNotFound
}

func (s *stubDiscounts) ValidatePublic(ctx context.Context, tenantID, code string) (*model.PublicDiscount, error) {
	return nil, discounterrors.ErrNotFound
}

func (s *stubDiscounts) RecordUsage(ctx context.Context, discountID string) error {
	if s.recordUsageErr != nil {
		return s.recordUsageErr
	}
	s.recorded = append(s.recorded, discountID)
	return nil
}

type stubBilling struct {
	gateErr error
}

func (s *stubBilling) CreateForTenant(ctx context.Context, tenantID string) (*model.Subscription, error) {
	return nil, nil
}

func (s *stubBilling) GetByTenant(ctx context.Context, principalID, tenantID string) (*model.Subscription, error) {
	return nil, nil
}

func (s *stubBilling) Gate(ctx context.Context, tenantID string) error {
	return s.gateErr
}

func (s *stubBilling) ApplyEvent(ctx context.Context, event *model.BillingEvent) error {
	return nil
}

type fixtureResolver struct {
	accounts map[string]*model.Account
}

func newFixtureResolver() *fixtureResolver {
	return &fixtureResolver{accounts: map[string]*model.Account{
		ownerID:        {ID: ownerID, Role: model.RoleOwner},
		staffID:        {ID: staffID, Role: model.RoleStaff, OwnerID: ownerID},
		assignedOnlyID: {ID: assignedOnlyID, Role: model.RoleStaffAssignedOnly, OwnerID: ownerID},
		foreignOwnerID: {ID: foreignOwnerID, Role: model.RoleOwner},
	}}
}

func (f *fixtureResolver) IsWorker(ctx context.Context, principalID string) (bool, error) {
	account, ok := f.accounts[principalID]
	if !ok {
		return false, apperrors.Forbidden("access denied")
	}
	return account.IsWorker(), nil
}

func (f *fixtureResolver) ResolveOwner(ctx context.Context, principalID string) (string, error) {
	account, ok := f.accounts[principalID]
	if !ok {
		return "", apperrors.Forbidden("access denied")
	}
	if account.IsWorker() {
		return account.OwnerID, nil
	}
	return account.ID, nil
}

func (f *fixtureResolver) Authorize(ctx context.Context, principalID, tenantID string) (*model.Account, error) {
	account, ok := f.accounts[principalID]
	if !ok {
		return nil, apperrors.Forbidden("access denied")
	}
	resolved := account.ID
	if account.IsWorker() {
		resolved = account.OwnerID
	}
	if resolved != tenantID {
		return nil, apperrors.Forbidden("access denied")
	}
	return account, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingPublisher) Publish(ctx context.Context, eventType, key string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

type bookingFixture struct {
	svc       *bookingService
	repo      *memoryBookingRepository
	pricing   *stubPricing
	discounts *stubDiscounts
	billing   *stubBilling
	publisher *recordingPublisher
	issuer    *accesstoken.Issuer
}

func plainQuote() *pricingservice.Quote {
	return &pricingservice.Quote{
		LineItems: []model.BookingLineItem{{
			ServiceID:   "65c000000000000000000001",
			ServiceName: "Deep Clean",
			BasePrice:   "100.00",
			LineTotal:   "100.00",
		}},
		Subtotal: "100.00",
		Total:    "100.00",
	}
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	cfg := &config.Config{
		Log:                logger.New(logger.Config{Level: "error", Service: "test"}),
		CancellationWindow: 24 * time.Hour,
	}
	f := &bookingFixture{
		repo:      newMemoryBookingRepository(),
		pricing:   &stubPricing{quote: plainQuote()},
		discounts: &stubDiscounts{},
		billing:   &stubBilling{},
		publisher: &recordingPublisher{},
		issuer:    accesstoken.NewIssuer(customerSecret),
	}
	svc := NewBookingService(
		f.repo,
		f.pricing,
		f.discounts,
		f.billing,
		newFixtureResolver(),
		validator.NewBookingValidator(cfg.Log),
		f.issuer,
		f.publisher,
		cfg,
	)
	f.svc = svc.(*bookingService)
	return f
}

func createRequest() *CreateBookingRequest {
	return &CreateBookingRequest{
		TenantID:      ownerID,
		CustomerName:  "Jane Doe",
		CustomerEmail: customerEmail,
		Selections:    []pricingservice.Selection{{ServiceID: "65c000000000000000000001"}},
		StartTime:     time.Now().Add(72 * time.Hour),
	}
}

func mustCreate(t *testing.T, f *bookingFixture) *CreatedBooking {
	t.Helper()
	created, err := f.svc.Create(context.Background(), createRequest())
	if err != nil {
		t.Fatalf("unexpected error creating booking: %v", err)
	}
	return created
}

func TestCreate_PendingWithReferenceAndToken(t *testing.T) {
	f := newBookingFixture(t)
	created := mustCreate(t, f)

	booking := created.Booking
	if booking.Status != model.BookingStatusPending {
		t.Errorf("new booking should be pending, got %s", booking.Status)
	}
	if booking.BookingReference == "" || booking.BookingReference == booking.ID {
		t.Errorf("reference should be a distinct shareable id, got %q", booking.BookingReference)
	}
	if booking.Total != "100.00" {
		t.Errorf("captured total should come from the quote, got %s", booking.Total)
	}
	if !f.issuer.Verify(created.AccessToken, booking.ID, customerEmail) {
		t.Error("returned access token should verify against the booking")
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0] != "booking.created" {
		t.Errorf("expected booking.created event, got %v", f.publisher.events)
	}
}

func TestCreate_GateBlocksNonOperationalTenant(t *testing.T) {
	f := newBookingFixture(t)
	f.billing.gateErr = apperrors.SubscriptionRequired(ownerID)

	_, err := f.svc.Create(context.Background(), createRequest())
	if !apperrors.IsCode(err, apperrors.CodeSubscriptionRequired) {
		t.Fatalf("expected SubscriptionRequired, got %v", err)
	}
	if len(f.repo.byID) != 0 {
		t.Error("gated tenant must not create bookings")
	}
}

func TestCreate_DiscountUsageRecordedTransactionally(t *testing.T) {
	f := newBookingFixture(t)
	quote := plainQuote()
	quote.DiscountCode = "SAVE20"
	quote.DiscountID = "65b000000000000000000001"
	quote.DiscountAmount = "20.00"
	quote.Total = "80.00"
	f.pricing.quote = quote

	created := mustCreate(t, f)
	if created.Booking.Total != "80.00" || created.Booking.DiscountID != quote.DiscountID {
		t.Errorf("discount not captured on booking: %+v", created.Booking)
	}
	if len(f.discounts.recorded) != 1 || f.discounts.recorded[0] != quote.DiscountID {
		t.Errorf("expected one usage recorded for the discount, got %v", f.discounts.recorded)
	}
}

func TestCreate_UsageConflictRejectsBooking(t *testing.T) {
	f := newBookingFixture(t)
	quote := plainQuote()
	quote.DiscountCode = "LAST1"
	quote.DiscountID = "65b000000000000000000001"
	quote.DiscountAmount = "20.00"
	quote.Total = "80.00"
	f.pricing.quote = quote
	f.discounts.recordUsageErr = apperrors.Conflict("discount no longer available")

	_, err := f.svc.Create(context.Background(), createRequest())
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected Conflict to reject the booking, got %v", err)
	}
	if len(f.repo.byID) != 0 {
		t.Error("booking must not commit without its discount; no silent re-pricing")
	}
	if len(f.publisher.events) != 0 {
		t.Error("rejected booking must not emit events")
	}
}

func TestGet_AuthorizationScoping(t *testing.T) {
	f := newBookingFixture(t)
	created := mustCreate(t, f)
	id := created.Booking.ID

	if _, err := f.svc.Get(context.Background(), ownerID, id); err != nil {
		t.Errorf("owner should read own booking, got %v", err)
	}
	if _, err := f.svc.Get(context.Background(), staffID, id); err != nil {
		t.Errorf("staff should read tenant bookings, got %v", err)
	}
	if _, err := f.svc.Get(context.Background(), foreignOwnerID, id); !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Errorf("foreign tenant should get Forbidden, got %v", err)
	}
	if _, err := f.svc.Get(context.Background(), assignedOnlyID, id); !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Errorf("assigned-only staff without assignment should get Forbidden, got %v", err)
	}

	if err := f.svc.Assign(context.Background(), ownerID, id, assignedOnlyID); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if _, err := f.svc.Get(context.Background(), assignedOnlyID, id); err != nil {
		t.Errorf("assigned-only staff should read their assignment, got %v", err)
	}
}

func TestGet_DoesNotRevealWhichIDsExist(t *testing.T) {
	f := newBookingFixture(t)
	created := mustCreate(t, f)
	missingID := "65d0000000000000000000ff"

	_, existingErr := f.svc.Get(context.Background(), foreignOwnerID, created.Booking.ID)
	_, missingErr := f.svc.Get(context.Background(), foreignOwnerID, missingID)

	existing := apperrors.AsAppError(existingErr)
	missing := apperrors.AsAppError(missingErr)
	if existing.Code != apperrors.CodeForbidden || missing.Code != apperrors.CodeForbidden {
		t.Fatalf("expected Forbidden for both, got %v and %v", existingErr, missingErr)
	}
	if existing.Message != missing.Message {
		t.Errorf("a foreign principal can tell existing from missing ids: %q vs %q",
			existing.Message, missing.Message)
	}
}

func TestList_AssignedOnlySeesOnlyAssignments(t *testing.T) {
	f := newBookingFixture(t)
	first := mustCreate(t, f)
	mustCreate(t, f)

	if err := f.svc.Assign(context.Background(), ownerID, first.Booking.ID, assignedOnlyID); err != nil {
		t.Fatal(err)
	}

	all, total, err := f.svc.List(context.Background(), ownerID, ownerID, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(all) != 2 {
		t.Errorf("owner should see both bookings, got %d", total)
	}

	mine, total, err := f.svc.List(context.Background(), assignedOnlyID, ownerID, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(mine) != 1 || mine[0].ID != first.Booking.ID {
		t.Errorf("assigned-only staff should see exactly their assignment, got %d bookings", len(mine))
	}
}

func TestUpdateStatus_StateMachine(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{"pending to confirmed", model.BookingStatusPending, model.BookingStatusConfirmed, true},
		{"pending to cancelled", model.BookingStatusPending, model.BookingStatusCancelled, true},
		{"pending to completed skips confirmation", model.BookingStatusPending, model.BookingStatusCompleted, false},
		{"confirmed to completed", model.BookingStatusConfirmed, model.BookingStatusCompleted, true},
		{"confirmed to cancelled", model.BookingStatusConfirmed, model.BookingStatusCancelled, true},
		{"confirmed back to pending", model.BookingStatusConfirmed, model.BookingStatusPending, false},
		{"completed is terminal", model.BookingStatusCompleted, model.BookingStatusCancelled, false},
		{"cancelled is terminal", model.BookingStatusCancelled, model.BookingStatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingFixture(t)
			created := mustCreate(t, f)
			f.repo.mu.Lock()
			f.repo.byID[created.Booking.ID].Status = tt.from
			f.repo.mu.Unlock()

			err := f.svc.UpdateStatus(context.Background(), ownerID, created.Booking.ID, tt.to, "")
			if tt.allowed && err != nil {
				t.Errorf("transition %s -> %s should be allowed, got %v", tt.from, tt.to, err)
			}
			if !tt.allowed && !apperrors.IsCode(err, apperrors.CodeStateTransitionInvalid) {
				t.Errorf("transition %s -> %s should be rejected, got %v", tt.from, tt.to, err)
			}
		})
	}
}

func TestCustomerFlow_TokenScopedToExactBooking(t *testing.T) {
	f := newBookingFixture(t)
	first := mustCreate(t, f)
	second := mustCreate(t, f)

	ref := first.Booking.BookingReference
	if _, err := f.svc.GetByReference(context.Background(), ref, first.AccessToken, customerEmail); err != nil {
		t.Errorf("valid token should read the booking, got %v", err)
	}
	if _, err := f.svc.GetByReference(context.Background(), ref, second.AccessToken, customerEmail); !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Errorf("token for another booking must be rejected, got %v", err)
	}
	if _, err := f.svc.GetByReference(context.Background(), ref, first.AccessToken, "other@example.com"); !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Errorf("wrong email must be rejected, got %v", err)
	}
	if _, err := f.svc.GetByReference(context.Background(), "unknown-ref", first.AccessToken, customerEmail); !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Errorf("unknown reference must look the same as a bad token, got %v", err)
	}
}

func TestReschedule_MovesPendingBooking(t *testing.T) {
	f := newBookingFixture(t)
	created := mustCreate(t, f)

	newStart := time.Now().Add(96 * time.Hour).UTC().Truncate(time.Second)
	err := f.svc.Reschedule(context.Background(), created.Booking.BookingReference, created.AccessToken, customerEmail, newStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, _ := f.repo.FindByID(context.Background(), created.Booking.ID)
	if !stored.StartTime.Equal(newStart) {
		t.Errorf("start time not updated: %v", stored.StartTime)
	}
	if f.publisher.events[len(f.publisher.events)-1] != "booking.rescheduled" {
		t.Errorf("expected rescheduled event, got %v", f.publisher.events)
	}
}

func TestReschedule_TerminalBookingRejected(t *testing.T) {
	f := newBookingFixture(t)
	created := mustCreate(t, f)
	f.repo.mu.Lock()
	f.repo.byID[created.Booking.ID].Status = model.BookingStatusCompleted
	f.repo.mu.Unlock()

	err := f.svc.Reschedule(context.Background(), created.Booking.BookingReference, created.AccessToken, customerEmail, time.Now().Add(96*time.Hour))
	if !apperrors.IsCode(err, apperrors.CodeStateTransitionInvalid) {
		t.Errorf("completed booking must not reschedule, got %v", err)
	}
}

func TestCancelByCustomer_WindowEnforced(t *testing.T) {
	f := newBookingFixture(t)
	created := mustCreate(t, f)

	// Inside the 24h window.
	f.repo.mu.Lock()
	f.repo.byID[created.Booking.ID].StartTime = time.Now().Add(2 * time.Hour)
	f.repo.mu.Unlock()
	err := f.svc.CancelByCustomer(context.Background(), created.Booking.BookingReference, created.AccessToken, customerEmail, "")
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("cancel inside the window should conflict, got %v", err)
	}

	// Outside the window.
	f.repo.mu.Lock()
	f.repo.byID[created.Booking.ID].StartTime = time.Now().Add(72 * time.Hour)
	f.repo.mu.Unlock()
	if err := f.svc.CancelByCustomer(context.Background(), created.Booking.BookingReference, created.AccessToken, customerEmail, "change of plans"); err != nil {
		t.Fatalf("cancel outside the window should succeed, got %v", err)
	}

	stored, _ := f.repo.FindByID(context.Background(), created.Booking.ID)
	if stored.Status != model.BookingStatusCancelled {
		t.Errorf("expected cancelled, got %s", stored.Status)
	}
	if stored.CancelReason != "change of plans" {
		t.Errorf("cancel reason not stored: %q", stored.CancelReason)
	}
	if f.publisher.events[len(f.publisher.events)-1] != "booking.cancelled" {
		t.Errorf("expected cancelled event, got %v", f.publisher.events)
	}
}

func TestAssign_ValidatesAssignee(t *testing.T) {
	f := newBookingFixture(t)
	created := mustCreate(t, f)
	id := created.Booking.ID

	if err := f.svc.Assign(context.Background(), staffID, id, assignedOnlyID); !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Errorf("workers must not assign, got %v", err)
	}
	if err := f.svc.Assign(context.Background(), ownerID, id, foreignOwnerID); !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("assignee from another tenant must be rejected, got %v", err)
	}
	if err := f.svc.Assign(context.Background(), ownerID, id, ownerID); !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("owner is not an assignable staff member, got %v", err)
	}
	if err := f.svc.Assign(context.Background(), ownerID, id, staffID); err != nil {
		t.Errorf("assigning tenant staff should succeed, got %v", err)
	}
}
