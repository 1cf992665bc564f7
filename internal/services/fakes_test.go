package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"eventticketing/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const testTimeout = 2 * time.Second

func intRef(v int) *int { return &v }

func strRef(v string) *string { return &v }

// fakeEventRepo is an in-memory EventRepository for tests.
type fakeEventRepo struct {
	byID    map[string]*domain.Event
	nextID  int
	deleted []string
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{byID: make(map[string]*domain.Event), nextID: 1}
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	e.ID = fmt.Sprintf("ev-%d", f.nextID)
	f.nextID++
	f.byID[e.ID] = e
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if e, ok := f.byID[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) ListByOrganizerID(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, e := range f.byID {
		if e.OrganizerID == organizerID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeEventRepo) Update(ctx context.Context, e *domain.Event) (*domain.Event, error) {
	if _, ok := f.byID[e.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	f.byID[e.ID] = e
	return e, nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	f.deleted = append(f.deleted, id)
	return nil
}

// fakeTicketTypeRepo implements domain.TicketTypeRepository for tests. Sold
// counts move under its mutex like the row lock of the real table.
type fakeTicketTypeRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.TicketType
	nextID int
}

func newFakeTicketTypeRepo() *fakeTicketTypeRepo {
	return &fakeTicketTypeRepo{byID: make(map[string]*domain.TicketType), nextID: 1}
}

func (f *fakeTicketTypeRepo) Create(ctx context.Context, tt *domain.TicketType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tt.ID = fmt.Sprintf("tt-%d", f.nextID)
	f.nextID++
	f.byID[tt.ID] = tt
	return nil
}

func (f *fakeTicketTypeRepo) GetByID(ctx context.Context, id string) (*domain.TicketType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tt, ok := f.byID[id]; ok {
		cp := *tt
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeTicketTypeRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.TicketType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.TicketType, 0)
	for _, tt := range f.byID {
		if tt.EventID == eventID {
			out = append(out, tt)
		}
	}
	return out, nil
}

// subCap returns the sub-cap and sold count; unknown ids have no sub-cap.
func (f *fakeTicketTypeRepo) subCap(id string) (*int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tt, ok := f.byID[id]; ok {
		return tt.Capacity, tt.SoldCount
	}
	return nil, 0
}

func (f *fakeTicketTypeRepo) adjustSold(id string, delta int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tt, ok := f.byID[id]; ok {
		tt.SoldCount = max(tt.SoldCount+delta, 0)
	}
}

// fakeResourceRepo keeps the reserve/release arithmetic of the real ledger transaction.
type fakeResourceRepo struct {
	byID   map[string]*domain.Resource
	nextID int
}

func newFakeResourceRepo() *fakeResourceRepo {
	return &fakeResourceRepo{byID: make(map[string]*domain.Resource), nextID: 1}
}

func (f *fakeResourceRepo) add(r *domain.Resource) *domain.Resource {
	f.byID[r.ID] = r
	return r
}

func (f *fakeResourceRepo) Create(ctx context.Context, r *domain.Resource) error {
	r.ID = fmt.Sprintf("res-%d", f.nextID)
	f.nextID++
	f.byID[r.ID] = r
	return nil
}

func (f *fakeResourceRepo) GetByID(ctx context.Context, id string) (*domain.Resource, error) {
	if r, ok := f.byID[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeResourceRepo) List(ctx context.Context, onlyAvailable bool) ([]*domain.Resource, error) {
	out := make([]*domain.Resource, 0)
	for _, r := range f.byID {
		if !onlyAvailable || r.Status == domain.ResourceAvailable {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeResourceRepo) Update(ctx context.Context, id string, u *domain.ResourceUpdate) (*domain.Resource, error) {
	r, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if u.Name != nil {
		r.Name = *u.Name
	}
	if u.Description != nil {
		r.Description = u.Description
	}
	if u.Location != nil {
		r.Location = u.Location
	}
	cp := *r
	return &cp, nil
}

func (f *fakeResourceRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeResourceRepo) reserve(id string, quantity int, eventID string) (*domain.Resource, error) {
	r, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if r.Kind == domain.ResourceKindVenue {
		if r.Status != domain.ResourceAvailable {
			return nil, domain.ErrCapacityExceeded
		}
		r.AvailableCapacity = 0
		r.Status = domain.ResourceAllocated
		if eventID != "" {
			r.AllocatedTo = &eventID
		}
	} else {
		if quantity > r.AvailableCapacity {
			return nil, domain.ErrCapacityExceeded
		}
		r.AvailableCapacity -= quantity
		if r.AvailableCapacity == 0 {
			r.Status = domain.ResourceAllocated
		}
	}
	cp := *r
	return &cp, nil
}

func (f *fakeResourceRepo) release(id string, quantity int) (*domain.Resource, error) {
	r, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if r.Kind == domain.ResourceKindVenue {
		r.AvailableCapacity = r.TotalCapacity
		r.AllocatedTo = nil
	} else {
		r.AvailableCapacity = min(r.AvailableCapacity+quantity, r.TotalCapacity)
	}
	if r.AvailableCapacity > 0 || r.Kind == domain.ResourceKindVenue {
		r.Status = domain.ResourceAvailable
	}
	cp := *r
	return &cp, nil
}

// fakeAllocationRepo reserves through a fakeResourceRepo like the real transaction does.
type fakeAllocationRepo struct {
	resources   *fakeResourceRepo
	byID        map[string]*domain.Allocation
	order       []string
	nextID      int
	allocateErr error
}

func newFakeAllocationRepo(resources *fakeResourceRepo) *fakeAllocationRepo {
	return &fakeAllocationRepo{resources: resources, byID: make(map[string]*domain.Allocation), nextID: 1}
}

func (f *fakeAllocationRepo) Allocate(ctx context.Context, a *domain.Allocation) error {
	if f.allocateErr != nil {
		return f.allocateErr
	}
	if _, err := f.resources.reserve(a.ResourceID, a.Quantity, a.EventID); err != nil {
		if err == domain.ErrCapacityExceeded {
			return domain.ErrInsufficientCapacity
		}
		return err
	}
	a.ID = fmt.Sprintf("alloc-%d", f.nextID)
	f.nextID++
	a.AllocatedAt = time.Now()
	f.byID[a.ID] = a
	f.order = append(f.order, a.ID)
	return nil
}

// activeQuantity sums the ledger rows held against one resource.
func (f *fakeAllocationRepo) activeQuantity(resourceID string) int {
	n := 0
	for _, a := range f.byID {
		if a.ResourceID == resourceID {
			n += a.Quantity
		}
	}
	return n
}

func (f *fakeAllocationRepo) GetByID(ctx context.Context, id string) (*domain.Allocation, error) {
	if a, ok := f.byID[id]; ok {
		return a, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAllocationRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.Allocation, error) {
	out := make([]*domain.Allocation, 0)
	for _, id := range f.order {
		if a, ok := f.byID[id]; ok && a.EventID == eventID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAllocationRepo) Release(ctx context.Context, id string) (*domain.Allocation, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	delete(f.byID, id)
	if a.ResourceID != "" {
		if _, err := f.resources.release(a.ResourceID, a.Quantity); err != nil && err != domain.ErrNotFound {
			return nil, err
		}
	}
	return a, nil
}

func (f *fakeAllocationRepo) ReleaseAll(ctx context.Context, eventID string) (*domain.ReleaseReport, error) {
	report := &domain.ReleaseReport{}
	held, _ := f.ListByEventID(ctx, eventID)
	for _, a := range held {
		delete(f.byID, a.ID)
		if _, err := f.resources.release(a.ResourceID, a.Quantity); err != nil {
			report.Skipped = append(report.Skipped, a)
			continue
		}
		report.Released = append(report.Released, a)
	}
	return report, nil
}

func (f *fakeAllocationRepo) FindPrimaryForEvent(ctx context.Context, eventID string) (*domain.Allocation, error) {
	held, _ := f.ListByEventID(ctx, eventID)
	for _, a := range held {
		if r, ok := f.resources.byID[a.ResourceID]; ok && r.Kind == domain.ResourceKindVenue {
			return a, nil
		}
	}
	if len(held) > 0 {
		return held[0], nil
	}
	return nil, domain.ErrNotFound
}

// fakeRegistrationRepo decides confirmed or waitlisted from a CapacitySnapshot
// taken under its mutex, the way the real repository does under the event row
// lock, and promotes FIFO.
type fakeRegistrationRepo struct {
	mu          sync.Mutex
	byID        map[string]*domain.Registration
	nextID      int
	events      *fakeEventRepo
	resources   *fakeResourceRepo
	ticketTypes *fakeTicketTypeRepo
	promoteErr  error
}

func newFakeRegistrationRepo(events *fakeEventRepo, resources *fakeResourceRepo, ticketTypes *fakeTicketTypeRepo) *fakeRegistrationRepo {
	return &fakeRegistrationRepo{
		byID:        make(map[string]*domain.Registration),
		nextID:      1,
		events:      events,
		resources:   resources,
		ticketTypes: ticketTypes,
	}
}

func (f *fakeRegistrationRepo) add(reg *domain.Registration) *domain.Registration {
	f.byID[reg.ID] = reg
	return reg
}

// snapshot must be called with f.mu held.
func (f *fakeRegistrationRepo) snapshot(eventID, ticketTypeID string) (domain.CapacitySnapshot, error) {
	var snap domain.CapacitySnapshot
	e, ok := f.events.byID[eventID]
	if !ok {
		return snap, domain.ErrNotFound
	}
	snap.EventCapacity = e.Capacity
	snap.OverrideCapacity = e.OverrideCapacity
	if e.VenueID != nil {
		if v, ok := f.resources.byID[*e.VenueID]; ok {
			total := v.TotalCapacity
			snap.VenueCapacity = &total
		}
	}
	for _, r := range f.byID {
		if r.EventID == eventID && r.Status == domain.RegistrationConfirmed {
			snap.ConfirmedCount++
		}
	}
	snap.TicketCapacity, snap.TicketSoldCount = f.ticketTypes.subCap(ticketTypeID)
	return snap, nil
}

func (f *fakeRegistrationRepo) Register(ctx context.Context, reg *domain.Registration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, err := f.snapshot(reg.EventID, reg.TicketTypeID)
	if err != nil {
		return err
	}
	for _, r := range f.byID {
		if r.IsActive() && r.UserID == reg.UserID && r.EventID == reg.EventID && r.TicketTypeID == reg.TicketTypeID {
			return domain.ErrDuplicateRegistration
		}
	}
	reg.Status = snap.Decide()
	reg.ID = fmt.Sprintf("00000000-0000-0000-0001-%012d", f.nextID)
	f.nextID++
	cp := *reg
	f.byID[reg.ID] = &cp
	if reg.Status == domain.RegistrationConfirmed {
		f.ticketTypes.adjustSold(reg.TicketTypeID, 1)
	}
	return nil
}

func (f *fakeRegistrationRepo) Cancel(ctx context.Context, id string) (*domain.CancelResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok || !r.IsActive() {
		return nil, domain.ErrNotFound
	}
	prev := r.Status
	r.Status = domain.RegistrationCancelled
	if prev == domain.RegistrationConfirmed {
		f.ticketTypes.adjustSold(r.TicketTypeID, -1)
	}
	cp := *r
	return &domain.CancelResult{Registration: &cp, PreviousStatus: prev}, nil
}

func (f *fakeRegistrationRepo) PromoteNext(ctx context.Context, eventID string) (*domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.promoteErr != nil {
		return nil, f.promoteErr
	}
	snap, err := f.snapshot(eventID, "")
	if err != nil {
		return nil, err
	}
	if !snap.HasEventSlot() {
		return nil, nil
	}
	for _, next := range f.waitlist(eventID) {
		capacity, sold := f.ticketTypes.subCap(next.TicketTypeID)
		if capacity != nil && sold >= *capacity {
			continue
		}
		next.Status = domain.RegistrationConfirmed
		f.ticketTypes.adjustSold(next.TicketTypeID, 1)
		cp := *next
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeRegistrationRepo) waitlist(eventID string) []*domain.Registration {
	var out []*domain.Registration
	for _, r := range f.byID {
		if r.EventID == eventID && r.Status == domain.RegistrationWaitlisted {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b *domain.Registration) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		return 1
	})
	return out
}

func (f *fakeRegistrationRepo) GetByID(ctx context.Context, id string) (*domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.byID[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRegistrationRepo) ListByEventID(ctx context.Context, eventID string, params domain.PaginationParams) ([]*domain.Registration, int, error) {
	out := make([]*domain.Registration, 0)
	for _, r := range f.byID {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

func (f *fakeRegistrationRepo) ListWaitlist(ctx context.Context, eventID string) ([]*domain.Registration, error) {
	return f.waitlist(eventID), nil
}

func (f *fakeRegistrationRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Registration, error) {
	out := make([]*domain.Registration, 0)
	for _, r := range f.byID {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRegistrationRepo) CountConfirmed(ctx context.Context, eventID string) (int, error) {
	n := 0
	for _, r := range f.byID {
		if r.EventID == eventID && r.Status == domain.RegistrationConfirmed {
			n++
		}
	}
	return n, nil
}

func (f *fakeRegistrationRepo) Stats(ctx context.Context, eventID string) (*domain.RegistrationStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &domain.RegistrationStats{EventID: eventID}
	for _, r := range f.byID {
		if r.EventID != eventID {
			continue
		}
		stats.Total++
		switch r.Status {
		case domain.RegistrationConfirmed:
			stats.Confirmed++
		case domain.RegistrationWaitlisted:
			stats.Waitlisted++
		case domain.RegistrationCancelled:
			stats.Cancelled++
		}
		if r.CheckedInAt != nil {
			stats.CheckedIn++
		}
	}
	return stats, nil
}

// fakeOrderRepo completes orders against a fakeRegistrationRepo.
type fakeOrderRepo struct {
	regs          *fakeRegistrationRepo
	byID          map[string]*domain.Order
	nextID        int
	completeCalls int
}

func newFakeOrderRepo(regs *fakeRegistrationRepo) *fakeOrderRepo {
	return &fakeOrderRepo{regs: regs, byID: make(map[string]*domain.Order), nextID: 1}
}

func (f *fakeOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	o.ID = fmt.Sprintf("00000000-0000-0000-0000-%012d", f.nextID)
	f.nextID++
	f.byID[o.ID] = o
	return nil
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if o, ok := f.byID[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeOrderRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	out := make([]*domain.Order, 0)
	for _, o := range f.byID {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) MarkFailed(ctx context.Context, id string) error {
	if o, ok := f.byID[id]; ok && o.PaymentStatus == domain.PaymentPending {
		o.PaymentStatus = domain.PaymentFailed
	}
	return nil
}

func (f *fakeOrderRepo) Complete(ctx context.Context, orderID string, proof domain.PaymentProof, token string) (*domain.PaymentCompletion, error) {
	f.completeCalls++
	o, ok := f.byID[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if o.PaymentStatus == domain.PaymentCompleted {
		reg, _ := f.regs.GetByID(ctx, *o.RegistrationID)
		cp := *o
		return &domain.PaymentCompletion{Order: &cp, Registration: reg, AlreadyCompleted: true}, nil
	}

	promoted := false
	var reg *domain.Registration
	for _, r := range f.regs.byID {
		if r.IsActive() && r.UserID == o.UserID && r.EventID == o.EventID && r.TicketTypeID == o.TicketTypeID {
			reg = r
		}
	}
	if reg == nil {
		reg = &domain.Registration{ID: fmt.Sprintf("00000000-0000-0000-0002-%012d", f.completeCalls), EventID: o.EventID, UserID: o.UserID, TicketTypeID: o.TicketTypeID}
		f.regs.byID[reg.ID] = reg
	} else if reg.Status == domain.RegistrationWaitlisted {
		promoted = true
	}
	reg.Status = domain.RegistrationConfirmed

	o.PaymentStatus = domain.PaymentCompleted
	o.GatewayPaymentID = &proof.GatewayPaymentID
	o.QRCodeData = &token
	o.RegistrationID = &reg.ID
	cpOrder := *o
	cpReg := *reg
	return &domain.PaymentCompletion{Order: &cpOrder, Registration: &cpReg, Promoted: promoted}, nil
}

// fakeCheckInRepo refuses a second record for the same registration.
type fakeCheckInRepo struct {
	byReg map[string]*domain.CheckIn
}

func newFakeCheckInRepo() *fakeCheckInRepo {
	return &fakeCheckInRepo{byReg: make(map[string]*domain.CheckIn)}
}

func (f *fakeCheckInRepo) Record(ctx context.Context, reg *domain.Registration, resourceID *string, at time.Time) (*domain.CheckIn, error) {
	if existing, ok := f.byReg[reg.ID]; ok {
		return nil, &domain.AlreadyCheckedInError{CheckedInAt: existing.CheckedInAt}
	}
	c := &domain.CheckIn{
		ID:             fmt.Sprintf("ci-%d", len(f.byReg)+1),
		RegistrationID: reg.ID,
		ParticipantID:  reg.UserID,
		EventID:        reg.EventID,
		ResourceID:     resourceID,
		Status:         domain.CheckInStatusCheckedIn,
		CheckedInAt:    at,
	}
	f.byReg[reg.ID] = c
	return c, nil
}

func (f *fakeCheckInRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.CheckIn, error) {
	out := make([]*domain.CheckIn, 0)
	for _, c := range f.byReg {
		if c.EventID == eventID {
			out = append(out, c)
		}
	}
	return out, nil
}

// fakeUserRepo implements domain.UserRepository for tests.
type fakeUserRepo struct {
	byID      map[string]*domain.User
	byEmail   map[string]*domain.User
	getErr    error
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
}

func (f *fakeUserRepo) add(u *domain.User) *domain.User {
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
	return u
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User, roleCode string) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return domain.ErrDuplicateEmail
	}
	u.ID = fmt.Sprintf("user-%d", len(f.byID)+1)
	u.Roles = []string{roleCode}
	f.add(u)
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

// fakePublisher records published changes.
type fakePublisher struct {
	mu      sync.Mutex
	changes []*domain.ChangeEvent
	err     error
}

func (f *fakePublisher) Publish(ctx context.Context, change *domain.ChangeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, change)
	return f.err
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.changes))
	for i, c := range f.changes {
		out[i] = c.Type
	}
	return out
}

// fakeEmailService records ticket emails.
type fakeEmailService struct {
	mu   sync.Mutex
	sent []*domain.TicketEmailData
	err  error
}

func (f *fakeEmailService) SendTicket(ctx context.Context, data *domain.TicketEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, data)
	return f.err
}

// fakeGateway accepts the signature "valid" only.
type fakeGateway struct {
	created int
	err     error
}

func (f *fakeGateway) CreateOrder(ctx context.Context, amount float64, currency, receipt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.created++
	return fmt.Sprintf("order_gw%d", f.created), nil
}

func (f *fakeGateway) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	return signature == "valid"
}

func (f *fakeGateway) KeyID() string { return "key_test" }

// fakeLocker records the keys it was asked for.
type fakeLocker struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (f *fakeLocker) Lock(ctx context.Context, key string) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.keys = append(f.keys, key)
	return func() {}, nil
}

// fixture wires every service against the fakes above.
type fixture struct {
	events      *fakeEventRepo
	ticketTypes *fakeTicketTypeRepo
	resources   *fakeResourceRepo
	allocations *fakeAllocationRepo
	regs        *fakeRegistrationRepo
	orders      *fakeOrderRepo
	checkIns    *fakeCheckInRepo
	users       *fakeUserRepo
	publisher   *fakePublisher
	email       *fakeEmailService
	gateway     *fakeGateway
	locker      *fakeLocker
	notifier    *Notifier

	allocationSvc domain.AllocationService
	waitlistSvc   domain.WaitlistService
}

func newFixture() *fixture {
	f := &fixture{
		events:      newFakeEventRepo(),
		ticketTypes: newFakeTicketTypeRepo(),
		resources:   newFakeResourceRepo(),
		checkIns:    newFakeCheckInRepo(),
		users:       newFakeUserRepo(),
		publisher:   &fakePublisher{},
		email:       &fakeEmailService{},
		gateway:     &fakeGateway{},
		locker:      &fakeLocker{},
	}
	f.allocations = newFakeAllocationRepo(f.resources)
	f.regs = newFakeRegistrationRepo(f.events, f.resources, f.ticketTypes)
	f.orders = newFakeOrderRepo(f.regs)
	f.notifier = NewNotifier(f.publisher, f.email, f.users, f.events, testLogger)
	f.allocationSvc = NewAllocationService(f.allocations, f.events, f.notifier, testLogger, testTimeout)
	f.waitlistSvc = NewWaitlistService(f.regs, f.events, f.notifier, testLogger, testTimeout)
	return f
}

func (f *fixture) eventService() domain.EventService {
	return NewEventService(f.events, f.ticketTypes, f.resources, f.allocations, f.notifier, testLogger, testTimeout)
}

func (f *fixture) registrationService() domain.RegistrationService {
	return NewRegistrationService(f.regs, f.events, f.ticketTypes, f.waitlistSvc, f.notifier, testLogger, testTimeout)
}

func (f *fixture) orderService() domain.OrderService {
	return NewOrderService(f.orders, f.ticketTypes, f.events, f.resources, f.regs, f.gateway, f.locker, f.notifier, "inr", testLogger, testTimeout)
}

func (f *fixture) checkInService() domain.CheckInService {
	return NewCheckInService(f.checkIns, f.regs, f.orders, f.events, f.users, f.allocationSvc, f.locker, f.notifier, testLogger, testTimeout)
}

// seedEvent stores an event owned by organizerID.
func (f *fixture) seedEvent(organizerID string, capacity *int) *domain.Event {
	start := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	e := domain.NewEvent("Go Meetup", organizerID, start, start.Add(3*time.Hour), capacity)
	_ = f.events.Create(context.Background(), e)
	return e
}

func (f *fixture) seedTicketType(eventID string, kind domain.TicketKind, price float64) *domain.TicketType {
	tt := &domain.TicketType{EventID: eventID, Name: string(kind), Kind: kind, Price: price}
	_ = f.ticketTypes.Create(context.Background(), tt)
	return tt
}

var (
	_ domain.EventRepository        = (*fakeEventRepo)(nil)
	_ domain.TicketTypeRepository   = (*fakeTicketTypeRepo)(nil)
	_ domain.ResourceRepository     = (*fakeResourceRepo)(nil)
	_ domain.AllocationRepository   = (*fakeAllocationRepo)(nil)
	_ domain.RegistrationRepository = (*fakeRegistrationRepo)(nil)
	_ domain.OrderRepository        = (*fakeOrderRepo)(nil)
	_ domain.CheckInRepository      = (*fakeCheckInRepo)(nil)
	_ domain.UserRepository         = (*fakeUserRepo)(nil)
	_ domain.ChangePublisher        = (*fakePublisher)(nil)
	_ domain.EmailService           = (*fakeEmailService)(nil)
	_ domain.PaymentGateway         = (*fakeGateway)(nil)
	_ domain.Locker                 = (*fakeLocker)(nil)
)
