package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/delivery/http/middleware"
	"eventticketing/internal/domain"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	testEventID  = "8f14e45f-ceea-467f-a0e6-1a2b3c4d5e6f"
	testUserID   = "c9f0f895-fb98-4b91-99f5-1a2b3c4d5e6f"
	testTicketID = "45c48cce-2e2d-4fbd-aa1a-1a2b3c4d5e6f"
	testRegID    = "d3d94468-02a4-4259-b55d-1a2b3c4d5e6f"
	testOrderID  = "6512bd43-d9ca-46ce-8d6b-1a2b3c4d5e6f"
	testResID    = "c20ad4d7-6fe9-4759-aa27-1a2b3c4d5e6f"
)

// newRequest builds a request with a JSON body and, when userID is set, an authenticated principal.
func newRequest(t *testing.T, method, target string, body any, userID string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req = req.WithContext(middleware.SetPrincipal(req.Context(), &domain.Principal{UserID: userID}))
	}
	return req
}

// serve routes the request through a mux so path values are populated.
func serve(pattern string, handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, handler)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

// decodeEnvelope decodes the standard envelope, with data into dest when non-nil.
func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, dest any) *helpers.APIError {
	t.Helper()
	var raw struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&raw))
	if dest != nil {
		require.NoError(t, json.Unmarshal(raw.Data, dest))
	}
	return raw.Error
}

type fakeAuthService struct {
	user      *domain.User
	token     string
	err       error
	lastEmail string
	lastRole  string
}

func (f *fakeAuthService) SignUp(ctx context.Context, email, password, name, role string) (*domain.User, error) {
	f.lastEmail, f.lastRole = email, role
	if f.err != nil {
		return nil, f.err
	}
	return &domain.User{ID: testUserID, Email: email, Name: name, Roles: []string{role}}, nil
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (string, error) {
	f.lastEmail = email
	return f.token, f.err
}

func (f *fakeAuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

type fakeEventService struct {
	err             error
	events          []*domain.Event
	lastEvent       *domain.Event
	lastUpdate      *domain.EventUpdate
	lastOrganizerID string
	lastTicketType  *domain.TicketType
}

func (f *fakeEventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	f.lastEvent = event
	if f.err != nil {
		return f.err
	}
	event.ID = testEventID
	return nil
}

func (f *fakeEventService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Event{ID: eventID, Title: "Go Meetup"}, nil
}

func (f *fakeEventService) ListMyEvents(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	f.lastOrganizerID = organizerID
	return f.events, f.err
}

func (f *fakeEventService) UpdateEvent(ctx context.Context, eventID, organizerID string, update *domain.EventUpdate) (*domain.Event, error) {
	f.lastUpdate, f.lastOrganizerID = update, organizerID
	if f.err != nil {
		return nil, f.err
	}
	return update.Apply(&domain.Event{ID: eventID, Title: "Go Meetup", OrganizerID: organizerID}), nil
}

func (f *fakeEventService) DeleteEvent(ctx context.Context, eventID, organizerID string) error {
	f.lastOrganizerID = organizerID
	return f.err
}

func (f *fakeEventService) CreateTicketType(ctx context.Context, organizerID string, tt *domain.TicketType) error {
	f.lastTicketType, f.lastOrganizerID = tt, organizerID
	return f.err
}

func (f *fakeEventService) ListTicketTypes(ctx context.Context, eventID string) ([]*domain.TicketType, error) {
	return nil, f.err
}

type fakeInventoryService struct {
	err       error
	resources []*domain.Resource
	lastOnly  bool
}

func (f *fakeInventoryService) CreateResource(ctx context.Context, r *domain.Resource) error {
	if f.err != nil {
		return f.err
	}
	r.ID = testResID
	return nil
}

func (f *fakeInventoryService) GetResource(ctx context.Context, id string) (*domain.Resource, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Resource{ID: id}, nil
}

func (f *fakeInventoryService) ListResources(ctx context.Context, onlyAvailable bool) ([]*domain.Resource, error) {
	f.lastOnly = onlyAvailable
	return f.resources, f.err
}

func (f *fakeInventoryService) UpdateResource(ctx context.Context, id string, u *domain.ResourceUpdate) (*domain.Resource, error) {
	if f.err != nil {
		return nil, f.err
	}
	res := &domain.Resource{ID: id, Name: "Hall A", Description: u.Description, Location: u.Location}
	if u.Name != nil {
		res.Name = *u.Name
	}
	return res, nil
}

func (f *fakeInventoryService) DeleteResource(ctx context.Context, id string) error {
	return f.err
}

type fakeAllocationService struct {
	err             error
	report          *domain.ReleaseReport
	lastAllocation  *domain.Allocation
	lastOrganizerID string
}

func (f *fakeAllocationService) Allocate(ctx context.Context, organizerID string, a *domain.Allocation) error {
	f.lastAllocation, f.lastOrganizerID = a, organizerID
	return f.err
}

func (f *fakeAllocationService) ListAllocations(ctx context.Context, eventID, organizerID string) ([]*domain.Allocation, error) {
	return nil, f.err
}

func (f *fakeAllocationService) ReleaseAllocation(ctx context.Context, allocationID, organizerID string) error {
	f.lastOrganizerID = organizerID
	return f.err
}

func (f *fakeAllocationService) ReleaseAll(ctx context.Context, eventID, organizerID string) (*domain.ReleaseReport, error) {
	return f.report, f.err
}

func (f *fakeAllocationService) FindResourceForEvent(ctx context.Context, eventID string) (*domain.Allocation, error) {
	return nil, nil
}

type fakeRegistrationService struct {
	err        error
	reg        *domain.Registration
	list       []*domain.Registration
	total      int
	token      string
	lastParams domain.PaginationParams
	lastCaller string
}

func (f *fakeRegistrationService) Register(ctx context.Context, eventID, userID, ticketTypeID string) (*domain.Registration, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Registration{ID: testRegID, EventID: eventID, UserID: userID, TicketTypeID: ticketTypeID, Status: domain.RegistrationConfirmed}, nil
}

func (f *fakeRegistrationService) Cancel(ctx context.Context, registrationID, callerID string) (*domain.Registration, error) {
	f.lastCaller = callerID
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Registration{ID: registrationID, Status: domain.RegistrationCancelled}, nil
}

func (f *fakeRegistrationService) ListRegistrations(ctx context.Context, eventID, organizerID string, params domain.PaginationParams) ([]*domain.Registration, int, error) {
	f.lastParams = params
	return f.list, f.total, f.err
}

func (f *fakeRegistrationService) ListWaitlist(ctx context.Context, eventID, organizerID string) ([]*domain.Registration, error) {
	return f.list, f.err
}

func (f *fakeRegistrationService) ListMyRegistrations(ctx context.Context, userID string) ([]*domain.Registration, error) {
	return f.list, f.err
}

func (f *fakeRegistrationService) Ticket(ctx context.Context, registrationID, userID string) (string, error) {
	return f.token, f.err
}

func (f *fakeRegistrationService) Stats(ctx context.Context, eventID, organizerID string) (*domain.RegistrationStats, error) {
	f.lastCaller = organizerID
	if f.err != nil {
		return nil, f.err
	}
	return &domain.RegistrationStats{EventID: eventID, Total: 3, Confirmed: 2, Waitlisted: 1, CheckedIn: 1}, nil
}

type fakeWaitlistService struct {
	promoted *domain.Registration
	err      error
}

func (f *fakeWaitlistService) PromoteNext(ctx context.Context, eventID string) (*domain.Registration, error) {
	return f.promoted, f.err
}

func (f *fakeWaitlistService) PromoteForOrganizer(ctx context.Context, eventID, organizerID string) (*domain.Registration, error) {
	return f.promoted, f.err
}

type fakeOrderService struct {
	err        error
	lastAmount float64
	lastProof  domain.PaymentProof
}

func (f *fakeOrderService) BeginPaidOrder(ctx context.Context, eventID, userID, ticketTypeID string, amount float64) (*domain.CheckoutSession, error) {
	f.lastAmount = amount
	if f.err != nil {
		return nil, f.err
	}
	return &domain.CheckoutSession{OrderID: testOrderID, GatewayOrderID: "order_gw1", Amount: amount, Currency: "INR", KeyID: "key_test"}, nil
}

func (f *fakeOrderService) ConfirmPayment(ctx context.Context, orderID, userID string, proof domain.PaymentProof) (*domain.Order, error) {
	f.lastProof = proof
	if f.err != nil {
		return nil, f.err
	}
	token := "tok"
	return &domain.Order{ID: orderID, UserID: userID, PaymentStatus: domain.PaymentCompleted, QRCodeData: &token}, nil
}

func (f *fakeOrderService) ListMyOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	return nil, f.err
}

type fakeCheckInService struct {
	err        error
	result     *domain.CheckInResult
	lastRaw    string
	lastCaller string
}

func (f *fakeCheckInService) ResolveToken(ctx context.Context, raw string) (*domain.Registration, error) {
	return nil, f.err
}

func (f *fakeCheckInService) CheckIn(ctx context.Context, reg *domain.Registration) (*domain.CheckInResult, error) {
	return f.result, f.err
}

func (f *fakeCheckInService) Scan(ctx context.Context, eventID, organizerID, raw string) (*domain.CheckInResult, error) {
	f.lastRaw, f.lastCaller = raw, organizerID
	return f.result, f.err
}

func (f *fakeCheckInService) ListCheckIns(ctx context.Context, eventID, organizerID string) ([]*domain.CheckIn, error) {
	return nil, f.err
}

var (
	_ domain.AuthService         = (*fakeAuthService)(nil)
	_ domain.EventService        = (*fakeEventService)(nil)
	_ domain.InventoryService    = (*fakeInventoryService)(nil)
	_ domain.AllocationService   = (*fakeAllocationService)(nil)
	_ domain.RegistrationService = (*fakeRegistrationService)(nil)
	_ domain.WaitlistService     = (*fakeWaitlistService)(nil)
	_ domain.OrderService        = (*fakeOrderService)(nil)
	_ domain.CheckInService      = (*fakeCheckInService)(nil)
)
