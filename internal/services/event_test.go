package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventticketing/internal/domain"
)

func TestEventService_CreateEvent(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		event   *domain.Event
		wantErr error
	}{
		{
			name:  "success without venue",
			event: domain.NewEvent("Meetup", "org-1", start, start.Add(time.Hour), intRef(50)),
		},
		{
			name: "success with venue",
			event: func() *domain.Event {
				e := domain.NewEvent("Meetup", "org-1", start, start.Add(time.Hour), nil)
				e.VenueID = strRef("hall")
				return e
			}(),
		},
		{
			name:    "missing organizer",
			event:   domain.NewEvent("Meetup", "", start, start.Add(time.Hour), nil),
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "end before start",
			event:   domain.NewEvent("Meetup", "org-1", start, start.Add(-time.Hour), nil),
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "negative capacity",
			event:   domain.NewEvent("Meetup", "org-1", start, start.Add(time.Hour), intRef(-1)),
			wantErr: domain.ErrInvalidInput,
		},
		{
			name: "venue is equipment",
			event: func() *domain.Event {
				e := domain.NewEvent("Meetup", "org-1", start, start.Add(time.Hour), nil)
				e.VenueID = strRef("projectors")
				return e
			}(),
			wantErr: domain.ErrInvalidInput,
		},
		{
			name: "venue does not exist",
			event: func() *domain.Event {
				e := domain.NewEvent("Meetup", "org-1", start, start.Add(time.Hour), nil)
				e.VenueID = strRef("missing")
				return e
			}(),
			wantErr: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			seedHall(f)
			seedProjectors(f, 3)
			err := f.eventService().CreateEvent(ctx, tt.event)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, f.events.byID)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, tt.event.ID)
			assert.False(t, tt.event.CreatedAt.IsZero())
			if tt.event.VenueID != nil {
				hall := f.resources.byID["hall"]
				assert.Equal(t, domain.ResourceAllocated, hall.Status)
				require.NotNil(t, hall.AllocatedTo)
				assert.Equal(t, tt.event.ID, *hall.AllocatedTo)
				assert.Equal(t, 1, f.allocations.activeQuantity("hall"))
			}
		})
	}
}

func newVenueEvent(venueID string) *domain.Event {
	start := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	e := domain.NewEvent("Meetup", "org-1", start, start.Add(time.Hour), nil)
	e.VenueID = strRef(venueID)
	return e
}

func seedRoom(f *fixture) *domain.Resource {
	return f.resources.add(&domain.Resource{ID: "room", Name: "Room 2", Type: "room", Kind: domain.ResourceKindVenue,
		TotalCapacity: 30, AvailableCapacity: 30, Status: domain.ResourceAvailable})
}

func TestEventService_CreateEvent_VenueBookedOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seedHall(f)
	svc := f.eventService()

	first := newVenueEvent("hall")
	require.NoError(t, svc.CreateEvent(ctx, first))

	second := newVenueEvent("hall")
	err := svc.CreateEvent(ctx, second)
	assert.ErrorIs(t, err, domain.ErrInsufficientCapacity)
	assert.Empty(t, second.ID)
	assert.Len(t, f.events.byID, 1, "the losing event is not kept")
	assert.Equal(t, first.ID, *f.resources.byID["hall"].AllocatedTo)

	held, err := f.allocations.ListByEventID(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, "hall", held[0].ResourceID)
	assert.Equal(t, []string{domain.ChangeAllocationCreated}, f.publisher.types())
}

func TestEventService_CreateEvent_BookingFailureRemovesEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seedHall(f)
	// The venue was taken between the availability read and the ledger write.
	f.allocations.allocateErr = domain.ErrInsufficientCapacity

	event := newVenueEvent("hall")
	err := f.eventService().CreateEvent(ctx, event)
	assert.ErrorIs(t, err, domain.ErrInsufficientCapacity)
	assert.Empty(t, event.ID)
	assert.Empty(t, f.events.byID)
	assert.Len(t, f.events.deleted, 1)
	assert.Empty(t, f.allocations.byID)
}

func TestEventService_UpdateEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("partial update keeps other fields", func(t *testing.T) {
		f := newFixture()
		event := f.seedEvent("org-1", intRef(10))
		title := "Renamed"

		updated, err := f.eventService().UpdateEvent(ctx, event.ID, "org-1", &domain.EventUpdate{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Title)
		require.NotNil(t, updated.Capacity)
		assert.Equal(t, 10, *updated.Capacity)
	})

	t.Run("forbidden for another organizer", func(t *testing.T) {
		f := newFixture()
		event := f.seedEvent("org-1", nil)
		title := "Mine now"

		_, err := f.eventService().UpdateEvent(ctx, event.ID, "org-2", &domain.EventUpdate{Title: &title})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("invalid window rejected", func(t *testing.T) {
		f := newFixture()
		event := f.seedEvent("org-1", nil)
		end := event.StartTS.Add(-time.Minute)

		_, err := f.eventService().UpdateEvent(ctx, event.ID, "org-1", &domain.EventUpdate{EndTS: &end})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("venue change moves the booking and keeps equipment", func(t *testing.T) {
		f := newFixture()
		seedHall(f)
		seedRoom(f)
		seedProjectors(f, 5)
		svc := f.eventService()
		event := newVenueEvent("hall")
		require.NoError(t, svc.CreateEvent(ctx, event))
		require.NoError(t, f.allocationSvc.Allocate(ctx, "org-1", &domain.Allocation{ResourceID: "projectors", EventID: event.ID, Quantity: 2}))

		updated, err := svc.UpdateEvent(ctx, event.ID, "org-1", &domain.EventUpdate{VenueID: strRef("room")})
		require.NoError(t, err)
		assert.Equal(t, "room", *updated.VenueID)

		assert.Equal(t, domain.ResourceAvailable, f.resources.byID["hall"].Status)
		assert.Nil(t, f.resources.byID["hall"].AllocatedTo)
		assert.Equal(t, 0, f.allocations.activeQuantity("hall"))
		assert.Equal(t, domain.ResourceAllocated, f.resources.byID["room"].Status)
		assert.Equal(t, event.ID, *f.resources.byID["room"].AllocatedTo)
		assert.Equal(t, 1, f.allocations.activeQuantity("room"))
		assert.Equal(t, 2, f.allocations.activeQuantity("projectors"))
		assert.Equal(t, 3, f.resources.byID["projectors"].AvailableCapacity)
	})

	t.Run("venue change to a booked venue keeps the old one", func(t *testing.T) {
		f := newFixture()
		seedHall(f)
		seedRoom(f)
		svc := f.eventService()
		mine := newVenueEvent("hall")
		require.NoError(t, svc.CreateEvent(ctx, mine))
		require.NoError(t, svc.CreateEvent(ctx, newVenueEvent("room")))

		_, err := svc.UpdateEvent(ctx, mine.ID, "org-1", &domain.EventUpdate{VenueID: strRef("room")})
		assert.ErrorIs(t, err, domain.ErrInsufficientCapacity)
		assert.Equal(t, "hall", *f.events.byID[mine.ID].VenueID)
		assert.Equal(t, mine.ID, *f.resources.byID["hall"].AllocatedTo)
		assert.Equal(t, 1, f.allocations.activeQuantity("room"))
	})

	t.Run("clearing the venue frees it", func(t *testing.T) {
		f := newFixture()
		seedHall(f)
		svc := f.eventService()
		event := newVenueEvent("hall")
		require.NoError(t, svc.CreateEvent(ctx, event))

		updated, err := svc.UpdateEvent(ctx, event.ID, "org-1", &domain.EventUpdate{VenueID: strRef("")})
		require.NoError(t, err)
		assert.Nil(t, updated.VenueID)
		assert.Equal(t, domain.ResourceAvailable, f.resources.byID["hall"].Status)
		assert.Empty(t, f.allocations.byID)
	})

	t.Run("same venue keeps allocations", func(t *testing.T) {
		f := newFixture()
		seedProjectors(f, 5)
		event := f.seedEvent("org-1", nil)
		require.NoError(t, f.allocationSvc.Allocate(ctx, "org-1", &domain.Allocation{ResourceID: "projectors", EventID: event.ID, Quantity: 2}))
		capacity := 40

		_, err := f.eventService().UpdateEvent(ctx, event.ID, "org-1", &domain.EventUpdate{Capacity: &capacity})
		require.NoError(t, err)
		assert.Len(t, f.allocations.byID, 1)
	})
}

func TestEventService_DeleteEvent_ReleasesAllocations(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seedHall(f)
	seedProjectors(f, 5)
	svc := f.eventService()
	event := newVenueEvent("hall")
	require.NoError(t, svc.CreateEvent(ctx, event))
	require.NoError(t, f.allocationSvc.Allocate(ctx, "org-1", &domain.Allocation{ResourceID: "projectors", EventID: event.ID, Quantity: 3}))

	assert.ErrorIs(t, svc.DeleteEvent(ctx, event.ID, "org-2"), domain.ErrForbidden)
	assert.Len(t, f.allocations.byID, 2)

	require.NoError(t, svc.DeleteEvent(ctx, event.ID, "org-1"))
	assert.Equal(t, []string{event.ID}, f.events.deleted)
	assert.Empty(t, f.allocations.byID)
	assert.Equal(t, domain.ResourceAvailable, f.resources.byID["hall"].Status)
	assert.Equal(t, 100, f.resources.byID["hall"].AvailableCapacity)
	assert.Equal(t, 5, f.resources.byID["projectors"].AvailableCapacity)

	assert.Nil(t, f.resources.byID["hall"].AllocatedTo)
	assert.Equal(t, 5, f.resources.byID["projectors"].AvailableCapacity)

	assert.ErrorIs(t, svc.DeleteEvent(ctx, event.ID, "org-1"), domain.ErrNotFound)

	next := newVenueEvent("hall")
	require.NoError(t, svc.CreateEvent(ctx, next), "a freed venue can be booked again")
}

func TestEventService_CreateTicketType(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		organizerID string
		tt          *domain.TicketType
		wantErr     error
	}{
		{"free", "org-1", &domain.TicketType{Name: "General", Kind: domain.TicketKindFree}, nil},
		{"paid upper-case kind", "org-1", &domain.TicketType{Name: "VIP", Kind: "PAID", Price: 499}, nil},
		{"donation with sub-cap", "org-1", &domain.TicketType{Name: "Supporter", Kind: domain.TicketKindDonation, Price: 100, Capacity: intRef(20)}, nil},
		{"free with price", "org-1", &domain.TicketType{Name: "General", Kind: domain.TicketKindFree, Price: 10}, domain.ErrInvalidInput},
		{"paid without price", "org-1", &domain.TicketType{Name: "VIP", Kind: domain.TicketKindPaid}, domain.ErrInvalidInput},
		{"unknown kind", "org-1", &domain.TicketType{Name: "X", Kind: "barter"}, domain.ErrInvalidInput},
		{"other organizer", "org-2", &domain.TicketType{Name: "General", Kind: domain.TicketKindFree}, domain.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			event := f.seedEvent("org-1", nil)
			tt.tt.EventID = event.ID
			tt.tt.SoldCount = 7

			err := f.eventService().CreateTicketType(ctx, tt.organizerID, tt.tt)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, tt.tt.ID)
			assert.Equal(t, 0, tt.tt.SoldCount)

			list, err := f.eventService().ListTicketTypes(ctx, event.ID)
			require.NoError(t, err)
			assert.Len(t, list, 1)
		})
	}
}
