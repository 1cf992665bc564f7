package domain

import (
	"context"
	"slices"
	"strings"
	"time"
)

// ResourceKind separates all-or-nothing venues from divisible equipment.
type ResourceKind string

const (
	ResourceKindVenue     ResourceKind = "venue"
	ResourceKindEquipment ResourceKind = "equipment"
)

// ResourceStatus is the availability state of a resource.
type ResourceStatus string

const (
	ResourceAvailable ResourceStatus = "available"
	ResourceAllocated ResourceStatus = "allocated"
)

// VenueTypeTags lists the lower-cased type tags treated as venues. Every other tag is equipment.
var VenueTypeTags = []string{"venue", "room", "hall", "outdoor", "outdoor space", "auditorium", "other"}

// KindOf classifies a resource type tag.
func KindOf(typeTag string) ResourceKind {
	if slices.Contains(VenueTypeTags, strings.ToLower(strings.TrimSpace(typeTag))) {
		return ResourceKindVenue
	}
	return ResourceKindEquipment
}

// Resource is a bookable venue or equipment item.
// For venues TotalCapacity is the seat count used by EffectiveCapacity and
// AvailableCapacity drops to 0 while the venue is bound to an event.
// swagger:model Resource
type Resource struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Type              string         `json:"type"`
	Kind              ResourceKind   `json:"kind"`
	Description       *string        `json:"description,omitempty"`
	Location          *string        `json:"location,omitempty"`
	TotalCapacity     int            `json:"total_capacity"`
	AvailableCapacity int            `json:"available_capacity"`
	Status            ResourceStatus `json:"status"`
	AllocatedTo       *string        `json:"allocated_to,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// NewResource returns an available resource with its full capacity free.
func NewResource(name, typeTag string, totalCapacity int) *Resource {
	return &Resource{
		Name:              name,
		Type:              typeTag,
		Kind:              KindOf(typeTag),
		TotalCapacity:     totalCapacity,
		AvailableCapacity: totalCapacity,
		Status:            ResourceAvailable,
	}
}

// ResourceUpdate carries the descriptive fields an organizer may change. Type
// and capacity are fixed once allocations can reference the resource.
type ResourceUpdate struct {
	Name        *string
	Description *string
	Location    *string
}

// Allocation commits a quantity of a resource to an event.
// ResourceID is empty when the resource was deleted after allocation.
// swagger:model Allocation
type Allocation struct {
	ID          string    `json:"id"`
	ResourceID  string    `json:"resource_id"`
	EventID     string    `json:"event_id"`
	Quantity    int       `json:"quantity"`
	Notes       *string   `json:"notes,omitempty"`
	OrganizerID string    `json:"organizer_id"`
	AllocatedAt time.Time `json:"allocated_at"`
}

// ReleaseReport describes the outcome of releasing all allocations of an event.
type ReleaseReport struct {
	Released []*Allocation `json:"released"`
	// Skipped allocations point at resources that no longer exist.
	Skipped []*Allocation `json:"skipped"`
}

// ResourceRepository defines catalog storage for resources. Capacity
// counters only move through AllocationRepository.
type ResourceRepository interface {
	Create(ctx context.Context, r *Resource) error
	GetByID(ctx context.Context, id string) (*Resource, error)
	List(ctx context.Context, onlyAvailable bool) ([]*Resource, error)
	// Update leaves nil fields unchanged.
	Update(ctx context.Context, id string, u *ResourceUpdate) (*Resource, error)
	Delete(ctx context.Context, id string) error
}

// AllocationRepository defines the allocation ledger storage.
type AllocationRepository interface {
	// Allocate reserves capacity and records the allocation in one transaction.
	// Returns ErrInsufficientCapacity when the reservation does not fit.
	Allocate(ctx context.Context, a *Allocation) error
	GetByID(ctx context.Context, id string) (*Allocation, error)
	ListByEventID(ctx context.Context, eventID string) ([]*Allocation, error)
	// Release deletes one allocation and restores its capacity.
	Release(ctx context.Context, id string) (*Allocation, error)
	ReleaseAll(ctx context.Context, eventID string) (*ReleaseReport, error)
	// FindPrimaryForEvent prefers a venue allocation, then the oldest one.
	FindPrimaryForEvent(ctx context.Context, eventID string) (*Allocation, error)
}

// InventoryService manages the resource catalog.
type InventoryService interface {
	CreateResource(ctx context.Context, r *Resource) error
	GetResource(ctx context.Context, id string) (*Resource, error)
	ListResources(ctx context.Context, onlyAvailable bool) ([]*Resource, error)
	UpdateResource(ctx context.Context, id string, u *ResourceUpdate) (*Resource, error)
	DeleteResource(ctx context.Context, id string) error
}

// AllocationService commits resources to events and releases them again.
type AllocationService interface {
	Allocate(ctx context.Context, organizerID string, a *Allocation) error
	ListAllocations(ctx context.Context, eventID, organizerID string) ([]*Allocation, error)
	// ReleaseAllocation refuses the booking of the event's own venue; the
	// venue goes with an event update or ReleaseAll.
	ReleaseAllocation(ctx context.Context, allocationID, organizerID string) error
	// ReleaseAll also unbinds the event from its venue.
	ReleaseAll(ctx context.Context, eventID, organizerID string) (*ReleaseReport, error)
	// FindResourceForEvent returns nil without error when the event has no allocation.
	FindResourceForEvent(ctx context.Context, eventID string) (*Allocation, error)
}
