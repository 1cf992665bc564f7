package domain

// CapacitySnapshot is what a registration decision is based on. It is read
// under the event row lock so the decision and the insert form one unit.
type CapacitySnapshot struct {
	EventCapacity    *int
	VenueCapacity    *int
	OverrideCapacity bool
	ConfirmedCount   int
	TicketCapacity   *int
	TicketSoldCount  int
}

// EffectiveCapacity is min(event, venue) when both are set, else whichever is
// set. Nil means unbounded.
func EffectiveCapacity(eventCapacity, venueCapacity *int) *int {
	switch {
	case eventCapacity != nil && venueCapacity != nil:
		c := min(*eventCapacity, *venueCapacity)
		return &c
	case eventCapacity != nil:
		c := *eventCapacity
		return &c
	case venueCapacity != nil:
		c := *venueCapacity
		return &c
	}
	return nil
}

// Effective returns the effective event capacity of the snapshot.
func (s CapacitySnapshot) Effective() *int {
	return EffectiveCapacity(s.EventCapacity, s.VenueCapacity)
}

// HasEventSlot reports whether one more confirmed registration fits the event.
func (s CapacitySnapshot) HasEventSlot() bool {
	if s.OverrideCapacity {
		return true
	}
	c := s.Effective()
	return c == nil || s.ConfirmedCount < *c
}

// HasTicketSlot reports whether the ticket type sub-cap still has room.
func (s CapacitySnapshot) HasTicketSlot() bool {
	if s.OverrideCapacity || s.TicketCapacity == nil {
		return true
	}
	return s.TicketSoldCount < *s.TicketCapacity
}

// Decide returns the status a new direct registration gets.
func (s CapacitySnapshot) Decide() RegistrationStatus {
	if s.HasEventSlot() && s.HasTicketSlot() {
		return RegistrationConfirmed
	}
	return RegistrationWaitlisted
}
