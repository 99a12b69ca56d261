package interval

// Kind identifies which committed collection a conflict came from. Callers
// use it to produce distinct user-facing diagnostics: a booking collision
// reads differently from a maintenance blackout or a reserved date range.
type Kind string

const (
	// KindBooking indicates overlap with a confirmed booking.
	KindBooking Kind = "booking"
	// KindMaintenance indicates overlap with a scheduled maintenance window.
	KindMaintenance Kind = "maintenance"
	// KindAvailability indicates overlap with a declared availability window.
	KindAvailability Kind = "availability"
)

// Conflict describes the first committed interval that blocks a proposal.
type Conflict struct {
	Kind   Kind
	HallID string
	WithID string
}

// CheckBookingAdmissible decides whether a proposed booking interval may be
// committed for its hall. Existing bookings are scanned before maintenance
// windows and the first hit wins, so a proposal colliding with both reports
// the booking. Spans for other halls are ignored.
func CheckBookingAdmissible(bookings, maintenance []Span, proposed Span) *Conflict {
	if c := firstOverlap(bookings, proposed, KindBooking); c != nil {
		return c
	}
	return firstOverlap(maintenance, proposed, KindMaintenance)
}

// CheckMaintenanceAdmissible decides whether a proposed maintenance window
// may be committed. Bookings and existing maintenance windows are compared
// as half-open intervals; availability windows are compared at day
// granularity because they are declared per date range and preempt
// maintenance outright.
func CheckMaintenanceAdmissible(bookings, maintenance, availability []Span, proposed Span) *Conflict {
	if c := firstOverlap(bookings, proposed, KindBooking); c != nil {
		return c
	}
	if c := firstOverlap(maintenance, proposed, KindMaintenance); c != nil {
		return c
	}
	return firstDateOverlap(availability, proposed)
}

// CheckAvailabilityAdmissible decides whether a proposed availability window
// may be declared. Only other availability windows constrain it, compared at
// day granularity.
func CheckAvailabilityAdmissible(availability []Span, proposed Span) *Conflict {
	return firstDateOverlap(availability, proposed)
}

func firstOverlap(existing []Span, proposed Span, kind Kind) *Conflict {
	for _, span := range existing {
		if span.HallID != proposed.HallID {
			continue
		}
		if Overlaps(span, proposed) {
			return &Conflict{Kind: kind, HallID: span.HallID, WithID: span.ID}
		}
	}
	return nil
}

func firstDateOverlap(existing []Span, proposed Span) *Conflict {
	for _, span := range existing {
		if span.HallID != proposed.HallID {
			continue
		}
		if DatesOverlap(span, proposed) {
			return &Conflict{Kind: KindAvailability, HallID: span.HallID, WithID: span.ID}
		}
	}
	return nil
}
