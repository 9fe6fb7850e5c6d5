package schedule

// BookingDay is the projection of a booking needed for availability
// math: which date it occupies and whether it still counts.
type BookingDay struct {
	Date      string
	Cancelled bool
}

// AvailableSlots returns the subsequence of all with every booked
// entry removed. Both sides must already be canonical; comparison is
// exact.
func AvailableSlots(all, booked []string) []string {
	if len(all) == 0 {
		return nil
	}

	taken := make(map[string]struct{}, len(booked))
	for _, b := range booked {
		taken[b] = struct{}{}
	}

	free := make([]string, 0, len(all))
	for _, s := range all {
		if _, ok := taken[s]; !ok {
			free = append(free, s)
		}
	}
	return free
}

// FullyBookedDates returns the dates whose active booking count has
// reached slotsPerDay. Cancelled bookings never count: a date full of
// cancellations is still open.
func FullyBookedDates(bookings []BookingDay, slotsPerDay int) []string {
	if slotsPerDay <= 0 || len(bookings) == 0 {
		return nil
	}

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, b := range bookings {
		if b.Cancelled {
			continue
		}
		if _, seen := counts[b.Date]; !seen {
			order = append(order, b.Date)
		}
		counts[b.Date]++
	}

	full := make([]string, 0)
	for _, date := range order {
		if counts[date] >= slotsPerDay {
			full = append(full, date)
		}
	}
	return full
}
