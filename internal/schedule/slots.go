package schedule

// GenerateSlots produces every candidate slot start t with
// start <= t <= end-duration, stepping by duration, in ascending
// order. The last slot is the one that still finishes by end. An
// impossible window yields an empty sequence.
func GenerateSlots(start, end Minutes, duration int) []Minutes {
	if duration <= 0 || end-Minutes(duration) < start {
		return nil
	}

	slots := make([]Minutes, 0, int(end-start)/duration+1)
	for t := start; t <= end-Minutes(duration); t += Minutes(duration) {
		slots = append(slots, t)
	}
	return slots
}

// GenerateSlotStrings is GenerateSlots rendered to canonical "HH:MM"
// strings, the form bookings store and compare.
func GenerateSlotStrings(startTime, endTime string, duration int) ([]string, error) {
	start, err := ParseClock(startTime)
	if err != nil {
		return nil, err
	}
	end, err := ParseClock(endTime)
	if err != nil {
		return nil, err
	}

	slots := GenerateSlots(start, end, duration)
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.String()
	}
	return out, nil
}

// SlotCount returns how many slots fit in one working day.
func SlotCount(startTime, endTime string, duration int) (int, error) {
	start, err := ParseClock(startTime)
	if err != nil {
		return 0, err
	}
	end, err := ParseClock(endTime)
	if err != nil {
		return 0, err
	}
	return len(GenerateSlots(start, end, duration)), nil
}
