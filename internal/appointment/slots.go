package appointment

// TimeSlots is the fixed slot enumeration shared by every clinician.
// Morning and afternoon blocks; order matters for availability output.
var TimeSlots = []string{
	"09:00", "09:30", "10:00", "10:30", "11:00", "11:30",
	"14:00", "14:30", "15:00", "15:30", "16:00", "16:30",
}

var slotIndex = func() map[string]int {
	m := make(map[string]int, len(TimeSlots))
	for i, s := range TimeSlots {
		m[s] = i
	}
	return m
}()

// ValidSlot reports whether the label belongs to the enumeration.
func ValidSlot(label string) bool {
	_, ok := slotIndex[label]
	return ok
}

// availableSlots returns the enumeration minus occupied, in slot order.
func availableSlots(occupied []string) []string {
	taken := make(map[string]bool, len(occupied))
	for _, s := range occupied {
		taken[s] = true
	}
	free := []string{}
	for _, s := range TimeSlots {
		if !taken[s] {
			free = append(free, s)
		}
	}
	return free
}
