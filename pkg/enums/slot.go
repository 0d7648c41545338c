package enums

import "fmt"

// SlotStatus is the availability flag on a parking slot.
type SlotStatus string

const (
	SlotStatusAvailable   SlotStatus = "available"
	SlotStatusUnavailable SlotStatus = "unavailable"
)

var validSlotStatuses = []SlotStatus{
	SlotStatusAvailable,
	SlotStatusUnavailable,
}

// String implements fmt.Stringer.
func (s SlotStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SlotStatus.
func (s SlotStatus) IsValid() bool {
	for _, candidate := range validSlotStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSlotStatus converts raw input into a SlotStatus.
func ParseSlotStatus(value string) (SlotStatus, error) {
	for _, candidate := range validSlotStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid slot status %q", value)
}

// SlotSize is the physical size class of a slot or vehicle.
type SlotSize string

const (
	SlotSizeSmall  SlotSize = "small"
	SlotSizeMedium SlotSize = "medium"
	SlotSizeLarge  SlotSize = "large"
)

var validSlotSizes = []SlotSize{
	SlotSizeSmall,
	SlotSizeMedium,
	SlotSizeLarge,
}

// String implements fmt.Stringer.
func (s SlotSize) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SlotSize.
func (s SlotSize) IsValid() bool {
	for _, candidate := range validSlotSizes {
		if candidate == s {
			return true
		}
	}
	return false
}

// Rank orders sizes so compatibility checks can compare them. Unknown sizes
// rank below small.
func (s SlotSize) Rank() int {
	switch s {
	case SlotSizeSmall:
		return 1
	case SlotSizeMedium:
		return 2
	case SlotSizeLarge:
		return 3
	default:
		return 0
	}
}

// Fits reports whether a slot of this size can hold a vehicle of the given size.
func (s SlotSize) Fits(vehicle SlotSize) bool {
	return s.Rank() >= vehicle.Rank()
}

// ParseSlotSize converts raw input into a SlotSize.
func ParseSlotSize(value string) (SlotSize, error) {
	for _, candidate := range validSlotSizes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid slot size %q", value)
}
