package enums

import "fmt"

// ItemStatus maps to the items.status column.
type ItemStatus string

const (
	ItemStatusDepositable ItemStatus = "depositable"
	ItemStatusListed      ItemStatus = "listed"
	ItemStatusSold        ItemStatus = "sold"
	ItemStatusRetrieved   ItemStatus = "retrieved"
)

var validItemStatuses = []ItemStatus{
	ItemStatusDepositable,
	ItemStatusListed,
	ItemStatusSold,
	ItemStatusRetrieved,
}

var itemTransitions = map[ItemStatus][]ItemStatus{
	ItemStatusDepositable: {ItemStatusListed, ItemStatusRetrieved},
	ItemStatusListed:      {ItemStatusSold, ItemStatusRetrieved, ItemStatusDepositable},
}

// String implements fmt.Stringer.
func (s ItemStatus) String() string {
	return string(s)
}

// IsValid reports whether the value matches a known item status.
func (s ItemStatus) IsValid() bool {
	for _, candidate := range validItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves the status.
func (s ItemStatus) IsTerminal() bool {
	return len(itemTransitions[s]) == 0
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s ItemStatus) CanTransitionTo(next ItemStatus) bool {
	for _, candidate := range itemTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// StatusesLeadingTo lists every status with a direct edge to target, in
// declaration order.
func StatusesLeadingTo(target ItemStatus) []ItemStatus {
	out := []ItemStatus{}
	for _, candidate := range validItemStatuses {
		if candidate.CanTransitionTo(target) {
			out = append(out, candidate)
		}
	}
	return out
}

// ParseItemStatus converts raw input into ItemStatus.
func ParseItemStatus(value string) (ItemStatus, error) {
	for _, candidate := range validItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item status %q", value)
}
