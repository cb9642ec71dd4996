package enums

import (
	"reflect"
	"testing"
)

func TestItemStatusTransitions(t *testing.T) {
	tests := []struct {
		from ItemStatus
		to   ItemStatus
		want bool
	}{
		{ItemStatusDepositable, ItemStatusListed, true},
		{ItemStatusDepositable, ItemStatusRetrieved, true},
		{ItemStatusDepositable, ItemStatusSold, false},
		{ItemStatusListed, ItemStatusSold, true},
		{ItemStatusListed, ItemStatusRetrieved, true},
		{ItemStatusListed, ItemStatusDepositable, true},
		{ItemStatusSold, ItemStatusListed, false},
		{ItemStatusSold, ItemStatusRetrieved, false},
		{ItemStatusRetrieved, ItemStatusListed, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Fatalf("%s -> %s: expected %v got %v", tt.from, tt.to, tt.want, got)
		}
	}
}

func TestItemStatusTerminal(t *testing.T) {
	if !ItemStatusSold.IsTerminal() || !ItemStatusRetrieved.IsTerminal() {
		t.Fatalf("sold and retrieved must be terminal")
	}
	if ItemStatusListed.IsTerminal() || ItemStatusDepositable.IsTerminal() {
		t.Fatalf("listed and depositable must not be terminal")
	}
}

func TestStatusesLeadingTo(t *testing.T) {
	if got := StatusesLeadingTo(ItemStatusRetrieved); !reflect.DeepEqual(got, []ItemStatus{ItemStatusDepositable, ItemStatusListed}) {
		t.Fatalf("unexpected retrievable statuses %v", got)
	}
	if got := StatusesLeadingTo(ItemStatusSold); !reflect.DeepEqual(got, []ItemStatus{ItemStatusListed}) {
		t.Fatalf("unexpected sellable statuses %v", got)
	}
}

func TestParseItemStatus(t *testing.T) {
	if got, err := ParseItemStatus("listed"); err != nil || got != ItemStatusListed {
		t.Fatalf("expected listed, got %q err=%v", got, err)
	}
	if _, err := ParseItemStatus("vendu"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}
