package enums

import "testing"

func TestOrderStatusIsValid(t *testing.T) {
	for _, status := range validOrderStatuses {
		if !status.IsValid() {
			t.Fatalf("%q should be valid", status)
		}
	}
	if OrderStatus("").IsValid() {
		t.Fatal("the statusless marker must not validate")
	}
	if OrderStatus("refunded").IsValid() {
		t.Fatal("unknown status must not validate")
	}
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("shipped")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if status != OrderStatusShipped {
		t.Fatalf("unexpected status %q", status)
	}

	if _, err := ParseOrderStatus("SHIPPED"); err == nil {
		t.Fatal("statuses are case sensitive")
	}
	if _, err := ParseOrderStatus(""); err == nil {
		t.Fatal("empty input must not parse")
	}
}
