package booking

import "testing"

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from Status
		ev   Event
		to   Status
		ok   bool
	}{
		{StatusBooked, EventReceive, StatusReceived, true},
		{StatusBooked, EventReject, StatusRejected, true},
		{StatusBooked, EventStartOffloading, "", false},
		{StatusBooked, EventExit, "", false},
		{StatusReceived, EventStartOffloading, StatusOffloading, true},
		{StatusReceived, EventUnreceive, StatusBooked, true},
		{StatusReceived, EventReject, StatusRejected, true},
		{StatusReceived, EventReceive, "", false},
		{StatusOffloading, EventCompleteOffloading, StatusOffloaded, true},
		{StatusOffloading, EventReject, "", false},
		{StatusOffloaded, EventExit, StatusExited, true},
		{StatusOffloaded, EventCompleteOffloading, "", false},
	}
	for _, c := range cases {
		to, ok := NextStatus(c.from, c.ev)
		if ok != c.ok {
			t.Fatalf("%s + %s: expected ok=%v, got %v", c.from, c.ev, c.ok, ok)
		}
		if ok && to != c.to {
			t.Fatalf("%s + %s: expected %s, got %s", c.from, c.ev, c.to, to)
		}
	}
}

func TestTerminalStatesHaveNoTransitions(t *testing.T) {
	events := []Event{
		EventReceive, EventUnreceive, EventReject,
		EventStartOffloading, EventCompleteOffloading, EventExit,
	}
	for _, s := range []Status{StatusExited, StatusRejected} {
		if !s.Terminal() {
			t.Fatalf("expected %s terminal", s)
		}
		for _, ev := range events {
			if CanTransition(s, ev) {
				t.Fatalf("expected no transition from %s via %s", s, ev)
			}
		}
	}
}

func TestParseStatus(t *testing.T) {
	if _, err := ParseStatus("offloading"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseStatus("pending"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestParseRejectionReason(t *testing.T) {
	for _, s := range []string{"Documentation Mismatch", "Quality Issue", "Overweight", "No Space", "Other"} {
		if _, err := ParseRejectionReason(s); err != nil {
			t.Fatalf("unexpected error for %q: %v", s, err)
		}
	}
	if _, err := ParseRejectionReason("Bad Mood"); err == nil {
		t.Fatalf("expected error for unknown reason")
	}
}

func TestParseApprovalStatus(t *testing.T) {
	if _, err := ParseApprovalStatus("pending"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseApprovalStatus("maybe"); err == nil {
		t.Fatalf("expected error for unknown approval status")
	}
}
