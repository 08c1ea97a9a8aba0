package actor

import (
	"testing"
	"time"
)

func TestSignAndVerifyToken(t *testing.T) {
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	a := Actor{ID: "op-7", Name: "Priya", Role: RoleGateOperator}

	tok, err := SignToken(a, "test-secret", time.Hour, now)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	got, err := VerifyToken(tok, "test-secret", now.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.ID != a.ID || got.Name != a.Name || got.Role != a.Role {
		t.Fatalf("unexpected actor: %+v", got)
	}
}

func TestVerifyTokenExpired(t *testing.T) {
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	tok, err := SignToken(Actor{ID: "u1", Role: RoleViewer}, "test-secret", time.Hour, now)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := VerifyToken(tok, "test-secret", now.Add(2*time.Hour)); err == nil {
		t.Fatal("expected expiry error")
	}
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	now := time.Now()
	tok, err := SignToken(Actor{ID: "u1", Role: RoleViewer}, "secret-a", time.Hour, now)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := VerifyToken(tok, "secret-b", now); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestVerifyTokenUnknownRole(t *testing.T) {
	now := time.Now()
	tok, err := SignToken(Actor{ID: "u1", Role: Role("superuser")}, "test-secret", time.Hour, now)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := VerifyToken(tok, "test-secret", now); err == nil {
		t.Fatal("expected role error")
	}
}

func TestVerifyTokenMissingInputs(t *testing.T) {
	if _, err := VerifyToken("", "s", time.Now()); err == nil {
		t.Fatal("expected error for empty token")
	}
	if _, err := VerifyToken("x.y.z", "", time.Now()); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := SignToken(Actor{ID: "u1"}, "", time.Hour, time.Now()); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestRoleCapabilities(t *testing.T) {
	cases := []struct {
		role Role
		cap  Capability
		want bool
	}{
		{RoleAdmin, CapManage, true},
		{RoleSupervisor, CapApprove, true},
		{RoleSupervisor, CapManage, false},
		{RoleGateOperator, CapReceive, true},
		{RoleGateOperator, CapApprove, false},
		{RoleViewer, CapReceive, false},
		{Role("unknown"), CapReceive, false},
	}
	for _, c := range cases {
		got := Actor{ID: "x", Role: c.role}.Has(c.cap)
		if got != c.want {
			t.Fatalf("%s.Has(%s): expected %v, got %v", c.role, c.cap, c.want, got)
		}
	}
	if !(Actor{Role: RoleGateOperator}).RequiresApproval() {
		t.Fatal("gate operator bookings must require approval")
	}
	if (Actor{Role: RoleSupervisor}).RequiresApproval() {
		t.Fatal("supervisor bookings must not require approval")
	}
}
