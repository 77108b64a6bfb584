package types

import "testing"

func TestRoleIsValid(t *testing.T) {
	for _, r := range []Role{RoleSystem, RoleUser, RoleAssistant} {
		if !r.IsValid() {
			t.Errorf("IsValid(%s) = false, want true", r)
		}
	}
	if Role("caller").IsValid() {
		t.Error("IsValid(caller) = true, want false")
	}
}

func TestNewTurnStampsTime(t *testing.T) {
	turn := NewTurn(RoleUser, "vorrei prenotare")
	if turn.At.IsZero() {
		t.Fatal("NewTurn did not stamp At")
	}
	if turn.Role != RoleUser || turn.Text != "vorrei prenotare" {
		t.Fatalf("unexpected turn: %+v", turn)
	}
}
