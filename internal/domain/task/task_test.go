package task

import "testing"

func TestNewIsPending(t *testing.T) {
	tk := New("write docs", nil, TypeCode, "req-1")
	if tk.Status != StatusPending {
		t.Fatalf("expected pending, got %s", tk.Status)
	}
	if tk.ID == "" || tk.RequestID != "req-1" || tk.Type != TypeCode {
		t.Fatalf("unexpected task: %+v", tk)
	}
}

func TestAssign(t *testing.T) {
	tk := New("write docs", nil, TypeCode, "")
	if err := tk.Assign("coder"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tk.Status != StatusAssigned || tk.Assignee != "coder" {
		t.Fatalf("unexpected task: %+v", tk)
	}

	if err := tk.Assign("other"); err == nil {
		t.Fatal("reassigning a non-pending task must fail")
	}
	if tk.Assignee != "coder" {
		t.Fatalf("assignee must not change on rejected assign: %s", tk.Assignee)
	}
}

func TestComplete(t *testing.T) {
	tk := New("write docs", nil, TypeCode, "")

	if err := tk.Complete(); err == nil {
		t.Fatal("completing a pending task must fail")
	}

	tk.Assign("coder")
	if err := tk.Complete(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tk.Status != StatusComplete {
		t.Fatalf("expected complete, got %s", tk.Status)
	}

	// Duplicate completion stays harmless.
	if err := tk.Complete(); err != nil {
		t.Fatalf("repeat completion must be a no-op: %v", err)
	}
}
