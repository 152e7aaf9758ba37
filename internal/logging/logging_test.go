package logging

import "testing"

func TestNew(t *testing.T) {
	l, err := New(true)
	if err != nil {
		t.Fatalf("New(true): %v", err)
	}
	if l == nil {
		t.Fatal("New(true) returned a nil logger")
	}

	l, err = New(false)
	if err != nil {
		t.Fatalf("New(false): %v", err)
	}
	if l == nil {
		t.Fatal("New(false) returned a nil logger")
	}
}

func TestNop(t *testing.T) {
	if Nop() == nil {
		t.Fatal("Nop() returned a nil logger")
	}
}
