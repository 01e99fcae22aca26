package monitor

import (
	"errors"
	"fmt"
	"testing"

	"github.com/pvmon/pvmon-go/pkg/pv"
)

func TestRegistryAddRemove(t *testing.T) {
	r := NewRegistry(4)

	if err := r.Add("A", 1); err != nil {
		t.Fatalf("Add A: %v", err)
	}
	if err := r.Add("B", 2); err != nil {
		t.Fatalf("Add B: %v", err)
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}

	h, err := r.Remove("A")
	if err != nil || h != 1 {
		t.Fatalf("Remove A = %d, %v; want 1, nil", h, err)
	}
	if _, ok := r.Lookup("A"); ok {
		t.Error("A still registered after Remove")
	}
	if _, err := r.Remove("A"); !errors.Is(err, ErrChannelNotFound) {
		t.Errorf("second Remove = %v, want ErrChannelNotFound", err)
	}

	// The freed first slot is reused.
	if err := r.Add("C", 3); err != nil {
		t.Fatalf("Add C: %v", err)
	}
	if got := r.Names(); len(got) != 2 || got[0] != "C" || got[1] != "B" {
		t.Errorf("Names = %v, want [C B]", got)
	}
}

func TestRegistryOverflow(t *testing.T) {
	const n = 5
	r := NewRegistry(n)
	for i := range n {
		if err := r.Add(fmt.Sprintf("pv%d", i), pv.Handle(i+1)); err != nil {
			t.Fatalf("Add %d: %v", i, err)
		}
	}

	err := r.Add("one-too-many", n+1)
	if !errors.Is(err, ErrRegistryFull) {
		t.Fatalf("Add N+1 = %v, want ErrRegistryFull", err)
	}
	if r.Len() != n {
		t.Errorf("Len = %d, want %d", r.Len(), n)
	}
	if _, ok := r.Lookup("one-too-many"); ok {
		t.Error("overflowing name was registered")
	}
}

func TestRegistryDuplicateNames(t *testing.T) {
	r := NewRegistry(0)
	if r.Capacity() != DefaultRegistryCapacity {
		t.Errorf("Capacity = %d, want %d", r.Capacity(), DefaultRegistryCapacity)
	}

	r.Add("X", 10)
	r.Add("X", 11)

	h, _ := r.Remove("X")
	if h != 10 {
		t.Errorf("first Remove = %d, want 10", h)
	}
	h, _ = r.Remove("X")
	if h != 11 {
		t.Errorf("second Remove = %d, want 11", h)
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
}

func TestRegistryRejectsNoHandle(t *testing.T) {
	r := NewRegistry(1)
	if err := r.Add("X", pv.NoHandle); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Add(NoHandle) = %v, want ErrInvalidHandle", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
}
