package monitor

import (
	"fmt"

	"github.com/pvmon/pvmon-go/pkg/pv"
)

// DefaultRegistryCapacity is the number of channels a registry tracks.
const DefaultRegistryCapacity = 100

type registryEntry struct {
	name   string
	handle pv.Handle
}

// Registry is a fixed-capacity table of (name, handle) pairs. A slot is free
// when its handle is pv.NoHandle. Names need not be unique; lookups return
// the first match in slot order.
type Registry struct {
	slots []registryEntry
	used  int
}

// NewRegistry creates a registry with capacity slots. A non-positive
// capacity selects DefaultRegistryCapacity.
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultRegistryCapacity
	}
	return &Registry{slots: make([]registryEntry, capacity)}
}

// Add stores the pair in the first free slot.
func (r *Registry) Add(name string, h pv.Handle) error {
	if h == pv.NoHandle {
		return ErrInvalidHandle
	}
	for i := range r.slots {
		if r.slots[i].handle == pv.NoHandle {
			r.slots[i] = registryEntry{name: name, handle: h}
			r.used++
			return nil
		}
	}
	return fmt.Errorf("add %s: %w (capacity %d)", name, ErrRegistryFull, len(r.slots))
}

// Remove frees the first slot holding name and returns its handle.
func (r *Registry) Remove(name string) (pv.Handle, error) {
	for i := range r.slots {
		if r.slots[i].handle != pv.NoHandle && r.slots[i].name == name {
			h := r.slots[i].handle
			r.slots[i] = registryEntry{}
			r.used--
			return h, nil
		}
	}
	return pv.NoHandle, fmt.Errorf("remove %s: %w", name, ErrChannelNotFound)
}

// Lookup returns the handle of the first slot holding name.
func (r *Registry) Lookup(name string) (pv.Handle, bool) {
	for _, e := range r.slots {
		if e.handle != pv.NoHandle && e.name == name {
			return e.handle, true
		}
	}
	return pv.NoHandle, false
}

// Len returns the number of used slots.
func (r *Registry) Len() int {
	return r.used
}

// Capacity returns the number of slots.
func (r *Registry) Capacity() int {
	return len(r.slots)
}

// Names returns the registered names in slot order.
func (r *Registry) Names() []string {
	names := make([]string, 0, r.used)
	for _, e := range r.slots {
		if e.handle != pv.NoHandle {
			names = append(names, e.name)
		}
	}
	return names
}

// removeHandle frees the slot holding h, if any.
func (r *Registry) removeHandle(h pv.Handle) bool {
	for i := range r.slots {
		if r.slots[i].handle == h {
			r.slots[i] = registryEntry{}
			r.used--
			return true
		}
	}
	return false
}
