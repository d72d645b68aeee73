package packager

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// UnsupportedFormatError reports a lookup for a (platform, format) pair
// that has no registered packager. It lists the formats that ARE
// registered for the platform to aid diagnosis.
type UnsupportedFormatError struct {
	// Platform is the requested platform.
	Platform Platform
	// Format is the requested format.
	Format Format
	// Registered lists the formats available for the platform.
	Registered []Format
}

// Error implements the error interface.
func (e *UnsupportedFormatError) Error() string {
	if len(e.Registered) == 0 {
		return fmt.Sprintf("no packager registered for %s/%s (no formats registered for %s)",
			e.Platform, e.Format, e.Platform)
	}

	names := make([]string, len(e.Registered))
	for i, format := range e.Registered {
		names[i] = string(format)
	}

	return fmt.Sprintf("no packager registered for %s/%s, registered formats for %s: %s",
		e.Platform, e.Format, e.Platform, strings.Join(names, ", "))
}

// Constructor builds a packager instance for one registered target.
type Constructor func() Packager

// Registry maps (platform, format) targets to packager constructors.
// It is built explicitly at process start; registration is rejected once
// dispatch has begun, which makes lookups safe for concurrent use
// without locking.
type Registry struct {
	// constructors maps targets to their packager constructors.
	constructors map[Target]Constructor
	// order retains per-platform registration order for listings.
	order map[Platform][]Format
	// frozen flips on the first lookup; registration is rejected after.
	frozen atomic.Bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		constructors: make(map[Target]Constructor),
		order:        make(map[Platform][]Format),
	}
}

// Register binds a target to a packager constructor. Registration after
// the first lookup is rejected: the registry must be fully populated
// before dispatch begins.
func (r *Registry) Register(target Target, ctor Constructor) error {
	if r.frozen.Load() {
		return fmt.Errorf("register %s: registry is frozen after first lookup", target)
	}

	if ctor == nil {
		return fmt.Errorf("register %s: nil constructor", target)
	}

	if _, exists := r.constructors[target]; exists {
		return fmt.Errorf("register %s: already registered", target)
	}

	r.constructors[target] = ctor
	r.order[target.Platform] = append(r.order[target.Platform], target.Format)

	return nil
}

// Get returns the constructor for a target, freezing the registry.
func (r *Registry) Get(target Target) (Constructor, error) {
	r.frozen.Store(true)

	ctor, ok := r.constructors[target]
	if !ok {
		return nil, &UnsupportedFormatError{
			Platform:   target.Platform,
			Format:     target.Format,
			Registered: r.Formats(target.Platform),
		}
	}

	return ctor, nil
}

// Formats lists the registered formats for a platform in registration order.
func (r *Registry) Formats(platform Platform) []Format {
	formats := r.order[platform]
	out := make([]Format, len(formats))
	copy(out, formats)

	return out
}
