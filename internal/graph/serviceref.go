package graph

import "weak"

// ServiceRef is a non-owning reference to a shared, immutable service
// (an HRTF or SOS service, or a derived ambisonic BIR table) carried
// on an HRTF-ref/SOS-ref/ambisonic-BIR-ref typed port (spec.md §3,
// §4.1 "Ownership": "services are referenced weakly through a
// reference-type port so that a swap at setup time does not dangle
// active pointers"). Built on the standard library's weak.Pointer, the
// direct Go analogue of the original's std::weak_ptr.
type ServiceRef[T any] struct {
	ptr weak.Pointer[T]
	set bool
}

// NewServiceRef wraps svc in a weak reference. svc must outlive the
// ServiceRef only as long as some other owner keeps a strong
// reference; once that owner drops it, Lock starts failing.
func NewServiceRef[T any](svc *T) ServiceRef[T] {
	if svc == nil {
		return ServiceRef[T]{}
	}
	return ServiceRef[T]{ptr: weak.Make(svc), set: true}
}

// Lock attempts to recover a strong pointer to the referenced service.
// Consumers call this once per frame and, on failure (ok == false),
// must emit a silent buffer and record a non-fatal error (spec.md
// §4.1, §4.7 "Missing or null service reference during frame tick").
func (r ServiceRef[T]) Lock() (svc *T, ok bool) {
	if !r.set {
		return nil, false
	}
	svc = r.ptr.Value()
	return svc, svc != nil
}

// IsSet reports whether the reference was ever assigned a service
// (distinct from the service having since been collected).
func (r ServiceRef[T]) IsSet() bool { return r.set }
