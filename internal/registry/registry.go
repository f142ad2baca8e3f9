// Package registry holds the Pair Registry: the symmetric binding between
// two paired clients. Like pool.Pool, Registry performs no locking of its
// own — session.Core serializes access as part of its single critical
// section.
package registry

// Registry is a symmetric map from client ID to partner client ID. If
// A -> B is present, B -> A is also present.
type Registry struct {
	partners map[string]string
}

// New returns an empty Registry ready for use.
func New() *Registry {
	return &Registry{partners: make(map[string]string)}
}

// Bind installs a symmetric binding between a and b. The caller guarantees
// neither is currently bound.
func (r *Registry) Bind(a, b string) {
	r.partners[a] = b
	r.partners[b] = a
}

// PartnerOf returns the partner of id, if any.
func (r *Registry) PartnerOf(id string) (string, bool) {
	partner, ok := r.partners[id]
	return partner, ok
}

// Unbind removes both sides of id's binding, if one exists, and returns the
// former partner.
func (r *Registry) Unbind(id string) (string, bool) {
	partner, ok := r.partners[id]
	if !ok {
		return "", false
	}
	delete(r.partners, id)
	delete(r.partners, partner)
	return partner, true
}
