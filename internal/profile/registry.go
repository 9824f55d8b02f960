package profile

import (
	"fmt"
	"strings"
)

// Registry is a fixed, ordered set of profiles with a designated default.
// It is never modified after construction.
type Registry struct {
	profiles []Profile
	def      int
}

// Builtin returns the registry of built-in profiles.
func Builtin() *Registry {
	r, err := NewRegistry([]Profile{Easy, Normal, Hard}, DefaultName)
	if err != nil {
		panic(err)
	}
	return r
}

// NewRegistry validates the profiles and builds a registry. defaultName must
// name one of them.
func NewRegistry(profiles []Profile, defaultName string) (*Registry, error) {
	if len(profiles) == 0 {
		return nil, fmt.Errorf("no profiles defined")
	}
	r := &Registry{profiles: make([]Profile, 0, len(profiles)), def: -1}
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if r.index(p.Name) >= 0 {
			return nil, fmt.Errorf("duplicate profile %q", p.Name)
		}
		r.profiles = append(r.profiles, p)
	}
	r.def = r.index(defaultName)
	if r.def < 0 {
		return nil, fmt.Errorf("default profile %q not defined", defaultName)
	}
	return r, nil
}

// WithOverrides returns a new registry where each named profile has its
// override applied. Unknown names are an error.
func (r *Registry) WithOverrides(overrides map[string]Override) (*Registry, error) {
	profiles := r.List()
	for name, o := range overrides {
		idx := r.index(name)
		if idx < 0 {
			return nil, fmt.Errorf("unknown profile %q in overrides", name)
		}
		profiles[idx] = o.Apply(profiles[idx])
	}
	return NewRegistry(profiles, r.profiles[r.def].Name)
}

// Get returns the named profile, or the default profile when name is unknown.
func (r *Registry) Get(name string) Profile {
	if idx := r.index(name); idx >= 0 {
		return r.profiles[idx]
	}
	return r.profiles[r.def]
}

// Lookup returns the named profile and whether it exists.
func (r *Registry) Lookup(name string) (Profile, bool) {
	idx := r.index(name)
	if idx < 0 {
		return Profile{}, false
	}
	return r.profiles[idx], true
}

// Default returns the default profile.
func (r *Registry) Default() Profile {
	return r.profiles[r.def]
}

// List returns the profiles in registration order.
func (r *Registry) List() []Profile {
	out := make([]Profile, len(r.profiles))
	copy(out, r.profiles)
	return out
}

// Names returns the profile names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.profiles))
	for i, p := range r.profiles {
		names[i] = p.Name
	}
	return names
}

func (r *Registry) index(name string) int {
	name = strings.TrimSpace(name)
	for i, p := range r.profiles {
		if strings.EqualFold(p.Name, name) {
			return i
		}
	}
	return -1
}
