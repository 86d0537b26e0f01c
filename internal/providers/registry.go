package providers

import (
	"fmt"
	"sort"

	"github.com/brilliance/launcher-gateway/internal/apperr"
)

type set struct {
	adapters map[string]Adapter
}

// NewSet builds a Resolver over a closed list of adapters. Adding a
// provider means implementing Adapter and listing it here, not extending a
// dispatch table somewhere else.
func NewSet(adapters ...Adapter) Resolver {
	m := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Name()] = a
	}
	return &set{adapters: m}
}

func (s *set) ForName(name string) (Adapter, error) {
	a, ok := s.adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: provider %q", apperr.ErrNotFound, name)
	}
	return a, nil
}

func (s *set) Names() []string {
	names := make([]string, 0, len(s.adapters))
	for name := range s.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
