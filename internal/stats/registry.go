package stats

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pastats/pastats/internal/errors"
)

// All returns every stats module in display order.
func All() []Module {
	return []Module{
		SystemModule(),
		InterfacesModule(),
		RoutingModule(),
		VPNModule(),
		GlobalProtectModule(),
		CountersModule(),
	}
}

// ByName resolves module names, accepting any order and rejecting
// unknown names with the valid set in the error.
func ByName(names ...string) ([]Module, error) {
	index := make(map[string]Module)
	for _, m := range All() {
		index[m.Name] = m
	}

	modules := make([]Module, 0, len(names))
	for _, name := range names {
		m, ok := index[name]
		if !ok {
			return nil, errors.New(errors.ErrConfig,
				fmt.Sprintf("Unknown stats module %q", name),
				"Valid modules: "+strings.Join(Names(), ", "))
		}
		modules = append(modules, m)
	}
	return modules, nil
}

// Names returns the sorted module names for help text and validation.
func Names() []string {
	names := make([]string, 0, len(All()))
	for _, m := range All() {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names
}
