package detection

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultLocator is the name of the pure Go locator.
const DefaultLocator = "contour"

// locators maps config names to constructors. Builds with the gocv tag add
// "gocv".
var locators = map[string]func() Locator{
	DefaultLocator: func() Locator { return ContourLocator{} },
}

// NewLocator returns the locator registered under name. The empty string
// selects DefaultLocator.
func NewLocator(name string) (Locator, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultLocator
	}
	newFn, ok := locators[name]
	if !ok {
		return nil, fmt.Errorf("unknown locator %q (available: %s)", name, strings.Join(LocatorNames(), ", "))
	}
	return newFn(), nil
}

// LocatorNames lists the locators compiled into this build, sorted.
func LocatorNames() []string {
	names := make([]string, 0, len(locators))
	for name := range locators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
