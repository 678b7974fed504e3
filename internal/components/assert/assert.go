package assert

import "fmt"

// NotNil panics when value is nil. It is meant for constructor arguments
// that are programmer-supplied dependencies, not for runtime input.
func NotNil(value any, name string) {
	if value == nil {
		panic(fmt.Sprintf("expected %s to be not nil", name))
	}
}
