package agent

import "fmt"

// Policy decides whether a tool may run with the capabilities it declares.
// The dispatcher consults it on every invocation; denial becomes an error
// result for the model, never a crash.
type Policy interface {
	Authorize(name string, caps []Capability) error
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc func(name string, caps []Capability) error

func (f PolicyFunc) Authorize(name string, caps []Capability) error {
	return f(name, caps)
}

// AllowAll permits every tool and capability.
func AllowAll() Policy {
	return PolicyFunc(func(string, []Capability) error { return nil })
}

// Allow permits only the listed capabilities.
func Allow(granted ...Capability) Policy {
	set := make(map[Capability]bool, len(granted))
	for _, c := range granted {
		set[c] = true
	}
	return PolicyFunc(func(name string, caps []Capability) error {
		for _, c := range caps {
			if !set[c] {
				return fmt.Errorf("tool %s requires capability %q which is not granted", name, c)
			}
		}
		return nil
	})
}
