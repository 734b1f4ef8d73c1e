package instancer

import "github.com/Carmen-Shannon/oxy-particles/common"

// InstancerOption is a functional option for configuring an Instancer via NewInstancer.
type InstancerOption func(*instancer)

// WithLabel sets the label prefix of every provider the Instancer creates.
//
// Parameters:
//   - label: the debug label
//
// Returns:
//   - InstancerOption: a function that applies the label option
func WithLabel(label string) InstancerOption {
	return func(in *instancer) {
		in.label = label
	}
}

// WithLogger sets the logger used for allocation diagnostics.
func WithLogger(l common.Logger) InstancerOption {
	return func(in *instancer) {
		in.logger = l
	}
}
