// File: loop/probes.go
// Author: momentics <momentics@gmail.com>
//
// Debug probe publication for runtime inspection.

package loop

import "github.com/momentics/hioload-evloop/control"

// Iterations returns the total number of completed loop iterations.
func (l *Loop) Iterations() int64 { return l.iterations.Load() }

// RegisterProbes publishes loop counters into a probe registry. Probe
// reads are safe from any goroutine; they touch only atomic counters.
func (l *Loop) RegisterProbes(dp *control.DebugProbes) {
	dp.RegisterProbe("loop.handles", func() any { return l.HandleCount() })
	dp.RegisterProbe("loop.requests", func() any { return l.RequestCount() })
	dp.RegisterProbe("loop.iterations", func() any { return l.Iterations() })
}
