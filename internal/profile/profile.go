// Package profile turns the CLI's --profile flag into a running
// github.com/pkg/profile session.
package profile

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/pkg/profile"
)

var modes = map[string]func(*profile.Profile){
	"block":     profile.BlockProfile,
	"cpu":       profile.CPUProfile,
	"clock":     profile.ClockProfile,
	"goroutine": profile.GoroutineProfile,
	"mem":       profile.MemProfile,
	"allocs":    profile.MemProfileAllocs,
	"heap":      profile.MemProfileHeap,
	"mutex":     profile.MutexProfile,
	"thread":    profile.ThreadcreationProfile,
	"trace":     profile.TraceProfile,
}

// Modes lists the supported profiling modes in sorted order.
var Modes = sync.OnceValue(func() []string {
	return slices.Sorted(maps.Keys(modes))
})

// Stopper ends a profiling session and flushes its output.
type Stopper interface{ Stop() }

type ignore struct{}

func (ignore) Stop() {}

// Profiler describes one profiling session. The zero value profiles
// nothing.
type Profiler struct {
	Mode  string
	Path  string // output directory; empty lets pkg/profile pick a temp dir
	Quiet bool
}

// Validate reports an unknown mode.
func (p Profiler) Validate() error {
	if p.Mode == "" {
		return nil
	}
	if _, ok := modes[p.Mode]; !ok {
		return fmt.Errorf("unknown profile mode %q (want one of %v)", p.Mode, Modes())
	}
	return nil
}

func (p Profiler) options() []func(*profile.Profile) {
	fn, ok := modes[p.Mode]
	if !ok {
		return nil
	}
	opts := []func(*profile.Profile){fn, profile.NoShutdownHook}
	if p.Path != "" {
		opts = append(opts, profile.ProfilePath(p.Path))
	}
	if p.Quiet {
		opts = append(opts, profile.Quiet)
	}
	return opts
}

// Start begins profiling. With no mode, or an unknown one, it returns a
// Stopper that does nothing.
func (p Profiler) Start() Stopper {
	opts := p.options()
	if len(opts) == 0 {
		return ignore{}
	}
	return profile.Start(opts...)
}
