// Copyright (c) 2026
// Author: momentics <momentics@gmail.com>

// Package loop implements the single-threaded reactor at the heart of
// hioload-evloop. A Loop multiplexes heterogeneous handles (sockets, pipes,
// TTYs, timers, processes, filesystem watchers) over one platform poller and
// delivers every callback on the goroutine driving Run.
//
// One iteration: run idle and prepare handles, block in the poller up to the
// next timer deadline, dispatch readiness callbacks, fire expired timers in
// deadline-then-registration order, drain the pending FIFO, run check
// handles, then finalize closing handles. Close callbacks never fire inside
// the call that requested closure.
//
// Cross-thread interaction is limited to Loop.Submit and Async.Send; all
// other methods belong to the loop goroutine.
package loop
