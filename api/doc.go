// Copyright (c) 2026
// Author: momentics <momentics@gmail.com>

// Package api declares the shared contracts of the hioload-evloop engine:
// handle kinds, run modes, readiness event masks, the platform poller
// abstraction, the read-buffer allocation strategy and the error taxonomy.
// Implementations live in the reactor, pool and loop packages.
package api
