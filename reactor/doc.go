// Copyright (c) 2026
// Author: momentics <momentics@gmail.com>

// Package reactor provides the platform readiness backends behind api.Poller:
// a level-triggered epoll reactor on Linux and a kqueue reactor on BSD and
// Darwin, each with an integrated cross-thread wakeup descriptor (eventfd on
// Linux, self-pipe on kqueue platforms).
//
// Level-triggered operation is deliberate: the loop's read path may skip a
// ready descriptor when its allocator slot is busy, and relies on the next
// wait to report the descriptor again.
package reactor
