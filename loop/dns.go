// File: loop/dns.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Asynchronous name resolution. Lookups run on the worker pool through the
// standard resolver; Cancel aborts the in-flight lookup via its context.

package loop

import (
	"context"
	"net"
	"sync/atomic"

	"github.com/momentics/hioload-evloop/api"
)

// DNSRequest tracks one in-flight resolution.
type DNSRequest struct {
	loop     *Loop
	cancel   context.CancelFunc
	canceled atomic.Bool
}

// Cancel aborts the lookup. The completion callback still fires exactly
// once, carrying ECANCELED if the cancel won the race.
func (r *DNSRequest) Cancel() {
	r.canceled.Store(true)
	r.cancel()
}

// startDNS accounts the request and ships the lookup to the pool. Mirrors
// startFs but threads a cancelable context into the work.
func startDNS[T any](l *Loop, work func(context.Context) (T, error), cb func(T, error)) *DNSRequest {
	ctx, cancel := context.WithCancel(context.Background())
	r := &DNSRequest{loop: l, cancel: cancel}
	l.addRequest()
	finish := func(v T, err error) {
		_ = l.Submit(func() {
			l.doneRequest()
			if cb != nil {
				cb(v, err)
			}
		})
	}
	err := l.executorLazy().Submit(func() {
		defer cancel()
		var zero T
		if r.canceled.Load() {
			finish(zero, api.NewCodeError(api.ECANCELED, nil))
			return
		}
		v, werr := work(ctx)
		if werr != nil {
			if r.canceled.Load() {
				finish(zero, api.NewCodeError(api.ECANCELED, werr))
			} else {
				finish(zero, api.ErrnoError(werr))
			}
			return
		}
		finish(v, nil)
	})
	if err != nil {
		cancel()
		var zero T
		l.defer_(func() {
			l.doneRequest()
			if cb != nil {
				cb(zero, api.NewCodeError(api.ECANCELED, err))
			}
		})
	}
	return r
}

// GetAddrInfo resolves host to its IP addresses.
func GetAddrInfo(l *Loop, host string, cb func([]net.IPAddr, error)) *DNSRequest {
	return startDNS(l, func(ctx context.Context) ([]net.IPAddr, error) {
		return net.DefaultResolver.LookupIPAddr(ctx, host)
	}, cb)
}

// GetNameInfo resolves addr back to hostnames.
func GetNameInfo(l *Loop, addr string, cb func([]string, error)) *DNSRequest {
	return startDNS(l, func(ctx context.Context) ([]string, error) {
		return net.DefaultResolver.LookupAddr(ctx, addr)
	}, cb)
}
