//go:build unix

// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

// stream_unix_test.go — Stream handles over real descriptors: socketpair
// pipes, TCP loopback and UDP datagrams.
package loop_test

import (
	"bytes"
	"net"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-evloop/api"
	"github.com/momentics/hioload-evloop/fake"
	"github.com/momentics/hioload-evloop/loop"
	"github.com/momentics/hioload-evloop/sockaddr"
)

func socketpair(t *testing.T) (int, int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("Socketpair: %v", err)
	}
	return fds[0], fds[1]
}

// TestStream_CanceledWriteCompletesBeforeCloseCallback closes a stream with
// a queued write from the check phase. The poller never reports the fd
// writable, so the write is still pending when teardown runs; its ECANCELED
// callback must precede the close callback even though both land in the
// same iteration's close phase.
func TestStream_CanceledWriteCompletesBeforeCloseCallback(t *testing.T) {
	l, err := loop.New(loop.WithPoller(fake.NewPoller()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	fd0, fd1 := socketpair(t)
	defer unix.Close(fd1)

	p, err := loop.NewPipe(l)
	if err != nil {
		t.Fatalf("NewPipe: %v", err)
	}
	if err := p.Open(fd0); err != nil {
		t.Fatalf("Open: %v", err)
	}

	var order []string
	err = p.Write([][]byte{[]byte("stranded")}, func(err error) {
		if api.CodeOf(err) != api.ECANCELED {
			t.Errorf("canceled write: got %v, want ECANCELED", err)
		}
		order = append(order, "write")
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	kick, err := loop.NewTimer(l)
	if err != nil {
		t.Fatalf("NewTimer: %v", err)
	}
	kick.Start(func(tm *loop.Timer) { tm.Close(nil) }, 0, 0)

	c, err := loop.NewCheck(l)
	if err != nil {
		t.Fatalf("NewCheck: %v", err)
	}
	if err := c.Start(func(c *loop.Check) {
		p.Close(func() { order = append(order, "close") })
		c.Close(nil)
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := l.Run(api.RunDefault); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"write", "close"}
	if len(order) != len(want) || order[0] != want[0] || order[1] != want[1] {
		t.Fatalf("callback order = %v, want %v", order, want)
	}
}

func TestPipe_MultiBufferWriteSingleCallback(t *testing.T) {
	l := newRealLoop(t)
	guard(t, l, 5*time.Second)
	fd0, fd1 := socketpair(t)

	w, err := loop.NewPipe(l)
	if err != nil {
		t.Fatalf("NewPipe: %v", err)
	}
	if err := w.Open(fd0); err != nil {
		t.Fatalf("Open writer: %v", err)
	}
	r, err := loop.NewPipe(l)
	if err != nil {
		t.Fatalf("NewPipe: %v", err)
	}
	if err := r.Open(fd1); err != nil {
		t.Fatalf("Open reader: %v", err)
	}

	var got []byte
	sawEOF := false
	writeCbs := 0

	err = r.ReadStart(func(data []byte, err error) {
		if err != nil {
			if api.CodeOf(err) != api.EOF {
				t.Errorf("read error: %v", err)
			}
			sawEOF = true
			r.Close(nil)
			return
		}
		got = append(got, data...)
	})
	if err != nil {
		t.Fatalf("ReadStart: %v", err)
	}

	bufs := [][]byte{[]byte("abc"), []byte("def"), []byte("ghi")}
	err = w.Write(bufs, func(err error) {
		if err != nil {
			t.Errorf("write callback: %v", err)
		}
		writeCbs++
		// Closing drops the descriptor, which surfaces EOF on the
		// reader side.
		w.Close(nil)
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	if _, err := l.Run(api.RunDefault); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if writeCbs != 1 {
		t.Errorf("write callback fired %d times for one request, want 1", writeCbs)
	}
	if !bytes.Equal(got, []byte("abcdefghi")) {
		t.Errorf("read %q, want %q", got, "abcdefghi")
	}
	if !sawEOF {
		t.Error("reader never saw EOF")
	}
}

func TestStream_WriteAfterShutdownFails(t *testing.T) {
	l := newRealLoop(t)
	guard(t, l, 5*time.Second)
	fd0, fd1 := socketpair(t)
	defer unix.Close(fd1)

	p, err := loop.NewPipe(l)
	if err != nil {
		t.Fatalf("NewPipe: %v", err)
	}
	if err := p.Open(fd0); err != nil {
		t.Fatalf("Open: %v", err)
	}

	shutDone := false
	if err := p.Shutdown(func(err error) {
		if err != nil {
			t.Errorf("shutdown callback: %v", err)
		}
		shutDone = true
	}); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := p.Write([][]byte{[]byte("x")}, nil); api.CodeOf(err) != api.EPIPE {
		t.Errorf("Write after Shutdown: got %v, want EPIPE", err)
	}

	p.Close(nil)
	if _, err := l.Run(api.RunDefault); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !shutDone {
		t.Error("shutdown callback never fired")
	}
}

func TestTCP_LoopbackEcho(t *testing.T) {
	l := newRealLoop(t)
	guard(t, l, 5*time.Second)

	server, err := loop.NewTCP(l)
	if err != nil {
		t.Fatalf("NewTCP: %v", err)
	}
	bindAddr, err := sockaddr.Parse("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := server.Bind(bindAddr); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	var accepted *loop.TCP
	err = server.Listen(16, func(err error) {
		if err != nil {
			t.Errorf("listen callback: %v", err)
			return
		}
		for {
			conn, err := server.Accept()
			if err != nil {
				return
			}
			accepted = conn
			conn.NoDelay(true)
			conn.ReadStart(func(data []byte, err error) {
				if err != nil {
					conn.Close(nil)
					return
				}
				out := append([]byte(nil), data...)
				conn.Write([][]byte{out}, nil)
			})
		}
	})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	addr, err := server.SockName()
	if err != nil {
		t.Fatalf("SockName: %v", err)
	}

	client, err := loop.NewTCP(l)
	if err != nil {
		t.Fatalf("NewTCP client: %v", err)
	}
	var echoed []byte
	err = client.Connect(addr, func(err error) {
		if err != nil {
			t.Errorf("connect: %v", err)
			l.CloseAll()
			return
		}
		client.ReadStart(func(data []byte, err error) {
			if err != nil {
				l.CloseAll()
				return
			}
			echoed = append(echoed, data...)
			if bytes.Equal(echoed, []byte("ping")) {
				client.Close(nil)
				server.Close(nil)
				if accepted != nil {
					accepted.Close(nil)
				}
			}
		})
		client.Write([][]byte{[]byte("ping")}, nil)
	})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if _, err := l.Run(api.RunDefault); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !bytes.Equal(echoed, []byte("ping")) {
		t.Errorf("echo = %q, want %q", echoed, "ping")
	}
}

func TestTCP_ConnectRefused(t *testing.T) {
	// Grab a free port and release it so the connect target is closed.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	l := newRealLoop(t)
	guard(t, l, 5*time.Second)
	c, err := loop.NewTCP(l)
	if err != nil {
		t.Fatalf("NewTCP: %v", err)
	}
	addr, _ := sockaddr.Parse("127.0.0.1", port)

	refused := false
	err = c.Connect(addr, func(err error) {
		if api.CodeOf(err) == api.ECONNREFUSED {
			refused = true
		} else {
			t.Errorf("connect callback: got %v, want ECONNREFUSED", err)
		}
		c.Close(nil)
	})
	if err != nil {
		// A loopback connect may fail synchronously; the code must
		// still be the portable one.
		if api.CodeOf(err) != api.ECONNREFUSED {
			t.Fatalf("Connect: got %v, want ECONNREFUSED", err)
		}
		refused = true
		c.Close(nil)
	}

	if _, err := l.Run(api.RunDefault); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !refused {
		t.Error("connection was not refused")
	}
}

func TestUDP_SendRecvRoundTrip(t *testing.T) {
	l := newRealLoop(t)
	guard(t, l, 5*time.Second)

	bindAddr, _ := sockaddr.Parse("127.0.0.1", 0)
	rx, err := loop.NewUDP(l)
	if err != nil {
		t.Fatalf("NewUDP: %v", err)
	}
	if err := rx.Bind(bindAddr); err != nil {
		t.Fatalf("Bind rx: %v", err)
	}
	rxAddr, err := rx.SockName()
	if err != nil {
		t.Fatalf("SockName: %v", err)
	}

	tx, err := loop.NewUDP(l)
	if err != nil {
		t.Fatalf("NewUDP: %v", err)
	}
	if err := tx.Bind(bindAddr); err != nil {
		t.Fatalf("Bind tx: %v", err)
	}
	txAddr, err := tx.SockName()
	if err != nil {
		t.Fatalf("SockName tx: %v", err)
	}

	var got []byte
	var from sockaddr.Addr
	err = rx.RecvStart(func(data []byte, src sockaddr.Addr, err error) {
		if err != nil {
			t.Errorf("recv: %v", err)
		} else {
			got = append([]byte(nil), data...)
			from = src
		}
		rx.Close(nil)
		tx.Close(nil)
	})
	if err != nil {
		t.Fatalf("RecvStart: %v", err)
	}

	sendCbs := 0
	err = tx.Send([][]byte{[]byte("da"), []byte("ta")}, rxAddr, func(err error) {
		if err != nil {
			t.Errorf("send callback: %v", err)
		}
		sendCbs++
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if _, err := l.Run(api.RunDefault); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !bytes.Equal(got, []byte("data")) {
		t.Errorf("received %q, want %q", got, "data")
	}
	if sendCbs != 1 {
		t.Errorf("send callback fired %d times, want 1", sendCbs)
	}
	if from.Port != txAddr.Port {
		t.Errorf("datagram source port %d, want %d", from.Port, txAddr.Port)
	}
}
