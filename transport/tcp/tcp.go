/*
 *    Copyright 2021 chenquan
 *
 *    Licensed under the Apache License, Version 2.0 (the "License");
 *    you may not use this file except in compliance with the License.
 *    You may obtain a copy of the License at
 *
 *        http://www.apache.org/licenses/LICENSE-2.0
 *
 *    Unless required by applicable law or agreed to in writing, software
 *    distributed under the License is distributed on an "AS IS" BASIS,
 *    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *    See the License for the specific language governing permissions and
 *    limitations under the License.
 */

// Package tcp implements engine.Transport over a plain or TLS net.Conn,
// grounded on go-mqtt-mqtt's net.go openConnection dial and incoming/
// outgoing read/write loops, adapted to the engine's event-driven
// Open/Send/Close + OnActive/OnRecv/OnSent/OnClose/OnError contract instead
// of channels.
package tcp

import (
	"crypto/tls"
	"net"
	"sync"
	"time"

	"github.com/yunqi/mqttcore/internal/xlog"
	"go.uber.org/zap"
)

// Driver is the minimal engine-facing callback surface a transport drives;
// engine.Client satisfies it.
type Driver interface {
	OnActive()
	OnRecv(chunk []byte)
	OnSent(n int, ok bool)
	OnClose(forced bool)
	OnError()
}

// Transport dials host:port over TCP (optionally TLS) and drives an
// engine.Client's event methods from a background read loop. It implements
// engine.Transport.
type Transport struct {
	addr      string
	tlsConfig *tls.Config
	driver    Driver
	log       *xlog.Log

	mu     sync.Mutex
	conn   net.Conn
	closed bool

	// driverMu serializes every call into driver: dial's OnActive/OnError,
	// readLoop's OnRecv/OnClose, and each Send's OnSent all run on separate
	// goroutines, but engine.Client is documented (spec.md §5) to have no
	// internal locking of its own — the caller must serialize every API
	// call and transport callback with one external lock. Locker exposes
	// this same mutex so a caller driving the engine from yet another
	// goroutine (e.g. a keep-alive poll ticker) can join it.
	driverMu sync.Mutex
}

// New returns a Transport that will dial addr ("host:port") when Open is
// called. tlsConfig may be nil for a plaintext connection.
func New(addr string, tlsConfig *tls.Config, driver Driver) *Transport {
	return &Transport{addr: addr, tlsConfig: tlsConfig, driver: driver, log: xlog.LoggerModule("transport/tcp")}
}

// Locker returns the mutex that serializes every Driver callback this
// Transport makes. Any other goroutine that calls into the same driver
// (engine.Client) directly — e.g. a poll-interval ticker calling OnPoll —
// must hold this lock too.
func (t *Transport) Locker() sync.Locker {
	return &t.driverMu
}

// Open dials the connection in the background; completion is reported via
// driver.OnActive or driver.OnError, never synchronously, so the caller's
// serializing lock is never held across network I/O.
func (t *Transport) Open() error {
	go t.dial()
	return nil
}

func (t *Transport) dial() {
	var conn net.Conn
	var err error
	if t.tlsConfig != nil {
		conn, err = tls.Dial("tcp", t.addr, t.tlsConfig)
	} else {
		conn, err = net.Dial("tcp", t.addr)
	}
	if err != nil {
		t.log.Warn("dial failed", zap.String("addr", t.addr), zap.Error(err))
		t.driverMu.Lock()
		t.driver.OnError()
		t.driverMu.Unlock()
		return
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	t.driverMu.Lock()
	t.driver.OnActive()
	t.driverMu.Unlock()
	go t.readLoop(conn)
}

// readLoop mirrors go-mqtt-mqtt's incoming(): read off the wire in a loop
// and hand each chunk to the engine, until the connection errs or closes.
func (t *Transport) readLoop(conn net.Conn) {
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			t.driverMu.Lock()
			t.driver.OnRecv(buf[:n])
			t.driverMu.Unlock()
		}
		if err != nil {
			t.mu.Lock()
			forced := t.closed
			t.mu.Unlock()
			t.driverMu.Lock()
			t.driver.OnClose(forced)
			t.driverMu.Unlock()
			return
		}
	}
}

// Send writes p to the connection. A short write is reported as a partial,
// failed send (ok=false) so the engine treats it as fatal per spec.md
// §4.5's "failed transport write ⇒ internal close".
func (t *Transport) Send(p []byte) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return net.ErrClosed
	}

	go func() {
		n, err := conn.Write(p)
		ok := err == nil && n == len(p)
		t.driverMu.Lock()
		t.driver.OnSent(n, ok)
		t.driverMu.Unlock()
	}()
	return nil
}

// Close shuts down the connection; the in-flight readLoop goroutine
// observes the resulting read error and reports driver.OnClose(true)
// itself once it unblocks, so Close does not call it directly.
func (t *Transport) Close() error {
	t.mu.Lock()
	t.closed = true
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return nil
	}
	_ = conn.SetReadDeadline(time.Now())
	return conn.Close()
}
