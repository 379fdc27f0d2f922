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

// Package ws implements engine.Transport over a github.com/gorilla/websocket
// binary-message connection, the alternate transport lighthouse's
// server.go accepts connections over (websocketListener), dialed here with
// a websocket.Dialer that requests the "mqtt" subprotocol.
package ws

import (
	"sync"

	"github.com/gorilla/websocket"
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

// Transport dials url with the "mqtt" subprotocol and drives an
// engine.Client's event methods from a background read loop.
type Transport struct {
	url      string
	driver   Driver
	log      *xlog.Log
	dialer   *websocket.Dialer
	header   map[string][]string

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool

	// driverMu serializes every call into driver, the same way
	// transport/tcp's does; see its doc comment for why this is needed
	// even though engine.Client has no internal lock of its own.
	driverMu sync.Mutex
}

// New returns a Transport that will dial url when Open is called.
func New(url string, driver Driver) *Transport {
	return &Transport{
		url:    url,
		driver: driver,
		log:    xlog.LoggerModule("transport/ws"),
		dialer: &websocket.Dialer{Subprotocols: []string{"mqtt"}},
	}
}

// Locker returns the mutex that serializes every Driver callback this
// Transport makes. Any other goroutine that calls into the same driver
// directly — e.g. a poll-interval ticker calling OnPoll — must hold this
// lock too.
func (t *Transport) Locker() sync.Locker {
	return &t.driverMu
}

// Open dials the connection in the background; completion is reported via
// driver.OnActive or driver.OnError.
func (t *Transport) Open() error {
	go t.dial()
	return nil
}

func (t *Transport) dial() {
	conn, _, err := t.dialer.Dial(t.url, nil)
	if err != nil {
		t.log.Warn("websocket dial failed", zap.String("url", t.url), zap.Error(err))
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

func (t *Transport) readLoop(conn *websocket.Conn) {
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			t.mu.Lock()
			forced := t.closed
			t.mu.Unlock()
			t.driverMu.Lock()
			t.driver.OnClose(forced)
			t.driverMu.Unlock()
			return
		}
		if mt == websocket.BinaryMessage && len(data) > 0 {
			t.driverMu.Lock()
			t.driver.OnRecv(data)
			t.driverMu.Unlock()
		}
	}
}

// Send writes p as one binary websocket message.
func (t *Transport) Send(p []byte) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return websocket.ErrCloseSent
	}

	go func() {
		err := conn.WriteMessage(websocket.BinaryMessage, p)
		ok := err == nil
		t.driverMu.Lock()
		t.driver.OnSent(len(p), ok)
		t.driverMu.Unlock()
	}()
	return nil
}

// Close sends a close frame and tears down the connection; the in-flight
// readLoop goroutine observes the resulting read error and reports
// driver.OnClose(true) itself once it unblocks.
func (t *Transport) Close() error {
	t.mu.Lock()
	t.closed = true
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return nil
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return conn.Close()
}
