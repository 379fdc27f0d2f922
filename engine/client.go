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

package engine

import (
	"bytes"

	"github.com/yunqi/mqttcore/internal/buffer"
	"github.com/yunqi/mqttcore/internal/parser"
	"github.com/yunqi/mqttcore/internal/request"
	"github.com/yunqi/mqttcore/internal/xerror"
	"github.com/yunqi/mqttcore/internal/xlog"
	"github.com/yunqi/mqttcore/internal/xtrace"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Client is one MQTT connection's worth of engine state (spec.md §3's
// "Client instance"). It is not safe for concurrent use: the caller must
// serialize API calls and Transport callbacks with an external lock, per
// spec.md §5.
type Client struct {
	transport Transport
	connInfo  ConnInfo
	state     ConnState

	lastPacketID uint16

	tx  *buffer.Ring
	par *parser.Parser

	requests *request.Table

	writtenTotal uint32
	sentTotal    uint32
	isSending    bool
	pollTime     uint32

	cb  EventCallback
	arg interface{}
	ev  Event // reusable event descriptor

	log    *xlog.Log
	tracer trace.Tracer
}

// New allocates a Client with the given tx ring buffer and rx staging
// buffer sizes (spec.md §3's `new(tx_len, rx_len)`), and the fixed request
// table capacity (`MAX_REQUESTS`).
func New(txLen, rxLen, maxRequests int) *Client {
	c := &Client{
		tx:       buffer.New(txLen),
		requests: request.New(maxRequests),
		log:      xlog.LoggerModule("engine"),
		tracer:   otel.GetTracerProvider().Tracer(xtrace.Name),
	}
	c.par = parser.New(rxLen, c.onDispatch)
	c.par.OnOversized(func() {
		c.log.Warn("oversized inbound frame discarded")
	})
	return c
}

// Delete releases c. Its only precondition is that c is DISCONNECTED
// (spec.md §3's lifecycle note); Go's GC reclaims the buffers once c is no
// longer referenced, so Delete exists to enforce that precondition rather
// than to free memory by hand.
func (c *Client) Delete() error {
	if c.state != Disconnected {
		return xerror.ErrNotDisconnected
	}
	return nil
}

// Attach binds the transport connection this Client will drive. It must be
// called before Connect.
func (c *Client) Attach(t Transport) {
	c.transport = t
}

// IsConnected reports whether the client currently holds a live session
// (spec.md §6's `is_connected`).
func (c *Client) IsConnected() bool {
	return c.state == Connected
}

// SetArg replaces the opaque user argument later returned by GetArg.
func (c *Client) SetArg(arg interface{}) {
	c.arg = arg
}

// GetArg returns the opaque user argument set by SetArg or Connect.
func (c *Client) GetArg() interface{} {
	return c.arg
}

// State returns the current connection state, mostly useful for tests and
// diagnostics.
func (c *Client) State() ConnState {
	return c.state
}

// nextPacketID implements spec.md §3's packet-id counter: increments,
// skipping the reserved value 0, wrapping 0xFFFF to 1.
func (c *Client) nextPacketID() uint16 {
	c.lastPacketID++
	if c.lastPacketID == 0 {
		c.lastPacketID = 1
	}
	return c.lastPacketID
}

// encodeAndEnqueue runs encode into a scratch buffer, gates it against the
// tx ring's free space, and on success performs one atomic bulk write into
// the ring — satisfying spec.md §3's invariant that the tx buffer never
// observes a partially encoded packet. It returns the number of bytes
// enqueued.
func (c *Client) encodeAndEnqueue(encode func(w *bytes.Buffer) error) (int, error) {
	var scratch bytes.Buffer
	if err := encode(&scratch); err != nil {
		return 0, err
	}
	if c.tx.Free() < scratch.Len() {
		return 0, xerror.ErrOutOfMemory
	}
	n := c.tx.Write(scratch.Bytes())
	return n, nil
}

// trySend hands the tx ring's linear readable region to the transport if
// nothing is already in flight (mirrors gsm_mqtt_client.c's send_data: skip
// while is_sending, reset the ring when it is empty to keep future writes
// single-shot contiguous).
func (c *Client) trySend() {
	if c.isSending {
		return
	}
	view := c.tx.LinearReadView()
	if len(view) == 0 {
		c.tx.Reset()
		return
	}
	if err := c.transport.Send(view); err != nil {
		c.log.Warn("transport send failed", zap.Error(err))
		return
	}
	c.writtenTotal += uint32(len(view))
	c.isSending = true
}
