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

	"github.com/yunqi/mqttcore/internal/code"
	"github.com/yunqi/mqttcore/internal/packet"
	"github.com/yunqi/mqttcore/internal/request"
	"go.uber.org/zap"
)

// OnActive is called by the transport once the underlying connection is
// established (spec.md §6's ACTIVE event). It builds and emits the CONNECT
// packet, keeping the client in CONNECTING until CONNACK arrives
// (spec.md §4.5).
func (c *Client) OnActive() {
	if c.state != Connecting {
		return
	}
	// Every CONNECT requests a clean session: the request table is discarded
	// on close, so there is no session state to resume.
	conn := &packet.Connect{
		ClientID:     c.connInfo.ClientID,
		CleanSession: true,
		KeepAlive:    c.connInfo.KeepAlive,
		Username:     c.connInfo.Username,
		HasUsername:  c.connInfo.HasUsername,
		Password:     c.connInfo.Password,
		HasPassword:  c.connInfo.HasPassword,
	}
	if c.connInfo.Will != nil {
		conn.Will = &packet.Will{
			Topic:   c.connInfo.Will.Topic,
			Message: []byte(c.connInfo.Will.Message),
			QoS:     c.connInfo.Will.QoS,
			Retain:  c.connInfo.Will.Retain,
		}
	}
	if _, err := c.encodeAndEnqueue(func(w *bytes.Buffer) error { return conn.Encode(w) }); err != nil {
		c.log.Error("failed to encode CONNECT", zap.Error(err))
		return
	}
	c.trySend()
}

// OnRecv feeds one chunk of inbound transport bytes to the streaming parser
// (spec.md §6's RECV event) and resets the keep-alive poll counter, since
// any inbound activity counts as liveness.
func (c *Client) OnRecv(chunk []byte) {
	c.pollTime = 0
	c.par.Feed(chunk)
}

// OnSent reports that the transport durably handed n bytes to the wire
// (ok==true) or that the in-flight send failed (ok==false). Mirrors
// gsm_mqtt_client.c's mqtt_data_sent_cb: clear is_sending, update
// sent_total, skip the ring by n, resolve covered QoS-0 publishes in order,
// then try to send whatever is queued next.
func (c *Client) OnSent(n int, ok bool) {
	c.isSending = false
	c.pollTime = 0

	if !ok {
		c.closeTransport()
		return
	}

	c.sentTotal += uint32(n)
	c.tx.Skip(n)

	c.requests.ResolveSentQoS0(c.sentTotal, func(s *request.Slot) {
		c.emit(&Event{Kind: EvtPublish, Arg: s.Arg(), Result: ResultOK})
	})

	c.trySend()
}

// OnPoll is called once per polling interval P while the connection is not
// DISCONNECTED (spec.md §4.6). It advances poll_time and, once the
// negotiated keep-alive interval has elapsed with no other activity,
// emits a PINGREQ.
func (c *Client) OnPoll() {
	c.pollTime++
	if c.state == Disconnecting || c.state == Disconnected {
		return
	}
	if c.connInfo.KeepAlive == 0 {
		return
	}
	if uint32(c.connInfo.KeepAlive)*1000 > c.pollTime*pollIntervalMillis {
		return
	}
	if _, err := c.encodeAndEnqueue(func(w *bytes.Buffer) error { return packet.EncodePingreq(w) }); err != nil {
		c.log.Warn("no memory to send PINGREQ")
		return
	}
	c.trySend()
	c.pollTime = 0
}

// pollIntervalMillis is the assumed polling cadence P referenced by
// spec.md §4.6's formula poll_time*P >= keep_alive*1000. Hosts with a
// different cadence should scale KeepAlive accordingly, or call OnPoll at
// exactly this interval.
const pollIntervalMillis = 500

// OnClose is called when the transport reports the connection closed,
// whether from a graceful local Disconnect, a remote close, or a fatal
// send/recv error (spec.md §6's CLOSE event and §4.7's close fanout).
func (c *Client) OnClose(forced bool) {
	prior := c.state
	c.state = Disconnected

	c.emit(&Event{Kind: EvtDisconnect, IsAccepted: prior == Connected || prior == Disconnecting})

	c.requests.ForEachPending(func(s request.Slot) {
		kind := EvtPublish
		switch s.Kind() {
		case request.KindSubscribe:
			kind = EvtSubscribe
		case request.KindUnsubscribe:
			kind = EvtUnsubscribe
		}
		c.emit(&Event{Kind: kind, Arg: s.Arg(), Result: ResultErr})
	})
	c.requests.Reset()

	c.isSending = false
	c.sentTotal = 0
	c.writtenTotal = 0
	c.tx.Reset()
	c.transport = nil
	_ = forced
}

// OnError is called when the transport reports a connection-level error
// outside the normal CLOSE flow. During CONNECTING it maps to a TCP_FAILED
// CONNECT event (spec.md §4.5); otherwise it is treated as a fatal close.
func (c *Client) OnError() {
	if c.state == Connecting {
		c.state = Disconnected
		c.emit(&Event{Kind: EvtConnect, ConnectStatus: code.TCPFailed, Result: ResultErr})
		c.transport = nil
		return
	}
	c.closeTransport()
}

// closeTransport requests the transport close (if one is still attached)
// as the single path into OnClose for every internal-failure trigger
// (failed write, failed send) noted in spec.md §4.5.
func (c *Client) closeTransport() {
	if c.transport == nil {
		c.OnClose(true)
		return
	}
	if err := c.transport.Close(); err != nil {
		c.log.Warn("transport close failed", zap.Error(err))
	}
}

// emit delivers ev through the client's installed callback using the
// single reusable Event descriptor, matching spec.md §3's allocation-free
// event path.
func (c *Client) emit(ev *Event) {
	c.ev = *ev
	if c.cb != nil {
		c.cb(&c.ev)
	}
}
