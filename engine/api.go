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
	"context"

	"github.com/yunqi/mqttcore/internal/packet"
	"github.com/yunqi/mqttcore/internal/request"
	"github.com/yunqi/mqttcore/internal/xerror"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Connect begins a connection attempt (spec.md §6's `connect`). It requires
// a Transport to already be Attached and the client to be DISCONNECTED; the
// actual CONNECT control packet is emitted once the transport reports
// itself active (OnActive), not here. The span covers only this
// synchronous call; it does not extend to the later CONNACK.
func (c *Client) Connect(info ConnInfo, cb EventCallback, arg interface{}) error {
	_, span := c.tracer.Start(context.Background(), "mqttcore.Connect",
		trace.WithAttributes(attribute.String("mqtt.client_id", info.ClientID)))
	defer span.End()

	if c.transport == nil {
		return c.traceErr(span, xerror.ErrNotAttached)
	}
	if c.state != Disconnected {
		return c.traceErr(span, xerror.ErrAlreadyConnecting)
	}
	if info.ClientID == "" && !info.CleanSession {
		return c.traceErr(span, xerror.ErrEmptyClientID)
	}

	c.connInfo = info
	c.cb = cb
	c.arg = arg

	if err := c.transport.Open(); err != nil {
		return c.traceErr(span, err)
	}
	c.pollTime = 0
	c.state = Connecting
	return nil
}

// traceErr records err on span and returns it unchanged, so every API
// method can report failures to the tracer without duplicating the
// RecordError/SetStatus boilerplate at each return site.
func (c *Client) traceErr(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// Disconnect requests a graceful local close (spec.md §6's `disconnect`).
// The DISCONNECTED transition and the close-fanout of pending requests
// happen later, when the transport confirms the close via OnClose.
func (c *Client) Disconnect() error {
	if c.state == Disconnected || c.state == Disconnecting {
		return xerror.ErrNotConnected
	}
	if err := c.transport.Close(); err != nil {
		return err
	}
	c.state = Disconnecting
	return nil
}

// Subscribe requests a topic subscription (spec.md §6's `subscribe`).
func (c *Client) Subscribe(topic string, qos byte, arg interface{}) error {
	return c.subUnsub(topic, qos, arg, true)
}

// Unsubscribe requests a topic unsubscription (spec.md §6's `unsubscribe`).
func (c *Client) Unsubscribe(topic string, arg interface{}) error {
	return c.subUnsub(topic, 0, arg, false)
}

func (c *Client) subUnsub(topic string, qos byte, arg interface{}, subscribe bool) error {
	name := "mqttcore.Unsubscribe"
	if subscribe {
		name = "mqttcore.Subscribe"
	}
	_, span := c.tracer.Start(context.Background(), name,
		trace.WithAttributes(attribute.String("mqtt.topic", topic), attribute.Int("mqtt.qos", int(qos))))
	defer span.End()

	if topic == "" {
		return c.traceErr(span, xerror.ErrEmptyTopic)
	}
	if c.state != Connected {
		return c.traceErr(span, xerror.ErrNotConnected)
	}

	packetID := c.nextPacketID()
	su := &packet.SubUnsub{Subscribe: subscribe, PacketID: packetID, Topic: topic, QoS: qos}

	kind := request.KindUnsubscribe
	if subscribe {
		kind = request.KindSubscribe
	}
	slot := c.requests.Create(kind, packetID, arg)
	if slot == nil {
		return c.traceErr(span, xerror.ErrRequestTableFull)
	}
	if _, err := c.encodeAndEnqueue(func(w *bytes.Buffer) error { return su.Encode(w) }); err != nil {
		c.requests.Delete(slot)
		return c.traceErr(span, err)
	}
	c.requests.SetPending(slot, uint64(c.pollTime))

	c.trySend()
	return nil
}

// Publish submits a PUBLISH (spec.md §6's `publish`). For QoS 0 the request
// is resolved once the transport has durably accepted `expected_sent_len`
// cumulative bytes (tracked via ResolveSentQoS0 in OnSent); for QoS 1/2 it
// is resolved by the matching PUBACK/PUBCOMP.
func (c *Client) Publish(topic string, payload []byte, qos byte, retain bool, arg interface{}) error {
	_, span := c.tracer.Start(context.Background(), "mqttcore.Publish",
		trace.WithAttributes(attribute.String("mqtt.topic", topic), attribute.Int("mqtt.qos", int(qos))))
	defer span.End()

	if topic == "" {
		return c.traceErr(span, xerror.ErrEmptyTopic)
	}
	if c.state != Connected {
		return c.traceErr(span, xerror.ErrClosed)
	}
	if qos > 2 {
		qos = 2
	}

	var packetID uint16
	if qos > 0 {
		packetID = c.nextPacketID()
	}
	pub := &packet.Publish{QoS: qos, Retain: retain, Topic: topic, PacketID: packetID, Payload: payload}

	slot := c.requests.Create(request.KindPublish, packetID, arg)
	if slot == nil {
		return c.traceErr(span, xerror.ErrRequestTableFull)
	}
	if _, err := c.encodeAndEnqueue(func(w *bytes.Buffer) error { return pub.Encode(w) }); err != nil {
		c.requests.Delete(slot)
		return c.traceErr(span, err)
	}
	c.requests.SetPending(slot, uint64(c.pollTime))
	// Bytes already acknowledged plus bytes still queued in the ring: the
	// cumulative count at which this packet's last byte has been sent.
	c.requests.SetExpectedSentLen(slot, c.sentTotal+uint32(c.tx.Len()))

	c.trySend()
	return nil
}
