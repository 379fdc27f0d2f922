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
	"go.uber.org/zap"
)

// onDispatch is the parser's Dispatch callback: it implements spec.md
// §4.4's inbound dispatch table, keyed on the fixed-header byte the parser
// has already validated.
func (c *Client) onDispatch(header byte, body []byte) {
	t := packet.Type((header >> 4) & 0x0F)
	qos := (header >> 1) & 0x03

	switch t {
	case packet.CONNACK:
		c.onConnack(body)
	case packet.PUBLISH:
		c.onPublish(header, qos, body)
	case packet.PUBREC:
		c.onPubrec(body)
	case packet.PUBREL:
		c.onPubrel(body)
	case packet.PUBACK, packet.PUBCOMP:
		c.onPubackOrComp(body)
	case packet.SUBACK:
		c.onSuback(body)
	case packet.UNSUBACK:
		c.onUnsuback(body)
	case packet.PINGRESP:
		c.emit(&Event{Kind: EvtKeepAlive})
	default:
		// No action for CONNECT/SUBSCRIBE/UNSUBSCRIBE/PINGREQ/DISCONNECT
		// arriving on the client side of the connection.
	}
}

func (c *Client) onConnack(body []byte) {
	if c.state != Connecting {
		c.log.Warn("unexpected CONNACK outside CONNECTING", zap.String("state", c.state.String()))
		return
	}
	ack, err := packet.DecodeConnack(body)
	if err != nil {
		c.log.Warn("malformed CONNACK", zap.Error(err))
		return
	}
	if ack.Code == code.Success {
		c.state = Connected
	}
	c.emit(&Event{Kind: EvtConnect, ConnectStatus: ack.Code, Result: resultFor(ack.Code == code.Success)})
}

func (c *Client) onPublish(header byte, qos byte, body []byte) {
	fh := packet.FixedHeader{
		Type:   packet.PUBLISH,
		Dup:    header&0x08 != 0,
		QoS:    qos,
		Retain: header&0x01 != 0,
	}
	pub, err := packet.DecodePublish(fh, body)
	if err != nil {
		c.log.Warn("malformed PUBLISH", zap.Error(err))
		return
	}

	switch pub.QoS {
	case 1:
		c.sendAck(packet.PUBACK, pub.PacketID)
	case 2:
		c.sendAck(packet.PUBREC, pub.PacketID)
	}

	c.emit(&Event{
		Kind:    EvtPublishRecv,
		Topic:   pub.Topic,
		Payload: pub.Payload,
		Dup:     pub.Dup,
		QoS:     pub.QoS,
	})
}

// onPubrec handles the first leg of an outbound QoS-2 publish's ack: the
// request stays pending until PUBCOMP (spec.md §9's QoS-2 outbound note).
func (c *Client) onPubrec(body []byte) {
	ack, err := packet.DecodeAck(packet.PUBREC, body)
	if err != nil {
		c.log.Warn("malformed PUBREC", zap.Error(err))
		return
	}
	if c.requests.FindPending(ack.PacketID) == nil {
		c.log.Warn("PUBREC for unknown packet id")
		return
	}
	c.sendAck(packet.PUBREL, ack.PacketID)
}

// onPubrel handles the second leg of an inbound QoS-2 publish.
func (c *Client) onPubrel(body []byte) {
	ack, err := packet.DecodeAck(packet.PUBREL, body)
	if err != nil {
		c.log.Warn("malformed PUBREL", zap.Error(err))
		return
	}
	c.sendAck(packet.PUBCOMP, ack.PacketID)
}

func (c *Client) onPubackOrComp(body []byte) {
	ack, err := packet.DecodeAck(packet.PUBACK, body)
	if err != nil {
		c.log.Warn("malformed PUBACK/PUBCOMP", zap.Error(err))
		return
	}
	slot := c.requests.FindPending(ack.PacketID)
	if slot == nil {
		c.log.Warn("ack without matching request", zap.Uint16("packet_id", ack.PacketID))
		return
	}
	arg := slot.Arg()
	c.requests.Delete(slot)
	c.emit(&Event{Kind: EvtPublish, Arg: arg, Result: ResultOK})
}

func (c *Client) onSuback(body []byte) {
	c.subUnsubAck(packet.SUBACK, body, EvtSubscribe)
}

func (c *Client) onUnsuback(body []byte) {
	c.subUnsubAck(packet.UNSUBACK, body, EvtUnsubscribe)
}

// subUnsubAck decodes a SUBACK/UNSUBACK via packet.DecodeSuback, which
// correctly branches on type: UNSUBACK's remaining length is 2 (packet id
// only, no return-code byte), unlike SUBACK's 3.
func (c *Client) subUnsubAck(t packet.Type, body []byte, kind EventKind) {
	ack, err := packet.DecodeSuback(t, body)
	if err != nil {
		c.log.Warn("malformed SUBACK/UNSUBACK", zap.Error(err))
		return
	}
	slot := c.requests.FindPending(ack.PacketID)
	if slot == nil {
		c.log.Warn("SUBACK/UNSUBACK without matching request", zap.Uint16("packet_id", ack.PacketID))
		return
	}
	res := ResultOK
	if !ack.Unsubscribe && !ack.Granted() {
		res = ResultErr
	}
	arg := slot.Arg()
	c.requests.Delete(slot)
	c.emit(&Event{Kind: kind, Arg: arg, Result: res})
}

func resultFor(ok bool) Result {
	if ok {
		return ResultOK
	}
	return ResultErr
}

func (c *Client) sendAck(t packet.Type, packetID uint16) {
	if _, err := c.encodeAndEnqueue(func(w *bytes.Buffer) error {
		return packet.EncodeAck(w, t, packetID)
	}); err != nil {
		c.log.Warn("no memory to send ack", zap.String("type", t.String()))
		return
	}
	c.trySend()
}
