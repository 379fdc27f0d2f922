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

package packet

import (
	"io"

	"github.com/yunqi/mqttcore/internal/xerror"
)

// Publish represents the MQTT PUBLISH packet (§4.2/§4.4).
type Publish struct {
	Dup      bool
	QoS      byte
	Retain   bool
	Topic    string
	PacketID uint16 // 0 for QoS 0
	Payload  []byte
}

// RemainingLength computes the PUBLISH remaining length: 2+len(topic) for
// the topic string, +2 for the packet id when QoS>0, plus the payload.
func (p *Publish) RemainingLength() uint32 {
	rem := uint32(2) + uint32(len(p.Topic)) + uint32(len(p.Payload))
	if p.QoS > 0 {
		rem += 2
	}
	return rem
}

// Encode writes the full PUBLISH packet to w.
func (p *Publish) Encode(w io.Writer) error {
	fh := FixedHeader{Type: PUBLISH, Dup: p.Dup, QoS: p.QoS, Retain: p.Retain, RemainingLength: p.RemainingLength()}
	if err := WriteFixedHeader(w, fh); err != nil {
		return err
	}
	if err := WriteMQTTString(w, p.Topic); err != nil {
		return err
	}
	if p.QoS > 0 {
		if err := WriteU16(w, p.PacketID); err != nil {
			return err
		}
	}
	_, err := w.Write(p.Payload)
	return err
}

// DecodePublish parses a PUBLISH packet's variable header and payload out of
// buf (rem-length-bounded raw bytes, fixed header already consumed), per
// spec.md §4.4's PUBLISH dispatch rules.
func DecodePublish(fh FixedHeader, buf []byte) (*Publish, error) {
	if len(buf) < 2 {
		return nil, xerror.ErrMalformed
	}
	topicLen := int(readU16(buf[0], buf[1]))
	if len(buf) < 2+topicLen {
		return nil, xerror.ErrMalformed
	}
	topic := string(buf[2 : 2+topicLen])

	p := &Publish{
		Dup:    fh.Dup,
		QoS:    fh.QoS,
		Retain: fh.Retain,
		Topic:  topic,
	}

	dataStart := 2 + topicLen
	if fh.QoS > 0 {
		if len(buf) < dataStart+2 {
			return nil, xerror.ErrMalformed
		}
		p.PacketID = readU16(buf[dataStart], buf[dataStart+1])
		dataStart += 2
	}
	p.Payload = buf[dataStart:]
	return p, nil
}

func readU16(hi, lo byte) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}
