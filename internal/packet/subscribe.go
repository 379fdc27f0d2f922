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

// SubUnsub is the shared shape of SUBSCRIBE and UNSUBSCRIBE: packet id, one
// topic filter, and — subscribe only — a requested QoS byte. Both use QoS=1
// in their fixed header per MQTT 3.1.1's reserved flag bits (§4.2).
type SubUnsub struct {
	Subscribe bool
	PacketID  uint16
	Topic     string
	QoS       byte // meaningful only when Subscribe is true
}

// RemainingLength computes 2 (packet id) + 2 + len(topic), plus 1 for the
// requested-QoS byte on SUBSCRIBE.
func (s *SubUnsub) RemainingLength() uint32 {
	rem := uint32(2) + 2 + uint32(len(s.Topic))
	if s.Subscribe {
		rem++
	}
	return rem
}

// Encode writes the SUBSCRIBE or UNSUBSCRIBE packet to w.
func (s *SubUnsub) Encode(w io.Writer) error {
	t := UNSUBSCRIBE
	if s.Subscribe {
		t = SUBSCRIBE
	}
	fh := FixedHeader{Type: t, QoS: 1, RemainingLength: s.RemainingLength()}
	if err := WriteFixedHeader(w, fh); err != nil {
		return err
	}
	if err := WriteU16(w, s.PacketID); err != nil {
		return err
	}
	if err := WriteMQTTString(w, s.Topic); err != nil {
		return err
	}
	if s.Subscribe {
		qos := s.QoS
		if qos > 2 {
			qos = 2
		}
		return WriteU8(w, qos)
	}
	return nil
}

// DecodeSubUnsub parses a SUBSCRIBE or UNSUBSCRIBE packet. mqttcore's engine
// never receives these (they are client-to-server only); this exists for
// the encode/decode round-trip property in spec.md §8.
func DecodeSubUnsub(t Type, buf []byte) (*SubUnsub, error) {
	if len(buf) < 2 {
		return nil, xerror.ErrMalformed
	}
	s := &SubUnsub{Subscribe: t == SUBSCRIBE, PacketID: readU16(buf[0], buf[1])}
	rest := buf[2:]
	if len(rest) < 2 {
		return nil, xerror.ErrMalformed
	}
	topicLen := int(readU16(rest[0], rest[1]))
	if len(rest) < 2+topicLen {
		return nil, xerror.ErrMalformed
	}
	s.Topic = string(rest[2 : 2+topicLen])
	if s.Subscribe {
		if len(rest) < 2+topicLen+1 {
			return nil, xerror.ErrMalformed
		}
		s.QoS = rest[2+topicLen]
	}
	return s, nil
}

// Suback represents SUBACK/UNSUBACK: packet id plus, for SUBACK, a single
// granted-QoS/failure return code. spec.md preserves the original's
// single-topic-per-request treatment (see DESIGN.md ambiguity note).
type Suback struct {
	Unsubscribe bool
	PacketID    uint16
	ReturnCode  byte // 0,1,2 granted QoS; 0x80 failure. Unused for UNSUBACK.
}

// Granted reports whether the SUBACK return code indicates success
// (MQTT return codes 0/1/2 are granted QoS levels, 0x80 is failure).
func (s *Suback) Granted() bool {
	return s.ReturnCode < 3
}

// Encode writes a SUBACK or UNSUBACK packet. Exists for the round-trip test
// property; the engine only ever decodes these (server-to-client packets).
func (s *Suback) Encode(w io.Writer) error {
	if s.Unsubscribe {
		fh := FixedHeader{Type: UNSUBACK, RemainingLength: 2}
		if err := WriteFixedHeader(w, fh); err != nil {
			return err
		}
		return WriteU16(w, s.PacketID)
	}
	fh := FixedHeader{Type: SUBACK, RemainingLength: 3}
	if err := WriteFixedHeader(w, fh); err != nil {
		return err
	}
	if err := WriteU16(w, s.PacketID); err != nil {
		return err
	}
	return WriteU8(w, s.ReturnCode)
}

// DecodeSuback parses a SUBACK or UNSUBACK packet's packet id (and, for
// SUBACK, its single return code byte) per spec.md §4.4.
func DecodeSuback(t Type, buf []byte) (*Suback, error) {
	if len(buf) < 2 {
		return nil, xerror.ErrMalformed
	}
	s := &Suback{Unsubscribe: t == UNSUBACK, PacketID: readU16(buf[0], buf[1])}
	if !s.Unsubscribe {
		if len(buf) < 3 {
			return nil, xerror.ErrMalformed
		}
		s.ReturnCode = buf[2]
	}
	return s, nil
}
