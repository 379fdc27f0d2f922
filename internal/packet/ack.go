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

// Ack is the shared shape of PUBACK, PUBREC, PUBREL and PUBCOMP: a two-byte
// packet-id-only variable header. PUBREL uses QoS=1 in its fixed header
// (the reserved flag bits per MQTT 3.1.1); the others use QoS=0.
type Ack struct {
	Type     Type
	PacketID uint16
}

// EncodeAck writes a PUBACK/PUBREC/PUBREL/PUBCOMP packet.
func EncodeAck(w io.Writer, t Type, packetID uint16) error {
	qos := byte(0)
	if t == PUBREL {
		qos = 1
	}
	fh := FixedHeader{Type: t, QoS: qos, RemainingLength: 2}
	if err := WriteFixedHeader(w, fh); err != nil {
		return err
	}
	return WriteU16(w, packetID)
}

// DecodeAck reads the two-byte packet id out of a PUBACK/PUBREC/PUBREL/PUBCOMP
// packet's variable header.
func DecodeAck(t Type, buf []byte) (*Ack, error) {
	if len(buf) < 2 {
		return nil, xerror.ErrMalformed
	}
	return &Ack{Type: t, PacketID: readU16(buf[0], buf[1])}, nil
}
