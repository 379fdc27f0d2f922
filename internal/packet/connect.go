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
	"bytes"
	"io"

	"github.com/yunqi/mqttcore/internal/binary"
	"github.com/yunqi/mqttcore/internal/xerror"
)

// ProtocolLevel is the MQTT 3.1.1 protocol level value carried in CONNECT.
const ProtocolLevel = 4

// ProtocolName is the protocol name string carried in CONNECT.
const ProtocolName = "MQTT"

// Connect flag bits, MQTT 3.1.1 §3.1.2.3.
const (
	flagCleanSession byte = 0x02
	flagWill         byte = 0x04
	flagWillRetain   byte = 0x20
	flagPassword     byte = 0x40
	flagUsername     byte = 0x80
)

// Will describes the optional last-will message carried in a CONNECT packet.
type Will struct {
	Topic   string
	Message []byte
	QoS     byte
	Retain  bool
}

// Connect represents the MQTT CONNECT packet (§4.2's CONNECT encode, and its
// decode inverse used by this package's round-trip test).
type Connect struct {
	ClientID     string
	CleanSession bool
	KeepAlive    uint16
	Username     string
	HasUsername  bool
	Password     []byte
	HasPassword  bool
	Will         *Will
}

// RemainingLength computes the CONNECT packet's remaining length per
// spec.md §4.2: a 10-byte baseline (protocol name length field + "MQTT" +
// protocol level + flags + keep-alive) plus the length-prefixed client id,
// and optionally will topic+message, username and password.
func (c *Connect) RemainingLength() uint32 {
	rem := uint32(10) + uint32(len(c.ClientID)) + 2
	if c.Will != nil {
		rem += uint32(len(c.Will.Topic)) + 2
		rem += uint32(len(c.Will.Message)) + 2
	}
	if c.HasUsername {
		rem += uint32(len(c.Username)) + 2
	}
	if c.HasPassword {
		rem += uint32(len(c.Password)) + 2
	}
	return rem
}

func (c *Connect) flags() byte {
	var f byte
	if c.CleanSession {
		f |= flagCleanSession
	}
	if c.Will != nil {
		f |= flagWill
		f |= (minByte(c.Will.QoS, 2) & 0x03) << 3
		if c.Will.Retain {
			f |= flagWillRetain
		}
	}
	if c.HasUsername {
		f |= flagUsername
	}
	if c.HasPassword {
		f |= flagPassword
	}
	return f
}

func minByte(a, b byte) byte {
	if a < b {
		return a
	}
	return b
}

// Encode writes the full CONNECT packet (fixed header, variable header and
// payload) to w.
func (c *Connect) Encode(w io.Writer) error {
	remLen := c.RemainingLength()
	fh := FixedHeader{Type: CONNECT, RemainingLength: remLen}
	if err := WriteFixedHeader(w, fh); err != nil {
		return err
	}
	if err := WriteMQTTString(w, ProtocolName); err != nil {
		return err
	}
	if err := WriteU8(w, ProtocolLevel); err != nil {
		return err
	}
	if err := WriteU8(w, c.flags()); err != nil {
		return err
	}
	if err := WriteU16(w, c.KeepAlive); err != nil {
		return err
	}
	if err := WriteMQTTString(w, c.ClientID); err != nil {
		return err
	}
	if c.Will != nil {
		if err := WriteMQTTString(w, c.Will.Topic); err != nil {
			return err
		}
		if err := binary.WriteString(w, c.Will.Message); err != nil {
			return err
		}
	}
	if c.HasUsername {
		if err := WriteMQTTString(w, c.Username); err != nil {
			return err
		}
	}
	if c.HasPassword {
		if err := binary.WriteString(w, c.Password); err != nil {
			return err
		}
	}
	return nil
}

// DecodeConnect reads a CONNECT packet's variable header and payload (the
// fixed header having already been consumed by the caller via
// ReadFixedHeader) from the rem-length-bounded region in buf.
func DecodeConnect(fh FixedHeader, buf []byte) (*Connect, error) {
	r := bytes.NewReader(buf)
	protoName, err := binary.ReadString(r)
	if err != nil {
		return nil, err
	}
	if protoName != ProtocolName {
		return nil, xerror.ErrV3UnacceptableProtocolVersion
	}
	var levelByte [1]byte
	if _, err := io.ReadFull(r, levelByte[:]); err != nil {
		return nil, err
	}
	if levelByte[0] != ProtocolLevel {
		return nil, xerror.ErrV3UnacceptableProtocolVersion
	}
	var flagsByte [1]byte
	if _, err := io.ReadFull(r, flagsByte[:]); err != nil {
		return nil, err
	}
	flags := flagsByte[0]
	c := &Connect{
		CleanSession: flags&flagCleanSession != 0,
		HasUsername:  flags&flagUsername != 0,
		HasPassword:  flags&flagPassword != 0,
	}
	keepAlive, err := binary.ReadUint16(r)
	if err != nil {
		return nil, err
	}
	c.KeepAlive = keepAlive

	clientID, err := binary.ReadString(r)
	if err != nil {
		return nil, err
	}
	if clientID == "" && !c.CleanSession {
		return nil, xerror.ErrV3IdentifierRejected
	}
	c.ClientID = clientID

	if flags&flagWill != 0 {
		topic, err := binary.ReadString(r)
		if err != nil {
			return nil, err
		}
		message, err := binary.ReadString(r)
		if err != nil {
			return nil, err
		}
		c.Will = &Will{
			Topic:   topic,
			Message: []byte(message),
			QoS:     (flags >> 3) & 0x03,
			Retain:  flags&flagWillRetain != 0,
		}
	}
	if c.HasUsername {
		username, err := binary.ReadString(r)
		if err != nil {
			return nil, err
		}
		c.Username = username
	}
	if c.HasPassword {
		password, err := binary.ReadString(r)
		if err != nil {
			return nil, err
		}
		c.Password = []byte(password)
	}
	_ = fh
	return c, nil
}
