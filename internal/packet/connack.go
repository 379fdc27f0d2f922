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

	"github.com/yunqi/mqttcore/internal/code"
	"github.com/yunqi/mqttcore/internal/xerror"
)

// Connack represents the MQTT CONNACK packet: byte[0] session-present flag,
// byte[1] the return code.
type Connack struct {
	SessionPresent bool
	Code           code.Code
}

// DecodeConnack parses the two-byte CONNACK variable header.
func DecodeConnack(buf []byte) (*Connack, error) {
	if len(buf) < 2 {
		return nil, xerror.ErrMalformed
	}
	return &Connack{
		SessionPresent: buf[0]&0x01 != 0,
		Code:           code.Code(buf[1]),
	}, nil
}

// Encode writes the CONNACK packet. The engine never calls it: it only ever
// decodes CONNACK (a server-to-client packet).
func (c *Connack) Encode(w io.Writer) error {
	fh := FixedHeader{Type: CONNACK, RemainingLength: 2}
	if err := WriteFixedHeader(w, fh); err != nil {
		return err
	}
	var sp byte
	if c.SessionPresent {
		sp = 1
	}
	if err := WriteU8(w, sp); err != nil {
		return err
	}
	return WriteU8(w, byte(c.Code))
}
