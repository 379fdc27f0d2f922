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

// Package binary implements the primitive MQTT wire encodings: booleans,
// big-endian fixed-width integers and length-prefixed UTF-8 strings.
package binary

import (
	"encoding/binary"
	"io"

	"github.com/yunqi/mqttcore/internal/xerror"
)

// ReadBool reads a single byte and reports whether it is non-zero.
func ReadBool(r io.Reader) (bool, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

// WriteBool writes b as a single 0x00/0x01 byte.
func WriteBool(w io.Writer, b bool) error {
	var v byte
	if b {
		v = 1
	}
	_, err := w.Write([]byte{v})
	return err
}

// ReadUint16 reads a big-endian (MSB first) 16-bit value.
func ReadUint16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

// WriteUint16 writes num MSB first.
func WriteUint16(w io.Writer, num uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], num)
	_, err := w.Write(b[:])
	return err
}

// ReadUint32 reads a big-endian 32-bit value.
func ReadUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

// WriteUint32 writes num MSB first.
func WriteUint32(w io.Writer, num uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], num)
	_, err := w.Write(b[:])
	return err
}

// WriteString writes a u16 length prefix followed by the raw bytes of s.
func WriteString(w io.Writer, s []byte) error {
	if len(s) > 0xFFFF {
		return xerror.ErrMalformed
	}
	if err := WriteUint16(w, uint16(len(s))); err != nil {
		return err
	}
	_, err := w.Write(s)
	return err
}

// ReadString reads a u16 length prefix followed by that many raw bytes.
func ReadString(r io.Reader) (string, error) {
	n, err := ReadUint16(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
