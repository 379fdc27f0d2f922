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

// Package parser reassembles MQTT control packets from a stream of
// arbitrarily-chunked transport bytes (spec.md §4.3). It is a three-state
// byte-at-a-time state machine so it copes with frames that split or
// coalesce across any number of Feed calls.
package parser

import "github.com/yunqi/mqttcore/internal/packet"

type state uint8

const (
	stateInit state = iota
	stateCalcRemLen
	stateReadRem
)

// Dispatch is called once per fully reassembled MQTT packet. header is the
// raw fixed-header first byte (type/dup/qos/retain still packed); body is
// the remaining-length-bounded variable-header+payload bytes. body aliases
// internal state between calls and must not be retained past the callback
// (copy it if you need to keep it, mirroring spec.md §9's zero-copy note).
type Dispatch func(header byte, body []byte)

// Parser is the streaming reassembler. Construct it with New; the zero value
// has no staging buffer and no dispatch callback.
type Parser struct {
	st         state
	hdrByte    byte
	remLen     uint32
	remLenMult uint
	rxBuf      []byte
	rxPos      uint32
	overflow   bool // set once the current frame no longer fits rxBuf

	dispatch    Dispatch
	onOversized func()
}

// New returns a Parser that reassembles into a staging buffer of the given
// size and calls dispatch for every complete, non-oversized frame.
func New(rxBufLen int, dispatch Dispatch) *Parser {
	return &Parser{rxBuf: make([]byte, rxBufLen), dispatch: dispatch}
}

// OnOversized installs a callback invoked whenever a frame arrives whose
// remaining length exceeds the rx staging buffer; the frame is discarded
// (spec.md §4.3's READ_REM oversized-frame rule).
func (p *Parser) OnOversized(fn func()) {
	p.onOversized = fn
}

// Feed processes one chunk of inbound transport bytes, dispatching zero or
// more complete packets found within it (coalesced frames) and carrying
// partial state across to the next Feed call (split frames).
func (p *Parser) Feed(chunk []byte) {
	for i := 0; i < len(chunk); i++ {
		ch := chunk[i]
		switch p.st {
		case stateInit:
			if !packet.Type((ch >> 4) & 0x0F).Valid() {
				// Reject packet-type nibbles outside 1..14: stay in INIT and
				// silently discard the byte (spec.md §4.3).
				continue
			}
			p.hdrByte = ch
			p.remLen = 0
			p.remLenMult = 0
			p.rxPos = 0
			p.overflow = false
			p.st = stateCalcRemLen

		case stateCalcRemLen:
			p.remLen |= uint32(ch&0x7F) << (7 * p.remLenMult)
			p.remLenMult++
			if ch&0x80 != 0 {
				break // still more remaining-length bytes to come
			}
			if p.remLen == 0 {
				p.dispatch(p.hdrByte, nil)
				p.st = stateInit
				break
			}
			// Zero-copy fast path: if the rest of this chunk already
			// contains the whole payload contiguously and the frame would
			// fit rxBuf, dispatch directly out of the input chunk and skip
			// past it, never touching rxBuf (spec.md §4.3, §9). Larger
			// frames take the READ_REM path, which discards them.
			remainingInChunk := len(chunk) - (i + 1)
			if uint32(remainingInChunk) >= p.remLen && p.remLen <= uint32(len(p.rxBuf)) {
				body := chunk[i+1 : i+1+int(p.remLen)]
				p.dispatch(p.hdrByte, body)
				i += int(p.remLen)
				p.st = stateInit
			} else {
				p.st = stateReadRem
			}

		case stateReadRem:
			if p.rxPos < uint32(len(p.rxBuf)) {
				p.rxBuf[p.rxPos] = ch
			} else {
				p.overflow = true
			}
			p.rxPos++
			if p.rxPos == p.remLen {
				if !p.overflow {
					p.dispatch(p.hdrByte, p.rxBuf[:p.remLen])
				} else if p.onOversized != nil {
					p.onOversized()
				}
				p.st = stateInit
			}

		default:
			p.st = stateInit
		}
	}
}
