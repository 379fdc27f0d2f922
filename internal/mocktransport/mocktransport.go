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

// Package mocktransport is a hand-authored github.com/golang/mock-style
// double for engine.Transport: it records every Open/Send/Close call so
// engine tests can drive deterministic OnActive/OnSent/OnClose sequences
// without a real socket.
package mocktransport

import "github.com/golang/mock/gomock"

// Transport is a mock of engine.Transport. It is constructed directly
// (rather than via mockgen) because engine.Transport's three one-line
// methods don't earn their keep as generated code. It takes a
// gomock.Controller like a generated mock, but records calls in its public
// fields instead of checking EXPECT()-style expectations.
type Transport struct {
	ctrl     *gomock.Controller
	recorder *TransportRecorder

	Sent   [][]byte
	Opened int
	Closed int
}

// TransportRecorder is what EXPECT() returns; it defines no expectation
// methods.
type TransportRecorder struct {
	mock *Transport
}

// NewTransport returns a Transport bound to ctrl.
func NewTransport(ctrl *gomock.Controller) *Transport {
	m := &Transport{ctrl: ctrl}
	m.recorder = &TransportRecorder{m}
	return m
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *Transport) EXPECT() *TransportRecorder {
	return m.recorder
}

// Open records the call. Tests drive the engine forward by calling
// Client.OnActive themselves afterward; Open never fails in this double.
func (m *Transport) Open() error {
	m.Opened++
	return nil
}

// Send records p for later assertions. It never blocks and never reports
// failure on its own; tests simulate transport-level send completion by
// calling Client.OnSent directly.
func (m *Transport) Send(p []byte) error {
	cp := make([]byte, len(p))
	copy(cp, p)
	m.Sent = append(m.Sent, cp)
	return nil
}

// Close records the call.
func (m *Transport) Close() error {
	m.Closed++
	return nil
}
