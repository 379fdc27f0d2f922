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

// Package engine implements the MQTT 3.1.1 client protocol engine: the
// connection state machine, request bookkeeping, and event dispatch that
// sit between a byte-oriented Transport and an application.
package engine

import "github.com/yunqi/mqttcore/internal/code"

// Result is the outcome carried by a completion event.
type Result uint8

const (
	ResultOK Result = iota
	ResultErr
)

// ConnState is the connection state machine of spec.md §4.5.
type ConnState uint8

const (
	Disconnected ConnState = iota
	Connecting
	Connected
	Disconnecting
)

func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "DISCONNECTED"
	case Connecting:
		return "CONNECTING"
	case Connected:
		return "CONNECTED"
	case Disconnecting:
		return "DISCONNECTING"
	default:
		return "UNKNOWN"
	}
}

// Will is the message the broker publishes on the client's behalf if it
// disconnects ungracefully.
type Will struct {
	Topic   string
	Message string
	QoS     byte
	Retain  bool
}

// ConnInfo is immutable for the lifetime of one CONNECT (spec.md §3).
type ConnInfo struct {
	ClientID     string
	KeepAlive    uint16 // seconds; 0 disables keep-alive
	CleanSession bool   // checked by Connect for an empty ClientID; the CONNECT packet always sets the clean-session flag
	Username     string
	HasUsername  bool
	Password     []byte
	HasPassword  bool
	Will         *Will
}

// EventKind tags the variant carried by Event.
type EventKind uint8

const (
	EvtConnect EventKind = iota
	EvtDisconnect
	EvtPublish
	EvtPublishRecv
	EvtSubscribe
	EvtUnsubscribe
	EvtKeepAlive
)

// Event is the single reusable descriptor the client hands to the
// application's callback (spec.md §3: "one reusable event descriptor, to
// avoid per-event allocation"). Only the fields relevant to Kind are
// meaningful for a given occurrence.
type Event struct {
	Kind EventKind

	// EvtConnect
	ConnectStatus code.Code

	// EvtDisconnect
	IsAccepted bool

	// EvtPublish / EvtSubscribe / EvtUnsubscribe
	Arg    interface{}
	Result Result

	// EvtPublishRecv
	Topic   string
	Payload []byte
	Dup     bool
	QoS     byte
}

// EventCallback receives one Event per occurrence. The Event is only valid
// for the duration of the call; copy any fields you need to keep.
type EventCallback func(ev *Event)

// Transport is the byte-stream connection contract the engine consumes
// (spec.md §6's "Transport callback contract", inverted into a Go
// interface the engine calls outward on). Open/Send/Close must not block;
// their outcomes are reported back to the engine asynchronously through
// Client.OnActive/OnSent/OnError/OnClose.
type Transport interface {
	// Open begins establishing the underlying connection. Completion is
	// signaled via Client.OnActive (success) or Client.OnError (failure).
	Open() error
	// Send submits p for transmission without blocking beyond the
	// transport's own queue. It must accept up to len(p) bytes; completion
	// (possibly partial, possibly later) is reported via Client.OnSent.
	Send(p []byte) error
	// Close requests a non-blocking close; completion is reported via
	// Client.OnClose.
	Close() error
}
