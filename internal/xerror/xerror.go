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

// Package xerror collects the sentinel errors the engine can return across
// its package boundaries.
package xerror

import "errors"

var (
	// ErrMalformed is returned when a packet fails structural validation.
	ErrMalformed = errors.New("xerror: malformed packet")
	// ErrV3UnacceptableProtocolVersion is returned when a CONNECT packet carries
	// a protocol level mqttcore does not speak (only level 4 / MQTT 3.1.1 is supported).
	ErrV3UnacceptableProtocolVersion = errors.New("xerror: unacceptable protocol version")
	// ErrV3IdentifierRejected is returned for an empty client id combined with CleanSession=false.
	ErrV3IdentifierRejected = errors.New("xerror: identifier rejected")

	// ErrNotConnected is returned by Subscribe/Unsubscribe when the state is
	// not CONNECTED, and by Disconnect when the state is already
	// DISCONNECTED or DISCONNECTING.
	ErrNotConnected = errors.New("xerror: not connected")
	// ErrClosed is returned by Publish when the state is not CONNECTED.
	ErrClosed = errors.New("xerror: closed")
	// ErrOutOfMemory is returned when the tx ring buffer has no room for an encode.
	ErrOutOfMemory = errors.New("xerror: out of memory")
	// ErrRequestTableFull is returned when the request table has no free slot.
	ErrRequestTableFull = errors.New("xerror: request table full")
	// ErrAlreadyConnecting is returned by Connect when the state machine is not DISCONNECTED.
	ErrAlreadyConnecting = errors.New("xerror: already connecting")
	// ErrNotAttached is returned by Connect when no Transport has been Attached.
	ErrNotAttached = errors.New("xerror: network not attached")
	// ErrEmptyTopic is returned by Publish/Subscribe/Unsubscribe for an empty topic string.
	ErrEmptyTopic = errors.New("xerror: empty topic")
	// ErrEmptyClientID is returned by Connect when ConnInfo.ClientID is empty and CleanSession is false.
	ErrEmptyClientID = errors.New("xerror: empty client id")
	// ErrNotDisconnected is the precondition failure for Delete.
	ErrNotDisconnected = errors.New("xerror: client must be disconnected before delete")
)
