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

// Package code holds the MQTT CONNACK return codes.
package code

// Code is the CONNACK return code, byte[1] of the CONNACK variable header.
type Code byte

const (
	// Success / Accepted: connection established.
	Success Code = 0x00
	// UnacceptableProtocolVersion: the server does not support MQTT 3.1.1.
	UnacceptableProtocolVersion Code = 0x01
	// IdentifierRejected: the client id is correct UTF-8 but not allowed by the server.
	IdentifierRejected Code = 0x02
	// ServerUnavailable: the server is unable to accept the connection.
	ServerUnavailable Code = 0x03
	// BadUsernameOrPassword: the credentials in the CONNECT packet are malformed.
	BadUsernameOrPassword Code = 0x04
	// NotAuthorized: the client is not authorized to connect.
	NotAuthorized Code = 0x05
	// TCPFailed is not a wire value; it is synthesized locally when the TCP
	// handshake itself fails before any CONNACK can arrive.
	TCPFailed Code = 0xFF
)

// String renders a human-readable label for logging.
func (c Code) String() string {
	switch c {
	case Success:
		return "accepted"
	case UnacceptableProtocolVersion:
		return "unacceptable protocol version"
	case IdentifierRejected:
		return "identifier rejected"
	case ServerUnavailable:
		return "server unavailable"
	case BadUsernameOrPassword:
		return "bad username or password"
	case NotAuthorized:
		return "not authorized"
	case TCPFailed:
		return "tcp connect failed"
	default:
		return "unknown"
	}
}
