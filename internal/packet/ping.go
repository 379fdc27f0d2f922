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

import "io"

// EncodePingreq writes a fixed-header-only PINGREQ packet (remaining
// length 0).
func EncodePingreq(w io.Writer) error {
	return WriteFixedHeader(w, FixedHeader{Type: PINGREQ})
}

// EncodePingresp writes a fixed-header-only PINGRESP packet. The engine
// never sends this (server-to-client); provided for the round-trip test
// property.
func EncodePingresp(w io.Writer) error {
	return WriteFixedHeader(w, FixedHeader{Type: PINGRESP})
}
