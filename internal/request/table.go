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

// Package request implements the fixed-size slab of outstanding QoS/
// subscribe/unsubscribe requests keyed by packet id (spec.md §3's "Request
// slot" and §4's request table).
package request

// Kind distinguishes what a pending request will complete as.
type Kind uint8

const (
	KindPublish Kind = iota
	KindSubscribe
	KindUnsubscribe
)

// Slot is one entry of the fixed-size request table.
type Slot struct {
	inUse       bool
	pending     bool
	kind        Kind
	packetID    uint16
	arg         interface{}
	timeoutTick uint64
	// expectedSentLen is the value sent_total must reach before a QoS-0
	// publish (packetID==0) is considered durably sent.
	expectedSentLen uint32
}

// PacketID returns the slot's packet id (0 for a QoS-0 publish).
func (s *Slot) PacketID() uint16 { return s.packetID }

// Kind returns what the slot will complete as.
func (s *Slot) Kind() Kind { return s.kind }

// Arg returns the opaque user argument attached at creation.
func (s *Slot) Arg() interface{} { return s.arg }

// Table is a fixed-capacity slab of request Slots. The zero value is not
// usable; construct with New.
type Table struct {
	slots []Slot
}

// New allocates a table holding up to size concurrently pending requests.
func New(size int) *Table {
	return &Table{slots: make([]Slot, size)}
}

// Len returns the table capacity (MAX_REQUESTS in spec.md terms).
func (t *Table) Len() int { return len(t.slots) }

// Create allocates a free slot for packetID/arg/kind. It returns nil if the
// table is full (spec.md §6: subscribe/unsubscribe/publish must fail
// cleanly with ErrRequestTableFull in that case).
func (t *Table) Create(kind Kind, packetID uint16, arg interface{}) *Slot {
	for i := range t.slots {
		if !t.slots[i].inUse {
			t.slots[i] = Slot{inUse: true, kind: kind, packetID: packetID, arg: arg}
			return &t.slots[i]
		}
	}
	return nil
}

// SetPending marks slot as pending acknowledgement, recording the tick it
// entered that state (for a higher-layer timeout watchdog, per spec.md §4.6).
func (t *Table) SetPending(s *Slot, tick uint64) {
	s.pending = true
	s.timeoutTick = tick
}

// SetExpectedSentLen records the written_total threshold a QoS-0 publish
// request must see sent_total reach before it is resolved.
func (t *Table) SetExpectedSentLen(s *Slot, n uint32) {
	s.expectedSentLen = n
}

// Delete frees s, making it available for reuse.
func (t *Table) Delete(s *Slot) {
	*s = Slot{}
}

// FindPending returns the first pending slot with the given packet id, or
// nil. Packet ids are unique among concurrently pending requests (spec.md
// §3 invariant), so at most one match exists.
func (t *Table) FindPending(packetID uint16) *Slot {
	for i := range t.slots {
		s := &t.slots[i]
		if s.inUse && s.pending && s.packetID == packetID {
			return s
		}
	}
	return nil
}

// FirstPendingQoS0 returns the earliest-created pending QoS-0 (packetID==0)
// slot still in the table, or nil. Table.Create reuses the lowest free slot,
// so table order is not creation order; the slot with the smallest
// expectedSentLen is the earliest one enqueued, which keeps packet-id-0
// requests resolving in the order they were sent (spec.md §9's QoS-0
// bookkeeping note, grounded on gsm_mqtt_client.c's
// request_get_pending(client, 0) loop).
func (t *Table) FirstPendingQoS0() *Slot {
	var first *Slot
	for i := range t.slots {
		s := &t.slots[i]
		if s.inUse && s.pending && s.packetID == 0 &&
			(first == nil || s.expectedSentLen < first.expectedSentLen) {
			first = s
		}
	}
	return first
}

// ResolveSentQoS0 walks pending QoS-0 requests whose expectedSentLen has now
// been covered by sentTotal, invoking resolve(slot) for each and freeing the
// slot, stopping at the first request not yet covered. This mirrors the C
// original's `while ((request = request_get_pending(client, 0)) != NULL) { if
// (sent_total >= request->expected_sent_len) {...} else break; }` loop
// exactly (see SPEC_FULL.md's supplemented-features section).
func (t *Table) ResolveSentQoS0(sentTotal uint32, resolve func(s *Slot)) {
	for {
		s := t.FirstPendingQoS0()
		if s == nil || sentTotal < s.expectedSentLen {
			return
		}
		resolve(s)
		t.Delete(s)
	}
}

// ForEachPending calls fn for every currently pending slot, in table-slot
// order, then frees it. Used by the close-fanout path (spec.md §4.7) to
// synchronously fail every outstanding request exactly once.
func (t *Table) ForEachPending(fn func(s Slot)) {
	for i := range t.slots {
		s := &t.slots[i]
		if s.inUse && s.pending {
			snapshot := *s
			fn(snapshot)
			t.Delete(s)
		}
	}
}

// Reset clears every slot, used on DISCONNECTED entry (spec.md §3 invariant).
func (t *Table) Reset() {
	for i := range t.slots {
		t.slots[i] = Slot{}
	}
}

// InUseCount reports how many slots are occupied; used by tests asserting
// the close-fanout leaves zero IN_USE slots (spec.md §8).
func (t *Table) InUseCount() int {
	n := 0
	for i := range t.slots {
		if t.slots[i].inUse {
			n++
		}
	}
	return n
}
