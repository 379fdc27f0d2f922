package parser

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yunqi/mqttcore/internal/packet"
)

type dispatched struct {
	header byte
	body   []byte
}

func collectingParser(rxLen int) (*Parser, *[]dispatched) {
	var got []dispatched
	p := New(rxLen, func(header byte, body []byte) {
		var cp []byte
		if body != nil {
			cp = make([]byte, len(body))
			copy(cp, body)
		}
		got = append(got, dispatched{header, cp})
	})
	return p, &got
}

func TestParser_SingleShot(t *testing.T) {
	p, got := collectingParser(256)
	connack := []byte{0x20, 0x02, 0x00, 0x00}
	p.Feed(connack)
	if assert.Len(t, *got, 1) {
		assert.Equal(t, byte(0x20), (*got)[0].header)
		assert.Equal(t, []byte{0x00, 0x00}, (*got)[0].body)
	}
}

func TestParser_SplitAcrossChunks(t *testing.T) {
	p, got := collectingParser(256)
	whole := []byte{0x20, 0x02, 0x00, 0x00}
	for _, n := range [][2]int{{0, 1}, {1, 4}} {
		p.Feed(whole[n[0]:n[1]])
	}
	assert.Len(t, *got, 1)
}

func TestParser_AnySplitProducesSameDispatches(t *testing.T) {
	whole := []byte{
		0x32, 0x09, 0x00, 0x03, 'a', '/', 'b', 0x00, 0x01, 'h', 'i', // PUBLISH qos1
		0xD0, 0x00, // PINGRESP
	}
	splits := [][]int{
		{len(whole)},
		{1, len(whole) - 1},
		{3, 5, 3, len(whole) - 11},
		{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, len(whole) - 11},
	}
	var reference []dispatched
	for _, sizes := range splits {
		p, got := collectingParser(256)
		off := 0
		for _, n := range sizes {
			p.Feed(whole[off : off+n])
			off += n
		}
		if reference == nil {
			reference = *got
		} else {
			assert.Equal(t, reference, *got)
		}
	}
}

func TestParser_ZeroRemLenDispatchesImmediately(t *testing.T) {
	p, got := collectingParser(256)
	p.Feed([]byte{0xC0, 0x00}) // PINGREQ, rem_len 0
	if assert.Len(t, *got, 1) {
		assert.Nil(t, (*got)[0].body)
	}
}

func TestParser_RejectsInvalidTypeNibble(t *testing.T) {
	p, got := collectingParser(256)
	// 0x00 has type nibble 0 (reserved) -- discarded -- followed by a valid
	// PINGREQ frame which must still be parsed correctly afterward.
	p.Feed([]byte{0x00, 0xC0, 0x00})
	assert.Len(t, *got, 1)
}

func TestParser_OversizedFrameDiscardedButResynchronizes(t *testing.T) {
	var oversizedCalls int
	var got []dispatched
	p := New(2, func(header byte, body []byte) {
		cp := make([]byte, len(body))
		copy(cp, body)
		got = append(got, dispatched{header, cp})
	})
	p.OnOversized(func() { oversizedCalls++ })

	// PUBACK-shaped frame with rem_len 4 but rx buffer only holds 2 bytes.
	p.Feed([]byte{0x40, 0x04, 1, 2, 3, 4})
	assert.Equal(t, 1, oversizedCalls)
	assert.Len(t, got, 0)

	// Parser must have returned to INIT and parse the next frame normally.
	p.Feed([]byte{0xC0, 0x00})
	assert.Len(t, got, 1)
}

func TestParser_EncodeThenParseRoundTrip(t *testing.T) {
	pub := &packet.Publish{QoS: 2, Topic: "sensor/temp", PacketID: 9, Payload: []byte("21.5")}
	var buf bytes.Buffer
	assert.NoError(t, pub.Encode(&buf))

	p, got := collectingParser(256)
	p.Feed(buf.Bytes())
	if assert.Len(t, *got, 1) {
		fh := packet.FixedHeader{
			Type:   packet.Type((*got)[0].header >> 4 & 0x0F),
			Dup:    (*got)[0].header>>3&0x01 != 0,
			QoS:    (*got)[0].header >> 1 & 0x03,
			Retain: (*got)[0].header&0x01 != 0,
		}
		decoded, err := packet.DecodePublish(fh, (*got)[0].body)
		assert.NoError(t, err)
		assert.Equal(t, pub.Topic, decoded.Topic)
		assert.Equal(t, pub.PacketID, decoded.PacketID)
		assert.Equal(t, pub.Payload, decoded.Payload)
	}
}
