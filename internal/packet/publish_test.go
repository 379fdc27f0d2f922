package packet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublish_EncodeQoS1(t *testing.T) {
	p := &Publish{QoS: 1, Topic: "a/b", PacketID: 1, Payload: []byte("hi")}
	var buf bytes.Buffer
	assert.NoError(t, p.Encode(&buf))

	want := []byte{
		0x32, 0x09, // PUBLISH, QoS1, rem_len=9
		0x00, 0x03, 'a', '/', 'b', // topic
		0x00, 0x01, // packet id = 1
		'h', 'i', // payload
	}
	assert.Equal(t, want, buf.Bytes())
}

func TestPublish_RoundTripAllQoS(t *testing.T) {
	for qos := byte(0); qos <= 2; qos++ {
		p := &Publish{Dup: qos > 0, QoS: qos, Retain: true, Topic: "t/x", Payload: []byte("payload-data")}
		if qos > 0 {
			p.PacketID = 42
		}
		var buf bytes.Buffer
		assert.NoError(t, p.Encode(&buf))

		fh, err := ReadFixedHeader(&buf)
		assert.NoError(t, err)
		body := make([]byte, fh.RemainingLength)
		_, err = buf.Read(body)
		assert.NoError(t, err)

		got, err := DecodePublish(fh, body)
		assert.NoError(t, err)
		assert.Equal(t, p.Dup, got.Dup)
		assert.Equal(t, p.QoS, got.QoS)
		assert.Equal(t, p.Retain, got.Retain)
		assert.Equal(t, p.Topic, got.Topic)
		assert.Equal(t, p.PacketID, got.PacketID)
		assert.Equal(t, p.Payload, got.Payload)
	}
}

func TestAck_RoundTrip(t *testing.T) {
	for _, typ := range []Type{PUBACK, PUBREC, PUBREL, PUBCOMP} {
		var buf bytes.Buffer
		assert.NoError(t, EncodeAck(&buf, typ, 7))

		fh, err := ReadFixedHeader(&buf)
		assert.NoError(t, err)
		assert.Equal(t, typ, fh.Type)
		if typ == PUBREL {
			assert.Equal(t, byte(1), fh.QoS)
		} else {
			assert.Equal(t, byte(0), fh.QoS)
		}

		body := make([]byte, fh.RemainingLength)
		_, err = buf.Read(body)
		assert.NoError(t, err)

		ack, err := DecodeAck(typ, body)
		assert.NoError(t, err)
		assert.EqualValues(t, 7, ack.PacketID)
	}
}

func TestSubUnsub_RoundTrip(t *testing.T) {
	s := &SubUnsub{Subscribe: true, PacketID: 3, Topic: "foo/bar", QoS: 2}
	var buf bytes.Buffer
	assert.NoError(t, s.Encode(&buf))

	want := []byte{
		0x82, 0x0C, // SUBSCRIBE, QoS1 reserved bit, rem_len=12
		0x00, 0x03, // packet id
		0x00, 0x07, 'f', 'o', 'o', '/', 'b', 'a', 'r', // topic
		0x02, // requested qos
	}
	assert.Equal(t, want, buf.Bytes())

	fh, err := ReadFixedHeader(&buf)
	assert.NoError(t, err)
	body := make([]byte, fh.RemainingLength)
	_, err = buf.Read(body)
	assert.NoError(t, err)
	got, err := DecodeSubUnsub(SUBSCRIBE, body)
	assert.NoError(t, err)
	assert.Equal(t, s.PacketID, got.PacketID)
	assert.Equal(t, s.Topic, got.Topic)
	assert.Equal(t, s.QoS, got.QoS)
}

func TestSuback_Granted(t *testing.T) {
	assert.True(t, (&Suback{ReturnCode: 0}).Granted())
	assert.True(t, (&Suback{ReturnCode: 2}).Granted())
	assert.False(t, (&Suback{ReturnCode: 0x80}).Granted())
}
