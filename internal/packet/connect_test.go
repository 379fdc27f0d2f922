package packet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnect_EncodeCleanMinimal(t *testing.T) {
	c := &Connect{ClientID: "c1", CleanSession: true, KeepAlive: 60}

	var buf bytes.Buffer
	assert.NoError(t, c.Encode(&buf))

	want := []byte{
		0x10, 0x0E, // fixed header: CONNECT, rem_len=14
		0x00, 0x04, 'M', 'Q', 'T', 'T', // protocol name
		0x04,       // protocol level
		0x02,       // flags: clean session only
		0x00, 0x3C, // keep alive = 60
		0x00, 0x02, 'c', '1', // client id
	}
	assert.Equal(t, want, buf.Bytes())
}

func TestConnect_RoundTrip(t *testing.T) {
	cases := []*Connect{
		{ClientID: "c1", CleanSession: true, KeepAlive: 60},
		{ClientID: "abc", CleanSession: false, KeepAlive: 30, HasUsername: true, Username: "bob"},
		{ClientID: "abc", CleanSession: true, KeepAlive: 0, HasUsername: true, Username: "bob", HasPassword: true, Password: []byte("secret")},
		{ClientID: "abc", CleanSession: true, KeepAlive: 15, Will: &Will{Topic: "a/b", Message: []byte("bye"), QoS: 1, Retain: true}},
	}
	for _, c := range cases {
		var buf bytes.Buffer
		assert.NoError(t, c.Encode(&buf))

		fh, err := ReadFixedHeader(&buf)
		assert.NoError(t, err)
		assert.Equal(t, CONNECT, fh.Type)

		body := make([]byte, fh.RemainingLength)
		_, err = buf.Read(body)
		assert.NoError(t, err)

		got, err := DecodeConnect(fh, body)
		assert.NoError(t, err)
		assert.Equal(t, c.ClientID, got.ClientID)
		assert.Equal(t, c.CleanSession, got.CleanSession)
		assert.Equal(t, c.KeepAlive, got.KeepAlive)
		assert.Equal(t, c.HasUsername, got.HasUsername)
		assert.Equal(t, c.Username, got.Username)
		assert.Equal(t, c.HasPassword, got.HasPassword)
		assert.Equal(t, c.Password, got.Password)
		if c.Will == nil {
			assert.Nil(t, got.Will)
		} else {
			if assert.NotNil(t, got.Will) {
				assert.Equal(t, c.Will.Topic, got.Will.Topic)
				assert.Equal(t, c.Will.Message, got.Will.Message)
				assert.Equal(t, c.Will.QoS, got.Will.QoS)
				assert.Equal(t, c.Will.Retain, got.Will.Retain)
			}
		}
	}
}
