package engine

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/yunqi/mqttcore/internal/code"
	"github.com/yunqi/mqttcore/internal/mocktransport"
)

func newTestClient(t *testing.T) (*Client, *mocktransport.Transport, *[]Event) {
	ctrl := gomock.NewController(t)
	tr := mocktransport.NewTransport(ctrl)
	c := New(256, 256, 8)
	c.Attach(tr)

	var events []Event
	cb := func(ev *Event) { events = append(events, *ev) }

	assert.NoError(t, c.Connect(ConnInfo{ClientID: "c1", KeepAlive: 60}, cb, nil))
	c.OnActive()
	return c, tr, &events
}

// Scenario 1: clean connect.
func TestEngine_CleanConnect(t *testing.T) {
	c, tr, events := newTestClient(t)

	if assert.Len(t, tr.Sent, 1) {
		want := []byte{0x10, 0x0E, 0x00, 0x04, 'M', 'Q', 'T', 'T', 0x04, 0x02, 0x00, 0x3C, 0x00, 0x02, 'c', '1'}
		assert.Equal(t, want, tr.Sent[0])
	}
	c.OnSent(len(tr.Sent[0]), true)

	c.OnRecv([]byte{0x20, 0x02, 0x00, 0x00})

	assert.Equal(t, Connected, c.State())
	if assert.Len(t, *events, 1) {
		ev := (*events)[0]
		assert.Equal(t, EvtConnect, ev.Kind)
		assert.Equal(t, code.Success, ev.ConnectStatus)
	}
}

// Scenario 2: QoS-1 publish round trip.
func TestEngine_QoS1PublishRoundTrip(t *testing.T) {
	c, tr, events := newTestClient(t)
	c.OnSent(len(tr.Sent[0]), true)
	c.OnRecv([]byte{0x20, 0x02, 0x00, 0x00})
	*events = nil
	tr.Sent = nil

	type arg struct{ tag string }
	a := &arg{tag: "pub1"}
	assert.NoError(t, c.Publish("a/b", []byte("hi"), 1, false, a))

	if assert.Len(t, tr.Sent, 1) {
		want := []byte{0x32, 0x09, 0x00, 0x03, 'a', '/', 'b', 0x00, 0x01, 'h', 'i'}
		assert.Equal(t, want, tr.Sent[0])
	}
	assert.Equal(t, 1, c.requests.InUseCount())

	c.OnSent(len(tr.Sent[0]), true)
	c.OnRecv([]byte{0x40, 0x02, 0x00, 0x01})

	if assert.Len(t, *events, 1) {
		ev := (*events)[0]
		assert.Equal(t, EvtPublish, ev.Kind)
		assert.Equal(t, ResultOK, ev.Result)
		assert.Same(t, a, ev.Arg)
	}
	assert.Equal(t, 0, c.requests.InUseCount())
}

// Scenario 3: QoS-2 inbound publish.
func TestEngine_QoS2Inbound(t *testing.T) {
	c, tr, events := newTestClient(t)
	c.OnSent(len(tr.Sent[0]), true)
	c.OnRecv([]byte{0x20, 0x02, 0x00, 0x00})
	*events = nil
	tr.Sent = nil

	c.OnRecv([]byte{0x34, 0x09, 0x00, 0x03, 'a', '/', 'b', 0x00, 0x07, 'X', 'Y'})

	if assert.Len(t, tr.Sent, 1) {
		assert.Equal(t, []byte{0x50, 0x02, 0x00, 0x07}, tr.Sent[0])
	}
	recvEvents := 0
	for _, ev := range *events {
		if ev.Kind == EvtPublishRecv {
			recvEvents++
		}
	}
	assert.Equal(t, 1, recvEvents)

	c.OnSent(len(tr.Sent[0]), true)
	tr.Sent = nil
	c.OnRecv([]byte{0x62, 0x02, 0x00, 0x07})

	if assert.Len(t, tr.Sent, 1) {
		assert.Equal(t, []byte{0x70, 0x02, 0x00, 0x07}, tr.Sent[0])
	}

	recvEvents = 0
	for _, ev := range *events {
		if ev.Kind == EvtPublishRecv {
			recvEvents++
		}
	}
	assert.Equal(t, 1, recvEvents)
}

// Scenario 4: split CONNACK across two chunks.
func TestEngine_SplitConnack(t *testing.T) {
	c, tr, events := newTestClient(t)
	c.OnSent(len(tr.Sent[0]), true)

	c.OnRecv([]byte{0x20})
	c.OnRecv([]byte{0x02, 0x00, 0x00})

	connectEvents := 0
	for _, ev := range *events {
		if ev.Kind == EvtConnect {
			connectEvents++
		}
	}
	assert.Equal(t, 1, connectEvents)
	assert.Equal(t, Connected, c.State())
}

// Scenario 5: keep-alive ping/pong.
func TestEngine_KeepAlive(t *testing.T) {
	c, tr, events := newTestClient(t)
	c.OnSent(len(tr.Sent[0]), true)
	c.OnRecv([]byte{0x20, 0x02, 0x00, 0x00})
	*events = nil
	tr.Sent = nil

	c.connInfo.KeepAlive = 1 // seconds; pollIntervalMillis=500 => 2 ticks

	c.OnPoll()
	assert.Empty(t, tr.Sent)
	c.OnPoll()
	if assert.Len(t, tr.Sent, 1) {
		assert.Equal(t, []byte{0xC0, 0x00}, tr.Sent[0])
	}

	c.OnSent(len(tr.Sent[0]), true)
	c.OnRecv([]byte{0xD0, 0x00})

	keepAlives := 0
	for _, ev := range *events {
		if ev.Kind == EvtKeepAlive {
			keepAlives++
		}
	}
	assert.Equal(t, 1, keepAlives)
}

// Scenario 6: close fanout.
func TestEngine_CloseFanout(t *testing.T) {
	c, tr, events := newTestClient(t)
	c.OnSent(len(tr.Sent[0]), true)
	c.OnRecv([]byte{0x20, 0x02, 0x00, 0x00})
	*events = nil
	tr.Sent = nil

	assert.NoError(t, c.Publish("t/1", []byte("x"), 1, false, "pub1"))
	c.OnSent(len(tr.Sent[len(tr.Sent)-1]), true)
	assert.NoError(t, c.Publish("t/2", []byte("y"), 1, false, "pub2"))
	c.OnSent(len(tr.Sent[len(tr.Sent)-1]), true)
	assert.NoError(t, c.Subscribe("t/3", 1, "sub3"))
	c.OnSent(len(tr.Sent[len(tr.Sent)-1]), true)

	assert.Equal(t, 3, c.requests.InUseCount())
	*events = nil

	c.OnClose(false)

	var kinds []EventKind
	for _, ev := range *events {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []EventKind{EvtDisconnect, EvtPublish, EvtPublish, EvtSubscribe}, kinds)
	for i := 1; i < 3; i++ {
		assert.Equal(t, ResultErr, (*events)[i].Result)
	}
	assert.Equal(t, ResultErr, (*events)[3].Result)
	assert.True(t, (*events)[0].IsAccepted)

	assert.Equal(t, Disconnected, c.State())
	assert.Equal(t, 0, c.requests.InUseCount())
}

// Subscribe/unsubscribe round trip: a real UNSUBACK carries no return-code
// byte (remaining length 2, packet id only), unlike SUBACK's remaining
// length 3 — this guards against treating that shorter body as malformed.
func TestEngine_SubscribeUnsubscribeRoundTrip(t *testing.T) {
	c, tr, events := newTestClient(t)
	c.OnSent(len(tr.Sent[0]), true)
	c.OnRecv([]byte{0x20, 0x02, 0x00, 0x00})
	*events = nil
	tr.Sent = nil

	assert.NoError(t, c.Subscribe("t/1", 1, "sub1"))
	if assert.Len(t, tr.Sent, 1) {
		assert.Equal(t, []byte{0x82, 0x08, 0x00, 0x01, 0x00, 0x03, 't', '/', '1', 0x01}, tr.Sent[0])
	}
	c.OnSent(len(tr.Sent[0]), true)

	c.OnRecv([]byte{0x90, 0x03, 0x00, 0x01, 0x01})
	if assert.Len(t, *events, 1) {
		ev := (*events)[0]
		assert.Equal(t, EvtSubscribe, ev.Kind)
		assert.Equal(t, ResultOK, ev.Result)
		assert.Equal(t, "sub1", ev.Arg)
	}
	assert.Equal(t, 0, c.requests.InUseCount())
	*events = nil
	tr.Sent = nil

	assert.NoError(t, c.Unsubscribe("t/1", "unsub1"))
	if assert.Len(t, tr.Sent, 1) {
		assert.Equal(t, []byte{0xA2, 0x07, 0x00, 0x02, 0x00, 0x03, 't', '/', '1'}, tr.Sent[0])
	}
	c.OnSent(len(tr.Sent[0]), true)

	c.OnRecv([]byte{0xB0, 0x02, 0x00, 0x02})
	if assert.Len(t, *events, 1) {
		ev := (*events)[0]
		assert.Equal(t, EvtUnsubscribe, ev.Kind)
		assert.Equal(t, ResultOK, ev.Result)
		assert.Equal(t, "unsub1", ev.Arg)
	}
	assert.Equal(t, 0, c.requests.InUseCount())
}

// A SUBACK return code of 0x80 (failure) must resolve the request with
// ResultErr rather than being mistaken for a malformed packet.
func TestEngine_SubackFailureReturnCode(t *testing.T) {
	c, tr, events := newTestClient(t)
	c.OnSent(len(tr.Sent[0]), true)
	c.OnRecv([]byte{0x20, 0x02, 0x00, 0x00})
	*events = nil
	tr.Sent = nil

	assert.NoError(t, c.Subscribe("t/1", 2, "sub1"))
	c.OnSent(len(tr.Sent[0]), true)

	c.OnRecv([]byte{0x90, 0x03, 0x00, 0x01, 0x80})
	if assert.Len(t, *events, 1) {
		assert.Equal(t, ResultErr, (*events)[0].Result)
	}
}
