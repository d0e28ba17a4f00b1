package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func fakeClient(id string) *Client {
	return &Client{id: id, send: make(chan []byte, 16)}
}

func recv(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data := <-c.send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never satisfied")
}

func TestHubRegisterAndCount(t *testing.T) {
	hub := testHub(t)

	c1 := fakeClient("c1")
	c2 := fakeClient("c2")
	hub.Register(c1)
	hub.Register(c2)
	waitFor(t, func() bool { return hub.GetTotalConnections() == 2 })

	hub.Unregister(c1)
	waitFor(t, func() bool { return hub.GetTotalConnections() == 1 })
}

func TestHubScoreEventReachesSubscribedSideOnly(t *testing.T) {
	hub := testHub(t)

	p1 := fakeClient("p1-overlay")
	p2 := fakeClient("p2-overlay")
	hub.Register(p1)
	hub.Register(p2)
	hub.Subscribe(p1, "P1")
	hub.Subscribe(p2, "P2")
	waitFor(t, func() bool {
		return hub.GetSubscriberCount("P1") == 1 && hub.GetSubscriberCount("P2") == 1
	})

	hub.BroadcastScore(ScoreEvent{
		PlayerID:   "pl-1",
		Nickname:   "Sol",
		CabSide:    "P1",
		ScoreValue: 0.982,
		Passed:     true,
	})

	msg := recv(t, p1)
	assert.Equal(t, MessageTypeScoreSubmitted, msg.Type)
	assert.Equal(t, "P1", msg.CabSide)

	data := msg.Data.(map[string]any)
	assert.Equal(t, "Sol", data["nickname"])
	assert.Equal(t, 0.982, data["score_value"])

	select {
	case <-p2.send:
		t.Fatal("P2 overlay must not receive a P1 score")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubCabStatusReachesEveryone(t *testing.T) {
	hub := testHub(t)

	c1 := fakeClient("c1")
	c2 := fakeClient("c2")
	hub.Register(c1)
	hub.Register(c2)
	waitFor(t, func() bool { return hub.GetTotalConnections() == 2 })

	hub.BroadcastCabStatus(CabStatus{Online: true, Addr: "10.0.0.5:9090"})

	for _, c := range []*Client{c1, c2} {
		msg := recv(t, c)
		assert.Equal(t, MessageTypeCabStatus, msg.Type)
		data := msg.Data.(map[string]any)
		assert.Equal(t, true, data["online"])
	}
}

func TestHubUnsubscribe(t *testing.T) {
	hub := testHub(t)

	c := fakeClient("c1")
	hub.Register(c)
	hub.Subscribe(c, "P1")
	waitFor(t, func() bool { return hub.GetSubscriberCount("P1") == 1 })

	hub.Unsubscribe(c, "P1")
	waitFor(t, func() bool { return hub.GetSubscriberCount("P1") == 0 })
}
