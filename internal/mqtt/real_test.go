package mqtt

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/sweeney/pushbutton/internal/logic"
)

// doneToken is a completed paho token.
type doneToken struct {
	err error
}

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }

func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type sent struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient implements the parts of paho.Client the publisher uses.
// Calling any other method panics on the nil embedded interface.
type fakeClient struct {
	paho.Client

	mu         sync.Mutex
	connected  bool
	publishErr error
	sent       []sent
}

func (c *fakeClient) IsConnectionOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeClient) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publishErr != nil {
		return doneToken{err: c.publishErr}
	}
	c.sent = append(c.sent, sent{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	return doneToken{}
}

func (c *fakeClient) Disconnect(uint) {
	c.setConnected(false)
}

func (c *fakeClient) messages() []sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sent(nil), c.sent...)
}

func newTestPublisher(t *testing.T, bufferSize int) (*RealPublisher, *fakeClient) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	p := newPublisher(Config{TopicPrefix: "site/pbtn", BufferSize: bufferSize}, logger)
	c := &fakeClient{connected: true}
	p.client = c
	return p, c
}

func buttonEvent(id, sec int) logic.Event {
	return logic.Event{
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Button:    id,
		Type:      logic.EventReleased,
		Seconds:   sec,
	}
}

func TestRealPublisherPublish(t *testing.T) {
	p, c := newTestPublisher(t, 10)

	if err := p.Publish(buttonEvent(0, 2)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := p.PublishSystem(SystemEvent{Event: SystemStartup, Retained: true}); err != nil {
		t.Fatalf("PublishSystem: %v", err)
	}

	msgs := c.messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].topic != "site/pbtn/events" || msgs[0].qos != 0 || msgs[0].retained {
		t.Errorf("unexpected event message: %+v", msgs[0])
	}
	if msgs[1].topic != "site/pbtn/system" || msgs[1].qos != 1 || !msgs[1].retained {
		t.Errorf("unexpected system message: %+v", msgs[1])
	}

	var parsed Payload
	if err := json.Unmarshal(msgs[0].payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Button.Seconds != 2 || parsed.Button.Event != "RELEASED" {
		t.Errorf("unexpected payload: %+v", parsed.Button)
	}
	if !p.IsConnected() {
		t.Error("IsConnected should follow the client")
	}
}

func TestRealPublisherBuffersWhileDisconnected(t *testing.T) {
	p, c := newTestPublisher(t, 10)
	c.setConnected(false)
	p.onConnectionLost(c, errors.New("network unreachable"))

	for i := 0; i < 3; i++ {
		if err := p.Publish(buttonEvent(0, i)); err != nil {
			t.Fatalf("Publish %d: %v", i, err)
		}
	}
	if len(c.messages()) != 0 {
		t.Fatal("nothing should be sent while disconnected")
	}
	if p.Buffered() != 3 {
		t.Fatalf("Buffered: got %d, want 3", p.Buffered())
	}

	c.setConnected(true)
	p.onConnect(c)

	msgs := c.messages()
	if len(msgs) != 4 {
		t.Fatalf("expected 3 replayed + RECONNECTED, got %d", len(msgs))
	}
	for i := 0; i < 3; i++ {
		var parsed Payload
		if err := json.Unmarshal(msgs[i].payload, &parsed); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if parsed.Button.Seconds != i {
			t.Errorf("message %d out of order: seconds=%d", i, parsed.Button.Seconds)
		}
	}

	var sys SystemPayload
	if err := json.Unmarshal(msgs[3].payload, &sys); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if msgs[3].topic != "site/pbtn/system" || sys.System.Event != SystemReconnected {
		t.Errorf("expected RECONNECTED on system topic, got %s %+v", msgs[3].topic, sys)
	}
	if p.Buffered() != 0 {
		t.Errorf("buffer not drained: %d", p.Buffered())
	}
}

func TestRealPublisherFirstConnectIsNotReconnect(t *testing.T) {
	p, c := newTestPublisher(t, 10)

	p.onConnect(c)

	if len(c.messages()) != 0 {
		t.Errorf("unexpected messages on first connect: %d", len(c.messages()))
	}
}

func TestRealPublisherBuffersFailedPublish(t *testing.T) {
	p, c := newTestPublisher(t, 10)
	c.publishErr = errors.New("not connected")

	if err := p.Publish(buttonEvent(1, 0)); err == nil {
		t.Fatal("expected error")
	}
	if p.Buffered() != 1 {
		t.Fatalf("Buffered: got %d, want 1", p.Buffered())
	}

	// Replay fails again: the message stays buffered.
	p.onConnect(c)
	if p.Buffered() != 1 {
		t.Fatalf("Buffered after failed replay: got %d, want 1", p.Buffered())
	}

	c.mu.Lock()
	c.publishErr = nil
	c.mu.Unlock()
	p.onConnect(c)
	if p.Buffered() != 0 || len(c.messages()) != 1 {
		t.Errorf("replay: buffered=%d sent=%d", p.Buffered(), len(c.messages()))
	}
}

func TestRealPublisherBufferOverflowKeepsNewest(t *testing.T) {
	p, c := newTestPublisher(t, 2)
	c.setConnected(false)

	for i := 0; i < 5; i++ {
		p.Publish(buttonEvent(0, i))
	}
	c.setConnected(true)
	p.onConnect(c)

	msgs := c.messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	var last Payload
	json.Unmarshal(msgs[1].payload, &last)
	if last.Button.Seconds != 4 {
		t.Errorf("expected newest message last, got seconds=%d", last.Button.Seconds)
	}
}

func TestRealPublisherClose(t *testing.T) {
	p, c := newTestPublisher(t, 0)
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if c.IsConnectionOpen() {
		t.Error("client still connected after Close")
	}
}
