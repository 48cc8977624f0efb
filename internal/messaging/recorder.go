package messaging

import "sync"

type Message struct {
	Topic    string
	Qos      byte
	Retained bool
	Payload  []byte
}

// RecordingPublisher keeps all published messages in memory, e.g. for dry runs and tests
type RecordingPublisher struct {
	mu       sync.Mutex
	messages []Message
	err      error
}

func (p *RecordingPublisher) Publish(topic string, qos byte, retained bool, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, Message{
		Topic:    topic,
		Qos:      qos,
		Retained: retained,
		Payload:  append([]byte(nil), payload...),
	})
	return nil
}

// SetError makes all subsequent publish calls fail with err, nil restores normal operation
func (p *RecordingPublisher) SetError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *RecordingPublisher) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Message(nil), p.messages...)
}

// Last returns the most recent message, if any
func (p *RecordingPublisher) Last() (Message, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.messages) <= 0 {
		return Message{}, false
	}
	return p.messages[len(p.messages)-1], true
}
