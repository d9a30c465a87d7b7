package mqtt

import "github.com/sirupsen/logrus"

// outMsg is a formatted publish waiting for the broker connection.
type outMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox queues publishes made while the broker is unreachable and hands
// them back, oldest first, on reconnect.
//
// A retained message replaces any queued retained message on the same topic,
// since the broker keeps only the last one. When the outbox is full the
// oldest button event is evicted first; retained system state is evicted
// only when nothing else is left. The caller must synchronize access.
type outbox struct {
	queue   []outMsg
	limit   int
	dropped int // evicted since the last take
	log     logrus.FieldLogger
}

// newOutbox returns an outbox holding at most limit messages. A limit of
// zero or less discards everything.
func newOutbox(limit int, log logrus.FieldLogger) *outbox {
	if limit < 0 {
		limit = 0
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &outbox{queue: make([]outMsg, 0, limit), limit: limit, log: log}
}

func (o *outbox) add(msg outMsg) {
	if o.limit == 0 {
		o.dropped++
		return
	}
	if msg.retained {
		for i, q := range o.queue {
			if q.retained && q.topic == msg.topic {
				o.queue = append(o.queue[:i], o.queue[i+1:]...)
				break
			}
		}
	}
	if len(o.queue) == o.limit {
		if o.dropped == 0 {
			o.log.WithField("limit", o.limit).Warn("mqtt outbox full, dropping oldest button event")
		}
		o.evict()
	}
	o.queue = append(o.queue, msg)
}

// evict removes the oldest non-retained message, or the oldest message when
// all of them are retained.
func (o *outbox) evict() {
	victim := 0
	for i, q := range o.queue {
		if !q.retained {
			victim = i
			break
		}
	}
	o.queue = append(o.queue[:victim], o.queue[victim+1:]...)
	o.dropped++
}

// take empties the outbox and reports how many messages were evicted since
// the previous take.
func (o *outbox) take() ([]outMsg, int) {
	dropped := o.dropped
	o.dropped = 0
	if len(o.queue) == 0 {
		return nil, dropped
	}
	msgs := o.queue
	o.queue = make([]outMsg, 0, o.limit)
	return msgs, dropped
}

func (o *outbox) len() int {
	return len(o.queue)
}
