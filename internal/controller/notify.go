package controller

import (
	"github.com/fentz26/cleanbot/internal/models"
	"github.com/google/uuid"
)

// DefaultSubscriberBuffer is the channel capacity used when Subscribe is
// given a non-positive size.
const DefaultSubscriberBuffer = 16

// Subscription is a handle on the notification stream.
type Subscription struct {
	id int
	C  <-chan models.Notification
}

// Subscribe registers a listener for notifications emitted from now on.
// Delivery never blocks the controller: when the buffer is full the
// notification is dropped for that subscriber. The channel is closed by
// Unsubscribe or Close.
func (c *Controller) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	ch := make(chan models.Notification, buffer)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		close(ch)
		return &Subscription{id: -1, C: ch}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	return &Subscription{id: id, C: ch}
}

// Unsubscribe stops delivery to sub and closes its channel.
func (c *Controller) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if ch, ok := c.subs[sub.id]; ok {
		close(ch)
		delete(c.subs, sub.id)
	}
}

func (c *Controller) notifyLocked(sev models.Severity, kind models.NotificationKind, msg string) {
	n := models.Notification{
		ID:       uuid.New().String(),
		Severity: sev,
		Kind:     kind,
		Message:  msg,
		Time:     c.clock.Now(),
		Snapshot: c.state,
	}

	c.logger.Info(msg, "kind", kind, "status", c.state.Status, "phase", c.state.Phase,
		"battery", c.state.Battery, "progress", c.state.Progress)

	for id, ch := range c.subs {
		select {
		case ch <- n:
		default:
			c.logger.Warn("notification dropped", "subscriber", id, "kind", kind)
		}
	}
}
