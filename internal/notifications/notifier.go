package notifications

import (
	"github.com/sirupsen/logrus"

	"github.com/mtsuji/kanban-board-api/internal/events"
)

// Notifier subscribes to task lifecycle events and records them. It marks the
// boundary where a mail/push component would hang off the event contract;
// delivery itself lives outside this service.
type Notifier struct {
	log *logrus.Logger
}

func NewNotifier(log *logrus.Logger) *Notifier {
	return &Notifier{log: log}
}

// Register attaches the notifier to every lifecycle event.
func (n *Notifier) Register(bus *events.Bus) {
	bus.Subscribe(events.NameTaskCreated, n.handle)
	bus.Subscribe(events.NameTaskUpdated, n.handle)
	bus.Subscribe(events.NameTaskCompleted, n.handle)
	bus.Subscribe(events.NameStackTransition, n.handle)
	bus.Subscribe(events.NameUserAssigned, n.handle)
}

func (n *Notifier) handle(e events.Event) {
	entry := n.log.WithField("event", e.EventName())

	switch ev := e.(type) {
	case events.TaskCreated:
		entry.WithField("task_id", ev.TaskID).Info("task created")
	case events.TaskUpdated:
		entry.WithField("task_id", ev.TaskID).Debug("task updated")
	case events.TaskCompleted:
		entry.WithFields(logrus.Fields{
			"task_id": ev.TaskID,
			"stack":   ev.Stack,
		}).Info("task completed")
	case events.StackTransition:
		entry.WithFields(logrus.Fields{
			"task_id": ev.TaskID,
			"from":    ev.From,
			"to":      ev.To,
		}).Info("task moved between stacks")
	case events.UserAssigned:
		entry.WithFields(logrus.Fields{
			"task_id": ev.TaskID,
			"user_id": ev.UserID,
		}).Info("user assigned to task")
	}
}
