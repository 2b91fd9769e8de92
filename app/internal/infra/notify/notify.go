package notify

import (
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const LevelError = "error"

// Notification is a message queued for the storefront to display.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// LogNotifier writes shopper-facing messages to the log.
type LogNotifier struct {
	logger *log.Entry
}

func NewLogNotifier(logger *log.Entry) *LogNotifier {
	if logger == nil {
		logger = log.WithField("component", "notify")
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Error(message string) {
	n.logger.WithField("level_hint", LevelError).Warn(message)
}

// DefaultInboxCapacity bounds the inbox when no capacity is given.
const DefaultInboxCapacity = 64

// Inbox queues notifications until the storefront drains them. When full,
// the oldest notification is dropped.
type Inbox struct {
	mu       sync.Mutex
	items    []Notification
	capacity int
	now      func() time.Time
}

func NewInbox(capacity int) *Inbox {
	if capacity <= 0 {
		capacity = DefaultInboxCapacity
	}
	return &Inbox{capacity: capacity, now: time.Now}
}

func (i *Inbox) Error(message string) {
	i.push(Notification{
		ID:        uuid.New(),
		Level:     LevelError,
		Message:   message,
		CreatedAt: i.now().UTC(),
	})
}

func (i *Inbox) push(n Notification) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.items) == i.capacity {
		i.items = i.items[1:]
	}
	i.items = append(i.items, n)
}

// Drain returns all queued notifications, oldest first, and empties the inbox.
func (i *Inbox) Drain() []Notification {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := i.items
	i.items = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

func (i *Inbox) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.items)
}

type errorNotifier interface {
	Error(message string)
}

// Multi fans a notification out to several sinks.
type Multi []errorNotifier

// NewMulti drops nil sinks, including typed nil pointers such as a nil *Inbox.
func NewMulti(sinks ...errorNotifier) Multi {
	m := make(Multi, 0, len(sinks))
	for _, sink := range sinks {
		if !isNilSink(sink) {
			m = append(m, sink)
		}
	}
	return m
}

func (m Multi) Error(message string) {
	for _, sink := range m {
		if !isNilSink(sink) {
			sink.Error(message)
		}
	}
}

func isNilSink(sink errorNotifier) bool {
	if sink == nil {
		return true
	}
	v := reflect.ValueOf(sink)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}
