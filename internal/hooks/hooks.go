package hooks

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/userprofile/pkg/logger"
)

// Event names triggered around user writes and configuration changes.
const (
	UserCreatePre = "user.create.pre"
	UserUpdatePre = "user.update.pre"
	UserHydrate   = "user.hydrate"
	ConfigSaved   = "config.saved"
)

// Parameter names shared between user writes and their listeners.
const (
	// ParamSetting holds the decoded "o:setting" object of the request.
	ParamSetting = "o:setting"
	// ParamContext holds the fields.Context the payload was submitted in.
	ParamContext = "context"
	// ParamWriter is set by listeners to a TxWriter the caller runs inside its transaction.
	ParamWriter = "writer"
	// ParamRepresentation holds the map a hydrate listener may add keys to.
	ParamRepresentation = "representation"
)

// TxWriter persists data prepared by a listener once the user row exists.
type TxWriter func(tx *gorm.DB, userID string) error

// Event carries the subject of a trigger. Params is shared by all listeners so they
// can pass data to each other and back to the caller.
type Event struct {
	Name   string
	UserID string
	Params map[string]any
}

// Param returns the named parameter.
func (e Event) Param(key string) (any, bool) {
	value, ok := e.Params[key]
	return value, ok
}

// Listener reacts to an event. An error stops the remaining listeners.
type Listener func(ctx context.Context, event Event) error

// Manager dispatches events to listeners in registration order.
type Manager struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
}

func NewManager() *Manager {
	return &Manager{listeners: map[string][]Listener{}}
}

// On registers listener for event.
func (m *Manager) On(event string, listener Listener) {
	if listener == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners[event] = append(m.listeners[event], listener)
}

// Trigger runs every listener registered for event.Name and returns the first error.
func (m *Manager) Trigger(ctx context.Context, event Event) error {
	if m == nil {
		return nil
	}
	if event.Params == nil {
		event.Params = map[string]any{}
	}

	m.mu.RLock()
	listeners := append([]Listener(nil), m.listeners[event.Name]...)
	m.mu.RUnlock()

	for _, listener := range listeners {
		if err := listener(ctx, event); err != nil {
			logger.For(ctx, "hooks").Debug("listener rejected event",
				zap.String("event", event.Name),
				zap.String("user_id", event.UserID),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}

// Writer returns the TxWriter a listener stored on the event, if any.
func (e Event) Writer() TxWriter {
	writer, _ := e.Params[ParamWriter].(TxWriter)
	return writer
}

// Count reports how many listeners are registered for event.
func (m *Manager) Count(event string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.listeners[event])
}
