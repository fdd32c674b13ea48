package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	EventReservationCreated  = "reservation_created"
	EventReservationCanceled = "reservation_canceled"
	EventReservationDeleted  = "reservation_deleted"
	EventRoomCreated         = "room_created"
	EventRoomUpdated         = "room_updated"
	EventRoomDeleted         = "room_deleted"
)

// ReservationEvents lists every reservation lifecycle event type.
var ReservationEvents = []string{EventReservationCreated, EventReservationCanceled, EventReservationDeleted}

// RoomEvents lists every room directory event type.
var RoomEvents = []string{EventRoomCreated, EventRoomUpdated, EventRoomDeleted}

// ReservationEventPayload describes the reservation snapshot for event consumers.
// Personal fields other than the nickname are left out.
type ReservationEventPayload struct {
	ReservationID int64     `json:"reservation_id"`
	RoomID        int64     `json:"room_id"`
	Nickname      string    `json:"nickname"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	ChangedBy     string    `json:"changed_by"` // requester | admin
}

type RoomEventPayload struct {
	RoomID    int64  `json:"room_id"`
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Images    int    `json:"images"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the JSON payload into v.
func (e *Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers one handler for several event types.
func (b *EventBus) SubscribeAll(eventTypes []string, handler EventHandler) {
	for _, t := range eventTypes {
		b.Subscribe(t, handler)
	}
}

// Publish runs every handler subscribed to the event type in order. Handler
// errors and panics are collected; they never stop the remaining handlers.
func (b *EventBus) Publish(event *Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var errs []error
	for _, handler := range handlers {
		if err := dispatch(handler, event); err != nil {
			errs = append(errs, fmt.Errorf("%s handler: %w", event.Type, err))
		}
	}
	return errors.Join(errs...)
}

func dispatch(handler EventHandler, event *Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return handler(event)
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}
	return b.Publish(&event)
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
