package services

import (
	"log"
	"sync"
	"time"
)

const (
	TopicWishlistCount   = "wishlist.count"
	TopicVisitsUpdated   = "visits.updated"
	TopicDashboardSample = "dashboard.sample"
)

const subscriberBuffer = 16

type Event struct {
	Topic string      `json:"topic"`
	Data  interface{} `json:"data"`
	At    time.Time   `json:"at"`
}

// EventConn is the part of a websocket connection the hub writes to.
type EventConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type Subscriber struct {
	userID string
	roles  map[string]bool
	conn   EventConn
	send   chan Event
	once   sync.Once
	done   chan struct{}
}

// Done is closed once the subscriber stops receiving events.
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

func (s *Subscriber) stop() {
	s.once.Do(func() {
		close(s.send)
	})
}

func (s *Subscriber) writeLoop(h *EventHub) {
	defer close(s.done)
	for event := range s.send {
		if err := s.conn.WriteJSON(event); err != nil {
			log.Printf("event push to %s failed: %v", s.userID, err)
			go h.Unregister(s)
			for range s.send {
			}
			return
		}
	}
}

// EventHub pushes events to websocket subscribers keyed by user id.
type EventHub struct {
	mu      sync.Mutex
	clients map[string]map[*Subscriber]struct{}
}

func NewEventHub() *EventHub {
	return &EventHub{clients: map[string]map[*Subscriber]struct{}{}}
}

func (h *EventHub) Register(userID string, roles []string, conn EventConn) *Subscriber {
	sub := &Subscriber{
		userID: userID,
		roles:  map[string]bool{},
		conn:   conn,
		send:   make(chan Event, subscriberBuffer),
		done:   make(chan struct{}),
	}
	for _, role := range roles {
		sub.roles[NormalizeRoleName(role)] = true
	}
	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = map[*Subscriber]struct{}{}
	}
	h.clients[userID][sub] = struct{}{}
	h.mu.Unlock()
	go sub.writeLoop(h)
	return sub
}

func (h *EventHub) Unregister(sub *Subscriber) {
	h.mu.Lock()
	if set, ok := h.clients[sub.userID]; ok {
		if _, present := set[sub]; present {
			delete(set, sub)
			sub.stop()
		}
		if len(set) == 0 {
			delete(h.clients, sub.userID)
		}
	}
	h.mu.Unlock()
}

// deliver never blocks; a subscriber whose buffer is full misses the event.
func deliver(sub *Subscriber, event Event) {
	select {
	case sub.send <- event:
	default:
		log.Printf("event %s dropped for slow subscriber %s", event.Topic, sub.userID)
	}
}

func (h *EventHub) PublishToUser(userID, topic string, data interface{}) {
	event := Event{Topic: topic, Data: data, At: time.Now().UTC()}
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.clients[userID] {
		deliver(sub, event)
	}
}

func (h *EventHub) PublishToRole(role, topic string, data interface{}) {
	role = NormalizeRoleName(role)
	event := Event{Topic: topic, Data: data, At: time.Now().UTC()}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.clients {
		for sub := range set {
			if sub.roles[role] {
				deliver(sub, event)
			}
		}
	}
}

func (h *EventHub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	total := 0
	for _, set := range h.clients {
		total += len(set)
	}
	return total
}

// Close disconnects every subscriber.
func (h *EventHub) Close() {
	h.mu.Lock()
	subs := []*Subscriber{}
	for _, set := range h.clients {
		for sub := range set {
			subs = append(subs, sub)
		}
	}
	h.clients = map[string]map[*Subscriber]struct{}{}
	h.mu.Unlock()
	for _, sub := range subs {
		sub.stop()
		<-sub.done
		_ = sub.conn.Close()
	}
}
