package xr

// EventType is a session notification.
type EventType uint8

const (
	EventBlur EventType = iota + 1
	EventFocus
	EventEnd
)

func (t EventType) String() string {
	switch t {
	case EventBlur:
		return "blur"
	case EventFocus:
		return "focus"
	case EventEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Event is delivered to session listeners.
type Event struct {
	Type    EventType
	Session *Session
}

// Listener receives session events.
type Listener func(Event)

type subscription struct {
	id  uint64
	typ EventType
	fn  Listener
}

// dispatcher delivers events to listeners in subscription order.
type dispatcher struct {
	next uint64
	subs []subscription
}

func (d *dispatcher) subscribe(typ EventType, fn Listener) func() {
	d.next++
	id := d.next
	d.subs = append(d.subs, subscription{id: id, typ: typ, fn: fn})
	return func() { d.unsubscribe(id) }
}

func (d *dispatcher) unsubscribe(id uint64) {
	for i, s := range d.subs {
		if s.id == id {
			d.subs = append(d.subs[:i:i], d.subs[i+1:]...)
			return
		}
	}
}

// emit snapshots the listener list so listeners may (un)subscribe while
// being called.
func (d *dispatcher) emit(ev Event) {
	subs := append([]subscription(nil), d.subs...)
	for _, s := range subs {
		if s.typ == ev.Type {
			s.fn(ev)
		}
	}
}

func (d *dispatcher) clear() {
	d.subs = nil
}
