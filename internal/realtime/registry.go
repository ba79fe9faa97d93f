package realtime

import "sync"

// Registry is the broadcast capability set the relay depends on: join and
// leave rooms, drop a closing connection from everything it joined, and
// fan a frame out to a room. Keeping the relay behind this interface lets a
// single-process map or a cross-instance bridge back it interchangeably.
type Registry interface {
	Join(room string, c *Conn)
	Leave(room string, c *Conn)
	Drop(c *Conn)
	// Broadcast delivers data to every connection in the room except sender.
	Broadcast(room string, sender *Conn, data []byte)
}

// MemoryRegistry is the single-process Registry: a mutex-guarded map of room
// name to joined connections.
type MemoryRegistry struct {
	mu    sync.RWMutex
	rooms map[string]map[*Conn]struct{}
	conns map[*Conn]map[string]struct{}
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		rooms: make(map[string]map[*Conn]struct{}),
		conns: make(map[*Conn]map[string]struct{}),
	}
}

func (m *MemoryRegistry) Join(room string, c *Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rooms[room] == nil {
		m.rooms[room] = make(map[*Conn]struct{})
	}
	m.rooms[room][c] = struct{}{}

	if m.conns[c] == nil {
		m.conns[c] = make(map[string]struct{})
	}
	m.conns[c][room] = struct{}{}
}

func (m *MemoryRegistry) Leave(room string, c *Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remove(room, c)
}

// Drop removes the connection from every room it joined. Called exactly once
// from the connection's close path, so membership teardown is automatic and
// needs no per-room bookkeeping by callers.
func (m *MemoryRegistry) Drop(c *Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for room := range m.conns[c] {
		m.remove(room, c)
	}
	delete(m.conns, c)
}

// Broadcast fans data out to the room, excluding the sender. Sends are
// non-blocking: a recipient whose buffer is full misses the frame, which is
// acceptable for a best-effort relay. The read lock is held across the sends
// so a concurrent Drop cannot close a recipient mid-delivery.
func (m *MemoryRegistry) Broadcast(room string, sender *Conn, data []byte) {
	if data == nil {
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for c := range m.rooms[room] {
		if c == sender {
			continue
		}
		c.trySend(data)
	}
}

// Members reports the current size of a room.
func (m *MemoryRegistry) Members(room string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms[room])
}

func (m *MemoryRegistry) remove(room string, c *Conn) {
	if members, ok := m.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(m.rooms, room)
		}
	}
	if rooms, ok := m.conns[c]; ok {
		delete(rooms, room)
	}
}
