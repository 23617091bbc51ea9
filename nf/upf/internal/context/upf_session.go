// Package context is the UPF's static session table: it is written only
// at configuration time and read concurrently, so lookups never block
// and counter mutation is confined to the worker that owns a session.
package context

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
)

// Session is one static UPF data-plane session.
type Session struct {
	UEIP        net.IP
	DLTEID      uint32
	ULTEID      uint32
	GNBIP       net.IP
	GNBPort     uint16
	DNIP        net.IP
	QoSPriority uint8
	DSCP        uint8

	// workerIndex is assigned once at Install time from a hash of UEIP and
	// never changes; every packet belonging to this session, in either
	// direction, is routed to this worker, simulating RSS flow affinity.
	workerIndex int

	dlSequence atomic.Uint32
	ulSequence atomic.Uint32
	dlBytes    atomic.Uint64
	dlPackets  atomic.Uint64
	ulBytes    atomic.Uint64
	ulPackets  atomic.Uint64
}

// WorkerIndex returns the worker that exclusively owns this session.
func (s *Session) WorkerIndex() int { return s.workerIndex }

// NextDLSequence increments and returns the downlink GTP-U sequence
// number. Only the owning worker may call this.
func (s *Session) NextDLSequence() uint16 { return uint16(s.dlSequence.Add(1)) }

// NextULSequence increments and returns the uplink sequence counter.
func (s *Session) NextULSequence() uint16 { return uint16(s.ulSequence.Add(1)) }

// RecordDownlink adds n bytes and one packet to the downlink counters.
func (s *Session) RecordDownlink(n int) {
	s.dlBytes.Add(uint64(n))
	s.dlPackets.Add(1)
}

// RecordUplink adds n bytes and one packet to the uplink counters.
func (s *Session) RecordUplink(n int) {
	s.ulBytes.Add(uint64(n))
	s.ulPackets.Add(1)
}

// Stats is a point-in-time snapshot of one session's counters.
type Stats struct {
	DLBytes   uint64
	DLPackets uint64
	ULBytes   uint64
	ULPackets uint64
}

// Stats returns a snapshot of this session's counters.
func (s *Session) Stats() Stats {
	return Stats{
		DLBytes:   s.dlBytes.Load(),
		DLPackets: s.dlPackets.Load(),
		ULBytes:   s.ulBytes.Load(),
		ULPackets: s.ulPackets.Load(),
	}
}

func workerIndexFor(ueIP net.IP, numWorkers int) int {
	h := fnv32a(ueIP.String())
	return int(h % uint32(numWorkers))
}

// fnv32a is the FNV-1a hash used to assign a session's owning worker.
func fnv32a(s string) uint32 {
	const offset32 = 2166136261
	const prime32 = 16777619
	h := uint32(offset32)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}

// Store is the UPF's static session table, indexed by UE IP (downlink)
// and uplink TEID (uplink); both indices are kept consistent.
type Store struct {
	mu         sync.RWMutex
	numWorkers int
	byUEIP     map[string]*Session
	byULTEID   map[uint32]*Session
}

// NewStore constructs an empty session table. numWorkers must match the
// worker pool's configured size, since session-to-worker assignment is
// computed here.
func NewStore(numWorkers int) *Store {
	return &Store{
		numWorkers: numWorkers,
		byUEIP:     make(map[string]*Session),
		byULTEID:   make(map[uint32]*Session),
	}
}

// Install adds a static session, assigning its owning worker. Fails if
// either index key is already in use, keeping the two indices consistent.
func (s *Store) Install(sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sess.UEIP.String()
	if _, exists := s.byUEIP[key]; exists {
		return fmt.Errorf("session already installed for ue ip %s", key)
	}
	if _, exists := s.byULTEID[sess.ULTEID]; exists {
		return fmt.Errorf("session already installed for uplink teid %#x", sess.ULTEID)
	}

	sess.workerIndex = workerIndexFor(sess.UEIP, s.numWorkers)
	s.byUEIP[key] = sess
	s.byULTEID[sess.ULTEID] = sess
	return nil
}

// Remove deletes a session from both indices.
func (s *Store) Remove(ueIP net.IP) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byUEIP[ueIP.String()]
	if !ok {
		return false
	}
	delete(s.byUEIP, ueIP.String())
	delete(s.byULTEID, sess.ULTEID)
	return true
}

// LookupByUEIP finds the session a downlink packet destined for ip
// belongs to.
func (s *Store) LookupByUEIP(ip net.IP) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.byUEIP[ip.String()]
	return sess, ok
}

// LookupByULTEID finds the session an uplink G-PDU carrying teid belongs
// to.
func (s *Store) LookupByULTEID(teid uint32) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.byULTEID[teid]
	return sess, ok
}

// All returns a snapshot slice of every installed session.
func (s *Store) All() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Session, 0, len(s.byUEIP))
	for _, sess := range s.byUEIP {
		out = append(out, sess)
	}
	return out
}

// Count returns the number of installed sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byUEIP)
}
