// Package context implements the process-wide UE context store: a
// supi-keyed map with a guti secondary index, sharded for per-UE
// concurrency.
package context

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"
)

// RegistrationState is the three-way UE registration/connection state.
type RegistrationState string

const (
	Deregistered        RegistrationState = "DEREGISTERED"
	RegisteredIdle       RegistrationState = "REGISTERED_IDLE"
	RegisteredConnected  RegistrationState = "REGISTERED_CONNECTED"
)

// SecurityContext holds the AMF/SEAF/AUSF key material and NAS counters.
type SecurityContext struct {
	KAMF               []byte
	KSEAF              []byte
	KeySetID           int
	LastAuthAt         time.Time
	Authenticated      bool
	IntegrityAlgorithm string
	CipheringAlgorithm string
	UplinkNASCount     uint32
	DownlinkNASCount   uint32
}

// TrackingAreaIdentity identifies a tracking area.
type TrackingAreaIdentity struct {
	PLMNID PLMNID
	TAC    string
}

// PLMNID is a Public Land Mobile Network identifier.
type PLMNID struct {
	MCC string
	MNC string
}

// SNSSAI is a slice identifier (SST + optional SD).
type SNSSAI struct {
	SST int
	SD  string
}

func (s SNSSAI) String() string {
	if s.SD == "" {
		return fmt.Sprintf("SST:%d", s.SST)
	}
	return fmt.Sprintf("SST:%d,SD:%s", s.SST, s.SD)
}

// Location holds the UE's last-known tracking area / cell / radio access.
type Location struct {
	TAI          TrackingAreaIdentity
	CellID       string
	AccessType   string
	LastUpdateAt time.Time
}

// AccessInfo holds the RAN-side access bookkeeping.
type AccessInfo struct {
	AccessType string
	RANNodeID  string
	RANAddress string
	Connected  bool
}

// MobilityInfo holds allowed/configured slice sets and roaming status.
type MobilityInfo struct {
	AllowedNSSAI    []SNSSAI
	ConfiguredNSSAI []SNSSAI
	Roaming         bool
}

// SubscriptionInfo holds the subscriber's provisioned slice access.
type SubscriptionInfo struct {
	SubscribedNSSAI   []SNSSAI
	AccessRestriction bool
	Emergency         bool
}

// PDUSessionState is the lifecycle state of a PDU session.
type PDUSessionState string

const (
	SessionActive   PDUSessionState = "ACTIVE"
	SessionInactive PDUSessionState = "INACTIVE"
)

// PDUSession is a single data-plane session belonging to a UE.
type PDUSession struct {
	SessionID     int
	DNN           string
	SNSSAI        SNSSAI
	SMFInstanceID string
	UPFInstanceID string
	Type          string
	State         PDUSessionState
	CreatedAt     time.Time
}

// UeContext represents one subscriber known to this AMF.
type UeContext struct {
	mu sync.RWMutex

	SUPI string
	PEI  string
	GPSI string
	GUTI string
	TMSI string

	State RegistrationState

	Security     SecurityContext
	Loc          Location
	Access       AccessInfo
	Mobility     MobilityInfo
	Subscription SubscriptionInfo

	sessions   map[int]*PDUSession
	nextSessID int

	CreatedAt    time.Time
	LastActivity time.Time
}

func newUeContext(supi string) *UeContext {
	now := time.Now()
	return &UeContext{
		SUPI:         supi,
		State:        Deregistered,
		sessions:     make(map[int]*PDUSession),
		nextSessID:   1,
		CreatedAt:    now,
		LastActivity: now,
	}
}

func (u *UeContext) touch() {
	u.LastActivity = time.Now()
}

// IsRegistered reports whether the UE has left the Deregistered state.
func (u *UeContext) IsRegistered() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.State != Deregistered
}

// IsConnected reports the RegisteredConnected sub-state.
func (u *UeContext) IsConnected() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.State == RegisteredConnected
}

// GetState returns the current registration state.
func (u *UeContext) GetState() RegistrationState {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.State
}

// SetState transitions the UE to newState, maintaining the connected
// invariant (iii) and touching lastActivity.
func (u *UeContext) SetState(newState RegistrationState) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.State = newState
	u.Access.Connected = newState == RegisteredConnected
	u.touch()
}

// SetSecurityContext replaces the security sub-context.
func (u *UeContext) SetSecurityContext(sc SecurityContext) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Security = sc
	u.touch()
}

// SetMobility replaces the allowed/configured NSSAI and roaming flag.
func (u *UeContext) SetMobility(m MobilityInfo) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Mobility = m
	u.touch()
}

// SetLocation updates the last-known location.
func (u *UeContext) SetLocation(loc Location) {
	u.mu.Lock()
	defer u.mu.Unlock()
	loc.LastUpdateAt = time.Now()
	u.Loc = loc
	u.touch()
}

// setGUTI is called by the store after it has updated the guti index and
// released the shard lock, so it only updates the context's own fields.
func (u *UeContext) setGUTI(guti string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.GUTI = guti
	u.touch()
}

// AddPDUSession allocates a new session id and stores the session. It
// fails if snssai is not in the UE's allowed list (invariant iv).
func (u *UeContext) AddPDUSession(dnn string, snssai SNSSAI, smfID, upfID, sessionType string) (*PDUSession, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	allowed := false
	for _, s := range u.Mobility.AllowedNSSAI {
		if s == snssai {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("snssai %s not in allowed list for %s", snssai, u.SUPI)
	}

	id := u.nextSessID
	u.nextSessID++
	sess := &PDUSession{
		SessionID:     id,
		DNN:           dnn,
		SNSSAI:        snssai,
		SMFInstanceID: smfID,
		UPFInstanceID: upfID,
		Type:          sessionType,
		State:         SessionActive,
		CreatedAt:     time.Now(),
	}
	u.sessions[id] = sess
	u.touch()
	return sess, nil
}

// RemovePDUSession deletes a session by id.
func (u *UeContext) RemovePDUSession(id int) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.sessions[id]; !ok {
		return false
	}
	delete(u.sessions, id)
	u.touch()
	return true
}

// Sessions returns a snapshot slice of active sessions.
func (u *UeContext) Sessions() []*PDUSession {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]*PDUSession, 0, len(u.sessions))
	for _, s := range u.sessions {
		cp := *s
		out = append(out, &cp)
	}
	return out
}

// SessionCount returns the number of active sessions.
func (u *UeContext) SessionCount() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.sessions)
}

// Snapshot returns a value copy of the scalar fields, safe to read
// without holding the lock further. Use Sessions() for the session set.
func (u *UeContext) Snapshot() UeContext {
	u.mu.RLock()
	defer u.mu.RUnlock()
	cp := *u
	cp.sessions = nil
	return cp
}

const shardCount = 64

// UeContextStore is the process-wide supi -> UeContext map, sharded by
// supi hash so mutations to different UEs never contend on the same
// lock (spec's per-UE exclusion guidance).
type UeContextStore struct {
	shards [shardCount]*shard
}

type shard struct {
	mu     sync.RWMutex
	bySupi map[string]*UeContext
	byGuti map[string]string // guti -> supi
}

func shardIndex(supi string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(supi))
	return h.Sum32() % shardCount
}

// NewUeContextStore constructs an empty, ready-to-use store.
func NewUeContextStore() *UeContextStore {
	s := &UeContextStore{}
	for i := range s.shards {
		s.shards[i] = &shard{
			bySupi: make(map[string]*UeContext),
			byGuti: make(map[string]string),
		}
	}
	return s
}

func (s *UeContextStore) shardFor(supi string) *shard {
	return s.shards[shardIndex(supi)]
}

// Create inserts a new Deregistered context for supi. It fails if an
// entry already exists.
func (s *UeContextStore) Create(supi string) (*UeContext, error) {
	sh := s.shardFor(supi)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, exists := sh.bySupi[supi]; exists {
		return nil, fmt.Errorf("ue context already exists: %s", supi)
	}
	ctx := newUeContext(supi)
	sh.bySupi[supi] = ctx
	return ctx, nil
}

// GetOrCreate returns the existing context for supi, creating one if
// absent. created reports whether a new context was made.
func (s *UeContextStore) GetOrCreate(supi string) (ctx *UeContext, created bool) {
	sh := s.shardFor(supi)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if existing, ok := sh.bySupi[supi]; ok {
		return existing, false
	}
	ctx = newUeContext(supi)
	sh.bySupi[supi] = ctx
	return ctx, true
}

// Get returns the context for supi, if present.
func (s *UeContextStore) Get(supi string) (*UeContext, bool) {
	sh := s.shardFor(supi)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	ctx, ok := sh.bySupi[supi]
	return ctx, ok
}

// GetByGuti follows the guti secondary index to the owning context.
func (s *UeContextStore) GetByGuti(guti string) (*UeContext, bool) {
	for _, sh := range s.shards {
		sh.mu.RLock()
		supi, ok := sh.byGuti[guti]
		sh.mu.RUnlock()
		if ok {
			return s.Get(supi)
		}
	}
	return nil, false
}

// AssignGUTI sets the guti on the context and keeps the reverse index
// consistent (invariant i).
func (s *UeContextStore) AssignGUTI(supi, guti string) error {
	sh := s.shardFor(supi)
	sh.mu.Lock()
	ctx, ok := sh.bySupi[supi]
	if !ok {
		sh.mu.Unlock()
		return fmt.Errorf("ue context not found: %s", supi)
	}
	if ctx.GUTI != "" {
		delete(sh.byGuti, ctx.GUTI)
	}
	sh.byGuti[guti] = supi
	sh.mu.Unlock()
	ctx.setGUTI(guti)
	return nil
}

// Remove deletes the context and its guti reverse mapping, if any.
func (s *UeContextStore) Remove(supi string) bool {
	sh := s.shardFor(supi)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	ctx, ok := sh.bySupi[supi]
	if !ok {
		return false
	}
	if ctx.GUTI != "" {
		delete(sh.byGuti, ctx.GUTI)
	}
	delete(sh.bySupi, supi)
	return true
}

// AllActive returns a snapshot of every context currently stored.
func (s *UeContextStore) AllActive() []*UeContext {
	var out []*UeContext
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, ctx := range sh.bySupi {
			out = append(out, ctx)
		}
		sh.mu.RUnlock()
	}
	return out
}

// BySlice returns every context whose allowed-NSSAI contains snssai.
func (s *UeContextStore) BySlice(snssai SNSSAI) []*UeContext {
	var out []*UeContext
	for _, ctx := range s.AllActive() {
		snap := ctx.Snapshot()
		for _, n := range snap.Mobility.AllowedNSSAI {
			if n == snssai {
				out = append(out, ctx)
				break
			}
		}
	}
	return out
}

// ByLocation returns every context whose last-known TAI matches tai.
func (s *UeContextStore) ByLocation(tai TrackingAreaIdentity) []*UeContext {
	var out []*UeContext
	for _, ctx := range s.AllActive() {
		snap := ctx.Snapshot()
		if snap.Loc.TAI == tai {
			out = append(out, ctx)
		}
	}
	return out
}

// Count returns the total number of stored contexts.
func (s *UeContextStore) Count() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.bySupi)
		sh.mu.RUnlock()
	}
	return n
}

// ConnectedCount returns the number of contexts in RegisteredConnected.
func (s *UeContextStore) ConnectedCount() int {
	n := 0
	for _, ctx := range s.AllActive() {
		if ctx.IsConnected() {
			n++
		}
	}
	return n
}

// ActiveSessionCount returns the total number of PDU sessions across
// all contexts.
func (s *UeContextStore) ActiveSessionCount() int {
	n := 0
	for _, ctx := range s.AllActive() {
		n += ctx.SessionCount()
	}
	return n
}

// SweepInactive removes contexts that are Deregistered and have been
// idle longer than threshold. Contexts in any other state are never
// removed by this sweep, regardless of idleness.
func (s *UeContextStore) SweepInactive(threshold time.Duration) int {
	now := time.Now()
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for supi, ctx := range sh.bySupi {
			snap := ctx.Snapshot()
			if snap.State != Deregistered {
				continue
			}
			if now.Sub(snap.LastActivity) <= threshold {
				continue
			}
			if snap.GUTI != "" {
				delete(sh.byGuti, snap.GUTI)
			}
			delete(sh.bySupi, supi)
			removed++
		}
		sh.mu.Unlock()
	}
	return removed
}
