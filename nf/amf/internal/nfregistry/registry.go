package nfregistry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Registry is the AMF's peer-NF lifecycle and discovery store. It is
// adapted from the standalone NRF's MemoryRepository: same map-plus-
// mutex shape, same notion of a byType secondary index, generalized
// into the exact Register/Update/Deregister/UpdateStatus/Heartbeat/
// Discover/Select/HealthSweep/ExpireSweep contract the orchestrator
// needs.
type Registry struct {
	mu        sync.RWMutex
	instances map[string]*NfInstance
	byType    map[NFType]map[string]struct{}
	logger    *zap.Logger
}

// NewRegistry constructs an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		instances: make(map[string]*NfInstance),
		byType:    make(map[NFType]map[string]struct{}),
		logger:    logger,
	}
}

func (r *Registry) indexInsert(n *NfInstance) {
	set, ok := r.byType[n.NFType]
	if !ok {
		set = make(map[string]struct{})
		r.byType[n.NFType] = set
	}
	set[n.InstanceID] = struct{}{}
}

func (r *Registry) indexRemove(n *NfInstance) {
	if set, ok := r.byType[n.NFType]; ok {
		delete(set, n.InstanceID)
	}
}

// Register adds a new instance. It fails if the id already exists.
func (r *Registry) Register(n *NfInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.instances[n.InstanceID]; exists {
		return fmt.Errorf("nf instance already registered: %s", n.InstanceID)
	}

	n.clampLoad()
	n.RegisteredAt = time.Now()
	n.LastHeartbeat = time.Now()
	n.Status = StatusRegistered

	r.instances[n.InstanceID] = n
	r.indexInsert(n)

	r.logger.Info("nf registered",
		zap.String("instance_id", n.InstanceID),
		zap.String("nf_type", string(n.NFType)),
	)
	return nil
}

// Update replaces the stored profile for id, preserving RegisteredAt
// and LastHeartbeat.
func (r *Registry) Update(id string, n *NfInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.instances[id]
	if !exists {
		return fmt.Errorf("nf instance not found: %s", id)
	}

	n.clampLoad()
	n.InstanceID = id
	n.RegisteredAt = existing.RegisteredAt
	n.LastHeartbeat = existing.LastHeartbeat

	if existing.NFType != n.NFType {
		r.indexRemove(existing)
		r.indexInsert(n)
	}
	r.instances[id] = n
	return nil
}

// Deregister removes an instance.
func (r *Registry) Deregister(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, exists := r.instances[id]
	if !exists {
		return fmt.Errorf("nf instance not found: %s", id)
	}
	r.indexRemove(n)
	delete(r.instances, id)

	r.logger.Info("nf deregistered", zap.String("instance_id", id))
	return nil
}

// UpdateStatus sets an instance's status directly (e.g. operator
// override, or the orchestrator marking a peer Undiscoverable).
func (r *Registry) UpdateStatus(id string, status NFStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, exists := r.instances[id]
	if !exists {
		return fmt.Errorf("nf instance not found: %s", id)
	}
	n.Status = status
	return nil
}

// Heartbeat bumps lastHeartbeat to now. Idempotent modulo timestamp.
func (r *Registry) Heartbeat(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, exists := r.instances[id]
	if !exists {
		return fmt.Errorf("nf instance not found: %s", id)
	}
	n.LastHeartbeat = time.Now()
	return nil
}

// Get returns a copy of the stored instance.
func (r *Registry) Get(id string) (NfInstance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.instances[id]
	if !ok {
		return NfInstance{}, false
	}
	return *n, true
}

// Discover returns every healthy instance matching query, sorted by
// descending priority then ascending load.
func (r *Registry) Discover(query DiscoveryQuery) []NfInstance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := time.Now()
	var results []NfInstance
	for _, n := range r.instances {
		if !n.Healthy(now) {
			continue
		}
		if !query.matches(n) {
			continue
		}
		results = append(results, *n)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Priority != results[j].Priority {
			return results[i].Priority > results[j].Priority
		}
		return results[i].Load < results[j].Load
	})
	return results
}

// Select returns the first result of Discover, or false if none match.
func (r *Registry) Select(query DiscoveryQuery) (NfInstance, bool) {
	results := r.Discover(query)
	if len(results) == 0 {
		return NfInstance{}, false
	}
	return results[0], true
}

// HealthSweep suspends every instance whose heartbeat is at least 60s
// stale. Strict inequality is reserved for "fresh" (boundary case is
// stale), per the spec's boundary-behavior note.
func (r *Registry) HealthSweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	n := 0
	for _, inst := range r.instances {
		if inst.Status != StatusRegistered {
			continue
		}
		if now.Sub(inst.LastHeartbeat) >= suspendExpiry {
			inst.Status = StatusSuspended
			n++
		}
	}
	return n
}

// ExpireSweep deletes every instance whose heartbeat is older than
// 120s, regardless of current status.
func (r *Registry) ExpireSweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var expired []string
	for id, inst := range r.instances {
		if now.Sub(inst.LastHeartbeat) > deleteExpiry {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		r.indexRemove(r.instances[id])
		delete(r.instances, id)
		r.logger.Warn("nf instance expired and removed", zap.String("instance_id", id))
	}
	return len(expired)
}

// Count returns the total number of registered instances.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.instances)
}

// HealthyCount returns the number of currently healthy instances.
func (r *Registry) HealthyCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	now := time.Now()
	n := 0
	for _, inst := range r.instances {
		if inst.Healthy(now) {
			n++
		}
	}
	return n
}

// ByType returns the ids currently indexed under t (invariant i).
func (r *Registry) ByType(t NFType) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.byType[t]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}
