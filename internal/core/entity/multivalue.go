package entity

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Collector enumerates the live inventory of an aggregator, upserting one child
// per item into the refresh it is handed.
type Collector func(r *Refresh)

type childEntry struct {
	sensor     Sensor
	generation uint64
}

type childMap map[string]childEntry

// MultiValueSensor owns a dynamic set of child sensors rebuilt on each
// UpdateSensorValues call. The rebuild works on a copy of the previous mapping
// and swaps it in, so readers see either the old or the new mapping.
// Children missing from a cycle keep their previous value and generation.
type MultiValueSensor struct {
	*BaseSensor
	collect Collector

	rebuildMu  sync.Mutex
	generation uint64
	failed     bool
	children   atomic.Pointer[childMap]
}

func NewMultiValueSensor(id *Identity, interval time.Duration, logger *zap.Logger, collect Collector) *MultiValueSensor {
	m := &MultiValueSensor{
		BaseSensor: NewBaseSensor(id, interval, SensorOptions{}, logger),
		collect:    collect,
	}
	empty := childMap{}
	m.children.Store(&empty)
	return m
}

func (m *MultiValueSensor) Kind() Kind {
	return KIND_MULTI_VALUE_SENSOR
}

// GetAutoDiscoveryConfig is always nil: only children are announced.
func (m *MultiValueSensor) GetAutoDiscoveryConfig(ctx DiscoveryContext) *DiscoveryConfig {
	return nil
}

func (m *MultiValueSensor) State() string {
	return ""
}

func (m *MultiValueSensor) UpdateSensorValues() {
	m.rebuildMu.Lock()
	defer m.rebuildMu.Unlock()

	m.generation++
	prev := *m.children.Load()
	next := make(childMap, len(prev))
	for k, v := range prev {
		next[k] = v
	}
	r := &Refresh{parent: m, next: next, generation: m.generation}
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.Fail(fmt.Errorf("sensor enumeration panicked: %v", rec))
			}
		}()
		m.collect(r)
	}()
	m.failed = r.err != nil
	m.children.Store(&next)
}

// Completed reports whether the latest cycle enumerated the whole inventory.
// After a failed cycle every child looks stale, so it must not be pruned.
func (m *MultiValueSensor) Completed() bool {
	m.rebuildMu.Lock()
	defer m.rebuildMu.Unlock()
	return !m.failed
}

// Sensors returns a snapshot of the current child mapping.
func (m *MultiValueSensor) Sensors() map[string]Sensor {
	current := *m.children.Load()
	out := make(map[string]Sensor, len(current))
	for k, v := range current {
		out[k] = v.sensor
	}
	return out
}

func (m *MultiValueSensor) Generation() uint64 {
	m.rebuildMu.Lock()
	defer m.rebuildMu.Unlock()
	return m.generation
}

// ChildGeneration reports the cycle in which childId was last refreshed.
func (m *MultiValueSensor) ChildGeneration(childId string) (uint64, bool) {
	entry, ok := (*m.children.Load())[childId]
	return entry.generation, ok
}

// Stale lists the children not refreshed by the latest cycle, sorted.
func (m *MultiValueSensor) Stale() []string {
	m.rebuildMu.Lock()
	gen := m.generation
	m.rebuildMu.Unlock()

	stale := []string{}
	for k, v := range *m.children.Load() {
		if v.generation < gen {
			stale = append(stale, k)
		}
	}
	sort.Strings(stale)
	return stale
}

// Prune drops the stale children and returns their ids. Nothing is pruned
// after a failed cycle.
func (m *MultiValueSensor) Prune() []string {
	m.rebuildMu.Lock()
	defer m.rebuildMu.Unlock()

	if m.failed {
		return []string{}
	}

	prev := *m.children.Load()
	next := make(childMap, len(prev))
	pruned := []string{}
	for k, v := range prev {
		if v.generation < m.generation {
			pruned = append(pruned, k)
			continue
		}
		next[k] = v
	}
	m.children.Store(&next)
	sort.Strings(pruned)
	return pruned
}

// Refresh is the write side of a single aggregation cycle.
type Refresh struct {
	parent     *MultiValueSensor
	next       childMap
	generation uint64
	added      []string
	err        error
}

// Fail marks the cycle as incomplete. The error is logged and the children
// kept from previous cycles are left in place.
func (r *Refresh) Fail(err error) {
	r.parent.Logger.Error("sensor enumeration failed", zap.Error(err))
	if r.err == nil {
		r.err = err
	}
}

func (r *Refresh) Err() error {
	return r.err
}

func (r *Refresh) Parent() *MultiValueSensor {
	return r.parent
}

// Added lists the child ids first seen in this cycle.
func (r *Refresh) Added() []string {
	return r.added
}

// ChildIdentity builds the identity of a child keyed by key: id
// {parentId}_{key}, entity name {safe(parentEntityName)}_{key}, object id = id.
func (r *Refresh) ChildIdentity(key, name string) *Identity {
	parent := r.parent.Identity()
	childId := fmt.Sprintf("%s_%s", parent.Id, key)
	entityName := fmt.Sprintf("%s_%s", DeriveObjectId(parent.EntityName), key)
	id := NewIdentity(DOMAIN_SENSOR, entityName, name, childId)
	id.SetObjectId(childId)
	return id
}

// Value returns the child ValueSensor stored under key, reusing the instance
// from a previous cycle so discovery caches survive, and marks it fresh.
func (r *Refresh) Value(key, name string, opts SensorOptions, useAttributes bool) *ValueSensor {
	id := r.ChildIdentity(key, name)
	if existing, ok := r.next[id.Id]; ok {
		if vs, ok := existing.sensor.(*ValueSensor); ok {
			r.next[id.Id] = childEntry{sensor: vs, generation: r.generation}
			return vs
		}
	}
	id.UseAttributes = useAttributes
	vs := NewValueSensor(id, r.parent.UpdateInterval(), opts, r.parent.Logger)
	r.Upsert(vs)
	return vs
}

// Upsert stores s under its id, stamped with the current generation.
func (r *Refresh) Upsert(s Sensor) {
	childId := s.Identity().Id
	if _, ok := r.next[childId]; !ok {
		r.added = append(r.added, childId)
	}
	r.next[childId] = childEntry{sensor: s, generation: r.generation}
}

// Count publishes n under key as the aggregate count child.
func (r *Refresh) Count(key, name, icon string, n int) *ValueSensor {
	vs := r.Value(key, name, SensorOptions{Icon: icon, StateClass: "measurement"}, false)
	vs.SetInt(n)
	return vs
}

// Try runs one item of the enumeration. A failure or panic is logged at error
// level and reported as false; the cycle carries on.
func (r *Refresh) Try(item string, fn func() error) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.parent.Logger.Error("sensor item panicked", zap.String("item", item), zap.Error(fmt.Errorf("%v", rec)))
			ok = false
		}
	}()
	if err := fn(); err != nil {
		r.parent.Logger.Error("sensor item failed", zap.String("item", item), zap.Error(err))
		return false
	}
	return true
}
