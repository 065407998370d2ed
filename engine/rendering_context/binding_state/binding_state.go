// package binding_state implements the snapshot diff at the heart of the state tracker. A
// BindingState is the full set of intended resource bindings at a point in time; comparing
// the applied snapshot against a pending one yields a ChangeSet, and applying the change-set
// issues the minimal device calls needed to make the live state match. Both snapshots are
// updated as entries apply, so a clean pass leaves them structurally equal.
package binding_state

import (
	"log"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/device"
)

// BindingState is one snapshot of intended bindings: buffers keyed by (target class, slot),
// textures and images keyed by unit. Entries compare by structural equality of the binding
// value, never by identity. A snapshot is exclusively owned by one rendering context and is
// not safe for concurrent mutation.
type BindingState struct {
	buffers  map[BufferKey]BufferBinding
	textures map[int]TextureBinding
	images   map[int]ImageBinding
}

// NewBindingState creates an empty snapshot.
//
// Returns:
//   - *BindingState: a snapshot with no bindings
func NewBindingState() *BindingState {
	return &BindingState{
		buffers:  make(map[BufferKey]BufferBinding),
		textures: make(map[int]TextureBinding),
		images:   make(map[int]ImageBinding),
	}
}

// SetBuffer stores a buffer binding at the given key, replacing any previous entry.
//
// Parameters:
//   - key: the (target class, slot) key
//   - binding: the binding value, tombstone included
func (s *BindingState) SetBuffer(key BufferKey, binding BufferBinding) {
	s.buffers[key] = binding
}

// Buffer returns the buffer binding at the given key.
//
// Parameters:
//   - key: the (target class, slot) key
//
// Returns:
//   - BufferBinding: the stored binding, zero when absent
//   - bool: true if the key is present
func (s *BindingState) Buffer(key BufferKey) (BufferBinding, bool) {
	binding, ok := s.buffers[key]
	return binding, ok
}

// SetTexture stores a texture binding at the given unit, replacing any previous entry.
//
// Parameters:
//   - unit: the texture unit
//   - binding: the binding value, tombstone included
func (s *BindingState) SetTexture(unit int, binding TextureBinding) {
	s.textures[unit] = binding
}

// Texture returns the texture binding at the given unit.
//
// Parameters:
//   - unit: the texture unit
//
// Returns:
//   - TextureBinding: the stored binding, zero when absent
//   - bool: true if the unit is present
func (s *BindingState) Texture(unit int) (TextureBinding, bool) {
	binding, ok := s.textures[unit]
	return binding, ok
}

// SetImage stores an image binding at the given unit, replacing any previous entry.
//
// Parameters:
//   - unit: the image unit
//   - binding: the binding value, tombstone included
func (s *BindingState) SetImage(unit int, binding ImageBinding) {
	s.images[unit] = binding
}

// Image returns the image binding at the given unit.
//
// Parameters:
//   - unit: the image unit
//
// Returns:
//   - ImageBinding: the stored binding, zero when absent
//   - bool: true if the unit is present
func (s *BindingState) Image(unit int) (ImageBinding, bool) {
	binding, ok := s.images[unit]
	return binding, ok
}

// Len returns the number of entries in the snapshot across all categories, tombstones
// included.
//
// Returns:
//   - int: the entry count
func (s *BindingState) Len() int {
	return len(s.buffers) + len(s.textures) + len(s.images)
}

// MakeDiff compares this snapshot (the applied state) against the target snapshot (the
// pending state) and returns the change-set of entries that must be re-applied. The
// comparison walks the union of both key sets per category: an entry is marked when forced
// is set, when the two values differ structurally, when the key is present on only one side,
// or, for buffers, when the cached byte range no longer matches the buffer's live range.
//
// Parameters:
//   - target: the pending snapshot to move toward
//   - forced: mark every key in the union regardless of equality
//   - limits: the device limits that size the change-set
//
// Returns:
//   - ChangeSet: the entries that need device calls
func (s *BindingState) MakeDiff(target *BindingState, forced bool, limits device.Limits) ChangeSet {
	changes := NewChangeSet(limits)

	for key, current := range s.buffers {
		pending, ok := target.buffers[key]
		if forced || !ok || current != pending || current.Stale() {
			changes.markBuffer(key)
		}
	}
	for key := range target.buffers {
		if _, ok := s.buffers[key]; !ok {
			changes.markBuffer(key)
		}
	}

	for unit, current := range s.textures {
		pending, ok := target.textures[unit]
		if forced || !ok || current != pending {
			changes.markTexture(unit)
		}
	}
	for unit := range target.textures {
		if _, ok := s.textures[unit]; !ok {
			changes.markTexture(unit)
		}
	}

	for unit, current := range s.images {
		pending, ok := target.images[unit]
		if forced || !ok || current != pending {
			changes.markImage(unit)
		}
	}
	for unit := range target.images {
		if _, ok := s.images[unit]; !ok {
			changes.markImage(unit)
		}
	}

	return changes
}

// Apply walks the change-set and issues one device call per marked entry, updating this
// snapshot and the target as it goes: a bind refreshes the cached byte range in both
// snapshots, an unbind erases the key from both. Slot-granular buffer classes are processed
// first (storage, uniform, atomic counter, transform feedback, slot by slot), then the
// single-slot classes, then texture units, then image units. The pass is not atomic: a
// device fault is logged, counted, and skipped over, leaving that entry for a later diff to
// retry; there is no rollback. Callers that suspect the live GPU state has drifted should
// re-apply with a forced diff.
//
// Parameters:
//   - dev: the device to issue calls against
//   - target: the pending snapshot the change-set was diffed against
//   - changes: the change-set to apply
//
// Returns:
//   - ApplyStats: device call and fault counts for this pass
func (s *BindingState) Apply(dev device.Device, target *BindingState, changes ChangeSet) ApplyStats {
	var stats ApplyStats

	keyedOrder := []struct {
		target common.BufferTarget
		set    *bitset
	}{
		{common.BufferTargetStorage, &changes.storage},
		{common.BufferTargetUniform, &changes.uniform},
		{common.BufferTargetAtomicCounter, &changes.atomic},
		{common.BufferTargetTransformFeedback, &changes.feedback},
	}
	for _, class := range keyedOrder {
		for slot := 0; slot < class.set.width; slot++ {
			if class.set.test(slot) {
				s.applyBuffer(dev, target, BufferKey{Target: class.target, Slot: slot}, &stats)
			}
		}
	}

	for t := common.BufferTarget(0); t < common.BufferTargetCount; t++ {
		if changes.generic.test(int(t)) {
			s.applyBuffer(dev, target, BufferKey{Target: t, Slot: 0}, &stats)
		}
	}

	for unit := 0; unit < changes.textures.width; unit++ {
		if changes.textures.test(unit) {
			s.applyTexture(dev, target, unit, &stats)
		}
	}

	for unit := 0; unit < changes.images.width; unit++ {
		if changes.images.test(unit) {
			s.applyImage(dev, target, unit, &stats)
		}
	}

	for _, key := range changes.unknown {
		s.settleUnknown(target, key, &stats)
	}

	return stats
}

// applyBuffer resolves one marked buffer key to a bind or unbind call. A missing or
// tombstoned target entry unbinds and erases the key from both snapshots; otherwise the
// buffer's live range is re-read and bound, and the refreshed binding is stored in both
// snapshots. On a device fault neither snapshot changes, so the next diff retries the key.
func (s *BindingState) applyBuffer(dev device.Device, target *BindingState, key BufferKey, stats *ApplyStats) {
	pending, ok := target.buffers[key]
	if !ok || pending.Buffer == nil {
		if err := dev.UnbindBuffer(key.Target, key.Slot); err != nil {
			stats.Faults++
			log.Printf("[BindingState] unbind %s buffer slot %d failed: %v", key.Target, key.Slot, err)
			return
		}
		stats.BufferUnbinds++
		delete(s.buffers, key)
		delete(target.buffers, key)
		return
	}

	refreshed := NewBufferBinding(pending.Buffer)
	if err := dev.BindBuffer(key.Target, key.Slot, refreshed.Buffer, refreshed.Offset, refreshed.Size); err != nil {
		stats.Faults++
		log.Printf("[BindingState] bind %s buffer slot %d failed: %v", key.Target, key.Slot, err)
		return
	}
	stats.BufferBinds++
	s.buffers[key] = refreshed
	target.buffers[key] = refreshed
}

// applyTexture resolves one marked texture unit to a bind or unbind call, with the same
// erase-on-unbind and skip-on-fault behavior as buffers.
func (s *BindingState) applyTexture(dev device.Device, target *BindingState, unit int, stats *ApplyStats) {
	pending, ok := target.textures[unit]
	if !ok || pending.Texture == nil {
		if err := dev.UnbindTexture(unit); err != nil {
			stats.Faults++
			log.Printf("[BindingState] unbind texture unit %d failed: %v", unit, err)
			return
		}
		stats.TextureUnbinds++
		delete(s.textures, unit)
		delete(target.textures, unit)
		return
	}

	if err := dev.BindTexture(unit, pending.Texture); err != nil {
		stats.Faults++
		log.Printf("[BindingState] bind texture unit %d failed: %v", unit, err)
		return
	}
	stats.TextureBinds++
	s.textures[unit] = pending
}

// applyImage resolves one marked image unit to a bind or unbind call, with the same
// erase-on-unbind and skip-on-fault behavior as buffers.
func (s *BindingState) applyImage(dev device.Device, target *BindingState, unit int, stats *ApplyStats) {
	pending, ok := target.images[unit]
	if !ok || pending.Texture == nil {
		if err := dev.UnbindImage(unit); err != nil {
			stats.Faults++
			log.Printf("[BindingState] unbind image unit %d failed: %v", unit, err)
			return
		}
		stats.ImageUnbinds++
		delete(s.images, unit)
		delete(target.images, unit)
		return
	}

	if err := dev.BindImage(unit, pending.attachment()); err != nil {
		stats.Faults++
		log.Printf("[BindingState] bind image unit %d failed: %v", unit, err)
		return
	}
	stats.ImageBinds++
	s.images[unit] = pending
}

// settleUnknown handles a buffer key that has no valid device binding point. The entry never
// reaches the device; it is reported once and the snapshots are reconciled so the same key
// does not re-report every frame.
func (s *BindingState) settleUnknown(target *BindingState, key BufferKey, stats *ApplyStats) {
	stats.UnknownTargets++
	log.Printf("[BindingState] cannot apply buffer binding %s slot %d: no valid binding point", key.Target, key.Slot)

	pending, ok := target.buffers[key]
	if !ok || pending.Buffer == nil {
		delete(s.buffers, key)
		delete(target.buffers, key)
		return
	}
	refreshed := NewBufferBinding(pending.Buffer)
	s.buffers[key] = refreshed
	target.buffers[key] = refreshed
}
