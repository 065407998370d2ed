package binding_state

import (
	"math/bits"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/device"
)

// bitset is a fixed-width bit vector. The width is set at construction and never grows;
// out-of-range indices are ignored on set and report false on test.
type bitset struct {
	width int
	words []uint64
}

// newBitset allocates a bit vector holding width bits, all clear.
func newBitset(width int) bitset {
	if width < 0 {
		width = 0
	}
	return bitset{
		width: width,
		words: make([]uint64, (width+63)/64),
	}
}

func (b *bitset) set(i int) {
	if i < 0 || i >= b.width {
		return
	}
	b.words[i/64] |= 1 << (uint(i) % 64)
}

func (b bitset) test(i int) bool {
	if i < 0 || i >= b.width {
		return false
	}
	return b.words[i/64]&(1<<(uint(i)%64)) != 0
}

func (b bitset) count() int {
	n := 0
	for _, w := range b.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// ApplyStats summarizes one Apply pass: how many device calls were issued per category and
// how many entries could not be applied cleanly.
type ApplyStats struct {
	// BufferBinds is the number of successful buffer bind calls.
	BufferBinds int
	// BufferUnbinds is the number of successful buffer unbind calls.
	BufferUnbinds int
	// TextureBinds is the number of successful texture bind calls.
	TextureBinds int
	// TextureUnbinds is the number of successful texture unbind calls.
	TextureUnbinds int
	// ImageBinds is the number of successful image bind calls.
	ImageBinds int
	// ImageUnbinds is the number of successful image unbind calls.
	ImageUnbinds int
	// Faults is the number of device calls the driver rejected.
	Faults int
	// UnknownTargets is the number of buffer entries that never reached the device because
	// their key cannot be expressed as a valid device binding point.
	UnknownTargets int
}

// Binds returns the total number of successful bind calls across all categories.
//
// Returns:
//   - int: buffer, texture and image binds combined
func (s ApplyStats) Binds() int {
	return s.BufferBinds + s.TextureBinds + s.ImageBinds
}

// Unbinds returns the total number of successful unbind calls across all categories.
//
// Returns:
//   - int: buffer, texture and image unbinds combined
func (s ApplyStats) Unbinds() int {
	return s.BufferUnbinds + s.TextureUnbinds + s.ImageUnbinds
}

// Calls returns the total number of device calls issued, successful or not.
//
// Returns:
//   - int: binds plus unbinds plus faults
func (s ApplyStats) Calls() int {
	return s.Binds() + s.Unbinds() + s.Faults
}

// Add accumulates another stats value into this one, field by field.
//
// Parameters:
//   - other: the stats to accumulate
func (s *ApplyStats) Add(other ApplyStats) {
	s.BufferBinds += other.BufferBinds
	s.BufferUnbinds += other.BufferUnbinds
	s.TextureBinds += other.TextureBinds
	s.TextureUnbinds += other.TextureUnbinds
	s.ImageBinds += other.ImageBinds
	s.ImageUnbinds += other.ImageUnbinds
	s.Faults += other.Faults
	s.UnknownTargets += other.UnknownTargets
}

// ChangeSet is the compact result of a snapshot diff: fixed-width bit vectors sized to the
// device limits, one per slot-granular buffer class, one shared vector with a single bit per
// remaining buffer class, one bit per texture unit and one bit per image unit. Buffer keys
// that cannot be expressed in the fixed-width vectors (unrecognized target class, slot beyond
// the class limit, non-zero slot on a single-slot class) are carried in an explicit side list
// instead of being aliased onto a valid bit.
type ChangeSet struct {
	uniform  bitset
	storage  bitset
	atomic   bitset
	feedback bitset
	// generic holds one bit per non-keyed buffer class, indexed by the target value.
	generic  bitset
	textures bitset
	images   bitset
	// unknown holds the buffer keys that have no representable bit. They still participate
	// in the diff so callers see them, but the apply path only reports them.
	unknown []BufferKey
}

// NewChangeSet creates an empty change-set sized to the given device limits. Non-positive
// limit fields fall back to the conservative defaults.
//
// Parameters:
//   - limits: the device limits that size the per-category bit vectors
//
// Returns:
//   - ChangeSet: an empty change-set
func NewChangeSet(limits device.Limits) ChangeSet {
	limits = limits.OrDefaults()
	return ChangeSet{
		uniform:  newBitset(limits.MaxUniformBufferSlots),
		storage:  newBitset(limits.MaxStorageBufferSlots),
		atomic:   newBitset(limits.MaxAtomicCounterBufferSlots),
		feedback: newBitset(limits.MaxTransformFeedbackBufferSlots),
		generic:  newBitset(int(common.BufferTargetCount)),
		textures: newBitset(limits.MaxTextureUnits),
		images:   newBitset(limits.MaxImageUnits),
	}
}

// classSet returns the bit vector for a keyed target class, or nil for non-keyed classes.
func (c *ChangeSet) classSet(target common.BufferTarget) *bitset {
	switch target {
	case common.BufferTargetUniform:
		return &c.uniform
	case common.BufferTargetStorage:
		return &c.storage
	case common.BufferTargetAtomicCounter:
		return &c.atomic
	case common.BufferTargetTransformFeedback:
		return &c.feedback
	default:
		return nil
	}
}

// markBuffer records a changed buffer key. Keys that cannot be expressed in the fixed-width
// vectors land in the unknown list exactly once.
func (c *ChangeSet) markBuffer(key BufferKey) {
	if !key.Target.Valid() {
		c.markUnknown(key)
		return
	}
	if key.Target.Keyed() {
		set := c.classSet(key.Target)
		if key.Slot < 0 || key.Slot >= set.width {
			c.markUnknown(key)
			return
		}
		set.set(key.Slot)
		return
	}
	if key.Slot != 0 {
		c.markUnknown(key)
		return
	}
	c.generic.set(int(key.Target))
}

// markUnknown appends the key to the unknown list, skipping duplicates. The list stays tiny
// in practice, it only fills on caller error.
func (c *ChangeSet) markUnknown(key BufferKey) {
	for _, k := range c.unknown {
		if k == key {
			return
		}
	}
	c.unknown = append(c.unknown, key)
}

// markTexture records a changed texture unit.
func (c *ChangeSet) markTexture(unit int) {
	c.textures.set(unit)
}

// markImage records a changed image unit.
func (c *ChangeSet) markImage(unit int) {
	c.images.set(unit)
}

// BufferChanged reports whether the given buffer key is marked changed.
//
// Parameters:
//   - key: the buffer key to query
//
// Returns:
//   - bool: true if the key is marked, including keys carried on the unknown list
func (c *ChangeSet) BufferChanged(key BufferKey) bool {
	if key.Target.Valid() {
		if key.Target.Keyed() {
			if set := c.classSet(key.Target); key.Slot >= 0 && key.Slot < set.width {
				return set.test(key.Slot)
			}
		} else if key.Slot == 0 {
			return c.generic.test(int(key.Target))
		}
	}
	for _, k := range c.unknown {
		if k == key {
			return true
		}
	}
	return false
}

// TextureChanged reports whether the given texture unit is marked changed.
//
// Parameters:
//   - unit: the texture unit to query
//
// Returns:
//   - bool: true if the unit is marked
func (c *ChangeSet) TextureChanged(unit int) bool {
	return c.textures.test(unit)
}

// ImageChanged reports whether the given image unit is marked changed.
//
// Parameters:
//   - unit: the image unit to query
//
// Returns:
//   - bool: true if the unit is marked
func (c *ChangeSet) ImageChanged(unit int) bool {
	return c.images.test(unit)
}

// UnknownKeys returns the buffer keys that have no representable bit. The slice is owned by
// the change-set; callers must not mutate it.
//
// Returns:
//   - []BufferKey: the unrepresentable keys, in mark order
func (c *ChangeSet) UnknownKeys() []BufferKey {
	return c.unknown
}

// Count returns the total number of marked entries across all categories, including the
// unknown list.
//
// Returns:
//   - int: the marked entry count
func (c *ChangeSet) Count() int {
	return c.uniform.count() +
		c.storage.count() +
		c.atomic.count() +
		c.feedback.count() +
		c.generic.count() +
		c.textures.count() +
		c.images.count() +
		len(c.unknown)
}

// Empty reports whether no entry is marked.
//
// Returns:
//   - bool: true if the change-set holds no marks
func (c *ChangeSet) Empty() bool {
	return c.Count() == 0
}
