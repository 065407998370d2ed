package shader

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cogentcore/webgpu/wgpu"
)

// spirvMagic is the SPIR-V module magic number in host word order.
const spirvMagic = 0x07230203

// SPIR-V opcodes consumed by the reflector. Every other opcode is skipped over using the
// word count in the instruction header.
const (
	opName              = 5
	opEntryPoint        = 15
	opTypeVoid          = 19
	opTypeBool          = 20
	opTypeInt           = 21
	opTypeFloat         = 22
	opTypeVector        = 23
	opTypeMatrix        = 24
	opTypeImage         = 25
	opTypeSampler       = 26
	opTypeSampledImage  = 27
	opTypeArray         = 28
	opTypeRuntimeArray  = 29
	opTypeStruct        = 30
	opTypePointer       = 32
	opConstantTrue      = 41
	opConstantFalse     = 42
	opConstant          = 43
	opSpecConstantTrue  = 48
	opSpecConstantFalse = 49
	opSpecConstant      = 50
	opVariable          = 59
	opDecorate          = 71
	opMemberDecorate    = 72
)

// SPIR-V decorations consumed by the reflector.
const (
	decSpecID               = 1
	decBlock                = 2
	decBufferBlock          = 3
	decArrayStride          = 6
	decBuiltIn              = 11
	decNonWritable          = 24
	decLocation             = 30
	decBinding              = 33
	decDescriptorSet        = 34
	decOffset               = 35
	decInputAttachmentIndex = 43
)

// SPIR-V storage classes consumed by the reflector.
const (
	classUniformConstant = 0
	classInput           = 1
	classUniform         = 2
	classOutput          = 3
	classPushConstant    = 9
	classStorageBuffer   = 12
)

// SPIR-V execution models mapped to shader stages.
const (
	modelVertex    = 0
	modelFragment  = 4
	modelGLCompute = 5
)

// dimSubpassData is the OpTypeImage dimensionality of an input attachment.
const dimSubpassData = 6

// typeDef is one parsed type instruction: the opcode plus the operand words after the
// result id. The operand layout follows the instruction's opcode.
type typeDef struct {
	op   uint32
	args []uint32
}

// varDef is one parsed OpVariable at module scope.
type varDef struct {
	id     uint32
	typeID uint32
	class  uint32
}

// specDef is one parsed scalar specialization constant.
type specDef struct {
	id     uint32
	typeID uint32
}

// module holds the instruction-level view of a SPIR-V binary needed for resource
// reflection: debug names, decorations, the type graph, scalar constants, global
// variables and specialization constants.
type module struct {
	names      map[uint32]string
	decs       map[uint32]map[uint32][]uint32
	memberDecs map[uint32]map[uint32]map[uint32][]uint32
	types      map[uint32]typeDef
	constants  map[uint32]uint64
	vars       []varDef
	specs      []specDef
	stages     wgpu.ShaderStage
}

// Reflect statically extracts the resource binding layout from a SPIR-V module. The result
// is ordered by category (inputs, input attachments, outputs, separate images, combined
// image samplers, storage images, samplers, uniform buffers, storage buffers, push
// constants, specialization constants) and by result id within a category. The stage mask
// on every descriptor is the union of the module's entry point stages.
//
// Parameters:
//   - words: the SPIR-V binary as a host-order word stream
//
// Returns:
//   - []ShaderResource: the reflected resources in emission order
//   - error: a malformed-module error, or nil
func Reflect(words []uint32) ([]ShaderResource, error) {
	m, err := parseModule(words)
	if err != nil {
		return nil, err
	}
	return m.resources(), nil
}

// parseModule scans the word stream once, collecting the instructions reflection needs and
// skipping everything else by instruction word count.
func parseModule(words []uint32) (*module, error) {
	if len(words) < 5 {
		return nil, errors.New("shader: SPIR-V module shorter than its header")
	}
	if words[0] != spirvMagic {
		return nil, fmt.Errorf("shader: bad SPIR-V magic number 0x%08x", words[0])
	}

	m := &module{
		names:      make(map[uint32]string),
		decs:       make(map[uint32]map[uint32][]uint32),
		memberDecs: make(map[uint32]map[uint32]map[uint32][]uint32),
		types:      make(map[uint32]typeDef),
		constants:  make(map[uint32]uint64),
	}

	for i := 5; i < len(words); {
		header := words[i]
		opcode := header & 0xFFFF
		count := int(header >> 16)
		if count == 0 {
			return nil, fmt.Errorf("shader: zero-length SPIR-V instruction at word %d", i)
		}
		if i+count > len(words) {
			return nil, fmt.Errorf("shader: truncated SPIR-V instruction at word %d", i)
		}
		ops := words[i+1 : i+count]

		switch opcode {
		case opName:
			if len(ops) >= 1 {
				name, _ := decodeString(ops[1:])
				m.names[ops[0]] = name
			}
		case opEntryPoint:
			if len(ops) >= 1 {
				m.stages |= stageForModel(ops[0])
			}
		case opTypeVoid, opTypeBool, opTypeInt, opTypeFloat, opTypeVector, opTypeMatrix,
			opTypeImage, opTypeSampler, opTypeSampledImage, opTypeArray, opTypeRuntimeArray,
			opTypeStruct, opTypePointer:
			if len(ops) >= 1 {
				m.types[ops[0]] = typeDef{op: opcode, args: ops[1:]}
			}
		case opConstant, opSpecConstant:
			if len(ops) >= 3 {
				value := uint64(ops[2])
				if len(ops) >= 4 {
					value |= uint64(ops[3]) << 32
				}
				m.constants[ops[1]] = value
			}
			if opcode == opSpecConstant && len(ops) >= 2 {
				m.specs = append(m.specs, specDef{id: ops[1], typeID: ops[0]})
			}
		case opConstantTrue, opSpecConstantTrue:
			if len(ops) >= 2 {
				m.constants[ops[1]] = 1
				if opcode == opSpecConstantTrue {
					m.specs = append(m.specs, specDef{id: ops[1], typeID: ops[0]})
				}
			}
		case opConstantFalse, opSpecConstantFalse:
			if len(ops) >= 2 {
				m.constants[ops[1]] = 0
				if opcode == opSpecConstantFalse {
					m.specs = append(m.specs, specDef{id: ops[1], typeID: ops[0]})
				}
			}
		case opVariable:
			if len(ops) >= 3 {
				m.vars = append(m.vars, varDef{id: ops[1], typeID: ops[0], class: ops[2]})
			}
		case opDecorate:
			if len(ops) >= 2 {
				target, dec := ops[0], ops[1]
				if m.decs[target] == nil {
					m.decs[target] = make(map[uint32][]uint32)
				}
				m.decs[target][dec] = ops[2:]
			}
		case opMemberDecorate:
			if len(ops) >= 3 {
				target, member, dec := ops[0], ops[1], ops[2]
				if m.memberDecs[target] == nil {
					m.memberDecs[target] = make(map[uint32]map[uint32][]uint32)
				}
				if m.memberDecs[target][member] == nil {
					m.memberDecs[target][member] = make(map[uint32][]uint32)
				}
				m.memberDecs[target][member][dec] = ops[3:]
			}
		}

		i += count
	}

	return m, nil
}

// decodeString reads a NUL-terminated UTF-8 literal packed little-endian into words,
// returning the string and the number of words consumed.
func decodeString(ops []uint32) (string, int) {
	var buf []byte
	for i, w := range ops {
		for shift := 0; shift < 32; shift += 8 {
			c := byte(w >> shift)
			if c == 0 {
				return string(buf), i + 1
			}
			buf = append(buf, c)
		}
	}
	return string(buf), len(ops)
}

// stageForModel maps a SPIR-V execution model to a stage bit.
func stageForModel(model uint32) wgpu.ShaderStage {
	switch model {
	case modelVertex:
		return wgpu.ShaderStageVertex
	case modelFragment:
		return wgpu.ShaderStageFragment
	case modelGLCompute:
		return wgpu.ShaderStageCompute
	default:
		return wgpu.ShaderStageNone
	}
}

// decoration returns the first operand of a decoration on the id.
func (m *module) decoration(id, dec uint32) (uint32, bool) {
	ops, ok := m.decs[id][dec]
	if !ok {
		return 0, false
	}
	if len(ops) == 0 {
		return 0, true
	}
	return ops[0], true
}

// decorated reports whether the id carries the decoration.
func (m *module) decorated(id, dec uint32) bool {
	_, ok := m.decs[id][dec]
	return ok
}

// memberDecoration returns the first operand of a decoration on a struct member.
func (m *module) memberDecoration(structID, member, dec uint32) (uint32, bool) {
	ops, ok := m.memberDecs[structID][member][dec]
	if !ok {
		return 0, false
	}
	if len(ops) == 0 {
		return 0, true
	}
	return ops[0], true
}

// anyMemberDecorated reports whether any member of the struct carries the decoration.
func (m *module) anyMemberDecorated(structID, dec uint32) bool {
	for _, decs := range m.memberDecs[structID] {
		if _, ok := decs[dec]; ok {
			return true
		}
	}
	return false
}

// allMembersDecorated reports whether every member of the struct carries the decoration.
func (m *module) allMembersDecorated(structID uint32, memberCount int, dec uint32) bool {
	if memberCount == 0 {
		return false
	}
	for i := 0; i < memberCount; i++ {
		if _, ok := m.memberDecs[structID][uint32(i)][dec]; !ok {
			return false
		}
	}
	return true
}

// typeSize computes the declared byte size of a type. Runtime-sized arrays contribute
// zero, matching how struct blocks declare their tail. The depth guard stops malformed
// cyclic type graphs.
func (m *module) typeSize(id uint32, depth int) uint32 {
	if depth > 32 {
		return 0
	}
	t, ok := m.types[id]
	if !ok {
		return 0
	}
	switch t.op {
	case opTypeBool:
		return 4
	case opTypeInt, opTypeFloat:
		if len(t.args) >= 1 {
			return t.args[0] / 8
		}
		return 4
	case opTypeVector, opTypeMatrix:
		if len(t.args) >= 2 {
			return t.args[1] * m.typeSize(t.args[0], depth+1)
		}
		return 0
	case opTypeArray:
		if len(t.args) < 2 {
			return 0
		}
		length := uint32(m.constants[t.args[1]])
		if stride, ok := m.decoration(id, decArrayStride); ok {
			return length * stride
		}
		return length * m.typeSize(t.args[0], depth+1)
	case opTypeRuntimeArray:
		return 0
	case opTypeStruct:
		var size uint32
		for i, memberType := range t.args {
			memberSize := m.typeSize(memberType, depth+1)
			if offset, ok := m.memberDecoration(id, uint32(i), decOffset); ok {
				if end := offset + memberSize; end > size {
					size = end
				}
			} else {
				size += memberSize
			}
		}
		return size
	default:
		return 0
	}
}

// scalarKind classifies the scalar base type of a numeric type, unwrapping vectors.
func (m *module) scalarKind(id uint32) ScalarKind {
	t, ok := m.types[id]
	if !ok {
		return ScalarKindUnknown
	}
	switch t.op {
	case opTypeBool:
		return ScalarKindBool
	case opTypeInt:
		if len(t.args) >= 2 && t.args[1] == 0 {
			return ScalarKindUInt
		}
		return ScalarKindInt
	case opTypeFloat:
		return ScalarKindFloat
	case opTypeVector:
		if len(t.args) >= 1 {
			return m.scalarKind(t.args[0])
		}
		return ScalarKindUnknown
	default:
		return ScalarKindUnknown
	}
}

// vecShape returns the (component count, column count) of a numeric type, (1, 1) for
// scalars and non-numeric types.
func (m *module) vecShape(id uint32) (uint32, uint32) {
	t, ok := m.types[id]
	if !ok {
		return 1, 1
	}
	switch t.op {
	case opTypeVector:
		if len(t.args) >= 2 {
			return t.args[1], 1
		}
	case opTypeMatrix:
		if len(t.args) >= 2 {
			vec, _ := m.vecShape(t.args[0])
			return vec, t.args[1]
		}
	}
	return 1, 1
}

// specSize returns the byte size of a specialization constant value: 4 for 32-bit
// scalars and booleans, 8 for 64-bit scalars, 0 for anything else.
func (m *module) specSize(typeID uint32) uint32 {
	t, ok := m.types[typeID]
	if !ok {
		return 0
	}
	switch t.op {
	case opTypeBool:
		return 4
	case opTypeInt, opTypeFloat:
		if len(t.args) >= 1 && t.args[0] == 64 {
			return 8
		}
		return 4
	default:
		return 0
	}
}

// unwrapArrays peels array wrappers off a resource type, returning the element type and
// the flattened array length. Non-arrayed types report length 1; a runtime-sized wrapper
// reports length 0.
func (m *module) unwrapArrays(id uint32) (uint32, uint32) {
	length := uint32(1)
	for depth := 0; depth < 32; depth++ {
		t, ok := m.types[id]
		if !ok {
			return id, length
		}
		switch t.op {
		case opTypeArray:
			if len(t.args) < 2 {
				return id, length
			}
			length *= uint32(m.constants[t.args[1]])
			id = t.args[0]
		case opTypeRuntimeArray:
			if len(t.args) < 1 {
				return id, length
			}
			length = 0
			id = t.args[0]
		default:
			return id, length
		}
	}
	return id, length
}

// resourceName returns the debug name of a variable, falling back to its type's name when
// the variable itself is anonymous.
func (m *module) resourceName(varID, typeID uint32) string {
	if name := m.names[varID]; name != "" {
		return name
	}
	return m.names[typeID]
}

// resources classifies every module-scope variable and specialization constant into
// ShaderResource descriptors, bucketed by kind and sorted by result id within a bucket.
func (m *module) resources() []ShaderResource {
	type entry struct {
		id  uint32
		res ShaderResource
	}
	buckets := make([][]entry, resourceKindCount)
	add := func(id uint32, res ShaderResource) {
		res.Stages = m.stages
		buckets[res.Kind] = append(buckets[res.Kind], entry{id: id, res: res})
	}

	for _, v := range m.vars {
		ptr, ok := m.types[v.typeID]
		if !ok || ptr.op != opTypePointer || len(ptr.args) < 2 {
			continue
		}
		pointee := ptr.args[1]

		switch v.class {
		case classInput, classOutput:
			inner, arraySize := m.unwrapArrays(pointee)
			m.addStageIO(add, v, inner, arraySize)
		case classUniform, classStorageBuffer:
			m.addBuffer(add, v, pointee)
		case classPushConstant:
			m.addPushConstant(add, v, pointee)
		case classUniformConstant:
			inner, arraySize := m.unwrapArrays(pointee)
			m.addOpaque(add, v, inner, arraySize)
		}
	}

	for _, sc := range m.specs {
		id, ok := m.decoration(sc.id, decSpecID)
		if !ok {
			continue
		}
		add(sc.id, ShaderResource{
			Name:       m.names[sc.id],
			Kind:       ResourceKindSpecializationConstant,
			ConstantID: id,
			Size:       m.specSize(sc.typeID),
			VecSize:    1,
			Columns:    1,
			ArraySize:  1,
		})
	}

	var out []ShaderResource
	for _, bucket := range buckets {
		sort.Slice(bucket, func(i, j int) bool { return bucket[i].id < bucket[j].id })
		for _, e := range bucket {
			out = append(out, e.res)
		}
	}
	return out
}

// addStageIO emits a stage input or output descriptor, skipping built-in variables and
// built-in interface blocks.
func (m *module) addStageIO(add func(uint32, ShaderResource), v varDef, inner, arraySize uint32) {
	if m.decorated(v.id, decBuiltIn) {
		return
	}
	if t, ok := m.types[inner]; ok && t.op == opTypeStruct && m.anyMemberDecorated(inner, decBuiltIn) {
		return
	}

	kind := ResourceKindInput
	if v.class == classOutput {
		kind = ResourceKindOutput
	}
	location, _ := m.decoration(v.id, decLocation)
	vec, cols := m.vecShape(inner)
	add(v.id, ShaderResource{
		Name:      m.names[v.id],
		Kind:      kind,
		Location:  location,
		VecSize:   vec,
		Columns:   cols,
		ArraySize: arraySize,
		Sampled:   m.scalarKind(inner),
	})
}

// addBuffer emits a uniform or storage buffer descriptor. Structs in the legacy Uniform
// class decorated BufferBlock count as storage buffers. A block struct wrapped in an
// array is a descriptor array; any other pointee is the buffer's data type itself, the
// way naga emits storage buffers declared as bare runtime arrays.
func (m *module) addBuffer(add func(uint32, ShaderResource), v varDef, pointee uint32) {
	inner, arraySize := m.unwrapArrays(pointee)
	t, ok := m.types[inner]
	isStruct := ok && t.op == opTypeStruct

	kind := ResourceKindBufferUniform
	if v.class == classStorageBuffer || (isStruct && m.decorated(inner, decBufferBlock)) {
		kind = ResourceKindBufferStorage
	}
	readonly := false
	if kind == ResourceKindBufferStorage {
		readonly = m.decorated(v.id, decNonWritable)
		if isStruct {
			readonly = readonly || m.allMembersDecorated(inner, len(t.args), decNonWritable)
		}
	}

	name := m.resourceName(v.id, inner)
	size := m.typeSize(inner, 0)
	if !isStruct {
		// The array wrapper is the buffer's contents, not a descriptor array.
		name = m.names[v.id]
		size = m.typeSize(pointee, 0)
		arraySize = 1
	}

	set, _ := m.decoration(v.id, decDescriptorSet)
	binding, _ := m.decoration(v.id, decBinding)
	add(v.id, ShaderResource{
		Name:      name,
		Kind:      kind,
		Set:       set,
		Binding:   binding,
		Size:      size,
		ArraySize: arraySize,
		VecSize:   1,
		Columns:   1,
		Readonly:  readonly,
	})
}

// addPushConstant emits the used sub-range of a push constant block: the range from the
// lowest member offset to the declared struct end. Higher layers pack several logical
// blocks into one physical range, so the leading unused bytes are excluded.
func (m *module) addPushConstant(add func(uint32, ShaderResource), v varDef, pointee uint32) {
	t, ok := m.types[pointee]
	if !ok || t.op != opTypeStruct {
		return
	}

	declared := m.typeSize(pointee, 0)
	minOffset := uint32(0)
	first := true
	for i := range t.args {
		if offset, ok := m.memberDecoration(pointee, uint32(i), decOffset); ok {
			if first || offset < minOffset {
				minOffset = offset
				first = false
			}
		}
	}
	if minOffset > declared {
		minOffset = declared
	}

	add(v.id, ShaderResource{
		Name:      m.resourceName(v.id, pointee),
		Kind:      ResourceKindPushConstant,
		Offset:    minOffset,
		Size:      declared - minOffset,
		ArraySize: 1,
		VecSize:   1,
		Columns:   1,
	})
}

// addOpaque emits image, combined image sampler and sampler descriptors from the
// UniformConstant class.
func (m *module) addOpaque(add func(uint32, ShaderResource), v varDef, inner, arraySize uint32) {
	t, ok := m.types[inner]
	if !ok {
		return
	}

	imageType := inner
	kind := ResourceKindImage
	switch t.op {
	case opTypeSampler:
		set, _ := m.decoration(v.id, decDescriptorSet)
		binding, _ := m.decoration(v.id, decBinding)
		add(v.id, ShaderResource{
			Name:      m.names[v.id],
			Kind:      ResourceKindSampler,
			Set:       set,
			Binding:   binding,
			ArraySize: arraySize,
			VecSize:   1,
			Columns:   1,
		})
		return
	case opTypeSampledImage:
		if len(t.args) < 1 {
			return
		}
		imageType = t.args[0]
		kind = ResourceKindImageSampler
	case opTypeImage:
	default:
		return
	}

	img, ok := m.types[imageType]
	if !ok || img.op != opTypeImage || len(img.args) < 7 {
		return
	}
	sampledType, dim := img.args[0], img.args[1]
	arrayed, ms, sampledFlag := img.args[3], img.args[4], img.args[5]

	if kind == ResourceKindImage {
		switch {
		case dim == dimSubpassData:
			kind = ResourceKindInputAttachment
		case sampledFlag == 2:
			kind = ResourceKindImageStorage
		}
	}

	res := ShaderResource{
		Name:         m.names[v.id],
		Kind:         kind,
		ArraySize:    arraySize,
		VecSize:      1,
		Columns:      1,
		Dim:          TextureDim(dim),
		Arrayed:      arrayed == 1,
		Multisampled: ms == 1,
		Sampled:      m.scalarKind(sampledType),
	}
	res.Set, _ = m.decoration(v.id, decDescriptorSet)
	res.Binding, _ = m.decoration(v.id, decBinding)
	if kind == ResourceKindInputAttachment {
		res.InputAttachmentIndex, _ = m.decoration(v.id, decInputAttachmentIndex)
	}
	if kind == ResourceKindImageStorage {
		res.Readonly = m.decorated(v.id, decNonWritable)
	}
	add(v.id, res)
}
