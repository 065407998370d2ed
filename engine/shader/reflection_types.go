package shader

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// ResourceKind classifies a reflected shader resource. The declaration order is the emission
// order of Descriptors: stage inputs first, specialization constants last.
type ResourceKind int

const (
	// ResourceKindInput is a stage input variable.
	ResourceKindInput ResourceKind = iota
	// ResourceKindInputAttachment is a subpass input attachment.
	ResourceKindInputAttachment
	// ResourceKindOutput is a stage output variable.
	ResourceKindOutput
	// ResourceKindImage is a separately bound sampled image.
	ResourceKindImage
	// ResourceKindImageSampler is a combined image sampler.
	ResourceKindImageSampler
	// ResourceKindImageStorage is a storage image.
	ResourceKindImageStorage
	// ResourceKindSampler is a separately bound sampler.
	ResourceKindSampler
	// ResourceKindBufferUniform is a uniform buffer block.
	ResourceKindBufferUniform
	// ResourceKindBufferStorage is a storage buffer block.
	ResourceKindBufferStorage
	// ResourceKindPushConstant is the used sub-range of a push constant block.
	ResourceKindPushConstant
	// ResourceKindSpecializationConstant is a pipeline-time specialization constant.
	ResourceKindSpecializationConstant

	// resourceKindCount is the number of resource kinds.
	resourceKindCount
)

// resourceKindNames maps each kind to its diagnostic name.
var resourceKindNames = map[ResourceKind]string{
	ResourceKindInput:                  "input",
	ResourceKindInputAttachment:        "input-attachment",
	ResourceKindOutput:                 "output",
	ResourceKindImage:                  "image",
	ResourceKindImageSampler:           "image-sampler",
	ResourceKindImageStorage:           "image-storage",
	ResourceKindSampler:                "sampler",
	ResourceKindBufferUniform:          "uniform-buffer",
	ResourceKindBufferStorage:          "storage-buffer",
	ResourceKindPushConstant:           "push-constant",
	ResourceKindSpecializationConstant: "specialization-constant",
}

// String returns the diagnostic name of the resource kind.
//
// Returns:
//   - string: the kind name, or "unknown" for unrecognized values
func (k ResourceKind) String() string {
	if name, ok := resourceKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ScalarKind identifies the scalar base type of a numeric resource, such as an image's
// sample type or a specialization constant's value type.
type ScalarKind int

const (
	// ScalarKindUnknown means the base type could not be classified.
	ScalarKindUnknown ScalarKind = iota
	// ScalarKindBool is a boolean.
	ScalarKindBool
	// ScalarKindInt is a signed integer.
	ScalarKindInt
	// ScalarKindUInt is an unsigned integer.
	ScalarKindUInt
	// ScalarKindFloat is a floating point value.
	ScalarKindFloat
)

// TextureDim identifies the dimensionality of a reflected image resource.
type TextureDim int

const (
	// TextureDim1D is a one dimensional image.
	TextureDim1D TextureDim = iota
	// TextureDim2D is a two dimensional image.
	TextureDim2D
	// TextureDim3D is a three dimensional image.
	TextureDim3D
	// TextureDimCube is a cube map image.
	TextureDimCube
	// TextureDimRect is a rectangle image.
	TextureDimRect
	// TextureDimBuffer is a buffer-backed image.
	TextureDimBuffer
	// TextureDimSubpass is a subpass input attachment image.
	TextureDimSubpass
)

// ShaderResource is one reflected resource binding. Which fields are meaningful depends on
// Kind: inputs and outputs carry Location and the vector shape, bound resources carry Set
// and Binding, buffers and push constants carry Offset and Size, images carry Dim, Arrayed,
// Multisampled and Sampled, specialization constants carry ConstantID and Size. The zero
// value of an inapplicable field is left in place rather than given a sentinel.
type ShaderResource struct {
	// Name is the source-level variable name, empty when the module carries no debug names.
	Name string
	// Stages is the shader stage mask the resource is visible to.
	Stages wgpu.ShaderStage
	// Kind classifies the resource.
	Kind ResourceKind
	// Set is the descriptor set the resource is decorated with.
	Set uint32
	// Binding is the binding index within the set.
	Binding uint32
	// Location is the location index for stage inputs and outputs.
	Location uint32
	// InputAttachmentIndex is the attachment index for input attachments.
	InputAttachmentIndex uint32
	// VecSize is the component count for numeric inputs and outputs, 1 for scalars.
	VecSize uint32
	// Columns is the matrix column count for numeric inputs and outputs, 1 otherwise.
	Columns uint32
	// ArraySize is the declared array length, 1 for non-arrayed resources and 0 for
	// runtime-sized arrays.
	ArraySize uint32
	// Offset is the starting byte offset for push constant ranges.
	Offset uint32
	// Size is the declared byte size for buffers, the used range size for push constants,
	// and the value size for specialization constants.
	Size uint32
	// ConstantID is the specialization constant id.
	ConstantID uint32
	// Readonly marks storage resources the shader never writes.
	Readonly bool
	// Dynamic marks buffers bound with a dynamic offset. Reflection never sets it; layout
	// policy may.
	Dynamic bool
	// Dim is the image dimensionality for image kinds.
	Dim TextureDim
	// Arrayed marks layered image resources.
	Arrayed bool
	// Multisampled marks multisampled image resources.
	Multisampled bool
	// Sampled is the scalar sample type for image kinds.
	Sampled ScalarKind
}
