package shader

import (
	"log"
	"sort"

	"github.com/cogentcore/webgpu/wgpu"
)

// BindGroupLayoutEntries derives CPU-side bind group layout descriptors from reflected
// shader resources, grouped by descriptor set. Stage inputs/outputs, push constants and
// specialization constants do not occupy binding slots and are skipped. Entries within
// each set are sorted by binding index for deterministic layout creation.
//
// Parameters:
//   - resources: reflected resources, typically from Shader.Descriptors
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by set index
func BindGroupLayoutEntries(resources []ShaderResource) map[int]wgpu.BindGroupLayoutDescriptor {
	groups := make(map[int][]wgpu.BindGroupLayoutEntry)
	for _, res := range resources {
		entry, ok := layoutEntry(res)
		if !ok {
			continue
		}
		groups[int(res.Set)] = append(groups[int(res.Set)], entry)
	}

	result := make(map[int]wgpu.BindGroupLayoutDescriptor, len(groups))
	for g, entries := range groups {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Binding < entries[j].Binding
		})
		result[g] = wgpu.BindGroupLayoutDescriptor{
			Entries: entries,
		}
	}

	return result
}

// layoutEntry maps a single reflected resource onto a wgpu.BindGroupLayoutEntry.
// Resources that do not occupy a set/binding slot return ok=false.
func layoutEntry(res ShaderResource) (wgpu.BindGroupLayoutEntry, bool) {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    res.Binding,
		Visibility: res.Stages,
	}

	switch res.Kind {
	case ResourceKindBufferUniform:
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		entry.Buffer.HasDynamicOffset = res.Dynamic
		entry.Buffer.MinBindingSize = uint64(res.Size)
	case ResourceKindBufferStorage:
		if res.Readonly {
			entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		} else {
			entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		}
		entry.Buffer.HasDynamicOffset = res.Dynamic
		entry.Buffer.MinBindingSize = uint64(res.Size)
	case ResourceKindSampler:
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case ResourceKindImage, ResourceKindImageSampler, ResourceKindInputAttachment:
		entry.Texture.SampleType = sampleType(res.Sampled)
		entry.Texture.ViewDimension = viewDimension(res.Dim, res.Arrayed)
		entry.Texture.Multisampled = res.Multisampled
	case ResourceKindImageStorage:
		if res.Readonly {
			entry.StorageTexture.Access = wgpu.StorageTextureAccessReadOnly
		} else {
			entry.StorageTexture.Access = wgpu.StorageTextureAccessReadWrite
		}
		entry.StorageTexture.ViewDimension = viewDimension(res.Dim, res.Arrayed)
	case ResourceKindInput, ResourceKindOutput, ResourceKindPushConstant, ResourceKindSpecializationConstant:
		return wgpu.BindGroupLayoutEntry{}, false
	default:
		log.Printf("[Shader] resource %q has unmapped kind %s, omitting from layout", res.Name, res.Kind)
		return wgpu.BindGroupLayoutEntry{}, false
	}

	return entry, true
}

// sampleType maps a reflected scalar kind onto the wgpu texture sample type.
func sampleType(kind ScalarKind) wgpu.TextureSampleType {
	switch kind {
	case ScalarKindInt:
		return wgpu.TextureSampleTypeSint
	case ScalarKindUInt:
		return wgpu.TextureSampleTypeUint
	default:
		return wgpu.TextureSampleTypeFloat
	}
}

// viewDimension maps a reflected texture dimensionality (plus the arrayed flag)
// onto the wgpu view dimension. Subpass inputs view as plain 2D.
func viewDimension(dim TextureDim, arrayed bool) wgpu.TextureViewDimension {
	switch dim {
	case TextureDim1D:
		return wgpu.TextureViewDimension1D
	case TextureDim3D:
		return wgpu.TextureViewDimension3D
	case TextureDimCube:
		if arrayed {
			return wgpu.TextureViewDimensionCubeArray
		}
		return wgpu.TextureViewDimensionCube
	default:
		if arrayed {
			return wgpu.TextureViewDimension2DArray
		}
		return wgpu.TextureViewDimension2D
	}
}
