package render

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// Mesh holds device-local vertex and index buffers. Vertices are
// interleaved position, normal, uv.
type Mesh struct {
	vertices   *Buffer
	indices    *Buffer
	indexCount uint32
}

// NewMesh uploads the given vertex and index data to the GPU.
func NewMesh(dev *Device, pool vk.CommandPool, vertices []float32, indices []uint32) (*Mesh, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return nil, ErrEmptyMesh
	}
	if len(vertices)%vertexFloats != 0 {
		return nil, fmt.Errorf("render: vertex data length %d is not a multiple of %d", len(vertices), vertexFloats)
	}
	vb, err := newDeviceBuffer(dev, pool, f32Bytes(vertices), vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
	if err != nil {
		return nil, err
	}
	ib, err := newDeviceBuffer(dev, pool, u32Bytes(indices), vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit))
	if err != nil {
		vb.Destroy(dev)
		return nil, err
	}
	return &Mesh{vertices: vb, indices: ib, indexCount: uint32(len(indices))}, nil
}

// IndexCount returns the number of indices to draw.
func (m *Mesh) IndexCount() uint32 { return m.indexCount }

// Destroy frees the GPU buffers. Safe to call more than once.
func (m *Mesh) Destroy(dev *Device) {
	if m == nil {
		return
	}
	m.vertices.Destroy(dev)
	m.indices.Destroy(dev)
}

// Bind binds the vertex and index buffers for drawing.
func (m *Mesh) Bind(cmd vk.CommandBuffer) {
	vk.CmdBindVertexBuffers(cmd, 0, 1, []vk.Buffer{m.vertices.Handle()}, []vk.DeviceSize{0})
	vk.CmdBindIndexBuffer(cmd, m.indices.Handle(), 0, vk.IndexTypeUint32)
}

// CubeVertices returns the interleaved vertex data for a unit cube
// centered at the origin, with per-face normals and uvs.
func CubeVertices() []float32 {
	type face struct {
		normal  [3]float32
		corners [4][3]float32
	}
	faces := []face{
		{[3]float32{0, 0, 1}, [4][3]float32{{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5}}},
		{[3]float32{0, 0, -1}, [4][3]float32{{0.5, -0.5, -0.5}, {-0.5, -0.5, -0.5}, {-0.5, 0.5, -0.5}, {0.5, 0.5, -0.5}}},
		{[3]float32{-1, 0, 0}, [4][3]float32{{-0.5, -0.5, -0.5}, {-0.5, -0.5, 0.5}, {-0.5, 0.5, 0.5}, {-0.5, 0.5, -0.5}}},
		{[3]float32{1, 0, 0}, [4][3]float32{{0.5, -0.5, 0.5}, {0.5, -0.5, -0.5}, {0.5, 0.5, -0.5}, {0.5, 0.5, 0.5}}},
		{[3]float32{0, 1, 0}, [4][3]float32{{-0.5, 0.5, 0.5}, {0.5, 0.5, 0.5}, {0.5, 0.5, -0.5}, {-0.5, 0.5, -0.5}}},
		{[3]float32{0, -1, 0}, [4][3]float32{{-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, -0.5, 0.5}, {-0.5, -0.5, 0.5}}},
	}
	uvs := [4][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}}
	out := make([]float32, 0, 6*4*vertexFloats)
	for _, f := range faces {
		for i, c := range f.corners {
			out = append(out, c[0], c[1], c[2], f.normal[0], f.normal[1], f.normal[2], uvs[i][0], uvs[i][1])
		}
	}
	return out
}

// CubeIndices returns the index data matching CubeVertices, two triangles
// per face.
func CubeIndices() []uint32 {
	out := make([]uint32, 0, 6*6)
	for f := uint32(0); f < 6; f++ {
		base := f * 4
		out = append(out, base, base+1, base+2, base+2, base+3, base)
	}
	return out
}
