package render

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// Buffer pairs a Vulkan buffer with its backing allocation.
type Buffer struct {
	handle vk.Buffer
	memory vk.DeviceMemory
	size   vk.DeviceSize
	mapped unsafe.Pointer
}

// Handle returns the raw buffer handle.
func (b *Buffer) Handle() vk.Buffer { return b.handle }

// Size returns the allocation size in bytes.
func (b *Buffer) Size() vk.DeviceSize { return b.size }

// Destroy frees the buffer and its memory. Safe to call more than once.
func (b *Buffer) Destroy(dev *Device) {
	if b == nil || dev == nil || dev.Handle() == nil {
		return
	}
	if b.mapped != nil {
		vk.UnmapMemory(dev.Handle(), b.memory)
		b.mapped = nil
	}
	if b.handle != vk.NullBuffer {
		vk.DestroyBuffer(dev.Handle(), b.handle, nil)
		b.handle = vk.NullBuffer
	}
	if b.memory != vk.NullDeviceMemory {
		vk.FreeMemory(dev.Handle(), b.memory, nil)
		b.memory = vk.NullDeviceMemory
	}
}

func newBuffer(dev *Device, size vk.DeviceSize, usage vk.BufferUsageFlags, props vk.MemoryPropertyFlags) (*Buffer, error) {
	info := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	var handle vk.Buffer
	if err := vk.Error(vk.CreateBuffer(dev.Handle(), &info, nil, &handle)); err != nil {
		return nil, fmt.Errorf("render: creating buffer: %w", err)
	}

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(dev.Handle(), handle, &req)
	req.Deref()

	typeIndex, err := findMemoryType(dev, req.MemoryTypeBits, props)
	if err != nil {
		vk.DestroyBuffer(dev.Handle(), handle, nil)
		return nil, err
	}
	alloc := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: typeIndex,
	}
	var memory vk.DeviceMemory
	if err := vk.Error(vk.AllocateMemory(dev.Handle(), &alloc, nil, &memory)); err != nil {
		vk.DestroyBuffer(dev.Handle(), handle, nil)
		return nil, fmt.Errorf("render: allocating buffer memory: %w", err)
	}
	vk.BindBufferMemory(dev.Handle(), handle, memory, 0)
	return &Buffer{handle: handle, memory: memory, size: size}, nil
}

// newDeviceBuffer uploads data into device-local memory through a staging
// buffer.
func newDeviceBuffer(dev *Device, pool vk.CommandPool, data []byte, usage vk.BufferUsageFlags) (*Buffer, error) {
	size := vk.DeviceSize(len(data))
	staging, err := newBuffer(dev, size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return nil, err
	}
	defer staging.Destroy(dev)

	var ptr unsafe.Pointer
	vk.MapMemory(dev.Handle(), staging.memory, 0, size, 0, &ptr)
	vk.Memcopy(ptr, data)
	vk.UnmapMemory(dev.Handle(), staging.memory)

	buf, err := newBuffer(dev, size,
		vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)|usage,
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, err
	}
	err = oneTimeCommands(dev, pool, func(cmd vk.CommandBuffer) {
		region := vk.BufferCopy{Size: size}
		vk.CmdCopyBuffer(cmd, staging.handle, buf.handle, 1, []vk.BufferCopy{region})
	})
	if err != nil {
		buf.Destroy(dev)
		return nil, err
	}
	return buf, nil
}

// newUniformBuffer allocates a host-visible buffer and keeps it mapped for
// per-frame writes.
func newUniformBuffer(dev *Device, size vk.DeviceSize) (*Buffer, error) {
	buf, err := newBuffer(dev, size,
		vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return nil, err
	}
	vk.MapMemory(dev.Handle(), buf.memory, 0, size, 0, &buf.mapped)
	return buf, nil
}

// Write copies data into a mapped buffer. No-op when the buffer is not
// host mapped.
func (b *Buffer) Write(data []byte) {
	if b.mapped == nil {
		return
	}
	vk.Memcopy(b.mapped, data)
}

// f32Bytes reinterprets a float32 slice as raw bytes without copying.
func f32Bytes(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*4)
}

// u32Bytes reinterprets a uint32 slice as raw bytes without copying.
func u32Bytes(v []uint32) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*4)
}
