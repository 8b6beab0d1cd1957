package render

import (
	"fmt"
	"os"

	vk "github.com/goki/vulkan"
)

// LoadShaderModule reads a SPIR-V binary from disk and wraps it in a
// shader module.
func LoadShaderModule(dev *Device, path string) (vk.ShaderModule, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return vk.NullShaderModule, fmt.Errorf("%w: %s", ErrShaderMissing, path)
	}
	if len(code) == 0 || len(code)%4 != 0 {
		return vk.NullShaderModule, fmt.Errorf("render: shader %s is not valid SPIR-V", path)
	}
	info := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    repackUint32(code),
	}
	var module vk.ShaderModule
	if err := vk.Error(vk.CreateShaderModule(dev.Handle(), &info, nil, &module)); err != nil {
		return vk.NullShaderModule, fmt.Errorf("render: creating shader module %s: %w", path, err)
	}
	return module, nil
}

func repackUint32(data []byte) []uint32 {
	buf := make([]uint32, len(data)/4)
	for i := range buf {
		buf[i] = uint32(data[4*i]) | uint32(data[4*i+1])<<8 | uint32(data[4*i+2])<<16 | uint32(data[4*i+3])<<24
	}
	return buf
}
