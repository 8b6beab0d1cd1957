package skybox

import (
	"math"
	"sync"
)

// faceDirection maps a cube face index and normalized face coordinates
// in [-1,1] to a world-space direction. Face order follows the Vulkan
// cubemap layer order: +X -X +Y -Y +Z -Z.
func faceDirection(face int, a, b float32) (x, y, z float32) {
	switch face {
	case 0:
		return 1, -b, -a
	case 1:
		return -1, -b, a
	case 2:
		return a, 1, b
	case 3:
		return a, -1, -b
	case 4:
		return a, -b, 1
	default:
		return -a, -b, -1
	}
}

// directionToEquirect projects a direction onto panorama coordinates.
func directionToEquirect(x, y, z float32) (u, v float32) {
	length := float32(math.Sqrt(float64(x*x + y*y + z*z)))
	x, y, z = x/length, y/length, z/length
	u = float32((math.Atan2(float64(z), float64(x)) + math.Pi) / (2 * math.Pi))
	v = float32(math.Acos(float64(y)) / math.Pi)
	return u, v
}

// ConvertEquirect resamples a panorama into six cubemap faces of
// R16G16B16A16 float pixels, one goroutine per face. The returned slice
// holds the faces back to back in layer order.
func ConvertEquirect(p *Panorama, faceSize int) []byte {
	const bytesPerPixel = 8
	faceBytes := faceSize * faceSize * bytesPerPixel
	out := make([]byte, 6*faceBytes)

	var wg sync.WaitGroup
	for face := 0; face < 6; face++ {
		wg.Add(1)
		go func(face int) {
			defer wg.Done()
			dst := out[face*faceBytes:]
			for py := 0; py < faceSize; py++ {
				b := 2*(float32(py)+0.5)/float32(faceSize) - 1
				for px := 0; px < faceSize; px++ {
					a := 2*(float32(px)+0.5)/float32(faceSize) - 1
					dx, dy, dz := faceDirection(face, a, b)
					u, v := directionToEquirect(dx, dy, dz)
					r, g, bl := p.Sample(u, v)

					i := (py*faceSize + px) * bytesPerPixel
					putHalf(dst[i:], floatToHalf(r))
					putHalf(dst[i+2:], floatToHalf(g))
					putHalf(dst[i+4:], floatToHalf(bl))
					putHalf(dst[i+6:], floatToHalf(1))
				}
			}
		}(face)
	}
	wg.Wait()
	return out
}

func putHalf(dst []byte, h uint16) {
	dst[0] = byte(h)
	dst[1] = byte(h >> 8)
}
