package skybox

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Panorama is a decoded equirectangular HDR image with linear RGB
// radiance values.
type Panorama struct {
	Width  int
	Height int
	// Pixels holds Width*Height*3 floats in row-major RGB order.
	Pixels []float32
}

// LoadHDR reads and decodes a Radiance HDR file from disk.
func LoadHDR(path string) (*Panorama, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("skybox: opening %s: %w", path, err)
	}
	defer f.Close()
	p, err := DecodeHDR(f)
	if err != nil {
		return nil, fmt.Errorf("skybox: decoding %s: %w", path, err)
	}
	return p, nil
}

// DecodeHDR decodes a Radiance RGBE stream. Both the run-length encoded
// scanline format and the flat format are accepted.
func DecodeHDR(r io.Reader) (*Panorama, error) {
	br := bufio.NewReader(r)

	line, err := readHeaderLine(br)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(line, "#?") {
		return nil, ErrBadMagic
	}

	formatOK := false
	for {
		line, err = readHeaderLine(br)
		if err != nil {
			return nil, err
		}
		if line == "" {
			break
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "FORMAT=") {
			if strings.TrimPrefix(line, "FORMAT=") != "32-bit_rle_rgbe" {
				return nil, ErrBadFormat
			}
			formatOK = true
		}
	}
	if !formatOK {
		return nil, ErrBadFormat
	}

	line, err = readHeaderLine(br)
	if err != nil {
		return nil, err
	}
	width, height, err := parseResolution(line)
	if err != nil {
		return nil, err
	}

	p := &Panorama{
		Width:  width,
		Height: height,
		Pixels: make([]float32, width*height*3),
	}
	scanline := make([]byte, width*4)
	for y := 0; y < height; y++ {
		if err := readScanline(br, scanline, width); err != nil {
			return nil, fmt.Errorf("skybox: scanline %d: %w", y, err)
		}
		row := p.Pixels[y*width*3:]
		for x := 0; x < width; x++ {
			r, g, b := rgbeToFloat(scanline[x*4], scanline[x*4+1], scanline[x*4+2], scanline[x*4+3])
			row[x*3] = r
			row[x*3+1] = g
			row[x*3+2] = b
		}
	}
	return p, nil
}

func readHeaderLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("skybox: reading header: %w", err)
	}
	return strings.TrimRight(line, "\n"), nil
}

// parseResolution accepts both axis orders: "-Y h +X w" and "+X w -Y h".
func parseResolution(line string) (width, height int, err error) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return 0, 0, ErrBadResolution
	}
	var w, h string
	switch {
	case fields[0] == "-Y" && fields[2] == "+X":
		h, w = fields[1], fields[3]
	case fields[0] == "+X" && fields[2] == "-Y":
		w, h = fields[1], fields[3]
	default:
		return 0, 0, ErrBadResolution
	}
	width, err = strconv.Atoi(w)
	if err != nil || width <= 0 {
		return 0, 0, ErrBadResolution
	}
	height, err = strconv.Atoi(h)
	if err != nil || height <= 0 {
		return 0, 0, ErrBadResolution
	}
	return width, height, nil
}

// readScanline fills out with width RGBE quads. Scanlines starting with
// the 0x02 0x02 marker store the four components as separate run-length
// encoded planes; anything else is the flat format.
func readScanline(br *bufio.Reader, out []byte, width int) error {
	var head [4]byte
	if _, err := io.ReadFull(br, head[:]); err != nil {
		return err
	}
	if width >= 8 && width < 0x8000 &&
		head[0] == 2 && head[1] == 2 && int(head[2])<<8|int(head[3]) == width {
		for comp := 0; comp < 4; comp++ {
			pos := 0
			for pos < width {
				count, err := br.ReadByte()
				if err != nil {
					return err
				}
				if count > 128 {
					// Run: one value repeated.
					value, err := br.ReadByte()
					if err != nil {
						return err
					}
					n := int(count) - 128
					if pos+n > width {
						return ErrBadScanline
					}
					for i := 0; i < n; i++ {
						out[(pos+i)*4+comp] = value
					}
					pos += n
				} else {
					n := int(count)
					if n == 0 || pos+n > width {
						return ErrBadScanline
					}
					for i := 0; i < n; i++ {
						value, err := br.ReadByte()
						if err != nil {
							return err
						}
						out[(pos+i)*4+comp] = value
					}
					pos += n
				}
			}
		}
		return nil
	}

	// Flat format: the four header bytes are the first pixel.
	copy(out[:4], head[:])
	_, err := io.ReadFull(br, out[4:width*4])
	return err
}

// rgbeToFloat converts one shared-exponent pixel to linear RGB. A zero
// exponent means black.
func rgbeToFloat(r, g, b, e byte) (float32, float32, float32) {
	if e == 0 {
		return 0, 0, 0
	}
	scale := math.Ldexp(1, int(e)-136)
	return float32((float64(r) + 0.5) * scale),
		float32((float64(g) + 0.5) * scale),
		float32((float64(b) + 0.5) * scale)
}

// Sample bilinearly filters the panorama at normalized coordinates.
// U wraps around the seam; V clamps at the poles.
func (p *Panorama) Sample(u, v float32) (r, g, b float32) {
	u -= float32(math.Floor(float64(u)))
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}

	fx := u*float32(p.Width) - 0.5
	fy := v*float32(p.Height) - 0.5
	x0 := int(math.Floor(float64(fx)))
	y0 := int(math.Floor(float64(fy)))
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	wrapX := func(x int) int {
		x %= p.Width
		if x < 0 {
			x += p.Width
		}
		return x
	}
	clampY := func(y int) int {
		if y < 0 {
			return 0
		}
		if y >= p.Height {
			return p.Height - 1
		}
		return y
	}

	fetch := func(x, y int) (float32, float32, float32) {
		i := (clampY(y)*p.Width + wrapX(x)) * 3
		return p.Pixels[i], p.Pixels[i+1], p.Pixels[i+2]
	}

	r00, g00, b00 := fetch(x0, y0)
	r10, g10, b10 := fetch(x0+1, y0)
	r01, g01, b01 := fetch(x0, y0+1)
	r11, g11, b11 := fetch(x0+1, y0+1)

	lerp := func(a, b, t float32) float32 { return a + (b-a)*t }
	r = lerp(lerp(r00, r10, tx), lerp(r01, r11, tx), ty)
	g = lerp(lerp(g00, g10, tx), lerp(g01, g11, tx), ty)
	b = lerp(lerp(b00, b10, tx), lerp(b01, b11, tx), ty)
	return r, g, b
}
