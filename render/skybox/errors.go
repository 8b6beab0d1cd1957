package skybox

import "errors"

var (
	// ErrBadMagic is returned when a file lacks the Radiance signature.
	ErrBadMagic = errors.New("skybox: not a Radiance HDR file")

	// ErrBadFormat is returned for formats other than 32-bit_rle_rgbe.
	ErrBadFormat = errors.New("skybox: unsupported HDR format")

	// ErrBadResolution is returned when the resolution line cannot be
	// parsed.
	ErrBadResolution = errors.New("skybox: malformed resolution line")

	// ErrBadScanline is returned when run-length data overruns a row.
	ErrBadScanline = errors.New("skybox: malformed RLE scanline")

	// ErrEmptyCatalog is returned when a catalog file lists no
	// environments.
	ErrEmptyCatalog = errors.New("skybox: catalog has no entries")

	// ErrUnknownEnvironment is returned by SetActive for a name missing
	// from the catalog.
	ErrUnknownEnvironment = errors.New("skybox: unknown environment")
)
