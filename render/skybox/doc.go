// Package skybox renders an environment background inside the world
// render pass.
//
// Environments come from Radiance HDR panoramas listed in a catalog file.
// On activation a panorama is decoded, converted to a cubemap (one
// goroutine per face) and uploaded as a 16-bit float cube texture.
// Converted cubemaps are kept in a small LRU so switching back to a
// recent environment skips the conversion.
package skybox
