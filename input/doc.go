// Package input tracks keyboard and mouse state for one window.
//
// All state lives in an explicit State value fed by window callbacks (or
// directly in tests); nothing is global. Queries are resolved through a
// rebindable action table, and EndFrame rolls the per-frame edges and
// accumulated mouse deltas.
package input
