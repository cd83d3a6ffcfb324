// Package provider owns capability areas (file, service) and their dual
// strategies.
//
// Ownership boundary:
// - operation descriptors and dispatch by backend kind
//
// - inline strategies (local OS primitives, no backend)
//
// - shell strategies (per-dialect command templates and output parsing)
//
// Command templates interpolate targets verbatim. Callers sanitize paths and
// names before building an Operation.
package provider
