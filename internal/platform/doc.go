// Package platform owns OS family detection and the provider set bound to
// each detected family.
//
// Ownership boundary:
// - platform identity (kind, family, release)
//
// - ordered candidate registry
//
// - local and remote marker detection
//
// Detection stops at the first matching candidate. A candidate that cannot
// read or parse its marker is a no-match, never an error.
package platform
