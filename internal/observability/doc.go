// Package observability records provider and detection metrics on the
// default prometheus registry.
package observability
