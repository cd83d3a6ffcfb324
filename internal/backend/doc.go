// Package backend owns command transport for one target.
//
// Ownership boundary:
// - backend kind (direct or remote)
//
// - command execution and result capture
//
// - remote session lifetime (connection, authentication, sftp)
//
// A Backend is not safe for concurrent use. Callers hold it exclusively.
package backend
