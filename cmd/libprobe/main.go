// Command libprobe builds the C embedding boundary:
//
//	go build -buildmode=c-shared -o libprobe.so ./cmd/libprobe
package main

/*
#include <stdint.h>
*/
import "C"

import (
	"github.com/danmuck/edgeprobe/internal/handle"
	"github.com/danmuck/edgeprobe/internal/logging"
	"github.com/rs/zerolog/log"
)

var handles = handle.NewTable(nil)

func init() {
	logging.ConfigureRuntime()
}

// probe_backend_ssh_new connects to hostname over SSH and returns an opaque
// handle, or 0 when hostname is NULL, invalid, or unreachable.
//
//export probe_backend_ssh_new
func probe_backend_ssh_new(hostname *C.char) C.uint64_t {
	if hostname == nil {
		log.Warn().Msg("probe_backend_ssh_new: null hostname")
		return 0
	}
	h, err := handles.Create(C.GoString(hostname))
	if err != nil {
		log.Warn().Err(err).Msg("probe_backend_ssh_new failed")
		return 0
	}
	return C.uint64_t(h)
}

// probe_backend_ssh_free releases a handle. Unknown and already freed
// handles are ignored.
//
//export probe_backend_ssh_free
func probe_backend_ssh_free(h C.uint64_t) {
	if h == 0 {
		return
	}
	if err := handles.Destroy(handle.Handle(h)); err != nil {
		log.Warn().Err(err).Uint64("handle", uint64(h)).Msg("probe_backend_ssh_free")
	}
}

func main() {}
