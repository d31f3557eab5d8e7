// Package tgcore is the public entrypoint over the Query Subsystem: a
// process builds one UserAgent with New, dials whichever DCs it needs
// through useragent.Dial, and issues RPCs through the calls package.
// tgcore itself only re-exports the useragent.Option surface, mirroring
// the way go-nano's root package sits thinly over cluster.Options while
// cluster does the real work.
package tgcore

import "github.com/mtprotogo/tgcore/useragent"

// Version identifies this build of the Query Subsystem for diagnostics
// and log lines, the counterpart of nano.VERSION.
const Version = "0.1.0"

// New builds a UserAgent from opts, the package-level shortcut most
// callers use instead of useragent.New directly.
func New(opts ...Option) *useragent.UserAgent {
	return useragent.New(opts...)
}
