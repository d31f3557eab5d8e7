package useragent

import (
	"expvar"
	"fmt"
	"net/http"
	"net/http/pprof"
	"sort"

	"github.com/mtprotogo/tgcore/internal/log"
)

func publishvar(name string, f func() interface{}) {
	if expvar.Get(name) == nil {
		expvar.Publish(name, expvar.Func(f))
	}
}

// StartMonitor serves expvar and pprof debug endpoints on addr, the Go
// counterpart of cluster.Node.startMonitor: same mux layout
// (/debug/pprof/*, /debug/vars), replacing go-nano's per-node session
// dump with tgcore's active query count, active DC number and per-DC
// connection state, the figures a client library's operator actually
// wants to watch.
func (ua *UserAgent) StartMonitor(addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/vars", expvar.Handler())
	mux.HandleFunc("/debug/tgcore/dcs", ua.dcsInfo)

	publishvar("tgcore_active_queries", func() interface{} { return len(ua.registry.activeSnapshot()) })
	publishvar("tgcore_active_dc", func() interface{} { return ua.activeDCSnapshot() })

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Errorf("useragent monitor stopped: %v", err)
		}
	}()
	log.Noticef("useragent monitor running at http://%s", addr)
}

func (ua *UserAgent) activeDCSnapshot() int {
	ua.mu.RLock()
	defer ua.mu.RUnlock()
	return ua.activeDC
}

// dcsInfo lists every dialed DC and its connection status, sorted by DC
// number for stable output (mirroring Node.Sessions's sort-by-id before
// returning).
func (ua *UserAgent) dcsInfo(w http.ResponseWriter, r *http.Request) {
	ua.mu.RLock()
	dcNums := make([]int, 0, len(ua.dcs))
	for dc := range ua.dcs {
		dcNums = append(dcNums, dc)
	}
	conns := ua.dcs
	ua.mu.RUnlock()

	sort.Ints(dcNums)
	for _, dc := range dcNums {
		c := conns[dc]
		fmt.Fprintf(w, "dc=%d status=%d configured=%v\n", dc, c.Status(), c.IsConfigured())
	}
}
