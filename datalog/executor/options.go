package executor

import "github.com/wbrown/janus-dataflow/datalog/annotations"

// Options configures compilation and evaluation of a Network
type Options struct {
	// Handler receives evaluation events; nil disables tracing. Events of
	// one call are delivered in order after the Network's lock is released,
	// so a handler may call Stats or Relations. When the Network is shared
	// between goroutines the handler must be safe for concurrent use.
	Handler annotations.Handler

	// Validate runs datalog.Validate before compiling and rejects programs
	// with error-level diagnostics
	Validate bool
}
