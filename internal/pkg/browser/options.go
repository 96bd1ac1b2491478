package browser

import "time"

// Option configures a [Session].
type Option func(*options)

type options struct {
	Timeout   time.Duration
	NoSandbox bool
	ExecPath  string
}

const defaultTimeout = 10 * time.Second

func optionsWithDefaults(opts []Option) options {
	o := options{
		Timeout: defaultTimeout,
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}

// WithTimeout bounds the duration of each [Session.Run].
//
// Defaults to 10s.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout <= 0 {
			return
		}

		o.Timeout = timeout
	}
}

// WithNoSandbox disables the Chrome sandbox, e.g. when running as root in a container.
func WithNoSandbox(enabled bool) Option {
	return func(o *options) {
		o.NoSandbox = enabled
	}
}

// WithExecPath sets the browser executable to launch instead of looking it up.
func WithExecPath(path string) Option {
	return func(o *options) {
		o.ExecPath = path
	}
}
