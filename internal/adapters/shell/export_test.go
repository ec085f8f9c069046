package shell

// NewExecutorWithEnviron replaces the host environment source.
func NewExecutorWithEnviron(environ func() []string) *Executor {
	return &Executor{environ: environ}
}

var (
	ResolveEnvironment = resolveEnvironment
	ExpandArgs         = expandArgs
)
