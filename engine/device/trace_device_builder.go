package device

// TraceDeviceBuilderOption is a functional option used to configure a TraceDevice during construction.
type TraceDeviceBuilderOption func(*traceDevice)

// WithLimits overrides the limits the trace device reports. Useful for exercising diff
// behavior against small unit counts without allocating large change-sets.
//
// Parameters:
//   - limits: the limits to report
//
// Returns:
//   - TraceDeviceBuilderOption: a function that sets the reported limits
func WithLimits(limits Limits) TraceDeviceBuilderOption {
	return func(d *traceDevice) {
		d.limits = limits
	}
}

// WithFailureHook installs a hook consulted after every recorded operation. Returning a
// non-nil error reports that operation as a driver fault to the caller, which is how tests
// exercise the fault-tolerant apply path.
//
// Parameters:
//   - hook: the failure hook, may return nil to let an operation pass
//
// Returns:
//   - TraceDeviceBuilderOption: a function that installs the failure hook
func WithFailureHook(hook func(TraceOp) error) TraceDeviceBuilderOption {
	return func(d *traceDevice) {
		d.failure = hook
	}
}
