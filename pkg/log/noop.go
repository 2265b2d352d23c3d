package log

var (
	_ Logger = NoopLogger{}
	_ Logger = (*ZerologAdapter)(nil)
	_ Logger = (*fieldLogger)(nil)
)

// NoopLogger discards everything. It is the default for library components
// that were not given a Logger.
type NoopLogger struct{}

// NewNoopLogger returns a NoopLogger.
func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

func (NoopLogger) Debug(string, ...Field) {}
func (NoopLogger) Info(string, ...Field)  {}
func (NoopLogger) Warn(string, ...Field)  {}
func (NoopLogger) Error(string, ...Field) {}

// With returns the logger itself; there is nothing to attach fields to.
func (n NoopLogger) With(...Field) Logger { return n }
