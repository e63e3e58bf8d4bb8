package mglevel

// Fields is a minimal structured field map for logs.
type Fields map[string]any

// Logger is a tiny leveled logger. Adapters for zap, logrus and slog live
// under log/. Level emits build and eviction traffic at Debug, rejected
// calls at Warn and failed builds at Error.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}

func (l *Level) fields(name string, f Factory) Fields {
	out := Fields{"level": l.id, "factory": FactoryName(f)}
	if name != "" {
		out["name"] = name
	}
	return out
}
