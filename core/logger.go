package core

// Person identifies who triggered a logged event.
type Person struct {
	ID       string
	Username string
	Email    string
}

// Logger is any service that can log & report events.
// expected args fmt: error, map[string]interface{}, Person
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

type nopLogger struct{}

var _ Logger = nopLogger{}

// NewNopLogger returns a Logger that discards everything. Fatal does not exit.
func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}
