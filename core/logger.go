package core

// Logger is the application-wide logging contract. Implementations may
// forward to an error-tracking backend; args may carry an error, a
// map[string]interface{} of extras, or a user value for person tracking.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
