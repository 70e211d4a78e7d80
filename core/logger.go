package core

// Logger reports events to the console and, outside of debug mode, to the error tracker.
// args may hold errors, map[string]interface{} extras and the acting user.User.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
