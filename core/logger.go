package core

// Logger is implemented by every log sink of the application.
// args may carry errors, maps of extra data or a LogPerson.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// LogPerson identifies who triggered a log entry (usually a submitter's email).
type LogPerson struct {
	ID    string
	Name  string
	Email string
}
