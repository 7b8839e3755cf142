package core

// Logger logs leveled messages. Implementations may also ship them to an
// external tracker; Fatal must exit the process after logging.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
