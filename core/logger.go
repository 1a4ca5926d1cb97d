package core

// Logger logs messages and reports them to the error tracker.
// args may hold errors, map[string]interface{} extras or the acting Admin.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Admin identifies the signed-in account in log reports.
type Admin struct {
	Email string
}
