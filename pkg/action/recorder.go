package action

// Recorder receives action counters.
type Recorder interface {
	ActionStarted(ok bool)
	ActionExited(success bool)
	ActionSuppressed()
}

type nopRecorder struct{}

func (nopRecorder) ActionStarted(bool) {}
func (nopRecorder) ActionExited(bool)  {}
func (nopRecorder) ActionSuppressed()  {}
