package pvclient

// Recorder receives client counters.
type Recorder interface {
	SessionChanged(addr string, up bool)
	RequestTimedOut()
}

type nopRecorder struct{}

func (nopRecorder) SessionChanged(string, bool) {}
func (nopRecorder) RequestTimedOut()            {}
