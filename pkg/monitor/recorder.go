package monitor

// Recorder receives engine counters. pkg/metrics provides a Prometheus
// implementation.
type Recorder interface {
	ConnectionChanged(up bool)
	UpdateReceived(ok bool)
	MetadataFailed()
	ExceptionObserved(suppressed bool)
	RegistrySize(n int)
	RegistryOverflow()
}

type nopRecorder struct{}

func (nopRecorder) ConnectionChanged(bool) {}
func (nopRecorder) UpdateReceived(bool)    {}
func (nopRecorder) MetadataFailed()        {}
func (nopRecorder) ExceptionObserved(bool) {}
func (nopRecorder) RegistrySize(int)       {}
func (nopRecorder) RegistryOverflow()      {}
