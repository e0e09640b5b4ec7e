package vvc

// BitrateSample is emitted once per access unit boundary for the access unit
// that just ended. PTS and DTS both hold that unit's counter and Keyframe is
// always false; they are placeholders, not codec timing.
type BitrateSample struct {
	PTS      int64
	DTS      int64
	Size     int
	Keyframe bool
}

// BitrateSink receives bitrate samples in emission order.
type BitrateSink interface {
	AddSample(s BitrateSample)
}

// BitrateSinkFunc adapts a function to BitrateSink.
type BitrateSinkFunc func(s BitrateSample)

// AddSample calls f(s).
func (f BitrateSinkFunc) AddSample(s BitrateSample) { f(s) }
