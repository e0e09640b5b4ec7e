package vvc

import "log/slog"

// accessUnit is the access unit currently being accumulated.
type accessUnit struct {
	counter int
	rng     FileRange
	size    int
}

// Assembler groups NAL units into access units. Its state is either no open
// access unit (before the first boundary) or exactly one open unit; the
// first boundary therefore never closes anything.
//
// Units must be added in file order. This is not checked: out-of-order input
// yields a wrong index, not an error.
type Assembler struct {
	log     *slog.Logger
	frames  *FrameIndex
	sink    BitrateSink
	open    *accessUnit
	leading int
	closed  bool
}

// NewAssembler returns an Assembler appending completed access units to
// frames and reporting their sizes to sink. sink may be nil.
func NewAssembler(frames *FrameIndex, sink BitrateSink, log *slog.Logger) *Assembler {
	if log == nil {
		log = slog.Default()
	}
	return &Assembler{log: log, frames: frames, sink: sink}
}

// Add accounts for one unit of the given header, file range and total size
// in bytes (start code included). A boundary unit ends the open access unit,
// emitting its bitrate sample and frame entry, and opens the next one.
func (a *Assembler) Add(h Header, r FileRange, size int) error {
	if a.closed {
		return ErrStreamClosed
	}

	if IsAUBoundary(h.Type) {
		next := 0
		if cur := a.open; cur != nil {
			a.log.Debug("start of new AU", "counter", cur.counter+1, "prev_size", cur.size)
			if a.sink != nil {
				a.sink.AddSample(BitrateSample{
					PTS:  int64(cur.counter),
					DTS:  int64(cur.counter),
					Size: cur.size,
				})
			}
			if err := a.finish(cur); err != nil {
				return err
			}
			next = cur.counter + 1
		}
		a.open = &accessUnit{counter: next, rng: r}
	} else if a.open != nil {
		a.open.rng.End = r.End
	}

	if a.open == nil {
		a.leading += size
		return nil
	}
	a.open.size += size
	return nil
}

// Close ends the stream, closing the open access unit the same way a
// boundary would but without a bitrate sample. Further calls to Add or Close
// return ErrStreamClosed.
func (a *Assembler) Close() error {
	if a.closed {
		return ErrStreamClosed
	}
	a.closed = true
	cur := a.open
	a.open = nil
	if cur == nil {
		return nil
	}
	return a.finish(cur)
}

// finish appends cur to the frame index. The access unit with counter 0
// covers the units up to the second boundary and is never indexed. Only the
// unit with counter 1 is flagged as random access.
func (a *Assembler) finish(cur *accessUnit) error {
	if cur.counter == 0 {
		return nil
	}
	f := FrameEntry{
		Counter:      cur.counter,
		Range:        cur.rng,
		RandomAccess: cur.counter == 1,
	}
	if err := a.frames.add(f); err != nil {
		return err
	}
	a.log.Debug("frame added", "counter", f.Counter, "range", f.Range, "random_access", f.RandomAccess)
	return nil
}

// Counter returns the counter of the open access unit, or -1 if none is open.
func (a *Assembler) Counter() int {
	if a.open == nil {
		return -1
	}
	return a.open.counter
}

// PendingBytes returns the bytes accumulated in the open access unit.
func (a *Assembler) PendingBytes() int {
	if a.open == nil {
		return 0
	}
	return a.open.size
}

// LeadingBytes returns the bytes of units seen before the first boundary.
// They belong to no access unit.
func (a *Assembler) LeadingBytes() int {
	return a.leading
}

// Closed reports whether Close has been called.
func (a *Assembler) Closed() bool {
	return a.closed
}
