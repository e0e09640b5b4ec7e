package vvc

import (
	"fmt"
	"sort"
)

// FrameEntry describes one completed access unit in decode order.
type FrameEntry struct {
	Counter      int
	Range        FileRange
	RandomAccess bool
}

// FrameIndex is the ordered list of completed access units. Entries are
// appended with strictly increasing counters and never modified afterwards.
type FrameIndex struct {
	frames []FrameEntry
}

// add appends f to the index. It fails with ErrFrameAppend if
// f.Counter does not exceed the counter of the last entry.
func (fi *FrameIndex) add(f FrameEntry) error {
	if n := len(fi.frames); n > 0 && f.Counter <= fi.frames[n-1].Counter {
		return fmt.Errorf("%w: counter %d after %d", ErrFrameAppend, f.Counter, fi.frames[n-1].Counter)
	}
	fi.frames = append(fi.frames, f)
	return nil
}

// Len returns the number of entries.
func (fi *FrameIndex) Len() int {
	return len(fi.frames)
}

// At returns the i-th entry in append order.
func (fi *FrameIndex) At(i int) FrameEntry {
	return fi.frames[i]
}

// Frames returns a copy of all entries.
func (fi *FrameIndex) Frames() []FrameEntry {
	out := make([]FrameEntry, len(fi.frames))
	copy(out, fi.frames)
	return out
}

// Lookup returns the entry with the given counter.
func (fi *FrameIndex) Lookup(counter int) (FrameEntry, bool) {
	i := fi.search(counter)
	if i < len(fi.frames) && fi.frames[i].Counter == counter {
		return fi.frames[i], true
	}
	return FrameEntry{}, false
}

// ClosestRandomAccess returns the last random-access entry whose counter is
// not greater than counter. A seek to counter has to start decoding there.
func (fi *FrameIndex) ClosestRandomAccess(counter int) (FrameEntry, bool) {
	i := fi.search(counter)
	if i < len(fi.frames) && fi.frames[i].Counter == counter {
		i++
	}
	for i--; i >= 0; i-- {
		if fi.frames[i].RandomAccess {
			return fi.frames[i], true
		}
	}
	return FrameEntry{}, false
}

// Span returns the file range covered by all entries.
func (fi *FrameIndex) Span() (FileRange, bool) {
	if len(fi.frames) == 0 {
		return FileRange{}, false
	}
	return FileRange{Start: fi.frames[0].Range.Start, End: fi.frames[len(fi.frames)-1].Range.End}, true
}

func (fi *FrameIndex) search(counter int) int {
	return sort.Search(len(fi.frames), func(i int) bool { return fi.frames[i].Counter >= counter })
}
