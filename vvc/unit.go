package vvc

import "fmt"

// FileRange is a byte range in the source file. End is inclusive.
type FileRange struct {
	Start uint64
	End   uint64
}

func (r FileRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// RawUnit is one NAL unit as delivered by the upstream splitter. Data may
// still carry its 3- or 4-byte start code. The parser does not retain Data.
type RawUnit struct {
	Index int
	Data  []byte
	Range FileRange
}

// EndOfStream returns the sentinel unit that closes a stream. It must be sent
// exactly once, after the last real unit.
func EndOfStream() RawUnit {
	return RawUnit{Index: -1}
}

// IsEndOfStream reports whether u is the end-of-stream sentinel.
func (u RawUnit) IsEndOfStream() bool {
	return u.Index == -1 && len(u.Data) == 0
}
