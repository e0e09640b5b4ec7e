// Package annexb splits an Annex B byte stream into NAL units with their
// absolute file positions, ready to be fed to a vvc.Parser.
package annexb

import (
	"bytes"
	"io"

	"github.com/zsiec/vvcindex/vvc"
)

const readChunk = 64 << 10

var startCode = []byte{0x00, 0x00, 0x01}

// Scanner reads NAL units from an io.Reader. Each unit keeps its start code
// (3 or 4 bytes) and runs up to the next start code. Bytes before the first
// start code are skipped. After the last unit Scan yields the end-of-stream
// sentinel once, then returns false.
type Scanner struct {
	r          io.Reader
	buf        []byte
	base       uint64
	searchFrom int
	index      int
	skipped    int
	started    bool
	eof        bool
	done       bool
	unit       vvc.RawUnit
	err        error
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: r}
}

// Scan advances to the next unit. It returns false at the end of the stream
// or on a read error.
func (s *Scanner) Scan() bool {
	if s.done || s.err != nil {
		return false
	}
	if !s.started {
		if !s.seekFirst() {
			return false
		}
		s.started = true
	}

	for {
		if len(s.buf) == 0 && s.eof {
			s.unit = vvc.EndOfStream()
			s.done = true
			return true
		}

		from := max(s.searchFrom, vvc.StartCodeLen(s.buf))
		if i := bytes.Index(s.buf[from:], startCode); i >= 0 {
			j := from + i
			if s.buf[j-1] == 0 {
				j--
			}
			s.emit(j)
			return true
		}
		if s.eof {
			s.emit(len(s.buf))
			return true
		}
		s.searchFrom = max(from, len(s.buf)-2)
		if !s.fill() {
			return false
		}
	}
}

// Unit returns the unit produced by the last successful Scan.
func (s *Scanner) Unit() vvc.RawUnit {
	return s.unit
}

// Err returns the first non-EOF read error.
func (s *Scanner) Err() error {
	return s.err
}

// Skipped returns the number of bytes dropped before the first start code.
func (s *Scanner) Skipped() int {
	return s.skipped
}

func (s *Scanner) seekFirst() bool {
	for {
		if i := bytes.Index(s.buf, startCode); i >= 0 {
			if i > 0 && s.buf[i-1] == 0 {
				i--
			}
			s.drop(i)
			return true
		}
		if s.eof {
			s.drop(len(s.buf))
			return true
		}
		s.drop(max(len(s.buf)-3, 0))
		if !s.fill() {
			return false
		}
	}
}

func (s *Scanner) emit(n int) {
	s.unit = vvc.RawUnit{
		Index: s.index,
		Data:  s.buf[:n:n],
		Range: vvc.FileRange{Start: s.base, End: s.base + uint64(n) - 1},
	}
	s.index++
	s.base += uint64(n)
	s.buf = s.buf[n:]
	s.searchFrom = 0
}

func (s *Scanner) drop(n int) {
	s.skipped += n
	s.base += uint64(n)
	s.buf = s.buf[n:]
}

// fill appends the next chunk of input to a fresh buffer so that units
// already handed out are never overwritten.
func (s *Scanner) fill() bool {
	nb := make([]byte, len(s.buf), len(s.buf)+readChunk)
	copy(nb, s.buf)
	n, err := s.r.Read(nb[len(nb):cap(nb)])
	s.buf = nb[:len(nb)+n]
	switch {
	case err == io.EOF:
		s.eof = true
	case err != nil:
		s.err = err
		return false
	}
	return true
}

// Split splits data into units followed by the end-of-stream sentinel.
func Split(data []byte) []vvc.RawUnit {
	var units []vvc.RawUnit
	sc := NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		units = append(units, sc.Unit())
	}
	return units
}
