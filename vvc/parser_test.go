package vvc

import (
	"errors"
	"testing"
)

// testStream builds units with consecutive file ranges. Every unit has a
// 4-byte start code, so size must be at least 6.
type testStream struct {
	index  int
	offset uint64
}

func (s *testStream) unit(typ NALType, size int, payload ...byte) RawUnit {
	data := make([]byte, size)
	data[3] = 0x01
	data[5] = byte(typ)<<3 | 1
	copy(data[6:], payload)
	u := RawUnit{
		Index: s.index,
		Data:  data,
		Range: FileRange{Start: s.offset, End: s.offset + uint64(size) - 1},
	}
	s.index++
	s.offset += uint64(size)
	return u
}

type recordingDiag struct {
	labels map[int]string
	errors map[int][]string
}

func newRecordingDiag() *recordingDiag {
	return &recordingDiag{labels: make(map[int]string), errors: make(map[int][]string)}
}

func (d *recordingDiag) Label(index int, label string) { d.labels[index] = label }
func (d *recordingDiag) Error(index int, msg string) {
	d.errors[index] = append(d.errors[index], msg)
}

type sampleLog []BitrateSample

func (l *sampleLog) AddSample(s BitrateSample) { *l = append(*l, s) }

func feed(t *testing.T, p *Parser, units ...RawUnit) {
	t.Helper()
	for _, u := range units {
		if _, err := p.ParseNALUnit(u); err != nil {
			t.Fatalf("ParseNALUnit(%d): %v", u.Index, err)
		}
	}
}

var spsPayload = []byte{0x30, 0x0D, 0x02, 0x53, 0x80, 0x00, 0x00, 0x0F, 0x02, 0x00, 0x43, 0x98}

func TestParserExampleStream(t *testing.T) {
	t.Parallel()
	var samples sampleLog
	p := NewParser(WithBitrateSink(&samples))
	var s testStream

	units := []RawUnit{s.unit(NALAUD, 50), s.unit(NALTrail, 30), s.unit(NALTrail, 20), s.unit(NALAUD, 40)}
	aud2 := units[3]
	feed(t, p, units...)
	feed(t, p, EndOfStream())

	if len(samples) != 1 {
		t.Fatalf("samples = %d, want 1", len(samples))
	}
	if want := (BitrateSample{PTS: 0, DTS: 0, Size: 100}); samples[0] != want {
		t.Errorf("sample = %+v, want %+v", samples[0], want)
	}

	frames := p.Frames()
	if frames.Len() != 1 {
		t.Fatalf("frames = %d, want 1", frames.Len())
	}
	f := frames.At(0)
	if f.Counter != 1 || !f.RandomAccess || f.Range != aud2.Range {
		t.Errorf("frame = %+v, want counter 1, random access, range %v", f, aud2.Range)
	}
	if !p.Finished() {
		t.Error("Finished() = false after sentinel")
	}
}

func TestParserBoundaryOnlyStream(t *testing.T) {
	t.Parallel()
	const n = 6
	var samples sampleLog
	p := NewParser(WithBitrateSink(&samples))
	var s testStream
	for i := 0; i < n; i++ {
		feed(t, p, s.unit(NALAUD, 10+i))
	}
	feed(t, p, EndOfStream())

	frames := p.Frames()
	if frames.Len() != n-1 {
		t.Fatalf("frames = %d, want %d", frames.Len(), n-1)
	}
	for i := 0; i < frames.Len(); i++ {
		f := frames.At(i)
		if f.Counter != i+1 {
			t.Errorf("frame %d counter = %d, want %d", i, f.Counter, i+1)
		}
		if f.RandomAccess != (f.Counter == 1) {
			t.Errorf("frame %d RandomAccess = %v", i, f.RandomAccess)
		}
	}

	if len(samples) != n-1 {
		t.Fatalf("samples = %d, want %d", len(samples), n-1)
	}
	for i, smp := range samples {
		if smp.PTS != int64(i) || smp.DTS != int64(i) || smp.Keyframe {
			t.Errorf("sample %d = %+v", i, smp)
		}
		if smp.Size != 10+i {
			t.Errorf("sample %d size = %d, want %d", i, smp.Size, 10+i)
		}
	}
}

func TestParserAccumulatesAccessUnitBytes(t *testing.T) {
	t.Parallel()
	var samples sampleLog
	p := NewParser(WithBitrateSink(&samples))
	var s testStream

	lead := s.unit(NALPrefixSEI, 7)
	au0 := []RawUnit{s.unit(NALAUD, 10), s.unit(NALSPS, 20, spsPayload...), s.unit(NALIDRWRadl, 30)}
	au1 := []RawUnit{s.unit(NALAUD, 15), s.unit(NALTrail, 25)}
	au2 := []RawUnit{s.unit(NALAUD, 12), s.unit(NALTrail, 8), s.unit(NALSuffixSEI, 9)}

	feed(t, p, lead)
	feed(t, p, au0...)
	feed(t, p, au1...)
	feed(t, p, au2...)
	feed(t, p, EndOfStream())

	if p.LeadingBytes() != 7 {
		t.Errorf("LeadingBytes() = %d, want 7", p.LeadingBytes())
	}
	wantSizes := []int{60, 40}
	if len(samples) != len(wantSizes) {
		t.Fatalf("samples = %d, want %d", len(samples), len(wantSizes))
	}
	for i, want := range wantSizes {
		if samples[i].Size != want {
			t.Errorf("sample %d size = %d, want %d", i, samples[i].Size, want)
		}
	}

	frames := p.Frames().Frames()
	want := []FrameEntry{
		{Counter: 1, Range: FileRange{au1[0].Range.Start, au1[1].Range.End}, RandomAccess: true},
		{Counter: 2, Range: FileRange{au2[0].Range.Start, au2[2].Range.End}},
	}
	if len(frames) != len(want) {
		t.Fatalf("frames = %+v, want %+v", frames, want)
	}
	for i := range want {
		if frames[i] != want[i] {
			t.Errorf("frame %d = %+v, want %+v", i, frames[i], want[i])
		}
	}
}

func TestParserMalformedHeaderSkipsUnit(t *testing.T) {
	t.Parallel()
	var samples sampleLog
	p := NewParser(WithBitrateSink(&samples))
	var s testStream

	feed(t, p, s.unit(NALAUD, 10))
	bad := RawUnit{Index: 1, Data: []byte{0x00, 0x00, 0x01, 0x00}, Range: FileRange{10, 13}}
	_, err := p.ParseNALUnit(bad)
	if !errors.Is(err, ErrMalformedHeader) {
		t.Fatalf("error = %v, want ErrMalformedHeader", err)
	}
	var uerr *UnitError
	if !errors.As(err, &uerr) || uerr.Index != 1 {
		t.Errorf("error = %v, want *UnitError for index 1", err)
	}
	if p.Err() != nil {
		t.Errorf("Err() = %v, malformed header must not be fatal", p.Err())
	}

	s.index, s.offset = 2, 14
	feed(t, p, s.unit(NALTrail, 20), s.unit(NALAUD, 10), EndOfStream())

	if len(samples) != 1 || samples[0].Size != 30 {
		t.Errorf("samples = %+v, want one sample of 30 bytes", samples)
	}
}

func TestParserEmptyUnitIsMalformed(t *testing.T) {
	t.Parallel()
	p := NewParser()
	if _, err := p.ParseNALUnit(RawUnit{Index: 3}); !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("error = %v, want ErrMalformedHeader", err)
	}
}

func TestParserSPSOverwrite(t *testing.T) {
	t.Parallel()
	p := NewParser()
	var s testStream

	feed(t, p, s.unit(NALAUD, 8))
	first := s.unit(NALSPS, 20, spsPayload...)
	second := s.unit(NALSPS, 24, spsPayload...)
	feed(t, p, first, second)

	active, ok := p.ActiveSPS(3)
	if !ok {
		t.Fatal("ActiveSPS(3) missing")
	}
	if active.Index != second.Index {
		t.Errorf("active SPS index = %d, want %d", active.Index, second.Index)
	}

	sets := p.ParameterSets()
	if len(sets) != 2 {
		t.Fatalf("ParameterSets() = %d, want 2", len(sets))
	}
	if sets[0].Index != first.Index || sets[0].Range != first.Range {
		t.Errorf("first listed set = %+v", sets[0])
	}
	if sets[0].Info.Width != 1920 {
		t.Errorf("replaced set lost its fields: %+v", sets[0].Info)
	}
	if ids := p.ActiveSPSIDs(); len(ids) != 1 || ids[0] != 3 {
		t.Errorf("ActiveSPSIDs() = %v, want [3]", ids)
	}
}

func TestParserSPSFailureKeepsBookkeeping(t *testing.T) {
	t.Parallel()
	var samples sampleLog
	diag := newRecordingDiag()
	p := NewParser(WithBitrateSink(&samples), WithDiagnostics(diag))
	var s testStream

	feed(t, p, s.unit(NALAUD, 10))
	res, err := p.ParseNALUnit(s.unit(NALSPS, 7, 0x30))
	if err != nil {
		t.Fatalf("ParseNALUnit: %v", err)
	}
	if res.TypeName != "SPS(ERR)" {
		t.Errorf("TypeName = %q, want SPS(ERR)", res.TypeName)
	}
	if diag.labels[1] != "NAL 1: 15 SPS_NUT ERR" {
		t.Errorf("label = %q", diag.labels[1])
	}
	feed(t, p, s.unit(NALAUD, 10))

	if len(samples) != 1 || samples[0].Size != 17 {
		t.Errorf("samples = %+v, want one sample of 17 bytes", samples)
	}
	if len(p.ActiveSPSIDs()) != 0 {
		t.Error("failed SPS must not be registered")
	}
	sets := p.ParameterSets()
	if len(sets) != 1 || sets[0].Err == nil {
		t.Errorf("ParameterSets() = %+v, want one failed set", sets)
	}
}

func TestParserLabels(t *testing.T) {
	t.Parallel()
	diag := newRecordingDiag()
	p := NewParser(WithDiagnostics(diag))
	var s testStream

	tests := []struct {
		unit     RawUnit
		label    string
		typeName string
	}{
		{s.unit(NALAUD, 8), "NAL 0: 20", "AUD_NUT"},
		{s.unit(NALSPS, 20, spsPayload...), "NAL 1: 15 SPS_NUT ID 3", "SPS(3)"},
		{s.unit(NALIDRNlp, 16), "NAL 2: 8", "IDR_N_LP"},
	}
	for _, tt := range tests {
		res, err := p.ParseNALUnit(tt.unit)
		if err != nil {
			t.Fatalf("ParseNALUnit(%d): %v", tt.unit.Index, err)
		}
		if res.Label != tt.label || diag.labels[tt.unit.Index] != tt.label {
			t.Errorf("label = %q / %q, want %q", res.Label, diag.labels[tt.unit.Index], tt.label)
		}
		if res.TypeName != tt.typeName {
			t.Errorf("TypeName = %q, want %q", res.TypeName, tt.typeName)
		}
	}
}

func TestParserFrameAppendFailureIsFatal(t *testing.T) {
	t.Parallel()
	diag := newRecordingDiag()
	p := NewParser(WithDiagnostics(diag))
	if err := p.frames.add(FrameEntry{Counter: 5}); err != nil {
		t.Fatal(err)
	}
	var s testStream

	feed(t, p, s.unit(NALAUD, 8), s.unit(NALTrail, 8), s.unit(NALAUD, 8), s.unit(NALTrail, 8))
	_, err := p.ParseNALUnit(s.unit(NALAUD, 8))
	if !errors.Is(err, ErrFrameAppend) {
		t.Fatalf("error = %v, want ErrFrameAppend", err)
	}
	if got := diag.errors[4]; len(got) != 1 || got[0] != frameAppendMessage {
		t.Errorf("diagnostic errors = %v", diag.errors)
	}
	if _, ok := diag.labels[4]; ok {
		t.Error("failed unit must not get a label")
	}

	_, again := p.ParseNALUnit(s.unit(NALTrail, 8))
	if again != err {
		t.Errorf("later call error = %v, want the same terminal error", again)
	}
	if _, again := p.ParseNALUnit(EndOfStream()); again != err {
		t.Errorf("sentinel error = %v, want the same terminal error", again)
	}
	if p.Err() != err {
		t.Errorf("Err() = %v", p.Err())
	}
}

func TestParserSentinelTwice(t *testing.T) {
	t.Parallel()
	p := NewParser()
	var s testStream
	feed(t, p, s.unit(NALAUD, 8), s.unit(NALAUD, 8), EndOfStream())

	_, err := p.ParseNALUnit(EndOfStream())
	if !errors.Is(err, ErrStreamClosed) {
		t.Errorf("second sentinel error = %v, want ErrStreamClosed", err)
	}
	if _, err := p.ParseNALUnit(s.unit(NALTrail, 8)); !errors.Is(err, ErrStreamClosed) {
		t.Errorf("unit after sentinel error = %v, want ErrStreamClosed", err)
	}
	if p.Frames().Len() != 1 {
		t.Errorf("frames = %d, want 1", p.Frames().Len())
	}
}

func TestParserSentinelWithoutBoundary(t *testing.T) {
	t.Parallel()
	var samples sampleLog
	p := NewParser(WithBitrateSink(&samples))
	var s testStream
	feed(t, p, s.unit(NALTrail, 30), EndOfStream())

	if p.Frames().Len() != 0 || len(samples) != 0 {
		t.Errorf("frames = %d, samples = %d, want none", p.Frames().Len(), len(samples))
	}
	if p.LeadingBytes() != 30 {
		t.Errorf("LeadingBytes() = %d, want 30", p.LeadingBytes())
	}
}

func TestParserCustomSPSParser(t *testing.T) {
	t.Parallel()
	p := NewParser(WithSPSParser(func(payload []byte) (SPSInfo, error) {
		return SPSInfo{ID: payload[0]}, nil
	}))
	var s testStream
	feed(t, p, s.unit(NALSPS, 7, 9))
	if _, ok := p.ActiveSPS(9); !ok {
		t.Error("custom SPS parser result not registered")
	}
}
