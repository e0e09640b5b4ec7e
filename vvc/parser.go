package vvc

import (
	"errors"
	"log/slog"
)

// frameAppendMessage is attached to the diagnostic node of the unit whose
// processing failed to append a frame.
const frameAppendMessage = "Error adding frame to frame list."

// Result describes a successfully processed unit.
type Result struct {
	Header Header
	// TypeName is a short name for list views, e.g. "SPS(0)" or "AUD_NUT".
	TypeName string
	// Label is the text passed to the DiagnosticSink.
	Label string
}

// Parser indexes one VVC Annex B stream. Feed it units in file order with
// ParseNALUnit and finish with EndOfStream. A Parser must not be used from
// more than one goroutine.
type Parser struct {
	log      *slog.Logger
	frames   FrameIndex
	asm      *Assembler
	registry *Registry
	sets     []*ParameterSet
	parseSPS SPSParser
	sink     BitrateSink
	diag     DiagnosticSink
	err      error
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) { p.log = l }
}

// WithBitrateSink sets the receiver of per-access-unit bitrate samples.
func WithBitrateSink(s BitrateSink) Option {
	return func(p *Parser) { p.sink = s }
}

// WithDiagnostics sets the receiver of per-unit labels.
func WithDiagnostics(d DiagnosticSink) Option {
	return func(p *Parser) { p.diag = d }
}

// WithSPSParser replaces ParseSPS as the SPS payload parser.
func WithSPSParser(fn SPSParser) Option {
	return func(p *Parser) { p.parseSPS = fn }
}

// NewParser returns a Parser with no open access unit.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		log:      slog.Default(),
		registry: NewRegistry(),
		parseSPS: ParseSPS,
		diag:     nopDiagnostics{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.diag == nil {
		p.diag = nopDiagnostics{}
	}
	p.asm = NewAssembler(&p.frames, p.sink, p.log)
	return p
}

// ParseNALUnit processes one unit. The end-of-stream sentinel closes the
// last access unit.
//
// A unit whose header is too short is rejected with ErrMalformedHeader and
// leaves the parser untouched. An SPS that fails to parse is recorded and
// does not stop the stream. A failure to append to the frame index is fatal:
// it and every later call return the same *UnitError wrapping
// ErrFrameAppend.
func (p *Parser) ParseNALUnit(u RawUnit) (Result, error) {
	if p.err != nil {
		return Result{}, p.err
	}
	if u.IsEndOfStream() {
		return Result{}, p.assemble(u.Index, p.asm.Close)
	}

	h, payload, err := ParseHeader(u.Data)
	if err != nil {
		p.log.Debug("skipping NAL unit", "index", u.Index, "size", len(u.Data), "error", err)
		return Result{}, &UnitError{Index: u.Index, Err: err}
	}

	description, typeName := "", h.Type.String()
	if h.Type == NALSPS {
		ps := p.addSPS(u, payload)
		description, typeName = spsDescription(ps)
	}

	if err := p.assemble(u.Index, func() error {
		return p.asm.Add(h, u.Range, len(u.Data))
	}); err != nil {
		return Result{}, err
	}

	label := unitLabel(u.Index, h, description)
	p.diag.Label(u.Index, label)
	return Result{Header: h, TypeName: typeName, Label: label}, nil
}

// assemble runs an assembler step and turns a frame append failure into the
// parser's terminal error.
func (p *Parser) assemble(index int, step func() error) error {
	err := step()
	if err == nil {
		return nil
	}
	uerr := &UnitError{Index: index, Err: err}
	if errors.Is(err, ErrFrameAppend) {
		p.diag.Error(index, frameAppendMessage)
		p.log.Error("frame index broken", "index", index, "error", err)
		p.err = uerr
	}
	return uerr
}

func (p *Parser) addSPS(u RawUnit, payload []byte) *ParameterSet {
	ps := &ParameterSet{Index: u.Index, Range: u.Range}
	ps.Info, ps.Err = p.parseSPS(payload)
	if ps.Err != nil {
		p.log.Warn("SPS parse failed", "index", u.Index, "error", ps.Err)
	} else {
		p.registry.Register(ps)
		p.log.Debug("SPS", "index", u.Index, "id", ps.Info.ID)
	}
	p.sets = append(p.sets, ps)
	return ps
}

// ActiveSPS returns the most recent successfully parsed SPS with the id.
func (p *Parser) ActiveSPS(id uint8) (*ParameterSet, bool) {
	return p.registry.Lookup(id)
}

// ActiveSPSIDs returns the ids of all active SPSs in ascending order.
func (p *Parser) ActiveSPSIDs() []uint8 {
	return p.registry.IDs()
}

// ParameterSets returns every SPS seen, in stream order, including ones that
// failed to parse or were later replaced.
func (p *Parser) ParameterSets() []*ParameterSet {
	out := make([]*ParameterSet, len(p.sets))
	copy(out, p.sets)
	return out
}

// Frames returns the frame index built so far.
func (p *Parser) Frames() *FrameIndex {
	return &p.frames
}

// LeadingBytes returns the bytes seen before the first access unit delimiter.
func (p *Parser) LeadingBytes() int {
	return p.asm.LeadingBytes()
}

// Finished reports whether the end-of-stream sentinel was processed.
func (p *Parser) Finished() bool {
	return p.asm.Closed()
}

// Err returns the terminal error, if the parser has failed.
func (p *Parser) Err() error {
	return p.err
}
