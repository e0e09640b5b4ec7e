// Package pipeline runs the indexing flow for a single stream: it splits the
// input into NAL units, feeds them to a vvc.Parser and collects the frame
// index, parameter sets, bitrate trace and diagnostics into a Report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/zsiec/vvcindex/annexb"
	"github.com/zsiec/vvcindex/bitrate"
	"github.com/zsiec/vvcindex/diag"
	"github.com/zsiec/vvcindex/vvc"
)

// Config controls what a Pipeline collects.
type Config struct {
	// Window and FrameRate configure the bitrate recorder; zero selects the
	// bitrate package defaults.
	Window    int
	FrameRate float64
	// Labels includes per-unit diagnostic nodes in the report.
	Labels bool
	// Trace includes the full bitrate trace in the report.
	Trace bool
}

// Frame is a frame index entry in report form.
type Frame struct {
	Counter      int    `json:"counter" yaml:"counter"`
	Start        uint64 `json:"start" yaml:"start"`
	End          uint64 `json:"end" yaml:"end"`
	RandomAccess bool   `json:"randomAccess,omitempty" yaml:"random_access,omitempty"`
}

// ParameterSet is an SPS in report form.
type ParameterSet struct {
	Index  int    `json:"index" yaml:"index"`
	ID     uint8  `json:"id" yaml:"id"`
	Start  uint64 `json:"start" yaml:"start"`
	End    uint64 `json:"end" yaml:"end"`
	Codec  string `json:"codec,omitempty" yaml:"codec,omitempty"`
	Width  int    `json:"width,omitempty" yaml:"width,omitempty"`
	Height int    `json:"height,omitempty" yaml:"height,omitempty"`
	Active bool   `json:"active" yaml:"active"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report is the result of indexing one stream.
type Report struct {
	Name          string          `json:"name" yaml:"name"`
	Units         int64           `json:"units" yaml:"units"`
	Malformed     int64           `json:"malformed" yaml:"malformed"`
	SkippedBytes  int             `json:"skippedBytes" yaml:"skipped_bytes"`
	LeadingBytes  int             `json:"leadingBytes" yaml:"leading_bytes"`
	Frames        []Frame         `json:"frames" yaml:"frames"`
	ParameterSets []ParameterSet  `json:"parameterSets" yaml:"parameter_sets"`
	Bitrate       bitrate.Stats   `json:"bitrate" yaml:"bitrate"`
	Trace         []bitrate.Point `json:"trace,omitempty" yaml:"trace,omitempty"`
	Nodes         []diag.Node     `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	ElapsedMs     int64           `json:"elapsedMs" yaml:"elapsed_ms"`
}

// Pipeline indexes one stream. Run must be called at most once.
type Pipeline struct {
	log     *slog.Logger
	name    string
	input   io.Reader
	cfg     Config
	parser  *vvc.Parser
	rates   *bitrate.Recorder
	tree    *diag.Tree
	scanner *annexb.Scanner

	units     atomic.Int64
	malformed atomic.Int64
}

// New creates a Pipeline reading the Annex B stream named name from input.
func New(name string, input io.Reader, cfg Config) *Pipeline {
	p := &Pipeline{
		log:   slog.With("stream", name),
		name:  name,
		input: input,
		cfg:   cfg,
		rates: bitrate.NewRecorder(cfg.Window, cfg.FrameRate),
		tree:  diag.NewTree(),
	}
	p.parser = vvc.NewParser(
		vvc.WithLogger(slog.With("component", "parser", "stream", name)),
		vvc.WithBitrateSink(p.rates),
		vvc.WithDiagnostics(p.tree),
	)
	p.scanner = annexb.NewScanner(input)
	return p
}

// Progress returns the number of units processed so far. It may be called
// while Run is in progress.
func (p *Pipeline) Progress() int64 {
	return p.units.Load()
}

// Bitrate returns the live bitrate recorder.
func (p *Pipeline) Bitrate() *bitrate.Recorder {
	return p.rates
}

// Run reads the whole input and returns the report. Units with malformed
// headers are counted and skipped. It stops early on a read error, a fatal
// parser error or cancellation of ctx.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	start := time.Now()

	for p.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		u := p.scanner.Unit()
		if _, err := p.parser.ParseNALUnit(u); err != nil {
			if errors.Is(err, vvc.ErrMalformedHeader) {
				p.malformed.Add(1)
				continue
			}
			return Report{}, fmt.Errorf("index %s: %w", p.name, err)
		}
		if !u.IsEndOfStream() {
			p.units.Add(1)
		}
	}
	if err := p.scanner.Err(); err != nil {
		return Report{}, fmt.Errorf("read %s: %w", p.name, err)
	}

	rep := p.report()
	rep.ElapsedMs = time.Since(start).Milliseconds()
	p.log.Info("stream indexed",
		"units", rep.Units,
		"frames", len(rep.Frames),
		"sps", len(rep.ParameterSets),
		"malformed", rep.Malformed,
	)
	return rep, nil
}

func (p *Pipeline) report() Report {
	rep := Report{
		Name:         p.name,
		Units:        p.units.Load(),
		Malformed:    p.malformed.Load(),
		SkippedBytes: p.scanner.Skipped(),
		LeadingBytes: p.parser.LeadingBytes(),
		Bitrate:      p.rates.Snapshot(),
	}

	frames := p.parser.Frames().Frames()
	rep.Frames = make([]Frame, len(frames))
	for i, f := range frames {
		rep.Frames[i] = Frame{
			Counter:      f.Counter,
			Start:        f.Range.Start,
			End:          f.Range.End,
			RandomAccess: f.RandomAccess,
		}
	}

	for _, ps := range p.parser.ParameterSets() {
		out := ParameterSet{
			Index: ps.Index,
			ID:    ps.Info.ID,
			Start: ps.Range.Start,
			End:   ps.Range.End,
		}
		if ps.Err != nil {
			out.Error = ps.Err.Error()
		} else {
			out.Codec = ps.Info.CodecString()
			out.Width = ps.Info.Width
			out.Height = ps.Info.Height
			active, ok := p.parser.ActiveSPS(ps.Info.ID)
			out.Active = ok && active == ps
		}
		rep.ParameterSets = append(rep.ParameterSets, out)
	}

	if p.cfg.Trace {
		rep.Trace = p.rates.Trace()
	}
	if p.cfg.Labels {
		rep.Nodes = p.tree.Nodes()
	}
	return rep
}
