package vvc

import "fmt"

// DiagnosticSink receives one label per processed unit, plus error messages
// attached to the node of the unit being processed.
type DiagnosticSink interface {
	Label(index int, label string)
	Error(index int, msg string)
}

type nopDiagnostics struct{}

func (nopDiagnostics) Label(int, string) {}
func (nopDiagnostics) Error(int, string) {}

// unitLabel formats the tree label of a unit, e.g. "NAL 4: 15 SPS_NUT ID 0".
func unitLabel(index int, h Header, description string) string {
	return fmt.Sprintf("NAL %d: %d", index, uint8(h.Type)) + description
}

func spsDescription(ps *ParameterSet) (description, typeName string) {
	if ps.Err != nil {
		return " SPS_NUT ERR", "SPS(ERR)"
	}
	return fmt.Sprintf(" SPS_NUT ID %d", ps.Info.ID), fmt.Sprintf("SPS(%d)", ps.Info.ID)
}
