// Package diag collects the per-unit labels emitted by a vvc.Parser into a
// flat list of nodes, one per NAL unit, for tree or list views.
package diag

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/zsiec/vvcindex/vvc"
)

// Compile-time interface check.
var _ vvc.DiagnosticSink = (*Tree)(nil)

// Node is the diagnostic node of one unit. Index is -1 for messages that
// belong to the end-of-stream sentinel.
type Node struct {
	Index  int      `json:"index" yaml:"index"`
	Label  string   `json:"label,omitempty" yaml:"label,omitempty"`
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Tree is a vvc.DiagnosticSink keeping nodes in the order units were first
// seen. It is safe for concurrent use.
type Tree struct {
	mu    sync.Mutex
	nodes []*Node
	byIdx map[int]*Node
}

// NewTree returns an empty Tree.
func NewTree() *Tree {
	return &Tree{byIdx: make(map[int]*Node)}
}

func (t *Tree) node(index int) *Node {
	n, ok := t.byIdx[index]
	if !ok {
		n = &Node{Index: index}
		t.byIdx[index] = n
		t.nodes = append(t.nodes, n)
	}
	return n
}

// Label implements vvc.DiagnosticSink.
func (t *Tree) Label(index int, label string) {
	t.mu.Lock()
	t.node(index).Label = label
	t.mu.Unlock()
}

// Error implements vvc.DiagnosticSink.
func (t *Tree) Error(index int, msg string) {
	t.mu.Lock()
	n := t.node(index)
	n.Errors = append(n.Errors, msg)
	t.mu.Unlock()
}

// Nodes returns a copy of all nodes in insertion order.
func (t *Tree) Nodes() []Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Node, len(t.nodes))
	for i, n := range t.nodes {
		out[i] = Node{Index: n.Index, Label: n.Label, Errors: append([]string(nil), n.Errors...)}
	}
	return out
}

// Lookup returns the node of the given unit.
func (t *Tree) Lookup(index int) (Node, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.byIdx[index]
	if !ok {
		return Node{}, false
	}
	return Node{Index: n.Index, Label: n.Label, Errors: append([]string(nil), n.Errors...)}, true
}

// ErrorCount returns the number of nodes carrying at least one error.
func (t *Tree) ErrorCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	count := 0
	for _, n := range t.nodes {
		if len(n.Errors) > 0 {
			count++
		}
	}
	return count
}

// WriteTo writes one line per node, errors indented below their node, with
// nodes sorted by unit index.
func (t *Tree) WriteTo(w io.Writer) (int64, error) {
	nodes := t.Nodes()
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Index < nodes[j].Index })

	var total int64
	for _, n := range nodes {
		label := n.Label
		if label == "" {
			label = fmt.Sprintf("NAL %d", n.Index)
		}
		c, err := fmt.Fprintln(w, label)
		total += int64(c)
		if err != nil {
			return total, err
		}
		for _, e := range n.Errors {
			c, err := fmt.Fprintf(w, "  ERROR: %s\n", e)
			total += int64(c)
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}
