// Package expr implements the goal-algebra expression tree: a binary tree of
// '+ - * / ~' operators over GoalRef and numeric-literal leaves, and the
// recursive-descent parser that builds it from source text.
package expr

import (
	"github.com/avast/epstats/pkg/goal"
)

// BinOp is one of the five combinators the grammar supports.
type BinOp byte

// Supported combinators. '~' is semantically "subtract in value/count space,
// add in squared-value space" -- see eval.EvalSqr in pkg/eval for the exact
// asymmetry against '-'. For a compound metric built from a difference whose
// variance should be the sum of the parts' variances, use '~'; '-' subtracts
// the squared values as well.
const (
	OpAdd BinOp = '+'
	OpSub BinOp = '-'
	OpMul BinOp = '*'
	OpDiv BinOp = '/'
	OpXor BinOp = '~' // "variance-preserving subtract"
)

// Node is one node of an expression tree. A Node is either a leaf (GoalRef
// or Number) or an internal binary-operator node with Left/Right children.
// Trees are produced fresh by each parse and their shape is never changed
// afterwards; the one in-place change is goal.UnifyDimensions, which the
// orchestrator runs on the GoalRef leaves to add missing dimension predicates.
type Node struct {
	// Leaf fields. Exactly one of GoalRef/IsNumber is populated for a leaf node.
	GoalRef  *goal.GoalRef
	IsNumber bool
	Number   float64

	// Internal-node fields.
	Op          BinOp
	Left, Right *Node
}

// IsLeaf reports whether n is a GoalRef or Number leaf rather than a binary operator.
func (n *Node) IsLeaf() bool {
	return n.GoalRef != nil || n.IsNumber
}

// Leaf builds a GoalRef leaf node.
func Leaf(g *goal.GoalRef) *Node {
	return &Node{GoalRef: g}
}

// Lit builds a numeric-literal leaf node.
func Lit(v float64) *Node {
	return &Node{IsNumber: true, Number: v}
}

// Bin builds a binary-operator node.
func Bin(op BinOp, left, right *Node) *Node {
	return &Node{Op: op, Left: left, Right: right}
}

// GoalRefs returns every GoalRef leaf reachable from n, in left-to-right order.
func (n *Node) GoalRefs() []*goal.GoalRef {
	if n == nil {
		return nil
	}
	if n.GoalRef != nil {
		return []*goal.GoalRef{n.GoalRef}
	}
	if n.IsNumber {
		return nil
	}
	out := n.Left.GoalRefs()
	out = append(out, n.Right.GoalRefs()...)
	return out
}
