package tracetree

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/m1gwings/treedrawer/tree"
	"github.com/parseq-go/parseq"
)

// Render returns an ASCII-art tree of t, rooted at t.Root. Nodes hidden
// via parseq.SystemHidden are skipped, along with every node placed
// beneath them in the spanning tree (see spanningChildren), even if that
// node is also reachable through a visible task.
func Render(t parseq.Trace) string {
	children := spanningChildren(t)
	root := tree.NewTree(tree.NodeString(label(t.Root)))
	attach(root, t, t.Root.ID, children)
	return root.String()
}

// spanningChildren reduces the full edge set (which may contain
// predecessor, timer, and side-effect edges alongside parent edges) to a
// single tree: for each node, its children are whichever other nodes name
// it as their parent. A node with no parent edge falls back to predecessor
// edges: it is placed beneath the first task found to name it as a
// predecessor (e.g. the branches of a Par group sit beneath the Par task).
func spanningChildren(t parseq.Trace) map[uuid.UUID][]uuid.UUID {
	children := make(map[uuid.UUID][]uuid.UUID)
	hasParent := make(map[uuid.UUID]bool)

	for _, e := range t.Edges {
		if e.Kind == parseq.RelationParent {
			children[e.To] = append(children[e.To], e.From)
			hasParent[e.From] = true
		}
	}
	for _, e := range t.Edges {
		if e.Kind != parseq.RelationPredecessor {
			continue
		}
		if hasParent[e.To] {
			continue
		}
		children[e.From] = append(children[e.From], e.To)
		hasParent[e.To] = true
	}
	for id := range children {
		sort.Slice(children[id], func(i, j int) bool {
			return children[id][i].String() < children[id][j].String()
		})
	}
	return children
}

// attach recursively adds id's children beneath node, skipping any
// subtree rooted at a system-hidden task.
func attach(node *tree.Tree, t parseq.Trace, id uuid.UUID, children map[uuid.UUID][]uuid.UUID) {
	for _, childID := range children[id] {
		child := t.Nodes[childID]
		if child.SystemHidden {
			continue
		}
		childNode := node.AddChild(tree.NodeString(label(child)))
		attach(childNode, t, childID, children)
	}
}

func label(st parseq.ShallowTrace) string {
	switch {
	case st.ErrSummary != "":
		return fmt.Sprintf("%s [%s: %s]", st.Name, st.State, st.ErrSummary)
	case st.ValueSummary != "":
		return fmt.Sprintf("%s [%s: %s]", st.Name, st.State, st.ValueSummary)
	default:
		return fmt.Sprintf("%s [%s]", st.Name, st.State)
	}
}
