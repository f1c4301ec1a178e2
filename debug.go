package resolve

// Debug surfaces.  Nothing here is on the hot path: plans are opaque
// during normal operation and these renderings exist for humans
// chasing "why did my parameter resolve to that".

import (
	"fmt"
	"sort"
	"strings"

	"github.com/m1gwings/treedrawer/tree"
)

// String renders the plan one step per line, in execution order.  The
// terminal step is marked with "call".  Bindings show where each
// argument comes from: <- key for state-table reads, = for build-time
// constants.
func (p *Plan) String() string {
	var buf strings.Builder
	for i, s := range p.steps {
		if s.id == "" {
			fmt.Fprintf(&buf, "%d. call %s(%s)\n", i, s.name, s.bindings())
		} else {
			fmt.Fprintf(&buf, "%d. %s <- %s(%s)\n", i, s.id, s.name, s.bindings())
		}
	}
	return buf.String()
}

func (s step) bindings() string {
	parts := make([]string, 0, len(s.c.params))
	for _, p := range s.c.params {
		if key, ok := s.ctx.keys[p.Name]; ok {
			parts = append(parts, p.Name+" <- "+key)
			continue
		}
		if v, ok := s.ctx.constants[p.Name]; ok {
			parts = append(parts, fmt.Sprintf("%s = %v", p.Name, v))
			continue
		}
		parts = append(parts, p.Name+" = ?")
	}
	return strings.Join(parts, ", ")
}

// Tree renders the plan's dependency graph as a tree rooted at the
// target callable.  Shared dependencies appear under each of their
// consumers even though the plan executes them once.
func (p *Plan) Tree() string {
	byID := make(map[string]step, len(p.steps))
	for _, s := range p.steps {
		if s.id != "" {
			byID[s.id] = s
		}
	}
	root := tree.NewTree(tree.NodeString(p.target.name))
	terminal := p.steps[len(p.steps)-1]
	addStepChildren(root, terminal, byID)
	return root.String()
}

func addStepChildren(node *tree.Tree, s step, byID map[string]step) {
	for _, p := range s.c.params {
		if key, ok := s.ctx.keys[p.Name]; ok {
			if dep, isStep := byID[key]; isStep {
				child := node.AddChild(tree.NodeString(p.Name + " <- " + key))
				addStepChildren(child, dep, byID)
			} else {
				node.AddChild(tree.NodeString(p.Name + " <- " + key + " (known)"))
			}
			continue
		}
		if _, ok := s.ctx.constants[p.Name]; ok {
			node.AddChild(tree.NodeString(p.Name + " (constant)"))
		}
	}
}

// Identities returns the step identities in execution order, terminal
// step excluded.  Handy in tests and when eyeballing deduplication.
func (p *Plan) Identities() []string {
	ids := make([]string, 0, len(p.steps))
	for _, s := range p.steps {
		if s.id != "" {
			ids = append(ids, s.id)
		}
	}
	return ids
}

// CachedPlans returns the targets of all plans built so far, sorted.
func (in *Injector) CachedPlans() []string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	names := make([]string, 0, len(in.plans))
	for _, p := range in.plans {
		names = append(names, p.target.name)
	}
	sort.Strings(names)
	return names
}
