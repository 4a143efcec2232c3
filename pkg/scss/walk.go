package scss

// Visitor is called for each node during a walk. Returning false skips the
// node's children.
type Visitor func(n Node) bool

// Walk visits every descendant of r depth-first in document order. The root
// itself is not visited.
func (r *Root) Walk(fn Visitor) {
	walkChildren(r, fn)
}

func walkChildren(p parent, fn Visitor) {
	for _, child := range p.Children() {
		if !fn(child) {
			continue
		}
		if c, ok := child.(parent); ok {
			walkChildren(c, fn)
		}
	}
}

// WalkDecls visits every declaration.
func (r *Root) WalkDecls(fn func(*Declaration)) {
	r.Walk(func(n Node) bool {
		if d, ok := n.(*Declaration); ok {
			fn(d)
		}
		return true
	})
}

// WalkAtRules visits every at-rule named name. An empty name visits all
// at-rules.
func (r *Root) WalkAtRules(name string, fn func(*AtRule)) {
	r.Walk(func(n Node) bool {
		if a, ok := n.(*AtRule); ok && (name == "" || a.Name == name) {
			fn(a)
		}
		return true
	})
}

// WalkRules visits every rule.
func (r *Root) WalkRules(fn func(*Rule)) {
	r.Walk(func(n Node) bool {
		if rule, ok := n.(*Rule); ok {
			fn(rule)
		}
		return true
	})
}
