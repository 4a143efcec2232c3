// Package scss parses SCSS stylesheets into a tree of rules, at-rules and
// declarations.
//
// The tree mirrors the shape used by PostCSS: a Root owns Rules and AtRules,
// which in turn own nested statements. Text fragments (selectors, property
// names, values, at-rule params) are kept verbatim apart from trimming the
// surrounding whitespace, because downstream consumers match identifiers
// lexically and depend on sigils and punctuation.
package scss

// NodeType identifies the kind of a tree node.
type NodeType string

const (
	TypeRoot    NodeType = "root"
	TypeRule    NodeType = "rule"
	TypeAtRule  NodeType = "atrule"
	TypeDecl    NodeType = "decl"
	TypeComment NodeType = "comment"
)

// Position is a 1-based location in the source text.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Node is a single statement in the tree.
type Node interface {
	Type() NodeType
	Pos() Position
}

// Container is embedded by nodes that own nested statements.
type Container struct {
	Nodes []Node
}

// Children returns the direct child nodes.
func (c *Container) Children() []Node {
	return c.Nodes
}

func (c *Container) append(n Node) {
	c.Nodes = append(c.Nodes, n)
}

// parent is implemented by every node that embeds Container.
type parent interface {
	Node
	Children() []Node
}

// Root is the top of a parsed stylesheet.
type Root struct {
	Container
}

func (r *Root) Type() NodeType { return TypeRoot }
func (r *Root) Pos() Position  { return Position{Line: 1, Column: 1} }

// Rule is a selector followed by a block, e.g. `.btn:hover { ... }`.
type Rule struct {
	Container
	Selector string
	Position Position
}

func (r *Rule) Type() NodeType { return TypeRule }
func (r *Rule) Pos() Position  { return r.Position }

// AtRule is an `@name params` statement, with or without a block.
type AtRule struct {
	Container
	Name     string
	Params   string
	HasBlock bool
	Position Position
}

func (a *AtRule) Type() NodeType { return TypeAtRule }
func (a *AtRule) Pos() Position  { return a.Position }

// Declaration is a `prop: value` pair. Variable assignments such as
// `$gap: 4px !default` are declarations whose Prop starts with `$`.
type Declaration struct {
	Prop      string
	Value     string
	Important bool
	Position  Position
}

func (d *Declaration) Type() NodeType { return TypeDecl }
func (d *Declaration) Pos() Position  { return d.Position }

// Comment is a `/* */` or `//` comment. Text excludes the delimiters.
type Comment struct {
	Text     string
	Inline   bool
	Position Position
}

func (c *Comment) Type() NodeType { return TypeComment }
func (c *Comment) Pos() Position  { return c.Position }
