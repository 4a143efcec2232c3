package unused

import (
	"strings"

	"github.com/panbanda/scss-unused/pkg/scss"
)

// ExpressionFunc receives an expression fragment and the node it came from.
type ExpressionFunc func(expr string, node scss.Node)

// VisitInterpolations calls fn with the inner text of every `#{...}` span in
// expr, left to right. Brace depth is counted from the opener, so nested
// braces inside a span stay part of it. An unterminated span ends the scan
// without a callback.
func VisitInterpolations(expr string, fn func(inner string)) {
	pos := 0
	for {
		idx := strings.Index(expr[pos:], "#{")
		if idx < 0 {
			return
		}
		start := pos + idx

		depth := 0
		end := start
		for ; end < len(expr); end++ {
			if expr[end] == '{' {
				depth++
			} else if expr[end] == '}' {
				depth--
				if depth <= 0 {
					break
				}
			}
		}
		if end >= len(expr) {
			return
		}

		fn(expr[start+2 : end])
		pos = end + 1
	}
}

// VisitExpressions walks root and delivers every text fragment that may
// reference other symbols:
//
//   - declaration values, plus interpolations in property names
//   - interpolations in rule selectors
//   - interpolations in at-rule names, plus at-rule params unless the at-rule
//     declares a mixin or function (those params start with the declared
//     name itself)
func VisitExpressions(root *scss.Root, fn ExpressionFunc) {
	root.Walk(func(n scss.Node) bool {
		deliver := func(expr string) { fn(expr, n) }

		switch node := n.(type) {
		case *scss.Declaration:
			fn(node.Value, n)
			VisitInterpolations(node.Prop, deliver)
		case *scss.Rule:
			VisitInterpolations(node.Selector, deliver)
		case *scss.AtRule:
			VisitInterpolations(node.Name, deliver)
			if !declaresSymbol(node.Name) {
				fn(node.Params, n)
			}
		}
		return true
	})
}

func declaresSymbol(keyword string) bool {
	return keyword == keywordMixin || keyword == keywordFunction
}
