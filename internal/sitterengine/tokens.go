package sitterengine

import (
	"context"

	"github.com/rottenpen/volar/internal/sitteradapter"
	"github.com/rottenpen/volar/internal/tokens"

	sitter "github.com/smacker/go-tree-sitter"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Token type indexes into Legend.
const (
	tokenNamespace uint32 = iota
	tokenType
	tokenClass
	tokenEnum
	tokenInterface
	tokenTypeParameter
	tokenParameter
	tokenVariable
	tokenProperty
	tokenFunction
	tokenMethod
	tokenKeyword
	tokenComment
	tokenString
	tokenNumber
	tokenRegexp
)

// Token modifier bits.
const (
	modDeclaration uint32 = 1 << iota
	modReadonly
	modStatic
	modAsync
)

// Legend is the token legend every Engine encodes against.
func Legend() protocol.SemanticTokensLegend {
	return protocol.SemanticTokensLegend{
		TokenTypes: []string{
			string(protocol.SemanticTokenTypeNamespace),
			string(protocol.SemanticTokenTypeType),
			string(protocol.SemanticTokenTypeClass),
			string(protocol.SemanticTokenTypeEnum),
			string(protocol.SemanticTokenTypeInterface),
			string(protocol.SemanticTokenTypeTypeParameter),
			string(protocol.SemanticTokenTypeParameter),
			string(protocol.SemanticTokenTypeVariable),
			string(protocol.SemanticTokenTypeProperty),
			string(protocol.SemanticTokenTypeFunction),
			string(protocol.SemanticTokenTypeMethod),
			string(protocol.SemanticTokenTypeKeyword),
			string(protocol.SemanticTokenTypeComment),
			string(protocol.SemanticTokenTypeString),
			string(protocol.SemanticTokenTypeNumber),
			string(protocol.SemanticTokenTypeRegexp),
		},
		TokenModifiers: []string{
			string(protocol.SemanticTokenModifierDeclaration),
			string(protocol.SemanticTokenModifierReadonly),
			string(protocol.SemanticTokenModifierStatic),
			string(protocol.SemanticTokenModifierAsync),
		},
	}
}

var keywords = map[string]bool{
	"abstract": true, "as": true, "async": true, "await": true, "break": true,
	"case": true, "catch": true, "class": true, "const": true, "continue": true,
	"debugger": true, "declare": true, "default": true, "delete": true, "do": true,
	"else": true, "enum": true, "export": true, "extends": true, "false": true,
	"finally": true, "for": true, "from": true, "function": true, "get": true,
	"if": true, "implements": true, "import": true, "in": true, "instanceof": true,
	"interface": true, "keyof": true, "let": true, "namespace": true, "new": true,
	"null": true, "of": true, "private": true, "protected": true, "public": true,
	"readonly": true, "return": true, "satisfies": true, "set": true, "static": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "type": true, "typeof": true, "undefined": true, "var": true,
	"void": true, "while": true, "with": true, "yield": true,
}

// SemanticTokens classifies the leaves of the syntax tree. Batches of
// progressBatch tokens are handed to report while the walk goes on.
func (e *Engine) SemanticTokens(ctx context.Context, uri protocol.DocumentUri, rng *protocol.Range, report func([]tokens.Tuple)) ([]tokens.Tuple, error) {
	var all []tokens.Tuple
	found, err := e.inspect(ctx, uri, func(root *sitter.Node, source []byte) error {
		c := &classifier{
			ctx:    ctx,
			lines:  sitteradapter.NewLines(string(source)),
			source: source,
			rng:    rng,
			batch:  e.progressBatch,
			report: report,
		}
		walk(root, c.visit)
		if c.err != nil {
			return c.err
		}
		c.flush()
		all = c.tuples
		return nil
	})
	if err != nil || !found {
		return nil, err
	}
	return all, nil
}

type classifier struct {
	ctx    context.Context
	lines  *sitteradapter.Lines
	source []byte
	rng    *protocol.Range
	batch  int
	report func([]tokens.Tuple)

	tuples  []tokens.Tuple
	pending int
	visited int
	err     error
}

func (c *classifier) visit(n *sitter.Node) bool {
	if c.err != nil {
		return false
	}
	c.visited++
	if c.visited%512 == 0 {
		if err := c.ctx.Err(); err != nil {
			c.err = err
			return false
		}
	}
	if c.rng != nil && !c.intersects(n) {
		return false
	}

	switch typ, named := n.Type(), n.IsNamed(); {
	case named && typ == "comment":
		c.emit(n, tokenComment, 0)
		return false
	case named && (typ == "string" || typ == "template_string"):
		c.emit(n, tokenString, 0)
		return false
	case named && typ == "number":
		c.emit(n, tokenNumber, 0)
		return false
	case named && typ == "regex":
		c.emit(n, tokenRegexp, 0)
		return false
	case isIdentifier(n):
		if kind, mods, ok := classifyIdentifier(n, c.source); ok {
			c.emit(n, kind, mods)
		}
		return false
	case named && typ == "predefined_type":
		c.emit(n, tokenType, 0)
		return false
	case !named && keywords[typ]:
		c.emit(n, tokenKeyword, 0)
		return false
	case named && (typ == "true" || typ == "false" || typ == "null" || typ == "undefined" || typ == "this" || typ == "super"):
		c.emit(n, tokenKeyword, 0)
		return false
	}
	return true
}

func (c *classifier) intersects(n *sitter.Node) bool {
	start, end := n.StartPoint(), n.EndPoint()
	return end.Row >= c.rng.Start.Line && start.Row <= c.rng.End.Line
}

// emit records n, split per line when it spans several.
func (c *classifier) emit(n *sitter.Node, kind, mods uint32) {
	start := c.lines.Position(n.StartPoint())
	end := c.lines.Position(n.EndPoint())

	for line := start.Line; line <= end.Line; line++ {
		from := uint32(0)
		if line == start.Line {
			from = start.Character
		}
		to := c.lines.Width(int(line))
		if line == end.Line {
			to = end.Character
		}
		if to <= from {
			continue
		}
		if c.rng != nil && (line < c.rng.Start.Line || line > c.rng.End.Line) {
			continue
		}
		c.tuples = append(c.tuples, tokens.Tuple{
			Line:      line,
			Column:    from,
			Length:    to - from,
			Type:      kind,
			Modifiers: mods,
		})
		c.pending++
	}
	if c.pending >= c.batch {
		c.flush()
	}
}

func (c *classifier) flush() {
	if c.report == nil || c.pending == 0 {
		c.pending = 0
		return
	}
	batch := make([]tokens.Tuple, c.pending)
	copy(batch, c.tuples[len(c.tuples)-c.pending:])
	c.pending = 0
	c.report(batch)
}

func classifyIdentifier(n *sitter.Node, source []byte) (uint32, uint32, bool) {
	parent := n.Parent()
	parentType := ""
	if parent != nil {
		parentType = parent.Type()
	}
	isName := parent != nil && sameNode(parent.ChildByFieldName("name"), n)

	switch n.Type() {
	case "type_identifier":
		switch {
		case isName && parentType == "class_declaration", isName && parentType == "abstract_class_declaration":
			return tokenClass, modDeclaration, true
		case isName && parentType == "interface_declaration":
			return tokenInterface, modDeclaration, true
		case isName && parentType == "type_alias_declaration":
			return tokenType, modDeclaration, true
		case isName && parentType == "type_parameter":
			return tokenTypeParameter, modDeclaration, true
		}
		return tokenType, 0, true
	case "property_identifier", "private_property_identifier":
		if parentType == "method_definition" && isName {
			return tokenMethod, modDeclaration | staticMods(parent), true
		}
		if parentType == "member_expression" && isCallee(parent) {
			return tokenMethod, 0, true
		}
		return tokenProperty, 0, true
	case "shorthand_property_identifier", "shorthand_property_identifier_pattern":
		return tokenProperty, 0, true
	}

	// Plain identifiers.
	switch {
	case isName && (parentType == "function_declaration" || parentType == "generator_function_declaration" || parentType == "function"):
		return tokenFunction, modDeclaration | asyncMods(parent), true
	case isName && parentType == "class":
		return tokenClass, modDeclaration, true
	case isName && parentType == "enum_declaration":
		return tokenEnum, modDeclaration, true
	case isName && (parentType == "internal_module" || parentType == "module"):
		return tokenNamespace, modDeclaration, true
	case isName && parentType == "variable_declarator":
		mods := modDeclaration
		if declarationKeyword(parent.Parent(), source) == "const" {
			mods |= modReadonly
		}
		if value := parent.ChildByFieldName("value"); value != nil && (value.Type() == "arrow_function" || value.Type() == "function") {
			return tokenFunction, mods, true
		}
		return tokenVariable, mods, true
	case parentType == "required_parameter" || parentType == "optional_parameter" || parentType == "formal_parameters":
		return tokenParameter, modDeclaration, true
	case parentType == "arrow_function" && sameNode(parent.ChildByFieldName("parameter"), n):
		return tokenParameter, modDeclaration, true
	case parentType == "call_expression" && sameNode(parent.ChildByFieldName("function"), n):
		return tokenFunction, 0, true
	case parentType == "new_expression":
		return tokenClass, 0, true
	}
	return tokenVariable, 0, true
}

func isCallee(member *sitter.Node) bool {
	call := member.Parent()
	return call != nil && call.Type() == "call_expression" && sameNode(call.ChildByFieldName("function"), member)
}

func staticMods(method *sitter.Node) uint32 {
	count := int(method.ChildCount())
	for i := 0; i < count; i++ {
		if method.Child(i).Type() == "static" {
			return modStatic
		}
	}
	return 0
}

func asyncMods(fn *sitter.Node) uint32 {
	if first := fn.Child(0); first != nil && first.Type() == "async" {
		return modAsync
	}
	return 0
}

// declarationKeyword returns "const", "let" or "var" for a declaration node.
func declarationKeyword(decl *sitter.Node, source []byte) string {
	if decl == nil {
		return ""
	}
	if kind := decl.ChildByFieldName("kind"); kind != nil {
		return kind.Content(source)
	}
	if first := decl.Child(0); first != nil {
		return first.Type()
	}
	return ""
}

func sameNode(a, b *sitter.Node) bool {
	return a != nil && b != nil &&
		a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}
