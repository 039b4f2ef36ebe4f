package scanner

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

const maxBodyText = 20000

var packageDeclPattern = regexp.MustCompile(`package\s+([a-zA-Z0-9_.]+)\s*;`)

// Control structures counted by the cognitive-complexity approximation.
var controlTypes = map[string]bool{
	"if_statement":           true,
	"for_statement":          true,
	"enhanced_for_statement": true,
	"while_statement":        true,
	"do_statement":           true,
	"switch_statement":       true,
	"switch_expression":      true,
	"catch_clause":           true,
	"ternary_expression":     true,
	"conditional_expression": true,
}

var annotationNodeTypes = []string{
	"annotation",
	"marker_annotation",
	"single_element_annotation",
}

var typeDeclNodeTypes = []string{
	"class_declaration",
	"interface_declaration",
	"enum_declaration",
	"record_declaration",
}

type typeDecl struct {
	name  string
	start uint32
	end   uint32
	kind  string
}

// parseJavaUnit parses one Java source unit and extracts its declared
// callables. Nested and forward-declared types are handled by byte-range
// containment; no type resolution is attempted.
func parseJavaUnit(ctx context.Context, content []byte, rel string, isTest bool) ([]Method, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("parser returned no syntax tree")
	}

	pkg := packageName(content, root)
	decls := collectTypeDecls(content, root)

	var methods []Method
	for _, m := range findChildren(root, "method_declaration") {
		name := fieldText(content, m, "name")
		if name == "" {
			name = firstIdentifier(content, m)
		}
		if name == "" {
			continue
		}

		class, classKind := enclosingType(m, decls)
		body := methodBody(m)
		bodyText := ""
		if body != nil {
			bodyText = nodeText(content, body)
			if len(bodyText) > maxBodyText {
				bodyText = bodyText[:maxBodyText]
			}
		}

		method := Method{
			Name:        name,
			Class:       class,
			ClassKind:   classKind,
			Package:     pkg,
			Params:      paramTypes(content, m),
			Annotations: annotationNames(content, m),
			Line:        int(m.StartPoint().Row) + 1,
			Body:        bodyText,
			Complexity:  complexity(body),
			Test:        isTest,
		}

		if body != nil {
			method.Calls = invokedNames(content, body)
			for _, cc := range findChildren(m, "catch_clause") {
				if block := firstChildOfType(cc, "block"); block != nil {
					method.Catches = append(method.Catches, CatchBlock{
						Body: nodeText(content, block),
						Line: int(cc.StartPoint().Row) + 1,
					})
				}
			}
		}

		methods = append(methods, method)
	}
	return methods, nil
}

func nodeText(content []byte, n *sitter.Node) string {
	return string(content[n.StartByte():n.EndByte()])
}

// findChildren returns all descendants of the given type, in source order.
func findChildren(node *sitter.Node, typeName string) []*sitter.Node {
	var out []*sitter.Node
	stack := []*sitter.Node{node}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Type() == typeName {
			out = append(out, n)
		}
		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, n.Child(i))
		}
	}
	return out
}

func firstChildOfType(node *sitter.Node, typeName string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		if ch := node.Child(i); ch.Type() == typeName {
			return ch
		}
	}
	return nil
}

func fieldText(content []byte, node *sitter.Node, field string) string {
	ch := node.ChildByFieldName(field)
	if ch == nil {
		return ""
	}
	return nodeText(content, ch)
}

// firstIdentifier is the heuristic fallback: first identifier token in the
// subtree in source order.
func firstIdentifier(content []byte, node *sitter.Node) string {
	stack := []*sitter.Node{node}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Type() == "identifier" {
			return nodeText(content, n)
		}
		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, n.Child(i))
		}
	}
	return ""
}

func packageName(content []byte, root *sitter.Node) string {
	for _, n := range findChildren(root, "package_declaration") {
		if m := packageDeclPattern.FindStringSubmatch(nodeText(content, n)); m != nil {
			return m[1]
		}
	}
	return ""
}

func annotationNames(content []byte, node *sitter.Node) []string {
	seen := make(map[string]bool)
	var names []string
	for _, annType := range annotationNodeTypes {
		for _, ann := range findChildren(node, annType) {
			name := fieldText(content, ann, "name")
			if name == "" {
				name = firstIdentifier(content, ann)
			}
			if name == "" {
				continue
			}
			// Qualified annotation names keep only the simple name.
			if idx := lastDot(name); idx >= 0 {
				name = name[idx+1:]
			}
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}

func paramTypes(content []byte, method *sitter.Node) []string {
	params := firstChildOfType(method, "formal_parameters")
	if params == nil {
		return nil
	}
	var types []string
	for _, param := range findChildren(params, "formal_parameter") {
		if t := param.ChildByFieldName("type"); t != nil {
			types = append(types, nodeText(content, t))
		}
	}
	return types
}

func methodBody(method *sitter.Node) *sitter.Node {
	if body := method.ChildByFieldName("body"); body != nil {
		return body
	}
	return firstChildOfType(method, "block")
}

// invokedNames extracts the simple names of all method invocations inside a
// body, in source order. Resolution to declared callables happens later in
// the graph builder.
func invokedNames(content []byte, body *sitter.Node) []string {
	var names []string
	for _, inv := range findChildren(body, "method_invocation") {
		name := fieldText(content, inv, "name")
		if name == "" {
			// Fallback: last identifier in the invocation subtree.
			ids := identifiers(content, inv)
			if len(ids) > 0 {
				name = ids[len(ids)-1]
			}
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

func identifiers(content []byte, node *sitter.Node) []string {
	var ids []string
	stack := []*sitter.Node{node}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Type() == "identifier" {
			ids = append(ids, nodeText(content, n))
		}
		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, n.Child(i))
		}
	}
	return ids
}

func collectTypeDecls(content []byte, root *sitter.Node) []typeDecl {
	var decls []typeDecl
	for _, typ := range typeDeclNodeTypes {
		for _, n := range findChildren(root, typ) {
			name := fieldText(content, n, "name")
			if name == "" {
				name = firstIdentifier(content, n)
			}
			if name == "" {
				continue
			}
			decls = append(decls, typeDecl{
				name:  name,
				start: n.StartByte(),
				end:   n.EndByte(),
				kind:  classKind(content, n),
			})
		}
	}
	sort.Slice(decls, func(i, j int) bool {
		if decls[i].start != decls[j].start {
			return decls[i].start < decls[j].start
		}
		return decls[i].end > decls[j].end
	})
	return decls
}

func classKind(content []byte, decl *sitter.Node) string {
	switch decl.Type() {
	case "interface_declaration":
		return "interface"
	case "enum_declaration", "record_declaration":
		return "concrete"
	case "class_declaration":
		if mods := decl.ChildByFieldName("modifiers"); mods != nil {
			if containsWord(nodeText(content, mods), "abstract") {
				return "abstract"
			}
		} else if mods := firstChildOfType(decl, "modifiers"); mods != nil {
			if containsWord(nodeText(content, mods), "abstract") {
				return "abstract"
			}
		}
	}
	return "concrete"
}

func containsWord(text, word string) bool {
	start := 0
	for i := 0; i <= len(text); i++ {
		if i == len(text) || text[i] == ' ' || text[i] == '\n' || text[i] == '\t' {
			if text[start:i] == word {
				return true
			}
			start = i + 1
		}
	}
	return false
}

// enclosingType resolves the dotted chain of type declarations containing a
// method, and the kind of the innermost one.
func enclosingType(method *sitter.Node, decls []typeDecl) (string, string) {
	mStart := method.StartByte()
	mEnd := method.EndByte()

	var chain []typeDecl
	for _, d := range decls {
		if d.start <= mStart && mEnd <= d.end {
			chain = append(chain, d)
		}
	}
	if len(chain) == 0 {
		return "Unknown", "concrete"
	}
	name := chain[0].name
	for _, d := range chain[1:] {
		name += "." + d.name
	}
	return name, chain[len(chain)-1].kind
}

// complexity is a rough cognitive-complexity approximation: +1 for each
// control structure plus its nesting depth.
func complexity(body *sitter.Node) int {
	if body == nil {
		return 0
	}
	var walk func(n *sitter.Node, depth int) int
	walk = func(n *sitter.Node, depth int) int {
		score := 0
		for i := 0; i < int(n.ChildCount()); i++ {
			ch := n.Child(i)
			next := depth
			if controlTypes[ch.Type()] {
				score += 1 + depth
				next = depth + 1
			}
			score += walk(ch, next)
		}
		return score
	}
	return walk(body, 0)
}
