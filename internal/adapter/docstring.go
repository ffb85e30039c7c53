package adapter

import (
	"bytes"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/lumenforge/codegraph-mcp/internal/lang"
	"github.com/lumenforge/codegraph-mcp/internal/parser"
)

// extractDocstring extracts the documentation for a declaration node.
// Python reads the leading string literal of the body (PEP 257); every other
// language scans source lines backwards from the declaration for comments.
func extractDocstring(node *tree_sitter.Node, src []byte, language lang.Language) string {
	if language == lang.Python {
		return pythonDocstring(node, src)
	}
	return commentDocstring(src, int(node.StartPosition().Row), language)
}

func pythonDocstring(node *tree_sitter.Node, src []byte) string {
	body := node.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first == nil || first.Kind() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	strNode := first.NamedChild(0)
	if strNode == nil || strNode.Kind() != "string" {
		return ""
	}
	return cleanPythonDocstring(parser.NodeText(strNode, src))
}

func cleanPythonDocstring(s string) string {
	for _, delim := range []string{`"""`, `'''`} {
		if strings.HasPrefix(s, delim) && strings.HasSuffix(s, delim) && len(s) >= 6 {
			s = s[3 : len(s)-3]
			break
		}
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= 1 {
		return strings.TrimSpace(s)
	}
	minIndent := -1
	for _, line := range lines[1:] {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		indent := len(line) - len(trimmed)
		if minIndent < 0 || indent < minIndent {
			minIndent = indent
		}
	}
	if minIndent > 0 {
		for i := 1; i < len(lines); i++ {
			if len(lines[i]) >= minIndent {
				lines[i] = lines[i][minIndent:]
			}
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// commentDocstring scans backwards from the line above startRow for a block
// of doc comments.
func commentDocstring(src []byte, startRow int, language lang.Language) string {
	lines := bytes.Split(src, []byte("\n"))
	if startRow <= 0 || startRow > len(lines) {
		return ""
	}

	idx := startRow - 1
	trimmed := strings.TrimSpace(string(lines[idx]))
	if trimmed == "" {
		return ""
	}

	if strings.HasSuffix(trimmed, "*/") {
		return blockComment(lines, idx)
	}

	prefix := docLinePrefix(language)
	if prefix != "" && strings.HasPrefix(trimmed, prefix) {
		return lineComments(lines, idx, prefix)
	}
	return ""
}

func docLinePrefix(language lang.Language) string {
	switch language {
	case lang.Rust:
		return "///"
	case lang.Ruby:
		return "#"
	case lang.Go, lang.C, lang.CPP, lang.Java,
		lang.JavaScript, lang.TypeScript, lang.TSX:
		return "//"
	}
	return ""
}

// blockComment scans backwards from endIdx to the start of a /* block.
func blockComment(lines [][]byte, endIdx int) string {
	startIdx := endIdx
	for startIdx >= 0 {
		if strings.HasPrefix(strings.TrimSpace(string(lines[startIdx])), "/*") {
			break
		}
		startIdx--
	}
	if startIdx < 0 {
		return ""
	}
	var raw []string
	for i := startIdx; i <= endIdx; i++ {
		raw = append(raw, string(lines[i]))
	}
	return cleanBlockComment(strings.Join(raw, "\n"))
}

func cleanBlockComment(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "/**") {
		s = s[3:]
	} else if strings.HasPrefix(s, "/*") {
		s = s[2:]
	}
	s = strings.TrimSuffix(s, "*/")

	lines := strings.Split(s, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "* ")
		line = strings.TrimPrefix(line, "*")
		cleaned = append(cleaned, line)
	}
	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}

// lineComments collects the run of consecutive line comments ending at
// startIdx, scanned bottom-up.
func lineComments(lines [][]byte, startIdx int, prefix string) string {
	var collected []string
	idx := startIdx
	for idx >= 0 {
		trimmed := strings.TrimSpace(string(lines[idx]))
		if !strings.HasPrefix(trimmed, prefix) {
			break
		}
		content := strings.TrimPrefix(trimmed, prefix)
		content = strings.TrimPrefix(content, " ")
		collected = append(collected, content)
		idx--
	}
	for i, j := 0, len(collected)-1; i < j; i, j = i+1, j-1 {
		collected[i], collected[j] = collected[j], collected[i]
	}
	return strings.TrimSpace(strings.Join(collected, "\n"))
}
