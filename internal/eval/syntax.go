package eval

import (
	"context"
	"strings"

	"github.com/dlclark/regexp2"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/tidwall/gjson"
)

const (
	ScorePass = 10.0
	ScoreFail = 0.0
)

// SyntaxGrader scores whether an output parses in its declared format.
type SyntaxGrader struct{}

func NewSyntaxGrader() *SyntaxGrader {
	return &SyntaxGrader{}
}

// Grade returns ScorePass or ScoreFail. Formats other than json and python
// are checked as regular expressions.
func (g *SyntaxGrader) Grade(output string, format Format) float64 {
	var ok bool
	switch format {
	case FormatJSON:
		ok = ValidJSON(output)
	case FormatPython:
		ok = ValidPython(output)
	default:
		ok = ValidRegex(output)
	}
	if ok {
		return ScorePass
	}
	return ScoreFail
}

func ValidJSON(text string) bool {
	return gjson.Valid(strings.TrimSpace(text))
}

// ValidPython parses text with the tree-sitter python grammar. Any ERROR or
// MISSING node in the tree fails the check.
func ValidPython(text string) bool {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, []byte(strings.TrimSpace(text)))
	if err != nil || tree == nil {
		return false
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return false
	}
	return !hasLegacyStatement(root)
}

// The grammar still accepts python 2 print and exec statements; python 3
// rejects both.
func hasLegacyStatement(n *sitter.Node) bool {
	switch n.Type() {
	case "print_statement", "exec_statement":
		return true
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if hasLegacyStatement(n.NamedChild(i)) {
			return true
		}
	}
	return false
}

var pythonBackref = regexp2.MustCompile(`\(\?P=(\w+)\)`, regexp2.None)

// ValidRegex compiles text with backtracking syntax (lookaround,
// backreferences) as python's re accepts it. Python's named group forms
// (?P<name>...) and (?P=name) are rewritten to their .NET spelling first.
func ValidRegex(text string) bool {
	pattern, err := fromPythonSyntax(strings.TrimSpace(text))
	if err != nil {
		return false
	}
	_, err = regexp2.Compile(pattern, regexp2.None)
	return err == nil
}

func fromPythonSyntax(pattern string) (string, error) {
	pattern = strings.ReplaceAll(pattern, "(?P<", "(?<")
	return pythonBackref.Replace(pattern, `\k<$1>`, -1, -1)
}
