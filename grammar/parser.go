package grammar

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"
)

var parser = participle.MustBuild[File](
	participle.Lexer(HIRLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(1024),
)

// ParseFile reads and parses a textual IR file
func ParseFile(path string) (*File, string, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}

	file, err := ParseString(path, string(source))
	return file, string(source), err
}

// ParseString parses textual IR held in memory. name is used for positions.
func ParseString(name, source string) (*File, error) {
	file, err := parser.ParseString(name, source)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// ReportParseError prints a friendly caret-style parse error message.
func ReportParseError(src string, err error) {
	pe, ok := err.(participle.Error)
	if !ok {
		color.Red("Unexpected error: %s", err)
		return
	}

	pos := pe.Position()
	lines := strings.Split(src, "\n")
	if pos.Line <= 0 || pos.Line > len(lines) {
		color.Red("Syntax error at unknown location: %s", err)
		return
	}

	line := lines[pos.Line-1]
	caret := strings.Repeat(" ", max(pos.Column-1, 0)) + "^"

	color.Red("❌ Syntax error in %s at line %d, column %d:", pos.Filename, pos.Line, pos.Column)
	fmt.Println(line)
	color.HiRed(caret)
	fmt.Printf("→ %s\n", pe.Message())
}
