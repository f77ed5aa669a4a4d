package agent

import (
	"regexp"
	"strings"
)

// Filter names an output constraint applied to a role's reply.
type Filter string

const (
	// FilterNone passes the reply through unchanged.
	FilterNone Filter = ""

	// FilterNoCode strips fenced and inline code from the reply.
	FilterNoCode Filter = "no_code"

	// FilterCodeOnly keeps only fenced code blocks.
	FilterCodeOnly Filter = "code_only"

	// FilterTestsOnly keeps only code blocks that look like tests.
	FilterTestsOnly Filter = "tests_only"
)

var (
	fencedBlockRe   = regexp.MustCompile("(?s)```.*?```")
	fencedContentRe = regexp.MustCompile("(?s)```[a-zA-Z0-9_+-]*\n?(.*?)```")
	inlineCodeRe    = regexp.MustCompile("`[^`]+`")
)

// removedCodeNotice replaces stripped code blocks so the reader knows
// content was withheld rather than lost.
const removedCodeNotice = "[code removed - this role cannot output code]"

// Apply enforces the filter on text.
//
// FilterCodeOnly falls back to the whole reply when no fenced blocks are
// found, assuming the model answered in bare code. FilterTestsOnly keeps
// blocks mentioning test, assert, or expect; if none qualify it keeps all
// code blocks rather than dropping the answer.
func (f Filter) Apply(text string) string {
	switch f {
	case FilterNoCode:
		filtered := fencedBlockRe.ReplaceAllString(text, removedCodeNotice)
		return inlineCodeRe.ReplaceAllString(filtered, "[inline code removed]")

	case FilterCodeOnly:
		blocks := ExtractCodeBlocks(text)
		if len(blocks) == 0 {
			return text
		}
		return strings.Join(blocks, "\n\n")

	case FilterTestsOnly:
		blocks := ExtractCodeBlocks(text)
		if len(blocks) == 0 {
			return text
		}
		var tests []string
		for _, block := range blocks {
			lower := strings.ToLower(block)
			if strings.Contains(lower, "test") || strings.Contains(lower, "assert") ||
				strings.Contains(lower, "expect") {
				tests = append(tests, block)
			}
		}
		if len(tests) > 0 {
			return strings.Join(tests, "\n\n")
		}
		return strings.Join(blocks, "\n")

	default:
		return text
	}
}

// ExtractCodeBlocks returns the contents of all fenced code blocks in text,
// without the fences or language tags.
func ExtractCodeBlocks(text string) []string {
	matches := fencedContentRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	blocks := make([]string, 0, len(matches))
	for _, match := range matches {
		block := strings.TrimRight(match[1], "\n")
		if block != "" {
			blocks = append(blocks, block)
		}
	}
	return blocks
}
