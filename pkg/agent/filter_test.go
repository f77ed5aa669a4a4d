package agent

import (
	"strings"
	"testing"
)

const sampleReply = "Here is the fix:\n```go\nfunc Add(a, b int) int { return a + b }\n```\nAnd a test:\n```go\nfunc TestAdd(t *testing.T) { assertEqual(t, Add(1, 2), 3) }\n```\nUse `go test` to run it."

// TestFilter_NoCode strips fenced and inline code.
func TestFilter_NoCode(t *testing.T) {
	got := FilterNoCode.Apply(sampleReply)

	if strings.Contains(got, "func Add") {
		t.Error("Expected fenced code removed")
	}
	if strings.Contains(got, "`go test`") {
		t.Error("Expected inline code removed")
	}
	if !strings.Contains(got, removedCodeNotice) {
		t.Error("Expected removal notice in output")
	}
	if !strings.Contains(got, "Here is the fix:") {
		t.Error("Expected prose preserved")
	}
}

// TestFilter_CodeOnly keeps only fenced blocks.
func TestFilter_CodeOnly(t *testing.T) {
	got := FilterCodeOnly.Apply(sampleReply)

	if strings.Contains(got, "Here is the fix:") {
		t.Error("Expected prose removed")
	}
	if !strings.Contains(got, "func Add") || !strings.Contains(got, "func TestAdd") {
		t.Error("Expected both code blocks kept")
	}
}

// TestFilter_CodeOnly_NoBlocks passes bare replies through.
func TestFilter_CodeOnly_NoBlocks(t *testing.T) {
	reply := "x := compute()"
	if got := FilterCodeOnly.Apply(reply); got != reply {
		t.Errorf("Expected bare reply unchanged, got %q", got)
	}
}

// TestFilter_TestsOnly keeps only blocks that look like tests.
func TestFilter_TestsOnly(t *testing.T) {
	got := FilterTestsOnly.Apply(sampleReply)

	if strings.Contains(got, "func Add(") {
		t.Error("Expected implementation block dropped")
	}
	if !strings.Contains(got, "func TestAdd") {
		t.Error("Expected test block kept")
	}
}

// TestFilter_TestsOnly_NoTestBlocks falls back to all code blocks.
func TestFilter_TestsOnly_NoTestBlocks(t *testing.T) {
	reply := "```go\nfunc Helper() {}\n```"
	got := FilterTestsOnly.Apply(reply)
	if !strings.Contains(got, "func Helper") {
		t.Error("Expected fallback to all code blocks")
	}
}

// TestFilter_None passes everything through.
func TestFilter_None(t *testing.T) {
	if got := FilterNone.Apply(sampleReply); got != sampleReply {
		t.Error("Expected unfiltered output unchanged")
	}
}

// TestExtractCodeBlocks strips fences and language tags.
func TestExtractCodeBlocks(t *testing.T) {
	blocks := ExtractCodeBlocks(sampleReply)
	if len(blocks) != 2 {
		t.Fatalf("Expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0] != "func Add(a, b int) int { return a + b }" {
		t.Errorf("Unexpected first block: %q", blocks[0])
	}

	if got := ExtractCodeBlocks("no code here"); got != nil {
		t.Errorf("Expected nil for code-free text, got %v", got)
	}
}

// TestGetRole checks the closed registry and filter wiring.
func TestGetRole(t *testing.T) {
	role, ok := GetRole("reviewer")
	if !ok {
		t.Fatal("Expected reviewer role to exist")
	}
	if role.OutputFilter != FilterNoCode {
		t.Errorf("Expected reviewer filter no_code, got %q", role.OutputFilter)
	}
	if role.PreferredProvider != "anthropic" {
		t.Errorf("Unexpected reviewer provider: %s", role.PreferredProvider)
	}

	if _, ok := GetRole("wizard"); ok {
		t.Error("Expected unknown role to be rejected")
	}

	if len(RoleNames()) != 8 {
		t.Errorf("Expected 8 roles, got %d", len(RoleNames()))
	}
}
