package table_test

import (
	"strings"
	"testing"
	"time"

	// Packages
	schema "github.com/mutablelogic/go-agentchat/pkg/schema"
	table "github.com/mutablelogic/go-agentchat/pkg/ui/table"
	assert "github.com/stretchr/testify/assert"
)

func Test_table_001(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("abc", table.Truncate("abc", 5))
	assert.Equal("a b c", table.Truncate("a\nb\n  c", 10))
	assert.Equal("abcd…", table.Truncate("abcdefgh", 5))
	assert.Equal("-", table.FormatCell(nil))
	assert.Equal("-", table.FormatCell(""))
	assert.Equal("-", table.FormatCell(time.Time{}))
	assert.Equal("42", table.FormatCell(42))
	assert.Equal("x", table.FormatCell(table.Bold{Value: "x"}))
}

func Test_table_002(t *testing.T) {
	assert := assert.New(t)
	md := table.RenderMarkdown(table.Suggestions{"What are your skills?", "a|b"})
	assert.Equal("| # | Suggestion |\n|---|---|\n| **1** | What are your skills? |\n| **2** | a\\|b |", md)
}

func Test_table_003(t *testing.T) {
	assert := assert.New(t)
	entries := table.Entries{
		{Index: 0, Event: schema.NewEvent(schema.KindThought, "Thought: considering X")},
		{Index: 1, Event: schema.NewEvent(schema.KindFinalAnswer, `<UI_DATA>{"type":"list","title":"Projects","items":[]}</UI_DATA>`)},
	}
	assert.Equal(2, entries.Len())
	assert.Equal([]any{1, time.Time{}, table.Bold{Value: "Thinking"}, "considering X"}, entries.Row(0))
	assert.Equal([]any{2, time.Time{}, table.Bold{Value: "Answer"}, "Projects"}, entries.Row(1))

	md := table.RenderMarkdown(entries)
	assert.True(strings.HasPrefix(md, "| # | Time | Kind | Content |\n"))
	assert.Contains(md, "| 1 | - | **Thinking** | considering X |")
}

func Test_table_004(t *testing.T) {
	assert := assert.New(t)
	out := table.Render(table.Fields{{"Status", "connected"}})
	assert.Contains(out, "Status")
	assert.Contains(out, "connected")
}
