package render_test

import (
	"testing"

	// Packages
	render "github.com/mutablelogic/go-agentchat/pkg/render"
	schema "github.com/mutablelogic/go-agentchat/pkg/schema"
	assert "github.com/stretchr/testify/assert"
)

func Test_render_001(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("You", render.Label(schema.KindUserQuery))
	assert.Equal("Thinking", render.Label(schema.KindThought))
	assert.Equal("Thinking", render.Label(schema.KindStepStart))
	assert.Equal("Action", render.Label(schema.KindActionCall))
	assert.Equal("Observation", render.Label(schema.KindObservation))
	assert.Equal("Answer", render.Label(schema.KindFinalAnswer))
	assert.Equal("Error", render.Label(schema.KindError))
	assert.Equal("[plan]", render.Label(schema.Kind("plan")))
}

func Test_render_002(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("considering X", render.StripThought("Thought: considering X"))
	assert.Equal("considering X", render.StripThought("thought:considering X"))
	assert.Equal("considering X", render.StripThought("THOUGHT:   considering X"))
	assert.Equal("considering X", render.StripThought("considering X"))
	assert.Equal("I had a Thought: X", render.StripThought("I had a Thought: X"))
}

func Test_render_003(t *testing.T) {
	assert := assert.New(t)

	// Only thought kinds are stripped
	text, payload := render.Text(schema.NewEvent(schema.KindThought, "Thought: considering X"))
	assert.Equal("considering X", text)
	assert.Nil(payload)
	text, _ = render.Text(schema.NewEvent(schema.KindStepStart, "Thought: step"))
	assert.Equal("step", text)
	text, _ = render.Text(schema.NewEvent(schema.KindObservation, "Thought: kept"))
	assert.Equal("Thought: kept", text)
	text, _ = render.Text(schema.NewEvent(schema.Kind("plan"), "raw content"))
	assert.Equal("raw content", text)
}

func Test_render_004(t *testing.T) {
	assert := assert.New(t)
	content := `Here you go <UI_DATA>{"type":"list","title":"Projects","items":[{"title":"Agent","icon":"🤖","role":"Lead","description":"A chat agent","tags":["go","websocket"]}]}</UI_DATA> Enjoy`

	text, payload := render.Markdown(schema.NewEvent(schema.KindFinalAnswer, content))
	assert.Equal("Here you go  Enjoy", text)
	if assert.NotNil(payload) {
		assert.Equal("Projects", payload.Title)
		assert.Equal("### Projects\n\n- **Agent** 🤖\n  _Lead_\n  A chat agent\n  `go` `websocket`\n", render.PayloadMarkdown(payload))
	}

	// Not extracted from other kinds
	text, payload = render.Markdown(schema.NewEvent(schema.KindError, content))
	assert.Equal(content, text)
	assert.Nil(payload)
}

func Test_render_005(t *testing.T) {
	assert := assert.New(t)
	text, _ := render.Markdown(schema.NewEvent(schema.KindActionCall, "search(X)"))
	assert.Equal("```\nsearch(X)\n```", text)
	text, _ = render.Markdown(schema.NewEvent(schema.KindObservation, "a ``` b"))
	assert.Equal("````\na ``` b\n````", text)
	text, _ = render.Markdown(schema.NewEvent(schema.KindObservation, ""))
	assert.Equal("", text)
}

func Test_render_006(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("", render.PayloadMarkdown(nil))
	assert.Equal("", render.PayloadMarkdown(&schema.Payload{Type: "card"}))
	assert.Equal("- **One**\n- **Two**\n", render.PayloadMarkdown(&schema.Payload{
		Type:  schema.PayloadList,
		Items: []schema.Item{{Title: "One"}, {Title: "Two"}},
	}))
}
