package ai

import (
	"testing"

	"docchat-platform/models"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
)

func TestSplitSystemAndBack(t *testing.T) {
	history := []models.Turn{
		{Role: models.RoleSystem, Text: "be helpful"},
		{Role: models.RoleUser, Text: "q1"},
		{Role: models.RoleModel, Text: "a1"},
	}

	system, prior := splitSystem(history)
	assert.Equal(t, "be helpful", system)
	assert.Len(t, prior, 2)

	contents := toContents(prior)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)

	round := withSystem(system, fromContents(contents))
	assert.Equal(t, history, round)
}

func TestSplitSystemWithoutSystemTurn(t *testing.T) {
	history := []models.Turn{{Role: models.RoleUser, Text: "q"}}
	system, prior := splitSystem(history)
	assert.Empty(t, system)
	assert.Equal(t, history, prior)
	assert.Equal(t, prior, withSystem("", prior))
}

func TestResponseText(t *testing.T) {
	assert.Empty(t, responseText(nil))
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("Hello, "), genai.Text("world")}},
		}},
	}
	assert.Equal(t, "Hello, world", responseText(resp))
}

func TestGetRateLimitsDefaultsToFree(t *testing.T) {
	assert.Equal(t, getRateLimits("free"), getRateLimits("unknown"))
	assert.Equal(t, 1000, getRateLimits("tier1").RPM)
}
