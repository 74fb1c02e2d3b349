package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prepwise/interview-api/internal/domain/model"
)

func TestFeedbackPrompt_NumbersTurns(t *testing.T) {
	prompt := FeedbackPrompt([]model.ConversationTurn{
		{AI: "Tell me about yourself.", Candidate: "I am a backend engineer."},
		{AI: "Why this role?", Candidate: "I enjoy distributed systems."},
	})

	assert.Contains(t, prompt, `Q1: "Tell me about yourself."`)
	assert.Contains(t, prompt, `A1: "I am a backend engineer."`)
	assert.Contains(t, prompt, `Q2: "Why this role?"`)
	assert.Contains(t, prompt, `A2: "I enjoy distributed systems."`)
	// Rubric weights must match what TotalScore applies.
	assert.Contains(t, prompt, "Grammar: 20%, Experience: 25%, Skills: 25%, Relevance: 20%, Filler Words: 10%")
	assert.Contains(t, prompt, "0 fillers scores 100; 1-2 fillers score 80; 3-5 fillers score 60; 6+ fillers score 40")
	assert.Contains(t, prompt, `"areasOfImprovements"`)
}

func TestFollowUpPrompt_IncludesTypeAndHistory(t *testing.T) {
	prompt := FollowUpPrompt(FollowUpRequest{
		InterviewType: model.InterviewTypeBehavioral,
		Conversation: []model.ConversationTurn{
			{AI: "Describe a conflict you resolved.", Candidate: "At my last job..."},
		},
	})

	assert.Contains(t, prompt, "Behavioral interview")
	assert.Contains(t, prompt, `AI: "Describe a conflict you resolved."`)
	assert.Contains(t, prompt, `CANDIDATE: "At my last job..."`)
	assert.Contains(t, prompt, `"followUpQuestion"`)
}

func TestGreetingPrompt_NamesAndClosingPhrase(t *testing.T) {
	prompt := GreetingPrompt(GreetingRequest{
		UserName:        "Dana",
		InterviewerName: "Alex",
		InterviewType:   model.InterviewTypeExpert,
		Turn:            model.ConversationTurn{AI: "Hi, I'm Alex.", Candidate: "Hello, I'm Dana."},
	})

	assert.Contains(t, prompt, `interviewer named "Alex"`)
	assert.Contains(t, prompt, `candidate named "Dana"`)
	assert.Contains(t, prompt, "Expert interview")
	assert.Contains(t, prompt, `Generate Question Button`)
	assert.Contains(t, prompt, `"greetingResponse"`)
}
