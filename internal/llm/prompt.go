package llm

import (
	"fmt"
	"strings"

	"github.com/prepwise/interview-api/internal/domain/model"
)

// interviewTypeDescriptions feed the conversational prompts so the model can
// frame questions appropriately for the session type.
var interviewTypeDescriptions = map[model.InterviewType]string{
	model.InterviewTypeBasic:      "introductory questions tailored to your self-introduction and responses",
	model.InterviewTypeBehavioral: "questions focused on your past experiences and problem-solving approaches",
	model.InterviewTypeExpert:     "advanced job-specific questions personalized to your resume and career goals",
}

// FeedbackPrompt builds the scoring prompt for a completed interview
// transcript. The rubric text mirrors the weights and filler-count mapping
// enforced by TotalScore.
func FeedbackPrompt(conversation []model.ConversationTurn) string {
	var transcript strings.Builder
	for i, turn := range conversation {
		if i > 0 {
			transcript.WriteString("\n\n")
		}
		fmt.Fprintf(&transcript, "Q%d: %q\nA%d: %q", i+1, turn.AI, i+1, turn.Candidate)
	}

	return `<context>
You are analyzing interview responses to provide structured, objective feedback. The candidate has completed an interview, and you need to evaluate their performance.
</context>

<task>
Analyze the following interview conversation and provide detailed assessment:

` + transcript.String() + `
</task>

<scoring_guidelines>
For each category, assign a whole number score (no decimals) from 0-100 using these criteria:

- Grammar (0-100): Correctness of language, sentence structure, and word usage
- Experience (0-100): How effectively the candidate's relevant experience is conveyed
- Skills (0-100): Demonstration of required skills and competencies
- Relevance (0-100): How directly the answer addresses the question
- Filler Words: Report the exact raw count of filler words and verbal hesitations
  across all responses (e.g. "um", "uh", "like", "you know", "sort of", "kind of",
  "basically", "actually", "literally"). This is a count, not a 0-100 score.
- Total Score: Weighted average of the whole number scores (Grammar: 20%, Experience: 25%, Skills: 25%, Relevance: 20%, Filler Words: 10%).
  For the Filler Words component: 0 fillers scores 100; 1-2 fillers score 80; 3-5 fillers score 60; 6+ fillers score 40.
  Round the final total score to the nearest whole number.
</scoring_guidelines>

<response_requirements>
1. For each answer (A1, A2, etc.), identify one specific area for improvement
2. For each answer (A1, A2, etc.), provide one piece of constructive, actionable feedback
3. Format output as a valid JSON object exactly matching this structure:
</response_requirements>

<output_format>
{
  "scores": {
    "grammar": number,
    "experience": number,
    "skills": number,
    "relevance": number,
    "fillerCount": number,
    "totalScore": number
  },
  "areasOfImprovements": ["string for answer 1", "string for answer 2"],
  "feedbacks": ["string for answer 1", "string for answer 2"]
}
</output_format>

IMPORTANT: Your response MUST be a valid JSON object that strictly follows the output format above. Do not include any text before or after the JSON. Do not include markdown formatting, code blocks, or explanations.`
}

// FollowUpRequest carries the conversation state for a follow-up question prompt.
type FollowUpRequest struct {
	InterviewType model.InterviewType
	Conversation  []model.ConversationTurn
}

// FollowUpPrompt builds a prompt asking for the next interview question given
// the conversation so far.
func FollowUpPrompt(req FollowUpRequest) string {
	var convo strings.Builder
	for _, turn := range req.Conversation {
		fmt.Fprintf(&convo, "AI: %q\nCANDIDATE: %q\n", turn.AI, turn.Candidate)
	}

	return fmt.Sprintf(`You are an AI assistant conducting a %s interview (%s). You are conversing with a candidate.

Here is the conversation so far:
%s
Generate a natural follow-up interview question that:
1. Acknowledges what the candidate just said
2. Maintains a warm, professional tone
3. Is open-ended and encourages the candidate to elaborate
4. Is NOT a yes/no, multiple-choice, or leading question
5. Makes sense in the context of the conversation so far
6. Is concise (no more than 30 words) with no preamble

Return ONLY a JSON object with the key "followUpQuestion" containing your question:

{"followUpQuestion": "Your follow-up question here"}

Your JSON response should not include any additional text, explanations, or formatting.`,
		req.InterviewType, interviewTypeDescriptions[req.InterviewType], convo.String())
}

// GreetingRequest carries the opening exchange for a greeting prompt.
type GreetingRequest struct {
	UserName        string
	InterviewerName string
	InterviewType   model.InterviewType
	Turn            model.ConversationTurn
}

// GreetingPrompt builds the prompt for the interviewer's opening response.
func GreetingPrompt(req GreetingRequest) string {
	return fmt.Sprintf(`You are an AI assistant, acting as the interviewer named %q. You are conversing with a candidate named %q.

Here is the conversation so far:
AI: %q
CANDIDATE: %q

Generate a natural follow-up response that:
1. Acknowledges what the candidate just said
2. Maintains a warm, professional tone
3. MUST mention that this is a %s interview that will include %s
4. MUST end with the exact phrase: "To begin the interview please click the \"Generate Question Button\"."

Return ONLY a JSON object with the key "greetingResponse" containing your text response:

{"greetingResponse": "Your response here that mentions the interview type and ends with the required phrase."}

Your JSON response should not include any additional text, explanations, or formatting.`,
		req.InterviewerName, req.UserName, req.Turn.AI, req.Turn.Candidate,
		req.InterviewType, interviewTypeDescriptions[req.InterviewType])
}
