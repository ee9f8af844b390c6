package modelapi

// MaxScore is the top of the scoring scale shown to trainees.
const MaxScore = 100

const (
	OPENAI_MODEL_NAME = "gpt-4o"
	GEMINI_MODEL_NAME = "gemini-2.5-flash"
)

// PROSPECT_PROMPT conditions the model to play one prospect persona. The
// persona holds its pain points back until the trainee earns them through
// discovery questions, and warms up once the pain is surfaced and the
// trainee's service is proposed against it.
// Placeholders: name, role, company, industry, pain points.
const PROSPECT_PROMPT = `You are '%s', a %s at %s (%s). ` +
	`Your hidden pain points: %s. ` +
	`Reveal them only if the trainee asks good discovery questions. ` +
	`If they uncover your pain and propose your solution, respond that you're ready and excited.`

// RUBRIC_PROMPT asks for a strict JSON evaluation of a finished chat. The six
// 0-10 dimensions count toward the total; dale_carnegie_principles is an
// informational 0-5 bonus and is excluded from the score.
// Placeholder: the labeled transcript.
const RUBRIC_PROMPT = `
You are a sales coach. Return ONLY raw JSON.
Evaluate this chat:
{
  "rapport": 0-10,
  "discovery": 0-10,
  "solution_alignment": 0-10,
  "objection_handling": 0-10,
  "closing": 0-10,
  "positivity": 0-10,
  "dale_carnegie_principles": 0-5,
  "feedback": {
    "rapport": "...",
    "discovery": "...",
    "solution_alignment": "...",
    "objection_handling": "...",
    "closing": "...",
    "positivity": "...",
    "dale_carnegie_principles": "..."
  }
}
Chat:
%s
`

// COACHING_PROMPT drives the on-demand performance summary over a trainee's
// recent transcripts.
// Placeholder: blank-line separated transcript blocks.
const COACHING_PROMPT = `
You are a sales performance coach. Analyze this user's last 5 sales chats and summarize:
- Their top 2 strengths
- Their top 2 mistakes
Return in plain language.

Chat transcripts:
%s
`
