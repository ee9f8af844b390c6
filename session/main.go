package session

import (
	"errors"
	"strings"

	"salescoachdev/catalog"
)

type Speaker string

const (
	SpeakerTrainee  Speaker = "trainee"
	SpeakerProspect Speaker = "prospect"
)

type Message struct {
	Speaker Speaker
	Text    string
}

type State string

const (
	StateNoPersonaSelected State = "no_persona_selected"
	StatePersonaSelected   State = "persona_selected"
	StateInConversation    State = "in_conversation"
	StateScored            State = "scored"
)

// Validation errors are recoverable: the surface shows them and the session
// stays where it was.
var (
	ErrNoTraineeName  = errors.New("trainee name is required")
	ErrNoConversation = errors.New("no conversation in progress")
)

// Session holds the transient state of one browser session: the trainee
// identity, the selected persona, and the running transcript. It is owned by
// exactly one connection and is never persisted as-is; scoring writes a
// flattened transcript instead.
type Session struct {
	ID          string
	TraineeName string
	Persona     *catalog.Persona
	Transcript  []Message
	State       State
}

func New(id string) *Session {
	return &Session{ID: id, State: StateNoPersonaSelected}
}

func (s *Session) SetTraineeName(name string) {
	s.TraineeName = name
}

// SelectPersona starts a fresh conversation against the given persona. Any
// running transcript is discarded.
func (s *Session) SelectPersona(p *catalog.Persona) {
	s.Persona = p
	s.Transcript = nil
	s.State = StatePersonaSelected
}

func (s *Session) AppendTrainee(text string) {
	s.Transcript = append(s.Transcript, Message{Speaker: SpeakerTrainee, Text: text})
	s.State = StateInConversation
}

func (s *Session) AppendProspect(text string) {
	s.Transcript = append(s.Transcript, Message{Speaker: SpeakerProspect, Text: text})
	s.State = StateInConversation
}

// Reset implements "Start New Prospect": the transcript is cleared and the
// session leaves the conversation. A still-selected persona re-enters
// PersonaSelected immediately, matching the selector UI keeping its choice.
func (s *Session) Reset() {
	s.Transcript = nil
	if s.Persona != nil {
		s.State = StatePersonaSelected
	} else {
		s.State = StateNoPersonaSelected
	}
}

// EnsureScorable guards "End Chat & Generate Score". On failure the session
// state is untouched.
func (s *Session) EnsureScorable() error {
	if s.State != StateInConversation || len(s.Transcript) == 0 {
		return ErrNoConversation
	}
	if strings.TrimSpace(s.TraineeName) == "" {
		return ErrNoTraineeName
	}
	return nil
}

func (s *Session) MarkScored() {
	s.State = StateScored
}

// TranscriptText flattens the transcript into the labeled block used for
// scoring prompts and chat_history rows.
func (s *Session) TranscriptText() string {
	var b strings.Builder
	for i, message := range s.Transcript {
		if i > 0 {
			b.WriteString("\n")
		}
		if message.Speaker == SpeakerTrainee {
			b.WriteString("Trainee: ")
		} else {
			b.WriteString("Prospect: ")
		}
		b.WriteString(message.Text)
	}
	return b.String()
}
