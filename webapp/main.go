package webapp

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"salescoachdev/catalog"
	"salescoachdev/database/sqlite"
	"salescoachdev/dialogue"
	"salescoachdev/logger"
	"salescoachdev/reporting"
	"salescoachdev/scoring"
	"salescoachdev/session"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const leaderboardLimit = 10

type WebAppConnectProps struct {
	Logger    *logger.LogMiddleware
	DB        *sqlite.Database
	Personas  []catalog.Persona
	Dialogue  *dialogue.Engine
	Scoring   *scoring.Engine
	Reporting *reporting.Engine
}

// WebApp is the interactive surface: every trainee action arrives as a form
// POST and renders the whole page back, in the manner of the single-page
// training console it fronts.
type WebApp struct {
	logger    *logger.LogMiddleware
	db        *sqlite.Database
	personas  []catalog.Persona
	dialogue  *dialogue.Engine
	scoring   *scoring.Engine
	reporting *reporting.Engine
	registry  *registry
}

func Connect(ctx context.Context, args WebAppConnectProps) *WebApp {
	tracer := otel.Tracer("webapp/Connect")
	ctx, span := tracer.Start(ctx, "Connect")
	defer span.End()

	args.Logger.Logger(ctx).Info("[WebApp] Interactive surface started",
		zap.Int("persona_count", len(args.Personas)))

	return &WebApp{
		logger:    args.Logger,
		db:        args.DB,
		personas:  args.Personas,
		dialogue:  args.Dialogue,
		scoring:   args.Scoring,
		reporting: args.Reporting,
		registry:  newRegistry(),
	}
}

func (w *WebApp) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", w.indexPage)
	r.Post("/trainee", w.setTrainee)
	r.Post("/persona", w.selectPersona)
	r.Post("/message", w.sendMessage)
	r.Post("/end-chat", w.endChat)
	r.Post("/new-prospect", w.newProspect)
	r.Get("/transcript", w.viewTranscript)
	r.Post("/summary", w.generateSummary)
	return r
}

type feedbackItem struct {
	Dimension string
	Score     int
	Text      string
}

type scoreView struct {
	Score    int
	Feedback []feedbackItem
}

type summaryView struct {
	AvgScore float64
	Text     string
}

type pageData struct {
	TraineeName string
	Personas    []catalog.Persona
	Persona     *catalog.Persona
	Transcript  []session.Message
	Scored      bool
	Leaderboard []sqlite.ScoreRow
	Chats       []sqlite.ChatRow
	ViewChat    *sqlite.ChatRow
	Score       *scoreView
	Summary     *summaryView
	Warning     string
	Error       string
}

// page assembles the view model shared by every handler: session state plus
// the leaderboard and transcript browser read fresh from the store.
func (w *WebApp) page(ctx context.Context, s *session.Session) pageData {
	data := pageData{
		TraineeName: s.TraineeName,
		Personas:    w.personas,
		Persona:     s.Persona,
		Transcript:  s.Transcript,
		Scored:      s.State == session.StateScored,
	}

	leaderboard, err := w.db.TopScores(ctx, leaderboardLimit)
	if err != nil {
		w.logger.Logger(ctx).Error("[WebApp] Could not load leaderboard", zap.Error(err))
		data.Error = err.Error()
		return data
	}
	data.Leaderboard = leaderboard

	chats, err := w.db.AllChats(ctx)
	if err != nil {
		w.logger.Logger(ctx).Error("[WebApp] Could not load chat history", zap.Error(err))
		data.Error = err.Error()
		return data
	}
	data.Chats = chats

	return data
}

func (w *WebApp) render(rw http.ResponseWriter, data pageData) {
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(rw, "index.html", data); err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
	}
}

func (w *WebApp) indexPage(rw http.ResponseWriter, r *http.Request) {
	s := w.session(rw, r)
	w.render(rw, w.page(r.Context(), s))
}

// Trainee names are trimmed and NFC-normalized before use; the original text
// is otherwise kept verbatim (matching stays case-sensitive).
func normalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

func (w *WebApp) setTrainee(rw http.ResponseWriter, r *http.Request) {
	s := w.session(rw, r)
	s.SetTraineeName(normalizeName(r.FormValue("name")))
	w.render(rw, w.page(r.Context(), s))
}

func (w *WebApp) selectPersona(rw http.ResponseWriter, r *http.Request) {
	s := w.session(rw, r)

	persona := catalog.FindByLabel(w.personas, r.FormValue("persona"))
	if persona == nil {
		data := w.page(r.Context(), s)
		data.Warning = "Unknown prospect selected."
		w.render(rw, data)
		return
	}

	s.SelectPersona(persona)
	w.render(rw, w.page(r.Context(), s))
}

func (w *WebApp) sendMessage(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := w.session(rw, r)

	text := strings.TrimSpace(r.FormValue("message"))
	if text == "" {
		w.render(rw, w.page(ctx, s))
		return
	}
	if s.Persona == nil {
		data := w.page(ctx, s)
		data.Warning = "Select a prospect before chatting."
		w.render(rw, data)
		return
	}

	s.AppendTrainee(text)

	reply, err := w.dialogue.GenerateReply(ctx, s.Persona, s.Transcript)
	if err != nil {
		data := w.page(ctx, s)
		data.Error = "The prospect did not answer: " + err.Error()
		w.render(rw, data)
		return
	}
	s.AppendProspect(reply)

	w.render(rw, w.page(ctx, s))
}

func (w *WebApp) endChat(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := w.session(rw, r)

	if err := s.EnsureScorable(); err != nil {
		data := w.page(ctx, s)
		if errors.Is(err, session.ErrNoTraineeName) {
			data.Warning = "Please enter your name first."
		} else {
			data.Warning = "Nothing to score yet. Chat with the prospect first."
		}
		w.render(rw, data)
		return
	}

	transcript := s.TranscriptText()
	total, evaluation, err := w.scoring.ScoreTranscript(ctx, transcript)
	if err != nil {
		data := w.page(ctx, s)
		data.Error = "Scoring failed: " + err.Error()
		w.render(rw, data)
		return
	}

	// One scoring event produces a sibling score and chat row; they share a
	// generated id so history queries can pair them without relying on the
	// timestamp alone.
	scoringID := uuid.NewString()
	now := time.Now()
	if err := w.db.AddScore(ctx, s.TraineeName, total, scoringID, now); err != nil {
		data := w.page(ctx, s)
		data.Error = err.Error()
		w.render(rw, data)
		return
	}
	if err := w.db.AddChat(ctx, s.TraineeName, transcript, scoringID, now); err != nil {
		data := w.page(ctx, s)
		data.Error = err.Error()
		w.render(rw, data)
		return
	}

	s.MarkScored()

	data := w.page(ctx, s)
	data.Score = &scoreView{Score: total, Feedback: orderedFeedback(evaluation)}
	w.render(rw, data)
}

func orderedFeedback(evaluation *scoring.Evaluation) []feedbackItem {
	items := make([]feedbackItem, 0, len(scoring.CountedDimensions)+1)
	for _, dimension := range scoring.CountedDimensions {
		items = append(items, feedbackItem{
			Dimension: dimension,
			Score:     evaluation.Scores[dimension],
			Text:      evaluation.Feedback[dimension],
		})
	}
	if text, ok := evaluation.Feedback[scoring.BonusDimension]; ok {
		items = append(items, feedbackItem{
			Dimension: scoring.BonusDimension,
			Score:     evaluation.Bonus,
			Text:      text,
		})
	}
	return items
}

func (w *WebApp) newProspect(rw http.ResponseWriter, r *http.Request) {
	s := w.session(rw, r)
	s.Reset()
	w.render(rw, w.page(r.Context(), s))
}

func (w *WebApp) viewTranscript(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := w.session(rw, r)

	name := r.URL.Query().Get("name")
	ts := r.URL.Query().Get("ts")

	data := w.page(ctx, s)
	for i := range data.Chats {
		if data.Chats[i].Name == name && data.Chats[i].Timestamp == ts {
			data.ViewChat = &data.Chats[i]
			break
		}
	}
	if data.ViewChat == nil {
		data.Warning = "Transcript not found."
	}
	w.render(rw, data)
}

func (w *WebApp) generateSummary(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := w.session(rw, r)

	name := normalizeName(s.TraineeName)
	if name == "" {
		data := w.page(ctx, s)
		data.Warning = "Enter your name first."
		w.render(rw, data)
		return
	}

	avg, summary, err := w.reporting.SummarizeTrainee(ctx, name)
	if err != nil {
		data := w.page(ctx, s)
		data.Error = "Summary failed: " + err.Error()
		w.render(rw, data)
		return
	}

	data := w.page(ctx, s)
	data.Summary = &summaryView{AvgScore: avg, Text: summary}
	w.render(rw, data)
}
