package webapp

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"salescoachdev/catalog"
	"salescoachdev/database/sqlite"
	"salescoachdev/dialogue"
	"salescoachdev/logger"
	"salescoachdev/modelapi"
	"salescoachdev/reporting"
	"salescoachdev/scoring"
)

const evaluationResponse = "```json\n" + `{
	"rapport": 8, "discovery": 7, "solution_alignment": 6,
	"objection_handling": 5, "closing": 9, "positivity": 10,
	"dale_carnegie_principles": 3,
	"feedback": {
		"rapport": "warm open", "discovery": "good questions",
		"solution_alignment": "fit shown", "objection_handling": "hesitant",
		"closing": "strong ask", "positivity": "upbeat",
		"dale_carnegie_principles": "used their name"
	}
}` + "\n```"

// routingCompleter answers like a prospect, a scorer, or a coach depending on
// which prompt it receives.
type routingCompleter struct{}

func (routingCompleter) Complete(ctx context.Context, messages []modelapi.Message) (string, error) {
	prompt := messages[0].Content
	switch {
	case strings.Contains(prompt, "Return ONLY raw JSON"):
		return evaluationResponse, nil
	case strings.Contains(prompt, "sales performance coach"):
		return "Strengths: discovery, rapport. Mistakes: rushing the close, weak objection handling.", nil
	default:
		return "Well, mostly paper schedules, if I'm honest.", nil
	}
}

var testPersonas = []catalog.Persona{
	{
		Name:       "Dana Whitfield",
		Role:       "Operations Manager",
		Company:    "Cedar Ridge Landscaping",
		Industry:   "Commercial Landscaping",
		PainPoints: "paper scheduling wastes crew hours",
	},
}

func newTestServer(t *testing.T) (*httptest.Server, *http.Client, *sqlite.Database) {
	t.Helper()
	ctx := context.Background()

	logMiddleware := logger.Connect(logger.LoggerConnectProps{Production: false})
	db, err := sqlite.Open(ctx, sqlite.DatabaseConnectProps{
		Logger: logMiddleware,
		Path:   filepath.Join(t.TempDir(), "leaderboard.db"),
	})
	if err != nil {
		t.Fatalf("could not open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	completer := routingCompleter{}
	app := Connect(ctx, WebAppConnectProps{
		Logger:    logMiddleware,
		DB:        db,
		Personas:  testPersonas,
		Dialogue:  dialogue.Connect(ctx, dialogue.DialogueConnectProps{Logger: logMiddleware, Completer: completer}),
		Scoring:   scoring.Connect(ctx, scoring.ScoringConnectProps{Logger: logMiddleware, Completer: completer}),
		Reporting: reporting.Connect(ctx, reporting.ReportingConnectProps{Logger: logMiddleware, Store: db, Completer: completer}),
	})

	server := httptest.NewServer(app.Router())
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("could not create cookie jar: %v", err)
	}
	client := &http.Client{Jar: jar}

	return server, client, db
}

func postForm(t *testing.T, client *http.Client, serverURL, path string, form url.Values) string {
	t.Helper()
	resp, err := client.PostForm(serverURL+path, form)
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST %s status = %d", path, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return string(body)
}

func TestEndChatWithoutNameIsRecoverable(t *testing.T) {
	server, client, db := newTestServer(t)

	postForm(t, client, server.URL, "/persona", url.Values{"persona": {testPersonas[0].Label()}})
	postForm(t, client, server.URL, "/message", url.Values{"message": {"How do crews get schedules today?"}})

	body := postForm(t, client, server.URL, "/end-chat", url.Values{})
	if !strings.Contains(body, "Please enter your name first.") {
		t.Error("expected name validation warning in page")
	}
	// Conversation survives the failed attempt.
	if !strings.Contains(body, "How do crews get schedules today?") {
		t.Error("transcript should still be rendered after validation failure")
	}

	rows, err := db.TopScores(context.Background(), 10)
	if err != nil {
		t.Fatalf("TopScores failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("no score rows should be written, got %v", rows)
	}
	chats, err := db.AllChats(context.Background())
	if err != nil {
		t.Fatalf("AllChats failed: %v", err)
	}
	if len(chats) != 0 {
		t.Errorf("no chat rows should be written, got %v", chats)
	}
}

func TestFullSessionFlow(t *testing.T) {
	server, client, db := newTestServer(t)
	ctx := context.Background()

	postForm(t, client, server.URL, "/trainee", url.Values{"name": {"  Alex "}})
	postForm(t, client, server.URL, "/persona", url.Values{"persona": {testPersonas[0].Label()}})

	body := postForm(t, client, server.URL, "/message", url.Values{"message": {"How do crews get schedules today?"}})
	if !strings.Contains(body, "Well, mostly paper schedules") {
		t.Error("prospect reply missing from page")
	}

	body = postForm(t, client, server.URL, "/end-chat", url.Values{})
	if !strings.Contains(body, "Score: 75/100") {
		t.Errorf("expected 75/100 on page, got:\n%s", body)
	}
	if !strings.Contains(body, "good questions") {
		t.Error("per-dimension feedback missing from page")
	}

	rows, err := db.TopScores(ctx, 10)
	if err != nil {
		t.Fatalf("TopScores failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "Alex" || rows[0].Score != 75 {
		t.Errorf("leaderboard = %v, want [{Alex 75}]", rows)
	}

	chats, err := db.AllChats(ctx)
	if err != nil {
		t.Fatalf("AllChats failed: %v", err)
	}
	if len(chats) != 1 {
		t.Fatalf("chat history = %v, want one row", chats)
	}
	if !strings.HasPrefix(chats[0].Chat, "Trainee: How do crews get schedules today?") {
		t.Errorf("stored transcript = %q", chats[0].Chat)
	}

	body = postForm(t, client, server.URL, "/summary", url.Values{})
	if !strings.Contains(body, "Avg Score: 75/100") {
		t.Errorf("expected average 75 in summary panel, got:\n%s", body)
	}
	if !strings.Contains(body, "Strengths: discovery") {
		t.Error("summary text missing from page")
	}
}

func TestSummaryWithoutName(t *testing.T) {
	server, client, _ := newTestServer(t)

	body := postForm(t, client, server.URL, "/summary", url.Values{})
	if !strings.Contains(body, "Enter your name first.") {
		t.Error("expected name validation warning for summary")
	}
}

func TestNormalizeName(t *testing.T) {
	if got := normalizeName("  Alex \n"); got != "Alex" {
		t.Errorf("normalizeName = %q", got)
	}
	// Decomposed é must normalize to the precomposed form.
	if got := normalizeName("Rémy"); got != "Rémy" {
		t.Errorf("normalizeName = %q, want NFC form", got)
	}
}
