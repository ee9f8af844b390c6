package reporting

import (
	"context"
	"strings"
	"testing"
	"time"

	"salescoachdev/logger"
	"salescoachdev/modelapi"
)

type fakeStore struct {
	scores       map[string][]int
	chats        map[string][]string
	savedName    string
	savedAvg     float64
	savedSummary string
}

func (f *fakeStore) ScoresFor(ctx context.Context, name string) ([]int, error) {
	return f.scores[name], nil
}

func (f *fakeStore) RecentChatsFor(ctx context.Context, name string, limit int) ([]string, error) {
	chats := f.chats[name]
	if len(chats) > limit {
		chats = chats[:limit]
	}
	return chats, nil
}

func (f *fakeStore) AddSummary(ctx context.Context, name string, avg float64, summary string, ts time.Time) error {
	f.savedName = name
	f.savedAvg = avg
	f.savedSummary = summary
	return nil
}

type stubCompleter struct {
	response string
	messages []modelapi.Message
}

func (s *stubCompleter) Complete(ctx context.Context, messages []modelapi.Message) (string, error) {
	s.messages = messages
	return s.response, nil
}

func newTestEngine(store Store, completer modelapi.Completer) *Engine {
	logMiddleware := logger.Connect(logger.LoggerConnectProps{Production: false})
	return Connect(context.Background(), ReportingConnectProps{Logger: logMiddleware, Store: store, Completer: completer})
}

func TestSummarizeTrainee(t *testing.T) {
	store := &fakeStore{
		scores: map[string][]int{"Alex": {75, 80, 62}},
		chats:  map[string][]string{"Alex": {"Trainee: hi\nProspect: hello", "Trainee: again\nProspect: yes"}},
	}
	stub := &stubCompleter{response: " Strengths: discovery. Mistakes: closing. \n"}
	engine := newTestEngine(store, stub)

	avg, summary, err := engine.SummarizeTrainee(context.Background(), "Alex")
	if err != nil {
		t.Fatalf("SummarizeTrainee failed: %v", err)
	}

	// (75+80+62)/3 = 72.333..., rounded to one decimal.
	if avg != 72.3 {
		t.Errorf("avg = %v, want 72.3", avg)
	}
	if summary != "Strengths: discovery. Mistakes: closing." {
		t.Errorf("summary = %q", summary)
	}

	if store.savedName != "Alex" || store.savedAvg != 72.3 || store.savedSummary != summary {
		t.Errorf("summary not persisted correctly: %+v", store)
	}

	if len(stub.messages) != 1 || stub.messages[0].Role != modelapi.SYSTEM {
		t.Fatalf("coaching prompt must be one system message, got %+v", stub.messages)
	}
	prompt := stub.messages[0].Content
	if !strings.Contains(prompt, "Trainee: hi\nProspect: hello\n\nTrainee: again\nProspect: yes") {
		t.Errorf("transcripts not joined with blank line:\n%s", prompt)
	}
	if !strings.Contains(prompt, "top 2 strengths") {
		t.Errorf("coaching instruction missing from prompt:\n%s", prompt)
	}
}

func TestSummarizeTraineeNoHistory(t *testing.T) {
	store := &fakeStore{scores: map[string][]int{}, chats: map[string][]string{}}
	stub := &stubCompleter{response: "Not enough history to say much."}
	engine := newTestEngine(store, stub)

	avg, summary, err := engine.SummarizeTrainee(context.Background(), "NoSuchUser")
	if err != nil {
		t.Fatalf("SummarizeTrainee failed: %v", err)
	}
	if avg != 0 {
		t.Errorf("avg = %v, want 0 with no history", avg)
	}
	if summary == "" {
		t.Error("summary should carry the provider output verbatim")
	}
	if store.savedAvg != 0 {
		t.Errorf("persisted avg = %v, want 0", store.savedAvg)
	}
}

func TestAverageScore(t *testing.T) {
	cases := []struct {
		scores []int
		want   float64
	}{
		{nil, 0},
		{[]int{75}, 75},
		{[]int{75, 80}, 77.5},
		{[]int{75, 80, 62}, 72.3},
		{[]int{1, 2}, 1.5},
	}
	for _, tc := range cases {
		if got := averageScore(tc.scores); got != tc.want {
			t.Errorf("averageScore(%v) = %v, want %v", tc.scores, got, tc.want)
		}
	}
}
