package session

import (
	"context"
	"testing"

	"github.com/condor-estates/condorbot/store"
)

func TestBeginIntakeMintsFreshToken(t *testing.T) {
	r := NewRegistry(store.NewMemory())
	ctx := context.Background()

	first, err := r.BeginIntake(ctx, 42)
	if err != nil {
		t.Fatalf("begin intake: %v", err)
	}
	second, err := r.BeginIntake(ctx, 42)
	if err != nil {
		t.Fatalf("begin intake: %v", err)
	}
	if first == second {
		t.Fatal("restarting the flow must mint a new token")
	}
	f, ok := r.Flow(42)
	if !ok || f.Token != second || f.Step != StepEmail {
		t.Fatalf("unexpected flow after restart: %+v", f)
	}
}

func TestBeginQuestionnaireKeepsProgress(t *testing.T) {
	r := NewRegistry(store.NewMemory())
	ctx := context.Background()

	if _, err := r.BeginQuestionnaire(ctx, 7); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := r.SetQuestionnaireProgress(ctx, 7, 4, true); err != nil {
		t.Fatalf("progress: %v", err)
	}

	f, err := r.BeginQuestionnaire(ctx, 7)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if f.QuestionIndex != 4 || !f.WaitingForDetail {
		t.Fatalf("resume must keep saved progress, got %+v", f)
	}
}

func TestBeginQuestionnaireDropsIntakeProgress(t *testing.T) {
	r := NewRegistry(store.NewMemory())
	ctx := context.Background()

	if _, err := r.BeginIntake(ctx, 7); err != nil {
		t.Fatalf("begin intake: %v", err)
	}
	f, err := r.BeginQuestionnaire(ctx, 7)
	if err != nil {
		t.Fatalf("begin questionnaire: %v", err)
	}
	if f.Step != "" || f.QuestionIndex != 0 || f.WaitingForDetail {
		t.Fatalf("switching flows must start clean, got %+v", f)
	}
}

func TestReloadSurvivesRestart(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()

	first := NewRegistry(st)
	if err := first.PutSession(ctx, Session{ChatID: 1, Language: "en", State: StateQuestionnaire}); err != nil {
		t.Fatalf("put session: %v", err)
	}
	if _, err := first.BeginQuestionnaire(ctx, 1); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := first.SetAnswer(ctx, 1, "question1", "Да"); err != nil {
		t.Fatalf("answer: %v", err)
	}

	second := NewRegistry(st)
	if err := second.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	s, ok := second.Session(1)
	if !ok || s.State != StateQuestionnaire || s.Language != "en" {
		t.Fatalf("session lost on reload: %+v ok=%v", s, ok)
	}
	if _, ok := second.Flow(1); !ok {
		t.Fatal("flow lost on reload")
	}
	if got := second.AnswersFor(1)["question1"]; got != "Да" {
		t.Fatalf("answers lost on reload, got %q", got)
	}
}

func TestAppendAnswerFormat(t *testing.T) {
	r := NewRegistry(store.NewMemory())
	ctx := context.Background()

	if err := r.SetAnswer(ctx, 5, "question2", "Другое"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := r.AppendAnswer(ctx, 5, "question2", "частный фонд"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if got := r.AnswersFor(5)["question2"]; got != "Другое: частный фонд" {
		t.Fatalf("unexpected appended answer: %q", got)
	}
}

func TestSessionLocale(t *testing.T) {
	s := &Session{ChatID: 1, Language: "uk"}
	if got := s.Locale("ru"); got != "uk" {
		t.Fatalf("stored language must win, got %q", got)
	}
	empty := &Session{ChatID: 2}
	if got := empty.Locale("ru"); got != "ru" {
		t.Fatalf("fallback expected, got %q", got)
	}
}
