package dialog

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/condor-estates/condorbot/i18n"
	"github.com/condor-estates/condorbot/session"
	"github.com/condor-estates/condorbot/store"
)

type operatorNote struct {
	text string
	html bool
}

// recordingSender captures engine output instead of talking to Telegram.
type recordingSender struct {
	mu      sync.Mutex
	sent    []Message
	notes   []operatorNote
	cleared []int
	nextID  int
}

func (s *recordingSender) Send(_ context.Context, _ int64, msg Message) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	s.nextID++
	return s.nextID, nil
}

func (s *recordingSender) ClearInlineKeyboard(_ context.Context, _ int64, messageID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared = append(s.cleared, messageID)
}

func (s *recordingSender) NotifyOperator(_ context.Context, text string, html bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, operatorNote{text: text, html: html})
	return nil
}

func (s *recordingSender) last(t *testing.T) Message {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		t.Fatal("no messages sent")
	}
	return s.sent[len(s.sent)-1]
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

// passthrough keeps texts in the source language so tests can match labels.
var passthrough = i18n.Func(func(_ context.Context, text, _ string) string { return text })

func newTestEngine() (*Engine, *session.Registry, *recordingSender) {
	reg := session.NewRegistry(store.NewMemory())
	snd := &recordingSender{}
	eng := New(reg, snd, passthrough, Options{DefaultLanguage: "ru", AboutURL: "https://t.me"})
	return eng, reg, snd
}

func TestStartShowsMainMenu(t *testing.T) {
	eng, reg, snd := newTestEngine()
	ctx := context.Background()

	if err := eng.HandleStart(ctx, 10, 1, "en"); err != nil {
		t.Fatalf("start: %v", err)
	}

	sess, ok := reg.Session(10)
	if !ok || sess.State != session.StateStart || sess.Language != "en" {
		t.Fatalf("unexpected session after start: %+v ok=%v", sess, ok)
	}

	menu := snd.last(t)
	if len(menu.Buttons) != 4 {
		t.Fatalf("main menu must offer 4 rows, got %d", len(menu.Buttons))
	}
	if menu.Buttons[2][0].URL == "" {
		t.Fatal("third row must be the about link")
	}
}

func TestUkrainianHintFallsBackToRussian(t *testing.T) {
	eng, reg, _ := newTestEngine()
	ctx := context.Background()

	if err := eng.HandleStart(ctx, 11, 1, "uk"); err != nil {
		t.Fatalf("start: %v", err)
	}
	sess, _ := reg.Session(11)
	if sess.Language != "ru" {
		t.Fatalf("uk hint must resolve to ru, got %q", sess.Language)
	}
}

func TestTextWithoutFlowIsDropped(t *testing.T) {
	eng, _, snd := newTestEngine()
	ctx := context.Background()

	if err := eng.HandleStart(ctx, 12, 1, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	before := snd.count()
	if err := eng.HandleText(ctx, 12, "hello"); err != nil {
		t.Fatalf("text: %v", err)
	}
	if snd.count() != before {
		t.Fatal("text outside a flow must not produce a reply")
	}
}

func TestIntakeFlow(t *testing.T) {
	eng, reg, snd := newTestEngine()
	ctx := context.Background()

	if err := eng.HandleStart(ctx, 20, 1, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := eng.OpenExpertIntake(ctx, 20, 2); err != nil {
		t.Fatalf("open intake: %v", err)
	}
	if len(snd.cleared) != 1 || snd.cleared[0] != 2 {
		t.Fatalf("menu keyboard must be cleared, got %v", snd.cleared)
	}
	if got := snd.last(t).Text; got != promptEmail {
		t.Fatalf("expected email prompt, got %q", got)
	}

	if err := eng.HandleText(ctx, 20, "not-an-email"); err != nil {
		t.Fatalf("email: %v", err)
	}
	if got := snd.last(t).Text; got != promptEmailInvalid {
		t.Fatalf("invalid email must reprompt, got %q", got)
	}

	if err := eng.HandleText(ctx, 20, "buyer@example.com"); err != nil {
		t.Fatalf("email: %v", err)
	}
	if got := snd.last(t).Text; got != promptPhone {
		t.Fatalf("expected phone prompt, got %q", got)
	}
	if sess, _ := reg.Session(20); sess.State != session.StateAwaitingPhone {
		t.Fatalf("expected awaiting_phone, got %q", sess.State)
	}

	if err := eng.HandleText(ctx, 20, "12345"); err != nil {
		t.Fatalf("phone: %v", err)
	}
	if got := snd.last(t).Text; got != promptPhoneInvalid {
		t.Fatalf("invalid phone must reprompt, got %q", got)
	}

	if err := eng.HandleText(ctx, 20, "+6281234567"); err != nil {
		t.Fatalf("phone: %v", err)
	}
	if got := snd.last(t).Text; got != promptFIO {
		t.Fatalf("expected fio prompt, got %q", got)
	}

	if err := eng.HandleText(ctx, 20, "Иванов Иван Иванович"); err != nil {
		t.Fatalf("fio: %v", err)
	}

	if len(snd.notes) != 1 {
		t.Fatalf("expected one operator note, got %d", len(snd.notes))
	}
	note := snd.notes[0]
	if note.html {
		t.Fatal("intake summary must be plain text")
	}
	for _, part := range []string{
		"💡 Тема: Экспертная помощь с недвижимостью",
		"📧 Адрес электронной почты: buyer@example.com",
		"📱 Номер телефона: +6281234567",
		"👨🏻‍💻 ФИО: Иванов Иван Иванович",
	} {
		if !strings.Contains(note.text, part) {
			t.Errorf("operator summary missing %q in %q", part, note.text)
		}
	}

	if _, ok := reg.Flow(20); ok {
		t.Fatal("flow must be cleared after completion")
	}
	if _, ok := reg.Intake(20); ok {
		t.Fatal("intake record must be cleared after forwarding")
	}
	if sess, _ := reg.Session(20); sess.State != session.StateStart {
		t.Fatalf("state must return to start, got %q", sess.State)
	}
	done := snd.last(t)
	if len(done.Buttons) != 4 {
		t.Fatalf("completion message must offer 4 follow-up rows, got %d", len(done.Buttons))
	}
}

func TestIntakeRestartInvalidatesPreviousToken(t *testing.T) {
	eng, reg, _ := newTestEngine()
	ctx := context.Background()

	if err := eng.HandleStart(ctx, 21, 1, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := eng.OpenExpertIntake(ctx, 21, 2); err != nil {
		t.Fatalf("open: %v", err)
	}
	first, _ := reg.Flow(21)
	if err := eng.OpenExpertIntake(ctx, 21, 3); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	second, _ := reg.Flow(21)
	if first.Token == second.Token {
		t.Fatal("restart must mint a new token")
	}

	// The live flow still accepts input.
	if err := eng.HandleText(ctx, 21, "buyer@example.com"); err != nil {
		t.Fatalf("email: %v", err)
	}
	f, _ := reg.Flow(21)
	if f.Step != session.StepPhone {
		t.Fatalf("expected advance to phone step, got %q", f.Step)
	}
}

func TestTextAfterRestartIsDropped(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()

	reg := session.NewRegistry(st)
	snd := &recordingSender{}
	eng := New(reg, snd, passthrough, Options{DefaultLanguage: "ru"})
	if err := eng.HandleStart(ctx, 22, 1, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := eng.OpenExpertIntake(ctx, 22, 2); err != nil {
		t.Fatalf("open: %v", err)
	}

	// Fresh process: same store, new engine, no active-flow entry.
	reg2 := session.NewRegistry(st)
	if err := reg2.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	snd2 := &recordingSender{}
	eng2 := New(reg2, snd2, passthrough, Options{DefaultLanguage: "ru"})

	if err := eng2.HandleText(ctx, 22, "buyer@example.com"); err != nil {
		t.Fatalf("text: %v", err)
	}
	if snd2.count() != 0 {
		t.Fatal("text for a dead flow token must be dropped silently")
	}
}

func TestQuestionnaireFullRun(t *testing.T) {
	eng, reg, snd := newTestEngine()
	ctx := context.Background()

	if err := eng.HandleStart(ctx, 30, 1, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := eng.OpenQuestionnaire(ctx, 30, 2); err != nil {
		t.Fatalf("open: %v", err)
	}

	q1 := snd.last(t)
	if q1.Text != questions[0].Text {
		t.Fatalf("expected first question, got %q", q1.Text)
	}
	if len(q1.Options) != len(questions[0].Options) {
		t.Fatalf("expected %d option rows, got %d", len(questions[0].Options), len(q1.Options))
	}

	// Custom option on question 1 asks for a clarification first.
	if err := eng.HandleText(ctx, 30, "Другое (пожалуйста, уточните)"); err != nil {
		t.Fatalf("q1: %v", err)
	}
	if got := snd.last(t); got.Text != detailPromptText || !got.RemoveKeyboard {
		t.Fatalf("expected detail prompt without keyboard, got %+v", got)
	}
	if err := eng.HandleText(ctx, 30, "инвестиции с партнёром"); err != nil {
		t.Fatalf("q1 detail: %v", err)
	}
	if got := reg.AnswersFor(30)["question1"]; got != "Другое (пожалуйста, уточните): инвестиции с партнёром" {
		t.Fatalf("detail must be appended, got %q", got)
	}

	answers := []string{
		"Вилла",
		"$100,000 - $300,000",
		"Чангу",
		"5-10% годовых",
		"В течение 6 месяцев",
		"Нет",
		"Банковский перевод",
		"Рассрочка",
		"Иванов Иван Иванович",
		"+79991234567",
	}
	for i, a := range answers {
		if err := eng.HandleText(ctx, 30, a); err != nil {
			t.Fatalf("answer %d: %v", i+2, err)
		}
	}

	if len(snd.notes) != 1 {
		t.Fatalf("expected one operator note, got %d", len(snd.notes))
	}
	note := snd.notes[0]
	if !note.html {
		t.Fatal("questionnaire summary must be HTML")
	}
	for _, part := range []string{
		"<b>📝 Анкета заполнена</b>",
		"<b>2. Тип недвижимости:</b> Вилла",
		"<b>7. Особые требования:</b> Нет",
		"<b>Контактный телефон:</b> +79991234567",
	} {
		if !strings.Contains(note.text, part) {
			t.Errorf("summary missing %q", part)
		}
	}

	if _, ok := reg.Flow(30); ok {
		t.Fatal("flow must be cleared after completion")
	}
	if len(reg.AnswersFor(30)) != 0 {
		t.Fatal("answers must be cleared after forwarding")
	}
	if sess, _ := reg.Session(30); sess.State != session.StateStart {
		t.Fatalf("state must return to start, got %q", sess.State)
	}
}

func TestQuestionnaireResumesFromSavedIndex(t *testing.T) {
	eng, reg, snd := newTestEngine()
	ctx := context.Background()

	if err := eng.HandleStart(ctx, 31, 1, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := eng.OpenQuestionnaire(ctx, 31, 2); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := eng.HandleText(ctx, 31, "Вилла"); err != nil {
		t.Fatalf("q1: %v", err)
	}
	if err := eng.HandleText(ctx, 31, "Апартаменты"); err != nil {
		t.Fatalf("q2: %v", err)
	}

	// Re-entry keeps the saved question index.
	if err := eng.OpenQuestionnaire(ctx, 31, 3); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := snd.last(t).Text; got != questions[2].Text {
		t.Fatalf("expected resume at question 3, got %q", got)
	}
	f, _ := reg.Flow(31)
	if f.QuestionIndex != 2 {
		t.Fatalf("expected question index 2, got %d", f.QuestionIndex)
	}
}

func TestRecoveryMatrix(t *testing.T) {
	cases := []struct {
		state    session.State
		wantText string
		wantKeys []string
	}{
		{session.StateQuestionnaire, recoverQuestionnaireText, []string{"questionnaire", "help_again"}},
		{session.StateStrategiesMenu, recoverStrategiesText, []string{"strategies", "help_again"}},
		{session.StateAwaitingEmail, recoverIntakeText, []string{"expert_help", "help_again"}},
		{session.StateAwaitingPhone, recoverIntakeText, []string{"expert_help", "help_again"}},
		{session.StateAwaitingFIO, recoverIntakeText, []string{"expert_help", "help_again"}},
	}
	for _, tc := range cases {
		t.Run(string(tc.state), func(t *testing.T) {
			eng, reg, snd := newTestEngine()
			ctx := context.Background()
			if err := reg.PutSession(ctx, session.Session{ChatID: 40, State: tc.state}); err != nil {
				t.Fatalf("put: %v", err)
			}

			eng.Recover(ctx)

			msg := snd.last(t)
			if msg.Text != tc.wantText {
				t.Fatalf("state %s: expected %q, got %q", tc.state, tc.wantText, msg.Text)
			}
			var keys []string
			for _, row := range msg.Buttons {
				for _, b := range row {
					keys = append(keys, b.Key)
				}
			}
			if len(keys) != len(tc.wantKeys) {
				t.Fatalf("expected keys %v, got %v", tc.wantKeys, keys)
			}
			for i := range keys {
				if keys[i] != tc.wantKeys[i] {
					t.Fatalf("expected keys %v, got %v", tc.wantKeys, keys)
				}
			}
		})
	}
}

func TestRecoveryStartResendsMenu(t *testing.T) {
	eng, reg, snd := newTestEngine()
	ctx := context.Background()
	if err := reg.PutSession(ctx, session.Session{ChatID: 41, Language: "en", State: session.StateStart, LastMessageID: 7}); err != nil {
		t.Fatalf("put: %v", err)
	}

	eng.Recover(ctx)

	menu := snd.last(t)
	if len(menu.Buttons) != 4 {
		t.Fatalf("expected main menu, got %+v", menu)
	}
	sess, _ := reg.Session(41)
	if sess.Language != "en" || sess.LastMessageID != 0 {
		t.Fatalf("start recovery must keep language and reset message id, got %+v", sess)
	}
}

func TestRecoveryUnknownStateSkipped(t *testing.T) {
	eng, reg, snd := newTestEngine()
	ctx := context.Background()
	if err := reg.PutSession(ctx, session.Session{ChatID: 42, State: session.State("archived")}); err != nil {
		t.Fatalf("put: %v", err)
	}

	eng.Recover(ctx)

	if snd.count() != 0 {
		t.Fatal("unknown state must be skipped without messaging")
	}
}
