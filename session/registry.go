package session

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/condor-estates/condorbot/logger"
	"github.com/condor-estates/condorbot/store"
)

// Registry is the in-memory working set of all durable collections.
// Every mutation rewrites the owning collection in the store as a whole,
// so state survives process restart.
type Registry struct {
	mu    sync.RWMutex
	store store.Store

	sessions map[int64]Session
	flows    map[int64]FlowState
	answers  map[int64]AnswerSet
	intakes  map[int64]IntakeRecord
}

func NewRegistry(st store.Store) *Registry {
	return &Registry{
		store:    st,
		sessions: make(map[int64]Session),
		flows:    make(map[int64]FlowState),
		answers:  make(map[int64]AnswerSet),
		intakes:  make(map[int64]IntakeRecord),
	}
}

// Reload replaces the working set with whatever the store holds.
func (r *Registry) Reload(ctx context.Context) error {
	sessions := map[string]Session{}
	if err := r.store.Load(ctx, store.CollectionSessions, &sessions); err != nil {
		return err
	}
	flows := map[string]FlowState{}
	if err := r.store.Load(ctx, store.CollectionFlows, &flows); err != nil {
		return err
	}
	answers := map[string]AnswerSet{}
	if err := r.store.Load(ctx, store.CollectionAnswers, &answers); err != nil {
		return err
	}
	intakes := map[string]IntakeRecord{}
	if err := r.store.Load(ctx, store.CollectionIntakes, &intakes); err != nil {
		return err
	}

	r.mu.Lock()
	r.sessions = decodeKeys(sessions)
	r.flows = decodeKeys(flows)
	r.answers = decodeKeys(answers)
	r.intakes = decodeKeys(intakes)
	total := len(r.sessions)
	r.mu.Unlock()

	logger.STORE.Debug("registry reloaded",
		slog.String("event", "registry.reload"),
		slog.Int("sessions", total),
	)
	return nil
}

// Session returns the durable record for a chat, if any.
func (r *Registry) Session(chatID int64) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[chatID]
	return s, ok
}

// Sessions returns a snapshot of every known session.
func (r *Registry) Sessions() []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// PutSession stores the whole record and persists the collection.
func (r *Registry) PutSession(ctx context.Context, s Session) error {
	r.mu.Lock()
	r.sessions[s.ChatID] = s
	snap := encodeKeys(r.sessions)
	r.mu.Unlock()
	return r.save(ctx, store.CollectionSessions, snap)
}

// SetState moves a chat to a new state, keeping the rest of the record.
func (r *Registry) SetState(ctx context.Context, chatID int64, state State) error {
	r.mu.Lock()
	s := r.sessions[chatID]
	s.ChatID = chatID
	s.State = state
	r.sessions[chatID] = s
	snap := encodeKeys(r.sessions)
	r.mu.Unlock()
	return r.save(ctx, store.CollectionSessions, snap)
}

// SetLastMessageID remembers the id of the last menu message with an
// inline keyboard, so a later flow entry can strip that keyboard.
func (r *Registry) SetLastMessageID(ctx context.Context, chatID int64, messageID int) error {
	r.mu.Lock()
	s, ok := r.sessions[chatID]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	s.LastMessageID = messageID
	r.sessions[chatID] = s
	snap := encodeKeys(r.sessions)
	r.mu.Unlock()
	return r.save(ctx, store.CollectionSessions, snap)
}

// Flow returns the in-flight flow record for a chat, if any.
func (r *Registry) Flow(chatID int64) (FlowState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.flows[chatID]
	return f, ok
}

// BeginIntake starts (or restarts) the expert-help flow, minting a fresh
// token. Any previous flow record for the chat is discarded.
func (r *Registry) BeginIntake(ctx context.Context, chatID int64) (string, error) {
	token := uuid.NewString()
	r.mu.Lock()
	r.flows[chatID] = FlowState{Step: StepEmail, Token: token}
	snap := encodeKeys(r.flows)
	r.mu.Unlock()
	if err := r.save(ctx, store.CollectionFlows, snap); err != nil {
		return "", err
	}
	return token, nil
}

// BeginQuestionnaire starts or resumes the questionnaire, always minting a
// fresh token. Progress from a previous questionnaire record is kept so a
// restarted process resumes at the saved question.
func (r *Registry) BeginQuestionnaire(ctx context.Context, chatID int64) (FlowState, error) {
	token := uuid.NewString()
	r.mu.Lock()
	f := FlowState{Token: token}
	if prev, ok := r.flows[chatID]; ok && prev.Step == "" {
		f.QuestionIndex = prev.QuestionIndex
		f.WaitingForDetail = prev.WaitingForDetail
	}
	r.flows[chatID] = f
	snap := encodeKeys(r.flows)
	r.mu.Unlock()
	if err := r.save(ctx, store.CollectionFlows, snap); err != nil {
		return FlowState{}, err
	}
	return f, nil
}

// AdvanceIntake moves the expert-help flow to its next step.
func (r *Registry) AdvanceIntake(ctx context.Context, chatID int64, step IntakeStep) error {
	r.mu.Lock()
	f, ok := r.flows[chatID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("session: no flow for chat %d", chatID)
	}
	f.Step = step
	r.flows[chatID] = f
	snap := encodeKeys(r.flows)
	r.mu.Unlock()
	return r.save(ctx, store.CollectionFlows, snap)
}

// SetQuestionnaireProgress records the current question and detail-wait flag.
func (r *Registry) SetQuestionnaireProgress(ctx context.Context, chatID int64, index int, waitingForDetail bool) error {
	r.mu.Lock()
	f, ok := r.flows[chatID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("session: no flow for chat %d", chatID)
	}
	f.QuestionIndex = index
	f.WaitingForDetail = waitingForDetail
	r.flows[chatID] = f
	snap := encodeKeys(r.flows)
	r.mu.Unlock()
	return r.save(ctx, store.CollectionFlows, snap)
}

// ClearFlow drops the flow record for a chat.
func (r *Registry) ClearFlow(ctx context.Context, chatID int64) error {
	r.mu.Lock()
	delete(r.flows, chatID)
	snap := encodeKeys(r.flows)
	r.mu.Unlock()
	return r.save(ctx, store.CollectionFlows, snap)
}

// AnswersFor returns a copy of the chat's questionnaire answers.
func (r *Registry) AnswersFor(chatID int64) AnswerSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := AnswerSet{}
	for k, v := range r.answers[chatID] {
		out[k] = v
	}
	return out
}

// SetAnswer records one questionnaire answer.
func (r *Registry) SetAnswer(ctx context.Context, chatID int64, key, value string) error {
	r.mu.Lock()
	set := r.answers[chatID]
	if set == nil {
		set = AnswerSet{}
		r.answers[chatID] = set
	}
	set[key] = value
	snap := encodeKeys(r.answers)
	r.mu.Unlock()
	return r.save(ctx, store.CollectionAnswers, snap)
}

// AppendAnswer attaches a free-text detail to an already chosen answer.
func (r *Registry) AppendAnswer(ctx context.Context, chatID int64, key, detail string) error {
	r.mu.Lock()
	set := r.answers[chatID]
	if set == nil {
		set = AnswerSet{}
		r.answers[chatID] = set
	}
	set[key] = set[key] + ": " + detail
	snap := encodeKeys(r.answers)
	r.mu.Unlock()
	return r.save(ctx, store.CollectionAnswers, snap)
}

// ClearAnswers drops the chat's questionnaire answers.
func (r *Registry) ClearAnswers(ctx context.Context, chatID int64) error {
	r.mu.Lock()
	delete(r.answers, chatID)
	snap := encodeKeys(r.answers)
	r.mu.Unlock()
	return r.save(ctx, store.CollectionAnswers, snap)
}

// Intake returns the expert-help record for a chat, if any.
func (r *Registry) Intake(chatID int64) (IntakeRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.intakes[chatID]
	return rec, ok
}

// BeginIntakeRecord opens a fresh expert-help record with the first field.
func (r *Registry) BeginIntakeRecord(ctx context.Context, chatID int64, description, email string) error {
	r.mu.Lock()
	r.intakes[chatID] = IntakeRecord{Description: description, Email: email}
	snap := encodeKeys(r.intakes)
	r.mu.Unlock()
	return r.save(ctx, store.CollectionIntakes, snap)
}

// SetIntakePhone records the phone field.
func (r *Registry) SetIntakePhone(ctx context.Context, chatID int64, phone string) error {
	r.mu.Lock()
	rec := r.intakes[chatID]
	rec.Phone = phone
	r.intakes[chatID] = rec
	snap := encodeKeys(r.intakes)
	r.mu.Unlock()
	return r.save(ctx, store.CollectionIntakes, snap)
}

// SetIntakeFIO records the full-name field.
func (r *Registry) SetIntakeFIO(ctx context.Context, chatID int64, fio string) error {
	r.mu.Lock()
	rec := r.intakes[chatID]
	rec.FIO = fio
	r.intakes[chatID] = rec
	snap := encodeKeys(r.intakes)
	r.mu.Unlock()
	return r.save(ctx, store.CollectionIntakes, snap)
}

// ClearIntake drops the expert-help record for a chat.
func (r *Registry) ClearIntake(ctx context.Context, chatID int64) error {
	r.mu.Lock()
	delete(r.intakes, chatID)
	snap := encodeKeys(r.intakes)
	r.mu.Unlock()
	return r.save(ctx, store.CollectionIntakes, snap)
}

func (r *Registry) save(ctx context.Context, collection string, snapshot any) error {
	if err := r.store.Save(ctx, collection, snapshot); err != nil {
		logger.STORE.Error("collection save failed",
			slog.String("event", "collection.save"),
			slog.String("collection", collection),
			slog.String("err", err.Error()),
		)
		return err
	}
	return nil
}

// Collections are stored as JSON objects, so chat ids become decimal strings
// on disk and come back as int64 keys here.
func encodeKeys[V any](in map[int64]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[strconv.FormatInt(k, 10)] = v
	}
	return out
}

func decodeKeys[V any](in map[string]V) map[int64]V {
	out := make(map[int64]V, len(in))
	for k, v := range in {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		out[id] = v
	}
	return out
}
