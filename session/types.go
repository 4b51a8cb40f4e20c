package session

// State names a position in the per-chat conversation machine.
type State string

const (
	StateStart          State = "start"
	StateAwaitingEmail  State = "awaiting_email"
	StateAwaitingPhone  State = "awaiting_phone"
	StateAwaitingFIO    State = "awaiting_fio"
	StateQuestionnaire  State = "questionnaire"
	StateStrategiesMenu State = "investment_strategies_start"
)

// Known reports whether s is one of the states the bot can resume from.
func (s State) Known() bool {
	switch s {
	case StateStart, StateAwaitingEmail, StateAwaitingPhone,
		StateAwaitingFIO, StateQuestionnaire, StateStrategiesMenu:
		return true
	}
	return false
}

// Session is the durable per-chat record.
type Session struct {
	ChatID        int64  `json:"chatId"`
	Language      string `json:"language,omitempty"`
	State         State  `json:"state"`
	LastMessageID int    `json:"lastMessageId,omitempty"`
}

// Locale returns the stored language, falling back to def when none was saved.
func (s *Session) Locale(def string) string {
	if s != nil && s.Language != "" {
		return s.Language
	}
	return def
}

// IntakeStep names the field the expert-help flow is waiting for.
type IntakeStep string

const (
	StepEmail IntakeStep = "awaitingEmail"
	StepPhone IntakeStep = "awaitingPhone"
	StepFIO   IntakeStep = "awaitingFIO"
)

// FlowState is the durable progress of an in-flight guided flow.
// Step is set for the expert intake; QuestionIndex and WaitingForDetail
// belong to the questionnaire. Token fences stale input from a previous
// process incarnation.
type FlowState struct {
	Step             IntakeStep `json:"step,omitempty"`
	QuestionIndex    int        `json:"currentQuestionIndex,omitempty"`
	WaitingForDetail bool       `json:"waitingForDetail,omitempty"`
	Token            string     `json:"processToken"`
}

// AnswerSet holds questionnaire answers keyed "question1".."question11".
type AnswerSet map[string]string

// IntakeRecord accumulates the expert-help contact fields.
type IntakeRecord struct {
	Description string `json:"description"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	FIO         string `json:"fio,omitempty"`
}
