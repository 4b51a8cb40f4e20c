package dialog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/condor-estates/condorbot/logger"
	"github.com/condor-estates/condorbot/session"
)

// Question is one questionnaire step. CustomOption points at the option
// that asks for a free-text clarification; -1 means no such option.
// Questions without options expect free text and hide the reply keyboard.
type Question struct {
	Text         string
	Options      []string
	CustomOption int
}

var questions = []Question{
	{
		Text: "Какова основная цель вашей инвестиции в недвижимость на Бали?",
		Options: []string{
			"Для личного проживания",
			"Для получения дохода от аренды",
			"Для перепродажи с прибылью",
			"Другое (пожалуйста, уточните)",
		},
		CustomOption: 3,
	},
	{
		Text: "Каким типом недвижимости вы интересуетесь?",
		Options: []string{
			"Апартаменты",
			"Вилла",
			"Земельный участок",
			"Коммерческая недвижимость",
			"Другое (пожалуйста, уточните)",
		},
		CustomOption: 4,
	},
	{
		Text: "Каков ваш бюджет на покупку недвижимости?",
		Options: []string{
			"До $100,000",
			"$100,000 - $300,000",
			"$300,000 - $500,000",
			"$500,000 - $1,000,000",
			"Более $1,000,000",
		},
		CustomOption: -1,
	},
	{
		Text: "В каком районе Бали вы предпочитаете инвестировать?",
		Options: []string{
			"Кута",
			"Семиньяк",
			"Чангу",
			"Убуд",
			"Джимбаран",
			"Другие районы (пожалуйста, уточните)",
		},
		CustomOption: 5,
	},
	{
		Text: "Какую ожидаемую доходность или выгоду вы планируете получить от инвестиций в недвижимость на Бали?",
		Options: []string{
			"До 5% годовых",
			"5-10% годовых",
			"10-15% годовых",
			"Более 15% годовых",
			"Трудно сказать, рассчитываю на вашу помощь в оценке",
		},
		CustomOption: -1,
	},
	{
		Text: "Когда вы планируете совершить покупку недвижимости?",
		Options: []string{
			"В течение ближайших 3 месяцев",
			"В течение 6 месяцев",
			"В течение года",
			"Более года",
		},
		CustomOption: -1,
	},
	{
		Text: "Есть ли у вас какие-либо особые требования или предпочтения к недвижимости, которую вы ищете?",
		Options: []string{
			"Да (пожалуйста, уточните)",
			"Нет",
		},
		CustomOption: 0,
	},
	{
		Text: "Метод оплаты?",
		Options: []string{
			"Банковский перевод",
			"Криптовалюта",
			"Оплата наличными",
		},
		CustomOption: -1,
	},
	{
		Text: "Как вы хотели бы произвести оплату?",
		Options: []string{
			"Рассрочка",
			"Полная сумма",
		},
		CustomOption: -1,
	},
	{
		Text:         "Пожалуйста, введите ваше полное ФИО:",
		CustomOption: -1,
	},
	{
		Text:         "Пожалуйста, введите ваш контактный телефон:",
		CustomOption: -1,
	},
}

// summaryLabels format the operator report for the completed questionnaire.
var summaryLabels = []string{
	"<b>1. Цель инвестиции:</b>",
	"<b>2. Тип недвижимости:</b>",
	"<b>3. Бюджет:</b>",
	"<b>4. Предпочитаемый район:</b>",
	"<b>5. Ожидаемая доходность:</b>",
	"<b>6. Время покупки:</b>",
	"<b>7. Особые требования:</b>",
	"<b>8. Способ оплаты:</b>",
	"<b>9. Предпочтение в оплате:</b>",
	"<b>Полное ФИО:</b>",
	"<b>Контактный телефон:</b>",
}

// OpenQuestionnaire starts the questionnaire or resumes it from the
// persisted question index after a restart.
func (e *Engine) OpenQuestionnaire(ctx context.Context, chatID int64, messageID int) error {
	e.sender.ClearInlineKeyboard(ctx, chatID, messageID)

	if err := e.sessions.Reload(ctx); err != nil {
		logger.DLG.Error("state reload failed",
			slog.String("event", "flow.begin"),
			slog.String("flow", "questionnaire"),
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()),
		)
	}

	sess, ok := e.sessions.Session(chatID)
	if !ok {
		logger.DLG.Warn("questionnaire without session",
			slog.String("event", "flow.begin"),
			slog.String("flow", "questionnaire"),
			slog.Int64("chat_id", chatID),
			slog.String("outcome", "drop"),
		)
		return nil
	}
	lang := sess.Locale(e.defaultLang)

	if err := e.sessions.SetState(ctx, chatID, session.StateQuestionnaire); err != nil {
		return err
	}
	if err := e.sessions.SetLastMessageID(ctx, chatID, messageID); err != nil {
		return err
	}

	flow, err := e.sessions.BeginQuestionnaire(ctx, chatID)
	if err != nil {
		return err
	}
	e.registerActive(chatID, flow.Token, flowQuestionnaire)

	logger.DLG.Info("questionnaire started",
		slog.String("event", "flow.begin"),
		slog.String("flow", "questionnaire"),
		slog.Int64("chat_id", chatID),
		slog.Int("question", flow.QuestionIndex),
	)
	return e.sendQuestion(ctx, chatID, lang, flow.QuestionIndex)
}

func (e *Engine) sendQuestion(ctx context.Context, chatID int64, lang string, index int) error {
	if index < 0 || index >= len(questions) {
		return nil
	}
	q := questions[index]

	msg := Message{Text: e.t(ctx, lang, q.Text)}
	if len(q.Options) > 0 {
		rows := make([][]string, 0, len(q.Options))
		for _, opt := range q.Options {
			rows = append(rows, []string{e.t(ctx, lang, opt)})
		}
		msg.Options = rows
	} else {
		msg.RemoveKeyboard = true
	}

	_, err := e.sender.Send(ctx, chatID, msg)
	return err
}

func (e *Engine) handleQuestionnaireText(ctx context.Context, chatID int64, flow session.FlowState, text string) error {
	if flow.QuestionIndex < 0 || flow.QuestionIndex >= len(questions) {
		logger.DLG.Warn("question index out of range",
			slog.String("event", "flow.step"),
			slog.String("flow", "questionnaire"),
			slog.Int64("chat_id", chatID),
			slog.Int("question", flow.QuestionIndex),
		)
		return e.sessions.ClearFlow(ctx, chatID)
	}

	lang := e.chatLang(chatID)
	q := questions[flow.QuestionIndex]
	key := answerKey(flow.QuestionIndex)

	if flow.WaitingForDetail {
		if err := e.sessions.AppendAnswer(ctx, chatID, key, text); err != nil {
			return err
		}
		return e.advanceQuestion(ctx, chatID, lang, flow.QuestionIndex+1)
	}

	if q.CustomOption >= 0 && text == e.t(ctx, lang, q.Options[q.CustomOption]) {
		if err := e.sessions.SetAnswer(ctx, chatID, key, text); err != nil {
			return err
		}
		if err := e.sessions.SetQuestionnaireProgress(ctx, chatID, flow.QuestionIndex, true); err != nil {
			return err
		}
		_, err := e.sender.Send(ctx, chatID, Message{
			Text:           e.t(ctx, lang, detailPromptText),
			RemoveKeyboard: true,
		})
		return err
	}

	if err := e.sessions.SetAnswer(ctx, chatID, key, text); err != nil {
		return err
	}
	return e.advanceQuestion(ctx, chatID, lang, flow.QuestionIndex+1)
}

func (e *Engine) advanceQuestion(ctx context.Context, chatID int64, lang string, next int) error {
	if next < len(questions) {
		if err := e.sessions.SetQuestionnaireProgress(ctx, chatID, next, false); err != nil {
			return err
		}
		logger.DLG.Debug("questionnaire step",
			slog.String("event", "flow.step"),
			slog.String("flow", "questionnaire"),
			slog.Int64("chat_id", chatID),
			slog.Int("question", next),
		)
		return e.sendQuestion(ctx, chatID, lang, next)
	}
	return e.finishQuestionnaire(ctx, chatID, lang)
}

func (e *Engine) finishQuestionnaire(ctx context.Context, chatID int64, lang string) error {
	answers := e.sessions.AnswersFor(chatID)

	var b strings.Builder
	b.WriteString("<b>📝 Анкета заполнена</b>\n")
	for i, label := range summaryLabels {
		b.WriteString(fmt.Sprintf("\n%s %s", label, answers[answerKey(i)]))
	}
	if err := e.sender.NotifyOperator(ctx, b.String(), true); err != nil {
		logger.DLG.Error("operator notify failed",
			slog.String("event", "flow.complete"),
			slog.String("flow", "questionnaire"),
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()),
		)
	}

	_, err := e.sender.Send(ctx, chatID, Message{
		Text:    e.t(ctx, lang, questionnaireDoneText),
		Buttons: e.followUpButtons(ctx, lang),
	})
	if err != nil {
		return err
	}

	if err := e.sessions.ClearAnswers(ctx, chatID); err != nil {
		return err
	}
	if err := e.sessions.ClearFlow(ctx, chatID); err != nil {
		return err
	}
	e.dropActive(chatID)
	if err := e.sessions.SetState(ctx, chatID, session.StateStart); err != nil {
		return err
	}

	logger.DLG.Info("questionnaire complete",
		slog.String("event", "flow.complete"),
		slog.String("flow", "questionnaire"),
		slog.Int64("chat_id", chatID),
		slog.String("outcome", "ok"),
	)
	return nil
}

func answerKey(index int) string {
	return fmt.Sprintf("question%d", index+1)
}
