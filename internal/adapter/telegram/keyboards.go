package telegram

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"detailing-intake-bot/internal/domain"
)

const labelSharePhone = "📱 Отправить номер"

// Админ-меню
const (
	labelBroadcast = "Рассылка"
	labelStats     = "Статистика"
	labelFunnel    = "Воронка"
	labelLeads     = "Заявки"
)

var adminMenu = []string{labelBroadcast, labelStats, labelFunnel, labelLeads}

// Callback actions carried in inline buttons as "action:arg".
const (
	cbReply  = "reply"
	cbInWork = "inwork"
	cbReject = "reject"
	cbDone   = "done"
	cbEnd    = "end"
	cbLeads  = "leads"
)

// replyKeyboard lays long menus out two per row and short ones one per row.
func replyKeyboard(choices []string, requestContact bool) tgbotapi.ReplyKeyboardMarkup {
	perRow := 1
	if len(choices) > 4 {
		perRow = 2
	}
	rows := make([][]tgbotapi.KeyboardButton, 0, len(choices)/perRow+2)
	if requestContact {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonContact(labelSharePhone)))
	}
	for i := 0; i < len(choices); i += perRow {
		end := i + perRow
		if end > len(choices) {
			end = len(choices)
		}
		row := make([]tgbotapi.KeyboardButton, 0, perRow)
		for _, c := range choices[i:end] {
			row = append(row, tgbotapi.NewKeyboardButton(c))
		}
		rows = append(rows, row)
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

// cardKeyboard returns the actions still available for a lead in status.
func cardKeyboard(leadID int64, status domain.LeadStatus) tgbotapi.InlineKeyboardMarkup {
	id := strconv.FormatInt(leadID, 10)
	reply := tgbotapi.NewInlineKeyboardButtonData("💬 Ответить клиенту", cbReply+":"+id)
	reject := tgbotapi.NewInlineKeyboardButtonData("❌ Отказ", cbReject+":"+id)
	switch status {
	case domain.LeadNew:
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(reply),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔧 В работу", cbInWork+":"+id), reject),
		)
	case domain.LeadInWork:
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(reply),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🏁 Завершить", cbDone+":"+id), reject),
		)
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
}

func summaryKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🆕 Новые", cbLeads+":"+string(domain.LeadNew)),
		tgbotapi.NewInlineKeyboardButtonData("🔧 В работе", cbLeads+":"+string(domain.LeadInWork)),
	))
}

func parseCallback(data string) (action, arg string) {
	action, arg, _ = strings.Cut(data, ":")
	return action, arg
}

func callbackLeadID(arg string) (int64, bool) {
	id, err := strconv.ParseInt(arg, 10, 64)
	return id, err == nil && id > 0
}
