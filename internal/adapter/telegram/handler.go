package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"detailing-intake-bot/internal/domain"
	"detailing-intake-bot/internal/usecase"
)

const (
	textApology      = "Извините, что-то пошло не так 🙏 Попробуйте ещё раз чуть позже."
	textAccessDenied = "Доступ запрещен"
)

// Handler routes Telegram updates to the orchestrator and the admin tools.
// Updates of one chat are always processed in order; different chats run in
// parallel.
type Handler struct {
	sender    *Sender
	orch      *usecase.Orchestrator
	desk      *usecase.AdminDesk
	broadcast *usecase.BroadcastUsecase
	funnel    *usecase.FunnelUsecase
	notifier  *Notifier
	isAdmin   func(chatID int64) bool
	workers   int
	logger    *slog.Logger

	mu     sync.Mutex
	drafts map[int64]*usecase.BroadcastDraft
}

type Deps struct {
	Sender       *Sender
	Orchestrator *usecase.Orchestrator
	Desk         *usecase.AdminDesk
	Broadcast    *usecase.BroadcastUsecase
	Funnel       *usecase.FunnelUsecase
	Notifier     *Notifier
	IsAdmin      func(chatID int64) bool
	Workers      int
	Logger       *slog.Logger
}

func NewHandler(d Deps) *Handler {
	h := &Handler{
		sender:    d.Sender,
		orch:      d.Orchestrator,
		desk:      d.Desk,
		broadcast: d.Broadcast,
		funnel:    d.Funnel,
		notifier:  d.Notifier,
		isAdmin:   d.IsAdmin,
		workers:   d.Workers,
		logger:    d.Logger,
		drafts:    make(map[int64]*usecase.BroadcastDraft),
	}
	if h.isAdmin == nil {
		h.isAdmin = func(int64) bool { return false }
	}
	if h.workers <= 0 {
		h.workers = 8
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Run consumes updates until ctx is cancelled or the channel is closed.
func (h *Handler) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	shards := make([]chan tgbotapi.Update, h.workers)
	var wg sync.WaitGroup
	for i := range shards {
		shards[i] = make(chan tgbotapi.Update, 16)
		wg.Add(1)
		go func(in <-chan tgbotapi.Update) {
			defer wg.Done()
			for upd := range in {
				h.HandleUpdate(ctx, upd)
			}
		}(shards[i])
	}
	defer func() {
		for _, ch := range shards {
			close(ch)
		}
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			chatID := updateChatID(upd)
			if chatID == 0 {
				continue
			}
			idx := int(uint64(chatID) % uint64(len(shards)))
			select {
			case shards[idx] <- upd:
			case <-ctx.Done():
				return
			}
		}
	}
}

func updateChatID(upd tgbotapi.Update) int64 {
	switch {
	case upd.Message != nil && upd.Message.Chat != nil:
		return upd.Message.Chat.ID
	case upd.CallbackQuery != nil && upd.CallbackQuery.From != nil:
		return upd.CallbackQuery.From.ID
	}
	return 0
}

// HandleUpdate processes one update synchronously.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.CallbackQuery != nil:
		h.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil && upd.Message.Chat != nil:
		h.handleMessage(ctx, upd.Message)
	}
}

func (h *Handler) handleMessage(ctx context.Context, m *tgbotapi.Message) {
	chatID := m.Chat.ID
	text := strings.TrimSpace(m.Text)

	if text == "/admin" || text == "/leads" {
		if !h.isAdmin(chatID) {
			h.sendText(ctx, chatID, textAccessDenied)
			h.logger.Warn("admin denied", "chat_id", chatID)
			return
		}
	}
	if h.isAdmin(chatID) && h.handleAdmin(ctx, m, text) {
		return
	}

	in := usecase.Inbound{SenderID: chatID, Text: text}
	if u := m.From; u != nil {
		in.DisplayName = strings.TrimSpace(u.FirstName + " " + u.LastName)
		in.Handle = u.UserName
	}
	if m.Contact != nil {
		in.Text = m.Contact.PhoneNumber
		in.Contact = true
	}
	if in.Text == "" {
		in.Text = strings.TrimSpace(m.Caption)
	}
	if in.Text == "" {
		return
	}

	turn, err := h.orch.Handle(ctx, in)
	if err != nil {
		h.logger.Error("turn failed", "chat_id", chatID, "error", err)
		h.sendText(ctx, chatID, textApology)
		return
	}
	h.deliver(ctx, turn)
}

// handleAdmin reports whether the message was consumed by admin tooling.
func (h *Handler) handleAdmin(ctx context.Context, m *tgbotapi.Message, text string) bool {
	chatID := m.Chat.ID
	switch text {
	case "/admin":
		h.send(ctx, usecase.Outbound{ChatID: chatID, Text: "Админ-меню", Choices: adminMenu})
		h.logger.Info("admin opened menu", "chat_id", chatID)
		return true
	case "/leads", labelLeads:
		h.leadSummary(ctx, chatID)
		return true
	case labelBroadcast:
		msg := h.broadcast.Start(h.draft(chatID))
		h.send(ctx, usecase.Outbound{ChatID: chatID, Text: msg, RemoveKeyboard: true})
		h.logger.Info("broadcast start", "chat_id", chatID)
		return true
	case labelStats:
		h.sendText(ctx, chatID, h.broadcast.StatsSummary(ctx, 5))
		return true
	case labelFunnel:
		h.sendFunnel(ctx, chatID)
		return true
	case usecase.LabelEndDialog:
		turn, err := h.orch.CloseBridge(ctx, chatID)
		if err != nil {
			h.logger.Error("close admin dialog failed", "chat_id", chatID, "error", err)
			h.sendText(ctx, chatID, textApology)
			return true
		}
		h.deliver(ctx, turn)
		return true
	}

	if text != "" {
		turn, ok, err := h.orch.HandleAdmin(ctx, chatID, text)
		if err != nil {
			h.logger.Error("admin relay failed", "chat_id", chatID, "error", err)
			h.sendText(ctx, chatID, textApology)
			return true
		}
		if ok {
			h.deliver(ctx, turn)
			return true
		}
	}

	d := h.activeDraft(chatID)
	if d == nil {
		return false
	}
	if len(m.Photo) > 0 {
		ph := m.Photo[len(m.Photo)-1]
		msg, opts := h.broadcast.ReceivePhoto(d, ph.FileID, m.Caption)
		h.send(ctx, usecase.Outbound{ChatID: chatID, Text: msg, Choices: opts})
		return true
	}
	switch d.State {
	case usecase.BStateEnter:
		msg, opts := h.broadcast.ReceiveText(d, text)
		h.send(ctx, usecase.Outbound{ChatID: chatID, Text: msg, Choices: opts})
	case usecase.BStateConfirm:
		msg, err := h.broadcast.Confirm(ctx, d, text)
		if err != nil {
			h.logger.Error("broadcast failed", "chat_id", chatID, "error", err)
			msg = textApology
		}
		if d.State == usecase.BStateIdle {
			h.send(ctx, usecase.Outbound{ChatID: chatID, Text: msg, Choices: adminMenu})
			h.logger.Info("broadcast confirm", "chat_id", chatID)
		} else {
			h.sendText(ctx, chatID, msg)
		}
	}
	return true
}

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if err := h.sender.Answer(ctx, cb.ID); err != nil {
		h.logger.Warn("answer callback failed", "error", err)
	}
	if cb.From == nil {
		return
	}
	adminID := cb.From.ID
	if !h.isAdmin(adminID) {
		h.logger.Warn("callback from non-admin", "chat_id", adminID, "data", cb.Data)
		return
	}

	action, arg := parseCallback(cb.Data)
	if action == cbLeads {
		h.leadCards(ctx, adminID, domain.LeadStatus(arg))
		return
	}
	leadID, ok := callbackLeadID(arg)
	if !ok {
		h.logger.Warn("bad callback", "chat_id", adminID, "data", cb.Data)
		return
	}
	log := h.logger.With("chat_id", adminID, "lead_id", leadID)

	switch action {
	case cbReply:
		turn, err := h.orch.OpenBridge(ctx, adminID, leadID)
		switch {
		case errors.Is(err, usecase.ErrBridgeBusy):
			h.sendText(ctx, adminID, "Уже открыт другой диалог. Сначала завершите его.")
		case errors.Is(err, domain.ErrLeadNotFound):
			h.sendText(ctx, adminID, fmt.Sprintf("Заявка #%d не найдена.", leadID))
		case err != nil:
			log.Error("open admin dialog failed", "error", err)
			h.sendText(ctx, adminID, textApology)
		default:
			h.deliver(ctx, turn)
		}
	case cbEnd:
		turn, err := h.orch.CloseBridge(ctx, adminID)
		if err != nil {
			log.Error("close admin dialog failed", "error", err)
			h.sendText(ctx, adminID, textApology)
			return
		}
		h.deliver(ctx, turn)
	case cbInWork, cbReject, cbDone:
		status, err := h.changeStatus(ctx, action, leadID)
		if err != nil {
			log.Error("lead status change failed", "action", action, "error", err)
			h.sendText(ctx, adminID, textApology)
			return
		}
		log.Info("lead status changed", "status", status)
		if cb.Message != nil && cb.Message.Chat != nil {
			if err := h.sender.EditMarkup(ctx, cb.Message.Chat.ID, cb.Message.MessageID, cardKeyboard(leadID, status)); err != nil {
				log.Warn("edit lead card failed", "error", err)
			}
		}
		h.sendText(ctx, adminID, fmt.Sprintf("%s: заявка #%d", usecase.StatusNote(status), leadID))
	default:
		log.Warn("unknown callback", "data", cb.Data)
	}
}

func (h *Handler) changeStatus(ctx context.Context, action string, leadID int64) (domain.LeadStatus, error) {
	switch action {
	case cbInWork:
		return domain.LeadInWork, h.desk.SetInWork(ctx, leadID)
	case cbReject:
		return domain.LeadRejected, h.desk.Reject(ctx, leadID)
	default:
		return domain.LeadCompleted, h.desk.Complete(ctx, leadID)
	}
}

func (h *Handler) leadSummary(ctx context.Context, chatID int64) {
	text, err := h.desk.Summary(ctx)
	if err != nil {
		h.logger.Error("lead summary failed", "chat_id", chatID, "error", err)
		h.sendText(ctx, chatID, textApology)
		return
	}
	if err := h.sender.SendInline(ctx, chatID, text, summaryKeyboard()); err != nil {
		h.logger.Error("send failed", "chat_id", chatID, "error", err)
	}
}

func (h *Handler) leadCards(ctx context.Context, chatID int64, status domain.LeadStatus) {
	cards, err := h.desk.Cards(ctx, status)
	if err != nil {
		h.logger.Error("lead list failed", "chat_id", chatID, "status", status, "error", err)
		h.sendText(ctx, chatID, textApology)
		return
	}
	if len(cards) == 0 {
		h.sendText(ctx, chatID, "Заявок нет.")
		return
	}
	for _, c := range cards {
		if err := h.sender.SendInline(ctx, chatID, c.Text, cardKeyboard(c.LeadID, c.Status)); err != nil {
			h.logger.Error("send failed", "chat_id", chatID, "lead_id", c.LeadID, "error", err)
		}
	}
}

func (h *Handler) sendFunnel(ctx context.Context, chatID int64) {
	if h.funnel == nil {
		h.sendText(ctx, chatID, "Воронка недоступна")
		return
	}
	labels, values, err := h.funnel.GraphData(ctx)
	if err == nil {
		var png []byte
		png, err = renderFunnelChart(labels, values)
		if err == nil {
			name := "funnel_" + strconv.FormatInt(time.Now().UnixNano(), 10) + ".png"
			err = h.sender.SendPNG(ctx, chatID, name, png)
		}
	}
	if err != nil {
		h.logger.Error("funnel chart failed", "chat_id", chatID, "error", err)
		h.sendText(ctx, chatID, h.funnel.Chart(ctx))
	}
}

// deliver sends the turn's messages and hands off a submitted lead.
func (h *Handler) deliver(ctx context.Context, turn usecase.Turn) {
	for _, o := range turn.Messages {
		h.send(ctx, o)
	}
	if turn.Handoff != nil && h.notifier != nil {
		if err := h.notifier.Notify(ctx, *turn.Handoff); err != nil {
			h.logger.Error("lead handoff failed", "lead_id", turn.Handoff.LeadID, "error", err)
		}
	}
}

func (h *Handler) send(ctx context.Context, o usecase.Outbound) {
	if err := h.sender.SendOutbound(ctx, o); err != nil {
		h.logger.Error("send failed", "chat_id", o.ChatID, "error", err)
	}
}

func (h *Handler) sendText(ctx context.Context, chatID int64, text string) {
	h.send(ctx, usecase.Outbound{ChatID: chatID, Text: text})
}

func (h *Handler) draft(chatID int64) *usecase.BroadcastDraft {
	h.mu.Lock()
	defer h.mu.Unlock()
	d, ok := h.drafts[chatID]
	if !ok {
		d = &usecase.BroadcastDraft{State: usecase.BStateIdle}
		h.drafts[chatID] = d
	}
	return d
}

func (h *Handler) activeDraft(chatID int64) *usecase.BroadcastDraft {
	h.mu.Lock()
	defer h.mu.Unlock()
	d, ok := h.drafts[chatID]
	if !ok || d.State == usecase.BStateIdle {
		return nil
	}
	return d
}
