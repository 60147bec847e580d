package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"detailing-intake-bot/internal/domain"
	"detailing-intake-bot/internal/extract"
)

// ErrBridgeBusy is returned when either side of a new admin dialog is already
// talking to someone else.
var ErrBridgeBusy = errors.New("admin dialog already open")

const (
	MessageKindText    = "text"
	MessageKindContact = "contact"
)

// Inbound is one message from a client as the transport sees it.
type Inbound struct {
	SenderID    int64
	Text        string
	DisplayName string
	Handle      string
	// Contact is set when Text came from a shared contact card.
	Contact bool
}

type Outbound struct {
	ChatID         int64
	Text           string
	Choices        []string
	RemoveKeyboard bool
	RequestContact bool
}

// Turn is everything one incoming message produced.
type Turn struct {
	Messages []Outbound
	Handoff  *HandoffEvent
}

// Orchestrator runs a turn end to end: admin bridge first, then extraction,
// the dialog transition and the lead writes. A turn that fails on storage
// leaves the session where it was.
type Orchestrator struct {
	dialog   *Dialog
	sessions *SessionStore
	leads    *LeadAggregator
	users    domain.UserRepository
	messages domain.MessageRepository

	funnel *FunnelUsecase
	rec    Recorder
	logger *slog.Logger
}

type OrchestratorOption func(*Orchestrator)

func WithFunnel(f *FunnelUsecase) OrchestratorOption {
	return func(o *Orchestrator) { o.funnel = f }
}

func WithRecorder(r Recorder) OrchestratorOption {
	return func(o *Orchestrator) {
		if r != nil {
			o.rec = r
		}
	}
}

func WithLogger(l *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

func NewOrchestrator(dialog *Dialog, sessions *SessionStore, leads *LeadAggregator, users domain.UserRepository, messages domain.MessageRepository, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		dialog:   dialog,
		sessions: sessions,
		leads:    leads,
		users:    users,
		messages: messages,
		rec:      nopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Handle processes one client message.
func (o *Orchestrator) Handle(ctx context.Context, in Inbound) (Turn, error) {
	unlock := o.sessions.Lock(in.SenderID)
	defer unlock()

	s := o.sessions.Get(in.SenderID)
	if s.Bridge != nil {
		return o.relay(ctx, in.SenderID, in.Text, *s.Bridge, false)
	}

	text := strings.TrimSpace(in.Text)
	if text == CommandStart {
		return o.start(ctx, in)
	}

	tr := o.dialog.Handle(s, text, extract.Parse(text))
	next := tr.Next
	leadID := s.LeadID

	if tr.OpenLead {
		res, err := o.leads.Open(ctx, in.SenderID, s.SpamConfirmed)
		if err != nil {
			return o.fail(in.SenderID, err)
		}
		if res.Blocked {
			return o.spamBlocked(ctx, in, s, res.Message)
		}
		o.rec.LeadOpened(res.Created)
		leadID = res.Lead.ID
		next.LeadID = leadID
	}

	var ref *int64
	if leadID != 0 {
		ref = domain.Ptr(leadID)
	}
	if err := o.appendMessage(ctx, in, ref); err != nil {
		return o.fail(in.SenderID, err)
	}
	if !tr.Commit.IsEmpty() {
		if leadID == 0 {
			lead, err := o.leads.GetOrCreateActiveLead(ctx, in.SenderID)
			if err != nil {
				return o.fail(in.SenderID, err)
			}
			leadID = lead.ID
		}
		if err := o.leads.CommitFields(ctx, leadID, tr.Commit); err != nil {
			return o.fail(in.SenderID, err)
		}
	}

	turn := Turn{Messages: outbound(in.SenderID, tr.Replies)}
	if tr.Submit {
		ev, err := o.submit(ctx, in, leadID, tr.Commit)
		if err != nil {
			return o.fail(in.SenderID, err)
		}
		turn.Handoff = &ev
	}

	o.sessions.Put(in.SenderID, next)
	o.rec.Turn(next.Flow, next.Step)
	if next.Flow != s.Flow || next.Step != s.Step {
		o.reach(ctx, in.SenderID, next.Step)
	}
	o.logger.Debug("turn handled",
		"chat_id", in.SenderID,
		"lead_id", leadID,
		"flow", next.Flow,
		"step", next.Step,
	)
	return turn, nil
}

// Reset puts the client back to the main menu with a greeting.
func (o *Orchestrator) Reset(ctx context.Context, in Inbound) (Turn, error) {
	unlock := o.sessions.Lock(in.SenderID)
	defer unlock()
	return o.start(ctx, in)
}

func (o *Orchestrator) start(ctx context.Context, in Inbound) (Turn, error) {
	if err := o.upsertUser(ctx, in); err != nil {
		return o.fail(in.SenderID, err)
	}
	o.sessions.Reset(in.SenderID)
	o.reach(ctx, in.SenderID, StepChoosingService)

	name := domain.User{FirstName: in.DisplayName, Username: in.Handle}.DisplayName()
	text := fmt.Sprintf("Здравствуйте, %s! 👋\n\nЯ помогу вам записаться на услуги детейлинг-студии.\n\n%s", name, textChooseService)
	return Turn{Messages: []Outbound{{ChatID: in.SenderID, Text: text, Choices: mainMenu}}}, nil
}

func (o *Orchestrator) spamBlocked(ctx context.Context, in Inbound, s Session, msg string) (Turn, error) {
	if err := o.appendMessage(ctx, in, nil); err != nil {
		return o.fail(in.SenderID, err)
	}
	s.SpamConfirmed = true
	o.sessions.Put(in.SenderID, s)
	o.rec.SpamBlocked()
	o.logger.Info("lead creation throttled", "chat_id", in.SenderID)
	return Turn{Messages: []Outbound{{
		ChatID:  in.SenderID,
		Text:    msg + "\n\nЕсли да — выберите услугу ещё раз.",
		Choices: mainMenu,
	}}}, nil
}

// submit hands off what this session collected. A reused lead may still hold
// fields of an earlier request, so the stored row only supplies identity.
func (o *Orchestrator) submit(ctx context.Context, in Inbound, leadID int64, collected domain.LeadFields) (HandoffEvent, error) {
	if err := o.upsertUser(ctx, in); err != nil {
		return HandoffEvent{}, err
	}
	user, err := o.users.FindUser(ctx, in.SenderID)
	if err != nil {
		return HandoffEvent{}, fmt.Errorf("find user: %w", err)
	}
	lead, err := o.leads.Submit(ctx, leadID)
	if err != nil {
		return HandoffEvent{}, err
	}
	ev := NewHandoff(*lead, user, o.leads.Now()).WithFields(collected)
	o.rec.LeadSubmitted(deref(collected.Service), ev.IsUrgent)
	o.reach(ctx, in.SenderID, StepSubmit)
	o.logger.Info("lead submitted",
		"chat_id", in.SenderID,
		"lead_id", lead.ID,
		"handoff_id", ev.ID.String(),
		"urgent", ev.IsUrgent,
		"red_flag", ev.IsRedFlag,
	)
	return ev, nil
}

// HandleAdmin relays an administrator's message to the client of the open
// admin dialog. ok is false when the admin has no dialog open.
func (o *Orchestrator) HandleAdmin(ctx context.Context, adminID int64, text string) (Turn, bool, error) {
	unlock := o.sessions.Lock(adminID)
	defer unlock()

	s := o.sessions.Get(adminID)
	if s.Bridge == nil {
		return Turn{}, false, nil
	}
	turn, err := o.relay(ctx, adminID, text, *s.Bridge, true)
	return turn, true, err
}

// OpenBridge pairs the admin with the client of leadID. From now on the
// client's messages bypass the dialog and go to the admin verbatim.
func (o *Orchestrator) OpenBridge(ctx context.Context, adminID, leadID int64) (Turn, error) {
	lead, err := o.leads.Get(ctx, leadID)
	if err != nil {
		return Turn{}, err
	}
	clientID := lead.UserID

	unlock := o.sessions.Lock(adminID, clientID)
	defer unlock()

	as := o.sessions.Get(adminID)
	cs := o.sessions.Get(clientID)
	if as.Bridge != nil && as.Bridge.Peer != clientID {
		return Turn{}, ErrBridgeBusy
	}
	if cs.Bridge != nil && cs.Bridge.Peer != adminID {
		return Turn{}, ErrBridgeBusy
	}
	if err := o.users.SetAdminDialog(ctx, clientID, domain.Ptr(leadID)); err != nil {
		return Turn{}, fmt.Errorf("open admin dialog: %w", err)
	}

	as.Bridge = &Bridge{Peer: clientID, LeadID: leadID}
	cs.Bridge = &Bridge{Peer: adminID, LeadID: leadID}
	o.sessions.Put(adminID, as)
	o.sessions.Put(clientID, cs)
	o.logger.Info("admin dialog opened", "admin_id", adminID, "chat_id", clientID, "lead_id", leadID, "flow", FlowAdminDialog)

	return Turn{Messages: []Outbound{
		{ChatID: adminID, Text: "💬 Диалог с клиентом открыт.\n\nВсё, что вы напишете — увидит клиент.\nДля завершения нажмите «Завершить диалог».", Choices: []string{LabelEndDialog}},
		{ChatID: clientID, Text: "💬 С вами на связи менеджер студии. Пишите сюда, он ответит.", RemoveKeyboard: true},
	}}, nil
}

// CloseBridge ends the admin's open dialog and returns the client to the main
// menu.
func (o *Orchestrator) CloseBridge(ctx context.Context, adminID int64) (Turn, error) {
	peer := o.peerOf(adminID)
	noDialog := Turn{Messages: []Outbound{{ChatID: adminID, Text: "Активного диалога нет."}}}
	if peer == 0 {
		return noDialog, nil
	}

	unlock := o.sessions.Lock(adminID, peer)
	defer unlock()

	as := o.sessions.Get(adminID)
	if as.Bridge == nil || as.Bridge.Peer != peer {
		return noDialog, nil
	}
	leadID := as.Bridge.LeadID
	if err := o.users.SetAdminDialog(ctx, peer, nil); err != nil {
		return Turn{}, fmt.Errorf("close admin dialog: %w", err)
	}

	as.Bridge = nil
	o.sessions.Put(adminID, as)
	o.sessions.Put(peer, NewSession())
	o.logger.Info("admin dialog closed", "admin_id", adminID, "chat_id", peer, "lead_id", leadID)

	return Turn{Messages: []Outbound{
		{ChatID: adminID, Text: "✅ Диалог завершён.", RemoveKeyboard: true},
		{ChatID: peer, Text: "Менеджер завершил диалог. Если остались вопросы — выберите услугу:", Choices: mainMenu},
	}}, nil
}

func (o *Orchestrator) peerOf(id int64) int64 {
	unlock := o.sessions.Lock(id)
	defer unlock()
	if b := o.sessions.Get(id).Bridge; b != nil {
		return b.Peer
	}
	return 0
}

func (o *Orchestrator) relay(ctx context.Context, from int64, text string, b Bridge, fromAdmin bool) (Turn, error) {
	clientID := from
	out := fmt.Sprintf("💬 Клиент (заявка #%d): %s", b.LeadID, text)
	if fromAdmin {
		clientID = b.Peer
		out = "💬 Менеджер: " + text
	}
	err := o.messages.AppendMessage(ctx, domain.Message{
		UserID:    clientID,
		LeadID:    domain.Ptr(b.LeadID),
		FromAdmin: fromAdmin,
		Text:      text,
		Kind:      MessageKindText,
		CreatedAt: o.leads.Now(),
	})
	if err != nil {
		return o.fail(from, fmt.Errorf("append relayed message: %w", err))
	}
	o.rec.Relayed(fromAdmin)
	return Turn{Messages: []Outbound{{ChatID: b.Peer, Text: out}}}, nil
}

func (o *Orchestrator) appendMessage(ctx context.Context, in Inbound, leadID *int64) error {
	kind := MessageKindText
	if in.Contact {
		kind = MessageKindContact
	}
	err := o.messages.AppendMessage(ctx, domain.Message{
		UserID:    in.SenderID,
		LeadID:    leadID,
		Text:      in.Text,
		Kind:      kind,
		CreatedAt: o.leads.Now(),
	})
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (o *Orchestrator) upsertUser(ctx context.Context, in Inbound) error {
	now := o.leads.Now()
	err := o.users.UpsertUser(ctx, domain.User{
		ChatID:    in.SenderID,
		Username:  strings.TrimPrefix(in.Handle, "@"),
		FirstName: in.DisplayName,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// reach never fails a turn: analytics are best effort.
func (o *Orchestrator) reach(ctx context.Context, chatID int64, step Step) {
	if err := o.funnel.Reach(ctx, chatID, step); err != nil {
		o.logger.Warn("funnel hit failed", "chat_id", chatID, "step", step, "error", err)
	}
}

func (o *Orchestrator) fail(chatID int64, err error) (Turn, error) {
	o.rec.TurnFailed()
	return Turn{}, fmt.Errorf("turn for chat %d: %w", chatID, err)
}

func outbound(chatID int64, replies []Reply) []Outbound {
	out := make([]Outbound, 0, len(replies))
	for _, r := range replies {
		out = append(out, Outbound{
			ChatID:         chatID,
			Text:           r.Text,
			Choices:        r.Options,
			RemoveKeyboard: r.RemoveKeyboard,
			RequestContact: r.RequestContact,
		})
	}
	return out
}
