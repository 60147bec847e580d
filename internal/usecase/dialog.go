package usecase

import (
	"fmt"
	"strings"

	"detailing-intake-bot/internal/domain"
	"detailing-intake-bot/internal/extract"
)

// Логические состояния и ответы, независимые от Telegram

// Flow is the service scenario the user is in.
type Flow string

const (
	FlowNone     Flow = ""
	FlowPPF      Flow = "ppf"
	FlowColorPPF Flow = "color_ppf"
	FlowVinyl    Flow = "vinyl"
	FlowPolish   Flow = "polish"
	FlowCeramic  Flow = "ceramic"
	FlowWash     Flow = "wash"
	FlowTint     Flow = "tint"
	FlowCleaning Flow = "cleaning"
	FlowGeneric  Flow = "generic"
	// FlowAdminDialog marks relayed turns in logs and metrics; the relay itself
	// is driven by Session.Bridge, not by Flow.
	FlowAdminDialog Flow = "admin_dialog"
)

// Step is the position inside a flow.
type Step string

const (
	StepChoosingService   Step = "choosing_service"
	StepChoosingVariant   Step = "choosing_variant"
	StepAskingZones       Step = "asking_zones"
	StepChoosingZone      Step = "choosing_zone"
	StepChoosingGoal      Step = "choosing_goal"
	StepAskingExtras      Step = "asking_extras"
	StepCollectingVehicle Step = "collecting_vehicle"
	StepCollectingTime    Step = "collecting_time"
	StepCollectingPhone   Step = "collecting_phone"
	StepSubmit            Step = "submit"
)

// Session is the conversation state of one user.
type Session struct {
	Flow      Flow
	Step      Step
	Collected domain.LeadFields
	LeadID    int64

	// SpamConfirmed is set once the user saw the anti-spam warning; repeating
	// the choice then creates the lead anyway.
	SpamConfirmed bool

	Bridge *Bridge
}

func NewSession() Session {
	return Session{Flow: FlowNone, Step: StepChoosingService}
}

type Reply struct {
	Text           string
	Options        []string
	RemoveKeyboard bool
	// RequestContact asks the transport to offer a share-phone button.
	RequestContact bool
}

// Transition is the outcome of one message. Commit holds the fields the
// orchestrator must persist before Next becomes the current session.
type Transition struct {
	Replies  []Reply
	Next     Session
	Commit   domain.LeadFields
	OpenLead bool
	Submit   bool
}

type StudioInfo struct {
	Address string
	MapURL  string
}

type stepKey struct {
	flow Flow
	step Step
}

type stepHandler func(s Session, text string, ext extract.Result) Transition

type choiceStep struct {
	step    Step
	prompt  string
	options []string
	// free accepts any non-empty text in addition to the options.
	free bool
	// describe is the option that asks for a free-text description instead.
	describe string
	set      func(f *domain.LeadFields, v string)
	next     Step
	branch   map[string]Step
	notes    map[string]string
	ack      string
}

type flowDef struct {
	flow    Flow
	service string
	intro   string
	steps   []choiceStep
}

type Dialog struct {
	studio  StudioInfo
	flows   map[Flow]flowDef
	table   map[stepKey]stepHandler
	prompts map[stepKey]Reply
}

func NewDialog(studio StudioInfo) *Dialog {
	d := &Dialog{
		studio:  studio,
		flows:   make(map[Flow]flowDef),
		table:   make(map[stepKey]stepHandler),
		prompts: make(map[stepKey]Reply),
	}
	d.table[stepKey{FlowNone, StepChoosingService}] = d.chooseService
	for _, def := range flowDefs() {
		d.flows[def.flow] = def
		for _, cs := range def.steps {
			key := stepKey{def.flow, cs.step}
			d.table[key] = d.choiceHandler(def, cs)
			d.prompts[key] = Reply{Text: cs.prompt, Options: withMenu(cs.options)}
		}
		d.table[stepKey{def.flow, StepCollectingVehicle}] = d.collectVehicle
		d.table[stepKey{def.flow, StepCollectingTime}] = d.collectTime
		d.table[stepKey{def.flow, StepCollectingPhone}] = d.collectPhone
		d.prompts[stepKey{def.flow, StepCollectingVehicle}] = Reply{Text: textAskCar, Options: []string{LabelSkipCar, LabelMainMenu}}
		d.prompts[stepKey{def.flow, StepCollectingTime}] = Reply{Text: textAskTime, Options: []string{LabelMainMenu}}
		d.prompts[stepKey{def.flow, StepCollectingPhone}] = Reply{Text: textAskPhone, Options: []string{LabelMainMenu}, RequestContact: true}
	}
	return d
}

// Handle computes the transition for one incoming text. It has no side effects.
func (d *Dialog) Handle(s Session, text string, ext extract.Result) Transition {
	text = strings.TrimSpace(text)
	if s.Step == "" {
		s.Flow, s.Step = FlowNone, StepChoosingService
	}
	if text == LabelMainMenu {
		return d.MainMenu(textChooseService)
	}
	h, ok := d.table[stepKey{s.Flow, s.Step}]
	if !ok {
		return d.MainMenu(textChooseService)
	}
	return h(s, text, ext)
}

// MainMenu resets the dialogue to service selection.
func (d *Dialog) MainMenu(text string) Transition {
	return Transition{
		Replies: []Reply{{Text: text, Options: mainMenu}},
		Next:    NewSession(),
	}
}

func (d *Dialog) prompt(flow Flow, step Step) Reply {
	p := d.prompts[stepKey{flow, step}]
	p.Options = append([]string(nil), p.Options...)
	return p
}

func (d *Dialog) chooseService(s Session, text string, _ extract.Result) Transition {
	flow, ok := serviceByLabel[normalizeLabel(text)]
	def, known := d.flows[flow]
	if !ok || !known {
		return Transition{Replies: []Reply{{Text: textNotImplemented, Options: mainMenu}}, Next: s}
	}

	first := StepCollectingVehicle
	if len(def.steps) > 0 {
		first = def.steps[0].step
	}
	commit := domain.LeadFields{Service: domain.Ptr(def.service)}
	p := d.prompt(def.flow, first)
	p.Text = def.intro + "\n\n" + p.Text
	return Transition{
		Replies:  []Reply{p},
		Next:     Session{Flow: def.flow, Step: first, Collected: commit},
		Commit:   commit,
		OpenLead: true,
	}
}

func (d *Dialog) choiceHandler(def flowDef, cs choiceStep) stepHandler {
	return func(s Session, text string, _ extract.Result) Transition {
		if cs.describe != "" && text == cs.describe {
			return Transition{Replies: []Reply{{Text: "Опишите, пожалуйста, своими словами:", Options: []string{LabelMainMenu}}}, Next: s}
		}
		var chosen string
		switch {
		case contains(cs.options, text):
			chosen = text
		case cs.free && text != "":
			chosen = text
		default:
			return Transition{Replies: []Reply{{Text: textChoose, Options: withMenu(cs.options)}}, Next: s}
		}

		var commit domain.LeadFields
		cs.set(&commit, chosen)
		next := cs.next
		if b, ok := cs.branch[chosen]; ok {
			next = b
		}

		p := d.prompt(def.flow, next)
		switch {
		case cs.notes[chosen] != "":
			p.Text = cs.notes[chosen] + "\n\n" + p.Text
		case cs.ack != "":
			p.Text = cs.ack + " " + p.Text
		}

		ns := s
		ns.Step = next
		ns.Collected = s.Collected.Merge(commit)
		return Transition{Replies: []Reply{p}, Next: ns, Commit: commit}
	}
}

func (d *Dialog) collectVehicle(s Session, text string, ext extract.Result) Transition {
	flags := signals(ext)
	if text == LabelSkipCar {
		commit := flags.Merge(domain.LeadFields{VehicleSkipped: domain.Ptr(true)})
		return d.advance(s, StepCollectingTime, commit, d.prompt(s.Flow, StepCollectingTime))
	}
	if ext.Vehicle == nil {
		return d.stay(s, flags, textAskCarYear)
	}
	if !extract.ValidateVehicleYear(ext.Vehicle.Year) {
		return d.stay(s, flags, textBadCarYear)
	}

	v := ext.Vehicle
	commit := domain.LeadFields{
		VehicleBrand: domain.Ptr(v.Brand),
		VehicleModel: domain.Ptr(v.Model),
		VehicleYear:  domain.Ptr(v.Year),
	}
	// Берём всё, что клиент написал заодно
	if ext.Phone != nil && extract.ValidatePhone(*ext.Phone) {
		commit.Phone = ext.Phone
	}
	if when, ok := extract.ExtractScheduledTimeBeside(text); ok {
		commit.ScheduledWhen = domain.Ptr(when)
	}
	commit = commit.Merge(flags)

	p := d.prompt(s.Flow, StepCollectingTime)
	p.Text = fmt.Sprintf("Отлично, %s.\n\n%s", commit.VehicleLine(), p.Text)
	return d.advance(s, StepCollectingTime, commit, p)
}

func (d *Dialog) collectTime(s Session, text string, ext extract.Result) Transition {
	flags := signals(ext)
	if extract.HasPastTrigger(text) {
		return d.stay(s, flags, textPastTime)
	}
	when := text
	if ext.ScheduledWhen != nil {
		when = *ext.ScheduledWhen
	}
	if when == "" {
		return d.stay(s, flags, textAskTime)
	}

	commit := domain.LeadFields{ScheduledWhen: domain.Ptr(when)}
	if ext.Phone != nil && extract.ValidatePhone(*ext.Phone) {
		commit.Phone = ext.Phone
	}
	commit = commit.Merge(flags)

	if s.Collected.Merge(commit).Phone != nil {
		return d.submit(s, commit)
	}
	return d.advance(s, StepCollectingPhone, commit, d.prompt(s.Flow, StepCollectingPhone))
}

func (d *Dialog) collectPhone(s Session, _ string, ext extract.Result) Transition {
	flags := signals(ext)
	if ext.Phone == nil || !extract.ValidatePhone(*ext.Phone) {
		return d.stay(s, flags, textBadPhone)
	}
	return d.submit(s, flags.Merge(domain.LeadFields{Phone: ext.Phone}))
}

// submit commits everything collected in the session and returns to the menu.
func (d *Dialog) submit(s Session, commit domain.LeadFields) Transition {
	all := s.Collected.Merge(commit)

	car := all.VehicleLine()
	if car == "" {
		car = "не указано"
	}
	summary := fmt.Sprintf("📋 Ваша заявка:\n\nАвто: %s\nКогда: %s\nТелефон: %s", car, deref(all.ScheduledWhen), deref(all.Phone))

	replies := []Reply{{Text: textAccepted, RemoveKeyboard: true}}
	if d.studio.Address != "" {
		addr := "Ждём вас по адресу:\n\n" + d.studio.Address
		if d.studio.MapURL != "" {
			addr += "\n\nКарта: " + d.studio.MapURL
		}
		replies = append(replies, Reply{Text: addr})
	}
	replies = append(replies,
		Reply{Text: summary},
		Reply{Text: textMoreQuestions, Options: mainMenu},
	)
	return Transition{Replies: replies, Next: NewSession(), Commit: all, Submit: true}
}

func (d *Dialog) advance(s Session, next Step, commit domain.LeadFields, p Reply) Transition {
	ns := s
	ns.Step = next
	ns.Collected = s.Collected.Merge(commit)
	return Transition{Replies: []Reply{p}, Next: ns, Commit: commit}
}

// stay re-prompts without moving; urgency/red-flag signals are still kept.
func (d *Dialog) stay(s Session, flags domain.LeadFields, text string) Transition {
	ns := s
	ns.Collected = s.Collected.Merge(flags)
	p := d.prompt(s.Flow, s.Step)
	return Transition{Replies: []Reply{{Text: text, Options: p.Options, RequestContact: p.RequestContact}}, Next: ns, Commit: flags}
}

func signals(ext extract.Result) domain.LeadFields {
	var f domain.LeadFields
	if ext.IsUrgent {
		f.IsUrgent = domain.Ptr(true)
	}
	if ext.IsRedFlag {
		f.IsRedFlag = domain.Ptr(true)
	}
	return f
}

func withMenu(opts []string) []string {
	out := make([]string, 0, len(opts)+1)
	out = append(out, opts...)
	return append(out, LabelMainMenu)
}

func contains(opts []string, s string) bool {
	for _, o := range opts {
		if o == s {
			return true
		}
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
