// Package conversation turns inbound chat events into state transitions.
// Each participant is either at a session step, in which case the event is
// resolved against that step, or at their role menu.
package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/SimpleDioney/Amostras/internal/audit"
	"github.com/SimpleDioney/Amostras/internal/correction"
	"github.com/SimpleDioney/Amostras/internal/db"
	"github.com/SimpleDioney/Amostras/internal/directory"
	"github.com/SimpleDioney/Amostras/internal/ledger"
	"github.com/SimpleDioney/Amostras/internal/logger"
	"github.com/SimpleDioney/Amostras/internal/session"
	"github.com/SimpleDioney/Amostras/internal/settings"
	"github.com/SimpleDioney/Amostras/internal/transport"
)

// Deps are the collaborators of an Engine.
type Deps struct {
	DB          *db.DB
	Directory   *directory.Store
	Samples     *ledger.Store
	Sessions    *session.Store
	Settings    *settings.Store
	Corrections *correction.Manager
	Sender      transport.Sender
	Location    *time.Location
	// Audit is optional.
	Audit *audit.Store
}

// Engine handles inbound events. It implements transport.EventHandler.
type Engine struct {
	db          *db.DB
	directory   *directory.Store
	samples     *ledger.Store
	sessions    *session.Store
	settings    *settings.Store
	corrections *correction.Manager
	sender      transport.Sender
	loc         *time.Location
	audit       *audit.Store

	// now is replaced in tests.
	now func() time.Time

	locks keyedMutex
}

// NewEngine creates an Engine.
func NewEngine(d Deps) *Engine {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{
		db:          d.DB,
		directory:   d.Directory,
		samples:     d.Samples,
		sessions:    d.Sessions,
		settings:    d.Settings,
		corrections: d.Corrections,
		sender:      d.Sender,
		loc:         loc,
		audit:       d.Audit,
		now:         time.Now,
	}
}

// HandleEvent processes one event for its sender. Events from unknown
// senders are ignored. Transitions for the same participant never overlap.
func (e *Engine) HandleEvent(ctx context.Context, ev transport.InboundEvent) error {
	unlock := e.locks.Lock(ev.SenderID)
	defer unlock()

	p, err := e.directory.Get(ctx, ev.SenderID)
	if err != nil {
		return err
	}
	if p == nil {
		logger.Debug("inbound_unknown_sender", "from", ev.SenderID)
		return nil
	}

	in := ParseInput(ev)
	switch globalCommand(in) {
	case CmdCancel:
		return e.cancel(ctx, *p)
	case CmdCorrect:
		if p.Role == directory.RoleAgent {
			return e.correct(ctx, *p)
		}
	}

	st, err := e.sessions.Get(ctx, p.ID)
	if errors.Is(err, session.ErrUnknownStep) {
		return e.expire(ctx, *p)
	}
	if err != nil {
		return err
	}
	if st != nil {
		return e.handleResult(ctx, *p, st, e.resolve(ctx, *p, st, in))
	}
	return e.handleResult(ctx, *p, nil, e.dispatchMenu(ctx, *p, in))
}

// resolve advances the participant's current step.
func (e *Engine) resolve(ctx context.Context, p directory.Participant, st session.State, in Input) error {
	switch s := st.(type) {
	case session.AddAgentInfo:
		return e.resolveAddAgent(ctx, p, in)
	case session.SelectAgentForRemoval:
		return e.resolveRemoveAgent(ctx, p, in)
	case session.SelectAgentForDelivery:
		return e.resolveDeliveryTarget(ctx, p, in)
	case session.DeliveryQuantity:
		return e.resolveDeliveryQuantity(ctx, p, s, in)
	case session.SelectAgentForClearance:
		return e.resolveClearanceTarget(ctx, p, in)
	case session.ConfirmClearance:
		return e.resolveClearance(ctx, p, s, in)

	case session.AdminSelectAgentForReport:
		return e.resolveAgentReport(ctx, p, in)
	case session.AdminAddUserInfo:
		return e.resolveAddUserInfo(ctx, p, in)
	case session.AdminAddUserRole:
		return e.resolveAddUserRole(ctx, p, s, in)
	case session.AdminSelectUserForRemoval:
		return e.resolveRemoveUser(ctx, p, in)

	case session.SelectSampleForDevolution:
		return e.resolveDevolutionSample(ctx, p, in)
	case session.SelectSampleForFollowUp:
		return e.resolveFollowUpSample(ctx, p, in)
	case session.CustomerName:
		return e.resolveCustomerName(ctx, p, s, in)
	case session.ContractClosed:
		return e.resolveContract(ctx, p, s, in)
	case session.NextAction:
		return e.resolveNextAction(ctx, p, s, in)
	case session.ClientReturned:
		return e.resolveClientReturned(ctx, p, s, in)
	case session.FollowUpContract:
		return e.resolveFollowUpContract(ctx, p, s, in)
	case session.ClientFeedback:
		return e.resolveClientFeedback(ctx, p, s, in)
	case session.FollowUpDateChoice:
		return e.resolveDateChoice(ctx, p, s, in)
	case session.FollowUpDateManual:
		return e.resolveManualDate(ctx, p, s, in)
	}
	return ErrSessionExpired
}

// dispatchMenu interprets an event from a participant with no open step.
func (e *Engine) dispatchMenu(ctx context.Context, p directory.Participant, in Input) error {
	switch menuCommand(p.Role, in) {
	case CmdDeliver:
		return e.startDelivery(ctx, p)
	case CmdAddAgent:
		return e.enter(ctx, p, session.AddAgentInfo{})
	case CmdRemoveAgent:
		return e.startRemoveAgent(ctx, p)
	case CmdClear:
		return e.startClearance(ctx, p)

	case CmdDevolution:
		return e.startDevolution(ctx, p)
	case CmdFollowUp:
		return e.startFollowUp(ctx, p)
	case CmdMySamples:
		return e.mySamples(ctx, p)

	case CmdReportAll:
		return e.sendReport(ctx, p, ledger.Filter{}, "All_Samples", "⚙️ Generating the full sample report...", "📄 Here is the full report.")
	case CmdReportAgent:
		return e.startAgentReport(ctx, p)
	case CmdReportOverdue:
		return e.sendReport(ctx, p, ledger.Filter{Status: ledger.StatusOverdue}, "Overdue_Samples",
			"⚙️ Generating the overdue samples report...", "📄 Here is the overdue samples report.")
	case CmdAddUser:
		return e.enter(ctx, p, session.AdminAddUserInfo{})
	case CmdRemoveUser:
		return e.startRemoveUser(ctx, p)
	case CmdReloadConfig:
		return e.reloadSettings(ctx, p)
	}
	return e.showMenu(ctx, p)
}

// handleResult applies the error taxonomy. Anything it does not recognise
// is returned to the caller and aborts the invocation.
func (e *Engine) handleResult(ctx context.Context, p directory.Participant, st session.State, err error) error {
	if err == nil {
		return nil
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		e.reply(ctx, p.ID, text(verr.Message))
		if verr.Reprompt && st != nil {
			return e.show(ctx, p, st)
		}
		return nil
	}

	var nf *NotFoundError
	if errors.As(err, &nf) {
		e.reply(ctx, p.ID, text("⚠️ "+nf.What+" not found."))
		if nf.Back != nil {
			return e.show(ctx, p, nf.Back)
		}
		if err := e.sessions.Clear(ctx, p.ID); err != nil {
			return err
		}
		return e.showMenu(ctx, p)
	}

	if errors.Is(err, ErrSessionExpired) {
		return e.expire(ctx, p)
	}
	return err
}

func (e *Engine) cancel(ctx context.Context, p directory.Participant) error {
	if err := e.sessions.Clear(ctx, p.ID); err != nil {
		return err
	}
	e.reply(ctx, p.ID, text("✅ Operation cancelled."))
	return e.showMenu(ctx, p)
}

func (e *Engine) expire(ctx context.Context, p directory.Participant) error {
	if err := e.sessions.Clear(ctx, p.ID); err != nil {
		return err
	}
	e.reply(ctx, p.ID, text("Session expired. Please start again."))
	return e.showMenu(ctx, p)
}

func (e *Engine) correct(ctx context.Context, p directory.Participant) error {
	restored, ok, err := e.corrections.Correct(ctx, p.ID)
	if err != nil {
		return err
	}
	if !ok {
		e.reply(ctx, p.ID, text("The correction time has run out or there is nothing to correct."))
		return e.showMenu(ctx, p)
	}
	sampleID, _ := session.SampleOf(restored)
	e.record(ctx, p, audit.Entry{
		Action:    audit.ActionDevolutionUndone,
		SubjectID: sampleID,
		Summary:   "devolution corrected within the window",
	})
	e.reply(ctx, p.ID, text("✅ Previous feedback cancelled. Going back to the previous step..."))
	if restored == nil {
		return e.showMenu(ctx, p)
	}
	return e.show(ctx, p, restored)
}

// enter moves the participant to st and asks its question.
func (e *Engine) enter(ctx context.Context, p directory.Participant, st session.State) error {
	if err := e.sessions.Put(ctx, p.ID, st); err != nil {
		return err
	}
	return e.show(ctx, p, st)
}

// show re-asks the question of st. List steps are rebuilt from the stores.
func (e *Engine) show(ctx context.Context, p directory.Participant, st session.State) error {
	if msg, ok := Prompt(st); ok {
		if err := e.sessions.Put(ctx, p.ID, st); err != nil {
			return err
		}
		e.reply(ctx, p.ID, msg)
		return nil
	}
	switch s := st.(type) {
	case session.SelectAgentForRemoval:
		return e.startRemoveAgent(ctx, p)
	case session.SelectAgentForDelivery:
		return e.startDelivery(ctx, p)
	case session.DeliveryQuantity:
		return e.askQuantity(ctx, p, s)
	case session.SelectAgentForClearance:
		return e.startClearance(ctx, p)
	case session.ConfirmClearance:
		return e.askClearance(ctx, p, s)
	case session.AdminSelectAgentForReport:
		return e.startAgentReport(ctx, p)
	case session.AdminSelectUserForRemoval:
		return e.startRemoveUser(ctx, p)
	case session.SelectSampleForDevolution:
		return e.startDevolution(ctx, p)
	case session.SelectSampleForFollowUp:
		return e.startFollowUp(ctx, p)
	}
	return e.expire(ctx, p)
}

// finish clears the session and returns to the menu.
func (e *Engine) finish(ctx context.Context, p directory.Participant, msg string) error {
	if err := e.sessions.Clear(ctx, p.ID); err != nil {
		return err
	}
	if msg != "" {
		e.reply(ctx, p.ID, text(msg))
	}
	return e.showMenu(ctx, p)
}

func (e *Engine) showMenu(ctx context.Context, p directory.Participant) error {
	e.reply(ctx, p.ID, Menu(p))
	return nil
}

// reply sends a message. Failures are logged and never stop the flow.
func (e *Engine) reply(ctx context.Context, to string, msg Message) {
	var err error
	if msg.List != nil {
		err = e.sender.SendList(ctx, to, *msg.List)
	} else {
		err = e.sender.SendText(ctx, to, msg.Text)
	}
	if err != nil {
		logger.Warn("transport_send_failed", "to", to, "error", err)
	}
}

// record appends to the audit trail. Failures are logged only.
func (e *Engine) record(ctx context.Context, p directory.Participant, entry audit.Entry) {
	if e.audit == nil {
		return
	}
	entry.ActorType = audit.ActorParticipant
	entry.ActorID = p.ID
	if err := e.audit.Log(ctx, entry); err != nil {
		logger.Warn("audit_log_failed", "action", string(entry.Action), "error", err)
	}
}

// today is the current calendar day in the reference timezone.
func (e *Engine) today() ledger.Date {
	return ledger.Today(e.now(), e.loc)
}

// keyedMutex serializes work per key.
type keyedMutex struct {
	mu sync.Mutex
	m  map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

// Lock acquires the mutex for key and returns its release func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.m == nil {
		k.m = make(map[string]*keyedEntry)
	}
	ent, ok := k.m[key]
	if !ok {
		ent = &keyedEntry{}
		k.m[key] = ent
	}
	ent.refs++
	k.mu.Unlock()

	ent.mu.Lock()
	return func() {
		ent.mu.Unlock()
		k.mu.Lock()
		ent.refs--
		if ent.refs == 0 {
			delete(k.m, key)
		}
		k.mu.Unlock()
	}
}
