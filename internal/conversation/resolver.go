package conversation

import (
	"context"
	"strings"
	"time"

	"github.com/wolfman30/reservation-dialogue/internal/intents"
	"github.com/wolfman30/reservation-dialogue/internal/observability/metrics"
	"github.com/wolfman30/reservation-dialogue/internal/slots"
	"github.com/wolfman30/reservation-dialogue/internal/tools"
	"github.com/wolfman30/reservation-dialogue/pkg/logging"
)

const (
	multiDateWindow    = 6
	doctorSelectWindow = 5
)

// Resolver decides what to do with one utterance. It keeps no session state
// between calls and performs at most one tool call per utterance.
type Resolver struct {
	classifier intents.TextClassifier
	executor   tools.Executor
	calendar   slots.Calendar
	location   *time.Location
	now        func() time.Time
	loginReply string
	window     int
	logger     *logging.Logger
	metrics    *metrics.DialogueMetrics
	branches   []branch
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

func WithClassifier(c intents.TextClassifier) ResolverOption {
	return func(r *Resolver) { r.classifier = c }
}

// WithCalendar sets the calendar used when a snapshot carries none.
func WithCalendar(cal slots.Calendar) ResolverOption {
	return func(r *Resolver) { r.calendar = cal }
}

// WithLocation sets the clinic time zone used to read dates.
func WithLocation(loc *time.Location) ResolverOption {
	return func(r *Resolver) { r.location = loc }
}

func WithResolverClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) { r.now = now }
}

// WithSupportPhone sets the phone number quoted in the login reply.
func WithSupportPhone(phone string) ResolverOption {
	return func(r *Resolver) { r.loginReply = LoginReply(phone) }
}

// WithWindow sets how many recent turns the general flow searches.
func WithWindow(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.window = n
		}
	}
}

func WithResolverLogger(l *logging.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

func WithResolverMetrics(m *metrics.DialogueMetrics) ResolverOption {
	return func(r *Resolver) { r.metrics = m }
}

// NewResolver builds a resolver that runs tools through executor.
func NewResolver(executor tools.Executor, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		classifier: intents.Default(),
		executor:   executor,
		now:        time.Now,
		loginReply: LoginReply(""),
		window:     DefaultHistoryWindow,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.Default()
	}
	if r.location == nil {
		r.location = time.Local
	}
	r.branches = branchTable()
	return r
}

// view is a snapshot with the derived facts every branch needs.
type view struct {
	Snapshot
	prev     string
	state    intents.PromptState
	calendar slots.Calendar
}

// Resolve returns the reply for s, or false when the utterance is not a
// reservation concern and the caller should answer it some other way.
func (r *Resolver) Resolve(ctx context.Context, s Snapshot) (Reply, bool) {
	if s.Now.IsZero() {
		s.Now = r.now()
	}
	s.Now = s.Now.In(r.location)
	s.Utterance = strings.TrimSpace(s.Utterance)
	if s.Metadata == nil {
		s.Metadata = map[string]string{}
	}
	v := &view{
		Snapshot: s,
		prev:     s.PreviousReply(),
		calendar: s.Calendar,
	}
	v.state = r.classifier.PromptState(v.prev)
	if v.calendar == nil {
		v.calendar = r.calendar
	}

	for _, b := range r.branches {
		action, handled := b.run(r, v)
		if !handled {
			continue
		}
		return r.perform(ctx, v, b.name, action)
	}
	r.metrics.ObserveBranch("none", "decline")
	return Reply{}, false
}

func (r *Resolver) perform(ctx context.Context, v *view, branch string, action Action) (Reply, bool) {
	switch a := action.(type) {
	case Reply:
		r.metrics.ObserveBranch(branch, "reply")
		a.Branch = branch
		return a, true
	case Invocation:
		r.metrics.ObserveBranch(branch, "tool")
		res, err := r.executor.Execute(ctx, a.Tool, a.Args, toolContext(v.Snapshot))
		if err != nil {
			r.logger.Error("tool invocation failed",
				"tool", a.Tool,
				"branch", branch,
				"session_id", v.SessionID,
				"request_id", v.Metadata[MetadataRequestID],
				"error", err,
			)
			res = tools.Result{Status: tools.StatusError}
		}
		reply := a.Render(res)
		if strings.TrimSpace(reply.Text) == "" {
			reply.Text = GenericFailureReply
		}
		reply.Branch = branch
		return reply, true
	default:
		r.metrics.ObserveBranch(branch, "decline")
		return Reply{}, false
	}
}

func toolContext(s Snapshot) tools.Context {
	tc := tools.Context{
		SessionID: s.SessionID,
		Metadata:  s.Metadata,
		RequestID: s.Metadata[MetadataRequestID],
	}
	tc.UserID = strings.TrimSpace(s.UserID)
	if tc.UserID == "" {
		tc.UserID = VouchedUserID(s.Metadata)
	}
	return tc
}

// isNegativeOnly is a bare refusal: a negative cue with nothing actionable
// next to it.
func (r *Resolver) isNegativeOnly(text string) bool {
	c := r.classifier
	if !c.IsNegativeReply(text) {
		return false
	}
	if slots.HasTimeOrDateHint(text) ||
		slots.ExtractDepartment(text) != "" ||
		slots.MatchSymptomDepartment(text) != "" ||
		slots.ExtractDoctorName(text) != "" {
		return false
	}
	return !c.HasRescheduleCue(text) && !c.HasCancelCue(text) && !c.HasDoctorChangeCue(text)
}

func (r *Resolver) hasReservationSignal(v *view) bool {
	c := r.classifier
	u := v.Utterance
	return c.HasBookingIntent(u) ||
		c.HasRescheduleCue(u) ||
		c.HasCancelCue(u) ||
		c.HasDoctorChangeCue(u) ||
		c.MentionsReservationHistory(u) ||
		c.IsBookingPrompt(v.prev) ||
		v.state != intents.PromptNone
}

func (r *Resolver) login() Reply {
	return Reply{Text: r.loginReply}
}
