package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/reservation-dialogue/internal/clinic"
	"github.com/wolfman30/reservation-dialogue/internal/http/middleware"
	"github.com/wolfman30/reservation-dialogue/internal/intents"
	"github.com/wolfman30/reservation-dialogue/internal/observability/metrics"
	"github.com/wolfman30/reservation-dialogue/internal/slots"
	"github.com/wolfman30/reservation-dialogue/internal/tools"
	"github.com/wolfman30/reservation-dialogue/pkg/logging"
)

// ErrEmptyMessage is returned for a request without message text.
var ErrEmptyMessage = errors.New("conversation: message is required")

// AnswerFailedReply is used when the answer pipeline errors out.
const AnswerFailedReply = "지금은 답변을 드리기 어렵습니다. 잠시 후 다시 시도해 주세요."

// ChatRequest is one inbound chat message.
type ChatRequest struct {
	Message   string         `json:"message"`
	SessionID string         `json:"session_id"`
	Metadata  map[string]any `json:"metadata"`
	RequestID string         `json:"request_id"`
}

// ChatResponse is the reply to a ChatRequest.
type ChatResponse struct {
	Reply     string       `json:"reply"`
	Table     *tools.Table `json:"table,omitempty"`
	RequestID string       `json:"request_id"`
	Sources   []string     `json:"sources"`
}

// CalendarSource loads the clinic calendar.
type CalendarSource interface {
	Get(ctx context.Context, clinicID string) (*clinic.Calendar, error)
}

// ChatService runs one chat turn: context recovery, the login guard, the
// resolver, the answer pipeline and turn persistence.
type ChatService struct {
	loader     *ContextLoader
	resolver   *Resolver
	answerer   Answerer
	turns      TurnWriter
	calendars  CalendarSource
	clinicID   string
	classifier intents.TextClassifier
	loginReply string
	now        func() time.Time
	logger     *logging.Logger
	metrics    *metrics.DialogueMetrics
}

// ChatServiceConfig wires a ChatService.
type ChatServiceConfig struct {
	Loader       *ContextLoader
	Resolver     *Resolver
	Answerer     Answerer
	Turns        TurnWriter
	Calendars    CalendarSource
	ClinicID     string
	Classifier   intents.TextClassifier
	SupportPhone string
	Clock        func() time.Time
	Logger       *logging.Logger
	Metrics      *metrics.DialogueMetrics
}

// NewChatService builds the service. Resolver and Answerer are required.
func NewChatService(cfg ChatServiceConfig) *ChatService {
	if cfg.Resolver == nil {
		panic("conversation: chat service requires a resolver")
	}
	if cfg.Answerer == nil {
		panic("conversation: chat service requires an answerer")
	}
	s := &ChatService{
		loader:     cfg.Loader,
		resolver:   cfg.Resolver,
		answerer:   cfg.Answerer,
		turns:      cfg.Turns,
		calendars:  cfg.Calendars,
		clinicID:   cfg.ClinicID,
		classifier: cfg.Classifier,
		loginReply: LoginReply(cfg.SupportPhone),
		now:        cfg.Clock,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}
	if s.logger == nil {
		s.logger = logging.Default()
	}
	if s.loader == nil {
		s.loader = NewContextLoader(nil, 0, s.logger)
	}
	if s.classifier == nil {
		s.classifier = intents.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Handle answers req. It only fails for an empty message.
func (s *ChatService) Handle(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	started := time.Now()
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return ChatResponse{}, ErrEmptyMessage
	}

	md := SanitizeMetadata(req.Metadata)
	if id, ok := middleware.PatientFromContext(ctx); ok {
		for k, v := range id.Metadata() {
			md[k] = v
		}
	}
	session := s.loader.LoadSession(ctx, req.SessionID, md)
	md = session.Metadata

	requestID := strings.TrimSpace(req.RequestID)
	if requestID == "" {
		requestID = md[MetadataRequestID]
	}
	if requestID == "" {
		requestID = middleware.RequestIDFromContext(ctx)
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	md[MetadataRequestID] = requestID

	var (
		reply     Reply
		responder string
	)
	if !session.Authenticated && s.classifier.IsLoginGuarded(message) {
		s.logger.Info("chat login gate", "request_id", requestID, "session_id", req.SessionID)
		reply, responder = Reply{Text: s.loginReply}, "login_guard"
	} else {
		s.logger.Info("chat request",
			"request_id", requestID,
			"session_id", req.SessionID,
			"message_len", len([]rune(message)),
		)
		snapshot := Snapshot{
			SessionID:     req.SessionID,
			Utterance:     message,
			Metadata:      md,
			Authenticated: session.Authenticated,
			UserID:        session.UserID,
			Turns:         session.Turns,
			Now:           s.now(),
			Calendar:      s.calendar(ctx),
		}
		var handled bool
		reply, handled = s.resolver.Resolve(ctx, snapshot)
		responder = "resolver"
		if !handled {
			reply, responder = s.answer(ctx, message, req.SessionID, md), "answerer"
		}
	}

	s.persist(ctx, Turn{
		SessionID: req.SessionID,
		RequestID: requestID,
		UserText:  req.Message,
		BotText:   reply.Text,
		Metadata:  md,
		CreatedAt: s.now().UTC(),
	})
	s.metrics.ObserveTurn(responder, session.Authenticated, time.Since(started).Seconds())

	return ChatResponse{
		Reply:     reply.Text,
		Table:     reply.Table,
		RequestID: requestID,
		Sources:   []string{},
	}, nil
}

func (s *ChatService) answer(ctx context.Context, message, sessionID string, md map[string]string) Reply {
	reply, err := s.answerer.Answer(ctx, message, sessionID, md)
	if err != nil {
		s.logger.Error("answer pipeline failed", "request_id", md[MetadataRequestID], "session_id", sessionID, "error", err)
		return Reply{Text: AnswerFailedReply}
	}
	if strings.TrimSpace(reply.Text) == "" {
		reply.Text = AnswerFailedReply
	}
	return reply
}

// calendar returns nil when no calendar can be loaded; the resolver then
// treats every day as open.
func (s *ChatService) calendar(ctx context.Context) slots.Calendar {
	if s.calendars == nil {
		return nil
	}
	cal, err := s.calendars.Get(ctx, s.clinicID)
	if err != nil || cal == nil {
		s.logger.Warn("clinic calendar unavailable", "clinic_id", s.clinicID, "error", err)
		return nil
	}
	return cal
}

func (s *ChatService) persist(ctx context.Context, turn Turn) {
	if s.turns == nil {
		return
	}
	if err := s.turns.Append(ctx, turn); err != nil {
		s.logger.Error("failed to persist turn",
			"request_id", turn.RequestID,
			"session_id", turn.SessionID,
			"error", err,
		)
	}
}
