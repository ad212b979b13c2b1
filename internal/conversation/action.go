package conversation

import (
	"strings"
	"time"

	"github.com/wolfman30/reservation-dialogue/internal/intents"
	"github.com/wolfman30/reservation-dialogue/internal/slots"
	"github.com/wolfman30/reservation-dialogue/internal/tools"
)

// Snapshot is everything the resolver may look at for one utterance. It is
// read only; the resolver never writes history.
type Snapshot struct {
	SessionID     string
	Utterance     string
	Metadata      map[string]string
	Authenticated bool
	// UserID is the vouched identity. It wins over identity keys in Metadata.
	UserID string
	// Turns are the recent turns of the session, newest first.
	Turns    []Turn
	Now      time.Time
	Calendar slots.Calendar
}

// Window returns at most n of the newest turns.
func (s Snapshot) Window(n int) []Turn {
	if n < len(s.Turns) {
		return s.Turns[:n]
	}
	return s.Turns
}

// PreviousReply is the bot text of the newest turn.
func (s Snapshot) PreviousReply() string {
	if len(s.Turns) == 0 {
		return ""
	}
	return s.Turns[0].BotText
}

// Action is what a branch decides. It is one of Reply, Invocation or Decline.
type Action interface {
	isAction()
}

// Reply is a finished answer.
type Reply struct {
	Text   string
	Table  *tools.Table
	Branch string
}

// Invocation asks for exactly one tool call. Render turns its result into the
// reply.
type Invocation struct {
	Tool   string
	Args   tools.Args
	Render func(tools.Result) Reply
}

// Decline hands the utterance back to the caller's answer pipeline.
type Decline struct{}

func (Reply) isAction()      {}
func (Invocation) isAction() {}
func (Decline) isAction()    {}

// Fixed replies.
const (
	AcknowledgeReply      = "알겠습니다. 필요하시면 다시 말씀해 주세요."
	GenericFailureReply   = "예약 처리 중 문제가 발생했습니다. 잠시 후 다시 시도해 주세요."
	HistoryFailedReply    = "현재 예약 내역을 확인하기 어렵습니다. 잠시 후 다시 시도해 주세요."
	HistoryEmptyReply     = "확인된 예약 내역이 없습니다. 예약 번호나 연락처를 알려주세요."
	WaitFailedReply       = "현재 대기 현황을 확인하기 어렵습니다. 잠시 후 다시 시도해 주세요."
	CreateFailedReply     = "현재 예약을 처리하기 어렵습니다. 잠시 후 다시 시도해 주세요."
	DoctorNotFoundReply   = "요청하신 의료진 정보를 찾지 못했습니다. 의료진 이름을 다시 알려주세요."
	DoctorsMissingReply   = "해당 진료과 의료진 정보를 찾지 못했습니다. 원하시면 진료과명을 정확히 알려주세요."
	RescheduleMissReply   = "변경할 예약을 찾지 못했습니다. 예약 번호나 연락처를 알려주세요."
	RescheduleFailedReply = "현재 예약 변경을 처리하기 어렵습니다. 잠시 후 다시 시도해 주세요."
	CancelMissReply       = "취소할 예약을 찾지 못했습니다. 예약 번호나 연락처를 알려주세요."
	CancelFailedReply     = "현재 시스템에서 확인이 어렵습니다. 예약 번호나 연락처를 알려주시면 확인해 드리겠습니다."
)

// DefaultSupportPhone is the number quoted in the login reply.
const DefaultSupportPhone = "1577-3330"

// LoginReply asks the patient to sign in before a protected action.
func LoginReply(phone string) string {
	if strings.TrimSpace(phone) == "" {
		phone = DefaultSupportPhone
	}
	return "로그인 후 이용해 주세요, 전화 문의는 대표번호 " + phone + "으로 부탁드립니다."
}

// outcomes are the replies used when a tool answers without reply text.
type outcomes struct {
	ok       string
	notFound string
	failed   string
}

func (o outcomes) render(res tools.Result) Reply {
	if strings.TrimSpace(res.ReplyText) != "" {
		return Reply{Text: res.ReplyText, Table: res.Table}
	}
	text := ""
	switch res.Status {
	case tools.StatusOK:
		text = o.ok
	case tools.StatusNotFound:
		text = o.notFound
	case tools.StatusError:
		text = o.failed
	}
	if text == "" {
		text = GenericFailureReply
	}
	return Reply{Text: text, Table: res.Table}
}

func doctorSelectReply(department string) string {
	if department == "" {
		return intents.DoctorSelectPrompt
	}
	return department + " " + intents.DoctorSelectPrompt
}
