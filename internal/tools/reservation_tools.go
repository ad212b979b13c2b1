package tools

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/wolfman30/reservation-dialogue/internal/events"
	"github.com/wolfman30/reservation-dialogue/internal/intents"
	"github.com/wolfman30/reservation-dialogue/internal/reservations"
	"github.com/wolfman30/reservation-dialogue/internal/slots"
	"github.com/wolfman30/reservation-dialogue/pkg/logging"
)

var reservationNumberPattern = regexp.MustCompile(`(?i)R\d{6}-[0-9A-Z]{4}`)

// userIDKeys is the metadata lookup order for the acting user.
var userIDKeys = []string{"user_id", "patient_id", "patientId", "account_id", "auth_user_id"}

// EventPublisher receives reservation change events.
type EventPublisher interface {
	Publish(ctx context.Context, evt events.ReservationEvent) error
}

// RequestLedger remembers request ids that already created a reservation,
// with the reservation number they produced.
type RequestLedger interface {
	Lookup(ctx context.Context, tool, requestID string) (reference string, found bool, err error)
	Record(ctx context.Context, tool, requestID, reference string) (bool, error)
}

// ReservationTools implements the reservation tool set.
type ReservationTools struct {
	repo      reservations.Repository
	directory reservations.Directory
	waits     WaitBoard
	publisher EventPublisher
	ledger    RequestLedger
	clinicID  string
	loc       *time.Location
	now       func() time.Time
	logger    *logging.Logger
}

// Option configures ReservationTools.
type Option func(*ReservationTools)

func WithWaitBoard(b WaitBoard) Option { return func(t *ReservationTools) { t.waits = b } }
func WithPublisher(p EventPublisher) Option { return func(t *ReservationTools) { t.publisher = p } }
func WithLedger(l RequestLedger) Option { return func(t *ReservationTools) { t.ledger = l } }
func WithLogger(l *logging.Logger) Option { return func(t *ReservationTools) { t.logger = l } }
func WithClock(now func() time.Time) Option { return func(t *ReservationTools) { t.now = now } }
func WithClinic(id string, loc *time.Location) Option {
	return func(t *ReservationTools) {
		t.clinicID = id
		if loc != nil {
			t.loc = loc
		}
	}
}

func NewReservationTools(repo reservations.Repository, directory reservations.Directory, opts ...Option) *ReservationTools {
	t := &ReservationTools{
		repo:      repo,
		directory: directory,
		clinicID:  "default",
		loc:       time.UTC,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = logging.Default()
	}
	return t
}

// Register adds every reservation tool to reg.
func (t *ReservationTools) Register(reg *Registry) {
	reg.Register(ReservationHistory, t.history)
	reg.Register(WaitStatus, t.waitStatus)
	reg.Register(DoctorList, t.doctorList)
	reg.Register(ReservationCreate, t.create)
	reg.Register(ReservationReschedule, t.reschedule)
	reg.Register(ReservationCancel, t.cancel)
}

// UserID resolves the acting user from the call context.
func UserID(tc Context) string {
	if id := strings.TrimSpace(tc.UserID); id != "" {
		return id
	}
	for _, key := range userIDKeys {
		if v := strings.TrimSpace(tc.Metadata[key]); v != "" {
			return v
		}
	}
	return ""
}

func (t *ReservationTools) localNow() time.Time {
	return t.now().In(t.loc)
}

func (t *ReservationTools) history(ctx context.Context, args Args, tc Context) (Result, error) {
	user := UserID(tc)
	if user == "" {
		return Result{Status: StatusNotFound}, nil
	}
	list, err := t.repo.ListUpcoming(ctx, user, t.localNow())
	if err != nil {
		return Result{}, err
	}
	if len(list) == 0 {
		return Result{Status: StatusNotFound}, nil
	}

	table := &Table{Columns: []string{"예약번호", "진료과", "의료진", "일시", "상태"}}
	for _, r := range list {
		table.Rows = append(table.Rows, []string{r.Number, r.Department, r.DoctorName, t.describeWhen(r), "예약완료"})
	}
	first := list[0]
	reply := fmt.Sprintf("예약 내역입니다. 예정된 예약은 %d건이며, 가장 가까운 예약은 %s %s %s 선생님입니다.",
		len(list), t.describeWhen(first), first.Department, first.DoctorName)
	return Result{ReplyText: reply, Status: StatusOK, Table: table}, nil
}

func (t *ReservationTools) waitStatus(ctx context.Context, args Args, tc Context) (Result, error) {
	dept := args.String("department")
	if dept == "" {
		return Result{Status: StatusNotFound}, nil
	}
	if t.waits == nil {
		return Result{}, errors.New("wait board not configured")
	}
	info, err := t.waits.Status(ctx, t.clinicID, dept)
	if err != nil {
		return Result{}, err
	}
	if info.Waiting == 0 {
		return Result{ReplyText: fmt.Sprintf("%s 현재 대기 중인 환자가 없습니다.", dept), Status: StatusOK}, nil
	}
	reply := fmt.Sprintf("%s 현재 대기 인원은 %d명이며, 예상 대기 시간은 약 %d분입니다.", dept, info.Waiting, info.EstimatedMinutes())
	return Result{ReplyText: reply, Status: StatusOK}, nil
}

func (t *ReservationTools) doctorList(ctx context.Context, args Args, tc Context) (Result, error) {
	dept := args.String("department")
	doctors, err := t.directory.ListDoctors(ctx, dept)
	if err != nil {
		return Result{}, err
	}
	if len(doctors) == 0 {
		return Result{Status: StatusNotFound}, nil
	}
	table := &Table{Columns: []string{"name", "department", "title", "specialty"}}
	names := make([]string, 0, len(doctors))
	for _, d := range doctors {
		table.Rows = append(table.Rows, []string{d.Name, d.Department, d.Title, d.Specialty})
		names = append(names, d.Name+" "+d.Title)
	}
	label := dept
	if label == "" {
		label = "전체"
	}
	reply := fmt.Sprintf("%s 의료진은 %s입니다. %s", label, strings.Join(names, ", "), intents.DoctorSelectPrompt)
	return Result{ReplyText: reply, Status: StatusOK, Table: table}, nil
}

func (t *ReservationTools) create(ctx context.Context, args Args, tc Context) (Result, error) {
	user := UserID(tc)
	if user == "" {
		return Result{Status: StatusNotFound}, nil
	}
	if t.ledger != nil && tc.RequestID != "" {
		number, done, err := t.ledger.Lookup(ctx, ReservationCreate, tc.RequestID)
		if err != nil {
			t.logger.Warn("request ledger unavailable", "error", err, "request_id", tc.RequestID)
		} else if done {
			reply := "이미 접수된 예약 요청입니다. 예약 내역에서 확인하실 수 있습니다."
			if number != "" {
				reply = fmt.Sprintf("이미 접수된 예약 요청입니다. 예약번호: %s. 예약 내역에서 확인하실 수 있습니다.", number)
			}
			return Result{ReplyText: reply, Status: StatusOK}, nil
		}
	}

	doctor, err := t.directory.FindDoctor(ctx, args.String("department"), args.String("doctor_name"))
	if errors.Is(err, reservations.ErrNotFound) {
		return Result{Status: StatusNotFound}, nil
	}
	if err != nil {
		return Result{}, err
	}

	now := t.localNow()
	res := reservations.NewReservation(now)
	res.ClinicID = t.clinicID
	res.UserID = user
	res.SessionID = tc.SessionID
	res.Department = doctor.Department
	res.DoctorName = doctor.Name

	preferred := args.String("preferred_time")
	if slots.ContainsASAP(preferred) {
		res.ASAP = true
	} else {
		at, hasClock, ok := slots.ParsePreferredTime(preferred, now)
		if !ok || !hasClock {
			return Result{ReplyText: "예약 시간을 확인할 수 없습니다. 희망 날짜와 시간을 다시 알려주세요.", Status: StatusNotFound}, nil
		}
		res.ScheduledFor = &at
	}

	if err := t.repo.Create(ctx, res); err != nil {
		return Result{}, err
	}
	if t.ledger != nil && tc.RequestID != "" {
		if _, err := t.ledger.Record(ctx, ReservationCreate, tc.RequestID, res.Number); err != nil {
			t.logger.Warn("failed to record processed request", "error", err, "request_id", tc.RequestID)
		}
	}
	t.publish(ctx, events.TypeReservationCreated, res, tc)

	var reply string
	if res.ASAP {
		reply = fmt.Sprintf("%s %s %s %s으로 예약 요청이 접수되었습니다. 예약번호: %s. 변경하거나 취소하시려면 말씀해 주세요.",
			res.Department, doctor.Name, doctor.Title, slots.ASAPMarker, res.Number)
	} else {
		reply = fmt.Sprintf("%s %s %s %s 예약이 접수되었습니다. 예약번호: %s. 변경하거나 취소하시려면 말씀해 주세요.",
			res.Department, doctor.Name, doctor.Title, t.describeWhen(*res), res.Number)
	}
	return Result{ReplyText: reply, Status: StatusOK}, nil
}

func (t *ReservationTools) reschedule(ctx context.Context, args Args, tc Context) (Result, error) {
	user := UserID(tc)
	if user == "" {
		return Result{Status: StatusNotFound}, nil
	}
	res, err := t.repo.Latest(ctx, user)
	if errors.Is(err, reservations.ErrNotFound) {
		return Result{Status: StatusNotFound}, nil
	}
	if err != nil {
		return Result{}, err
	}

	changed := false
	newDept := args.String("new_department")
	doctorName := args.String("doctor_name")
	targetDept := res.Department
	if newDept != "" {
		targetDept = newDept
	}

	switch {
	case doctorName != "":
		doctor, err := t.directory.FindDoctor(ctx, targetDept, doctorName)
		if errors.Is(err, reservations.ErrNotFound) {
			return Result{ReplyText: fmt.Sprintf("%s %s 의료진을 찾지 못했습니다. 의료진 이름을 다시 알려주세요.", targetDept, doctorName), Status: StatusNotFound}, nil
		}
		if err != nil {
			return Result{}, err
		}
		changed = changed || doctor.Name != res.DoctorName || doctor.Department != res.Department
		res.DoctorName = doctor.Name
		res.Department = doctor.Department
	case newDept != "" && newDept != res.Department:
		doctors, err := t.directory.ListDoctors(ctx, newDept)
		if err != nil {
			return Result{}, err
		}
		if len(doctors) == 0 {
			return Result{Status: StatusNotFound}, nil
		}
		res.Department = newDept
		res.DoctorName = doctors[0].Name
		changed = true
	}

	newTime := args.String("new_time")
	if newTime != "" && !args.Bool("keep_time") {
		ok := t.applyNewTime(res, newTime)
		if !ok {
			return Result{ReplyText: "변경할 날짜와 시간을 확인할 수 없습니다. 희망 날짜와 시간을 다시 알려주세요.", Status: StatusNotFound}, nil
		}
		changed = true
	}
	if !changed {
		return Result{ReplyText: intents.ChangeDetailsAsk, Status: StatusNotFound}, nil
	}

	res.UpdatedAt = t.now().UTC()
	if err := t.repo.Update(ctx, res); err != nil {
		if errors.Is(err, reservations.ErrNotFound) {
			return Result{Status: StatusNotFound}, nil
		}
		return Result{}, err
	}
	t.publish(ctx, events.TypeReservationRescheduled, res, tc)

	reply := fmt.Sprintf("예약이 변경되었습니다. %s %s 선생님 %s. 예약번호: %s",
		res.Department, res.DoctorName, t.describeWhen(*res), res.Number)
	return Result{ReplyText: reply, Status: StatusOK}, nil
}

// applyNewTime moves res to text. A date without an hour keeps the old hour.
func (t *ReservationTools) applyNewTime(res *reservations.Reservation, text string) bool {
	if slots.ContainsASAP(text) {
		res.ASAP = true
		res.ScheduledFor = nil
		return true
	}
	now := t.localNow()
	at, hasClock, ok := slots.ParsePreferredTime(text, now)
	if !ok {
		if res.ScheduledFor == nil {
			return false
		}
		hour, minute, okClock := slots.ExtractClock(text)
		if !okClock {
			return false
		}
		prev := res.ScheduledFor.In(t.loc)
		moved := time.Date(prev.Year(), prev.Month(), prev.Day(), hour, minute, 0, 0, t.loc)
		res.ScheduledFor = &moved
		res.ASAP = false
		return true
	}
	if !hasClock {
		if res.ScheduledFor == nil {
			return false
		}
		prev := res.ScheduledFor.In(t.loc)
		at = time.Date(at.Year(), at.Month(), at.Day(), prev.Hour(), prev.Minute(), 0, 0, t.loc)
	}
	res.ScheduledFor = &at
	res.ASAP = false
	return true
}

func (t *ReservationTools) cancel(ctx context.Context, args Args, tc Context) (Result, error) {
	user := UserID(tc)
	if user == "" {
		return Result{Status: StatusNotFound}, nil
	}

	var targets []reservations.Reservation
	if number := strings.ToUpper(reservationNumberPattern.FindString(args.String("cancel_text"))); number != "" {
		res, err := t.repo.GetByNumber(ctx, user, number)
		if errors.Is(err, reservations.ErrNotFound) {
			return Result{Status: StatusNotFound}, nil
		}
		if err != nil {
			return Result{}, err
		}
		if res.Status != reservations.StatusActive {
			return Result{Status: StatusNotFound}, nil
		}
		targets = append(targets, *res)
	} else if args.Bool("cancel_all") {
		active, err := t.repo.ListActive(ctx, user)
		if err != nil {
			return Result{}, err
		}
		targets = active
	} else {
		res, err := t.repo.Latest(ctx, user)
		if err != nil && !errors.Is(err, reservations.ErrNotFound) {
			return Result{}, err
		}
		if res != nil {
			targets = append(targets, *res)
		}
	}
	if len(targets) == 0 {
		return Result{Status: StatusNotFound}, nil
	}

	numbers := make([]string, 0, len(targets))
	for _, r := range targets {
		numbers = append(numbers, r.Number)
	}
	n, err := t.repo.Cancel(ctx, user, numbers...)
	if err != nil {
		return Result{}, err
	}
	if n == 0 {
		return Result{Status: StatusNotFound}, nil
	}
	for i := range targets {
		t.publish(ctx, events.TypeReservationCancelled, &targets[i], tc)
	}

	if len(targets) > 1 {
		return Result{ReplyText: fmt.Sprintf("예약 %d건이 모두 취소되었습니다.", n), Status: StatusOK}, nil
	}
	r := targets[0]
	reply := fmt.Sprintf("%s %s %s 선생님 예약이 취소되었습니다.", t.describeWhen(r), r.Department, r.DoctorName)
	return Result{ReplyText: reply, Status: StatusOK}, nil
}

func (t *ReservationTools) describeWhen(r reservations.Reservation) string {
	if r.ScheduledFor == nil {
		return slots.ASAPMarker
	}
	at := r.ScheduledFor.In(t.loc)
	return fmt.Sprintf("%s(%s) %s", slots.FormatDate(at), slots.WeekdayName(at), slots.FormatClock(at.Hour(), at.Minute()))
}

func (t *ReservationTools) publish(ctx context.Context, eventType string, r *reservations.Reservation, tc Context) {
	if t.publisher == nil {
		return
	}
	evt := events.ReservationEvent{
		Type:          eventType,
		ClinicID:      t.clinicID,
		ReservationID: r.ID.String(),
		Number:        r.Number,
		UserID:        r.UserID,
		SessionID:     tc.SessionID,
		RequestID:     tc.RequestID,
		Department:    r.Department,
		DoctorName:    r.DoctorName,
		ScheduledFor:  r.ScheduledFor,
		ASAP:          r.ASAP,
	}
	if err := t.publisher.Publish(ctx, evt); err != nil {
		t.logger.Error("failed to publish reservation event", "type", eventType, "number", r.Number, "error", err)
	}
}
