package conversation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/reservation-dialogue/internal/intents"
	"github.com/wolfman30/reservation-dialogue/internal/slots"
	"github.com/wolfman30/reservation-dialogue/internal/tools"
)

// remainingDaysOffer closes a booking made from a multi-date request.
const remainingDaysOffer = "도 예약할까요? 원하시면 날짜만 알려주세요."

type branch struct {
	name string
	run  func(r *Resolver, v *view) (Action, bool)
}

// branchTable lists the branches in precedence order. The first branch that
// reports handled decides the turn.
func branchTable() []branch {
	return []branch{
		{"no_session", (*Resolver).noSession},
		{"login_required", (*Resolver).loginRequired},
		{"unavailable_date", (*Resolver).unavailableDate},
		{"reservation_history", (*Resolver).reservationHistory},
		{"no_history", (*Resolver).noHistory},
		{"wait_request", (*Resolver).waitRequest},
		{"no_signal", (*Resolver).noSignal},
		{"wait_department", (*Resolver).waitDepartment},
		{"past_date_ack", (*Resolver).pastDateAck},
		{"multi_date", (*Resolver).multiDate},
		{"login_for_change", (*Resolver).loginForChange},
		{"doctor_change", (*Resolver).doctorChangePrompt},
		{"doctor_select", (*Resolver).doctorSelect},
		{"reservation_summary", (*Resolver).reservationSummary},
		{"change_request", (*Resolver).changeRequest},
		{"general", (*Resolver).general},
	}
}

func (r *Resolver) noSession(v *view) (Action, bool) {
	if strings.TrimSpace(v.SessionID) == "" {
		return Decline{}, true
	}
	return nil, false
}

func (r *Resolver) loginRequired(v *view) (Action, bool) {
	if v.Authenticated {
		return nil, false
	}
	c, u := r.classifier, v.Utterance
	if c.MentionsReservationHistory(u) || c.HasCancelCue(u) || c.HasRescheduleCue(u) || c.HasDoctorChangeCue(u) {
		return r.login(), true
	}
	return nil, false
}

// unavailableDate rejects a booking for a past or closed day before any
// slot logic runs.
func (r *Resolver) unavailableDate(v *view) (Action, bool) {
	if !r.classifier.HasBookingIntent(v.Utterance) {
		return nil, false
	}
	if msg := slots.RejectClosedDate(v.Utterance, v.Now, v.calendar); msg != "" {
		return Reply{Text: msg}, true
	}
	return nil, false
}

// reservationHistory answers a plain lookup. A lookup that also names a time,
// a department or a change is left to the booking branches.
func (r *Resolver) reservationHistory(v *view) (Action, bool) {
	c, u := r.classifier, v.Utterance
	if !c.MentionsReservationHistory(u) {
		return nil, false
	}
	if !v.Authenticated {
		return r.login(), true
	}
	if slots.HasTimeOrDateHint(u) || c.HasTimeKeepCue(u) ||
		c.HasRescheduleCue(u) || c.HasCancelCue(u) || c.HasDoctorChangeCue(u) ||
		slots.ExtractDepartment(u) != "" {
		return nil, false
	}
	return Invocation{
		Tool: tools.ReservationHistory,
		Args: tools.Args{},
		Render: outcomes{
			ok:       "예약 내역을 확인했습니다.",
			notFound: HistoryEmptyReply,
			failed:   HistoryFailedReply,
		}.render,
	}, true
}

func (r *Resolver) noHistory(v *view) (Action, bool) {
	if len(v.Turns) == 0 {
		return Decline{}, true
	}
	return nil, false
}

func (r *Resolver) waitRequest(v *view) (Action, bool) {
	if !r.classifier.HasWaitStatusCue(v.Utterance) {
		return nil, false
	}
	return r.waitFor(departmentFrom(v.Utterance, v.Metadata)), true
}

func (r *Resolver) noSignal(v *view) (Action, bool) {
	if r.hasReservationSignal(v) {
		return nil, false
	}
	return Decline{}, true
}

func (r *Resolver) waitDepartment(v *view) (Action, bool) {
	if v.state != intents.PromptWaitDepartment {
		return nil, false
	}
	return r.waitFor(departmentFrom(v.Utterance, v.Metadata)), true
}

func (r *Resolver) waitFor(department string) Action {
	if department == "" {
		return Reply{Text: intents.WaitDepartmentAsk}
	}
	return Invocation{
		Tool: tools.WaitStatus,
		Args: tools.Args{"department": department},
		Render: outcomes{
			ok:       intents.WaitDepartmentAsk,
			notFound: intents.WaitDepartmentAsk,
			failed:   WaitFailedReply,
		}.render,
	}
}

func (r *Resolver) pastDateAck(v *view) (Action, bool) {
	if r.classifier.IsPastDatePrompt(v.prev) && r.isNegativeOnly(v.Utterance) {
		return Reply{Text: AcknowledgeReply}, true
	}
	return nil, false
}

// multiDate handles the reply to a request to pick one of several dates. It
// asks for the single missing slot in the order department, doctor, time.
func (r *Resolver) multiDate(v *view) (Action, bool) {
	if v.state != intents.PromptMultiDate {
		return nil, false
	}
	u := v.Utterance
	if r.isNegativeOnly(u) {
		return Reply{Text: AcknowledgeReply}, true
	}
	day := slots.ExtractDayOnly(u)
	if day == 0 {
		day = slots.ExtractNumericDay(u)
	}
	if day == 0 {
		return Reply{Text: intents.MultiDateAsk}, true
	}

	window := v.Window(multiDateWindow)
	users := userTexts(window)
	dateHint := resolveDayHint(day, r.latestDate(window, v.Now), v.Now)
	tod := slots.ExtractTimePhrase(u)
	if tod == "" {
		tod, _ = firstTimePhrase(users)
	}
	st := slots.State{
		PreferredTime: slots.NormalizePreferredTime(slots.MergeDateWithTime(tod, dateHint), false, v.Now),
		DayCandidates: dayCandidates(users, day),
	}
	if msg := slots.RejectClosedDate(st.PreferredTime, v.Now, v.calendar); msg != "" {
		return Reply{Text: msg}, true
	}

	st.Department = departmentFrom(u, v.Metadata)
	if st.Department == "" {
		st.Department = recentDepartment(window)
	}
	if st.Department == "" {
		return Reply{Text: intents.DepartmentAsk}, true
	}
	if !v.Authenticated {
		return r.login(), true
	}
	st.DoctorName = slots.ExtractSelectedDoctorName(u)
	if st.DoctorName == "" {
		st.DoctorName = recentDoctor(window)
	}
	if st.DoctorName == "" {
		st.DoctorName = metadataDoctor(v.Metadata)
	}
	if st.DoctorName == "" {
		return r.listDoctors(st.Department), true
	}
	if ask := doctorTimeAsk(st); ask != "" {
		return Reply{Text: ask}, true
	}

	var remaining []int
	for _, d := range st.DayCandidates {
		if d != day {
			remaining = append(remaining, d)
		}
	}
	inv := r.create(st)
	render := inv.Render
	inv.Render = func(res tools.Result) Reply {
		reply := render(res)
		if res.Status == tools.StatusOK && strings.TrimSpace(res.ReplyText) != "" && len(remaining) > 0 {
			reply.Text += " 남은 날짜(" + joinDays(remaining) + ")" + remainingDaysOffer
		}
		return reply
	}
	return inv, true
}

func (r *Resolver) loginForChange(v *view) (Action, bool) {
	if v.Authenticated {
		return nil, false
	}
	if v.state == intents.PromptDoctorChange || v.state == intents.PromptReservationSummary {
		return r.login(), true
	}
	return nil, false
}

func (r *Resolver) doctorChangePrompt(v *view) (Action, bool) {
	if v.state != intents.PromptDoctorChange {
		return nil, false
	}
	if r.isNegativeOnly(v.Utterance) {
		return Reply{Text: AcknowledgeReply}, true
	}
	return r.doctorChange(v), true
}

// doctorChange asks for the replacement doctor or moves the reservation
// to the one named.
func (r *Resolver) doctorChange(v *view) Action {
	name := slots.ExtractSelectedDoctorName(v.Utterance)
	if name == "" {
		dept := departmentFrom(v.Utterance, v.Metadata)
		if dept == "" {
			dept = recentDepartment(v.Window(r.window))
		}
		if dept == "" {
			return Reply{Text: intents.DoctorChangePrompt}
		}
		return Reply{Text: dept + " " + intents.DoctorChangePrompt}
	}
	return Invocation{
		Tool: tools.ReservationReschedule,
		Args: tools.Args{"doctor_name": name},
		Render: outcomes{
			ok:       "예약 의료진이 " + name + " 선생님으로 변경되었습니다.",
			notFound: RescheduleMissReply,
			failed:   RescheduleFailedReply,
		}.render,
	}
}

// doctorSelect books with the doctor picked from a roster, resolving the
// remaining slots the way the general flow does.
func (r *Resolver) doctorSelect(v *view) (Action, bool) {
	if v.state != intents.PromptDoctorSelect {
		return nil, false
	}
	if !v.Authenticated {
		return r.login(), true
	}
	u := v.Utterance
	if r.classifier.HasCancelCue(u) {
		return r.cancel(v), true
	}
	if r.isNegativeOnly(u) {
		return Reply{Text: AcknowledgeReply}, true
	}

	window := v.Window(doctorSelectWindow)
	users := userTexts(window)
	st := slots.State{DoctorName: slots.ExtractSelectedDoctorName(u)}
	if st.DoctorName == "" {
		st.DoctorName = metadataDoctor(v.Metadata)
	}
	st.Department = departmentFrom(u, v.Metadata)
	if st.Department == "" {
		st.Department = slots.ExtractDepartment(v.prev)
	}
	if st.Department == "" {
		st.Department = recentDepartment(window)
	}
	if st.DoctorName == "" {
		if st.Department == "" {
			return Reply{Text: intents.DoctorSelectPrompt}, true
		}
		return r.listDoctors(st.Department), true
	}
	if st.Department == "" {
		st.Department = recentDepartmentOrSymptom(append([]string{v.prev}, users...))
	}

	tod := slots.ExtractTimePhrase(u)
	st.ASAP = slots.ContainsASAP(u)
	if tod == "" {
		var asap bool
		tod, asap = firstTimePhrase(users)
		st.ASAP = st.ASAP || asap
	}
	preferred, ask := r.anchoredSchedule(v, tod, st.ASAP, window)
	if ask != "" {
		return Reply{Text: ask}, true
	}
	st.PreferredTime = preferred
	st.ASAP = st.ASAP || slots.ContainsASAP(preferred)
	if msg := slots.RejectClosedDate(st.PreferredTime, v.Now, v.calendar); msg != "" {
		return Reply{Text: msg}, true
	}
	if st.Department == "" {
		return Reply{Text: intents.DepartmentAsk}, true
	}
	if ask := doctorTimeAsk(st); ask != "" {
		return Reply{Text: ask}, true
	}
	return r.create(st), true
}

// reservationSummary follows up on a reply that showed a reservation. A turn
// with no change request falls through to the general flow.
func (r *Resolver) reservationSummary(v *view) (Action, bool) {
	if v.state != intents.PromptReservationSummary {
		return nil, false
	}
	c, u := r.classifier, v.Utterance
	auto := c.IsAffirmative(u) &&
		c.OffersChange(v.prev) &&
		!strings.Contains(v.prev, remainingDaysOffer) &&
		(slots.HasTimeOrDateHint(u) || slots.ExtractDepartment(u) != "")
	return r.handleChange(v, auto)
}

// changeRequest handles explicit cancel or change requests made outside a
// prompt.
func (r *Resolver) changeRequest(v *view) (Action, bool) {
	if !v.Authenticated {
		return nil, false
	}
	c, u := r.classifier, v.Utterance
	if c.HasCancelCue(u) || c.HasDoctorChangeCue(u) || (c.HasRescheduleCue(u) && !c.HasBookingIntent(u)) {
		return r.handleChange(v, false)
	}
	return nil, false
}

// handleChange gives cancel cues priority, then doctor changes, then
// reschedules. A reschedule needs a new time or department.
func (r *Resolver) handleChange(v *view, auto bool) (Action, bool) {
	c, u := r.classifier, v.Utterance
	if c.HasCancelCue(u) {
		return r.cancel(v), true
	}
	if c.HasDoctorChangeCue(u) {
		return r.doctorChange(v), true
	}
	if !c.HasRescheduleCue(u) && !auto {
		return nil, false
	}

	newDept := slots.ExtractDepartment(u)
	keep := c.HasTimeKeepCue(u)
	timeHint := slots.HasTimeOrDateHint(u)
	args := tools.Args{}
	if timeHint {
		newTime, ask := r.anchoredSchedule(v, slots.ExtractTimePhrase(u), false, v.Window(doctorSelectWindow))
		if ask != "" {
			return Reply{Text: ask}, true
		}
		if msg := slots.RejectClosedDate(newTime, v.Now, v.calendar); msg != "" {
			return Reply{Text: msg}, true
		}
		if newTime != "" {
			args["new_time"] = newTime
		}
	}
	if newDept != "" {
		args["new_department"] = newDept
	}
	if len(args) == 0 {
		return Reply{Text: intents.ChangeDetailsAsk}, true
	}
	if keep {
		args["keep_time"] = true
	}
	return Invocation{
		Tool: tools.ReservationReschedule,
		Args: args,
		Render: outcomes{
			ok:       "예약이 변경되었습니다.",
			notFound: RescheduleMissReply,
			failed:   RescheduleFailedReply,
		}.render,
	}, true
}

// general is the fallback booking flow. It recomputes every slot from the
// utterance, the carried metadata and the recent window.
func (r *Resolver) general(v *view) (Action, bool) {
	u := v.Utterance
	window := v.Window(r.window)
	st := slots.State{ASAP: slots.ContainsASAP(u)}
	st.Department = departmentFrom(u, v.Metadata)
	if st.Department == "" {
		st.Department = recentDepartment(window)
	}

	tod := slots.ExtractTimePhrase(u)
	dateHint := slots.ExtractDatePhrase(u, v.Now)
	explicitDate := dateHint != ""
	day := slots.ExtractDayOnly(u)
	if !explicitDate {
		if days := slots.ExtractDayOnlyList(u); len(days) > 1 {
			return Reply{Text: intents.MultiDateAsk}, true
		}
		dateHint = slots.ExtractDatePhrase(r.anchorText(v.prev), v.Now)
	}
	offer := strings.Contains(v.prev, remainingDaysOffer)
	if tod == "" && offer {
		tod = slots.ExtractTimePhrase(v.prev)
	}
	if r.classifier.IsBookingPrompt(v.prev) {
		run := slotFillingRun(window, r.isSlotPrompt)
		if tod == "" && !st.ASAP {
			tod, st.ASAP = firstTimePhrase(run)
		}
		if dateHint == "" && day == 0 {
			dateHint = firstDatePhrase(run, v.Now)
		}
	}
	if day > 0 && !explicitDate {
		dateHint = resolveDayHint(day, dateHint, v.Now)
	}
	st.PreferredTime = slots.NormalizePreferredTime(slots.MergeDateWithTime(tod, dateHint), st.ASAP, v.Now)
	st.ASAP = st.ASAP || slots.ContainsASAP(st.PreferredTime)
	if msg := slots.RejectClosedDate(st.PreferredTime, v.Now, v.calendar); msg != "" {
		return Reply{Text: msg}, true
	}

	switch {
	case st.Department == "" && st.PreferredTime == "":
		return Reply{Text: intents.DepartmentAndTimeAsk}, true
	case st.Department == "":
		return Reply{Text: intents.DepartmentAsk}, true
	case st.PreferredTime == "":
		return Reply{Text: st.Department + " 진료로 도와드리겠습니다. 희망 날짜/시간을 알려주세요."}, true
	case !slots.HasSpecificTime(st.PreferredTime) && !st.ASAP:
		return Reply{Text: st.Department + " 진료로 도와드리겠습니다. " + slots.BuildTimeFollowupMessage(st.PreferredTime)}, true
	}
	if !v.Authenticated {
		return r.login(), true
	}

	st.DoctorName = doctorFrom(u, v.Metadata)
	if st.DoctorName == "" && offer {
		st.DoctorName = slots.ExtractDoctorName(v.prev)
	}
	if st.DoctorName == "" {
		return r.listDoctors(st.Department), true
	}
	return r.create(st), true
}

// anchoredSchedule resolves the date and time of a follow-up. Bare days and
// time-only replies are anchored on the newest date still under discussion;
// with no such date, several candidate days produce a question instead.
func (r *Resolver) anchoredSchedule(v *view, tod string, asap bool, window []Turn) (preferred, ask string) {
	dateHint := slots.ExtractDatePhrase(v.Utterance, v.Now)
	if dateHint == "" {
		var day int
		dateHint, day, ask = r.scheduleAnchor(v, window)
		if ask != "" {
			return "", ask
		}
		if day > 0 {
			dateHint = resolveDayHint(day, dateHint, v.Now)
		}
	}
	return slots.NormalizePreferredTime(slots.MergeDateWithTime(tod, dateHint), asap, v.Now), ""
}

type scheduleSource struct {
	text string
	user bool
}

// scheduleSources lists the texts of window newest first, reply before the
// message it answered. A rejected reply and the message it turned down are
// left out.
func (r *Resolver) scheduleSources(window []Turn) []scheduleSource {
	out := make([]scheduleSource, 0, 2*len(window))
	for _, turn := range window {
		if r.isRejection(turn.BotText) {
			continue
		}
		out = append(out,
			scheduleSource{text: turn.BotText},
			scheduleSource{text: turn.UserText, user: true},
		)
	}
	return out
}

// scheduleAnchor finds the date a follow-up refers to. A day of month in the
// utterance or in the newest user message that has one is returned as day,
// with dateHint set to the next older full date to resolve it against.
func (r *Resolver) scheduleAnchor(v *view, window []Turn) (dateHint string, day int, ask string) {
	sources := r.scheduleSources(window)
	olderDate := func(from int) string {
		for _, src := range sources[from:] {
			if date := slots.ExtractDatePhrase(src.text, v.Now); date != "" {
				return date
			}
		}
		return ""
	}
	if day = slots.ExtractDayOnly(v.Utterance); day > 0 {
		return olderDate(0), day, ""
	}
	for i, src := range sources {
		if date := slots.ExtractDatePhrase(src.text, v.Now); date != "" {
			return date, 0, ""
		}
		if !src.user {
			continue
		}
		days := dayCandidates([]string{src.text})
		if len(days) == 0 {
			continue
		}
		base := olderDate(i + 1)
		if len(days) > 1 || (base == "" && len(liveDayCandidates(sources)) > 1) {
			return "", 0, intents.MultiDateAsk
		}
		return base, days[0], ""
	}
	return "", 0, ""
}

// latestDate is the newest full date in window that was not turned down.
func (r *Resolver) latestDate(window []Turn, now time.Time) string {
	for _, src := range r.scheduleSources(window) {
		if date := slots.ExtractDatePhrase(src.text, now); date != "" {
			return date
		}
	}
	return ""
}

func liveDayCandidates(sources []scheduleSource) []int {
	var texts []string
	for _, src := range sources {
		if src.user {
			texts = append(texts, src.text)
		}
	}
	return dayCandidates(texts)
}

// isRejection reports a reply that turned down a past or closed date.
func (r *Resolver) isRejection(bot string) bool {
	return r.classifier.IsPastDatePrompt(bot) || strings.Contains(bot, slots.ClosedDateMarker)
}

// anchorText drops a rejected date so it is never offered again.
func (r *Resolver) anchorText(bot string) string {
	if r.isRejection(bot) {
		return ""
	}
	return bot
}

func (r *Resolver) isSlotPrompt(bot string) bool {
	return r.classifier.IsBookingPrompt(bot) && !r.isRejection(bot)
}

func (r *Resolver) listDoctors(department string) Action {
	return Invocation{
		Tool: tools.DoctorList,
		Args: tools.Args{"department": department},
		Render: outcomes{
			ok:       doctorSelectReply(department),
			notFound: DoctorsMissingReply,
			failed:   DoctorsMissingReply,
		}.render,
	}
}

func (r *Resolver) create(st slots.State) Invocation {
	return Invocation{
		Tool: tools.ReservationCreate,
		Args: tools.Args{
			"department":     st.Department,
			"preferred_time": st.PreferredTime,
			"doctor_name":    st.DoctorName,
		},
		Render: outcomes{
			ok:       fmt.Sprintf("%s 진료 예약 요청이 접수되었습니다. 희망 일정은 %s입니다.", st.Department, st.PreferredTime),
			notFound: DoctorNotFoundReply,
			failed:   CreateFailedReply,
		}.render,
	}
}

func (r *Resolver) cancel(v *view) Action {
	args := tools.Args{"cancel_text": v.Utterance}
	if r.classifier.HasBulkCancelCue(v.Utterance) {
		args["cancel_all"] = true
	}
	return Invocation{
		Tool: tools.ReservationCancel,
		Args: args,
		Render: outcomes{
			ok:       "예약이 취소되었습니다.",
			notFound: CancelMissReply,
			failed:   CancelFailedReply,
		}.render,
	}
}

// doctorTimeAsk asks for the time once the doctor is known.
func doctorTimeAsk(st slots.State) string {
	switch {
	case st.PreferredTime == "":
		return st.DoctorName + " 의료진으로 예약을 진행합니다. 희망 날짜/시간을 알려주세요."
	case !slots.HasSpecificTime(st.PreferredTime) && !st.ASAP:
		return st.DoctorName + " 의료진으로 예약을 진행합니다. " + slots.BuildTimeFollowupMessage(st.PreferredTime)
	}
	return ""
}

func joinDays(days []int) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d) + "일"
	}
	return strings.Join(parts, ", ")
}
