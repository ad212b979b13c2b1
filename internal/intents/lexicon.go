// Package intents classifies utterances and assistant prompts using a
// swappable cue lexicon.
package intents

// Lexicon is the cue vocabulary behind the classifier. Matching is plain
// substring containment over whitespace-collapsed text.
type Lexicon struct {
	BookingCues      []string
	RescheduleCues   []string
	CancelCues       []string
	BulkCancelCues   []string
	DoctorWords      []string
	ChangeWords      []string
	NegativeCues     []string
	AffirmativeCues  []string
	HistoryCues      []string
	TimeKeepCues     []string
	WaitCues         []string
	LoginGuardCues   []string
	ChangeOfferCues  []string
	PastDatePrompts  []string
	BookingPrompts   []string
	WaitDeptPrompts  []string
	MultiDatePrompts []string
	DoctorChange     []string
	DoctorSelect     []string
	SummaryPrompts   []string
}

// Reply templates the resolver emits. The prompt lexicon below recognises them
// on the next turn, so the two must stay in sync.
const (
	DoctorSelectPrompt   = "의료진을 선택해 주세요. 선택 후 예약을 진행합니다."
	DoctorChangePrompt   = "변경할 의료진을 알려주세요."
	WaitDepartmentAsk    = "대기 현황을 확인할 진료과를 알려주세요."
	MultiDateAsk         = "여러 날짜가 있습니다. 예약할 날짜를 하나만 알려주세요."
	ChangeDetailsAsk     = "예약 변경을 위해 변경할 날짜/시간이나 진료과를 알려주세요."
	DepartmentAsk        = "예약을 위해 진료과를 알려주세요."
	DepartmentAndTimeAsk = "예약을 위해 진료과와 희망 날짜/시간을 알려주세요."
)

// DefaultLexicon returns the Korean cue set used in production.
func DefaultLexicon() Lexicon {
	return Lexicon{
		BookingCues: []string{
			"예약해", "예약하", "예약 해", "예약 하", "예약할", "예약을 ", "예약 잡", "예약잡", "예약 부탁", "예약부탁",
			"예약 가능", "예약가능", "예약 되", "예약되나", "예약요", "잡아", "접수해", "진료 받", "진료받", "진료 보", "보고 싶",
		},
		RescheduleCues: []string{"변경", "바꿔", "바꾸", "바꿀", "옮겨", "옮기", "미뤄", "미루", "당겨", "연기", "다른 날", "다른 시간"},
		CancelCues:     []string{"취소", "캔슬", "안 갈", "안갈", "못 가", "못가"},
		BulkCancelCues: []string{"전부", "모두", "전체", "다 취소", "싹 다", "모든 예약"},
		DoctorWords:    []string{"의사", "의료진", "선생님", "교수", "원장", "담당의", "주치의"},
		ChangeWords:    []string{"변경", "바꿔", "바꾸", "바꿀", "다른"},
		NegativeCues:   []string{"아니", "아뇨", "괜찮", "됐어", "됐습니다", "됐어요", "필요 없", "필요없", "안 할", "안할", "그만", "싫어", "안 해", "안해"},
		AffirmativeCues: []string{
			"네", "넵", "넹", "예", "응", "좋아", "그래", "맞아", "맞습니다", "ㅇㅇ", "부탁", "해주세요", "해 주세요",
		},
		HistoryCues: []string{
			"예약내역", "예약 내역", "예약 조회", "예약조회", "예약 확인", "예약확인", "내 예약", "제 예약",
			"예약한 거", "예약한거", "예약 현황", "예약현황", "예약 일정", "예약일정", "예약 시간 확인",
		},
		TimeKeepCues:   []string{"시간은 그대로", "시간 그대로", "시간은 유지", "시간 유지", "같은 시간", "시간은 같", "날짜는 그대로", "일정은 그대로"},
		WaitCues:       []string{"대기 현황", "대기현황", "대기 인원", "대기인원", "대기 시간", "대기시간", "얼마나 기다", "몇 명 기다", "몇명 기다"},
		LoginGuardCues: []string{"예약", "진료 접수", "진료접수"},
		ChangeOfferCues: []string{"변경하", "변경을 원", "바꾸시", "취소하시"},
		PastDatePrompts: []string{"지난 날짜나 시간", "오늘 이후의 날짜와 시간"},
		BookingPrompts: []string{
			"희망 날짜/시간을 알려주세요", "진료과를 알려주세요", "희망 시간을 알려주세요", "날짜를 알려주세요",
			"날짜와 시간을 알려주세요", "다른 날짜를 알려주세요",
		},
		WaitDeptPrompts:  []string{"대기 현황을 확인할 진료과"},
		MultiDatePrompts: []string{"여러 날짜가 있습니다", "날짜를 하나만"},
		DoctorChange:     []string{"변경할 의료진"},
		DoctorSelect:     []string{"의료진을 선택해 주세요", "의료진을 선택해주세요"},
		SummaryPrompts: []string{
			"예약번호", "예약 번호:", "예약이 접수되었습니다", "예약 요청이 접수", "예약이 변경되었습니다", "예약 내역입니다", "예약 내역을 안내",
		},
	}
}
