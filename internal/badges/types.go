package badges

// ID identifies a badge.
type ID string

const (
	FirstReport ID = "first_report"
	Reporter10  ID = "reporter_10"
	Reporter50  ID = "reporter_50"
	Reporter100 ID = "reporter_100"
	Streak7     ID = "streak_7"
	Streak30    ID = "streak_30"
	Balanced    ID = "balanced"
)

// All returns every badge ID in display order.
func All() []ID {
	return []ID{FirstReport, Reporter10, Reporter50, Reporter100, Streak7, Streak30, Balanced}
}

// DisplayName returns the label shown to students.
func (id ID) DisplayName() string {
	switch id {
	case FirstReport:
		return "はじめの一歩"
	case Reporter10:
		return "探究者"
	case Reporter50:
		return "熱心な探究者"
	case Reporter100:
		return "探究マスター"
	case Streak7:
		return "一週間継続"
	case Streak30:
		return "一ヶ月継続"
	case Balanced:
		return "バランス型"
	default:
		return string(id)
	}
}

// Description says what earns the badge.
func (id ID) Description() string {
	switch id {
	case FirstReport:
		return "最初の報告を投稿した"
	case Reporter10:
		return "10回の報告を達成"
	case Reporter50:
		return "50回の報告を達成"
	case Reporter100:
		return "100回の報告を達成"
	case Streak7:
		return "7日連続で報告を投稿"
	case Streak30:
		return "30日連続で報告を投稿"
	case Balanced:
		return "全7つの能力を発揮"
	default:
		return ""
	}
}

// Icon returns the display icon for the badge.
func (id ID) Icon() string {
	switch id {
	case FirstReport:
		return "🌱"
	case Reporter10, Reporter50, Reporter100:
		return "📘"
	case Streak7, Streak30:
		return "⚡"
	case Balanced:
		return "💎"
	default:
		return "✦"
	}
}
