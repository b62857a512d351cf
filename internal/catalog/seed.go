package catalog

import "github.com/google/uuid"

// Competency names as they appear in reports, prompts and oracle output.
const (
	InformationGathering = "情報収集能力と先を見る力"
	ProblemSetting       = "課題設定能力と構想する力"
	Involving            = "巻き込む力"
	Dialogue             = "対話する力"
	Execution            = "実行する力"
	Humility             = "謙虚である力"
	Completion           = "完遂する力"
)

// Phase names.
const (
	PhaseProblemSetting = "課題の設定"
	PhaseGathering      = "情報の収集"
	PhaseAnalysis       = "整理・分析"
	PhasePresentation   = "まとめ・表現"
)

// seedNamespace derives stable ids for seeded rows so that every
// installation agrees on them.
var seedNamespace = uuid.MustParse("6f1c2b1e-3a4d-4e55-9d0b-7c1a2e9f4b10")

// SeedCompetencies returns the seven competencies every school starts with.
func SeedCompetencies() []Competency {
	rows := []struct{ name, desc string }{
		{InformationGathering, "トレンドを感知し、未来を予測する力"},
		{ProblemSetting, "課題を設定し、構想を練る力"},
		{Involving, "他人を巻き込み、協力を得る力"},
		{Dialogue, "対話を通じて相手を理解する力"},
		{Execution, "小さなことから始め、実行に移す力"},
		{Humility, "謙虚な姿勢で仲間を集める力"},
		{Completion, "諦めずにやり遂げる力"},
	}
	out := make([]Competency, len(rows))
	for i, r := range rows {
		out[i] = Competency{
			ID:           uuid.NewSHA1(seedNamespace, []byte("competency/"+r.name)),
			Name:         r.name,
			Description:  r.desc,
			DisplayOrder: i + 1,
			Active:       true,
		}
	}
	return out
}

// SeedPhases returns the four research phases in order.
func SeedPhases() []Phase {
	names := []string{PhaseProblemSetting, PhaseGathering, PhaseAnalysis, PhasePresentation}
	out := make([]Phase, len(names))
	for i, n := range names {
		out[i] = Phase{
			ID:           uuid.NewSHA1(seedNamespace, []byte("phase/"+n)),
			Name:         n,
			DisplayOrder: i + 1,
			Active:       true,
		}
	}
	return out
}
