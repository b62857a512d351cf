package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tankyu/diary/internal/catalog"
	"github.com/tankyu/diary/internal/competency"
)

// competencyKeywords are matched as substrings of the lower-cased report.
// A competency absent from this table never scores.
var competencyKeywords = map[string][]string{
	catalog.InformationGathering: {"調べ", "検索", "資料", "文献", "情報", "データ", "統計", "調査"},
	catalog.ProblemSetting:       {"課題", "仮説", "テーマ", "目的", "計画", "構想", "方針", "設計"},
	catalog.Involving:            {"協力", "巻き込", "チーム", "仲間", "提案", "依頼", "相談", "生徒会", "承認"},
	catalog.Dialogue:             {"インタビュー", "聞", "対話", "議論", "話", "質問", "フィードバック"},
	catalog.Execution:            {"実行", "作成", "作っ", "やっ", "行動", "試し", "実施", "テスト", "作業"},
	catalog.Humility:             {"反省", "学び", "気づ", "改善", "教えて", "指摘", "振り返", "フィードバック"},
	catalog.Completion:           {"完了", "やり遂げ", "最後まで", "継続", "仕上げ", "提出", "発表", "達成"},
}

// phaseRule maps a phase to the keywords that indicate it.
type phaseRule struct {
	phase    string
	keywords []string
}

// phaseRules are evaluated in order and every match overwrites the previous
// one, so the last matching rule decides the phase.
var phaseRules = []phaseRule{
	{catalog.PhaseProblemSetting, []string{"課題", "目的", "仮説", "テーマ"}},
	{catalog.PhaseGathering, []string{"調べ", "検索", "資料", "文献", "インタビュー", "アンケート", "データ"}},
	{catalog.PhaseAnalysis, []string{"整理", "分析", "比較", "まとめ", "表", "グラフ", "マップ"}},
	{catalog.PhasePresentation, []string{"発表", "スライド", "資料", "ポスター", "表現", "まとめた"}},
}

// Reasons attached to heuristic picks, by slot.
var heuristicReasons = [competency.AssignmentsPerReport]string{
	"記述内容から最も強く表れているため",
	"行動や思考の過程から確認できるため",
	"取り組みの補助的な要素として見られるため",
}

// HeuristicClassifier is the keyword-scoring fallback used whenever the
// oracle is unavailable. It is pure and never fails.
type HeuristicClassifier struct{}

// Classify returns the detected phase ("" when no rule matches) and up to
// three ranked candidates drawn from comps, which must be ordered by display
// order. Fewer than three candidates come back only when comps itself is
// that small.
func (HeuristicClassifier) Classify(text string, comps []catalog.Competency) (string, []competency.Candidate) {
	lower := strings.ToLower(text)

	type scored struct {
		comp catalog.Competency
		hits int
	}
	ranked := make([]scored, len(comps))
	for i, c := range comps {
		ranked[i] = scored{comp: c, hits: keywordHits(lower, competencyKeywords[c.Name])}
	}
	// Stable sort keeps display order among equal hit counts.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].hits > ranked[j].hits
	})

	var picked []catalog.Competency
	for _, r := range ranked {
		if r.hits == 0 || len(picked) == competency.AssignmentsPerReport {
			break
		}
		picked = append(picked, r.comp)
	}
	for _, c := range comps {
		if len(picked) == competency.AssignmentsPerReport {
			break
		}
		if !containsCompetency(picked, c) {
			picked = append(picked, c)
		}
	}

	cands := make([]competency.Candidate, len(picked))
	for i, c := range picked {
		cand := competency.Candidate{
			Name:   c.Name,
			Reason: heuristicReasons[i],
			Role:   competency.RoleSub,
			Score:  competency.SubScore,
		}
		if i == 0 {
			cand.Role = competency.RoleStrong
			cand.Score = competency.StrongScore
		}
		cands[i] = cand
	}

	return detectPhase(lower), cands
}

// keywordHits counts the distinct keywords that occur in text.
func keywordHits(text string, keywords []string) int {
	hits := 0
	seen := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		if seen[kw] {
			continue
		}
		seen[kw] = true
		if strings.Contains(text, kw) {
			hits++
		}
	}
	return hits
}

func detectPhase(text string) string {
	phase := ""
	for _, rule := range phaseRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				phase = rule.phase
				break
			}
		}
	}
	return phase
}

func containsCompetency(cs []catalog.Competency, c catalog.Competency) bool {
	for _, x := range cs {
		if x.ID == c.ID {
			return true
		}
	}
	return false
}

// heuristicComment is the fixed encouragement used when no oracle was
// consulted.
func heuristicComment(cands []competency.Candidate) string {
	primary := "探究する力"
	if len(cands) > 0 {
		primary = cands[0].Name
	}
	return fmt.Sprintf("報告ありがとうございます。今回の取り組みでは特に「%s」を発揮していますね。"+
		"小さな一歩でも、積み重ねることで大きな成長につながります。次のステップも楽しみにしています！", primary)
}
