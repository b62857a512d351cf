package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tankyu/diary/internal/catalog"
	"github.com/tankyu/diary/internal/competency"
	"github.com/tankyu/diary/internal/llm"
	"github.com/tankyu/diary/internal/logger"
)

type staticCatalog struct {
	err error
}

func (s staticCatalog) ListActiveCompetencies(context.Context) ([]catalog.Competency, error) {
	if s.err != nil {
		return nil, s.err
	}
	return catalog.SeedCompetencies(), nil
}

func (s staticCatalog) ListActivePhases(context.Context) ([]catalog.Phase, error) {
	return catalog.SeedPhases(), nil
}

const longComment = "山田さん、インタビューを通じて地域の声を集めたのは素晴らしいですね。次は集めた声を整理してみましょう。"

func newTestAnalyzer(p llm.Provider) *Analyzer {
	cfg := DefaultConfig()
	cfg.Timeout = 2 * time.Second
	return NewAnalyzer(p, staticCatalog{}, cfg, logger.Nop())
}

// newFreeTextAnalyzer asks for JSON in the prompt only, so answers may be
// fenced or use the flat list.
func newFreeTextAnalyzer(p llm.Provider) *Analyzer {
	a := newTestAnalyzer(p)
	a.cfg.FreeText = true
	return a
}

var testInput = Input{
	Content:     "商店街の方にインタビューして、防災の取り組みを聞いた",
	ThemeTitle:  "地域の防災",
	StudentName: "山田 太郎",
}

func TestAnalyze_NoProviderUsesHeuristic(t *testing.T) {
	a := newTestAnalyzer(nil)

	res, err := a.Analyze(context.Background(), testInput)
	require.NoError(t, err)
	assert.Equal(t, SourceHeuristic, res.Source)
	assert.Equal(t, catalog.Dialogue, res.Candidates[0].Name)
	assert.Equal(t, heuristicComment(res.Candidates), res.Comment)
}

func TestAnalyze_NewFormat(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockText(`{"phase":"情報の収集","primary_ability":{"name":"対話する力","reason":"インタビューした"},`+
			`"sub_abilities":[{"name":"情報収集能力と先を見る力","reason":"調べた"},{"name":"巻き込む力","reason":"協力を得た"}]}`),
		llm.MockText(longComment),
	)
	a := newTestAnalyzer(mock)

	res, err := a.Analyze(context.Background(), testInput)
	require.NoError(t, err)
	assert.Equal(t, SourceOracle, res.Source)
	assert.Equal(t, catalog.PhaseGathering, res.Phase)
	assert.Equal(t, []string{catalog.Dialogue, catalog.InformationGathering, catalog.Involving}, names(res.Candidates))
	assert.Equal(t, competency.RoleStrong, res.Candidates[0].Role)
	assert.Equal(t, competency.StrongScore, res.Candidates[0].Score)
	assert.Equal(t, competency.RoleSub, res.Candidates[2].Role)
	assert.Equal(t, "インタビューした", res.Candidates[0].Reason)
	assert.Equal(t, longComment, res.Comment)

	require.Equal(t, 2, mock.CallCount())
	assert.Same(t, ClassificationSchema, mock.Calls[0].Schema)
	assert.Nil(t, mock.Calls[1].Schema)
	prompt := mock.Calls[0].Messages[0].Content
	assert.Contains(t, prompt, catalog.Completion)
	assert.Contains(t, prompt, "地域の防災")
	assert.Contains(t, mock.Calls[1].Messages[0].Content, "山田さん")
}

func TestAnalyze_FencedJSON(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockText("```json\n{\"phase\":\"整理・分析\",\"primary_ability\":{\"name\":\"実行する力\"},"+
			"\"sub_abilities\":[{\"name\":\"完遂する力\"},{\"name\":\"謙虚である力\"}]}\n```"),
		llm.MockText(longComment),
	)
	res, err := newFreeTextAnalyzer(mock).Analyze(context.Background(), testInput)
	require.NoError(t, err)
	assert.Equal(t, SourceOracle, res.Source)
	assert.Equal(t, catalog.PhaseAnalysis, res.Phase)
	assert.Equal(t, catalog.Execution, res.Candidates[0].Name)
}

func TestAnalyze_LegacySingleEntry(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockText(`{"phase":"情報の収集","abilities":[{"name":"対話する力","score":70}]}`),
		llm.MockText(longComment),
	)
	res, err := newFreeTextAnalyzer(mock).Analyze(context.Background(), testInput)
	require.NoError(t, err)
	assert.Equal(t, SourceOracle, res.Source)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, catalog.Dialogue, res.Candidates[0].Name)
	assert.Equal(t, competency.RoleStrong, res.Candidates[0].Role)

	as, err := competency.Normalize(res.Candidates, catalog.SeedCompetencies(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{catalog.Dialogue, catalog.InformationGathering, catalog.ProblemSetting}, competency.Names(as))
}

func TestAnalyze_LegacyTruncatesAndSkipsNonObjects(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockText(`{"abilities":[{"name":"実行する力"},"junk",{"name":"完遂する力"},{"name":"巻き込む力"}]}`),
		llm.MockText(longComment),
	)
	res, err := newFreeTextAnalyzer(mock).Analyze(context.Background(), testInput)
	require.NoError(t, err)
	assert.Equal(t, []string{catalog.Execution, catalog.Completion}, names(res.Candidates))
	assert.Equal(t, competency.RoleSub, res.Candidates[1].Role)
	assert.Empty(t, res.Phase)
}

func TestAnalyze_FallsBackOnBadOracle(t *testing.T) {
	tests := []struct {
		name string
		resp llm.MockResponse
	}{
		{"plain text", llm.MockText("申し訳ありませんが分析できません")},
		{"truncated JSON", llm.MockText(`{"phase":"情報の収集","primary_ability":{`)},
		{"neither shape", llm.MockText(`{"phase":"情報の収集"}`)},
		{"too few subs", llm.MockText(`{"primary_ability":{"name":"対話する力"},"sub_abilities":[{"name":"実行する力"}]}`)},
		{"empty legacy list", llm.MockText(`{"abilities":[]}`)},
		{"JSON array", llm.MockText(`[{"name":"対話する力"}]`)},
		{"rate limited", llm.MockResponse{Err: &llm.ErrRateLimit{}}},
		{"unavailable", llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("503")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := llm.NewMockProvider(tt.resp)
			res, err := newTestAnalyzer(mock).Analyze(context.Background(), testInput)
			require.NoError(t, err)
			assert.Equal(t, SourceHeuristic, res.Source)
			assert.Len(t, res.Candidates, 3)
			assert.NotEmpty(t, res.Comment)
			assert.Equal(t, 1, mock.CallCount(), "no comment call after a failed classification")
		})
	}
}

func TestAnalyze_Timeout(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: []byte(`{"abilities":[{"name":"対話する力"}]}`), Delay: 5 * time.Second})
	cfg := DefaultConfig()
	cfg.Timeout = 20 * time.Millisecond
	a := NewAnalyzer(mock, staticCatalog{}, cfg, logger.Nop())

	start := time.Now()
	res, err := a.Analyze(context.Background(), testInput)
	require.NoError(t, err)
	assert.Equal(t, SourceHeuristic, res.Source)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestAnalyze_CallerCancellationDoesNotAbortOracle(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: []byte(`{"abilities":[{"name":"完遂する力"}]}`), Delay: 10 * time.Millisecond},
		llm.MockText(longComment),
	)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newTestAnalyzer(mock).Analyze(ctx, testInput)
	require.NoError(t, err)
	assert.Equal(t, SourceOracle, res.Source)
	assert.Equal(t, catalog.Completion, res.Candidates[0].Name)
}

func TestAnalyze_CommentFallback(t *testing.T) {
	classification := llm.MockText(`{"phase":"まとめ・表現","primary_ability":{"name":"完遂する力"},` +
		`"sub_abilities":[{"name":"実行する力"},{"name":"対話する力"}]}`)
	want := "山田さん、報告ありがとうございます。まとめ・表現の段階で、完遂する力を発揮していますね。この調子で頑張りましょう！"

	tests := []struct {
		name    string
		comment llm.MockResponse
	}{
		{"too short", llm.MockText("いいね！")},
		{"whitespace padded short", llm.MockText("   よく頑張りました   ")},
		{"error", llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := llm.NewMockProvider(classification, tt.comment)
			res, err := newTestAnalyzer(mock).Analyze(context.Background(), testInput)
			require.NoError(t, err)
			assert.Equal(t, SourceOracle, res.Source)
			assert.Equal(t, want, res.Comment)
		})
	}
}

func TestAnalyze_CatalogErrorSurfaces(t *testing.T) {
	boom := errors.New("db down")
	a := NewAnalyzer(nil, staticCatalog{err: boom}, DefaultConfig(), logger.Nop())
	_, err := a.Analyze(context.Background(), testInput)
	require.ErrorIs(t, err, boom)
}

func TestFallbackComment_Defaults(t *testing.T) {
	got := fallbackComment(Surname(""), "", nil)
	assert.Equal(t, "生徒さん、報告ありがとうございます。探究活動の段階で、様々な能力を発揮していますね。この調子で頑張りましょう！", got)
}

func TestSurname(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"山田 太郎", "山田"},
		{"山田　花子", "山田"},
		{"佐藤", "佐藤"},
		{"Alice Smith", "Alice"},
		{"", "生徒"},
		{"　 ", "生徒"},
	}
	for _, tt := range tests {
		if got := Surname(tt.in); got != tt.want {
			t.Errorf("Surname(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := string(stripCodeFence([]byte(tt.in))); got != tt.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if strings.Contains(string(stripCodeFence([]byte("```json\n{}\n```"))), "`") {
		t.Error("fence characters left behind")
	}
}

func TestAnalyze_FreeTextSendsNoSchema(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockText(`{"phase":"情報の収集","abilities":[{"name":"対話する力"}]}`),
		llm.MockText(longComment),
	)
	_, err := newFreeTextAnalyzer(mock).Analyze(context.Background(), testInput)
	require.NoError(t, err)
	require.Equal(t, 2, mock.CallCount())
	assert.Nil(t, mock.Calls[0].Schema)
}

func TestAnalyze_StructuredOutputRejectedFallsBack(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Err: &llm.ErrMaxTokensExceeded{}},
	)
	res, err := newTestAnalyzer(mock).Analyze(context.Background(), testInput)
	require.NoError(t, err)
	assert.Equal(t, SourceHeuristic, res.Source)
	assert.Equal(t, 1, mock.CallCount())
}

func TestClassificationSchema(t *testing.T) {
	valid := `{"phase":null,"primary_ability":{"name":"対話する力","reason":"聞き取り"},` +
		`"sub_abilities":[{"name":"実行する力","reason":"実践"},{"name":"巻き込む力","reason":"協力"}]}`

	tests := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"primary and two subs", valid, true},
		{"legacy list", `{"phase":"情報の収集","abilities":[{"name":"対話する力"}]}`, false},
		{"three subs", `{"phase":"整理・分析","primary_ability":{"name":"対話する力","reason":"a"},` +
			`"sub_abilities":[{"name":"実行する力","reason":"b"},{"name":"巻き込む力","reason":"c"},{"name":"完遂する力","reason":"d"}]}`, false},
		{"extra field", `{"phase":"整理・分析","comment":"x","primary_ability":{"name":"対話する力","reason":"a"},` +
			`"sub_abilities":[{"name":"実行する力","reason":"b"},{"name":"巻き込む力","reason":"c"}]}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := llm.ValidateJSON(ClassificationSchema, []byte(tt.raw))
			if tt.ok {
				assert.NoError(t, err)
				assert.NoError(t, llm.ValidateJSON(AnalysisSchema, []byte(tt.raw)))
			} else {
				assert.Error(t, err)
			}
		})
	}
}
