package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tankyu/diary/internal/catalog"
	"github.com/tankyu/diary/internal/competency"
	"github.com/tankyu/diary/internal/llm"
	"github.com/tankyu/diary/internal/logger"
)

// Result sources.
const (
	SourceOracle    = "oracle"
	SourceHeuristic = "heuristic"
)

// minCommentRunes is the shortest oracle comment accepted as is.
const minCommentRunes = 20

// Placeholders used when the report lacks the corresponding detail.
const (
	defaultSurname    = "生徒"
	defaultTheme      = "未設定"
	defaultPhaseLabel = "探究活動"
	defaultAbility    = "様々な能力"
)

// Config tunes the oracle calls.
type Config struct {
	// Timeout bounds each oracle call. A classification that does not
	// finish in time is replaced by the keyword heuristic.
	Timeout          time.Duration
	MaxTokens        int
	CommentMaxTokens int
	Temperature      float64

	// FreeText asks for JSON in the prompt only and skips the provider's
	// native structured output. Needed for OpenAI-compatible models that
	// reject a json_schema response format.
	FreeText bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:          8 * time.Second,
		MaxTokens:        512,
		CommentMaxTokens: 600,
		Temperature:      0.3,
	}
}

// CatalogReader lists the master data prompts are built from.
type CatalogReader interface {
	ListActiveCompetencies(ctx context.Context) ([]catalog.Competency, error)
	ListActivePhases(ctx context.Context) ([]catalog.Phase, error)
}

// Input is a report to analyze.
type Input struct {
	Content     string
	ThemeTitle  string
	StudentName string
}

// Result is the outcome of an analysis. Candidates are advisory and still
// need normalizing against the catalog.
type Result struct {
	Phase      string // "" when undetected
	Candidates []competency.Candidate
	Comment    string
	Source     string
}

// Analyzer classifies reports with the oracle and falls back to keyword
// heuristics whenever the oracle is missing or misbehaves.
type Analyzer struct {
	provider  llm.Provider
	catalog   CatalogReader
	heuristic HeuristicClassifier
	cfg       Config
	log       *logger.Logger
}

// NewAnalyzer creates an Analyzer. A nil provider means no oracle is
// configured and every report is classified heuristically.
func NewAnalyzer(provider llm.Provider, cat CatalogReader, cfg Config, log *logger.Logger) *Analyzer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Analyzer{provider: provider, catalog: cat, cfg: cfg, log: log}
}

// Analyze classifies a report and writes an encouragement comment. Oracle
// failures never surface; the only error is a failure to read the catalog.
//
// Oracle calls are bounded by the configured timeout alone: they detach
// from ctx cancellation so an aborted request cannot cut a running call short.
func (a *Analyzer) Analyze(ctx context.Context, in Input) (*Result, error) {
	comps, err := a.catalog.ListActiveCompetencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("load competencies: %w", err)
	}

	if a.provider == nil {
		return a.fallback(in, comps), nil
	}

	phases, err := a.catalog.ListActivePhases(ctx)
	if err != nil {
		return nil, fmt.Errorf("load phases: %w", err)
	}

	phase, cands, err := a.classify(context.WithoutCancel(ctx), in, comps, phases)
	if err != nil {
		a.log.Warn("oracle classification failed, using keyword heuristics",
			"kind", llm.Kind(err), "error", err)
		return a.fallback(in, comps), nil
	}

	return &Result{
		Phase:      phase,
		Candidates: cands,
		Comment:    a.encourage(context.WithoutCancel(ctx), in, phase, cands),
		Source:     SourceOracle,
	}, nil
}

func (a *Analyzer) fallback(in Input, comps []catalog.Competency) *Result {
	phase, cands := a.heuristic.Classify(in.Content, comps)
	return &Result{
		Phase:      phase,
		Candidates: cands,
		Comment:    heuristicComment(cands),
		Source:     SourceHeuristic,
	}
}

var errNoCompetencies = errors.New("response names no competencies")

func (a *Analyzer) classify(ctx context.Context, in Input, comps []catalog.Competency, phases []catalog.Phase) (string, []competency.Candidate, error) {
	ctx, cancel := context.WithTimeout(llm.WithPurpose(ctx, llm.PurposeReportAnalysis), a.cfg.Timeout)
	defer cancel()

	userMsg, err := render(analysisUserTemplate, analysisPromptData{
		Content:      in.Content,
		Theme:        orDefault(in.ThemeTitle, defaultTheme),
		Competencies: comps,
		Phases:       phases,
	})
	if err != nil {
		return "", nil, fmt.Errorf("build analysis prompt: %w", err)
	}

	req := llm.Request{
		System:      analysisSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: userMsg}},
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	}
	if !a.cfg.FreeText {
		req.Schema = ClassificationSchema
	}
	resp, err := a.provider.Generate(ctx, req)
	if err != nil {
		return "", nil, err
	}

	// Free-text answers may be fenced or use the flat "abilities" list, so
	// both paths go through the lenient schema and parser.

	raw := stripCodeFence(resp.Content)
	if err := llm.ValidateJSON(AnalysisSchema, raw); err != nil {
		return "", nil, err
	}

	var out analysisOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", nil, &llm.ErrInvalidResponse{Content: raw, Err: err}
	}
	cands := out.candidates()
	if len(cands) == 0 {
		return "", nil, &llm.ErrInvalidResponse{Content: raw, Err: errNoCompetencies}
	}
	return strings.TrimSpace(out.Phase), cands, nil
}

// encourage asks the oracle for a comment and substitutes a template when
// the call fails or the answer is too short to be useful.
func (a *Analyzer) encourage(ctx context.Context, in Input, phase string, cands []competency.Candidate) string {
	ctx, cancel := context.WithTimeout(llm.WithPurpose(ctx, llm.PurposeReportComment), a.cfg.Timeout)
	defer cancel()

	surname := Surname(in.StudentName)
	fallback := fallbackComment(surname, phase, cands)

	data := commentPromptData{
		Surname: surname,
		Theme:   orDefault(in.ThemeTitle, defaultTheme),
		Content: in.Content,
		Phase:   orDefault(phase, defaultPhaseLabel),
	}
	if len(cands) > 0 {
		data.Primary = cands[0]
		data.Subs = cands[1:]
	}
	userMsg, err := render(commentUserTemplate, data)
	if err != nil {
		a.log.Warn("building comment prompt failed", "error", err)
		return fallback
	}

	resp, err := a.provider.Generate(ctx, llm.Request{
		System:      commentSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: userMsg}},
		MaxTokens:   a.cfg.CommentMaxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		a.log.Warn("oracle comment failed, using template", "kind", llm.Kind(err), "error", err)
		return fallback
	}

	comment := strings.TrimSpace(string(resp.Content))
	if utf8.RuneCountInString(comment) < minCommentRunes {
		a.log.Warn("oracle comment too short, using template", "runes", utf8.RuneCountInString(comment))
		return fallback
	}
	return comment
}

// TemplateComment is the stock encouragement for a student, used whenever
// the oracle cannot write one.
func TemplateComment(studentName, phase string, cands []competency.Candidate) string {
	return fallbackComment(Surname(studentName), phase, cands)
}

func fallbackComment(surname, phase string, cands []competency.Candidate) string {
	primary := defaultAbility
	if len(cands) > 0 && cands[0].Name != "" {
		primary = cands[0].Name
	}
	return fmt.Sprintf("%sさん、報告ありがとうございます。%sの段階で、%sを発揮していますね。この調子で頑張りましょう！",
		surname, orDefault(phase, defaultPhaseLabel), primary)
}

// Surname returns the first token of a display name, splitting on ASCII
// and ideographic spaces. Empty names yield a generic form of address.
func Surname(name string) string {
	fields := strings.FieldsFunc(name, func(r rune) bool {
		return r == ' ' || r == '　'
	})
	if len(fields) == 0 {
		return defaultSurname
	}
	return fields[0]
}

var (
	fenceOpen  = regexp.MustCompile("^```(?:json)?\\s*")
	fenceClose = regexp.MustCompile("\\s*```$")
)

// stripCodeFence removes a markdown code fence wrapped around a response.
func stripCodeFence(raw []byte) json.RawMessage {
	s := strings.TrimSpace(string(raw))
	if strings.HasPrefix(s, "```") {
		s = fenceOpen.ReplaceAllString(s, "")
		s = fenceClose.ReplaceAllString(s, "")
	}
	return json.RawMessage(s)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

type abilityOutput struct {
	Name   *string `json:"name"`
	Reason *string `json:"reason"`
}

func (o abilityOutput) candidate(role competency.Role) competency.Candidate {
	c := competency.Candidate{Role: role, Score: competency.SubScore}
	if role == competency.RoleStrong {
		c.Score = competency.StrongScore
	}
	if o.Name != nil {
		c.Name = strings.TrimSpace(*o.Name)
	}
	if o.Reason != nil {
		c.Reason = *o.Reason
	}
	return c
}

// analysisOutput is the raw oracle answer in either shape.
type analysisOutput struct {
	Phase          string            `json:"phase"`
	PrimaryAbility *abilityOutput    `json:"primary_ability"`
	SubAbilities   []abilityOutput   `json:"sub_abilities"`
	Abilities      []json.RawMessage `json:"abilities"`
}

// candidates prefers the primary/sub shape and otherwise reads the first
// three entries of the flat list, the first as strong. Entries of the flat
// list that are not objects are skipped but still use up their slot.
func (o analysisOutput) candidates() []competency.Candidate {
	if o.PrimaryAbility != nil && len(o.SubAbilities) >= 2 {
		return []competency.Candidate{
			o.PrimaryAbility.candidate(competency.RoleStrong),
			o.SubAbilities[0].candidate(competency.RoleSub),
			o.SubAbilities[1].candidate(competency.RoleSub),
		}
	}

	var out []competency.Candidate
	for i, raw := range o.Abilities {
		if i == competency.AssignmentsPerReport {
			break
		}
		var ab abilityOutput
		if string(raw) == "null" || json.Unmarshal(raw, &ab) != nil {
			continue
		}
		role := competency.RoleSub
		if i == 0 {
			role = competency.RoleStrong
		}
		out = append(out, ab.candidate(role))
	}
	return out
}
