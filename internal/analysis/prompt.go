package analysis

import (
	"bytes"
	"text/template"

	"github.com/tankyu/diary/internal/catalog"
	"github.com/tankyu/diary/internal/competency"
)

const analysisSystemPrompt = `あなたは探究学習の分析を支援するAIです。
生徒の報告内容を分析して、探究フェーズと発揮された能力を判定してください。
出力はJSONのみとし、マークダウンや説明文は含めないでください。`

type analysisPromptData struct {
	Content      string
	Theme        string
	Competencies []catalog.Competency
	Phases       []catalog.Phase
}

var analysisUserTemplate = template.Must(template.New("analysis").Funcs(promptFuncs).Parse(`## 能力
{{range $i, $c := .Competencies}}{{inc $i}}. {{$c.Name}}{{if $c.Description}}：{{$c.Description}}{{end}}
{{end}}
## 探究フェーズ
{{range $i, $p := .Phases}}{{inc $i}}. {{$p.Name}}
{{end}}
## 分析タスク
報告内容を読んで以下を判定してください：
1. どの探究フェーズに該当するか（1つ選択）
2. 発揮された能力（必ず3つに固定）：強く発揮された能力1つ + サブ発揮能力2つ（重複なし）
能力名は上の一覧の表記をそのまま使ってください。

## 入力
報告内容：{{.Content}}
研究テーマ：{{.Theme}}

## 出力
{
  "phase": "フェーズ名",
  "primary_ability": {"name": "能力名", "reason": "理由"},
  "sub_abilities": [
    {"name": "能力名", "reason": "理由"},
    {"name": "能力名", "reason": "理由"}
  ]
}
`))

const commentSystemPrompt = `あなたは探究学習に取り組む高校生を温かく見守るメンターです。
- 生徒の名前を使って親しみを込めて呼びかける
- 報告内容の具体的な部分を褒める
- 発揮された能力に自然な形で触れる
- 次の一歩を優しく提案する
- 3〜5文程度、絵文字は使わない
- 敬語を使いつつも堅すぎない柔らかい口調で、説教臭くならないようにする`

type commentPromptData struct {
	Surname string
	Theme   string
	Content string
	Phase   string
	Primary competency.Candidate
	Subs    []competency.Candidate
}

var commentUserTemplate = template.Must(template.New("comment").Funcs(promptFuncs).Parse(`以下の生徒の報告に対して、励ましのコメントを生成してください。

【生徒名】{{.Surname}}さん
【研究テーマ】{{.Theme}}
【報告内容】
{{.Content}}

【分析結果】
- 探究フェーズ: {{.Phase}}
- 強く発揮された能力: {{.Primary.Name}}{{with .Primary.Reason}}（理由: {{.}}）{{end}}
{{range $i, $s := .Subs}}- サブ能力{{inc $i}}: {{$s.Name}}{{with $s.Reason}}（理由: {{.}}）{{end}}
{{end}}
上記を踏まえて、{{.Surname}}さんの頑張りを認め、次の一歩への意欲を高める温かいコメントを日本語で生成してください。`))

var promptFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
