package chat

import (
	"bytes"
	_ "embed"
	"log/slog"
	"text/template"
)

var (
	//go:embed prompts/trials_system.txt
	trialsSystemPrompt string

	//go:embed prompts/study_system.txt
	studySystemPrompt string
)

var (
	// TrialsPrompt 列表页系统提示词
	TrialsPrompt = MustPromptTemplate("trials", trialsSystemPrompt)

	// StudyPrompt 详情页系统提示词
	StudyPrompt = MustPromptTemplate("study", studySystemPrompt)
)

// PromptTemplate 根据数据集 JSON 生成系统提示词
type PromptTemplate struct {
	tmpl *template.Template
}

func MustPromptTemplate(name, text string) *PromptTemplate {
	return &PromptTemplate{
		tmpl: template.Must(template.New(name).Parse(text)),
	}
}

func (p *PromptTemplate) Render(datasetJSON string) string {
	var buf bytes.Buffer
	data := struct {
		Data string
	}{
		Data: datasetJSON,
	}

	if err := p.tmpl.Execute(&buf, data); err != nil {
		slog.Error("Failed to render system prompt, using raw dataset",
			"template", p.tmpl.Name(),
			"err", err,
		)
		return datasetJSON
	}
	return buf.String()
}
