// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package translate

import (
	"bytes"
	"text/template"
)

// DefaultLanguage is the translation target when none is configured.
const DefaultLanguage = "Simplified Chinese"

// systemPromptTmpl is the fixed instruction sent with every completion. The
// paper text itself goes in the user message.
var systemPromptTmpl = template.Must(template.New("system").Parse(`You are a professional translator of academic papers. Translate the text the user sends into {{.Language}}.
Keep technical terms, formulas, citations and proper nouns accurate; keep acronyms in their original form.
Output only the translation, with no explanations, notes or quotation marks.`))

// renderSystemPrompt executes the system prompt template for language.
func renderSystemPrompt(language string) (string, error) {
	if language == "" {
		language = DefaultLanguage
	}
	var buf bytes.Buffer
	if err := systemPromptTmpl.Execute(&buf, struct{ Language string }{Language: language}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
