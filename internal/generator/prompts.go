package generator

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/rhodelta66/rag-tsql-agent/pkg/types"
)

var generateTemplate = template.Must(template.New("generate").Parse(
	`You are an expert T-SQL developer specializing in creating UI-related stored procedures.

Create a T-SQL stored procedure that implements the following UI:
{{.Description}}

Here are some similar procedures for reference:

{{.SimilarProcedures}}

Follow these guidelines:
1. Use sp_api_modal_* procedures for UI components
2. Include proper variable declarations and synchronization
3. Implement appropriate control flow for button clicks
4. Add helpful comments explaining the code
5. Follow best practices for T-SQL UI development

Return only the complete T-SQL code without any additional explanation.
`))

var modifyTemplate = template.Must(template.New("modify").Parse(
	`You are an expert T-SQL developer specializing in UI-related stored procedures.

Here is an existing T-SQL stored procedure:

{{.OriginalCode}}

Modify this procedure according to the following request:
{{.ModificationRequest}}

Follow these guidelines:
1. Maintain the existing structure and variable naming conventions
2. Only change what is necessary to fulfill the request
3. Add helpful comments explaining your changes
4. Ensure all UI components work together correctly

Return only the complete modified T-SQL code without any additional explanation.
`))

// formatSimilar renders retrieved procedures as numbered reference blocks.
func formatSimilar(similar []types.RetrievalResult) string {
	if len(similar) == 0 {
		return "(no similar procedures found)\n"
	}

	var sb strings.Builder
	for i, proc := range similar {
		fmt.Fprintf(&sb, "--- PROCEDURE %d: %s ---\n", i+1, proc.Name)
		sb.WriteString(proc.Text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func renderGeneratePrompt(description string, similar []types.RetrievalResult) (string, error) {
	var sb strings.Builder
	err := generateTemplate.Execute(&sb, struct {
		Description       string
		SimilarProcedures string
	}{
		Description:       description,
		SimilarProcedures: formatSimilar(similar),
	})
	if err != nil {
		return "", fmt.Errorf("render generate prompt: %w", err)
	}
	return sb.String(), nil
}

func renderModifyPrompt(originalCode, modificationRequest string) (string, error) {
	var sb strings.Builder
	err := modifyTemplate.Execute(&sb, struct {
		OriginalCode        string
		ModificationRequest string
	}{
		OriginalCode:        originalCode,
		ModificationRequest: modificationRequest,
	})
	if err != nil {
		return "", fmt.Errorf("render modify prompt: %w", err)
	}
	return sb.String(), nil
}
