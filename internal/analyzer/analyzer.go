package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rhodelta66/rag-tsql-agent/pkg/types"
)

// Optional-argument defaults. Every per-kind default lives here rather than
// inline at the extraction sites.
const (
	defaultToastSeconds = "3"
	defaultString       = ""
)

// Declaration, call-site, and block patterns for T-SQL procedure text.
// These are approximate structural signals, not a parser: the block patterns
// pair an opener with the first terminator found, so nested BEGIN/END blocks
// can be mis-paired. That is acceptable for the coarse ranking signal this
// produces and is a known limitation.
var (
	variablePattern = regexp.MustCompile(`(?i)DECLARE\s+(@\w+)\s+([^;]+)(?:;|\z)`)

	modalTextPattern   = regexp.MustCompile(`(?i)EXEC\s+sp_api_modal_text\s+@text\s*=\s*N?'([^']+)'(?:.*?@class\s*=\s*N?'([^']+)')?`)
	modalInputPattern  = regexp.MustCompile(`(?i)EXEC\s+sp_api_modal_input\s+@name\s*=\s*N?'([^']+)'(?:.*?@value\s*=\s*([^,\s]+))?(?:.*?@placeholder\s*=\s*N?'([^']+)')?`)
	modalButtonPattern = regexp.MustCompile(`(?i)EXEC\s+sp_api_modal_button\s+@name\s*=\s*N?'([^']+)'(?:.*?@value\s*=\s*N?'([^']+)')?(?:.*?@class\s*=\s*N?'([^']+)')?`)
	toastPattern       = regexp.MustCompile(`(?i)EXEC\s+sp_api_toast\s+@text\s*=\s*N?'([^']+)'(?:.*?@class\s*=\s*N?'([^']+)')?(?:.*?@seconds\s*=\s*(\d+))?`)

	ifPattern    = regexp.MustCompile(`(?is)IF\s+(.+?)\s+BEGIN\s+(.+?)\s+END`)
	whilePattern = regexp.MustCompile(`(?is)WHILE\s+(.+?)\s+BEGIN\s+(.+?)\s+END`)

	apiCallPattern = regexp.MustCompile(`(?i)EXEC\s+(sp_api_\w+)`)
)

// Analyzer extracts structural metadata from T-SQL stored procedure
// definitions, specialized for UI-related procedures. It is stateless and
// safe for concurrent use.
type Analyzer struct{}

// New creates a new Analyzer instance.
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze extracts metadata from a procedure definition. Empty input yields
// zero-count metadata, not an error, and unmatched patterns simply leave
// their facet empty. Analyze never fails.
func (a *Analyzer) Analyze(definition string) types.Metadata {
	return types.Metadata{
		Variables:    a.extractVariables(definition),
		UIComponents: a.extractUIComponents(definition),
		ControlFlow:  a.extractControlFlow(definition),
		APICalls:     a.extractAPICalls(definition),
		Summary:      a.generateSummary(definition),
	}
}

// extractVariables captures DECLARE statements, keeping the raw type text
// verbatim up to the statement delimiter or end of text.
func (a *Analyzer) extractVariables(definition string) []types.Variable {
	variables := []types.Variable{}

	for _, match := range variablePattern.FindAllStringSubmatch(definition, -1) {
		variables = append(variables, types.Variable{
			Name: match[1],
			Type: strings.TrimSpace(match[2]),
		})
	}

	return variables
}

// extractUIComponents matches the four recognized sp_api_* call shapes.
// Unmatched optional arguments take the per-kind defaults declared above.
// The "other" bucket stays empty; it is a fixed-shape placeholder in the
// schema.
func (a *Analyzer) extractUIComponents(definition string) types.UIComponents {
	components := types.UIComponents{
		ModalText:   []types.TextComponent{},
		ModalInput:  []types.InputComponent{},
		ModalButton: []types.ButtonComponent{},
		Toast:       []types.ToastComponent{},
		Other:       []types.OtherComponent{},
	}

	for _, match := range modalTextPattern.FindAllStringSubmatch(definition, -1) {
		components.ModalText = append(components.ModalText, types.TextComponent{
			Text:  match[1],
			Class: orDefault(match[2], defaultString),
		})
	}

	for _, match := range modalInputPattern.FindAllStringSubmatch(definition, -1) {
		components.ModalInput = append(components.ModalInput, types.InputComponent{
			Name:        match[1],
			ValueVar:    orDefault(match[2], defaultString),
			Placeholder: orDefault(match[3], defaultString),
		})
	}

	for _, match := range modalButtonPattern.FindAllStringSubmatch(definition, -1) {
		components.ModalButton = append(components.ModalButton, types.ButtonComponent{
			Name:  match[1],
			Value: orDefault(match[2], defaultString),
			Class: orDefault(match[3], defaultString),
		})
	}

	for _, match := range toastPattern.FindAllStringSubmatch(definition, -1) {
		components.Toast = append(components.Toast, types.ToastComponent{
			Text:    match[1],
			Class:   orDefault(match[2], defaultString),
			Seconds: orDefault(match[3], defaultToastSeconds),
		})
	}

	return components
}

// extractControlFlow records IF and WHILE blocks with their condition text
// and body length. The body length is a complexity signal only.
func (a *Analyzer) extractControlFlow(definition string) []types.ControlFlow {
	flow := []types.ControlFlow{}

	for _, match := range ifPattern.FindAllStringSubmatch(definition, -1) {
		flow = append(flow, types.ControlFlow{
			Kind:       types.FlowIf,
			Condition:  strings.TrimSpace(match[1]),
			BodyLength: len(strings.TrimSpace(match[2])),
		})
	}

	for _, match := range whilePattern.FindAllStringSubmatch(definition, -1) {
		flow = append(flow, types.ControlFlow{
			Kind:       types.FlowWhile,
			Condition:  strings.TrimSpace(match[1]),
			BodyLength: len(strings.TrimSpace(match[2])),
		})
	}

	return flow
}

// extractAPICalls returns distinct sp_api_* call names in first-occurrence
// order. Repeats are dropped, not reordered.
func (a *Analyzer) extractAPICalls(definition string) []string {
	calls := []string{}
	seen := make(map[string]bool)

	for _, match := range apiCallPattern.FindAllStringSubmatch(definition, -1) {
		name := match[1]
		if !seen[name] {
			seen[name] = true
			calls = append(calls, name)
		}
	}

	return calls
}

// generateSummary derives a one-line description of the procedure. The
// summary is descriptive only and never used for ranking.
func (a *Analyzer) generateSummary(definition string) string {
	components := a.extractUIComponents(definition)
	variables := a.extractVariables(definition)
	flow := a.extractControlFlow(definition)

	return fmt.Sprintf("UI procedure with %d UI components, %d variables, and %d control flow structures.",
		components.Total(), len(variables), len(flow))
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
