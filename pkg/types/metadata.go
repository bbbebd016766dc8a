package types

import "fmt"

// ComponentKind identifies one of the fixed UI component buckets.
type ComponentKind string

const (
	KindModalText   ComponentKind = "modal_text"
	KindModalInput  ComponentKind = "modal_input"
	KindModalButton ComponentKind = "modal_button"
	KindToast       ComponentKind = "toast"
	KindOther       ComponentKind = "other"
)

// ComponentKinds lists every valid kind in schema order.
var ComponentKinds = []ComponentKind{
	KindModalText, KindModalInput, KindModalButton, KindToast, KindOther,
}

// Valid reports whether k is one of the fixed component kinds.
func (k ComponentKind) Valid() bool {
	switch k {
	case KindModalText, KindModalInput, KindModalButton, KindToast, KindOther:
		return true
	default:
		return false
	}
}

// Variable is a DECLARE statement captured from a procedure definition.
// Type carries the raw type-and-qualifiers text verbatim, no normalization.
type Variable struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TextComponent is an sp_api_modal_text call site.
type TextComponent struct {
	Text  string `json:"text"`
	Class string `json:"class"`
}

// InputComponent is an sp_api_modal_input call site. ValueVar holds the
// bound variable token, not a resolved value.
type InputComponent struct {
	Name        string `json:"name"`
	ValueVar    string `json:"value_var"`
	Placeholder string `json:"placeholder"`
}

// ButtonComponent is an sp_api_modal_button call site.
type ButtonComponent struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Class string `json:"class"`
}

// ToastComponent is an sp_api_toast call site. Seconds keeps the literal
// digits from the call, or the documented default when the argument is
// absent.
type ToastComponent struct {
	Text    string `json:"text"`
	Class   string `json:"class"`
	Seconds string `json:"seconds"`
}

// OtherComponent is the fixed-shape placeholder bucket for sp_api_* calls
// that match none of the four specific shapes. The analyzer does not
// populate it; it exists so the schema is stable if a later pass does.
type OtherComponent struct {
	Call string `json:"call"`
}

// UIComponents groups extracted component records by kind. All five buckets
// are always present, empty or not.
type UIComponents struct {
	ModalText   []TextComponent   `json:"modal_text"`
	ModalInput  []InputComponent  `json:"modal_input"`
	ModalButton []ButtonComponent `json:"modal_button"`
	Toast       []ToastComponent  `json:"toast"`
	Other       []OtherComponent  `json:"other"`
}

// CountByKind returns the number of components in the named bucket.
// Unknown kinds count zero.
func (u UIComponents) CountByKind(kind ComponentKind) int {
	switch kind {
	case KindModalText:
		return len(u.ModalText)
	case KindModalInput:
		return len(u.ModalInput)
	case KindModalButton:
		return len(u.ModalButton)
	case KindToast:
		return len(u.Toast)
	case KindOther:
		return len(u.Other)
	default:
		return 0
	}
}

// Total returns the component count summed across all buckets.
func (u UIComponents) Total() int {
	total := 0
	for _, kind := range ComponentKinds {
		total += u.CountByKind(kind)
	}
	return total
}

// ControlFlowKind identifies the block structure that opened a control flow
// match.
type ControlFlowKind string

const (
	FlowIf    ControlFlowKind = "if"
	FlowWhile ControlFlowKind = "while"
)

// ControlFlow records one IF or WHILE block. BodyLength is the character
// length of the matched body, used only as a coarse complexity signal.
type ControlFlow struct {
	Kind       ControlFlowKind `json:"type"`
	Condition  string          `json:"condition"`
	BodyLength int             `json:"body_length"`
}

// Metadata holds the structural facts extracted from one procedure
// definition. Every list is ordered by first occurrence in the source text.
type Metadata struct {
	Variables    []Variable    `json:"variables"`
	UIComponents UIComponents  `json:"ui_components"`
	ControlFlow  []ControlFlow `json:"control_flow"`
	APICalls     []string      `json:"api_calls"`
	Summary      string        `json:"summary"`
}

// String returns the derived summary, or a zero-count line when the
// metadata has none.
func (m Metadata) String() string {
	if m.Summary != "" {
		return m.Summary
	}
	return fmt.Sprintf("UI procedure with %d UI components, %d variables, and %d control flow structures.",
		m.UIComponents.Total(), len(m.Variables), len(m.ControlFlow))
}
