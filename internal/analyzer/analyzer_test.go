package analyzer

import (
	"strings"
	"testing"

	"github.com/rhodelta66/rag-tsql-agent/pkg/types"
)

const loginProcedure = `
CREATE PROCEDURE usp_login_modal
AS
BEGIN
    DECLARE @username NVARCHAR(100);
    DECLARE @attempts INT;

    EXEC sp_api_modal_text @text = N'Sign in to continue', @class = N'header'
    EXEC sp_api_modal_input @name = N'username', @value = @username, @placeholder = N'Email address'
    EXEC sp_api_modal_button @name = N'submit', @value = N'Sign In', @class = N'primary'

    IF @attempts > 3 BEGIN
        EXEC sp_api_toast @text = N'Too many attempts', @class = N'error', @seconds = 10
    END
END
`

func TestAnalyzeEmptyInput(t *testing.T) {
	a := New()

	meta := a.Analyze("")

	if len(meta.Variables) != 0 {
		t.Errorf("Variables = %v, want empty", meta.Variables)
	}
	if meta.UIComponents.Total() != 0 {
		t.Errorf("UIComponents.Total() = %d, want 0", meta.UIComponents.Total())
	}
	if len(meta.ControlFlow) != 0 {
		t.Errorf("ControlFlow = %v, want empty", meta.ControlFlow)
	}
	if len(meta.APICalls) != 0 {
		t.Errorf("APICalls = %v, want empty", meta.APICalls)
	}
	want := "UI procedure with 0 UI components, 0 variables, and 0 control flow structures."
	if meta.Summary != want {
		t.Errorf("Summary = %q, want %q", meta.Summary, want)
	}
}

func TestExtractVariables(t *testing.T) {
	tests := []struct {
		name       string
		definition string
		want       []types.Variable
	}{
		{
			name:       "single declaration",
			definition: "DECLARE @x INT;",
			want:       []types.Variable{{Name: "@x", Type: "INT"}},
		},
		{
			name:       "unterminated declaration runs to end of text",
			definition: "DECLARE @msg NVARCHAR(200)",
			want:       []types.Variable{{Name: "@msg", Type: "NVARCHAR(200)"}},
		},
		{
			name:       "type qualifiers kept verbatim",
			definition: "DECLARE @total DECIMAL(10, 2) = 0;",
			want:       []types.Variable{{Name: "@total", Type: "DECIMAL(10, 2) = 0"}},
		},
		{
			name:       "lowercase keyword",
			definition: "declare @y bit;",
			want:       []types.Variable{{Name: "@y", Type: "bit"}},
		},
		{
			name:       "multiple declarations",
			definition: "DECLARE @a INT;\nDECLARE @b NVARCHAR(50);",
			want: []types.Variable{
				{Name: "@a", Type: "INT"},
				{Name: "@b", Type: "NVARCHAR(50)"},
			},
		},
	}

	a := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.extractVariables(tt.definition)
			if len(got) != len(tt.want) {
				t.Fatalf("extractVariables() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("variable %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestExtractUIComponents(t *testing.T) {
	a := New()

	meta := a.Analyze(loginProcedure)
	ui := meta.UIComponents

	if len(ui.ModalText) != 1 {
		t.Fatalf("ModalText = %v, want one entry", ui.ModalText)
	}
	if ui.ModalText[0].Text != "Sign in to continue" || ui.ModalText[0].Class != "header" {
		t.Errorf("ModalText[0] = %+v", ui.ModalText[0])
	}

	if len(ui.ModalInput) != 1 {
		t.Fatalf("ModalInput = %v, want one entry", ui.ModalInput)
	}
	if ui.ModalInput[0].ValueVar != "@username" {
		t.Errorf("ValueVar = %q, want @username", ui.ModalInput[0].ValueVar)
	}
	if ui.ModalInput[0].Placeholder != "Email address" {
		t.Errorf("Placeholder = %q, want Email address", ui.ModalInput[0].Placeholder)
	}

	if len(ui.ModalButton) != 1 {
		t.Fatalf("ModalButton = %v, want one entry", ui.ModalButton)
	}
	if ui.ModalButton[0].Value != "Sign In" || ui.ModalButton[0].Class != "primary" {
		t.Errorf("ModalButton[0] = %+v", ui.ModalButton[0])
	}

	if len(ui.Toast) != 1 {
		t.Fatalf("Toast = %v, want one entry", ui.Toast)
	}
	if ui.Toast[0].Seconds != "10" {
		t.Errorf("Seconds = %q, want 10", ui.Toast[0].Seconds)
	}

	if len(ui.Other) != 0 {
		t.Errorf("Other = %v, want empty placeholder bucket", ui.Other)
	}
}

func TestToastDefaults(t *testing.T) {
	tests := []struct {
		name        string
		definition  string
		wantClass   string
		wantSeconds string
	}{
		{
			name:        "duration omitted defaults to 3",
			definition:  "EXEC sp_api_toast @text = N'Saved'",
			wantClass:   "",
			wantSeconds: "3",
		},
		{
			name:        "class without duration",
			definition:  "EXEC sp_api_toast @text = N'Saved', @class = N'success'",
			wantClass:   "success",
			wantSeconds: "3",
		},
		{
			name:        "all arguments present",
			definition:  "EXEC sp_api_toast @text = N'Saved', @class = N'success', @seconds = 5",
			wantClass:   "success",
			wantSeconds: "5",
		},
	}

	a := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ui := a.extractUIComponents(tt.definition)
			if len(ui.Toast) != 1 {
				t.Fatalf("Toast = %v, want one entry", ui.Toast)
			}
			if ui.Toast[0].Class != tt.wantClass {
				t.Errorf("Class = %q, want %q", ui.Toast[0].Class, tt.wantClass)
			}
			if ui.Toast[0].Seconds != tt.wantSeconds {
				t.Errorf("Seconds = %q, want %q", ui.Toast[0].Seconds, tt.wantSeconds)
			}
		})
	}
}

func TestExtractControlFlow(t *testing.T) {
	a := New()

	definition := `
IF @count > 0 BEGIN
    SELECT 1
END
WHILE @i < 10 BEGIN
    SET @i = @i + 1
END
`
	flow := a.extractControlFlow(definition)

	if len(flow) != 2 {
		t.Fatalf("extractControlFlow() = %v, want 2 entries", flow)
	}

	if flow[0].Kind != types.FlowIf {
		t.Errorf("flow[0].Kind = %q, want if", flow[0].Kind)
	}
	if flow[0].Condition != "@count > 0" {
		t.Errorf("flow[0].Condition = %q", flow[0].Condition)
	}
	if flow[0].BodyLength != len("SELECT 1") {
		t.Errorf("flow[0].BodyLength = %d, want %d", flow[0].BodyLength, len("SELECT 1"))
	}

	if flow[1].Kind != types.FlowWhile {
		t.Errorf("flow[1].Kind = %q, want while", flow[1].Kind)
	}
	if flow[1].Condition != "@i < 10" {
		t.Errorf("flow[1].Condition = %q", flow[1].Condition)
	}
}

func TestExtractAPICalls(t *testing.T) {
	a := New()

	definition := `
EXEC sp_api_toast @text = N'one'
EXEC sp_api_modal_text @text = N'two'
EXEC sp_api_toast @text = N'three'
`
	calls := a.extractAPICalls(definition)

	if len(calls) != 2 {
		t.Fatalf("extractAPICalls() = %v, want 2 distinct names", calls)
	}
	if calls[0] != "sp_api_toast" {
		t.Errorf("calls[0] = %q, want sp_api_toast at first occurrence", calls[0])
	}
	if calls[1] != "sp_api_modal_text" {
		t.Errorf("calls[1] = %q, want sp_api_modal_text", calls[1])
	}
}

func TestSummaryCounts(t *testing.T) {
	a := New()

	meta := a.Analyze(loginProcedure)

	if !strings.Contains(meta.Summary, "4 UI components") {
		t.Errorf("Summary = %q, want 4 UI components", meta.Summary)
	}
	if !strings.Contains(meta.Summary, "2 variables") {
		t.Errorf("Summary = %q, want 2 variables", meta.Summary)
	}
	if !strings.Contains(meta.Summary, "1 control flow") {
		t.Errorf("Summary = %q, want 1 control flow structure", meta.Summary)
	}
}
