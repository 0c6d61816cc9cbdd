package domain

import (
	"encoding/json"
	"testing"
)

func TestEnvelopeConsistency(t *testing.T) {
	ok := Succeed(&SuccessPayload{TotalLLMCalls: 1, OutputType: OutputTypeText})
	if !ok.Status || ok.Data == nil || ok.Error != nil {
		t.Errorf("Succeed produced inconsistent envelope: %+v", ok)
	}

	bad := Failf(ErrMissingInput, "no text", nil)
	if bad.Status || bad.Data != nil || bad.Error == nil {
		t.Errorf("Failf produced inconsistent envelope: %+v", bad)
	}
	if bad.Error.Kind != ErrMissingInput {
		t.Errorf("Error.Kind = %s, want %s", bad.Error.Kind, ErrMissingInput)
	}
}

func TestEnvelopeWireKeys(t *testing.T) {
	env := Failf(ErrTransport, "boom", map[string]any{"status_code": 503})

	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	// The dispatch layer keys off the capitalized names.
	for _, key := range []string{"Data", "Error", "Status"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("envelope JSON missing key %q", key)
		}
	}
}

func TestCompletionParams_EffectiveModel(t *testing.T) {
	tests := []struct {
		name      string
		inputType InputType
		want      string
	}{
		{"text selects chat model", InputTypeText, "gemini-1.5-flash"},
		{"image selects vision model", InputTypeImage, "gemini-1.5-pro-vision"},
		{"unknown tag falls back to chat model", InputType("audio"), "gemini-1.5-flash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := CompletionParams{
				InputType:   tt.inputType,
				ChatModel:   "gemini-1.5-flash",
				VisionModel: "gemini-1.5-pro-vision",
			}
			if got := p.EffectiveModel(); got != tt.want {
				t.Errorf("EffectiveModel() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCompletionParams_UserText(t *testing.T) {
	p := CompletionParams{Input: "question", Prompt: "system"}
	if p.UserText() != "question" {
		t.Errorf("UserText() = %s, want input to take precedence", p.UserText())
	}

	p = CompletionParams{Prompt: "only prompt"}
	if p.UserText() != "only prompt" {
		t.Errorf("UserText() = %s, want prompt fallback", p.UserText())
	}
}

func TestRole_IsForwardable(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleUser, true},
		{RoleModel, true},
		{Role("assistant"), false},
		{Role("system"), false},
		{Role(""), false},
	}

	for _, tt := range tests {
		if got := tt.role.IsForwardable(); got != tt.want {
			t.Errorf("IsForwardable(%q) = %v, want %v", tt.role, got, tt.want)
		}
	}
}
