package ai

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"estimate-desk/internal/core"
)

func TestParseDraft(t *testing.T) {
	good := `{"items":[{"description":"Logo design","quantity":6,"unit":"hours","unitPrice":75,"taxable":true}],"reasoning":"six hours","confidence":0.8}`
	draft, err := ParseDraft(good)
	if err != nil {
		t.Fatalf("ParseDraft: %v", err)
	}
	if len(draft.Items) != 1 || draft.Items[0].Unit != "hours" || draft.Items[0].UnitPrice != 75 {
		t.Errorf("unexpected draft %+v", draft)
	}

	bad := map[string]string{
		"empty":      "",
		"not json":   "sure, here you go",
		"confidence": `{"items":[{"description":"x","quantity":1,"unit":"days","unitPrice":1,"taxable":false}],"reasoning":"","confidence":3}`,
		"no items":   `{"items":[],"reasoning":"","confidence":0.5}`,
	}
	for name, content := range bad {
		if _, err := ParseDraft(content); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt("Build a landing page", DraftHints{
		Currency: "EUR",
		RecentItems: []core.LineItem{
			{Description: "Frontend work", Unit: core.UnitDays, UnitPrice: decimal.NewFromInt(600)},
		},
	})
	for _, want := range []string{"expressed in EUR", "Set taxable to false", "Frontend work", "per day", "Work description: Build a landing page"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("expected %q in prompt:\n%s", want, prompt)
		}
	}
}

func TestGenerateSchema_IsStrict(t *testing.T) {
	raw, err := json.Marshal(generateSchema())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(raw)
	for _, want := range []string{`"additionalProperties":false`, `"unitPrice"`, `"enum":["hours","days"]`} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %s in schema %s", want, s)
		}
	}
}
