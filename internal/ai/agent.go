package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"

	"estimate-desk/internal/core"
	"estimate-desk/internal/format"
)

// Drafter turns a free-text description of work into proposed line items.
// Drafts are suggestions: callers validate them and never persist them automatically.
type Drafter interface {
	DraftLineItems(ctx context.Context, description string, hints DraftHints) (*LineItemDraft, error)
}

// DraftHints gives the model the installation's conventions.
type DraftHints struct {
	Currency       string
	TaxableEnabled bool
	// RecentItems are previously quoted items, used as a price reference.
	RecentItems []core.LineItem
}

// LineItemDraft is the structured output requested from the model.
type LineItemDraft struct {
	Items      []DraftItem `json:"items" jsonschema_description:"Proposed line items, one per distinct piece of work"`
	Reasoning  string      `json:"reasoning" jsonschema_description:"Short explanation of how quantities and prices were chosen"`
	Confidence float64     `json:"confidence" jsonschema_description:"Confidence between 0.0 and 1.0"`
}

type DraftItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity" jsonschema_description:"Positive number of units"`
	Unit        string  `json:"unit" jsonschema:"enum=hours,enum=days"`
	UnitPrice   float64 `json:"unitPrice" jsonschema_description:"Non-negative price per unit in the document currency"`
	Taxable     bool    `json:"taxable"`
}

type Agent struct {
	client *openai.Client
}

func NewAgent(apiKey string) *Agent {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Agent{client: &client}
}

func (a *Agent) DraftLineItems(ctx context.Context, description string, hints DraftHints) (*LineItemDraft, error) {
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("description is empty")
	}
	prompt := buildPrompt(description, hints)

	// Dynamically generate the JSON schema from the Go struct
	schemaJSON, err := json.Marshal(generateSchema())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(shared.ChatModelGPT4o),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "line_item_draft",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("Proposed line items for an estimate"),
				},
			},
		},
	}

	resp, err := a.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}
	return ParseDraft(resp.OutputText())
}

// ParseDraft decodes and sanity-checks a model response.
func ParseDraft(content string) (*LineItemDraft, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("empty response content")
	}
	var draft LineItemDraft
	if err := json.Unmarshal([]byte(content), &draft); err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}
	if draft.Confidence < 0 || draft.Confidence > 1 {
		return nil, fmt.Errorf("confidence %v out of range", draft.Confidence)
	}
	if len(draft.Items) == 0 {
		return nil, fmt.Errorf("draft contains no line items")
	}
	return &draft, nil
}

func buildPrompt(description string, hints DraftHints) string {
	currency := hints.Currency
	if currency == "" {
		currency = "USD"
	}
	var b strings.Builder
	fmt.Fprintf(&b, `You are an estimator for a small services business.
Turn the work description below into estimate line items.
Rules:
1. Unit is "hours" or "days".
2. Quantity is positive; unit price is non-negative and expressed in %s.
3. Split distinct pieces of work into separate items with a short description.
4. Provide a confidence score (0.0-1.0).
5. Explain your reasoning briefly.
`, currency)
	if hints.TaxableEnabled {
		b.WriteString("6. Mark an item taxable only when it is a taxable good or service.\n")
	} else {
		b.WriteString("6. Set taxable to false on every item.\n")
	}
	if len(hints.RecentItems) > 0 {
		b.WriteString("\nPreviously quoted items (use as a price reference):\n")
		for _, item := range hints.RecentItems {
			fmt.Fprintf(&b, "- %s: %s per %s\n", item.Description, format.Currency(item.UnitPrice, currency), strings.TrimSuffix(string(item.Unit), "s"))
		}
	}
	fmt.Fprintf(&b, "\nWork description: %s", description)
	return b.String()
}

func generateSchema() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v LineItemDraft
	return reflector.Reflect(v)
}
