package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/job-tracker/internal/generation/prompts"
)

// responseSchema constrains the model output: a single non-empty content
// field, nothing else required.
const responseSchema = `{
	"type": "object",
	"required": ["content"],
	"properties": {
		"content": {"type": "string", "minLength": 1}
	}
}`

// customizeResponse is the parsed model output.
type customizeResponse struct {
	Content string `json:"content"`
}

// Customizer turns an original document into a company-targeted rewrite
// through the model client. It implements the generator boundary consumed by
// the customization engine.
type Customizer struct {
	client Client
	schema *gojsonschema.Schema
}

// NewCustomizer creates a customizer on top of a model client.
func NewCustomizer(client Client) (*Customizer, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(responseSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile response schema: %w", err)
	}
	return &Customizer{client: client, schema: schema}, nil
}

// Generate rewrites source against jobDescription, honoring optional
// user instructions, and returns the rewritten document text.
func (c *Customizer) Generate(ctx context.Context, source, jobDescription, instructions string) (string, error) {
	prompt, err := buildPrompt(source, jobDescription, instructions)
	if err != nil {
		return "", err
	}

	raw, err := c.client.GenerateJSON(ctx, prompt, TierAdvanced)
	if err != nil {
		return "", fmt.Errorf("model call failed: %w", err)
	}

	content, err := c.parseResponse(raw)
	if err != nil {
		return "", err
	}
	return content, nil
}

// parseResponse validates the raw model output against the response schema
// and extracts the rewritten document.
func (c *Customizer) parseResponse(raw string) (string, error) {
	result, err := c.schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return "", fmt.Errorf("model returned malformed JSON: %w", err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return "", fmt.Errorf("model response failed validation: %s", strings.Join(details, "; "))
	}

	var resp customizeResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return "", fmt.Errorf("failed to parse model response: %w", err)
	}
	return resp.Content, nil
}

// buildPrompt assembles the customization prompt from the embedded templates.
func buildPrompt(source, jobDescription, instructions string) (string, error) {
	template, err := prompts.Get("customize.json", "customize_document")
	if err != nil {
		return "", err
	}

	extraRules := ""
	if strings.TrimSpace(instructions) != "" {
		extraTemplate, err := prompts.Get("customize.json", "extra_instructions")
		if err != nil {
			return "", err
		}
		extraRules = "\n" + prompts.Format(extraTemplate, map[string]string{
			"Instructions": instructions,
		})
	}

	return prompts.Format(template, map[string]string{
		"Source":         source,
		"JobDescription": jobDescription,
		"ExtraRules":     extraRules,
	}), nil
}
