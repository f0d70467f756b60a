package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// Part is one piece of a prompt: either text or a tagged binary blob
// (audio evidence, scanned attachments). Exactly one of Text / Data is set.
type Part struct {
	Text     string
	Data     []byte
	MIMEType string
}

// TextPart returns a text prompt part.
func TextPart(s string) Part { return Part{Text: s} }

// BlobPart returns a binary prompt part with its media type.
func BlobPart(data []byte, mimeType string) Part {
	return Part{Data: data, MIMEType: mimeType}
}

// Request is one inference call.
type Request struct {
	Parts     []Part
	MaxTokens int
	// JSONOnly asks the provider for structured JSON output where the API
	// supports it. Responses are still run through DecodeObject, since no
	// provider contractually guarantees pure JSON.
	JSONOnly bool
}

// Provider is the interface for inference providers.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
	IsConfigured() bool
}

// GeminiProvider calls the Gemini generateContent REST API. It is the only
// provider that accepts binary parts (audio, scanned documents).
type GeminiProvider struct {
	Model   string
	APIKey  string
	BaseURL string
	client  *http.Client
}

// NewGeminiProvider creates a Gemini provider reading the key from apiKeyEnv.
func NewGeminiProvider(model, apiKeyEnv string) *GeminiProvider {
	return &GeminiProvider{
		Model:   model,
		APIKey:  os.Getenv(apiKeyEnv),
		BaseURL: "https://generativelanguage.googleapis.com/v1beta",
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// IsConfigured checks if the API key is set.
func (g *GeminiProvider) IsConfigured() bool {
	return g.APIKey != ""
}

// Generate sends the parts to Gemini and returns the response text.
func (g *GeminiProvider) Generate(ctx context.Context, req Request) (string, error) {
	if g.APIKey == "" {
		return "", fmt.Errorf("gemini API key not configured")
	}

	parts := make([]map[string]any, 0, len(req.Parts))
	for _, p := range req.Parts {
		if p.Data != nil {
			parts = append(parts, map[string]any{
				"inline_data": map[string]any{
					"mime_type": p.MIMEType,
					"data":      base64.StdEncoding.EncodeToString(p.Data),
				},
			})
		} else {
			parts = append(parts, map[string]any{"text": p.Text})
		}
	}

	genConfig := map[string]any{
		"maxOutputTokens": req.MaxTokens,
		"temperature":     0.3,
	}
	if req.JSONOnly {
		genConfig["responseMimeType"] = "application/json"
	}

	body := map[string]any{
		"contents":         []map[string]any{{"parts": parts}},
		"generationConfig": genConfig,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.BaseURL, g.Model)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.APIKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("gemini API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(result.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in gemini response")
	}

	var sb strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

// OpenAIProvider is a text-only OpenAI API provider.
type OpenAIProvider struct {
	Model  string
	APIKey string
	client *http.Client
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(model, apiKeyEnv string) *OpenAIProvider {
	return &OpenAIProvider{
		Model:  model,
		APIKey: os.Getenv(apiKeyEnv),
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

// IsConfigured checks if the API key is set.
func (o *OpenAIProvider) IsConfigured() bool {
	return o.APIKey != ""
}

// Generate sends a prompt to OpenAI and returns the response.
func (o *OpenAIProvider) Generate(ctx context.Context, req Request) (string, error) {
	if o.APIKey == "" {
		return "", fmt.Errorf("OpenAI API key not configured")
	}

	prompt, err := textOnly(req.Parts)
	if err != nil {
		return "", err
	}

	body := map[string]any{
		"model": o.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens":  req.MaxTokens,
		"temperature": 0.3,
	}
	if req.JSONOnly {
		body["response_format"] = map[string]string{"type": "json_object"}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.APIKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("OpenAI API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenAI response")
	}

	return result.Choices[0].Message.Content, nil
}

// OllamaProvider is a text-only local Ollama provider.
type OllamaProvider struct {
	Model   string
	BaseURL string
	client  *http.Client
}

// NewOllamaProvider creates a new Ollama provider.
func NewOllamaProvider(model, baseURL string) *OllamaProvider {
	return &OllamaProvider{
		Model:   model,
		BaseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// IsConfigured checks if Ollama is running and the model is available.
func (o *OllamaProvider) IsConfigured() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", o.BaseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false
	}

	modelBase := strings.SplitN(o.Model, ":", 2)[0]
	for _, m := range result.Models {
		if strings.Contains(m.Name, modelBase) {
			return true
		}
	}
	log.Printf("Ollama model %q not found", o.Model)
	return false
}

// Generate sends a prompt to Ollama and returns the response.
func (o *OllamaProvider) Generate(ctx context.Context, req Request) (string, error) {
	prompt, err := textOnly(req.Parts)
	if err != nil {
		return "", err
	}

	body := map[string]any{
		"model": o.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"stream": false,
		"options": map[string]any{
			"num_predict": req.MaxTokens,
			"temperature": 0.3,
		},
	}
	if req.JSONOnly {
		body["format"] = "json"
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.BaseURL+"/api/chat", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	return result.Message.Content, nil
}

// textOnly flattens parts into a single prompt string, rejecting binary
// parts for providers without multimodal input.
func textOnly(parts []Part) (string, error) {
	var sb strings.Builder
	for _, p := range parts {
		if p.Data != nil {
			return "", fmt.Errorf("provider does not support binary input (%s); use gemini for audio evidence", p.MIMEType)
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

// CreateProvider creates an inference provider based on configuration,
// falling back through the configured alternatives.
func CreateProvider(provider, model, apiKeyEnv, openaiModel, openaiKeyEnv, ollamaModel, ollamaURL string) Provider {
	if strings.ToLower(provider) == "gemini" {
		p := NewGeminiProvider(model, apiKeyEnv)
		if p.IsConfigured() {
			log.Printf("Using Gemini with model: %s", model)
			return p
		}
		log.Println("Gemini not configured, trying fallbacks...")
	}

	if strings.ToLower(provider) == "ollama" {
		p := NewOllamaProvider(ollamaModel, ollamaURL)
		if p.IsConfigured() {
			log.Printf("Using Ollama with model: %s", ollamaModel)
			return p
		}
		log.Println("Ollama not available, trying OpenAI fallback...")
	}

	p := NewOpenAIProvider(openaiModel, openaiKeyEnv)
	if p.IsConfigured() {
		log.Printf("Using OpenAI with model: %s", openaiModel)
		return p
	}

	log.Println("No inference provider available. Set GEMINI_API_KEY or OPENAI_API_KEY, or run Ollama.")
	return nil
}
