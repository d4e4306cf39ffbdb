package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// NewGeminiModel dials the Gemini API. A non-empty model overrides the one
// each request names.
func NewGeminiModel(ctx context.Context, apiKey string, model string, timeout time.Duration) (*GeminiModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiModel{client: client, model: model, timeout: timeout}, nil
}

type GeminiModel struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func (g *GeminiModel) Generate(ctx context.Context, req Request) (Message, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	model := req.Model
	if g.model != "" {
		model = g.model
	}
	resp, err := g.client.Models.GenerateContent(ctx, model, toContents(req.History), toConfig(req))
	if err != nil {
		return Message{}, fmt.Errorf("generate content: %w", err)
	}
	return fromResponse(resp)
}

func toConfig(req Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.SystemInstruction}}}
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  toSchema(t.Parameters),
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	return cfg
}

func toSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genai.Type(strings.ToUpper(s.Type)),
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
		Items:       toSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, p := range s.Properties {
			out.Properties[name] = toSchema(p)
		}
	}
	return out
}

func toContents(history []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		c := &genai.Content{Role: string(m.Role)}
		for _, p := range m.Parts {
			c.Parts = append(c.Parts, toPart(p))
		}
		contents = append(contents, c)
	}
	return contents
}

func toPart(p Part) *genai.Part {
	out := &genai.Part{ThoughtSignature: p.Signature}
	switch {
	case p.FunctionCall != nil:
		out.FunctionCall = &genai.FunctionCall{
			ID:   p.FunctionCall.ID,
			Name: p.FunctionCall.Name,
			Args: p.FunctionCall.Args,
		}
	case p.FunctionResponse != nil:
		out.FunctionResponse = &genai.FunctionResponse{
			ID:       p.FunctionResponse.ID,
			Name:     p.FunctionResponse.Name,
			Response: p.FunctionResponse.Response,
		}
	default:
		out.Text = p.Text
	}
	return out
}

func fromResponse(resp *genai.GenerateContentResponse) (Message, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return Message{}, fmt.Errorf("%w: prompt blocked (%s)", ErrEmptyResponse, resp.PromptFeedback.BlockReason)
		}
		return Message{}, ErrEmptyResponse
	}

	msg := Message{Role: RoleModel}
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		switch {
		case p.FunctionCall != nil:
			msg.Parts = append(msg.Parts, Part{
				FunctionCall: &FunctionCall{
					ID:   p.FunctionCall.ID,
					Name: p.FunctionCall.Name,
					Args: p.FunctionCall.Args,
				},
				Signature: p.ThoughtSignature,
			})
		case p.Text != "":
			msg.Parts = append(msg.Parts, Part{Text: p.Text, Signature: p.ThoughtSignature})
		}
	}
	return msg, nil
}
