package prompt

import "aptbot/internal/llm"

type catalogFile struct {
	Model                string       `yaml:"model"`
	UnauthenticatedReply string       `yaml:"unauthenticated_reply"`
	Instructions         instructions `yaml:"instructions"`
	Tools                []ToolSpec   `yaml:"tools"`
}

type instructions struct {
	Tenant string `yaml:"tenant"`
	Guest  string `yaml:"guest"`
}

type ToolSpec struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Parameters  *ParamSpec `yaml:"parameters"`
}

type ParamSpec struct {
	Type        string                `yaml:"type"`
	Description string                `yaml:"description"`
	Enum        []string              `yaml:"enum"`
	Properties  map[string]*ParamSpec `yaml:"properties"`
	Required    []string              `yaml:"required"`
	Items       *ParamSpec            `yaml:"items"`
}

var validTypes = map[string]bool{
	"string":  true,
	"number":  true,
	"integer": true,
	"boolean": true,
	"object":  true,
	"array":   true,
}

// snapshot is an immutable, validated catalog.
type snapshot struct {
	model                string
	unauthenticatedReply string
	tenant               string
	guest                string
	tools                []llm.FunctionDeclaration
}

func (p *ParamSpec) schema() *llm.Schema {
	if p == nil {
		return nil
	}
	s := &llm.Schema{
		Type:        p.Type,
		Description: p.Description,
		Enum:        p.Enum,
		Required:    p.Required,
		Items:       p.Items.schema(),
	}
	if len(p.Properties) > 0 {
		s.Properties = make(map[string]*llm.Schema, len(p.Properties))
		for name, prop := range p.Properties {
			s.Properties[name] = prop.schema()
		}
	}
	return s
}
