package prompt

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"aptbot/internal/llm"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog holds the model name, system instructions and tool declarations.
// Readers get a consistent snapshot while a reload swaps it.
type Catalog struct {
	mu   sync.RWMutex
	snap *snapshot
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Load(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded prompt catalog: %v", err))
	}
	return c
}

func Load(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode prompt catalog: %w", err)
	}
	snap, err := build(f)
	if err != nil {
		return nil, err
	}
	return &Catalog{snap: snap}, nil
}

// LoadFile reads path over the embedded defaults. Keys missing from the
// file keep their default; a tools list replaces the default list.
func LoadFile(path string) (*Catalog, error) {
	snap, err := readOverlay(path)
	if err != nil {
		return nil, err
	}
	return &Catalog{snap: snap}, nil
}

// Reload re-reads path and swaps the catalog. On error the current
// catalog stays in place.
func (c *Catalog) Reload(path string) error {
	snap, err := readOverlay(path)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()
	return nil
}

func readOverlay(path string) (*snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt catalog %s: %w", path, err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(defaultCatalog, &f); err != nil {
		return nil, fmt.Errorf("decode embedded prompt catalog: %w", err)
	}
	var overlay catalogFile
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("decode prompt catalog %s: %w", path, err)
	}
	if overlay.Model != "" {
		f.Model = overlay.Model
	}
	if overlay.UnauthenticatedReply != "" {
		f.UnauthenticatedReply = overlay.UnauthenticatedReply
	}
	if overlay.Instructions.Tenant != "" {
		f.Instructions.Tenant = overlay.Instructions.Tenant
	}
	if overlay.Instructions.Guest != "" {
		f.Instructions.Guest = overlay.Instructions.Guest
	}
	if overlay.Tools != nil {
		f.Tools = overlay.Tools
	}

	snap, err := build(f)
	if err != nil {
		return nil, fmt.Errorf("prompt catalog %s: %w", path, err)
	}
	return snap, nil
}

func build(f catalogFile) (*snapshot, error) {
	if strings.TrimSpace(f.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	if strings.TrimSpace(f.Instructions.Tenant) == "" {
		return nil, fmt.Errorf("instructions.tenant is required")
	}
	if strings.TrimSpace(f.Instructions.Guest) == "" {
		return nil, fmt.Errorf("instructions.guest is required")
	}

	seen := make(map[string]bool, len(f.Tools))
	decls := make([]llm.FunctionDeclaration, 0, len(f.Tools))
	for i, t := range f.Tools {
		if t.Name == "" {
			return nil, fmt.Errorf("tools[%d]: name is required", i)
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("tools[%d]: duplicate tool %q", i, t.Name)
		}
		seen[t.Name] = true
		if err := validateParam(t.Name, t.Parameters); err != nil {
			return nil, err
		}
		decls = append(decls, llm.FunctionDeclaration{
			Name:        t.Name,
			Description: strings.TrimSpace(t.Description),
			Parameters:  t.Parameters.schema(),
		})
	}

	return &snapshot{
		model:                strings.TrimSpace(f.Model),
		unauthenticatedReply: strings.TrimSpace(f.UnauthenticatedReply),
		tenant:               strings.TrimSpace(f.Instructions.Tenant),
		guest:                strings.TrimSpace(f.Instructions.Guest),
		tools:                decls,
	}, nil
}

func validateParam(path string, p *ParamSpec) error {
	if p == nil {
		return nil
	}
	if !validTypes[p.Type] {
		return fmt.Errorf("%s: unknown parameter type %q", path, p.Type)
	}
	for _, req := range p.Required {
		if _, ok := p.Properties[req]; !ok {
			return fmt.Errorf("%s: required property %q is not declared", path, req)
		}
	}
	for name, prop := range p.Properties {
		if err := validateParam(path+"."+name, prop); err != nil {
			return err
		}
	}
	return validateParam(path+"[]", p.Items)
}

func (c *Catalog) current() *snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

func (c *Catalog) Model() string {
	return c.current().model
}

// Instruction returns the system instruction for a tenant or a guest bot.
func (c *Catalog) Instruction(authenticated bool) string {
	s := c.current()
	if authenticated {
		return s.tenant
	}
	return s.guest
}

func (c *Catalog) UnauthenticatedReply() string {
	return c.current().unauthenticatedReply
}

func (c *Catalog) Tools() []llm.FunctionDeclaration {
	tools := c.current().tools
	out := make([]llm.FunctionDeclaration, len(tools))
	copy(out, tools)
	return out
}
