package llm

import (
	"errors"
	"strings"
)

var ErrEmptyResponse = errors.New("model returned no candidates")

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

type Message struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// Part carries exactly one of Text, FunctionCall or FunctionResponse.
type Part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"function_call,omitempty"`
	FunctionResponse *FunctionResponse `json:"function_response,omitempty"`
	Signature        []byte            `json:"signature,omitempty"`
}

type FunctionCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type FunctionResponse struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type FunctionDeclaration struct {
	Name        string
	Description string
	Parameters  *Schema
}

// Schema is the OpenAPI subset function parameters are declared with.
// Type is lower case: string, number, integer, boolean, object or array.
type Schema struct {
	Type        string
	Description string
	Enum        []string
	Properties  map[string]*Schema
	Required    []string
	Items       *Schema
}

type Request struct {
	Model             string
	SystemInstruction string
	Tools             []FunctionDeclaration
	History           []Message
}

func UserText(text string) Message {
	return Message{Role: RoleUser, Parts: []Part{{Text: text}}}
}

func ModelText(text string) Message {
	return Message{Role: RoleModel, Parts: []Part{{Text: text}}}
}

// Text joins the text parts of m.
func (m Message) Text() string {
	var b strings.Builder
	for _, p := range m.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

func (m Message) FunctionCalls() []FunctionCall {
	var calls []FunctionCall
	for _, p := range m.Parts {
		if p.FunctionCall != nil {
			calls = append(calls, *p.FunctionCall)
		}
	}
	return calls
}

// IsUserText reports whether m is a user turn typed by a person rather than
// a batch of function responses.
func (m Message) IsUserText() bool {
	if m.Role != RoleUser {
		return false
	}
	for _, p := range m.Parts {
		if p.FunctionResponse != nil {
			return false
		}
	}
	return true
}
