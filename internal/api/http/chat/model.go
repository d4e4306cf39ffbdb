package chat

import "aptbot/internal/core/chatbot"

// FallbackResponse is what the caller sees when a turn fails.
const FallbackResponse = "Xin lỗi, có lỗi xảy ra. Vui lòng thử lại."

type ChatRequest struct {
	Message   string `json:"message" example:"Có những tiện ích gì?"`
	SessionId string `json:"session_id,omitempty" example:"3f0c2a4e-1d7b-4c1e-9a55-0b9f2c7d8e11"`
}

type ChatResponse struct {
	SessionId     string            `json:"session_id"`
	Response      string            `json:"response"`
	FunctionCalls []chatbot.CallLog `json:"function_calls"`
	TurnId        string            `json:"turn_id,omitempty"`
}

type ChatErrorResponse struct {
	SessionId string `json:"session_id"`
	Response  string `json:"response"`
	Error     string `json:"error"`
}
