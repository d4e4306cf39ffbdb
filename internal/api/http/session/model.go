package session

type NewSessionResponse struct {
	SessionId     string `json:"session_id"`
	Authenticated bool   `json:"authenticated"`
	BuildingId    string `json:"building_id,omitempty"`
}

type SessionActionResponse struct {
	SessionId string `json:"session_id"`
}

type SessionListResponse struct {
	TotalSessions int      `json:"total_sessions"`
	SessionIds    []string `json:"session_ids"`
}
