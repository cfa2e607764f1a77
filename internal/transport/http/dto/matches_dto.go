package dto

import "time"

type MatchResponse struct {
	ID        int64           `json:"id"`
	MatchedAt time.Time       `json:"matched_at"`
	Partner   ProfileResponse `json:"partner"`
}

type MatchSummaryResponse struct {
	MatchResponse
	LastMessage *MessageResponse `json:"last_message"`
	UnreadCount int              `json:"unread_count"`
}

type MatchesResponse struct {
	Items []MatchSummaryResponse `json:"items"`
}

type UnmatchResponse struct {
	OK bool `json:"ok"`
}
