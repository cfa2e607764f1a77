package dto

import "time"

type SendMessageRequest struct {
	Content string `json:"content"`
}

type MessageResponse struct {
	ID       int64     `json:"id"`
	MatchID  int64     `json:"match_id"`
	SenderID int64     `json:"sender_id"`
	Content  string    `json:"content"`
	IsRead   bool      `json:"is_read"`
	SentAt   time.Time `json:"sent_at"`
}

type MessagesResponse struct {
	Items       []MessageResponse `json:"items"`
	Total       int               `json:"total"`
	UnreadCount int               `json:"unread_count"`
}

type UnreadTotalResponse struct {
	UnreadCount int `json:"unread_count"`
}
