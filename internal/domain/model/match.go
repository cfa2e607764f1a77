package model

import "time"

// Match rows always store the smaller user id in UserAID so the
// active-pair uniqueness constraint sees one canonical ordering.
type Match struct {
	ID          int64      `json:"id"`
	UserAID     int64      `json:"user_a_id"`
	UserBID     int64      `json:"user_b_id"`
	IsActive    bool       `json:"is_active"`
	MatchedAt   time.Time  `json:"matched_at"`
	UnmatchedAt *time.Time `json:"unmatched_at"`
}

// PartnerID resolves the counterpart of userID within the pair.
func (m Match) PartnerID(userID int64) int64 {
	if m.UserAID == userID {
		return m.UserBID
	}
	return m.UserAID
}

// HasParty reports whether userID is one of the two matched users.
func (m Match) HasParty(userID int64) bool {
	return m.UserAID == userID || m.UserBID == userID
}

// MatchWithPartner is the read aggregate handed to clients: the match
// plus the resolved counterpart profile, no cyclic references.
type MatchWithPartner struct {
	Match
	Partner Profile `json:"partner"`
}

// MatchSummary is the inbox row: one active match with its partner,
// last message and the viewer's unread count.
type MatchSummary struct {
	MatchWithPartner
	LastMessage *Message `json:"last_message"`
	UnreadCount int      `json:"unread_count"`
}
