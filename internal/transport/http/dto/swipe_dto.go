package dto

type SwipeRequest struct {
	TargetUserID int64  `json:"target_user_id"`
	Direction    string `json:"direction"`
}

type SwipeResponse struct {
	OK      bool           `json:"ok"`
	Matched bool           `json:"matched"`
	Message string         `json:"message"`
	Match   *MatchResponse `json:"match,omitempty"`
}
