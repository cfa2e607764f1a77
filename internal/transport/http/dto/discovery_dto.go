package dto

type CandidateResponse struct {
	Profile    ProfileResponse `json:"profile"`
	DistanceKM *float64        `json:"distance_km,omitempty"`
}

type DiscoveryResponse struct {
	Items []CandidateResponse `json:"items"`
}

type SwipeStatsResponse struct {
	TotalSwipes   int `json:"total_swipes"`
	Likes         int `json:"likes"`
	Skips         int `json:"skips"`
	ReceivedLikes int `json:"received_likes"`
}
