package model

import (
	"time"

	"github.com/kindledapp/kindled/internal/domain/enums"
)

type Swipe struct {
	ID        int64                `json:"id"`
	SwiperID  int64                `json:"swiper_id"`
	TargetID  int64                `json:"target_id"`
	Direction enums.SwipeDirection `json:"direction"`
	CreatedAt time.Time            `json:"created_at"`
}

type SwipeStats struct {
	TotalSwipes   int `json:"total_swipes"`
	Likes         int `json:"likes"`
	Skips         int `json:"skips"`
	ReceivedLikes int `json:"received_likes"`
}
