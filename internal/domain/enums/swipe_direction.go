package enums

type SwipeDirection string

const (
	SwipeLeft  SwipeDirection = "left"
	SwipeRight SwipeDirection = "right"
)

func (d SwipeDirection) Valid() bool {
	return d == SwipeLeft || d == SwipeRight
}
