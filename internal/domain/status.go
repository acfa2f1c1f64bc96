package domain

type AuctionStatus string

const (
	AuctionActive    AuctionStatus = "active"
	AuctionEnded     AuctionStatus = "ended"
	AuctionFinalized AuctionStatus = "finalized"
	AuctionCancelled AuctionStatus = "cancelled"
)

func (s AuctionStatus) String() string {
	return string(s)
}

func (s AuctionStatus) Valid() bool {
	switch s {
	case AuctionActive, AuctionEnded, AuctionFinalized, AuctionCancelled:
		return true
	default:
		return false
	}
}

// Terminal statuses have no outgoing transitions.
func (s AuctionStatus) Terminal() bool {
	return s == AuctionFinalized || s == AuctionCancelled
}

// CanTransition reports whether from -> to is an edge of the lifecycle:
//
//	active -> ended -> finalized
//	active -> cancelled
func CanTransition(from, to AuctionStatus) bool {
	switch from {
	case AuctionActive:
		return to == AuctionEnded || to == AuctionCancelled
	case AuctionEnded:
		return to == AuctionFinalized
	default:
		return false
	}
}
