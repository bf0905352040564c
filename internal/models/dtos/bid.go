package dtos

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"taskbounty/portal/internal/constants"
)

type Bid struct {
	ID        string              `json:"_id"`
	TaskID    *Ref                `json:"taskId,omitempty"`
	UserID    *Ref                `json:"userId,omitempty"`
	BidAmount decimal.Decimal     `json:"bidAmount"`
	Comment   string              `json:"comment"`
	Status    constants.BidStatus `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
}

// BidRequest is used for both create and update.
type BidRequest struct {
	BidAmount json.Number `json:"bidAmount"`
	Comment   string      `json:"comment"`
}

type BidStatusRequest struct {
	Status constants.BidStatus `json:"status"`
}

// FindBy returns the first bid placed by userID, or nil.
func FindBy(bids []Bid, userID string) *Bid {
	for i := range bids {
		if bids[i].UserID.Is(userID) {
			return &bids[i]
		}
	}
	return nil
}

// Accepted returns the accepted bid, or nil.
func Accepted(bids []Bid) *Bid {
	for i := range bids {
		if bids[i].Status == constants.BidAccepted {
			return &bids[i]
		}
	}
	return nil
}
