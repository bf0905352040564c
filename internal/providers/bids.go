package providers

import (
	"context"

	"taskbounty/portal/internal/constants"
	"taskbounty/portal/internal/models/dtos"
)

func (p *BackendProvider) PlaceBid(ctx context.Context, token, taskID string, req dtos.BidRequest) (*dtos.Bid, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	if err := requireID("Task", taskID); err != nil {
		return nil, err
	}
	var bid dtos.Bid
	if _, err := p.doPost(ctx, "/tasks/"+pathID(taskID)+"/bids", token, req, &bid); err != nil {
		return nil, err
	}
	return &bid, nil
}

// BidsForTask lists every bid on taskID.
func (p *BackendProvider) BidsForTask(ctx context.Context, token, taskID string) ([]dtos.Bid, error) {
	if err := requireID("Task", taskID); err != nil {
		return nil, err
	}
	var bids []dtos.Bid
	if _, err := p.doGET(ctx, "/tasks/"+pathID(taskID)+"/bids", token, &bids); err != nil {
		return nil, err
	}
	return bids, nil
}

func (p *BackendProvider) UpdateBid(ctx context.Context, token, bidID string, req dtos.BidRequest) (*dtos.Bid, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	if err := requireID("Bid", bidID); err != nil {
		return nil, err
	}
	var bid dtos.Bid
	if _, err := p.doPut(ctx, "/bids/"+pathID(bidID), token, req, &bid); err != nil {
		return nil, err
	}
	return &bid, nil
}

// SetBidStatus accepts or rejects a bid. Accepting assigns the task server-side.
func (p *BackendProvider) SetBidStatus(ctx context.Context, token, bidID string, status constants.BidStatus) (*dtos.Bid, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	if err := requireID("Bid", bidID); err != nil {
		return nil, err
	}
	var bid dtos.Bid
	if _, err := p.doPut(ctx, "/bids/"+pathID(bidID)+"/status", token, dtos.BidStatusRequest{Status: status}, &bid); err != nil {
		return nil, err
	}
	return &bid, nil
}

func (p *BackendProvider) DeleteBid(ctx context.Context, token, bidID string) error {
	if err := requireToken(token); err != nil {
		return err
	}
	if err := requireID("Bid", bidID); err != nil {
		return err
	}
	_, err := p.doDelete(ctx, "/bids/"+pathID(bidID), token, nil)
	return err
}
