package providers

import (
	"context"
	"encoding/json"

	"taskbounty/portal/internal/models/dtos"
)

func (p *BackendProvider) Categories(ctx context.Context, token string) ([]dtos.Category, error) {
	var cats []dtos.Category
	if _, err := p.doGET(ctx, "/categories", token, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (p *BackendProvider) CreateCategory(ctx context.Context, token, name string) (*dtos.Category, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	var cat dtos.Category
	if _, err := p.doPost(ctx, "/categories", token, dtos.CategoryRequest{Name: name}, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (p *BackendProvider) UpdateCategory(ctx context.Context, token, id, name string) (*dtos.Category, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	if err := requireID("Category", id); err != nil {
		return nil, err
	}
	var cat dtos.Category
	if _, err := p.doPut(ctx, "/categories/"+pathID(id), token, dtos.CategoryRequest{Name: name}, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// DeleteCategory removes a category and returns the deleted document.
func (p *BackendProvider) DeleteCategory(ctx context.Context, token, id string) (*dtos.Category, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	if err := requireID("Category", id); err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if _, err := p.doDelete(ctx, "/categories/"+pathID(id), token, &raw); err != nil {
		return nil, err
	}
	cat := dtos.Category{ID: id}
	if len(raw) > 0 {
		if err := unwrapEntity(raw, "category", &cat); err != nil {
			return nil, decodeError(err, raw)
		}
	}
	if cat.ID == "" {
		cat.ID = id
	}
	return &cat, nil
}
