package store

import (
	"context"

	"taskbounty/portal/internal/metrics"
	"taskbounty/portal/internal/models/dtos"
)

type CategoriesState struct {
	Loading bool
	Error   string
	Items   []dtos.Category
	Loaded  bool
	EditID  string
}

// Name resolves a category id for display.
func (s CategoriesState) Name(id string) string {
	for _, c := range s.Items {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}

// Editing returns the category under the edit cursor, if any.
func (s CategoriesState) Editing() *dtos.Category {
	if s.EditID == "" {
		return nil
	}
	for i := range s.Items {
		if s.Items[i].ID == s.EditID {
			return &s.Items[i]
		}
	}
	return nil
}

type Categories struct {
	base
	api Backend

	items  []dtos.Category
	loaded bool
	editID string
}

func newCategories(api Backend, m *metrics.MetricsRegistry) *Categories {
	return &Categories{base: newBase("categories", m), api: api}
}

func categoryID(c dtos.Category) string { return c.ID }

func (c *Categories) Snapshot() CategoriesState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	loading, errMsg := c.status()
	return CategoriesState{Loading: loading, Error: errMsg, Items: c.items, Loaded: c.loaded, EditID: c.editID}
}

func (c *Categories) Fetch(ctx context.Context, token string) Outcome {
	_, out := dispatch(ctx, &c.base, "fetch", "fetch", func(ctx context.Context) ([]dtos.Category, error) {
		return c.api.Categories(ctx, token)
	}, func(items []dtos.Category) {
		c.items = items
		c.loaded = true
	})
	return out
}

// EnsureLoaded fetches only when no list has been loaded yet.
func (c *Categories) EnsureLoaded(ctx context.Context, token string) Outcome {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return fulfilled()
	}
	return c.Fetch(ctx, token)
}

func (c *Categories) Create(ctx context.Context, token, name string) Outcome {
	_, out := dispatch(ctx, &c.base, "create", "create", func(ctx context.Context) (*dtos.Category, error) {
		return c.api.CreateCategory(ctx, token, name)
	}, func(cat *dtos.Category) {
		if cat != nil && cat.ID != "" {
			c.items = appendUnique(c.items, *cat, categoryID)
		}
	})
	return out
}

// Update renames the category and leaves edit mode.
func (c *Categories) Update(ctx context.Context, token, id, name string) Outcome {
	_, out := dispatch(ctx, &c.base, "update", "update:"+id, func(ctx context.Context) (*dtos.Category, error) {
		return c.api.UpdateCategory(ctx, token, id, name)
	}, func(cat *dtos.Category) {
		next := dtos.Category{ID: id, Name: name}
		if cat != nil && cat.ID == id {
			next = *cat
		}
		c.items = replaceByID(c.items, next, categoryID)
		c.editID = ""
	})
	return out
}

func (c *Categories) Delete(ctx context.Context, token, id string) Outcome {
	_, out := dispatch(ctx, &c.base, "delete", "delete:"+id, func(ctx context.Context) (*dtos.Category, error) {
		return c.api.DeleteCategory(ctx, token, id)
	}, func(cat *dtos.Category) {
		target := id
		if cat != nil && cat.ID != "" {
			target = cat.ID
		}
		c.items = removeByID(c.items, target, categoryID)
		if c.editID == target {
			c.editID = ""
		}
	})
	return out
}

func (c *Categories) SetEditID(id string) {
	c.mu.Lock()
	c.editID = id
	c.mu.Unlock()
}

func (c *Categories) Clear() {
	c.ops.abandon()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.loaded = false
	c.editID = ""
	c.err = ""
}
