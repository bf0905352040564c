package dtos

type Category struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type CategoryRequest struct {
	Name string `json:"name"`
}

type CategoryDeleteResponse struct {
	Category Category `json:"category"`
}
