package domain

// Script is a catalog entry shown on the public site.
type Script struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Downloads   int64  `json:"downloads"`
	Category    string `json:"category"`
	IsNew       bool   `json:"isNew"`
	Featured    bool   `json:"featured"`
}

// Settings is free-form site configuration owned by the dashboard.
type Settings map[string]any
