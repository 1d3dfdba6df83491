package category

// Category is a top-level catalogue section, unique by slug.
type Category struct {
	ID    int     `json:"id"`
	Slug  string  `json:"slug"`
	Name  string  `json:"name"`
	Image *string `json:"image,omitempty"`
	Ord   int     `json:"ord"`
}

type Subcategory struct {
	ID         int    `json:"id"`
	CategoryID int    `json:"categoryId"`
	Slug       string `json:"slug"`
	Name       string `json:"name"`
}
