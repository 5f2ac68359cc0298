package models

type BlogPost struct {
	ID            string   `db:"id" json:"id"`
	Title         string   `db:"title" json:"title"`
	Content       string   `db:"content" json:"content"`
	Excerpt       string   `db:"excerpt" json:"excerpt"`
	ImageURL      string   `db:"image_url" json:"image_url"`
	Author        string   `db:"author" json:"author"`
	Category      string   `db:"category" json:"category"`
	Subcategory   string   `db:"subcategory" json:"subcategory"`
	Tags          []string `db:"tags" json:"tags"`
	Slug          string   `db:"slug" json:"slug"`
	PublishedDate string   `db:"published_date" json:"published_date"`
	Status        string   `db:"status" json:"status"`
	Featured      bool     `db:"featured" json:"featured"`
	Views         int      `db:"views" json:"views"`
	Likes         int      `db:"likes" json:"likes"`
	CommentsCount int      `db:"comments_count" json:"comments_count"`
	CreatedAt     int64    `db:"created_at" json:"created_at"`
	UpdatedAt     int64    `db:"updated_at" json:"updated_at"`
}

const BlogPostStatusPublished = "published"
