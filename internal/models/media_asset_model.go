package models

type MediaAsset struct {
	ID        string `db:"id" json:"id"`
	FileName  string `db:"file_name" json:"file_name"`
	FileType  string `db:"file_type" json:"file_type"`
	FileSize  int64  `db:"file_size" json:"file_size"`
	FileURL   string `db:"file_url" json:"file_url"`
	Width     int    `db:"width" json:"width"`
	Height    int    `db:"height" json:"height"`
	CreatedAt int64  `db:"created_at" json:"created_at"`
}
