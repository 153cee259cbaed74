package model

import "time"

// Article is a blog post shown on the public site.
type Article struct {
	ID        string    `json:"id" bson:"_id"`
	Title     string    `json:"title" bson:"title"`
	Tag       string    `json:"tag" bson:"tag"`
	Desc      string    `json:"desc" bson:"desc"`
	Image     string    `json:"image" bson:"image"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
