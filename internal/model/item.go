package model

import "time"

// Item is a catalog product. Price is expressed in whole currency units.
type Item struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Category  string    `json:"category" bson:"category"`
	Price     int       `json:"price" bson:"price"`
	Unit      string    `json:"unit" bson:"unit"`
	Image     string    `json:"image" bson:"image"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
