package models

import "time"

// RoomType is the physical kind of a bookable room.
type RoomType string

const (
	RoomTypeLecture RoomType = "LECTURE"
	RoomTypeLab     RoomType = "LAB"
)

// Room is a bookable physical space the scheduler may place sessions in.
type Room struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Type      RoomType  `db:"type" json:"type"`
	Capacity  int       `db:"capacity" json:"capacity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RoomFilter captures supported filters for listing rooms.
type RoomFilter struct {
	Type      string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
