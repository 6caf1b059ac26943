package models

import "time"

type Presence struct {
	UserID      string    `gorm:"primaryKey;column:user_id" json:"id"`
	DisplayName string    `json:"displayName"`
	PhotoURL    string    `json:"photoURL,omitempty"`
	Email       string    `json:"email"`
	LastSeen    time.Time `gorm:"not null;index" json:"lastSeen"`
	IsOnline    bool      `json:"isOnline"`
}

func (Presence) TableName() string {
	return "presence"
}

type OnlineResponse struct {
	Users     []Presence `json:"users"`
	Remaining int        `json:"remaining"`
}
