package client

import "github.com/emilythestrangee/forum/backend/internal/models"

// Documents exchanged with the API. They are aliases so callers outside
// this module can name them.
type (
	Account        = models.Account
	AuthResponse   = models.AuthResponse
	Post           = models.Post
	Comment        = models.Comment
	Presence       = models.Presence
	OnlineResponse = models.OnlineResponse
	Direction      = models.Direction
)

// Vote directions.
const (
	Up   = models.Up
	Down = models.Down
)
