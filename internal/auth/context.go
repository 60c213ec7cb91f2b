package auth

import "github.com/gin-gonic/gin"

// Identity carries the request principal resolved by the (external) auth
// middleware. Exactly one of UserID or GuestID is expected for cart calls.
type Identity struct {
	UserID  string
	GuestID string
}

// FromRequest reads the identity headers the gateway middleware sets.
func FromRequest(c *gin.Context) Identity {
	id := Identity{
		UserID:  c.GetHeader("X-User-ID"),
		GuestID: c.GetHeader("X-Guest-ID"),
	}
	if v, ok := c.Get("user_id"); ok {
		if s, ok := v.(string); ok && s != "" {
			id.UserID = s
		}
	}
	return id
}

// UserID is a convenience for handlers that require an authenticated user.
func UserID(c *gin.Context) string {
	return FromRequest(c).UserID
}
