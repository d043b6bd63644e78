package redis

import (
	"fmt"

	"github.com/mcoot/roomchat/internal/model"
)

// Key prefix for all roomchat data
const keyPrefix = "roomchat"

// userKey returns the Redis key for a User
func userKey(username model.Identity) string {
	return fmt.Sprintf("%s:user:%s", keyPrefix, username)
}
