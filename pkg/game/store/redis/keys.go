package redis

import "fmt"

// Key prefix for all table data
const keyPrefix = "holdemtable"

// gameKey returns the Redis key for a game record
func gameKey(id string) string {
	return fmt.Sprintf("%s:game:%s", keyPrefix, id)
}
