package redis

import "fmt"

// Key prefix for all game-related data
const keyPrefix = "parlor"

// recordKey returns the Redis key for a GameRecord
func recordKey(id string) string {
	return fmt.Sprintf("%s:record:%s", keyPrefix, id)
}

// recordIndexKey returns the Redis key for the most-recent-first record list
func recordIndexKey() string {
	return fmt.Sprintf("%s:idx:records", keyPrefix)
}
