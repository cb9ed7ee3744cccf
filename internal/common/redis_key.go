package common

import "fmt"

// RecentResultsLimit is the number of completed sessions kept per game type in
// the recent results sorted set.
const RecentResultsLimit = 50

func RedisKeyLatestResult(gameType string) string {
	return fmt.Sprintf("lottery:latest_result:%s", gameType)
}

func RedisKeyRecentResults(gameType string) string {
	return fmt.Sprintf("lottery:recent_results:%s", gameType)
}
