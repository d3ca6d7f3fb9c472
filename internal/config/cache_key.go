package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key holding the active JTI of a user.
func (r *CacheKeyStruct) UserSessionKey(userID string) string {
	return fmt.Sprintf("login:%s", userID)
}

// FacultyWorkloadKey returns the cache key for a computed faculty workload.
func (r *CacheKeyStruct) FacultyWorkloadKey(facultyID string) string {
	return fmt.Sprintf("workload:faculty:%s", facultyID)
}

// WorkloadReportKey returns the cache key for a department workload report.
// An empty departmentID means the college-wide report.
func (r *CacheKeyStruct) WorkloadReportKey(departmentID string) string {
	if departmentID == "" {
		departmentID = "all"
	}
	return fmt.Sprintf("workload:report:%s", departmentID)
}

// WorkloadPattern matches every cached workload entry.
func (r *CacheKeyStruct) WorkloadPattern() string {
	return "workload:*"
}

// GroupEventsChannel returns the Redis PubSub channel for a group's realtime events.
func (r *CacheKeyStruct) GroupEventsChannel(groupID string) string {
	return fmt.Sprintf("group:%s:events", groupID)
}

// GroupTypingKey returns the throttle key for typing indicators of a user in a group.
func (r *CacheKeyStruct) GroupTypingKey(groupID, userID string) string {
	return fmt.Sprintf("group:%s:typing:%s", groupID, userID)
}

// GroupOnlineKey returns the hash counting open connections per user in a group.
func (r *CacheKeyStruct) GroupOnlineKey(groupID string) string {
	return fmt.Sprintf("group:%s:online", groupID)
}

// RateLimitKey returns the fixed-window counter key for a client on a route.
func (r *CacheKeyStruct) RateLimitKey(route, clientIP string) string {
	return fmt.Sprintf("ratelimit:%s:%s", route, clientIP)
}

var CacheKey = NewCacheKeyStruct()
