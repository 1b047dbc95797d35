package models

import "time"

// Follow is a directed edge in the social graph: the follower observes the
// followed user's posts. Edges are unique per ordered pair.
type Follow struct {
	FollowerID string    `json:"followerId"`
	FollowedID string    `json:"followedId"`
	CreatedAt  time.Time `json:"createdAt"`
}
