package model

import "errors"

// Follower is a directed edge: WhoID sees WhomID's messages.
type Follower struct {
	WhoID  int64 `db:"who_id" json:"who_id"`
	WhomID int64 `db:"whom_id" json:"whom_id"`
}

var ErrCannotFollowSelf = errors.New("cannot follow yourself")
