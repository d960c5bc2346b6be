package domain

import "time"

// Comment is an operator note on a case. Internal comments are never exposed
// through the public tracking path.
type Comment struct {
	ID        string
	CaseID    string
	UserID    string
	Body      string
	Internal  bool
	CreatedAt time.Time
}
