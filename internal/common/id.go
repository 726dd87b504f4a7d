package common

import (
	"github.com/google/uuid"
)

// NewConnectionID generates a unique connection ID
func NewConnectionID() string {
	return uuid.New().String()
}

// NewCommentID generates an opaque comment ID
func NewCommentID() string {
	return uuid.New().String()
}
