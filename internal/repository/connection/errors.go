package connection

import "errors"

var (
	ErrNotFound      = errors.New("connection not found")
	ErrAlreadyExists = errors.New("connection already exists")
	ErrNotInRoom     = errors.New("connection is not in a room")
)
