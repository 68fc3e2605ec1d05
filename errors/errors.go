package errors

import "fmt"

var (
	ErrInvalidMessage  = fmt.Errorf("message violates payload invariant")
	ErrMessageNotFound = fmt.Errorf("message not found")
	ErrChannelNotFound = fmt.Errorf("channel not found")
	ErrUserNotFound    = fmt.Errorf("user not found")
	ErrChannelExists   = fmt.Errorf("channel already exists")
	ErrUserExists      = fmt.Errorf("user already exists")
)
