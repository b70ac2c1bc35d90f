package domain

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidUsername = errors.New("username must not be empty")
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrInvalidScore    = errors.New("rating score must be between 1 and 5")
	ErrSelfRating      = errors.New("users cannot rate themselves")
	ErrEmptySkill      = errors.New("skill must not be empty")
	ErrDuplicateSkill  = errors.New("skill already present")
)
