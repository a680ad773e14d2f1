package services

import "errors"

var (
	// ErrInvalidCredentials is returned when a password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidUsername is returned when a username is empty or too long.
	ErrInvalidUsername = errors.New("invalid username")

	// ErrInvalidPassword is returned when a password is empty or longer than
	// MaxPasswordBytes.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrInvalidEmail is returned when an email is empty or longer than
	// MaxEmailLength.
	ErrInvalidEmail = errors.New("invalid email")

	// ErrEmptyPatch is returned when an update carries no fields.
	ErrEmptyPatch = errors.New("no fields to update")

	// ErrMissingField is returned when a required field is empty.
	ErrMissingField = errors.New("missing required field")
)
