package model

import "fmt"

// Flash messages returned by mutating endpoints.
const (
	FlashLoggedIn        = "You were logged in"
	FlashRegistered      = "You were successfully registered and can login now"
	FlashMessageRecorded = "Your message was recorded"
	FlashLoggedOut       = "You were logged out"
)

// FlashResponse carries a single human-readable outcome.
type FlashResponse struct {
	Message string `json:"message"`
}

func FlashFollowing(username string) string {
	return fmt.Sprintf("You are now following \"%s\"", username)
}

func FlashUnfollowing(username string) string {
	return fmt.Sprintf("You are no longer following \"%s\"", username)
}
