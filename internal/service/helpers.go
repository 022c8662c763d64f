package service

import "fmt"

// PersonURN builds the author URN LinkedIn expects for member-owned content.
func PersonURN(linkedinID string) string {
	return fmt.Sprintf("urn:li:person:%s", linkedinID)
}
