// Package email holds small helpers for account e-mail addresses.
package email

import "strings"

// Normalize trims surrounding space and lowercases the domain part, leaving
// the local part untouched since it may be case-sensitive.
func Normalize(address string) string {
	address = strings.TrimSpace(address)
	at := strings.LastIndexByte(address, '@')
	if at <= 0 {
		return address
	}
	return address[:at] + "@" + strings.ToLower(address[at+1:])
}

// LocalPart returns the portion before the last '@', or the whole address
// when there is none.
func LocalPart(address string) string {
	if at := strings.LastIndexByte(address, '@'); at > 0 {
		return address[:at]
	}
	return address
}
