package service

import (
	"fmt"
	"html"
	"time"
)

func welcomeMessage(appName, firstName string) (string, string) {
	subject := fmt.Sprintf("Welcome to %s", appName)
	body := fmt.Sprintf(
		`<p>Hi %s,</p><p>Your %s account is ready. You can sign in with your email or user name.</p>`,
		html.EscapeString(firstName), html.EscapeString(appName),
	)
	return subject, body
}

func resetCodeMessage(appName, code string, ttl time.Duration) (string, string) {
	subject := fmt.Sprintf("%s password reset code", appName)
	body := fmt.Sprintf(
		`<p>Your password reset code is <strong>%s</strong>.</p><p>It expires in %d minutes. If you did not ask for a reset you can ignore this email.</p>`,
		html.EscapeString(code), int(ttl.Round(time.Minute)/time.Minute),
	)
	return subject, body
}

func passwordChangedMessage(appName string) (string, string) {
	subject := fmt.Sprintf("Your %s password was changed", appName)
	body := `<p>Your password was just changed.</p><p>If this was not you, request a new reset code right away.</p>`
	return subject, body
}
