// Package emails renders the transactional messages sent to account holders.
package emails

import (
	"fmt"
	"html"
)

// Message is a rendered email ready to hand to a transport.
type Message struct {
	Subject  string
	Text     string
	HTML     string
	Category string
}

const CategoryVerification = "email_verification"

// Verification renders the message carrying an account's verification code.
func Verification(name, code string) Message {
	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<title>Verify your email</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<h2>Verify your email</h2>
		<p>Hello %s,</p>
		<p>Use the code below to activate your account:</p>
		<p style="margin: 30px 0; font-size: 28px; letter-spacing: 6px; font-weight: bold;">%s</p>
		<p>If you did not create an account, you can ignore this email.</p>
		<hr style="border: none; border-top: 1px solid #ddd; margin: 30px 0;">
		<p style="font-size: 12px; color: #666;">This is an automated message, please do not reply.</p>
	</div>
</body>
</html>
`, html.EscapeString(name), html.EscapeString(code))

	textBody := fmt.Sprintf(`Verify your email

Hello %s,

Use the code below to activate your account:

%s

If you did not create an account, you can ignore this email.

---
This is an automated message, please do not reply.
`, name, code)

	return Message{
		Subject:  "Your verification code",
		Text:     textBody,
		HTML:     htmlBody,
		Category: CategoryVerification,
	}
}
