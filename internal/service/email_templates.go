package service

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
)

// Email bodies are authored as Markdown and rendered to HTML at send time;
// the Markdown source doubles as the plaintext alternative.

const verificationEmailMD = `# Verify your email

Your verification code is **%s**.

It expires in %d minutes. If you did not create an account, you can ignore this email.`

const resetEmailMD = `# Reset your password

Tap the link below to choose a new password:

[Reset password](%s)

The link expires in %d minutes. If you did not request a reset, you can ignore this email.`

func verificationEmailBody(code string, expireMinutes int) (html, text string, err error) {
	md := fmt.Sprintf(verificationEmailMD, code, expireMinutes)
	return renderMarkdown(md)
}

func resetEmailBody(link string, expireMinutes int) (html, text string, err error) {
	md := fmt.Sprintf(resetEmailMD, link, expireMinutes)
	return renderMarkdown(md)
}

func renderMarkdown(md string) (string, string, error) {
	var out bytes.Buffer
	if err := goldmark.Convert([]byte(md), &out); err != nil {
		return "", "", err
	}
	return out.String(), md, nil
}
