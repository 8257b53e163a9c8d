package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsVerificationSubject(t *testing.T) {
	assert.True(t, isVerificationSubject("Please verify your email"))
	assert.True(t, isVerificationSubject("Confirm your Medium account"))
	assert.True(t, isVerificationSubject("Welcome to Tumblr"))
	assert.False(t, isVerificationSubject("Your weekly digest"))
}

func TestVerificationLinkPattern(t *testing.T) {
	body := "Hi,\n\nClick here to get started: https://medium.com/account/verify?token=abc123\n\nThanks"
	assert.Equal(t, "https://medium.com/account/verify?token=abc123", verificationLinkPattern.FindString(body))

	assert.Empty(t, verificationLinkPattern.FindString("no links here"))
	assert.Empty(t, verificationLinkPattern.FindString("https://example.com/unrelated"))
}

func TestMailMatchesAccount(t *testing.T) {
	m := VerificationMail{
		From:    "noreply@medium.com",
		Subject: "Verify linkbuilder@medium.com",
	}

	assert.True(t, mailMatchesAccount(m, "linkbuilder@medium.com"))
	assert.True(t, mailMatchesAccount(VerificationMail{From: "accounts@medium.com"}, "other@medium.com"))
	assert.False(t, mailMatchesAccount(VerificationMail{From: "noreply@tumblr.com", Subject: "Verify"}, "user@medium.com"))
	assert.False(t, mailMatchesAccount(m, ""))
}
