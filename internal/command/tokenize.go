package command

import (
	"regexp"
	"strings"
)

var (
	userMentionRe    = regexp.MustCompile(`^<@!?(\d+)>$`)
	channelMentionRe = regexp.MustCompile(`^<#!?(\d+)>$`)
	snowflakeRe      = regexp.MustCompile(`^\d{15,21}$`)
)

// Tokenize splits chat text into arguments. Double quotes group words into a
// single argument; everything else is split on whitespace.
func Tokenize(content string) []string {
	var args []string
	for i, part := range strings.Split(strings.TrimSpace(content), `"`) {
		if i%2 == 1 {
			if part != "" {
				args = append(args, part)
			}
			continue
		}
		args = append(args, strings.Fields(part)...)
	}
	return args
}

// mentionedUser returns the user ID of a "<@id>" mention.
func mentionedUser(token string) (string, bool) {
	m := userMentionRe.FindStringSubmatch(token)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// channelRef returns the channel ID of a "<#id>" mention or a bare ID.
func channelRef(token string) (string, bool) {
	if m := channelMentionRe.FindStringSubmatch(token); m != nil {
		return m[1], true
	}
	if snowflakeRe.MatchString(token) {
		return token, true
	}
	return "", false
}
