package transact

import (
	"errors"
	"regexp"
	"strconv"
)

// ErrMalformedCommand is returned when the command text does not match the
// transaction grammar.
var ErrMalformedCommand = errors.New("malformed transaction command")

// Command is a parsed free funding transaction: one or more recipient
// mentions, a per-recipient amount and a free text description.
type Command struct {
	Mentions    []string
	Amount      float64
	Description string
}

// ParseCommand extracts the transaction payload from raw command text.
// The grammar is: prefix, command word, one or more <@id> mentions, a
// numeric amount (dots allowed as decimal separators) and the description
// as the remainder of the message.
func ParseCommand(prefix, content string) (*Command, error) {
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `\w+\s+((?:<@!?\d+>\s+)+)([\d.]+)\s+([\w\W]+)$`)
	match := re.FindStringSubmatch(content)
	if match == nil {
		return nil, ErrMalformedCommand
	}

	amount, err := strconv.ParseFloat(match[2], 64)
	if err != nil {
		return nil, ErrMalformedCommand
	}

	return &Command{
		Mentions:    splitMentions(match[1]),
		Amount:      amount,
		Description: match[3],
	}, nil
}

var mentionPattern = regexp.MustCompile(`<@!?\d+>`)

// splitMentions splits the matched mention block into individual mentions,
// preserving order.
func splitMentions(block string) []string {
	return mentionPattern.FindAllString(block, -1)
}
