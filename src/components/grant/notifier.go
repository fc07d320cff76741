package grant

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Session is the slice of the Discord session the notifier uses.
type Session interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Request describes one grant instruction for the downstream channel.
type Request struct {
	Author      string
	Mentions    []string
	Amount      string
	Description string
	Balance     string
	JumpURL     string
}

// Notifier posts apply-grant instructions to the channel another process
// monitors to actually move funds.
type Notifier struct {
	session      Session
	channelID    string
	prefix       string
	applyCommand string
}

func NewNotifier(session Session, channelID, prefix, applyCommand string) *Notifier {
	return &Notifier{
		session:      session,
		channelID:    channelID,
		prefix:       prefix,
		applyCommand: applyCommand,
	}
}

// Apply sends the grant instruction and suppresses the link preview embed
// on the sent message.
func (n *Notifier) Apply(req Request) error {
	content := fmt.Sprintf(
		"%s%s %s %s %s\nAuthor: %s, remaining balance: %s\nOrigin: %s",
		n.prefix, n.applyCommand,
		strings.Join(req.Mentions, " "),
		req.Amount,
		req.Description,
		req.Author,
		req.Balance,
		req.JumpURL,
	)

	message, err := n.session.ChannelMessageSend(n.channelID, content)
	if err != nil {
		return err
	}

	// The origin link would otherwise render a preview in the grant channel.
	_, err = n.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel: n.channelID,
		ID:      message.ID,
		Flags:   discordgo.MessageFlagsSuppressEmbeds,
	})
	return err
}
