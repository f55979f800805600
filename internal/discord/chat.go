package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

const maxMessageLength = 2000

// SendMessage implements bridge.ChatClient.
func (g *Gateway) SendMessage(ctx context.Context, channelID, content string) (string, error) {
	if len(content) > maxMessageLength {
		content = content[:maxMessageLength-3] + "..."
	}
	msg, err := g.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	return msg.ID, nil
}

// React implements bridge.ChatClient.
func (g *Gateway) React(ctx context.Context, channelID, messageID, emoji string) error {
	return g.session.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx))
}

// Unreact implements bridge.ChatClient. Only the bot's own reaction is
// removed.
func (g *Gateway) Unreact(ctx context.Context, channelID, messageID, emoji string) error {
	return g.session.MessageReactionRemove(channelID, messageID, emoji, "@me", discordgo.WithContext(ctx))
}

// SuppressEmbeds implements bridge.ChatClient. The raw link previews are
// redundant once the confirmation message links the gallery page.
func (g *Gateway) SuppressEmbeds(ctx context.Context, channelID, messageID string) error {
	edit := discordgo.NewMessageEdit(channelID, messageID)
	edit.Flags = discordgo.MessageFlagsSuppressEmbeds
	_, err := g.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx))
	return err
}

// FetchMessageContent implements bridge.ChatClient.
func (g *Gateway) FetchMessageContent(ctx context.Context, channelID, messageID string) (string, error) {
	msg, err := g.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("fetch message: %w", err)
	}
	return msg.Content, nil
}
