package model

import (
	"strconv"
	"strings"
)

type ChannelKind string

const (
	ChannelVIP      ChannelKind = "vip"
	ChannelRegistry ChannelKind = "registry"
	ChannelSupport  ChannelKind = "support"
)

// BotChannel is a Telegram channel or group managed by a bot.
type BotChannel struct {
	ID        string
	BotID     string
	ChannelID string // numeric id ("-100...") or "@username"
	Name      string
	Kind      ChannelKind
	IsActive  bool
}

// ChatRef splits ChannelID into a numeric chat id or a public username.
func (c *BotChannel) ChatRef() (int64, string) {
	id := strings.TrimSpace(c.ChannelID)
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n, ""
	}
	if id != "" && !strings.HasPrefix(id, "@") {
		id = "@" + id
	}
	return 0, id
}
