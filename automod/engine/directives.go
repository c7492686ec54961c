package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/isstabb/InstaMod/automod/liststore"
	"github.com/isstabb/InstaMod/reddit"
)

const directiveRejection = "Command not recognized. Supported commands: `!whitelist <user>`, `!graylist <user>` (mods), `!flair <text>` (approved users)."

// processDirectives drains the inbox of private messages addressed to this
// community (subject "!<community>") and applies the contained command.
// Messages for other communities are left unread for their engines.
func (eng *Engine) processDirectives(ctx context.Context) error {
	if !eng.cfg.Features.ReadDirectives {
		return nil
	}
	msgs, err := eng.source.Inbox(ctx)
	if err != nil {
		return fmt.Errorf("fetching inbox: %w", err)
	}
	want := "!" + eng.cfg.Name
	for _, msg := range msgs {
		if !strings.EqualFold(msg.Subject, want) {
			continue
		}
		eng.handleDirective(ctx, msg)
		if err := eng.actions.MarkRead(ctx, msg.ID); err != nil {
			eng.logger.Error("marking message read failed", "message", msg.ID, "err", err)
		}
	}
	return nil
}

// handleDirective applies one command message. A malformed or unauthorized
// command gets a rejection reply; nothing here propagates an error, the
// message is dealt with either way.
func (eng *Engine) handleDirective(ctx context.Context, msg reddit.Message) {
	fields := strings.Fields(msg.Body)
	if len(fields) >= 2 {
		switch fields[0] {
		case "!whitelist":
			if eng.cfg.IsMod(msg.Author) {
				eng.addToList(ctx, liststore.ListWhitelist, fields[1], msg)
				return
			}
		case "!graylist":
			if eng.cfg.IsMod(msg.Author) {
				eng.addToList(ctx, liststore.ListGraylist, fields[1], msg)
				return
			}
		case "!flair":
			ok, err := eng.lists.Contains(ctx, eng.listName(liststore.ListWhitelist), msg.Author)
			if err != nil {
				eng.logger.Error("whitelist lookup failed", "user", msg.Author, "err", err)
				return
			}
			if ok {
				text := strings.TrimSpace(strings.TrimPrefix(msg.Body, "!flair"))
				if err := eng.actions.SetBadge(ctx, eng.cfg.Name, msg.Author, text, ""); err != nil {
					eng.logger.Error("self-service flair failed", "user", msg.Author, "err", err)
					return
				}
				directivesHandledCount.WithLabelValues(eng.cfg.Name, "flair").Inc()
				return
			}
		}
	}

	eng.logger.Info("rejecting directive", "from", msg.Author, "body", msg.Body)
	if _, err := eng.actions.Reply(ctx, "t4_"+msg.ID, directiveRejection); err != nil {
		eng.logger.Error("rejection reply failed", "message", msg.ID, "err", err)
	}
	directivesHandledCount.WithLabelValues(eng.cfg.Name, "rejected").Inc()
}

func (eng *Engine) addToList(ctx context.Context, list, username string, msg reddit.Message) {
	if err := eng.lists.Add(ctx, eng.listName(list), username); err != nil {
		eng.logger.Error("list update failed", "list", list, "user", username, "err", err)
		return
	}
	eng.logger.Info("directive applied", "list", list, "user", username, "from", msg.Author)
	directivesHandledCount.WithLabelValues(eng.cfg.Name, list).Inc()
}
