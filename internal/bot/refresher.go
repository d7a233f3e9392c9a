package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/syoopie/money-collection-bot/internal/domain"
)

// RunRefreshWorker reposts stale group messages on a fixed interval so the
// paid/unpaid view and its buttons stay reachable. Started from main as its
// own goroutine.
func (h *Handler) RunRefreshWorker(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.RefreshStaleLists(ctx); err != nil {
				h.log.Warn("refresh tick", zap.Error(err))
			}
		}
	}
}

// RefreshStaleLists walks every routed list and reposts those whose message
// is older than the staleness threshold. Reposting replaces rather than
// edits: the old message may already be unreachable, so its deletion is
// best-effort only.
func (h *Handler) RefreshStaleLists(ctx context.Context) error {
	lists, err := h.lists.RoutedLists(ctx)
	if err != nil {
		return fmt.Errorf("load routed lists: %w", err)
	}

	cutoff := time.Now().Add(-h.cfg.StaleAfter)
	for _, l := range lists {
		if l.LastUpdated.After(cutoff) {
			continue
		}
		if err := h.repostList(ctx, l); err != nil {
			h.log.Warn("repost stale list", zap.Int64("list_id", l.ID), zap.Error(err))
		}
	}
	return nil
}

// repostList deletes the list's posted message, if any, and posts a fresh
// render to the destination group. The message bookkeeping is updated
// whatever the transport does: new location on success, cleared on send
// failure. The list stays routed either way, so a failed repost is retried
// on the next tick rather than orphaning the list. The repost itself never
// touches last_updated.
func (h *Handler) repostList(ctx context.Context, l domain.DebtList) error {
	if l.GroupID == nil {
		return fmt.Errorf("list %d has no destination group", l.ID)
	}
	chatID := *l.GroupID

	if l.Message != nil {
		if _, err := h.api.Request(tgbotapi.NewDeleteMessage(l.Message.ChatID, l.Message.MessageID)); err != nil {
			h.log.Debug("delete old message", zap.Int64("list_id", l.ID), zap.Error(err))
		}
	}

	debts, err := h.lists.Entries(ctx, l.ID)
	if err != nil {
		return fmt.Errorf("load entries: %w", err)
	}

	msg := tgbotapi.NewMessage(chatID, DebtListString(l, debts, h.loc))
	msg.ReplyMarkup = payKeyboard(l.ID)
	sent, err := h.api.Send(msg)
	if err != nil {
		// The old message is gone and no new one exists; drop the stale
		// location so toggles don't edit a dead message.
		if e := h.lists.SetMessage(ctx, l.ID, nil); e != nil {
			h.log.Error("clear message location", zap.Int64("list_id", l.ID), zap.Error(e))
		}
		return fmt.Errorf("repost: %w", err)
	}

	if err := h.lists.SetMessage(ctx, l.ID, &domain.MessageRef{ChatID: chatID, MessageID: sent.MessageID}); err != nil {
		return fmt.Errorf("record message location: %w", err)
	}
	return nil
}
