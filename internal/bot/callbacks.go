package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/syoopie/money-collection-bot/internal/domain"
)

func (h *Handler) HandleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	// Always answer so the button stops its loading animation.
	defer func() {
		if _, err := h.api.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
			h.log.Debug("answer callback", zap.Error(err))
		}
	}()

	act, err := decodeAction(q.Data)
	if err != nil {
		h.log.Warn("bad callback payload", zap.String("data", q.Data), zap.Error(err))
		return
	}

	// Telegram omits Message from a callback when the originating message is
	// too old to attach. Toggles still apply (the posted location is on
	// record); the private-chat flows edit the message they were asked from,
	// so without it they are declined.
	if q.Message == nil {
		if a, ok := act.(payAction); ok {
			h.togglePaid(ctx, q, a.ListID, a.Paid)
			return
		}
		h.dm(q.From.ID, "Sorry, that button has expired. Please start over.")
		return
	}

	switch a := act.(type) {
	case confirmAction:
		h.confirmList(ctx, q, a.ListID)
	case routeAction:
		h.sendToGroup(ctx, q, a.GroupID, a.ListID)
	case payAction:
		h.togglePaid(ctx, q, a.ListID, a.Paid)
	case clearAction:
		h.clearLists(ctx, q)
	}
}

// confirmList moves a list out of pending and offers the owner's known
// groups as destinations. The pending guard makes stale confirm buttons and
// replayed callbacks harmless.
func (h *Handler) confirmList(ctx context.Context, q *tgbotapi.CallbackQuery, listID int64) {
	userID := q.From.ID
	chatID := q.Message.Chat.ID

	list, err := h.lists.List(ctx, listID)
	if err != nil || list.OwnerID != userID || !list.Pending {
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			h.log.Error("load list", zap.Int64("list_id", listID), zap.Error(err))
		}
		h.reply(chatID, "That debt list does not exist or has already been confirmed")
		return
	}

	groups, err := h.users.UserGroups(ctx, userID)
	if err != nil {
		h.log.Error("user groups", zap.Int64("user_id", userID), zap.Error(err))
		h.reply(chatID, "Could not look up your groups, please try again later.")
		return
	}
	if len(groups) == 0 {
		h.reply(chatID, "You are not in any groups. Add me to a group and send a message to the group (so I know you are in the group)")
		return
	}

	if err := h.lists.Confirm(ctx, listID); err != nil {
		if errors.Is(err, domain.ErrNoPendingList) {
			h.reply(chatID, "That debt list does not exist or has already been confirmed")
			return
		}
		h.log.Error("confirm list", zap.Int64("list_id", listID), zap.Error(err))
		h.reply(chatID, "Something went wrong, please try again later.")
		return
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(g.Name, fmt.Sprintf("sendToGroup:%d:%d", g.ID, listID)),
		))
	}
	msg := tgbotapi.NewMessage(chatID, "Choose which group to send this list to:")
	msg.ReplyMarkup = tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
	if _, err := h.api.Send(msg); err != nil {
		h.log.Error("send group choice", zap.Int64("list_id", listID), zap.Error(err))
	}

	// Drop the now-stale confirm affordance from the draft message: remove
	// its trailing prompt line and the button.
	text := q.Message.Text
	if i := strings.LastIndex(text, "\n"); i > 0 {
		text = text[:i]
	}
	if _, err := h.api.Send(tgbotapi.NewEditMessageText(chatID, q.Message.MessageID, text)); err != nil {
		h.log.Warn("edit draft message", zap.Int64("list_id", listID), zap.Error(err))
	}
}

// sendToGroup posts the confirmed list to the chosen group and records where
// it landed so toggles and the refresher can find the message.
func (h *Handler) sendToGroup(ctx context.Context, q *tgbotapi.CallbackQuery, groupID, listID int64) {
	userID := q.From.ID
	chatID := q.Message.Chat.ID

	list, err := h.lists.List(ctx, listID)
	if err != nil || list.OwnerID != userID {
		h.reply(chatID, "That debt list does not exist")
		return
	}
	if list.Pending {
		h.reply(chatID, "That debt list has not been confirmed yet")
		return
	}
	if list.Routed() {
		h.reply(chatID, "That debt list has already been sent to a group")
		return
	}

	in, err := h.users.InGroup(ctx, userID, groupID)
	if err != nil || !in {
		h.reply(chatID, "I don't know that group. Send a message in it first so I can see you there.")
		return
	}

	if err := h.lists.Route(ctx, listID, groupID); err != nil {
		h.log.Error("route list", zap.Int64("list_id", listID), zap.Int64("group_id", groupID), zap.Error(err))
		h.reply(chatID, "Something went wrong, please try again later.")
		return
	}

	_, text, err := h.renderList(ctx, listID)
	if err != nil {
		h.log.Error("render list", zap.Int64("list_id", listID), zap.Error(err))
		h.reply(chatID, "Something went wrong, please try again later.")
		return
	}

	msg := tgbotapi.NewMessage(groupID, text)
	msg.ReplyMarkup = payKeyboard(listID)
	sent, err := h.api.Send(msg)
	if err != nil {
		h.log.Error("post to group", zap.Int64("list_id", listID), zap.Int64("group_id", groupID), zap.Error(err))
		h.reply(chatID, "I couldn't post the list to that group. Am I still a member?")
		return
	}
	if err := h.lists.SetMessage(ctx, listID, &domain.MessageRef{ChatID: groupID, MessageID: sent.MessageID}); err != nil {
		h.log.Error("record message location", zap.Int64("list_id", listID), zap.Error(err))
	}

	groupName, err := h.groups.GroupName(ctx, groupID)
	if err != nil {
		groupName = "the group"
	}
	if _, err := h.api.Send(tgbotapi.NewEditMessageText(chatID, q.Message.MessageID,
		"The debt list has been sent to:\n\n"+groupName)); err != nil {
		h.log.Warn("edit route message", zap.Int64("list_id", listID), zap.Error(err))
	}
}

// togglePaid flips the caller's own entry. Only the matching identity may
// toggle, and a no-op transition is rejected rather than silently accepted.
func (h *Handler) togglePaid(ctx context.Context, q *tgbotapi.CallbackQuery, listID int64, paid bool) {
	userID := q.From.ID

	identity := q.From.UserName
	if identity == "" {
		h.dm(userID, "You need a Telegram username to mark debts, sorry.")
		return
	}

	state := "paid"
	if !paid {
		state = "unpaid"
	}

	err := h.lists.TogglePaid(ctx, listID, identity, paid)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.dm(userID, "That debt list does not exist")
		return
	case errors.Is(err, domain.ErrNotParticipant):
		h.dm(userID, "You are not in that debt list")
		return
	case errors.Is(err, domain.ErrAlreadyInState):
		h.dm(userID, fmt.Sprintf("You have already marked this debt (%s) as %s.", h.listName(ctx, listID), state))
		return
	case err != nil:
		h.log.Error("toggle paid", zap.Int64("list_id", listID), zap.String("identity", identity), zap.Error(err))
		h.dm(userID, "Something went wrong, please try again later.")
		return
	}

	list, text, err := h.renderList(ctx, listID)
	if err != nil {
		h.log.Error("render list", zap.Int64("list_id", listID), zap.Error(err))
		return
	}

	// Edit the recorded group message in place, keeping the pay/unpay
	// keyboard. The stored location is used rather than the callback's
	// message so stale buttons on reposted copies still update the live one.
	if list.Message != nil {
		edit := tgbotapi.NewEditMessageText(list.Message.ChatID, list.Message.MessageID, text)
		kb := payKeyboard(listID)
		edit.ReplyMarkup = &kb
		if _, err := h.api.Send(edit); err != nil {
			h.log.Warn("edit group message", zap.Int64("list_id", listID), zap.Error(err))
		}
	}

	h.dm(userID, fmt.Sprintf("You have marked the debt (%s) as %s.", list.Name, state))
}

// clearLists deletes every list the caller owns; entries go with them.
func (h *Handler) clearLists(ctx context.Context, q *tgbotapi.CallbackQuery) {
	userID := q.From.ID
	chatID := q.Message.Chat.ID

	count, err := h.lists.DeleteByOwner(ctx, userID)
	if err != nil {
		h.log.Error("delete lists", zap.Int64("user_id", userID), zap.Error(err))
		h.reply(chatID, "Something went wrong, please try again later.")
		return
	}

	if count > 0 {
		h.reply(chatID, "All your debt lists have been cleared.")
	} else {
		h.reply(chatID, "You have no debt lists to clear.")
	}

	// Remove the confirm button from the prompt.
	if _, err := h.api.Send(tgbotapi.NewEditMessageText(chatID, q.Message.MessageID, q.Message.Text)); err != nil {
		h.log.Debug("edit clear prompt", zap.Error(err))
	}
}

func (h *Handler) dm(userID int64, text string) {
	if _, err := h.api.Send(tgbotapi.NewMessage(userID, text)); err != nil {
		h.log.Warn("send dm", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (h *Handler) listName(ctx context.Context, listID int64) string {
	list, err := h.lists.List(ctx, listID)
	if err != nil {
		return "unknown"
	}
	return list.Name
}
