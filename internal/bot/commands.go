package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/syoopie/money-collection-bot/internal/domain"
)

const usageText = "Send a message with the following format:\n\n" +
	"DEBT_NAME\nPHONE_NUMBER\n@user_handle AMOUNT_OWED\n@user_handle AMOUNT_OWED\n@user_handle AMOUNT_OWED\n\n" +
	"Example:\n\nMacDonalds\n98765432\n@user1 9.6\n@user2 5.4\n@user3 3.0"

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	ownerID := msg.From.ID

	switch msg.Command() {
	case "start":
		h.reply(chatID, "Welcome to the Money Collection Bot! Start by sending a list of debts in this format:\n\nMacDonalds\n98765432\n@user1 9.6\n@user2 5.4\n@user3 3.0")
	case "example":
		h.reply(chatID, usageText)
	case "getgroups":
		h.handleGetGroups(ctx, chatID, ownerID)
	case "show":
		h.handleShow(ctx, chatID, ownerID)
	case "clear":
		h.handleClear(chatID)
	case "resendall":
		h.handleResendAll(ctx, chatID, ownerID)
	case "help":
		h.reply(chatID, "Here are the available commands:\n\n"+
			"/getgroups - Get a list of groups you are in\n"+
			"/show - Show all your debt lists\n"+
			"/clear - Clear all your debt lists\n"+
			"/resendall - Repost all your sent debt lists\n"+
			"/help - Show this message\n")
	default:
		h.reply(chatID, "Sorry, I dont understand that command. Use /help for a list of commands")
	}
}

func (h *Handler) handleGetGroups(ctx context.Context, chatID, ownerID int64) {
	groups, err := h.users.UserGroups(ctx, ownerID)
	if err != nil {
		h.log.Error("user groups", zap.Int64("user_id", ownerID), zap.Error(err))
		h.reply(chatID, "Could not look up your groups, please try again later.")
		return
	}
	if len(groups) == 0 {
		h.reply(chatID, "I couldn't find any groups. If we are in the same group, please make sure I have access to messages and that you have sent a message in the group.")
		return
	}

	var b strings.Builder
	b.WriteString("You're in the following groups:\n\n")
	for _, g := range groups {
		b.WriteString(g.Name)
		b.WriteString("\n")
	}
	h.reply(chatID, b.String())
}

func (h *Handler) handleShow(ctx context.Context, chatID, ownerID int64) {
	lists, err := h.lists.ListsByOwner(ctx, ownerID)
	if err != nil {
		h.log.Error("lists by owner", zap.Int64("user_id", ownerID), zap.Error(err))
		h.reply(chatID, "Could not load your debt lists, please try again later.")
		return
	}
	if len(lists) == 0 {
		h.reply(chatID, "You do not have any debt lists.")
		return
	}

	rendered := make([]string, 0, len(lists))
	for _, l := range lists {
		debts, err := h.lists.Entries(ctx, l.ID)
		if err != nil {
			h.log.Error("list entries", zap.Int64("list_id", l.ID), zap.Error(err))
			h.reply(chatID, "Could not load your debt lists, please try again later.")
			return
		}
		rendered = append(rendered, DebtListString(l, debts, h.loc))
	}

	h.reply(chatID, "Here are your debt lists:\n\n"+
		strings.Join(rendered, "\n\n###################################\n\n"))
}

// handleClear only asks; deletion happens in the confirmClear callback.
func (h *Handler) handleClear(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "Are you sure you want to delete all your debt lists?")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Confirm ✅", "confirmClear"),
		),
	)
	if _, err := h.api.Send(msg); err != nil {
		h.log.Warn("send clear confirmation", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// handleResendAll reposts every routed list the owner has, regardless of age.
func (h *Handler) handleResendAll(ctx context.Context, chatID, ownerID int64) {
	lists, err := h.lists.ListsByOwner(ctx, ownerID)
	if err != nil {
		h.log.Error("lists by owner", zap.Int64("user_id", ownerID), zap.Error(err))
		h.reply(chatID, "Could not load your debt lists, please try again later.")
		return
	}

	var count int
	for _, l := range lists {
		if !l.Routed() {
			continue
		}
		if err := h.repostList(ctx, l); err != nil {
			h.log.Warn("resend list", zap.Int64("list_id", l.ID), zap.Error(err))
			continue
		}
		count++
	}

	if count == 0 {
		h.reply(chatID, "You have no sent debt lists to repost.")
		return
	}
	h.reply(chatID, fmt.Sprintf("Reposted %d debt list(s).", count))
}

func draftSummary(draft domain.DebtListDraft) string {
	var b strings.Builder
	b.WriteString("Here's the debt list you entered:\n\n")
	for _, e := range draft.Entries {
		fmt.Fprintf(&b, "@%s - %s\n", e.OwedBy, e.Amount.StringFixed(2))
	}
	b.WriteString("\nPlease confirm that the information is correct.")
	return b.String()
}
