package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/syoopie/money-collection-bot/internal/config"
	"github.com/syoopie/money-collection-bot/internal/domain"
)

// Sender is the slice of the Telegram API the handlers use. *tgbotapi.BotAPI
// satisfies it; tests substitute a recorder.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type UserStore interface {
	UpsertUser(ctx context.Context, u domain.User) error
	UserGroups(ctx context.Context, userID int64) ([]domain.Group, error)
	InGroup(ctx context.Context, userID, groupID int64) (bool, error)
}

type GroupStore interface {
	UpsertGroup(ctx context.Context, g domain.Group) error
	AddMember(ctx context.Context, userID, groupID int64) error
	GroupName(ctx context.Context, groupID int64) (string, error)
}

type ListStore interface {
	// CreateList persists the draft and its entries in one transaction.
	// Duplicate identities in the draft collapse into a single entry, last
	// amount winning.
	CreateList(ctx context.Context, ownerID int64, draft domain.DebtListDraft) (int64, error)
	List(ctx context.Context, listID int64) (domain.DebtList, error)
	// Entries returns the list's debts in insertion order.
	Entries(ctx context.Context, listID int64) ([]domain.Debt, error)
	ListsByOwner(ctx context.Context, ownerID int64) ([]domain.DebtList, error)
	// Confirm flips is_pending exactly once; a second call returns
	// domain.ErrNoPendingList.
	Confirm(ctx context.Context, listID int64) error
	Route(ctx context.Context, listID, groupID int64) error
	// SetMessage records where the list is currently posted; nil clears it.
	SetMessage(ctx context.Context, listID int64, ref *domain.MessageRef) error
	// RoutedLists returns every list with a destination group, regardless
	// of owner, including those whose message ref was cleared by a failed
	// repost.
	RoutedLists(ctx context.Context) ([]domain.DebtList, error)
	// TogglePaid flips one entry's paid flag and bumps the parent's
	// last_updated. Returns domain.ErrNotFound, domain.ErrNotParticipant or
	// domain.ErrAlreadyInState; the already-in-state check is done in the
	// same guarded update so replayed callbacks cannot double-apply.
	TogglePaid(ctx context.Context, listID int64, identity string, paid bool) error
	DeleteByOwner(ctx context.Context, ownerID int64) (int64, error)
}

type Handler struct {
	api Sender
	cfg config.Config
	log *zap.Logger
	loc *time.Location

	users  UserStore
	groups GroupStore
	lists  ListStore
}

func NewHandler(api Sender, cfg config.Config, logger *zap.Logger, users UserStore, groups GroupStore, lists ListStore) (*Handler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	return &Handler{
		api:    api,
		cfg:    cfg,
		log:    logger,
		loc:    loc,
		users:  users,
		groups: groups,
		lists:  lists,
	}, nil
}

func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		h.HandleCallback(ctx, upd.CallbackQuery)
		return
	}

	if upd.Message == nil {
		return
	}
	msg := upd.Message

	// Group traffic only feeds membership discovery; the bot converses in
	// private chats.
	if !msg.Chat.IsPrivate() {
		h.observeGroupMessage(ctx, msg)
		return
	}

	if msg.From == nil {
		return
	}
	if err := h.users.UpsertUser(ctx, userFrom(msg.From)); err != nil {
		h.log.Error("upsert user", zap.Int64("user_id", msg.From.ID), zap.Error(err))
		h.reply(msg.Chat.ID, "Something went wrong, please try again later.")
		return
	}

	if msg.IsCommand() {
		h.handleCommand(ctx, msg)
		return
	}

	if msg.Text != "" {
		h.handleDraftInput(ctx, msg.Chat.ID, msg.From.ID, msg.Text)
	}
}

// observeGroupMessage records the sender, the group and the membership so the
// sender can later route debt lists there. This is the only way the bot
// learns group membership.
func (h *Handler) observeGroupMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	in, err := h.users.InGroup(ctx, msg.From.ID, msg.Chat.ID)
	if err == nil && in {
		return
	}

	if err := h.users.UpsertUser(ctx, userFrom(msg.From)); err != nil {
		h.log.Error("upsert user", zap.Int64("user_id", msg.From.ID), zap.Error(err))
		return
	}
	group := domain.Group{ID: msg.Chat.ID, Name: msg.Chat.Title, Kind: msg.Chat.Type}
	if err := h.groups.UpsertGroup(ctx, group); err != nil {
		h.log.Error("upsert group", zap.Int64("group_id", group.ID), zap.Error(err))
		return
	}
	if err := h.groups.AddMember(ctx, msg.From.ID, msg.Chat.ID); err != nil {
		h.log.Error("add member", zap.Int64("user_id", msg.From.ID), zap.Int64("group_id", msg.Chat.ID), zap.Error(err))
	}
}

// handleDraftInput parses free-form private text as a new debt list and asks
// the owner to confirm it.
func (h *Handler) handleDraftInput(ctx context.Context, chatID, ownerID int64, text string) {
	draft, err := ParseDebtList(text)
	if err != nil {
		h.reply(chatID, err.Error())
		return
	}

	listID, err := h.lists.CreateList(ctx, ownerID, *draft)
	if err != nil {
		h.log.Error("create list", zap.Int64("owner_id", ownerID), zap.Error(err))
		h.reply(chatID, "Could not save the debt list, please try again later.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, draftSummary(*draft))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Confirm ✅", fmt.Sprintf("confirmInput:%d", listID)),
		),
	)
	if _, err := h.api.Send(msg); err != nil {
		h.log.Error("send confirmation", zap.Int64("list_id", listID), zap.Error(err))
	}
}

func (h *Handler) reply(chatID int64, text string) {
	if _, err := h.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		h.log.Warn("send reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// renderList loads and renders a list's current state.
func (h *Handler) renderList(ctx context.Context, listID int64) (domain.DebtList, string, error) {
	list, err := h.lists.List(ctx, listID)
	if err != nil {
		return domain.DebtList{}, "", err
	}
	debts, err := h.lists.Entries(ctx, listID)
	if err != nil {
		return domain.DebtList{}, "", err
	}
	return list, DebtListString(list, debts, h.loc), nil
}

func payKeyboard(listID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅", fmt.Sprintf("pay:%d", listID)),
			tgbotapi.NewInlineKeyboardButtonData("❌", fmt.Sprintf("unpay:%d", listID)),
		),
	)
}

func userFrom(u *tgbotapi.User) domain.User {
	out := domain.User{ID: u.ID}
	if u.UserName != "" {
		s := u.UserName
		out.Username = &s
	}
	if u.FirstName != "" {
		s := u.FirstName
		out.FirstName = &s
	}
	if u.LastName != "" {
		s := u.LastName
		out.LastName = &s
	}
	return out
}
