package bot

import (
	"context"
	"sort"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/syoopie/money-collection-bot/internal/domain"
)

// memStore is an in-memory stand-in for the pgx repos. It mirrors their
// semantics: (list, owed_by) upserts, cascade delete of entries, the pending
// guard on Confirm, and the last_updated bump on toggle.
type memStore struct {
	users   map[int64]domain.User
	groups  map[int64]domain.Group
	members map[[2]int64]bool
	lists   map[int64]*domain.DebtList
	debts   map[int64][]*domain.Debt

	nextList int64
	nextDebt int64
}

func newMemStore() *memStore {
	return &memStore{
		users:   make(map[int64]domain.User),
		groups:  make(map[int64]domain.Group),
		members: make(map[[2]int64]bool),
		lists:   make(map[int64]*domain.DebtList),
		debts:   make(map[int64][]*domain.Debt),
	}
}

func (s *memStore) UpsertUser(_ context.Context, u domain.User) error {
	s.users[u.ID] = u
	return nil
}

func (s *memStore) UserGroups(_ context.Context, userID int64) ([]domain.Group, error) {
	var out []domain.Group
	for key, ok := range s.members {
		if ok && key[0] == userID {
			out = append(out, s.groups[key[1]])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) InGroup(_ context.Context, userID, groupID int64) (bool, error) {
	return s.members[[2]int64{userID, groupID}], nil
}

func (s *memStore) UpsertGroup(_ context.Context, g domain.Group) error {
	s.groups[g.ID] = g
	return nil
}

func (s *memStore) AddMember(_ context.Context, userID, groupID int64) error {
	s.members[[2]int64{userID, groupID}] = true
	return nil
}

func (s *memStore) GroupName(_ context.Context, groupID int64) (string, error) {
	g, ok := s.groups[groupID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return g.Name, nil
}

func (s *memStore) CreateList(_ context.Context, ownerID int64, draft domain.DebtListDraft) (int64, error) {
	s.nextList++
	id := s.nextList
	s.lists[id] = &domain.DebtList{
		ID:          id,
		OwnerID:     ownerID,
		Name:        draft.Name,
		PhoneNumber: draft.PhoneNumber,
		Pending:     true,
		LastUpdated: time.Now().UTC(),
	}
	for _, e := range draft.Entries {
		s.upsertDebt(id, e)
	}
	return id, nil
}

func (s *memStore) upsertDebt(listID int64, e domain.DebtEntry) {
	for _, d := range s.debts[listID] {
		if d.OwedBy == e.OwedBy {
			d.Amount = e.Amount
			d.Paid = false
			return
		}
	}
	s.nextDebt++
	s.debts[listID] = append(s.debts[listID], &domain.Debt{
		ID:     s.nextDebt,
		ListID: listID,
		OwedBy: e.OwedBy,
		Amount: e.Amount,
	})
}

func (s *memStore) List(_ context.Context, listID int64) (domain.DebtList, error) {
	l, ok := s.lists[listID]
	if !ok {
		return domain.DebtList{}, domain.ErrNotFound
	}
	return *l, nil
}

func (s *memStore) Entries(_ context.Context, listID int64) ([]domain.Debt, error) {
	var out []domain.Debt
	for _, d := range s.debts[listID] {
		out = append(out, *d)
	}
	return out, nil
}

func (s *memStore) ListsByOwner(_ context.Context, ownerID int64) ([]domain.DebtList, error) {
	var out []domain.DebtList
	for _, l := range s.lists {
		if l.OwnerID == ownerID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) Confirm(_ context.Context, listID int64) error {
	l, ok := s.lists[listID]
	if !ok || !l.Pending {
		return domain.ErrNoPendingList
	}
	l.Pending = false
	return nil
}

func (s *memStore) Route(_ context.Context, listID, groupID int64) error {
	l, ok := s.lists[listID]
	if !ok {
		return domain.ErrNotFound
	}
	g := groupID
	l.GroupID = &g
	return nil
}

func (s *memStore) SetMessage(_ context.Context, listID int64, ref *domain.MessageRef) error {
	l, ok := s.lists[listID]
	if !ok {
		return domain.ErrNotFound
	}
	l.Message = ref
	return nil
}

func (s *memStore) RoutedLists(_ context.Context) ([]domain.DebtList, error) {
	var out []domain.DebtList
	for _, l := range s.lists {
		if l.GroupID != nil {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) TogglePaid(_ context.Context, listID int64, identity string, paid bool) error {
	l, ok := s.lists[listID]
	if !ok {
		return domain.ErrNotFound
	}
	for _, d := range s.debts[listID] {
		if d.OwedBy != identity {
			continue
		}
		if d.Paid == paid {
			return domain.ErrAlreadyInState
		}
		d.Paid = paid
		l.LastUpdated = time.Now().UTC()
		return nil
	}
	return domain.ErrNotParticipant
}

func (s *memStore) DeleteByOwner(_ context.Context, ownerID int64) (int64, error) {
	var count int64
	for id, l := range s.lists {
		if l.OwnerID != ownerID {
			continue
		}
		delete(s.lists, id)
		delete(s.debts, id)
		count++
	}
	return count, nil
}

// fakeSender records outbound traffic and hands out increasing message ids.
type fakeSender struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	nextID   int
	sendErr  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: 100 + f.nextID}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) messagesTo(chatID int64) []tgbotapi.MessageConfig {
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok && m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeSender) lastMessageTo(chatID int64) (tgbotapi.MessageConfig, bool) {
	msgs := f.messagesTo(chatID)
	if len(msgs) == 0 {
		return tgbotapi.MessageConfig{}, false
	}
	return msgs[len(msgs)-1], true
}

func (f *fakeSender) editsTo(chatID int64) []tgbotapi.EditMessageTextConfig {
	var out []tgbotapi.EditMessageTextConfig
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.EditMessageTextConfig); ok && m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeSender) deletes() []tgbotapi.DeleteMessageConfig {
	var out []tgbotapi.DeleteMessageConfig
	for _, c := range f.requests {
		if m, ok := c.(tgbotapi.DeleteMessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}
