// Package memstore implementa los puertos de repositorio en memoria para tests de casos de uso.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/licitaciones-api/internal/domain"
	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
	"github.com/jhoicas/licitaciones-api/internal/domain/repository"
)

// Store estado compartido por todos los repositorios en memoria.
type Store struct {
	mu            sync.Mutex
	users         map[string]*entity.User
	tenders       map[string]*entity.Tender
	versions      map[string][]*entity.TenderVersion
	bids          map[string]*entity.Bid
	conversations map[string]*entity.Conversation
	messages      map[string][]*entity.Message
	mails         map[string]*entity.Mail
	details       map[string]*entity.TendererDetails

	// MailErr, si no es nil, lo devuelven Create y CreateMany de mails.
	MailErr error
	// TxCount cantidad de transacciones ejecutadas.
	TxCount int
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		users:         map[string]*entity.User{},
		tenders:       map[string]*entity.Tender{},
		versions:      map[string][]*entity.TenderVersion{},
		bids:          map[string]*entity.Bid{},
		conversations: map[string]*entity.Conversation{},
		messages:      map[string][]*entity.Message{},
		mails:         map[string]*entity.Mail{},
		details:       map[string]*entity.TendererDetails{},
	}
}

// Repositorios.
func (s *Store) Users() *UserRepo                       { return &UserRepo{s} }
func (s *Store) Tenders() *TenderRepo                   { return &TenderRepo{s} }
func (s *Store) Bids() *BidRepo                         { return &BidRepo{s} }
func (s *Store) Conversations() *ConversationRepo       { return &ConversationRepo{s} }
func (s *Store) Messages() *MessageRepo                 { return &MessageRepo{s} }
func (s *Store) Mails() *MailRepo                       { return &MailRepo{s} }
func (s *Store) TendererDetails() *TendererDetailsRepo { return &TendererDetailsRepo{s} }

// Run ejecuta fn con los repositorios del store (sin aislamiento real).
func (s *Store) Run(ctx context.Context, fn func(
	tenders repository.TenderRepository,
	bids repository.BidRepository,
	mails repository.MailRepository,
) error) error {
	s.mu.Lock()
	s.TxCount++
	s.mu.Unlock()
	return fn(s.Tenders(), s.Bids(), s.Mails())
}

// RunMessaging igual que Run con los repositorios de mensajería.
func (s *Store) RunMessaging(ctx context.Context, fn func(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	mails repository.MailRepository,
) error) error {
	s.mu.Lock()
	s.TxCount++
	s.mu.Unlock()
	return fn(s.Conversations(), s.Messages(), s.Mails())
}

// MailsFor correos de un destinatario en orden de creación.
func (s *Store) MailsFor(recipientID string) []*entity.Mail {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Mail
	for _, m := range s.mails {
		if m.RecipientID == recipientID {
			c := *m
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func cloneTender(t *entity.Tender) *entity.Tender {
	c := *t
	c.Files = append([]entity.FileDescriptor(nil), t.Files...)
	c.TargetedUsers = append([]string(nil), t.TargetedUsers...)
	c.ProcurementGroup = append([]string(nil), t.ProcurementGroup...)
	c.Approvals = append([]string(nil), t.Approvals...)
	if t.WinningBidID != nil {
		id := *t.WinningBidID
		c.WinningBidID = &id
	}
	return &c
}

func cloneBid(b *entity.Bid) *entity.Bid {
	c := *b
	c.Files = append([]entity.FileDescriptor(nil), b.Files...)
	c.Evaluations = append([]entity.Evaluation(nil), b.Evaluations...)
	return &c
}

// ── users ─────────────────────────────────────────────────────────────────────

type UserRepo struct{ s *Store }

var _ repository.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.users {
		if other.Email == u.Email {
			return domain.ErrEmailAlreadyExists
		}
		if other.Phone == u.Phone {
			return domain.ErrPhoneAlreadyExists
		}
	}
	c := *u
	r.s.users[u.ID] = &c
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (r *UserRepo) find(match func(*entity.User) bool) *entity.User {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			c := *u
			return &c
		}
	}
	return nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Email == email }), nil
}

func (r *UserRepo) GetByPhone(_ context.Context, phone string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Phone == phone }), nil
}

func (r *UserRepo) Update(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	for id, other := range r.s.users {
		if id == u.ID {
			continue
		}
		if other.Email == u.Email {
			return domain.ErrEmailAlreadyExists
		}
		if other.Phone == u.Phone {
			return domain.ErrPhoneAlreadyExists
		}
	}
	c := *u
	r.s.users[u.ID] = &c
	return nil
}

func (r *UserRepo) List(_ context.Context, role string, limit, offset int) ([]*entity.User, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*entity.User
	for _, u := range r.s.users {
		if role == "" || u.Role == role {
			c := *u
			all = append(all, &c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })
	return page(all, limit, offset), len(all), nil
}

func (r *UserRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.s.users, id)
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// ── tenders ───────────────────────────────────────────────────────────────────

type TenderRepo struct{ s *Store }

var _ repository.TenderRepository = (*TenderRepo)(nil)

func (r *TenderRepo) Create(_ context.Context, t *entity.Tender) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.tenders[t.ID] = cloneTender(t)
	return nil
}

func (r *TenderRepo) GetByID(_ context.Context, id string) (*entity.Tender, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t, ok := r.s.tenders[id]; ok {
		return cloneTender(t), nil
	}
	return nil, nil
}

func (r *TenderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Tender, error) {
	return r.GetByID(ctx, id)
}

func (r *TenderRepo) Update(_ context.Context, t *entity.Tender) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tenders[t.ID]; !ok {
		return domain.ErrNotFound
	}
	t.Version++
	r.s.tenders[t.ID] = cloneTender(t)
	return nil
}

func (r *TenderRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tenders[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.tenders, id)
	delete(r.s.versions, id)
	for bid, b := range r.s.bids {
		if b.TenderID == id {
			delete(r.s.bids, bid)
		}
	}
	return nil
}

func (r *TenderRepo) List(_ context.Context, f repository.TenderFilter) ([]*entity.Tender, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*entity.Tender
	for _, t := range r.s.tenders {
		if f.VisibleTo != "" && !t.IsTargeted(f.VisibleTo) {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		all = append(all, cloneTender(t))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ClosingDate.After(all[j].ClosingDate) })
	return page(all, f.Limit, f.Offset), len(all), nil
}

func (r *TenderRepo) AddApproval(_ context.Context, tenderID, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tenders[tenderID]
	if !ok {
		return false, domain.ErrNotFound
	}
	for _, a := range t.Approvals {
		if a == userID {
			return false, nil
		}
	}
	t.Approvals = append(t.Approvals, userID)
	return true, nil
}

func (r *TenderRepo) UpdateStatus(_ context.Context, id string, status entity.TenderStatus, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tenders[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.Status = status
	t.UpdatedAt = at
	return nil
}

func (r *TenderRepo) SetWinningBid(_ context.Context, id, bidID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tenders[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.WinningBidID = &bidID
	t.Status = entity.TenderAwarded
	t.UpdatedAt = at
	return nil
}

func (r *TenderRepo) CloseExpired(_ context.Context, now time.Time) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ids []string
	for id, t := range r.s.tenders {
		if t.Status == entity.TenderOpen && t.ClosingDate.Before(now) {
			t.Status = entity.TenderClosed
			t.UpdatedAt = now
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *TenderRepo) CreateVersion(_ context.Context, v *entity.TenderVersion) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *v
	r.s.versions[v.TenderID] = append(r.s.versions[v.TenderID], &c)
	return nil
}

func (r *TenderRepo) ListVersions(_ context.Context, tenderID string) ([]*entity.TenderVersion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]*entity.TenderVersion(nil), r.s.versions[tenderID]...), nil
}

// ── bids ──────────────────────────────────────────────────────────────────────

type BidRepo struct{ s *Store }

var _ repository.BidRepository = (*BidRepo)(nil)

func (r *BidRepo) Create(_ context.Context, b *entity.Bid) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.bids {
		if other.TenderID == b.TenderID && other.BidderID == b.BidderID {
			return domain.ErrDuplicate
		}
	}
	r.s.bids[b.ID] = cloneBid(b)
	return nil
}

func (r *BidRepo) GetByID(_ context.Context, id string) (*entity.Bid, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if b, ok := r.s.bids[id]; ok {
		return cloneBid(b), nil
	}
	return nil, nil
}

func (r *BidRepo) list(match func(*entity.Bid) bool) []*entity.Bid {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Bid
	for _, b := range r.s.bids {
		if match(b) {
			out = append(out, cloneBid(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out
}

func (r *BidRepo) ListByTender(_ context.Context, tenderID string) ([]*entity.Bid, error) {
	return r.list(func(b *entity.Bid) bool { return b.TenderID == tenderID }), nil
}

func (r *BidRepo) ListByBidder(_ context.Context, bidderID string) ([]*entity.Bid, error) {
	return r.list(func(b *entity.Bid) bool { return b.BidderID == bidderID }), nil
}

func (r *BidRepo) AddEvaluation(_ context.Context, e *entity.Evaluation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bids[e.BidID]
	if !ok {
		return domain.ErrNotFound
	}
	b.Evaluations = append(b.Evaluations, *e)
	return nil
}

func (r *BidRepo) SetAwardStatuses(_ context.Context, tenderID, winnerID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, b := range r.s.bids {
		if b.TenderID != tenderID {
			continue
		}
		if b.ID == winnerID {
			b.Status = entity.BidWon
		} else {
			b.Status = entity.BidLost
		}
		n++
	}
	return n, nil
}

// ── conversations & messages ──────────────────────────────────────────────────

type ConversationRepo struct{ s *Store }

var _ repository.ConversationRepository = (*ConversationRepo)(nil)

func (r *ConversationRepo) FindOrCreate(_ context.Context, tenderID, tendererID string, at time.Time) (*entity.Conversation, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.conversations {
		if c.TenderID == tenderID && c.TendererID == tendererID {
			c.LastUpdated = at
			cp := *c
			return &cp, false, nil
		}
	}
	c := &entity.Conversation{
		ID:          "conv-" + tenderID + "-" + tendererID,
		TenderID:    tenderID,
		TendererID:  tendererID,
		CreatedAt:   at,
		LastUpdated: at,
	}
	r.s.conversations[c.ID] = c
	cp := *c
	return &cp, true, nil
}

func (r *ConversationRepo) GetByID(_ context.Context, id string) (*entity.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.conversations[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r *ConversationRepo) Find(_ context.Context, tenderID, tendererID string) (*entity.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.conversations {
		if c.TenderID == tenderID && c.TendererID == tendererID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *ConversationRepo) ListByTender(_ context.Context, tenderID string) ([]*entity.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Conversation
	for _, c := range r.s.conversations {
		if c.TenderID == tenderID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastUpdated.After(out[j].LastUpdated) })
	return out, nil
}

type MessageRepo struct{ s *Store }

var _ repository.MessageRepository = (*MessageRepo)(nil)

func (r *MessageRepo) Create(_ context.Context, m *entity.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *m
	r.s.messages[m.ConversationID] = append(r.s.messages[m.ConversationID], &c)
	return nil
}

func (r *MessageRepo) GetByID(_ context.Context, id string) (*entity.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, msgs := range r.s.messages {
		for _, m := range msgs {
			if m.ID == id {
				c := *m
				return &c, nil
			}
		}
	}
	return nil, nil
}

func (r *MessageRepo) ListByConversation(_ context.Context, conversationID string) ([]*entity.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]*entity.Message(nil), r.s.messages[conversationID]...), nil
}

// ── mails ─────────────────────────────────────────────────────────────────────

type MailRepo struct{ s *Store }

var _ repository.MailRepository = (*MailRepo)(nil)

func (r *MailRepo) Create(ctx context.Context, m *entity.Mail) error {
	return r.CreateMany(ctx, []*entity.Mail{m})
}

func (r *MailRepo) CreateMany(_ context.Context, mails []*entity.Mail) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.MailErr != nil {
		return r.s.MailErr
	}
	for _, m := range mails {
		c := *m
		r.s.mails[m.ID] = &c
	}
	return nil
}

func (r *MailRepo) ListByRecipient(_ context.Context, recipientID string, f repository.MailFilter) ([]*entity.Mail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Mail
	for _, m := range r.s.mails {
		if m.RecipientID != recipientID || (f.UnreadOnly && m.Read) {
			continue
		}
		c := *m
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if f.NewestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MailRepo) GetByIDs(_ context.Context, ids []string) ([]*entity.Mail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Mail
	for _, id := range ids {
		if m, ok := r.s.mails[id]; ok {
			c := *m
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *MailRepo) SetRead(_ context.Context, ids []string, read bool) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, id := range ids {
		if m, ok := r.s.mails[id]; ok {
			m.Read = read
			n++
		}
	}
	return n, nil
}

func (r *MailRepo) Delete(_ context.Context, ids []string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := r.s.mails[id]; ok {
			delete(r.s.mails, id)
			n++
		}
	}
	return n, nil
}

func (r *MailRepo) CountUnread(_ context.Context, recipientID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, m := range r.s.mails {
		if m.RecipientID == recipientID && !m.Read {
			n++
		}
	}
	return n, nil
}

// ── tenderer details ──────────────────────────────────────────────────────────

type TendererDetailsRepo struct{ s *Store }

var _ repository.TendererDetailsRepository = (*TendererDetailsRepo)(nil)

func (r *TendererDetailsRepo) Upsert(_ context.Context, d *entity.TendererDetails) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *d
	if prev, ok := r.s.details[d.UserID]; ok {
		c.Verified = prev.Verified
		c.Comments = prev.Comments
		c.CreatedAt = prev.CreatedAt
	}
	r.s.details[d.UserID] = &c
	return nil
}

func (r *TendererDetailsRepo) GetByUserID(_ context.Context, userID string) (*entity.TendererDetails, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if d, ok := r.s.details[userID]; ok {
		c := *d
		c.Comments = append([]entity.TendererComment(nil), d.Comments...)
		return &c, nil
	}
	return nil, nil
}

func (r *TendererDetailsRepo) SetVerified(_ context.Context, userID string, verified bool, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.details[userID]
	if !ok {
		return domain.ErrNotFound
	}
	d.Verified = verified
	d.UpdatedAt = at
	return nil
}

func (r *TendererDetailsRepo) AddComment(_ context.Context, userID string, c entity.TendererComment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.details[userID]
	if !ok {
		return domain.ErrNotFound
	}
	d.Comments = append(d.Comments, c)
	return nil
}
