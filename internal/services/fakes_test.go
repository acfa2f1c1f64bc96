package services

import (
	"context"
	"sync"
	"time"

	"nft-marketplace/internal/domain"

	"github.com/pkg/errors"
)

// memAuctions is an in-memory AuctionRepository with the same conditional-update semantics
// as the MySQL one. Bids land in bids only when ApplyBid commits.
type memAuctions struct {
	mu       sync.Mutex
	rows     map[string]*domain.Auction
	bids     *memBids
	applyErr error
}

func newMemAuctions(auctions ...*domain.Auction) *memAuctions {
	m := &memAuctions{rows: make(map[string]*domain.Auction), bids: newMemBids()}
	for _, a := range auctions {
		m.rows[a.Key()] = a
	}
	return m
}

func (m *memAuctions) get(id int64, t domain.AuctionType) *domain.Auction {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.rows[domain.AuctionKey(id, t)]
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}

func (m *memAuctions) GetAuction(ctx context.Context, id int64, t domain.AuctionType) (*domain.Auction, error) {
	if a := m.get(id, t); a != nil {
		return a, nil
	}
	return nil, errors.Wrapf(domain.ErrAuctionNotFound, "auction %d", id)
}

func (m *memAuctions) ListAuctions(ctx context.Context, filter domain.AuctionFilter) ([]*domain.Auction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Auction
	for _, a := range m.rows {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memAuctions) UpsertAuction(ctx context.Context, a *domain.Auction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.rows[a.Key()] = &cp
	return nil
}

func (m *memAuctions) ApplyBid(ctx context.Context, id int64, t domain.AuctionType, fn domain.BidMutator) (*domain.Auction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.rows[domain.AuctionKey(id, t)]
	if row == nil {
		return nil, errors.Wrapf(domain.ErrAuctionNotFound, "auction %d", id)
	}
	working := *row
	record, err := fn(&working)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, errors.New("no bid record")
	}
	if m.applyErr != nil {
		return nil, m.applyErr
	}
	*row = working
	m.bids.add(record)
	return &working, nil
}

func (m *memAuctions) MarkExpiredEnded(ctx context.Context, now int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, a := range m.rows {
		if a.Status == domain.AuctionActive && a.EndTime <= now {
			a.Status = domain.AuctionEnded
			n++
		}
	}
	return n, nil
}

func (m *memAuctions) MarkAuctionEndedIfExpired(ctx context.Context, id int64, t domain.AuctionType, now int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a := m.rows[domain.AuctionKey(id, t)]; a != nil && a.Status == domain.AuctionActive && a.EndTime <= now {
		a.Status = domain.AuctionEnded
	}
	return nil
}

func (m *memAuctions) TransitionStatus(ctx context.Context, id int64, t domain.AuctionType, from, to domain.AuctionStatus) error {
	if !domain.CanTransition(from, to) {
		return domain.ErrInvalidTransition
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.rows[domain.AuctionKey(id, t)]
	if a == nil {
		return domain.ErrAuctionNotFound
	}
	if a.Status != from {
		return errors.Wrapf(domain.ErrInvalidTransition, "is %s", a.Status)
	}
	a.Status = to
	return nil
}

type memBids struct {
	mu      sync.Mutex
	records map[string]*domain.BidRecord
	order   []string
}

func newMemBids() *memBids {
	return &memBids{records: make(map[string]*domain.BidRecord)}
}

func (m *memBids) add(r *domain.BidRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.EventID] = r
	m.order = append(m.order, r.EventID)
}

func (m *memBids) GetBidHistory(ctx context.Context, id int64, t domain.AuctionType, limit int) ([]*domain.BidRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.BidRecord
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		r := m.records[m.order[i]]
		if r.AuctionID == id && r.AuctionType == t {
			out = append(out, r)
		}
	}
	return out, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*domain.AuctionEvent
	err    error
}

func (p *recordingPublisher) PublishAuctionEvent(ctx context.Context, e *domain.AuctionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type recordingBroadcaster struct {
	messages map[string][]interface{}
	closed   []string
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{messages: make(map[string][]interface{})}
}

func (b *recordingBroadcaster) BroadcastToAuction(ctx context.Context, key string, msg interface{}) error {
	b.messages[key] = append(b.messages[key], msg)
	return nil
}

func (b *recordingBroadcaster) CloseAuction(ctx context.Context, key string) error {
	b.closed = append(b.closed, key)
	return nil
}

type stubLeader struct {
	leader   bool
	err      error
	calls    int
	released int
}

func (l *stubLeader) BecomeLeader(ctx context.Context, id string) (bool, error) {
	l.calls++
	return l.leader, l.err
}

func (l *stubLeader) IsLeader(ctx context.Context, id string) (bool, error) { return l.leader, l.err }

func (l *stubLeader) ReleaseLeadership(ctx context.Context, id string) error {
	l.released++
	return nil
}

func fixedClock(unix int64) func() time.Time {
	return func() time.Time { return time.Unix(unix, 0).UTC() }
}

const bidder = "0x32Be343B94f860124dC4fEe278FDCBD38C102D88"
