package domain

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	all := []AuctionStatus{AuctionActive, AuctionEnded, AuctionFinalized, AuctionCancelled}
	allowed := map[string]bool{
		"active->ended":     true,
		"active->cancelled": true,
		"ended->finalized":  true,
	}

	for _, from := range all {
		for _, to := range all {
			key := fmt.Sprintf("%s->%s", from, to)
			assert.Equal(t, allowed[key], CanTransition(from, to), key)
		}
	}
}

func TestTerminal(t *testing.T) {
	assert.False(t, AuctionActive.Terminal())
	assert.False(t, AuctionEnded.Terminal())
	assert.True(t, AuctionFinalized.Terminal())
	assert.True(t, AuctionCancelled.Terminal())
	assert.False(t, AuctionStatus("paused").Valid())
}

func TestParseAuctionType(t *testing.T) {
	typ, ok := ParseAuctionType("")
	assert.True(t, ok)
	assert.Equal(t, AuctionSingle, typ)

	typ, ok = ParseAuctionType("bundle")
	assert.True(t, ok)
	assert.Equal(t, AuctionBundle, typ)

	_, ok = ParseAuctionType("dutch")
	assert.False(t, ok)
}

func TestAuctionTimeLeft(t *testing.T) {
	a := &Auction{Status: AuctionActive, EndTime: 1000}
	assert.Equal(t, int64(400), a.TimeLeft(600))
	assert.Equal(t, int64(0), a.TimeLeft(1000))
	assert.Equal(t, int64(0), a.TimeLeft(2000))
	assert.False(t, a.IsEnded(999))
	assert.True(t, a.IsEnded(1000))

	a.Status = AuctionCancelled
	assert.True(t, a.IsEnded(0))
}

func TestErrorClassification(t *testing.T) {
	wrapped := errors.Wrapf(ErrAuctionNotEnded, "auction %d status %s", 7, AuctionActive)
	assert.True(t, IsStateConflict(wrapped))
	assert.False(t, IsNotFound(wrapped))

	notFound := errors.Wrap(ErrAuctionNotFound, "lookup")
	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsStateConflict(notFound))

	assert.False(t, IsStateConflict(errors.New("connection refused")))
}
