package vault

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pushTestRequest(q *withdrawalQueue, owner string, shares int64) *WithdrawalRequest {
	req := &WithdrawalRequest{
		Owner:           owner,
		Receiver:        owner,
		Shares:          big.NewInt(shares),
		FulfilledShares: big.NewInt(0),
		CreatedAt:       time.Unix(1_700_000_000, 0),
	}
	q.push(req)
	return req
}

func queuedIDs(q *withdrawalQueue) []uint64 {
	var ids []uint64
	for _, r := range q.snapshot() {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestQueueFIFO(t *testing.T) {
	q := newWithdrawalQueue()

	a := pushTestRequest(q, "a", 100)
	b := pushTestRequest(q, "b", 200)
	c := pushTestRequest(q, "c", 300)

	assert.Equal(t, uint64(1), a.ID)
	assert.Equal(t, uint64(2), b.ID)
	assert.Equal(t, uint64(3), c.ID)
	assert.Equal(t, 3, q.pending())
	assert.Equal(t, a, q.front())
}

func TestQueueCancelMiddlePreservesOrder(t *testing.T) {
	q := newWithdrawalQueue()
	pushTestRequest(q, "a", 100)
	b := pushTestRequest(q, "b", 200)
	pushTestRequest(q, "c", 300)
	pushTestRequest(q, "d", 400)

	b.Cancelled = true
	q.unlink(q.nodes[b.ID])

	// Survivors keep their relative order: no swap-and-pop reshuffle.
	assert.Equal(t, []uint64{1, 3, 4}, queuedIDs(q))
	assert.Equal(t, 3, q.pending())
	assert.Nil(t, q.nodes[b.ID])
	assert.NotNil(t, q.get(b.ID), "terminal requests stay addressable")
}

func TestQueueUnlinkHeadAndTail(t *testing.T) {
	q := newWithdrawalQueue()
	a := pushTestRequest(q, "a", 1)
	pushTestRequest(q, "b", 2)
	c := pushTestRequest(q, "c", 3)

	q.unlink(q.nodes[a.ID])
	assert.Equal(t, []uint64{2, 3}, queuedIDs(q))

	q.unlink(q.nodes[c.ID])
	assert.Equal(t, []uint64{2}, queuedIDs(q))
	assert.Equal(t, q.head, q.tail)

	q.unlink(q.head)
	assert.Nil(t, q.head)
	assert.Nil(t, q.tail)
	assert.Equal(t, 0, q.pending())
}

func TestQueueFrontSkipsTerminal(t *testing.T) {
	q := newWithdrawalQueue()
	a := pushTestRequest(q, "a", 100)
	b := pushTestRequest(q, "b", 200)

	// Head becomes terminal without an explicit unlink; front advances
	// lazily past it.
	a.FulfilledShares.Set(a.Shares)
	assert.Equal(t, b, q.front())
	assert.Equal(t, 1, q.pending())

	b.Cancelled = true
	assert.Nil(t, q.front())
}

func TestRequestAccounting(t *testing.T) {
	req := &WithdrawalRequest{
		Shares:          big.NewInt(1000),
		FulfilledShares: big.NewInt(0),
	}

	assert.False(t, req.Terminal())
	assert.Equal(t, int64(1000), req.Remaining().Int64())

	req.FulfilledShares = big.NewInt(400)
	assert.False(t, req.Terminal())
	assert.Equal(t, int64(600), req.Remaining().Int64())

	req.FulfilledShares = big.NewInt(1000)
	assert.True(t, req.Terminal())
	assert.Equal(t, int64(0), req.Remaining().Int64())
}

func TestQueuePendingShares(t *testing.T) {
	q := newWithdrawalQueue()
	pushTestRequest(q, "a", 100)
	b := pushTestRequest(q, "b", 200)
	b.FulfilledShares = big.NewInt(50)

	require.Equal(t, int64(250), q.pendingShares().Int64())
}
