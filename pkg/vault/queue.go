package vault

import (
	"math/big"
	"time"
)

// WithdrawalRequest is one queued redemption. Shares move into vault escrow
// at request time and are burned as the request fills; a cancel returns the
// unfulfilled remainder. Once cancelled or fully fulfilled the request is
// terminal and never touched again.
type WithdrawalRequest struct {
	ID              uint64
	Owner           string
	Receiver        string
	Shares          *big.Int
	FulfilledShares *big.Int
	Cancelled       bool
	CreatedAt       time.Time
}

// Remaining returns the shares still waiting to be fulfilled.
func (r *WithdrawalRequest) Remaining() *big.Int {
	return new(big.Int).Sub(r.Shares, r.FulfilledShares)
}

// Terminal reports whether the request is done processing.
func (r *WithdrawalRequest) Terminal() bool {
	return r.Cancelled || r.FulfilledShares.Cmp(r.Shares) >= 0
}

// queueNode is a doubly linked list node. The linked structure gives O(1)
// removal of a cancelled middle request without disturbing the relative
// order of the survivors, which swap-and-pop against a slice would break.
type queueNode struct {
	req  *WithdrawalRequest
	prev *queueNode
	next *queueNode
}

// withdrawalQueue holds the FIFO redemption queue. Requests stay in the
// byID map forever (for lookups); nodes leave the list when terminal.
// Not internally locked: the owning Vault serializes all access.
type withdrawalQueue struct {
	head   *queueNode
	tail   *queueNode
	nodes  map[uint64]*queueNode
	byID   map[uint64]*WithdrawalRequest
	length int
	nextID uint64
}

func newWithdrawalQueue() *withdrawalQueue {
	return &withdrawalQueue{
		nodes:  make(map[uint64]*queueNode),
		byID:   make(map[uint64]*WithdrawalRequest),
		nextID: 1,
	}
}

// push enqueues a new request at the tail and assigns its ID.
func (q *withdrawalQueue) push(req *WithdrawalRequest) {
	req.ID = q.nextID
	q.nextID++
	q.byID[req.ID] = req

	node := &queueNode{req: req}
	if q.tail == nil {
		q.head = node
		q.tail = node
	} else {
		node.prev = q.tail
		q.tail.next = node
		q.tail = node
	}
	q.nodes[req.ID] = node
	q.length++
}

// unlink removes a node from the list, preserving the order of the rest.
func (q *withdrawalQueue) unlink(node *queueNode) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		q.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		q.tail = node.prev
	}
	node.prev = nil
	node.next = nil
	delete(q.nodes, node.req.ID)
	q.length--
}

// get returns a request by id, queued or terminal.
func (q *withdrawalQueue) get(id uint64) *WithdrawalRequest {
	return q.byID[id]
}

// front returns the oldest non-terminal request, advancing past any
// terminal nodes left at the head.
func (q *withdrawalQueue) front() *WithdrawalRequest {
	for q.head != nil && q.head.req.Terminal() {
		q.unlink(q.head)
	}
	if q.head == nil {
		return nil
	}
	return q.head.req
}

// pending returns the number of queued, non-terminal requests.
func (q *withdrawalQueue) pending() int {
	return q.length
}

// pendingShares sums the unfulfilled shares across the queue.
func (q *withdrawalQueue) pendingShares() *big.Int {
	total := big.NewInt(0)
	for node := q.head; node != nil; node = node.next {
		if !node.req.Terminal() {
			total.Add(total, node.req.Remaining())
		}
	}
	return total
}

// snapshot returns copies of the queued requests in FIFO order.
func (q *withdrawalQueue) snapshot() []WithdrawalRequest {
	out := make([]WithdrawalRequest, 0, q.length)
	for node := q.head; node != nil; node = node.next {
		out = append(out, copyRequest(node.req))
	}
	return out
}

func copyRequest(r *WithdrawalRequest) WithdrawalRequest {
	c := *r
	c.Shares = new(big.Int).Set(r.Shares)
	c.FulfilledShares = new(big.Int).Set(r.FulfilledShares)
	return c
}
