// Package vault implements the position and withdrawal accounting engine of
// an automated staking-arbitrage vault: depositors pool a base asset, a
// keeper swaps idle cash into a discounted staked asset and parks it in
// cooldown-bound unstake requests, and matured proceeds service a FIFO
// withdrawal queue at fresh NAV.
package vault

import (
	"fmt"
	"math/big"
	"sync"
	"time"
)

// Vault owns the entire ledger state. Every mutating operation is one
// serialized, all-or-nothing state transition under a single lock; views
// take the same lock and return copies.
type Vault struct {
	cfg     Config
	account string // vault's account on the token ledgers
	escrow  string // holds shares escrowed by withdrawal requests

	base    Token
	staked  Token
	shares  ShareLedger
	adapter StakeAdapter

	proxies *ProxyPool
	ledger  *positionLedger
	queue   *withdrawalQueue
	fees    *FeeEngine

	onEvent EventHandler
	nowFn   func() time.Time
	mu      sync.Mutex
}

// Deps wires the vault's collaborators.
type Deps struct {
	Account string
	Base    Token
	Staked  Token
	Shares  ShareLedger
	Adapter StakeAdapter
	Proxies []string
	OnEvent EventHandler
}

// New creates a vault from a validated config and its collaborators.
func New(cfg Config, deps Deps) (*Vault, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Account == "" {
		return nil, ErrZeroAddress
	}
	if deps.Base == nil || deps.Staked == nil || deps.Shares == nil || deps.Adapter == nil {
		return nil, ErrInvalidConfig
	}
	return &Vault{
		cfg:     cfg,
		account: deps.Account,
		escrow:  deps.Account + ":escrow",
		base:    deps.Base,
		staked:  deps.Staked,
		shares:  deps.Shares,
		adapter: deps.Adapter,
		proxies: NewProxyPool(deps.Proxies),
		ledger:  newPositionLedger(cfg.MaxActivePositions),
		queue:   newWithdrawalQueue(),
		fees:    &FeeEngine{Bps: cfg.PerformanceFeeBps, Recipient: cfg.FeeRecipient},
		onEvent: deps.OnEvent,
		nowFn:   time.Now,
	}, nil
}

func (v *Vault) now() time.Time { return v.nowFn() }

func (v *Vault) emit(e Event) {
	if v.onEvent != nil {
		e.Time = v.now()
		v.onEvent(e)
	}
}

// Deposit moves assets from owner into the vault and mints shares at the
// pre-deposit NAV. Fresh cash immediately attempts to drain the queue.
func (v *Vault) Deposit(owner string, assets *big.Int) (*big.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if owner == "" {
		return nil, ErrZeroAddress
	}
	if assets == nil || assets.Sign() <= 0 {
		return nil, ErrZeroAmount
	}
	if v.cfg.MinDeposit != nil && assets.Cmp(v.cfg.MinDeposit) < 0 {
		return nil, ErrDepositBelowMinimum
	}

	totalAssets := v.totalAssetsLocked(v.now())
	if v.cfg.DepositCap != nil {
		after := new(big.Int).Add(totalAssets, assets)
		if after.Cmp(v.cfg.DepositCap) > 0 {
			return nil, ErrDepositCapExceeded
		}
	}

	// Shares are priced off NAV before the assets arrive.
	minted := v.convertToShares(assets, totalAssets)
	if err := v.base.Transfer(owner, v.account, assets); err != nil {
		return nil, err
	}
	v.shares.Mint(owner, minted)

	v.emit(Event{
		Kind:   EventDeposit,
		Owner:  owner,
		Assets: assets.String(),
		Shares: minted.String(),
	})

	v.fulfillLocked(v.cfg.MaxWithdrawalsPerBatch)
	return minted, nil
}

// OpenPosition swaps baseIn of idle cash into the staked asset through
// router, parks the proceeds in an unstake request, and records the
// position. Spend and proceeds are measured by balance delta, never taken
// from the router's word. Zero minProfitBps and maxUnstake fall back to the
// configured threshold and bound.
func (v *Vault) OpenPosition(router SwapRouter, baseIn, minStakedOut *big.Int, payload []byte, minProfitBps uint64, maxUnstake time.Duration) (uint64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if router == nil {
		return 0, ErrZeroAddress
	}
	if baseIn == nil || baseIn.Sign() <= 0 {
		return 0, ErrZeroAmount
	}
	if v.cfg.MaxActivePositions > 0 && v.ledger.active >= v.cfg.MaxActivePositions {
		return 0, ErrTooManyPositions
	}
	if v.idleCashLocked().Cmp(baseIn) < 0 {
		return 0, ErrInsufficientBalance
	}

	slot, proxy, err := v.proxies.Allocate()
	if err != nil {
		return 0, err
	}
	// Any failure past this point must hand the slot back.

	baseBefore := v.base.BalanceOf(v.account)
	stakedBefore := v.staked.BalanceOf(v.account)

	if err := router.Swap(v.account, baseIn, minStakedOut, payload); err != nil {
		v.proxies.Release(slot)
		return 0, fmt.Errorf("swap: %w", err)
	}

	spent := new(big.Int).Sub(baseBefore, v.base.BalanceOf(v.account))
	stakedOut := new(big.Int).Sub(v.staked.BalanceOf(v.account), stakedBefore)
	if spent.Sign() <= 0 {
		v.proxies.Release(slot)
		return 0, ErrSwapNoSpend
	}
	if minStakedOut != nil && stakedOut.Cmp(minStakedOut) < 0 {
		v.proxies.Release(slot)
		return 0, ErrSwapOutputBelowMinimum
	}

	ticket, err := v.adapter.RequestUnstake(proxy, stakedOut)
	if err != nil {
		v.proxies.Release(slot)
		return 0, fmt.Errorf("request unstake: %w", err)
	}

	now := v.now()
	if ticket.ExpectedPayout == nil || ticket.ExpectedPayout.Cmp(spent) < 0 {
		v.proxies.Release(slot)
		return 0, ErrProfitBelowBook
	}
	// An unstake redeems at par at best, so a promised payout above the
	// oracle valuation of the stake means the adapter is lying.
	oracle, err := v.adapter.ConvertToAssets(stakedOut)
	if err != nil {
		v.proxies.Release(slot)
		return 0, fmt.Errorf("convert to assets: %w", err)
	}
	if ticket.ExpectedPayout.Cmp(oracle) > 0 {
		v.proxies.Release(slot)
		return 0, ErrPayoutAboveOracle
	}
	threshold := minProfitBps
	if threshold == 0 {
		threshold = v.cfg.MinProfitThresholdBps
	}
	if threshold > 0 {
		profit := new(big.Int).Sub(ticket.ExpectedPayout, spent)
		profitBps := mulDiv(profit, big.NewInt(bpsDenominator), spent)
		if profitBps.Cmp(big.NewInt(int64(threshold))) < 0 {
			v.proxies.Release(slot)
			return 0, ErrProfitBelowThreshold
		}
	}
	maxWait := maxUnstake
	if maxWait == 0 {
		maxWait = v.cfg.MaxUnstakeTime
	}
	if maxWait > 0 && ticket.Maturity.Sub(now) > maxWait {
		v.proxies.Release(slot)
		return 0, ErrUnstakeTooLong
	}

	pos := &Position{
		StakeAmount:    stakedOut,
		BookValue:      spent,
		ExpectedAssets: new(big.Int).Set(ticket.ExpectedPayout),
		OpenedAt:       now,
		Maturity:       ticket.Maturity,
		ClaimID:        ticket.ClaimID,
		ProxySlot:      slot,
		Proxy:          proxy,
	}
	if err := v.ledger.append(pos); err != nil {
		v.proxies.Release(slot)
		return 0, err
	}

	v.emit(Event{
		Kind:     EventPositionOpened,
		Position: pos.ID,
		Assets:   spent.String(),
		Profit:   pos.GrossProfit().String(),
	})
	return pos.ID, nil
}

// ClaimPosition claims the oldest unclaimed position once its cooldown has
// elapsed. Realized profit is actual received minus book value and may be
// negative; the fee applies only to positive profit. Claim proceeds
// immediately attempt to drain the queue. Callable by anyone.
func (v *Vault) ClaimPosition() (*big.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	pos := v.ledger.oldestUnclaimed()
	if pos == nil {
		return nil, ErrNoActivePositions
	}
	now := v.now()
	if now.Before(pos.Maturity) {
		return nil, ErrCooldownNotElapsed
	}

	baseBefore := v.base.BalanceOf(v.account)
	if _, err := v.adapter.Claim(pos.ClaimID); err != nil {
		return nil, fmt.Errorf("claim: %w", err)
	}
	received := new(big.Int).Sub(v.base.BalanceOf(v.account), baseBefore)

	// The ticket is consumed and the payout is in idle cash; the position
	// must stop contributing to NAV before anything else can fail, or it
	// would be double-counted and a retry would re-claim a spent ticket.
	realized := new(big.Int).Sub(received, pos.BookValue)
	v.ledger.markClaimed(pos)
	v.proxies.Release(pos.ProxySlot)

	fee := v.fees.Take(realized)
	if fee.Sign() > 0 {
		if err := v.base.Transfer(v.account, v.fees.Recipient, fee); err != nil {
			return nil, fmt.Errorf("fee transfer: %w", err)
		}
	}

	v.emit(Event{
		Kind:     EventPositionClaimed,
		Position: pos.ID,
		Assets:   received.String(),
		Profit:   realized.String(),
		Fee:      fee.String(),
		NAV:      v.totalAssetsLocked(now).String(),
	})

	v.fulfillLocked(v.cfg.MaxWithdrawalsPerBatch)
	return realized, nil
}

// RequestWithdrawal escrows shares from owner and enqueues a redemption for
// receiver. A caller other than the owner spends share allowance. The new
// request immediately gets one best-effort fulfillment pass so isolated
// requests under sufficient liquidity settle in the same call.
func (v *Vault) RequestWithdrawal(caller, owner, receiver string, shares *big.Int) (uint64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if owner == "" || receiver == "" {
		return 0, ErrZeroAddress
	}
	if shares == nil || shares.Sign() <= 0 {
		return 0, ErrZeroAmount
	}

	totalAssets := v.totalAssetsLocked(v.now())
	if v.cfg.MinWithdrawalAssets != nil {
		value := v.convertToAssets(shares, totalAssets)
		if value.Cmp(v.cfg.MinWithdrawalAssets) < 0 {
			return 0, ErrWithdrawalBelowMinimum
		}
	}

	// Escrow first, then spend the allowance: the escrow transfer is the leg
	// that can fail, and a rejected request must leave both untouched. The
	// refund transfer cannot fail, escrow just received the shares.
	if err := v.shares.Transfer(owner, v.escrow, shares); err != nil {
		return 0, err
	}
	if caller != owner {
		if err := v.shares.SpendAllowance(owner, caller, shares); err != nil {
			v.shares.Transfer(v.escrow, owner, shares)
			return 0, err
		}
	}

	req := &WithdrawalRequest{
		Owner:           owner,
		Receiver:        receiver,
		Shares:          new(big.Int).Set(shares),
		FulfilledShares: big.NewInt(0),
		CreatedAt:       v.now(),
	}
	v.queue.push(req)

	v.emit(Event{
		Kind:     EventWithdrawalRequested,
		Request:  req.ID,
		Owner:    owner,
		Receiver: receiver,
		Shares:   shares.String(),
	})

	v.fulfillLocked(1)
	return req.ID, nil
}

// CancelWithdrawal returns the unfulfilled remainder of a request to its
// owner and removes it from the queue without disturbing the order of the
// remaining requests.
func (v *Vault) CancelWithdrawal(caller string, id uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	req := v.queue.get(id)
	if req == nil {
		return ErrRequestNotFound
	}
	if req.Cancelled {
		return ErrRequestCancelled
	}
	if req.FulfilledShares.Cmp(req.Shares) >= 0 {
		return ErrRequestFulfilled
	}
	if caller != req.Owner {
		return ErrNotRequestOwner
	}
	if v.now().Sub(req.CreatedAt) < v.cfg.MinTimeBeforeCancel {
		return ErrCancelTooEarly
	}

	remainder := req.Remaining()
	if err := v.shares.Transfer(v.escrow, req.Owner, remainder); err != nil {
		return err
	}
	req.Cancelled = true
	if node := v.queue.nodes[id]; node != nil {
		v.queue.unlink(node)
	}

	v.emit(Event{
		Kind:      EventWithdrawalCancelled,
		Request:   id,
		Owner:     req.Owner,
		Shares:    remainder.String(),
		Cancelled: true,
	})
	return nil
}

// ProcessWithdrawalQueue drains the queue against idle cash, bounded by the
// configured batch size. Returns the number of requests touched; callers
// re-invoke to continue draining a long queue.
func (v *Vault) ProcessWithdrawalQueue() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fulfillLocked(v.cfg.MaxWithdrawalsPerBatch)
}

// fulfillLocked services the queue head-first. NAV is recomputed before
// every request: earlier burns in the same batch change the ratio for later
// ones, and a value cached at batch start would misprice them. Purchasable
// shares use floor rounding so the vault never burns more share value than
// the cash it pays out. A partial fill exhausts the cash and ends the batch.
func (v *Vault) fulfillLocked(maxRequests int) int {
	processed := 0
	for maxRequests <= 0 || processed < maxRequests {
		req := v.queue.front()
		if req == nil {
			return processed
		}

		idle := v.idleCashLocked()
		if idle.Sign() <= 0 {
			return processed
		}

		now := v.now()
		totalAssets := v.totalAssetsLocked(now)
		purchasable := v.convertToShares(idle, totalAssets)
		if purchasable.Sign() <= 0 {
			return processed
		}

		remaining := req.Remaining()
		if purchasable.Cmp(remaining) >= 0 {
			assetsOut := v.convertToAssets(remaining, totalAssets)
			if !v.settleLocked(req, remaining, assetsOut) {
				return processed
			}
			processed++
			v.emit(Event{
				Kind:     EventWithdrawalFulfilled,
				Request:  req.ID,
				Owner:    req.Owner,
				Receiver: req.Receiver,
				Shares:   remaining.String(),
				Assets:   assetsOut.String(),
			})
			if node := v.queue.nodes[req.ID]; node != nil {
				v.queue.unlink(node)
			}
			continue
		}

		assetsOut := v.convertToAssets(purchasable, totalAssets)
		if v.settleLocked(req, purchasable, assetsOut) {
			processed++
			v.emit(Event{
				Kind:     EventWithdrawalFulfilled,
				Request:  req.ID,
				Owner:    req.Owner,
				Receiver: req.Receiver,
				Shares:   purchasable.String(),
				Assets:   assetsOut.String(),
				Partial:  true,
			})
		}
		return processed
	}
	return processed
}

// settleLocked burns shares from escrow and pays assetsOut to the receiver,
// advancing the request's fulfilled counter. Both legs must succeed.
func (v *Vault) settleLocked(req *WithdrawalRequest, shares, assetsOut *big.Int) bool {
	if err := v.shares.Burn(v.escrow, shares); err != nil {
		return false
	}
	if assetsOut.Sign() > 0 {
		if err := v.base.Transfer(v.account, req.Receiver, assetsOut); err != nil {
			// Undo the burn; the request stays queued untouched.
			v.shares.Mint(v.escrow, shares)
			return false
		}
	}
	req.FulfilledShares.Add(req.FulfilledShares, shares)
	return true
}

// AddProxies grows the proxy pool, bounded per call.
func (v *Vault) AddProxies(handles []string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.proxies.AddSlots(handles, v.cfg.MaxProxiesPerAdd)
}
