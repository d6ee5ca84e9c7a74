package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	appinventory "bookstore/application/inventory"
	apppromotion "bookstore/application/promotion"
	"bookstore/domain/customerorder"
	"bookstore/domain/payment"
	"bookstore/domain/shared"
	"bookstore/pkg/logger"
	"bookstore/pkg/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrCallbackInProgress another delivery of the same callback holds the
// lock and did not finish in time.
var ErrCallbackInProgress = errors.New("payment callback is already being processed")

// CallbackLocker serialises deliveries of the same callback (browser
// return and IPN) across instances.
type CallbackLocker interface {
	// TryLock does not block. acquired is false when somebody else holds key.
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(), acquired bool, err error)
}

// ReconcilerConfig tunes callback handling.
type ReconcilerConfig struct {
	// VerifyWithQuery asks the gateway for the transaction status before
	// trusting a successful callback.
	VerifyWithQuery bool
	QueryTimeout    time.Duration
	LockTTL         time.Duration
	// LockWait is how long a second delivery waits for the first one.
	LockWait time.Duration
}

// Result is the outcome of one callback delivery.
type Result struct {
	TxnRef          string
	Success         bool
	Status          payment.Status
	CustomerOrderID string
	Message         string
	// AlreadyProcessed is set when an earlier delivery settled the
	// reservation and this one changed nothing.
	AlreadyProcessed bool
}

// Reconciler settles payment reservations from gateway callbacks.
type Reconciler struct {
	gateway        payment.Gateway
	store          *Store
	ledger         *appinventory.Ledger
	promotions     *apppromotion.Service
	customerOrders customerorder.Repository
	locker         CallbackLocker
	uowFactory     shared.UnitOfWorkFactory
	cfg            ReconcilerConfig

	queries singleflight.Group
	now     func() time.Time
}

func NewReconciler(
	gateway payment.Gateway,
	store *Store,
	ledger *appinventory.Ledger,
	promotions *apppromotion.Service,
	customerOrders customerorder.Repository,
	locker CallbackLocker,
	uowFactory shared.UnitOfWorkFactory,
	cfg ReconcilerConfig,
) *Reconciler {
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 10 * time.Second
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	if cfg.LockWait <= 0 {
		cfg.LockWait = 5 * time.Second
	}

	return &Reconciler{
		gateway:        gateway,
		store:          store,
		ledger:         ledger,
		promotions:     promotions,
		customerOrders: customerOrders,
		locker:         locker,
		uowFactory:     uowFactory,
		cfg:            cfg,
		now:            time.Now,
	}
}

// HandleCallback verifies a gateway callback and applies it at most once.
//
// A declined payment yields a failed Result and a nil error. Errors are
// reserved for callbacks that must not be acknowledged as handled: bad
// signature, unknown reference, a gateway that contradicts the callback,
// or infrastructure failures.
func (r *Reconciler) HandleCallback(ctx context.Context, params map[string]string) (Result, error) {
	cb, err := r.gateway.VerifyCallback(params)
	if err != nil {
		metrics.PaymentCallbacks.WithLabelValues("signature_invalid").Inc()
		logger.Warn("Rejected payment callback", logger.TxnRef(params["vnp_TxnRef"]), zap.Error(err))
		return Result{}, err
	}

	unlock, err := r.lock(ctx, cb.TxnRef)
	if err != nil {
		return Result{TxnRef: cb.TxnRef}, err
	}
	defer unlock()

	res, err := r.reconcile(ctx, cb)
	metrics.PaymentCallbacks.WithLabelValues(outcome(res, err)).Inc()
	return res, err
}

func (r *Reconciler) reconcile(ctx context.Context, cb payment.CallbackResult) (Result, error) {
	res := Result{TxnRef: cb.TxnRef}

	reservation, err := r.store.Get(ctx, cb.TxnRef)
	if err != nil {
		return res, err
	}
	res.Status = reservation.Status()

	switch reservation.Status() {
	case payment.StatusConfirmed:
		res.Success = true
		res.AlreadyProcessed = true
		res.CustomerOrderID = reservation.CustomerOrderID()
		res.Message = "payment already confirmed"
		return res, nil
	case payment.StatusCancelled, payment.StatusExpired:
		res.AlreadyProcessed = true
		res.Message = "payment reservation is " + string(reservation.Status())
		return res, nil
	}

	if reservation.IsExpired(r.now()) {
		return r.abandon(ctx, reservation, cb, "payment window expired", true)
	}

	if !cb.Amount.Equals(reservation.TotalAmount()) {
		res, _ = r.abandon(ctx, reservation, cb, "amount mismatch", false)
		return res, payment.NewGatewayMismatchError(cb.TxnRef,
			fmt.Sprintf("callback amount %d does not match reserved %d", cb.Amount.Amount(), reservation.TotalAmount().Amount()))
	}

	if !cb.Succeeded() {
		return r.abandon(ctx, reservation, cb, "payment declined with code "+cb.ResponseCode, false)
	}

	if r.cfg.VerifyWithQuery {
		q, err := r.query(ctx, reservation)
		if err != nil {
			// the reservation stays pending; a later delivery or the sweep decides
			return res, err
		}
		if !q.Succeeded() {
			res, _ = r.abandon(ctx, reservation, cb, "gateway status query returned "+q.ResponseCode, false)
			return res, payment.NewGatewayMismatchError(cb.TxnRef,
				"callback reported success but the status query returned "+q.ResponseCode)
		}
	}

	return r.settle(ctx, reservation)
}

// settle materialises the customer order from the reservation snapshot in
// one unit of work.
func (r *Reconciler) settle(ctx context.Context, reservation *payment.Reservation) (Result, error) {
	res := Result{TxnRef: reservation.TxnRef()}

	snapshot, err := reservation.Snapshot()
	if err != nil {
		return res, err
	}
	coID, err := customerorder.NewID()
	if err != nil {
		return res, err
	}

	err = shared.Transactional(ctx, r.uowFactory, func(ctx context.Context, uow shared.UnitOfWork) error {
		if err := r.store.Confirm(ctx, reservation, coID); err != nil {
			return err
		}

		orders, err := snapshot.BuildOrders(coID, reservation.BuyerID(), reservation.PaymentMethod())
		if err != nil {
			return err
		}
		co, err := customerorder.Place(customerorder.PlaceParams{
			ID:            coID,
			BuyerID:       reservation.BuyerID(),
			Shipping:      snapshot.Shipping,
			PaymentMethod: reservation.PaymentMethod(),
			Orders:        orders,
			PromotionCode: snapshot.PromotionCode,
			GatewayTxnRef: reservation.TxnRef(),
			Notes:         snapshot.Notes,
		})
		if err != nil {
			return err
		}
		co.MarkPaid()

		if err := r.customerOrders.Save(ctx, co); err != nil {
			return err
		}
		uow.RegisterNew(co)

		if err := r.promotions.RecordUsage(ctx, snapshot.PromotionCode, reservation.BuyerID(), coID, co.DiscountAmount()); err != nil {
			return err
		}

		return r.ledger.Confirm(ctx, reservation.ID())
	})
	if err != nil {
		logger.Error("Failed to settle paid reservation",
			logger.TxnRef(reservation.TxnRef()),
			logger.ReservationID(reservation.ID()),
			zap.Error(err))
		return res, err
	}

	logger.Info("Payment settled",
		logger.TxnRef(reservation.TxnRef()),
		logger.CustomerOrderID(coID),
		zap.Int64("amount", reservation.TotalAmount().Amount()))

	res.Success = true
	res.Status = payment.StatusConfirmed
	res.CustomerOrderID = coID
	res.Message = "payment confirmed"
	return res, nil
}

// abandon cancels (or expires) the reservation and returns its stock. No
// order is ever created on this path.
func (r *Reconciler) abandon(ctx context.Context, reservation *payment.Reservation, cb payment.CallbackResult, reason string, expire bool) (Result, error) {
	res := Result{TxnRef: reservation.TxnRef(), Message: reason}

	err := shared.Transactional(ctx, r.uowFactory, func(ctx context.Context, _ shared.UnitOfWork) error {
		var err error
		if expire {
			err = r.store.Expire(ctx, reservation)
		} else {
			err = r.store.Cancel(ctx, reservation, reason)
		}
		if err != nil {
			return err
		}
		_, err = r.ledger.Rollback(ctx, reservation.ID(), reason)
		return err
	})
	if errors.Is(err, payment.ErrReservationState) {
		// somebody else finished it first
		current, getErr := r.store.Get(ctx, reservation.TxnRef())
		if getErr != nil {
			return res, getErr
		}
		res.Status = current.Status()
		res.Success = current.Status() == payment.StatusConfirmed
		res.CustomerOrderID = current.CustomerOrderID()
		res.AlreadyProcessed = true
		return res, nil
	}
	if err != nil {
		return res, err
	}

	res.Status = reservation.Status()
	logger.Info("Payment reservation abandoned",
		logger.TxnRef(reservation.TxnRef()),
		zap.String("response_code", cb.ResponseCode),
		zap.String("reason", reason))
	return res, nil
}

// query asks the gateway once per txn ref no matter how many deliveries
// are waiting on the answer.
func (r *Reconciler) query(ctx context.Context, reservation *payment.Reservation) (payment.QueryResult, error) {
	v, err, _ := r.queries.Do(reservation.TxnRef(), func() (interface{}, error) {
		qctx, cancel := context.WithTimeout(ctx, r.cfg.QueryTimeout)
		defer cancel()
		return r.gateway.QueryTransaction(qctx, reservation.TxnRef(), reservation.CreatedAt(), "")
	})
	if err != nil {
		logger.Warn("Gateway status query failed", logger.TxnRef(reservation.TxnRef()), zap.Error(err))
		if errors.Is(err, payment.ErrGatewayUnavailable) {
			return payment.QueryResult{}, err
		}
		return payment.QueryResult{}, payment.NewGatewayUnavailableError(err)
	}
	return v.(payment.QueryResult), nil
}

// lock waits up to LockWait for the per-txn-ref lock. A locker failure is
// logged and processing continues unlocked: the conditional transitions
// still keep the outcome single.
func (r *Reconciler) lock(ctx context.Context, txnRef string) (func(), error) {
	noop := func() {}
	if r.locker == nil {
		return noop, nil
	}

	key := "payment:callback:" + txnRef
	deadline := time.Now().Add(r.cfg.LockWait)
	for {
		unlock, ok, err := r.locker.TryLock(ctx, key, r.cfg.LockTTL)
		if err != nil {
			logger.Warn("Callback lock unavailable, continuing without it", logger.TxnRef(txnRef), zap.Error(err))
			return noop, nil
		}
		if ok {
			return unlock, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrCallbackInProgress
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func outcome(res Result, err error) string {
	switch {
	case errors.Is(err, payment.ErrGatewayMismatch):
		return "mismatch"
	case err != nil:
		return "error"
	case res.AlreadyProcessed:
		return "duplicate"
	case res.Success:
		return "confirmed"
	default:
		return "declined"
	}
}
