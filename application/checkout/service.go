/*
Package checkout Application Layer - turning a cart into orders

One checkout prices the cart per seller, applies at most one promotion
across all sellers, and reserves every line's stock all or nothing. A
cash-on-delivery checkout is finalised on the spot; a gateway checkout
parks the priced split in a payment reservation until the gateway calls
back.
*/
package checkout

import (
	"context"
	"errors"
	"sort"
	"time"

	appinventory "bookstore/application/inventory"
	apppayment "bookstore/application/payment"
	apppromotion "bookstore/application/promotion"
	"bookstore/domain/address"
	"bookstore/domain/customerorder"
	"bookstore/domain/inventory"
	"bookstore/domain/order"
	"bookstore/domain/payment"
	"bookstore/domain/shared"
	"bookstore/pkg/logger"
	"bookstore/pkg/metrics"

	"go.uber.org/zap"
)

// DefaultShippingFee is charged per seller order.
const DefaultShippingFee = 30000

// Config Checkout settings
type Config struct {
	ShippingFee shared.Money
	// InventoryHold bounds how long a cash-on-delivery reservation may stay
	// pending if the process dies between reserving and confirming.
	InventoryHold time.Duration
}

// Service Checkout orchestrator
type Service struct {
	books          inventory.BookRepository
	addresses      address.Repository
	customerOrders customerorder.Repository
	ledger         *appinventory.Ledger
	promotions     *apppromotion.Service
	payments       *apppayment.Store
	gateway        payment.Gateway
	uowFactory     shared.UnitOfWorkFactory
	distributor    order.DiscountDistributor
	cfg            Config
	now            func() time.Time
}

func NewService(
	books inventory.BookRepository,
	addresses address.Repository,
	customerOrders customerorder.Repository,
	ledger *appinventory.Ledger,
	promotions *apppromotion.Service,
	payments *apppayment.Store,
	gateway payment.Gateway,
	uowFactory shared.UnitOfWorkFactory,
	cfg Config,
) *Service {
	if cfg.ShippingFee.Currency() == "" {
		cfg.ShippingFee = shared.VND(DefaultShippingFee)
	}
	if cfg.InventoryHold <= 0 {
		cfg.InventoryHold = 15 * time.Minute
	}

	return &Service{
		books:          books,
		addresses:      addresses,
		customerOrders: customerOrders,
		ledger:         ledger,
		promotions:     promotions,
		payments:       payments,
		gateway:        gateway,
		uowFactory:     uowFactory,
		cfg:            cfg,
		now:            time.Now,
	}
}

// draft is a priced checkout that has not been committed yet.
type draft struct {
	customerOrderID string
	buyerID         string
	method          shared.PaymentMethod
	shipping        shared.ShippingAddress
	notes           string
	orders          []*order.Order
	promotionCode   string
	promotionID     string
	original        shared.Money
	discount        shared.Money
	shippingFee     shared.Money
}

func (d *draft) final() shared.Money {
	return shared.VND(d.original.Amount() - d.discount.Amount())
}

func (d *draft) reservationLines() []inventory.Line {
	var lines []inventory.Line
	for _, o := range d.orders {
		for _, item := range o.Items() {
			lines = append(lines, inventory.Line{BookID: item.BookID(), Title: item.Title(), Quantity: item.Quantity()})
		}
	}
	return lines
}

// ============================================================================
// Application Service Methods
// ============================================================================

// Checkout runs one checkout attempt.
func (s *Service) Checkout(ctx context.Context, req Request) (*Response, error) {
	method := shared.PaymentMethod(req.PaymentMethod)
	if !method.IsValid() {
		metrics.Checkouts.WithLabelValues("unknown", "rejected").Inc()
		return nil, shared.NewValidationError("checkout", "payment_method", "unsupported payment method "+req.PaymentMethod)
	}
	if method.IsAsynchronous() && s.gateway == nil {
		metrics.Checkouts.WithLabelValues(string(method), "rejected").Inc()
		return nil, shared.NewValidationError("checkout", "payment_method", "online payment is not enabled")
	}

	d, err := s.price(ctx, req)
	if err != nil {
		metrics.Checkouts.WithLabelValues(string(method), "rejected").Inc()
		return nil, err
	}

	var resp *Response
	if method.IsAsynchronous() {
		resp, err = s.awaitPayment(ctx, d, req.ClientIP)
	} else {
		resp, err = s.finalize(ctx, d)
	}
	if err != nil {
		metrics.Checkouts.WithLabelValues(string(method), "rejected").Inc()
		return nil, err
	}

	if resp.PaymentURL != "" {
		metrics.Checkouts.WithLabelValues(string(method), "awaiting_payment").Inc()
	} else {
		metrics.Checkouts.WithLabelValues(string(method), "finalized").Inc()
	}
	return resp, nil
}

// price validates the request and builds the per-seller orders with the
// promotion distributed across them. It writes nothing.
func (s *Service) price(ctx context.Context, req Request) (*draft, error) {
	method := shared.PaymentMethod(req.PaymentMethod)
	if req.BuyerID == "" {
		return nil, shared.NewValidationError("checkout", "buyer_id", "buyer is required")
	}

	lines, err := mergeLines(req)
	if err != nil {
		return nil, err
	}

	shipping, err := s.resolveShipping(ctx, req)
	if err != nil {
		return nil, err
	}

	cart, err := s.loadCart(ctx, lines)
	if err != nil {
		return nil, err
	}

	coID, err := customerorder.NewID()
	if err != nil {
		return nil, err
	}

	d := &draft{
		customerOrderID: coID,
		buyerID:         req.BuyerID,
		method:          method,
		shipping:        shipping,
		notes:           req.Notes,
	}

	var subtotal, shippingFee int64
	for i, sellerID := range sortedSellers(cart) {
		o, err := order.NewOrder(order.NewOrderParams{
			CustomerOrderID: coID,
			Sequence:        i,
			BuyerID:         req.BuyerID,
			SellerID:        sellerID,
			Shipping:        shipping,
			Lines:           cart[sellerID],
			ShippingFee:     s.cfg.ShippingFee,
			PaymentMethod:   method,
			Notes:           req.Notes,
		})
		if err != nil {
			return nil, err
		}
		subtotal += o.Subtotal().Amount()
		shippingFee += o.ShippingFee().Amount()
		d.orders = append(d.orders, o)
	}
	d.original = shared.VND(subtotal + shippingFee)
	d.shippingFee = shared.VND(shippingFee)
	d.discount = shared.Zero(shared.CurrencyVND)

	if req.PromotionCode != "" {
		quote, err := s.promotions.Quote(ctx, req.PromotionCode, req.BuyerID, d.original)
		if err != nil {
			return nil, err
		}
		d.promotionCode = quote.Promotion.Code()
		d.promotionID = quote.Promotion.ID()
		d.discount = s.distributor.Distribute(d.orders, quote.Discount, d.promotionCode)
	}

	return d, nil
}

// finalize commits a cash-on-delivery checkout: stock, orders and
// promotion usage in one unit of work.
func (s *Service) finalize(ctx context.Context, d *draft) (*Response, error) {
	var co *customerorder.CustomerOrder

	err := shared.Transactional(ctx, s.uowFactory, func(ctx context.Context, uow shared.UnitOfWork) error {
		if _, err := s.ledger.Reserve(ctx, d.customerOrderID, d.reservationLines(), s.now().Add(s.cfg.InventoryHold)); err != nil {
			return err
		}

		placed, err := customerorder.Place(customerorder.PlaceParams{
			ID:            d.customerOrderID,
			BuyerID:       d.buyerID,
			Shipping:      d.shipping,
			PaymentMethod: d.method,
			Orders:        d.orders,
			PromotionCode: d.promotionCode,
			Notes:         d.notes,
		})
		if err != nil {
			return err
		}
		if err := s.customerOrders.Save(ctx, placed); err != nil {
			return err
		}
		uow.RegisterNew(placed)

		if err := s.promotions.RecordUsage(ctx, d.promotionCode, d.buyerID, d.customerOrderID, placed.DiscountAmount()); err != nil {
			return err
		}
		if err := s.ledger.Confirm(ctx, d.customerOrderID); err != nil {
			return err
		}

		co = placed
		return nil
	})
	if err != nil {
		s.compensate(ctx, d.customerOrderID, err)
		return nil, err
	}

	logger.Info("Checkout finalized",
		logger.CustomerOrderID(co.ID()),
		logger.BuyerID(co.BuyerID()),
		zap.Int("orders", len(co.Orders())),
		zap.Int64("final_total", co.FinalTotal().Amount()))

	return &Response{
		PaymentMethod:   string(co.PaymentMethod()),
		CustomerOrderID: co.ID(),
		Status:          string(co.Status()),
		OriginalTotal:   co.OriginalTotal().Amount(),
		DiscountAmount:  co.DiscountAmount().Amount(),
		FinalTotal:      co.FinalTotal().Amount(),
	}, nil
}

// awaitPayment parks the priced checkout in a payment reservation, holds
// the stock under the reservation id until the payment window closes, and
// hands back the gateway redirect.
func (s *Service) awaitPayment(ctx context.Context, d *draft, clientIP string) (*Response, error) {
	var reservation *payment.Reservation

	err := shared.Transactional(ctx, s.uowFactory, func(ctx context.Context, _ shared.UnitOfWork) error {
		r, err := s.payments.Create(ctx, apppayment.CreateParams{
			BuyerID:        d.buyerID,
			Snapshot:       payment.SnapshotOf(d.shipping, d.notes, d.promotionCode, d.promotionID, d.orders),
			TotalAmount:    d.final(),
			ShippingFee:    d.shippingFee,
			DiscountAmount: d.discount,
			PaymentMethod:  d.method,
			Notes:          d.notes,
		})
		if err != nil {
			return err
		}
		reservation = r

		_, err = s.ledger.Reserve(ctx, r.ID(), d.reservationLines(), r.ExpiresAt())
		return err
	})
	if err != nil {
		if reservation != nil {
			s.abandon(ctx, reservation, "stock reservation failed")
		}
		return nil, err
	}

	url, err := s.gateway.BuildPaymentURL(ctx, payment.PaymentRequest{
		TxnRef:    reservation.TxnRef(),
		Amount:    reservation.TotalAmount(),
		OrderInfo: "Thanh toan don hang " + reservation.TxnRef(),
		ClientIP:  clientIP,
		CreatedAt: reservation.CreatedAt(),
		ExpiresAt: reservation.ExpiresAt(),
	})
	if err != nil {
		s.abandon(ctx, reservation, "payment url could not be built")
		return nil, err
	}

	logger.Info("Checkout awaiting payment",
		logger.TxnRef(reservation.TxnRef()),
		logger.ReservationID(reservation.ID()),
		logger.BuyerID(d.buyerID),
		zap.Int64("amount", reservation.TotalAmount().Amount()))

	expiresAt := reservation.ExpiresAt()
	return &Response{
		PaymentMethod:  string(d.method),
		OriginalTotal:  d.original.Amount(),
		DiscountAmount: d.discount.Amount(),
		FinalTotal:     reservation.TotalAmount().Amount(),
		PaymentURL:     url,
		TxnRef:         reservation.TxnRef(),
		ExpiresAt:      &expiresAt,
	}, nil
}

// compensate returns stock a failed finalize may have left reserved.
// Inside a database transaction the rollback already did; then this is a
// no-op.
func (s *Service) compensate(ctx context.Context, ownerID string, cause error) {
	if errors.Is(cause, inventory.ErrInsufficientStock) {
		return
	}
	if _, err := s.ledger.Rollback(ctx, ownerID, "checkout failed"); err != nil {
		logger.Error("Failed to compensate checkout reservation",
			logger.OwnerID(ownerID),
			zap.NamedError("cause", cause),
			zap.Error(err))
	}
}

func (s *Service) abandon(ctx context.Context, r *payment.Reservation, reason string) {
	if err := s.payments.Cancel(ctx, r, reason); err != nil && !errors.Is(err, payment.ErrReservationNotFound) {
		logger.Warn("Failed to cancel abandoned payment reservation", logger.TxnRef(r.TxnRef()), zap.Error(err))
	}
	if _, err := s.ledger.Rollback(ctx, r.ID(), reason); err != nil {
		logger.Error("Failed to return stock of abandoned payment reservation",
			logger.TxnRef(r.TxnRef()),
			zap.Error(err))
	}
}

// ============================================================================
// Helpers
// ============================================================================

// mergeLines folds duplicate books into one line, keeping first-seen order.
func mergeLines(req Request) ([]LineRequest, error) {
	raw := req.Items
	if req.BuyNow != nil {
		raw = []LineRequest{*req.BuyNow}
	}
	if len(raw) == 0 {
		return nil, order.NewEmptyOrderItemsError()
	}

	index := make(map[string]int, len(raw))
	merged := make([]LineRequest, 0, len(raw))
	for _, l := range raw {
		if l.BookID == "" {
			return nil, shared.NewValidationError("checkout", "book_id", "book is required")
		}
		if l.Quantity <= 0 {
			return nil, shared.NewValidationError("checkout", "quantity", "quantity must be positive")
		}
		if i, ok := index[l.BookID]; ok {
			merged[i].Quantity += l.Quantity
			continue
		}
		index[l.BookID] = len(merged)
		merged = append(merged, l)
	}
	return merged, nil
}

func (s *Service) resolveShipping(ctx context.Context, req Request) (shared.ShippingAddress, error) {
	if req.AddressID != "" {
		saved, err := s.addresses.FindByID(ctx, req.BuyerID, req.AddressID)
		if err != nil {
			if errors.Is(err, address.ErrAddressNotFound) {
				return shared.ShippingAddress{}, shared.NewValidationError("checkout", "address_id", "shipping address not found")
			}
			return shared.ShippingAddress{}, err
		}
		return saved.Address, nil
	}

	if req.Shipping == nil {
		return shared.ShippingAddress{}, shared.NewValidationError("checkout", "shipping", "a shipping address is required")
	}
	addr := shared.ShippingAddress{
		RecipientName:  req.Shipping.RecipientName,
		RecipientPhone: req.Shipping.RecipientPhone,
		Detail:         req.Shipping.Detail,
		Ward:           req.Shipping.Ward,
		District:       req.Shipping.District,
		Province:       req.Shipping.Province,
	}
	if err := addr.Validate(); err != nil {
		return shared.ShippingAddress{}, err
	}
	return addr, nil
}

// loadCart prices every line from the catalog and groups the lines by
// seller. The stock check here is advisory; the ledger's locked
// decrement is authoritative.
func (s *Service) loadCart(ctx context.Context, lines []LineRequest) (map[string][]order.CartLine, error) {
	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.BookID
	}

	books, err := s.books.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*inventory.Book, len(books))
	for _, b := range books {
		byID[b.ID()] = b
	}

	cart := make(map[string][]order.CartLine)
	for _, l := range lines {
		b, ok := byID[l.BookID]
		if !ok || !b.IsActive() {
			return nil, inventory.NewBookNotFoundError(l.BookID)
		}
		if err := b.CheckAvailable(l.Quantity); err != nil {
			return nil, err
		}
		cart[b.SellerID()] = append(cart[b.SellerID()], order.CartLine{
			BookID:    b.ID(),
			Title:     b.Title(),
			Quantity:  l.Quantity,
			UnitPrice: b.Price(),
			SellerID:  b.SellerID(),
		})
	}
	return cart, nil
}

func sortedSellers(cart map[string][]order.CartLine) []string {
	sellers := make([]string, 0, len(cart))
	for id := range cart {
		sellers = append(sellers, id)
	}
	sort.Strings(sellers)
	return sellers
}
