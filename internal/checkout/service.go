package checkout

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/itsalifarrukh/hb-apparel/internal/address"
	"github.com/itsalifarrukh/hb-apparel/internal/apperr"
	"github.com/itsalifarrukh/hb-apparel/internal/cart"
	"github.com/itsalifarrukh/hb-apparel/internal/database"
	"github.com/itsalifarrukh/hb-apparel/internal/events"
	"github.com/itsalifarrukh/hb-apparel/internal/metrics"
	"github.com/itsalifarrukh/hb-apparel/internal/order"
	"github.com/itsalifarrukh/hb-apparel/internal/payment"
	"github.com/itsalifarrukh/hb-apparel/internal/paymentmethod"
	"github.com/itsalifarrukh/hb-apparel/internal/pricing"
	"github.com/itsalifarrukh/hb-apparel/internal/user"
)

var (
	// ErrEmptyCart tells the client to send the shopper back to the cart.
	ErrEmptyCart = apperr.Validation("Your cart is empty")

	errAlreadyPaid     = apperr.Conflict("Order is already paid")
	errPaymentInFlight = apperr.Conflict("A payment for this order is already in progress")
	errNotPayable      = apperr.Validation("Order can no longer be paid")
	errAmountMismatch  = apperr.Validation("Payment amount does not match the order total")
	errForeignIntent   = apperr.Validation("Payment does not belong to this account")
	errForeignMethod   = apperr.Validation("Payment method belongs to another customer")
	errShippingAddress = apperr.Validation("Invalid shipping address",
		apperr.Field("shippingAddressId", "address cannot be used for shipping"))
	errBillingAddress = apperr.Validation("Invalid billing address",
		apperr.Field("billingAddressId", "address cannot be used for billing"))
)

type Carts interface {
	View(ctx context.Context, userID int) (cart.View, error)
	Clear(ctx context.Context, userID int) error
}

type Addresses interface {
	List(ctx context.Context, userID int) ([]address.Address, error)
	GetForUser(ctx context.Context, userID, addressID int) (address.Address, error)
}

type PaymentMethods interface {
	List(ctx context.Context, userID int) ([]paymentmethod.PaymentMethod, error)
	GetForUser(ctx context.Context, userID, id int) (paymentmethod.PaymentMethod, error)
}

type Users interface {
	GetByID(ctx context.Context, id int) (user.User, error)
}

type CustomerResolver interface {
	Resolve(ctx context.Context, userID int) (string, error)
}

// Orders is the order lifecycle surface checkout drives. *order.Service satisfies it.
type Orders interface {
	Create(ctx context.Context, in order.NewOrder) (order.Order, error)
	Get(ctx context.Context, userID int, orderNumber string) (order.Order, error)
	AttachPaymentIntent(ctx context.Context, o order.Order, intentID string, methodID *int) (order.Order, error)
	IntentInUse(ctx context.Context, intentID string) (bool, error)
	MarkPaymentProcessing(ctx context.Context, orderID int) (order.Order, error)
	MarkPaymentFailed(ctx context.Context, orderID int) (order.Order, error)
	MarkPaymentSucceeded(ctx context.Context, orderID int) (order.Order, bool, error)
	Announce(ctx context.Context, eventType string, o order.Order)
}

type Config struct {
	Currency  string
	ReturnURL string
}

type Deps struct {
	Carts          Carts
	Addresses      Addresses
	PaymentMethods PaymentMethods
	Users          Users
	Orders         Orders
	Gateway        payment.Gateway
	Customers      CustomerResolver
	Tx             database.TxRunner
	Metrics        *metrics.Metrics
	Logger         zerolog.Logger
}

type Service struct {
	Deps
	cfg Config
}

func NewService(deps Deps, cfg Config) *Service {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Nop()
	}
	return &Service{Deps: deps, cfg: cfg}
}

// Summary assembles the cart, totals, addresses, saved methods and profile.
func (s *Service) Summary(ctx context.Context, userID int) (Summary, error) {
	var out Summary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.Carts.View(gctx, userID)
		out.Cart = v
		return err
	})
	g.Go(func() error {
		list, err := s.Addresses.List(gctx, userID)
		out.Addresses = list
		return err
	})
	g.Go(func() error {
		list, err := s.PaymentMethods.List(gctx, userID)
		out.PaymentMethods = list
		return err
	})
	g.Go(func() error {
		u, err := s.Users.GetByID(gctx, userID)
		out.Profile = u.Profile()
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	if out.Cart.Empty() {
		return Summary{}, ErrEmptyCart
	}

	out.Summary = pricing.SummarizeCart(out.Cart.TotalPrice, out.Cart.TotalDiscountedPrice)
	out.State = State{Step: StepAddress}
	for _, a := range out.Addresses {
		if a.IsDefault && a.Type.UsableFor(address.TypeShipping) && out.State.ShippingAddressID == nil {
			id := a.AddressID
			out.State.ShippingAddressID = &id
		}
		if a.IsDefault && a.Type.UsableFor(address.TypeBilling) && out.State.BillingAddressID == nil {
			id := a.AddressID
			out.State.BillingAddressID = &id
		}
	}
	for _, m := range out.PaymentMethods {
		if m.IsDefault {
			id := m.ID
			out.State.PaymentMethodID = &id
			break
		}
	}
	return out, nil
}

// payable is the amount to charge and, when paying an existing order, the order.
type payable struct {
	amount decimal.Decimal
	order  *order.Order
}

// amountFor prices an existing order or, without an order number, the cart.
// Both intent variants and order placement charge through this.
func (s *Service) amountFor(ctx context.Context, userID int, orderNumber string) (payable, error) {
	if orderNumber != "" {
		o, err := s.Orders.Get(ctx, userID, orderNumber)
		if err != nil {
			return payable{}, err
		}
		switch {
		case o.PaymentStatus == order.PaymentSucceeded:
			return payable{}, errAlreadyPaid
		case o.PaymentStatus == order.PaymentProcessing:
			return payable{}, errPaymentInFlight
		case o.Status != order.StatusPending:
			return payable{}, errNotPayable
		}
		if err := s.checkLinkedIntent(ctx, o); err != nil {
			return payable{}, err
		}
		return payable{amount: o.TotalAmount, order: &o}, nil
	}

	v, err := s.Carts.View(ctx, userID)
	if err != nil {
		return payable{}, err
	}
	if v.Empty() {
		return payable{}, ErrEmptyCart
	}
	sum := pricing.SummarizeCart(v.TotalPrice, v.TotalDiscountedPrice)
	return payable{amount: sum.TotalAmount}, nil
}

// checkLinkedIntent refuses a new charge while the intent already on the order
// can still complete. An intent that finished without a webhook is applied.
func (s *Service) checkLinkedIntent(ctx context.Context, o order.Order) error {
	if o.PaymentIntentID == nil || *o.PaymentIntentID == "" {
		return nil
	}
	in, err := s.Gateway.GetIntent(ctx, *o.PaymentIntentID)
	if err != nil {
		return err
	}
	switch in.Status {
	case payment.IntentSucceeded:
		if err := s.applyIntent(ctx, o, in); err != nil {
			return err
		}
		return errAlreadyPaid
	case payment.IntentProcessing, payment.IntentRequiresAction:
		return errPaymentInFlight
	}
	return nil
}

func intentMetadata(userID int, o *order.Order) map[string]string {
	md := map[string]string{payment.MetaUserID: strconv.Itoa(userID)}
	if o != nil {
		md[payment.MetaOrderID] = strconv.Itoa(o.ID)
		md[payment.MetaOrderNumber] = o.OrderNumber
	}
	return md
}

// CreatePaymentIntent charges a saved method (manual confirmation, confirmed
// right away) or, without one, opens an intent the client confirms.
func (s *Service) CreatePaymentIntent(ctx context.Context, userID int, req IntentRequest) (IntentResult, error) {
	p, err := s.amountFor(ctx, userID, req.OrderNumber)
	if err != nil {
		return IntentResult{}, err
	}
	customerID, err := s.Customers.Resolve(ctx, userID)
	if err != nil {
		return IntentResult{}, err
	}

	params := payment.IntentParams{
		AmountCents: payment.AmountCents(p.amount),
		Currency:    s.cfg.Currency,
		CustomerID:  customerID,
		Metadata:    intentMetadata(userID, p.order),
	}
	mode := "automatic"
	if req.PaymentMethodID != nil {
		m, err := s.PaymentMethods.GetForUser(ctx, userID, *req.PaymentMethodID)
		if err != nil {
			return IntentResult{}, err
		}
		params.PaymentMethodID = m.ProcessorID
		params.Confirm = true
		params.ManualConfirmation = true
		params.ReturnURL = s.cfg.ReturnURL
		mode = "saved"
	}
	return s.createIntent(ctx, mode, params, p, req.PaymentMethodID)
}

// CreateUnsavedPaymentIntent pays with a one-time method token: the method is
// attached to the customer if needed and the intent confirmed immediately.
func (s *Service) CreateUnsavedPaymentIntent(ctx context.Context, userID int, req UnsavedIntentRequest) (IntentResult, error) {
	token := strings.TrimSpace(req.PaymentMethodToken)
	if token == "" {
		return IntentResult{}, apperr.Validation("Invalid payment method",
			apperr.Field("paymentMethodToken", "paymentMethodToken is required"))
	}
	p, err := s.amountFor(ctx, userID, req.OrderNumber)
	if err != nil {
		return IntentResult{}, err
	}
	customerID, err := s.Customers.Resolve(ctx, userID)
	if err != nil {
		return IntentResult{}, err
	}

	pm, err := s.Gateway.GetPaymentMethod(ctx, token)
	if err != nil {
		return IntentResult{}, err
	}
	switch pm.CustomerID {
	case customerID:
	case "":
		if _, err := s.Gateway.AttachPaymentMethod(ctx, token, customerID); err != nil {
			return IntentResult{}, err
		}
	default:
		return IntentResult{}, errForeignMethod
	}

	params := payment.IntentParams{
		AmountCents:     payment.AmountCents(p.amount),
		Currency:        s.cfg.Currency,
		CustomerID:      customerID,
		PaymentMethodID: token,
		Confirm:         true,
		ReturnURL:       s.cfg.ReturnURL,
		Metadata:        intentMetadata(userID, p.order),
	}
	return s.createIntent(ctx, "unsaved", params, p, nil)
}

func (s *Service) createIntent(ctx context.Context, mode string, params payment.IntentParams, p payable, methodID *int) (IntentResult, error) {
	in, err := s.Gateway.CreateIntent(ctx, params)
	if err != nil {
		s.Metrics.PaymentIntents.WithLabelValues(mode, "error").Inc()
		if p.order != nil {
			if _, markErr := s.Orders.MarkPaymentFailed(ctx, p.order.ID); markErr != nil {
				s.Logger.Error().Err(markErr).Str("order_number", p.order.OrderNumber).Msg("mark payment failed")
			}
		}
		return IntentResult{}, err
	}
	s.Metrics.PaymentIntents.WithLabelValues(mode, string(in.Status)).Inc()

	res := resultOf(in, p.amount)
	if p.order != nil {
		res.OrderNumber = p.order.OrderNumber
		o, err := s.Orders.AttachPaymentIntent(ctx, *p.order, in.ID, methodID)
		if err != nil {
			return IntentResult{}, err
		}
		if err := s.applyIntent(ctx, o, in); err != nil {
			return IntentResult{}, err
		}
	}
	return res, nil
}

// applyIntent mirrors a known intent state onto the order. Succeeded intents
// are applied here as well as by the webhook; the order service makes the
// second application a no-op.
func (s *Service) applyIntent(ctx context.Context, o order.Order, in payment.Intent) error {
	var err error
	switch in.Status {
	case payment.IntentSucceeded:
		_, _, err = s.Orders.MarkPaymentSucceeded(ctx, o.ID)
	case payment.IntentProcessing:
		_, err = s.Orders.MarkPaymentProcessing(ctx, o.ID)
	case payment.IntentRequiresPaymentMethod:
		if in.LastError != "" {
			_, err = s.Orders.MarkPaymentFailed(ctx, o.ID)
		}
	}
	return err
}

func resultOf(in payment.Intent, amount decimal.Decimal) IntentResult {
	return IntentResult{
		PaymentIntentID: in.ID,
		ClientSecret:    in.ClientSecret,
		Status:          in.Status,
		RequiresAction:  in.Status == payment.IntentRequiresAction,
		Amount:          amount,
		Currency:        in.Currency,
	}
}

// PlaceOrder turns the cart into a PENDING order and empties the cart in one
// transaction, then starts or links the payment. A failed payment keeps the
// order and is returned together with the error.
func (s *Service) PlaceOrder(ctx context.Context, userID int, req PlaceOrderRequest) (PlaceOrderResult, error) {
	if req.ShippingAddressID <= 0 {
		return PlaceOrderResult{}, apperr.Validation("Invalid request",
			apperr.Field("shippingAddressId", "shippingAddressId is required"))
	}
	if req.PaymentMethodID != nil && req.PaymentIntentID != "" {
		return PlaceOrderResult{}, apperr.Validation("Invalid request",
			apperr.Field("paymentMethodId", "use either paymentMethodId or paymentIntentId"))
	}

	v, err := s.Carts.View(ctx, userID)
	if err != nil {
		return PlaceOrderResult{}, err
	}
	if v.Empty() {
		return PlaceOrderResult{}, ErrEmptyCart
	}

	shipping, err := s.Addresses.GetForUser(ctx, userID, req.ShippingAddressID)
	if err != nil {
		return PlaceOrderResult{}, err
	}
	if !shipping.Type.UsableFor(address.TypeShipping) {
		return PlaceOrderResult{}, errShippingAddress
	}
	billingID := shipping.AddressID
	if req.BillingAddressID != nil {
		billing, err := s.Addresses.GetForUser(ctx, userID, *req.BillingAddressID)
		if err != nil {
			return PlaceOrderResult{}, err
		}
		if !billing.Type.UsableFor(address.TypeBilling) {
			return PlaceOrderResult{}, errBillingAddress
		}
		billingID = billing.AddressID
	}

	var method *paymentmethod.PaymentMethod
	if req.PaymentMethodID != nil {
		m, err := s.PaymentMethods.GetForUser(ctx, userID, *req.PaymentMethodID)
		if err != nil {
			return PlaceOrderResult{}, err
		}
		method = &m
	}

	for _, it := range v.Items {
		if it.Stock < it.Quantity {
			return PlaceOrderResult{}, apperr.Stock(fmt.Sprintf("Only %d of %s left in stock", it.Stock, it.Name))
		}
	}

	summary := pricing.SummarizeCart(v.TotalPrice, v.TotalDiscountedPrice)

	if req.PaymentIntentID != "" {
		if err := s.checkIntent(ctx, userID, req.PaymentIntentID, summary.TotalAmount); err != nil {
			return PlaceOrderResult{}, err
		}
	}

	items := make([]order.Item, len(v.Items))
	for i, it := range v.Items {
		items[i] = order.Item{
			ProductID: it.ProductID,
			Name:      it.Name,
			Image:     it.Image,
			Price:     it.Price,
			Discount:  it.Discount,
			UnitPrice: it.EffectivePrice,
			Quantity:  it.Quantity,
		}
	}

	var intentID *string
	if req.PaymentIntentID != "" {
		intentID = &req.PaymentIntentID
	}

	var o order.Order
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.Orders.Create(ctx, order.NewOrder{
			UserID:            userID,
			Summary:           summary,
			Items:             items,
			ShippingAddressID: &shipping.AddressID,
			BillingAddressID:  &billingID,
			PaymentMethodID:   req.PaymentMethodID,
			PaymentIntentID:   intentID,
			CustomerNotes:     req.CustomerNotes,
		})
		if err != nil {
			return err
		}
		return s.Carts.Clear(ctx, userID)
	})
	if err != nil {
		return PlaceOrderResult{}, err
	}
	s.Metrics.OrdersPlaced.Inc()
	s.Orders.Announce(ctx, events.OrderCreated, o)
	s.Logger.Info().Int("user_id", userID).Str("order_number", o.OrderNumber).
		Str("total", o.TotalAmount.StringFixed(2)).Msg("order placed")

	res := PlaceOrderResult{Order: o}
	switch {
	case method != nil:
		intent, err := s.CreatePaymentIntent(ctx, userID, IntentRequest{OrderNumber: o.OrderNumber, PaymentMethodID: req.PaymentMethodID})
		res.Order = s.reload(ctx, userID, o)
		if err != nil {
			return res, err
		}
		res.Payment = &intent
	case req.PaymentIntentID != "":
		intent, err := s.linkIntent(ctx, userID, o, req.PaymentIntentID)
		res.Order = s.reload(ctx, userID, o)
		if err != nil {
			return res, err
		}
		res.Payment = &intent
	}
	return res, nil
}

// checkIntent verifies that an intent created before the order belongs to
// userID, charges the order total and pays for no other order.
func (s *Service) checkIntent(ctx context.Context, userID int, intentID string, total decimal.Decimal) error {
	in, err := s.Gateway.GetIntent(ctx, intentID)
	if err != nil {
		return err
	}
	if in.Metadata[payment.MetaUserID] != strconv.Itoa(userID) {
		return errForeignIntent
	}
	if in.Metadata[payment.MetaOrderID] != "" || in.Metadata[payment.MetaOrderNumber] != "" {
		return order.ErrIntentLinked
	}
	if in.AmountCents != payment.AmountCents(total) {
		return errAmountMismatch
	}
	inUse, err := s.Orders.IntentInUse(ctx, intentID)
	if err != nil {
		return err
	}
	if inUse {
		return order.ErrIntentLinked
	}
	return nil
}

// linkIntent tags the intent stored on the new order with the order and
// applies a payment that finished before the order existed.
func (s *Service) linkIntent(ctx context.Context, userID int, o order.Order, intentID string) (IntentResult, error) {
	if _, err := s.Gateway.UpdateIntentMetadata(ctx, intentID, intentMetadata(userID, &o)); err != nil {
		// the stored intent id still lets the webhook find the order
		s.Logger.Warn().Err(err).Str("order_number", o.OrderNumber).Msg("tag payment intent with order")
	}
	in, err := s.Gateway.GetIntent(ctx, intentID)
	if err != nil {
		return IntentResult{}, err
	}
	if err := s.applyIntent(ctx, o, in); err != nil {
		return IntentResult{}, err
	}
	res := resultOf(in, o.TotalAmount)
	res.OrderNumber = o.OrderNumber
	return res, nil
}

// PayOrder retries payment for an existing unpaid order, with a saved method
// or a one-time token.
func (s *Service) PayOrder(ctx context.Context, userID int, orderNumber string, req PayOrderRequest) (PlaceOrderResult, error) {
	token := strings.TrimSpace(req.PaymentMethodToken)
	if (req.PaymentMethodID == nil) == (token == "") {
		return PlaceOrderResult{}, apperr.Validation("Invalid request",
			apperr.Field("paymentMethodId", "provide either paymentMethodId or paymentMethodToken"))
	}

	var (
		intent IntentResult
		err    error
	)
	if token != "" {
		intent, err = s.CreateUnsavedPaymentIntent(ctx, userID, UnsavedIntentRequest{PaymentMethodToken: token, OrderNumber: orderNumber})
	} else {
		intent, err = s.CreatePaymentIntent(ctx, userID, IntentRequest{OrderNumber: orderNumber, PaymentMethodID: req.PaymentMethodID})
	}

	o, getErr := s.Orders.Get(ctx, userID, orderNumber)
	if getErr != nil {
		if err != nil {
			return PlaceOrderResult{}, err
		}
		return PlaceOrderResult{}, getErr
	}
	res := PlaceOrderResult{Order: o}
	if err != nil {
		return res, err
	}
	res.Payment = &intent
	return res, nil
}

func (s *Service) reload(ctx context.Context, userID int, o order.Order) order.Order {
	fresh, err := s.Orders.Get(ctx, userID, o.OrderNumber)
	if err != nil {
		s.Logger.Warn().Err(err).Str("order_number", o.OrderNumber).Msg("reload order")
		return o
	}
	return fresh
}
