package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/fsamadov/tezbazar-backend/internal/cart"
	"github.com/fsamadov/tezbazar-backend/internal/notifications"
	"github.com/fsamadov/tezbazar-backend/internal/promo"
	"github.com/fsamadov/tezbazar-backend/pkg/db/models"
	"github.com/fsamadov/tezbazar-backend/pkg/enums"
	pkgerrors "github.com/fsamadov/tezbazar-backend/pkg/errors"
	"github.com/fsamadov/tezbazar-backend/pkg/logger"
	"github.com/fsamadov/tezbazar-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	GetProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type promoResolver interface {
	Resolve(code string) *promo.Code
}

type notifier interface {
	Emit(ctx context.Context, input notifications.EmitInput) (*models.Notification, error)
}

// Advancer schedules and cancels demo auto-advance for an order.
type Advancer interface {
	Schedule(orderID uuid.UUID)
	Cancel(orderID uuid.UUID)
}

// Service exposes checkout and order lifecycle operations.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*CheckoutResult, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	Transition(ctx context.Context, orderID uuid.UUID, newStatus enums.OrderStatus, packerComment *string) (*models.Order, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	TransitionMany(ctx context.Context, orderIDs []uuid.UUID, newStatus enums.OrderStatus) ([]models.Order, error)
	Delete(ctx context.Context, orderID uuid.UUID) error
	SetAdvancer(advancer Advancer)
}

type service struct {
	repo     Repository
	tx       txRunner
	carts    cart.Repository
	products productLoader
	promos   promoResolver
	notify   notifier
	advance  Advancer
	locks    *keyedMutex
	logg     *logger.Logger
}

// NewService wires order dependencies. The advancer defaults to a no-op and is
// attached after the scheduler is built.
func NewService(repo Repository, tx txRunner, carts cart.Repository, products productLoader, promos promoResolver, notify notifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if promos == nil {
		return nil, fmt.Errorf("promo resolver required")
	}
	if notify == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		carts:    carts,
		products: products,
		promos:   promos,
		notify:   notify,
		advance:  noopAdvancer{},
		locks:    newKeyedMutex(),
		logg:     logg,
	}, nil
}

type noopAdvancer struct{}

func (noopAdvancer) Schedule(uuid.UUID) {}
func (noopAdvancer) Cancel(uuid.UUID)   {}

// SetAdvancer attaches the auto-advance scheduler.
func (s *service) SetAdvancer(advancer Advancer) {
	if advancer != nil {
		s.advance = advancer
	}
}

// CheckoutInput captures the order payload. Totals are never part of it; the
// server prices the cart itself.
type CheckoutInput struct {
	DeliveryAddress string
	Comment         *string
	PackerComment   *string
	PromoCode       *string
}

// CheckoutResult is the created order plus warnings about cart rows that were
// excluded because their product disappeared.
type CheckoutResult struct {
	Order    *models.Order `json:"order"`
	Warnings []string      `json:"warnings,omitempty"`
}

// Checkout prices the user's cart, persists a pending order and clears the
// cart in one transaction. Checkouts for the same user are serialized.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*CheckoutResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	address := strings.TrimSpace(input.DeliveryAddress)
	if address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address required")
	}

	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	items, err := s.carts.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	subtotal, warnings, err := s.priceCart(ctx, items)
	if err != nil {
		return nil, err
	}

	total := subtotal
	var appliedCode *string
	if input.PromoCode != nil {
		if resolved := s.promos.Resolve(*input.PromoCode); resolved != nil {
			total = subtotal.ApplyDiscountPercent(resolved.DiscountPercent)
			code := resolved.Code
			appliedCode = &code
		}
	}

	order := &models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		TotalAmount:     total.Round2(),
		Status:          enums.OrderStatusPending,
		DeliveryAddress: address,
		Comment:         input.Comment,
		PackerComment:   input.PackerComment,
		PromoCode:       appliedCode,
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		return s.carts.WithTx(tx).DeleteByUser(ctx, userID)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}

	octx := s.logg.WithOrderID(s.logg.WithUserID(ctx, userID.String()), order.ID.String())
	s.emitPlacedNotification(octx, order)
	s.advance.Schedule(order.ID)
	s.logg.Info(octx, "order placed")

	return &CheckoutResult{Order: order, Warnings: warnings}, nil
}

// priceCart sums price×qty over cart rows whose product still exists. Rows
// with a missing product are reported as warnings, not errors.
func (s *service) priceCart(ctx context.Context, items []models.CartItem) (types.Money, []string, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if item.ProductID != nil {
			ids = append(ids, *item.ProductID)
		}
	}

	products, err := s.products.GetProductsByIDs(ctx, ids)
	if err != nil {
		return types.Money{}, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var subtotal types.Money
	var warnings []string
	priced := 0
	for _, item := range items {
		if item.ProductID == nil {
			warnings = append(warnings, "cart item without a product was skipped")
			continue
		}
		product, ok := byID[*item.ProductID]
		if !ok {
			s.logg.Warn(ctx, fmt.Sprintf("cart references missing product %s, excluded from order", *item.ProductID))
			warnings = append(warnings, fmt.Sprintf("product %s is no longer available and was excluded", *item.ProductID))
			continue
		}
		subtotal = subtotal.Add(product.Price.Mul(item.Quantity))
		priced++
	}

	if priced == 0 {
		return types.Money{}, nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	return subtotal, warnings, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, nil
}

func (s *service) ListAll(ctx context.Context) ([]models.Order, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, nil
}

// Transition moves an order to newStatus. Same-status requests on a live order
// are a no-op; anything out of the fulfillment path or from a terminal state
// fails with a state conflict. A real change emits exactly one notification.
func (s *service) Transition(ctx context.Context, orderID uuid.UUID, newStatus enums.OrderStatus, packerComment *string) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !newStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", newStatus))
	}

	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	if order.Status == newStatus {
		if order.Status.IsTerminal() {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order is already %s and cannot change status", order.Status))
		}
		if packerComment != nil {
			if err := s.repo.SetPackerComment(ctx, orderID, *packerComment); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update packer comment")
			}
			order.PackerComment = packerComment
		}
		return order, nil
	}

	if err := checkTransition(order.Status, newStatus); err != nil {
		return nil, err
	}

	affected, err := s.repo.UpdateStatus(ctx, orderID, order.Status, newStatus, packerComment)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
	}

	order.Status = newStatus
	if packerComment != nil {
		order.PackerComment = packerComment
	}

	octx := s.logg.WithOrderID(ctx, orderID.String())
	s.emitStatusNotification(octx, order, newStatus)
	if newStatus.IsTerminal() {
		s.advance.Cancel(orderID)
	}
	s.logg.Info(octx, fmt.Sprintf("order status changed to %s", newStatus))

	return order, nil
}

// Cancel is the customer-facing cancellation. Ownership is checked before the
// transition runs.
func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	return s.Transition(ctx, orderID, enums.OrderStatusCancelled, nil)
}

// TransitionMany applies one status to several orders independently. The
// returned slice holds the orders that actually changed; failures are
// aggregated into a single warning log and never abort the batch.
func (s *service) TransitionMany(ctx context.Context, orderIDs []uuid.UUID, newStatus enums.OrderStatus) ([]models.Order, error) {
	if len(orderIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order ids required")
	}

	var succeeded []models.Order
	var failures error
	for _, id := range orderIDs {
		order, err := s.Transition(ctx, id, newStatus, nil)
		if err != nil {
			failures = multierr.Append(failures, fmt.Errorf("order %s: %w", id, err))
			continue
		}
		succeeded = append(succeeded, *order)
	}

	if failures != nil {
		s.logg.Warn(ctx, fmt.Sprintf("bulk status update had failures: %v", failures))
		if len(succeeded) == 0 {
			return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, failures, "no orders updated")
		}
	}
	return succeeded, nil
}

// Delete removes an order outright. Admin surface only.
func (s *service) Delete(ctx context.Context, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	affected, err := s.repo.Delete(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	s.advance.Cancel(orderID)
	return nil
}

type statusMessage struct {
	Title   string
	Message string
	Type    enums.NotificationType
}

var statusMessages = map[enums.OrderStatus]statusMessage{
	enums.OrderStatusPreparing: {
		Title:   "Заказ собирается",
		Message: "Ваш заказ №%s собирается на складе",
		Type:    enums.NotificationTypeOrder,
	},
	enums.OrderStatusDelivering: {
		Title:   "Заказ в пути",
		Message: "Курьер уже везёт ваш заказ №%s",
		Type:    enums.NotificationTypeOrder,
	},
	enums.OrderStatusDelivered: {
		Title:   "Заказ доставлен",
		Message: "Заказ №%s доставлен. Спасибо за покупку!",
		Type:    enums.NotificationTypeSuccess,
	},
	enums.OrderStatusCancelled: {
		Title:   "Заказ отменён",
		Message: "Заказ №%s был отменён",
		Type:    enums.NotificationTypeWarning,
	},
}

func (s *service) emitPlacedNotification(ctx context.Context, order *models.Order) {
	_, err := s.notify.Emit(ctx, notifications.EmitInput{
		UserID:         order.UserID,
		Title:          "Заказ оформлен",
		Message:        fmt.Sprintf("Ваш заказ №%s на сумму %s принят в обработку", shortID(order.ID), order.TotalAmount),
		Type:           enums.NotificationTypeOrder,
		RelatedOrderID: &order.ID,
	})
	if err != nil {
		s.logg.Error(ctx, "order placed notification failed", err)
	}
}

// emitStatusNotification is best-effort: a failed insert is logged, the status
// change is never rolled back.
func (s *service) emitStatusNotification(ctx context.Context, order *models.Order, status enums.OrderStatus) {
	msg, ok := statusMessages[status]
	if !ok {
		return
	}
	_, err := s.notify.Emit(ctx, notifications.EmitInput{
		UserID:         order.UserID,
		Title:          msg.Title,
		Message:        fmt.Sprintf(msg.Message, shortID(order.ID)),
		Type:           msg.Type,
		RelatedOrderID: &order.ID,
	})
	if err != nil {
		s.logg.Error(ctx, "order status notification failed", err)
	}
}

func shortID(id uuid.UUID) string {
	return strings.SplitN(id.String(), "-", 2)[0]
}
