package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"restaurant-pos/internal/database"
	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/ordercode"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint breach.
const uniqueViolation = "23505"

// Store owns the persisted representation of orders, lines, modifiers and
// payments. All multi-row writes happen in a single transaction; status and
// payment updates are compare-and-swap single-row writes.
type Store struct {
	db     *database.DB
	codes  *ordercode.Generator
	logger *logger.Logger
}

// NewStore creates the order store.
func NewStore(db *database.DB, codes *ordercode.Generator, log *logger.Logger) *Store {
	return &Store{
		db:     db,
		codes:  codes,
		logger: log,
	}
}

// CreateOrder persists an order with its lines, modifiers and audit entry as
// one atomic unit. Pricing is resolved inside the same transaction, so a menu
// price change cannot slip in between resolution and commit. A collision on
// the generated order code aborts the transaction and is retried with a fresh
// suffix up to the generator's attempt budget.
func (s *Store) CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error) {
	for attempt := 1; attempt <= ordercode.MaxAttempts; attempt++ {
		order, err := s.createOrderTx(ctx, req)
		if err != nil {
			if isCodeCollision(err) {
				s.logger.Debug("order_code_collision",
					fmt.Sprintf("Order code collided, attempt %d/%d", attempt, ordercode.MaxAttempts),
					"", nil)
				continue
			}
			return nil, err
		}
		return order, nil
	}
	return nil, models.ErrCodeGenerationExhausted
}

func (s *Store) createOrderTx(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var branchCode string
	err = tx.QueryRow(ctx, database.GetBranchSQL, req.BranchID).Scan(&branchCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: branch %d", models.ErrInvalidReference, req.BranchID)
		}
		return nil, fmt.Errorf("failed to load branch: %w", err)
	}

	var tableBranchID int
	err = tx.QueryRow(ctx, database.GetTableSQL, req.TableID).Scan(&tableBranchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: table %d", models.ErrInvalidReference, req.TableID)
		}
		return nil, fmt.Errorf("failed to load table: %w", err)
	}
	if tableBranchID != req.BranchID {
		return nil, fmt.Errorf("%w: table %d does not belong to branch %d",
			models.ErrInvalidReference, req.TableID, req.BranchID)
	}

	lines := make([]models.OrderLine, 0, len(req.Lines))
	for i, reqLine := range req.Lines {
		price, err := resolveLinePrice(ctx, tx, req.BranchID, reqLine)
		if err != nil {
			return nil, fmt.Errorf("lines[%d]: %w", i, err)
		}

		line := models.OrderLine{
			MenuItemID:  reqLine.MenuItemID,
			VariantID:   reqLine.VariantID,
			VariantName: price.VariantName,
			Quantity:    reqLine.Quantity,
			UnitPrice:   price.UnitPrice,
			Modifiers:   price.Modifiers,
		}
		if reqLine.Note != "" {
			note := reqLine.Note
			line.Note = &note
		}
		lines = append(lines, line)
	}

	order := &models.Order{
		Code:          s.codes.Generate(branchCode, time.Now()),
		BranchID:      req.BranchID,
		TableID:       req.TableID,
		Total:         models.OrderTotal(lines),
		Status:        models.StatusSubmitted,
		PaymentStatus: req.InitialPaymentStatus(),
	}
	if req.CustomerName != "" {
		name := req.CustomerName
		order.CustomerName = &name
	}

	err = tx.QueryRow(ctx, database.InsertOrderSQL,
		order.Code, order.BranchID, order.TableID, order.CustomerName,
		order.Total, order.Status, order.PaymentStatus,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range lines {
		line := &lines[i]
		line.OrderID = order.ID

		err = tx.QueryRow(ctx, database.InsertOrderLineSQL,
			order.ID, line.MenuItemID, line.VariantID, line.VariantName,
			line.Quantity, line.UnitPrice, line.Note,
		).Scan(&line.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert order line: %w", err)
		}

		for j := range line.Modifiers {
			mod := &line.Modifiers[j]
			mod.OrderLineID = line.ID

			err = tx.QueryRow(ctx, database.InsertOrderLineModifierSQL,
				line.ID, mod.ModifierID, mod.Name, mod.ExtraPrice,
			).Scan(&mod.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to insert line modifier: %w", err)
			}
		}
	}
	order.Lines = lines

	if err := insertSyncLog(ctx, tx, "orders", order.ID, "create", order); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return order, nil
}

// resolveLinePrice returns the authoritative pricing of one requested line,
// read against the menu inside the caller's transaction. Every referenced
// variant and modifier must belong to the line's menu item, and the item to
// the order's branch.
func resolveLinePrice(ctx context.Context, tx pgx.Tx, branchID int, line models.CreateOrderLine) (*models.LinePrice, error) {
	var itemBranchID int
	var basePrice float64
	err := tx.QueryRow(ctx, database.GetMenuItemSQL, line.MenuItemID).Scan(&itemBranchID, &basePrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: menu item %d", models.ErrInvalidReference, line.MenuItemID)
		}
		return nil, fmt.Errorf("failed to load menu item: %w", err)
	}
	if itemBranchID != branchID {
		return nil, fmt.Errorf("%w: menu item %d does not belong to branch %d",
			models.ErrInvalidReference, line.MenuItemID, branchID)
	}

	price := &models.LinePrice{UnitPrice: basePrice}

	if line.VariantID != nil {
		var variantItemID int
		var variantName string
		var adjustment float64
		err := tx.QueryRow(ctx, database.GetVariantSQL, *line.VariantID).Scan(&variantItemID, &variantName, &adjustment)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("%w: variant %d", models.ErrInvalidReference, *line.VariantID)
			}
			return nil, fmt.Errorf("failed to load variant: %w", err)
		}
		if variantItemID != line.MenuItemID {
			return nil, fmt.Errorf("%w: variant %d does not belong to menu item %d",
				models.ErrInvalidReference, *line.VariantID, line.MenuItemID)
		}
		price.UnitPrice += adjustment
		price.VariantName = &variantName
	}

	for _, modifierID := range line.ModifierIDs {
		var modifierItemID int
		var modifierName string
		var extraPrice float64
		err := tx.QueryRow(ctx, database.GetModifierSQL, modifierID).Scan(&modifierItemID, &modifierName, &extraPrice)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("%w: modifier %d", models.ErrInvalidReference, modifierID)
			}
			return nil, fmt.Errorf("failed to load modifier: %w", err)
		}
		if modifierItemID != line.MenuItemID {
			return nil, fmt.Errorf("%w: modifier %d does not belong to menu item %d",
				models.ErrInvalidReference, modifierID, line.MenuItemID)
		}

		id := modifierID
		price.ModifierTotal += extraPrice
		price.Modifiers = append(price.Modifiers, models.OrderLineModifier{
			ModifierID: &id,
			Name:       modifierName,
			ExtraPrice: extraPrice,
		})
	}

	return price, nil
}

// UpdateStatus applies a validated transition with compare-and-swap
// semantics: the row is only written if its status still equals from. Returns
// false when a concurrent writer got there first.
func (s *Store) UpdateStatus(ctx context.Context, orderID int, from, to models.OrderStatus) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, database.UpdateOrderStatusCASSQL, to, orderID, from)
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	payload := map[string]interface{}{"from": from, "to": to}
	if err := insertSyncLog(ctx, tx, "orders", orderID, "status_change", payload); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// RecordPayment settles an order: writes the payment row and advances the
// order's status and payment_status, compare-and-swapped against the status
// the payment transition was validated from.
func (s *Store) RecordPayment(ctx context.Context, order *models.Order, req *models.RecordPaymentRequest, newStatus models.OrderStatus) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, database.UpdateOrderPaymentCASSQL,
		newStatus, models.PaymentPaid, order.ID, order.Status)
	if err != nil {
		return false, fmt.Errorf("failed to update order payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	payment := models.Payment{
		OrderID:        order.ID,
		PaymentType:    req.PaymentType,
		Amount:         req.Amount,
		TransactionRef: req.TransactionRef,
	}
	err = tx.QueryRow(ctx, database.InsertPaymentSQL,
		payment.OrderID, payment.PaymentType, payment.Amount, payment.TransactionRef,
	).Scan(&payment.ID, &payment.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert payment: %w", err)
	}

	if err := insertSyncLog(ctx, tx, "payments", payment.ID, "create", payment); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// GetOrderByID loads an order with its lines and modifiers.
func (s *Store) GetOrderByID(ctx context.Context, id int) (*models.Order, error) {
	return s.getOrder(ctx, database.GetOrderByIDSQL, id)
}

// GetOrderByCode loads an order by its human-readable code.
func (s *Store) GetOrderByCode(ctx context.Context, code string) (*models.Order, error) {
	return s.getOrder(ctx, database.GetOrderByCodeSQL, code)
}

func (s *Store) getOrder(ctx context.Context, query string, arg interface{}) (*models.Order, error) {
	var order models.Order
	err := s.db.QueryRow(ctx, query, arg).Scan(
		&order.ID, &order.Code, &order.BranchID, &order.TableID, &order.CustomerName,
		&order.Total, &order.Status, &order.PaymentStatus, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if err := s.loadLines(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Store) loadLines(ctx context.Context, order *models.Order) error {
	rows, err := s.db.Query(ctx, database.GetOrderLinesSQL, order.ID)
	if err != nil {
		return fmt.Errorf("failed to load order lines: %w", err)
	}
	defer rows.Close()

	byID := make(map[int]*models.OrderLine)
	for rows.Next() {
		var line models.OrderLine
		err := rows.Scan(&line.ID, &line.OrderID, &line.MenuItemID, &line.VariantID,
			&line.VariantName, &line.Quantity, &line.UnitPrice, &line.Note)
		if err != nil {
			return fmt.Errorf("failed to scan order line: %w", err)
		}
		order.Lines = append(order.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read order lines: %w", err)
	}
	for i := range order.Lines {
		byID[order.Lines[i].ID] = &order.Lines[i]
	}

	modRows, err := s.db.Query(ctx, database.GetOrderLineModifiersSQL, order.ID)
	if err != nil {
		return fmt.Errorf("failed to load line modifiers: %w", err)
	}
	defer modRows.Close()

	for modRows.Next() {
		var mod models.OrderLineModifier
		err := modRows.Scan(&mod.ID, &mod.OrderLineID, &mod.ModifierID, &mod.Name, &mod.ExtraPrice)
		if err != nil {
			return fmt.Errorf("failed to scan line modifier: %w", err)
		}
		if line, ok := byID[mod.OrderLineID]; ok {
			line.Modifiers = append(line.Modifiers, mod)
		}
	}
	return modRows.Err()
}

// ListOrders returns orders matching the filter, newest first. Lines are not
// loaded for listings.
func (s *Store) ListOrders(ctx context.Context, filter models.ListOrdersFilter) ([]models.Order, error) {
	query := database.ListOrdersBaseSQL
	var conditions []string
	var args []interface{}

	if filter.BranchID > 0 {
		args = append(args, filter.BranchID)
		conditions = append(conditions, fmt.Sprintf("branch_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.PaymentStatus != "" {
		args = append(args, filter.PaymentStatus)
		conditions = append(conditions, fmt.Sprintf("payment_status = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		err := rows.Scan(
			&order.ID, &order.Code, &order.BranchID, &order.TableID, &order.CustomerName,
			&order.Total, &order.Status, &order.PaymentStatus, &order.CreatedAt, &order.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func insertSyncLog(ctx context.Context, tx pgx.Tx, tableName string, recordID int, operation string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal sync log payload: %w", err)
	}
	if _, err := tx.Exec(ctx, database.InsertSyncLogSQL, tableName, recordID, operation, body); err != nil {
		return fmt.Errorf("failed to insert sync log: %w", err)
	}
	return nil
}

// isCodeCollision reports whether err is a unique violation on the order code.
func isCodeCollision(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation && strings.Contains(pgErr.ConstraintName, "code")
	}
	return false
}
