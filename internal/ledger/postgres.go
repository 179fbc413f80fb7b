package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresLedger persists wallets and the transaction log in PostgreSQL.
// Balance changes and their log rows share one database transaction.
type PostgresLedger struct {
	db  *pgxpool.Pool
	now func() time.Time
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const walletColumns = `id, user_id, account_number, currency, balance, created_at, updated_at`

func (l *PostgresLedger) CreateWallet(ctx context.Context, w Wallet) error {
	id := uuid.New()
	if w.ID != "" {
		parsed, err := uuid.Parse(w.ID)
		if err != nil {
			return fmt.Errorf("invalid wallet id: %w", err)
		}
		id = parsed
	}
	now := l.now()
	_, err := l.db.Exec(ctx, `
        INSERT INTO wallets (id, user_id, account_number, currency, balance, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		id, w.OwnerID, w.AccountNumber, w.Currency, w.Balance.String(), now)
	return classify(err)
}

func (l *PostgresLedger) WalletByID(ctx context.Context, id string) (Wallet, error) {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return Wallet{}, ErrWalletNotFound
	}
	return scanWallet(l.db.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1`, walletID))
}

func (l *PostgresLedger) WalletByOwner(ctx context.Context, ownerID string) (Wallet, error) {
	userID, err := uuid.Parse(ownerID)
	if err != nil {
		return Wallet{}, ErrWalletNotFound
	}
	return scanWallet(l.db.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1`, userID))
}

func (l *PostgresLedger) WalletByAccountNumber(ctx context.Context, accountNumber string) (Wallet, error) {
	return scanWallet(l.db.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE account_number = $1`, accountNumber))
}

func (l *PostgresLedger) Credit(ctx context.Context, p Posting) (Entry, error) {
	p, err := preparePosting(p)
	if err != nil {
		return Entry{}, err
	}
	var entry Entry
	err = l.inTx(ctx, func(tx pgx.Tx) error {
		w, err := lockWallet(ctx, tx, p.WalletID)
		if err != nil {
			return err
		}
		at := l.now()
		if err := setBalance(ctx, tx, w.ID, w.Balance.Add(p.Amount), at); err != nil {
			return err
		}
		entry = newEntry(w, p.Amount, p, at)
		return insertEntry(ctx, tx, entry)
	})
	return entry, err
}

func (l *PostgresLedger) Debit(ctx context.Context, p Posting) (Entry, error) {
	p, err := preparePosting(p)
	if err != nil {
		return Entry{}, err
	}
	var entry Entry
	err = l.inTx(ctx, func(tx pgx.Tx) error {
		w, err := lockWallet(ctx, tx, p.WalletID)
		if err != nil {
			return err
		}
		if err := checkLimit(ctx, tx, w, p); err != nil {
			return err
		}
		if w.Balance.LessThan(p.Amount) {
			return insufficient(w, p.Amount)
		}
		at := l.now()
		if err := setBalance(ctx, tx, w.ID, w.Balance.Sub(p.Amount), at); err != nil {
			return err
		}
		entry = newEntry(w, p.Amount.Neg(), p, at)
		return insertEntry(ctx, tx, entry)
	})
	return entry, err
}

// Transfer debits and credits two wallets in one database transaction. Row
// locks are taken in account-number order so opposing transfers cannot
// deadlock each other.
func (l *PostgresLedger) Transfer(ctx context.Context, debit, credit Posting) (TransferResult, error) {
	debit, err := preparePosting(debit)
	if err != nil {
		return TransferResult{}, err
	}
	credit, err = preparePosting(credit)
	if err != nil {
		return TransferResult{}, err
	}
	if debit.WalletID == credit.WalletID {
		return TransferResult{}, ErrSameWallet
	}

	var res TransferResult
	err = l.inTx(ctx, func(tx pgx.Tx) error {
		fromAcct, err := accountNumber(ctx, tx, debit.WalletID)
		if err != nil {
			return err
		}
		toAcct, err := accountNumber(ctx, tx, credit.WalletID)
		if err != nil {
			return err
		}

		order := []string{debit.WalletID, credit.WalletID}
		if toAcct < fromAcct {
			order[0], order[1] = order[1], order[0]
		}
		locked := make(map[string]Wallet, 2)
		for _, id := range order {
			w, err := lockWallet(ctx, tx, id)
			if err != nil {
				return err
			}
			locked[id] = w
		}
		from, to := locked[debit.WalletID], locked[credit.WalletID]

		if err := checkLimit(ctx, tx, from, debit); err != nil {
			return err
		}
		if from.Balance.LessThan(debit.Amount) {
			return insufficient(from, debit.Amount)
		}

		at := l.now()
		res.DebitBalance = from.Balance.Sub(debit.Amount)
		res.CreditBalance = to.Balance.Add(credit.Amount)
		if err := setBalance(ctx, tx, from.ID, res.DebitBalance, at); err != nil {
			return err
		}
		if err := setBalance(ctx, tx, to.ID, res.CreditBalance, at); err != nil {
			return err
		}
		res.Debit = newEntry(from, debit.Amount.Neg(), debit, at)
		res.Credit = newEntry(to, credit.Amount, credit, at)
		if err := insertEntry(ctx, tx, res.Debit); err != nil {
			return err
		}
		return insertEntry(ctx, tx, res.Credit)
	})
	if err != nil {
		return TransferResult{}, err
	}
	return res, nil
}

func (l *PostgresLedger) History(ctx context.Context, walletID string) ([]Entry, error) {
	id, err := uuid.Parse(walletID)
	if err != nil {
		return nil, ErrWalletNotFound
	}
	rows, err := l.db.Query(ctx, `
        SELECT id, wallet_id, amount, currency, transaction_type, status, reference, created_at
        FROM transaction_logs
        WHERE wallet_id = $1
        ORDER BY created_at DESC, seq DESC`, id)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e            Entry
			entryID, wID uuid.UUID
		)
		if err := rows.Scan(&entryID, &wID, &e.Amount, &e.Currency, &e.Type, &e.Status, &e.Reference, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.ID, e.WalletID = entryID.String(), wID.String()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (l *PostgresLedger) DailyOutflow(ctx context.Context, walletID string, since time.Time) (decimal.Decimal, error) {
	id, err := uuid.Parse(walletID)
	if err != nil {
		return decimal.Zero, ErrWalletNotFound
	}
	total, err := sumOutflow(ctx, l.db, id, since)
	if err != nil {
		return decimal.Zero, classify(err)
	}
	return total, nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func sumOutflow(ctx context.Context, q rowQuerier, walletID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := q.QueryRow(ctx, `
        SELECT COALESCE(SUM(amount), 0)
        FROM transaction_logs
        WHERE wallet_id = $1 AND transaction_type = $2 AND amount < 0 AND created_at >= $3`,
		walletID, TypeTransferSent, since).Scan(&total)
	return total, err
}

// checkLimit enforces a debit's outflow guard. It must run after the wallet
// row is locked FOR UPDATE so concurrent guarded debits serialize on it.
func checkLimit(ctx context.Context, tx pgx.Tx, w Wallet, p Posting) error {
	if p.Limit == nil {
		return nil
	}
	id, err := uuid.Parse(w.ID)
	if err != nil {
		return ErrWalletNotFound
	}
	used, err := sumOutflow(ctx, tx, id, p.Limit.Since)
	if err != nil {
		return err
	}
	if p.Limit.exceeds(used, p.Amount) {
		return overLimit(w, p.Limit, used, p.Amount)
	}
	return nil
}

func (l *PostgresLedger) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return classify(err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(tx); err != nil {
		return classify(err)
	}
	return classify(tx.Commit(ctx))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWallet(row rowScanner) (Wallet, error) {
	var (
		w          Wallet
		id, userID uuid.UUID
	)
	if err := row.Scan(&id, &userID, &w.AccountNumber, &w.Currency, &w.Balance, &w.CreatedAt, &w.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrWalletNotFound
		}
		return Wallet{}, err
	}
	w.ID, w.OwnerID = id.String(), userID.String()
	return w, nil
}

func lockWallet(ctx context.Context, tx pgx.Tx, walletID string) (Wallet, error) {
	id, err := uuid.Parse(walletID)
	if err != nil {
		return Wallet{}, ErrWalletNotFound
	}
	return scanWallet(tx.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1 FOR UPDATE`, id))
}

func accountNumber(ctx context.Context, tx pgx.Tx, walletID string) (string, error) {
	id, err := uuid.Parse(walletID)
	if err != nil {
		return "", ErrWalletNotFound
	}
	var acct string
	if err := tx.QueryRow(ctx, `SELECT account_number FROM wallets WHERE id = $1`, id).Scan(&acct); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", ErrWalletNotFound, walletID)
		}
		return "", err
	}
	return acct, nil
}

func setBalance(ctx context.Context, tx pgx.Tx, walletID string, balance decimal.Decimal, at time.Time) error {
	id, err := uuid.Parse(walletID)
	if err != nil {
		return ErrWalletNotFound
	}
	_, err = tx.Exec(ctx, `UPDATE wallets SET balance = $1, updated_at = $2 WHERE id = $3`, balance.String(), at, id)
	return err
}

func insertEntry(ctx context.Context, tx pgx.Tx, e Entry) error {
	_, err := tx.Exec(ctx, `
        INSERT INTO transaction_logs (id, wallet_id, amount, currency, transaction_type, status, reference, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.MustParse(e.ID), uuid.MustParse(e.WalletID), e.Amount.String(), e.Currency, e.Type, e.Status, e.Reference, e.CreatedAt)
	return err
}

// classify maps driver errors onto ledger sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "40001", "40P01":
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.Message)
	case "23505":
		if strings.HasPrefix(pgErr.ConstraintName, "transaction_logs") {
			return fmt.Errorf("%w: %s", ErrDuplicateTransaction, pgErr.Detail)
		}
		return fmt.Errorf("%w: %s", ErrWalletExists, pgErr.Detail)
	case "23514":
		return fmt.Errorf("%w: %s", ErrInsufficientFunds, pgErr.Message)
	}
	return err
}
