// Package database loads raw transactions from a MariaDB/MySQL table, as an
// alternative to CSV input for the preprocessing stage.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"

	"github.com/banktrust-dev/rfmboard/internal/model"
)

// DefaultTable is the transaction table queried when none is configured.
const DefaultTable = "BankTransactions"

var tableNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Open connects to a MySQL/MariaDB server. DSNs in mariadb:// or mysql://
// URL form are translated to the driver format.
func Open(dsn string) (*sql.DB, error) {
	driverDSN, err := toDriverDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", driverDSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func toDriverDSN(dsn string) (string, error) {
	if !strings.HasPrefix(dsn, "mariadb://") && !strings.HasPrefix(dsn, "mysql://") {
		return dsn, nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parsing dsn: %w", err)
	}
	user := ""
	pass := ""
	if u.User != nil {
		user = u.User.Username()
		pass, _ = u.User.Password()
	}
	name := strings.TrimPrefix(u.Path, "/")
	if user == "" || u.Host == "" || name == "" {
		return "", fmt.Errorf("incomplete dsn: user, host and database are required")
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC", user, pass, u.Host, name), nil
}

// LoadTransactions reads every transaction row from table, with a progress
// bar sized by a preliminary count. Malformed dates arrive as NULL and
// coerce to the zero time, matching the CSV reader's behavior.
func LoadTransactions(ctx context.Context, db *sql.DB, table string) ([]model.RawTransaction, error) {
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	var total int64
	countQ := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
	if err := db.QueryRowContext(ctx, countQ).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting rows: %w", err)
	}
	bar := progressbar.Default(total)

	q := fmt.Sprintf(`
		SELECT TransactionID, CustomerDOB, TransactionDate, CustLocation, TransactionAmount
		FROM %s`, table)
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.RawTransaction
	for rows.Next() {
		var (
			id       string
			dob      sql.NullTime
			txnDate  sql.NullTime
			location sql.NullString
			amount   string
		)
		if err := rows.Scan(&id, &dob, &txnDate, &location, &amount); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		amt, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parsing amount %q: %w", amount, err)
		}

		txn := model.RawTransaction{
			TransactionID: id,
			CustLocation:  location.String,
			Amount:        amt,
		}
		if dob.Valid {
			txn.CustomerDOB = dob.Time
		}
		if txnDate.Valid {
			txn.TransactionDate = txnDate.Time
		}
		txns = append(txns, txn)
		_ = bar.Add(1)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return txns, nil
}
