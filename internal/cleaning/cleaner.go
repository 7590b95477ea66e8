package cleaning

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	apperrors "github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/errors"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/stats"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

const (
	// MinOutlierSample is the smallest row count the IQR filter runs on.
	MinOutlierSample = 4

	// DefaultOutlierMultiplier is the IQR multiplier k.
	DefaultOutlierMultiplier = 1.5

	// DefaultCancelPrefix marks cancelled invoices.
	DefaultCancelPrefix = "C"
)

// Placeholders for optional identifiers that were absent.
const (
	UnknownCustomer = "Unknown"
	UnknownProduct  = "Unknown Product"
	UnknownCountry  = "Unknown"
)

// Options configures a cleaning run.
type Options struct {
	FilterOutliers    bool
	OutlierMultiplier float64
	// MaxOutlierPasses caps the IQR passes. Zero repeats until a pass
	// removes nothing; a cap can leave output that a second run trims further.
	MaxOutlierPasses  int
	DropCancelled     bool
	CancelPrefix      string
}

// DefaultOptions returns the standard rule set.
func DefaultOptions() Options {
	return Options{
		FilterOutliers:    true,
		OutlierMultiplier: DefaultOutlierMultiplier,
		DropCancelled:     true,
		CancelPrefix:      DefaultCancelPrefix,
	}
}

// Cleaner applies the cleaning rules.
type Cleaner struct {
	opts   Options
	logger *slog.Logger
}

// NewCleaner creates a cleaner. Zero multiplier and empty prefix fall back
// to the defaults.
func NewCleaner(opts Options, logger *slog.Logger) *Cleaner {
	if opts.OutlierMultiplier <= 0 {
		opts.OutlierMultiplier = DefaultOutlierMultiplier
	}
	if opts.CancelPrefix == "" {
		opts.CancelPrefix = DefaultCancelPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{opts: opts, logger: logger.With(slog.String("component", "cleaner"))}
}

// Clean filters candidates and returns the survivors sorted by timestamp
// together with the audit. It returns an insufficient-data error only when
// nothing survives.
func (c *Cleaner) Clean(ctx context.Context, candidates []domain.Transaction) ([]domain.Transaction, domain.CleaningAudit, error) {
	audit := domain.CleaningAudit{
		InputRows: len(candidates),
		Dropped:   make(map[domain.DropReason]int, len(domain.DropReasons)),
	}
	for _, r := range domain.DropReasons {
		audit.Dropped[r] = 0
	}

	rows := append([]domain.Transaction(nil), candidates...)
	rows = c.applyRule(&audit, rows, domain.DropInvalidTimestamp, func(tx domain.Transaction) bool {
		return tx.Missing.Has(domain.FieldTimestamp) || tx.Timestamp.IsZero()
	})
	rows = c.applyRule(&audit, rows, domain.DropInvalidAmount, func(tx domain.Transaction) bool {
		return tx.Missing.Has(domain.FieldAmount) ||
			math.IsNaN(tx.Amount) || math.IsInf(tx.Amount, 0) || tx.Amount < 0 ||
			tx.Quantity < 0
	})
	if c.opts.DropCancelled {
		prefix := strings.ToUpper(c.opts.CancelPrefix)
		rows = c.applyRule(&audit, rows, domain.DropCancelled, func(tx domain.Transaction) bool {
			return strings.HasPrefix(strings.ToUpper(tx.OrderID), prefix)
		})
	}

	seen := make(map[dedupKey]struct{}, len(rows))
	rows = c.applyRule(&audit, rows, domain.DropDuplicate, func(tx domain.Transaction) bool {
		k := keyOf(tx)
		if _, dup := seen[k]; dup {
			return true
		}
		seen[k] = struct{}{}
		return false
	})

	rows = c.filterOutliers(&audit, rows)
	audit.FilledOptional = fillOptional(rows)

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Timestamp.Before(rows[j].Timestamp)
	})
	audit.OutputRows = len(rows)

	c.logger.InfoContext(ctx, "cleaning complete",
		slog.Int("input_rows", audit.InputRows),
		slog.Int("output_rows", audit.OutputRows),
		slog.Int("invalid_timestamp", audit.Dropped[domain.DropInvalidTimestamp]),
		slog.Int("invalid_amount", audit.Dropped[domain.DropInvalidAmount]),
		slog.Int("cancelled", audit.Dropped[domain.DropCancelled]),
		slog.Int("duplicate", audit.Dropped[domain.DropDuplicate]),
		slog.Int("outlier", audit.Dropped[domain.DropOutlier]),
		slog.String("outlier_filtering", string(audit.OutlierFiltering)))

	if len(rows) == 0 {
		return nil, audit, apperrors.NewInsufficientDataError(1, 0).
			WithContext("input_rows", audit.InputRows)
	}
	return rows, audit, nil
}

func (c *Cleaner) applyRule(audit *domain.CleaningAudit, rows []domain.Transaction, reason domain.DropReason, drop func(domain.Transaction) bool) []domain.Transaction {
	kept := rows[:0]
	removed := 0
	for _, tx := range rows {
		if drop(tx) {
			removed++
			continue
		}
		kept = append(kept, tx)
	}
	audit.Dropped[reason] += removed
	audit.Steps = append(audit.Steps, domain.AuditStep{Step: string(reason), Removed: removed, Remaining: len(kept)})
	return kept
}

func (c *Cleaner) filterOutliers(audit *domain.CleaningAudit, rows []domain.Transaction) []domain.Transaction {
	if !c.opts.FilterOutliers {
		audit.OutlierFiltering = domain.OutlierFilterDisabled
		return rows
	}
	if len(rows) < MinOutlierSample {
		audit.OutlierFiltering = domain.OutlierFilterSkippedSmallSample
		return rows
	}

	audit.OutlierFiltering = domain.OutlierFilterApplied
	for pass := 1; len(rows) >= MinOutlierSample; pass++ {
		if c.opts.MaxOutlierPasses > 0 && pass > c.opts.MaxOutlierPasses {
			break
		}
		bounds := outlierBounds(rows, c.opts.OutlierMultiplier)
		bounds.Passes = pass
		audit.OutlierBounds = &bounds

		kept := rows[:0]
		for _, tx := range rows {
			if tx.Amount < bounds.Lower || tx.Amount > bounds.Upper {
				continue
			}
			kept = append(kept, tx)
		}
		removed := len(rows) - len(kept)
		rows = kept
		audit.Dropped[domain.DropOutlier] += removed
		audit.Steps = append(audit.Steps, domain.AuditStep{
			Step:      fmt.Sprintf("%s_pass_%d", domain.DropOutlier, pass),
			Removed:   removed,
			Remaining: len(rows),
		})
		if removed == 0 {
			break
		}
	}
	return rows
}

func outlierBounds(rows []domain.Transaction, k float64) domain.OutlierBounds {
	amounts := make([]float64, len(rows))
	for i, tx := range rows {
		amounts[i] = tx.Amount
	}
	q1, q3 := stats.Quartiles(amounts)
	iqr := q3 - q1
	return domain.OutlierBounds{
		Q1:         q1,
		Q3:         q3,
		IQR:        iqr,
		Multiplier: k,
		Lower:      q1 - k*iqr,
		Upper:      q3 + k*iqr,
	}
}

// fillOptional defaults absent identifiers. Missing flags are left intact.
func fillOptional(rows []domain.Transaction) int {
	filled := 0
	for i := range rows {
		tx := &rows[i]
		if tx.CustomerID == "" {
			tx.CustomerID = UnknownCustomer
			filled++
		}
		if tx.Description == "" {
			tx.Description = UnknownProduct
			filled++
		}
		if tx.Country == "" {
			tx.Country = UnknownCountry
			filled++
		}
	}
	return filled
}

type dedupKey struct {
	ts          int64
	amount      float64
	quantity    int64
	productID   string
	customerID  string
	orderID     string
	country     string
	description string
}

// keyOf compares optional identifiers after defaulting, so a row with an
// absent customer equals one already carrying the placeholder.
func keyOf(tx domain.Transaction) dedupKey {
	return dedupKey{
		ts:          tx.Timestamp.UnixNano(),
		amount:      tx.Amount,
		quantity:    tx.Quantity,
		productID:   tx.ProductID,
		customerID:  orDefault(tx.CustomerID, UnknownCustomer),
		orderID:     tx.OrderID,
		country:     orDefault(tx.Country, UnknownCountry),
		description: orDefault(tx.Description, UnknownProduct),
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
