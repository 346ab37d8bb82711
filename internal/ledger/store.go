// Package ledger implements the wallet's document store: it owns the
// in-memory ledger document, enforces validation on every mutation,
// persists the full document after each change and answers the derived
// queries the UI renders from.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/marufjanezz06-cmyk/my-wallet/internal/core"
)

// StorageKey is the fixed namespace the document is persisted under.
const StorageKey = "my_wallet_v1"

// ErrPersistence marks storage read/write failures. The in-memory document
// stays valid when it is returned, but the change may not survive a
// restart.
var ErrPersistence = errors.New("persistent storage unavailable")

// RecordStore is the persistence boundary: whole-document text records
// under a fixed key.
type RecordStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Publisher emits ledger change events for external consumers. Publishing
// is best-effort: a failure never fails the mutation that triggered it.
type Publisher interface {
	PublishLedgerEvent(ctx context.Context, op, txID, month string) error
}

// Store is the Ledger Store. One instance is constructed at startup and
// handed to every caller; there is no ambient singleton.
type Store struct {
	mu      sync.Mutex
	doc     core.Document
	records RecordStore
	events  Publisher // optional
}

// Open loads the persisted document (initializing or recovering as needed)
// and returns a ready store. events may be nil.
func Open(ctx context.Context, records RecordStore, events Publisher) (*Store, error) {
	s := &Store{records: records, events: events}
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.doc = doc
	return s, nil
}

func defaultDocument(now time.Time) core.Document {
	cats := make([]string, len(core.DefaultCategories))
	copy(cats, core.DefaultCategories)
	return core.Document{
		Cats:      cats,
		Tx:        []core.Transaction{},
		FilterCat: core.FilterAll,
		Month:     core.MonthKey(now),
	}
}

// load reads the persisted document. Absent record: initialize and persist
// defaults. Unparseable record: discard it and reinitialize. Parseable
// record: backfill any missing top-level field with its default.
func (s *Store) load(ctx context.Context) (core.Document, error) {
	raw, ok, err := s.records.Get(ctx, StorageKey)
	if err != nil {
		return core.Document{}, fmt.Errorf("%w: read document: %v", ErrPersistence, err)
	}
	now := time.Now()
	if !ok {
		doc := defaultDocument(now)
		if err := s.persist(ctx, doc); err != nil {
			return core.Document{}, err
		}
		return doc, nil
	}

	var doc core.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		slog.WarnContext(ctx, "Discarding unreadable wallet document", "error", err, "bytes", len(raw))
		if err := s.records.Remove(ctx, StorageKey); err != nil {
			return core.Document{}, fmt.Errorf("%w: remove corrupt document: %v", ErrPersistence, err)
		}
		doc = defaultDocument(now)
		if err := s.persist(ctx, doc); err != nil {
			return core.Document{}, err
		}
		return doc, nil
	}

	// Forward-compatible loose schema: missing fields get defaults.
	if doc.Cats == nil {
		doc.Cats = make([]string, len(core.DefaultCategories))
		copy(doc.Cats, core.DefaultCategories)
	}
	if doc.Tx == nil {
		doc.Tx = []core.Transaction{}
	}
	if doc.FilterCat == "" {
		doc.FilterCat = core.FilterAll
	}
	if doc.Month == "" {
		doc.Month = core.MonthKey(now)
	}
	return doc, nil
}

func (s *Store) persist(ctx context.Context, doc core.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := s.records.Set(ctx, StorageKey, string(data)); err != nil {
		return fmt.Errorf("%w: write document: %v", ErrPersistence, err)
	}
	return nil
}

// save persists the current in-memory document. Callers hold s.mu.
func (s *Store) save(ctx context.Context) error {
	return s.persist(ctx, s.doc)
}

func (s *Store) publish(ctx context.Context, op, txID, month string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLedgerEvent(ctx, op, txID, month); err != nil {
		slog.WarnContext(ctx, "Ledger event publish failed", "op", op, "error", err)
	}
}

// AddTransaction validates the input, appends a new transaction and
// persists. The amount is parsed leniently; dateInput falls back to today;
// the month key is derived from the resolved date at creation time.
func (s *Store) AddTransaction(ctx context.Context, typ core.TxType, amountInput, category, dateInput, note string) (core.Transaction, error) {
	amount, err := core.ParseAmount(amountInput)
	if err != nil {
		return core.Transaction{}, err
	}

	date := strings.TrimSpace(dateInput)
	if date == "" {
		date = core.TodayISO()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := core.Transaction{
		ID:       core.NewID(),
		Type:     typ,
		Amount:   amount,
		Category: category,
		Date:     date,
		Month:    core.MonthOf(date),
		Note:     strings.TrimSpace(note),
	}
	s.doc.Tx = append(s.doc.Tx, tx)
	if err := s.save(ctx); err != nil {
		return tx, err
	}
	s.publish(ctx, "tx_added", tx.ID, tx.Month)
	slog.InfoContext(ctx, "Transaction added", "id", tx.ID, "type", string(tx.Type), "month", tx.Month)
	return tx, nil
}

// DeleteTransaction removes the transaction with the given id. A missing
// id is a no-op, not an error.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.doc.Tx[:0]
	removed := false
	var month string
	for _, t := range s.doc.Tx {
		if t.ID == id {
			removed = true
			month = t.Month
			continue
		}
		kept = append(kept, t)
	}
	s.doc.Tx = kept
	if err := s.save(ctx); err != nil {
		return err
	}
	if removed {
		s.publish(ctx, "tx_deleted", id, month)
		slog.InfoContext(ctx, "Transaction deleted", "id", id)
	}
	return nil
}

// AddCategory appends a new category, preserving insertion order.
// Uniqueness is case-insensitive.
func (s *Store) AddCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.doc.Cats {
		if strings.EqualFold(c, name) {
			return core.ErrDuplicateName
		}
	}
	s.doc.Cats = append(s.doc.Cats, name)
	if err := s.save(ctx); err != nil {
		return err
	}
	s.publish(ctx, "category_added", "", s.doc.Month)
	return nil
}

// RenameCategory renames a category and cascades the rewrite through every
// transaction and the active filter. The old name is fully erased.
func (s *Store) RenameCategory(ctx context.Context, oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return core.ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.doc.Cats {
		if strings.EqualFold(c, newName) && !strings.EqualFold(oldName, newName) {
			return core.ErrDuplicateName
		}
	}

	for i, c := range s.doc.Cats {
		if c == oldName {
			s.doc.Cats[i] = newName
		}
	}
	for i, t := range s.doc.Tx {
		if t.Category == oldName {
			s.doc.Tx[i].Category = newName
		}
	}
	if s.doc.FilterCat == oldName {
		s.doc.FilterCat = newName
	}
	if err := s.save(ctx); err != nil {
		return err
	}
	s.publish(ctx, "category_renamed", "", s.doc.Month)
	return nil
}

// SetFilter replaces the active category filter verbatim. There is no
// existence check: a stale filter simply matches nothing.
func (s *Store) SetFilter(ctx context.Context, categoryOrAll string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.FilterCat = categoryOrAll
	return s.save(ctx)
}

// SetMonth replaces the active month key.
func (s *Store) SetMonth(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Month = key
	return s.save(ctx)
}

// ShiftMonth moves the active month by delta whole months and returns the
// new key.
func (s *Store) ShiftMonth(ctx context.Context, delta int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Month = core.ShiftMonthKey(s.doc.Month, delta)
	if err := s.save(ctx); err != nil {
		return s.doc.Month, err
	}
	return s.doc.Month, nil
}

// Filtered returns the transactions of the active month that pass the
// category filter and, when search is non-empty, a case-insensitive
// substring match against note or category. The result is a fresh slice
// sorted by date descending with stable ties; the query never persists.
func (s *Store) Filtered(search string) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filteredLocked(search)
}

// filteredLocked runs the query. Callers hold s.mu.
func (s *Store) filteredLocked(search string) []core.Transaction {
	q := strings.ToLower(strings.TrimSpace(search))

	list := make([]core.Transaction, 0, len(s.doc.Tx))
	for _, t := range s.doc.Tx {
		if t.Month != s.doc.Month {
			continue
		}
		if s.doc.FilterCat != core.FilterAll && t.Category != s.doc.FilterCat {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(t.Note), q) &&
			!strings.Contains(strings.ToLower(t.Category), q) {
			continue
		}
		list = append(list, t)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Date > list[j].Date
	})
	return list
}

// View is everything the UI needs to render one screen.
type View struct {
	Month     string             `json:"month"`
	FilterCat string             `json:"filterCat"`
	Cats      []string           `json:"cats"`
	List      []core.Transaction `json:"list"`
	Sums      core.Sums          `json:"sums"`
	Count     int                `json:"count"`
	Hint      string             `json:"hint"`
}

// Snapshot assembles the filtered view plus derived sums and hint text.
// The whole view is built under one lock so the list, month and filter
// cannot straddle a concurrent mutation.
func (s *Store) Snapshot(search string) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.filteredLocked(search)
	sums := core.Summarize(list)
	cats := make([]string, len(s.doc.Cats))
	copy(cats, s.doc.Cats)
	month := s.doc.Month
	filter := s.doc.FilterCat

	return View{
		Month:     month,
		FilterCat: filter,
		Cats:      cats,
		List:      list,
		Sums:      sums,
		Count:     len(list),
		Hint:      core.Hint(list, sums),
	}
}

// Month returns the active month key.
func (s *Store) Month() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Month
}

// Export serializes the full document as pretty-printed JSON. No
// transformation, no redaction.
func (s *Store) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.MarshalIndent(s.doc, "", "  ")
}

// ExportFilename is the suggested download name for the current backup.
func (s *Store) ExportFilename() string {
	return "my-wallet-backup-" + s.Month() + ".json"
}

// isJSONArray reports whether raw holds an actual JSON array. Unmarshal
// alone is too lenient here: null decodes into a nil slice without error.
func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}

// Import replaces the whole document with the decoded backup. The only
// structural requirement is a top-level object carrying array cats and tx
// fields; element shape is trusted as-is. The filter resets to the
// all-categories sentinel, the month falls back to the current one when
// the backup has none.
func (s *Store) Import(ctx context.Context, raw []byte) error {
	var payload struct {
		Cats  json.RawMessage `json:"cats"`
		Tx    json.RawMessage `json:"tx"`
		Month string          `json:"month"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return core.ErrBadBackup
	}

	var rawCats, rawTx []json.RawMessage
	if !isJSONArray(payload.Cats) || json.Unmarshal(payload.Cats, &rawCats) != nil {
		return core.ErrBadBackup
	}
	if !isJSONArray(payload.Tx) || json.Unmarshal(payload.Tx, &rawTx) != nil {
		return core.ErrBadBackup
	}

	cats := make([]string, len(rawCats))
	for i, r := range rawCats {
		_ = json.Unmarshal(r, &cats[i])
	}
	tx := make([]core.Transaction, len(rawTx))
	for i, r := range rawTx {
		_ = json.Unmarshal(r, &tx[i])
	}

	month := payload.Month
	if month == "" {
		month = core.MonthKey(time.Now())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = core.Document{
		Cats:      cats,
		Tx:        tx,
		FilterCat: core.FilterAll,
		Month:     month,
	}
	if err := s.save(ctx); err != nil {
		return err
	}
	s.publish(ctx, "imported", "", month)
	slog.InfoContext(ctx, "Backup imported", "cats", len(cats), "tx", len(tx), "month", month)
	return nil
}

// Reset wipes the persisted record and reinitializes the document with
// defaults.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.records.Remove(ctx, StorageKey); err != nil {
		return fmt.Errorf("%w: remove document: %v", ErrPersistence, err)
	}
	s.doc = defaultDocument(time.Now())
	if err := s.save(ctx); err != nil {
		return err
	}
	s.publish(ctx, "reset", "", s.doc.Month)
	slog.InfoContext(ctx, "Wallet reset to defaults")
	return nil
}
