package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/marufjanezz06-cmyk/my-wallet/internal/core"
)

// memRecords is an in-memory RecordStore for tests.
type memRecords struct {
	m       map[string]string
	failSet bool
	failGet bool
}

func newMemRecords() *memRecords { return &memRecords{m: make(map[string]string)} }

func (r *memRecords) Get(ctx context.Context, key string) (string, bool, error) {
	if r.failGet {
		return "", false, errors.New("disk gone")
	}
	v, ok := r.m[key]
	return v, ok, nil
}

func (r *memRecords) Set(ctx context.Context, key, value string) error {
	if r.failSet {
		return errors.New("quota exceeded")
	}
	r.m[key] = value
	return nil
}

func (r *memRecords) Remove(ctx context.Context, key string) error {
	delete(r.m, key)
	return nil
}

func openTestStore(t *testing.T) (*Store, *memRecords) {
	t.Helper()
	rec := newMemRecords()
	s, err := Open(context.Background(), rec, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, rec
}

func TestOpenInitializesDefaults(t *testing.T) {
	s, rec := openTestStore(t)

	v := s.Snapshot("")
	if len(v.Cats) != len(core.DefaultCategories) {
		t.Fatalf("cats = %v", v.Cats)
	}
	if v.FilterCat != core.FilterAll {
		t.Fatalf("filter = %q, want %q", v.FilterCat, core.FilterAll)
	}
	if v.Month != core.MonthKey(time.Now()) {
		t.Fatalf("month = %q", v.Month)
	}
	if _, ok := rec.m[StorageKey]; !ok {
		t.Fatalf("defaults were not persisted")
	}
}

func TestOpenRecoversFromGarbage(t *testing.T) {
	rec := newMemRecords()
	rec.m[StorageKey] = "{not json at all"

	s, err := Open(context.Background(), rec, nil)
	if err != nil {
		t.Fatalf("Open on garbage: %v", err)
	}
	v := s.Snapshot("")
	if len(v.Cats) == 0 || v.FilterCat != core.FilterAll {
		t.Fatalf("expected default document, got %+v", v)
	}
	if !json.Valid([]byte(rec.m[StorageKey])) {
		t.Fatalf("recovered record is not valid JSON")
	}
}

func TestOpenBackfillsMissingFields(t *testing.T) {
	rec := newMemRecords()
	rec.m[StorageKey] = `{"tx":[{"id":"a","type":"expense","amount":5,"category":"Еда","date":"2025-01-02","month":"2025-01","note":""}]}`

	s, err := Open(context.Background(), rec, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	v := s.Snapshot("")
	if len(v.Cats) != len(core.DefaultCategories) {
		t.Fatalf("cats not backfilled: %v", v.Cats)
	}
	if v.FilterCat != core.FilterAll || v.Month == "" {
		t.Fatalf("fields not backfilled: %+v", v)
	}
}

func TestRoundTrip(t *testing.T) {
	rec := newMemRecords()
	s, err := Open(context.Background(), rec, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	tx, err := s.AddTransaction(context.Background(), core.Income, "150", "Еда", "2025-05-09", "зарплата")
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	reopened, err := Open(context.Background(), rec, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := reopened.SetMonth(context.Background(), "2025-05"); err != nil {
		t.Fatalf("SetMonth: %v", err)
	}
	list := reopened.Filtered("")
	if len(list) != 1 || list[0] != tx {
		t.Fatalf("round-trip mismatch: %+v vs %+v", list, tx)
	}
}

func TestAddTransactionValidation(t *testing.T) {
	s, _ := openTestStore(t)

	for _, bad := range []string{"0", "-5", "abc", "", "₴"} {
		if _, err := s.AddTransaction(context.Background(), core.Expense, bad, "Еда", "", ""); !errors.Is(err, core.ErrInvalidAmount) {
			t.Fatalf("amount %q: err = %v, want ErrInvalidAmount", bad, err)
		}
	}
	if n := len(s.Filtered("")); n != 0 {
		t.Fatalf("document changed by rejected adds: %d tx", n)
	}
}

func TestAddTransactionDerivesMonthAndDefaults(t *testing.T) {
	s, _ := openTestStore(t)

	tx, err := s.AddTransaction(context.Background(), core.Expense, "1 234,50 ₴", "Еда", "2025-02-14", "  кафе  ")
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if tx.Amount != 1234.5 {
		t.Fatalf("amount = %v, want 1234.5", tx.Amount)
	}
	if tx.Month != tx.Date[:7] || tx.Month != "2025-02" {
		t.Fatalf("month = %q, date = %q", tx.Month, tx.Date)
	}
	if tx.Note != "кафе" {
		t.Fatalf("note = %q", tx.Note)
	}
	if tx.ID == "" {
		t.Fatalf("empty id")
	}

	// Empty date falls back to today.
	tx2, err := s.AddTransaction(context.Background(), core.Expense, "100", "Еда", "", "")
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if tx2.Date != core.TodayISO() || tx2.Month != core.MonthKey(time.Now()) {
		t.Fatalf("date defaults wrong: %+v", tx2)
	}
	if tx2.ID == tx.ID {
		t.Fatalf("ids collide")
	}
}

func TestDeleteTransactionIdempotent(t *testing.T) {
	s, _ := openTestStore(t)
	tx, err := s.AddTransaction(context.Background(), core.Expense, "10", "Еда", "", "")
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	if err := s.DeleteTransaction(context.Background(), tx.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if n := len(s.Filtered("")); n != 0 {
		t.Fatalf("transaction not deleted")
	}
	// Second delete of the same id is a no-op, not an error.
	if err := s.DeleteTransaction(context.Background(), tx.ID); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
	if err := s.DeleteTransaction(context.Background(), "no-such-id"); err != nil {
		t.Fatalf("missing id delete: %v", err)
	}
}

func TestAddCategory(t *testing.T) {
	s, _ := openTestStore(t)

	if err := s.AddCategory(context.Background(), "   "); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("blank name: err = %v", err)
	}
	if err := s.AddCategory(context.Background(), "еДа"); !errors.Is(err, core.ErrDuplicateName) {
		t.Fatalf("case-insensitive duplicate: err = %v", err)
	}
	if err := s.AddCategory(context.Background(), "  Кофе  "); err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	v := s.Snapshot("")
	if v.Cats[len(v.Cats)-1] != "Кофе" {
		t.Fatalf("insertion order broken: %v", v.Cats)
	}
}

func TestRenameCategoryDuplicateRejected(t *testing.T) {
	s, _ := openTestStore(t)
	if _, err := s.AddTransaction(context.Background(), core.Expense, "50", "Еда", "2025-03-01", ""); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	err := s.RenameCategory(context.Background(), "Еда", "Транспорт")
	if !errors.Is(err, core.ErrDuplicateName) {
		t.Fatalf("err = %v, want ErrDuplicateName", err)
	}
	if err := s.SetMonth(context.Background(), "2025-03"); err != nil {
		t.Fatalf("SetMonth: %v", err)
	}
	list := s.Filtered("")
	if len(list) != 1 || list[0].Category != "Еда" {
		t.Fatalf("transaction altered by failed rename: %+v", list)
	}
}

func TestRenameCategoryCascades(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	if _, err := s.AddTransaction(ctx, core.Expense, "50", "Еда", "2025-03-01", ""); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if _, err := s.AddTransaction(ctx, core.Expense, "20", "Дом", "2025-03-02", ""); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if err := s.SetFilter(ctx, "Еда"); err != nil {
		t.Fatalf("SetFilter: %v", err)
	}

	if err := s.RenameCategory(ctx, "Еда", "Food"); err != nil {
		t.Fatalf("RenameCategory: %v", err)
	}

	v := s.Snapshot("")
	for _, c := range v.Cats {
		if c == "Еда" {
			t.Fatalf("old name still in cats: %v", v.Cats)
		}
	}
	if v.FilterCat != "Food" {
		t.Fatalf("filter not updated: %q", v.FilterCat)
	}
	if err := s.SetMonth(ctx, "2025-03"); err != nil {
		t.Fatalf("SetMonth: %v", err)
	}
	if err := s.SetFilter(ctx, "Food"); err != nil {
		t.Fatalf("SetFilter: %v", err)
	}
	list := s.Filtered("")
	if len(list) != 1 || list[0].Category != "Food" {
		t.Fatalf("transactions not rewritten: %+v", list)
	}
}

func TestRenameCaseOnlyChangeAllowed(t *testing.T) {
	s, _ := openTestStore(t)
	if err := s.RenameCategory(context.Background(), "Еда", "ЕДА"); err != nil {
		t.Fatalf("case-only rename should pass the duplicate check: %v", err)
	}
}

func TestSetFilterVerbatim(t *testing.T) {
	s, _ := openTestStore(t)
	// No existence check against cats.
	if err := s.SetFilter(context.Background(), "Несуществующая"); err != nil {
		t.Fatalf("SetFilter: %v", err)
	}
	if v := s.Snapshot(""); v.FilterCat != "Несуществующая" {
		t.Fatalf("filter = %q", v.FilterCat)
	}
}

func TestShiftMonthRollsOver(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	if err := s.SetMonth(ctx, "2025-12"); err != nil {
		t.Fatalf("SetMonth: %v", err)
	}
	got, err := s.ShiftMonth(ctx, 1)
	if err != nil {
		t.Fatalf("ShiftMonth: %v", err)
	}
	if got != "2026-01" {
		t.Fatalf("month = %q, want 2026-01", got)
	}
	if got, err = s.ShiftMonth(ctx, -2); err != nil || got != "2025-11" {
		t.Fatalf("month = %q err = %v, want 2025-11", got, err)
	}
}

func TestFilteredQuery(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	add := func(cat, date, note string) {
		t.Helper()
		if _, err := s.AddTransaction(ctx, core.Expense, "10", cat, date, note); err != nil {
			t.Fatalf("AddTransaction: %v", err)
		}
	}
	add("Еда", "2025-04-01", "рынок")
	add("Еда", "2025-04-20", "Супермаркет")
	add("Дом", "2025-04-10", "лампа")
	add("Еда", "2025-05-01", "другой месяц")

	if err := s.SetMonth(ctx, "2025-04"); err != nil {
		t.Fatalf("SetMonth: %v", err)
	}

	list := s.Filtered("")
	if len(list) != 3 {
		t.Fatalf("month filter: got %d tx", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].Date < list[i].Date {
			t.Fatalf("not date-descending: %q before %q", list[i-1].Date, list[i].Date)
		}
	}

	if err := s.SetFilter(ctx, "Еда"); err != nil {
		t.Fatalf("SetFilter: %v", err)
	}
	if list = s.Filtered(""); len(list) != 2 {
		t.Fatalf("category filter: got %d tx", len(list))
	}

	// Case-insensitive substring search against note.
	if list = s.Filtered("суперм"); len(list) != 1 || list[0].Note != "Супермаркет" {
		t.Fatalf("note search: %+v", list)
	}
	// Search also matches the category name.
	if err := s.SetFilter(ctx, core.FilterAll); err != nil {
		t.Fatalf("SetFilter: %v", err)
	}
	if list = s.Filtered("дом"); len(list) != 1 || list[0].Category != "Дом" {
		t.Fatalf("category search: %+v", list)
	}
	if list = s.Filtered("нет такого"); len(list) != 0 {
		t.Fatalf("search should narrow to nothing: %+v", list)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	if _, err := s.AddTransaction(ctx, core.Income, "300", "Еда", "2025-06-01", "аванс"); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if err := s.SetFilter(ctx, "Еда"); err != nil {
		t.Fatalf("SetFilter: %v", err)
	}
	if err := s.SetMonth(ctx, "2025-06"); err != nil {
		t.Fatalf("SetMonth: %v", err)
	}

	data, err := s.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if s.ExportFilename() != "my-wallet-backup-2025-06.json" {
		t.Fatalf("filename = %q", s.ExportFilename())
	}

	other, _ := openTestStore(t)
	if err := other.Import(ctx, data); err != nil {
		t.Fatalf("Import: %v", err)
	}
	v := other.Snapshot("")
	if v.Month != "2025-06" {
		t.Fatalf("month = %q", v.Month)
	}
	// Import always resets the filter, even though the backup carried one.
	if v.FilterCat != core.FilterAll {
		t.Fatalf("filter = %q, want %q", v.FilterCat, core.FilterAll)
	}
	if len(v.List) != 1 || v.List[0].Note != "аванс" {
		t.Fatalf("imported tx: %+v", v.List)
	}
}

func TestImportRejectsMalformedPayloads(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	if _, err := s.AddTransaction(ctx, core.Expense, "5", "Еда", "", "до импорта"); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	bad := []string{
		`not json`,
		`null`,
		`[1,2,3]`,
		`{"cats":["a"]}`,              // tx missing
		`{"tx":[]}`,                   // cats missing
		`{"cats":"a","tx":[]}`,        // cats not an array
		`{"cats":[],"tx":{"id":"x"}}`, // tx not an array
		`{"cats":null,"tx":null}`,     // null is not an array
		`{"cats":["a"],"tx":null}`,    // tx null
	}
	for _, payload := range bad {
		if err := s.Import(ctx, []byte(payload)); !errors.Is(err, core.ErrBadBackup) {
			t.Fatalf("payload %q: err = %v, want ErrBadBackup", payload, err)
		}
	}

	// Document untouched by rejected imports.
	if list := s.Filtered(""); len(list) != 1 || list[0].Note != "до импорта" {
		t.Fatalf("document changed by rejected import: %+v", list)
	}
}

func TestImportMonthFallback(t *testing.T) {
	s, _ := openTestStore(t)
	if err := s.Import(context.Background(), []byte(`{"cats":["A"],"tx":[]}`)); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if got := s.Month(); got != core.MonthKey(time.Now()) {
		t.Fatalf("month = %q, want current", got)
	}
}

func TestImportTrustsElementShape(t *testing.T) {
	s, _ := openTestStore(t)
	// Elements of unexpected shape are accepted blindly.
	err := s.Import(context.Background(), []byte(`{"cats":[1,true],"tx":[5,"x",{}]}`))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	v := s.Snapshot("")
	if len(v.Cats) != 2 {
		t.Fatalf("cats = %v", v.Cats)
	}
}

func TestReset(t *testing.T) {
	s, rec := openTestStore(t)
	ctx := context.Background()
	if _, err := s.AddTransaction(ctx, core.Expense, "5", "Еда", "", ""); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	v := s.Snapshot("")
	if len(v.List) != 0 || v.FilterCat != core.FilterAll || len(v.Cats) != len(core.DefaultCategories) {
		t.Fatalf("reset document: %+v", v)
	}
	if !strings.Contains(rec.m[StorageKey], `"filterCat"`) {
		t.Fatalf("reset document not persisted")
	}
}

func TestPersistenceFailureSurfaces(t *testing.T) {
	s, rec := openTestStore(t)
	rec.failSet = true

	_, err := s.AddTransaction(context.Background(), core.Expense, "10", "Еда", "", "")
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}
	// The in-memory document keeps the change; only durability is at risk.
	if n := len(s.Filtered("")); n != 1 {
		t.Fatalf("in-memory document lost the change: %d tx", n)
	}

	if err := s.SetFilter(context.Background(), "Еда"); !errors.Is(err, ErrPersistence) {
		t.Fatalf("SetFilter err = %v, want ErrPersistence", err)
	}
}

func TestSnapshotHint(t *testing.T) {
	s, _ := openTestStore(t)
	v := s.Snapshot("")
	if !strings.Contains(v.Hint, "первую операцию") {
		t.Fatalf("empty hint = %q", v.Hint)
	}
	if _, err := s.AddTransaction(context.Background(), core.Expense, "40", "Еда", core.TodayISO(), ""); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	v = s.Snapshot("")
	if !strings.Contains(v.Hint, "Баланс минус") {
		t.Fatalf("hint = %q", v.Hint)
	}
	if v.Sums.Expense != 40 || v.Count != 1 {
		t.Fatalf("view sums: %+v", v)
	}
}

func TestSnapshotCoherentUnderConcurrentMonthSwitch(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	for _, d := range []string{"2025-01-10", "2025-02-10"} {
		if _, err := s.AddTransaction(ctx, core.Expense, "10", "Еда", d, ""); err != nil {
			t.Fatalf("AddTransaction: %v", err)
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		months := []string{"2025-01", "2025-02"}
		for i := 0; i < 500; i++ {
			_ = s.SetMonth(ctx, months[i%2])
		}
	}()

	// Every snapshot must be internally consistent: the listed
	// transactions always belong to the month the view reports.
	for i := 0; i < 500; i++ {
		v := s.Snapshot("")
		for _, tx := range v.List {
			if tx.Month != v.Month {
				t.Fatalf("view month %q lists transaction from %q", v.Month, tx.Month)
			}
		}
	}
	<-done
}
