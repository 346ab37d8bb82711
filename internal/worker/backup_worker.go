package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/marufjanezz06-cmyk/my-wallet/internal/amqp"
	"github.com/marufjanezz06-cmyk/my-wallet/internal/core"
	"github.com/marufjanezz06-cmyk/my-wallet/internal/ledger"
	"github.com/marufjanezz06-cmyk/my-wallet/internal/sheets"
)

// BackupWorker mirrors newly created transactions to an external backup
// destination. It consumes the ledger change feed and re-reads the
// persisted document, so it never races the in-memory store.
type BackupWorker struct {
	records ledger.RecordStore
	writer  sheets.BackupWriter
}

func NewBackupWorker(records ledger.RecordStore, writer sheets.BackupWriter) *BackupWorker {
	return &BackupWorker{
		records: records,
		writer:  writer,
	}
}

// HandleLedgerEvent processes a single change-feed message. Only tx_added
// events carry work; everything else is acknowledged and skipped.
func (w *BackupWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	if msg.Op != "tx_added" || msg.TxID == "" {
		slog.DebugContext(ctx, "Skipping ledger event", "op", msg.Op)
		return nil
	}

	tx, ok, err := w.lookupTransaction(ctx, msg.TxID)
	if err != nil {
		return fmt.Errorf("lookup transaction: %w", err)
	}
	if !ok {
		// Deleted before we got here; nothing to mirror.
		slog.WarnContext(ctx, "Transaction gone before mirroring", "tx_id", msg.TxID)
		return nil
	}

	row := sheets.BackupRow{
		Date:     tx.Date,
		Type:     string(tx.Type),
		Category: tx.Category,
		Amount:   tx.Amount,
		Note:     tx.Note,
	}
	if err := w.writer.Append(ctx, row); err != nil {
		return fmt.Errorf("mirror transaction %s: %w", tx.ID, err)
	}

	slog.InfoContext(ctx, "Transaction mirrored", "tx_id", tx.ID, "month", tx.Month)
	return nil
}

func (w *BackupWorker) lookupTransaction(ctx context.Context, id string) (core.Transaction, bool, error) {
	raw, ok, err := w.records.Get(ctx, ledger.StorageKey)
	if err != nil {
		return core.Transaction{}, false, fmt.Errorf("read document: %w", err)
	}
	if !ok {
		return core.Transaction{}, false, nil
	}

	var doc core.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return core.Transaction{}, false, fmt.Errorf("decode document: %w", err)
	}
	for _, t := range doc.Tx {
		if t.ID == id {
			return t, true, nil
		}
	}
	return core.Transaction{}, false, nil
}
