package service

import (
	"fmt"
	"strings"

	chatdomain "github.com/wangku-app/wangku-api/internal/chat/domain"
	"github.com/wangku-app/wangku-api/internal/domain"
	"github.com/wangku-app/wangku-api/internal/format"
)

// ============================================================
// Context assembler — renders a financial snapshot as the
// Indonesian context block injected into AI prompts
// ============================================================

const (
	emptyUpcoming  = "Tidak ada transaksi mendatang."
	emptyRecent    = "Belum ada transaksi tercatat."
	emptyWishlists = "Belum ada wishlist."
)

func transactionLine(t *domain.Transaction, dateInParens bool) string {
	if dateInParens {
		return fmt.Sprintf("- %s (%s): %s (%s)", t.Title, t.Type, format.Rupiah(t.Amount), format.Date(t.Date))
	}
	return fmt.Sprintf("- %s (%s): %s pada %s", t.Title, t.Type, format.Rupiah(t.Amount), format.Date(t.Date))
}

func renderUpcoming(txs []domain.Transaction) string {
	if len(txs) == 0 {
		return emptyUpcoming
	}
	lines := make([]string, 0, len(txs))
	for i := range txs {
		lines = append(lines, transactionLine(&txs[i], false))
	}
	return strings.Join(lines, "\n")
}

func renderRecent(txs []domain.Transaction) string {
	if len(txs) == 0 {
		return emptyRecent
	}
	lines := make([]string, 0, len(txs))
	for i := range txs {
		lines = append(lines, transactionLine(&txs[i], true))
	}
	return strings.Join(lines, "\n")
}

func renderWishlists(items []domain.WishlistItem) string {
	if len(items) == 0 {
		return emptyWishlists
	}
	lines := make([]string, 0, len(items))
	for _, w := range items {
		lines = append(lines, fmt.Sprintf("- %s: %s", w.ItemName, format.Rupiah(w.EstimatedCost)))
	}
	return strings.Join(lines, "\n")
}

// BuildContext renders the snapshot in the given mode. The chat
// variant includes recent history; the summary variant omits it and
// uses plainer section labels.
func BuildContext(snap *chatdomain.FinancialSnapshot, mode chatdomain.SnapshotMode) string {
	if mode == chatdomain.ModeSummary {
		return fmt.Sprintf(`Data Keuangan Pengguna Saat Ini:
- Saldo: %s
- Transaksi Mendatang:
%s
- Wishlist:
%s`,
			format.Rupiah(snap.Balance),
			renderUpcoming(snap.Upcoming),
			renderWishlists(snap.Wishlists),
		)
	}

	return fmt.Sprintf(`
Data Keuangan Pengguna Saat Ini:
- Saldo: %s
- Transaksi Terakhir (Sudah Terjadi):
%s
- Transaksi Mendatang (Pending):
%s
- Wishlist:
%s

Gunakan data di atas untuk menjawab jika pengguna bertanya tentang keuangan mereka.`,
		format.Rupiah(snap.Balance),
		renderRecent(snap.Recent),
		renderUpcoming(snap.Upcoming),
		renderWishlists(snap.Wishlists),
	)
}
