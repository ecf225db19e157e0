package service

import (
	"strings"
	"testing"

	chatdomain "github.com/wangku-app/wangku-api/internal/chat/domain"
	"github.com/wangku-app/wangku-api/internal/domain"
)

func TestBuildContext_EmptySnapshot(t *testing.T) {
	got := BuildContext(&chatdomain.FinancialSnapshot{}, chatdomain.ModeChat)

	for _, want := range []string{
		"- Saldo: Rp0",
		"Tidak ada transaksi mendatang.",
		"Belum ada transaksi tercatat.",
		"Belum ada wishlist.",
		"Gunakan data di atas untuk menjawab jika pengguna bertanya tentang keuangan mereka.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("context missing %q:\n%s", want, got)
		}
	}
}

func TestBuildContext_PopulatedSnapshot(t *testing.T) {
	snap := &chatdomain.FinancialSnapshot{
		Balance: 500000,
		Upcoming: []domain.Transaction{
			{Title: "Bayar kos", Type: "expense", Amount: 750000, Date: "2026-09-05"},
		},
		Recent: []domain.Transaction{
			{Title: "Gaji", Type: "income", Amount: 5000000, Date: "2026-08-25"},
		},
		Wishlists: []domain.WishlistItem{
			{ItemName: "Sepatu lari", EstimatedCost: 750000},
		},
	}
	got := BuildContext(snap, chatdomain.ModeChat)

	for _, want := range []string{
		"- Saldo: Rp500.000",
		"- Bayar kos (expense): Rp750.000 pada 5/9/2026",
		"- Gaji (income): Rp5.000.000 (25/8/2026)",
		"- Sepatu lari: Rp750.000",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("context missing %q:\n%s", want, got)
		}
	}
	// Populated sections must not carry their empty-state sentences.
	for _, reject := range []string{
		"Tidak ada transaksi mendatang.",
		"Belum ada transaksi tercatat.",
		"Belum ada wishlist.",
	} {
		if strings.Contains(got, reject) {
			t.Errorf("context wrongly contains %q:\n%s", reject, got)
		}
	}
}

func TestBuildContext_SummaryModeOmitsHistory(t *testing.T) {
	snap := &chatdomain.FinancialSnapshot{
		Balance: 500000,
		Recent: []domain.Transaction{
			{Title: "Gaji", Type: "income", Amount: 5000000, Date: "2026-08-25"},
		},
		Upcoming: []domain.Transaction{
			{Title: "Bayar kos", Type: "expense", Amount: 750000, Date: "2026-09-05"},
		},
	}
	got := BuildContext(snap, chatdomain.ModeSummary)

	if strings.Contains(got, "Transaksi Terakhir") || strings.Contains(got, "Gaji") {
		t.Errorf("summary context must omit recent history:\n%s", got)
	}
	if !strings.Contains(got, "- Transaksi Mendatang:\n- Bayar kos (expense): Rp750.000 pada 5/9/2026") {
		t.Errorf("summary context missing upcoming section:\n%s", got)
	}
	if strings.Contains(got, "(Pending)") {
		t.Errorf("summary context must use the plain section label:\n%s", got)
	}
}
