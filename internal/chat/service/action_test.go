package service

import (
	"testing"

	chatdomain "github.com/wangku-app/wangku-api/internal/chat/domain"
)

func TestExtractAction_AddTransaction(t *testing.T) {
	reply := `Oke, sudah aku catat ya!
@@ACTION:{"type": "ADD_TRANSACTION", "data": {"title": "Makan siang", "amount": 25000, "type": "expense", "date": "2026-09-01", "status": "completed"}}@@`

	clean, instr, err := ExtractAction(reply)
	if err != nil {
		t.Fatalf("ExtractAction: %v", err)
	}
	if clean != "Oke, sudah aku catat ya!" {
		t.Errorf("clean = %q", clean)
	}
	if instr == nil || instr.Type != chatdomain.ActionAddTransaction {
		t.Fatalf("instr = %+v", instr)
	}
	tx := instr.Transaction
	if tx.Title != "Makan siang" || tx.Amount != 25000 || tx.Type != "expense" || tx.Date != "2026-09-01" || tx.Status != "completed" {
		t.Errorf("transaction data = %+v", tx)
	}
}

func TestExtractAction_AddWishlist(t *testing.T) {
	reply := `Masuk wishlist!
@@ACTION:{"type": "ADD_WISHLIST", "data": {"item_name": "Sepatu lari", "estimated_cost": 750000, "priority": 2}}@@
`
	clean, instr, err := ExtractAction(reply)
	if err != nil {
		t.Fatalf("ExtractAction: %v", err)
	}
	if clean != "Masuk wishlist!" {
		t.Errorf("clean = %q", clean)
	}
	if instr == nil || instr.Type != chatdomain.ActionAddWishlist {
		t.Fatalf("instr = %+v", instr)
	}
	w := instr.Wishlist
	if w.ItemName != "Sepatu lari" || w.EstimatedCost != 750000 || w.Priority != 2 {
		t.Errorf("wishlist data = %+v", w)
	}
}

func TestExtractAction_NoTag(t *testing.T) {
	clean, instr, err := ExtractAction("Saldo kamu Rp500.000.")
	if err != nil || instr != nil {
		t.Fatalf("instr = %+v, err = %v", instr, err)
	}
	if clean != "Saldo kamu Rp500.000." {
		t.Errorf("clean = %q", clean)
	}
}

func TestExtractAction_TagMidTextIsIgnored(t *testing.T) {
	reply := `Formatnya begini: @@ACTION:{"type": "ADD_TRANSACTION"}@@ lalu kirim pesanmu.`
	clean, instr, err := ExtractAction(reply)
	if instr != nil || err != nil {
		t.Fatalf("mid-text tag must not execute: instr = %+v, err = %v", instr, err)
	}
	if clean != reply {
		t.Errorf("clean = %q, want reply untouched", clean)
	}
}

func TestExtractAction_QuotedExampleThenRealTag(t *testing.T) {
	reply := `Contohnya @@ACTION:{...}@@ seperti tadi. Dicatat!
@@ACTION:{"type": "ADD_TRANSACTION", "data": {"title": "Gaji", "amount": 5000000, "type": "income", "date": "2026-09-01", "status": "completed"}}@@`

	clean, instr, err := ExtractAction(reply)
	if err != nil {
		t.Fatalf("ExtractAction: %v", err)
	}
	if instr == nil || instr.Transaction == nil || instr.Transaction.Title != "Gaji" {
		t.Fatalf("instr = %+v", instr)
	}
	if clean != "Contohnya @@ACTION:{...}@@ seperti tadi. Dicatat!" {
		t.Errorf("clean = %q", clean)
	}
}

func TestExtractAction_MalformedJSONStripsTagWithoutAction(t *testing.T) {
	reply := `Dicatat ya!
@@ACTION:{"type": "ADD_TRANSACTION", "data": {broken}}@@`

	clean, instr, err := ExtractAction(reply)
	if instr != nil {
		t.Fatalf("instr = %+v, want nil", instr)
	}
	if err == nil {
		t.Fatal("want error for malformed tag")
	}
	if clean != "Dicatat ya!" {
		t.Errorf("clean = %q, tag must still be stripped", clean)
	}
}

func TestExtractAction_RejectsInvalidData(t *testing.T) {
	tests := []struct {
		name string
		tag  string
	}{
		{"indonesian type token", `{"type": "ADD_TRANSACTION", "data": {"title": "Gaji", "amount": 100, "type": "pemasukan", "date": "2026-09-01", "status": "completed"}}`},
		{"negative amount", `{"type": "ADD_TRANSACTION", "data": {"title": "x", "amount": -5, "type": "income", "date": "2026-09-01", "status": "pending"}}`},
		{"missing title", `{"type": "ADD_TRANSACTION", "data": {"amount": 100, "type": "income", "date": "2026-09-01", "status": "pending"}}`},
		{"bad date", `{"type": "ADD_TRANSACTION", "data": {"title": "x", "amount": 100, "type": "income", "date": "01/09/2026", "status": "pending"}}`},
		{"bad status", `{"type": "ADD_TRANSACTION", "data": {"title": "x", "amount": 100, "type": "income", "date": "2026-09-01", "status": "done"}}`},
		{"unknown action type", `{"type": "DELETE_EVERYTHING", "data": {}}`},
		{"missing item_name", `{"type": "ADD_WISHLIST", "data": {"estimated_cost": 100, "priority": 1}}`},
		{"negative cost", `{"type": "ADD_WISHLIST", "data": {"item_name": "x", "estimated_cost": -1, "priority": 1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clean, instr, err := ExtractAction("Oke.\n@@ACTION:" + tt.tag + "@@")
			if instr != nil {
				t.Errorf("instr = %+v, want nil", instr)
			}
			if err == nil {
				t.Error("want validation error")
			}
			if clean != "Oke." {
				t.Errorf("clean = %q", clean)
			}
		})
	}
}

func TestExtractAction_QuotedNumbersAccepted(t *testing.T) {
	_, instr, err := ExtractAction(`Ok.
@@ACTION:{"type": "ADD_WISHLIST", "data": {"item_name": "Meja", "estimated_cost": "1500000", "priority": "1"}}@@`)
	if err != nil {
		t.Fatalf("ExtractAction: %v", err)
	}
	if instr == nil || instr.Wishlist.EstimatedCost != 1500000 || instr.Wishlist.Priority != 1 {
		t.Errorf("instr = %+v", instr)
	}
}
