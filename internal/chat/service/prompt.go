package service

import (
	"fmt"
	"strings"
	"time"

	chatdomain "github.com/wangku-app/wangku-api/internal/chat/domain"
	"github.com/wangku-app/wangku-api/internal/format"
)

// ============================================================
// Prompt builder — assembles the TerMai payload and the Gemini
// summary prompt
// ============================================================

const (
	assistantFullName = "WangKu AI"
	assistantNickname = "Wangi"
	assistantRole     = "Asisten Keuangan"
	fallbackUserName  = "Pengguna"
)

const personaTemplate = `- Namamu adalah Wangi, asisten keuangan pintar dari aplikasi WangKu.
- Kamu membantu pengguna bernama %s untuk merencanakan keuangan, menganalisis pengeluaran, dan memberi saran finansial.
- Kamu menggunakan Bahasa Indonesia santai namun tetap profesional.
- Kamu paham tentang budgeting, investasi, menabung, dan manajemen utang.
- Kalau ditanya hal di luar keuangan, jawab singkat lalu arahkan kembali ke topik keuangan.
- Responsmu ringkas, jelas, dan memotivasi.

%s

### MANDATORY ACTION RULES ###
If the user asks to record/add/save a transaction or wishlist, you MUST append a tag at the very END of your response.
Format:
@@ACTION:{"type": "ADD_TRANSACTION", "data": {"title": "...", "amount": 0, "type": "income", "date": "YYYY-MM-DD", "status": "completed"}}@@
OR
@@ACTION:{"type": "ADD_WISHLIST", "data": {"item_name": "...", "estimated_cost": 0, "priority": 1}}@@

Rules for Fields:
- "type" for transaction: MUST be "income" (for pemasukan/pendapatan) or "expense" (for pengeluaran/biaya). DO NOT use Indonesian.
- "date": MUST be YYYY-MM-DD.
- "status": use "completed" if it already happened, "pending" if it hasn't.
- Amount: Use numbers ONLY.

DO NOT forget the @@ACTION:...@@ tag if the user wants to record sesuatu. Ini penting untuk aplikasi.`

// ResolveSenderName picks the display name for a turn: profile
// name, then the local part of the email, then a generic fallback.
func ResolveSenderName(profileName, email string) string {
	if profileName != "" {
		return profileName
	}
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return fallbackUserName
}

// BuildChatPayload assembles the full TerMai request body for one
// turn. contextText is the rendered financial context block.
func BuildChatPayload(message, conversationID, senderName, contextText string, now time.Time) *chatdomain.TermaiRequest {
	return &chatdomain.TermaiRequest{
		Text:          message,
		ID:            conversationID,
		FullAIName:    assistantFullName,
		NickAIName:    assistantNickname,
		SenderName:    senderName,
		OwnerName:     senderName,
		Date:          format.ISODate(now),
		Role:          assistantRole,
		MsgType:       "text",
		CustomProfile: fmt.Sprintf(personaTemplate, senderName, contextText),
	}
}

const summaryTemplate = `Kamu adalah asisten keuangan pintar di dalam aplikasi "WangKu".
Tugasmu adalah memberikan ringkasan keuangan dan saran yang sangat ringkas, memotivasi, dan logis.

%s

Panduan Balasan:
1. Gunakan Bahasa Indonesia bergaya santai tapi profesional.
2. Analisis apakah saldo saat ini cukup untuk membayar tagihan mendatang. Beri saran alokasi dana jika tidak cukup.
3. Beri pandangan sekilas apakah wishlist masuk akal dibeli bulan ini.
4. Output berformat HTML mentah, langsung gunakan tag <p>, <strong>, <ul>, atau <li> untuk merapikan teks.
5. JANGAN membalut teks dengan ` + "```html ... ```" + `. Langsung output tag HTML.`

// BuildSummaryPrompt wraps the summary-mode context block with the
// advisory instructions for the summary generator.
func BuildSummaryPrompt(contextText string) string {
	return fmt.Sprintf(summaryTemplate, contextText)
}
