// internal/notify/webhook.go
package notify

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"

	"github.com/shopspring/decimal"
)

// Webhook envia alertas de workflow para um endpoint configurado.
type Webhook struct {
	URL string
}

func NewWebhook(url string) *Webhook {
	return &Webhook{URL: url}
}

// DealPaid avisa que um deal chegou em paid. Falha só gera log; o fluxo
// principal nunca depende do webhook.
func (wh *Webhook) DealPaid(dealID uint, customer string, total decimal.Decimal) {
	if wh == nil || wh.URL == "" {
		return
	}
	payload := map[string]interface{}{
		"event":    "deal.paid",
		"dealId":   dealID,
		"customer": customer,
		"total":    total,
	}
	body, _ := json.Marshal(payload)

	resp, err := http.Post(wh.URL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		log.Printf("failed to send deal.paid webhook: %v", err)
		return
	}
	defer resp.Body.Close()
}
