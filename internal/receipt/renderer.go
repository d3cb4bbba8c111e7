// internal/receipt/renderer.go
package receipt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ApexRestoration/api-sales/internal/deal"
	"github.com/shopspring/decimal"
)

// PaymentDetails é o que o renderizador recebe além do snapshot do deal.
type PaymentDetails struct {
	Kind        Kind            `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	DatePaid    time.Time       `json:"datePaid"`
	Method      string          `json:"method"`
	CheckNumber string          `json:"checkNumber"`
}

// Renderer gera o artefato do recibo. The rendering itself (signature
// image, homeowner/rep/company fields) happens elsewhere; only the
// returned handle is stored.
type Renderer interface {
	Render(d *deal.Deal, details PaymentDetails) (string, error)
}

// HTTPRenderer envia o snapshot para um serviço de template e devolve o
// handle do artefato gerado.
type HTTPRenderer struct {
	URL string
}

func NewHTTPRenderer(url string) *HTTPRenderer {
	return &HTTPRenderer{URL: url}
}

func (r *HTTPRenderer) Render(d *deal.Deal, details PaymentDetails) (string, error) {
	payload := map[string]interface{}{
		"deal":    d,
		"payment": details,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode render payload: %w", err)
	}

	resp, err := http.Post(r.URL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("call renderer: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("renderer returned status %d", resp.StatusCode)
	}

	var out struct {
		ArtifactURL string `json:"artifactUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode renderer response: %w", err)
	}
	return out.ArtifactURL, nil
}
