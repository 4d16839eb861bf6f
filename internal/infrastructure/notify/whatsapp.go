package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/maparedes/Facturacion-api/internal/domain/entity"
)

// WhatsAppClient delega el envío de mensajes a un bot HTTP externo. Aísla las
// caídas del bot del backend: un POST fallido solo pierde la alerta.
type WhatsAppClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewWhatsAppClient construye el canal. Devuelve nil si no hay URL configurada
// (canal deshabilitado).
func NewWhatsAppClient(baseURL string) *WhatsAppClient {
	if baseURL == "" {
		return nil
	}
	return &WhatsAppClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type mensajeRechazo struct {
	RUC         string `json:"ruc"`
	Comprobante string `json:"comprobante"`
	Motivo      string `json:"motivo"`
}

// NotificarRechazo envía el aviso al bot de mensajería.
func (c *WhatsAppClient) NotificarRechazo(ctx context.Context, v *entity.Venta, emisor *entity.Emisor, motivo string) error {
	payload, err := json.Marshal(mensajeRechazo{
		RUC:         emisor.RUC,
		Comprobante: v.DocumentID(),
		Motivo:      motivo,
	})
	if err != nil {
		return fmt.Errorf("whatsapp: serializar mensaje: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/alertas", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("whatsapp: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: bot inalcanzable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("whatsapp: el bot respondió %d", resp.StatusCode)
	}
	return nil
}
