// Package notify implementa los canales de alerta de rechazos: correo SMTP y
// bot de WhatsApp. Ambos implementan billing.Notifier; el orquestador hace
// fan-out y un canal caído no bloquea a los demás.
package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"

	"github.com/maparedes/Facturacion-api/internal/domain/entity"
	"github.com/maparedes/Facturacion-api/pkg/config"
)

// Mailer envía alertas de rechazo por correo a los destinatarios del emisor.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
}

// NewMailer construye el canal SMTP. Devuelve nil si no hay host configurado
// (canal deshabilitado).
func NewMailer(cfg config.AlertConfig) *Mailer {
	if cfg.SMTPHost == "" {
		return nil
	}
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// NotificarRechazo envía el aviso a los correos de alerta del emisor.
func (m *Mailer) NotificarRechazo(ctx context.Context, v *entity.Venta, emisor *entity.Emisor, motivo string) error {
	if len(emisor.AlertaCorreos) == 0 {
		return nil
	}
	e := email.NewEmail()
	e.From = m.user
	e.To = emisor.AlertaCorreos
	e.Subject = fmt.Sprintf("SUNAT rechazó el comprobante %s", v.DocumentID())
	e.Text = []byte(fmt.Sprintf(
		"SUNAT rechazó el comprobante %s-%s del emisor %s.\n\nMotivo: %s\n\nEl comprobante requiere corrección manual (nota de crédito o reemisión).",
		v.TipoDocumento, v.DocumentID(), emisor.RazonSocial, motivo,
	))

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	if err := e.Send(m.addr, auth); err != nil {
		return fmt.Errorf("mailer: enviar alerta: %w", err)
	}
	return nil
}
