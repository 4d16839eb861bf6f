package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maparedes/Facturacion-api/internal/domain"
	"github.com/maparedes/Facturacion-api/internal/domain/cpe"
	"github.com/maparedes/Facturacion-api/internal/domain/entity"
)

func TestConsultarEstado_TerminalRespondeSinTocarLaRed(t *testing.T) {
	b := armarServicio(t)
	b.ventas.listado = []*entity.Venta{{
		ID: "v1", EmisorRUC: "20136564367", TipoDocumento: "03",
		Serie: "B001", Correlativo: 4, EstadoSUNAT: cpe.EstadoAceptado,
	}}

	v, err := b.svc.ConsultarEstado(context.Background(), "20136564367", "03", "B001", 4)
	require.NoError(t, err)

	assert.Equal(t, cpe.EstadoAceptado, v.EstadoSUNAT)
	assert.Empty(t, b.transmitter.cdrs, "un estado terminal no genera consultas al WS")
	assert.Empty(t, b.transmitter.statuses)
}

func TestConsultarEstado_PendienteReconsultaYPersiste(t *testing.T) {
	b := armarServicio(t)
	b.ventas.listado = []*entity.Venta{{
		ID: "v1", EmisorRUC: "20136564367", TipoDocumento: "03",
		Serie: "B001", Correlativo: 4, EstadoSUNAT: cpe.EstadoPendiente,
	}}
	b.transmitter.cdrOut = cpe.Outcome{Estado: cpe.EstadoAceptado, CDR: []byte("cdr")}

	v, err := b.svc.ConsultarEstado(context.Background(), "20136564367", "03", "B001", 4)
	require.NoError(t, err)

	require.Equal(t, []string{"B001"}, b.transmitter.cdrs)
	assert.Equal(t, cpe.EstadoAceptado, v.EstadoSUNAT)
	assert.Equal(t, cpe.EstadoAceptado, b.ventas.updates["v1"].Estado, "el resultado en línea queda persistido")
}

func TestConsultarEstado_ConTicketEnrutaAGetStatus(t *testing.T) {
	b := armarServicio(t)
	b.ventas.listado = []*entity.Venta{{
		ID: "v1", EmisorRUC: "20136564367", TipoDocumento: "03",
		Serie: "B001", Correlativo: 4, EstadoSUNAT: cpe.EstadoPendiente,
		Nota: "Ticket: 777",
	}}
	b.transmitter.statusOut = cpe.Outcome{Estado: cpe.EstadoPendiente, Ticket: "777", Mensaje: "En proceso"}

	v, err := b.svc.ConsultarEstado(context.Background(), "20136564367", "03", "B001", 4)
	require.NoError(t, err)

	require.Equal(t, []string{"777"}, b.transmitter.statuses)
	assert.Empty(t, b.transmitter.cdrs)
	assert.Equal(t, cpe.EstadoPendiente, v.EstadoSUNAT)
	assert.Equal(t, "777", v.Ticket, "el ticket se conserva mientras siga en proceso")
}

func TestConsultarEstado_NoEncontrado(t *testing.T) {
	b := armarServicio(t)

	_, err := b.svc.ConsultarEstado(context.Background(), "20136564367", "03", "B001", 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
