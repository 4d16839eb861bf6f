package sunat

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/maparedes/Facturacion-api/internal/domain/cpe"
	"github.com/maparedes/Facturacion-api/pkg/sunat"
)

// ── Constantes del WS SUNAT ───────────────────────────────────────────────────

const (
	soapNS     = "http://schemas.xmlsoap.org/soap/envelope/"
	serviceNS  = "http://service.sunat.gob.pe"
	wsseNS     = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd"
	actionBase = "urn:"

	// statusCode de getStatus (procesamiento asíncrono por ticket)
	statusEnProceso   = "98"
	statusConErrores  = "99"
	maxResponseLength = 4 << 20 // el CDR viaja en Base64 dentro del body
)

// Credentials credenciales SOL del emisor. El username del WS es la
// concatenación {RUC}{usuario secundario}; ver sunat.SOLUsername.
type Credentials struct {
	RUC     string
	Usuario string
	Clave   string
}

// Transmitter define el puerto de salida hacia el WS de SUNAT. La
// implementación concreta usa SOAP; para tests se inyecta un doble.
type Transmitter interface {
	// SendBill envía el ZIP del comprobante firmado. fileName debe coincidir
	// con el nombre de la entrada interna del ZIP.
	SendBill(ctx context.Context, endpoint string, creds Credentials, fileName string, zipBytes []byte) (cpe.Outcome, error)
	// GetStatusCDR reconsulta la constancia de un comprobante ya enviado.
	GetStatusCDR(ctx context.Context, endpoint string, creds Credentials, ruc, tipo, serie string, numero int64) (cpe.Outcome, error)
	// GetStatus consulta un ticket de procesamiento asíncrono.
	GetStatus(ctx context.Context, endpoint string, creds Credentials, ticket string) (cpe.Outcome, error)
}

// ── Implementación SOAP ───────────────────────────────────────────────────────

// SOAPClient implementa Transmitter contra el billService de SUNAT.
// Usa net/http de la stdlib; el WS es SOAP 1.1 plano y no amerita un stack WS-*.
type SOAPClient struct {
	httpClient *http.Client
}

// NewSOAPClient construye el cliente con un timeout de red generoso, el WS de
// SUNAT puede tardar varios segundos en responder bajo carga.
func NewSOAPClient(timeout time.Duration) *SOAPClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &SOAPClient{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ── Estructuras SOAP de petición ──────────────────────────────────────────────

type soapEnvelope struct {
	XMLName   xml.Name   `xml:"soapenv:Envelope"`
	XmlnsSoap string     `xml:"xmlns:soapenv,attr"`
	XmlnsSer  string     `xml:"xmlns:ser,attr"`
	XmlnsWsse string     `xml:"xmlns:wsse,attr"`
	Header    soapHeader `xml:"soapenv:Header"`
	Body      soapBody   `xml:"soapenv:Body"`
}

type soapHeader struct {
	Security wsseSecurity `xml:"wsse:Security"`
}

type wsseSecurity struct {
	UsernameToken wsseUsernameToken `xml:"wsse:UsernameToken"`
}

type wsseUsernameToken struct {
	Username string `xml:"wsse:Username"`
	Password string `xml:"wsse:Password"`
}

type soapBody struct {
	Content interface{}
}

func (b soapBody) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.Encode(b.Content); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

type sendBillBody struct {
	XMLName     xml.Name `xml:"ser:sendBill"`
	FileName    string   `xml:"fileName"`
	ContentFile string   `xml:"contentFile"` // ZIP en Base64
}

type getStatusCdrBody struct {
	XMLName xml.Name `xml:"ser:getStatusCdr"`
	RUC     string   `xml:"rucComprobante"`
	Tipo    string   `xml:"tipoComprobante"`
	Serie   string   `xml:"serieComprobante"`
	Numero  int64    `xml:"numeroComprobante"`
}

type getStatusBody struct {
	XMLName xml.Name `xml:"ser:getStatus"`
	Ticket  string   `xml:"ticket"`
}

// ── Estructuras SOAP de respuesta ─────────────────────────────────────────────

// encoding/xml empareja por nombre local, así que "faultstring" cubre tanto
// <faultstring> como <soap-env:faultstring>; SUNAT usa ambas formas según el
// nodo que responda.
type soapResponseEnvelope struct {
	Body soapResponseBody `xml:"Body"`
}

type soapResponseBody struct {
	SendBillResponse     *sendBillResponse     `xml:"sendBillResponse"`
	GetStatusResponse    *getStatusResponse    `xml:"getStatusResponse"`
	GetStatusCdrResponse *getStatusCdrResponse `xml:"getStatusCdrResponse"`
	Fault                *soapFault            `xml:"Fault"`
}

type sendBillResponse struct {
	ApplicationResponse string `xml:"applicationResponse"`
}

type getStatusResponse struct {
	Status statusResponse `xml:"status"`
}

type getStatusCdrResponse struct {
	Status statusResponse `xml:"statusCdr"`
}

type statusResponse struct {
	StatusCode    string `xml:"statusCode"`
	StatusMessage string `xml:"statusMessage"`
	Content       string `xml:"content"` // CDR en Base64
}

type soapFault struct {
	FaultCode   string `xml:"faultcode"`
	FaultString string `xml:"faultstring"`
}

// ── Operaciones ───────────────────────────────────────────────────────────────

// SendBill envía el comprobante y clasifica la respuesta:
// applicationResponse → Aceptado (con CDR), faultstring → Rechazado,
// 200 sin cuerpo reconocible → Pendiente. Los fallos de red y los HTTP no-200
// sin fault retornan *cpe.TransportError para que el barrido reintente.
func (c *SOAPClient) SendBill(ctx context.Context, endpoint string, creds Credentials, fileName string, zipBytes []byte) (cpe.Outcome, error) {
	body := &sendBillBody{
		FileName:    fileName,
		ContentFile: base64.StdEncoding.EncodeToString(zipBytes),
	}
	raw, err := c.call(ctx, endpoint, creds, "sendBill", body)
	if err != nil {
		return cpe.Outcome{}, err
	}
	return c.classifySendBill(raw)
}

// GetStatusCDR reconsulta la constancia de recepción de un comprobante.
func (c *SOAPClient) GetStatusCDR(ctx context.Context, endpoint string, creds Credentials, ruc, tipo, serie string, numero int64) (cpe.Outcome, error) {
	body := &getStatusCdrBody{RUC: ruc, Tipo: tipo, Serie: serie, Numero: numero}
	raw, err := c.call(ctx, endpoint, creds, "getStatusCdr", body)
	if err != nil {
		return cpe.Outcome{}, err
	}
	return c.classifyStatus(raw)
}

// GetStatus consulta el ticket de un envío asíncrono. statusCode 98 = aún en
// proceso, 99 = procesado con errores, cualquier otro con contenido = aceptado.
func (c *SOAPClient) GetStatus(ctx context.Context, endpoint string, creds Credentials, ticket string) (cpe.Outcome, error) {
	body := &getStatusBody{Ticket: ticket}
	raw, err := c.call(ctx, endpoint, creds, "getStatus", body)
	if err != nil {
		return cpe.Outcome{}, err
	}
	out, err := c.classifyStatus(raw)
	if err == nil && out.Estado == cpe.EstadoPendiente {
		out.Ticket = ticket
	}
	return out, err
}

// call arma el envelope con credenciales WS-Security, ejecuta el POST y
// devuelve el cuerpo crudo. Un HTTP no-200 solo es error de transporte si el
// cuerpo no trae un fault SOAP: SUNAT responde los rechazos con HTTP 500.
func (c *SOAPClient) call(ctx context.Context, endpoint string, creds Credentials, operation string, body interface{}) ([]byte, error) {
	envelope := soapEnvelope{
		XmlnsSoap: soapNS,
		XmlnsSer:  serviceNS,
		XmlnsWsse: wsseNS,
		Header: soapHeader{
			Security: wsseSecurity{
				UsernameToken: wsseUsernameToken{
					Username: sunat.SOLUsername(creds.RUC, creds.Usuario),
					Password: creds.Clave,
				},
			},
		},
		Body: soapBody{Content: body},
	}
	payload, err := xml.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("soap: serializar envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		bytes.NewReader(append([]byte(xml.Header), payload...)))
	if err != nil {
		return nil, fmt.Errorf("soap: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", actionBase+operation)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &cpe.TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseLength))
	if err != nil {
		return nil, &cpe.TransportError{Err: fmt.Errorf("leer respuesta: %w", err)}
	}

	if resp.StatusCode != http.StatusOK && !hasFaultString(raw) {
		return nil, &cpe.TransportError{Err: fmt.Errorf("HTTP %d del WS SUNAT", resp.StatusCode)}
	}
	return raw, nil
}

func hasFaultString(raw []byte) bool {
	var env soapResponseEnvelope
	if err := xml.Unmarshal(raw, &env); err != nil {
		return false
	}
	return env.Body.Fault != nil && env.Body.Fault.FaultString != ""
}

func (c *SOAPClient) classifySendBill(raw []byte) (cpe.Outcome, error) {
	var env soapResponseEnvelope
	if err := xml.Unmarshal(raw, &env); err != nil {
		// 200 con cuerpo no parseable: el comprobante pudo haberse recibido,
		// queda pendiente y la reconsulta por getStatusCdr lo resuelve.
		return cpe.Outcome{
			Estado:  cpe.EstadoPendiente,
			Mensaje: "respuesta SOAP no parseable",
		}, nil
	}
	if env.Body.Fault != nil {
		return cpe.Outcome{
			Estado:  cpe.EstadoRechazado,
			Codigo:  env.Body.Fault.FaultCode,
			Mensaje: env.Body.Fault.FaultString,
		}, nil
	}
	if r := env.Body.SendBillResponse; r != nil && r.ApplicationResponse != "" {
		cdr, err := base64.StdEncoding.DecodeString(r.ApplicationResponse)
		if err != nil {
			return cpe.Outcome{}, &cpe.TransportError{Err: fmt.Errorf("applicationResponse ilegible: %w", err)}
		}
		return cpe.Outcome{Estado: cpe.EstadoAceptado, CDR: cdr}, nil
	}
	// 200 sin fault ni applicationResponse: recibido pero sin confirmación
	return cpe.Outcome{
		Estado:  cpe.EstadoPendiente,
		Mensaje: "SUNAT respondió sin constancia; pendiente de reconsulta",
	}, nil
}

func (c *SOAPClient) classifyStatus(raw []byte) (cpe.Outcome, error) {
	var env soapResponseEnvelope
	if err := xml.Unmarshal(raw, &env); err != nil {
		return cpe.Outcome{
			Estado:  cpe.EstadoPendiente,
			Mensaje: "respuesta SOAP no parseable",
		}, nil
	}
	if env.Body.Fault != nil {
		return cpe.Outcome{
			Estado:  cpe.EstadoRechazado,
			Codigo:  env.Body.Fault.FaultCode,
			Mensaje: env.Body.Fault.FaultString,
		}, nil
	}

	var st *statusResponse
	switch {
	case env.Body.GetStatusResponse != nil:
		st = &env.Body.GetStatusResponse.Status
	case env.Body.GetStatusCdrResponse != nil:
		st = &env.Body.GetStatusCdrResponse.Status
	default:
		return cpe.Outcome{
			Estado:  cpe.EstadoPendiente,
			Mensaje: "respuesta SOAP vacía o inesperada",
		}, nil
	}

	switch st.StatusCode {
	case statusEnProceso:
		return cpe.Outcome{
			Estado:  cpe.EstadoPendiente,
			Codigo:  st.StatusCode,
			Mensaje: st.StatusMessage,
		}, nil
	case statusConErrores:
		return cpe.Outcome{
			Estado:  cpe.EstadoRechazado,
			Codigo:  st.StatusCode,
			Mensaje: st.StatusMessage,
		}, nil
	}

	if st.Content != "" {
		cdr, err := base64.StdEncoding.DecodeString(st.Content)
		if err != nil {
			return cpe.Outcome{}, &cpe.TransportError{Err: fmt.Errorf("content ilegible: %w", err)}
		}
		return cpe.Outcome{Estado: cpe.EstadoAceptado, CDR: cdr, Codigo: st.StatusCode}, nil
	}
	return cpe.Outcome{
		Estado:  cpe.EstadoPendiente,
		Codigo:  st.StatusCode,
		Mensaje: st.StatusMessage,
	}, nil
}

var _ Transmitter = (*SOAPClient)(nil)
