// Package resilience contiene el circuit breaker que protege las llamadas al
// WS de SUNAT (Cerrado → Abierto → Semiabierto). Cuando el servicio se cae,
// el barrido de conciliación deja de insistir hasta que la sonda detecta
// recuperación.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// Estado del circuito.
type Estado int

const (
	Cerrado    Estado = iota // operación normal, las llamadas pasan
	Abierto                  // disparado, todas las llamadas fallan de inmediato
	Semiabierto              // sondeo, se permite una llamada de prueba
)

func (e Estado) String() string {
	switch e {
	case Cerrado:
		return "cerrado"
	case Abierto:
		return "abierto"
	case Semiabierto:
		return "semiabierto"
	default:
		return "desconocido"
	}
}

// ErrCircuitoAbierto se devuelve cuando Execute se llama con el circuito abierto.
var ErrCircuitoAbierto = errors.New("circuito abierto: WS SUNAT no disponible")

// Config parámetros del circuito.
type Config struct {
	UmbralFallos  int           // fallos consecutivos para abrir
	UmbralExitos  int           // éxitos consecutivos en semiabierto para cerrar
	TiempoAbierto time.Duration // cuánto permanece abierto antes de sondear
}

// CircuitBreaker implementación thread-safe del patrón.
type CircuitBreaker struct {
	mu            sync.Mutex
	estado        Estado
	fallos        int
	exitos        int
	ultimoFallo   time.Time
	umbralFallos  int
	umbralExitos  int
	tiempoAbierto time.Duration
}

// New crea un circuito en estado Cerrado.
func New(cfg Config) *CircuitBreaker {
	if cfg.UmbralFallos <= 0 {
		cfg.UmbralFallos = 5
	}
	if cfg.UmbralExitos <= 0 {
		cfg.UmbralExitos = 2
	}
	if cfg.TiempoAbierto <= 0 {
		cfg.TiempoAbierto = time.Minute
	}
	return &CircuitBreaker{
		estado:        Cerrado,
		umbralFallos:  cfg.UmbralFallos,
		umbralExitos:  cfg.UmbralExitos,
		tiempoAbierto: cfg.TiempoAbierto,
	}
}

// Estado devuelve el estado actual, aplicando la transición automática
// Abierto → Semiabierto cuando venció el tiempo de espera.
func (cb *CircuitBreaker) Estado() Estado {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.estado == Abierto && time.Since(cb.ultimoFallo) >= cb.tiempoAbierto {
		cb.estado = Semiabierto
		cb.exitos = 0
	}
	return cb.estado
}

// Execute ejecuta fn a través del circuito. Devuelve ErrCircuitoAbierto de
// inmediato si el circuito está abierto.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if cb.Estado() == Abierto {
		return ErrCircuitoAbierto
	}

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.registrarFallo()
		return err
	}
	cb.registrarExito()
	return nil
}

// registrarFallo debe llamarse con el lock tomado.
func (cb *CircuitBreaker) registrarFallo() {
	cb.fallos++
	cb.ultimoFallo = time.Now()

	switch cb.estado {
	case Cerrado:
		if cb.fallos >= cb.umbralFallos {
			cb.estado = Abierto
			cb.exitos = 0
		}
	case Semiabierto:
		// la sonda falló: de vuelta a abierto
		cb.estado = Abierto
		cb.fallos = 0
	}
}

// registrarExito debe llamarse con el lock tomado.
func (cb *CircuitBreaker) registrarExito() {
	switch cb.estado {
	case Cerrado:
		cb.fallos = 0
	case Semiabierto:
		cb.exitos++
		if cb.exitos >= cb.umbralExitos {
			cb.estado = Cerrado
			cb.fallos = 0
			cb.exitos = 0
		}
	}
}
