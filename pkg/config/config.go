package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y
// opcionalmente archivo).
type Config struct {
	App     AppConfig
	DB      DBConfig
	JWT     JWTConfig
	HTTP    HTTPConfig
	SUNAT   SUNATConfig
	Sweep   SweepConfig
	Alertas AlertConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env  string // development, staging, production
	Name string
}

// SUNATConfig configuración del WS de facturación electrónica SUNAT.
// La URL efectiva de cada envío sale del registro del emisor (fe_url); estas son
// las URLs por defecto cuando el emisor no tiene una propia.
type SUNATConfig struct {
	BetaURL     string        // Ambiente de pruebas (beta)
	ProdURL     string        // Ambiente de producción
	Env         string        // "beta" | "prod"
	HTTPTimeout time.Duration // timeout de cada llamada SOAP
}

// DefaultEndpoint devuelve la URL por defecto según el ambiente configurado.
func (c SUNATConfig) DefaultEndpoint() string {
	if c.Env == "prod" {
		return c.ProdURL
	}
	return c.BetaURL
}

// SweepConfig configuración del barrido de conciliación de estados.
type SweepConfig struct {
	Interval  time.Duration // intervalo entre barridos
	Grace     time.Duration // antigüedad mínima de un PENDIENTE antes de consultarlo
	BatchSize int           // máximo de comprobantes por barrido
}

// AlertConfig canales de alerta para rechazos (bot de WhatsApp y SMTP).
type AlertConfig struct {
	WhatsAppURL  string // base URL del bot de mensajería; vacío = deshabilitado
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, SUNAT_ENV, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:  getString(v, "APP_ENV", "development"),
			Name: getString(v, "APP_NAME", "facturacion-api"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "facturacion"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "facturacion-api"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		SUNAT: SUNATConfig{
			BetaURL:     getString(v, "SUNAT_BETA_URL", "https://e-beta.sunat.gob.pe/ol-ti-itcpfegem-beta/billService"),
			ProdURL:     getString(v, "SUNAT_PROD_URL", "https://e-factura.sunat.gob.pe/ol-ti-itcpfegem/billService"),
			Env:         getString(v, "SUNAT_ENV", "beta"),
			HTTPTimeout: getDuration(v, "SUNAT_HTTP_TIMEOUT", 60*time.Second),
		},
		Sweep: SweepConfig{
			Interval:  getDuration(v, "SWEEP_INTERVAL", time.Hour),
			Grace:     getDuration(v, "SWEEP_GRACE", 48*time.Hour),
			BatchSize: getInt(v, "SWEEP_BATCH_SIZE", 50),
		},
		Alertas: AlertConfig{
			WhatsAppURL:  getString(v, "ALERT_WHATSAPP_URL", ""),
			SMTPHost:     getString(v, "SMTP_HOST", ""),
			SMTPPort:     getInt(v, "SMTP_PORT", 587),
			SMTPUser:     getString(v, "SMTP_USER", ""),
			SMTPPassword: getString(v, "SMTP_PASSWORD", ""),
		},
	}

	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, _ := strconv.Atoi(v.GetString(key))
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if v.IsSet(key) {
		if d, err := time.ParseDuration(v.GetString(key)); err == nil {
			return d
		}
	}
	return def
}
