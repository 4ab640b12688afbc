package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix    = "KPINET_"
	configEnvVar = "CONFIG_PATH"
)

// Loader carga la configuración desde varias fuentes
type Loader struct {
	k           *koanf.Koanf
	configPaths []string
	envPrefix   string
}

// NewLoader crea un nuevo cargador de configuración
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		k: koanf.New("."),
		configPaths: []string{
			"config.yaml",
			"config/config.yaml",
			"/etc/kpinet/config.yaml",
		},
		envPrefix: envPrefix,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// LoaderOption - opción del cargador
type LoaderOption func(*Loader)

// WithConfigPaths establece las rutas de búsqueda del archivo
func WithConfigPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.configPaths = paths
	}
}

// WithEnvPrefix establece el prefijo de variables de ambiente
func WithEnvPrefix(prefix string) LoaderOption {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// Load carga la configuración con prioridad:
// 1. Defaults (la más baja)
// 2. Archivo de configuración (yaml)
// 3. Variables de ambiente (la más alta)
func (l *Loader) Load() (*Config, error) {
	// 1. Valores por defecto
	if err := l.loadDefaults(); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Archivo de configuración
	if err := l.loadConfigFile(); err != nil {
		// El archivo es opcional
		fmt.Printf("Warning: %v\n", err)
	}

	// 3. Variables de ambiente (sobreescriben el archivo)
	if err := l.loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}

	// 4. Desempacar en la estructura
	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Validar
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadDefaults carga los valores por defecto
func (l *Loader) loadDefaults() error {
	defaults := map[string]any{
		// App
		"app.name":        "kpinet-service",
		"app.version":     "1.0.0",
		"app.environment": "development",
		"app.debug":       false,

		// HTTP
		"http.port":             8080,
		"http.read_timeout":     30 * time.Second,
		"http.write_timeout":    60 * time.Second,
		"http.shutdown_timeout": 10 * time.Second,
		// CORS
		"http.cors.enabled":           true,
		"http.cors.allowed_origins":   []string{"*"},
		"http.cors.allowed_methods":   []string{"GET", "POST", "OPTIONS"},
		"http.cors.allowed_headers":   []string{"Content-Type", "Accept", "Origin", "X-Requested-With"},
		"http.cors.allow_credentials": false,
		"http.cors.max_age":           86400,

		// Log
		"log.level":       "info",
		"log.format":      "json",
		"log.output":      "stdout",
		"log.max_size":    100,
		"log.max_backups": 3,
		"log.max_age":     7,
		"log.compress":    true,

		// Metrics
		"metrics.enabled":   true,
		"metrics.port":      9090,
		"metrics.path":      "/metrics",
		"metrics.namespace": "kpinet",
		"metrics.subsystem": "",

		// Tracing
		"tracing.enabled":      false,
		"tracing.endpoint":     "localhost:4317",
		"tracing.service_name": "kpinet-service",
		"tracing.sample_rate":  0.1,

		// Database
		"database.host":               "localhost",
		"database.port":               5432,
		"database.database":           "kpinet",
		"database.username":           "postgres",
		"database.password":           "",
		"database.ssl_mode":           "disable",
		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  5 * time.Minute,
		"database.conn_max_idle_time": 5 * time.Minute,
		"database.auto_migrate":       true,

		// Cache
		"cache.enabled":     false,
		"cache.driver":      "memory",
		"cache.host":        "localhost",
		"cache.port":        6379,
		"cache.db":          0,
		"cache.default_ttl": 5 * time.Minute,
		"cache.max_entries": 10000,

		// ETL
		"etl.counters_file": "Contadores.xlsx",
		"etl.sites_file":    "Sitios.xlsx",
		"etl.sheet":         "Datos",
		"etl.batch_size":    1000,
		"etl.truncate":      false,

		// Umbrales de semáforo por KPI
		"kpi.disponibilidad.verde":         99.0,
		"kpi.disponibilidad.rojo":          90.0,
		"kpi.accesibilidad.verde":          99.2,
		"kpi.accesibilidad.rojo":           90.0,
		"kpi.retenibilidad_promedio.verde": 98.9,
		"kpi.retenibilidad_promedio.rojo":  90.0,
		"kpi.retenibilidad_tecnica.verde":  99.0,
		"kpi.retenibilidad_tecnica.rojo":   90.0,
		"kpi.retenibilidad_usuario.verde":  98.8,
		"kpi.retenibilidad_usuario.rojo":   90.0,

		// Report
		"report.company_name":    "Red 5G",
		"report.sheet_name":      "KPIs",
		"report.pdf.page_size":   "A4",
		"report.pdf.orientation": "portrait",
		"report.pdf.max_rows":    200,
	}

	return l.k.Load(confmap.Provider(defaults, "."), nil)
}

// loadConfigFile carga la configuración desde un archivo
func (l *Loader) loadConfigFile() error {
	if configPath := os.Getenv(configEnvVar); configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return l.k.Load(file.Provider(configPath), yaml.Parser())
		}
	}

	for _, path := range l.configPaths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			continue
		}

		if _, err := os.Stat(absPath); err == nil {
			return l.k.Load(file.Provider(absPath), yaml.Parser())
		}
	}

	return fmt.Errorf("config file not found in paths: %v", l.configPaths)
}

// loadEnv carga la configuración desde variables de ambiente.
// Usa un mapeo explícito para las llaves que contienen subrayado.
func (l *Loader) loadEnv() error {
	return l.k.Load(env.ProviderWithValue(l.envPrefix, ".", func(envKey string, value string) (string, interface{}) {
		// Quitar el prefijo y pasar a minúsculas
		key := strings.ToLower(strings.TrimPrefix(envKey, l.envPrefix))

		if mappedKey, ok := envKeyMappings[key]; ok {
			key = mappedKey
		} else {
			// Por defecto reemplazamos los subrayados por puntos
			key = strings.ReplaceAll(key, "_", ".")
		}

		// Los campos slice se separan por coma
		if isSliceField(key) {
			return key, splitAndTrim(value)
		}

		return key, value
	}), nil)
}

// envKeyMappings - mapeo de variables de ambiente a llaves del config.
// Necesario para los campos cuyos nombres contienen subrayado.
var envKeyMappings = map[string]string{
	// HTTP CORS
	"http_cors_enabled":           "http.cors.enabled",
	"http_cors_allowed_origins":   "http.cors.allowed_origins",
	"http_cors_allowed_methods":   "http.cors.allowed_methods",
	"http_cors_allowed_headers":   "http.cors.allowed_headers",
	"http_cors_allow_credentials": "http.cors.allow_credentials",
	"http_cors_max_age":           "http.cors.max_age",

	// HTTP
	"http_port":             "http.port",
	"http_read_timeout":     "http.read_timeout",
	"http_write_timeout":    "http.write_timeout",
	"http_shutdown_timeout": "http.shutdown_timeout",

	// Database
	"database_host":               "database.host",
	"database_port":               "database.port",
	"database_database":           "database.database",
	"database_username":           "database.username",
	"database_password":           "database.password",
	"database_ssl_mode":           "database.ssl_mode",
	"database_max_open_conns":     "database.max_open_conns",
	"database_max_idle_conns":     "database.max_idle_conns",
	"database_conn_max_lifetime":  "database.conn_max_lifetime",
	"database_conn_max_idle_time": "database.conn_max_idle_time",
	"database_auto_migrate":       "database.auto_migrate",

	// Cache
	"cache_enabled":     "cache.enabled",
	"cache_driver":      "cache.driver",
	"cache_host":        "cache.host",
	"cache_port":        "cache.port",
	"cache_password":    "cache.password",
	"cache_db":          "cache.db",
	"cache_default_ttl": "cache.default_ttl",
	"cache_max_entries": "cache.max_entries",

	// ETL
	"etl_counters_file": "etl.counters_file",
	"etl_sites_file":    "etl.sites_file",
	"etl_sheet":         "etl.sheet",
	"etl_batch_size":    "etl.batch_size",
	"etl_truncate":      "etl.truncate",

	// Umbrales
	"kpi_disponibilidad_verde":         "kpi.disponibilidad.verde",
	"kpi_disponibilidad_rojo":          "kpi.disponibilidad.rojo",
	"kpi_accesibilidad_verde":          "kpi.accesibilidad.verde",
	"kpi_accesibilidad_rojo":           "kpi.accesibilidad.rojo",
	"kpi_retenibilidad_promedio_verde": "kpi.retenibilidad_promedio.verde",
	"kpi_retenibilidad_promedio_rojo":  "kpi.retenibilidad_promedio.rojo",
	"kpi_retenibilidad_tecnica_verde":  "kpi.retenibilidad_tecnica.verde",
	"kpi_retenibilidad_tecnica_rojo":   "kpi.retenibilidad_tecnica.rojo",
	"kpi_retenibilidad_usuario_verde":  "kpi.retenibilidad_usuario.verde",
	"kpi_retenibilidad_usuario_rojo":   "kpi.retenibilidad_usuario.rojo",

	// Log
	"log_level":       "log.level",
	"log_format":      "log.format",
	"log_output":      "log.output",
	"log_file_path":   "log.file_path",
	"log_max_size":    "log.max_size",
	"log_max_backups": "log.max_backups",
	"log_max_age":     "log.max_age",
	"log_compress":    "log.compress",

	// Report
	"report_company_name":    "report.company_name",
	"report_sheet_name":      "report.sheet_name",
	"report_pdf_page_size":   "report.pdf.page_size",
	"report_pdf_orientation": "report.pdf.orientation",
	"report_pdf_max_rows":    "report.pdf.max_rows",
}

// sliceFields - campos que se parsean como slice
var sliceFields = map[string]bool{
	"http.cors.allowed_origins": true,
	"http.cors.allowed_methods": true,
	"http.cors.allowed_headers": true,
}

func isSliceField(key string) bool {
	return sliceFields[key]
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// MustLoad carga la configuración o entra en pánico
func MustLoad(opts ...LoaderOption) *Config {
	cfg, err := NewLoader(opts...).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Load - función de conveniencia con las opciones por defecto
func Load() (*Config, error) {
	return NewLoader().Load()
}

// LoadWithServiceDefaults carga la configuración ajustada a un servicio
func LoadWithServiceDefaults(serviceName string, defaultPort int) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if cfg.HTTP.Port == 8080 && defaultPort != 0 {
		cfg.HTTP.Port = defaultPort
	}

	if cfg.App.Name == "kpinet-service" {
		cfg.App.Name = serviceName
	}

	return cfg, nil
}
