// pkg/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config - estructura principal de configuración
type Config struct {
	App      AppConfig      `koanf:"app"`
	HTTP     HTTPConfig     `koanf:"http"`
	Log      LogConfig      `koanf:"log"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Tracing  TracingConfig  `koanf:"tracing"`
	Database DatabaseConfig `koanf:"database"`
	Cache    CacheConfig    `koanf:"cache"`
	ETL      ETLConfig      `koanf:"etl"`
	KPI      KPIConfig      `koanf:"kpi"`
	Report   ReportConfig   `koanf:"report"`
}

// AppConfig - ajustes generales de la aplicación
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
	Debug       bool   `koanf:"debug"`
}

// HTTPConfig - ajustes del servidor HTTP
type HTTPConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORS            CORSConfig    `koanf:"cors"`
}

// CORSConfig - ajustes de CORS
type CORSConfig struct {
	Enabled          bool     `koanf:"enabled"`
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

// LogConfig - ajustes de logging
type LogConfig struct {
	Level      string `koanf:"level"`       // debug, info, warn, error
	Format     string `koanf:"format"`      // json, text
	Output     string `koanf:"output"`      // stdout, stderr, file
	FilePath   string `koanf:"file_path"`   // ruta del archivo de logs
	MaxSize    int    `koanf:"max_size"`    // MB
	MaxBackups int    `koanf:"max_backups"` // cantidad de respaldos
	MaxAge     int    `koanf:"max_age"`     // días
	Compress   bool   `koanf:"compress"`
}

// MetricsConfig - ajustes de métricas Prometheus
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Port      int    `koanf:"port"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
}

// TracingConfig - ajustes de OpenTelemetry
type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// DatabaseConfig - ajustes de la base de datos
type DatabaseConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Database        string        `koanf:"database"`
	Username        string        `koanf:"username"`
	Password        string        `koanf:"password"`
	SSLMode         string        `koanf:"ssl_mode"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

// DSN devuelve la cadena de conexión para postgres
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.Username, d.Password, d.Database, d.SSLMode,
	)
}

// CacheConfig - ajustes de caché
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Driver     string        `koanf:"driver"` // redis, memory
	Host       string        `koanf:"host"`
	Port       int           `koanf:"port"`
	Password   string        `koanf:"password"`
	DB         int           `koanf:"db"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
	MaxEntries int           `koanf:"max_entries"` // para in-memory
}

// Address devuelve la dirección del caché
func (c CacheConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ETLConfig - ajustes del cargador de archivos Excel
type ETLConfig struct {
	CountersFile string `koanf:"counters_file"` // libro con contadores crudos
	SitesFile    string `koanf:"sites_file"`    // libro con el catálogo de sitios
	Sheet        string `koanf:"sheet"`         // hoja a leer dentro del libro
	BatchSize    int    `koanf:"batch_size"`    // filas por lote de inserción
	Truncate     bool   `koanf:"truncate"`      // vaciar las tablas antes de cargar
}

// UmbralConfig - umbral de semáforo para un KPI
type UmbralConfig struct {
	Verde float64 `koanf:"verde"`
	Rojo  float64 `koanf:"rojo"`
}

// KPIConfig - umbrales de clasificación por indicador.
// Los valores por defecto replican los acordados con el operador;
// se pueden sobreescribir por archivo o ambiente sin recompilar.
type KPIConfig struct {
	Disponibilidad        UmbralConfig `koanf:"disponibilidad"`
	Accesibilidad         UmbralConfig `koanf:"accesibilidad"`
	RetenibilidadPromedio UmbralConfig `koanf:"retenibilidad_promedio"`
	RetenibilidadTecnica  UmbralConfig `koanf:"retenibilidad_tecnica"`
	RetenibilidadUsuario  UmbralConfig `koanf:"retenibilidad_usuario"`
}

// ReportConfig - ajustes de los reportes exportados
type ReportConfig struct {
	CompanyName string    `koanf:"company_name"`
	SheetName   string    `koanf:"sheet_name"`
	PDF         PDFConfig `koanf:"pdf"`
}

// PDFConfig - ajustes del generador PDF
type PDFConfig struct {
	PageSize    string `koanf:"page_size"`   // A4, Letter, Legal
	Orientation string `koanf:"orientation"` // portrait, landscape
	MaxRows     int    `koanf:"max_rows"`    // filas máximas por reporte
}

// Validate verifica la configuración
func (c *Config) Validate() error {
	var errs []string

	if c.App.Name == "" {
		errs = append(errs, "app.name is required")
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Sprintf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	umbrales := map[string]UmbralConfig{
		"kpi.disponibilidad":         c.KPI.Disponibilidad,
		"kpi.accesibilidad":          c.KPI.Accesibilidad,
		"kpi.retenibilidad_promedio": c.KPI.RetenibilidadPromedio,
		"kpi.retenibilidad_tecnica":  c.KPI.RetenibilidadTecnica,
		"kpi.retenibilidad_usuario":  c.KPI.RetenibilidadUsuario,
	}
	for nombre, u := range umbrales {
		if u.Rojo > u.Verde {
			errs = append(errs, fmt.Sprintf("%s: rojo (%.2f) must not exceed verde (%.2f)", nombre, u.Rojo, u.Verde))
		}
	}

	if c.ETL.BatchSize < 0 {
		errs = append(errs, "etl.batch_size must be non-negative")
	}

	validPageSizes := map[string]bool{"A4": true, "Letter": true, "Legal": true}
	if c.Report.PDF.PageSize != "" && !validPageSizes[c.Report.PDF.PageSize] {
		errs = append(errs, fmt.Sprintf("report.pdf.page_size must be one of: A4, Letter, Legal, got %s", c.Report.PDF.PageSize))
	}

	validOrientations := map[string]bool{"portrait": true, "landscape": true}
	if c.Report.PDF.Orientation != "" && !validOrientations[c.Report.PDF.Orientation] {
		errs = append(errs, fmt.Sprintf("report.pdf.orientation must be one of: portrait, landscape, got %s", c.Report.PDF.Orientation))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsDevelopment verifica el modo de desarrollo
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "dev"
}

// IsProduction verifica el modo de producción
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production" || c.App.Environment == "prod"
}
