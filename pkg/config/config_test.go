package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := NewLoader(WithConfigPaths("no-existe.yaml")).Load()
	require.NoError(t, err)

	assert.Equal(t, "kpinet-service", cfg.App.Name)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "Datos", cfg.ETL.Sheet)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 5*time.Minute, cfg.Cache.DefaultTTL)

	// Umbrales acordados con el operador
	assert.Equal(t, 99.0, cfg.KPI.Disponibilidad.Verde)
	assert.Equal(t, 90.0, cfg.KPI.Disponibilidad.Rojo)
	assert.Equal(t, 99.2, cfg.KPI.Accesibilidad.Verde)
	assert.Equal(t, 98.9, cfg.KPI.RetenibilidadPromedio.Verde)
	assert.Equal(t, 99.0, cfg.KPI.RetenibilidadTecnica.Verde)
	assert.Equal(t, 98.8, cfg.KPI.RetenibilidadUsuario.Verde)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("KPINET_HTTP_PORT", "9999")
	t.Setenv("KPINET_KPI_DISPONIBILIDAD_VERDE", "99.5")
	t.Setenv("KPINET_LOG_LEVEL", "debug")

	cfg, err := NewLoader(WithConfigPaths("no-existe.yaml")).Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.HTTP.Port)
	assert.Equal(t, 99.5, cfg.KPI.Disponibilidad.Verde)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_ArchivoYAML(t *testing.T) {
	contenido := []byte(`
app:
  name: dashboard-svc
kpi:
  retenibilidad_usuario:
    verde: 99.1
    rojo: 85
`)
	path := t.TempDir() + "/config.yaml"
	require.NoError(t, os.WriteFile(path, contenido, 0644))

	cfg, err := NewLoader(WithConfigPaths(path)).Load()
	require.NoError(t, err)

	assert.Equal(t, "dashboard-svc", cfg.App.Name)
	assert.Equal(t, 99.1, cfg.KPI.RetenibilidadUsuario.Verde)
	assert.Equal(t, 85.0, cfg.KPI.RetenibilidadUsuario.Rojo)
	// El resto conserva los defaults
	assert.Equal(t, 99.0, cfg.KPI.Disponibilidad.Verde)
}

func TestValidate_PuertoInvalido(t *testing.T) {
	cfg, err := NewLoader(WithConfigPaths("no-existe.yaml")).Load()
	require.NoError(t, err)

	cfg.HTTP.Port = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_UmbralIncoherente(t *testing.T) {
	cfg, err := NewLoader(WithConfigPaths("no-existe.yaml")).Load()
	require.NoError(t, err)

	cfg.KPI.Accesibilidad = UmbralConfig{Verde: 80, Rojo: 90}
	assert.Error(t, cfg.Validate())
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "db", Port: 5432, Username: "u", Password: "p",
		Database: "kpinet", SSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=kpinet sslmode=disable", d.DSN())
}

func TestEntornos(t *testing.T) {
	cfg := &Config{App: AppConfig{Environment: "development"}}
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	cfg.App.Environment = "production"
	assert.True(t, cfg.IsProduction())
}
