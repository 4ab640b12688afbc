package service

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dguevara8/ucr-electrical-project/pkg/cache"
	"github.com/dguevara8/ucr-electrical-project/pkg/config"
	"github.com/dguevara8/ucr-electrical-project/pkg/kpi"
	"github.com/dguevara8/ucr-electrical-project/pkg/logger"
	"github.com/dguevara8/ucr-electrical-project/services/dashboard-svc/internal/repository"
)

func TestMain(m *testing.M) {
	logger.Init("error")
	os.Exit(m.Run())
}

// ============================================================
// FAKE REPOSITORY
// ============================================================

type fakeRepo struct {
	registros []kpi.Registro
	sitios    []kpi.Sitio
	err       error

	llamadasRegistros int
	ultimoFiltro      *repository.Filtro
}

func (f *fakeRepo) Registros(ctx context.Context, filtro *repository.Filtro) ([]kpi.Registro, error) {
	f.llamadasRegistros++
	f.ultimoFiltro = filtro
	if f.err != nil {
		return nil, f.err
	}
	return f.registros, nil
}

func (f *fakeRepo) Sitios(ctx context.Context) ([]kpi.Sitio, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sitios, nil
}

func (f *fakeRepo) Sitio(ctx context.Context, id kpi.SiteID) (*kpi.Sitio, error) {
	for i := range f.sitios {
		if f.sitios[i].ID == id {
			return &f.sitios[i], nil
		}
	}
	return nil, repository.ErrSitioNoEncontrado
}

func (f *fakeRepo) RangoFechas(ctx context.Context) (time.Time, time.Time, error) {
	if len(f.registros) == 0 {
		return time.Time{}, time.Time{}, nil
	}
	return f.registros[0].Fecha, f.registros[len(f.registros)-1].Fecha, nil
}

// ============================================================
// HELPER FUNCTIONS
// ============================================================

func registro(fecha time.Time, site string, disponibles, total int64) kpi.Registro {
	return kpi.Registro{
		Fecha:  fecha,
		Hora:   "00:00",
		SiteID: kpi.SiteID(site),
		Sector: "S1",
		Contadores: kpi.Contadores{
			DenomCellAvail:   total,
			SamplesCellAvail: disponibles,
		},
	}
}

func coord(v float64) *float64 { return &v }

// ============================================================
// AGGREGATION TESTS
// ============================================================

func TestService_Diario(t *testing.T) {
	fecha := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepo{
		registros: []kpi.Registro{
			registro(fecha, "7", 40, 50),
			registro(fecha, "7", 55, 50),
			registro(fecha, "12", 90, 100),
		},
		sitios: []kpi.Sitio{
			{ID: "7", Nombre: "Grecia"},
		},
	}
	svc := New(repo, nil)

	filas, err := svc.Diario(context.Background(), nil)

	require.NoError(t, err)
	require.Len(t, filas, 2)

	// Las dos filas del sitio 7 se suman antes de derivar el KPI
	assert.Equal(t, kpi.SiteID("7"), filas[0].SiteID)
	assert.Equal(t, "Grecia", filas[0].SiteName)
	assert.InDelta(t, 95.0, filas[0].Disponibilidad, 1e-9)

	// Sitio con mediciones pero ausente del catálogo
	assert.Equal(t, kpi.SiteID("12"), filas[1].SiteID)
	assert.Equal(t, SinNombreSite, filas[1].SiteName)
}

func TestService_PorSitio_PropagaFiltro(t *testing.T) {
	desde := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepo{}
	svc := New(repo, nil)

	consulta := &Consulta{Desde: &desde, Sitios: []kpi.SiteID{"7"}}
	filas, err := svc.PorSitio(context.Background(), consulta)

	require.NoError(t, err)
	assert.Empty(t, filas)
	require.NotNil(t, repo.ultimoFiltro)
	assert.Equal(t, &desde, repo.ultimoFiltro.Desde)
	assert.Equal(t, []kpi.SiteID{"7"}, repo.ultimoFiltro.Sitios)
}

func TestService_PorCluster(t *testing.T) {
	fecha := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepo{
		registros: []kpi.Registro{
			registro(fecha, "1", 95, 100), // Zona Sur
			registro(fecha, "7", 90, 100), // Alajuela
			registro(fecha, "8", 80, 100), // Alajuela
		},
	}
	svc := New(repo, nil)

	filas, err := svc.PorCluster(context.Background(), nil)

	require.NoError(t, err)
	require.Len(t, filas, 2)
	assert.Equal(t, "Zona Sur", filas[0].Cluster)
	assert.Equal(t, "Alajuela", filas[1].Cluster)
	assert.InDelta(t, 85.0, filas[1].Disponibilidad, 1e-9)
}

func TestService_TotalRed(t *testing.T) {
	fecha := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepo{
		registros: []kpi.Registro{
			registro(fecha, "1", 95, 100),
			registro(fecha, "2", 85, 100),
		},
	}
	svc := New(repo, nil)

	total, err := svc.TotalRed(context.Background(), nil)

	require.NoError(t, err)
	require.NotNil(t, total)
	assert.InDelta(t, 90.0, total.Disponibilidad, 1e-9)
}

func TestService_TotalRed_SinDatos(t *testing.T) {
	svc := New(&fakeRepo{}, nil)

	total, err := svc.TotalRed(context.Background(), nil)

	require.NoError(t, err)
	assert.Nil(t, total)
}

func TestService_Diario_ErrorRepositorio(t *testing.T) {
	repo := &fakeRepo{err: errors.New("connection lost")}
	svc := New(repo, nil)

	filas, err := svc.Diario(context.Background(), nil)

	assert.Error(t, err)
	assert.Nil(t, filas)
}

// ============================================================
// CLASSIFICATION TESTS
// ============================================================

func TestService_Clasificar(t *testing.T) {
	svc := New(&fakeRepo{}, nil)

	filas := []kpi.Agregado{
		{SiteID: "1", Indicadores: kpi.Indicadores{Disponibilidad: 99.5}},
		{SiteID: "2", Indicadores: kpi.Indicadores{Disponibilidad: 95.0}},
		{SiteID: "3", Indicadores: kpi.Indicadores{Disponibilidad: 50.0}},
	}

	out, err := svc.Clasificar(filas, kpi.KPIDisponibilidad)

	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, kpi.EstadoVerde, out[0].Estado)
	assert.Equal(t, kpi.EstadoAmarillo, out[1].Estado)
	assert.Equal(t, kpi.EstadoRojo, out[2].Estado)
}

func TestService_Clasificar_KPIDesconocido(t *testing.T) {
	svc := New(&fakeRepo{}, nil)

	filas := []kpi.Agregado{{SiteID: "1"}}
	out, err := svc.Clasificar(filas, "Latencia")

	assert.Error(t, err)
	assert.Nil(t, out)
}

func TestService_UmbralesPersonalizados(t *testing.T) {
	umbrales := kpi.Umbrales{
		kpi.KPIDisponibilidad: {Verde: 95.0, Rojo: 80.0},
	}
	svc := New(&fakeRepo{}, &Options{Umbrales: umbrales})

	filas := []kpi.Agregado{
		{SiteID: "1", Indicadores: kpi.Indicadores{Disponibilidad: 96.0}},
	}
	out, err := svc.Clasificar(filas, kpi.KPIDisponibilidad)

	require.NoError(t, err)
	assert.Equal(t, kpi.EstadoVerde, out[0].Estado)
}

// ============================================================
// MAP TESTS
// ============================================================

func TestService_Mapa(t *testing.T) {
	fecha := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepo{
		registros: []kpi.Registro{
			registro(fecha, "1", 99, 100),
			registro(fecha, "2", 50, 100),
			registro(fecha, "3", 95, 100),
		},
		sitios: []kpi.Sitio{
			{ID: "1", Nombre: "San Pedro", Latitud: coord(9.93), Longitud: coord(-84.05)},
			{ID: "2", Nombre: "Limón", Latitud: coord(9.99), Longitud: coord(-83.03)},
			// Sitio 3 sin coordenadas: agrega pero no se dibuja
			{ID: "3", Nombre: "Sin Coordenadas"},
		},
	}
	svc := New(repo, nil)

	puntos, err := svc.Mapa(context.Background(), nil, kpi.KPIDisponibilidad)

	require.NoError(t, err)
	require.Len(t, puntos, 2)
	assert.Equal(t, kpi.SiteID("1"), puntos[0].SiteID)
	assert.Equal(t, "San Pedro", puntos[0].Nombre)
	assert.Equal(t, 9.93, puntos[0].Latitud)
	assert.Equal(t, kpi.EstadoVerde, puntos[0].Estado)
	assert.Equal(t, kpi.EstadoRojo, puntos[1].Estado)
}

func TestService_Mapa_KPIDesconocido(t *testing.T) {
	svc := New(&fakeRepo{}, nil)

	puntos, err := svc.Mapa(context.Background(), nil, "Latencia")

	assert.Error(t, err)
	assert.Nil(t, puntos)
}

// ============================================================
// CACHE TESTS
// ============================================================

func TestService_Agregar_Cache(t *testing.T) {
	fecha := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepo{
		registros: []kpi.Registro{registro(fecha, "1", 95, 100)},
	}
	mem := cache.NewMemoryCache(cache.DefaultOptions())
	defer mem.Close()

	svc := New(repo, &Options{Cache: mem, CacheTTL: time.Minute})

	primero, err := svc.Diario(context.Background(), nil)
	require.NoError(t, err)

	segundo, err := svc.Diario(context.Background(), nil)
	require.NoError(t, err)

	// La segunda lectura sale del caché sin tocar el repositorio
	assert.Equal(t, 1, repo.llamadasRegistros)
	assert.Equal(t, primero, segundo)
}

func TestService_InvalidarCache(t *testing.T) {
	fecha := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepo{
		registros: []kpi.Registro{registro(fecha, "1", 95, 100)},
	}
	mem := cache.NewMemoryCache(cache.DefaultOptions())
	defer mem.Close()

	svc := New(repo, &Options{Cache: mem, CacheTTL: time.Minute})

	_, err := svc.Diario(context.Background(), nil)
	require.NoError(t, err)

	require.NoError(t, svc.InvalidarCache(context.Background()))

	_, err = svc.Diario(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.llamadasRegistros)
}

// ============================================================
// CONFIG CONVERSION TESTS
// ============================================================

func TestUmbralesDesdeConfig(t *testing.T) {
	cfg := &config.KPIConfig{
		Disponibilidad:        config.UmbralConfig{Verde: 99.0, Rojo: 90},
		Accesibilidad:         config.UmbralConfig{Verde: 99.2, Rojo: 90},
		RetenibilidadPromedio: config.UmbralConfig{Verde: 98.9, Rojo: 90},
		RetenibilidadTecnica:  config.UmbralConfig{Verde: 99.0, Rojo: 90},
		RetenibilidadUsuario:  config.UmbralConfig{Verde: 98.8, Rojo: 90},
	}

	umbrales := UmbralesDesdeConfig(cfg)

	require.Len(t, umbrales, 5)
	assert.Equal(t, 99.2, umbrales[kpi.KPIAccesibilidad].Verde)
	assert.Equal(t, 90.0, umbrales[kpi.KPIRetenibilidadUsuario].Rojo)
}
