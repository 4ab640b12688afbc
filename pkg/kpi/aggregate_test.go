package kpi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fecha(dia int) time.Time {
	return time.Date(2024, time.January, dia, 0, 0, 0, 0, time.UTC)
}

func registro(dia int, site int, c Contadores) Registro {
	return Registro{
		Fecha:      fecha(dia),
		Hora:       "01:00:00",
		SiteID:     SiteIDFromInt(site),
		Sector:     "1",
		Contadores: c,
	}
}

func TestDiario_SumaAntesDeCalcular(t *testing.T) {
	// Dos sectores del mismo sitio y día: los contadores se suman antes
	// de derivar, no se promedian los porcentajes por fila.
	regs := []Registro{
		registro(1, 12, Contadores{SamplesCellAvail: 900, DenomCellAvail: 1000}),
		registro(1, 12, Contadores{SamplesCellAvail: 50, DenomCellAvail: 100}),
	}

	filas := Diario(regs)
	require.Len(t, filas, 1)

	assert.Equal(t, int64(950), filas[0].SamplesCellAvail)
	assert.Equal(t, int64(1100), filas[0].DenomCellAvail)
	assert.InDelta(t, 100*950.0/1100.0, filas[0].Disponibilidad, 1e-9)
}

func TestDiario_ClavesSeparadas(t *testing.T) {
	regs := []Registro{
		registro(1, 1, Contadores{DenomCellAvail: 10}),
		registro(1, 2, Contadores{DenomCellAvail: 10}),
		registro(2, 1, Contadores{DenomCellAvail: 10}),
	}

	filas := Diario(regs)
	require.Len(t, filas, 3)

	// Orden determinista: fecha y luego sitio numérico.
	assert.Equal(t, SiteIDFromInt(1), filas[0].SiteID)
	assert.Equal(t, SiteIDFromInt(2), filas[1].SiteID)
	assert.True(t, filas[2].Fecha.After(filas[0].Fecha))
}

func TestDiario_EntradaVacia(t *testing.T) {
	assert.Empty(t, Diario(nil))
}

func TestPorSitio_TotalesDelPeriodo(t *testing.T) {
	regs := []Registro{
		registro(1, 7, Contadores{SamplesCellAvail: 400, DenomCellAvail: 500}),
		registro(2, 7, Contadores{SamplesCellAvail: 550, DenomCellAvail: 500}),
		registro(1, 8, Contadores{SamplesCellAvail: 100, DenomCellAvail: 100}),
	}

	filas := PorSitio(regs)
	require.Len(t, filas, 2)

	assert.Equal(t, SiteIDFromInt(7), filas[0].SiteID)
	assert.Equal(t, int64(950), filas[0].SamplesCellAvail)
	assert.InDelta(t, 95.0, filas[0].Disponibilidad, 1e-9)
	assert.True(t, filas[0].Fecha.IsZero())
}

func TestPorCluster_SoloClustersConDatos(t *testing.T) {
	// Solo el sitio 7 (Alajuela) tiene filas: debe salir exactamente un
	// grupo etiquetado Alajuela y ningún cluster vacío.
	regs := []Registro{
		registro(1, 7, Contadores{SamplesCellAvail: 90, DenomCellAvail: 100}),
	}

	filas := PorCluster(regs, ClustersPorDefecto())
	require.Len(t, filas, 1)
	assert.Equal(t, "Alajuela", filas[0].Cluster)
	assert.InDelta(t, 90.0, filas[0].Disponibilidad, 1e-9)
}

func TestPorCluster_AgrupaPorFechaDentroDelCluster(t *testing.T) {
	regs := []Registro{
		registro(1, 1, Contadores{DenomCellAvail: 10, SamplesCellAvail: 5}),
		registro(1, 2, Contadores{DenomCellAvail: 10, SamplesCellAvail: 5}),
		registro(2, 3, Contadores{DenomCellAvail: 10, SamplesCellAvail: 10}),
		registro(1, 40, Contadores{DenomCellAvail: 10, SamplesCellAvail: 10}),
	}

	filas := PorCluster(regs, ClustersPorDefecto())
	require.Len(t, filas, 3)

	// Zona Sur: dos fechas; Atlántico: una.
	assert.Equal(t, "Zona Sur", filas[0].Cluster)
	assert.Equal(t, int64(20), filas[0].DenomCellAvail)
	assert.Equal(t, "Zona Sur", filas[1].Cluster)
	assert.Equal(t, "Atlántico", filas[2].Cluster)
}

func TestPorCluster_SinDatos(t *testing.T) {
	assert.Empty(t, PorCluster(nil, ClustersPorDefecto()))
}

func TestTotalRed(t *testing.T) {
	regs := []Registro{
		registro(1, 1, Contadores{SamplesCellAvail: 40, DenomCellAvail: 50}),
		registro(2, 45, Contadores{SamplesCellAvail: 55, DenomCellAvail: 50}),
	}

	filas := TotalRed(regs)
	require.Len(t, filas, 1)
	assert.Equal(t, int64(95), filas[0].SamplesCellAvail)
	assert.InDelta(t, 95.0, filas[0].Disponibilidad, 1e-9)
}

func TestTotalRed_Vacio(t *testing.T) {
	assert.Empty(t, TotalRed(nil))
}

func TestAgregacion_ConmutaConParticion(t *testing.T) {
	// Para cualquier partición A, B de las filas, los KPIs del total son
	// los de la suma de contadores de A y B.
	a := []Registro{
		registro(1, 1, Contadores{SamplesCellAvail: 90, DenomCellAvail: 100, NgFlowRel: 10, NgFlowRelNormal: 9}),
		registro(1, 2, Contadores{SamplesCellAvail: 70, DenomCellAvail: 100, NgFlowRel: 20, NgFlowRelNormal: 18}),
	}
	b := []Registro{
		registro(2, 3, Contadores{SamplesCellAvail: 5, DenomCellAvail: 10, NgFlowRel: 2, NgFlowRelNormal: 2}),
	}

	union := append(append([]Registro{}, a...), b...)
	totalUnion := TotalRed(union)
	require.Len(t, totalUnion, 1)

	var suma Contadores
	for _, r := range union {
		suma.Sumar(r.Contadores)
	}

	assert.Equal(t, CalcularKPIs(suma), totalUnion[0].Indicadores)
}

func TestEscenarioCompleto_DisponibilidadAmarilla(t *testing.T) {
	// 950/1000 para el sitio "12" el 2024-01-01 da 95.0, que contra
	// {verde 99.0, rojo 90} clasifica Amarillo.
	regs := []Registro{
		registro(1, 12, Contadores{SamplesCellAvail: 950, DenomCellAvail: 1000}),
	}

	filas := Diario(regs)
	require.Len(t, filas, 1)
	assert.InDelta(t, 95.0, filas[0].Disponibilidad, 1e-9)

	clasificadas := ClasificarFilas(filas, KPIDisponibilidad, UmbralesPorDefecto())
	require.Len(t, clasificadas, 1)
	assert.Equal(t, EstadoAmarillo, clasificadas[0].Estado)
}
