package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dguevara8/ucr-electrical-project/pkg/apperror"
	"github.com/dguevara8/ucr-electrical-project/pkg/config"
	"github.com/dguevara8/ucr-electrical-project/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init("error")
	os.Exit(m.Run())
}

// ============================================================
// MOCK DB ADAPTER
// ============================================================

type pgxMockAdapter struct {
	mock pgxmock.PgxPoolIface
}

func (a *pgxMockAdapter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return a.mock.Exec(ctx, sql, args...)
}

func (a *pgxMockAdapter) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return a.mock.Query(ctx, sql, args...)
}

func (a *pgxMockAdapter) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return a.mock.QueryRow(ctx, sql, args...)
}

func (a *pgxMockAdapter) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return a.mock.CopyFrom(ctx, tableName, columnNames, rowSrc)
}

func (a *pgxMockAdapter) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
	return a.mock.BeginTx(ctx, txOptions)
}

func (a *pgxMockAdapter) Close() {
	a.mock.Close()
}

func (a *pgxMockAdapter) Ping(ctx context.Context) error {
	return a.mock.Ping(ctx)
}

// ============================================================
// WORKBOOK HELPERS
// ============================================================

func encabezadoContadores() []any {
	fila := []any{"Period start time", "Site Id", "Sector"}
	for _, c := range columnasContador {
		fila = append(fila, c)
	}
	return fila
}

// filaContadores arma una fila del libro con los 24 contadores en cero
// salvo denominador y muestras de disponibilidad.
func filaContadores(fechaHora, site, sector string, total, disponibles any) []any {
	fila := []any{fechaHora, site, sector, total, disponibles}
	for i := 2; i < len(columnasContador); i++ {
		fila = append(fila, 0)
	}
	return fila
}

func crearLibro(t *testing.T, filas [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	f.NewSheet("Datos")
	f.DeleteSheet("Sheet1")

	for i, fila := range filas {
		celda, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Datos", celda, &fila))
	}

	ruta := filepath.Join(t.TempDir(), "libro.xlsx")
	require.NoError(t, f.SaveAs(ruta))
	return ruta
}

func setupLoader(t *testing.T, cfg config.ETLConfig) (pgxmock.PgxPoolIface, *Loader) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	return mock, New(&pgxMockAdapter{mock: mock}, cfg)
}

// ============================================================
// COUNTER LOAD TESTS
// ============================================================

func TestLoader_CargarContadores(t *testing.T) {
	ruta := crearLibro(t, [][]any{
		encabezadoContadores(),
		filaContadores("01/03/2025 00:00:00", "7", "S1", 100, 95),
		filaContadores("01/03/2025 01:00:00", "7", "S2", 100, 90),
		filaContadores("fecha rota", "7", "S1", 100, 95),
		filaContadores("02/03/2025 00:00:00", "no-numerico", "S1", 100, 95),
	})

	mock, l := setupLoader(t, config.ETLConfig{})
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"kpi_data"}, columnasKPIData).
		WillReturnResult(2)

	res, err := l.CargarContadores(context.Background(), ruta)

	require.NoError(t, err)
	assert.Equal(t, 2, res.Cargadas)
	assert.Equal(t, 2, res.Omitidas)
	assert.NotEmpty(t, res.BatchID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoader_CargarContadores_Truncate(t *testing.T) {
	ruta := crearLibro(t, [][]any{
		encabezadoContadores(),
		filaContadores("01/03/2025 00:00:00", "7", "S1", 100, 95),
	})

	mock, l := setupLoader(t, config.ETLConfig{Truncate: true})
	defer mock.Close()

	mock.ExpectExec("TRUNCATE TABLE kpi_data").
		WillReturnResult(pgxmock.NewResult("TRUNCATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"kpi_data"}, columnasKPIData).
		WillReturnResult(1)

	_, err := l.CargarContadores(context.Background(), ruta)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoader_CargarContadores_PorLotes(t *testing.T) {
	ruta := crearLibro(t, [][]any{
		encabezadoContadores(),
		filaContadores("01/03/2025 00:00:00", "1", "S1", 100, 95),
		filaContadores("01/03/2025 01:00:00", "2", "S1", 100, 95),
		filaContadores("01/03/2025 02:00:00", "3", "S1", 100, 95),
	})

	mock, l := setupLoader(t, config.ETLConfig{BatchSize: 2})
	defer mock.Close()

	// Tres filas en lotes de dos: dos llamadas COPY
	mock.ExpectCopyFrom(pgx.Identifier{"kpi_data"}, columnasKPIData).
		WillReturnResult(2)
	mock.ExpectCopyFrom(pgx.Identifier{"kpi_data"}, columnasKPIData).
		WillReturnResult(1)

	res, err := l.CargarContadores(context.Background(), ruta)

	require.NoError(t, err)
	assert.Equal(t, 3, res.Cargadas)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoader_CargarContadores_ColumnaFaltante(t *testing.T) {
	encabezado := []any{"Period start time", "Site Id", "Sector", "DENOM_CELL_AVAIL"}
	ruta := crearLibro(t, [][]any{
		encabezado,
		{"01/03/2025 00:00:00", "7", "S1", 100},
	})

	mock, l := setupLoader(t, config.ETLConfig{})
	defer mock.Close()

	_, err := l.CargarContadores(context.Background(), ruta)

	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeMissingColumn))
	assert.True(t, apperror.IsCritical(err))
}

func TestLoader_CargarContadores_HojaVacia(t *testing.T) {
	ruta := crearLibro(t, [][]any{encabezadoContadores()})

	mock, l := setupLoader(t, config.ETLConfig{})
	defer mock.Close()

	_, err := l.CargarContadores(context.Background(), ruta)

	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeEmptySheet))
}

func TestLoader_CargarContadores_ArchivoInexistente(t *testing.T) {
	mock, l := setupLoader(t, config.ETLConfig{})
	defer mock.Close()

	_, err := l.CargarContadores(context.Background(), "/no/existe.xlsx")

	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeNotFound))
}

// ============================================================
// SITE LOAD TESTS
// ============================================================

func TestLoader_CargarSitios(t *testing.T) {
	ruta := crearLibro(t, [][]any{
		{"ID", "Nombre", "Latitud", "Longitud"},
		{"1", "San Pedro", "9.93", "-84.05"},
		{"2", "Sin Coordenadas", "", ""},
		{"abc", "Invalido", "0", "0"},
	})

	mock, l := setupLoader(t, config.ETLConfig{})
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"site_data"}, columnasSiteData).
		WillReturnResult(2)

	res, err := l.CargarSitios(context.Background(), ruta)

	require.NoError(t, err)
	assert.Equal(t, 2, res.Cargadas)
	assert.Equal(t, 1, res.Omitidas)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoader_CargarSitios_ColumnaFaltante(t *testing.T) {
	ruta := crearLibro(t, [][]any{
		{"ID", "Nombre", "Latitud"},
		{"1", "San Pedro", "9.93"},
	})

	mock, l := setupLoader(t, config.ETLConfig{})
	defer mock.Close()

	_, err := l.CargarSitios(context.Background(), ruta)

	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeMissingColumn))
}

// ============================================================
// PARSE TESTS
// ============================================================

func TestParseFechaHora(t *testing.T) {
	fecha, err := parseFechaHora("15/03/2025 13:45:00")
	require.NoError(t, err)
	assert.Equal(t, 2025, fecha.Year())
	assert.Equal(t, 15, fecha.Day())
	assert.Equal(t, 13, fecha.Hour())

	_, err = parseFechaHora("2025-03-15")
	assert.Error(t, err)
}

func TestParseContador(t *testing.T) {
	casos := []struct {
		entrada string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{"", 0, false},
		{"  7 ", 7, false},
		{"12.0", 12, false},
		{"abc", 0, true},
	}

	for _, c := range casos {
		got, err := parseContador(c.entrada)
		if c.wantErr {
			assert.Error(t, err, c.entrada)
			continue
		}
		require.NoError(t, err, c.entrada)
		assert.Equal(t, c.want, got, c.entrada)
	}
}

func TestParseCoordenada(t *testing.T) {
	v := parseCoordenada("9.93")
	require.NotNil(t, v)
	assert.Equal(t, 9.93, *v)

	// Coma decimal de exportaciones regionales
	v = parseCoordenada("9,93")
	require.NotNil(t, v)
	assert.Equal(t, 9.93, *v)

	assert.Nil(t, parseCoordenada(""))
	assert.Nil(t, parseCoordenada("norte"))
}
