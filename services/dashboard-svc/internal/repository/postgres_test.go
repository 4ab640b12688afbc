package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dguevara8/ucr-electrical-project/pkg/kpi"
)

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
// HELPER FUNCTIONS
// ============================================================

func setupMockDB(t *testing.T) (pgxmock.PgxPoolIface, *PostgresRepository) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	adapter := &pgxMockAdapter{mock: mock}
	repo := NewPostgresRepository(adapter)

	return mock, repo
}

var columnasKPI = []string{
	"fecha", "hora", "site_id", "sector",
	"denom_cell_avail", "samples_cell_avail",
	"ng_flow_rel_amf_ue_lost", "ng_flow_rel_normal", "ng_flow_rel",
	"ng_flow_rel_amf_other", "ng_flow_rel_amf_other_5qi1",
	"rrc_stpreq_mo_signalling", "rrc_stpreq_mo_data", "rrc_stpreq_mt_access",
	"rrc_stpreq_emergency", "rrc_stpreq_hiprio_access", "rrc_stpreq_mo_voicecall",
	"rrc_stpreq_mo_sms", "rrc_stpreq_mps", "rrc_stpreq_mcs", "rrc_stpreq_mo_videocal",
	"rrc_stpsucc_tot", "reestab_acc_fallback", "rrc_resume_fallback_succ",
	"init_ue_msg_sent", "ue_logical_conn_estab", "ue_ctxt_stp_req_recd",
	"ue_ctxt_stp_resp_sent",
}

// filaKPI arma una fila del mock con contadores mínimos
func filaKPI(fecha time.Time, site string, disponibles, total int64) []any {
	vals := []any{fecha, "00:00", site, "S1", total, disponibles}
	for i := 0; i < 22; i++ {
		vals = append(vals, int64(0))
	}
	return vals
}

// ============================================================
// REGISTROS TESTS
// ============================================================

func TestPostgresRepository_Registros_Success(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	ctx := context.Background()
	fecha := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows(columnasKPI).
		AddRow(filaKPI(fecha, "7", 95, 100)...).
		AddRow(filaKPI(fecha, "12", 80, 100)...)

	mock.ExpectQuery(`SELECT fecha, hora, site_id, sector`).
		WillReturnRows(rows)

	registros, err := repo.Registros(ctx, nil)

	require.NoError(t, err)
	require.Len(t, registros, 2)
	assert.Equal(t, kpi.SiteID("7"), registros[0].SiteID)
	assert.Equal(t, int64(95), registros[0].SamplesCellAvail)
	assert.Equal(t, int64(100), registros[0].DenomCellAvail)
	assert.Equal(t, fecha, registros[0].Fecha)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Registros_ConFiltro(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	ctx := context.Background()
	desde := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	hasta := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows(columnasKPI)

	mock.ExpectQuery(`fecha >= \$1 AND fecha <= \$2 AND site_id = ANY\(\$3\)`).
		WithArgs(desde, hasta, []string{"7", "12"}).
		WillReturnRows(rows)

	filtro := &Filtro{
		Desde:  &desde,
		Hasta:  &hasta,
		Sitios: []kpi.SiteID{"7", "12"},
	}
	registros, err := repo.Registros(ctx, filtro)

	require.NoError(t, err)
	assert.Empty(t, registros)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Registros_Error(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT fecha, hora, site_id, sector`).
		WillReturnError(errors.New("connection lost"))

	registros, err := repo.Registros(context.Background(), nil)

	assert.Error(t, err)
	assert.Nil(t, registros)
	assert.Contains(t, err.Error(), "failed to query kpi rows")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ============================================================
// SITIOS TESTS
// ============================================================

func TestPostgresRepository_Sitios_Success(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	lat := pgtype.Float8{Float64: 9.93, Valid: true}
	lon := pgtype.Float8{Float64: -84.08, Valid: true}
	sinCoord := pgtype.Float8{Valid: false}

	rows := pgxmock.NewRows([]string{"site_id", "nombre", "latitud", "longitud"}).
		AddRow("1", "San Pedro", lat, lon).
		AddRow("2", "Sin Nombre Site", sinCoord, sinCoord)

	mock.ExpectQuery(`SELECT site_id, nombre, latitud, longitud`).
		WillReturnRows(rows)

	sitios, err := repo.Sitios(context.Background())

	require.NoError(t, err)
	require.Len(t, sitios, 2)
	assert.Equal(t, kpi.SiteID("1"), sitios[0].ID)
	require.NotNil(t, sitios[0].Latitud)
	assert.Equal(t, 9.93, *sitios[0].Latitud)
	// Coordenadas faltantes quedan en nil
	assert.Nil(t, sitios[1].Latitud)
	assert.Nil(t, sitios[1].Longitud)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Sitio_NotFound(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT site_id, nombre, latitud, longitud`).
		WithArgs("99").
		WillReturnError(pgx.ErrNoRows)

	sitio, err := repo.Sitio(context.Background(), "99")

	assert.Error(t, err)
	assert.Nil(t, sitio)
	assert.Equal(t, ErrSitioNoEncontrado, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ============================================================
// RANGO FECHAS TESTS
// ============================================================

func TestPostgresRepository_RangoFechas(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	min := pgtype.Timestamp{Time: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), Valid: true}
	max := pgtype.Timestamp{Time: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), Valid: true}

	rows := pgxmock.NewRows([]string{"min", "max"}).AddRow(min, max)
	mock.ExpectQuery(`SELECT MIN\(fecha\), MAX\(fecha\) FROM kpi_data`).
		WillReturnRows(rows)

	desde, hasta, err := repo.RangoFechas(context.Background())

	require.NoError(t, err)
	assert.Equal(t, min.Time, desde)
	assert.Equal(t, max.Time, hasta)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_RangoFechas_TablaVacia(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	vacio := pgtype.Timestamp{Valid: false}
	rows := pgxmock.NewRows([]string{"min", "max"}).AddRow(vacio, vacio)
	mock.ExpectQuery(`SELECT MIN\(fecha\), MAX\(fecha\) FROM kpi_data`).
		WillReturnRows(rows)

	desde, hasta, err := repo.RangoFechas(context.Background())

	require.NoError(t, err)
	assert.True(t, desde.IsZero())
	assert.True(t, hasta.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ============================================================
// WHERE CLAUSE TESTS
// ============================================================

func TestBuildWhereClause(t *testing.T) {
	where, args := buildWhereClause(nil)
	assert.Equal(t, "1=1", where)
	assert.Empty(t, args)

	desde := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	where, args = buildWhereClause(&Filtro{Desde: &desde, Sitios: []kpi.SiteID{"7"}})
	assert.Equal(t, "1=1 AND fecha >= $1 AND site_id = ANY($2)", where)
	assert.Len(t, args, 2)
}
