package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dguevara8/ucr-electrical-project/pkg/database"
	"github.com/dguevara8/ucr-electrical-project/pkg/kpi"
	"github.com/dguevara8/ucr-electrical-project/pkg/telemetry"
)

// Columnas de contadores en el orden de la tabla kpi_data
const columnasContadores = `
	denom_cell_avail, samples_cell_avail,
	ng_flow_rel_amf_ue_lost, ng_flow_rel_normal, ng_flow_rel,
	ng_flow_rel_amf_other, ng_flow_rel_amf_other_5qi1,
	rrc_stpreq_mo_signalling, rrc_stpreq_mo_data, rrc_stpreq_mt_access,
	rrc_stpreq_emergency, rrc_stpreq_hiprio_access, rrc_stpreq_mo_voicecall,
	rrc_stpreq_mo_sms, rrc_stpreq_mps, rrc_stpreq_mcs, rrc_stpreq_mo_videocal,
	rrc_stpsucc_tot, reestab_acc_fallback, rrc_resume_fallback_succ,
	init_ue_msg_sent, ue_logical_conn_estab, ue_ctxt_stp_req_recd,
	ue_ctxt_stp_resp_sent`

// PostgresRepository implementación PostgreSQL
type PostgresRepository struct {
	db database.DB
}

// NewPostgresRepository crea un nuevo repositorio
func NewPostgresRepository(db database.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Registros(ctx context.Context, filtro *Filtro) ([]kpi.Registro, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRepository.Registros")
	defer span.End()

	where, args := buildWhereClause(filtro)

	query := fmt.Sprintf(`
		SELECT fecha, hora, site_id, sector, %s
		FROM kpi_data
		WHERE %s
		ORDER BY fecha, site_id
	`, columnasContadores, where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query kpi rows: %w", err)
	}
	defer rows.Close()

	var registros []kpi.Registro
	for rows.Next() {
		var reg kpi.Registro
		c := &reg.Contadores

		err := rows.Scan(
			&reg.Fecha,
			&reg.Hora,
			&reg.SiteID,
			&reg.Sector,
			&c.DenomCellAvail,
			&c.SamplesCellAvail,
			&c.NgFlowRelAmfUeLost,
			&c.NgFlowRelNormal,
			&c.NgFlowRel,
			&c.NgFlowRelAmfOther,
			&c.NgFlowRelAmfOther5qi1,
			&c.RrcStpReqMoSignalling,
			&c.RrcStpReqMoData,
			&c.RrcStpReqMtAccess,
			&c.RrcStpReqEmergency,
			&c.RrcStpReqHiprioAccess,
			&c.RrcStpReqMoVoicecall,
			&c.RrcStpReqMoSms,
			&c.RrcStpReqMps,
			&c.RrcStpReqMcs,
			&c.RrcStpReqMoVideocal,
			&c.RrcStpSuccTot,
			&c.ReestabAccFallback,
			&c.RrcResumeFallbackSucc,
			&c.InitUeMsgSent,
			&c.UeLogicalConnEstab,
			&c.UeCtxtStpReqRecd,
			&c.UeCtxtStpRespSent,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan kpi row: %w", err)
		}

		registros = append(registros, reg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate kpi rows: %w", err)
	}

	return registros, nil
}

func (r *PostgresRepository) Sitios(ctx context.Context) ([]kpi.Sitio, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRepository.Sitios")
	defer span.End()

	query := `
		SELECT site_id, nombre, latitud, longitud
		FROM site_data
		ORDER BY site_id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sites: %w", err)
	}
	defer rows.Close()

	var sitios []kpi.Sitio
	for rows.Next() {
		sitio, err := scanSitio(rows)
		if err != nil {
			return nil, err
		}
		sitios = append(sitios, *sitio)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sites: %w", err)
	}

	return sitios, nil
}

func (r *PostgresRepository) Sitio(ctx context.Context, id kpi.SiteID) (*kpi.Sitio, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRepository.Sitio")
	defer span.End()

	query := `
		SELECT site_id, nombre, latitud, longitud
		FROM site_data
		WHERE site_id = $1
	`

	row := r.db.QueryRow(ctx, query, string(id))
	sitio, err := scanSitio(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSitioNoEncontrado
		}
		return nil, err
	}

	return sitio, nil
}

func (r *PostgresRepository) RangoFechas(ctx context.Context) (time.Time, time.Time, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRepository.RangoFechas")
	defer span.End()

	query := `SELECT MIN(fecha), MAX(fecha) FROM kpi_data`

	var min, max pgtype.Timestamp
	if err := r.db.QueryRow(ctx, query).Scan(&min, &max); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("failed to query date range: %w", err)
	}

	if !min.Valid || !max.Valid {
		// Tabla vacía
		return time.Time{}, time.Time{}, nil
	}

	return min.Time, max.Time, nil
}

// scanSitio lee una fila de site_data con coordenadas opcionales
func scanSitio(row pgx.Row) (*kpi.Sitio, error) {
	var sitio kpi.Sitio
	var lat, lon pgtype.Float8

	if err := row.Scan(&sitio.ID, &sitio.Nombre, &lat, &lon); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("failed to scan site: %w", err)
	}

	if lat.Valid {
		sitio.Latitud = &lat.Float64
	}
	if lon.Valid {
		sitio.Longitud = &lon.Float64
	}

	return &sitio, nil
}

// buildWhereClause arma la cláusula WHERE según el filtro
func buildWhereClause(filtro *Filtro) (string, []any) {
	conditions := []string{"1=1"}
	var args []any
	argNum := 1

	if filtro != nil {
		if filtro.Desde != nil {
			conditions = append(conditions, fmt.Sprintf("fecha >= $%d", argNum))
			args = append(args, *filtro.Desde)
			argNum++
		}

		if filtro.Hasta != nil {
			conditions = append(conditions, fmt.Sprintf("fecha <= $%d", argNum))
			args = append(args, *filtro.Hasta)
			argNum++
		}

		if len(filtro.Sitios) > 0 {
			ids := make([]string, len(filtro.Sitios))
			for i, s := range filtro.Sitios {
				ids[i] = string(s)
			}
			conditions = append(conditions, fmt.Sprintf("site_id = ANY($%d)", argNum))
			args = append(args, ids)
			argNum++
		}
	}

	return strings.Join(conditions, " AND "), args
}
