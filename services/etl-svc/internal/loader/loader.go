package loader

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/xuri/excelize/v2"

	"github.com/dguevara8/ucr-electrical-project/pkg/apperror"
	"github.com/dguevara8/ucr-electrical-project/pkg/config"
	"github.com/dguevara8/ucr-electrical-project/pkg/database"
	"github.com/dguevara8/ucr-electrical-project/pkg/kpi"
	"github.com/dguevara8/ucr-electrical-project/pkg/logger"
	"github.com/dguevara8/ucr-electrical-project/pkg/metrics"
	"github.com/dguevara8/ucr-electrical-project/pkg/telemetry"
)

// Hoja por defecto de los libros de entrada
const hojaPorDefecto = "Datos"

// La primera columna del libro de contadores trae fecha y hora juntas
// en formato dd/mm/yyyy hh:mm:ss.
var formatosFechaHora = []string{
	"02/01/2006 15:04:05",
	"2/1/2006 15:04:05",
	"02/01/2006 15:04",
	"2/1/06 15:04",
}

// Columnas de contadores esperadas en el libro, en el orden de la tabla
var columnasContador = []string{
	"DENOM_CELL_AVAIL",
	"SAMPLES_CELL_AVAIL",
	"NG_FLOW_REL_AMF_UE_LOST",
	"NG_FLOW_REL_NORMAL",
	"NG_FLOW_REL",
	"NG_FLOW_REL_AMF_OTHER",
	"NG_FLOW_REL_AMF_OTHER_5QI1",
	"NRRCC_RRC_STPREQ_MO_SIGNALLING",
	"NRRCC_RRC_STPREQ_MO_DATA",
	"NRRCC_RRC_STPREQ_MT_ACCESS",
	"NRRCC_RRC_STPREQ_EMERGENCY",
	"NRRCC_RRC_STPREQ_HIPRIO_ACCESS",
	"NRRCC_RRC_STPREQ_MO_VOICECALL",
	"NRRCC_RRC_STPREQ_MO_SMS",
	"NRRCC_RRC_STPREQ_MPS",
	"NRRCC_RRC_STPREQ_MCS",
	"NRRCC_RRC_STPREQ_MO_VIDEOCAL",
	"NRRCC_RRC_STPSUCC_TOT",
	"REESTAB_ACC_FALLBACK",
	"NRRCC_RRC_RESUME_FALLBACK_SUCC",
	"NNGCC_INIT_UE_MSG_SENT",
	"NNGCC_UE_LOGICAL_CONN_ESTAB",
	"NNGCC_UE_CTXT_STP_REQ_RECD",
	"NNGCC_UE_CTXT_STP_RESP_SENT",
}

// Columnas destino de la tabla kpi_data en el mismo orden que las filas
// que arma registroAValores.
var columnasKPIData = []string{
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

var columnasSiteData = []string{"site_id", "nombre", "latitud", "longitud"}

// Resultado resume una carga
type Resultado struct {
	BatchID  string
	Cargadas int
	Omitidas int
	Duracion time.Duration
}

// Loader carga los libros Excel de contadores y sitios en la base
type Loader struct {
	db      database.DB
	cfg     config.ETLConfig
	metrics *metrics.Metrics
}

// New crea el cargador
func New(db database.DB, cfg config.ETLConfig) *Loader {
	if cfg.Sheet == "" {
		cfg.Sheet = hojaPorDefecto
	}
	return &Loader{
		db:      db,
		cfg:     cfg,
		metrics: metrics.Get(),
	}
}

// Cargar corre el ciclo completo: contadores y catálogo de sitios
func (l *Loader) Cargar(ctx context.Context) error {
	if _, err := l.CargarContadores(ctx, l.cfg.CountersFile); err != nil {
		return err
	}
	if _, err := l.CargarSitios(ctx, l.cfg.SitesFile); err != nil {
		return err
	}
	return nil
}

// CargarContadores lee el libro de contadores crudos y lo vuelca en
// kpi_data. Las filas con fecha ilegible o contadores no numéricos se
// omiten con advertencia; una columna requerida ausente aborta la carga.
func (l *Loader) CargarContadores(ctx context.Context, ruta string) (*Resultado, error) {
	ctx, span := telemetry.StartSpan(ctx, "Loader.CargarContadores")
	defer span.End()

	inicio := time.Now()
	batchID := uuid.New().String()

	filas, err := l.leerHoja(ruta)
	if err != nil {
		return nil, err
	}

	indices, err := indicesContadores(filas[0])
	if err != nil {
		return nil, err
	}

	var valores [][]any
	omitidas := 0

	for n, fila := range filas[1:] {
		registro, err := parseRegistro(fila, indices)
		if err != nil {
			omitidas++
			logger.Log.Warn("Skipping counter row",
				"batch_id", batchID,
				"fila", n+2,
				"error", err,
			)
			continue
		}
		valores = append(valores, registroAValores(registro))
	}

	if err := l.volcar(ctx, "kpi_data", columnasKPIData, valores); err != nil {
		return nil, err
	}

	duracion := time.Since(inicio)
	l.metrics.RecordETLLoad("kpi_data", len(valores), omitidas, duracion)

	logger.Log.Info("Counter load finished",
		"batch_id", batchID,
		"archivo", ruta,
		"cargadas", len(valores),
		"omitidas", omitidas,
		"duracion_ms", duracion.Milliseconds(),
	)

	return &Resultado{
		BatchID:  batchID,
		Cargadas: len(valores),
		Omitidas: omitidas,
		Duracion: duracion,
	}, nil
}

// CargarSitios lee el catálogo de sitios y lo vuelca en site_data.
// Coordenadas ausentes o ilegibles quedan en NULL; el sitio sigue
// participando en los agregados aunque no en el mapa.
func (l *Loader) CargarSitios(ctx context.Context, ruta string) (*Resultado, error) {
	ctx, span := telemetry.StartSpan(ctx, "Loader.CargarSitios")
	defer span.End()

	inicio := time.Now()
	batchID := uuid.New().String()

	filas, err := l.leerHoja(ruta)
	if err != nil {
		return nil, err
	}

	indices, err := indicesSitios(filas[0])
	if err != nil {
		return nil, err
	}

	var valores [][]any
	omitidas := 0

	for n, fila := range filas[1:] {
		id, err := kpi.ParseSiteID(campo(fila, indices.id))
		if err != nil {
			omitidas++
			logger.Log.Warn("Skipping site row",
				"batch_id", batchID,
				"fila", n+2,
				"error", err,
			)
			continue
		}

		valores = append(valores, []any{
			string(id),
			strings.TrimSpace(campo(fila, indices.nombre)),
			parseCoordenada(campo(fila, indices.latitud)),
			parseCoordenada(campo(fila, indices.longitud)),
		})
	}

	if err := l.volcar(ctx, "site_data", columnasSiteData, valores); err != nil {
		return nil, err
	}

	duracion := time.Since(inicio)
	l.metrics.RecordETLLoad("site_data", len(valores), omitidas, duracion)

	logger.Log.Info("Site load finished",
		"batch_id", batchID,
		"archivo", ruta,
		"cargadas", len(valores),
		"omitidas", omitidas,
		"duracion_ms", duracion.Milliseconds(),
	)

	return &Resultado{
		BatchID:  batchID,
		Cargadas: len(valores),
		Omitidas: omitidas,
		Duracion: duracion,
	}, nil
}

// leerHoja abre el libro y devuelve las filas de la hoja configurada
func (l *Loader) leerHoja(ruta string) ([][]string, error) {
	f, err := excelize.OpenFile(ruta)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeNotFound, "failed to open workbook").
			WithDetails("archivo", ruta)
	}
	defer f.Close()

	filas, err := f.GetRows(l.cfg.Sheet)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeSheetNotFound, "failed to read sheet").
			WithDetails("hoja", l.cfg.Sheet)
	}

	if len(filas) < 2 {
		return nil, apperror.New(apperror.CodeEmptySheet, "sheet has no data rows").
			WithDetails("hoja", l.cfg.Sheet)
	}

	return filas, nil
}

// volcar escribe las filas por lotes con COPY, truncando antes si la
// configuración lo pide.
func (l *Loader) volcar(ctx context.Context, tabla string, columnas []string, valores [][]any) error {
	if l.cfg.Truncate {
		if _, err := l.db.Exec(ctx, "TRUNCATE TABLE "+tabla); err != nil {
			return apperror.Wrap(err, apperror.CodeInternal, "failed to truncate table").
				WithDetails("tabla", tabla)
		}
	}

	lote := l.cfg.BatchSize
	if lote <= 0 {
		lote = len(valores)
	}

	for i := 0; i < len(valores); i += lote {
		fin := i + lote
		if fin > len(valores) {
			fin = len(valores)
		}

		_, err := l.db.CopyFrom(ctx,
			pgx.Identifier{tabla},
			columnas,
			pgx.CopyFromRows(valores[i:fin]),
		)
		if err != nil {
			return apperror.Wrap(err, apperror.CodeInternal, "failed to copy rows").
				WithDetails("tabla", tabla)
		}
	}

	return nil
}

// indicesFila ubica cada columna requerida del libro de contadores
type indicesFila struct {
	fechaHora  int
	siteID     int
	sector     int
	contadores []int
}

func indicesContadores(encabezado []string) (*indicesFila, error) {
	porNombre := make(map[string]int, len(encabezado))
	for i, nombre := range encabezado {
		porNombre[strings.TrimSpace(nombre)] = i
	}

	// La primera columna siempre es la de fecha y hora, sin importar
	// su etiqueta en el libro.
	indices := &indicesFila{fechaHora: 0}

	var ok bool
	if indices.siteID, ok = porNombre["Site Id"]; !ok {
		return nil, faltaColumna("Site Id")
	}
	if indices.sector, ok = porNombre["Sector"]; !ok {
		return nil, faltaColumna("Sector")
	}

	indices.contadores = make([]int, len(columnasContador))
	for i, nombre := range columnasContador {
		idx, ok := porNombre[nombre]
		if !ok {
			return nil, faltaColumna(nombre)
		}
		indices.contadores[i] = idx
	}

	return indices, nil
}

type indicesSitio struct {
	id       int
	nombre   int
	latitud  int
	longitud int
}

func indicesSitios(encabezado []string) (*indicesSitio, error) {
	porNombre := make(map[string]int, len(encabezado))
	for i, nombre := range encabezado {
		porNombre[strings.TrimSpace(nombre)] = i
	}

	indices := &indicesSitio{}

	// El libro de sitios trae el identificador como ID o Site_id
	// según la exportación.
	id, ok := porNombre["Site_id"]
	if !ok {
		if id, ok = porNombre["ID"]; !ok {
			return nil, faltaColumna("Site_id")
		}
	}
	indices.id = id

	if indices.nombre, ok = porNombre["Nombre"]; !ok {
		return nil, faltaColumna("Nombre")
	}
	if indices.latitud, ok = porNombre["Latitud"]; !ok {
		return nil, faltaColumna("Latitud")
	}
	if indices.longitud, ok = porNombre["Longitud"]; !ok {
		return nil, faltaColumna("Longitud")
	}

	return indices, nil
}

func faltaColumna(nombre string) error {
	return apperror.NewCritical(apperror.CodeMissingColumn, "required column missing from workbook").
		WithDetails("columna", nombre)
}

// parseRegistro convierte una fila del libro en un registro canónico
func parseRegistro(fila []string, indices *indicesFila) (*kpi.Registro, error) {
	fechaHora, err := parseFechaHora(campo(fila, indices.fechaHora))
	if err != nil {
		return nil, err
	}

	id, err := kpi.ParseSiteID(campo(fila, indices.siteID))
	if err != nil {
		return nil, err
	}

	registro := &kpi.Registro{
		Fecha:  fechaHora.Truncate(24 * time.Hour),
		Hora:   fechaHora.Format("15:04:05"),
		SiteID: id,
		Sector: strings.TrimSpace(campo(fila, indices.sector)),
	}

	contadores := make([]int64, len(indices.contadores))
	for i, idx := range indices.contadores {
		v, err := parseContador(campo(fila, idx))
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeInvalidCounter, "non-numeric counter value").
				WithDetails("columna", columnasContador[i])
		}
		contadores[i] = v
	}

	c := &registro.Contadores
	destinos := []*int64{
		&c.DenomCellAvail, &c.SamplesCellAvail,
		&c.NgFlowRelAmfUeLost, &c.NgFlowRelNormal, &c.NgFlowRel,
		&c.NgFlowRelAmfOther, &c.NgFlowRelAmfOther5qi1,
		&c.RrcStpReqMoSignalling, &c.RrcStpReqMoData, &c.RrcStpReqMtAccess,
		&c.RrcStpReqEmergency, &c.RrcStpReqHiprioAccess, &c.RrcStpReqMoVoicecall,
		&c.RrcStpReqMoSms, &c.RrcStpReqMps, &c.RrcStpReqMcs, &c.RrcStpReqMoVideocal,
		&c.RrcStpSuccTot, &c.ReestabAccFallback, &c.RrcResumeFallbackSucc,
		&c.InitUeMsgSent, &c.UeLogicalConnEstab, &c.UeCtxtStpReqRecd,
		&c.UeCtxtStpRespSent,
	}
	for i, destino := range destinos {
		*destino = contadores[i]
	}

	return registro, nil
}

func registroAValores(r *kpi.Registro) []any {
	c := r.Contadores
	return []any{
		r.Fecha, r.Hora, string(r.SiteID), r.Sector,
		c.DenomCellAvail, c.SamplesCellAvail,
		c.NgFlowRelAmfUeLost, c.NgFlowRelNormal, c.NgFlowRel,
		c.NgFlowRelAmfOther, c.NgFlowRelAmfOther5qi1,
		c.RrcStpReqMoSignalling, c.RrcStpReqMoData, c.RrcStpReqMtAccess,
		c.RrcStpReqEmergency, c.RrcStpReqHiprioAccess, c.RrcStpReqMoVoicecall,
		c.RrcStpReqMoSms, c.RrcStpReqMps, c.RrcStpReqMcs, c.RrcStpReqMoVideocal,
		c.RrcStpSuccTot, c.ReestabAccFallback, c.RrcResumeFallbackSucc,
		c.InitUeMsgSent, c.UeLogicalConnEstab, c.UeCtxtStpReqRecd,
		c.UeCtxtStpRespSent,
	}
}

func parseFechaHora(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, formato := range formatosFechaHora {
		if t, err := time.Parse(formato, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperror.NewWithField(apperror.CodeInvalidDate, "unparseable date", "fecha").
		WithDetails("valor", s)
}

// parseContador lee un contador entero; celda vacía cuenta como cero
func parseContador(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	// Algunas exportaciones traen los enteros con decimales
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

// parseCoordenada lee una coordenada opcional; ilegible o vacía es NULL
func parseCoordenada(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return nil
	}
	return &v
}

// campo devuelve la celda del índice dado; excelize recorta las celdas
// vacías al final de cada fila.
func campo(fila []string, idx int) string {
	if idx < 0 || idx >= len(fila) {
		return ""
	}
	return fila[idx]
}
