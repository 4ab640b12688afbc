package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dguevara8/ucr-electrical-project/pkg/apperror"
	"github.com/dguevara8/ucr-electrical-project/pkg/config"
	"github.com/dguevara8/ucr-electrical-project/pkg/kpi"
	"github.com/dguevara8/ucr-electrical-project/pkg/metrics"
	"github.com/dguevara8/ucr-electrical-project/services/dashboard-svc/internal/report"
	"github.com/dguevara8/ucr-electrical-project/services/dashboard-svc/internal/service"
)

// Formato de fecha aceptado en los parámetros desde/hasta
const formatoFecha = "2006-01-02"

// Handler expone el API JSON del tablero
type Handler struct {
	svc       *service.Service
	cfg       *config.Config
	metrics   *metrics.Metrics
	startedAt time.Time
}

// New crea el handler
func New(svc *service.Service, cfg *config.Config) *Handler {
	return &Handler{
		svc:       svc,
		cfg:       cfg,
		metrics:   metrics.Get(),
		startedAt: time.Now(),
	}
}

// Router arma las rutas con la cadena de middlewares
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /api/v1/kpis/diario", h.KPIsDiario)
	mux.HandleFunc("GET /api/v1/kpis/sitios", h.KPIsSitios)
	mux.HandleFunc("GET /api/v1/kpis/clusters", h.KPIsClusters)
	mux.HandleFunc("GET /api/v1/kpis/red", h.TotalRed)
	mux.HandleFunc("GET /api/v1/kpis/mapa", h.Mapa)
	mux.HandleFunc("GET /api/v1/umbrales", h.Umbrales)
	mux.HandleFunc("GET /api/v1/sitios", h.Sitios)
	mux.HandleFunc("GET /api/v1/reportes/{formato}", h.Reporte)

	return Chain(mux,
		Recover(),
		RequestID(),
		Logging(),
		Metrics(h.metrics),
		CORS(h.cfg.HTTP.CORS),
	)
}

// Health responde el estado del servicio
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"service":        h.cfg.App.Name,
		"version":        h.cfg.App.Version,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	})
}

// KPIsDiario devuelve la serie diaria por sitio, clasificada si se pide
// un KPI concreto.
func (h *Handler) KPIsDiario(w http.ResponseWriter, r *http.Request) {
	consulta, err := parseConsulta(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	filas, err := h.svc.Diario(r.Context(), consulta)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.responderFilas(w, r, filas)
}

// KPIsSitios devuelve los totales del período por sitio
func (h *Handler) KPIsSitios(w http.ResponseWriter, r *http.Request) {
	consulta, err := parseConsulta(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	filas, err := h.svc.PorSitio(r.Context(), consulta)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.responderFilas(w, r, filas)
}

// KPIsClusters devuelve la serie diaria por cluster
func (h *Handler) KPIsClusters(w http.ResponseWriter, r *http.Request) {
	consulta, err := parseConsulta(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	filas, err := h.svc.PorCluster(r.Context(), consulta)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.responderFilas(w, r, filas)
}

// TotalRed devuelve la fila única de toda la red
func (h *Handler) TotalRed(w http.ResponseWriter, r *http.Request) {
	consulta, err := parseConsulta(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	total, err := h.svc.TotalRed(r.Context(), consulta)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"total": total})
}

// Mapa devuelve los sitios georreferenciados clasificados por el KPI pedido
func (h *Handler) Mapa(w http.ResponseWriter, r *http.Request) {
	consulta, err := parseConsulta(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	nombre := r.URL.Query().Get("kpi")
	if nombre == "" {
		nombre = kpi.KPIDisponibilidad
	}

	puntos, err := h.svc.Mapa(r.Context(), consulta, nombre)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"kpi": nombre, "puntos": puntos})
}

// Umbrales devuelve la tabla de umbrales vigente
func (h *Handler) Umbrales(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"umbrales": h.svc.Umbrales()})
}

// Sitios devuelve el catálogo de sitios
func (h *Handler) Sitios(w http.ResponseWriter, r *http.Request) {
	sitios, err := h.svc.Sitios(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"sitios": sitios})
}

// Reporte exporta la tabla agregada en el formato pedido. El parámetro
// scope elige el grano: sitios (por defecto), diario, clusters o red.
func (h *Handler) Reporte(w http.ResponseWriter, r *http.Request) {
	formato := r.PathValue("formato")

	gen, err := report.New(formato, h.cfg.Report)
	if err != nil {
		h.writeError(w, err)
		return
	}

	consulta, err := parseConsulta(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	filas, err := h.filasPorScope(r, consulta)
	if err != nil {
		h.metrics.RecordReport(formato, false)
		h.writeError(w, err)
		return
	}

	datos := &report.Datos{
		Titulo:   r.URL.Query().Get("titulo"),
		Desde:    consulta.Desde,
		Hasta:    consulta.Hasta,
		Filas:    filas,
		Umbrales: h.svc.Umbrales(),
	}

	contenido, err := gen.Generate(r.Context(), datos)
	if err != nil {
		h.metrics.RecordReport(formato, false)
		h.writeError(w, err)
		return
	}

	h.metrics.RecordReport(formato, true)

	nombre := fmt.Sprintf("kpis_%s%s", time.Now().Format("20060102"), extension(formato))
	w.Header().Set("Content-Type", gen.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", nombre))
	w.WriteHeader(http.StatusOK)
	w.Write(contenido)
}

func (h *Handler) filasPorScope(r *http.Request, consulta *service.Consulta) ([]kpi.Agregado, error) {
	switch scope := r.URL.Query().Get("scope"); scope {
	case "", "sitios":
		return h.svc.PorSitio(r.Context(), consulta)
	case "diario":
		return h.svc.Diario(r.Context(), consulta)
	case "clusters":
		return h.svc.PorCluster(r.Context(), consulta)
	case "red":
		total, err := h.svc.TotalRed(r.Context(), consulta)
		if err != nil || total == nil {
			return nil, err
		}
		return []kpi.Agregado{*total}, nil
	default:
		return nil, apperror.NewWithField(apperror.CodeInvalidArgument, "unknown report scope", "scope").
			WithDetails("scope", scope)
	}
}

// responderFilas escribe la tabla tal cual, o clasificada si la petición
// trae el parámetro kpi.
func (h *Handler) responderFilas(w http.ResponseWriter, r *http.Request, filas []kpi.Agregado) {
	nombre := r.URL.Query().Get("kpi")
	if nombre == "" {
		h.writeJSON(w, http.StatusOK, map[string]any{"filas": filas})
		return
	}

	clasificadas, err := h.svc.Clasificar(filas, nombre)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"kpi": nombre, "filas": clasificadas})
}

// parseConsulta lee los parámetros comunes de filtrado
func parseConsulta(r *http.Request) (*service.Consulta, error) {
	q := r.URL.Query()
	consulta := &service.Consulta{}

	if v := q.Get("desde"); v != "" {
		t, err := time.Parse(formatoFecha, v)
		if err != nil {
			return nil, apperror.NewWithField(apperror.CodeInvalidDate, "invalid desde date, expected YYYY-MM-DD", "desde").
				WithDetails("valor", v)
		}
		consulta.Desde = &t
	}

	if v := q.Get("hasta"); v != "" {
		t, err := time.Parse(formatoFecha, v)
		if err != nil {
			return nil, apperror.NewWithField(apperror.CodeInvalidDate, "invalid hasta date, expected YYYY-MM-DD", "hasta").
				WithDetails("valor", v)
		}
		consulta.Hasta = &t
	}

	if consulta.Desde != nil && consulta.Hasta != nil && consulta.Hasta.Before(*consulta.Desde) {
		return nil, apperror.New(apperror.CodeInvalidRange, "hasta must not precede desde")
	}

	if v := q.Get("sitios"); v != "" {
		for _, parte := range strings.Split(v, ",") {
			id, err := kpi.ParseSiteID(parte)
			if err != nil {
				return nil, apperror.NewWithField(apperror.CodeInvalidSiteID, "invalid site id", "sitios").
					WithDetails("valor", parte)
			}
			consulta.Sitios = append(consulta.Sitios, id)
		}
	}

	return consulta, nil
}

func extension(formato string) string {
	if formato == report.FormatoPDF {
		return ".pdf"
	}
	return ".xlsx"
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperror.HTTPStatus(err)

	cuerpo := map[string]any{
		"error": err.Error(),
	}

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		cuerpo["code"] = appErr.Code
		cuerpo["message"] = appErr.Message
		if appErr.Field != "" {
			cuerpo["field"] = appErr.Field
		}
		if len(appErr.Details) > 0 {
			cuerpo["details"] = appErr.Details
		}
	}

	h.writeJSON(w, status, cuerpo)
}
