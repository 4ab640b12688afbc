package service

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dguevara8/ucr-electrical-project/pkg/apperror"
	"github.com/dguevara8/ucr-electrical-project/pkg/cache"
	"github.com/dguevara8/ucr-electrical-project/pkg/config"
	"github.com/dguevara8/ucr-electrical-project/pkg/kpi"
	"github.com/dguevara8/ucr-electrical-project/pkg/logger"
	"github.com/dguevara8/ucr-electrical-project/pkg/metrics"
	"github.com/dguevara8/ucr-electrical-project/pkg/telemetry"
	"github.com/dguevara8/ucr-electrical-project/services/dashboard-svc/internal/repository"
)

// Nombre que recibe un sitio con mediciones pero sin entrada en el catálogo
const SinNombreSite = "Sin Nombre Site"

// Consulta delimita una petición de agregados
type Consulta struct {
	Desde  *time.Time
	Hasta  *time.Time
	Sitios []kpi.SiteID
}

// PuntoMapa es un sitio georreferenciado con su KPI clasificado
type PuntoMapa struct {
	SiteID   kpi.SiteID `json:"Site Id"`
	Nombre   string     `json:"Nombre"`
	Latitud  float64    `json:"Latitud"`
	Longitud float64    `json:"Longitud"`
	KPI      string     `json:"KPI"`
	Valor    float64    `json:"Valor"`
	Estado   kpi.Estado `json:"Estado"`
}

// Service orquesta agregación, clasificación y caché del tablero
type Service struct {
	repo     repository.Repository
	cache    cache.Cache
	cacheTTL time.Duration
	umbrales kpi.Umbrales
	clusters []kpi.Cluster
	metrics  *metrics.Metrics
}

// Options opciones del servicio
type Options struct {
	Cache    cache.Cache // nil deshabilita el caché
	CacheTTL time.Duration
	Umbrales kpi.Umbrales
	Clusters []kpi.Cluster
	Metrics  *metrics.Metrics
}

// New crea el servicio del tablero
func New(repo repository.Repository, opts *Options) *Service {
	if opts == nil {
		opts = &Options{}
	}

	umbrales := opts.Umbrales
	if umbrales == nil {
		umbrales = kpi.UmbralesPorDefecto()
	}

	clusters := opts.Clusters
	if clusters == nil {
		clusters = kpi.ClustersPorDefecto()
	}

	// La partición de clusters se valida al armar el servicio; un solape
	// es un aviso operativo, no un error fatal.
	if err := kpi.ValidarClusters(clusters); err != nil {
		logger.Log.Warn("Cluster definition has issues", "error", err)
	}

	m := opts.Metrics
	if m == nil {
		m = metrics.Get()
	}

	return &Service{
		repo:     repo,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		umbrales: umbrales,
		clusters: clusters,
		metrics:  m,
	}
}

// UmbralesDesdeConfig convierte la sección de configuración en la tabla
// de umbrales del clasificador.
func UmbralesDesdeConfig(cfg *config.KPIConfig) kpi.Umbrales {
	return kpi.Umbrales{
		kpi.KPIDisponibilidad:        {Verde: cfg.Disponibilidad.Verde, Rojo: cfg.Disponibilidad.Rojo},
		kpi.KPIAccesibilidad:         {Verde: cfg.Accesibilidad.Verde, Rojo: cfg.Accesibilidad.Rojo},
		kpi.KPIRetenibilidadPromedio: {Verde: cfg.RetenibilidadPromedio.Verde, Rojo: cfg.RetenibilidadPromedio.Rojo},
		kpi.KPIRetenibilidadTecnica:  {Verde: cfg.RetenibilidadTecnica.Verde, Rojo: cfg.RetenibilidadTecnica.Rojo},
		kpi.KPIRetenibilidadUsuario:  {Verde: cfg.RetenibilidadUsuario.Verde, Rojo: cfg.RetenibilidadUsuario.Rojo},
	}
}

// Umbrales devuelve la tabla de umbrales vigente
func (s *Service) Umbrales() kpi.Umbrales {
	return s.umbrales
}

// Clusters devuelve la definición de clusters vigente
func (s *Service) Clusters() []kpi.Cluster {
	return s.clusters
}

// Diario agrega por día a lo ancho de toda la red filtrada
func (s *Service) Diario(ctx context.Context, consulta *Consulta) ([]kpi.Agregado, error) {
	return s.agregar(ctx, "diario", consulta, kpi.Diario)
}

// PorSitio agrega el período completo por sitio
func (s *Service) PorSitio(ctx context.Context, consulta *Consulta) ([]kpi.Agregado, error) {
	return s.agregar(ctx, "sitio", consulta, kpi.PorSitio)
}

// PorCluster agrega por día dentro de cada cluster
func (s *Service) PorCluster(ctx context.Context, consulta *Consulta) ([]kpi.Agregado, error) {
	return s.agregar(ctx, "cluster", consulta, func(regs []kpi.Registro) []kpi.Agregado {
		return kpi.PorCluster(regs, s.clusters)
	})
}

// TotalRed colapsa el período completo en una sola fila de red
func (s *Service) TotalRed(ctx context.Context, consulta *Consulta) (*kpi.Agregado, error) {
	filas, err := s.agregar(ctx, "red", consulta, kpi.TotalRed)
	if err != nil {
		return nil, err
	}
	if len(filas) == 0 {
		return nil, nil
	}
	return &filas[0], nil
}

// Clasificar aplica el semáforo a un conjunto de filas agregadas
func (s *Service) Clasificar(filas []kpi.Agregado, nombre string) ([]kpi.FilaClasificada, error) {
	out := kpi.ClasificarFilas(filas, nombre, s.umbrales)
	if out == nil && len(filas) > 0 {
		return nil, apperror.NewWithField(apperror.CodeUnknownKPI, "unknown KPI name", "kpi").
			WithDetails("kpi", nombre)
	}

	for _, fila := range out {
		s.metrics.RecordClassification(fila.KPI, string(fila.Estado))
	}

	return out, nil
}

// Sitios devuelve el catálogo de sitios
func (s *Service) Sitios(ctx context.Context) ([]kpi.Sitio, error) {
	ctx, span := telemetry.StartSpan(ctx, "DashboardService.Sitios")
	defer span.End()

	return s.repo.Sitios(ctx)
}

// RangoFechas devuelve el rango de fechas con datos cargados
func (s *Service) RangoFechas(ctx context.Context) (time.Time, time.Time, error) {
	return s.repo.RangoFechas(ctx)
}

// Mapa arma la vista georreferenciada: agregado por sitio del período,
// clasificado por el KPI pedido y unido con el catálogo de sitios. Los
// sitios sin coordenadas participan de los agregados pero no del mapa.
func (s *Service) Mapa(ctx context.Context, consulta *Consulta, nombre string) ([]PuntoMapa, error) {
	ctx, span := telemetry.StartSpan(ctx, "DashboardService.Mapa")
	defer span.End()

	span.SetAttributes(attribute.String("kpi", nombre))

	if _, ok := (kpi.Indicadores{}).Valor(nombre); !ok {
		return nil, apperror.NewWithField(apperror.CodeUnknownKPI, "unknown KPI name", "kpi").
			WithDetails("kpi", nombre)
	}

	filas, err := s.PorSitio(ctx, consulta)
	if err != nil {
		return nil, err
	}

	sitios, err := s.repo.Sitios(ctx)
	if err != nil {
		return nil, err
	}

	catalogo := make(map[kpi.SiteID]kpi.Sitio, len(sitios))
	for _, sitio := range sitios {
		catalogo[sitio.ID] = sitio
	}

	clasificadas, err := s.Clasificar(filas, nombre)
	if err != nil {
		return nil, err
	}

	puntos := make([]PuntoMapa, 0, len(clasificadas))
	for _, fila := range clasificadas {
		sitio, ok := catalogo[fila.SiteID]
		if !ok || sitio.Latitud == nil || sitio.Longitud == nil {
			continue
		}

		puntos = append(puntos, PuntoMapa{
			SiteID:   fila.SiteID,
			Nombre:   sitio.Nombre,
			Latitud:  *sitio.Latitud,
			Longitud: *sitio.Longitud,
			KPI:      fila.KPI,
			Valor:    fila.Valor,
			Estado:   fila.Estado,
		})
	}

	return puntos, nil
}

// InvalidarCache borra los agregados cacheados; se invoca tras una carga
func (s *Service) InvalidarCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	n, err := s.cache.DeleteByPattern(ctx, "agg:*")
	if err != nil {
		return err
	}

	logger.Log.Info("Aggregate cache invalidated", "entries", n)
	return nil
}

// agregar corre el ciclo común: caché, lectura cruda, agregación con la
// función dada, join de nombres y escritura al caché.
func (s *Service) agregar(
	ctx context.Context,
	scope string,
	consulta *Consulta,
	fn func([]kpi.Registro) []kpi.Agregado,
) ([]kpi.Agregado, error) {
	ctx, span := telemetry.StartSpan(ctx, "DashboardService.Agregar")
	defer span.End()

	span.SetAttributes(attribute.String("scope", scope))

	key := s.cacheKey(scope, consulta)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var filas []kpi.Agregado
			if err := json.Unmarshal(data, &filas); err == nil {
				s.metrics.RecordCacheHit(scope)
				return filas, nil
			}
		}
		s.metrics.RecordCacheMiss(scope)
	}

	inicio := time.Now()

	registros, err := s.repo.Registros(ctx, s.filtro(consulta))
	if err != nil {
		telemetry.SetError(ctx, err)
		s.metrics.RecordAggregation(scope, false, 0, time.Since(inicio))
		return nil, apperror.Wrap(err, apperror.CodeInternal, "failed to read raw rows")
	}

	filas := fn(registros)
	if err := s.unirNombres(ctx, filas); err != nil {
		return nil, err
	}

	s.metrics.RecordAggregation(scope, true, len(registros), time.Since(inicio))

	if s.cache != nil {
		if data, err := json.Marshal(filas); err == nil {
			if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
				logger.Log.Warn("Failed to cache aggregate", "scope", scope, "error", err)
			}
		}
	}

	return filas, nil
}

// unirNombres completa el nombre de sitio en filas por sitio. Un sitio
// con mediciones pero ausente del catálogo recibe el nombre de reserva.
func (s *Service) unirNombres(ctx context.Context, filas []kpi.Agregado) error {
	necesita := false
	for i := range filas {
		if filas[i].SiteID != "" {
			necesita = true
			break
		}
	}
	if !necesita {
		return nil
	}

	sitios, err := s.repo.Sitios(ctx)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeInternal, "failed to read site catalog")
	}

	nombres := make(map[kpi.SiteID]string, len(sitios))
	for _, sitio := range sitios {
		nombres[sitio.ID] = sitio.Nombre
	}

	for i := range filas {
		if filas[i].SiteID == "" {
			continue
		}
		if nombre, ok := nombres[filas[i].SiteID]; ok && nombre != "" {
			filas[i].SiteName = nombre
		} else {
			filas[i].SiteName = SinNombreSite
		}
	}

	return nil
}

func (s *Service) filtro(consulta *Consulta) *repository.Filtro {
	if consulta == nil {
		return nil
	}
	return &repository.Filtro{
		Desde:  consulta.Desde,
		Hasta:  consulta.Hasta,
		Sitios: consulta.Sitios,
	}
}

func (s *Service) cacheKey(scope string, consulta *Consulta) string {
	var parts []string
	if consulta != nil {
		if consulta.Desde != nil {
			parts = append(parts, "desde="+consulta.Desde.Format(time.RFC3339))
		}
		if consulta.Hasta != nil {
			parts = append(parts, "hasta="+consulta.Hasta.Format(time.RFC3339))
		}
		for _, sitio := range consulta.Sitios {
			parts = append(parts, "sitio="+string(sitio))
		}
	}
	return cache.BuildAggregateKey(scope, cache.FiltroHash(parts...))
}
