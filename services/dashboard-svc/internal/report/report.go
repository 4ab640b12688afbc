package report

import (
	"context"
	"fmt"
	"time"

	"github.com/dguevara8/ucr-electrical-project/pkg/apperror"
	"github.com/dguevara8/ucr-electrical-project/pkg/config"
	"github.com/dguevara8/ucr-electrical-project/pkg/kpi"
)

// Formatos de exportación soportados
const (
	FormatoExcel = "excel"
	FormatoPDF   = "pdf"
)

// Datos es la tabla agregada lista para exportar, con los umbrales que
// pintan el semáforo en cada columna de KPI.
type Datos struct {
	Titulo   string
	Empresa  string
	Desde    *time.Time
	Hasta    *time.Time
	Filas    []kpi.Agregado
	Umbrales kpi.Umbrales
}

// Generator serializa una tabla agregada a un formato de salida
type Generator interface {
	Generate(ctx context.Context, datos *Datos) ([]byte, error)
	Format() string
	ContentType() string
}

// New devuelve el generador del formato pedido
func New(formato string, cfg config.ReportConfig) (Generator, error) {
	switch formato {
	case FormatoExcel:
		return NewExcelGenerator(cfg), nil
	case FormatoPDF:
		return NewPDFGenerator(cfg), nil
	default:
		return nil, apperror.NewWithField(apperror.CodeInvalidArgument, "unsupported report format", "formato").
			WithDetails("formato", formato)
	}
}

// BaseGenerator utilidades comunes a los generadores
type BaseGenerator struct {
	cfg config.ReportConfig
}

// Titulo devuelve el título del reporte
func (b *BaseGenerator) Titulo(datos *Datos) string {
	if datos.Titulo != "" {
		return datos.Titulo
	}
	return "Reporte de KPIs de Red"
}

// Empresa devuelve el nombre de la empresa
func (b *BaseGenerator) Empresa(datos *Datos) string {
	if datos.Empresa != "" {
		return datos.Empresa
	}
	if b.cfg.CompanyName != "" {
		return b.cfg.CompanyName
	}
	return "Red Nacional 5G"
}

// Periodo formatea el rango de fechas del reporte
func (b *BaseGenerator) Periodo(datos *Datos) string {
	formato := "02/01/2006"
	switch {
	case datos.Desde != nil && datos.Hasta != nil:
		return fmt.Sprintf("%s al %s", datos.Desde.Format(formato), datos.Hasta.Format(formato))
	case datos.Desde != nil:
		return fmt.Sprintf("desde %s", datos.Desde.Format(formato))
	case datos.Hasta != nil:
		return fmt.Sprintf("hasta %s", datos.Hasta.Format(formato))
	default:
		return "período completo"
	}
}

// Estado clasifica un valor de KPI con los umbrales del reporte
func (b *BaseGenerator) Estado(datos *Datos, nombre string, valor float64) (kpi.Estado, bool) {
	u, ok := datos.Umbrales[nombre]
	if !ok {
		return "", false
	}
	return kpi.Clasificar(valor, u), true
}

// FormatFloat formatea un KPI con dos decimales
func (b *BaseGenerator) FormatFloat(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// etiquetaFila arma la primera columna de la tabla: fecha, sitio o
// cluster según el grano del agregado.
func etiquetaFila(fila kpi.Agregado) string {
	switch {
	case fila.Cluster != "" && !fila.Fecha.IsZero():
		return fmt.Sprintf("%s %s", fila.Cluster, fila.Fecha.Format("02/01/2006"))
	case fila.Cluster != "":
		return fila.Cluster
	case fila.SiteID != "" && !fila.Fecha.IsZero():
		return fmt.Sprintf("%s %s", fila.SiteID, fila.Fecha.Format("02/01/2006"))
	case fila.SiteID != "":
		if fila.SiteName != "" {
			return fmt.Sprintf("%s (%s)", fila.SiteID, fila.SiteName)
		}
		return string(fila.SiteID)
	case !fila.Fecha.IsZero():
		return fila.Fecha.Format("02/01/2006")
	default:
		return "Total Red"
	}
}
