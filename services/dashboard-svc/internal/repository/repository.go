package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dguevara8/ucr-electrical-project/pkg/kpi"
)

// Errores estándar
var (
	ErrSitioNoEncontrado = errors.New("site not found")
)

// Filtro acota las filas crudas que se leen de la base
type Filtro struct {
	Desde  *time.Time   // inclusive
	Hasta  *time.Time   // inclusive
	Sitios []kpi.SiteID // vacío = todos los sitios
}

// Repository interfaz del repositorio de contadores y sitios
type Repository interface {
	// Registros devuelve las filas crudas que cumplen el filtro
	Registros(ctx context.Context, filtro *Filtro) ([]kpi.Registro, error)

	// Sitios devuelve el catálogo completo de sitios
	Sitios(ctx context.Context) ([]kpi.Sitio, error)

	// Sitio devuelve un sitio por su ID
	Sitio(ctx context.Context, id kpi.SiteID) (*kpi.Sitio, error)

	// RangoFechas devuelve la fecha mínima y máxima con datos
	RangoFechas(ctx context.Context) (min, max time.Time, err error)
}
