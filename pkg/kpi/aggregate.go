package kpi

import (
	"sort"
	"time"
)

// Agregado es la suma de contadores crudos sobre una clave de agrupación
// más los cinco KPIs derivados de esa suma. Los KPIs de un Agregado se
// derivan siempre sumando primero los contadores y aplicando las fórmulas
// una sola vez sobre las sumas; nunca promediando porcentajes por fila.
// No tiene identidad persistente: se recalcula en cada filtro.
type Agregado struct {
	Fecha    time.Time `json:"Date,omitzero"`
	SiteID   SiteID    `json:"Site Id,omitempty"`
	SiteName string    `json:"Site Name,omitempty"`
	Cluster  string    `json:"Cluster,omitempty"`
	Contadores
	Indicadores
}

// Diario suma los contadores agrupando por (fecha, sitio) y deriva los
// KPIs una vez por grupo. El nombre de sitio acompaña a la clave igual
// que en la vista diaria original. Entrada vacía produce salida vacía.
func Diario(regs []Registro) []Agregado {
	type clave struct {
		fecha time.Time
		site  SiteID
	}

	grupos := make(map[clave]*Agregado)
	for _, r := range regs {
		k := clave{fecha: r.Fecha, site: r.SiteID}
		g, ok := grupos[k]
		if !ok {
			g = &Agregado{Fecha: r.Fecha, SiteID: r.SiteID, SiteName: r.SiteName}
			grupos[k] = g
		}
		g.Contadores.Sumar(r.Contadores)
	}

	out := make([]Agregado, 0, len(grupos))
	for _, g := range grupos {
		g.Indicadores = CalcularKPIs(g.Contadores)
		out = append(out, *g)
	}
	ordenar(out)
	return out
}

// PorSitio suma todos los contadores del rango seleccionado por sitio y
// deriva los KPIs sobre las sumas; es la vista de totales del período.
func PorSitio(regs []Registro) []Agregado {
	grupos := make(map[SiteID]*Agregado)
	for _, r := range regs {
		g, ok := grupos[r.SiteID]
		if !ok {
			g = &Agregado{SiteID: r.SiteID, SiteName: r.SiteName}
			grupos[r.SiteID] = g
		}
		g.Contadores.Sumar(r.Contadores)
	}

	out := make([]Agregado, 0, len(grupos))
	for _, g := range grupos {
		g.Indicadores = CalcularKPIs(g.Contadores)
		out = append(out, *g)
	}
	ordenar(out)
	return out
}

// PorCluster filtra por pertenencia de sitio a cada cluster, suma por
// fecha dentro del cluster, etiqueta las filas con el nombre y concatena.
// Clusters sin filas en el filtro actual se omiten en silencio: los
// llamadores no deben asumir cobertura completa.
func PorCluster(regs []Registro, clusters []Cluster) []Agregado {
	var out []Agregado

	for _, c := range clusters {
		grupos := make(map[time.Time]*Agregado)
		for _, r := range regs {
			if !c.Contiene(r.SiteID) {
				continue
			}
			g, ok := grupos[r.Fecha]
			if !ok {
				g = &Agregado{Fecha: r.Fecha, Cluster: c.Nombre}
				grupos[r.Fecha] = g
			}
			g.Contadores.Sumar(r.Contadores)
		}
		if len(grupos) == 0 {
			continue
		}

		filas := make([]Agregado, 0, len(grupos))
		for _, g := range grupos {
			g.Indicadores = CalcularKPIs(g.Contadores)
			filas = append(filas, *g)
		}
		ordenar(filas)
		out = append(out, filas...)
	}
	return out
}

// TotalRed suma todos los contadores de la selección sin clave de
// agrupación. Selección vacía produce tabla vacía, no error.
func TotalRed(regs []Registro) []Agregado {
	if len(regs) == 0 {
		return nil
	}
	var total Agregado
	for _, r := range regs {
		total.Contadores.Sumar(r.Contadores)
	}
	total.Indicadores = CalcularKPIs(total.Contadores)
	return []Agregado{total}
}

// ordenar fija un orden determinista: fecha, luego sitio numérico.
func ordenar(filas []Agregado) {
	sort.Slice(filas, func(i, j int) bool {
		if !filas[i].Fecha.Equal(filas[j].Fecha) {
			return filas[i].Fecha.Before(filas[j].Fecha)
		}
		ni, ei := filas[i].SiteID.Int()
		nj, ej := filas[j].SiteID.Int()
		if ei == nil && ej == nil {
			return ni < nj
		}
		return filas[i].SiteID < filas[j].SiteID
	})
}
