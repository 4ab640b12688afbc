package kpi

import "fmt"

// Cluster es una agrupación geográfica estática de sitios. La membresía
// es declarativa: no se deriva ni se valida como partición estricta.
type Cluster struct {
	Nombre string `json:"nombre"`
	Sitios []int  `json:"sitios"`
}

// Contiene indica si el sitio pertenece al cluster. Un identificador no
// numérico nunca pertenece.
func (c Cluster) Contiene(id SiteID) bool {
	n, err := id.Int()
	if err != nil {
		return false
	}
	for _, s := range c.Sitios {
		if s == n {
			return true
		}
	}
	return false
}

// ClustersPorDefecto devuelve la tabla estática de cinco clusters sobre
// los sitios 1..49. Cambiar el despliegue es editar esta tabla.
func ClustersPorDefecto() []Cluster {
	return []Cluster{
		{Nombre: "Zona Sur", Sitios: []int{1, 2, 3, 4, 5, 6}},
		{Nombre: "Alajuela", Sitios: []int{7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17}},
		{Nombre: "San Ramon", Sitios: []int{18, 19, 20, 21, 22, 48, 49}},
		{Nombre: "Cartago", Sitios: []int{23, 24, 25, 26, 27, 28, 29, 30, 31, 32, 33, 34, 35, 36, 37, 46, 47}},
		{Nombre: "Atlántico", Sitios: []int{38, 39, 40, 41, 42, 43, 44, 45}},
	}
}

// BuscarCluster devuelve el cluster por nombre.
func BuscarCluster(clusters []Cluster, nombre string) (Cluster, bool) {
	for _, c := range clusters {
		if c.Nombre == nombre {
			return c, true
		}
	}
	return Cluster{}, false
}

// ValidarClusters detecta sitios repetidos dentro de un cluster o
// compartidos entre clusters. Es un chequeo consultivo: los llamadores
// registran la advertencia y continúan con la tabla tal cual.
func ValidarClusters(clusters []Cluster) error {
	visto := make(map[int]string)
	for _, c := range clusters {
		enEste := make(map[int]bool)
		for _, s := range c.Sitios {
			if enEste[s] {
				return fmt.Errorf("sitio %d repetido en cluster %q", s, c.Nombre)
			}
			enEste[s] = true
			if otro, ok := visto[s]; ok {
				return fmt.Errorf("sitio %d presente en clusters %q y %q", s, otro, c.Nombre)
			}
			visto[s] = c.Nombre
		}
	}
	return nil
}
