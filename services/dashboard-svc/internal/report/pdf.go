package report

import (
	"context"
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	marotocfg "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/dguevara8/ucr-electrical-project/pkg/config"
	"github.com/dguevara8/ucr-electrical-project/pkg/kpi"
)

// Paleta del semáforo y estilos del documento
var (
	pdfVerde     = &props.Color{Red: 39, Green: 174, Blue: 96}   // #27ae60
	pdfAmarillo  = &props.Color{Red: 243, Green: 156, Blue: 18}  // #f39c12
	pdfRojo      = &props.Color{Red: 231, Green: 76, Blue: 60}   // #e74c3c
	pdfOscuro    = &props.Color{Red: 44, Green: 62, Blue: 80}    // #2c3e50
	pdfGris      = &props.Color{Red: 127, Green: 140, Blue: 141} // #7f8c8d
	pdfGrisClaro = &props.Color{Red: 236, Green: 240, Blue: 241} // #ecf0f1

	pdfTitulo = props.Text{
		Size:  20,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: pdfOscuro,
	}

	pdfSubtitulo = props.Text{
		Size:  9,
		Color: pdfGris,
	}

	pdfEncabezadoTabla = props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
		Align: align.Center,
	}

	pdfCeldaEncabezado = &props.Cell{
		BackgroundColor: pdfOscuro,
	}

	pdfCelda = &props.Cell{
		BorderType:  border.Bottom,
		BorderColor: pdfGrisClaro,
	}
)

// PDFGenerator exporta la tabla agregada a un documento PDF con los
// valores de KPI coloreados según su clasificación.
type PDFGenerator struct {
	BaseGenerator
}

// NewPDFGenerator crea el generador PDF
func NewPDFGenerator(cfg config.ReportConfig) *PDFGenerator {
	return &PDFGenerator{BaseGenerator{cfg: cfg}}
}

// Format devuelve el formato del generador
func (g *PDFGenerator) Format() string {
	return FormatoPDF
}

// ContentType devuelve el tipo MIME del archivo generado
func (g *PDFGenerator) ContentType() string {
	return "application/pdf"
}

// Generate genera el documento PDF
func (g *PDFGenerator) Generate(ctx context.Context, datos *Datos) ([]byte, error) {
	builder := marotocfg.NewBuilder().
		WithPageNumber().
		WithLeftMargin(12).
		WithTopMargin(12).
		WithRightMargin(12).
		WithPageSize(g.tamanoPagina()).
		WithOrientation(g.orientacion())

	m := maroto.New(builder.Build())

	g.agregarEncabezado(m, datos)
	g.agregarTabla(m, datos)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

func (g *PDFGenerator) agregarEncabezado(m core.Maroto, datos *Datos) {
	m.AddRow(12,
		text.NewCol(12, g.Titulo(datos), pdfTitulo),
	)

	m.AddRow(4,
		line.NewCol(12),
	)

	m.AddRow(6,
		text.NewCol(4, g.Empresa(datos), pdfSubtitulo),
		text.NewCol(4, g.Periodo(datos), props.Text{Size: 9, Color: pdfGris, Align: align.Center}),
		text.NewCol(4, time.Now().Format("02/01/2006 15:04"),
			props.Text{Size: 9, Color: pdfGris, Align: align.Right}),
	)

	m.AddRow(6)
}

func (g *PDFGenerator) agregarTabla(m core.Maroto, datos *Datos) {
	nombres := kpi.Nombres()

	encabezado := make([]core.Col, 0, len(nombres)+1)
	encabezado = append(encabezado, text.NewCol(2, "Elemento", pdfEncabezadoTabla).WithStyle(pdfCeldaEncabezado))
	for _, nombre := range nombres {
		encabezado = append(encabezado, text.NewCol(2, nombre, pdfEncabezadoTabla).WithStyle(pdfCeldaEncabezado))
	}
	m.AddRows(row.New(7).Add(encabezado...))

	filas := datos.Filas
	recortado := false
	if max := g.cfg.PDF.MaxRows; max > 0 && len(filas) > max {
		filas = filas[:max]
		recortado = true
	}

	for _, agregado := range filas {
		cols := make([]core.Col, 0, len(nombres)+1)
		cols = append(cols, text.NewCol(2, etiquetaFila(agregado),
			props.Text{Size: 8}).WithStyle(pdfCelda))

		for _, nombre := range nombres {
			valor, _ := agregado.Valor(nombre)
			estilo := props.Text{Size: 8, Align: align.Center}
			if estado, ok := g.Estado(datos, nombre, valor); ok {
				estilo.Style = fontstyle.Bold
				estilo.Color = colorEstado(estado)
			}
			cols = append(cols, text.NewCol(2, g.FormatFloat(valor), estilo).WithStyle(pdfCelda))
		}

		m.AddRows(row.New(6).Add(cols...))
	}

	if recortado {
		m.AddRow(6,
			text.NewCol(12,
				fmt.Sprintf("Tabla recortada a las primeras %d filas de %d", len(filas), len(datos.Filas)),
				pdfSubtitulo),
		)
	}

	if len(datos.Filas) == 0 {
		m.AddRow(8,
			text.NewCol(12, "Sin datos para el filtro seleccionado", pdfSubtitulo),
		)
	}
}

func (g *PDFGenerator) tamanoPagina() pagesize.Type {
	switch g.cfg.PDF.PageSize {
	case "Letter":
		return pagesize.Letter
	case "Legal":
		return pagesize.Legal
	default:
		return pagesize.A4
	}
}

func (g *PDFGenerator) orientacion() orientation.Type {
	if g.cfg.PDF.Orientation == "landscape" {
		return orientation.Horizontal
	}
	return orientation.Vertical
}

func colorEstado(estado kpi.Estado) *props.Color {
	switch estado {
	case kpi.EstadoVerde:
		return pdfVerde
	case kpi.EstadoAmarillo:
		return pdfAmarillo
	default:
		return pdfRojo
	}
}
