package imaging

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"path"
	"strconv"
	"strings"

	apperrors "emgpipe/internal/errors"
)

type xlsxWorkbook struct {
	Sheets []struct {
		Name string `xml:"name,attr"`
		RID  string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sheets>sheet"`
}

type xlsxRelationships struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type xlsxSheetDrawing struct {
	Drawing *struct {
		RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"drawing"`
}

// xlsxDrawing keeps anchors in document order; two-cell, one-cell and
// absolute anchors share the same graphic frame layout.
type xlsxDrawing struct {
	Anchors []struct {
		XMLName xml.Name
		Frame   *struct {
			NvPr struct {
				CNvPr struct {
					Name string `xml:"name,attr"`
				} `xml:"cNvPr"`
			} `xml:"nvGraphicFramePr"`
			Chart *struct {
				RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
			} `xml:"graphic>graphicData>chart"`
		} `xml:"graphicFrame"`
	} `xml:",any"`
}

type xlsxValAttr struct {
	Val string `xml:"val,attr"`
}

type xlsxTitle struct {
	Runs []string `xml:"tx>rich>p>r>t"`
}

func (t *xlsxTitle) text() string {
	if t == nil {
		return ""
	}
	return strings.Join(t.Runs, "")
}

type xlsxRef struct {
	F string `xml:"f"`
}

type xlsxDataSource struct {
	NumRef *xlsxRef `xml:"numRef"`
	StrRef *xlsxRef `xml:"strRef"`
}

func (d xlsxDataSource) ref() string {
	switch {
	case d.NumRef != nil:
		return d.NumRef.F
	case d.StrRef != nil:
		return d.StrRef.F
	}
	return ""
}

type xlsxSeries struct {
	Tx struct {
		StrRef *xlsxRef `xml:"strRef"`
		V      string   `xml:"v"`
	} `xml:"tx"`
	Cat xlsxDataSource `xml:"cat"`
	Val xlsxDataSource `xml:"val"`
}

type xlsxAxis struct {
	Scaling struct {
		Min *xlsxValAttr `xml:"min"`
		Max *xlsxValAttr `xml:"max"`
	} `xml:"scaling"`
	TickLblSkip *xlsxValAttr `xml:"tickLblSkip"`
	Title       *xlsxTitle   `xml:"title"`
	TxPr        struct {
		BodyPr struct {
			Rot string `xml:"rot,attr"`
		} `xml:"bodyPr"`
	} `xml:"txPr"`
}

type xlsxChartSpace struct {
	Chart struct {
		Title    *xlsxTitle `xml:"title"`
		PlotArea struct {
			CatAx  []xlsxAxis `xml:"catAx"`
			DateAx []xlsxAxis `xml:"dateAx"`
			ValAx  []xlsxAxis `xml:"valAx"`
			Plots  []struct {
				XMLName xml.Name
				Series  []xlsxSeries `xml:"ser"`
			} `xml:",any"`
		} `xml:"plotArea"`
	} `xml:"chart"`
}

// readChartObjects walks workbook -> sheet -> drawing -> chart relationships
// and returns every chart, sheet order then anchor order.
func readChartObjects(zr *zip.Reader) ([]ChartObject, error) {
	parts := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		parts[f.Name] = f
	}

	var wb xlsxWorkbook
	if err := decodePart(parts, "xl/workbook.xml", &wb); err != nil {
		return nil, err
	}
	wbRels, err := readRels(parts, "xl/workbook.xml")
	if err != nil {
		return nil, err
	}

	var charts []ChartObject
	for _, sheet := range wb.Sheets {
		sheetPart, ok := wbRels[sheet.RID]
		if !ok {
			continue
		}

		var sd xlsxSheetDrawing
		if err := decodePart(parts, sheetPart, &sd); err != nil {
			return nil, err
		}
		if sd.Drawing == nil {
			continue
		}
		sheetRels, err := readRels(parts, sheetPart)
		if err != nil {
			return nil, err
		}
		drawingPart, ok := sheetRels[sd.Drawing.RID]
		if !ok {
			continue
		}

		var drawing xlsxDrawing
		if err := decodePart(parts, drawingPart, &drawing); err != nil {
			return nil, err
		}
		drawingRels, err := readRels(parts, drawingPart)
		if err != nil {
			return nil, err
		}

		for _, anchor := range drawing.Anchors {
			if anchor.Frame == nil || anchor.Frame.Chart == nil {
				continue
			}
			chartPart, ok := drawingRels[anchor.Frame.Chart.RID]
			if !ok {
				continue
			}

			var cs xlsxChartSpace
			if err := decodePart(parts, chartPart, &cs); err != nil {
				return nil, err
			}

			obj := chartObject(&cs)
			obj.Index = len(charts) + 1
			obj.Sheet = sheet.Name
			obj.Name = anchor.Frame.NvPr.CNvPr.Name
			if obj.Name == "" {
				obj.Name = fmt.Sprintf("Chart %d", obj.Index)
			}
			charts = append(charts, obj)
		}
	}
	return charts, nil
}

func chartObject(cs *xlsxChartSpace) ChartObject {
	pa := cs.Chart.PlotArea
	obj := ChartObject{Title: cs.Chart.Title.text()}

	for _, plot := range pa.Plots {
		if !strings.HasSuffix(plot.XMLName.Local, "Chart") {
			continue
		}
		if obj.Kind == "" {
			obj.Kind = plot.XMLName.Local
		}
		for _, ser := range plot.Series {
			ref := SeriesRef{
				Name:       ser.Tx.V,
				Categories: ser.Cat.ref(),
				Values:     ser.Val.ref(),
			}
			if ser.Tx.StrRef != nil {
				ref.Name = ser.Tx.StrRef.F
			}
			obj.Series = append(obj.Series, ref)
		}
	}

	cat := make([]xlsxAxis, 0, len(pa.CatAx)+len(pa.DateAx))
	cat = append(cat, pa.CatAx...)
	cat = append(cat, pa.DateAx...)
	if len(cat) > 0 {
		x := cat[0]
		obj.XTitle = x.Title.text()
		if x.TickLblSkip != nil {
			obj.TickLabelSkip, _ = strconv.Atoi(x.TickLblSkip.Val)
		}
		if rot, err := strconv.Atoi(x.TxPr.BodyPr.Rot); err == nil {
			obj.LabelRotation = float64(rot) / 60000
		}
	}
	if len(pa.ValAx) > 0 {
		y := pa.ValAx[0]
		obj.YTitle = y.Title.text()
		obj.YMin = parseBound(y.Scaling.Min)
		obj.YMax = parseBound(y.Scaling.Max)
	}
	return obj
}

func parseBound(v *xlsxValAttr) *float64 {
	if v == nil {
		return nil
	}
	f, err := strconv.ParseFloat(v.Val, 64)
	if err != nil || math.IsNaN(f) {
		return nil
	}
	return &f
}

func decodePart(parts map[string]*zip.File, name string, v interface{}) error {
	f, ok := parts[name]
	if !ok {
		return apperrors.NewParsingError(fmt.Sprintf("package part %s", name), apperrors.NewNotFoundError(name))
	}
	rc, err := f.Open()
	if err != nil {
		return apperrors.NewParsingError(fmt.Sprintf("open %s", name), err)
	}
	defer rc.Close()

	if err := xml.NewDecoder(io.LimitReader(rc, maxPartSize)).Decode(v); err != nil {
		return apperrors.NewParsingError(fmt.Sprintf("decode %s", name), err)
	}
	return nil
}

// maxPartSize bounds a single decoded package part.
const maxPartSize = 256 << 20

// readRels maps relationship ids of source to package part names.
// A missing rels part yields an empty map.
func readRels(parts map[string]*zip.File, source string) (map[string]string, error) {
	relsName := path.Join(path.Dir(source), "_rels", path.Base(source)+".rels")
	out := map[string]string{}
	if _, ok := parts[relsName]; !ok {
		return out, nil
	}

	var rels xlsxRelationships
	if err := decodePart(parts, relsName, &rels); err != nil {
		return nil, err
	}
	for _, r := range rels.Relationships {
		out[r.ID] = resolveTarget(source, r.Target)
	}
	return out, nil
}

func resolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(path.Dir(source), target)
}
