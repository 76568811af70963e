// Package imaging exports the charts embedded in xlsx workbooks as PNG files.
//
// Export goes through a small spreadsheet-application capability
// (Application and Document) so the export loop does not depend on how
// charts are drawn. RenderApp is the native backend: it reads chart
// definitions from the workbook package, resolves their cell ranges with
// excelize and draws them with go-chart.
package imaging
