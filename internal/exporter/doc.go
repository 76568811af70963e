// Package exporter writes CSV files for the pipeline.
//
// CSVWriter replaces the target file, creates its directory, quotes fields
// that contain separators (the EMG headers such as "Time,s" do) and can
// prefix a UTF-8 BOM so spreadsheet applications detect the encoding:
//
//	w := exporter.NewCSVWriter(logger)
//	err := w.WriteCSV("data/emg_csv/7-2.csv", exporter.WriteOptions{Records: rows})
package exporter
