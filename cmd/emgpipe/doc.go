// Command emgpipe runs the EMG processing pipeline.
//
//	emgpipe convert            SYLK files in data/emg      -> data/emg_csv/*.csv
//	emgpipe clean              CSV files in data/emg_csv   -> data/emg_xlsx/*.xlsx
//	emgpipe chart              workbooks in data/emg_xlsx  -> data/emg_xlsx_with_charts/*.xlsx
//	emgpipe export <workbook>  charts of a workbook        -> chart1.png, chart2.png, ...
//	emgpipe run                convert, clean and chart in order
//
// Every stage prints a summary table and exits with status 1 when any file
// failed.
package main
