// Package dataprocessing turns raw EMG CSV exports into cleaned workbooks.
//
// # Pipeline
//
// A CSV export carries a few lines of device preamble followed by a header row
// and one row per acquisition sample. The cleaner:
//
//  1. Reads the header on the configured row and selects the time, forearm
//     flexor and calf columns by exact name.
//  2. Builds a uniform time grid of floor(max_time)/step points starting at 0.
//  3. Matches every grid point to the nearest sample within tolerance, reusing
//     one sample for at most limit neighbouring grid points.
//  4. Rectifies both signals (absolute value).
//  5. Writes a one-sheet workbook with display labels in row 1.
//
// Grid points without a sample in tolerance are kept with empty signal cells
// unless the cleaner is configured to drop them.
//
// # Usage
//
//	cleaner := dataprocessing.NewCleaner(cfg.Signal, logger)
//	summary, err := cleaner.CleanFile(ctx, "data/emg_csv/7-2.csv", "data/emg_xlsx/7-2.xlsx")
//
// # Error Handling
//
// Errors are *errors.AppError values. Missing columns wrap ErrMissingColumn,
// files without samples wrap ErrNoData, and non-increasing time is a
// validation error.
package dataprocessing
