// Package files discovers stage input files and plans their outputs.
//
// Discovery lists one directory (non-recursive) filtered by extension.
// Plan turns the listing into (input, output) Jobs without touching the
// file system, so the stem-preserving mapping can be tested on its own:
//
//	inputs, err := files.FindFiles(paths.CSVDir, ".csv")
//	jobs := files.Plan(inputs, paths.WorkbookDir, ".xlsx")
package files
