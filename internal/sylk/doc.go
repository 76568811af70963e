// Package sylk decodes SYLK (Symbolic Link) spreadsheet-interchange files
// into a plain cell grid. Formatting, formulas and options are ignored; only
// the literal cell values the acquisition software wrote are kept.
package sylk
