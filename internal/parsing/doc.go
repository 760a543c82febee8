// Package parsing turns raw RFQ bid-comparison spreadsheets into normalized
// solicitation records. Bid submitters use three incompatible sheet layouts;
// the detector classifies a raw cell grid into one of them and maps its
// columns, and the extractor walks the data rows and emits domain.Item and
// bid records. The package performs no I/O of its own beyond reading the
// workbook bytes handed to it and never writes to storage.
package parsing
