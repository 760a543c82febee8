package parsing

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var filenameMetaRe = regexp.MustCompile(`^[Ss][Tt](\w+)\s*_\s*(\w+)\s*_\s*(\w+)\s*_\s*(\d{1,2}-\d{1,2}-\d{4})$`)

// FilenameMetadata is the solicitation header information recoverable from
// a conventionally named source file. Used to pre-fill the ingestion
// confirmation, never trusted as authoritative.
type FilenameMetadata struct {
	Station string    `json:"station"`
	ID      string    `json:"rfq_id"`
	Creator string    `json:"creator"`
	Date    time.Time `json:"rfq_date"`
}

// MetadataFromFilename extracts solicitation metadata from filenames of the
// form St{station}_{rfq_id}_{creator}_{M-D-YYYY}.xlsx. The boolean is false
// when the name does not follow the convention.
//
//	St105_ME0003_AUDUBON_11-10-2025.xlsx
//	  -> station St105, id ME0003, creator AUDUBON, date 2025-11-10
func MetadataFromFilename(filename string) (FilenameMetadata, bool) {
	base := filepath.Base(filename)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	m := filenameMetaRe.FindStringSubmatch(name)
	if m == nil {
		return FilenameMetadata{}, false
	}

	parts := strings.Split(m[4], "-")
	month, err1 := strconv.Atoi(parts[0])
	day, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return FilenameMetadata{}, false
	}
	date, err := time.Parse("2006-01-02", fmt.Sprintf("%04d-%02d-%02d", year, month, day))
	if err != nil {
		return FilenameMetadata{}, false
	}

	return FilenameMetadata{
		Station: "St" + m[1],
		ID:      m[2],
		Creator: m[3],
		Date:    date,
	}, true
}
