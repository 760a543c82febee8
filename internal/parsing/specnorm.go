package parsing

import "strings"

// SplitDescription splits a free-text item description into an item-type
// token and a specification remainder. The split happens at the first comma,
// or at the first whitespace run when no comma is present. An empty
// description yields two empty strings; that is a valid outcome and the
// caller decides whether to reject it.
//
//	"PIPE, SMLS, NPS 2"  -> ("PIPE", "SMLS, NPS 2")
//	"GASKET SPL WND"     -> ("GASKET", "SPL WND")
func SplitDescription(description string) (itemType, specification string) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", ""
	}

	if idx := strings.Index(description, ","); idx >= 0 {
		return strings.ToUpper(strings.TrimSpace(description[:idx])),
			strings.TrimSpace(description[idx+1:])
	}

	fields := strings.Fields(description)
	itemType = strings.ToUpper(fields[0])
	if len(fields) > 1 {
		specification = strings.TrimSpace(description[strings.Index(description, fields[0])+len(fields[0]):])
	}
	return itemType, specification
}
