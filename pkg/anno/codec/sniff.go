package codec

import (
	"encoding/json"
	"strconv"
	"strings"
)

// DetectFormat decides which annotation format raw text is in, by
// structure rather than file extension (a ".txt" tells us nothing).
//
//   - JSON with "annotations" or "categories" keys: COCO
//   - XML with an <annotation> document element: Pascal VOC
//   - Non-empty lines of exactly 5 whitespace fields, fields 2-5 numeric: YOLO
func DetectFormat(text string) Format {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return FormatUnknown
	}

	if strings.HasPrefix(trimmed, "{") {
		keys := map[string]json.RawMessage{}
		if json.Unmarshal([]byte(trimmed), &keys) == nil {
			_, hasAnnotations := keys["annotations"]
			_, hasCategories := keys["categories"]
			if hasAnnotations || hasCategories {
				return FormatCOCO
			}
		}
		return FormatUnknown
	}

	if strings.HasPrefix(trimmed, "<") {
		if strings.Contains(trimmed, "<annotation") {
			return FormatVOC
		}
		return FormatUnknown
	}

	lines := strings.Split(trimmed, "\n")
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 5 {
			return FormatUnknown
		}
		for _, f := range fields[1:] {
			if _, err := strconv.ParseFloat(f, 64); err != nil {
				return FormatUnknown
			}
		}
	}
	return FormatYOLO
}
