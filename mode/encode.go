package mode

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/khaledhikmat/vs-detect/model"
)

// encodeDetections renders detections the way consumers of the detector
// have always parsed them:
//
//	[{"class": "person", "confidence": 0.87, "bbox": [34, 12, 220, 400]}]
//
// followed by a newline.
func encodeDetections(detections []model.Detection) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, d := range detections {
		if i > 0 {
			buf.WriteString(", ")
		}

		class, err := encodeString(d.Class)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`{"class": `)
		buf.Write(class)
		buf.WriteString(`, "confidence": `)
		buf.WriteString(formatFloat(d.Confidence))
		buf.WriteString(`, "bbox": [`)
		for j, v := range d.BBox {
			if j > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(strconv.Itoa(v))
		}
		buf.WriteString("]}")
	}
	buf.WriteString("]\n")
	return buf.Bytes(), nil
}

func encodeString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// formatFloat prints the shortest representation that round-trips, always
// with a decimal point or an exponent (1.0, 0.87, 1e-05).
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "e")
		sign := exp[0]
		exp = strings.TrimLeft(exp[1:], "0")
		if len(exp) < 2 {
			exp = "0" + exp
		}
		if sign == '-' {
			return mantissa + "e-" + exp
		}
		return mantissa + "e+" + exp
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
