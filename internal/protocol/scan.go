package protocol

import (
	"strconv"
	"strings"

	"eve-chainmap/internal/model"
)

const cosmicPrefix = "Cosmic "

// ParseScanResults reads a probe-scanner clipboard dump: one tab-separated
// line per result with six fields (id, scan group, group, type, signal,
// distance). Reading stops at the first empty line, a line with the wrong
// field count, or a result that is not a cosmic signature/anomaly.
// Later duplicates of an id replace earlier ones; first-seen order is kept.
func ParseScanResults(bulk string) []model.Signature {
	var out []model.Signature
	seen := make(map[string]int)
	for _, line := range strings.Split(bulk, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			break
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 6 {
			break
		}
		if !strings.HasPrefix(fields[1], cosmicPrefix) {
			break
		}
		signal, _ := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(fields[4]), "%"), 64)
		sig := model.Signature{
			ID:        fields[0],
			ScanGroup: strings.TrimPrefix(fields[1], cosmicPrefix),
			Group:     fields[2],
			Type:      fields[3],
			Signal:    signal,
		}
		if i, ok := seen[sig.ID]; ok {
			out[i] = sig
			continue
		}
		seen[sig.ID] = len(out)
		out = append(out, sig)
	}
	return out
}
