package panel

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rendis/vetassist/pkg/schema"
)

var ageUnits = []struct {
	limit  time.Duration
	per    time.Duration
	suffix string
}{
	{time.Minute, time.Second, "s"},
	{time.Hour, time.Minute, "m"},
	{24 * time.Hour, time.Hour, "h"},
}

// timeAgo formats how long ago t was, e.g. "42s ago" or "3d ago".
func timeAgo(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t)
	for _, u := range ageUnits {
		if d < u.limit {
			return fmt.Sprintf("%d%s ago", d/u.per, u.suffix)
		}
	}
	return fmt.Sprintf("%dd ago", d/(24*time.Hour))
}

var badges = map[schema.AnalysisStatus]string{
	schema.AnalysisSucceeded: "badge-success",
	schema.AnalysisFailed:    "badge-error",
	schema.AnalysisRunning:   "badge-active",
}

func statusBadge(status schema.AnalysisStatus) string {
	if b, ok := badges[status]; ok {
		return b
	}
	return "badge-secondary"
}

// truncate keeps the first n runes of s and marks the cut with "...".
func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}

func joinSymptoms(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, ", ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeText(w http.ResponseWriter, s string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s))
}

// queryInt reads a non-negative integer query parameter. Missing or malformed
// values yield def.
func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 0 {
		return def
	}
	return n
}
