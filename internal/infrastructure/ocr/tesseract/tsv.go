package tesseract

import (
	"strconv"
	"strings"
)

// tsvResult is the text and word-confidence aggregate of one tesseract TSV run.
type tsvResult struct {
	text    string
	confSum float64
	words   int
}

func (r tsvResult) meanConfidence() float64 {
	if r.words == 0 {
		return 0
	}
	return r.confSum / float64(r.words)
}

type lineKey struct {
	page, block, par, line string
}

// parseTSV rebuilds lines from word rows (level 5) and averages their
// confidence. Columns: level page block par line word left top width height conf text.
func parseTSV(out []byte) tsvResult {
	var (
		res     tsvResult
		b       strings.Builder
		current lineKey
		started bool
	)

	for i, ln := range strings.Split(string(out), "\n") {
		if i == 0 || ln == "" {
			continue
		}
		cols := strings.Split(strings.TrimRight(ln, "\r"), "\t")
		if len(cols) < 12 || cols[0] != "5" {
			continue
		}
		word := strings.TrimSpace(cols[11])
		if word == "" {
			continue
		}
		conf, err := strconv.ParseFloat(cols[10], 64)
		if err != nil || conf < 0 {
			continue
		}

		key := lineKey{page: cols[1], block: cols[2], par: cols[3], line: cols[4]}
		switch {
		case !started:
			started = true
		case key != current:
			b.WriteByte('\n')
		default:
			b.WriteByte(' ')
		}
		current = key
		b.WriteString(word)

		res.confSum += conf
		res.words++
	}

	res.text = b.String()
	return res
}
