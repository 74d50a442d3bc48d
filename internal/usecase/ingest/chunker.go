package ingest

import "strings"

// window is one chunk of words.
type window struct {
	text  string
	words int
}

// splitWords cuts text into windows of size words overlapping by overlap.
// The last window ends at the final word; no window is fully contained in
// its predecessor.
func splitWords(text string, size, overlap int) []window {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	step := size - overlap
	if step <= 0 {
		step = size
	}

	var out []window
	for start := 0; start < len(words); start += step {
		end := min(start+size, len(words))
		out = append(out, window{text: strings.Join(words[start:end], " "), words: end - start})
		if end == len(words) {
			break
		}
	}
	return out
}
