package intent

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/drugqa/internal/domain"
)

// Example is one labelled query used for few-shot prompting.
type Example struct {
	Query   string   `json:"query"`
	Intents []string `json:"intents"`
}

// LoadExamplesFile reads a JSONL file of examples. An empty path or a
// missing file yields none.
func LoadExamplesFile(path string) ([]Example, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(filepath.Clean(path))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open intent examples: %w", err)
	}
	defer f.Close()
	return LoadExamples(f)
}

// LoadExamples parses one JSON object per line, skipping blank lines.
func LoadExamples(r io.Reader) ([]Example, error) {
	var out []Example
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var ex Example
		if err := json.Unmarshal([]byte(text), &ex); err != nil {
			return nil, fmt.Errorf("intent examples line %d: %w", line, err)
		}
		out = append(out, ex)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read intent examples: %w", err)
	}
	return out, nil
}

func fewShotMessages(examples []Example) []domain.Message {
	msgs := make([]domain.Message, 0, len(examples)*2)
	for _, ex := range examples {
		labels, err := json.Marshal(ex.Intents)
		if err != nil {
			continue
		}
		msgs = append(msgs,
			domain.Message{Role: domain.RoleUser, Content: ex.Query},
			domain.Message{Role: domain.RoleAssistant, Content: string(labels)},
		)
	}
	return msgs
}
