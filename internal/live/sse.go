package live

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

const maxEventSize = 1 << 20

// readEvents parses a text/event-stream body and calls fn once per complete
// event. Events without a name are reported as "message".
func readEvents(r io.Reader, fn func(name string, data []byte)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	name := ""
	var data bytes.Buffer
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if data.Len() > 0 {
				payload := bytes.TrimSuffix(data.Bytes(), []byte("\n"))
				if name == "" {
					name = "message"
				}
				fn(name, append([]byte(nil), payload...))
			}
			name = ""
			data.Reset()
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			name = value
		case "data":
			data.WriteString(value)
			data.WriteByte('\n')
		}
	}
	return scanner.Err()
}
