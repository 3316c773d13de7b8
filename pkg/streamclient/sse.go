package streamclient

import (
	"bufio"
	"io"
	"strings"
)

// frame is a single server-sent event parsed off the wire. Comment frames
// (the server's :ok greeting and :hb heartbeats) never surface here; the
// scanner swallows them.
type frame struct {
	// Type is the value of the "event:" field, empty for default events.
	Type string

	// Data is the payload assembled from the "data:" lines of the event,
	// joined with newlines when the event spans several.
	Data string
}

// sseScanner reads server-sent events from a response body. Events are
// delimited by blank lines; "data:" lines carry payload, ":" lines are
// comments, unknown fields are ignored.
type sseScanner struct {
	reader  *bufio.Reader
	current frame
	err     error
}

func newSSEScanner(reader io.Reader) *sseScanner {
	return &sseScanner{reader: bufio.NewReaderSize(reader, 64*1024)}
}

// Next advances to the next data-bearing frame. Returns false at stream end
// or on a read error; Err distinguishes the two.
func (s *sseScanner) Next() bool {
	s.current = frame{}

	var dataLines []string
	var eventType string
	hasData := false

	for {
		line, err := s.reader.ReadString('\n')

		if err != nil && line == "" {
			if err == io.EOF {
				if hasData {
					s.current = frame{Type: eventType, Data: strings.Join(dataLines, "\n")}
					s.err = io.EOF
					return true
				}
				return false
			}
			s.err = err
			return false
		}

		line = strings.TrimRight(line, "\r\n")

		// Blank line terminates the event.
		if line == "" {
			if hasData {
				s.current = frame{Type: eventType, Data: strings.Join(dataLines, "\n")}
				return true
			}
			eventType = ""
			continue
		}

		// Comments carry no application data.
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, hasColon := strings.Cut(line, ":")
		if !hasColon {
			field = line
			value = ""
		} else {
			// One leading space after the colon is part of the delimiter.
			value = strings.TrimPrefix(value, " ")
		}

		switch field {
		case "data":
			dataLines = append(dataLines, value)
			hasData = true
		case "event":
			eventType = value
		}
	}
}

// Frame returns the most recently parsed frame. Valid only after Next
// returned true.
func (s *sseScanner) Frame() frame {
	return s.current
}

// Err returns the first scanning error, nil for a clean EOF.
func (s *sseScanner) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}
