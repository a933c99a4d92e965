package http

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net/url"
	"strconv"
	"strings"
)

var (
	// ErrMalformedRequest covers unparseable request lines and headers.
	ErrMalformedRequest = errors.New("malformed HTTP request")

	// ErrRequestTooLarge covers lines or bodies beyond the configured caps.
	ErrRequestTooLarge = errors.New("request too large")
)

// maxBodySize caps Content-Length bodies. None of the served endpoints need
// a body at all, so the limit is purely a transport safeguard.
const maxBodySize = 1 << 20

// maxHeaderBytes caps the cumulative size of one request's header block.
// Individual lines are already bounded by the read buffer; this bounds how
// many of them a client may send.
const maxHeaderBytes = 64 << 10

// ReadRequest reads one HTTP/1.1 request from a buffered connection reader.
// It blocks until a full request is available, io.EOF on a cleanly closed
// idle connection, or an error. Callers own deadline handling.
func ReadRequest(br *bufio.Reader) (*Request, error) {
	line, err := readLine(br)
	if err != nil {
		return nil, err
	}

	req := AcquireRequest()

	if err := parseRequestLine(req, line); err != nil {
		ReleaseRequest(req)
		return nil, err
	}

	if err := readHeaders(req, br); err != nil {
		ReleaseRequest(req)
		return nil, err
	}

	if err := readBody(req, br); err != nil {
		ReleaseRequest(req)
		return nil, err
	}

	return req, nil
}

// readLine returns one CRLF-terminated line without its terminator. A line
// longer than the reader's buffer is rejected rather than grown.
func readLine(br *bufio.Reader) ([]byte, error) {
	line, err := br.ReadSlice('\n')
	if err != nil {
		if err == bufio.ErrBufferFull {
			return nil, ErrRequestTooLarge
		}
		if err == io.EOF && len(line) > 0 {
			return nil, ErrMalformedRequest
		}
		return nil, err
	}

	line = line[:len(line)-1]
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	return line, nil
}

// parseRequestLine splits "METHOD PATH PROTO", decodes the path, and splits
// off the query string.
func parseRequestLine(req *Request, line []byte) error {
	sp1 := bytes.IndexByte(line, ' ')
	if sp1 <= 0 {
		return ErrMalformedRequest
	}

	sp2 := bytes.IndexByte(line[sp1+1:], ' ')
	if sp2 <= 0 {
		return ErrMalformedRequest
	}
	sp2 += sp1 + 1

	req.Method = string(line[:sp1])
	target := string(line[sp1+1 : sp2])
	req.Proto = string(line[sp2+1:])

	if !strings.HasPrefix(req.Proto, "HTTP/1.") {
		return ErrMalformedRequest
	}
	if target == "" || target[0] != '/' {
		return ErrMalformedRequest
	}

	if i := strings.IndexByte(target, '?'); i != -1 {
		parseQuery(req, target[i+1:])
		target = target[:i]
	}

	path, err := url.PathUnescape(target)
	if err != nil {
		return ErrMalformedRequest
	}
	req.Path = path

	return nil
}

func parseQuery(req *Request, query string) {
	if query == "" {
		return
	}
	if req.Query == nil {
		req.Query = make(map[string]string)
	}

	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		if i := strings.IndexByte(pair, '='); i != -1 {
			req.Query[pair[:i]] = pair[i+1:]
		} else {
			req.Query[pair] = ""
		}
	}
}

func readHeaders(req *Request, br *bufio.Reader) error {
	total := 0
	for {
		line, err := readLine(br)
		if err != nil {
			if err == io.EOF {
				return ErrMalformedRequest
			}
			return err
		}

		if len(line) == 0 {
			return nil
		}

		total += len(line)
		if total > maxHeaderBytes {
			return ErrRequestTooLarge
		}

		colon := bytes.IndexByte(line, ':')
		if colon <= 0 {
			return ErrMalformedRequest
		}

		key := string(bytes.TrimSpace(line[:colon]))
		value := string(bytes.TrimSpace(line[colon+1:]))
		req.SetHeader(key, value)
	}
}

func readBody(req *Request, br *bufio.Reader) error {
	if req.ContentLength == "" {
		return nil
	}

	n, err := strconv.Atoi(req.ContentLength)
	if err != nil || n < 0 {
		return ErrMalformedRequest
	}
	if n == 0 {
		return nil
	}
	if n > maxBodySize {
		return ErrRequestTooLarge
	}

	if cap(req.Body) < n {
		req.Body = make([]byte, n)
	} else {
		req.Body = req.Body[:n]
	}

	if _, err := io.ReadFull(br, req.Body); err != nil {
		return ErrMalformedRequest
	}
	return nil
}
