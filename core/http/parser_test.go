package http

import (
	"bufio"
	"io"
	"strings"
	"testing"
)

func reader(s string) *bufio.Reader {
	return bufio.NewReaderSize(strings.NewReader(s), 4096)
}

func TestReadRequestBasic(t *testing.T) {
	br := reader("GET /health HTTP/1.1\r\nHost: localhost:8080\r\nUser-Agent: test/1.0\r\n\r\n")

	req, err := ReadRequest(br)
	if err != nil {
		t.Fatalf("ReadRequest failed: %v", err)
	}
	defer ReleaseRequest(req)

	if req.Method != "GET" {
		t.Errorf("Expected method GET, got %s", req.Method)
	}
	if req.Path != "/health" {
		t.Errorf("Expected path /health, got %s", req.Path)
	}
	if req.Proto != "HTTP/1.1" {
		t.Errorf("Expected proto HTTP/1.1, got %s", req.Proto)
	}
	if req.Host != "localhost:8080" {
		t.Errorf("Expected host localhost:8080, got %s", req.Host)
	}
	if req.UserAgent != "test/1.0" {
		t.Errorf("Expected user agent test/1.0, got %s", req.UserAgent)
	}
}

func TestReadRequestSequential(t *testing.T) {
	// Two requests back to back on one reader, as keep-alive delivers them.
	br := reader("GET / HTTP/1.1\r\nHost: a\r\n\r\nGET /stats HTTP/1.1\r\nHost: a\r\n\r\n")

	first, err := ReadRequest(br)
	if err != nil {
		t.Fatalf("First request failed: %v", err)
	}
	if first.Path != "/" {
		t.Errorf("Expected path /, got %s", first.Path)
	}
	ReleaseRequest(first)

	second, err := ReadRequest(br)
	if err != nil {
		t.Fatalf("Second request failed: %v", err)
	}
	if second.Path != "/stats" {
		t.Errorf("Expected path /stats, got %s", second.Path)
	}
	ReleaseRequest(second)

	if _, err := ReadRequest(br); err != io.EOF {
		t.Errorf("Expected io.EOF after last request, got %v", err)
	}
}

func TestReadRequestPercentDecoding(t *testing.T) {
	br := reader("GET /echo/hello%20world HTTP/1.1\r\nHost: a\r\n\r\n")

	req, err := ReadRequest(br)
	if err != nil {
		t.Fatalf("ReadRequest failed: %v", err)
	}
	defer ReleaseRequest(req)

	if req.Path != "/echo/hello world" {
		t.Errorf("Expected decoded path, got %q", req.Path)
	}
}

func TestReadRequestQuery(t *testing.T) {
	br := reader("GET /stats?verbose=1&pretty HTTP/1.1\r\nHost: a\r\n\r\n")

	req, err := ReadRequest(br)
	if err != nil {
		t.Fatalf("ReadRequest failed: %v", err)
	}
	defer ReleaseRequest(req)

	if req.Path != "/stats" {
		t.Errorf("Query should be split off the path, got %q", req.Path)
	}
	if req.Query["verbose"] != "1" {
		t.Errorf("Expected verbose=1, got %q", req.Query["verbose"])
	}
	if _, ok := req.Query["pretty"]; !ok {
		t.Error("Expected bare query key to be present")
	}
}

func TestReadRequestBody(t *testing.T) {
	br := reader("POST /echo/x HTTP/1.1\r\nHost: a\r\nContent-Length: 5\r\n\r\nhello")

	req, err := ReadRequest(br)
	if err != nil {
		t.Fatalf("ReadRequest failed: %v", err)
	}
	defer ReleaseRequest(req)

	if string(req.Body) != "hello" {
		t.Errorf("Expected body hello, got %q", req.Body)
	}
}

func TestReadRequestMalformed(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"garbage request line", "NONSENSE\r\n\r\n"},
		{"missing proto", "GET /\r\n\r\n"},
		{"bad proto", "GET / SMTP/1.0\r\n\r\n"},
		{"relative path", "GET health HTTP/1.1\r\n\r\n"},
		{"bad escape", "GET /echo/%zz HTTP/1.1\r\n\r\n"},
		{"header without colon", "GET / HTTP/1.1\r\nbroken header\r\n\r\n"},
		{"negative content length", "GET / HTTP/1.1\r\nContent-Length: -1\r\n\r\n"},
		{"truncated headers", "GET / HTTP/1.1\r\nHost: a"},
	}

	for _, tc := range cases {
		br := reader(tc.input)
		if _, err := ReadRequest(br); err == nil {
			t.Errorf("%s: expected parse error, got none", tc.name)
		} else if err == io.EOF {
			t.Errorf("%s: expected malformed error, got clean EOF", tc.name)
		}
	}
}

func TestReadRequestCleanEOF(t *testing.T) {
	br := reader("")
	if _, err := ReadRequest(br); err != io.EOF {
		t.Errorf("Expected io.EOF on empty connection, got %v", err)
	}
}

func TestReadRequestOversizedLine(t *testing.T) {
	br := bufio.NewReaderSize(strings.NewReader("GET /"+strings.Repeat("a", 1<<16)+" HTTP/1.1\r\n\r\n"), 4096)

	if _, err := ReadRequest(br); err != ErrRequestTooLarge {
		t.Errorf("Expected ErrRequestTooLarge, got %v", err)
	}
}

// headerStream emits header lines forever, standing in for a client that
// never finishes its header block.
type headerStream struct {
	line string
	off  int
}

func (h *headerStream) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		c := copy(p[n:], h.line[h.off:])
		n += c
		h.off = (h.off + c) % len(h.line)
	}
	return n, nil
}

func TestReadRequestOversizedHeaderBlock(t *testing.T) {
	// Every line fits the buffer on its own; only the total is excessive.
	src := io.MultiReader(
		strings.NewReader("GET / HTTP/1.1\r\n"),
		&headerStream{line: "X-Filler: " + strings.Repeat("a", 1000) + "\r\n"},
	)
	br := bufio.NewReaderSize(src, 4096)

	if _, err := ReadRequest(br); err != ErrRequestTooLarge {
		t.Errorf("Expected ErrRequestTooLarge for unbounded header block, got %v", err)
	}
}

func TestReadRequestHeaderBlockUnderCap(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("GET / HTTP/1.1\r\nHost: a\r\n")
	for i := 0; i < 20; i++ {
		sb.WriteString("X-Filler: ")
		sb.WriteString(strings.Repeat("b", 1000))
		sb.WriteString("\r\n")
	}
	sb.WriteString("\r\n")

	req, err := ReadRequest(reader(sb.String()))
	if err != nil {
		t.Fatalf("Header block under the cap should parse, got %v", err)
	}
	ReleaseRequest(req)
}

func TestReadRequestLowercaseHeaders(t *testing.T) {
	br := reader("POST / HTTP/1.1\r\nhost: a\r\nconnection: close\r\ncontent-length: 5\r\n\r\nhello")

	req, err := ReadRequest(br)
	if err != nil {
		t.Fatalf("ReadRequest failed: %v", err)
	}
	defer ReleaseRequest(req)

	if req.Host != "a" {
		t.Errorf("Expected lowercase host header to populate Host, got %q", req.Host)
	}
	if string(req.Body) != "hello" {
		t.Errorf("Expected lowercase content-length to drive the body read, got %q", req.Body)
	}
	if !req.WantsClose() {
		t.Error("Expected lowercase connection: close to be honored")
	}
}

func TestWantsCloseCaseInsensitive(t *testing.T) {
	cases := []struct {
		proto      string
		connection string
		want       bool
	}{
		{"HTTP/1.1", "close", true},
		{"HTTP/1.1", "Close", true},
		{"HTTP/1.1", "", false},
		{"HTTP/1.1", "keep-alive", false},
		{"HTTP/1.0", "", true},
		{"HTTP/1.0", "Keep-Alive", false},
		{"HTTP/1.0", "keep-alive", false},
	}

	for _, tc := range cases {
		req := &Request{Proto: tc.proto, Connection: tc.connection}
		if got := req.WantsClose(); got != tc.want {
			t.Errorf("%s with Connection=%q: WantsClose() = %v, want %v",
				tc.proto, tc.connection, got, tc.want)
		}
	}
}

func BenchmarkReadRequest(b *testing.B) {
	raw := "GET /echo/benchmark HTTP/1.1\r\nHost: localhost\r\nUser-Agent: bench\r\n\r\n"
	r := strings.NewReader(raw)
	br := bufio.NewReaderSize(r, 4096)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Reset(raw)
		br.Reset(r)
		req, err := ReadRequest(br)
		if err != nil {
			b.Fatal(err)
		}
		ReleaseRequest(req)
	}
}
