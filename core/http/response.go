package http

import "encoding/json"

// AppendStatusLine appends "HTTP/1.1 <code> <text>\r\n".
func AppendStatusLine(b []byte, code int) []byte {
	b = append(b, "HTTP/1.1 "...)
	b = appendInt(b, code)
	b = append(b, ' ')
	b = append(b, StatusText(code)...)
	return append(b, '\r', '\n')
}

// AppendHeader appends one "Key: Value\r\n" header line.
func AppendHeader(b []byte, key, value string) []byte {
	b = append(b, key...)
	b = append(b, ':', ' ')
	b = append(b, value...)
	return append(b, '\r', '\n')
}

// AppendContentHeaders appends Content-Type and Content-Length followed by
// the header-terminating blank line.
func AppendContentHeaders(b []byte, contentType string, length int) []byte {
	b = AppendHeader(b, "Content-Type", contentType)
	b = append(b, "Content-Length: "...)
	b = appendInt(b, length)
	return append(b, '\r', '\n', '\r', '\n')
}

// BuildJSONResponse serializes payload into complete response bytes. It is
// used where no pooled context exists, such as transport-level errors.
func BuildJSONResponse(code int, payload any) []byte {
	body, err := json.Marshal(payload)
	if err != nil {
		code = 500
		body = []byte(`{"code":500,"message":"internal error"}`)
	}

	b := make([]byte, 0, 128+len(body))
	b = AppendStatusLine(b, code)
	b = AppendContentHeaders(b, "application/json", len(body))
	return append(b, body...)
}

// BuildErrorResponse builds a complete JSON error response.
func BuildErrorResponse(code int, message string) []byte {
	return BuildJSONResponse(code, map[string]any{
		"code":    code,
		"message": message,
	})
}

// StatusText returns the reason phrase for the status codes this server
// emits.
func StatusText(code int) string {
	switch code {
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 204:
		return "No Content"
	case 400:
		return "Bad Request"
	case 404:
		return "Not Found"
	case 413:
		return "Request Entity Too Large"
	case 500:
		return "Internal Server Error"
	default:
		return "Unknown"
	}
}

// appendInt appends the decimal form of a non-negative int.
func appendInt(b []byte, i int) []byte {
	if i == 0 {
		return append(b, '0')
	}

	var digits [20]byte
	n := 0
	for i > 0 {
		digits[n] = byte('0' + i%10)
		i /= 10
		n++
	}
	for n > 0 {
		n--
		b = append(b, digits[n])
	}
	return b
}
