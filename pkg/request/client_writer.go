package request

import "net/http"

// ClientWriter wraps an http.ResponseWriter and records the status code written to it, as the standard library
// does not expose it once the header has been sent.
type ClientWriter struct {
	http.ResponseWriter

	// statusCode is the status code that was written to the response.
	statusCode int
}

// NewClientWriter creates a new ClientWriter.
func NewClientWriter(w http.ResponseWriter) *ClientWriter {
	return &ClientWriter{
		ResponseWriter: w,
	}
}

// WriteHeader implements the http.ResponseWriter interface.
func (c *ClientWriter) WriteHeader(statusCode int) {
	c.statusCode = statusCode
	c.ResponseWriter.WriteHeader(statusCode)
}

// Write implements the http.ResponseWriter interface.
func (c *ClientWriter) Write(b []byte) (int, error) {
	// If the status code has not been set, then the standard library defaults to 200.
	if c.statusCode == 0 {
		c.statusCode = http.StatusOK
	}
	return c.ResponseWriter.Write(b)
}

// StatusCode returns the status code that was written to the response.
func (c *ClientWriter) StatusCode() int {
	if c.statusCode == 0 {
		return http.StatusOK
	}
	return c.statusCode
}
