package transport

import (
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
)

const (
	censored       = "$censored"
	maxLoggedBody  = 4 << 10
	unmatchedRoute = "unmatched"
)

var censoredFields = []string{"password", "current_password", "new_password"}

// ObserveMiddleware logs each request and records its metrics. Errors are
// rendered here so the logged status is the one sent to the client.
func (s *HTTPServer) ObserveMiddleware(c *fiber.Ctx) error {
	start := time.Now()

	if err := c.Next(); err != nil {
		if herr := c.App().ErrorHandler(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	latency := time.Since(start)
	status := c.Response().StatusCode()
	route := unmatchedRoute
	if r := c.Route(); r != nil && r.Path != "/" {
		route = r.Path
	}

	s.metrics.requests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
	s.metrics.duration.WithLabelValues(c.Method(), route).Observe(latency.Seconds())

	fields := []interface{}{
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"latency", latency,
		"ip", c.IP(),
	}
	if body := c.Body(); len(body) != 0 && len(body) <= maxLoggedBody && c.Is("json") {
		fields = append(fields, "body", string(censorBody(body)))
	}
	s.logger.Infow("request", fields...)

	return nil
}

// censorBody masks secrets in a JSON object body. Anything else is
// returned untouched.
func censorBody(b []byte) []byte {
	m := map[string]interface{}{}
	if err := json.Unmarshal(b, &m); err != nil {
		return b
	}

	changed := false
	for _, f := range censoredFields {
		if _, ok := m[f]; ok {
			m[f] = censored
			changed = true
		}
	}
	if !changed {
		return b
	}

	out, err := json.Marshal(m)
	if err != nil {
		return b
	}
	return out
}
