// Package clients содержит HTTP-адаптеры внешних сервисов: расчет графика,
// данные финансирования и прием допсоглашений.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cloud-ru/installments-go/internal/metrics"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxErrorBody сколько байт тела ответа попадает в текст ошибки
const maxErrorBody = 512

// StatusError ответ сервиса с кодом, отличным от 2xx
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status code %d: %s", e.Service, e.Code, e.Body)
}

// NewHTTPClient создает http.Client с трассировкой исходящих запросов
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

type jsonCaller struct {
	service string
	client  *http.Client
	log     logrus.FieldLogger
}

// call отправляет JSON-запрос и декодирует JSON-ответ в out (если out != nil)
func (c jsonCaller) call(ctx context.Context, method, url, endpoint string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", c.service, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", c.service, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	metrics.APICalls.WithLabelValues(c.service, endpoint, "started").Inc()

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.APICalls.WithLabelValues(c.service, endpoint, "error").Inc()
		return fmt.Errorf("%s: request failed: %w", c.service, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.APICalls.WithLabelValues(c.service, endpoint, "error").Inc()
		return fmt.Errorf("%s: read response: %w", c.service, err)
	}

	c.log.WithFields(logrus.Fields{
		"service":  c.service,
		"endpoint": endpoint,
		"status":   resp.StatusCode,
	}).Debugf("response: %s", truncate(raw))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.APICalls.WithLabelValues(c.service, endpoint, "error").Inc()
		return &StatusError{Service: c.service, Code: resp.StatusCode, Body: truncate(raw)}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			metrics.APICalls.WithLabelValues(c.service, endpoint, "error").Inc()
			return fmt.Errorf("%s: decode response: %w", c.service, err)
		}
	}

	metrics.APICalls.WithLabelValues(c.service, endpoint, "success").Inc()
	return nil
}

func truncate(raw []byte) string {
	if len(raw) > maxErrorBody {
		return string(raw[:maxErrorBody]) + "..."
	}
	return string(raw)
}
