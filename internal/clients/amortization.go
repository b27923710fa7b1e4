package clients

import (
	"context"
	"net/http"

	"github.com/cloud-ru/installments-go/internal/schedule"
	"github.com/sirupsen/logrus"
)

// AmortizationClient сервис расчета графика платежей
type AmortizationClient struct {
	url    string
	caller jsonCaller
}

// NewAmortizationClient создает клиент сервиса расчета графика
func NewAmortizationClient(url string, client *http.Client, log logrus.FieldLogger) *AmortizationClient {
	return &AmortizationClient{
		url:    url,
		caller: jsonCaller{service: "amortization", client: client, log: log},
	}
}

// Generate запрашивает сгенерированный график
func (c *AmortizationClient) Generate(ctx context.Context, req schedule.AmortizationRequest) (schedule.AmortizationResponse, error) {
	var resp schedule.AmortizationResponse
	if err := c.caller.call(ctx, http.MethodPost, c.url, "generate", req, &resp); err != nil {
		return schedule.AmortizationResponse{}, err
	}
	return resp, nil
}
