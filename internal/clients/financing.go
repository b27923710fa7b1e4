package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/cloud-ru/installments-go/internal/amendment"
	"github.com/sirupsen/logrus"
)

// FinancingReader источник данных финансирования продажи
type FinancingReader interface {
	Detail(ctx context.Context, financingID string) (amendment.FinancingDetail, error)
}

// FinancingClient сервис чтения данных финансирования
type FinancingClient struct {
	baseURL string
	caller  jsonCaller
}

// NewFinancingClient создает клиент; детали читаются по {baseURL}/{id}/detail
func NewFinancingClient(baseURL string, client *http.Client, log logrus.FieldLogger) *FinancingClient {
	return &FinancingClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		caller:  jsonCaller{service: "financing", client: client, log: log},
	}
}

// Detail возвращает итоги оплат и долга по финансированию
func (c *FinancingClient) Detail(ctx context.Context, financingID string) (amendment.FinancingDetail, error) {
	if financingID == "" {
		return amendment.FinancingDetail{}, fmt.Errorf("financing: empty financing id")
	}
	var detail amendment.FinancingDetail
	endpoint := fmt.Sprintf("%s/%s/detail", c.baseURL, url.PathEscape(financingID))
	if err := c.caller.call(ctx, http.MethodGet, endpoint, "detail", nil, &detail); err != nil {
		return amendment.FinancingDetail{}, err
	}
	return detail, nil
}
