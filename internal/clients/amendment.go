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

// AmendmentClient сервис приема допсоглашений, реализует amendment.Submitter
type AmendmentClient struct {
	baseURL string
	caller  jsonCaller
}

var _ amendment.Submitter = (*AmendmentClient)(nil)

type submissionResponse struct {
	Message string `json:"message"`
}

// NewAmendmentClient создает клиент; допсоглашение отправляется на {baseURL}/{id}/amendments
func NewAmendmentClient(baseURL string, client *http.Client, log logrus.FieldLogger) *AmendmentClient {
	return &AmendmentClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		caller:  jsonCaller{service: "amendment", client: client, log: log},
	}
}

// SubmitAmendment отправляет допсоглашение и возвращает сообщение-подтверждение
func (c *AmendmentClient) SubmitAmendment(ctx context.Context, financingID string, submission amendment.Submission) (string, error) {
	var resp submissionResponse
	endpoint := fmt.Sprintf("%s/%s/amendments", c.baseURL, url.PathEscape(financingID))
	if err := c.caller.call(ctx, http.MethodPost, endpoint, "submit", submission, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}
