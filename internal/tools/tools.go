// Package tools связывает именованные инструменты с сессией редактирования
// графика и допсоглашения. Каждый вызов идет со спаном, метриками и
// проверкой параметров.
package tools

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cloud-ru/installments-go/internal/amendment"
	"github.com/cloud-ru/installments-go/internal/clients"
	"github.com/cloud-ru/installments-go/internal/config"
	"github.com/cloud-ru/installments-go/internal/ledger"
	"github.com/cloud-ru/installments-go/internal/metrics"
	"github.com/cloud-ru/installments-go/internal/money"
	"github.com/cloud-ru/installments-go/internal/schedule"
	"github.com/cloud-ru/installments-go/internal/tracing"
	"github.com/cloud-ru/installments-go/internal/validators"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ToolHandler представляет обработчик инструмента
type ToolHandler func(ctx context.Context, params Params) (interface{}, error)

// ScheduleGenerator сервис расчета графика
type ScheduleGenerator interface {
	Generate(ctx context.Context, req schedule.AmortizationRequest) (schedule.AmortizationResponse, error)
}

type invalidator interface {
	Invalidate(ctx context.Context, financingID string) error
}

// Dependencies внешние сервисы и настройки сессии
type Dependencies struct {
	Generator ScheduleGenerator
	Financing clients.FinancingReader
	Submitter amendment.Submitter
	IDs       ledger.IDGenerator
	Clock     func() time.Time
	Logger    logrus.FieldLogger
	Tracer    trace.Tracer
}

// Session редактируемый график и допсоглашение одного пользователя.
// Вызовы инструментов выполняются последовательно.
type Session struct {
	mu        sync.Mutex
	cfg       *config.Config
	deps      Dependencies
	log       logrus.FieldLogger
	tracer    trace.Tracer
	schedule  *ledger.Ledger
	amendment *amendment.Builder
}

// NewSession создает пустую сессию
func NewSession(cfg *config.Config, deps Dependencies) *Session {
	if deps.IDs == nil {
		deps.IDs = ledger.NewSequence()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	if deps.Tracer == nil {
		deps.Tracer = tracing.Tracer
	}

	return &Session{
		cfg:      cfg,
		deps:     deps,
		log:      deps.Logger,
		tracer:   deps.Tracer,
		schedule: ledger.New(ledger.WithIDGenerator(deps.IDs)),
		amendment: amendment.NewBuilder(deps.Submitter,
			amendment.WithIDGenerator(deps.IDs),
			amendment.WithClock(deps.Clock),
			amendment.WithLogger(deps.Logger),
		),
	}
}

// Registry все инструменты сессии по именам
func (s *Session) Registry() map[string]ToolHandler {
	return map[string]ToolHandler{
		"schedule_generate":        ScheduleGenerateHandler(s),
		"schedule_initialize":      ScheduleInitializeHandler(s),
		"schedule_reset":           ScheduleResetHandler(s),
		"schedule_add":             ScheduleAddHandler(s),
		"schedule_delete":          ScheduleDeleteHandler(s),
		"schedule_update":          ScheduleUpdateHandler(s),
		"schedule_bulk_amount":     ScheduleBulkAmountHandler(s),
		"schedule_bulk_dates":      ScheduleBulkDatesHandler(s),
		"schedule_adjust":          ScheduleAdjustHandler(s),
		"schedule_view":            ScheduleViewHandler(s),
		"schedule_export":          ScheduleExportHandler(s),
		"schedule_set_expected":    ScheduleSetExpectedHandler(s),
		"amendment_start":          AmendmentStartHandler(s),
		"amendment_add":            AmendmentAddHandler(s),
		"amendment_delete":         AmendmentDeleteHandler(s),
		"amendment_update":         AmendmentUpdateHandler(s),
		"amendment_bulk_amount":    AmendmentBulkAmountHandler(s),
		"amendment_bulk_dates":     AmendmentBulkDatesHandler(s),
		"amendment_set_additional": AmendmentSetAdditionalHandler(s),
		"amendment_adjust":         AmendmentAdjustHandler(s),
		"amendment_view":           AmendmentViewHandler(s),
		"amendment_save":           AmendmentSaveHandler(s),
		"amendment_cancel":         AmendmentCancelHandler(s),
	}
}

// Names отсортированные имена инструментов
func Names(registry map[string]ToolHandler) []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// run выполняет fn под спаном toolName и считает результат в метриках
func (s *Session) run(ctx context.Context, toolName string, fn func(ctx context.Context, span trace.Span) (interface{}, error)) (interface{}, error) {
	ctx, span := s.tracer.Start(ctx, toolName)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := fn(ctx, span)
	if err != nil {
		kind := errorKind(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("error", kind))
		metrics.ToolCalls.WithLabelValues(toolName, kind).Inc()
		metrics.ToolErrors.WithLabelValues(toolName, kind).Inc()
		s.log.WithError(err).WithField("tool", toolName).Warn("tool call failed")
		return nil, err
	}

	span.SetAttributes(attribute.Bool("success", true))
	metrics.ToolCalls.WithLabelValues(toolName, "success").Inc()
	return result, nil
}

func errorKind(err error) string {
	var statusErr *clients.StatusError
	switch {
	case errors.Is(err, ErrInvalidParams),
		errors.Is(err, money.ErrInvalidSplit),
		errors.Is(err, money.ErrInvalidAmount):
		return "validation_error"
	case errors.Is(err, ledger.ErrResidualUnresolved):
		return "residual"
	case errors.Is(err, ledger.ErrLineNotFound),
		errors.Is(err, ledger.ErrEmptySelection):
		return "not_found"
	case errors.Is(err, amendment.ErrNotActive),
		errors.Is(err, amendment.ErrAlreadyActive),
		errors.Is(err, amendment.ErrPaidLineLocked),
		errors.Is(err, amendment.ErrNotBalanced),
		errors.Is(err, amendment.ErrNoPendingInstallments),
		errors.Is(err, amendment.ErrSubmissionInFlight):
		return "state_error"
	case errors.As(err, &statusErr):
		return "upstream_error"
	default:
		return "error"
	}
}

// amount читает неотрицательную сумму: число или строку вида "1500,50"
func (s *Session) amount(p Params, name string) (decimal.Decimal, error) {
	v, err := p.amount(name)
	if err != nil {
		return decimal.Zero, err
	}
	if err := validators.CheckTotal(s.cfg, name, v.InexactFloat64()); err != nil {
		return decimal.Zero, invalid(err)
	}
	return v, nil
}

// optionalAmount как amount, но отсутствующий параметр дает nil
func (s *Session) optionalAmount(p Params, name string) (*decimal.Decimal, error) {
	if !p.has(name) {
		return nil, nil
	}
	v, err := s.amount(p, name)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Session) quantity(p Params) (int, error) {
	n, err := p.integer("quantity")
	if err != nil {
		return 0, err
	}
	if err := validators.CheckQuantity(s.cfg, n); err != nil {
		return 0, invalid(err)
	}
	return n, nil
}

func optionalDate(p Params, name string) (*time.Time, error) {
	if !p.has(name) {
		return nil, nil
	}
	d, err := p.date(name)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
