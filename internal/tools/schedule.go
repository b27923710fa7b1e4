package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloud-ru/installments-go/internal/ledger"
	"github.com/cloud-ru/installments-go/internal/metrics"
	"github.com/cloud-ru/installments-go/internal/schedule"
	"github.com/cloud-ru/installments-go/internal/validators"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const scheduleLabel = "schedule"

// ScheduleGenerateHandler запрашивает график у сервиса расчета и загружает его
func ScheduleGenerateHandler(s *Session) ToolHandler {
	return func(ctx context.Context, params Params) (interface{}, error) {
		return s.run(ctx, "schedule_generate", func(ctx context.Context, span trace.Span) (interface{}, error) {
			if s.deps.Generator == nil {
				return nil, errors.New("amortization service is not configured")
			}

			var req schedule.AmortizationRequest
			if err := params.decode(&req); err != nil {
				return nil, err
			}
			if err := validators.CheckAmortizationRequest(s.cfg, req); err != nil {
				return nil, invalid(err)
			}

			span.SetAttributes(
				attribute.String("total_amount", req.TotalAmount.String()),
				attribute.Int("number_of_payments", req.NumberOfPayments),
				attribute.Bool("hu", req.HasHU()),
			)

			resp, err := s.deps.Generator.Generate(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("ошибка при расчете графика: %w", err)
			}
			if err := resp.Load(s.schedule); err != nil {
				return nil, err
			}

			metrics.LedgerMutations.WithLabelValues(scheduleLabel, "generate").Inc()
			return scheduleView(s.schedule), nil
		})
	}
}

// ScheduleInitializeHandler загружает ранее сгенерированный график
// ({installments, meta} в формате сервиса расчета)
func ScheduleInitializeHandler(s *Session) ToolHandler {
	return func(ctx context.Context, params Params) (interface{}, error) {
		return s.run(ctx, "schedule_initialize", func(ctx context.Context, span trace.Span) (interface{}, error) {
			var data schedule.AmortizationResponse
			if err := params.decode(&data); err != nil {
				return nil, err
			}
			if err := data.Load(s.schedule); err != nil {
				return nil, invalid(err)
			}

			span.SetAttributes(attribute.Int("installments", s.schedule.Len()))
			metrics.LedgerMutations.WithLabelValues(scheduleLabel, "initialize").Inc()
			return scheduleView(s.schedule), nil
		})
	}
}

func ScheduleResetHandler(s *Session) ToolHandler {
	return func(ctx context.Context, params Params) (interface{}, error) {
		return s.run(ctx, "schedule_reset", func(ctx context.Context, span trace.Span) (interface{}, error) {
			s.schedule.Reset()
			metrics.LedgerMutations.WithLabelValues(scheduleLabel, "reset").Inc()
			return scheduleView(s.schedule), nil
		})
	}
}

// ScheduleAddHandler добавляет quantity строк, распределяя lotTotal и huTotal
func ScheduleAddHandler(s *Session) ToolHandler {
	return func(ctx context.Context, params Params) (interface{}, error) {
		return s.run(ctx, "schedule_add", func(ctx context.Context, span trace.Span) (interface{}, error) {
			quantity, err := s.quantity(params)
			if err != nil {
				return nil, err
			}
			lotTotal, err := s.amount(params, "lotTotal")
			if err != nil {
				return nil, err
			}
			huTotal := decimal.Zero
			if hu, err := s.optionalAmount(params, "huTotal"); err != nil {
				return nil, err
			} else if hu != nil {
				huTotal = *hu
			}
			start, err := params.date("startDate")
			if err != nil {
				return nil, err
			}

			span.SetAttributes(
				attribute.Int("quantity", quantity),
				attribute.String("lot_total", lotTotal.String()),
				attribute.String("hu_total", huTotal.String()),
			)

			if _, err := s.schedule.Add(quantity, lotTotal, huTotal, start); err != nil {
				return nil, err
			}
			metrics.LedgerMutations.WithLabelValues(scheduleLabel, "add").Inc()
			return scheduleView(s.schedule), nil
		})
	}
}

func ScheduleDeleteHandler(s *Session) ToolHandler {
	return func(ctx context.Context, params Params) (interface{}, error) {
		return s.run(ctx, "schedule_delete", func(ctx context.Context, span trace.Span) (interface{}, error) {
			ids, err := params.ids("ids")
			if err != nil {
				return nil, err
			}
			removed := s.schedule.Delete(ids...)

			span.SetAttributes(attribute.Int("removed", removed))
			metrics.LedgerMutations.WithLabelValues(scheduleLabel, "delete").Inc()
			return scheduleView(s.schedule), nil
		})
	}
}

// ScheduleUpdateHandler меняет сумму лота, HU и/или дату одной строки
func ScheduleUpdateHandler(s *Session) ToolHandler {
	return func(ctx context.Context, params Params) (interface{}, error) {
		return s.run(ctx, "schedule_update", func(ctx context.Context, span trace.Span) (interface{}, error) {
			id, err := params.id("id")
			if err != nil {
				return nil, err
			}
			var patch ledger.LinePatch
			if patch.Lot, err = s.optionalAmount(params, "lotAmount"); err != nil {
				return nil, err
			}
			if patch.HU, err = s.optionalAmount(params, "huAmount"); err != nil {
				return nil, err
			}
			if patch.DueDate, err = optionalDate(params, "dueDate"); err != nil {
				return nil, err
			}

			span.SetAttributes(attribute.String("id", string(id)))
			if err := s.schedule.UpdateOne(id, patch); err != nil {
				return nil, err
			}
			metrics.LedgerMutations.WithLabelValues(scheduleLabel, "update").Inc()
			return scheduleView(s.schedule), nil
		})
	}
}

// ScheduleBulkAmountHandler распределяет total по выбранным строкам в колонке column
func ScheduleBulkAmountHandler(s *Session) ToolHandler {
	return func(ctx context.Context, params Params) (interface{}, error) {
		return s.run(ctx, "schedule_bulk_amount", func(ctx context.Context, span trace.Span) (interface{}, error) {
			ids, err := params.ids("ids")
			if err != nil {
				return nil, err
			}
			total, err := s.amount(params, "total")
			if err != nil {
				return nil, err
			}
			raw, err := params.text("column")
			if err != nil {
				return nil, err
			}
			column, err := validators.CheckColumn(raw)
			if err != nil {
				return nil, invalid(err)
			}

			span.SetAttributes(
				attribute.Int("selected", len(ids)),
				attribute.String("total", total.String()),
				attribute.String("column", string(column)),
			)
			if err := s.schedule.BulkUpdateAmount(ids, total, column); err != nil {
				return nil, err
			}
			metrics.LedgerMutations.WithLabelValues(scheduleLabel, "bulk_amount").Inc()
			return scheduleView(s.schedule), nil
		})
	}
}

func ScheduleBulkDatesHandler(s *Session) ToolHandler {
	return func(ctx context.Context, params Params) (interface{}, error) {
		return s.run(ctx, "schedule_bulk_dates", func(ctx context.Context, span trace.Span) (interface{}, error) {
			ids, err := params.ids("ids")
			if err != nil {
				return nil, err
			}
			start, err := params.date("startDate")
			if err != nil {
				return nil, err
			}
			updated := s.schedule.BulkUpdateDates(ids, start)

			span.SetAttributes(attribute.Int("updated", updated))
			metrics.LedgerMutations.WithLabelValues(scheduleLabel, "bulk_dates").Inc()
			return scheduleView(s.schedule), nil
		})
	}
}

// ScheduleAdjustHandler подгоняет график под целевые итоги
func ScheduleAdjustHandler(s *Session) ToolHandler {
	return func(ctx context.Context, params Params) (interface{}, error) {
		return s.run(ctx, "schedule_adjust", func(ctx context.Context, span trace.Span) (interface{}, error) {
			adj, err := s.schedule.AdjustToBalance()
			if err != nil {
				metrics.Adjustments.WithLabelValues(scheduleLabel, "residual").Inc()
				return nil, err
			}

			span.SetAttributes(
				attribute.String("lot_delta", adj.Lot.String()),
				attribute.String("hu_delta", adj.HU.String()),
				attribute.Int("touched", len(adj.Touched)),
			)
			metrics.Adjustments.WithLabelValues(scheduleLabel, adjustmentOutcome(adj)).Inc()
			return AdjustmentView{Lot: adj.Lot, HU: adj.HU, Touched: adj.Touched, Schedule: scheduleView(s.schedule)}, nil
		})
	}
}

func ScheduleViewHandler(s *Session) ToolHandler {
	return func(ctx context.Context, params Params) (interface{}, error) {
		return s.run(ctx, "schedule_view", func(ctx context.Context, span trace.Span) (interface{}, error) {
			return scheduleView(s.schedule), nil
		})
	}
}

// ScheduleExportHandler график в формате сервиса расчета, без внутренних id
func ScheduleExportHandler(s *Session) ToolHandler {
	return func(ctx context.Context, params Params) (interface{}, error) {
		return s.run(ctx, "schedule_export", func(ctx context.Context, span trace.Span) (interface{}, error) {
			meta := s.schedule.Meta()
			span.SetAttributes(attribute.Bool("valid", meta.IsValid))
			return map[string]interface{}{
				"installments": s.schedule.Export(),
				"meta":         metaView(meta),
			}, nil
		})
	}
}

// ScheduleSetExpectedHandler задает целевые итоги сверки без изменения строк
func ScheduleSetExpectedHandler(s *Session) ToolHandler {
	return func(ctx context.Context, params Params) (interface{}, error) {
		return s.run(ctx, "schedule_set_expected", func(ctx context.Context, span trace.Span) (interface{}, error) {
			lot, err := s.amount(params, "lotTotal")
			if err != nil {
				return nil, err
			}
			expected := ledger.Expected{Lot: lot}
			if hu, err := s.optionalAmount(params, "huTotal"); err != nil {
				return nil, err
			} else if hu != nil {
				expected.HU = *hu
			}

			span.SetAttributes(
				attribute.String("lot_total", expected.Lot.String()),
				attribute.String("hu_total", expected.HU.String()),
			)
			s.schedule.SetExpected(expected)
			return scheduleView(s.schedule), nil
		})
	}
}

func adjustmentOutcome(adj ledger.Adjustment) string {
	if len(adj.Touched) == 0 {
		return "noop"
	}
	return "applied"
}
