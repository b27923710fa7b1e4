package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloud-ru/installments-go/internal/amendment"
	"github.com/cloud-ru/installments-go/internal/metrics"
	"github.com/cloud-ru/installments-go/internal/validators"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const amendmentLabel = "amendment"

// AmendmentStartHandler читает данные финансирования и открывает допсоглашение
func AmendmentStartHandler(s *Session) ToolHandler {
	return func(ctx context.Context, params Params) (interface{}, error) {
		return s.run(ctx, "amendment_start", func(ctx context.Context, span trace.Span) (interface{}, error) {
			if s.deps.Financing == nil {
				return nil, errors.New("financing service is not configured")
			}
			financingID, err := params.text("financingId")
			if err != nil {
				return nil, err
			}
			span.SetAttributes(attribute.String("financing_id", financingID))

			if s.amendment.State() != amendment.StateInactive {
				return nil, amendment.ErrAlreadyActive
			}
			detail, err := s.deps.Financing.Detail(ctx, financingID)
			if err != nil {
				return nil, fmt.Errorf("ошибка при чтении финансирования: %w", err)
			}
			if err := s.amendment.Start(financingID, detail); err != nil {
				return nil, err
			}

			metrics.LedgerMutations.WithLabelValues(amendmentLabel, "start").Inc()
			return amendmentView(s.amendment), nil
		})
	}
}

// AmendmentAddHandler добавляет quantity строк PENDING на сумму total
func AmendmentAddHandler(s *Session) ToolHandler {
	return func(ctx context.Context, params Params) (interface{}, error) {
		return s.run(ctx, "amendment_add", func(ctx context.Context, span trace.Span) (interface{}, error) {
			quantity, err := s.quantity(params)
			if err != nil {
				return nil, err
			}
			total, err := s.amount(params, "total")
			if err != nil {
				return nil, err
			}
			start, err := params.date("startDate")
			if err != nil {
				return nil, err
			}

			span.SetAttributes(
				attribute.Int("quantity", quantity),
				attribute.String("total", total.String()),
			)
			if _, err := s.amendment.Add(quantity, total, start); err != nil {
				return nil, err
			}
			metrics.LedgerMutations.WithLabelValues(amendmentLabel, "add").Inc()
			return amendmentView(s.amendment), nil
		})
	}
}

func AmendmentDeleteHandler(s *Session) ToolHandler {
	return func(ctx context.Context, params Params) (interface{}, error) {
		return s.run(ctx, "amendment_delete", func(ctx context.Context, span trace.Span) (interface{}, error) {
			ids, err := params.ids("ids")
			if err != nil {
				return nil, err
			}
			removed, err := s.amendment.Delete(ids...)
			if err != nil {
				return nil, err
			}

			span.SetAttributes(attribute.Int("removed", removed))
			metrics.LedgerMutations.WithLabelValues(amendmentLabel, "delete").Inc()
			return amendmentView(s.amendment), nil
		})
	}
}

// AmendmentUpdateHandler меняет сумму и/или дату строки
func AmendmentUpdateHandler(s *Session) ToolHandler {
	return func(ctx context.Context, params Params) (interface{}, error) {
		return s.run(ctx, "amendment_update", func(ctx context.Context, span trace.Span) (interface{}, error) {
			id, err := params.id("id")
			if err != nil {
				return nil, err
			}
			var patch amendment.Patch
			if patch.Amount, err = s.optionalAmount(params, "amount"); err != nil {
				return nil, err
			}
			if patch.DueDate, err = optionalDate(params, "dueDate"); err != nil {
				return nil, err
			}

			span.SetAttributes(attribute.String("id", string(id)))
			if err := s.amendment.UpdateOne(id, patch); err != nil {
				return nil, err
			}
			metrics.LedgerMutations.WithLabelValues(amendmentLabel, "update").Inc()
			return amendmentView(s.amendment), nil
		})
	}
}

func AmendmentBulkAmountHandler(s *Session) ToolHandler {
	return func(ctx context.Context, params Params) (interface{}, error) {
		return s.run(ctx, "amendment_bulk_amount", func(ctx context.Context, span trace.Span) (interface{}, error) {
			ids, err := params.ids("ids")
			if err != nil {
				return nil, err
			}
			total, err := s.amount(params, "total")
			if err != nil {
				return nil, err
			}

			span.SetAttributes(attribute.Int("selected", len(ids)))
			if err := s.amendment.BulkUpdateAmount(ids, total); err != nil {
				return nil, err
			}
			metrics.LedgerMutations.WithLabelValues(amendmentLabel, "bulk_amount").Inc()
			return amendmentView(s.amendment), nil
		})
	}
}

func AmendmentBulkDatesHandler(s *Session) ToolHandler {
	return func(ctx context.Context, params Params) (interface{}, error) {
		return s.run(ctx, "amendment_bulk_dates", func(ctx context.Context, span trace.Span) (interface{}, error) {
			ids, err := params.ids("ids")
			if err != nil {
				return nil, err
			}
			start, err := params.date("startDate")
			if err != nil {
				return nil, err
			}
			updated, err := s.amendment.BulkUpdateDates(ids, start)
			if err != nil {
				return nil, err
			}

			span.SetAttributes(attribute.Int("updated", updated))
			metrics.LedgerMutations.WithLabelValues(amendmentLabel, "bulk_dates").Inc()
			return amendmentView(s.amendment), nil
		})
	}
}

// AmendmentSetAdditionalHandler задает доплату (> 0) или скидку (< 0)
func AmendmentSetAdditionalHandler(s *Session) ToolHandler {
	return func(ctx context.Context, params Params) (interface{}, error) {
		return s.run(ctx, "amendment_set_additional", func(ctx context.Context, span trace.Span) (interface{}, error) {
			amount, err := params.amount("amount")
			if err != nil {
				return nil, err
			}
			if err := validators.CheckSignedAmount(s.cfg, "amount", amount.InexactFloat64()); err != nil {
				return nil, invalid(err)
			}

			span.SetAttributes(attribute.String("additional_amount", amount.String()))
			if err := s.amendment.SetAdditionalAmount(amount); err != nil {
				return nil, err
			}
			return amendmentView(s.amendment), nil
		})
	}
}

func AmendmentAdjustHandler(s *Session) ToolHandler {
	return func(ctx context.Context, params Params) (interface{}, error) {
		return s.run(ctx, "amendment_adjust", func(ctx context.Context, span trace.Span) (interface{}, error) {
			adj, err := s.amendment.AdjustToBalance()
			if err != nil {
				if !errors.Is(err, amendment.ErrNotActive) {
					metrics.Adjustments.WithLabelValues(amendmentLabel, "residual").Inc()
				}
				return nil, err
			}

			span.SetAttributes(
				attribute.String("delta", adj.Lot.String()),
				attribute.Int("touched", len(adj.Touched)),
			)
			metrics.Adjustments.WithLabelValues(amendmentLabel, adjustmentOutcome(adj)).Inc()
			return AdjustmentView{Lot: adj.Lot, HU: adj.HU, Touched: adj.Touched, Schedule: amendmentView(s.amendment)}, nil
		})
	}
}

func AmendmentViewHandler(s *Session) ToolHandler {
	return func(ctx context.Context, params Params) (interface{}, error) {
		return s.run(ctx, "amendment_view", func(ctx context.Context, span trace.Span) (interface{}, error) {
			return amendmentView(s.amendment), nil
		})
	}
}

// AmendmentSaveHandler отправляет допсоглашение. После успеха кеш
// данных финансирования сбрасывается.
func AmendmentSaveHandler(s *Session) ToolHandler {
	return func(ctx context.Context, params Params) (interface{}, error) {
		return s.run(ctx, "amendment_save", func(ctx context.Context, span trace.Span) (interface{}, error) {
			observation, _ := params["observation"].(string)
			financingID := s.amendment.FinancingID()
			span.SetAttributes(attribute.String("financing_id", financingID))

			message, err := s.amendment.Save(ctx, observation)
			if err != nil {
				metrics.AmendmentSubmissions.WithLabelValues(submissionStatus(err)).Inc()
				return nil, err
			}
			metrics.AmendmentSubmissions.WithLabelValues("success").Inc()

			if inv, ok := s.deps.Financing.(invalidator); ok {
				if err := inv.Invalidate(ctx, financingID); err != nil {
					s.log.WithError(err).WithField("financing_id", financingID).Warn("financing cache invalidation failed")
				}
			}

			return map[string]interface{}{
				"message":   message,
				"amendment": amendmentView(s.amendment),
			}, nil
		})
	}
}

func AmendmentCancelHandler(s *Session) ToolHandler {
	return func(ctx context.Context, params Params) (interface{}, error) {
		return s.run(ctx, "amendment_cancel", func(ctx context.Context, span trace.Span) (interface{}, error) {
			s.amendment.Cancel()
			metrics.LedgerMutations.WithLabelValues(amendmentLabel, "cancel").Inc()
			return amendmentView(s.amendment), nil
		})
	}
}

func submissionStatus(err error) string {
	switch {
	case errors.Is(err, amendment.ErrNotBalanced), errors.Is(err, amendment.ErrNoPendingInstallments):
		return "rejected"
	case errors.Is(err, amendment.ErrNotActive), errors.Is(err, amendment.ErrSubmissionInFlight):
		return "state_error"
	default:
		return "failed"
	}
}
