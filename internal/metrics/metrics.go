package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ToolCalls счетчик вызовов инструментов
	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "installments_tool_calls_total",
			Help: "Общее количество вызовов инструментов",
		},
		[]string{"tool_name", "status"},
	)

	// ToolErrors счетчик ошибок инструментов
	ToolErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "installments_tool_errors_total",
			Help: "Количество ошибок инструментов",
		},
		[]string{"tool_name", "error_type"},
	)

	// APICalls счетчик вызовов внешних сервисов
	APICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "installments_api_calls_total",
			Help: "Вызовы внешних сервисов",
		},
		[]string{"service", "endpoint", "status"},
	)

	// LedgerMutations изменения графиков по операциям
	LedgerMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "installments_ledger_mutations_total",
			Help: "Изменения графика платежей",
		},
		[]string{"schedule", "operation"},
	)

	// Adjustments результаты каскадной корректировки
	Adjustments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "installments_adjustments_total",
			Help: "Каскадные корректировки остатка",
		},
		[]string{"schedule", "outcome"},
	)

	// AmendmentSubmissions отправки допсоглашений
	AmendmentSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "installments_amendment_submissions_total",
			Help: "Отправки допсоглашений",
		},
		[]string{"status"},
	)

	// FinancingCache попадания в кеш данных финансирования
	FinancingCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "installments_financing_cache_total",
			Help: "Обращения к кешу данных финансирования",
		},
		[]string{"result"},
	)
)
