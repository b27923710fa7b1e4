// Package ledger реализует редактируемый график платежей: добавление, удаление,
// правку и перераспределение строк с точностью до цента, сверку с целевыми
// итогами и каскадную корректировку остатка.
//
// Ledger не потокобезопасен: он принадлежит одной сессии редактирования.
package ledger

import (
	"fmt"
	"time"

	"github.com/cloud-ru/installments-go/internal/money"
	"github.com/cloud-ru/installments-go/pkg/utils"
	"github.com/shopspring/decimal"
)

// Ledger упорядоченный список строк графика
type Ledger struct {
	lines    []Line
	expected Expected
	ids      IDGenerator
}

// Option настройка Ledger
type Option func(*Ledger)

// WithIDGenerator задает стратегию идентификаторов строк
func WithIDGenerator(g IDGenerator) Option {
	return func(l *Ledger) {
		l.ids = g
	}
}

// New создает пустой график
func New(opts ...Option) *Ledger {
	l := &Ledger{ids: NewSequence()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Initialize заменяет график целиком и запоминает целевые итоги.
// Суммы строк и итоги приводятся к центам.
// Строкам без ID выдается новый идентификатор, Total пересчитывается.
func (l *Ledger) Initialize(lines []Line, expected Expected) {
	l.lines = make([]Line, len(lines))
	for i, ln := range lines {
		if ln.ID == "" {
			ln.ID = l.ids.NextID()
		}
		ln.DueDate = utils.DateOnly(ln.DueDate)
		ln.Lot = money.AggregateRound(ln.Lot)
		ln.HU = money.AggregateRound(ln.HU)
		ln.recomputeTotal()
		l.lines[i] = ln
	}
	l.expected = expected.rounded()
}

// Reset очищает график и целевые итоги
func (l *Ledger) Reset() {
	l.lines = nil
	l.expected = Expected{}
}

// SetExpected меняет целевые итоги без изменения строк
func (l *Ledger) SetExpected(expected Expected) {
	l.expected = expected.rounded()
}

func (l *Ledger) Expected() Expected {
	return l.expected
}

func (l *Ledger) Len() int {
	return len(l.lines)
}

// Lines возвращает копию строк в порядке графика
func (l *Ledger) Lines() []Line {
	out := make([]Line, len(l.lines))
	copy(out, l.lines)
	return out
}

// Line возвращает строку по идентификатору
func (l *Ledger) Line(id ID) (Line, bool) {
	if i := l.indexOf(id); i >= 0 {
		return l.lines[i], true
	}
	return Line{}, false
}

// Add добавляет quantity строк: lotTotal и huTotal (если > 0) делятся
// независимо, номера продолжают текущий максимум, даты идут помесячно от startDate.
func (l *Ledger) Add(quantity int, lotTotal, huTotal decimal.Decimal, startDate time.Time) ([]Line, error) {
	lots, err := money.Split(money.AggregateRound(lotTotal), quantity)
	if err != nil {
		return nil, fmt.Errorf("split lot total: %w", err)
	}

	hus := make([]decimal.Decimal, quantity)
	if huTotal.IsPositive() {
		if hus, err = money.Split(money.AggregateRound(huTotal), quantity); err != nil {
			return nil, fmt.Errorf("split hu total: %w", err)
		}
	}

	number := l.maxNumber()
	start := utils.DateOnly(startDate)

	added := make([]Line, 0, quantity)
	for i := 0; i < quantity; i++ {
		number++
		ln := Line{
			ID:      l.ids.NextID(),
			Number:  number,
			DueDate: utils.AddMonths(start, i),
			Lot:     lots[i],
			HU:      hus[i],
			Status:  StatusPending,
		}
		if ln.HU.IsPositive() {
			ln.HUNumber = number
		}
		ln.recomputeTotal()
		added = append(added, ln)
	}

	l.lines = append(l.lines, added...)
	return added, nil
}

// Delete удаляет строки и перенумеровывает оставшиеся с 1.
// Возвращает количество удаленных строк.
func (l *Ledger) Delete(ids ...ID) int {
	drop := idSet(ids)

	kept := l.lines[:0]
	for _, ln := range l.lines {
		if _, ok := drop[ln.ID]; !ok {
			kept = append(kept, ln)
		}
	}
	removed := len(l.lines) - len(kept)
	l.lines = kept

	l.renumber()
	return removed
}

// UpdateOne применяет patch к строке и всегда пересчитывает Total
func (l *Ledger) UpdateOne(id ID, patch LinePatch) error {
	i := l.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrLineNotFound, id)
	}

	ln := &l.lines[i]
	if patch.Lot != nil {
		ln.Lot = money.AggregateRound(*patch.Lot)
	}
	if patch.HU != nil {
		ln.HU = money.AggregateRound(*patch.HU)
	}
	if patch.DueDate != nil {
		ln.DueDate = utils.DateOnly(*patch.DueDate)
	}
	ln.recomputeTotal()
	return nil
}

// BulkUpdateAmount распределяет total по выбранным строкам (в порядке графика)
// в одной колонке. Остальные строки не меняются.
func (l *Ledger) BulkUpdateAmount(ids []ID, total decimal.Decimal, column Column) error {
	if !validColumn(column) {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}

	selected := l.selection(ids)
	if len(selected) == 0 {
		return ErrEmptySelection
	}

	parts, err := money.Split(money.AggregateRound(total), len(selected))
	if err != nil {
		return fmt.Errorf("split %s total: %w", column, err)
	}

	for k, i := range selected {
		l.lines[i].setAmount(column, parts[k])
		l.lines[i].recomputeTotal()
	}
	return nil
}

// BulkUpdateDates назначает выбранным строкам даты startDate + k месяцев,
// где k позиция строки среди выбранных в порядке графика
func (l *Ledger) BulkUpdateDates(ids []ID, startDate time.Time) int {
	start := utils.DateOnly(startDate)
	selected := l.selection(ids)
	for k, i := range selected {
		l.lines[i].DueDate = utils.AddMonths(start, k)
	}
	return len(selected)
}

// renumber восстанавливает номера 1..N; номер HU равен номеру строки
// только у строк с HU > 0
func (l *Ledger) renumber() {
	for i := range l.lines {
		l.lines[i].Number = i + 1
		if l.lines[i].HU.IsPositive() {
			l.lines[i].HUNumber = i + 1
		} else {
			l.lines[i].HUNumber = 0
		}
	}
}

func (l *Ledger) maxNumber() int {
	highest := 0
	for _, ln := range l.lines {
		if ln.Number > highest {
			highest = ln.Number
		}
	}
	return highest
}

func (l *Ledger) indexOf(id ID) int {
	for i, ln := range l.lines {
		if ln.ID == id {
			return i
		}
	}
	return -1
}

// selection индексы выбранных строк в порядке графика
func (l *Ledger) selection(ids []ID) []int {
	want := idSet(ids)
	out := make([]int, 0, len(want))
	for i, ln := range l.lines {
		if _, ok := want[ln.ID]; ok {
			out = append(out, i)
		}
	}
	return out
}

func idSet(ids []ID) map[ID]struct{} {
	set := make(map[ID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
