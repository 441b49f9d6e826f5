// Package render draws inventory views for a terminal.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/abgdnv/inventory/internal/inventory/catalog"
	"github.com/abgdnv/inventory/internal/inventory/dashboard"
	"github.com/abgdnv/inventory/internal/inventory/events"
	"github.com/abgdnv/inventory/internal/inventory/store"
	"github.com/abgdnv/inventory/pkg/messaging"
	"github.com/charmbracelet/lipgloss"
)

const maxBarWidth = 40

// Styles groups the lipgloss styles used by the views.
type Styles struct {
	Title    lipgloss.Style
	Header   lipgloss.Style
	Cell     lipgloss.Style
	Low      lipgloss.Style
	InStock  lipgloss.Style
	Bar      lipgloss.Style
	Muted    lipgloss.Style
	Box      lipgloss.Style
	Selected lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		Header:   lipgloss.NewStyle().Bold(true).Underline(true),
		Cell:     lipgloss.NewStyle(),
		Low:      lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")),
		InStock:  lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")),
		Bar:      lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Box:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		Selected: lipgloss.NewStyle().Bold(true),
	}
}

type column struct {
	title string
	width int
}

var productColumns = []column{
	{"ID", 10}, {"Name", 28}, {"Price", 10}, {"Stock", 7}, {"Category", 18}, {"Status", 10},
}

// Products renders the product table. An empty list renders a placeholder.
func Products(st Styles, products []store.Product) string {
	if len(products) == 0 {
		return st.Muted.Render("No products found.")
	}
	rows := make([]string, 0, len(products)+1)
	header := make([]string, 0, len(productColumns))
	for _, c := range productColumns {
		header = append(header, st.Header.Width(c.width).Render(c.title))
	}
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, header...))

	for _, p := range products {
		statusStyle := st.InStock
		if p.Stock <= dashboard.LowStockThreshold {
			statusStyle = st.Low
		}
		values := []string{
			truncate(p.ID.String(), 8),
			truncate(p.Name, 26),
			"$" + p.Price.StringFixed(2),
			fmt.Sprintf("%d", p.Stock),
			truncate(p.Category, 16),
		}
		cells := make([]string, 0, len(productColumns))
		for i, v := range values {
			cells = append(cells, st.Cell.Width(productColumns[i].width).Render(v))
		}
		cells = append(cells, statusStyle.Width(productColumns[5].width).Render(dashboard.StockStatus(p.Stock)))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// Categories renders the category list with positions.
func Categories(st Styles, categories []string) string {
	if len(categories) == 0 {
		return st.Muted.Render("No categories.")
	}
	lines := make([]string, 0, len(categories)+1)
	lines = append(lines, st.Title.Render("Categories"))
	for i, c := range categories {
		lines = append(lines, fmt.Sprintf("%2d. %s", i+1, c))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Dashboard renders the summary counters above the stock-by-category bar chart.
func Dashboard(st Styles, d dashboard.Dashboard) string {
	summary := strings.Join([]string{
		fmt.Sprintf("Products: %d", d.Summary.TotalProducts),
		fmt.Sprintf("Stock: %d", d.Summary.TotalStock),
		fmt.Sprintf("Categories: %d", d.Summary.TotalCategories),
		st.Low.Render(fmt.Sprintf("Low stock: %d", d.Summary.LowStock)),
	}, "   ")
	return lipgloss.JoinVertical(lipgloss.Left,
		st.Title.Render("Dashboard"),
		st.Box.Render(summary),
		BarChart(st, d.Chart),
	)
}

// BarChart draws one horizontal bar per chart label, scaled to the largest value.
func BarChart(st Styles, c dashboard.Chart) string {
	if len(c.Labels) == 0 {
		return st.Muted.Render("No stock to chart.")
	}
	labelWidth := 0
	var peak int64
	for i, l := range c.Labels {
		labelWidth = max(labelWidth, lipgloss.Width(displayLabel(l)))
		peak = max(peak, c.Values[i])
	}
	lines := make([]string, 0, len(c.Labels))
	for i, l := range c.Labels {
		width := 0
		if peak > 0 {
			width = int(c.Values[i] * maxBarWidth / peak)
		}
		if width == 0 && c.Values[i] > 0 {
			width = 1
		}
		label := lipgloss.NewStyle().Width(labelWidth).Render(displayLabel(l))
		lines = append(lines, fmt.Sprintf("%s │ %s %d", label, st.Bar.Render(strings.Repeat("█", width)), c.Values[i]))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Catalog renders remote catalog items with their catalog ids for import.
func Catalog(st Styles, items []catalog.Item) string {
	if len(items) == 0 {
		return st.Muted.Render("Catalog is empty or unavailable.")
	}
	lines := make([]string, 0, len(items)+1)
	lines = append(lines, st.Title.Render("Catalog"))
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("%4d  %s  %s  %s",
			it.ID,
			st.Selected.Render(truncate(it.Title, 40)),
			"$"+it.Price.StringFixed(2),
			st.Muted.Render(it.Category),
		))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Event renders one change notification as a single line.
func Event(st Styles, e messaging.Event) string {
	switch ev := e.(type) {
	case events.ProductsChanged:
		return fmt.Sprintf("%s  %s  %s  %d product(s), %d total",
			st.Muted.Render(ev.OccurredAt.Format(time.TimeOnly)),
			st.Selected.Render(ev.Subject()),
			ev.Op, len(ev.ProductIDs), ev.Total)
	case events.CategoriesChanged:
		detail := fmt.Sprintf("%s, %d total", displayLabel(ev.Category), ev.Total)
		if ev.RemovedProducts > 0 {
			detail += st.Low.Render(fmt.Sprintf(", %d product(s) removed", ev.RemovedProducts))
		}
		return fmt.Sprintf("%s  %s  %s  %s",
			st.Muted.Render(ev.OccurredAt.Format(time.TimeOnly)),
			st.Selected.Render(ev.Subject()),
			ev.Op, detail)
	default:
		return st.Selected.Render(e.Subject())
	}
}

func displayLabel(l string) string {
	if l == "" {
		return "(none)"
	}
	return l
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
