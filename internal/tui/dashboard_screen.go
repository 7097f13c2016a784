package tui

import (
	"context"
	"fmt"

	"github.com/andy/invoicer/internal/app"
	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/repository"
	"github.com/andy/invoicer/internal/service"
	tea "github.com/charmbracelet/bubbletea"
)

// recentInvoiceLimit bounds the dashboard invoice list
const recentInvoiceLimit = 8

// DashboardModel represents the dashboard home screen
type DashboardModel struct {
	app *app.App

	// Data
	stats  *service.Stats
	drafts int
	recent []*domain.Invoice

	loading bool
	err     error
}

type dashboardDataMsg struct {
	stats  *service.Stats
	drafts int
	recent []*domain.Invoice
	err    error
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(a *app.App) tea.Model {
	return &DashboardModel{
		app:     a,
		loading: true,
	}
}

func (m *DashboardModel) Init() tea.Cmd {
	return m.loadData()
}

func (m *DashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		stats, err := m.app.StatsService.Refresh(ctx)
		if err != nil {
			return dashboardDataMsg{err: fmt.Errorf("stats: %w", err)}
		}

		invoices, err := m.app.InvoiceService.List(ctx, repository.InvoiceFilter{})
		if err != nil {
			return dashboardDataMsg{err: fmt.Errorf("recent invoices: %w", err)}
		}

		msg := dashboardDataMsg{stats: stats}
		for _, inv := range invoices {
			if inv.Status == domain.InvoiceStatusDraft {
				msg.drafts++
			}
		}
		if len(invoices) > recentInvoiceLimit {
			invoices = invoices[:recentInvoiceLimit]
		}
		msg.recent = invoices
		return msg
	}
}

func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		m.loading = false
		m.err = msg.err
		m.stats = msg.stats
		m.drafts = msg.drafts
		m.recent = msg.recent
		return m, nil

	case RefreshDataMsg:
		m.loading = true
		return m, m.loadData()
	}

	return m, nil
}

func (m *DashboardModel) View() string {
	if m.loading {
		return "Loading dashboard..."
	}

	if m.err != nil {
		return errorLine(m.err)
	}

	cur := m.app.Config.Currency

	var s string
	s += fmt.Sprintf("  Clients:  %-8s  Invoices:  %-8s  Drafts:  %s\n",
		statValueStyle.Render(fmt.Sprint(m.stats.TotalClients)),
		statValueStyle.Render(fmt.Sprint(m.stats.TotalInvoices)),
		statValueStyle.Render(fmt.Sprint(m.drafts)),
	)
	s += fmt.Sprintf("  Validated revenue:  %s\n",
		statValueStyle.Render(formatMoney(m.stats.ValidatedRevenue, cur)),
	)

	s += "\n" + m.renderRecent()
	return s
}

func (m *DashboardModel) renderRecent() string {
	header := "  Recent Invoices\n"
	if len(m.recent) == 0 {
		return header + subtitleStyle.Render("  No invoices yet. Press 'i' then 'n' to create one.") + "\n"
	}

	cur := m.app.Config.Currency
	s := header
	for _, inv := range m.recent {
		clientName := fmt.Sprintf("Client #%d", inv.ClientID)
		if inv.Client != nil {
			clientName = inv.Client.Name
		}

		s += fmt.Sprintf("  %-7s %-16s %-20s %16s  %s\n",
			inv.Date.Local().Format("Jan 2"),
			inv.Number,
			truncateStr(clientName, 20),
			formatMoney(inv.TotalTTC, cur),
			statusBadge(inv.Status),
		)
	}
	return s
}
