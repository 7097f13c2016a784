package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/andy/invoicer/internal/app"
	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/repository"
	"github.com/andy/invoicer/internal/service"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

type invoiceViewMode int

const (
	invoiceViewList       invoiceViewMode = iota
	invoiceViewDetail                     // Viewing a single invoice
	invoiceViewPickClient                 // New invoice, step 1: pick client
	invoiceViewEditor                     // Editing the lines of a draft
	invoiceViewConfirm                    // Waiting for y/N on a destructive action
)

// line editor input indices
const (
	lineFieldDescription = iota
	lineFieldQuantity
	lineFieldPrice
	lineFieldCount
)

// InvoicesModel displays invoices in list and detail views and edits drafts
type InvoicesModel struct {
	app       *app.App
	mode      invoiceViewMode
	invoices  []*domain.Invoice
	cursor    int
	selected  *domain.Invoice
	loading   bool
	err       error
	statusMsg string

	// New invoice: client selection
	clients      []*domain.Client
	clientCursor int

	// Line editor state
	editClient *domain.Client
	editID     int64 // 0 while creating
	lines      []*domain.InvoiceLine
	lineCursor int
	editingAt  int // index of the line loaded into the inputs, -1 for a new line
	inputs     []textinput.Model
	inputFocus int

	// Pending confirmation
	confirmPrompt string
	confirmAction func() tea.Cmd
	confirmReturn invoiceViewMode
}

// IsCapturingInput returns true when the line editor is active
func (m *InvoicesModel) IsCapturingInput() bool {
	return m.mode == invoiceViewEditor
}

type invoicesDataMsg struct {
	invoices []*domain.Invoice
	err      error
}

type invoiceDetailMsg struct {
	invoice *domain.Invoice
	err     error
}

type invoiceClientsMsg struct {
	clients []*domain.Client
	err     error
}

// invoiceChangedMsg reports the outcome of a save or a lifecycle action
type invoiceChangedMsg struct {
	invoice *domain.Invoice
	status  string
	err     error
}

type invoiceDeletedMsg struct {
	number string
	err    error
}

// NewInvoicesModel creates a new invoices screen model
func NewInvoicesModel(a *app.App) tea.Model {
	return &InvoicesModel{
		app:       a,
		mode:      invoiceViewList,
		loading:   true,
		editingAt: -1,
	}
}

func (m *InvoicesModel) Init() tea.Cmd {
	return m.loadInvoices()
}

func (m *InvoicesModel) loadInvoices() tea.Cmd {
	return func() tea.Msg {
		invoices, err := m.app.InvoiceService.List(context.Background(), repository.InvoiceFilter{})
		return invoicesDataMsg{invoices: invoices, err: err}
	}
}

func (m *InvoicesModel) loadDetail(id int64) tea.Cmd {
	return func() tea.Msg {
		invoice, err := m.app.InvoiceService.Get(context.Background(), id)
		return invoiceDetailMsg{invoice: invoice, err: err}
	}
}

func (m *InvoicesModel) loadClients() tea.Cmd {
	return func() tea.Msg {
		clients, err := m.app.ClientService.List(context.Background())
		return invoiceClientsMsg{clients: clients, err: err}
	}
}

// step runs a lifecycle operation on the selected invoice
func (m *InvoicesModel) step(status string, op func(context.Context, int64) (*domain.Invoice, error)) tea.Cmd {
	id := m.selected.ID
	return func() tea.Msg {
		invoice, err := op(context.Background(), id)
		return invoiceChangedMsg{invoice: invoice, status: status, err: err}
	}
}

func (m *InvoicesModel) deleteSelected() tea.Cmd {
	inv := m.selected
	return func() tea.Msg {
		err := m.app.InvoiceService.Delete(context.Background(), inv.ID)
		return invoiceDeletedMsg{number: inv.Number, err: err}
	}
}

// saveDraft creates the invoice or replaces the lines of the one being edited
func (m *InvoicesModel) saveDraft() tea.Cmd {
	lines := make([]*domain.InvoiceLine, len(m.lines))
	copy(lines, m.lines)
	clientID := m.editClient.ID
	id := m.editID

	return func() tea.Msg {
		ctx := context.Background()
		if id == 0 {
			invoice, err := m.app.InvoiceService.Create(ctx, clientID, lines)
			return invoiceChangedMsg{invoice: invoice, status: "created", err: err}
		}
		invoice, err := m.app.InvoiceService.Update(ctx, id, service.InvoiceEdit{Lines: lines})
		return invoiceChangedMsg{invoice: invoice, status: "updated", err: err}
	}
}

// openEditor starts the line editor for client, seeded with lines
func (m *InvoicesModel) openEditor(client *domain.Client, id int64, lines []*domain.InvoiceLine) tea.Cmd {
	m.mode = invoiceViewEditor
	m.editClient = client
	m.editID = id
	m.lines = make([]*domain.InvoiceLine, 0, len(lines))
	for _, l := range lines {
		cp := *l
		m.lines = append(m.lines, &cp)
	}
	m.lineCursor = 0
	m.err = nil
	m.initInputs()
	return m.inputs[lineFieldDescription].Focus()
}

func (m *InvoicesModel) initInputs() {
	m.inputs = make([]textinput.Model, lineFieldCount)

	m.inputs[lineFieldDescription] = textinput.New()
	m.inputs[lineFieldDescription].Placeholder = "Description"
	m.inputs[lineFieldDescription].CharLimit = 200
	m.inputs[lineFieldDescription].Width = 40

	m.inputs[lineFieldQuantity] = textinput.New()
	m.inputs[lineFieldQuantity].Placeholder = "1"
	m.inputs[lineFieldQuantity].CharLimit = 6
	m.inputs[lineFieldQuantity].Width = 8

	m.inputs[lineFieldPrice] = textinput.New()
	m.inputs[lineFieldPrice].Placeholder = "0.00"
	m.inputs[lineFieldPrice].CharLimit = 20
	m.inputs[lineFieldPrice].Width = 16

	m.editingAt = -1
	m.inputFocus = lineFieldDescription
}

// loadLine copies the line under the cursor into the inputs
func (m *InvoicesModel) loadLine() tea.Cmd {
	if m.lineCursor >= len(m.lines) {
		return nil
	}
	l := m.lines[m.lineCursor]
	m.inputs[lineFieldDescription].SetValue(l.Description)
	m.inputs[lineFieldQuantity].SetValue(strconv.Itoa(l.Quantity))
	m.inputs[lineFieldPrice].SetValue(l.UnitPrice.StringFixed(domain.PriceScale))
	m.editingAt = m.lineCursor
	return m.focusInput(lineFieldDescription)
}

// commitLine adds the inputs as a new line, or replaces the loaded one
// keeping its ID.
func (m *InvoicesModel) commitLine() tea.Cmd {
	line, err := buildLine(
		m.inputs[lineFieldDescription].Value(),
		m.inputs[lineFieldQuantity].Value(),
		m.inputs[lineFieldPrice].Value(),
	)
	if err != nil {
		m.err = err
		return nil
	}

	if m.editingAt >= 0 && m.editingAt < len(m.lines) {
		line.ID = m.lines[m.editingAt].ID
		m.lines[m.editingAt] = line
		m.lineCursor = m.editingAt
	} else {
		m.lines = append(m.lines, line)
		m.lineCursor = len(m.lines) - 1
	}

	m.err = nil
	m.initInputs()
	return m.focusInput(lineFieldDescription)
}

func (m *InvoicesModel) focusInput(i int) tea.Cmd {
	for j := range m.inputs {
		m.inputs[j].Blur()
	}
	m.inputFocus = i
	return m.inputs[i].Focus()
}

// buildLine parses the editor inputs; an empty quantity means 1
func buildLine(description, quantity, price string) (*domain.InvoiceLine, error) {
	qty := 1
	if q := strings.TrimSpace(quantity); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			return nil, fmt.Errorf("quantity must be a whole number")
		}
		qty = n
	}

	p := strings.ReplaceAll(strings.TrimSpace(price), ",", ".")
	if p == "" {
		p = "0"
	}
	unitPrice, err := decimal.NewFromString(p)
	if err != nil {
		return nil, fmt.Errorf("unit price must be a number")
	}

	line := domain.NewInvoiceLine(description, qty, unitPrice)
	if err := line.Validate(); err != nil {
		return nil, err
	}
	return line, nil
}

func (m *InvoicesModel) confirm(prompt string, action func() tea.Cmd) {
	m.confirmPrompt = prompt
	m.confirmAction = action
	m.confirmReturn = m.mode
	m.mode = invoiceViewConfirm
}

func (m *InvoicesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RefreshDataMsg:
		m.loading = true
		return m, m.loadInvoices()

	case invoicesDataMsg:
		m.loading = false
		m.err = msg.err
		m.invoices = msg.invoices
		if m.cursor >= len(m.invoices) {
			m.cursor = max(0, len(m.invoices)-1)
		}
		return m, nil

	case invoiceDetailMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.selected = msg.invoice
		m.mode = invoiceViewDetail
		return m, nil

	case invoiceClientsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		if len(msg.clients) == 0 {
			m.statusMsg = "Add a client first (press 'c')"
			return m, nil
		}
		m.clients = msg.clients
		m.clientCursor = 0
		m.mode = invoiceViewPickClient
		return m, nil

	case invoiceChangedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("Invoice %s %s", msg.invoice.Number, msg.status)
		m.selected = msg.invoice
		m.mode = invoiceViewDetail
		// reload so the detail carries the client and persisted line IDs
		return m, tea.Batch(m.loadInvoices(), m.loadDetail(msg.invoice.ID))

	case invoiceDeletedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("Invoice %s deleted", msg.number)
		m.selected = nil
		m.mode = invoiceViewList
		return m, m.loadInvoices()

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		switch m.mode {
		case invoiceViewList:
			return m.updateList(msg)
		case invoiceViewDetail:
			return m.updateDetail(msg)
		case invoiceViewPickClient:
			return m.updatePickClient(msg)
		case invoiceViewEditor:
			return m.updateEditor(msg)
		case invoiceViewConfirm:
			return m.updateConfirm(msg)
		}
	}

	// Forward all non-key messages to the focused input (for cursor blink, etc.)
	if m.mode == invoiceViewEditor {
		var cmd tea.Cmd
		m.inputs[m.inputFocus], cmd = m.inputs[m.inputFocus].Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *InvoicesModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil

	switch {
	case key.Matches(msg, DefaultKeyMap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, DefaultKeyMap.Down):
		if m.cursor < len(m.invoices)-1 {
			m.cursor++
		}
	case key.Matches(msg, DefaultKeyMap.Select):
		if len(m.invoices) > 0 {
			m.loading = true
			m.statusMsg = ""
			return m, m.loadDetail(m.invoices[m.cursor].ID)
		}
	case key.Matches(msg, DefaultKeyMap.New):
		m.loading = true
		m.statusMsg = ""
		return m, m.loadClients()
	}

	return m, nil
}

func (m *InvoicesModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	inv := m.selected
	m.err = nil

	switch {
	case key.Matches(msg, DefaultKeyMap.Back):
		m.mode = invoiceViewList
		m.selected = nil
		m.statusMsg = ""
	case key.Matches(msg, DefaultKeyMap.Edit):
		if !inv.IsEditable() {
			m.err = inv.EnsureEditable()
			return m, nil
		}
		return m, m.openEditor(inv.Client, inv.ID, inv.Lines)
	case key.Matches(msg, DefaultKeyMap.Validate):
		m.loading = true
		return m, m.step("validated", m.app.InvoiceService.Validate)
	case key.Matches(msg, DefaultKeyMap.Recompute):
		if !inv.IsEditable() {
			m.err = inv.EnsureEditable()
			return m, nil
		}
		m.loading = true
		return m, m.step("recomputed", m.app.InvoiceService.RecomputeTotals)
	case key.Matches(msg, DefaultKeyMap.Cancel):
		m.confirm(fmt.Sprintf("Cancel invoice %s? This cannot be undone.", inv.Number), func() tea.Cmd {
			return m.step("cancelled", m.app.InvoiceService.Cancel)
		})
	case key.Matches(msg, DefaultKeyMap.Delete):
		m.confirm(fmt.Sprintf("Delete invoice %s?", inv.Number), m.deleteSelected)
	}
	return m, nil
}

func (m *InvoicesModel) updatePickClient(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, DefaultKeyMap.Back):
		m.mode = invoiceViewList
		m.clients = nil
		return m, nil
	case key.Matches(msg, DefaultKeyMap.Up):
		if m.clientCursor > 0 {
			m.clientCursor--
		}
	case key.Matches(msg, DefaultKeyMap.Down):
		if m.clientCursor < len(m.clients)-1 {
			m.clientCursor++
		}
	case key.Matches(msg, DefaultKeyMap.Select):
		if len(m.clients) > 0 {
			return m, m.openEditor(m.clients[m.clientCursor], 0, nil)
		}
	}
	return m, nil
}

func (m *InvoicesModel) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.editID > 0 {
			m.mode = invoiceViewDetail
		} else {
			m.mode = invoiceViewList
		}
		m.err = nil
		return m, nil

	case "tab":
		return m, m.focusInput((m.inputFocus + 1) % lineFieldCount)

	case "shift+tab":
		return m, m.focusInput((m.inputFocus - 1 + lineFieldCount) % lineFieldCount)

	case "enter":
		if m.inputFocus == lineFieldCount-1 {
			return m, m.commitLine()
		}
		return m, m.focusInput(m.inputFocus + 1)

	case "up", "ctrl+p":
		if m.lineCursor > 0 {
			m.lineCursor--
		}
		return m, nil

	case "down", "ctrl+n":
		if m.lineCursor < len(m.lines)-1 {
			m.lineCursor++
		}
		return m, nil

	case "ctrl+e":
		return m, m.loadLine()

	case "ctrl+d":
		if m.lineCursor < len(m.lines) {
			m.lines = append(m.lines[:m.lineCursor], m.lines[m.lineCursor+1:]...)
			if m.lineCursor >= len(m.lines) {
				m.lineCursor = max(0, len(m.lines)-1)
			}
			m.initInputs()
			return m, m.focusInput(lineFieldDescription)
		}
		return m, nil

	case "ctrl+s":
		m.loading = true
		return m, m.saveDraft()
	}

	var cmd tea.Cmd
	m.inputs[m.inputFocus], cmd = m.inputs[m.inputFocus].Update(msg)
	return m, cmd
}

func (m *InvoicesModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = m.confirmReturn
	action := m.confirmAction
	m.confirmAction = nil
	m.confirmPrompt = ""

	if key.Matches(msg, DefaultKeyMap.Confirm) && action != nil {
		m.loading = true
		return m, action()
	}
	m.statusMsg = "Cancelled"
	return m, nil
}

func (m *InvoicesModel) View() string {
	if m.loading {
		return "Loading..."
	}

	switch m.mode {
	case invoiceViewDetail:
		return m.viewDetail()
	case invoiceViewPickClient:
		return m.viewPickClient()
	case invoiceViewEditor:
		return m.viewEditor()
	case invoiceViewConfirm:
		var s string
		if m.confirmReturn == invoiceViewDetail {
			s = m.viewDetail()
		} else {
			s = m.viewList()
		}
		return s + "\n\n" + warnStyle.Render("  "+m.confirmPrompt+" (y/N)")
	default:
		return m.viewList()
	}
}

func (m *InvoicesModel) viewList() string {
	var s string
	s += titleStyle.Render("Invoices") + "\n\n"

	if m.statusMsg != "" {
		s += successStyle.Render("  "+m.statusMsg) + "\n\n"
	}

	if m.err != nil {
		s += errorLine(m.err) + "\n\n"
	}

	if len(m.invoices) == 0 && m.err == nil {
		s += subtitleStyle.Render("  No invoices yet. Press 'n' to create one.")
		return s
	}

	cur := m.app.Config.Currency

	// Header
	s += subtitleStyle.Render(fmt.Sprintf(
		"  %-16s  %-20s  %-12s  %16s  %s",
		"Number", "Client", "Date", "Total TTC", "Status",
	)) + "\n"

	for i, inv := range m.invoices {
		clientName := "Unknown"
		if inv.Client != nil {
			clientName = inv.Client.Name
		}

		invLine := fmt.Sprintf("  %-16s  %-20s  %-12s  %16s  %s",
			inv.Number,
			truncateStr(clientName, 20),
			inv.Date.Local().Format("Jan 02, 2006"),
			formatMoney(inv.TotalTTC, cur),
			statusBadge(inv.Status),
		)

		if i == m.cursor {
			s += selectedStyle.Render(invLine) + "\n"
		} else {
			s += invLine + "\n"
		}
	}

	s += "\n" + helpStyle.Render("  j/k: navigate  enter: view detail  n: new invoice")

	return s
}

func (m *InvoicesModel) viewDetail() string {
	inv := m.selected
	if inv == nil {
		return "No invoice selected"
	}

	cur := m.app.Config.Currency
	var s string

	clientName := "Unknown"
	if inv.Client != nil {
		clientName = inv.Client.Name
	}

	if m.statusMsg != "" {
		s += successStyle.Render("  "+m.statusMsg) + "\n\n"
	}

	// Header
	s += titleStyle.Render(fmt.Sprintf("Invoice %s", inv.Number)) + "\n\n"
	s += fmt.Sprintf("  Client:   %s\n", clientName)
	s += fmt.Sprintf("  Date:     %s\n", inv.Date.Local().Format("Jan 02, 2006"))
	s += fmt.Sprintf("  Status:   %s\n", statusBadge(inv.Status))
	s += "\n"

	s += m.renderLines(inv.Lines, -1)

	s += "\n"
	s += fmt.Sprintf("  Total HT:   %16s\n", formatMoney(inv.TotalHT, cur))
	s += fmt.Sprintf("  TVA:        %16s\n", formatMoney(inv.TVA, cur))
	s += lipgloss.NewStyle().Bold(true).Render(
		fmt.Sprintf("  Total TTC:  %16s", formatMoney(inv.TotalTTC, cur)),
	) + "\n"

	if m.err != nil {
		s += "\n" + errorLine(m.err) + "\n"
	}

	help := "  esc: back  r: recompute"
	switch inv.Status {
	case domain.InvoiceStatusDraft:
		help += "  e: edit lines  v: validate  d: delete"
	case domain.InvoiceStatusValidated:
		help += "  x: cancel invoice"
	}
	s += "\n" + helpStyle.Render(help)

	return s
}

// renderLines renders a line table; cursor < 0 disables the selection marker
func (m *InvoicesModel) renderLines(lines []*domain.InvoiceLine, cursor int) string {
	if len(lines) == 0 {
		return subtitleStyle.Render("  No lines") + "\n"
	}

	cur := m.app.Config.Currency
	s := subtitleStyle.Render(fmt.Sprintf(
		"  %-35s  %5s  %14s  %16s",
		"Description", "Qty", "Unit price", "Total",
	)) + "\n"

	for i, l := range lines {
		row := fmt.Sprintf("  %-35s  %5d  %14s  %16s",
			truncateStr(l.Description, 35),
			l.Quantity,
			formatMoney(l.UnitPrice, cur),
			formatMoney(l.Total(), cur),
		)
		if i == cursor {
			row = selectedStyle.Render(row)
		}
		s += row + "\n"
	}
	return s
}

func (m *InvoicesModel) viewPickClient() string {
	var s string
	s += titleStyle.Render("New Invoice - Select Client") + "\n\n"

	for i, client := range m.clients {
		indicator := "  "
		if i == m.clientCursor {
			indicator = "> "
		}

		clientLine := fmt.Sprintf("%s%-25s  %s", indicator, truncateStr(client.Name, 25), client.Email)

		if i == m.clientCursor {
			s += lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Render(clientLine) + "\n"
		} else {
			s += clientLine + "\n"
		}
	}

	s += "\n" + helpStyle.Render("  j/k: navigate  enter: select  esc: cancel")

	return s
}

func (m *InvoicesModel) viewEditor() string {
	var s string

	title := "New Invoice"
	if m.editID > 0 {
		title = "Edit Invoice"
	}
	clientName := "Unknown"
	if m.editClient != nil {
		clientName = m.editClient.Name
	}
	s += titleStyle.Render(fmt.Sprintf("%s - %s", title, clientName)) + "\n\n"

	s += m.renderLines(m.lines, m.lineCursor)

	// Preview with the configured rate; the service recomputes on save
	cur := m.app.Config.Currency
	rate, err := m.app.Config.Invoice.Rate()
	if err == nil {
		totals := domain.ComputeTotals(m.lines, rate)
		s += "\n"
		s += fmt.Sprintf("  Total HT:   %16s\n", formatMoney(totals.HT, cur))
		s += fmt.Sprintf("  TVA (%s%%):  %16s\n", rate.Shift(2).String(), formatMoney(totals.TVA, cur))
		s += lipgloss.NewStyle().Bold(true).Render(
			fmt.Sprintf("  Total TTC:  %16s", formatMoney(totals.TTC, cur)),
		) + "\n"
	}

	action := "Add line"
	if m.editingAt >= 0 {
		action = "Edit line"
	}
	s += "\n" + lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Render("  "+action) + "\n"

	labels := []string{"Description:", "Quantity:", "Unit price:"}
	for i, label := range labels {
		indicator := "  "
		labelStyle := subtitleStyle
		if i == m.inputFocus {
			indicator = "> "
			labelStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
		}
		s += fmt.Sprintf("%s%-14s %s\n", indicator, labelStyle.Render(label), m.inputs[i].View())
	}

	if m.err != nil {
		s += "\n" + errorLine(m.err) + "\n"
	}

	s += "\n" + helpStyle.Render("  tab: next field  enter: add/replace line  ↑/↓: select line  ctrl+e: edit line")
	s += "\n" + helpStyle.Render("  ctrl+d: remove line  ctrl+s: save invoice  esc: discard")

	return s
}

// statusBadge renders an invoice status with color
func statusBadge(status domain.InvoiceStatus) string {
	switch status {
	case domain.InvoiceStatusDraft:
		return lipgloss.NewStyle().Foreground(mutedColor).Render("DRAFT")
	case domain.InvoiceStatusValidated:
		return lipgloss.NewStyle().Foreground(successColor).Render("VALIDATED")
	case domain.InvoiceStatusCancelled:
		return lipgloss.NewStyle().Foreground(errorColor).Render("CANCELLED")
	default:
		return string(status)
	}
}
