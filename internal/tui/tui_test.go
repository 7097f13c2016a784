package tui

import (
	"testing"

	"github.com/andy/invoicer/internal/app"
	"github.com/andy/invoicer/internal/config"
	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/service"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testApp() *app.App {
	return &app.App{Config: config.DefaultConfig()}
}

func press(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestTruncateStr(t *testing.T) {
	assert.Equal(t, "Rasoa", truncateStr("Rasoa", 10))
	assert.Equal(t, "Andria...", truncateStr("Andrianaivo", 9))
	assert.Equal(t, "Él", truncateStr("Élodie", 2))
}

func TestBuildLine(t *testing.T) {
	line, err := buildLine(" Service A ", "2", "50000")
	require.NoError(t, err)
	assert.Equal(t, "Service A", line.Description)
	assert.Equal(t, 2, line.Quantity)
	assert.True(t, line.Total().Equal(decimal.NewFromInt(100000)))

	line, err = buildLine("Hosting", "", "1,5")
	require.NoError(t, err)
	assert.Equal(t, 1, line.Quantity)
	assert.Equal(t, "1.5", line.UnitPrice.String())

	_, err = buildLine("Hosting", "two", "1")
	assert.Error(t, err)
	_, err = buildLine("Hosting", "1", "ten")
	assert.Error(t, err)

	_, err = buildLine("", "1", "10")
	assert.ErrorIs(t, err, domain.ErrValidationFailed)
	_, err = buildLine("Hosting", "0", "10")
	assert.ErrorIs(t, err, domain.ErrValidationFailed)
}

func TestApplySettings(t *testing.T) {
	cfg := config.DefaultConfig()
	require.NoError(t, applySettings(cfg, " INV ", "18", "€", "2"))
	assert.Equal(t, "INV", cfg.Invoice.NumberPrefix)
	assert.Equal(t, "0.18", cfg.Invoice.TaxRate)
	assert.Equal(t, "€", cfg.Currency.Symbol)
	assert.Equal(t, int32(2), cfg.Currency.Decimals)
	require.NoError(t, cfg.Validate())

	before := *cfg
	assert.Error(t, applySettings(cfg, "", "18", "€", "2"))
	assert.Error(t, applySettings(cfg, "INV", "-1", "€", "2"))
	assert.Error(t, applySettings(cfg, "INV", "18", "€", "9"))
	assert.Equal(t, before, *cfg)
}

func TestScreenString(t *testing.T) {
	assert.Equal(t, "Dashboard", ScreenDashboard.String())
	assert.Equal(t, "Invoices", ScreenInvoices.String())
	assert.Equal(t, "Unknown", Screen(42).String())
}

func TestStatusBadge(t *testing.T) {
	assert.Contains(t, statusBadge(domain.InvoiceStatusDraft), "DRAFT")
	assert.Contains(t, statusBadge(domain.InvoiceStatusValidated), "VALIDATED")
	assert.Contains(t, statusBadge(domain.InvoiceStatusCancelled), "CANCELLED")
}

func TestModel_Navigation(t *testing.T) {
	m := New(testApp())

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = next.(Model)

	next, cmd := m.Update(runes("i"))
	m = next.(Model)
	assert.Equal(t, ScreenInvoices, m.currentScreen)
	assert.NotNil(t, cmd)
	assert.NotNil(t, m.invoices)

	next, _ = m.Update(runes("c"))
	m = next.(Model)
	assert.Equal(t, ScreenClients, m.currentScreen)
	assert.Contains(t, m.View(), "invoicer - Clients")
}

func TestModel_FirstRunOpensClientForm(t *testing.T) {
	m := New(testApp())

	next, _ := m.Update(firstRunCheckMsg{hasClients: false})
	m = next.(Model)
	assert.Equal(t, ScreenClients, m.currentScreen)

	next, _ = m.Update(OpenNewClientFormMsg{})
	m = next.(Model)
	next, _ = m.Update(clientsDataMsg{})
	m = next.(Model)

	clients := m.clients.(*ClientsModel)
	assert.True(t, clients.IsCapturingInput())
	assert.Contains(t, clients.View(), "Welcome to invoicer!")

	// global keys are typed into the form instead of switching screens
	next, _ = m.Update(runes("i"))
	m = next.(Model)
	assert.Equal(t, ScreenClients, m.currentScreen)
	assert.Equal(t, "i", clients.fields[fieldName].Value())
}

func TestClientsModel_Conflicts(t *testing.T) {
	m := NewClientsModel(testApp()).(*ClientsModel)
	m.loading = false
	m.mode = clientModeNew
	m.initForm(nil)
	m.fields[fieldName].SetValue("Rasoa")

	_, _ = m.Update(clientCheckedMsg{conflicts: service.ClientValidationErrors{
		NameError: "a client with this name already exists",
	}})

	assert.True(t, m.checked)
	view := m.View()
	assert.Contains(t, view, "a client with this name already exists")
	assert.Contains(t, view, "save anyway")

	// typing invalidates the check
	_, _ = m.Update(runes("x"))
	assert.False(t, m.checked)
}

func TestInvoicesModel_Editor(t *testing.T) {
	m := NewInvoicesModel(testApp()).(*InvoicesModel)
	m.loading = false

	persisted := domain.NewInvoiceLine("Design", 1, decimal.NewFromInt(10))
	persisted.ID = 7
	m.openEditor(&domain.Client{ID: 1, Name: "Rasoa"}, 3, []*domain.InvoiceLine{persisted})
	assert.True(t, m.IsCapturingInput())

	// add a new line
	m.inputs[lineFieldDescription].SetValue("Service A")
	m.inputs[lineFieldQuantity].SetValue("2")
	m.inputs[lineFieldPrice].SetValue("50000")
	m.inputFocus = lineFieldPrice
	_, _ = m.Update(press(tea.KeyEnter))
	require.Len(t, m.lines, 2)
	assert.Zero(t, m.lines[1].ID)
	assert.Equal(t, 1, m.lineCursor)

	// replace the persisted line keeping its ID
	_, _ = m.Update(press(tea.KeyUp))
	assert.Equal(t, 0, m.lineCursor)
	_, _ = m.Update(press(tea.KeyCtrlE))
	assert.Equal(t, "Design", m.inputs[lineFieldDescription].Value())
	m.inputs[lineFieldQuantity].SetValue("3")
	m.inputFocus = lineFieldPrice
	_, _ = m.Update(press(tea.KeyEnter))
	require.Len(t, m.lines, 2)
	assert.Equal(t, int64(7), m.lines[0].ID)
	assert.Equal(t, 3, m.lines[0].Quantity)
	assert.Equal(t, -1, m.editingAt)

	// the source slice is not modified
	assert.Equal(t, 1, persisted.Quantity)

	// totals preview: 30 + 100000 = 100030 HT, 120036 TTC
	assert.Contains(t, m.View(), "120 036 Ar")

	// invalid input keeps the lines and reports the problem
	m.inputs[lineFieldDescription].SetValue("")
	m.inputFocus = lineFieldPrice
	_, _ = m.Update(press(tea.KeyEnter))
	assert.Len(t, m.lines, 2)
	assert.Error(t, m.err)

	_, _ = m.Update(press(tea.KeyCtrlD))
	require.Len(t, m.lines, 1)
	assert.Equal(t, "Service A", m.lines[0].Description)

	_, _ = m.Update(press(tea.KeyEsc))
	assert.Equal(t, invoiceViewDetail, m.mode)
}

func TestInvoicesModel_ConfirmDecline(t *testing.T) {
	m := NewInvoicesModel(testApp()).(*InvoicesModel)
	m.loading = false
	m.mode = invoiceViewDetail
	m.selected = &domain.Invoice{ID: 1, Number: "FAC-202603-0001", Status: domain.InvoiceStatusDraft}

	_, _ = m.Update(runes("d"))
	assert.Equal(t, invoiceViewConfirm, m.mode)
	assert.Contains(t, m.View(), "Delete invoice FAC-202603-0001?")

	_, cmd := m.Update(runes("n"))
	assert.Nil(t, cmd)
	assert.Equal(t, invoiceViewDetail, m.mode)
	assert.Equal(t, "Cancelled", m.statusMsg)
}

func TestInvoicesModel_EditLockedInvoice(t *testing.T) {
	m := NewInvoicesModel(testApp()).(*InvoicesModel)
	m.loading = false
	m.mode = invoiceViewDetail
	m.selected = &domain.Invoice{ID: 1, Number: "FAC-202603-0001", Status: domain.InvoiceStatusValidated}

	_, _ = m.Update(runes("e"))
	assert.Equal(t, invoiceViewDetail, m.mode)
	assert.ErrorIs(t, m.err, domain.ErrInvalidState)
}

func TestInvoicesModel_RecomputeLockedInvoice(t *testing.T) {
	m := NewInvoicesModel(testApp()).(*InvoicesModel)
	m.loading = false
	m.mode = invoiceViewDetail
	m.selected = &domain.Invoice{ID: 1, Number: "FAC-202603-0001", Status: domain.InvoiceStatusCancelled}

	_, cmd := m.Update(runes("r"))
	assert.Nil(t, cmd)
	assert.False(t, m.loading)
	assert.ErrorIs(t, m.err, domain.ErrInvalidState)
}
