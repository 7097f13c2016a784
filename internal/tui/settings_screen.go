package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andy/invoicer/internal/app"
	"github.com/andy/invoicer/internal/config"
	"github.com/andy/invoicer/internal/domain"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

type settingsMode int

const (
	settingsModeView settingsMode = iota
	settingsModeEdit
)

// settings form field indices
const (
	settingsFieldPrefix = iota
	settingsFieldTaxRate
	settingsFieldSymbol
	settingsFieldDecimals
	settingsFieldCount
)

type settingsSavedMsg struct {
	err error
}

// SettingsModel manages the settings screen
type SettingsModel struct {
	app        *app.App
	mode       settingsMode
	fields     []textinput.Model
	fieldFocus int
	err        error
	statusMsg  string
}

// NewSettingsModel creates a new settings screen
func NewSettingsModel(a *app.App) tea.Model {
	return &SettingsModel{
		app:  a,
		mode: settingsModeView,
	}
}

// IsCapturingInput returns true when the edit form is active
func (m *SettingsModel) IsCapturingInput() bool {
	return m.mode == settingsModeEdit
}

func (m *SettingsModel) Init() tea.Cmd {
	return nil
}

func (m *SettingsModel) initForm() {
	m.fields = make([]textinput.Model, settingsFieldCount)
	cfg := m.app.Config

	// Number prefix
	m.fields[settingsFieldPrefix] = textinput.New()
	m.fields[settingsFieldPrefix].Placeholder = domain.DefaultNumberPrefix
	m.fields[settingsFieldPrefix].CharLimit = 20
	m.fields[settingsFieldPrefix].Width = 20
	m.fields[settingsFieldPrefix].SetValue(cfg.Invoice.NumberPrefix)

	// Tax rate (display as percentage)
	m.fields[settingsFieldTaxRate] = textinput.New()
	m.fields[settingsFieldTaxRate].Placeholder = "20"
	m.fields[settingsFieldTaxRate].CharLimit = 10
	m.fields[settingsFieldTaxRate].Width = 10
	if rate, err := cfg.Invoice.Rate(); err == nil {
		m.fields[settingsFieldTaxRate].SetValue(rate.Shift(2).String())
	}

	// Currency symbol
	m.fields[settingsFieldSymbol] = textinput.New()
	m.fields[settingsFieldSymbol].Placeholder = "Ar"
	m.fields[settingsFieldSymbol].CharLimit = 8
	m.fields[settingsFieldSymbol].Width = 10
	m.fields[settingsFieldSymbol].SetValue(cfg.Currency.Symbol)

	// Displayed fraction digits
	m.fields[settingsFieldDecimals] = textinput.New()
	m.fields[settingsFieldDecimals].Placeholder = "0"
	m.fields[settingsFieldDecimals].CharLimit = 1
	m.fields[settingsFieldDecimals].Width = 4
	m.fields[settingsFieldDecimals].SetValue(strconv.Itoa(int(cfg.Currency.Decimals)))

	m.fieldFocus = settingsFieldPrefix
	m.fields[settingsFieldPrefix].Focus()
}

// applySettings validates the form values and writes them into cfg. cfg is
// left untouched when any value is invalid.
func applySettings(cfg *config.Config, prefix, ratePercent, symbol, decimals string) error {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return fmt.Errorf("invoice prefix is required")
	}

	pct, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(ratePercent), ",", "."))
	if err != nil || pct.IsNegative() {
		return fmt.Errorf("tax rate must be a non-negative number")
	}

	digits, err := strconv.Atoi(strings.TrimSpace(decimals))
	if err != nil || digits < 0 || digits > 4 {
		return fmt.Errorf("decimals must be between 0 and 4")
	}

	cfg.Invoice.NumberPrefix = prefix
	cfg.Invoice.TaxRate = pct.Shift(-2).String()
	cfg.Currency.Symbol = strings.TrimSpace(symbol)
	cfg.Currency.Decimals = int32(digits)
	return nil
}

func (m *SettingsModel) saveSettings() tea.Cmd {
	prefix := m.fields[settingsFieldPrefix].Value()
	rate := m.fields[settingsFieldTaxRate].Value()
	symbol := m.fields[settingsFieldSymbol].Value()
	decimals := m.fields[settingsFieldDecimals].Value()

	return func() tea.Msg {
		updated := *m.app.Config
		if err := applySettings(&updated, prefix, rate, symbol, decimals); err != nil {
			return settingsSavedMsg{err: err}
		}
		if err := updated.Validate(); err != nil {
			return settingsSavedMsg{err: err}
		}

		*m.app.Config = updated
		if err := m.app.SaveConfig(); err != nil {
			return settingsSavedMsg{err: fmt.Errorf("failed to save config: %w", err)}
		}

		return settingsSavedMsg{}
	}
}

func (m *SettingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.mode == settingsModeEdit {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.err = nil
		switch {
		case msg.String() == "enter":
			m.mode = settingsModeEdit
			m.statusMsg = ""
			m.initForm()
			return m, m.fields[m.fieldFocus].Focus()
		}
	}

	return m, nil
}

func (m *SettingsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case settingsSavedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.mode = settingsModeView
		m.statusMsg = "Settings saved. Invoice rules apply from the next start."
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			m.mode = settingsModeView
			m.err = nil
			return m, nil

		case "tab", "down":
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus = (m.fieldFocus + 1) % settingsFieldCount
			return m, m.fields[m.fieldFocus].Focus()

		case "shift+tab", "up":
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus = (m.fieldFocus - 1 + settingsFieldCount) % settingsFieldCount
			return m, m.fields[m.fieldFocus].Focus()

		case "enter":
			if m.fieldFocus == settingsFieldCount-1 {
				return m, m.saveSettings()
			}
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus++
			return m, m.fields[m.fieldFocus].Focus()

		case "ctrl+s":
			return m, m.saveSettings()
		}
	}

	// Update the focused text input
	var cmd tea.Cmd
	m.fields[m.fieldFocus], cmd = m.fields[m.fieldFocus].Update(msg)
	return m, cmd
}

func (m *SettingsModel) View() string {
	if m.mode == settingsModeEdit {
		return m.viewForm()
	}
	return m.viewSettings()
}

func (m *SettingsModel) viewSettings() string {
	var s string
	s += titleStyle.Render("Settings") + "\n\n"

	if m.statusMsg != "" {
		s += successStyle.Render("  "+m.statusMsg) + "\n\n"
	}

	cfg := m.app.Config

	labelStyle := lipgloss.NewStyle().Bold(true).Width(22)
	valueStyle := lipgloss.NewStyle().Foreground(primaryColor)

	taxDisplay := cfg.Invoice.TaxRate
	if rate, err := cfg.Invoice.Rate(); err == nil {
		taxDisplay = rate.Shift(2).String() + "%"
	}

	s += subtitleStyle.Render("  Invoice Settings") + "\n\n"
	s += fmt.Sprintf("  %s %s\n", labelStyle.Render("Number Prefix:"), valueStyle.Render(cfg.Invoice.NumberPrefix))
	s += fmt.Sprintf("  %s %s\n", labelStyle.Render("Tax Rate (TVA):"), valueStyle.Render(taxDisplay))
	s += fmt.Sprintf("  %s %s\n", labelStyle.Render("Strict Line Edits:"), valueStyle.Render(strconv.FormatBool(cfg.Invoice.StrictReconcile)))

	s += "\n" + subtitleStyle.Render("  Display") + "\n\n"
	s += fmt.Sprintf("  %s %s\n", labelStyle.Render("Currency:"), valueStyle.Render(cfg.Currency.Symbol))
	s += fmt.Sprintf("  %s %s\n", labelStyle.Render("Example:"), valueStyle.Render(formatMoney(decimal.NewFromInt(1234567), cfg.Currency)))

	s += "\n" + subtitleStyle.Render("  Storage") + "\n\n"
	s += fmt.Sprintf("  %s %s\n", labelStyle.Render("Database:"), valueStyle.Render(cfg.Database.Path))

	s += "\n" + helpStyle.Render("  enter: edit settings")

	return s
}

func (m *SettingsModel) viewForm() string {
	var s string
	s += titleStyle.Render("Edit Settings") + "\n\n"

	labels := []string{"Number Prefix:", "Tax Rate (%):", "Currency Symbol:", "Decimals Shown:"}
	for i, label := range labels {
		indicator := "  "
		if i == m.fieldFocus {
			indicator = "> "
		}
		labelStyle := subtitleStyle
		if i == m.fieldFocus {
			labelStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
		}
		s += fmt.Sprintf("%s%s\n  %s\n\n", indicator, labelStyle.Render(label), m.fields[i].View())
	}

	if m.err != nil {
		s += errorLine(m.err) + "\n\n"
	}

	s += helpStyle.Render("  tab/shift+tab: navigate fields  ctrl+s: save  enter: next/save  esc: cancel")

	return s
}
