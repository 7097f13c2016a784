package tui

import (
	"context"
	"fmt"

	"github.com/andy/invoicer/internal/app"
	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/service"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// clientMode represents the current screen mode
type clientMode int

const (
	clientModeList clientMode = iota
	clientModeNew
	clientModeEdit
	clientModeConfirmDelete
)

// form field indices
const (
	fieldName = iota
	fieldEmail
	fieldPhone
	fieldAddress
	fieldCount
)

// ClientsModel displays a navigable list of clients with create/edit forms
type ClientsModel struct {
	app       *app.App
	clients   []*domain.Client
	cursor    int
	loading   bool
	err       error
	statusMsg string

	// Form state
	mode          clientMode
	fields        []textinput.Model
	fieldFocus    int
	editing       *domain.Client // nil for new client
	conflicts     service.ClientValidationErrors
	checked       bool // conflicts shown once; saving again proceeds
	autoNewClient bool // open new client form after data loads
}

type clientsDataMsg struct {
	clients []*domain.Client
	err     error
}

type clientCheckedMsg struct {
	conflicts service.ClientValidationErrors
	err       error
}

type clientSavedMsg struct {
	name string
	err  error
}

type clientDeletedMsg struct {
	name string
	err  error
}

// NewClientsModel creates a new clients screen model
func NewClientsModel(a *app.App) tea.Model {
	return &ClientsModel{
		app:     a,
		loading: true,
	}
}

// IsCapturingInput returns true when the form is active
func (m *ClientsModel) IsCapturingInput() bool {
	return m.mode == clientModeNew || m.mode == clientModeEdit
}

func (m *ClientsModel) Init() tea.Cmd {
	return m.loadClients()
}

func (m *ClientsModel) loadClients() tea.Cmd {
	return func() tea.Msg {
		clients, err := m.app.ClientService.List(context.Background())
		return clientsDataMsg{clients: clients, err: err}
	}
}

func (m *ClientsModel) initForm(editing *domain.Client) {
	m.fields = make([]textinput.Model, fieldCount)

	m.fields[fieldName] = textinput.New()
	m.fields[fieldName].Placeholder = "Client name"
	m.fields[fieldName].CharLimit = domain.MaxClientNameLength
	m.fields[fieldName].Width = 40

	m.fields[fieldEmail] = textinput.New()
	m.fields[fieldEmail].Placeholder = "email@example.com"
	m.fields[fieldEmail].CharLimit = 100
	m.fields[fieldEmail].Width = 40

	m.fields[fieldPhone] = textinput.New()
	m.fields[fieldPhone].Placeholder = "034 00 000 00"
	m.fields[fieldPhone].CharLimit = 30
	m.fields[fieldPhone].Width = 20

	m.fields[fieldAddress] = textinput.New()
	m.fields[fieldAddress].Placeholder = "Optional address"
	m.fields[fieldAddress].CharLimit = 200
	m.fields[fieldAddress].Width = 50

	// Pre-fill for editing
	if editing != nil {
		m.fields[fieldName].SetValue(editing.Name)
		m.fields[fieldEmail].SetValue(editing.Email)
		m.fields[fieldPhone].SetValue(editing.Phone)
		m.fields[fieldAddress].SetValue(editing.Address)
	}
	m.editing = editing
	m.conflicts = service.ClientValidationErrors{}
	m.checked = false
	m.err = nil

	m.fieldFocus = fieldName
	m.fields[fieldName].Focus()
}

// formClient builds the client described by the form
func (m *ClientsModel) formClient() *domain.Client {
	client := domain.NewClient(m.fields[fieldName].Value())
	if m.editing != nil {
		cp := *m.editing
		cp.Name = m.fields[fieldName].Value()
		client = &cp
	}
	client.Email = m.fields[fieldEmail].Value()
	client.Phone = m.fields[fieldPhone].Value()
	client.Address = m.fields[fieldAddress].Value()
	return client
}

// checkClient looks for other clients sharing the name, email or phone
func (m *ClientsModel) checkClient() tea.Cmd {
	client := m.formClient()
	return func() tea.Msg {
		conflicts, err := m.app.ClientService.CheckUniqueness(context.Background(), client)
		return clientCheckedMsg{conflicts: conflicts, err: err}
	}
}

func (m *ClientsModel) saveClient() tea.Cmd {
	client := m.formClient()
	return func() tea.Msg {
		ctx := context.Background()

		var err error
		if client.ID > 0 {
			err = m.app.ClientService.Update(ctx, client)
		} else {
			err = m.app.ClientService.Add(ctx, client)
		}
		return clientSavedMsg{name: client.Name, err: err}
	}
}

func (m *ClientsModel) deleteClient() tea.Cmd {
	client := m.clients[m.cursor]
	return func() tea.Msg {
		err := m.app.ClientService.Delete(context.Background(), client.ID)
		return clientDeletedMsg{name: client.Name, err: err}
	}
}

func (m *ClientsModel) openNewForm() tea.Cmd {
	m.mode = clientModeNew
	m.initForm(nil)
	return m.fields[fieldName].Focus()
}

func (m *ClientsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle OpenNewClientFormMsg at the top so it works regardless of mode
	if _, ok := msg.(OpenNewClientFormMsg); ok {
		if m.loading {
			// Data hasn't loaded yet; set flag to auto-open form when it does
			m.autoNewClient = true
			return m, nil
		}
		return m, m.openNewForm()
	}

	switch m.mode {
	case clientModeNew, clientModeEdit:
		return m.updateForm(msg)
	case clientModeConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	switch msg := msg.(type) {
	case RefreshDataMsg:
		m.loading = true
		return m, m.loadClients()

	case clientsDataMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.clients = msg.clients
			if m.cursor >= len(m.clients) {
				m.cursor = max(0, len(m.clients)-1)
			}
		}
		// Auto-open new client form on first run
		if m.autoNewClient {
			m.autoNewClient = false
			return m, m.openNewForm()
		}
		return m, nil

	case clientDeletedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("Deleted: %s", msg.name)
		m.loading = true
		return m, m.loadClients()

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		m.statusMsg = ""
		m.err = nil

		switch {
		case key.Matches(msg, DefaultKeyMap.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, DefaultKeyMap.Down):
			if m.cursor < len(m.clients)-1 {
				m.cursor++
			}
		case key.Matches(msg, DefaultKeyMap.New):
			return m, m.openNewForm()
		case key.Matches(msg, DefaultKeyMap.Select), key.Matches(msg, DefaultKeyMap.Edit):
			if len(m.clients) > 0 && m.cursor < len(m.clients) {
				m.mode = clientModeEdit
				m.initForm(m.clients[m.cursor])
				return m, m.fields[fieldName].Focus()
			}
		case key.Matches(msg, DefaultKeyMap.Delete):
			if len(m.clients) > 0 && m.cursor < len(m.clients) {
				m.mode = clientModeConfirmDelete
			}
		}
	}

	return m, nil
}

func (m *ClientsModel) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		m.mode = clientModeList
		if key.Matches(msg, DefaultKeyMap.Confirm) {
			return m, m.deleteClient()
		}
		m.statusMsg = "Delete cancelled"
	}
	return m, nil
}

func (m *ClientsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case clientCheckedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.conflicts = msg.conflicts
		m.checked = true
		if msg.conflicts.HasErrors() {
			// Shown to the user; saving again goes through
			return m, nil
		}
		return m, m.saveClient()

	case clientSavedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.mode = clientModeList
		m.statusMsg = fmt.Sprintf("Saved: %s", msg.name)
		m.loading = true
		return m, m.loadClients()

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			// Cancel form
			m.mode = clientModeList
			m.err = nil
			return m, nil

		case "tab", "down":
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus = (m.fieldFocus + 1) % fieldCount
			return m, m.fields[m.fieldFocus].Focus()

		case "shift+tab", "up":
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus = (m.fieldFocus - 1 + fieldCount) % fieldCount
			return m, m.fields[m.fieldFocus].Focus()

		case "enter":
			if m.fieldFocus == fieldCount-1 {
				return m, m.submit()
			}
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus++
			return m, m.fields[m.fieldFocus].Focus()

		case "ctrl+s":
			return m, m.submit()
		}
	}

	// Update the focused text input
	var cmd tea.Cmd
	m.fields[m.fieldFocus], cmd = m.fields[m.fieldFocus].Update(msg)
	if _, ok := msg.(tea.KeyMsg); ok {
		// edits invalidate the last uniqueness check
		m.checked = false
	}
	return m, cmd
}

// submit checks for duplicates first; once conflicts have been shown, a
// second submit saves anyway.
func (m *ClientsModel) submit() tea.Cmd {
	m.err = nil
	if m.checked && m.conflicts.HasErrors() {
		return m.saveClient()
	}
	return m.checkClient()
}

func (m *ClientsModel) View() string {
	switch m.mode {
	case clientModeNew, clientModeEdit:
		return m.viewForm()
	}
	return m.viewList()
}

func (m *ClientsModel) viewForm() string {
	var s string

	if m.mode == clientModeNew {
		if len(m.clients) == 0 {
			s += titleStyle.Render("Welcome to invoicer!") + "\n"
			s += subtitleStyle.Render("  Let's set up your first client to get started.") + "\n\n"
		} else {
			s += titleStyle.Render("New Client") + "\n\n"
		}
	} else {
		s += titleStyle.Render("Edit Client") + "\n\n"
	}

	labels := []string{"Name:", "Email:", "Phone:", "Address:"}
	conflicts := []string{m.conflicts.NameError, m.conflicts.EmailError, m.conflicts.PhoneError, ""}
	for i, label := range labels {
		indicator := "  "
		labelStyle := subtitleStyle
		if i == m.fieldFocus {
			indicator = "> "
			labelStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
		}
		s += fmt.Sprintf("%s%s\n  %s\n", indicator, labelStyle.Render(label), m.fields[i].View())
		if conflicts[i] != "" {
			s += warnStyle.Render("  ! "+conflicts[i]) + "\n"
		}
		s += "\n"
	}

	if m.err != nil {
		s += errorLine(m.err) + "\n\n"
	}

	if m.checked && m.conflicts.HasErrors() {
		s += warnStyle.Render("  Press ctrl+s again to save anyway") + "\n"
	}
	s += helpStyle.Render("  tab/shift+tab: navigate fields  ctrl+s: save  enter: next/save  esc: cancel")

	return s
}

func (m *ClientsModel) viewList() string {
	if m.loading {
		return "Loading clients..."
	}

	var s string
	s += titleStyle.Render("Clients") + "\n\n"

	if m.statusMsg != "" {
		s += successStyle.Render("  "+m.statusMsg) + "\n\n"
	}
	if m.err != nil {
		s += errorLine(m.err) + "\n\n"
	}

	if len(m.clients) == 0 {
		s += subtitleStyle.Render("  No clients yet. Press 'n' to add one.") + "\n"
		return s
	}

	for i, client := range m.clients {
		s += m.renderClient(i, client) + "\n"
	}

	if m.mode == clientModeConfirmDelete {
		s += "\n" + warnStyle.Render(fmt.Sprintf(
			"  Delete %s and all of their invoices? (y/N)", m.clients[m.cursor].Name,
		))
		return s
	}

	s += "\n" + helpStyle.Render("  j/k: navigate  n: new  enter/e: edit  d: delete")

	return s
}

func (m *ClientsModel) renderClient(index int, client *domain.Client) string {
	selected := index == m.cursor

	indicator := "  "
	if selected {
		indicator = "> "
	}

	line1 := fmt.Sprintf("%s%s", indicator, client.Name)

	contact := client.Email
	if client.Phone != "" {
		if contact != "" {
			contact += "  |  "
		}
		contact += client.Phone
	}
	if contact == "" {
		contact = "No contact details"
	}
	line2 := fmt.Sprintf("    %s", contact)

	nameStyle := lipgloss.NewStyle()
	if selected {
		nameStyle = nameStyle.Bold(true).Foreground(primaryColor)
	}

	result := nameStyle.Render(line1) + "\n" + subtitleStyle.Render(line2)
	if client.Address != "" {
		result += "\n" + subtitleStyle.Render("    "+truncateStr(client.Address, 60))
	}
	return result
}
