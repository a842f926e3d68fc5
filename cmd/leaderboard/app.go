package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"clubrank/internal/ranking"
)

// genders cycles through the filter states with the 'g' key.
var genders = []string{"", "M", "F"}

// App is the root Bubble Tea model: one leaderboard screen with week
// navigation and a gender filter.
type App struct {
	client  *http.Client
	baseURL string

	weekOffset  int
	genderIndex int

	ranking *ranking.WeeklyRanking
	loading bool
	err     error

	viewport viewport.Model
	ready    bool
	width    int
	height   int
}

// NewApp creates the viewer pointed at a clubrank server.
func NewApp(client *http.Client, baseURL string) *App {
	return &App{
		client:     client,
		baseURL:    strings.TrimRight(baseURL, "/"),
		weekOffset: -1, // last completed week, same default as the API
		loading:    true,
	}
}

type rankingLoadedMsg struct {
	ranking *ranking.WeeklyRanking
	err     error
}

func (a *App) load() tea.Msg {
	params := url.Values{}
	params.Set("week_offset", strconv.Itoa(a.weekOffset))
	if g := genders[a.genderIndex]; g != "" {
		params.Set("gender", g)
	}

	resp, err := a.client.Get(a.baseURL + "/rankings/weekly?" + params.Encode())
	if err != nil {
		return rankingLoadedMsg{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return rankingLoadedMsg{err: fmt.Errorf("server returned %s", resp.Status)}
	}

	var result ranking.WeeklyRanking
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return rankingLoadedMsg{err: fmt.Errorf("decoding response: %w", err)}
	}

	return rankingLoadedMsg{ranking: &result}
}

// Init starts the first fetch.
func (a *App) Init() tea.Cmd {
	return a.load
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return a, tea.Quit
		case "left", "h":
			a.weekOffset--
			a.loading = true
			return a, a.load
		case "right", "l":
			a.weekOffset++
			a.loading = true
			return a, a.load
		case "g":
			a.genderIndex = (a.genderIndex + 1) % len(genders)
			a.loading = true
			return a, a.load
		case "r":
			a.loading = true
			return a, a.load
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		headerHeight := 4
		footerHeight := 2
		if !a.ready {
			a.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			a.ready = true
		} else {
			a.viewport.Width = msg.Width
			a.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		a.viewport.SetContent(a.tableView())

	case rankingLoadedMsg:
		a.loading = false
		a.err = msg.err
		if msg.err == nil {
			a.ranking = msg.ranking
		}
		if a.ready {
			a.viewport.SetContent(a.tableView())
		}
	}

	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	return a, cmd
}

// View renders the app
func (a *App) View() string {
	if !a.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Club Weekly Leaderboard"))
	b.WriteString("\n")
	b.WriteString(a.headerView())
	b.WriteString("\n\n")
	b.WriteString(a.viewport.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("←/→ week · g gender · r reload · q quit"))
	return b.String()
}

func (a *App) headerView() string {
	week := fmt.Sprintf("week offset %d", a.weekOffset)
	if a.ranking != nil {
		week = fmt.Sprintf("%s – %s",
			a.ranking.WeekStart.Format("Mon Jan 2"),
			a.ranking.WeekEnd.Format("Mon Jan 2 2006"),
		)
	}

	filter := "all athletes"
	switch genders[a.genderIndex] {
	case "M":
		filter = "men"
	case "F":
		filter = "women"
	}

	status := ""
	if a.loading {
		status = statusStyle.Render("  loading…")
	}

	return subtitleStyle.Render(week+" · "+filter) + status
}

func (a *App) tableView() string {
	if a.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", a.err))
	}
	if a.ranking == nil {
		return ""
	}
	if len(a.ranking.Rankings) == 0 {
		return mutedStyle.Render("No activities recorded this week.")
	}

	var b strings.Builder
	header := fmt.Sprintf("%-4s %-24s %10s %9s %10s %6s",
		"#", "Athlete", "Dist km", "Elev m", "Longest", "Acts")
	b.WriteString(tableHeaderStyle.Render(header))
	b.WriteString("\n")

	for i, m := range a.ranking.Rankings {
		name := strings.TrimSpace(m.Athlete.FirstName + " " + m.Athlete.LastName)
		if len(name) > 24 {
			name = name[:23] + "…"
		}
		row := fmt.Sprintf("%-4d %-24s %10.1f %9.0f %10.1f %6d",
			i+1, name,
			m.TotalDistance/1000,
			m.TotalElevation,
			m.LongestRide/1000,
			m.ActivitiesCount,
		)
		style := rowStyle
		if i == 0 {
			style = leaderStyle
		}
		b.WriteString(style.Render(row))
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().Padding(0, 1).Render(b.String())
}
