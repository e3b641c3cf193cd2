package ui

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lowaak/circuit-timer/internal/workout"
)

// Page names for tview.Pages
const (
	pageWorkoutSelection = "workout_selection"
	pageSessionDashboard = "session_dashboard"
)

// CursesUIViewImpl implements UIViewImpl using tview (curses-based terminal UI)
type CursesUIViewImpl struct {
	logger      *log.Logger
	app         *tview.Application
	currentMode UIMode

	// Root container that holds all pages
	pages *tview.Pages

	// Shared components (visible in all modes)
	logView  *tview.TextView
	mainFlex *tview.Flex // Main layout: mode content on left, logs on right

	// Workout Selection mode components
	workoutSelectionFlex       *tview.Flex
	workoutSelectionTabWidgets []*tview.Box
	workoutList                *tview.List
	workoutDetailsPanel        *tview.TextView
	workouts                   []workout.Workout

	// Session Dashboard mode components
	sessionDashboardFlex       *tview.Flex
	sessionDashboardTabWidgets []*tview.Box
	sessionPanel               *tview.TextView
	exercisesPanel             *tview.TextView
	lastRecord                 workout.Record
	soundOn                    bool
}

func NewCursesUIView(logger *log.Logger, app *tview.Application) *CursesUIViewImpl {
	return &CursesUIViewImpl{
		logger:      logger,
		app:         app,
		currentMode: UIModeWorkoutSelection,
		lastRecord:  workout.Record{ActiveWorkout: workout.EmptyActiveWorkout()},
	}
}

// Initialize sets up the tview widgets
func (ui *CursesUIViewImpl) Initialize(controller *UIController) {
	// No SetChangedFunc with app.Draw(): it can hang during shutdown while log
	// lines are still arriving. BaseUIView draws after each update.
	ui.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	ui.logView.SetBorder(true).SetTitle(" Logs ")

	ui.pages = tview.NewPages()

	ui.initWorkoutSelectionMode(controller)
	ui.initSessionDashboardMode()

	ui.pages.AddPage(pageWorkoutSelection, ui.workoutSelectionFlex, true, ui.currentMode == UIModeWorkoutSelection)
	ui.pages.AddPage(pageSessionDashboard, ui.sessionDashboardFlex, true, ui.currentMode == UIModeSessionDashboard)

	ui.mainFlex = tview.NewFlex().
		AddItem(ui.pages, 0, 2, true).
		AddItem(ui.logView, 0, 1, false)

	ui.setFocusForCurrentMode()
}

// initWorkoutSelectionMode sets up the Workout Selection mode UI
func (ui *CursesUIViewImpl) initWorkoutSelectionMode(controller *UIController) {
	instructionsText := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	instructionsText.SetText("[yellow]Enter[white] Load Workout  |  [yellow]Tab[white] Cycle Panels  |  [yellow]M[white] Sound\n[yellow]1[white] Workouts  |  [yellow]2[white] Session  |  [yellow]Esc[white] Quit")

	ui.workoutList = tview.NewList().
		ShowSecondaryText(true).
		SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			ui.logger.Printf("UI: Workout selected: index=%d, name=%s", index, mainText)
			controller.OnWorkoutSelected(index)
		}).
		SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			ui.updateWorkoutDetailsDisplay(index)
		})
	ui.workoutList.SetBorder(true).SetTitle(" Workouts ")

	ui.workoutDetailsPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.workoutDetailsPanel.SetBorder(true).SetTitle(" Workout Details ")
	ui.updateWorkoutDetailsDisplay(-1)

	ui.workoutSelectionTabWidgets = append(ui.workoutSelectionTabWidgets, ui.workoutList.Box)
	ui.workoutSelectionTabWidgets = append(ui.workoutSelectionTabWidgets, ui.workoutDetailsPanel.Box)

	rowFlex := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(ui.workoutList, 0, 1, true).
		AddItem(ui.workoutDetailsPanel, 0, 1, false)

	ui.workoutSelectionFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(instructionsText, 2, 0, false).
		AddItem(rowFlex, 0, 1, true)
}

// initSessionDashboardMode sets up the Session Dashboard mode UI
func (ui *CursesUIViewImpl) initSessionDashboardMode() {
	ui.sessionPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.sessionPanel.SetBorder(true).SetTitle(" Session ")

	ui.exercisesPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.exercisesPanel.SetBorder(true).SetTitle(" Exercises ")

	ui.sessionDashboardTabWidgets = append(ui.sessionDashboardTabWidgets, ui.sessionPanel.Box)
	ui.sessionDashboardTabWidgets = append(ui.sessionDashboardTabWidgets, ui.exercisesPanel.Box)

	ui.sessionDashboardFlex = tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(ui.sessionPanel, 0, 3, true).
		AddItem(ui.exercisesPanel, 0, 2, false)

	ui.updateSessionDisplay()
}

// SetWorkoutList populates the workout selection list
func (ui *CursesUIViewImpl) SetWorkoutList(workouts []workout.Workout, selected int) {
	ui.workouts = workouts
	ui.workoutList.Clear()

	for _, w := range workouts {
		ui.workoutList.AddItem(w.Name, workoutSummary(w), 0, nil)
	}

	if len(workouts) == 0 {
		ui.updateWorkoutDetailsDisplay(-1)
		return
	}
	if selected < 0 || selected >= len(workouts) {
		selected = 0
	}
	ui.workoutList.SetCurrentItem(selected)
	ui.updateWorkoutDetailsDisplay(selected)
}

func (ui *CursesUIViewImpl) updateWorkoutDetailsDisplay(index int) {
	if ui.workoutDetailsPanel == nil {
		return
	}
	if index < 0 || index >= len(ui.workouts) {
		ui.workoutDetailsPanel.SetText(renderWorkoutDetails(nil))
		return
	}
	ui.workoutDetailsPanel.SetText(renderWorkoutDetails(&ui.workouts[index]))
}

// SetMode switches the visible page
func (ui *CursesUIViewImpl) SetMode(mode UIMode) {
	if ui.currentMode == mode {
		return
	}

	ui.currentMode = mode

	switch mode {
	case UIModeWorkoutSelection:
		ui.pages.SwitchToPage(pageWorkoutSelection)
	case UIModeSessionDashboard:
		ui.pages.SwitchToPage(pageSessionDashboard)
	}

	ui.setFocusForCurrentMode()
}

// GetCurrentMode returns the currently active UI mode
func (ui *CursesUIViewImpl) GetCurrentMode() UIMode {
	return ui.currentMode
}

func (ui *CursesUIViewImpl) setFocusForCurrentMode() {
	if widgets := ui.getTabWidgetsForCurrentMode(); len(widgets) > 0 {
		ui.app.SetFocus(widgets[0])
	}
}

func (ui *CursesUIViewImpl) getTabWidgetsForCurrentMode() []*tview.Box {
	switch ui.currentMode {
	case UIModeWorkoutSelection:
		return ui.workoutSelectionTabWidgets
	case UIModeSessionDashboard:
		return ui.sessionDashboardTabWidgets
	default:
		return nil
	}
}

// SetupKeyboardHandlers sets up global and per-mode keyboard handlers
func (ui *CursesUIViewImpl) SetupKeyboardHandlers(controller *UIController) {
	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyRune {
			if mode, ok := GetUIModeByKey(event.Rune()); ok {
				controller.OnModeChange(mode)
				return nil
			}
			if event.Rune() == 'm' {
				controller.ToggleSound()
				return nil
			}
		}

		// Tab cycles focus through the current mode's widgets
		if event.Key() == tcell.KeyTab {
			widgets := ui.getTabWidgetsForCurrentMode()
			widgetCount := len(widgets)
			if widgetCount > 0 {
				for i := 0; i < widgetCount; i++ {
					if widgets[i].HasFocus() {
						ui.app.SetFocus(widgets[(i+1)%widgetCount])
						break
					}
				}
			}
			return nil
		}

		if event.Key() == tcell.KeyEscape {
			controller.OnEscapeKey()
			return nil
		}

		if ui.currentMode != UIModeSessionDashboard {
			return event
		}

		switch event.Key() {
		case tcell.KeyRight:
			controller.Next()
			return nil
		case tcell.KeyLeft:
			controller.Previous()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case ' ':
				controller.TogglePause()
			case 'n':
				controller.Next()
			case 'b':
				controller.Previous()
			case 'x':
				controller.Stop()
			case 'r':
				controller.Restart()
			case 'y':
				controller.ConfirmSwitch()
			case 'c':
				controller.CancelSwitch()
			case 'd':
				controller.RemoveWorkout()
			default:
				return event
			}
			return nil
		}

		return event
	})
}

// GetLogViewHeight returns the visible height of the log view
func (ui *CursesUIViewImpl) GetLogViewHeight() int {
	_, _, _, height := ui.logView.GetInnerRect()
	return height
}

// ClearLogView clears the log view
func (ui *CursesUIViewImpl) ClearLogView() {
	ui.logView.Clear()
}

// WriteLogLine writes a line to the log view
func (ui *CursesUIViewImpl) WriteLogLine(line string) error {
	_, err := fmt.Fprint(ui.logView, tview.Escape(line))
	return err
}

// Draw refreshes the UI
func (ui *CursesUIViewImpl) Draw() error {
	ui.app.Draw()
	return nil
}

// Run starts the tview application and blocks until it exits
func (ui *CursesUIViewImpl) Run() error {
	ui.app.SetRoot(ui.mainFlex, true)
	ui.setFocusForCurrentMode()
	return ui.app.Run()
}

// Stop stops the tview application
func (ui *CursesUIViewImpl) Stop() {
	ui.app.Stop()
}

// UpdateSession renders a new session snapshot
func (ui *CursesUIViewImpl) UpdateSession(rec workout.Record) {
	ui.lastRecord = rec
	ui.updateSessionDisplay()
}

// SetSoundOn updates the sound indicator
func (ui *CursesUIViewImpl) SetSoundOn(on bool) {
	ui.soundOn = on
	ui.updateSessionDisplay()
}

func (ui *CursesUIViewImpl) updateSessionDisplay() {
	if ui.sessionPanel == nil {
		return
	}
	ui.sessionPanel.SetText(renderSession(ui.lastRecord, ui.soundOn))
	ui.exercisesPanel.SetText(renderExerciseList(ui.lastRecord.ActiveWorkout))
}

func workoutSummary(w workout.Workout) string {
	rounds := "round"
	if w.Rounds != 1 {
		rounds = "rounds"
	}
	return fmt.Sprintf("%s  |  %d %s  |  %s", formatDuration(w.TotalDuration()), w.Rounds, rounds, w.Difficulty)
}

func renderWorkoutDetails(w *workout.Workout) string {
	var b strings.Builder
	if w == nil {
		b.WriteString("\n\n  [yellow]Workout Selection[white]\n\n")
		b.WriteString("  Select a workout from the list to view details.\n\n")
		b.WriteString("  [gray]Press Enter to load the selected workout.[white]\n")
		return b.String()
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "  [yellow]%s[white]\n", tview.Escape(w.Name))
	if w.Description != "" {
		fmt.Fprintf(&b, "  %s\n", tview.Escape(w.Description))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "  [gray]Duration:[white]   %s\n", formatDuration(w.TotalDuration()))
	fmt.Fprintf(&b, "  [gray]Rounds:[white]     %d\n", w.Rounds)
	if w.Difficulty != "" {
		fmt.Fprintf(&b, "  [gray]Difficulty:[white] %s\n", w.Difficulty)
	}
	if len(w.Tags) > 0 {
		fmt.Fprintf(&b, "  [gray]Tags:[white]       %s\n", strings.Join(w.Tags, ", "))
	}

	b.WriteString("\n  [gray]Exercises:[white]\n")
	for i, e := range w.Exercises {
		fmt.Fprintf(&b, "    %d. %s %s\n", i+1, tview.Escape(e.Name), exerciseAmount(e.Duration, e.Repetitions))
	}
	b.WriteString("\n  [green]Press Enter to load this workout[white]\n")
	return b.String()
}

func exerciseAmount(duration, repetitions int) string {
	switch {
	case duration > 0 && repetitions > 0:
		return fmt.Sprintf("[gray](%s, %d reps)[white]", formatDurationMMSS(time.Duration(duration)*time.Second), repetitions)
	case duration > 0:
		return fmt.Sprintf("[gray](%s)[white]", formatDurationMMSS(time.Duration(duration)*time.Second))
	case repetitions > 0:
		return fmt.Sprintf("[gray](%d reps)[white]", repetitions)
	default:
		return "[gray](untimed)[white]"
	}
}

func sessionStatus(rec workout.Record) string {
	active := rec.ActiveWorkout
	switch {
	case active.IsCompleted:
		return "[green]COMPLETED[white]"
	case !active.IsStarted:
		return "[gray]READY[white]"
	case rec.ActiveExercise.IsPaused:
		return "[yellow]PAUSED[white]"
	default:
		return "[green]RUNNING[white]"
	}
}

// renderSession renders the dashboard text for a snapshot
func renderSession(rec workout.Record, soundOn bool) string {
	active := rec.ActiveWorkout
	exercise := rec.ActiveExercise

	var b strings.Builder
	if active.IsEmpty() {
		b.WriteString("\n\n  [yellow]No active workout[white]\n\n")
		b.WriteString("  Pick one in Workout Selection mode (press 1).\n")
		return b.String()
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "  [yellow]%s[white]  %s\n\n", tview.Escape(active.Name), sessionStatus(rec))
	fmt.Fprintf(&b, "  [gray]Round:[white]     %d / %d\n", active.CurrentRound, active.Rounds)
	if idx := active.IndexOf(exercise.ID); idx >= 0 {
		fmt.Fprintf(&b, "  [gray]Exercise:[white]  %d / %d\n\n", idx+1, len(active.Exercises))
	} else {
		b.WriteString("\n")
	}

	name := tview.Escape(exercise.Name)
	if exercise.IsRest() {
		fmt.Fprintf(&b, "  [blue]%s[white]\n", name)
	} else {
		fmt.Fprintf(&b, "  [cyan]%s[white]\n", name)
	}
	if exercise.Duration > 0 {
		fmt.Fprintf(&b, "  [yellow]%s[white] [gray]of %s[white]\n", formatCountdown(exercise.CurrentTime), formatCountdown(exercise.Duration))
	} else {
		b.WriteString("  [gray]Untimed, press N when done[white]\n")
	}
	if exercise.Repetitions > 0 {
		fmt.Fprintf(&b, "  [gray]Reps:[white] %d\n", exercise.Repetitions)
	}
	if exercise.Description != "" {
		fmt.Fprintf(&b, "  [gray]%s[white]\n", tview.Escape(exercise.Description))
	}

	if pending := active.PendingSwitchWorkout; pending != nil {
		fmt.Fprintf(&b, "\n  [red]Switch to %s?[white]  [yellow]Y[white] Confirm  |  [yellow]C[white] Cancel\n", tview.Escape(pending.Name))
	}

	b.WriteString("\n  [gray]-------------------------[white]\n")
	switch {
	case !active.IsLive():
		b.WriteString("  [yellow]Space[white] Start  |  [yellow]R[white] Restart  |  [yellow]D[white] Remove\n")
	case exercise.IsPaused:
		b.WriteString("  [yellow]Space[white] Resume  |  [yellow]X[white] Stop  |  [yellow]R[white] Restart\n")
	default:
		b.WriteString("  [yellow]Space[white] Pause  |  [yellow]X[white] Stop  |  [yellow]R[white] Restart\n")
	}
	b.WriteString("  [yellow]N[white]/[yellow]→[white] Next  |  [yellow]B[white]/[yellow]←[white] Previous\n")
	if soundOn {
		b.WriteString("  [yellow]M[white] Sound: [green]on[white]\n")
	} else {
		b.WriteString("  [yellow]M[white] Sound: [gray]off[white]\n")
	}
	return b.String()
}

// renderExerciseList renders the round's exercises with the current one marked
func renderExerciseList(active workout.ActiveWorkout) string {
	if active.IsEmpty() {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n")
	for _, e := range active.Exercises {
		marker := "  "
		if e.ID == active.CurrentExerciseID && !active.IsCompleted {
			marker = "[yellow]>[white] "
		}
		fmt.Fprintf(&b, "  %s%s %s\n", marker, tview.Escape(e.Name), exerciseAmount(e.Duration, e.Repetitions))
	}
	return b.String()
}

func formatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes >= 60 {
		hours := minutes / 60
		mins := minutes % 60
		if mins > 0 {
			return fmt.Sprintf("%dh %dm", hours, mins)
		}
		return fmt.Sprintf("%dh", hours)
	}
	if minutes == 0 && d > 0 {
		return fmt.Sprintf("%d sec", int(d.Seconds()))
	}
	return fmt.Sprintf("%d min", minutes)
}

// formatCountdown formats seconds remaining as MM:SS, showing the completion
// tick (-1) as 00:00
func formatCountdown(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return formatDurationMMSS(time.Duration(seconds) * time.Second)
}

// formatDurationMMSS formats a duration as MM:SS
func formatDurationMMSS(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
