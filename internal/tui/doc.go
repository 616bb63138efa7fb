// Package tui implements the Odonto terminal chart editor.
//
// It is built with Charmbracelet's BubbleTea, Lipgloss, and Bubbles
// libraries. Chart state and editor transitions live in internal/chart;
// this package only draws them and turns keys and clicks into container
// calls. Saves go through internal/saver and come back as messages.
//
// Component architecture:
//
//	model.go       root model, message routing, Init/Update/View
//	theme.go       centralized color + style definitions
//	header.go      top bar with patient context, footer with status + hints
//	patientlist.go patient selector (initial screen)
//	odontogram.go  tooth geometry, chart rendering, legend, hit testing
//	editor.go      surface editor modal and tooth detail panel
//	helpers.go     truncation and clamping
package tui
