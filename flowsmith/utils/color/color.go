// Package color styles CLI output.
package color

import (
	"github.com/fatih/color"
)

var (
	promptColor   = color.New(color.FgCyan, color.Bold)
	infoColor     = color.New(color.FgGreen)
	errorColor    = color.New(color.FgRed, color.Bold)
	replyColor    = color.New(color.FgHiYellow)
	workflowColor = color.New(color.FgGreen, color.Bold)
)

func Prompt(s string) string {
	return promptColor.Sprint(s)
}

func Info(s string) string {
	return infoColor.Sprint(s)
}

func Error(s string) string {
	return errorColor.Sprint(s)
}

// Reply styles model output.
func Reply(s string) string {
	return replyColor.Sprint(s)
}

// Workflow styles a recovered workflow summary.
func Workflow(s string) string {
	return workflowColor.Sprint(s)
}
