package monitor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/s22625/jobctl/internal/config"
	"github.com/s22625/jobctl/internal/model"
)

const formWidth = 72

// startForm collects start parameters. With configured fields each one gets
// an input or select; otherwise a text area takes name=value lines.
type startForm struct {
	form   *huh.Form
	fields []config.FieldConfig
	values []string
	free   string
}

func newStartForm(fields []config.FieldConfig) *startForm {
	f := &startForm{
		fields: fields,
		values: make([]string, len(fields)),
	}

	var inputs []huh.Field
	if len(fields) == 0 {
		inputs = append(inputs, huh.NewText().
			Title("Start parameters").
			Description("One name=value per line. Lines starting with # are ignored.").
			Value(&f.free).
			Validate(func(s string) error {
				_, err := model.ParseFieldLines(s)
				return err
			}))
	} else {
		for i, fc := range fields {
			f.values[i] = fc.Default
			inputs = append(inputs, fieldInput(fc, &f.values[i]))
		}
	}

	f.form = huh.NewForm(huh.NewGroup(inputs...)).
		WithTheme(formTheme()).
		WithWidth(formWidth).
		WithShowHelp(true)
	return f
}

func fieldInput(fc config.FieldConfig, value *string) huh.Field {
	if len(fc.Options) > 0 {
		return huh.NewSelect[string]().
			Title(fc.DisplayTitle()).
			Options(huh.NewOptions(fc.Options...)...).
			Value(value)
	}
	input := huh.NewInput().
		Title(fc.DisplayTitle()).
		Value(value)
	if fc.Required {
		input = input.Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s is required", fc.DisplayTitle())
			}
			return nil
		})
	}
	return input
}

func formTheme() *huh.Theme {
	theme := huh.ThemeBase16()
	base := lipgloss.NewStyle().Foreground(colorWhite)
	theme.Focused.Title = base.Foreground(colorBlue).Bold(true)
	theme.Focused.Description = base.Foreground(colorGray)
	theme.Focused.ErrorIndicator = base.Foreground(colorRed)
	theme.Focused.ErrorMessage = base.Foreground(colorRed)
	return theme
}

// Request builds the start request from the collected values.
func (f *startForm) Request() (model.StartRequest, error) {
	if len(f.fields) == 0 {
		return model.ParseFieldLines(f.free)
	}
	var req model.StartRequest
	for i, fc := range f.fields {
		req.Set(fc.Name, f.values[i])
	}
	return req, nil
}

// PromptStart runs the start form standalone and returns the request.
func PromptStart(fields []config.FieldConfig) (model.StartRequest, error) {
	f := newStartForm(fields)
	if err := f.form.Run(); err != nil {
		return model.StartRequest{}, err
	}
	if f.form.State != huh.StateCompleted {
		return model.StartRequest{}, errors.New("start form aborted")
	}
	return f.Request()
}
