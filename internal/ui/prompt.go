package ui

import (
	"os"

	"github.com/charmbracelet/huh"
)

// IsCI returns true if running in a CI environment.
// gitlab-ci-local sets GITLAB_CI=false, which should not be treated as CI.
func IsCI() bool {
	return isTruthy(os.Getenv("CI")) ||
		isTruthy(os.Getenv("BLOKTASTIC_CI")) ||
		isTruthy(os.Getenv("GITHUB_ACTIONS")) ||
		isTruthy(os.Getenv("GITLAB_CI"))
}

func isTruthy(v string) bool {
	return v != "" && v != "false" && v != "0"
}

// Choice is a labelled select option.
type Choice struct {
	Label string
	Value string
}

func options(choices []Choice) []huh.Option[string] {
	opts := make([]huh.Option[string], len(choices))
	for i, c := range choices {
		opts[i] = huh.NewOption(c.Label, c.Value)
	}
	return opts
}

// InitAnswers are the values collected by InitForm.
type InitAnswers struct {
	SpaceID      string
	Region       string
	Framework    string
	PromptOutput string
}

// InitChoices are the select lists offered by InitForm.
type InitChoices struct {
	Regions       []Choice
	Frameworks    []Choice
	PromptOutputs []Choice
}

// InitForm asks for the project settings. Fields of answers that are
// already set become the preselected values.
func InitForm(answers *InitAnswers, choices InitChoices, validateSpace func(string) error) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Storyblok Space ID").
				Value(&answers.SpaceID).
				Validate(validateSpace),
			huh.NewSelect[string]().
				Title("Region").
				Options(options(choices.Regions)...).
				Value(&answers.Region),
			huh.NewSelect[string]().
				Title("Default framework").
				Options(options(choices.Frameworks)...).
				Value(&answers.Framework),
			huh.NewSelect[string]().
				Title("Prompt output preference").
				Options(options(choices.PromptOutputs)...).
				Value(&answers.PromptOutput),
		),
	).Run()
}

// CreateAnswers are the values collected by CreateForm.
type CreateAnswers struct {
	Type        string
	Name        string
	Namespace   string
	Title       string
	Description string
	AuthorName  string
	GitHub      string
	Category    string
	Tags        string
}

// CreateValidators check the free-text fields of CreateForm.
type CreateValidators struct {
	Name        func(string) error
	Namespace   func(string) error
	Description func(string) error
	GitHub      func(string) error
}

// SelectType asks for the package type.
func SelectType(value *string, types []Choice) error {
	return huh.NewSelect[string]().
		Title("Package type").
		Options(options(types)...).
		Value(value).
		Run()
}

// CreateForm asks for the scaffold details. categories may be empty, in
// which case no category is asked for.
func CreateForm(answers *CreateAnswers, categories []Choice, v CreateValidators) error {
	fields := []huh.Field{
		huh.NewInput().Title("Package name (kebab-case)").Value(&answers.Name).Validate(v.Name),
		huh.NewInput().Title("Namespace").Value(&answers.Namespace).Validate(v.Namespace),
		huh.NewInput().Title("Title").Value(&answers.Title),
		huh.NewInput().Title("Description").Value(&answers.Description).Validate(v.Description),
		huh.NewInput().Title("Author name").Value(&answers.AuthorName),
		huh.NewInput().Title("GitHub username").Value(&answers.GitHub).Validate(v.GitHub),
	}
	if len(categories) > 0 {
		fields = append(fields, huh.NewSelect[string]().
			Title("Category").
			Options(options(categories)...).
			Value(&answers.Category))
	}
	fields = append(fields, huh.NewInput().
		Title("Tags (comma-separated)").
		Value(&answers.Tags))

	return huh.NewForm(huh.NewGroup(fields...)).Run()
}

// Confirm prompts the user for a yes/no confirmation.
func Confirm(title string) (bool, error) {
	var confirmed bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed).
		Run()
	return confirmed, err
}
