package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to amostras! Let's configure the sample bot.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. WPPConnect server.
	baseURL, err := (&promptui.Prompt{
		Label:   "WPPConnect server URL",
		Default: cfg.Transport.BaseURL,
	}).Run()
	if err != nil {
		return nil, fmt.Errorf("server url: %w", err)
	}
	cfg.Transport.BaseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")

	session, err := (&promptui.Prompt{
		Label:   "WPPConnect session name",
		Default: cfg.Transport.Session,
	}).Run()
	if err != nil {
		return nil, fmt.Errorf("session name: %w", err)
	}
	cfg.Transport.Session = strings.TrimSpace(session)

	// 2. Oversight contact.
	contact, err := (&promptui.Prompt{
		Label:    "Oversight contact number (digits only, e.g. 5543999990000)",
		Validate: validateDigits,
	}).Run()
	if err != nil {
		return nil, fmt.Errorf("oversight contact: %w", err)
	}
	cfg.Defaults.OversightContact = strings.TrimSpace(contact) + "@c.us"

	// 3. Overdue threshold.
	overdue, err := (&promptui.Prompt{
		Label:    "Days before a sample becomes overdue",
		Default:  strconv.Itoa(cfg.Defaults.OverdueDays),
		Validate: validatePositiveInt,
	}).Run()
	if err != nil {
		return nil, fmt.Errorf("overdue days: %w", err)
	}
	cfg.Defaults.OverdueDays, _ = strconv.Atoi(strings.TrimSpace(overdue))

	// 4. Timezone.
	tzPrompt := promptui.Select{
		Label: "Reference timezone",
		Items: []string{DefaultTimezone, "America/Manaus", "America/Recife", "UTC"},
	}
	_, tz, err := tzPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("timezone selection: %w", err)
	}
	cfg.Timezone = tz

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	fmt.Println("Set AMOSTRAS_TRANSPORT__TOKEN in your environment before running amostras serve.")
	return cfg, nil
}

func validateDigits(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("a number is required")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return fmt.Errorf("digits only")
		}
	}
	return nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fmt.Errorf("must be a positive number")
	}
	return nil
}
