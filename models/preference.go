package models

import "fmt"

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func ParseTheme(s string) (Theme, error) {
	switch t := Theme(s); t {
	case ThemeLight, ThemeDark:
		return t, nil
	}
	return "", fmt.Errorf("unknown theme %q", s)
}
