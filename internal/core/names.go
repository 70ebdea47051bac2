package core

import "golang.org/x/text/cases"

// NameKey is the form under which member names must be unique. It applies
// full Unicode case folding, so "Élodie" and "ÉLODIE" share a key.
func NameKey(name string) string {
	return cases.Fold().String(name)
}
