// Package anim interpolates between two layout passes. It classifies nodes
// and links into entering, persisting and exiting sets and drives one tween
// per animated attribute with github.com/tanema/gween.
package anim

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tanema/gween/ease"
)

// DefaultEasing is the easing used when none is configured.
const DefaultEasing = "cubic-in-out"

var easings = map[string]ease.TweenFunc{
	"linear":       ease.Linear,
	"quad-in-out":  ease.InOutQuad,
	"cubic-in-out": ease.InOutCubic,
	"cubic-out":    ease.OutCubic,
	"sine-in-out":  ease.InOutSine,
	"expo-out":     ease.OutExpo,
	"back-out":     ease.OutBack,
	"bounce-out":   ease.OutBounce,
	"elastic-out":  ease.OutElastic,
}

// Easing resolves an easing name. The empty name maps to DefaultEasing.
func Easing(name string) (ease.TweenFunc, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultEasing
	}
	fn, ok := easings[key]
	if !ok {
		return nil, fmt.Errorf("unknown easing %q (known: %s)", name, strings.Join(EasingNames(), ", "))
	}
	return fn, nil
}

// EasingNames lists the known easing names, sorted.
func EasingNames() []string {
	names := make([]string, 0, len(easings))
	for name := range easings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
