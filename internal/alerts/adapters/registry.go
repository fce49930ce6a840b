package adapters

import (
	"fmt"

	"github.com/k597/AlertsWebApi/internal/alerts"
)

// Shape names accepted in feed definitions
const (
	ShapeIntSeverity   = "int_severity"
	ShapeLabelSeverity = "label_severity"
)

// New builds the adapter for a feed definition's shape
func New(name, shape, path string) (alerts.FeedAdapter, error) {
	switch shape {
	case ShapeIntSeverity:
		return NewIntSeverityAdapter(name, path), nil
	case ShapeLabelSeverity:
		return NewLabelSeverityAdapter(name, path), nil
	default:
		return nil, fmt.Errorf("unknown feed shape %q for feed %s", shape, name)
	}
}
