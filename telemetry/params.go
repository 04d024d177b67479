// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import "time"

// Wire method names. Each identifies the parameter shape the consumer
// should decode for that envelope. These values are protocol constants —
// changing them breaks every deployed consumer.
const (
	MethodLog       = "hawk.log"
	MethodMetric    = "hawk.metric"
	MethodConfig    = "hawk.config"
	MethodProgress  = "hawk.progress"
	MethodEvent     = "hawk.event"
	MethodDashboard = "hawk.dashboard"
)

// Level is the severity of a log envelope.
type Level string

const (
	LevelDebug   Level = "DEBUG"
	LevelInfo    Level = "INFO"
	LevelWarn    Level = "WARN"
	LevelError   Level = "ERROR"
	LevelSuccess Level = "SUCCESS"
)

// LogParams is the parameter block for MethodLog envelopes.
type LogParams struct {
	Message   string         `json:"message"`
	Level     Level          `json:"level,omitempty"`
	Timestamp *time.Time     `json:"timestamp,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
	Tags      []string       `json:"tags,omitempty"`
	Component string         `json:"component,omitempty"`

	// Extra carries forward-compatible fields the consumer may or may
	// not understand. Flattening is the consumer's concern; on the
	// wire it is a nested object.
	Extra map[string]any `json:"extra,omitempty"`
}

// MetricKind distinguishes how a metric point's value should be
// interpreted: an instantaneous measurement, a monotonically
// increasing count, or a distribution sample.
type MetricKind string

const (
	MetricGauge     MetricKind = "gauge"
	MetricCounter   MetricKind = "counter"
	MetricHistogram MetricKind = "histogram"
)

// MetricParams is the parameter block for MethodMetric envelopes.
type MetricParams struct {
	Name      string         `json:"name"`
	Value     float64        `json:"value"`
	Type      MetricKind     `json:"type,omitempty"`
	Timestamp *time.Time     `json:"timestamp,omitempty"`
	Unit      string         `json:"unit,omitempty"`
	Tags      map[string]any `json:"tags,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// FieldType is the declared type of a config panel field.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldInteger FieldType = "integer"
	FieldFloat   FieldType = "float"
	FieldBoolean FieldType = "boolean"
	FieldEnum    FieldType = "enum"
)

// ConfigParams is the parameter block for MethodConfig envelopes. A
// field-definition envelope carries the full schema; a value-update
// envelope carries only Key, Value, and Panel.
type ConfigParams struct {
	Key             string    `json:"key"`
	Value           any       `json:"value,omitempty"`
	Type            FieldType `json:"type,omitempty"`
	Description     string    `json:"description,omitempty"`
	Default         any       `json:"default,omitempty"`
	Required        bool      `json:"required,omitempty"`
	Min             *float64  `json:"min,omitempty"`
	Max             *float64  `json:"max,omitempty"`
	Options         []string  `json:"options,omitempty"`
	RestartRequired bool      `json:"restart_required,omitempty"`
	Category        string    `json:"category,omitempty"`
	Panel           string    `json:"panel,omitempty"`
}

// ProgressStatus is the lifecycle state carried by a progress envelope.
type ProgressStatus string

const (
	ProgressPending    ProgressStatus = "pending"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressCompleted  ProgressStatus = "completed"
	ProgressError      ProgressStatus = "error"
)

// ProgressParams is the parameter block for MethodProgress envelopes.
type ProgressParams struct {
	ID                  string         `json:"id"`
	Label               string         `json:"label"`
	Current             float64        `json:"current"`
	Total               float64        `json:"total"`
	Status              ProgressStatus `json:"status,omitempty"`
	Unit                string         `json:"unit,omitempty"`
	Details             string         `json:"details,omitempty"`
	EstimatedCompletion *time.Time     `json:"estimated_completion,omitempty"`
}

// Severity classifies an event envelope.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
	SeveritySuccess  Severity = "success"
)

// EventParams is the parameter block for MethodEvent envelopes.
type EventParams struct {
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message,omitempty"`
	Severity  Severity       `json:"severity,omitempty"`
	Timestamp *time.Time     `json:"timestamp,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// WidgetKind is the rendering type of a dashboard widget.
type WidgetKind string

const (
	WidgetGauge      WidgetKind = "gauge"
	WidgetStatusGrid WidgetKind = "status_grid"
	WidgetChart      WidgetKind = "metric_chart"
	WidgetTable      WidgetKind = "table"
	WidgetText       WidgetKind = "text"
)

// WidgetLayout is a widget's position and extent on the dashboard
// grid. Row and Col are zero-based; Width and Height are in grid
// cells.
type WidgetLayout struct {
	Row    int `json:"row"`
	Col    int `json:"col"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DashboardParams is the parameter block for MethodDashboard envelopes.
// Data's shape depends on the widget kind: a value/unit pair for
// gauges, a name→status map for status grids, series for charts, and
// rows for tables. Custom widget kinds carry whatever the data
// callback returns.
type DashboardParams struct {
	WidgetID  string       `json:"widget_id"`
	Type      WidgetKind   `json:"type"`
	Title     string       `json:"title,omitempty"`
	Data      any          `json:"data,omitempty"`
	Layout    WidgetLayout `json:"layout"`
	Dashboard string       `json:"dashboard,omitempty"`
}
