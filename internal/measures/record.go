// Package measures scrapes the dense numeric id space of regulatory measure
// pages into one JSON artifact per id.
package measures

import "time"

// Approval is one country/date approval row, in page order.
type Approval struct {
	Country string `json:"country"`
	Date    string `json:"date"`
}

// Record is the structured form of one measure page. Missing page sections
// degrade to null or empty values, never to an error.
type Record struct {
	MeasureNumber   int               `json:"measure_number"`
	RawTitle        string            `json:"raw_title"`
	RawText         *string           `json:"raw_text"`
	Characteristics map[string]string `json:"characteristics"`
	Approvals       []Approval        `json:"approvals"`
	ScrapedAt       time.Time         `json:"scraped_at"`
}
