package models

import "time"

// DashboardStats aggregates counts across all collections
type DashboardStats struct {
	TotalActors         int            `json:"totalActors"`
	TotalIndicators     int            `json:"totalIndicators"`
	TotalIncidents      int            `json:"totalIncidents"`
	TotalFeeds          int            `json:"totalFeeds"`
	ActiveActors        int            `json:"activeActors"`
	ActiveFeeds         int            `json:"activeFeeds"`
	ActiveIndicators    int            `json:"activeIndicators"`
	CriticalIncidents   int            `json:"criticalIncidents"`
	CriticalIndicators  int            `json:"criticalIndicators"`
	OpenIncidents       int            `json:"openIncidents"`
	IndicatorsByType    map[string]int `json:"indicatorsByType"`
	IncidentsBySeverity map[string]int `json:"incidentsBySeverity"`
	Timestamp           time.Time      `json:"timestamp"`
}
