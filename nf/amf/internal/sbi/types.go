package sbi

import "context"

// SbiMessage is the decoded form of an inbound SBI request, handed from
// the HTTP layer to the orchestrator.
type SbiMessage struct {
	Service ServiceType
	Message MessageType
	Method  string
	URI     string
	Body    []byte
}

// ProcessedMessage is the echoed-back description of the classified
// request, using the numeric service/type/method codes.
type ProcessedMessage struct {
	Service int    `json:"service"`
	Type    int    `json:"type"`
	Method  int    `json:"method"`
	URI     string `json:"uri"`
}

// Response is the fixed response envelope returned for every SBI
// request, plus a per-request CorrelationID so a caller can correlate
// this response against AMF logs.
type Response struct {
	Status           string           `json:"status"`
	Timestamp        string           `json:"timestamp"`
	AmfState         string           `json:"amfState"`
	ProcessedMessage ProcessedMessage `json:"processedMessage"`
	CorrelationID    string           `json:"correlationId"`
}

// Outcome is what the orchestrator hands back after processing one SBI
// message: the HTTP status to answer with and the UE's (or AMF's, for
// NF-management traffic with no UE in scope) state label to report.
type Outcome struct {
	StatusCode int
	AmfState   string
}

// Stats is the GET /stats payload: UE and NF population counts,
// cumulative counters, and process health (average response time,
// memory usage, goroutine count).
type Stats struct {
	RegisteredUEs         int     `json:"registeredUes"`
	ConnectedUEs          int     `json:"connectedUes"`
	ActivePduSessions     int     `json:"activePduSessions"`
	RegisteredNFs         int     `json:"registeredNfs"`
	HealthyNFs            int     `json:"healthyNfs"`
	TotalUeRegistrations  int64   `json:"totalUeRegistrations"`
	TotalDeregistrations  int64   `json:"totalDeregistrations"`
	TotalAuthRequests     int64   `json:"totalAuthRequests"`
	AverageResponseTimeMs float64 `json:"averageResponseTimeMs"`
	MemoryUsageBytes      uint64  `json:"memoryUsageBytes"`
	Goroutines            int     `json:"goroutines"`
}

// Orchestrator is the subset of the orchestrator the SBI adapter depends
// on. Kept narrow and defined on the consumer side so this package never
// imports the orchestrator package.
type Orchestrator interface {
	HandleSbiMessage(ctx context.Context, msg SbiMessage) Outcome
	Stats() Stats
}
