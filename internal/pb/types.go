// Package pb is the wire layer for the AFCON gRPC service. No .proto file
// exists for this service, so these message types and the service plumbing
// in service.go are hand-written to the shape protoc-gen-go and
// protoc-gen-go-grpc would otherwise produce, and are carried over the
// wire with the JSON codec registered in codec.go instead of protobuf's
// binary wire format. See DESIGN.md for the tradeoff.
package pb

import "time"

// TeamMessage mirrors model.Team on the wire.
type TeamMessage struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Logo   string `json:"logo"`
	Winner *bool  `json:"winner,omitempty"`
}

// FixtureMessage mirrors model.Fixture on the wire.
type FixtureMessage struct {
	APIFixtureID   int64       `json:"apiFixtureId"`
	LeagueID       int64       `json:"leagueId"`
	Season         int32       `json:"season"`
	Competition    string      `json:"competition"`
	KickoffInstant time.Time   `json:"kickoffInstant"`
	StatusShort    string      `json:"statusShort"`
	StatusLong     string      `json:"statusLong"`
	ElapsedMinutes *int32      `json:"elapsedMinutes,omitempty"`
	ExtraMinutes   *int32      `json:"extraMinutes,omitempty"`
	HomeTeam       TeamMessage `json:"homeTeam"`
	AwayTeam       TeamMessage `json:"awayTeam"`
	HomeGoals      *int32      `json:"homeGoals,omitempty"`
	AwayGoals      *int32      `json:"awayGoals,omitempty"`
	HalftimeHome   *int32      `json:"halftimeHome,omitempty"`
	HalftimeAway   *int32      `json:"halftimeAway,omitempty"`
	FulltimeHome   *int32      `json:"fulltimeHome,omitempty"`
	FulltimeAway   *int32      `json:"fulltimeAway,omitempty"`
	Venue          string      `json:"venue"`
	Referee        string      `json:"referee"`
}

// FixtureStatusMessage mirrors model.FixtureStatus on the wire.
type FixtureStatusMessage struct {
	Short          string `json:"short"`
	Long           string `json:"long"`
	ElapsedMinutes *int32 `json:"elapsedMinutes,omitempty"`
	ExtraMinutes   *int32 `json:"extraMinutes,omitempty"`
}

// FixtureEventMessage mirrors model.FixtureEvent on the wire.
type FixtureEventMessage struct {
	ElapsedMinutes int32  `json:"elapsedMinutes"`
	ExtraMinutes   int32  `json:"extraMinutes"`
	TeamID         int64  `json:"teamId"`
	PlayerID       int64  `json:"playerId"`
	PlayerName     string `json:"playerName"`
	AssistID       *int64 `json:"assistId,omitempty"`
	AssistName     string `json:"assistName,omitempty"`
	Kind           string `json:"kind"`
	Detail         string `json:"detail"`
	Comments       string `json:"comments,omitempty"`
}

// LiveMatchRequest is the StreamLiveMatches request.
type LiveMatchRequest struct {
	LeagueID int32 `json:"leagueId"`
	Season   int32 `json:"season"`
}

// LiveMatchUpdate is the StreamLiveMatches response message. EventType
// carries the string form of model.UpdateKind (match_started, goal,
// yellow_card, ...).
type LiveMatchUpdate struct {
	FixtureID    int32                 `json:"fixtureId"`
	EmissionTime time.Time             `json:"emissionTime"`
	EventType    string                `json:"eventType"`
	Fixture      FixtureMessage        `json:"fixture"`
	Status       FixtureStatusMessage  `json:"status"`
	Events       []FixtureEventMessage `json:"events"`
	TriggerEvent *FixtureEventMessage  `json:"triggerEvent,omitempty"`
}

// SyncFixturesRequest is the SyncFixtures unary request.
type SyncFixturesRequest struct {
	LeagueID    int32  `json:"leagueId"`
	Season      int32  `json:"season"`
	Competition string `json:"competition"`
}

// SyncFixturesResponse is the SyncFixtures unary response.
type SyncFixturesResponse struct {
	Success        bool   `json:"success"`
	FixturesSynced int32  `json:"fixturesSynced"`
	Message        string `json:"message"`
}

// GetFixturesByDateRequest is the GetFixturesByDate unary request.
type GetFixturesByDateRequest struct {
	Date     string `json:"date"`
	LeagueID *int32 `json:"leagueId,omitempty"`
	Season   *int32 `json:"season,omitempty"`
}

// GetFixturesByDateResponse is the GetFixturesByDate unary response.
type GetFixturesByDateResponse struct {
	Fixtures []FixtureMessage `json:"fixtures"`
}
